// Package schema holds the data model shared by the extraction, rewrite and
// migration packages.
//
// A QualifiedName is the only way table names travel between packages. It is
// always two non-empty segments, database and table, with no whitespace, and
// renders canonically as "database.table":
//
//	name, err := schema.ParseQualifiedName("app.orders")
//	if err != nil {
//		var fe *schema.FormatError
//		if errors.As(err, &fe) {
//			fmt.Println(fe.Reason)
//		}
//	}
//
// The package also defines the error kinds surfaced by remote operations:
//   - FormatError for names that break the two-segment rule
//   - NotFoundError when the server does not know the table
//   - RemoteError for any other server-side rejection, carrying its diagnostic
//   - TimeoutError when a statement runs past its budget
//
// EngineDescriptor and Column are snapshots read from the system catalog. They
// are displayed and compared but never written back.
package schema
