// Package clickhouse provides the connection used by chsync to talk to source
// and target servers.
//
// The client speaks either the native or the HTTP protocol through
// github.com/ClickHouse/clickhouse-go/v2 and exposes the two capabilities the
// rest of chsync needs: Query (statements returning rows) and Exec
// (statements returning nothing). Both honor the caller's context deadline and
// mirror it into the server-side max_execution_time setting.
//
// Errors returned by the client are classified:
//   - deadline exceeded becomes *schema.TimeoutError
//   - server exceptions and HTTP error bodies become *schema.RemoteError with
//     the server's error code and a diagnostic capped at 500 characters
//
// Example usage:
//
//	client, err := clickhouse.NewClientWithOptions(ctx, "localhost:9000", clickhouse.ClientOptions{
//		Username: "default",
//		ShowSQL:  true,
//		Logger:   log,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	rows, err := client.Query(ctx, "SHOW CREATE TABLE app.orders")
package clickhouse
