// Package migrator recreates ClickHouse tables in another environment.
//
// A migration copies a table's structure from a source server to a target
// server, possibly under a different database, table name or cluster:
//
//	Idle -> FetchingDDL -> Rewriting -> Dropping -> Creating -> Done
//
// The source DDL comes from SHOW CREATE TABLE and is rewritten with the steps
// in pkg/ddl. Before anything is sent to the target, the rewritten header is
// parsed to confirm it creates the requested table. The target table is then
// dropped (a failure here is only logged) and created (a failure here fails
// the migration with the server's message). Each statement has its own
// budget; nothing is retried.
//
// The Syncer wraps a migration with an optional row copy through the remote()
// table function and a read-only validation of the result. RunBatch syncs
// many jobs at once, running jobs that share a target one after another.
//
// Example usage:
//
//	m := migrator.New(migrator.Config{
//		Source: sourceClient,
//		Target: targetClient,
//		Logger: log,
//	})
//
//	syncer := migrator.NewSyncer(m, migrator.Remote{
//		Address:  "ch-prod.internal:9000",
//		User:     "reader",
//		Password: os.Getenv("SOURCE_PASSWORD"),
//	})
//
//	jobs, err := migrator.ExpandJobs(cfg.Tables, cfg.Markets)
//	if err != nil {
//		return err
//	}
//
//	results, err := migrator.RunBatch(ctx, syncer, jobs, cfg.Concurrency)
package migrator
