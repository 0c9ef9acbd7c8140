// Package cmd provides the CLI commands for chsync.
//
// Commands are plain *cli.Command constructors (urfave/cli/v3) that take
// their dependencies through an fx.In params struct. Module registers them in
// the "commands" group and Run assembles them into the root command, which
// runs when the fx application starts.
//
// # Available Commands
//
//   - tables: list the tables a query references, expanding market templates
//   - ddl: print a source table's CREATE statement, optionally rewritten
//   - info: show a table's engine, columns and row count
//   - migrate: recreate one source table on the target (optionally with data)
//   - sync: run every table job in the configuration
//   - serve: run the HTTP API
//
// # Configuration
//
// The configuration file is named by --config (or $CHSYNC_CONFIG) and
// defaults to chsync.yaml in the working directory. Commands that talk to
// ClickHouse fail before connecting when it is missing. tables and serve work
// without it.
//
// # Example Usage
//
//	chsync tables --file report.sql --markets sg,id
//	chsync ddl app.orders --target test.orders
//	chsync migrate app.orders --target test.orders --copy
//	chsync --verbose sync
package cmd
