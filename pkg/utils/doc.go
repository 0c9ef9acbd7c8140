// Package utils provides small helpers shared across chsync packages.
//
// # Identifier Utilities (identifier.go)
//
// Quoting and unquoting of ClickHouse identifiers and string literals:
//
//	utils.BacktickIdentifier("analytics.events") // `analytics`.`events`
//	utils.StripQuotes("`analytics`.`events`")    // analytics.events
//	utils.QuoteString("it's")                    // 'it\'s'
//
// Truncate caps diagnostic and log text:
//
//	utils.Truncate(body, consts.DiagnosticLimit)
//
// # Statement Builder (sqlbuilder.go)
//
// SQLBuilder assembles the statements chsync issues itself, as opposed to the
// CREATE TABLE text it replays from a source server:
//
//	utils.NewSQLBuilder().Drop("TABLE").IfExists().Table("test.orders").OnCluster("c1").String()
//	// DROP TABLE IF EXISTS test.orders ON CLUSTER c1
package utils
