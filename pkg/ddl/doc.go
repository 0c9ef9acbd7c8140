// Package ddl fetches CREATE TABLE statements from a server and rewrites them
// to target a different database, table or cluster.
//
// A Document is immutable. Rewriting runs a list of independent Steps, each of
// which returns a new Document plus any warnings:
//
//   - RenameHeader renames the table in the CREATE TABLE header.
//   - RewriteClusterClause retargets or removes ON CLUSTER.
//   - RewriteDistributedCluster retargets a Distributed engine's cluster.
//   - RenameResidual renames quoted references to the bare table name.
//
// Steps that find nothing to change are no-ops, so Rewrite only fails on
// invalid table names. Callers should treat a WarnHeaderNotFound warning as a
// signal that the statement still creates the source table.
//
// The Introspector reads the statement with SHOW CREATE TABLE and exposes the
// catalog metadata (engine, columns, row count) used to validate a migration.
package ddl
