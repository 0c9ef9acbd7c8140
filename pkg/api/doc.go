// Package api serves chsync over HTTP.
//
// Routes:
//
//	GET  /healthz                     liveness
//	GET  /metrics                     prometheus exposition
//	POST /api/tables                  {sql, markets} -> {tables}
//	POST /api/ddl/rewrite             {ddl, source, target, cluster} -> {ddl, warnings}
//	GET  /api/tables/{name}/ddl       source DDL, rewritten when ?target= is given
//	POST /api/migrate                 {source, target, drop_cluster, create_cluster, copy_data}
//
// Errors are returned as {"error": "..."} with a status derived from the
// schema error kind: bad names are 400, missing tables 404, server errors 502
// and exceeded budgets 504. Migrations for the same target are serialized.
package api
