// Package fluentdb is a small fluent access layer over database/sql. A Client
// holds one query at a time: Query() stores the SQL, Bind() attaches typed
// parameters, and Fetch()/Execute() run it and interpret the result by the
// statement's leading verb. Helpers cover batch inserts, replace/upsert,
// counting and existence checks, all generated for the MySQL or SQLite
// dialect. Transactions, a per-client query log and a named-instance
// Registry with lazy connect complete the package.
package fluentdb
