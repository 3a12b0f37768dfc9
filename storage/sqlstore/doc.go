// Package sqlstore implements storage.MetadataStore on database/sql.
//
// Two drivers are supported: "sqlite" (modernc.org/sqlite, pure Go) for
// single-host runs and "pgx" (github.com/jackc/pgx/v5/stdlib) for a shared
// Postgres such as a Supabase project database. Queries are written with '?'
// placeholders and rebound for Postgres.
package sqlstore
