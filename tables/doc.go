// Package tables provides ready-made Table implementations for the query
// engine: in-memory collections, CSV and Parquet files, parquet file sets,
// JSON HTTP endpoints, SQL databases, generator functions and AWK programs.
//
// Every type implements engine.Table. Memory and SQLDB additionally
// implement the Inserter, Updater and Deleter capabilities, so INSERT,
// UPDATE and DELETE work against them; the rest are read-only and mutations
// fail with a capability error naming the operation.
//
// Example usage:
//
//	db := engine.New()
//	db.Register("users", tables.NewCSV("users.csv"))
//	db.Register("events", tables.NewParquetSet("logs/*.parquet"))
//	rows, err := db.Select("SELECT name FROM users WHERE age > 21")
package tables
