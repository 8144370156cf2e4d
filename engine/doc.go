// Package engine executes SQL statements against arbitrary data sources.
//
// A data source becomes a table by implementing a single method, Select,
// which returns an iterator of rows. Everything else is optional: tables
// that can insert, update or delete implement the corresponding capability
// interface, and tables that know something about their own output may
// declare it through an OrderInfo item so the engine can skip work.
//
// This package implements:
//   - SELECT with projection, WHERE, ORDER BY (multi-term, with COLLATE),
//     LIMIT and OFFSET over any Table
//   - INSERT, UPDATE and DELETE through capability interfaces, with WHERE
//     always evaluated by the engine
//   - positional (?) and named (:name) placeholders
//   - uncorrelated subqueries, scalar and IN, executed at most once per
//     statement
//   - collation-aware comparison everywhere: binary, nocase, rtrim and
//     locale collators, configured per engine, per table, or per ORDER BY
//     term
//
// # Basic Usage
//
// Register tables, then query them:
//
//	db := engine.New()
//	db.Register("users", usersTable)
//
//	rows, err := db.Select("SELECT name, age FROM users WHERE age >= ? ORDER BY name", 18)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rows.Close()
//	for rows.Next() {
//	    row := rows.Row()
//	    fmt.Println(row.Values["name"], row.Values["age"])
//	}
//	if err := rows.Err(); err != nil {
//	    log.Fatal(err)
//	}
//
// Mutations go through Exec and report the affected row count:
//
//	n, err := db.Exec("UPDATE users SET active = ? WHERE last_seen < ?", false, cutoff)
//
// # Execution Planning
//
// The engine decides per statement whether results can stream. It pulls
// the first item of the table's iterator: when that item is an OrderInfo
// whose claim satisfies the requested ORDER BY (same column, direction and
// collation), rows flow through one at a time and a LIMIT stops pulling as
// soon as it is satisfied. Otherwise the engine drains the table, sorts
// under the active collator, and serves the result from memory. Both plans
// produce identical rows.
//
// A table may also declare, through OrderInfo.Skipped, that it already
// applied the statement's WHERE clause and skipped part of the OFFSET; the
// engine then filters nothing and skips only the remainder.
//
// # Writing a Table
//
// The minimal table ignores the statement and yields everything:
//
//	type static struct{ rows []engine.Item }
//
//	func (s static) Select(*sql.SelectStatement) (engine.Iterator, error) {
//	    return engine.NewSliceIterator(s.rows...), nil
//	}
//
// The engine applies WHERE, ORDER BY, LIMIT and OFFSET on top, so a table
// that pushes nothing down is always correct, just not always fast.
//
// # Errors
//
// Failures surface as wrapped sentinel errors (ErrNoTable, ErrNotSupported,
// ErrUnsafeMutation) or typed errors (ContractError for tables that break
// the iterator contract, CapabilityError for unsupported mutations,
// ArityError for multi-valued scalars); match them with errors.Is and
// errors.As.
package engine
