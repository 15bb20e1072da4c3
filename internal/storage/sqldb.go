package storage

import (
	"context"
	"database/sql"
)

// QueryRows runs sqlText on db and calls fn for each row. It is shared by the
// database/sql backends (mssql, sqlite).
func QueryRows(ctx context.Context, db *sql.DB, sqlText string, fn func(RowScanner) error) (int64, error) {
	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var n int64
	for rows.Next() {
		if err := fn(rows); err != nil {
			return n, err
		}
		n++
	}
	return n, rows.Err()
}

// PingSQL checks the connection with a driver ping followed by SELECT 1.
func PingSQL(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	var one int
	return db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}
