// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs each backend's init, which registers its factory with the
// storage package. Importing it makes these kinds available:
//
//   - "mssql"    (alias "sqlserver"), the default DRIVER
//   - "postgres" (aliases "pgx", "postgresql")
//   - "sqlite"   (alias "sqlite3")
//
// Typical usage in a cmd package:
//
//	import _ "vendoretl/internal/storage/all"
//
//	repo, err := storage.New(ctx, cfg.Storage())
//	if err != nil {
//	    // connection failure aborts the run
//	}
//	defer repo.Close()
package all

import (
	_ "vendoretl/internal/storage/mssql"
	_ "vendoretl/internal/storage/postgres"
	_ "vendoretl/internal/storage/sqlite"
)
