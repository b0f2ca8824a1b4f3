// Package all wires all built-in backend drivers into the backend factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each driver package, which register
// their factories with the backend package. After the import, the following
// kinds are available to backend.Open:
//
//   - "duckdb"   (claimsdb/internal/backend/duckdb)
//   - "sqlite"   (claimsdb/internal/backend/sqlite)
//   - "postgres" (claimsdb/internal/backend/postgres)
//   - "mysql"    (claimsdb/internal/backend/mysql)
//
// Binaries that only need a subset can blank-import the individual driver
// packages instead.
package all

import (
	_ "claimsdb/internal/backend/duckdb"
	_ "claimsdb/internal/backend/mysql"
	_ "claimsdb/internal/backend/postgres"
	_ "claimsdb/internal/backend/sqlite"
)
