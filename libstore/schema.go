package libstore

// schema is applied on every open; sqlutil.Migrate keeps its bookkeeping in
// the migrations table
const schema = `
CREATE TABLE IF NOT EXISTS migrations (
  hash BLOB NOT NULL PRIMARY KEY
);
`

// migrations are applied in order, once each
var migrations = []string{
	`CREATE TABLE libraries (
  id BLOB NOT NULL PRIMARY KEY,
  name TEXT NOT NULL,
  bits BLOB NOT NULL
);`,
	`CREATE TABLE aliases (
  alias TEXT NOT NULL PRIMARY KEY,
  id BLOB NOT NULL REFERENCES libraries (id)
);`,
}
