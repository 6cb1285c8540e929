// Package libstore keeps built libraries in a SQLite database, addressed by
// their content ID, together with the aliases they are known by.
package libstore

import (
	"bytes"
	"context"
	"database/sql"

	"github.com/bobg/sqlutil"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/AreaLayer/aluasm/deps"
	"github.com/AreaLayer/aluasm/libs"
)

// ErrNotFound is returned for libraries missing from the store
var ErrNotFound = errors.New("library not found")

// Store is a content-addressed library store
type Store struct {
	db     *sql.DB
	hasher libs.Hasher
}

// Open opens (creating if needed) the store at the given path.  Libraries
// read back are verified with the hasher.
func Open(ctx context.Context, path string, hasher libs.Hasher) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening library store %s", path)
	}

	_, err = db.ExecContext(ctx, schema)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating db schema")
	}

	err = sqlutil.Migrate(ctx, db, migrations)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrating db schema")
	}

	return &Store{db: db, hasher: hasher}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Put saves a library.  Saving a library that is already stored does nothing.
func (s *Store) Put(ctx context.Context, l *libs.Library) error {
	bits, err := l.MarshalBinary()
	if err != nil {
		return errors.Wrapf(err, "marshaling library %s", l.ID)
	}

	_, err = s.db.ExecContext(ctx, `INSERT OR IGNORE INTO libraries (id, name, bits) VALUES ($1, $2, $3)`, l.ID, l.Name, bits)
	return errors.Wrapf(err, "storing library %s", l.ID)
}

// Get reads a library back
func (s *Store) Get(ctx context.Context, id libs.ID) (*libs.Library, error) {
	var bits []byte
	err := s.db.QueryRowContext(ctx, `SELECT bits FROM libraries WHERE id = $1`, id).Scan(&bits)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "library %s", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading library %s", id)
	}

	l, err := libs.ReadLibrary(bytes.NewReader(bits), s.hasher)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding library %s", id)
	}

	return l, nil
}

// SetAlias binds an alias to a stored library, replacing any earlier binding
func (s *Store) SetAlias(ctx context.Context, alias string, id libs.ID) error {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM libraries WHERE id = $1`, id).Scan(&n)
	if err != nil {
		return errors.Wrapf(err, "looking up library %s", id)
	}
	if n == 0 {
		return errors.Wrapf(ErrNotFound, "aliasing %s to library %s", alias, id)
	}

	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO aliases (alias, id) VALUES ($1, $2)`, alias, id)
	return errors.Wrapf(err, "setting alias %s", alias)
}

// Aliases returns every alias binding of the store
func (s *Store) Aliases(ctx context.Context) (map[string]libs.ID, error) {
	aliases := make(map[string]libs.ID)

	err := sqlutil.ForQueryRows(ctx, s.db, `SELECT alias, id FROM aliases ORDER BY alias`, func(alias string, id libs.ID) {
		aliases[alias] = id
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing aliases")
	}

	return aliases, nil
}

// IDs lists the IDs of the stored libraries
func (s *Store) IDs(ctx context.Context) ([]libs.ID, error) {
	var ids []libs.ID

	err := sqlutil.ForQueryRows(ctx, s.db, `SELECT id FROM libraries ORDER BY id`, func(id libs.ID) {
		ids = append(ids, id)
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing libraries")
	}

	return ids, nil
}

// LoadInto makes every stored library and alias available to a link
// environment.  Aliases already bound in the environment are kept.
func (s *Store) LoadInto(ctx context.Context, env *deps.Environment) error {
	err := sqlutil.ForQueryRows(ctx, s.db, `SELECT id, bits FROM libraries ORDER BY id`, func(id libs.ID, bits []byte) error {
		l, err := libs.ReadLibrary(bytes.NewReader(bits), s.hasher)
		if err != nil {
			return errors.Wrapf(err, "decoding library %s", id)
		}

		return errors.Wrapf(env.AddLibrary(l), "library %s", id)
	})
	if err != nil {
		return errors.Wrap(err, "loading libraries")
	}

	aliases, err := s.Aliases(ctx)
	if err != nil {
		return err
	}

	for alias, id := range aliases {
		if _, ok := env.Alias(alias); !ok {
			env.SetAlias(alias, id)
		}
	}

	return nil
}
