package sqlite

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/parleyhq/parley/internal/chat/store"
	_ "modernc.org/sqlite"
)

// Store implements store.Store on top of SQLite, laying the data out as a
// key-value model: two tables holding hash fields and set members. Every
// repository mutation is a single-key batch against one of them.
type Store struct {
	db  *sql.DB
	dsn string
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// A single writer keeps the hash batches atomic without busy retries.
	db.SetMaxOpenConns(1)

	return &Store{
		db:  db,
		dsn: dsn,
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Users() store.Users                 { return &usersRepo{s: s} }
func (s *Store) Conversations() store.Conversations { return &conversationsRepo{s: s} }

// hashSet writes a batch of fields on one hash key, inserting or replacing
// each field. The batch goes out as one statement so a record update is a
// single round trip.
func (s *Store) hashSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	// Deterministic field order keeps statements stable for the query planner.
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(`INSERT INTO kv_hashes (key, field, value) VALUES `)
	args := make([]any, 0, len(fields)*3)
	for i, name := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?, ?)")
		args = append(args, key, name, fields[name])
	}
	b.WriteString(` ON CONFLICT (key, field) DO UPDATE SET value = excluded.value`)

	_, err := s.db.ExecContext(ctx, b.String(), args...)
	return err
}

// hashGetAll returns every field of a hash key. A missing key yields an
// empty map, mirroring how a key-value store treats absent hashes.
func (s *Store) hashGetAll(ctx context.Context, key string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT field, value FROM kv_hashes WHERE key = ?`, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := make(map[string]string)
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, err
		}
		fields[field] = value
	}
	return fields, rows.Err()
}

// hashExists reports whether any field is stored under the key.
func (s *Store) hashExists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM kv_hashes WHERE key = ?)`, key).Scan(&exists)
	return exists, err
}

// deleteKey removes a hash key and all its fields.
func (s *Store) deleteKey(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_hashes WHERE key = ?`, key)
	return err
}

// setAdd adds a member to a set key, a no-op when already present.
func (s *Store) setAdd(ctx context.Context, key, member string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_sets (key, member) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		key, member)
	return err
}

// setRemove removes a member from a set key, a no-op when absent.
func (s *Store) setRemove(ctx context.Context, key, member string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM kv_sets WHERE key = ? AND member = ?`, key, member)
	return err
}

// setMembers returns all members of a set key sorted lexically.
func (s *Store) setMembers(ctx context.Context, key string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT member FROM kv_sets WHERE key = ? ORDER BY member`, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var member string
		if err := rows.Scan(&member); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// setClear removes a whole set key.
func (s *Store) setClear(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_sets WHERE key = ?`, key)
	return err
}
