// Package prefstore persists per-profile preference blobs in SQLite.
//
// Blobs are opaque to the store; the intent package owns their format.
package prefstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ivlev/democam/internal/intent"
)

// ErrNotFound is returned when a profile has no stored blob.
var ErrNotFound = errors.New("preferences not found")

const schema = `
CREATE TABLE IF NOT EXISTS preferences (
	profile    TEXT PRIMARY KEY,
	blob       BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);`

type config struct {
	busyTimeout int
	synchronous string
	mkdirAll    bool
}

func defaults() config {
	return config{busyTimeout: 10_000, synchronous: "NORMAL"}
}

// Option customises Open.
type Option func(*config)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) Option { return func(c *config) { c.busyTimeout = ms } }

// WithSynchronous sets PRAGMA synchronous. Default: "NORMAL".
func WithSynchronous(mode string) Option { return func(c *config) { c.synchronous = mode } }

// WithMkdirAll creates the parent directory of the database first.
func WithMkdirAll() Option { return func(c *config) { c.mkdirAll = true } }

// Store is a SQLite-backed preference store. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the store at path. ":memory:" gives a private
// in-memory store.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := defaults()
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.mkdirAll && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("prefstore: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("prefstore: open: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout),
		fmt.Sprintf("PRAGMA synchronous = %s", cfg.synchronous),
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("prefstore: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("prefstore: exec schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("prefstore: ping: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Load returns the blob stored for profile.
func (s *Store) Load(ctx context.Context, profile string) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT blob FROM preferences WHERE profile = ?`, profile).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, profile)
	}
	if err != nil {
		return nil, fmt.Errorf("prefstore: load %s: %w", profile, err)
	}
	return blob, nil
}

// Save replaces the blob for profile.
func (s *Store) Save(ctx context.Context, profile string, blob []byte) error {
	if profile == "" {
		return errors.New("prefstore: empty profile name")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (profile, blob, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(profile) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`,
		profile, blob, s.now().Unix())
	if err != nil {
		return fmt.Errorf("prefstore: save %s: %w", profile, err)
	}
	return nil
}

// Delete removes profile. Deleting a missing profile returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, profile string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM preferences WHERE profile = ?`, profile)
	if err != nil {
		return fmt.Errorf("prefstore: delete %s: %w", profile, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, profile)
	}
	return nil
}

// Profiles lists stored profiles, most recently updated first.
func (s *Store) Profiles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT profile FROM preferences ORDER BY updated_at DESC, profile`)
	if err != nil {
		return nil, fmt.Errorf("prefstore: list: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LoadLearner decodes the learner for profile. A profile with no history
// gets a fresh learner.
func (s *Store) LoadLearner(ctx context.Context, profile string) (*intent.Learner, error) {
	blob, err := s.Load(ctx, profile)
	if errors.Is(err, ErrNotFound) {
		return intent.NewLearner(), nil
	}
	if err != nil {
		return nil, err
	}
	return intent.UnmarshalLearner(blob)
}

// SaveLearner encodes and stores l for profile.
func (s *Store) SaveLearner(ctx context.Context, profile string, l *intent.Learner) error {
	blob, err := l.Marshal()
	if err != nil {
		return fmt.Errorf("prefstore: encode %s: %w", profile, err)
	}
	return s.Save(ctx, profile, blob)
}
