// Package importcache persists extracted imports in SQLite so repeated
// closure runs skip re-parsing unchanged files.
package importcache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"promptpack/internal/engine/parser"
	"promptpack/internal/shared/observability"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("import cache path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("import cache path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create import cache directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite import cache %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite import cache %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Get returns the cached imports of path when the stored modification time
// and size still match info.
func (s *Store) Get(path string, info os.FileInfo) ([]parser.ImportRef, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		modTime int64
		size    int64
		payload string
	)
	err := s.db.QueryRow(
		`SELECT mod_time_ns, size_bytes, imports_json FROM file_imports WHERE path = ?`,
		path,
	).Scan(&modTime, &size, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached imports for %q: %w", path, err)
	}
	if modTime != info.ModTime().UnixNano() || size != info.Size() {
		return nil, false, nil
	}

	var refs []parser.ImportRef
	if err := json.Unmarshal([]byte(payload), &refs); err != nil {
		return nil, false, fmt.Errorf("decode cached imports for %q: %w", path, err)
	}
	return refs, true, nil
}

func (s *Store) Put(path string, info os.FileInfo, refs []parser.ImportRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if refs == nil {
		refs = []parser.ImportRef{}
	}
	payload, err := json.Marshal(refs)
	if err != nil {
		return fmt.Errorf("encode imports for %q: %w", path, err)
	}

	return s.withRetry("save imports", func() error {
		_, err := s.db.Exec(`
INSERT INTO file_imports (path, mod_time_ns, size_bytes, imports_json, updated_at_utc)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
  mod_time_ns=excluded.mod_time_ns,
  size_bytes=excluded.size_bytes,
  imports_json=excluded.imports_json,
  updated_at_utc=excluded.updated_at_utc
`, path, info.ModTime().UnixNano(), info.Size(), string(payload), time.Now().UTC().Format(time.RFC3339Nano))
		return err
	})
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

// Source wraps another parser.Source and consults the store first.
type Source struct {
	Store *Store
	Next  parser.Source
}

func (c *Source) Imports(path string) ([]parser.ImportRef, error) {
	info, err := os.Stat(path)
	if err != nil {
		return c.Next.Imports(path)
	}

	refs, ok, err := c.Store.Get(path, info)
	if err != nil {
		slog.Warn("import cache lookup failed", "path", path, "error", err)
	}
	if ok {
		observability.ImportCacheHits.Inc()
		return refs, nil
	}

	refs, err = c.Next.Imports(path)
	if err != nil {
		return nil, err
	}
	if err := c.Store.Put(path, info, refs); err != nil {
		slog.Warn("import cache write failed", "path", path, "error", err)
	}
	return refs, nil
}
