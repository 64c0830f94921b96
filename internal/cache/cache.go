package cache

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/mdtidy/internal/convert"
)

// FileName is the database file created inside the cache directory.
const FileName = "mdtidy.db"

// keyVersion is mixed into every key. Bump it whenever conversion output
// changes for the same input and options.
const keyVersion = "mdtidy-cache-v2"

// Cache is a SQLite-backed store of converted documents.
// It is safe for concurrent use.
type Cache struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// Options configures Cache behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the options used by the format command.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Stats describes the cache contents.
type Stats struct {
	// Path is the database file.
	Path string `json:"path"`

	// Entries is the number of cached documents.
	Entries int64 `json:"entries"`

	// Bytes is the total size of the cached outputs.
	Bytes int64 `json:"bytes"`

	// Oldest and Newest are the least and most recent use times.
	// Both are zero when the cache is empty.
	Oldest time.Time `json:"oldest"`
	Newest time.Time `json:"newest"`
}

// Open opens or creates the cache database in dir.
func Open(dir string, opts Options) (*Cache, error) {
	dbPath := filepath.Join(dir, FileName)

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		dsn = dbPath + "?mode=rwc"
	} else if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrCacheNotFound, dbPath)
		}
		return nil, fmt.Errorf("failed to check cache path: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	// SQLite has a single writer; one connection avoids SQLITE_BUSY between
	// the batch workers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	c := &Cache{db: db, dbPath: dbPath, now: time.Now}
	if err := c.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return c, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Path returns the database file path.
func (c *Cache) Path() string {
	return c.dbPath
}

func (c *Cache) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversions (
		key TEXT PRIMARY KEY,
		output TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		used_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_conversions_used ON conversions(used_at);
	`
	_, err := c.db.ExecContext(context.Background(), schema)
	return err
}

// Key returns the cache key of input converted with opts: the hex BLAKE2b-256
// digest of the key version, the options fingerprint and the input.
func Key(opts convert.Options, input string) string {
	h, _ := blake2b.New256(nil) //nolint:errcheck // only fails for keys longer than 64 bytes
	h.Write([]byte(keyVersion))
	h.Write([]byte{0})
	h.Write([]byte(opts.Fingerprint()))
	h.Write([]byte{0})
	h.Write([]byte(input))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached output for key. ok is false on a miss.
// A hit refreshes the entry's use time so Prune keeps it.
func (c *Cache) Get(ctx context.Context, key string) (output string, ok bool, err error) {
	err = c.db.QueryRowContext(ctx, `SELECT output FROM conversions WHERE key = ?`, key).Scan(&output)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	if _, err := c.db.ExecContext(ctx, `UPDATE conversions SET used_at = ? WHERE key = ?`, c.now().Unix(), key); err != nil {
		return "", false, fmt.Errorf("failed to touch cache entry: %w", err)
	}
	return output, true, nil
}

// Put stores output under key, replacing any previous entry.
func (c *Cache) Put(ctx context.Context, key, output string) error {
	now := c.now().Unix()
	query := `
	INSERT INTO conversions (key, output, created_at, used_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		output = excluded.output,
		used_at = excluded.used_at
	`
	if _, err := c.db.ExecContext(ctx, query, key, output, now, now); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Stats returns the number and size of cached entries.
func (c *Cache) Stats(ctx context.Context) (*Stats, error) {
	query := `
	SELECT COUNT(*), COALESCE(SUM(LENGTH(CAST(output AS BLOB))), 0),
		COALESCE(MIN(used_at), 0), COALESCE(MAX(used_at), 0)
	FROM conversions
	`
	var oldest, newest int64
	s := &Stats{Path: c.dbPath}
	if err := c.db.QueryRowContext(ctx, query).Scan(&s.Entries, &s.Bytes, &oldest, &newest); err != nil {
		return nil, fmt.Errorf("failed to read cache stats: %w", err)
	}
	if s.Entries > 0 {
		s.Oldest = time.Unix(oldest, 0)
		s.Newest = time.Unix(newest, 0)
	}
	return s, nil
}

// Prune deletes entries not used within olderThan and returns how many were
// removed. Prune(ctx, 0) empties the cache.
func (c *Cache) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `DELETE FROM conversions WHERE used_at <= ?`
	cutoff := c.now().Add(-olderThan).Unix()

	result, err := c.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	return result.RowsAffected()
}
