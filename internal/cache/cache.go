// Package cache persists aggregation results keyed to repository revision
// state, so repeated invocations on an unchanged tree skip the scan.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"time"

	"log/slog"

	"github.com/petrarca/repolang/internal/analyze"
	"github.com/petrarca/repolang/internal/git"
	"github.com/vmihailenco/msgpack/v5"
)

// schemaVersion tags every record; increment when the entry format
// changes so stale records from older builds read as misses.
const schemaVersion uint16 = 1

// revisionTimeout bounds the HEAD lookup during key derivation. On expiry
// the key falls back to the path hash.
const revisionTimeout = 2 * time.Second

// keyLen truncates both the commit hash and the path hash.
const keyLen = 12

// entry is the persisted cache record.
type entry struct {
	Schema    uint16                   `msgpack:"schema"`
	Key       string                   `msgpack:"key"`
	CreatedAt int64                    `msgpack:"created_at"`
	Stats     map[string]analyze.Tally `msgpack:"stats"`
}

// Cache validates stored aggregation results against repository state. It
// exclusively owns reading and writing cache records.
type Cache struct {
	store  Store
	logger *slog.Logger

	// Overridable for tests.
	now        func() time.Time
	headCommit func(ctx context.Context, path string) (string, error)
}

// New creates a cache over the given store. A nil *Cache is usable: every
// read misses and every write is a no-op.
func New(store Store, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		store:      store,
		logger:     logger,
		now:        time.Now,
		headCommit: git.HeadCommit,
	}
}

// Key derives the cache key for a repository root: the current revision
// identifier when available within the time bound, otherwise a stable hash
// of the resolved absolute path.
func (c *Cache) Key(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = filepath.Clean(root)
	}

	ctx, cancel := context.WithTimeout(context.Background(), revisionTimeout)
	defer cancel()

	if head, err := c.headCommit(ctx, abs); err == nil && len(head) >= keyLen {
		return head[:keyLen]
	}

	sum := sha256.Sum256([]byte(abs))
	return hex.EncodeToString(sum[:])[:keyLen]
}

// Read returns the stored result for root when a valid entry exists.
// expiry == 0 means entries never expire; otherwise an entry older than
// expiry is a miss. When the key is a revision identifier the age check is
// moot — a new revision simply looks up a different key.
func (c *Cache) Read(root string, expiry time.Duration) (analyze.Result, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}

	key := c.Key(root)
	data, err := c.store.Read(key)
	if err != nil {
		return nil, false
	}

	var e entry
	if err := msgpack.Unmarshal(data, &e); err != nil {
		c.logger.Debug("Discarding unreadable cache entry", "key", key, "error", err)
		return nil, false
	}
	if e.Schema != schemaVersion || e.Key != key {
		return nil, false
	}
	if expiry > 0 && c.now().Sub(time.Unix(e.CreatedAt, 0)) > expiry {
		return nil, false
	}

	result := make(analyze.Result, len(e.Stats))
	for lang, tally := range e.Stats {
		result[lang] = tally
	}
	return result, true
}

// Write stores the result for root, overwriting any entry under the same
// key. Failures only cost a future re-aggregation, so they are logged and
// swallowed.
func (c *Cache) Write(root string, result analyze.Result) {
	if c == nil || c.store == nil {
		return
	}

	key := c.Key(root)
	e := entry{
		Schema:    schemaVersion,
		Key:       key,
		CreatedAt: c.now().Unix(),
		Stats:     result,
	}

	data, err := msgpack.Marshal(&e)
	if err != nil {
		c.logger.Debug("Failed to encode cache entry", "key", key, "error", err)
		return
	}
	if err := c.store.Write(key, data); err != nil {
		c.logger.Debug("Failed to write cache entry", "key", key, "error", err)
	}
}

// Invalidate deletes the entry for one repository and reports how many
// entries were removed. Deleting a missing entry is not an error.
func (c *Cache) Invalidate(root string) (int, error) {
	if c == nil || c.store == nil {
		return 0, nil
	}

	removed, err := c.store.Delete(c.Key(root))
	if err != nil {
		return 0, err
	}
	if removed {
		return 1, nil
	}
	return 0, nil
}

// InvalidateAll deletes every entry and reports the count removed.
func (c *Cache) InvalidateAll() (int, error) {
	if c == nil || c.store == nil {
		return 0, nil
	}
	return c.store.DeleteAll()
}
