package cache

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileCache stores one JSON file per entry under dir/<hh>/<hash>.json, where
// hash is the SHA-256 of the key. Writes go through a temporary file and a
// rename, so machines rendered concurrently never observe a torn entry.
type FileCache struct {
	dir string
}

// NewFileCache opens (and creates) a cache directory.
func NewFileCache(dir string) (Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

type fileEntry struct {
	Key       string    `json:"key"`
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

func (e *fileEntry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Get implements Cache. Corrupt and expired entries are removed and reported
// as misses.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	path := c.path(key)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var entry fileEntry
	if err := json.Unmarshal(raw, &entry); err != nil || entry.expired(time.Now()) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return entry.Data, true, nil
}

// Set implements Cache.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entry := fileEntry{Key: key, Data: data}
	if ttl > 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".entry-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete implements Cache.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close implements Cache.
func (c *FileCache) Close() error { return nil }

// Stats counts entries by kind ("layout", "artifact").
type Stats struct {
	Entries map[string]int
	Bytes   int64
	Expired int
}

// Stats walks the cache directory. Unreadable files count as expired.
func (c *FileCache) Stats() (Stats, error) {
	st := Stats{Entries: map[string]int{}}
	now := time.Now()
	err := c.walk(func(path string, size int64) error {
		entry, err := readEntry(path)
		if err != nil || entry.expired(now) {
			st.Expired++
			return nil
		}
		st.Entries[KeyKind(entry.Key)]++
		st.Bytes += size
		return nil
	})
	return st, err
}

// Clear removes entries of the given kind, or every entry when kind is
// empty, and returns how many were removed.
func (c *FileCache) Clear(kind string) (int, error) {
	removed := 0
	err := c.walk(func(path string, _ int64) error {
		if kind != "" {
			entry, err := readEntry(path)
			if err == nil && KeyKind(entry.Key) != kind {
				return nil
			}
		}
		if err := os.Remove(path); err == nil {
			removed++
		}
		return nil
	})
	if err != nil {
		return removed, err
	}
	c.pruneDirs()
	return removed, nil
}

// KeyKind returns the kind segment of a key built by DefaultKeyer, ignoring
// any ScopedKeyer prefix: "v1:layout:ab12" is "layout".
func KeyKind(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) < 2 {
		return "other"
	}
	return parts[len(parts)-2]
}

func (c *FileCache) walk(fn func(path string, size int64) error) error {
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Entries may vanish under a concurrent Clear.
			return nil
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		return fn(path, info.Size())
	})
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (c *FileCache) pruneDirs() {
	subdirs, err := os.ReadDir(c.dir)
	if err != nil {
		return
	}
	for _, d := range subdirs {
		if d.IsDir() {
			// Fails unless empty.
			_ = os.Remove(filepath.Join(c.dir, d.Name()))
		}
	}
}

func readEntry(path string) (*fileEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entry fileEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *FileCache) path(key string) string {
	hash := Hash([]byte(key))
	return filepath.Join(c.dir, hash[:2], hash[2:]+".json")
}

var _ Cache = (*FileCache)(nil)
