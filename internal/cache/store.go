package cache

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store is the byte-level storage backing the cache. Implementations map a
// derived key to one opaque record. Read returns an error satisfying
// os.IsNotExist semantics when no record exists.
type Store interface {
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
	Delete(key string) (bool, error)
	DeleteAll() (int, error)
}

const recordSuffix = ".mp"

// DiskStore keeps one msgpack record per repository under the user cache
// directory.
type DiskStore struct {
	dir string
}

// OpenDiskStore initializes a disk store at the standard cache location
// ($XDG_CACHE_HOME/<app>, falling back to ~/.cache/<app>).
func OpenDiskStore(app string) (*DiskStore, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) pathFor(key string) string {
	return filepath.Join(s.dir, "repo_"+key+recordSuffix)
}

func (s *DiskStore) Read(key string) ([]byte, error) {
	return os.ReadFile(s.pathFor(key))
}

// Write replaces the record atomically so concurrent invocations against
// the same repository can only race whole records, never torn ones.
func (s *DiskStore) Write(key string, data []byte) error {
	path := s.pathFor(key)
	tmp, err := os.CreateTemp(s.dir, "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *DiskStore) Delete(key string) (bool, error) {
	err := os.Remove(s.pathFor(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *DiskStore) DeleteAll() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "repo_") || !strings.HasSuffix(name, recordSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err == nil {
			removed++
		}
	}
	return removed, nil
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu      sync.Mutex
	records map[string][]byte

	// FailWrites makes every Write fail, for exercising the silent
	// write-failure path.
	FailWrites bool
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string][]byte)}
}

func (s *MemStore) Read(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.records[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func (s *MemStore) Write(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return os.ErrPermission
	}
	s.records[key] = append([]byte(nil), data...)
	return nil
}

func (s *MemStore) Delete(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		return false, nil
	}
	delete(s.records, key)
	return true, nil
}

func (s *MemStore) DeleteAll() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := len(s.records)
	s.records = make(map[string][]byte)
	return removed, nil
}

// Len returns the number of stored records.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
