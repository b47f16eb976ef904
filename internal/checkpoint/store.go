package checkpoint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotExist is returned by Store.Read when no checkpoint is persisted
// for the given root.
var ErrNotExist = errors.New("no checkpoint")

// Store persists checkpoint bytes keyed by workspace root.
type Store interface {
	// Read returns the persisted bytes for root, or an error wrapping
	// ErrNotExist when nothing is persisted.
	Read(root string) ([]byte, error)

	// Write replaces the persisted bytes for root, creating any missing
	// intermediate storage.
	Write(root string, data []byte) error

	// Delete removes the persisted bytes for root. Deleting a missing
	// entry is a no-op.
	Delete(root string) error
}

// fileName lives under the workspace's build-output directory so that a
// `cargo clean` wipes stale sessions along with everything else.
const fileName = "cargoship-checkpoint.toml"

// FileStore persists checkpoints as target/cargoship-checkpoint.toml
// under each workspace root.
type FileStore struct{}

// Path returns the checkpoint file path for a workspace root.
func (FileStore) Path(root string) string {
	return filepath.Join(root, "target", fileName)
}

func (s FileStore) Read(root string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(root))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w for %s", ErrNotExist, root)
		}
		return nil, err
	}
	return data, nil
}

func (s FileStore) Write(root string, data []byte) error {
	path := s.Path(root)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create checkpoint directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func (s FileStore) Delete(root string) error {
	err := os.Remove(s.Path(root))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

func (s *MemStore) Read(root string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.data[root]
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrNotExist, root)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *MemStore) Write(root string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.data[root] = cp
	return nil
}

func (s *MemStore) Delete(root string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, root)
	return nil
}
