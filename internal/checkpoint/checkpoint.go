// Package checkpoint persists which package versions a release session
// has already completed, so an interrupted session can resume without
// re-releasing anything.
//
// A Checkpoint is a plain value owned by one pipeline run. Persistence
// goes through the Store interface; production code uses FileStore
// (a TOML file under the workspace's target/ directory) and tests use
// MemStore.
package checkpoint

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"
)

// ErrCorrupt is returned by Load when a checkpoint exists for the root
// but cannot be decoded. Resume is impossible until the operator
// discards it; that choice is deliberately not automated.
var ErrCorrupt = errors.New("corrupt checkpoint")

// Checkpoint records the released "name@version" tokens for one
// workspace root.
type Checkpoint struct {
	root        string
	released    map[string]struct{}
	lastUpdated time.Time
}

// New returns an empty checkpoint for the given workspace root. The
// root is canonicalized so the same workspace always maps to the same
// persisted state.
func New(root string) *Checkpoint {
	return &Checkpoint{
		root:        canonicalRoot(root),
		released:    make(map[string]struct{}),
		lastUpdated: time.Now().UTC(),
	}
}

// Root returns the canonicalized workspace root this checkpoint is
// keyed by.
func (c *Checkpoint) Root() string {
	return c.root
}

// LastUpdated returns the time of the most recent mutation.
func (c *Checkpoint) LastUpdated() time.Time {
	return c.lastUpdated
}

// MarkReleased records name@version as released. Idempotent.
func (c *Checkpoint) MarkReleased(name, version string) {
	c.released[token(name, version)] = struct{}{}
	c.lastUpdated = time.Now().UTC()
}

// IsReleased reports whether the exact name@version pair has been
// released. A different version of the same package does not count.
func (c *Checkpoint) IsReleased(name, version string) bool {
	_, ok := c.released[token(name, version)]
	return ok
}

// Released returns the released tokens in sorted order.
func (c *Checkpoint) Released() []string {
	tokens := make([]string, 0, len(c.released))
	for t := range c.released {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	return tokens
}

// Len returns the number of released tokens.
func (c *Checkpoint) Len() int {
	return len(c.released)
}

// Persist writes the checkpoint to the store, replacing any prior state
// for the same root.
func (c *Checkpoint) Persist(store Store) error {
	data, err := encode(c)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	if err := store.Write(c.root, data); err != nil {
		return fmt.Errorf("persist checkpoint: %w", err)
	}
	return nil
}

// Load reads the checkpoint for root from the store. A missing
// checkpoint is not an error: Load returns (nil, nil). An unreadable
// one returns an error wrapping ErrCorrupt.
func Load(store Store, root string) (*Checkpoint, error) {
	root = canonicalRoot(root)

	data, err := store.Read(root)
	if err != nil {
		if errors.Is(err, ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	c, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %v", ErrCorrupt, root, err)
	}
	c.root = root
	return c, nil
}

// Discard removes any persisted checkpoint for root. Not an error if
// none exists.
func Discard(store Store, root string) error {
	return store.Delete(canonicalRoot(root))
}

func token(name, version string) string {
	return name + "@" + version
}

// canonicalRoot resolves the root to an absolute, symlink-free path
// where possible; falls back to the cleaned input otherwise.
func canonicalRoot(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		return filepath.Clean(root)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
