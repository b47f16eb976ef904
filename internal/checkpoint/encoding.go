package checkpoint

import (
	"bytes"
	"time"

	"github.com/BurntSushi/toml"
)

// checkpointFile is the on-disk shape: TOML, human-inspectable, with the
// released tokens as a sorted list.
type checkpointFile struct {
	WorkspaceRoot string    `toml:"workspace_root"`
	Released      []string  `toml:"released"`
	LastUpdated   time.Time `toml:"last_updated"`
}

func encode(c *Checkpoint) ([]byte, error) {
	file := checkpointFile{
		WorkspaceRoot: c.root,
		Released:      c.Released(),
		LastUpdated:   c.lastUpdated,
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(file); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte) (*Checkpoint, error) {
	var file checkpointFile
	if _, err := toml.Decode(string(data), &file); err != nil {
		return nil, err
	}

	c := &Checkpoint{
		root:        file.WorkspaceRoot,
		released:    make(map[string]struct{}, len(file.Released)),
		lastUpdated: file.LastUpdated,
	}
	for _, t := range file.Released {
		c.released[t] = struct{}{}
	}
	return c, nil
}
