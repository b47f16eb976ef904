package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

const manifestName = "Cargo.toml"

// ErrManifestInvalid is returned when a manifest exists but cannot be
// parsed into a package record.
var ErrManifestInvalid = errors.New("invalid manifest")

// ParseOptions controls which dependency sections contribute edges.
type ParseOptions struct {
	// IncludeDevDeps adds [dev-dependencies] to a package's dependency
	// list. Off by default: dev-only edges do not constrain publish
	// order, and counting them can manufacture cycles that do not exist
	// at build time.
	IncludeDevDeps bool
}

// manifestFile mirrors the subset of Cargo.toml this tool reads.
type manifestFile struct {
	Package *struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
		Publish *bool  `toml:"publish"`
	} `toml:"package"`
	Workspace *struct {
		Members []string `toml:"members"`
	} `toml:"workspace"`
	Dependencies      map[string]toml.Primitive `toml:"dependencies"`
	DevDependencies   map[string]toml.Primitive `toml:"dev-dependencies"`
	BuildDependencies map[string]toml.Primitive `toml:"build-dependencies"`
}

// ParseManifest reads one Cargo.toml into a Package.
//
// Only the fields the release order depends on are extracted: name,
// version, the publish flag (absent means publishable), and dependency
// names. Dependency version requirements are irrelevant here; workspace
// membership is decided later by name.
func ParseManifest(path string, opts ParseOptions) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var mf manifestFile
	if _, err := toml.Decode(string(data), &mf); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrManifestInvalid, path, err)
	}

	if mf.Package == nil {
		return nil, fmt.Errorf("%w: %s: missing [package] section", ErrManifestInvalid, path)
	}
	if mf.Package.Name == "" {
		return nil, fmt.Errorf("%w: %s: missing package name", ErrManifestInvalid, path)
	}
	if mf.Package.Version == "" {
		return nil, fmt.Errorf("%w: %s: missing package version", ErrManifestInvalid, path)
	}

	releasable := true
	if mf.Package.Publish != nil {
		releasable = *mf.Package.Publish
	}

	var deps []string
	seen := make(map[string]bool)
	add := func(section map[string]toml.Primitive) {
		names := make([]string, 0, len(section))
		for name := range section {
			names = append(names, name)
		}
		// TOML tables are unordered maps; sort for a stable list.
		sort.Strings(names)
		for _, name := range names {
			if !seen[name] {
				seen[name] = true
				deps = append(deps, name)
			}
		}
	}
	add(mf.Dependencies)
	add(mf.BuildDependencies)
	if opts.IncludeDevDeps {
		add(mf.DevDependencies)
	}

	return &Package{
		Name:         mf.Package.Name,
		Version:      mf.Package.Version,
		Dir:          filepath.Dir(path),
		Dependencies: deps,
		Releasable:   releasable,
	}, nil
}

// isWorkspaceManifest reports whether the manifest declares a
// [workspace] table.
func isWorkspaceManifest(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	var mf manifestFile
	if _, err := toml.Decode(string(data), &mf); err != nil {
		return false, nil
	}
	return mf.Workspace != nil, nil
}

// readMembers returns the [workspace].members patterns from the root
// manifest.
func readMembers(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workspace manifest: %w", err)
	}
	var mf manifestFile
	if _, err := toml.Decode(string(data), &mf); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrManifestInvalid, path, err)
	}
	if mf.Workspace == nil {
		return nil, fmt.Errorf("%w: %s: missing [workspace] section", ErrManifestInvalid, path)
	}
	return mf.Workspace.Members, nil
}
