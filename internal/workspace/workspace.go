// Package workspace models a Cargo workspace: a root directory plus a set
// of member packages discovered from the workspace manifest.
//
// Discovery walks up from a start directory to find the workspace root,
// expands the member glob patterns, and parses every member manifest into
// a Package record. The rest of cargoship (graph, pipeline) consumes the
// Workspace value produced here and never touches manifests itself.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/mod/semver"
)

// ErrWorkspaceNotFound is returned when no directory between the start
// directory and the filesystem root contains a workspace manifest.
var ErrWorkspaceNotFound = errors.New("no Cargo workspace found")

// Package is a single workspace member.
type Package struct {
	// Name is the package name, unique within the workspace.
	Name string

	// Version is the manifest version string. The core treats it as
	// opaque; only equality and display matter.
	Version string

	// Dir is the directory containing the package's manifest. Only the
	// registry client uses it.
	Dir string

	// Dependencies holds the dependency names in manifest order.
	// External names (not in the workspace) and self-references are kept
	// here; the graph builder filters them.
	Dependencies []string

	// Releasable reports whether the package may be published at all.
	// Manifests mark internal-only packages with publish = false.
	Releasable bool
}

// Ref returns the "name@version" token used by checkpoints and logs.
func (p *Package) Ref() string {
	return fmt.Sprintf("%s@%s", p.Name, p.Version)
}

// SemverOK reports whether Version is valid semver. Advisory only: the
// core never rejects a package for this, but registries usually do.
func (p *Package) SemverOK() bool {
	return semver.IsValid("v" + p.Version)
}

// Workspace is the parsed project: a root directory and its packages
// keyed by name.
type Workspace struct {
	Root     string
	Packages map[string]*Package
}

// Names returns the package names in sorted order.
func (w *Workspace) Names() []string {
	names := make([]string, 0, len(w.Packages))
	for name := range w.Packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FindRoot walks up from startDir looking for a Cargo.toml that declares
// a [workspace] table. Returns ErrWorkspaceNotFound if none exists.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		manifest := filepath.Join(dir, manifestName)
		if _, err := os.Stat(manifest); err == nil {
			ok, err := isWorkspaceManifest(manifest)
			if err == nil && ok {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w (searched from %s)", ErrWorkspaceNotFound, startDir)
		}
		dir = parent
	}
}

// Discover loads the workspace rooted at root: the root package itself
// (when the root manifest has a [package] table) plus every member
// matched by the [workspace].members patterns.
func Discover(root string, opts ParseOptions) (*Workspace, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	rootManifest := filepath.Join(root, manifestName)
	members, err := readMembers(rootManifest)
	if err != nil {
		return nil, err
	}

	ws := &Workspace{
		Root:     root,
		Packages: make(map[string]*Package),
	}

	// The root manifest may carry a package of its own.
	if pkg, err := ParseManifest(rootManifest, opts); err == nil {
		ws.Packages[pkg.Name] = pkg
	}

	for _, pattern := range members {
		dirs, err := expandMemberPattern(root, pattern)
		if err != nil {
			return nil, err
		}
		for _, dir := range dirs {
			manifest := filepath.Join(dir, manifestName)
			if _, err := os.Stat(manifest); err != nil {
				continue
			}
			pkg, err := ParseManifest(manifest, opts)
			if err != nil {
				return nil, fmt.Errorf("member %s: %w", dir, err)
			}
			ws.Packages[pkg.Name] = pkg
		}
	}

	return ws, nil
}

// expandMemberPattern resolves one members entry against the workspace
// root. Patterns may contain globs ("crates/*"); only directories match.
func expandMemberPattern(root, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(root, pattern))
	if err != nil {
		return nil, fmt.Errorf("bad members pattern %q: %w", pattern, err)
	}

	var dirs []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err == nil && info.IsDir() {
			dirs = append(dirs, m)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// FilterReleasable returns the packages with Releasable set, preserving
// relative order.
func FilterReleasable(pkgs []*Package) []*Package {
	out := make([]*Package, 0, len(pkgs))
	for _, p := range pkgs {
		if p.Releasable {
			out = append(out, p)
		}
	}
	return out
}
