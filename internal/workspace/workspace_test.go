package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
)

// buildWorkspaceDir lays out a workspace on disk: a root manifest with
// the given member patterns, and one crate directory per entry in crates.
func buildWorkspaceDir(t *testing.T, members []string, crates map[string]string) string {
	t.Helper()
	root := t.TempDir()

	manifest := "[workspace]\nmembers = ["
	for i, m := range members {
		if i > 0 {
			manifest += ", "
		}
		manifest += `"` + m + `"`
	}
	manifest += "]\n"
	writeManifest(t, root, manifest)

	for dir, content := range crates {
		crateDir := filepath.Join(root, dir)
		if err := os.MkdirAll(crateDir, 0755); err != nil {
			t.Fatalf("mkdir %s: %v", crateDir, err)
		}
		writeManifest(t, crateDir, content)
	}

	return root
}

func TestFindRoot(t *testing.T) {
	root := buildWorkspaceDir(t, []string{"crates/*"}, map[string]string{
		"crates/core": "[package]\nname = \"core\"\nversion = \"1.0.0\"\n",
	})

	t.Run("from root", func(t *testing.T) {
		got, err := FindRoot(root)
		if err != nil {
			t.Fatalf("FindRoot: %v", err)
		}
		if got != root {
			t.Errorf("root = %q, want %q", got, root)
		}
	})

	t.Run("from nested member", func(t *testing.T) {
		got, err := FindRoot(filepath.Join(root, "crates", "core"))
		if err != nil {
			t.Fatalf("FindRoot: %v", err)
		}
		if got != root {
			t.Errorf("root = %q, want %q", got, root)
		}
	})

	t.Run("member manifest without workspace table is skipped", func(t *testing.T) {
		// The crate's own Cargo.toml must not be mistaken for the root.
		got, err := FindRoot(filepath.Join(root, "crates", "core"))
		if err != nil {
			t.Fatalf("FindRoot: %v", err)
		}
		if got == filepath.Join(root, "crates", "core") {
			t.Error("FindRoot stopped at a non-workspace manifest")
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := FindRoot(t.TempDir())
		if !errors.Is(err, ErrWorkspaceNotFound) {
			t.Errorf("error = %v, want ErrWorkspaceNotFound", err)
		}
	})
}

func TestDiscover(t *testing.T) {
	root := buildWorkspaceDir(t,
		[]string{"crates/*", "tools/cli"},
		map[string]string{
			"crates/core": `
[package]
name = "core"
version = "1.0.0"
`,
			"crates/api": `
[package]
name = "api"
version = "1.0.0"

[dependencies]
core = { path = "../core" }
serde = "1"
`,
			"tools/cli": `
[package]
name = "cli"
version = "0.3.0"
publish = false

[dependencies]
api = { path = "../../crates/api" }
`,
			// Not matched by any members pattern.
			"extras/orphan": `
[package]
name = "orphan"
version = "0.0.1"
`,
		})

	ws, err := Discover(root, ParseOptions{})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	wantNames := []string{"api", "cli", "core"}
	if got := ws.Names(); !reflect.DeepEqual(got, wantNames) {
		t.Errorf("Names = %v, want %v", got, wantNames)
	}

	if ws.Root != root {
		t.Errorf("Root = %q, want %q", ws.Root, root)
	}

	api := ws.Packages["api"]
	if api == nil {
		t.Fatal("api package missing")
	}
	// External deps stay on the package; the graph builder filters them.
	wantDeps := []string{"core", "serde"}
	gotDeps := append([]string(nil), api.Dependencies...)
	sort.Strings(gotDeps)
	if !reflect.DeepEqual(gotDeps, wantDeps) {
		t.Errorf("api deps = %v, want %v", api.Dependencies, wantDeps)
	}

	if ws.Packages["cli"].Releasable {
		t.Error("cli should not be releasable (publish = false)")
	}
}

func TestDiscoverRootPackage(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `
[workspace]
members = []

[package]
name = "root-pkg"
version = "2.0.0"
`)

	ws, err := Discover(root, ParseOptions{})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if _, ok := ws.Packages["root-pkg"]; !ok {
		t.Error("root manifest package not discovered")
	}
}

func TestFilterReleasable(t *testing.T) {
	a := &Package{Name: "a", Releasable: true}
	b := &Package{Name: "b", Releasable: false}
	c := &Package{Name: "c", Releasable: true}
	d := &Package{Name: "d", Releasable: false}

	got := FilterReleasable([]*Package{a, b, c, d})
	if len(got) != 2 || got[0] != a || got[1] != c {
		names := make([]string, len(got))
		for i, p := range got {
			names[i] = p.Name
		}
		t.Errorf("FilterReleasable = %v, want [a c]", names)
	}
}

func TestPackageRef(t *testing.T) {
	p := &Package{Name: "core", Version: "1.2.3"}
	if got := p.Ref(); got != "core@1.2.3" {
		t.Errorf("Ref = %q, want core@1.2.3", got)
	}
}
