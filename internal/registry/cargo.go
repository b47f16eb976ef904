package registry

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/go-logr/logr"
	"github.com/seaworthy/cargoship/internal/workspace"
)

// CargoClient publishes crates by shelling out to the cargo binary in
// each package's directory.
type CargoClient struct {
	// Bin is the cargo executable. Defaults to "cargo".
	Bin string

	// Log receives one event per invocation.
	Log logr.Logger
}

// NewCargoClient returns a client using the cargo binary from PATH.
func NewCargoClient(log logr.Logger) *CargoClient {
	return &CargoClient{Bin: "cargo", Log: log}
}

// Release runs `cargo publish` in the package directory.
func (c *CargoClient) Release(ctx context.Context, pkg *workspace.Package, opts ReleaseOptions) error {
	args := []string{"publish"}
	if opts.DryRun {
		args = append(args, "--dry-run")
	}
	if opts.Credential != "" {
		args = append(args, "--token", opts.Credential)
	}

	c.Log.Info("publishing", "package", pkg.Name, "version", pkg.Version, "dryRun", opts.DryRun)

	stdout, stderr, err := c.run(ctx, pkg.Dir, args...)
	if err != nil {
		if alreadyExistsOutput(stderr) {
			return &Error{
				Package: pkg.Ref(),
				Op:      "publish",
				Err:     fmt.Errorf("%w: %s", ErrAlreadyExists, firstLine(stderr)),
			}
		}
		return &Error{
			Package: pkg.Ref(),
			Op:      "publish",
			Err:     fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr)),
		}
	}

	c.Log.V(1).Info("publish output", "package", pkg.Name, "stdout", strings.TrimSpace(stdout))
	return nil
}

// Exists runs `cargo search` and matches the exact name and version in
// the output. Search shows only the latest published version, so a true
// result means this exact version is the registry's current one; older
// versions fall through to the publish attempt, where the registry's own
// already-exists rejection is treated as success.
func (c *CargoClient) Exists(ctx context.Context, pkg *workspace.Package) (bool, error) {
	stdout, stderr, err := c.run(ctx, pkg.Dir, "search", pkg.Name, "--limit", "1")
	if err != nil {
		return false, &Error{
			Package: pkg.Ref(),
			Op:      "search",
			Err:     fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr)),
		}
	}
	return searchMatches(stdout, pkg.Name, pkg.Version), nil
}

// run executes cargo with the given args, capturing stdout and stderr
// separately.
func (c *CargoClient) run(ctx context.Context, dir string, args ...string) (string, string, error) {
	bin := c.Bin
	if bin == "" {
		bin = "cargo"
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// Known crates.io rejection signatures for a duplicate version.
var alreadyExistsSignatures = []string{
	"already exists on crates.io index",
	"is already uploaded",
}

func alreadyExistsOutput(stderr string) bool {
	for _, sig := range alreadyExistsSignatures {
		if strings.Contains(stderr, sig) {
			return true
		}
	}
	return false
}

// searchLine matches cargo search output: `name = "version"  # desc`.
var searchLine = regexp.MustCompile(`^(\S+) = "([^"]+)"`)

func searchMatches(output, name, version string) bool {
	for _, line := range strings.Split(output, "\n") {
		m := searchLine.FindStringSubmatch(strings.TrimSpace(line))
		if m != nil && m[1] == name && m[2] == version {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
