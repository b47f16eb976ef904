// Package vcs provides the small slice of version-control awareness the
// release flow needs: is the workspace inside a git repository, and does
// the worktree carry uncommitted changes.
//
// Releasing from a dirty worktree usually means the published artifact
// will not match any commit. cargoship only warns about it; the registry
// tooling enforces its own rules per package.
package vcs

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotARepo is returned when the directory is not inside a git
// repository.
var ErrNotARepo = errors.New("not in a git repository")

const commandTimeout = 10 * time.Second

// InRepo reports whether dir is inside a git repository, by walking up
// looking for a .git directory or file (worktrees use a file).
func InRepo(dir string) bool {
	current, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	for {
		if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
			return true
		}
		parent := filepath.Dir(current)
		if parent == current {
			return false
		}
		current = parent
	}
}

// IsDirty reports whether the worktree containing dir has uncommitted
// changes (staged, unstaged, or untracked).
func IsDirty(ctx context.Context, dir string) (bool, error) {
	if !InRepo(dir) {
		return false, ErrNotARepo
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "status", "--porcelain")
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return false, errors.New(strings.TrimSpace(stderr.String()))
		}
		return false, err
	}

	return strings.TrimSpace(stdout.String()) != "", nil
}
