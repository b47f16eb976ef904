// Package registry abstracts the publish-side of a package registry.
//
// The pipeline needs exactly two operations: release a package version
// and ask whether a version already exists. The production client shells
// out to cargo; tests substitute their own Client.
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/seaworthy/cargoship/internal/workspace"
)

// ErrAlreadyExists marks a release rejection caused by the exact
// package version already being present in the registry. Callers check
// it with errors.Is; the pipeline treats it as success so a release that
// completed just before a crash is not a resume failure.
var ErrAlreadyExists = errors.New("package version already exists in registry")

// ReleaseOptions carries the per-attempt knobs.
type ReleaseOptions struct {
	// DryRun performs all validation without uploading.
	DryRun bool

	// Credential is the opaque registry token, passed through untouched.
	Credential string
}

// Client is the registry interface the pipeline consumes.
type Client interface {
	// Release uploads pkg's artifact. A rejection because the version
	// already exists must wrap ErrAlreadyExists.
	Release(ctx context.Context, pkg *workspace.Package, opts ReleaseOptions) error

	// Exists reports whether pkg's exact name and version are already
	// present in the registry.
	Exists(ctx context.Context, pkg *workspace.Package) (bool, error)
}

// Error wraps a registry failure with the package it concerns.
type Error struct {
	Package string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("registry %s %s: %v", e.Op, e.Package, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
