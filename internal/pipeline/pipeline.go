// Package pipeline drives an ordered list of packages through release,
// persisting a checkpoint after every completed unit of work so an
// interrupted session can resume.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/seaworthy/cargoship/internal/checkpoint"
	"github.com/seaworthy/cargoship/internal/registry"
	"github.com/seaworthy/cargoship/internal/workspace"
)

// Options configures one pipeline run.
type Options struct {
	// DryRun is forwarded to the registry client; no artifact is
	// uploaded.
	DryRun bool

	// SkipAlreadyRegistered probes the registry before each release and
	// skips packages whose exact version is already there.
	SkipAlreadyRegistered bool

	// Credential is the opaque registry token.
	Credential string

	// ReleaseInterval pauses between consecutive real releases to
	// rate-limit against the registry. Ignored after the last package
	// and in dry runs.
	ReleaseInterval time.Duration
}

// ReleaseError reports the package that halted the pipeline. Everything
// released before it is already persisted in the checkpoint.
type ReleaseError struct {
	Package string
	Version string
	Err     error
}

func (e *ReleaseError) Error() string {
	return fmt.Sprintf("release %s@%s failed: %v", e.Package, e.Version, e.Err)
}

func (e *ReleaseError) Unwrap() error {
	return e.Err
}

// Pipeline releases packages strictly in the order given, never
// reordering or running ahead.
type Pipeline struct {
	Registry registry.Client
	Store    checkpoint.Store
	Log      logr.Logger
}

// New returns a pipeline using the given registry client and checkpoint
// store.
func New(reg registry.Client, store checkpoint.Store, log logr.Logger) *Pipeline {
	return &Pipeline{Registry: reg, Store: store, Log: log}
}

// Run releases pkgs in order, consulting and updating cp after every
// attempt.
//
// Per package:
//  1. already marked in the checkpoint: skip without touching the
//     registry;
//  2. with SkipAlreadyRegistered, probe the registry; a probe failure
//     is only a warning and the release proceeds;
//  3. attempt the release; an already-exists rejection counts as
//     success;
//  4. on success, mark and persist the checkpoint before anything else,
//     then honor the inter-release delay;
//  5. on hard failure, halt immediately and return a *ReleaseError. The
//     failing package is not marked and later packages are never
//     attempted.
func (p *Pipeline) Run(ctx context.Context, pkgs []*workspace.Package, cp *checkpoint.Checkpoint, opts Options) error {
	relOpts := registry.ReleaseOptions{
		DryRun:     opts.DryRun,
		Credential: opts.Credential,
	}

	for i, pkg := range pkgs {
		if cp.IsReleased(pkg.Name, pkg.Version) {
			p.Log.Info("already released in this session, skipping", "package", pkg.Ref())
			continue
		}

		if opts.SkipAlreadyRegistered {
			exists, err := p.Registry.Exists(ctx, pkg)
			switch {
			case err != nil:
				// A transient probe failure must not block an
				// otherwise-valid release.
				p.Log.Info("registry probe failed, attempting release anyway",
					"package", pkg.Ref(), "error", err.Error())
			case exists:
				p.Log.Info("already in registry, skipping", "package", pkg.Ref())
				cp.MarkReleased(pkg.Name, pkg.Version)
				if err := cp.Persist(p.Store); err != nil {
					return err
				}
				continue
			}
		}

		if err := p.Registry.Release(ctx, pkg, relOpts); err != nil {
			if !errors.Is(err, registry.ErrAlreadyExists) {
				return &ReleaseError{Package: pkg.Name, Version: pkg.Version, Err: err}
			}
			// A prior run got this one out just before dying.
			p.Log.Info("registry already has this version, treating as released",
				"package", pkg.Ref())
		}

		cp.MarkReleased(pkg.Name, pkg.Version)
		if err := cp.Persist(p.Store); err != nil {
			return err
		}
		p.Log.Info("released", "package", pkg.Ref(), "dryRun", opts.DryRun)

		last := i == len(pkgs)-1
		if !last && !opts.DryRun && opts.ReleaseInterval > 0 {
			p.Log.Info("pausing before next release", "interval", opts.ReleaseInterval.String())
			if err := sleep(ctx, opts.ReleaseInterval); err != nil {
				return err
			}
		}
	}

	return nil
}

// sleep blocks for d or until the context is canceled. Cancellation
// mid-delay is safe: the checkpoint already reflects every completed
// release.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
