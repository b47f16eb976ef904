package main

import (
	"context"

	"go.uber.org/multierr"

	"github.com/seaworthy/cargoship/internal/checkpoint"
	"github.com/seaworthy/cargoship/internal/pipeline"
	"github.com/seaworthy/cargoship/internal/workspace"
)

// prepareCheckpoint sets up the checkpoint for one release session.
//
// A resuming session loads the prior checkpoint (resumed reports whether
// one existed); a fresh session discards any stale checkpoint first, so
// leftover state from an old session can never silently skip packages.
func prepareCheckpoint(store checkpoint.Store, root string, resume bool) (cp *checkpoint.Checkpoint, resumed bool, err error) {
	if resume {
		loaded, err := checkpoint.Load(store, root)
		if err != nil {
			return nil, false, err
		}
		if loaded != nil {
			return loaded, true, nil
		}
		return checkpoint.New(root), false, nil
	}

	if err := checkpoint.Discard(store, root); err != nil {
		return nil, false, err
	}
	return checkpoint.New(root), false, nil
}

// runSession drives the pipeline and owns the checkpoint's end of life:
// deleted on full success (it no longer represents useful state),
// persisted on failure so a later --resume can continue.
func runSession(ctx context.Context, pipe *pipeline.Pipeline, pkgs []*workspace.Package, cp *checkpoint.Checkpoint, store checkpoint.Store, opts pipeline.Options) error {
	if err := pipe.Run(ctx, pkgs, cp, opts); err != nil {
		// The pipeline persists after every mark; make sure the final
		// state is durable before reporting.
		return multierr.Append(err, cp.Persist(store))
	}
	return checkpoint.Discard(store, cp.Root())
}
