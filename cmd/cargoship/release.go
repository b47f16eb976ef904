package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/seaworthy/cargoship/internal/checkpoint"
	"github.com/seaworthy/cargoship/internal/pipeline"
	"github.com/seaworthy/cargoship/internal/registry"
	"github.com/seaworthy/cargoship/internal/ui"
	"github.com/seaworthy/cargoship/internal/vcs"
	"github.com/seaworthy/cargoship/internal/workspace"
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Publish all releasable packages in dependency order",
	Long: `Publish the workspace's releasable packages, dependencies first.

The session writes a checkpoint (target/cargoship-checkpoint.toml) after
every published package. If publishing halts partway, rerun with
--resume to continue from the last completed package; the checkpoint is
deleted once every package is out.

The registry credential comes from --credential or the
CARGOSHIP_CREDENTIAL environment variable.`,
	Run: func(cmd *cobra.Command, args []string) {
		ws, pkgs := mustLoadOrdered()

		if len(pkgs) == 0 {
			fmt.Println("Nothing to release.")
			return
		}

		opts := pipeline.Options{
			DryRun:                viper.GetBool("dry-run"),
			SkipAlreadyRegistered: viper.GetBool("skip-already-registered"),
			Credential:            viper.GetString("credential"),
			ReleaseInterval:       time.Duration(viper.GetInt("release-interval-seconds")) * time.Second,
		}

		log, closer := newLogger(ws.Root)
		defer closer.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store := checkpoint.FileStore{}

		cp, resumed, err := prepareCheckpoint(store, ws.Root, viper.GetBool("resume"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderFail("error:"), err)
			if errors.Is(err, checkpoint.ErrCorrupt) {
				fmt.Fprintf(os.Stderr, "Delete %s to start a fresh session.\n", store.Path(ws.Root))
			}
			os.Exit(1)
		}
		if viper.GetBool("resume") {
			if resumed {
				fmt.Printf("Resuming previous session (%d already released).\n", cp.Len())
			} else {
				fmt.Println("No previous session found, starting fresh.")
			}
		}

		pending := 0
		fmt.Printf("Releasing %d packages from %s:\n", len(pkgs), ws.Root)
		for _, pkg := range pkgs {
			marker := " "
			if cp.IsReleased(pkg.Name, pkg.Version) {
				marker = ui.RenderDim("(done)")
			} else {
				pending++
			}
			fmt.Printf("  - %s v%s %s\n", pkg.Name, pkg.Version, marker)
		}
		if pending == 0 {
			fmt.Println("All packages already released.")
			if err := checkpoint.Discard(store, ws.Root); err != nil {
				fmt.Fprintf(os.Stderr, "%s remove checkpoint: %v\n", ui.RenderWarn("warning:"), err)
			}
			return
		}

		if opts.DryRun {
			fmt.Println(ui.RenderAccent("Dry run: nothing will be uploaded."))
		} else {
			warnDirtyWorktree(ctx, ws)
			if !confirmRelease(pending) {
				fmt.Println("Aborted.")
				os.Exit(1)
			}
		}

		pipe := pipeline.New(registry.NewCargoClient(log), store, log)
		if err := runSession(ctx, pipe, pkgs, cp, store, opts); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderFail("error:"), err)
			fmt.Fprintf(os.Stderr, "Checkpoint saved (%d released). Rerun with --resume to continue.\n", cp.Len())
			os.Exit(1)
		}

		if opts.DryRun {
			fmt.Println(ui.RenderPass("Dry run completed successfully."))
		} else {
			fmt.Println(ui.RenderPass("All packages released."))
		}
	},
}

// warnDirtyWorktree flags uncommitted changes before a real release.
// Never fatal: the registry tooling applies its own packaging rules.
func warnDirtyWorktree(ctx context.Context, ws *workspace.Workspace) {
	dirty, err := vcs.IsDirty(ctx, ws.Root)
	if err != nil {
		if !errors.Is(err, vcs.ErrNotARepo) {
			fmt.Fprintf(os.Stderr, "%s could not check worktree state: %v\n", ui.RenderWarn("warning:"), err)
		}
		return
	}
	if dirty {
		fmt.Fprintf(os.Stderr, "%s worktree has uncommitted changes; published artifacts may not match any commit\n", ui.RenderWarn("warning:"))
	}
}

// confirmRelease asks before uploading. --yes or a non-interactive
// session skips the prompt.
func confirmRelease(count int) bool {
	if viper.GetBool("yes") || !ui.Interactive() {
		return true
	}

	ok := true
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Publish %d packages to the registry?", count)).
		Affirmative("Publish").
		Negative("Cancel").
		Value(&ok).
		Run()
	if err != nil {
		return false
	}
	return ok
}

func init() {
	releaseCmd.Flags().Bool("dry-run", false, "validate every package without uploading")
	releaseCmd.Flags().Bool("skip-already-registered", false, "probe the registry and skip versions that already exist")
	releaseCmd.Flags().Bool("resume", false, "resume from the checkpoint of an interrupted session")
	releaseCmd.Flags().String("credential", "", "registry token (or CARGOSHIP_CREDENTIAL)")
	releaseCmd.Flags().Int("release-interval-seconds", 0, "pause this many seconds between releases")
	releaseCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(releaseCmd)
}
