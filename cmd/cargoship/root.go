package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/seaworthy/cargoship/internal/graph"
	"github.com/seaworthy/cargoship/internal/ui"
	"github.com/seaworthy/cargoship/internal/workspace"
)

const envPrefix = "CARGOSHIP"

var rootCmd = &cobra.Command{
	Use:   "cargoship",
	Short: "Publish Cargo workspace packages in dependency order",
	Long: `cargoship orders the packages of a Cargo workspace by their
inter-package dependencies and publishes them so that every package's
dependencies are already in the registry when it is uploaded.

Release sessions are checkpointed: if a session is interrupted, rerun
with --resume to continue from the last completed package.

Run without a subcommand to see a summary of the workspace.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		ws, pkgs := mustLoadOrdered()

		fmt.Printf("Workspace: %s\n", ws.Root)
		fmt.Printf("Packages: %d total, %d releasable\n", len(ws.Packages), len(pkgs))

		if len(pkgs) > 0 {
			fmt.Println("\nPublish order:")
			printPackages(pkgs)
		}

		fmt.Printf("\n%s\n", ui.RenderDim("Use 'cargoship list' for machine-readable output, 'cargoship release' to publish."))
	},
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	}
	rootCmd.PersistentFlags().StringP("workspace-root", "w", ".", "path to the workspace root directory (or any directory beneath it)")
	rootCmd.PersistentFlags().Bool("include-dev-deps", false, "count dev-dependency edges when computing publish order")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "echo the session log to stderr")
}

// initConfig wires flags, environment, and an optional config file into
// viper. Precedence: flags, then CARGOSHIP_* environment variables, then
// .cargoship.toml at the workspace root.
func initConfig(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return err
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(".cargoship")
	viper.SetConfigType("toml")
	viper.AddConfigPath(viper.GetString("workspace-root"))
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config file: %w", err)
		}
	}
	return nil
}

// findWorkspaceRoot resolves the configured workspace root, walking up
// from it to the actual workspace manifest.
func findWorkspaceRoot() (string, error) {
	start := viper.GetString("workspace-root")
	if start == "" {
		start = "."
	}
	return workspace.FindRoot(start)
}

func parseOptions() workspace.ParseOptions {
	return workspace.ParseOptions{
		IncludeDevDeps: viper.GetBool("include-dev-deps"),
	}
}

// loadOrdered discovers the workspace and returns it together with its
// releasable packages in publish order.
func loadOrdered() (*workspace.Workspace, []*workspace.Package, error) {
	root, err := findWorkspaceRoot()
	if err != nil {
		return nil, nil, err
	}

	ws, err := workspace.Discover(root, parseOptions())
	if err != nil {
		return nil, nil, err
	}

	ordered, err := graph.Sort(graph.Build(ws), ws)
	if err != nil {
		return nil, nil, err
	}

	return ws, workspace.FilterReleasable(ordered), nil
}

// mustLoadOrdered is loadOrdered for commands that exit on failure.
// Cycle errors get one line per cycle so operators can read the chains.
func mustLoadOrdered() (*workspace.Workspace, []*workspace.Package) {
	ws, pkgs, err := loadOrdered()
	if err != nil {
		var cycleErr *graph.CycleError
		if errors.As(err, &cycleErr) {
			fmt.Fprintf(os.Stderr, "%s circular dependencies block the publish order:\n", ui.RenderFail("error:"))
			for _, chain := range cycleErr.Chains {
				fmt.Fprintf(os.Stderr, "  %s\n", chain)
			}
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderFail("error:"), err)
		os.Exit(1)
	}
	return ws, pkgs
}

// printPackages renders a numbered publish order, flagging versions that
// are not valid semver (the registry will likely reject those).
func printPackages(pkgs []*workspace.Package) {
	for i, pkg := range pkgs {
		line := fmt.Sprintf("%3d. %s v%s", i+1, pkg.Name, pkg.Version)
		if !pkg.SemverOK() {
			line += " " + ui.RenderWarn("(version is not valid semver)")
		}
		fmt.Println(line)
	}
}

// newLogger builds the session logger: always appended to a rotating
// log file under the workspace's target directory, echoed to stderr
// with --verbose.
func newLogger(root string) (logr.Logger, io.Closer) {
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(root, "target", "cargoship.log"),
		MaxSize:    5, // megabytes
		MaxBackups: 3,
	}

	var sink io.Writer = rotator
	if viper.GetBool("verbose") {
		sink = io.MultiWriter(rotator, os.Stderr)
	}

	log := funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(sink, "%s: %s\n", prefix, args)
		} else {
			fmt.Fprintln(sink, args)
		}
	}, funcr.Options{Verbosity: 1})

	return log, rotator
}
