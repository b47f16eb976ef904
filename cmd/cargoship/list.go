package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/seaworthy/cargoship/internal/ui"
)

var listFormat string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List releasable packages in publish order",
	Long: `List the workspace's releasable packages in dependency-first order:
every package appears after all workspace packages it depends on.

Formats: text (default), json, yaml.`,
	Run: func(cmd *cobra.Command, args []string) {
		_, pkgs := mustLoadOrdered()

		switch listFormat {
		case "text":
			if len(pkgs) == 0 {
				fmt.Println("No releasable packages.")
				return
			}
			printPackages(pkgs)
		case "json", "yaml":
			entries := make([]listEntry, 0, len(pkgs))
			for _, pkg := range pkgs {
				entries = append(entries, listEntry{
					Name:         pkg.Name,
					Version:      pkg.Version,
					Dir:          pkg.Dir,
					Dependencies: pkg.Dependencies,
				})
			}
			if listFormat == "json" {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(entries); err != nil {
					fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderFail("error:"), err)
					os.Exit(1)
				}
				return
			}
			if err := yaml.NewEncoder(os.Stdout).Encode(entries); err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderFail("error:"), err)
				os.Exit(1)
			}
		default:
			fmt.Fprintf(os.Stderr, "%s unknown format %q (want text, json, or yaml)\n", ui.RenderFail("error:"), listFormat)
			os.Exit(1)
		}
	},
}

// listEntry is the machine-readable projection of a package.
type listEntry struct {
	Name         string   `json:"name" yaml:"name"`
	Version      string   `json:"version" yaml:"version"`
	Dir          string   `json:"dir" yaml:"dir"`
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

func init() {
	listCmd.Flags().StringVar(&listFormat, "format", "text", "output format: text, json, or yaml")
	rootCmd.AddCommand(listCmd)
}
