// Command cargoship publishes the packages of a Cargo workspace in
// dependency order, with a checkpoint file that makes interrupted
// release sessions resumable.
package main

import (
	"fmt"
	"os"

	"github.com/seaworthy/cargoship/internal/ui"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderFail("error:"), err)
		os.Exit(1)
	}
}
