package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lumen",
		Short: "Reactive state layer for DOM-driven UIs",
		Long: `Lumen is a small reactive state layer for Go.

Containers wrap plain records with plugin-chained reads and writes and
microtask-batched notifications; effects track their dependencies
automatically; the keyed reconciler keeps DOM node identity, focus and
scroll position stable across list changes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		demoCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
