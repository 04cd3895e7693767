package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set via -ldflags "-X main.version=..." at build time.
var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "carprun",
		Short: "Run the openCARP simple tissue example",
		Long: `carprun drives the openCARP cardiac electrophysiology simulator for the
"simple" tissue example: a monodomain slab with a Courtemanche ionic model,
one stimulus and local activation time detection.

It assembles the simulator command line, runs it in a job directory,
records every run, and can show the result in meshalyzer.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("root", ".", "Output root for job directories")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newCommandCmd(),
		newHistoryCmd(),
		newConfigCmd(),
		newMCPServerCmd(),
	)

	return rootCmd
}
