package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"saskit/internal/sasenv"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the toolkit version and the active SAS release",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func runVersion(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "saskit %s\n", version)

	// Reporting the SAS release needs sasversion on PATH; without an
	// initialized environment the toolkit version alone is the answer.
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()
	if info, err := sasenv.Release(ctx); err == nil && info.Release != "" {
		fmt.Fprintf(out, "SAS release %s (%s)\n", info.Release, info.AKA)
	}
	return nil
}
