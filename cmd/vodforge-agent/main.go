package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vodforge/vodforge/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:     "vodforge-agent",
	Short:   "Run VodForge Agent",
	Long:    "VodForge Agent moves media assets in and out of object storage and audits published episode records.",
	Version: fmt.Sprintf("gitVersion=%s, gitCommit=%s", version.GitVersion, version.GitCommit),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(CreateAgentCommand(NewTransferAgent()))
	rootCmd.AddCommand(CreateAgentCommand(NewIntegrityAgent()))
}
