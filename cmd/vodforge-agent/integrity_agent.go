package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/vodforge/vodforge/pkg/integrity"
	"github.com/vodforge/vodforge/pkg/logging"
	"github.com/vodforge/vodforge/pkg/metadata"
	"github.com/vodforge/vodforge/pkg/metrics"
	s3store "github.com/vodforge/vodforge/pkg/objectstore/s3"
	"github.com/vodforge/vodforge/pkg/transfer"
)

// IntegrityAgent implements the AgentModule interface for episode
// record auditing.
type IntegrityAgent struct {
	scanner *integrity.Scanner

	limit        int
	createdSince time.Duration
}

// NewIntegrityAgent creates a new integrity agent.
func NewIntegrityAgent() *IntegrityAgent {
	return &IntegrityAgent{}
}

// Name returns the name of the agent.
func (i *IntegrityAgent) Name() string {
	return "integrity"
}

// ShortDescription returns a short description of the agent.
func (i *IntegrityAgent) ShortDescription() string {
	return "Run VodForge Integrity Agent"
}

// LongDescription returns a detailed description of the agent.
func (i *IntegrityAgent) LongDescription() string {
	return "VodForge Integrity Agent audits recent episode records for missing fields, broken published locations, and duration drift."
}

// ConfigureCommand configures the agent command with its subcommands.
func (i *IntegrityAgent) ConfigureCommand(cmd *cobra.Command) {
	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan recent episode records",
		Run: func(cmd *cobra.Command, args []string) {
			runAgentCommand(cmd, i, i.Start)
		},
	}
	scanCmd.Flags().IntVar(&i.limit, "limit", 0, "max records to scan (0 uses config)")
	scanCmd.Flags().DurationVar(&i.createdSince, "since", 0, "only scan records created within this window")
	cmd.AddCommand(scanCmd)

	cmd.Run = func(cmd *cobra.Command, args []string) {
		runAgentCommand(cmd, i, i.Start)
	}
}

// FxModules returns the fx modules needed by this agent.
func (i *IntegrityAgent) FxModules() []fx.Option {
	return []fx.Option{
		logging.Module,
		metrics.Module,
		s3store.Module,
		transfer.Module,
		metadata.Module,
		integrity.Module,
		fx.Populate(&i.scanner),
	}
}

// Start runs one scan pass and prints the summary.
func (i *IntegrityAgent) Start() error {
	req := integrity.ScanRequest{Limit: i.limit}
	if i.createdSince > 0 {
		after := time.Now().UTC().Add(-i.createdSince)
		req.CreatedAfter = &after
	}

	summary, err := i.scanner.Scan(context.Background(), req)
	if err != nil {
		return err
	}

	fmt.Printf("scanned %d records in %s: %d ok, %d warnings, %d errors\n",
		summary.Scanned, summary.Elapsed.Round(time.Millisecond),
		summary.OK, summary.Warnings, summary.Errors)
	for _, issue := range summary.Issues {
		fmt.Printf("  [%s] %s %s: %s\n", issue.Severity, issue.RecordID, issue.Code, issue.Message)
	}
	return nil
}
