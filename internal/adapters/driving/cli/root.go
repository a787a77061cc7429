// Package cli implements the remitdesk command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/brightvale-health/remitdesk/internal/core/ports/driven"
	"github.com/brightvale-health/remitdesk/internal/core/ports/driving"
	"github.com/brightvale-health/remitdesk/internal/logger"
)

// version is set at build time via ldflags.
var version = "0.1.0"

// Services injected by the composition root. Commands check for nil so the
// CLI stays testable without a full wiring.
var (
	// newEditor opens an editing session over a document path.
	newEditor func(path string) (driving.Editor, error)

	collector   driving.Collector
	neoStore    driven.NEOStore
	configStore driven.ConfigStore
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "remitdesk",
	Short: "Stage, validate and commit remittance document edits",
	Long: `remitdesk edits remittance documents through a staged change buffer:
field edits and structural changes are staged against positions as they
stood at staging time, then reconciled, validated and committed atomically
with a backup of the prior state.

A bundled collector fetches near-earth-object data into a local database
for ad-hoc querying.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
}

// Wire injects the services the commands run against.
func Wire(
	editorFactory func(path string) (driving.Editor, error),
	neoCollector driving.Collector,
	store driven.NEOStore,
	config driven.ConfigStore,
) {
	newEditor = editorFactory
	collector = neoCollector
	neoStore = store
	configStore = config
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
