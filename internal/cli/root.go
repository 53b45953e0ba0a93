package cli

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/treeship-labs/treeship/internal/branding"
	"github.com/treeship-labs/treeship/internal/config"
	"github.com/treeship-labs/treeship/internal/updater"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` exports a project tree as size-capped, line-numbered text
bundles plus an index, and optionally publishes them to a GitHub
repository or as individual gists.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// The version command reports update state itself.
		if cmd.Name() == "version" {
			return
		}

		// Non-blocking banner from the persisted release check.
		u := updater.New(buildVersion)
		u.CheckAndPrintBanner(os.Stderr, config.Dir())
	},
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return rootCmd.Execute()
}
