package cli

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/treeship-labs/treeship/internal/scaffold"
)

var (
	initChannel string
	initRepo    string
)

func init() {
	initCmd.Flags().StringVar(&initChannel, "channel", "", "Default publish channel: git, gist, or none")
	initCmd.Flags().StringVar(&initRepo, "repo", "", "Target repository as owner/name (git channel)")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter treeship.yaml",
	Long: `Generates a commented export configuration with the default size
caps. Existing files are never overwritten.

  treeship init
  treeship init --channel git --repo octo/export`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		dir, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}

		result, err := scaffold.Generate(dir, scaffold.NewData(initChannel, initRepo))
		if err != nil {
			return err
		}
		for _, w := range result.Warnings {
			fmt.Printf("  %s %s\n", color.YellowString("warning:"), w)
		}
		fmt.Printf("  %s %s\n", color.GreenString("wrote"), result.Path)
		return nil
	},
}
