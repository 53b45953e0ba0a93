package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/treeship-labs/treeship/internal/config"
	"github.com/treeship-labs/treeship/internal/pipeline"
	"github.com/treeship-labs/treeship/internal/scan"
)

var (
	splitOut     string
	splitPrefix  string
	splitCapKB   int64
	splitChannel string
	splitRepo    string
	splitBranch  string
)

func init() {
	splitCmd.Flags().StringVar(&splitOut, "out", "", "Output directory for parts (default: next to the input file)")
	splitCmd.Flags().StringVar(&splitPrefix, "prefix", "", "Part name prefix")
	splitCmd.Flags().Int64Var(&splitCapKB, "cap-kb", 0, "Maximum part size in KB")
	splitCmd.Flags().StringVar(&splitChannel, "channel", "", "Publish channel: git or none")
	splitCmd.Flags().StringVar(&splitRepo, "repo", "", "Target repository as owner/name (git channel)")
	splitCmd.Flags().StringVar(&splitBranch, "branch", "", "Target branch (git channel)")
	rootCmd.AddCommand(splitCmd)
}

var splitCmd = &cobra.Command{
	Use:   "split <file>",
	Short: "Split one oversized file into cap-sized byte-range parts",
	Long: `Copies the file verbatim into sequentially numbered parts, each at
most the cap, plus an index recording every part's byte range.
Concatenating the parts in order reproduces the file exactly.

  treeship split dump.sql
  treeship split video.bin --cap-kb 512`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving input file: %w", err)
		}

		export, err := config.LoadExport(filepath.Join(filepath.Dir(input), config.ExportFileName))
		if err != nil {
			return err
		}
		if splitPrefix != "" {
			export.Prefix = splitPrefix
		}
		if splitCapKB > 0 {
			export.ChunkCapKB = splitCapKB
		}
		if splitChannel != "" {
			export.Channel = splitChannel
		}
		if splitRepo != "" {
			export.Repo = splitRepo
		}
		if splitBranch != "" {
			export.Branch = splitBranch
		}

		cfg := pipeline.Config{
			OutDir:   splitOut,
			Prefix:   export.Prefix,
			ChunkCap: export.ChunkCapBytes(),
			Channel:  export.Channel,
			RepoSlug: export.Repo,
			Branch:   export.Branch,
			Rules:    scan.DefaultRules(export.Prefix, config.ExportFileName),
		}
		if cfg.Channel == "git" {
			config.Load()
			token, err := config.ResolveToken()
			if err != nil {
				return err
			}
			cfg.Token = token
		}

		result := pipeline.Split(cfg, input)
		printRun(result)
		recordHistory(result)

		return result.Err
	},
}
