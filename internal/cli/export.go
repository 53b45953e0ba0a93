package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/treeship-labs/treeship/internal/config"
	"github.com/treeship-labs/treeship/internal/history"
	"github.com/treeship-labs/treeship/internal/manifest"
	"github.com/treeship-labs/treeship/internal/pipeline"
	"github.com/treeship-labs/treeship/internal/publish"
	"github.com/treeship-labs/treeship/internal/scan"
)

var (
	exportOut       string
	exportPrefix    string
	exportChannel   string
	exportRepo      string
	exportBranch    string
	exportMessage   string
	exportTargetKB  int64
	exportHardCapKB int64
	exportPublic    bool
	exportExclude   []string
)

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output directory for artifacts (default: the export root)")
	exportCmd.Flags().StringVar(&exportPrefix, "prefix", "", "Artifact name prefix")
	exportCmd.Flags().StringVar(&exportChannel, "channel", "", "Publish channel: git, gist, or none")
	exportCmd.Flags().StringVar(&exportRepo, "repo", "", "Target repository as owner/name (git channel)")
	exportCmd.Flags().StringVar(&exportBranch, "branch", "", "Target branch (git channel)")
	exportCmd.Flags().StringVar(&exportMessage, "message", "", "Commit message (git channel)")
	exportCmd.Flags().Int64Var(&exportTargetKB, "target-kb", 0, "Soft bundle size threshold in KB")
	exportCmd.Flags().Int64Var(&exportHardCapKB, "hard-cap-kb", 0, "Hard bundle size cap in KB")
	exportCmd.Flags().BoolVar(&exportPublic, "public", false, "Create public gists (gist channel)")
	exportCmd.Flags().StringSliceVar(&exportExclude, "exclude", nil, "Additional exclusion globs")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Export a project tree as size-capped text bundles",
	Long: `Walks the tree, packs files into bundles under the size cap, renders
each bundle as a line-numbered text artifact with an index, and
optionally publishes the results.

  treeship export                        # bundle the current directory
  treeship export ./src --channel gist   # bundle and upload as gists
  treeship export --channel git --repo octo/export`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		root, err := filepath.Abs(root)
		if err != nil {
			return fmt.Errorf("resolving export root: %w", err)
		}

		cfg, err := exportConfig(root)
		if err != nil {
			return err
		}

		result := pipeline.Run(*cfg)
		printRun(result)
		recordHistory(result)

		return result.Err
	},
}

// exportConfig merges the project file with flag overrides and resolves
// the token when the chosen channel needs one.
func exportConfig(root string) (*pipeline.Config, error) {
	export, err := config.LoadExport(filepath.Join(root, config.ExportFileName))
	if err != nil {
		return nil, err
	}

	if exportPrefix != "" {
		export.Prefix = exportPrefix
	}
	if exportOut != "" {
		export.OutDir = exportOut
	}
	if exportChannel != "" {
		export.Channel = exportChannel
	}
	if exportRepo != "" {
		export.Repo = exportRepo
	}
	if exportBranch != "" {
		export.Branch = exportBranch
	}
	if exportTargetKB > 0 {
		export.TargetKB = exportTargetKB
	}
	if exportHardCapKB > 0 {
		export.HardCapKB = exportHardCapKB
	}

	rules := scan.DefaultRules(export.Prefix, config.ExportFileName)
	rules.ExcludeGlobs = append(rules.ExcludeGlobs, export.Exclude...)
	rules.ExcludeGlobs = append(rules.ExcludeGlobs, exportExclude...)

	cfg := &pipeline.Config{
		Root:          root,
		OutDir:        export.OutDir,
		Prefix:        export.Prefix,
		TargetBytes:   export.TargetBytes(),
		HardCapBytes:  export.HardCapBytes(),
		ChunkCap:      export.ChunkCapBytes(),
		Channel:       export.Channel,
		RepoSlug:      export.Repo,
		Branch:        export.Branch,
		CommitMessage: exportMessage,
		Rules:         rules,
		Gist: publish.GistConfig{
			Description:  export.Gist.Description,
			Public:       exportPublic || export.Gist.Public,
			FileCapBytes: export.GistFileCapBytes(),
		},
	}

	if cfg.Channel == "git" || cfg.Channel == "gist" {
		config.Load()
		token, err := config.ResolveToken()
		if err != nil {
			return nil, err
		}
		cfg.Token = token
	}

	return cfg, nil
}

// printRun reports artifacts, publish outcomes, and warnings.
func printRun(result *pipeline.RunResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	for _, a := range result.Artifacts {
		fmt.Printf("  %s %s (%s)\n", green("wrote"), a.FileName, humanize.IBytes(uint64(a.SizeBytes)))
	}
	for _, r := range result.PublishResults {
		switch r.Status {
		case publish.StatusSuccess:
			target := r.RemoteURL
			if target == "" {
				target = r.ArtifactRef
			}
			fmt.Printf("  %s %s -> %s\n", green("published"), r.ArtifactRef, target)
		default:
			fmt.Printf("  %s %s: %v\n", red("failed"), r.ArtifactRef, r.Err)
		}
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "  %s %s\n", yellow("warning:"), w)
	}
	if result.ManifestPath != "" {
		fmt.Printf("  manifest: %s\n", result.ManifestPath)
	}
}

// recordHistory appends the run to the local database. History is an
// aid, not a gate: failures only warn.
func recordHistory(result *pipeline.RunResult) {
	if result.ManifestPath == "" {
		return
	}

	outcome := "success"
	if !result.Success {
		outcome = "failure"
	}

	m, err := manifest.Read(result.ManifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return
	}

	db, err := history.Open(config.HistoryDBPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: run history unavailable: %v\n", err)
		return
	}
	defer db.Close()

	if _, err := db.Record(m, outcome); err != nil {
		fmt.Fprintf(os.Stderr, "warning: recording run history: %v\n", err)
	}
}
