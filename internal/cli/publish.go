package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/treeship-labs/treeship/internal/config"
	"github.com/treeship-labs/treeship/internal/errs"
	"github.com/treeship-labs/treeship/internal/manifest"
	"github.com/treeship-labs/treeship/internal/pipeline"
	"github.com/treeship-labs/treeship/internal/publish"
	"github.com/treeship-labs/treeship/internal/render"
	"github.com/treeship-labs/treeship/internal/scan"
)

var (
	publishChannel  string
	publishPrefix   string
	publishRepo     string
	publishBranch   string
	publishMessage  string
	publishPublic   bool
	publishDescribe string
)

func init() {
	publishCmd.Flags().StringVar(&publishChannel, "channel", "", "Publish channel: git or gist (required)")
	publishCmd.Flags().StringVar(&publishPrefix, "prefix", "", "Artifact name prefix of the run to publish")
	publishCmd.Flags().StringVar(&publishRepo, "repo", "", "Target repository as owner/name (git channel)")
	publishCmd.Flags().StringVar(&publishBranch, "branch", "", "Target branch (git channel)")
	publishCmd.Flags().StringVar(&publishMessage, "message", "", "Commit message (git channel)")
	publishCmd.Flags().BoolVar(&publishPublic, "public", false, "Create public gists (gist channel)")
	publishCmd.Flags().StringVar(&publishDescribe, "description", "", "Gist description (gist channel)")
	rootCmd.AddCommand(publishCmd)
}

var publishCmd = &cobra.Command{
	Use:   "publish [dir]",
	Short: "Publish a previous run's artifacts without re-exporting",
	Long: `Reads the run manifest written by a prior export and pushes the same
artifacts through the chosen channel.

  treeship publish --channel gist
  treeship publish ./out --channel git --repo octo/export`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		dir, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("resolving artifact directory: %w", err)
		}

		export, err := config.LoadExport(filepath.Join(dir, config.ExportFileName))
		if err != nil {
			return err
		}
		if publishPrefix != "" {
			export.Prefix = publishPrefix
		}
		if publishChannel != "" {
			export.Channel = publishChannel
		}
		if publishRepo != "" {
			export.Repo = publishRepo
		}
		if publishBranch != "" {
			export.Branch = publishBranch
		}
		if export.Channel != "git" && export.Channel != "gist" {
			return errs.NewConfigError("channel", export.Channel,
				errs.Wrap(errs.ErrConfiguration, "publish requires --channel git or gist"))
		}

		manifestPath := filepath.Join(dir, manifest.FileName(export.Prefix))
		m, err := manifest.Read(manifestPath)
		if err != nil {
			return errs.Wrapf(errs.ErrPathNotFound,
				"no run manifest at %s; run `treeship export` first", manifestPath)
		}

		config.Load()
		token, err := config.ResolveToken()
		if err != nil {
			return err
		}

		result := &pipeline.RunResult{ManifestPath: manifestPath}
		for _, a := range m.Artifacts {
			result.Artifacts = append(result.Artifacts, render.Artifact{
				FileName:  a.FileName,
				SizeBytes: a.SizeBytes,
				Kind:      render.Kind(a.Kind),
			})
		}

		switch export.Channel {
		case "git":
			gp := publish.NewGitPublisher(publish.GitConfig{
				Dir:           dir,
				RepoSlug:      export.Repo,
				Branch:        export.Branch,
				CommitMessage: publishMessage,
				Rules:         scan.DefaultRules(export.Prefix, config.ExportFileName),
			})
			r := gp.Publish(token)
			result.PublishResults = append(result.PublishResults, r)
			result.Success = r.Status == publish.StatusSuccess
			if !result.Success {
				result.Err = r.Err
			}

		case "gist":
			gist := publish.NewGistPublisher(publish.GistConfig{
				Description:  publishDescribe,
				Public:       publishPublic || export.Gist.Public,
				FileCapBytes: export.GistFileCapBytes(),
			})
			results, err := gist.Publish(dir, result.Artifacts, token)
			result.PublishResults = append(result.PublishResults, results...)
			switch {
			case err == nil:
				result.Success = true
			case errors.Is(err, errs.ErrPartialFailure):
				result.Success = true
				result.Warnings = append(result.Warnings, err.Error())
			default:
				result.Err = err
			}
		}

		// Fold the new publish outcomes back into the manifest.
		updated := manifest.New(m.Root, export.Channel, result.Artifacts, result.PublishResults, m.GeneratedAt)
		updated.TargetBytes = m.TargetBytes
		updated.HardCapBytes = m.HardCapBytes
		updated.ChunkCapBytes = m.ChunkCapBytes
		if _, err := updated.Write(dir, export.Prefix); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("could not update run manifest: %v", err))
		}

		printRun(result)
		recordHistory(result)
		return result.Err
	},
}
