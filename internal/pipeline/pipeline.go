package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/treeship-labs/treeship/internal/chunk"
	"github.com/treeship-labs/treeship/internal/errs"
	"github.com/treeship-labs/treeship/internal/manifest"
	"github.com/treeship-labs/treeship/internal/pack"
	"github.com/treeship-labs/treeship/internal/publish"
	"github.com/treeship-labs/treeship/internal/render"
	"github.com/treeship-labs/treeship/internal/scan"
)

// Config carries everything one run needs. There is no ambient state:
// every component receives what it uses from here.
type Config struct {
	Root   string
	OutDir string // defaults to Root
	Prefix string

	TargetBytes  int64
	HardCapBytes int64
	ChunkCap     int64

	Channel       string // "git", "gist", or "none"
	RepoSlug      string
	Branch        string
	CommitMessage string
	Token         string

	Gist  publish.GistConfig
	Rules scan.Rules

	// Runner overrides the git executor (tests). Nil means exec-backed.
	Runner publish.CommandRunner

	// GistOptions are applied to the gist publisher (tests).
	GistOptions []publish.GistOption
}

// RunResult is the single tagged outcome shape for every channel.
type RunResult struct {
	Success        bool
	Artifacts      []render.Artifact
	PublishResults []publish.Result
	ManifestPath   string
	Warnings       []string
	Err            error
}

func (c *Config) outDir() string {
	if c.OutDir == "" {
		return c.Root
	}
	if filepath.IsAbs(c.OutDir) {
		return c.OutDir
	}
	return filepath.Join(c.Root, c.OutDir)
}

// Run executes the tree-export pipeline: scan, group, render, publish,
// manifest. Filesystem and configuration errors abort before any network
// call; publish failures are classified and carried in the result.
func Run(cfg Config) *RunResult {
	result := &RunResult{}

	if err := validate(&cfg); err != nil {
		result.Err = err
		return result
	}

	files, err := scan.Scan(cfg.Root, cfg.Rules)
	if err != nil {
		result.Err = err
		return result
	}
	if len(files) == 0 {
		result.Success = true
		result.Warnings = append(result.Warnings, "no files to export after exclusions")
		return result
	}

	bundles, err := pack.Group(files, cfg.TargetBytes, cfg.HardCapBytes)
	if err != nil {
		result.Err = err
		return result
	}

	outDir := cfg.outDir()
	if err := os.MkdirAll(outDir, 0755); err != nil {
		result.Err = fmt.Errorf("creating output directory: %w", err)
		return result
	}

	now := time.Now()
	var entries []render.IndexEntry
	for _, b := range bundles {
		artifact, members, err := render.RenderBundle(outDir, cfg.Prefix, b, len(bundles), now)
		if err != nil {
			result.Err = fmt.Errorf("rendering bundle %d: %w", b.Ordinal, err)
			return result
		}
		result.Artifacts = append(result.Artifacts, artifact)
		entries = append(entries, render.IndexEntry{Artifact: artifact, Members: members})
	}

	indexArtifact, err := render.RenderIndex(outDir, cfg.Prefix, entries, now)
	if err != nil {
		result.Err = fmt.Errorf("rendering index: %w", err)
		return result
	}
	result.Artifacts = append(result.Artifacts, indexArtifact)

	publishArtifacts(&cfg, result)

	writeManifest(&cfg, result, now)
	return result
}

func validate(cfg *Config) error {
	if cfg.Prefix == "" {
		return errs.NewConfigError("prefix", nil, fmt.Errorf("must not be empty"))
	}
	switch cfg.Channel {
	case "", "none", "git", "gist":
	default:
		return errs.NewConfigError("channel", cfg.Channel,
			errs.Wrap(errs.ErrConfiguration, "expected git, gist, or none"))
	}
	if cfg.Channel == "git" || cfg.Channel == "gist" {
		if cfg.Token == "" {
			return errs.Wrap(errs.ErrConfiguration, "publishing requires an access token")
		}
	}
	return nil
}

// publishArtifacts routes the rendered artifacts through the configured
// channel. In git mode a classified failure is terminal for the run; in
// gist (batch) mode partial failure still counts as success.
func publishArtifacts(cfg *Config, result *RunResult) {
	switch cfg.Channel {
	case "", "none":
		result.Success = true

	case "git":
		gp := gitPublisher(cfg)
		r := gp.Publish(cfg.Token)
		result.PublishResults = append(result.PublishResults, r)
		if r.Status == publish.StatusSuccess {
			result.Success = true
		} else {
			result.Err = r.Err
		}

	case "gist":
		gist := publish.NewGistPublisher(cfg.Gist, cfg.GistOptions...)
		results, err := gist.Publish(cfg.outDir(), result.Artifacts, cfg.Token)
		result.PublishResults = append(result.PublishResults, results...)
		switch {
		case err == nil:
			result.Success = true
		case errsIsPartial(err):
			result.Success = true
			result.Warnings = append(result.Warnings, err.Error())
		default:
			result.Err = err
		}
	}
}

func gitPublisher(cfg *Config) *publish.GitPublisher {
	gitCfg := publish.GitConfig{
		Dir:           cfg.Root,
		RepoSlug:      cfg.RepoSlug,
		Branch:        cfg.Branch,
		CommitMessage: cfg.CommitMessage,
		Rules:         cfg.Rules,
	}
	if cfg.Runner != nil {
		return publish.NewGitPublisherWithRunner(gitCfg, cfg.Runner)
	}
	return publish.NewGitPublisher(gitCfg)
}

func errsIsPartial(err error) bool {
	return errors.Is(err, errs.ErrPartialFailure)
}

// writeManifest records the run's durable outcome next to the artifacts.
// A manifest write failure downgrades to a warning: the artifacts and
// publish results already exist and remain valid.
func writeManifest(cfg *Config, result *RunResult, now time.Time) {
	if len(result.Artifacts) == 0 {
		return
	}
	m := manifest.New(cfg.Root, cfg.Channel, result.Artifacts, result.PublishResults, now)
	m.TargetBytes = cfg.TargetBytes
	m.HardCapBytes = cfg.HardCapBytes

	path, err := m.Write(cfg.outDir(), cfg.Prefix)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("could not write run manifest: %v", err))
		return
	}
	result.ManifestPath = path
}

// Split executes the single-file pipeline: plan and copy byte-range
// parts, then render the index. Chunk parts are binary slices, so only
// the git channel can carry them; the gist channel is rejected up front.
func Split(cfg Config, inputFile string) *RunResult {
	result := &RunResult{}

	if cfg.Prefix == "" {
		result.Err = errs.NewConfigError("prefix", nil, fmt.Errorf("must not be empty"))
		return result
	}
	if cfg.Channel == "gist" {
		result.Err = errs.NewConfigError("channel", "gist",
			errs.Wrap(errs.ErrConfiguration, "chunk parts are binary and cannot be published as gists"))
		return result
	}

	outDir := cfg.outDir()
	if cfg.Root == "" && cfg.OutDir == "" {
		outDir = filepath.Dir(inputFile)
	}
	split, err := chunk.Split(inputFile, cfg.ChunkCap, outDir, cfg.Prefix)
	if err != nil {
		result.Err = err
		return result
	}
	if len(split.Parts) == 0 {
		result.Success = true
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s is empty; nothing to split", inputFile))
		return result
	}

	now := time.Now()
	var entries []render.IndexEntry
	for _, part := range split.Parts {
		artifact := render.Artifact{FileName: part.FileName, SizeBytes: part.SizeBytes, Kind: render.KindPart}
		result.Artifacts = append(result.Artifacts, artifact)
		entries = append(entries, render.IndexEntry{
			Artifact:  artifact,
			ByteStart: part.ByteStart,
			ByteEnd:   part.ByteEnd,
		})
	}

	indexArtifact, err := render.RenderIndex(outDir, cfg.Prefix, entries, now)
	if err != nil {
		result.Err = fmt.Errorf("rendering index: %w", err)
		return result
	}
	result.Artifacts = append(result.Artifacts, indexArtifact)

	switch cfg.Channel {
	case "git":
		if cfg.Token == "" {
			result.Err = errs.Wrap(errs.ErrConfiguration, "publishing requires an access token")
			return result
		}
		cfgCopy := cfg
		cfgCopy.Root = outDir
		// Unlike a tree export, the parts ARE the payload here; the
		// ignore-list must not filter them out by prefix.
		cfgCopy.Rules.ArtifactPrefix = ""
		r := gitPublisher(&cfgCopy).Publish(cfg.Token)
		result.PublishResults = append(result.PublishResults, r)
		if r.Status == publish.StatusSuccess {
			result.Success = true
		} else {
			result.Err = r.Err
		}
	default:
		result.Success = true
	}

	m := manifest.New(inputFile, cfg.Channel, result.Artifacts, result.PublishResults, now)
	m.ChunkCapBytes = cfg.ChunkCap
	if path, err := m.Write(outDir, cfg.Prefix); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("could not write run manifest: %v", err))
	} else {
		result.ManifestPath = path
	}
	return result
}
