package publish

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/treeship-labs/treeship/internal/errs"
	"github.com/treeship-labs/treeship/internal/scan"
)

// GitConfig holds everything the git channel needs. The token is NOT part
// of the config: it is passed to Publish as a call parameter, used only to
// build the in-memory push URL, and never written to .git/config, the
// ignore file, or any diagnostic.
type GitConfig struct {
	// Dir is the working tree to commit and push.
	Dir string

	// RepoSlug is the "owner/name" of the target GitHub repository.
	RepoSlug string

	// Branch is the branch pushed to. Defaults to "main".
	Branch string

	// CommitMessage overrides the generated message when non-empty.
	CommitMessage string

	// Rules are re-applied as a committed ignore-list before staging.
	Rules scan.Rules
}

// GitPublisher commits the working tree and pushes it to a remote,
// with credential-scheme fallback on the connectivity probe and a single
// forced retry on push conflicts.
type GitPublisher struct {
	cfg    GitConfig
	runner CommandRunner
}

// NewGitPublisher creates a publisher backed by the git binary.
func NewGitPublisher(cfg GitConfig) *GitPublisher {
	return NewGitPublisherWithRunner(cfg, NewExecRunner())
}

// NewGitPublisherWithRunner creates a publisher with a custom runner,
// used by tests to simulate git behavior.
func NewGitPublisherWithRunner(cfg GitConfig, runner CommandRunner) *GitPublisher {
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	return &GitPublisher{cfg: cfg, runner: runner}
}

// remoteURL embeds the token into an HTTPS remote URL. Two schemes are
// supported: token-as-username, and the x-access-token prefix used by app
// installation tokens.
func (p *GitPublisher) remoteURL(token string, alternate bool) string {
	if alternate {
		return fmt.Sprintf("https://x-access-token:%s@github.com/%s.git", token, p.cfg.RepoSlug)
	}
	return fmt.Sprintf("https://%s@github.com/%s.git", token, p.cfg.RepoSlug)
}

// publicURL is the token-free URL recorded in results.
func (p *GitPublisher) publicURL() string {
	return fmt.Sprintf("https://github.com/%s", p.cfg.RepoSlug)
}

// redact scrubs the token and any embedded-credential URL from an error.
func (p *GitPublisher) redact(err error, token string) error {
	if err == nil {
		return nil
	}
	var gitErr *errs.GitError
	if errors.As(err, &gitErr) {
		gitErr.Output = Redact(gitErr.Output, token)
		return err
	}
	return fmt.Errorf("%s", Redact(err.Error(), token))
}

// Publish runs the full git sequence: init if absent, probe the remote
// (falling back to the alternate credential scheme once), write the
// committed ignore-list, stage, commit, and push with a single forced
// retry on conflict. It returns exactly one Result.
func (p *GitPublisher) Publish(token string) Result {
	fail := func(err error) Result {
		return Result{
			Channel:   ChannelGit,
			RemoteURL: p.publicURL(),
			Status:    StatusFailure,
			Err:       p.redact(err, token),
		}
	}

	if strings.TrimSpace(token) == "" {
		return fail(errs.Wrap(errs.ErrConfiguration, "empty token"))
	}
	if p.cfg.RepoSlug == "" || !strings.Contains(p.cfg.RepoSlug, "/") {
		return fail(errs.NewConfigError("repo", p.cfg.RepoSlug, fmt.Errorf("expected owner/name")))
	}

	if err := p.ensureRepo(); err != nil {
		return fail(err)
	}

	pushURL, err := p.probeRemote(token)
	if err != nil {
		return fail(err)
	}

	if err := EnsureIgnoreFile(p.cfg.Dir, p.cfg.Rules); err != nil {
		return fail(err)
	}

	ref, err := p.stageAndCommit()
	if err != nil {
		return fail(err)
	}

	if err := p.push(pushURL); err != nil {
		return fail(err)
	}

	return Result{
		Channel:     ChannelGit,
		ArtifactRef: ref,
		RemoteURL:   p.publicURL(),
		Status:      StatusSuccess,
	}
}

// ensureRepo initializes a repository if the directory is not already
// inside one. Idempotent.
func (p *GitPublisher) ensureRepo() error {
	if _, err := p.runner.Run(p.cfg.Dir, "rev-parse", "--is-inside-work-tree"); err == nil {
		return nil
	}
	if _, err := p.runner.Run(p.cfg.Dir, "init"); err != nil {
		return errs.Wrap(err, "initializing repository")
	}
	p.ensureIdentity()
	return nil
}

// ensureIdentity sets a local commit identity when none is configured,
// so commits in fresh environments do not fail.
func (p *GitPublisher) ensureIdentity() {
	if email, err := p.runner.Run(p.cfg.Dir, "config", "user.email"); err != nil || email == "" {
		_, _ = p.runner.Run(p.cfg.Dir, "config", "user.email", "treeship@localhost")
		_, _ = p.runner.Run(p.cfg.Dir, "config", "user.name", "treeship")
	}
}

// probeRemote checks connectivity with a lightweight remote listing using
// the primary credential scheme, then retries once with the alternate
// scheme before giving up.
func (p *GitPublisher) probeRemote(token string) (string, error) {
	primary := p.remoteURL(token, false)
	if _, err := p.runner.Run(p.cfg.Dir, "ls-remote", primary, "HEAD"); err == nil {
		return primary, nil
	}

	alternate := p.remoteURL(token, true)
	_, err := p.runner.Run(p.cfg.Dir, "ls-remote", alternate, "HEAD")
	if err == nil {
		return alternate, nil
	}

	return "", classifyProbe(err)
}

// stageAndCommit stages everything and commits. When there is nothing to
// commit it creates an empty commit, so the publish channel always
// carries a fresh marker. Returns the new commit hash.
func (p *GitPublisher) stageAndCommit() (string, error) {
	if _, err := p.runner.Run(p.cfg.Dir, "add", "-A"); err != nil {
		return "", errs.Wrap(err, "staging files")
	}

	message := p.cfg.CommitMessage
	if message == "" {
		message = fmt.Sprintf("treeship export %s", time.Now().Format("2006-01-02 15:04:05"))
	}

	if _, err := p.runner.Run(p.cfg.Dir, "commit", "-m", message); err != nil {
		if !strings.Contains(strings.ToLower(gitOutput(err)), "nothing to commit") {
			return "", errs.Wrap(err, "committing")
		}
		if _, err := p.runner.Run(p.cfg.Dir, "commit", "--allow-empty", "-m", message); err != nil {
			return "", errs.Wrap(err, "creating empty commit")
		}
	}

	ref, err := p.runner.Run(p.cfg.Dir, "rev-parse", "HEAD")
	if err != nil {
		return "", errs.Wrap(err, "resolving HEAD")
	}
	return ref, nil
}

// push renames the current branch and pushes to the remote URL. A
// rejection classified as conflict triggers exactly one forced retry;
// any other classification, including SecretScanBlocked, is terminal.
func (p *GitPublisher) push(pushURL string) error {
	if _, err := p.runner.Run(p.cfg.Dir, "branch", "-M", p.cfg.Branch); err != nil {
		return errs.Wrap(err, "renaming branch")
	}

	refspec := fmt.Sprintf("HEAD:refs/heads/%s", p.cfg.Branch)
	_, err := p.runner.Run(p.cfg.Dir, "push", pushURL, refspec)
	if err == nil {
		return nil
	}

	classified := classifyPush(err)
	if !errors.Is(classified, errs.ErrConflict) {
		return classified
	}

	if _, err := p.runner.Run(p.cfg.Dir, "push", "--force", pushURL, refspec); err != nil {
		return classifyPush(err)
	}
	return nil
}
