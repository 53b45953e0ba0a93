package publish

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/treeship-labs/treeship/internal/errs"
	"github.com/treeship-labs/treeship/internal/render"
)

const (
	githubAPIBase = "https://api.github.com"
	apiVersion    = "2022-11-28"
)

// GistConfig controls the gist channel.
type GistConfig struct {
	// Description is attached to every created gist.
	Description string

	// Public makes created gists publicly listed. Defaults to secret.
	Public bool

	// FileCapBytes is the per-file platform cap. Artifacts above it are
	// skipped and recorded, never uploaded.
	FileCapBytes int64

	// Delay is the fixed pause between successive creation requests.
	Delay time.Duration
}

// GistPublisher uploads rendered artifacts as individual gists through
// the REST API, with per-artifact failure accounting.
type GistPublisher struct {
	cfg        GistConfig
	httpClient *http.Client
	baseURL    string
	sleep      func(time.Duration)
}

// GistOption configures a GistPublisher.
type GistOption func(*GistPublisher)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) GistOption {
	return func(p *GistPublisher) { p.httpClient = c }
}

// WithBaseURL points the publisher at a different API root (test servers).
func WithBaseURL(url string) GistOption {
	return func(p *GistPublisher) { p.baseURL = strings.TrimRight(url, "/") }
}

// WithSleep replaces the inter-request delay function (test clocks).
func WithSleep(fn func(time.Duration)) GistOption {
	return func(p *GistPublisher) { p.sleep = fn }
}

// NewGistPublisher creates a gist publisher with sane defaults: a finite
// HTTP timeout, a 1 MiB per-file cap, and a 500ms inter-request delay.
func NewGistPublisher(cfg GistConfig, opts ...GistOption) *GistPublisher {
	if cfg.FileCapBytes <= 0 {
		cfg.FileCapBytes = 1 << 20
	}
	if cfg.Delay <= 0 {
		cfg.Delay = 500 * time.Millisecond
	}
	p := &GistPublisher{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    githubAPIBase,
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckTokenShape validates the token's form before any network call.
func CheckTokenShape(token string) error {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return errs.Wrap(errs.ErrAuthentication, "token is empty")
	}
	if strings.ContainsAny(trimmed, " \t\n") {
		return errs.Wrap(errs.ErrAuthentication, "token contains whitespace")
	}
	if len(trimmed) < 20 {
		return errs.Wrap(errs.ErrAuthentication, "token is too short")
	}
	return nil
}

// ValidateToken verifies the token against the authenticated-identity
// endpoint and returns the login it resolves to.
func (p *GistPublisher) ValidateToken(token string) (string, error) {
	if err := CheckTokenShape(token); err != nil {
		return "", err
	}

	body, _, err := p.request(http.MethodGet, "/user", token, nil)
	if err != nil {
		return "", err
	}

	var identity struct {
		Login string `json:"login"`
	}
	if err := json.Unmarshal(body, &identity); err != nil {
		return "", fmt.Errorf("parsing identity response: %w", err)
	}
	return identity.Login, nil
}

type gistFile struct {
	Content string `json:"content"`
}

type gistRequest struct {
	Description string              `json:"description"`
	Public      bool                `json:"public"`
	Files       map[string]gistFile `json:"files"`
}

type gistResponse struct {
	ID      string `json:"id"`
	HTMLURL string `json:"html_url"`
}

// Publish uploads each artifact as its own gist. A failed artifact is
// recorded and the batch continues; one bad upload never aborts the rest.
// The returned error is ErrPartialFailure when some but not all artifacts
// succeeded, ErrAuthentication before any upload when the token is
// malformed, or a terminal error when nothing was created.
func (p *GistPublisher) Publish(artifactDir string, artifacts []render.Artifact, token string) ([]Result, error) {
	if err := CheckTokenShape(token); err != nil {
		return nil, err
	}

	var results []Result
	for i, artifact := range artifacts {
		if i > 0 {
			p.sleep(p.cfg.Delay)
		}
		results = append(results, p.publishOne(artifactDir, artifact, token))
	}

	failures := FailureCount(results)
	switch {
	case len(results) == 0:
		return results, nil
	case failures == 0:
		return results, nil
	case Succeeded(results):
		return results, errs.Wrapf(errs.ErrPartialFailure, "%d of %d artifacts failed", failures, len(results))
	default:
		// Surface the first classified failure for the whole batch.
		return results, results[0].Err
	}
}

func (p *GistPublisher) publishOne(artifactDir string, artifact render.Artifact, token string) Result {
	fail := func(err error) Result {
		return Result{
			Channel:     ChannelGist,
			ArtifactRef: artifact.FileName,
			Status:      StatusFailure,
			Err:         err,
		}
	}

	if artifact.SizeBytes > p.cfg.FileCapBytes {
		return fail(errs.Wrapf(errs.ErrSizeLimitExceeded,
			"%s is %d bytes, cap is %d", artifact.FileName, artifact.SizeBytes, p.cfg.FileCapBytes))
	}

	content, err := os.ReadFile(filepath.Join(artifactDir, artifact.FileName))
	if err != nil {
		return fail(fmt.Errorf("reading artifact: %w", err))
	}

	description := p.cfg.Description
	if description == "" {
		description = fmt.Sprintf("treeship export: %s", artifact.FileName)
	}

	payload, err := json.Marshal(gistRequest{
		Description: description,
		Public:      p.cfg.Public,
		Files:       map[string]gistFile{artifact.FileName: {Content: string(content)}},
	})
	if err != nil {
		return fail(fmt.Errorf("encoding request: %w", err))
	}

	body, _, err := p.request(http.MethodPost, "/gists", token, payload)
	if err != nil {
		return fail(err)
	}

	var created gistResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return fail(fmt.Errorf("parsing creation response: %w", err))
	}

	return Result{
		Channel:     ChannelGist,
		ArtifactRef: artifact.FileName,
		RemoteURL:   created.HTMLURL,
		Status:      StatusSuccess,
	}
}

// request issues one API call and classifies non-2xx statuses onto the
// error taxonomy. The token travels only in the Authorization header.
func (p *GistPublisher) request(method, path, token string, payload []byte) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, p.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", "treeship")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("calling %s: %s", path, Redact(err.Error(), token))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, resp.StatusCode, nil
	}

	diagnostic := Redact(strings.TrimSpace(string(body)), token)
	apiErr := func(sentinel error) error {
		return errs.NewAPIError(path, resp.StatusCode, sentinel, diagnostic)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, resp.StatusCode, apiErr(errs.ErrAuthentication)
	case http.StatusNotFound:
		return nil, resp.StatusCode, apiErr(errs.ErrNotFound)
	case http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		return nil, resp.StatusCode, apiErr(errs.ErrSizeLimitExceeded)
	default:
		return nil, resp.StatusCode, apiErr(nil)
	}
}
