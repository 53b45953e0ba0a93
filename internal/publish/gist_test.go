package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/treeship-labs/treeship/internal/errs"
	"github.com/treeship-labs/treeship/internal/render"
)

func writeArtifacts(t *testing.T, dir string, names ...string) []render.Artifact {
	t.Helper()
	var artifacts []render.Artifact
	for _, name := range names {
		content := "content of " + name
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		artifacts = append(artifacts, render.Artifact{
			FileName:  name,
			SizeBytes: int64(len(content)),
			Kind:      render.KindPart,
		})
	}
	return artifacts
}

// gistServer fakes the creation endpoint. failOn marks request ordinals
// (1-based) that answer with the given status instead of 201.
func gistServer(t *testing.T, failOn map[int]int) (*httptest.Server, *[]gistRequest) {
	t.Helper()
	var requests []gistRequest
	count := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gists" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		count++
		if auth := r.Header.Get("Authorization"); auth != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var req gistRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		requests = append(requests, req)

		if status, ok := failOn[count]; ok {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"message":"simulated failure"}`)
			return
		}

		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"id":"gist%d","html_url":"https://gist.github.com/gist%d"}`, count, count)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func testGistPublisher(srv *httptest.Server, cfg GistConfig, sleeps *[]time.Duration) *GistPublisher {
	return NewGistPublisher(cfg,
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithSleep(func(d time.Duration) {
			if sleeps != nil {
				*sleeps = append(*sleeps, d)
			}
		}),
	)
}

func TestGistPublishBatch(t *testing.T) {
	dir := t.TempDir()
	artifacts := writeArtifacts(t, dir, "EXPORT_PART_001.txt", "EXPORT_PART_002.txt", "EXPORT_PART_INDEX.txt")
	srv, requests := gistServer(t, nil)

	var sleeps []time.Duration
	p := testGistPublisher(srv, GistConfig{Delay: 10 * time.Millisecond}, &sleeps)

	results, err := p.Publish(dir, artifacts, testToken)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, r := range results {
		if r.Status != StatusSuccess {
			t.Errorf("result %d failed: %v", i, r.Err)
		}
		if r.RemoteURL == "" {
			t.Errorf("result %d missing remote URL", i)
		}
		if r.Channel != ChannelGist {
			t.Errorf("result %d channel = %s", i, r.Channel)
		}
	}

	// Fixed delay between successive requests, none before the first.
	if len(sleeps) != 2 {
		t.Errorf("expected 2 inter-request delays, got %d", len(sleeps))
	}

	// Request bodies carry the artifact content under its file name.
	if len(*requests) != 3 {
		t.Fatalf("server saw %d requests", len(*requests))
	}
	first := (*requests)[0]
	if _, ok := first.Files["EXPORT_PART_001.txt"]; !ok {
		t.Errorf("first request files = %v", first.Files)
	}
}

func TestGistPublishPartialFailure(t *testing.T) {
	dir := t.TempDir()
	artifacts := writeArtifacts(t, dir, "a.txt", "b.txt", "c.txt")
	srv, _ := gistServer(t, map[int]int{2: http.StatusInternalServerError})

	p := testGistPublisher(srv, GistConfig{}, nil)
	results, err := p.Publish(dir, artifacts, testToken)

	if !errors.Is(err, errs.ErrPartialFailure) {
		t.Fatalf("expected ErrPartialFailure, got %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("batch must not abort: got %d results", len(results))
	}
	if !Succeeded(results) {
		t.Error("batch should count as successful with one failure")
	}
	if FailureCount(results) != 1 {
		t.Errorf("expected 1 failure, got %d", FailureCount(results))
	}
	if results[1].Status != StatusFailure || results[1].Err == nil {
		t.Errorf("second result should carry the classified failure: %+v", results[1])
	}
}

func TestGistPublishAllFail(t *testing.T) {
	dir := t.TempDir()
	artifacts := writeArtifacts(t, dir, "a.txt", "b.txt")
	srv, _ := gistServer(t, map[int]int{1: http.StatusForbidden, 2: http.StatusForbidden})

	p := testGistPublisher(srv, GistConfig{}, nil)
	results, err := p.Publish(dir, artifacts, testToken)

	if err == nil || errors.Is(err, errs.ErrPartialFailure) {
		t.Fatalf("all-fail batch should return a terminal error, got %v", err)
	}
	if !errors.Is(err, errs.ErrAuthentication) {
		t.Errorf("expected ErrAuthentication, got %v", err)
	}
	if Succeeded(results) {
		t.Error("no result should be successful")
	}
}

func TestGistPublishSizeCapSkip(t *testing.T) {
	dir := t.TempDir()
	artifacts := writeArtifacts(t, dir, "small.txt", "big.txt")
	artifacts[1].SizeBytes = 5 << 20 // pretend it is 5 MiB

	srv, requests := gistServer(t, nil)
	p := testGistPublisher(srv, GistConfig{FileCapBytes: 1 << 20}, nil)

	results, err := p.Publish(dir, artifacts, testToken)
	if !errors.Is(err, errs.ErrPartialFailure) {
		t.Fatalf("expected ErrPartialFailure, got %v", err)
	}
	if !errors.Is(results[1].Err, errs.ErrSizeLimitExceeded) {
		t.Errorf("oversized artifact should record ErrSizeLimitExceeded, got %v", results[1].Err)
	}
	// The oversized artifact must never reach the network.
	if len(*requests) != 1 {
		t.Errorf("server saw %d requests, want 1", len(*requests))
	}
}

func TestGistPublishMalformedTokenNoNetwork(t *testing.T) {
	dir := t.TempDir()
	artifacts := writeArtifacts(t, dir, "a.txt")

	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
	}))
	defer srv.Close()

	p := NewGistPublisher(GistConfig{}, WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	for _, token := range []string{"", "   ", "short", "has space in the middle of it"} {
		if _, err := p.Publish(dir, artifacts, token); !errors.Is(err, errs.ErrAuthentication) {
			t.Errorf("token %q: expected ErrAuthentication, got %v", token, err)
		}
	}
	if hit {
		t.Error("malformed token must be rejected before any network call")
	}
}

func TestGistValidateToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message":"Bad credentials"}`)
			return
		}
		fmt.Fprint(w, `{"login":"octocat"}`)
	}))
	defer srv.Close()

	p := NewGistPublisher(GistConfig{}, WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	login, err := p.ValidateToken(testToken)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if login != "octocat" {
		t.Errorf("login = %s", login)
	}

	badToken := "ghp_wrongwrongwrongwrongwrong"
	if _, err := p.ValidateToken(badToken); !errors.Is(err, errs.ErrAuthentication) {
		t.Errorf("expected ErrAuthentication for rejected token, got %v", err)
	}
}

func TestGistPublishEmptyBatch(t *testing.T) {
	srv, _ := gistServer(t, nil)
	p := testGistPublisher(srv, GistConfig{}, nil)

	results, err := p.Publish(t.TempDir(), nil, testToken)
	if err != nil {
		t.Fatalf("empty batch should not error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results")
	}
}
