package updater

import (
	"fmt"
	"io"
	"time"

	"github.com/treeship-labs/treeship/internal/branding"
)

// CheckAndPrintBanner prints an update banner when the persisted check
// state says a newer version exists. It never blocks: a stale state is
// refreshed by a background goroutine for the next invocation.
func (u *Updater) CheckAndPrintBanner(w io.Writer, configDir string) {
	state, err := LoadCheckState(configDir)
	if err != nil {
		// A corrupt state file must not break the command.
		return
	}

	if state != nil && state.UpdateAvailable && state.CurrentVersion == u.currentVersion {
		PrintUpdateBanner(w, state.CurrentVersion, state.LatestVersion)
	}

	if IsStale(state, DefaultCacheMaxAge) {
		go u.refreshState(configDir)
	}
}

// PrintUpdateBanner prints the update notification to w.
func PrintUpdateBanner(w io.Writer, current, latest string) {
	fmt.Fprintf(w, "\nUpdate available: %s -> %s\n", current, latest)
	fmt.Fprintf(w, "    https://github.com/%s/releases\n\n", branding.GitHubRepo())
}

// refreshState fetches the latest release and rewrites the persisted
// state. Runs in the background and never fails loudly.
func (u *Updater) refreshState(configDir string) {
	release, err := u.CheckLatestVersion()
	if err != nil {
		return
	}

	available, err := IsUpdateAvailable(u.currentVersion, release.Version)
	if err != nil {
		return
	}

	_ = SaveCheckState(configDir, &CheckState{
		LatestVersion:   release.Version,
		CurrentVersion:  u.currentVersion,
		ReleaseURL:      release.HTMLURL,
		CheckedAt:       time.Now(),
		UpdateAvailable: available,
	})
}
