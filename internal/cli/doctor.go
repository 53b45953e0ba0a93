package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/treeship-labs/treeship/internal/config"
	"github.com/treeship-labs/treeship/internal/history"
	"github.com/treeship-labs/treeship/internal/publish"
)

// minGitVersion is the oldest git the publisher is exercised against.
var minGitVersion = semver.MustParse("2.0.0")

var gitVersionPattern = regexp.MustCompile(`git version (\d+\.\d+(?:\.\d+)?)`)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Health check for the Treeship environment",
	Long:  `Run diagnostic checks on the tools and configuration an export needs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := false
		failed = !checkGit() || failed
		failed = !checkToken() || failed
		failed = !checkConfigDir() || failed
		failed = !checkHistoryDB() || failed
		checkProjectConfig()

		if failed {
			return fmt.Errorf("doctor found problems")
		}
		return nil
	},
}

func printOK(format string, args ...any) {
	fmt.Printf("  %s %s\n", color.GreenString("[ OK ]"), fmt.Sprintf(format, args...))
}

func printWarn(format string, args ...any) {
	fmt.Printf("  %s %s\n", color.YellowString("[WARN]"), fmt.Sprintf(format, args...))
}

func printFail(format string, args ...any) {
	fmt.Printf("  %s %s\n", color.RedString("[FAIL]"), fmt.Sprintf(format, args...))
}

// checkGit verifies the git binary exists and is recent enough for the
// push sequence the git channel drives.
func checkGit() bool {
	fmt.Println("Git:")

	path, err := exec.LookPath("git")
	if err != nil {
		printFail("git not found in PATH; the git channel is unavailable")
		return false
	}

	out, err := exec.Command(path, "--version").Output()
	if err != nil {
		printFail("git --version failed: %v", err)
		return false
	}

	match := gitVersionPattern.FindStringSubmatch(string(out))
	if match == nil {
		printWarn("could not parse git version from %q", strings.TrimSpace(string(out)))
		return true
	}
	v, err := semver.NewVersion(match[1])
	if err != nil {
		printWarn("could not parse git version %q: %v", match[1], err)
		return true
	}
	if v.LessThan(minGitVersion) {
		printFail("git %s is older than the supported minimum %s", v, minGitVersion)
		return false
	}
	printOK("git %s at %s", v, path)
	return true
}

// checkToken resolves the token the way a publish would, then applies
// the shape check. No network call is made.
func checkToken() bool {
	fmt.Println("Access token:")

	config.Load()
	token, err := config.ResolveToken()
	if err != nil {
		printWarn("no token resolved; only channel=none will work (%v)", err)
		return true
	}
	if err := publish.CheckTokenShape(token); err != nil {
		printFail("token is set but malformed: %v", err)
		return false
	}
	printOK("token resolved (%d characters)", len(token))
	return true
}

func checkConfigDir() bool {
	fmt.Println("Config directory:")

	if err := config.EnsureDir(); err != nil {
		printFail("%v", err)
		return false
	}
	probe := filepath.Join(config.Dir(), ".doctor-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		printFail("%s is not writable: %v", config.Dir(), err)
		return false
	}
	os.Remove(probe)
	printOK("%s is writable", config.Dir())
	return true
}

func checkHistoryDB() bool {
	fmt.Println("Run history:")

	db, err := history.Open(config.HistoryDBPath())
	if err != nil {
		printFail("cannot open %s: %v", config.HistoryDBPath(), err)
		return false
	}
	defer db.Close()

	runs, err := db.Recent(1)
	if err != nil {
		printFail("cannot query run history: %v", err)
		return false
	}
	if len(runs) == 0 {
		printOK("database ready, no runs recorded yet")
	} else {
		printOK("database ready, last run #%d", runs[0].ID)
	}
	return true
}

// checkProjectConfig validates treeship.yaml in the working directory
// when one exists. Informational only.
func checkProjectConfig() {
	path := filepath.Join(".", config.ExportFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return
	}

	fmt.Println("Project config:")
	if _, err := config.LoadExport(path); err != nil {
		printFail("%s: %v", path, err)
		return
	}
	printOK("%s is valid", path)
}
