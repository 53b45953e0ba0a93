package publish

// Channel identifies which publish backend produced a result.
type Channel string

const (
	ChannelGit  Channel = "git"
	ChannelGist Channel = "gist"
)

// Status is the outcome of one publish attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Result records the outcome of publishing one artifact (or, for the git
// channel, one commit of the whole working tree). Results are created once
// per attempt and appended to the run-level list, never mutated.
type Result struct {
	Channel     Channel
	ArtifactRef string // artifact file name, or commit ref for git
	RemoteURL   string // token-free URL of the published object
	Status      Status
	Err         error // classified error when Status is failure
}

// Succeeded reports whether at least one result in the list succeeded.
func Succeeded(results []Result) bool {
	for _, r := range results {
		if r.Status == StatusSuccess {
			return true
		}
	}
	return false
}

// FailureCount returns the number of failed results.
func FailureCount(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Status == StatusFailure {
			n++
		}
	}
	return n
}
