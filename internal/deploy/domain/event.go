package domain

// Supported workflow trigger names.
const (
	EventPush        = "push"
	EventPullRequest = "pull_request"
)

// Event is the subset of the workflow trigger payload the action relies on.
type Event struct {
	Name     string
	Owner    string
	Repo     string
	RepoURL  string
	RepoID   int64
	HeadSHA  string
	Branch   string
	PRNumber int // zero for push events
	PRTitle  string
}

// IsPullRequest reports whether the run was triggered by a pull request.
func (e *Event) IsPullRequest() bool {
	return e.Name == EventPullRequest && e.PRNumber > 0
}

// PRContext returns the pull request coordinates used for comments.
func (e *Event) PRContext() PRContext {
	return PRContext{
		Owner:    e.Owner,
		Repo:     e.Repo,
		PRNumber: e.PRNumber,
		Title:    e.PRTitle,
		HeadRef:  e.Branch,
		HeadSHA:  e.HeadSHA,
	}
}
