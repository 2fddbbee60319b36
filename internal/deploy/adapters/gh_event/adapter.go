// Package ghevent reads the workflow trigger payload GitHub Actions writes to
// $GITHUB_EVENT_PATH.
package ghevent

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/go-github/v68/github"

	"github.com/nathantilsley/plt-deploy-action/internal/deploy/domain"
)

// EnvGetter looks up workflow environment variables.
type EnvGetter interface {
	Getenv(key string) string
}

// OSEnvGetter reads from the process environment.
type OSEnvGetter struct{}

func (OSEnvGetter) Getenv(key string) string {
	return os.Getenv(key)
}

// Adapter loads and decodes the trigger event.
type Adapter struct {
	env EnvGetter
}

// New creates a new event adapter. A nil env reads the process environment.
func New(env EnvGetter) *Adapter {
	if env == nil {
		env = OSEnvGetter{}
	}
	return &Adapter{env: env}
}

// Load reads and parses the event payload. Only push and pull_request
// triggers are supported.
func (a *Adapter) Load() (*domain.Event, error) {
	name := a.env.Getenv("GITHUB_EVENT_NAME")
	if name != domain.EventPush && name != domain.EventPullRequest {
		return nil, domain.NewConfigError("the action only works on push and pull_request events, got %q", name)
	}

	path := a.env.Getenv("GITHUB_EVENT_PATH")
	if path == "" {
		return nil, domain.NewConfigError("GITHUB_EVENT_PATH is not set")
	}

	//nolint:gosec // G304: path is provided by the runner
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading event payload: %w", err)
	}

	return a.Parse(name, payload)
}

// Parse decodes a raw webhook payload of the given event type.
func (a *Adapter) Parse(name string, payload []byte) (*domain.Event, error) {
	raw, err := github.ParseWebHook(name, payload)
	if err != nil {
		return nil, fmt.Errorf("parsing %s event payload: %w", name, err)
	}

	var event *domain.Event
	switch e := raw.(type) {
	case *github.PushEvent:
		event = fromPush(e)
	case *github.PullRequestEvent:
		event = fromPullRequest(e)
	default:
		return nil, domain.NewConfigError("the action only works on push and pull_request events, got %q", name)
	}

	if branch := a.branchName(); branch != "" {
		event.Branch = branch
	}
	if event.HeadSHA == "" {
		event.HeadSHA = a.env.Getenv("GITHUB_SHA")
	}
	return event, nil
}

// branchName prefers the PR source branch over the ref that triggered the run.
func (a *Adapter) branchName() string {
	if ref := a.env.Getenv("GITHUB_HEAD_REF"); ref != "" {
		return ref
	}
	return a.env.Getenv("GITHUB_REF_NAME")
}

func fromPush(e *github.PushEvent) *domain.Event {
	repo := e.GetRepo()
	owner := repo.GetOwner().GetLogin()
	if owner == "" {
		owner = repo.GetOwner().GetName()
	}
	branch, _ := strings.CutPrefix(e.GetRef(), "refs/heads/")
	return &domain.Event{
		Name:    domain.EventPush,
		Owner:   owner,
		Repo:    repo.GetName(),
		RepoURL: repo.GetHTMLURL(),
		RepoID:  repo.GetID(),
		HeadSHA: e.GetAfter(),
		Branch:  branch,
	}
}

func fromPullRequest(e *github.PullRequestEvent) *domain.Event {
	repo := e.GetRepo()
	pr := e.GetPullRequest()
	return &domain.Event{
		Name:     domain.EventPullRequest,
		Owner:    repo.GetOwner().GetLogin(),
		Repo:     repo.GetName(),
		RepoURL:  repo.GetHTMLURL(),
		RepoID:   repo.GetID(),
		HeadSHA:  pr.GetHead().GetSHA(),
		Branch:   pr.GetHead().GetRef(),
		PRNumber: pr.GetNumber(),
		PRTitle:  pr.GetTitle(),
	}
}
