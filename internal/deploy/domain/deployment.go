package domain

import (
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// AppType is the kind of application described by the project config file.
type AppType string

const (
	AppTypeService AppType = "service"
	AppTypeDB      AppType = "db"
)

// AppTypes lists the supported application types.
var AppTypes = []AppType{AppTypeService, AppTypeDB}

// AppTypeFromConfigPath derives the application type from a config file name
// of the form platformatic.<type>.<ext>.
func AppTypeFromConfigPath(configPath string) (AppType, error) {
	parts := strings.Split(filepath.Base(configPath), ".")
	var candidate string
	if len(parts) >= 2 {
		candidate = parts[len(parts)-2]
	}
	appType := AppType(candidate)
	if !slices.Contains(AppTypes, appType) {
		return "", NewConfigError("invalid application type: %s, must be one of: service, db", candidate)
	}
	return appType, nil
}

// RepositoryMetadata identifies the GitHub repository being deployed.
type RepositoryMetadata struct {
	Name         string `json:"name"`
	URL          string `json:"url"`
	GithubRepoID int64  `json:"githubRepoId"`
}

// BranchMetadata identifies the branch being deployed.
type BranchMetadata struct {
	Name string `json:"name"`
}

// CommitMetadata describes the head commit of the deployment.
type CommitMetadata struct {
	SHA       string `json:"sha"`
	Username  string `json:"username"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// PullRequestMetadata is present only for pull_request triggered runs.
type PullRequestMetadata struct {
	Title  string `json:"title"`
	Number int    `json:"number"`
}

// GitHubMetadata is the repository context sent along with a bundle.
type GitHubMetadata struct {
	Repository  RepositoryMetadata   `json:"repository"`
	Branch      BranchMetadata       `json:"branch"`
	Commit      CommitMetadata       `json:"commit"`
	PullRequest *PullRequestMetadata `json:"pullRequest,omitempty"`
}

// Label returns the deployment label: one per pull request, or one per
// branch for push events.
func (m GitHubMetadata) Label() string {
	if m.PullRequest != nil {
		return "github-pr:" + strconv.Itoa(m.PullRequest.Number)
	}
	return "github-branch:" + m.Branch.Name
}

// CommitURL links to the deployed commit on GitHub.
func (m GitHubMetadata) CommitURL() string {
	return m.Repository.URL + "/commit/" + m.Commit.SHA
}

// DeploymentRequest is everything the deploy service needs to register a
// bundle. It is built once per run and not modified afterwards.
type DeploymentRequest struct {
	AppType    AppType
	ConfigPath string
	Checksum   string // base64 MD5 of the archive
	Size       int64
	Metadata   GitHubMetadata
	Label      string
}

// BundleHandle is returned by the deploy service when a bundle is created.
// UploadToken is a bearer credential valid for a single upload.
type BundleHandle struct {
	ID               string
	UploadToken      string
	IsBundleUploaded bool
}

// DeploymentSpec holds the runtime configuration of a deployment.
type DeploymentSpec struct {
	Label     string
	Variables EnvVarSet
	Secrets   EnvVarSet
}

// Deployment is the result of a successful deployment call.
type Deployment struct {
	EntryPointURL string
}

// Archive is a packaged project on local disk.
type Archive struct {
	Path     string
	Checksum string // base64 MD5, as sent in Content-MD5
	Size     int64
}
