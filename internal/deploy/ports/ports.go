// Package ports defines the interfaces the deploy service depends on.
package ports

import (
	"context"

	"github.com/nathantilsley/plt-deploy-action/internal/deploy/domain"
)

// ArchiverPort packages a project directory into an uploadable bundle.
type ArchiverPort interface {
	// Archive returns the archive and a cleanup func that removes it.
	Archive(ctx context.Context, projectDir string, overlay map[string][]byte) (*domain.Archive, func(), error)
}

// DeployServicePort is the remote Platformatic deploy API.
type DeployServicePort interface {
	CreateBundle(ctx context.Context, req domain.DeploymentRequest) (domain.BundleHandle, error)
	UploadBundle(ctx context.Context, handle domain.BundleHandle, archive *domain.Archive) error
	CreateDeployment(ctx context.Context, handle domain.BundleHandle, spec domain.DeploymentSpec) (domain.Deployment, error)
}

// RisksPort fetches the breaking-change analysis of a deployment.
type RisksPort interface {
	GetDeploymentRisks(ctx context.Context, deploymentID string) ([]domain.WorkspaceRisks, error)
}

// PrewarmPort wakes up a freshly deployed application.
type PrewarmPort interface {
	Prewarm(ctx context.Context, url string) error
}

// MetadataPort collects the repository context sent with a bundle.
type MetadataPort interface {
	GetMetadata(ctx context.Context, event *domain.Event) (domain.GitHubMetadata, error)
}

// CommentPort maintains comments on a pull request.
type CommentPort interface {
	// UpsertStatusComment edits the most recently updated status comment
	// left by the action, or creates one.
	UpsertStatusComment(ctx context.Context, pr domain.PRContext, body string) error
	// PostComment always creates a new comment.
	PostComment(ctx context.Context, pr domain.PRContext, body string) error
}

// ProjectPort inspects the project directory before it is archived.
type ProjectPort interface {
	// ResolveConfigPath returns the config file path relative to projectDir.
	ResolveConfigPath(projectDir, configPath string) (string, error)
	// ReadEnvFile parses a dotenv file; a missing file yields an empty set.
	ReadEnvFile(path string) (domain.EnvVarSet, error)
	// EncodeEnvFile renders vars in the format ReadEnvFile accepts.
	EncodeEnvFile(vars domain.EnvVarSet) []byte
	// Warnings returns advisory messages about the project layout.
	Warnings(projectDir string) []string
}

// OutputPort publishes step outputs to the workflow.
type OutputPort interface {
	SetOutput(name, value string) error
}
