// Package deploysvc talks to the Platformatic deploy service.
package deploysvc

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"resty.dev/v3"

	"github.com/nathantilsley/plt-deploy-action/internal/buildinfo"
	"github.com/nathantilsley/plt-deploy-action/internal/deploy/domain"
)

const (
	headerWorkspaceID = "x-platformatic-workspace-id"
	headerAPIKey      = "x-platformatic-api-key"

	// DefaultHost is used when DEPLOY_SERVICE_HOST is not set.
	DefaultHost = "https://plt-production-deploy-service.fly.dev"
)

// Config holds the deploy service endpoint and workspace credentials.
type Config struct {
	Host         string
	WorkspaceID  string
	WorkspaceKey string
	Timeout      time.Duration
}

// Adapter implements ports.DeployServicePort over HTTP.
type Adapter struct {
	client *resty.Client
	cfg    Config
	logger *slog.Logger
}

// New creates a new deploy service adapter.
func New(cfg Config, logger *slog.Logger) *Adapter {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.Host).
		SetTimeout(cfg.Timeout).
		SetResponseBodyUnlimitedReads(true).
		SetHeader("User-Agent", buildinfo.UserAgent())

	return &Adapter{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

type bundlePayload struct {
	AppType    domain.AppType `json:"appType"`
	ConfigPath string         `json:"configPath"`
	Checksum   string         `json:"checksum"`
	Size       int64          `json:"size"`
}

type createBundleRequest struct {
	domain.GitHubMetadata
	Bundle bundlePayload `json:"bundle"`
}

// The service has answered with both field spellings over time.
type createBundleResponse struct {
	ID               string `json:"id"`
	BundleID         string `json:"bundleId"`
	Token            string `json:"token"`
	UploadToken      string `json:"uploadToken"`
	IsBundleUploaded bool   `json:"isBundleUploaded"`
}

type createDeploymentRequest struct {
	Label     string          `json:"label"`
	Variables domain.EnvVarSet `json:"variables"`
	Secrets   domain.EnvVarSet `json:"secrets"`
}

type createDeploymentResponse struct {
	EntryPointURL string `json:"entryPointUrl"`
}

// CreateBundle registers the archive metadata and returns the upload handle.
func (c *Adapter) CreateBundle(ctx context.Context, req domain.DeploymentRequest) (domain.BundleHandle, error) {
	var out createBundleResponse
	resp, err := c.workspaceRequest(ctx).
		SetBody(createBundleRequest{
			GitHubMetadata: req.Metadata,
			Bundle: bundlePayload{
				AppType:    req.AppType,
				ConfigPath: req.ConfigPath,
				Checksum:   req.Checksum,
				Size:       req.Size,
			},
		}).
		SetResult(&out).
		Post("/bundles")
	if err != nil {
		return domain.BundleHandle{}, fmt.Errorf("creating bundle: %w", err)
	}
	if err := c.checkResponse(resp, "create a bundle"); err != nil {
		return domain.BundleHandle{}, err
	}

	handle := domain.BundleHandle{
		ID:               firstNonEmpty(out.ID, out.BundleID),
		UploadToken:      firstNonEmpty(out.Token, out.UploadToken),
		IsBundleUploaded: out.IsBundleUploaded,
	}
	c.logger.Debug("bundle created", "bundleID", handle.ID, "alreadyUploaded", handle.IsBundleUploaded)
	return handle, nil
}

// UploadBundle sends the raw tarball authorized by the bundle's upload token.
func (c *Adapter) UploadBundle(ctx context.Context, handle domain.BundleHandle, archive *domain.Archive) error {
	data, err := os.ReadFile(archive.Path)
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-tar").
		SetHeader("Content-MD5", archive.Checksum).
		SetHeader("Authorization", "Bearer "+handle.UploadToken).
		SetBody(data).
		Put("/upload")
	if err != nil {
		return fmt.Errorf("uploading code archive: %w", err)
	}
	return c.checkResponse(resp, "upload code archive")
}

// CreateDeployment deploys the uploaded bundle and returns its entry point.
func (c *Adapter) CreateDeployment(
	ctx context.Context,
	handle domain.BundleHandle,
	spec domain.DeploymentSpec,
) (domain.Deployment, error) {
	body := createDeploymentRequest{
		Label:     spec.Label,
		Variables: nonNil(spec.Variables),
		Secrets:   nonNil(spec.Secrets),
	}

	var out createDeploymentResponse
	resp, err := c.workspaceRequest(ctx).
		SetHeader("Authorization", "Bearer "+handle.UploadToken).
		SetBody(body).
		SetResult(&out).
		Post("/deployments")
	if err != nil {
		return domain.Deployment{}, fmt.Errorf("creating deployment: %w", err)
	}
	if err := c.checkResponse(resp, "create a deployment"); err != nil {
		return domain.Deployment{}, err
	}
	if out.EntryPointURL == "" {
		return domain.Deployment{}, fmt.Errorf("deploy service returned no entry point url")
	}

	return domain.Deployment{EntryPointURL: out.EntryPointURL}, nil
}

// GetDeploymentRisks fetches the breaking-change risk report of a deployment.
func (c *Adapter) GetDeploymentRisks(ctx context.Context, deploymentID string) ([]domain.WorkspaceRisks, error) {
	var out []domain.WorkspaceRisks
	resp, err := c.workspaceRequest(ctx).
		SetPathParam("deploymentID", deploymentID).
		SetResult(&out).
		Get("/deployments/{deploymentID}/risks")
	if err != nil {
		return nil, fmt.Errorf("calculating deployment risks: %w", err)
	}
	if err := c.checkResponse(resp, "calculate deployment risks"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Adapter) workspaceRequest(ctx context.Context) *resty.Request {
	return c.client.R().
		SetContext(ctx).
		SetHeader(headerWorkspaceID, c.cfg.WorkspaceID).
		SetHeader(headerAPIKey, c.cfg.WorkspaceKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
}

func (c *Adapter) checkResponse(resp *resty.Response, op string) error {
	if resp.IsSuccess() {
		return nil
	}

	c.logger.Debug("deploy service returned error",
		"op", op,
		"statusCode", resp.StatusCode(),
		"body", resp.String(),
	)

	if resp.StatusCode() == http.StatusUnauthorized {
		return domain.ErrInvalidCredential
	}
	return domain.NewRemoteError(op, resp.StatusCode(), resp.String())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func nonNil(vars domain.EnvVarSet) domain.EnvVarSet {
	if vars == nil {
		return domain.EnvVarSet{}
	}
	return vars
}
