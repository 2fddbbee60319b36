// Package app orchestrates a deployment from project archive to PR comment.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/nathantilsley/plt-deploy-action/internal/deploy/domain"
	"github.com/nathantilsley/plt-deploy-action/internal/deploy/ports"
)

// OutputAppURL is the step output holding the deployed application URL.
const OutputAppURL = "platformatic_app_url"

// DefaultEnvPath is used when no env file path is configured.
const DefaultEnvPath = ".env"

// Service runs deployments and risk reports.
type Service struct {
	project   ports.ProjectPort
	archiver  ports.ArchiverPort
	deploySvc ports.DeployServicePort
	prewarmer ports.PrewarmPort
	metadata  ports.MetadataPort
	comments  ports.CommentPort
	risks     ports.RisksPort
	outputs   ports.OutputPort
	logger    *slog.Logger
}

// NewService creates a new deployment service.
func NewService(
	project ports.ProjectPort,
	archiver ports.ArchiverPort,
	deploySvc ports.DeployServicePort,
	prewarmer ports.PrewarmPort,
	metadata ports.MetadataPort,
	comments ports.CommentPort,
	risks ports.RisksPort,
	outputs ports.OutputPort,
	logger *slog.Logger,
) *Service {
	return &Service{
		project:   project,
		archiver:  archiver,
		deploySvc: deploySvc,
		prewarmer: prewarmer,
		metadata:  metadata,
		comments:  comments,
		risks:     risks,
		outputs:   outputs,
		logger:    logger,
	}
}

// DeployInput is everything a single deployment run needs.
type DeployInput struct {
	Event      *domain.Event
	ProjectDir string
	ConfigPath string // relative to ProjectDir; discovered when empty
	EnvPath    string // relative to ProjectDir; DefaultEnvPath when empty
	Variables  domain.EnvVarSet
	Secrets    domain.EnvVarSet
}

// DeployResult describes a created deployment.
type DeployResult struct {
	URL      string
	Label    string
	BundleID string
	Uploaded bool
}

// Deploy archives the project, creates and uploads a bundle, deploys it,
// prewarms the application and reports the URL. When only the prewarm step
// fails the result is returned alongside the error and the URL output is
// still set.
func (s *Service) Deploy(ctx context.Context, in DeployInput) (*DeployResult, error) {
	configPath, err := s.project.ResolveConfigPath(in.ProjectDir, in.ConfigPath)
	if err != nil {
		return nil, err
	}
	appType, err := domain.AppTypeFromConfigPath(configPath)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Found Platformatic config file: " + configPath)

	for _, warning := range s.project.Warnings(in.ProjectDir) {
		s.logger.Warn(warning)
	}

	meta, err := s.metadata.GetMetadata(ctx, in.Event)
	if err != nil {
		return nil, fmt.Errorf("collecting GitHub metadata: %w", err)
	}

	envPath := in.EnvPath
	if envPath == "" {
		envPath = DefaultEnvPath
	}
	fileVars, err := s.project.ReadEnvFile(filepath.Join(in.ProjectDir, envPath))
	if err != nil {
		return nil, err
	}
	variables := domain.MergeEnv(fileVars, in.Variables)

	// the bundle always carries an env file, even when the project has none
	overlay := map[string][]byte{envPath: s.project.EncodeEnvFile(variables)}

	archive, cleanup, err := s.archiver.Archive(ctx, in.ProjectDir, overlay)
	if err != nil {
		return nil, fmt.Errorf("archiving project: %w", err)
	}
	defer cleanup()
	s.logger.Info("Project has been successfully archived", "size", archive.Size)

	req := domain.DeploymentRequest{
		AppType:    appType,
		ConfigPath: configPath,
		Checksum:   archive.Checksum,
		Size:       archive.Size,
		Metadata:   meta,
		Label:      meta.Label(),
	}

	handle, err := s.deploySvc.CreateBundle(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &DeployResult{Label: req.Label, BundleID: handle.ID}
	if handle.IsBundleUploaded {
		s.logger.Info("Bundle has been already uploaded. Skipping upload...")
	} else {
		s.logger.Info("Uploading bundle to the cloud...")
		if err := s.deploySvc.UploadBundle(ctx, handle, archive); err != nil {
			return nil, err
		}
		result.Uploaded = true
		s.logger.Info("Bundle has been successfully uploaded")
	}

	deployment, err := s.deploySvc.CreateDeployment(ctx, handle, domain.DeploymentSpec{
		Label:     req.Label,
		Variables: variables,
		Secrets:   in.Secrets,
	})
	if err != nil {
		return nil, err
	}
	result.URL = deployment.EntryPointURL
	s.logger.Info("Application has been successfully created")
	s.logger.Info("Application URL: " + result.URL)

	s.logger.Info("Making a prewarm application call...")
	prewarmErr := s.prewarmer.Prewarm(ctx, result.URL)
	if prewarmErr == nil {
		s.logger.Info("Application has been successfully prewarmed")
	}

	if err := s.outputs.SetOutput(OutputAppURL, result.URL); err != nil {
		return result, fmt.Errorf("setting %s output: %w", OutputAppURL, err)
	}
	if prewarmErr != nil {
		return result, prewarmErr
	}

	if in.Event.IsPullRequest() {
		body := domain.StatusCommentBody(result.URL, meta.Commit.SHA, meta.CommitURL())
		if err := s.comments.UpsertStatusComment(ctx, in.Event.PRContext(), body); err != nil {
			return result, fmt.Errorf("reporting deployment status: %w", err)
		}
	}

	return result, nil
}

// RisksInput identifies the deployment whose risks are reported.
type RisksInput struct {
	Event        *domain.Event
	DeploymentID string
}

// ReportRisks fetches the breaking-change analysis of a deployment and posts
// it as a new pull request comment.
func (s *Service) ReportRisks(ctx context.Context, in RisksInput) error {
	if !in.Event.IsPullRequest() {
		return domain.NewConfigError("the action only works on pull_request events")
	}
	if in.DeploymentID == "" {
		return domain.NewConfigError("platformatic_deployment_id action param is required")
	}

	s.logger.Info("Calculating deployment risks")
	risks, err := s.risks.GetDeploymentRisks(ctx, in.DeploymentID)
	if err != nil {
		return err
	}
	s.logger.Info("Deployment risks calculated")

	if s.logger.Enabled(ctx, slog.LevelDebug) {
		//nolint:errcheck // Debug output only
		raw, _ := json.MarshalIndent(risks, "", "  ")
		s.logger.Debug(string(raw))
	}

	body, err := domain.RenderRisksComment(risks)
	if err != nil {
		return fmt.Errorf("rendering deployment risks: %w", err)
	}

	return s.comments.PostComment(ctx, in.Event.PRContext(), body)
}
