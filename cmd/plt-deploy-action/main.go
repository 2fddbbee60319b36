// Package main runs the Platformatic deploy GitHub Action.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nathantilsley/plt-deploy-action/internal/actions"
	"github.com/nathantilsley/plt-deploy-action/internal/buildinfo"
	"github.com/nathantilsley/plt-deploy-action/internal/config"
	"github.com/nathantilsley/plt-deploy-action/internal/deploy/adapters/archive"
	deploysvc "github.com/nathantilsley/plt-deploy-action/internal/deploy/adapters/deploy_svc"
	ghclient "github.com/nathantilsley/plt-deploy-action/internal/deploy/adapters/gh_client"
	ghevent "github.com/nathantilsley/plt-deploy-action/internal/deploy/adapters/gh_event"
	ghmetadata "github.com/nathantilsley/plt-deploy-action/internal/deploy/adapters/gh_metadata"
	linediff "github.com/nathantilsley/plt-deploy-action/internal/deploy/adapters/line_diff"
	prcomment "github.com/nathantilsley/plt-deploy-action/internal/deploy/adapters/pr_comment"
	"github.com/nathantilsley/plt-deploy-action/internal/deploy/adapters/prewarm"
	"github.com/nathantilsley/plt-deploy-action/internal/deploy/adapters/project"
	"github.com/nathantilsley/plt-deploy-action/internal/deploy/app"
	"github.com/nathantilsley/plt-deploy-action/internal/deploy/domain"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdout).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(actions.Fail(os.Stdout, errorTitle(err), err))
	}
}

// errorTitle names the failure annotation after the kind of error.
func errorTitle(err error) string {
	switch {
	case domain.IsConfigError(err):
		return "Invalid configuration"
	case domain.IsInvalidCredential(err):
		return "Invalid credentials"
	case domain.IsPrewarmError(err):
		return "Prewarm failed"
	default:
		return ""
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           buildinfo.Name,
		Short:         "Deploy a Platformatic application from a GitHub workflow",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDeploy(cmd.Context(), cmd, out)
		},
	}
	root.SetOut(out)
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		&cobra.Command{
			Use:   "deploy",
			Short: "Deploy the project (the default command)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runDeploy(cmd.Context(), cmd, out)
			},
		},
		&cobra.Command{
			Use:   "risks",
			Short: "Comment the breaking-change risks of a deployment on the pull request",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runRisks(cmd.Context(), cmd, out)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				//nolint:errcheck // Nothing to do if stdout is gone
				fmt.Fprintln(cmd.OutOrStdout(), buildinfo.UserAgent())
			},
		},
	)
	return root
}

func runDeploy(ctx context.Context, cmd *cobra.Command, out io.Writer) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := newLogger(cfg, out)

	event, err := ghevent.New(nil).Load()
	if err != nil {
		return err
	}

	svc, err := newService(cfg, logger, out)
	if err != nil {
		return err
	}

	result, err := svc.Deploy(ctx, app.DeployInput{
		Event:      event,
		ProjectDir: cfg.ProjectPath,
		ConfigPath: cfg.ConfigPath,
		EnvPath:    cfg.EnvPath,
		Variables:  domain.CollectVariables(cfg.Environ, cfg.Variables),
		Secrets:    domain.CollectSecrets(cfg.Environ, cfg.Secrets),
	})
	if err != nil {
		return err
	}

	logger.Debug("deployment finished",
		"label", result.Label,
		"bundle_id", result.BundleID,
		"uploaded", result.Uploaded,
	)
	return nil
}

func runRisks(ctx context.Context, cmd *cobra.Command, out io.Writer) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.ValidateRisks(); err != nil {
		return err
	}
	logger := newLogger(cfg, out)

	event, err := ghevent.New(nil).Load()
	if err != nil {
		return err
	}

	svc, err := newService(cfg, logger, out)
	if err != nil {
		return err
	}

	return svc.ReportRisks(ctx, app.RisksInput{
		Event:        event,
		DeploymentID: cfg.DeploymentID,
	})
}

func newLogger(cfg *config.Config, out io.Writer) *slog.Logger {
	level := actions.ParseLevel(cfg.LogLevel)
	if cfg.RunnerDebug {
		level = slog.LevelDebug
	}
	return actions.NewLogger(out, level, cfg.InActions)
}

func newService(cfg *config.Config, logger *slog.Logger, out io.Writer) (*app.Service, error) {
	gh, err := ghclient.New(ghclient.Credentials{
		Token:          cfg.GitHubToken,
		AppID:          cfg.GitHubAppID,
		InstallationID: cfg.GitHubInstallID,
		PrivateKey:     cfg.GitHubAppPrivateKey,
		BaseURL:        cfg.GitHubAPIURL,
	})
	if err != nil {
		return nil, err
	}

	deploySvc := deploysvc.New(deploysvc.Config{
		Host:         cfg.DeployServiceHost,
		WorkspaceID:  cfg.WorkspaceID,
		WorkspaceKey: cfg.WorkspaceKey,
	}, logger)

	return app.NewService(
		project.New(),
		archive.New(),
		deploySvc,
		prewarm.New(logger),
		ghmetadata.New(gh),
		prcomment.New(gh, cfg.CommentAuthor, linediff.New(), logger),
		deploySvc,
		actions.NewOutputs(cfg.OutputPath, out),
		logger,
	), nil
}
