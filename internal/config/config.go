// Package config loads the action inputs.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/nathantilsley/plt-deploy-action/internal/deploy/domain"
)

// LocalEnvFile holds inputs for running the action outside a runner.
const LocalEnvFile = ".env.action"

// Input names, as declared in action.yml. The runner exposes each one as
// INPUT_<NAME>.
const (
	KeyWorkspaceID       = "platformatic_workspace_id"
	KeyWorkspaceKey      = "platformatic_workspace_key"
	KeyProjectPath       = "platformatic_project_path"
	KeyConfigPath        = "platformatic_config_path"
	KeyEnvPath           = "platformatic_env_path"
	KeyDeploymentID      = "platformatic_deployment_id"
	KeyVariables         = "variables"
	KeySecrets           = "secrets"
	KeyGitHubToken       = "github_token"
	KeyGitHubAppID       = "github_app_id"
	KeyGitHubInstallID   = "github_app_installation_id"
	KeyGitHubPrivateKey  = "github_app_private_key"
	KeyCommentAuthor     = "comment_author"
	KeyLogLevel          = "log_level"
	keyDeployServiceHost = "deploy_service_host"
	keyGitHubWorkspace   = "github_workspace"
	keyGitHubOutput      = "github_output"
	keyGitHubActions     = "github_actions"
	keyGitHubAPIURL      = "github_api_url"
	keyRunnerDebug       = "runner_debug"
)

type input struct {
	key   string
	flag  string
	usage string
}

var inputs = []input{
	{KeyWorkspaceID, "workspace-id", "Platformatic workspace id"},
	{KeyWorkspaceKey, "workspace-key", "Platformatic workspace API key"},
	{KeyProjectPath, "project-path", "project directory (defaults to $GITHUB_WORKSPACE)"},
	{KeyConfigPath, "config-path", "Platformatic config file, relative to the project"},
	{KeyEnvPath, "env-path", "dotenv file, relative to the project"},
	{KeyDeploymentID, "deployment-id", "deployment to compute risks for"},
	{KeyVariables, "variables", "comma separated variable names to forward"},
	{KeySecrets, "secrets", "comma separated secret names to forward"},
	{KeyGitHubToken, "github-token", "GitHub token"},
	{KeyGitHubAppID, "github-app-id", "GitHub App id"},
	{KeyGitHubInstallID, "github-app-installation-id", "GitHub App installation id"},
	{KeyGitHubPrivateKey, "github-app-private-key", "GitHub App private key (PEM)"},
	{KeyCommentAuthor, "comment-author", "login whose status comments are updated"},
	{KeyLogLevel, "log-level", "debug, info, warn or error"},
}

// runner variables are read without the INPUT_ prefix
var runnerEnv = []string{
	keyDeployServiceHost,
	keyGitHubWorkspace,
	keyGitHubOutput,
	keyGitHubActions,
	keyGitHubAPIURL,
	keyRunnerDebug,
}

// Config is the resolved configuration of one run.
type Config struct {
	WorkspaceID   string
	WorkspaceKey  string
	ProjectPath   string
	ConfigPath    string
	EnvPath       string
	DeploymentID  string
	Variables     []string
	Secrets       []string
	CommentAuthor string
	LogLevel      string

	GitHubToken         string
	GitHubAppID         int64
	GitHubInstallID     int64
	GitHubAppPrivateKey string
	GitHubAPIURL        string

	DeployServiceHost string
	OutputPath        string
	InActions         bool
	RunnerDebug       bool

	// Environ is the process environment captured at load time, with the
	// local env file entries first so real variables win.
	Environ []string
}

// RegisterFlags declares a flag for every input.
func RegisterFlags(flags *pflag.FlagSet) {
	for _, in := range inputs {
		flags.String(in.flag, "", in.usage)
	}
}

// Load resolves the configuration from flags, INPUT_* variables and the
// optional local env file, in that order of precedence.
func Load(flags *pflag.FlagSet) (*Config, error) {
	return load(flags, LocalEnvFile)
}

func load(flags *pflag.FlagSet, localEnvFile string) (*Config, error) {
	v := viper.New()
	v.SetDefault(KeyEnvPath, ".env")
	v.SetDefault(KeyCommentAuthor, domain.DefaultCommentAuthor)
	v.SetDefault(KeyLogLevel, "info")

	local, err := readLocalEnv(localEnvFile)
	if err != nil {
		return nil, err
	}
	for k, val := range local {
		v.SetDefault(configKey(k), val)
	}

	v.SetEnvPrefix("INPUT")
	v.AutomaticEnv()
	for _, in := range inputs {
		//nolint:errcheck // BindEnv only fails without a key
		_ = v.BindEnv(in.key)
		if flags == nil {
			continue
		}
		if f := flags.Lookup(in.flag); f != nil {
			if err := v.BindPFlag(in.key, f); err != nil {
				return nil, fmt.Errorf("binding flag %s: %w", in.flag, err)
			}
		}
	}
	for _, key := range runnerEnv {
		//nolint:errcheck // BindEnv only fails without a key
		_ = v.BindEnv(key, strings.ToUpper(key))
	}

	cfg := &Config{
		WorkspaceID:         strings.TrimSpace(v.GetString(KeyWorkspaceID)),
		WorkspaceKey:        strings.TrimSpace(v.GetString(KeyWorkspaceKey)),
		ProjectPath:         v.GetString(KeyProjectPath),
		ConfigPath:          v.GetString(KeyConfigPath),
		EnvPath:             v.GetString(KeyEnvPath),
		DeploymentID:        strings.TrimSpace(v.GetString(KeyDeploymentID)),
		Variables:           splitList(v.GetString(KeyVariables)),
		Secrets:             splitList(v.GetString(KeySecrets)),
		CommentAuthor:       v.GetString(KeyCommentAuthor),
		LogLevel:            v.GetString(KeyLogLevel),
		GitHubToken:         v.GetString(KeyGitHubToken),
		GitHubAppPrivateKey: v.GetString(KeyGitHubPrivateKey),
		GitHubAPIURL:        v.GetString(keyGitHubAPIURL),
		DeployServiceHost:   v.GetString(keyDeployServiceHost),
		OutputPath:          v.GetString(keyGitHubOutput),
		InActions:           v.GetString(keyGitHubActions) == "true",
		RunnerDebug:         v.GetString(keyRunnerDebug) == "1",
		Environ:             append(localEnviron(local), os.Environ()...),
	}

	if cfg.ProjectPath == "" {
		cfg.ProjectPath = v.GetString(keyGitHubWorkspace)
	}
	if cfg.ProjectPath == "" {
		cfg.ProjectPath = "."
	}

	if cfg.GitHubAppID, err = parseID(KeyGitHubAppID, v.GetString(KeyGitHubAppID)); err != nil {
		return nil, err
	}
	if cfg.GitHubInstallID, err = parseID(KeyGitHubInstallID, v.GetString(KeyGitHubInstallID)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the inputs shared by every command.
func (c *Config) Validate() error {
	if c.WorkspaceID == "" {
		return domain.NewConfigError("%s action param is required", KeyWorkspaceID)
	}
	if c.WorkspaceKey == "" {
		return domain.NewConfigError("%s action param is required", KeyWorkspaceKey)
	}
	if c.GitHubToken == "" && c.GitHubAppID == 0 {
		return domain.NewConfigError("%s action param is required", KeyGitHubToken)
	}
	if !filepath.IsLocal(c.EnvPath) {
		return domain.NewConfigError("%s must be a path inside the project, got %q", KeyEnvPath, c.EnvPath)
	}
	if c.ConfigPath != "" && !filepath.IsLocal(c.ConfigPath) {
		return domain.NewConfigError("%s must be a path inside the project, got %q", KeyConfigPath, c.ConfigPath)
	}
	return nil
}

// ValidateRisks checks the inputs of the risks command.
func (c *Config) ValidateRisks() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DeploymentID == "" {
		return domain.NewConfigError("%s action param is required", KeyDeploymentID)
	}
	return nil
}

func readLocalEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	vars, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return vars, nil
}

// configKey maps an environment variable name to its config key.
func configKey(env string) string {
	return strings.ToLower(strings.TrimPrefix(env, "INPUT_"))
}

func localEnviron(local map[string]string) []string {
	out := make([]string, 0, len(local))
	for k, val := range local {
		out = append(out, k+"="+val)
	}
	return out
}

func parseID(key, raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, domain.NewConfigError("%s must be a positive integer, got %q", key, raw)
	}
	return id, nil
}

// splitList splits a comma separated input, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
