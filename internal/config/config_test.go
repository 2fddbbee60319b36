package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathantilsley/plt-deploy-action/internal/deploy/domain"
)

// clearEnv unsets every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	var keys []string
	for _, in := range inputs {
		keys = append(keys, "INPUT_"+strings.ToUpper(in.key))
	}
	for _, key := range runnerEnv {
		keys = append(keys, strings.ToUpper(key))
	}
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := load(nil, "")
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.ProjectPath)
	assert.Equal(t, ".env", cfg.EnvPath)
	assert.Equal(t, domain.DefaultCommentAuthor, cfg.CommentAuthor)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Variables)
	assert.False(t, cfg.InActions)
	assert.False(t, cfg.RunnerDebug)
}

func TestLoad_FromRunnerEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("INPUT_PLATFORMATIC_WORKSPACE_ID", " ws-1 ")
	t.Setenv("INPUT_PLATFORMATIC_WORKSPACE_KEY", "key-1")
	t.Setenv("INPUT_PLATFORMATIC_ENV_PATH", "config/.env.prod")
	t.Setenv("INPUT_VARIABLES", "PLT_A, FOO ,, BAR")
	t.Setenv("INPUT_SECRETS", "DB_PASSWORD")
	t.Setenv("INPUT_GITHUB_TOKEN", "ghs_x")
	t.Setenv("INPUT_GITHUB_APP_ID", "42")
	t.Setenv("INPUT_GITHUB_APP_INSTALLATION_ID", "7")
	t.Setenv("GITHUB_WORKSPACE", "/home/runner/work/app")
	t.Setenv("GITHUB_OUTPUT", "/tmp/out")
	t.Setenv("GITHUB_ACTIONS", "true")
	t.Setenv("GITHUB_API_URL", "https://ghe.example.com/api/v3")
	t.Setenv("RUNNER_DEBUG", "1")
	t.Setenv("DEPLOY_SERVICE_HOST", "http://localhost:3042")

	cfg, err := load(nil, "")
	require.NoError(t, err)

	assert.Equal(t, "ws-1", cfg.WorkspaceID)
	assert.Equal(t, "key-1", cfg.WorkspaceKey)
	assert.Equal(t, "/home/runner/work/app", cfg.ProjectPath)
	assert.Equal(t, "config/.env.prod", cfg.EnvPath)
	assert.Equal(t, []string{"PLT_A", "FOO", "BAR"}, cfg.Variables)
	assert.Equal(t, []string{"DB_PASSWORD"}, cfg.Secrets)
	assert.Equal(t, "ghs_x", cfg.GitHubToken)
	assert.Equal(t, int64(42), cfg.GitHubAppID)
	assert.Equal(t, int64(7), cfg.GitHubInstallID)
	assert.Equal(t, "/tmp/out", cfg.OutputPath)
	assert.Equal(t, "https://ghe.example.com/api/v3", cfg.GitHubAPIURL)
	assert.Equal(t, "http://localhost:3042", cfg.DeployServiceHost)
	assert.True(t, cfg.InActions)
	assert.True(t, cfg.RunnerDebug)
	assert.Contains(t, cfg.Environ, "INPUT_GITHUB_TOKEN=ghs_x")
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("INPUT_PLATFORMATIC_WORKSPACE_ID", "from-env")
	t.Setenv("INPUT_PLATFORMATIC_PROJECT_PATH", "env-dir")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{"--workspace-id", "from-flag"}))

	cfg, err := load(flags, "")
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.WorkspaceID)
	assert.Equal(t, "env-dir", cfg.ProjectPath, "unset flag falls back to the environment")
}

func TestLoad_LocalEnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("INPUT_PLATFORMATIC_WORKSPACE_KEY", "real-key")

	path := filepath.Join(t.TempDir(), ".env.action")
	content := "INPUT_PLATFORMATIC_WORKSPACE_ID=local-id\n" +
		"INPUT_PLATFORMATIC_WORKSPACE_KEY=local-key\n" +
		"DEPLOY_SERVICE_HOST=http://localhost:3042\n" +
		"PLT_LOCAL=1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := load(nil, path)
	require.NoError(t, err)

	assert.Equal(t, "local-id", cfg.WorkspaceID)
	assert.Equal(t, "real-key", cfg.WorkspaceKey, "process environment wins over the local file")
	assert.Equal(t, "http://localhost:3042", cfg.DeployServiceHost)
	assert.Contains(t, cfg.Environ, "PLT_LOCAL=1")

	_, set := os.LookupEnv("PLT_LOCAL")
	assert.False(t, set, "the local file must not leak into the process environment")
}

func TestLoad_MissingLocalEnvFile(t *testing.T) {
	clearEnv(t)

	_, err := load(nil, filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
}

func TestLoad_InvalidAppID(t *testing.T) {
	clearEnv(t)
	t.Setenv("INPUT_GITHUB_APP_ID", "abc")

	_, err := load(nil, "")
	require.Error(t, err)
	assert.True(t, domain.IsConfigError(err))
	assert.Contains(t, err.Error(), "github_app_id")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			WorkspaceID:  "ws",
			WorkspaceKey: "key",
			GitHubToken:  "token",
			EnvPath:      ".env",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing workspace id",
			mutate:  func(c *Config) { c.WorkspaceID = "" },
			wantErr: "platformatic_workspace_id action param is required",
		},
		{
			name:    "missing workspace key",
			mutate:  func(c *Config) { c.WorkspaceKey = "" },
			wantErr: "platformatic_workspace_key action param is required",
		},
		{
			name:    "missing github credentials",
			mutate:  func(c *Config) { c.GitHubToken = "" },
			wantErr: "github_token action param is required",
		},
		{
			name: "app credentials replace the token",
			mutate: func(c *Config) {
				c.GitHubToken = ""
				c.GitHubAppID = 1
			},
		},
		{
			name:    "absolute env path",
			mutate:  func(c *Config) { c.EnvPath = "/etc/passwd" },
			wantErr: "platformatic_env_path must be a path inside the project",
		},
		{
			name:    "env path escaping the project",
			mutate:  func(c *Config) { c.EnvPath = "../.env" },
			wantErr: "platformatic_env_path must be a path inside the project",
		},
		{
			name:    "config path escaping the project",
			mutate:  func(c *Config) { c.ConfigPath = "../platformatic.json" },
			wantErr: "platformatic_config_path must be a path inside the project",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, domain.IsConfigError(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ValidateRisks(t *testing.T) {
	cfg := &Config{WorkspaceID: "ws", WorkspaceKey: "key", GitHubToken: "token", EnvPath: ".env"}

	err := cfg.ValidateRisks()
	require.Error(t, err)
	assert.Equal(t, "platformatic_deployment_id action param is required", err.Error())

	cfg.DeploymentID = "dep-1"
	require.NoError(t, cfg.ValidateRisks())
}
