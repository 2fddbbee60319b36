// Package project inspects the application directory before it is archived.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/nathantilsley/plt-deploy-action/internal/deploy/adapters/envfile"
	"github.com/nathantilsley/plt-deploy-action/internal/deploy/domain"
)

// ConfigExtensions are the file extensions a Platformatic config may use.
var ConfigExtensions = []string{"yml", "yaml", "json", "json5", "tml", "toml"}

// DependencyWarning is reported when platformatic is a runtime dependency.
const DependencyWarning = "Move platformatic dependency to devDependencies to speed up deployment"

// Adapter implements ports.ProjectPort on the local filesystem.
type Adapter struct{}

// New creates a new project adapter.
func New() *Adapter {
	return &Adapter{}
}

// ResolveConfigPath validates an explicit config path, or discovers a
// platformatic.<type>.<ext> file at the top of projectDir.
func (a *Adapter) ResolveConfigPath(projectDir, configPath string) (string, error) {
	if configPath != "" {
		info, err := os.Stat(filepath.Join(projectDir, configPath))
		if err != nil || info.IsDir() {
			return "", domain.NewConfigError("there is no Platformatic config file at %s", configPath)
		}
		return configPath, nil
	}

	found, err := FindConfigFile(projectDir)
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", domain.NewConfigError("could not find Platformatic config file, please specify it in the action input")
	}
	return found, nil
}

// FindConfigFile returns the first (by name) config file in dir, or "".
func FindConfigFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", domain.NewConfigError("project directory %s does not exist", dir)
		}
		return "", fmt.Errorf("reading project directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if isConfigFileName(entry.Name()) {
			return entry.Name(), nil
		}
	}
	return "", nil
}

func isConfigFileName(name string) bool {
	parts := strings.Split(name, ".")
	if len(parts) != 3 || parts[0] != "platformatic" {
		return false
	}
	return slices.Contains(domain.AppTypes, domain.AppType(parts[1])) &&
		slices.Contains(ConfigExtensions, parts[2])
}

// ReadEnvFile parses the dotenv file at path. A missing file is empty.
func (a *Adapter) ReadEnvFile(path string) (domain.EnvVarSet, error) {
	return envfile.Read(path)
}

// EncodeEnvFile renders vars as a dotenv file.
func (a *Adapter) EncodeEnvFile(vars domain.EnvVarSet) []byte {
	return []byte(envfile.Serialize(vars))
}

// Warnings returns advisory messages about the project layout.
func (a *Adapter) Warnings(projectDir string) []string {
	//nolint:gosec // G304: package.json of the project being deployed
	data, err := os.ReadFile(filepath.Join(projectDir, "package.json"))
	if err != nil || !gjson.ValidBytes(data) {
		return nil
	}

	var warnings []string
	if gjson.GetBytes(data, "dependencies.platformatic").Exists() {
		warnings = append(warnings, DependencyWarning)
	}
	return warnings
}
