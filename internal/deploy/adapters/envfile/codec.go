// Package envfile reads and writes dotenv-style KEY=VALUE files.
//
// The format is deliberately minimal: one entry per line, no quoting and no
// escaping. Parse splits each line on the first '=' so values may contain '='.
package envfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/nathantilsley/plt-deploy-action/internal/deploy/domain"
)

// Parse decodes dotenv content. Blank lines are skipped and a missing or
// present trailing newline makes no difference. Keys are normalized.
func Parse(content string) domain.EnvVarSet {
	vars := make(domain.EnvVarSet)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, _ := strings.Cut(line, "=")
		key = domain.NormalizeKey(key)
		if key == "" {
			continue
		}
		vars[key] = value
	}
	return vars
}

// Serialize encodes vars as newline-terminated KEY=VALUE lines sorted by key.
func Serialize(vars domain.EnvVarSet) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(vars[k])
		sb.WriteString("\n")
	}
	return sb.String()
}

// Read loads and parses the env file at path. A missing file yields an empty
// set rather than an error.
func Read(path string) (domain.EnvVarSet, error) {
	//nolint:gosec // G304: path comes from the action inputs
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.EnvVarSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading env file: %w", err)
	}
	return Parse(string(data)), nil
}
