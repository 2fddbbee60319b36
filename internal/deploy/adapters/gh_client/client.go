// Package ghclient builds an authenticated GitHub REST client.
package ghclient

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v68/github"

	"github.com/nathantilsley/plt-deploy-action/internal/deploy/domain"
)

// Credentials selects how the client authenticates. GitHub App credentials
// take precedence over a token when both are present.
type Credentials struct {
	Token          string
	AppID          int64
	InstallationID int64
	PrivateKey     string
	// BaseURL is the REST API root, e.g. $GITHUB_API_URL on GitHub Enterprise.
	BaseURL string
}

// UsesApp reports whether GitHub App authentication is configured.
func (c Credentials) UsesApp() bool {
	return c.AppID != 0 || c.InstallationID != 0 || c.PrivateKey != ""
}

// New creates a GitHub client for the given credentials.
func New(creds Credentials) (*github.Client, error) {
	var client *github.Client

	switch {
	case creds.UsesApp():
		if creds.AppID == 0 || creds.InstallationID == 0 || creds.PrivateKey == "" {
			return nil, domain.NewConfigError(
				"github_app_id, github_app_installation_id and github_app_private_key must be set together")
		}
		tr, err := ghinstallation.New(http.DefaultTransport, creds.AppID, creds.InstallationID, []byte(creds.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("creating GitHub App transport: %w", err)
		}
		if creds.BaseURL != "" {
			tr.BaseURL = strings.TrimRight(creds.BaseURL, "/")
		}
		client = github.NewClient(&http.Client{Transport: tr})
	case creds.Token != "":
		client = github.NewClient(nil).WithAuthToken(creds.Token)
	default:
		return nil, domain.NewConfigError("github_token is required")
	}

	if creds.BaseURL != "" {
		base, err := url.Parse(strings.TrimRight(creds.BaseURL, "/") + "/")
		if err != nil {
			return nil, domain.NewConfigError("invalid GitHub API url %q: %v", creds.BaseURL, err)
		}
		client.BaseURL = base
	}
	return client, nil
}
