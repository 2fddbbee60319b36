package ghclient

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathantilsley/plt-deploy-action/internal/deploy/domain"
)

func testPrivateKey(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}))
}

func TestNew(t *testing.T) {
	key := testPrivateKey(t)

	tests := []struct {
		name        string
		creds       Credentials
		wantErr     bool
		wantConfig  bool
		wantBaseURL string
	}{
		{
			name:        "token",
			creds:       Credentials{Token: "ghs_token"},
			wantBaseURL: "https://api.github.com/",
		},
		{
			name:        "token with enterprise api url",
			creds:       Credentials{Token: "ghs_token", BaseURL: "https://ghe.example.com/api/v3"},
			wantBaseURL: "https://ghe.example.com/api/v3/",
		},
		{
			name:        "github app",
			creds:       Credentials{AppID: 1, InstallationID: 2, PrivateKey: key},
			wantBaseURL: "https://api.github.com/",
		},
		{
			name:       "partial github app credentials",
			creds:      Credentials{AppID: 1, Token: "ghs_token"},
			wantErr:    true,
			wantConfig: true,
		},
		{
			name:    "malformed private key",
			creds:   Credentials{AppID: 1, InstallationID: 2, PrivateKey: "not a key"},
			wantErr: true,
		},
		{
			name:       "no credentials",
			creds:      Credentials{},
			wantErr:    true,
			wantConfig: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.creds)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantConfig, domain.IsConfigError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBaseURL, client.BaseURL.String())
		})
	}
}
