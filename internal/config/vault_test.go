package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"resumescore/internal/errors"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockLogger() *errors.Logger {
	logger, _ := errors.New("debug")
	return logger
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "float64 value", input: float64(42.0), expected: 42},
		{name: "json number", input: json.Number("7"), expected: 7},
		{name: "string value", input: "42", expected: 42},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "test/path")

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

func TestResolveVaultToken(t *testing.T) {
	logger := newMockLogger()

	t.Run("token from config", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "direct-token"}, logger)
		assert.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("token from file", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "vault-token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token  \n"), 0600))

		token, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile}, logger)
		assert.NoError(t, err)
		assert.Equal(t, "file-token", token)
	})

	t.Run("missing token file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{TokenFile: "/nonexistent/token/file"}, logger)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read vault token file")
	})

	t.Run("no token provided", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{}, logger)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "vault token is required")
	})
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	config := &Config{Vault: VaultConfig{Enabled: false}}
	config.AI.APIKey = "unchanged"

	assert.NoError(t, ApplyVaultSecrets(config, newMockLogger()))
	assert.Equal(t, "unchanged", config.AI.APIKey)
}

func TestVaultClientExtractSecretData(t *testing.T) {
	vc := &VaultClient{logger: newMockLogger()}

	data, err := vc.extractSecretData(&api.Secret{Data: map[string]any{
		"data": map[string]any{"key1": "value1"},
	}}, "secret/test")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"key1": "value1"}, data)

	_, err = vc.extractSecretData(&api.Secret{Data: map[string]any{"data": "not-a-map"}}, "secret/test")
	assert.Error(t, err)
}

// fakeVault serves the health endpoint and a fixed set of KVv2 secrets
func fakeVault(t *testing.T, secrets map[string]map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v1/sys/health" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"initialized":  true,
				"sealed":       false,
				"standby":      false,
				"version":      "1.15.0",
				"cluster_name": "test",
			})
			return
		}
		data, ok := secrets[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"data":     data,
				"metadata": map[string]any{"version": 3},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestApplyVaultSecrets(t *testing.T) {
	srv := fakeVault(t, map[string]map[string]any{
		"/v1/secret/data/resumescore/server": {"keys": "alpha, beta"},
		"/v1/secret/data/resumescore/ai":     {"api_key": "vault-ai-key"},
		"/v1/secret/data/resumescore/unidoc": {"license_key": "metered"},
	})

	config := &Config{
		Vault: VaultConfig{
			Enabled: true,
			Address: srv.URL,
			Token:   "root",
			Secrets: VaultSecrets{
				APIKeys:   "secret/data/resumescore/server",
				AIKey:     "secret/data/resumescore/ai",
				UnidocKey: "secret/data/resumescore/unidoc",
			},
		},
	}
	config.AI.APIKey = "from-env"

	require.NoError(t, ApplyVaultSecrets(config, newMockLogger()))
	assert.Equal(t, []string{"alpha", "beta"}, config.Server.APIKeys)
	assert.Equal(t, "vault-ai-key", config.AI.APIKey)
	assert.Equal(t, "metered", config.Extract.UnidocLicenseKey)
}

func TestApplyVaultSecretsMissingSecret(t *testing.T) {
	srv := fakeVault(t, nil)

	config := &Config{
		Vault: VaultConfig{
			Enabled: true,
			Address: srv.URL,
			Token:   "root",
			Secrets: VaultSecrets{AIKey: "secret/data/missing"},
		},
	}

	err := ApplyVaultSecrets(config, newMockLogger())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "AI API key")
}
