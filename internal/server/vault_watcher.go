package server

import (
	"fmt"
	"sync"
	"time"

	"resumescore/internal/config"
	"resumescore/internal/errors"
)

// apiKeysField is the secret field holding comma-separated keys
const apiKeysField = "keys"

// VaultClientInterface defines the interface for Vault operations
type VaultClientInterface interface {
	GetSecretV2(path string) (*config.VaultSecret, error)
	GetStringSliceSecret(path, key string) ([]string, error)
}

// APIKeysCallback receives the rotated key set
type APIKeysCallback func(keys []string)

// APIKeyWatcher polls a KVv2 secret and hands the server a new API key set
// whenever the secret version increases
type APIKeyWatcher struct {
	mu sync.RWMutex

	client       VaultClientInterface
	secretPath   string
	pollInterval time.Duration
	onRotate     APIKeysCallback
	logger       *errors.Logger

	stopChan    chan struct{}
	running     bool
	lastVersion int64
	lastReload  time.Time
	lastError   string
}

// NewAPIKeyWatcher creates a new APIKeyWatcher
func NewAPIKeyWatcher(client VaultClientInterface, secretPath string, pollInterval time.Duration, onRotate APIKeysCallback, logger *errors.Logger) *APIKeyWatcher {
	return &APIKeyWatcher{
		client:       client,
		secretPath:   secretPath,
		pollInterval: pollInterval,
		onRotate:     onRotate,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start records the current secret version and begins polling
func (kw *APIKeyWatcher) Start() error {
	kw.mu.Lock()
	defer kw.mu.Unlock()
	if kw.running {
		return fmt.Errorf("API key watcher is already running")
	}
	if kw.pollInterval <= 0 {
		return fmt.Errorf("API key watcher needs a positive poll interval")
	}

	// Keys loaded at startup already reflect the current version
	if secret, err := kw.client.GetSecretV2(kw.secretPath); err == nil && secret != nil {
		kw.lastVersion = secret.Version
	}

	kw.running = true
	go kw.pollLoop()
	if kw.logger != nil {
		kw.logger.Info("API key watcher started",
			"secret_path", kw.secretPath,
			"poll_interval", kw.pollInterval,
			"version", kw.lastVersion)
	}
	return nil
}

// Stop stops the watcher
func (kw *APIKeyWatcher) Stop() error {
	kw.mu.Lock()
	defer kw.mu.Unlock()
	if !kw.running {
		return nil
	}
	close(kw.stopChan)
	kw.running = false
	if kw.logger != nil {
		kw.logger.Info("API key watcher stopped")
	}
	return nil
}

func (kw *APIKeyWatcher) pollLoop() {
	ticker := time.NewTicker(kw.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			kw.poll()
		case <-kw.stopChan:
			return
		}
	}
}

// poll runs one check and applies a rotation when the version moved
func (kw *APIKeyWatcher) poll() {
	changed, err := kw.checkForUpdates()
	if err != nil {
		kw.recordError(err, "Failed to check Vault for API key updates")
		return
	}
	if !changed {
		return
	}

	keys, err := kw.fetchKeys()
	if err != nil {
		kw.recordError(err, "Failed to fetch rotated API keys from Vault")
		return
	}
	if len(keys) == 0 {
		// An empty set would switch authentication off
		if kw.logger != nil {
			kw.logger.Warn("Rotated API key secret is empty, keeping current keys",
				"secret_path", kw.secretPath)
		}
		return
	}

	kw.onRotate(keys)

	kw.mu.Lock()
	kw.lastReload = time.Now()
	kw.lastError = ""
	kw.mu.Unlock()
	if kw.logger != nil {
		kw.logger.Info("API keys rotated from Vault", "count", len(keys))
	}
}

// checkForUpdates checks if the Vault secret version has changed
func (kw *APIKeyWatcher) checkForUpdates() (bool, error) {
	secret, err := kw.client.GetSecretV2(kw.secretPath)
	if err != nil {
		return false, fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == nil {
		return false, fmt.Errorf("secret %s not found", kw.secretPath)
	}

	kw.mu.Lock()
	defer kw.mu.Unlock()
	if secret.Version > kw.lastVersion {
		kw.lastVersion = secret.Version
		return true, nil
	}
	return false, nil
}

// fetchKeys reads the key list, dropping blanks
func (kw *APIKeyWatcher) fetchKeys() ([]string, error) {
	raw, err := kw.client.GetStringSliceSecret(kw.secretPath, apiKeysField)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch API keys from vault: %w", err)
	}
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (kw *APIKeyWatcher) recordError(err error, message string) {
	kw.mu.Lock()
	kw.lastError = err.Error()
	kw.mu.Unlock()
	if kw.logger != nil {
		kw.logger.LogError(err, message, "secret_path", kw.secretPath)
	}
}

// Status returns the current status of the watcher for health reporting
func (kw *APIKeyWatcher) Status() map[string]any {
	kw.mu.RLock()
	defer kw.mu.RUnlock()
	status := map[string]any{
		"running":       kw.running,
		"poll_interval": kw.pollInterval.String(),
		"secret_path":   kw.secretPath,
		"last_version":  kw.lastVersion,
	}
	if !kw.lastReload.IsZero() {
		status["last_reload"] = kw.lastReload
	}
	if kw.lastError != "" {
		status["last_error"] = kw.lastError
	}
	return status
}
