package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// applyFallbacks applies environment variable fallbacks
func (c *Config) applyFallbacks() {
	c.applyServerAPIKeyFallbacks()
	c.applyAIFallbacks()
	c.applyObservabilityDefaults()
}

// applyServerAPIKeyFallbacks applies API key fallbacks from environment variables
func (c *Config) applyServerAPIKeyFallbacks() {
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := os.Getenv("RESUMESCORE_SERVER_APIKEYS"); apiKeysEnv != "" {
			c.Server.APIKeys = splitList(apiKeysEnv)
		}
	}
}

// applyAIFallbacks fills the model list and API key from provider
// conventions when they are not configured explicitly
func (c *Config) applyAIFallbacks() {
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))

	// RESUMESCORE_AI_MODELS arrives as a single comma separated string
	if len(c.AI.Models) == 1 && strings.Contains(c.AI.Models[0], ",") {
		c.AI.Models = splitList(c.AI.Models[0])
	}

	switch c.AI.Provider {
	case ProviderGemini:
		if c.AI.APIKey == "" {
			c.AI.APIKey = os.Getenv("GEMINI_API_KEY")
		}
		if len(c.AI.Models) == 0 {
			c.AI.Models = append([]string(nil), DefaultGeminiModels...)
		}
	case ProviderOpenAI:
		if c.AI.APIKey == "" {
			c.AI.APIKey = firstEnv("GROQ_API_KEY", "OPENAI_API_KEY")
		}
		if len(c.AI.Models) == 0 {
			c.AI.Models = append([]string(nil), DefaultOpenAIModels...)
		}
	}
}

// applyObservabilityDefaults applies default observability configuration values
func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
}

// generateServiceInstanceID generates a unique service instance ID
func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	return ""
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		"RESUMESCORE_AI_APIKEY",
		"RESUMESCORE_AI_PROVIDER",
		"RESUMESCORE_AI_MODELS",
		"RESUMESCORE_AI_BASEURL",
		"RESUMESCORE_SERVER_PORT",
		"RESUMESCORE_SERVER_HOST",
		"RESUMESCORE_APP_LOGLEVEL",
		"RESUMESCORE_SCORING_WEIGHTSCHEME",
		"RESUMESCORE_VAULT_ENABLED",
		"GEMINI_API_KEY",
		"GROQ_API_KEY",
		"OPENAI_API_KEY",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			if strings.Contains(strings.ToLower(envVar), "key") {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] AI Provider: %s", c.AI.Provider)
	log.Printf("[CONFIG] AI Models: %s", strings.Join(c.AI.Models, ", "))
	if c.AI.BaseURL != "" {
		log.Printf("[CONFIG] AI Base URL: %s", c.AI.BaseURL)
	}
	if c.AI.APIKey != "" {
		log.Println("[CONFIG] AI API Key: ***CONFIGURED***")
	} else {
		log.Println("[CONFIG] AI API Key: ***NOT SET***")
	}
	log.Printf("[CONFIG] Weight Scheme: %s", c.Scoring.WeightScheme)
	log.Printf("[CONFIG] Server Host: %s", c.Server.Host)
	log.Printf("[CONFIG] Server Port: %s", c.Server.Port)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] TLS Enabled: %t", c.Server.TLS.Enabled())
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)
	if c.Keywords.TaxonomyFile != "" {
		log.Printf("[CONFIG] Keyword taxonomy: %s (watch: %t)", c.Keywords.TaxonomyFile, c.Keywords.Watch)
	}

	log.Println("[CONFIG] =====================================")
}
