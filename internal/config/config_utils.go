package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// applyFallbacks applies environment variable fallbacks
func (c *Config) applyFallbacks() {
	// Note: AI API key fallbacks are handled in Get...Config() methods to avoid duplication

	c.applyPlatformTokenFallbacks()
	c.applyObservabilityDefaults()
}

// applyPlatformTokenFallbacks picks up the conventional token variables
// when the prefixed ones are unset
func (c *Config) applyPlatformTokenFallbacks() {
	if c.AI.APIKey == "" {
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			c.AI.APIKey = strings.TrimSpace(key)
		}
	}
	if c.Platforms.GitHub.Token == "" {
		if token := os.Getenv("GITHUB_TOKEN"); token != "" {
			c.Platforms.GitHub.Token = strings.TrimSpace(token)
		}
	}
	if c.Platforms.Twitter.BearerToken == "" {
		if token := os.Getenv("TWITTER_BEARER_TOKEN"); token != "" {
			c.Platforms.Twitter.BearerToken = strings.TrimSpace(token)
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
	// Try to get hostname, fallback to default
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

func isSensitiveEnv(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "key") || strings.Contains(lower, "token")
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
		"CANDIDATELENS_AI_APIKEY",
		"CANDIDATELENS_AI_PROVIDER",
		"CANDIDATELENS_AI_MODEL",
		"CANDIDATELENS_ANALYSIS_MODE",
		"CANDIDATELENS_SCORING_PRESET",
		"CANDIDATELENS_SERVER_PORT",
		"CANDIDATELENS_SERVER_HOST",
		"CANDIDATELENS_APP_LOGLEVEL",
		"CANDIDATELENS_VAULT_ENABLED",
		"CANDIDATELENS_PLATFORMS_GITHUB_TOKEN",
		"CANDIDATELENS_PLATFORMS_TWITTER_BEARERTOKEN",
		"GEMINI_API_KEY",
		"GITHUB_TOKEN",
		"TWITTER_BEARER_TOKEN",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			if isSensitiveEnv(envVar) {
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
	log.Printf("[CONFIG] AI Model: %s", c.AI.Model)
	if c.AI.APIKey != "" {
		log.Println("[CONFIG] AI API Key: ***CONFIGURED***")
	} else {
		log.Println("[CONFIG] AI API Key: ***NOT SET***")
	}
	log.Printf("[CONFIG] Server Host: %s", c.Server.Host)
	log.Printf("[CONFIG] Server Port: %s", c.Server.Port)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] Analysis Mode: %s (subtask %s, run %s)", c.Analysis.Mode, c.Analysis.SubtaskTimeout, c.Analysis.RunTimeout)
	log.Printf("[CONFIG] Scoring Preset: %s, missing slots: %s", c.Scoring.Preset, c.Scoring.MissingSlotPolicy)
	log.Printf("[CONFIG] GitHub Token: %s", configured(c.Platforms.GitHub.Token))
	log.Printf("[CONFIG] Twitter Bearer Token: %s", configured(c.Platforms.Twitter.BearerToken))
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)

	log.Println("[CONFIG] === Operation-Specific AI Configurations ===")
	log.Printf("[CONFIG] Match - Provider: %s, Model: %s", c.AI.Match.Provider, c.AI.Match.Model)
	log.Printf("[CONFIG] Research - Provider: %s, Model: %s", c.AI.Research.Provider, c.AI.Research.Model)
	log.Printf("[CONFIG] Report - Provider: %s, Model: %s", c.AI.Report.Provider, c.AI.Report.Model)

	log.Println("[CONFIG] =====================================")
}

func configured(secret string) string {
	if secret != "" {
		return "***CONFIGURED***"
	}
	return "***NOT SET***"
}
