package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI Configuration - Global defaults
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.maxRetries", 3)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.useSystemPrompts", true)

	// AI Configuration - Resume match defaults
	v.SetDefault("ai.match.provider", "gemini")
	v.SetDefault("ai.match.model", "")
	v.SetDefault("ai.match.timeout", 45*time.Second)
	v.SetDefault("ai.match.apiKey", "")
	v.SetDefault("ai.match.maxRetries", 2)
	v.SetDefault("ai.match.temperature", 0.1) // scores should be repeatable
	v.SetDefault("ai.match.useSystemPrompts", true)

	// AI Configuration - Research defaults (post classification, project and company review)
	v.SetDefault("ai.research.provider", "gemini")
	v.SetDefault("ai.research.model", "")
	v.SetDefault("ai.research.timeout", 30*time.Second)
	v.SetDefault("ai.research.apiKey", "")
	v.SetDefault("ai.research.maxRetries", 2)
	v.SetDefault("ai.research.temperature", 0.2)
	v.SetDefault("ai.research.useSystemPrompts", true)

	// AI Configuration - Final report defaults
	v.SetDefault("ai.report.provider", "gemini")
	v.SetDefault("ai.report.model", "")
	v.SetDefault("ai.report.timeout", 90*time.Second)
	v.SetDefault("ai.report.apiKey", "")
	v.SetDefault("ai.report.maxRetries", 1)
	v.SetDefault("ai.report.temperature", 0.4)
	v.SetDefault("ai.report.useSystemPrompts", true)

	// Circuit Breaker Configuration defaults for all operations
	for _, op := range []string{"match", "research", "report"} {
		prefix := "ai." + op + ".circuitBreaker."
		v.SetDefault(prefix+"enabled", true)
		v.SetDefault(prefix+"maxRequests", 3)
		v.SetDefault(prefix+"interval", 60*time.Second)
		v.SetDefault(prefix+"timeout", 60*time.Second)
		v.SetDefault(prefix+"minRequests", 3)
		v.SetDefault(prefix+"failureThreshold", 0.6)
	}

	// Scoring Configuration
	v.SetDefault("scoring.preset", "default")
	v.SetDefault("scoring.weights", map[string]float64{
		"resume_jd_match":   0.25,
		"github_analysis":   0.20,
		"linkedin_analysis": 0.10,
		"twitter_analysis":  0.05,
		"technical_blogs":   0.15,
		"project_quality":   0.15,
		"work_experience":   0.10,
	})
	v.SetDefault("scoring.presets", map[string]map[string]float64{
		"senior_engineer": {
			"resume_jd_match":   0.25,
			"github_analysis":   0.15,
			"linkedin_analysis": 0.10,
			"twitter_analysis":  0,
			"technical_blogs":   0.10,
			"project_quality":   0.15,
			"work_experience":   0.25,
		},
		"open_source": {
			"resume_jd_match":   0.20,
			"github_analysis":   0.35,
			"linkedin_analysis": 0.05,
			"twitter_analysis":  0.05,
			"technical_blogs":   0.10,
			"project_quality":   0.20,
			"work_experience":   0.05,
		},
		"developer_advocate": {
			"resume_jd_match":   0.20,
			"github_analysis":   0.10,
			"linkedin_analysis": 0.15,
			"twitter_analysis":  0.15,
			"technical_blogs":   0.25,
			"project_quality":   0.05,
			"work_experience":   0.10,
		},
	})
	v.SetDefault("scoring.thresholds.excellent", 85.0)
	v.SetDefault("scoring.thresholds.good", 70.0)
	v.SetDefault("scoring.thresholds.average", 55.0)
	v.SetDefault("scoring.missingSlotPolicy", "exclude")
	v.SetDefault("scoring.projectPartialCredit", 25.0)
	v.SetDefault("scoring.companyLookupPenalty", 20.0)
	v.SetDefault("scoring.githubBlend.quality", 0.4)
	v.SetDefault("scoring.githubBlend.complexity", 0.3)
	v.SetDefault("scoring.githubBlend.domain", 0.3)

	// Analysis Configuration
	v.SetDefault("analysis.mode", "sequential")
	v.SetDefault("analysis.subtaskTimeout", 60*time.Second)
	v.SetDefault("analysis.aggregationTimeout", 120*time.Second)
	v.SetDefault("analysis.runTimeout", 300*time.Second)
	v.SetDefault("analysis.maxParallel", 4)
	v.SetDefault("analysis.retentionTTL", time.Hour)
	v.SetDefault("analysis.janitorInterval", time.Minute)

	// Platform Configuration
	v.SetDefault("platforms.github.enabled", true)
	v.SetDefault("platforms.github.baseURL", "https://api.github.com")
	v.SetDefault("platforms.github.token", "")
	v.SetDefault("platforms.github.maxRepos", 30)
	v.SetDefault("platforms.github.reviewRepos", 5)
	v.SetDefault("platforms.twitter.enabled", true)
	v.SetDefault("platforms.twitter.baseURL", "https://api.twitter.com/2")
	v.SetDefault("platforms.twitter.bearerToken", "")
	v.SetDefault("platforms.twitter.maxTweets", 50)
	v.SetDefault("platforms.medium.enabled", true)
	v.SetDefault("platforms.medium.feedURL", "https://medium.com/feed/@%s")
	v.SetDefault("platforms.medium.maxArticles", 10)
	v.SetDefault("platforms.linkedin.enabled", true)
	v.SetDefault("platforms.linkedin.maxPosts", 10)
	v.SetDefault("platforms.projects.enabled", true)
	v.SetDefault("platforms.projects.maxPageBytes", 2*1024*1024)
	v.SetDefault("platforms.http.timeout", 20*time.Second)
	v.SetDefault("platforms.http.maxRetries", 2)
	v.SetDefault("platforms.http.userAgent", "candidatelens/1.0")

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 30*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxRequestSize", 1024*1024)
	// Rate limiting defaults
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.window", time.Minute)
	// Progress stream defaults
	v.SetDefault("server.websocket.writeTimeout", 10*time.Second)
	v.SetDefault("server.websocket.pingInterval", 30*time.Second)
	v.SetDefault("server.websocket.pongWait", 60*time.Second)
	v.SetDefault("server.websocket.sendBuffer", 16)
	v.SetDefault("server.websocket.allowedOrigins", []string{})

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 1024*1024) // 1MB

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.geminiKey", "")
	v.SetDefault("vault.secrets.platformTokens", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "candidatelens")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)

	// Tracing Configuration
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)

	// Metrics Configuration
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	// Custom Metrics Configuration
	v.SetDefault("observability.customMetrics.aiOperations.enabled", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackDuration", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackTokenUsage", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackModelInfo", true)
	v.SetDefault("observability.customMetrics.businessMetrics.enabled", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackSubtasks", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackFinalScores", true)
	v.SetDefault("observability.customMetrics.infrastructure.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackWebSockets", true)

	// Console Configuration
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)

	// Prometheus Configuration
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	// OTLP Configuration
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}
