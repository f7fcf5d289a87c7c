package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
// Secret precedence order:
// 1. Vault (if configured) - Highest priority
// 2. Config File values
// 3. Environment Variables (CANDIDATELENS_AI_APIKEY, etc.)
// 4. Default values - Lowest priority
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Scoring       ScoringConfig       `mapstructure:"scoring"`
	Analysis      AnalysisConfig      `mapstructure:"analysis"`
	Platforms     PlatformsConfig     `mapstructure:"platforms"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`

	prompts *PromptStore
}

// AIConfig holds AI service configuration
type AIConfig struct {
	// Global/fallback configuration
	Provider         string                    `mapstructure:"provider"`
	Model            string                    `mapstructure:"model"`
	Timeout          time.Duration             `mapstructure:"timeout"`
	APIKey           string                    `mapstructure:"apiKey"`
	MaxRetries       int                       `mapstructure:"maxRetries"`
	Temperature      float32                   `mapstructure:"temperature"`
	UseSystemPrompts bool                      `mapstructure:"useSystemPrompts"`
	Prompts          map[string]PromptOverride `mapstructure:"prompts"`

	// Operation-specific configurations
	Match    OperationAIConfig `mapstructure:"match"`
	Research OperationAIConfig `mapstructure:"research"`
	Report   OperationAIConfig `mapstructure:"report"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// OperationAIConfig holds AI configuration for specific operations
type OperationAIConfig struct {
	Provider         string               `mapstructure:"provider"`
	Model            string               `mapstructure:"model"`
	Timeout          *time.Duration       `mapstructure:"timeout"`
	APIKey           string               `mapstructure:"apiKey"`
	MaxRetries       *int                 `mapstructure:"maxRetries"`
	Temperature      *float32             `mapstructure:"temperature"`
	UseSystemPrompts *bool                `mapstructure:"useSystemPrompts"`
	CircuitBreaker   CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// PromptOverride replaces a built-in prompt inline or from a file. Files win.
type PromptOverride struct {
	System     string `mapstructure:"system"`
	SystemFile string `mapstructure:"systemFile"`
	User       string `mapstructure:"user"`
	UserFile   string `mapstructure:"userFile"`
}

// ScoringConfig holds the weight tables and recommendation policy
type ScoringConfig struct {
	Preset               string                        `mapstructure:"preset"`
	Weights              map[string]float64            `mapstructure:"weights"`
	Presets              map[string]map[string]float64 `mapstructure:"presets"`
	Thresholds           ThresholdsConfig              `mapstructure:"thresholds"`
	MissingSlotPolicy    string                        `mapstructure:"missingSlotPolicy"` // "exclude" or "renormalize"
	ProjectPartialCredit float64                       `mapstructure:"projectPartialCredit"`
	CompanyLookupPenalty float64                       `mapstructure:"companyLookupPenalty"`
	GitHubBlend          GitHubBlendConfig             `mapstructure:"githubBlend"`
}

// ThresholdsConfig holds the recommendation cutoffs
type ThresholdsConfig struct {
	Excellent float64 `mapstructure:"excellent"`
	Good      float64 `mapstructure:"good"`
	Average   float64 `mapstructure:"average"`
}

type GitHubBlendConfig struct {
	Quality    float64 `mapstructure:"quality"`
	Complexity float64 `mapstructure:"complexity"`
	Domain     float64 `mapstructure:"domain"`
}

// AnalysisConfig holds orchestration settings
type AnalysisConfig struct {
	Mode               string        `mapstructure:"mode"` // "sequential" or "graph"
	SubtaskTimeout     time.Duration `mapstructure:"subtaskTimeout"`
	AggregationTimeout time.Duration `mapstructure:"aggregationTimeout"`
	RunTimeout         time.Duration `mapstructure:"runTimeout"`
	MaxParallel        int           `mapstructure:"maxParallel"`
	RetentionTTL       time.Duration `mapstructure:"retentionTTL"`
	JanitorInterval    time.Duration `mapstructure:"janitorInterval"`
}

// PlatformsConfig holds settings for the external profile sources
type PlatformsConfig struct {
	GitHub   GitHubConfig   `mapstructure:"github"`
	Twitter  TwitterConfig  `mapstructure:"twitter"`
	Medium   MediumConfig   `mapstructure:"medium"`
	LinkedIn LinkedInConfig `mapstructure:"linkedin"`
	Projects ProjectsConfig `mapstructure:"projects"`
	HTTP     HTTPConfig     `mapstructure:"http"`
}

type GitHubConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	BaseURL     string `mapstructure:"baseURL"`
	Token       string `mapstructure:"token"`
	MaxRepos    int    `mapstructure:"maxRepos"`
	ReviewRepos int    `mapstructure:"reviewRepos"` // repositories sent to the model for review
}

type TwitterConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	BaseURL     string `mapstructure:"baseURL"`
	BearerToken string `mapstructure:"bearerToken"`
	MaxTweets   int    `mapstructure:"maxTweets"`
}

type MediumConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	FeedURL     string `mapstructure:"feedURL"` // format string taking the username
	MaxArticles int    `mapstructure:"maxArticles"`
}

type LinkedInConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	MaxPosts int  `mapstructure:"maxPosts"`
}

type ProjectsConfig struct {
	Enabled      bool  `mapstructure:"enabled"`
	MaxPageBytes int64 `mapstructure:"maxPageBytes"`
}

// HTTPConfig configures the shared outbound client
type HTTPConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"maxRetries"`
	UserAgent  string        `mapstructure:"userAgent"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	MaxRequestSize int64         `mapstructure:"maxRequestSize"`

	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`        // Enable/disable rate limiting
	RequestsPerMin int           `mapstructure:"requestsPerMin"` // Requests allowed per minute
	BurstCapacity  int           `mapstructure:"burstCapacity"`  // Burst capacity for token bucket
	ByIP           bool          `mapstructure:"byIP"`           // Enable per-IP rate limiting
	Window         time.Duration `mapstructure:"window"`         // Rate limiting window duration
}

// WebSocketConfig configures the progress stream
type WebSocketConfig struct {
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	PingInterval   time.Duration `mapstructure:"pingInterval"`
	PongWait       time.Duration `mapstructure:"pongWait"`
	SendBuffer     int           `mapstructure:"sendBuffer"`
	AllowedOrigins []string      `mapstructure:"allowedOrigins"` // empty allows any origin
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	ServiceName     string              `mapstructure:"serviceName"`
	ServiceVersion  string              `mapstructure:"serviceVersion"`
	ServiceInstance string              `mapstructure:"serviceInstance"`
	ConsoleOutput   bool                `mapstructure:"consoleOutput"`
	SampleRate      float64             `mapstructure:"sampleRate"`
	Tracing         TracingConfig       `mapstructure:"tracing"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics   CustomMetricsConfig `mapstructure:"customMetrics"`
	Console         ConsoleConfig       `mapstructure:"console"`
	Prometheus      PrometheusConfig    `mapstructure:"prometheus"`
	OTLP            OTLPConfig          `mapstructure:"otlp"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// CustomMetricsConfig holds fine-grained custom metrics configuration
type CustomMetricsConfig struct {
	AIOperations    AIOperationsMetricsConfig   `mapstructure:"aiOperations"`
	BusinessMetrics BusinessMetricsConfig       `mapstructure:"businessMetrics"`
	Infrastructure  InfrastructureMetricsConfig `mapstructure:"infrastructure"`
}

// AIOperationsMetricsConfig holds AI operation metrics configuration
type AIOperationsMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackDuration   bool `mapstructure:"trackDuration"`
	TrackTokenUsage bool `mapstructure:"trackTokenUsage"`
	TrackModelInfo  bool `mapstructure:"trackModelInfo"`
}

// BusinessMetricsConfig holds analysis run metrics configuration
type BusinessMetricsConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	TrackSubtasks    bool `mapstructure:"trackSubtasks"`
	TrackFinalScores bool `mapstructure:"trackFinalScores"`
}

// InfrastructureMetricsConfig holds infrastructure metrics configuration
type InfrastructureMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackRateLimits bool `mapstructure:"trackRateLimits"`
	TrackWebSockets bool `mapstructure:"trackWebSockets"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadConfig loads configuration from environment variables and a config file
func LoadConfig() (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	v := viper.New()

	setDefaults(v)
	log.Println("[CONFIG] Applied default configuration values")

	v.SetEnvPrefix("CANDIDATELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	log.Println("[CONFIG] Configured environment variable handling with prefix 'CANDIDATELENS'")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/candidatelens/")
	v.AddConfigPath("$HOME/.candidatelens")
	v.AddConfigPath(".")
	log.Println("[CONFIG] Configured config file search paths: /etc/candidatelens/, $HOME/.candidatelens, .")

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	return finishLoad(v, configFileUsed)
}

// LoadConfigFile loads configuration from an explicit file, skipping the search paths
func LoadConfigFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("CANDIDATELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return finishLoad(v, path)
}

func finishLoad(v *viper.Viper, configFileUsed string) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	log.Println("[CONFIG] Successfully unmarshaled configuration")

	config.applyFallbacks()
	log.Println("[CONFIG] Applied configuration fallbacks and environment variable overrides")

	config.logConfigurationSources(configFileUsed)

	if err := config.validatePromptFiles(); err != nil {
		return nil, fmt.Errorf("prompt file validation failed: %w", err)
	}

	config.prompts = NewPromptStore()
	if err := config.loadPromptsFromFiles(); err != nil {
		return nil, fmt.Errorf("failed to load custom prompts from files: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.AI.APIKey == "" {
		return fmt.Errorf("AI API key is required (set CANDIDATELENS_AI_APIKEY environment variable)")
	}

	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if err := c.validateScoring(); err != nil {
		return fmt.Errorf("scoring configuration error: %w", err)
	}

	if err := c.validateAnalysis(); err != nil {
		return fmt.Errorf("analysis configuration error: %w", err)
	}

	if c.Server.WebSocket.SendBuffer <= 0 {
		return fmt.Errorf("websocket sendBuffer must be positive")
	}

	return nil
}

func (c *Config) validateScoring() error {
	s := c.Scoring
	t := s.Thresholds
	if t.Average < 0 || t.Excellent > 100 || t.Average > t.Good || t.Good > t.Excellent {
		return fmt.Errorf("thresholds must satisfy 0 <= average <= good <= excellent <= 100")
	}

	switch s.MissingSlotPolicy {
	case "exclude", "renormalize":
	default:
		return fmt.Errorf("invalid missingSlotPolicy: %s (must be 'exclude' or 'renormalize')", s.MissingSlotPolicy)
	}

	if s.ProjectPartialCredit < 0 || s.ProjectPartialCredit > 100 {
		return fmt.Errorf("projectPartialCredit must be between 0 and 100")
	}
	if s.CompanyLookupPenalty < 0 || s.CompanyLookupPenalty > 100 {
		return fmt.Errorf("companyLookupPenalty must be between 0 and 100")
	}

	check := func(name string, w map[string]float64) error {
		for k, v := range w {
			if v < 0 || v > 1 {
				return fmt.Errorf("%s weight %s must be between 0 and 1", name, k)
			}
		}
		return nil
	}
	if err := check("default", s.Weights); err != nil {
		return err
	}
	for name, p := range s.Presets {
		if err := check(name, p); err != nil {
			return err
		}
	}
	if s.Preset != "" && s.Preset != "default" {
		if _, ok := s.Presets[s.Preset]; !ok {
			return fmt.Errorf("scoring.preset %q is not a configured preset", s.Preset)
		}
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	a := c.Analysis
	switch a.Mode {
	case "sequential", "graph":
	default:
		return fmt.Errorf("invalid mode: %s (must be 'sequential' or 'graph')", a.Mode)
	}
	if a.SubtaskTimeout <= 0 || a.AggregationTimeout <= 0 || a.RunTimeout <= 0 {
		return fmt.Errorf("subtask, aggregation and run timeouts must be positive")
	}
	if a.MaxParallel <= 0 {
		return fmt.Errorf("maxParallel must be positive")
	}
	if a.RetentionTTL > 0 && a.RetentionTTL <= a.RunTimeout {
		return fmt.Errorf("retentionTTL (%s) must exceed runTimeout (%s)", a.RetentionTTL, a.RunTimeout)
	}
	return nil
}
