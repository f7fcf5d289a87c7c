package config

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	// UseSystemPrompts: apply global default only if not explicitly set
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
}

// GetMatchConfig returns the AI configuration for resume matching with fallback to global config
func (c *Config) GetMatchConfig() OperationAIConfig {
	config := c.AI.Match
	c.applyOperationDefaults(&config)
	return config
}

// GetResearchConfig returns the AI configuration used by the profile analyzers
// and company research
func (c *Config) GetResearchConfig() OperationAIConfig {
	config := c.AI.Research
	c.applyOperationDefaults(&config)
	return config
}

// GetReportConfig returns the AI configuration for the final narrative report
func (c *Config) GetReportConfig() OperationAIConfig {
	config := c.AI.Report
	c.applyOperationDefaults(&config)
	return config
}

// Prompts returns the prompt overrides loaded for this configuration.
func (c *Config) Prompts() *PromptStore {
	if c.prompts == nil {
		c.prompts = NewPromptStore()
	}
	return c.prompts
}
