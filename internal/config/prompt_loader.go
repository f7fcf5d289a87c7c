package config

import (
	"fmt"
	"log"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// Prompt names understood by the AI layer. Keys under ai.prompts are matched
// case-insensitively since viper folds map keys to lower case.
const (
	PromptResumeMatch       = "resumeMatch"
	PromptGitHubReview      = "githubReview"
	PromptLinkedInPosts     = "linkedinPosts"
	PromptTwitterPosts      = "twitterPosts"
	PromptMediumArticles    = "mediumArticles"
	PromptProjectComplexity = "projectComplexity"
	PromptCompanyResearch   = "companyResearch"
	PromptFinalReport       = "finalReport"
)

// PromptNames lists every overridable prompt.
var PromptNames = []string{
	PromptResumeMatch,
	PromptGitHubReview,
	PromptLinkedInPosts,
	PromptTwitterPosts,
	PromptMediumArticles,
	PromptProjectComplexity,
	PromptCompanyResearch,
	PromptFinalReport,
}

// LoadedPrompt is the resolved text of one override. Empty fields mean the
// built-in default applies.
type LoadedPrompt struct {
	System string
	User   string
}

// PromptStore holds prompt overrides and can be swapped wholesale on reload.
type PromptStore struct {
	mu      sync.RWMutex
	prompts map[string]LoadedPrompt
}

func NewPromptStore() *PromptStore {
	return &PromptStore{prompts: make(map[string]LoadedPrompt)}
}

func promptKey(name string) string {
	return strings.ToLower(name)
}

// Get returns the override for name, if any.
func (s *PromptStore) Get(name string) (LoadedPrompt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prompts[promptKey(name)]
	return p, ok
}

// Set installs a single override.
func (s *PromptStore) Set(name string, p LoadedPrompt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts[promptKey(name)] = p
}

// Len reports how many prompts are overridden.
func (s *PromptStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.prompts)
}

func (s *PromptStore) replace(next map[string]LoadedPrompt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = next
}

func isKnownPrompt(name string) bool {
	return slices.ContainsFunc(PromptNames, func(n string) bool {
		return promptKey(n) == promptKey(name)
	})
}

// loadPromptsFromFiles resolves every configured override into the prompt store
func (c *Config) loadPromptsFromFiles() error {
	log.Println("[CONFIG] Starting custom prompt loading")

	next, err := c.resolvePrompts()
	if err != nil {
		return err
	}
	c.Prompts().replace(next)

	c.logPromptLoadingSummary(next)
	return nil
}

// ReloadPrompts re-reads prompt files. On error the previous prompts stay in place.
func (c *Config) ReloadPrompts() error {
	next, err := c.resolvePrompts()
	if err != nil {
		return err
	}
	c.Prompts().replace(next)
	log.Printf("[CONFIG] Reloaded %d custom prompts", len(next))
	return nil
}

func (c *Config) resolvePrompts() (map[string]LoadedPrompt, error) {
	next := make(map[string]LoadedPrompt, len(c.AI.Prompts))
	for _, name := range slices.Sorted(maps.Keys(c.AI.Prompts)) {
		override := c.AI.Prompts[name]
		if !isKnownPrompt(name) {
			log.Printf("[CONFIG] Ignoring override for unknown prompt %q", name)
			continue
		}

		loaded := LoadedPrompt{
			System: strings.TrimSpace(override.System),
			User:   strings.TrimSpace(override.User),
		}
		if override.SystemFile != "" {
			content, err := c.loadPromptFromFile(override.SystemFile, "system", name)
			if err != nil {
				return nil, err
			}
			loaded.System = content
		}
		if override.UserFile != "" {
			content, err := c.loadPromptFromFile(override.UserFile, "user", name)
			if err != nil {
				return nil, err
			}
			loaded.User = content
		}
		if loaded.System == "" && loaded.User == "" {
			continue
		}
		next[promptKey(name)] = loaded
	}
	return next, nil
}

// PromptFiles returns every prompt file path referenced by the configuration
func (c *Config) PromptFiles() []string {
	var files []string
	for _, name := range slices.Sorted(maps.Keys(c.AI.Prompts)) {
		override := c.AI.Prompts[name]
		if override.SystemFile != "" {
			files = append(files, override.SystemFile)
		}
		if override.UserFile != "" {
			files = append(files, override.UserFile)
		}
	}
	return files
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func (c *Config) loadPromptFromFile(filePath, promptType, name string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, name, filePath, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s %s prompt file not found: %s", promptType, name, absPath)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, name, absPath, err)
	}

	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, name, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s %s prompt from file: %s (%d characters)",
		promptType, name, absPath, len(trimmedContent))

	return trimmedContent, nil
}

// validatePromptFiles validates that prompt files exist and are readable before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	validateFile := func(filePath, promptType, name string) {
		if filePath == "" {
			return
		}

		absPath, err := filepath.Abs(filePath)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s %s prompt: %s", promptType, name, filePath))
			return
		}

		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s %s prompt file not found: %s", promptType, name, absPath))
		}
	}

	for _, name := range slices.Sorted(maps.Keys(c.AI.Prompts)) {
		override := c.AI.Prompts[name]
		validateFile(override.SystemFile, "system", name)
		validateFile(override.UserFile, "user", name)
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}

	return nil
}

// logPromptLoadingSummary logs a summary of loaded prompts
func (c *Config) logPromptLoadingSummary(loaded map[string]LoadedPrompt) {
	log.Println("[CONFIG] === Custom Prompt Loading Summary ===")

	for _, name := range PromptNames {
		p, ok := loaded[promptKey(name)]
		if !ok {
			continue
		}
		if p.System != "" {
			log.Printf("[CONFIG] %s system prompt: loaded from config/file", name)
		}
		if p.User != "" {
			log.Printf("[CONFIG] %s user prompt: loaded from config/file", name)
		}
	}

	if len(loaded) == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompts loaded: %d", len(loaded))
	}

	log.Println("[CONFIG] ==========================================")
}
