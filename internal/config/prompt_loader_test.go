package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePrompt(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadPromptsFromFiles(t *testing.T) {
	tempDir := t.TempDir()
	systemFile := writePrompt(t, tempDir, "system.match.md", "Test system prompt for matching")
	userFile := writePrompt(t, tempDir, "user.match.md", "Resume: {{.Resume}}\n")

	config := &Config{
		AI: AIConfig{
			Prompts: map[string]PromptOverride{
				// viper lower-cases map keys
				"resumematch": {SystemFile: systemFile, UserFile: userFile},
				"finalreport": {System: "  inline system  "},
			},
		},
	}

	require.NoError(t, config.loadPromptsFromFiles())

	match, ok := config.Prompts().Get(PromptResumeMatch)
	require.True(t, ok)
	assert.Equal(t, "Test system prompt for matching", match.System)
	assert.Equal(t, "Resume: {{.Resume}}", match.User)

	report, ok := config.Prompts().Get(PromptFinalReport)
	require.True(t, ok)
	assert.Equal(t, "inline system", report.System)
	assert.Empty(t, report.User)

	_, ok = config.Prompts().Get(PromptGitHubReview)
	assert.False(t, ok)

	// file paths are left untouched
	assert.Equal(t, systemFile, config.AI.Prompts["resumematch"].SystemFile)
}

func TestLoadPromptsIgnoresUnknownNames(t *testing.T) {
	config := &Config{
		AI: AIConfig{
			Prompts: map[string]PromptOverride{
				"rankCandidates": {System: "not ours"},
			},
		},
	}
	require.NoError(t, config.loadPromptsFromFiles())
	assert.Zero(t, config.Prompts().Len())
}

func TestValidatePromptFiles(t *testing.T) {
	tempDir := t.TempDir()
	validFile := writePrompt(t, tempDir, "valid.md", "Valid content")

	config := &Config{
		AI: AIConfig{
			Prompts: map[string]PromptOverride{
				"companyresearch": {SystemFile: validFile},
			},
		},
	}
	assert.NoError(t, config.validatePromptFiles())

	config.AI.Prompts["companyresearch"] = PromptOverride{SystemFile: filepath.Join(tempDir, "nonexistent.md")}
	assert.Error(t, config.validatePromptFiles())
}

func TestLoadPromptFromFile(t *testing.T) {
	tempDir := t.TempDir()
	testFile := writePrompt(t, tempDir, "test.md", "Test prompt content")

	config := &Config{}
	loaded, err := config.loadPromptFromFile(testFile, "system", PromptResumeMatch)
	require.NoError(t, err)
	assert.Equal(t, "Test prompt content", loaded)

	emptyFile := writePrompt(t, tempDir, "empty.md", "   \n")
	_, err = config.loadPromptFromFile(emptyFile, "system", PromptResumeMatch)
	assert.Error(t, err)

	_, err = config.loadPromptFromFile(filepath.Join(tempDir, "nonexistent.md"), "system", PromptResumeMatch)
	assert.Error(t, err)
}

func TestReloadPromptsKeepsPreviousOnError(t *testing.T) {
	tempDir := t.TempDir()
	file := writePrompt(t, tempDir, "report.md", "first")

	config := &Config{
		AI: AIConfig{
			Prompts: map[string]PromptOverride{"finalreport": {SystemFile: file}},
		},
	}
	require.NoError(t, config.loadPromptsFromFiles())

	writePrompt(t, tempDir, "report.md", "second")
	require.NoError(t, config.ReloadPrompts())
	p, _ := config.Prompts().Get(PromptFinalReport)
	assert.Equal(t, "second", p.System)

	writePrompt(t, tempDir, "report.md", "")
	assert.Error(t, config.ReloadPrompts())
	p, _ = config.Prompts().Get(PromptFinalReport)
	assert.Equal(t, "second", p.System)
}

func TestPromptWatcherReloadsOnWrite(t *testing.T) {
	tempDir := t.TempDir()
	file := writePrompt(t, tempDir, "match.md", "v1")

	config := &Config{
		AI: AIConfig{
			Prompts: map[string]PromptOverride{"resumematch": {UserFile: file}},
		},
	}
	require.NoError(t, config.loadPromptsFromFiles())

	watcher := NewPromptWatcher(config, 20*time.Millisecond, nil)
	require.NoError(t, watcher.Start())
	defer func() { _ = watcher.Stop() }()

	// make sure the modification time moves even on coarse filesystems
	future := time.Now().Add(2 * time.Second)
	writePrompt(t, tempDir, "match.md", "v2")
	require.NoError(t, os.Chtimes(file, future, future))

	assert.Eventually(t, func() bool {
		p, _ := config.Prompts().Get(PromptResumeMatch)
		return p.User == "v2"
	}, 3*time.Second, 20*time.Millisecond)
}

func TestPromptWatcherWithoutFiles(t *testing.T) {
	watcher := NewPromptWatcher(&Config{}, 0, nil)
	assert.NoError(t, watcher.Start())
	assert.Empty(t, watcher.Files())
	assert.NoError(t, watcher.Stop())
}
