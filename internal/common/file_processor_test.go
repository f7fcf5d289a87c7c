package common

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candidatelens/internal/errors"
	"candidatelens/internal/types"
)

const resumeYAML = `name: Ada Lovelace
skills: [Go, PostgreSQL]
experience:
  - company: Acme
    position: Backend Engineer
    duration: 3 years
profiles:
  github: https://github.com/ada
projects:
  - name: engine
    url: https://engine.example.com
    github_url: https://github.com/ada/engine
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadResume(t *testing.T) {
	fp := NewFileProcessor(nil, 0)

	t.Run("yaml", func(t *testing.T) {
		resume, err := fp.LoadResume(writeTemp(t, "resume.yaml", resumeYAML))
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", resume.Name)
		assert.Equal(t, []string{"Go", "PostgreSQL"}, resume.Skills)
		require.Len(t, resume.Experience, 1)
		assert.Equal(t, "Acme", resume.Experience[0].Company)
		assert.Equal(t, "https://github.com/ada", resume.Profiles.GitHub)
		assert.Equal(t, "https://github.com/ada/engine", resume.Projects[0].GitHubURL)
	})

	t.Run("json", func(t *testing.T) {
		resume, err := fp.LoadResume(writeTemp(t, "resume.json",
			`{"name": "Grace Hopper", "profiles": {"medium": "https://medium.com/@grace"}}`))
		require.NoError(t, err)
		assert.Equal(t, "Grace Hopper", resume.Name)
		assert.Equal(t, "https://medium.com/@grace", resume.Profiles.Medium)
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		_, err := fp.LoadResume(writeTemp(t, "resume.yaml", "name: Ada\nnmae: typo\n"))
		assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidFormat))
	})

	t.Run("empty resume", func(t *testing.T) {
		_, err := fp.LoadResume(writeTemp(t, "resume.yaml", "email: a@example.com\n"))
		assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := fp.LoadResume(writeTemp(t, "resume.yaml", ""))
		assert.ErrorContains(t, err, "is empty")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := fp.LoadResume(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "does not exist")
	})
}

func TestLoadJob(t *testing.T) {
	fp := NewFileProcessor(nil, 0)

	job, err := fp.LoadJob(writeTemp(t, "job.yaml",
		"title: Backend Engineer\ncompany: Acme\npreferred_skills: [Kafka]\ndomain: fintech\n"))
	require.NoError(t, err)
	assert.Equal(t, types.JobDescription{
		Title:           "Backend Engineer",
		Company:         "Acme",
		PreferredSkills: []string{"Kafka"},
		Domain:          "fintech",
	}, job)

	_, err = fp.LoadJob(writeTemp(t, "job.yaml", "company: Acme\n"))
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))
}

func TestReadFileSizeLimit(t *testing.T) {
	path := writeTemp(t, "big.yaml", strings.Repeat("a", 64))

	_, err := NewFileProcessor(nil, 32).ReadFile(path)
	assert.True(t, errors.HasCode(err, "FILE_TOO_LARGE"))

	content, err := NewFileProcessor(nil, 64).ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, content, 64)
}

func TestRunCommand(t *testing.T) {
	path := writeTemp(t, "job.yaml", "title: SRE\n")
	var stdout bytes.Buffer

	err := RunCommand(context.Background(), nil, CommandConfig{OutputFormat: "json"}, 0, &stdout,
		func(fp *FileProcessor) (types.JobDescription, error) { return fp.LoadJob(path) },
		func(_ context.Context, job types.JobDescription) (map[string]string, error) {
			return map[string]string{"title": job.Title}, nil
		},
		nil,
	)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title": "SRE"}`, stdout.String())

	t.Run("writes to a file", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "nested", "out.json")
		err := RunCommand(context.Background(), nil, CommandConfig{OutputFormat: "json", OutputFile: out}, 0, nil,
			func(*FileProcessor) (int, error) { return 7, nil },
			func(_ context.Context, n int) (int, error) { return n * 6, nil },
			nil,
		)
		require.NoError(t, err)
		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "42", string(data))
	})
}
