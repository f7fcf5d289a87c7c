package common

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"candidatelens/internal/errors"
	"candidatelens/internal/types"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger      *errors.Logger
	maxFileSize int64
}

// NewFileProcessor creates a new file processor instance. A maxFileSize of
// zero disables the size check.
func NewFileProcessor(logger *errors.Logger, maxFileSize int64) *FileProcessor {
	if logger == nil {
		logger = errors.Discard()
	}
	return &FileProcessor{logger: logger, maxFileSize: maxFileSize}
}

// ReadFile reads content from a file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) ([]byte, error) {
	if err := ValidateInputFile(filename); err != nil {
		return nil, errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid file %s", filename), err)
	}

	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	var r io.Reader = file
	if fp.maxFileSize > 0 {
		r = io.LimitReader(file, fp.maxFileSize+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}
	if fp.maxFileSize > 0 && int64(len(content)) > fp.maxFileSize {
		return nil, errors.NewValidationError("FILE_TOO_LARGE",
			fmt.Sprintf("File %s exceeds the %d byte limit", filename, fp.maxFileSize), nil)
	}

	return content, nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		err := os.MkdirAll(dir, 0750)
		if err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	err := os.WriteFile(filename, []byte(content), 0600)
	if err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// LoadResume reads a resume from a YAML or JSON file
func (fp *FileProcessor) LoadResume(filename string) (types.Resume, error) {
	var resume types.Resume
	if err := fp.decode(filename, &resume); err != nil {
		return types.Resume{}, err
	}
	if strings.TrimSpace(resume.Name) == "" && len(resume.Experience) == 0 && len(resume.Skills) == 0 {
		return types.Resume{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Resume file %s has no name, skills or experience", filename), nil)
	}
	return resume, nil
}

// LoadJob reads a job description from a YAML or JSON file
func (fp *FileProcessor) LoadJob(filename string) (types.JobDescription, error) {
	var job types.JobDescription
	if err := fp.decode(filename, &job); err != nil {
		return types.JobDescription{}, err
	}
	if strings.TrimSpace(job.Title) == "" && strings.TrimSpace(job.Description) == "" {
		return types.JobDescription{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Job file %s has neither a title nor a description", filename), nil)
	}
	return job, nil
}

// decode parses YAML. JSON input goes through the same decoder since it is
// valid YAML.
func (fp *FileProcessor) decode(filename string, out any) error {
	content, err := fp.ReadFile(filename)
	if err != nil {
		return err
	}
	if !IsStructuredFile(filename) {
		fp.logger.Warn("File extension is not yaml or json, parsing as YAML", "filename", filename)
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return errors.NewValidationError(errors.ErrCodeInvalidFormat,
				fmt.Sprintf("File %s is empty", filename), nil)
		}
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Cannot parse %s", filename), err)
	}
	return nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
