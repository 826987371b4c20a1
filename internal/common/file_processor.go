package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"careertools/internal/errors"
	"careertools/internal/registry"
	"careertools/internal/types"
	"careertools/internal/utils"

	"gopkg.in/yaml.v3"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger      *errors.Logger
	maxFileSize int64
}

// NewFileProcessor creates a new file processor instance. A non-positive
// maxFileSize disables the size check.
func NewFileProcessor(logger *errors.Logger, maxFileSize int64) *FileProcessor {
	if logger == nil {
		logger = errors.Discard()
	}
	return &FileProcessor{logger: logger, maxFileSize: maxFileSize}
}

// ReadFile reads content from a file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) ([]byte, error) {
	if err := utils.ValidateInputFile(filename); err != nil {
		return nil, errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid file %s", filename), err)
	}
	if err := utils.CheckFileSize(filename, fp.maxFileSize); err != nil {
		return nil, errors.NewValidationError("INPUT_FILE_TOO_LARGE", err.Error(), nil)
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

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
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

// LoadProfile reads a YAML or JSON profile for tool. Unknown field names are
// rejected so typos do not silently drop answers.
func (fp *FileProcessor) LoadProfile(filename string, tool *registry.Tool) (types.ProfileDraft, error) {
	format, err := utils.ProfileFormat(filename)
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat, err.Error(), nil)
	}

	content, err := fp.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	raw := map[string]any{}
	switch format {
	case "yaml":
		err = yaml.Unmarshal(content, &raw)
	case "json":
		dec := json.NewDecoder(bytes.NewReader(content))
		dec.UseNumber()
		err = dec.Decode(&raw)
	}
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidProfile,
			fmt.Sprintf("Cannot parse profile %s", filename), err)
	}

	draft := types.NewProfileDraft()
	for name, value := range raw {
		if _, ok := tool.Field(name); !ok {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidProfile,
				fmt.Sprintf("Unknown field %q for %s", name, tool.Kind), nil).
				WithContext("file", filename)
		}
		if v := types.NormalizeValue(value); v != nil {
			draft[name] = v
		}
	}

	fp.logger.Debug("Profile loaded", "file", filename, "tool", tool.Kind, "fields", len(draft))
	return draft, nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
