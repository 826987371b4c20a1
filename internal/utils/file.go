package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateInputFile reports whether filename names a regular, readable file
func ValidateInputFile(filename string) error {
	if filename == "" {
		return fmt.Errorf("no file given")
	}
	info, err := os.Stat(filename)
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("%s not found", filename)
	case err != nil:
		return fmt.Errorf("cannot stat %s: %w", filename, err)
	case !info.Mode().IsRegular():
		return fmt.Errorf("%s is not a regular file", filename)
	}
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", filename, err)
	}
	return f.Close()
}

// ValidateOutputFile makes sure the parent directory of filename exists.
// An empty name means stdout.
func ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil
	}
	dir := filepath.Dir(filename)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", dir, err)
	}
	return nil
}

// GetFileExtension returns the file extension in lowercase
func GetFileExtension(filename string) string {
	ext := filepath.Ext(filename)
	return strings.ToLower(ext)
}

// ProfileFormat reports how a profile file is encoded, from its extension
func ProfileFormat(filename string) (string, error) {
	switch GetFileExtension(filename) {
	case ".yaml", ".yml":
		return "yaml", nil
	case ".json":
		return "json", nil
	}
	return "", fmt.Errorf("unsupported profile extension %q, expected .yaml, .yml or .json", filepath.Ext(filename))
}

// CheckFileSize rejects files larger than limit. A non-positive limit disables the check.
func CheckFileSize(filename string, limit int64) error {
	if limit <= 0 {
		return nil
	}
	info, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("cannot access file %s: %w", filename, err)
	}
	if info.Size() > limit {
		return fmt.Errorf("file %s is %s, larger than the %s limit", filename, FormatFileSize(info.Size()), FormatFileSize(limit))
	}
	return nil
}

// FormatFileSize returns a human-readable file size
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
