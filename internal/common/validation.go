package common

import (
	"fmt"
	"slices"
	"strings"

	"careertools/internal/errors"
	"careertools/internal/registry"
	"careertools/internal/types"
)

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// ResolveTool looks up a tool by its command line name
func ResolveTool(name string) (*registry.Tool, error) {
	kind, err := types.ParseToolKind(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		names := make([]string, 0, len(types.ToolKinds()))
		for _, k := range types.ToolKinds() {
			names = append(names, string(k))
		}
		return nil, errors.NewValidationError(errors.ErrCodeUnknownTool,
			fmt.Sprintf("unknown tool %q. Available tools: %s", name, strings.Join(names, ", ")), err)
	}
	return registry.MustLookup(kind), nil
}
