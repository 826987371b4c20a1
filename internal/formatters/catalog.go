package formatters

import (
	"fmt"
	"strings"
)

// CatalogTextFormatter lists the available tools
type CatalogTextFormatter struct{}

func (f *CatalogTextFormatter) Format(data any) (string, error) {
	c, ok := data.(Catalog)
	if !ok {
		return "", fmt.Errorf("expected Catalog, got %T", data)
	}

	var output strings.Builder
	output.WriteString("=== CAREER TOOLS ===\n")
	for _, t := range c {
		output.WriteString(fmt.Sprintf("\n%s (%s)\n", t.Title, t.Kind))
		output.WriteString("  " + t.Description + "\n")
		output.WriteString(fmt.Sprintf("  Steps: %d", len(t.Steps)))
		if t.Timeout > 0 {
			output.WriteString(fmt.Sprintf(", timeout %s", t.Timeout))
		}
		output.WriteString("\n")
	}
	return output.String(), nil
}

func (f *CatalogTextFormatter) SupportedType() string { return "Catalog" }

// CatalogMarkdownFormatter lists the available tools as a markdown table
type CatalogMarkdownFormatter struct{}

func (f *CatalogMarkdownFormatter) Format(data any) (string, error) {
	c, ok := data.(Catalog)
	if !ok {
		return "", fmt.Errorf("expected Catalog, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Career Tools\n\n")
	output.WriteString("| Tool | Name | Steps | Description |\n")
	output.WriteString("|------|------|-------|-------------|\n")
	for _, t := range c {
		output.WriteString(fmt.Sprintf("| `%s` | %s | %d | %s |\n", t.Kind, t.Title, len(t.Steps), t.Description))
	}
	return output.String(), nil
}

func (f *CatalogMarkdownFormatter) SupportedType() string { return "Catalog" }
