package formatters

import (
	"encoding/json"
	"fmt"
	"sort"

	"careertools/internal/registry"
	"careertools/internal/render"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// Screen is what an interactive front end shows: the active tab of a view,
// with details only for the expanded entry
type Screen struct {
	View  *render.View
	State render.State
}

// Catalog is the list of tools offered to the user
type Catalog []*registry.Tool

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "View", &ViewTextFormatter{})
	registry.RegisterFormatter("markdown", "View", &ViewMarkdownFormatter{})
	registry.RegisterFormatter("text", "Screen", &ScreenTextFormatter{})
	registry.RegisterFormatter("markdown", "Screen", &ScreenMarkdownFormatter{})
	registry.RegisterFormatter("text", "Catalog", &CatalogTextFormatter{})
	registry.RegisterFormatter("markdown", "Catalog", &CatalogMarkdownFormatter{})

	return registry
}

// GlobalRegistry is shared by the CLI commands
var GlobalRegistry = NewFormatterRegistry()

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case *render.View:
		return "View"
	case Screen:
		return "Screen"
	case Catalog:
		return "Catalog"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	if c, ok := data.(Catalog); ok {
		data = catalogEntries(c)
	}
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

type catalogEntry struct {
	Kind        string   `json:"kind"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Endpoint    string   `json:"endpoint"`
	Steps       []string `json:"steps"`
}

func catalogEntries(c Catalog) []catalogEntry {
	out := make([]catalogEntry, 0, len(c))
	for _, t := range c {
		steps := make([]string, len(t.Steps))
		for i, s := range t.Steps {
			steps[i] = s.Title
		}
		out = append(out, catalogEntry{
			Kind:        string(t.Kind),
			Title:       t.Title,
			Description: t.Description,
			Endpoint:    t.Endpoint,
			Steps:       steps,
		})
	}
	return out
}
