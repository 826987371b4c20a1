// Package registry declares every career tool: its fields, wizard steps,
// endpoint contract and result schema.
package registry

import (
	"embed"
	"fmt"
	"strings"
	"time"

	"careertools/internal/types"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Tool is the configuration one wizard instance is built from
type Tool struct {
	Kind        types.ToolKind
	Title       string
	Description string
	Endpoint    string
	WrapperKey  string
	// Timeout is the request ceiling; zero leaves it to the transport
	Timeout   time.Duration
	Fields    []Field
	Steps     []StepDescriptor
	NewResult func() types.ToolResult

	contract *gojsonschema.Schema
}

// ProfileError reports the first wizard step a draft does not satisfy
type ProfileError struct {
	Step   int
	Title  string
	Errors []FieldError
}

func (e *ProfileError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Error()
	}
	return fmt.Sprintf("step %d (%s): %s", e.Step, e.Title, strings.Join(parts, "; "))
}

// Field looks up a field definition by name
func (t *Tool) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ValidateProfile checks the draft against every step in order
func (t *Tool) ValidateProfile(draft types.ProfileDraft) *ProfileError {
	for _, step := range t.Steps {
		if problems := step.Explain(draft); len(problems) > 0 {
			return &ProfileError{Step: step.Index, Title: step.Title, Errors: problems}
		}
	}
	return nil
}

// CheckPayload validates the JSON found under the wrapper key against the tool's schema.
// It returns one line per violation.
func (t *Tool) CheckPayload(raw []byte) []string {
	result, err := t.contract.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return []string{fmt.Sprintf("payload is not valid JSON: %v", err)}
	}
	if result.Valid() {
		return nil
	}
	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return violations
}

var (
	catalog []*Tool
	byKind  = make(map[types.ToolKind]*Tool)
)

// Lookup returns the tool registered for kind
func Lookup(kind types.ToolKind) (*Tool, bool) {
	t, ok := byKind[kind]
	return t, ok
}

// MustLookup is Lookup for kinds known at compile time
func MustLookup(kind types.ToolKind) *Tool {
	t, ok := byKind[kind]
	if !ok {
		panic(fmt.Sprintf("registry: unknown tool %q", kind))
	}
	return t
}

// All returns the tools in catalog order
func All() []*Tool {
	out := make([]*Tool, len(catalog))
	copy(out, catalog)
	return out
}

// register validates a tool definition. A malformed definition is a programming error.
func register(t *Tool) {
	if _, dup := byKind[t.Kind]; dup {
		panic(fmt.Sprintf("registry: duplicate tool %q", t.Kind))
	}
	if t.WrapperKey == "" || t.Endpoint == "" || t.NewResult == nil {
		panic(fmt.Sprintf("registry: tool %q is missing its endpoint contract", t.Kind))
	}
	if got := t.NewResult().Kind(); got != t.Kind {
		panic(fmt.Sprintf("registry: tool %q builds results of kind %q", t.Kind, got))
	}
	for i, step := range t.Steps {
		if step.Index != i+1 {
			panic(fmt.Sprintf("registry: tool %q step %d has index %d", t.Kind, i+1, step.Index))
		}
		for _, name := range step.Fields {
			if _, ok := t.Field(name); !ok {
				panic(fmt.Sprintf("registry: tool %q step %d uses unknown field %q", t.Kind, step.Index, name))
			}
		}
	}

	raw, err := schemaFS.ReadFile("schemas/" + string(t.Kind) + ".json")
	if err != nil {
		panic(fmt.Sprintf("registry: no schema for %q: %v", t.Kind, err))
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("registry: schema for %q does not compile: %v", t.Kind, err))
	}
	t.contract = schema

	catalog = append(catalog, t)
	byKind[t.Kind] = t
}

func init() {
	register(opportunityHeatmap())
	register(skillGapAnalyzer())
	register(salaryComparator())
	register(resumeGapFinder())
	register(retirementCalculator())
}
