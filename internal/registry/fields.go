package registry

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"

	"careertools/internal/types"

	"github.com/go-playground/validator/v10"
)

// FieldKind is the input type of a field
type FieldKind string

const (
	KindText        FieldKind = "text"
	KindLongText    FieldKind = "long-text"
	KindInteger     FieldKind = "integer"
	KindNumber      FieldKind = "number"
	KindBoolean     FieldKind = "boolean"
	KindChoice      FieldKind = "choice"
	KindStringSet   FieldKind = "string-set"
	KindMultiChoice FieldKind = "multi-choice"
)

// Field describes one recognized input.
// Rule holds validator tags applied to the coerced value; presence is governed by Required.
type Field struct {
	Name        string
	Label       string
	Kind        FieldKind
	Required    bool
	Rule        string
	Options     []string
	Help        string
	Placeholder string
}

// FieldError explains why a field value was rejected
type FieldError struct {
	Field   string `json:"field"`
	Label   string `json:"label"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Label, e.Message)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// whole accepts float64 values without a fractional part
	if err := v.RegisterValidation("whole", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		switch field.Kind() {
		case reflect.Float32, reflect.Float64:
			f := field.Float()
			return !math.IsInf(f, 0) && f == math.Trunc(f)
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return true
		}
		return false
	}); err != nil {
		panic(err)
	}
	return v
}

// Check validates a single value against the field's constraint
func (f Field) Check(value any) *FieldError {
	if isEmpty(value) {
		if f.Required {
			return f.fail("is required")
		}
		return nil
	}

	coerced, msg := f.coerce(value)
	if msg != "" {
		return f.fail(msg)
	}

	if f.Kind == KindChoice || f.Kind == KindMultiChoice {
		if msg := f.checkOptions(coerced); msg != "" {
			return f.fail(msg)
		}
	}

	if f.Rule == "" {
		return nil
	}
	if err := validate.Var(coerced, f.Rule); err != nil {
		return f.fail(describe(err, f.Kind))
	}
	return nil
}

func (f Field) fail(message string) *FieldError {
	return &FieldError{Field: f.Name, Label: f.Label, Message: message}
}

func (f Field) coerce(value any) (any, string) {
	switch f.Kind {
	case KindText, KindLongText, KindChoice:
		s, ok := value.(string)
		if !ok {
			return nil, "must be text"
		}
		return strings.TrimSpace(s), ""
	case KindInteger, KindNumber:
		n, ok := types.ToNumber(value)
		if !ok {
			return nil, "must be a number"
		}
		return n, ""
	case KindBoolean:
		b, ok := value.(bool)
		if !ok {
			return nil, "must be yes or no"
		}
		return b, ""
	case KindStringSet, KindMultiChoice:
		set, ok := value.([]string)
		if !ok {
			return nil, "must be a list"
		}
		trimmed := make([]string, len(set))
		for i, s := range set {
			trimmed[i] = strings.TrimSpace(s)
		}
		return trimmed, ""
	}
	return value, ""
}

func (f Field) checkOptions(value any) string {
	var picked []string
	switch v := value.(type) {
	case string:
		picked = []string{v}
	case []string:
		picked = v
	}
	for _, p := range picked {
		if !slices.Contains(f.Options, p) {
			return fmt.Sprintf("must be one of: %s", strings.Join(f.Options, ", "))
		}
	}
	return ""
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	}
	return false
}

// describe turns the first validator failure into a short human message
func describe(err error, kind FieldKind) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "is invalid"
	}
	fe := verrs[0]
	isList := kind == KindStringSet || kind == KindMultiChoice
	switch fe.Tag() {
	case "min":
		if isList {
			return fmt.Sprintf("needs at least %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		if isList {
			return fmt.Sprintf("allows at most %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "whole":
		return "must be a whole number"
	case "required":
		return "must not contain empty entries"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	}
	return "is invalid"
}
