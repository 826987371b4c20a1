package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"careertools/internal/registry"

	"github.com/manifoldco/promptui"
)

// asker is the terminal surface of the interactive wizard
type asker interface {
	Choose(label string, items []string) (string, error)
	Input(label, current string, validate func(string) error) (string, error)
}

type promptAsker struct{}

func (promptAsker) Choose(label string, items []string) (string, error) {
	prompt := promptui.Select{
		Label: label,
		Items: items,
		Size:  min(len(items), 10),
	}
	_, selected, err := prompt.Run()
	return selected, err
}

func (promptAsker) Input(label, current string, validate func(string) error) (string, error) {
	prompt := promptui.Prompt{
		Label:     label,
		Default:   current,
		AllowEdit: true,
		Validate:  promptui.ValidateFunc(validate),
	}
	return prompt.Run()
}

const (
	answerYes  = "Yes"
	answerNo   = "No"
	answerSkip = "(skip)"
)

// askField prompts for one field and returns the typed value, nil when left empty
func askField(a asker, f registry.Field, current any) (any, error) {
	label := f.Label
	if f.Help != "" {
		label += " (" + f.Help + ")"
	} else if f.Kind == registry.KindMultiChoice {
		label += " (comma separated: " + strings.Join(f.Options, ", ") + ")"
	}

	switch f.Kind {
	case registry.KindChoice, registry.KindBoolean:
		items := f.Options
		if f.Kind == registry.KindBoolean {
			items = []string{answerYes, answerNo}
		}
		if !f.Required {
			items = append(slices.Clone(items), answerSkip)
		}
		picked, err := a.Choose(label, items)
		if err != nil {
			return nil, err
		}
		if picked == answerSkip {
			return nil, nil
		}
		return parseFieldInput(f, picked)
	}

	raw, err := a.Input(label, formatFieldValue(current), func(s string) error {
		value, err := parseFieldInput(f, s)
		if err != nil {
			return err
		}
		if fe := f.Check(value); fe != nil {
			return fe
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return parseFieldInput(f, raw)
}

// parseFieldInput converts typed text into the value kind the field stores
func parseFieldInput(f registry.Field, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	switch f.Kind {
	case registry.KindInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a whole number", f.Label)
		}
		return float64(n), nil
	case registry.KindNumber:
		n, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", f.Label)
		}
		return n, nil
	case registry.KindBoolean:
		switch strings.ToLower(raw) {
		case "y", "yes", "true":
			return true, nil
		case "n", "no", "false":
			return false, nil
		}
		return nil, fmt.Errorf("%s must be yes or no", f.Label)
	case registry.KindStringSet, registry.KindMultiChoice:
		var set []string
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part != "" && !slices.Contains(set, part) {
				set = append(set, part)
			}
		}
		if len(set) == 0 {
			return nil, nil
		}
		return set, nil
	}
	return raw, nil
}

// formatFieldValue renders a stored value as prompt default text
func formatFieldValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "yes"
		}
		return "no"
	}
	return fmt.Sprint(value)
}
