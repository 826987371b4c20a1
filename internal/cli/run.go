package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"careertools/internal/common"
	"careertools/internal/errors"
	"careertools/internal/formatters"
	"careertools/internal/orchestrator"
	"careertools/internal/registry"
	"careertools/internal/render"
	"careertools/internal/session"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

const (
	MenuNext      = "Next"
	MenuBack      = "Back"
	MenuSubmit    = "Submit"
	MenuStartOver = "Start over"
	MenuQuit      = "Quit"

	MenuRetry   = "Try again"
	MenuDismiss = "Dismiss and edit answers"

	MenuSwitchTab   = "Switch tab"
	MenuExpand      = "Expand or collapse an entry"
	MenuSelectPoint = "Select a map location"
	MenuSave        = "Save result to file"
	MenuNewAnalysis = "New analysis"
)

var errQuit = stderrors.New("quit requested")

var runCmd = &cobra.Command{
	Use:   "run [tool]",
	Short: "Answer a tool's questions step by step and browse the result",
	Long: `Start the interactive wizard for one of the career tools. Without an argument
you pick the tool from a menu.

Each step asks for its fields and only advances when they are valid. The last
step submits the answers; while a request is running the answers are locked.
A rate-limited request shows how long to wait before trying again. Successful
results open in a viewer with tabs, expandable entries and, for the opportunity
heatmap, a map you can query by coordinates. Press Ctrl+C to leave.`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: toolNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		logger := getLoggerFromContext(cmd.Context())

		om, err := startObservability(cfg)
		if err != nil {
			return err
		}
		defer stopObservability(om, logger)

		r := &runner{
			ask:    promptAsker{},
			out:    cmd.OutOrStdout(),
			logger: logger,
			newSubmitter: func(tool *registry.Tool) session.Submitter {
				return newOrchestrator(cfg, tool, om, logger)
			},
		}
		var name string
		if len(args) > 0 {
			name = args[0]
		}
		return r.run(cmd.Context(), name)
	},
}

// runner drives one interactive session
type runner struct {
	ask          asker
	out          io.Writer
	logger       *errors.Logger
	newSubmitter func(*registry.Tool) session.Submitter
	now          func() time.Time

	session *session.Session
}

func (r *runner) run(ctx context.Context, toolName string) error {
	if r.now == nil {
		r.now = time.Now
	}
	tool, err := r.pickTool(toolName)
	if err != nil {
		return quietly(err)
	}

	r.session = session.New(tool, r.newSubmitter(tool),
		session.WithLogger(r.logger),
		session.WithClock(r.now),
		session.WithTransitionHook(func(step int) {
			r.logger.Debug("Wizard step changed", "tool", tool.Kind, "step", step)
		}))

	fmt.Fprintf(r.out, "%s\n%s\n", tool.Title, tool.Description)
	return quietly(r.wizard(ctx))
}

// quietly turns a user initiated exit into a clean return
func quietly(err error) error {
	if err == nil || stderrors.Is(err, errQuit) ||
		stderrors.Is(err, promptui.ErrInterrupt) || stderrors.Is(err, promptui.ErrEOF) {
		return nil
	}
	return err
}

func (r *runner) pickTool(name string) (*registry.Tool, error) {
	if name != "" {
		return common.ResolveTool(name)
	}
	tools := registry.All()
	items := make([]string, 0, len(tools))
	for _, t := range tools {
		items = append(items, fmt.Sprintf("%s (%s)", t.Title, t.Kind))
	}
	picked, err := r.ask.Choose("Choose a tool", items)
	if err != nil {
		return nil, err
	}
	for i, item := range items {
		if item == picked {
			return tools[i], nil
		}
	}
	return nil, fmt.Errorf("unknown tool %q", picked)
}

// wizard asks the current step's fields and moves through the steps until submit or quit
func (r *runner) wizard(ctx context.Context) error {
	tool := r.session.Tool()
	for {
		step, current, total := r.session.Step()
		fmt.Fprintf(r.out, "\nStep %d of %d: %s\n", current, total, step.Title)

		draft := r.session.Draft()
		for _, name := range step.Fields {
			field, _ := tool.Field(name)
			value, err := askField(r.ask, field, draft[name])
			if err != nil {
				return err
			}
			if err := r.session.Update(name, value); err != nil {
				return err
			}
		}

		items := []string{MenuNext}
		if r.session.IsLast() {
			items = []string{MenuSubmit}
		}
		if current > 1 {
			items = append(items, MenuBack)
		}
		items = append(items, MenuStartOver, MenuQuit)

		choice, err := r.ask.Choose("What next?", items)
		if err != nil {
			return err
		}
		switch choice {
		case MenuNext:
			ok, err := r.session.Next()
			if err != nil {
				return err
			}
			if !ok {
				r.printBlockers()
			}
		case MenuBack:
			if _, err := r.session.Previous(); err != nil {
				return err
			}
		case MenuStartOver:
			if err := r.session.Reset(); err != nil {
				return err
			}
		case MenuQuit:
			return errQuit
		case MenuSubmit:
			if blockers := r.session.Blockers(); len(blockers) > 0 {
				r.printBlockers()
				continue
			}
			if err := r.submit(ctx); err != nil {
				return err
			}
		}
	}
}

func (r *runner) printBlockers() {
	for _, fe := range r.session.Blockers() {
		fmt.Fprintf(r.out, "  ! %s\n", fe.Error())
	}
}

// submit sends the draft and handles the outcome.
// It returns nil to go back to the wizard.
func (r *runner) submit(ctx context.Context) error {
	for {
		if cd := r.session.Cooldown(); cd.Active(r.now()) {
			fmt.Fprintf(r.out, "Rate limited: %s.\n", cd.Describe(r.now()))
			return nil
		}

		fmt.Fprintf(r.out, "Analyzing with %s...\n", r.session.Tool().Title)
		out, err := r.session.Submit(ctx)
		if err != nil {
			fmt.Fprintf(r.out, "  ! %s\n", err.Error())
			return nil
		}
		if applied := r.session.Outcome(); applied != nil {
			out = applied
		}

		if out.Tag() == orchestrator.TagSuccess {
			return r.viewer()
		}

		fmt.Fprintf(r.out, "✗ %s\n", orchestrator.Message(out))
		if out.Tag() == orchestrator.TagRateLimited {
			fmt.Fprintf(r.out, "  %s\n", capitalize(r.session.Cooldown().Describe(r.now())))
		}
		if trace := out.TraceInfo(); trace.CorrelationID != "" {
			fmt.Fprintf(r.out, "  Reference: %s\n", trace.CorrelationID)
		}

		items := []string{MenuDismiss, MenuQuit}
		if out.Tag() != orchestrator.TagValidationError && r.session.CanSubmit() {
			items = append([]string{MenuRetry}, items...)
		}
		choice, err := r.ask.Choose("The request did not succeed", items)
		if err != nil {
			return err
		}
		switch choice {
		case MenuRetry:
			continue
		case MenuQuit:
			return errQuit
		}
		r.session.Dismiss()
		return nil
	}
}

// viewer shows the result until the user starts over or quits
func (r *runner) viewer() error {
	for {
		view, state := r.session.View()
		if view == nil {
			return nil
		}
		screen, err := formatters.GlobalRegistry.Format(formatters.Screen{View: view, State: state}, "text")
		if err != nil {
			return err
		}
		fmt.Fprintln(r.out, screen)

		expandable := expandableEntries(view, state.ActiveTab)
		items := []string{MenuSwitchTab}
		if len(expandable) > 0 {
			items = append(items, MenuExpand)
		}
		if len(view.Markers()) > 0 {
			items = append(items, MenuSelectPoint)
		}
		items = append(items, MenuSave, MenuNewAnalysis, MenuQuit)

		choice, err := r.ask.Choose("Result", items)
		if err != nil {
			return err
		}
		switch choice {
		case MenuSwitchTab:
			if err := r.switchTab(view); err != nil {
				return err
			}
		case MenuExpand:
			if err := r.toggleEntry(expandable); err != nil {
				return err
			}
		case MenuSelectPoint:
			if err := r.selectPoint(); err != nil {
				return err
			}
		case MenuSave:
			if err := r.save(view); err != nil {
				return err
			}
		case MenuNewAnalysis:
			return r.session.Reset()
		case MenuQuit:
			return errQuit
		}
	}
}

func (r *runner) switchTab(view *render.View) error {
	titles := make([]string, len(view.Tabs))
	for i, tab := range view.Tabs {
		titles[i] = tab.Title
	}
	picked, err := r.ask.Choose("Tab", titles)
	if err != nil {
		return err
	}
	for _, tab := range view.Tabs {
		if tab.Title == picked {
			r.session.SelectTab(tab.ID)
		}
	}
	return nil
}

type entry struct {
	id    string
	title string
}

// expandableEntries lists the cards and phases of a tab
func expandableEntries(view *render.View, tabID string) []entry {
	tab, ok := view.Tab(tabID)
	if !ok {
		return nil
	}
	var entries []entry
	for _, section := range tab.Sections {
		for _, c := range section.Cards {
			entries = append(entries, entry{id: c.ID, title: c.Title})
		}
		for _, p := range section.Phases {
			entries = append(entries, entry{id: p.ID, title: p.Title})
		}
	}
	return entries
}

func (r *runner) toggleEntry(entries []entry) error {
	titles := make([]string, len(entries))
	for i, e := range entries {
		titles[i] = e.title
	}
	picked, err := r.ask.Choose("Entry", titles)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.title == picked {
			r.session.Toggle(e.id)
			return nil
		}
	}
	return nil
}

func (r *runner) selectPoint() error {
	raw, err := r.ask.Input("Location as lat,lng", "", func(s string) error {
		_, _, err := parseCoordinates(s)
		return err
	})
	if err != nil {
		return err
	}
	lat, lng, err := parseCoordinates(raw)
	if err != nil {
		return err
	}
	if m, ok := r.session.ClickAt(lat, lng); ok {
		fmt.Fprintf(r.out, "Nearest: %s\n", m.Label)
	}
	return nil
}

// parseCoordinates reads "lat,lng" in degrees
func parseCoordinates(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected lat,lng")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("latitude must be between -90 and 90")
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || lng < -180 || lng > 180 {
		return 0, 0, fmt.Errorf("longitude must be between -180 and 180")
	}
	return lat, lng, nil
}

func (r *runner) save(view *render.View) error {
	path, err := r.ask.Input("File name", "", func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("file name is required")
		}
		return nil
	})
	if err != nil {
		return err
	}
	cmdConfig := common.CommandConfig{OutputFile: strings.TrimSpace(path), OutputFormat: formatForFile(path)}
	if err := common.NewOutputHandler(r.logger).HandleOutput(view, cmdConfig); err != nil {
		fmt.Fprintf(r.out, "  ! %s\n", err.Error())
		return nil
	}
	fmt.Fprintf(r.out, "Saved to %s\n", cmdConfig.OutputFile)
	return nil
}

func formatForFile(path string) string {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(path))) {
	case ".md", ".markdown":
		return "markdown"
	case ".json":
		return "json"
	}
	return "text"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
