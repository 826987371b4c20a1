package formatters

import (
	"fmt"
	"strings"

	"careertools/internal/render"
)

// style abstracts the differences between text and markdown output
type style interface {
	title(b *strings.Builder, s string)
	tab(b *strings.Builder, s string, active bool)
	section(b *strings.Builder, s string)
	bullet(b *strings.Builder, depth int, s string)
}

type textStyle struct{}

func (textStyle) title(b *strings.Builder, s string) {
	fmt.Fprintf(b, "=== %s ===\n", strings.ToUpper(s))
}

func (textStyle) tab(b *strings.Builder, s string, active bool) {
	if active {
		fmt.Fprintf(b, "\n--- [%s] ---\n", s)
		return
	}
	fmt.Fprintf(b, "\n--- %s ---\n", s)
}

func (textStyle) section(b *strings.Builder, s string) {
	fmt.Fprintf(b, "\n%s:\n", s)
}

func (textStyle) bullet(b *strings.Builder, depth int, s string) {
	fmt.Fprintf(b, "%s- %s\n", strings.Repeat("  ", depth+1), s)
}

type markdownStyle struct{}

func (markdownStyle) title(b *strings.Builder, s string) {
	fmt.Fprintf(b, "# %s\n", s)
}

func (markdownStyle) tab(b *strings.Builder, s string, active bool) {
	if active {
		fmt.Fprintf(b, "\n## %s (active)\n", s)
		return
	}
	fmt.Fprintf(b, "\n## %s\n", s)
}

func (markdownStyle) section(b *strings.Builder, s string) {
	fmt.Fprintf(b, "\n### %s\n\n", s)
}

func (markdownStyle) bullet(b *strings.Builder, depth int, s string) {
	fmt.Fprintf(b, "%s- %s\n", strings.Repeat("  ", depth), s)
}

// viewWriter renders a View. A nil state renders every tab fully expanded.
type viewWriter struct {
	style style
	state *render.State
}

func (w viewWriter) write(v *render.View) string {
	var b strings.Builder
	w.style.title(&b, v.Title)
	if v.Summary != "" {
		b.WriteString("\n" + v.Summary + "\n")
	}

	if w.state != nil {
		tabs := make([]string, len(v.Tabs))
		for i, t := range v.Tabs {
			tabs[i] = t.Title
			if t.ID == w.state.ActiveTab {
				tabs[i] = "[" + t.Title + "]"
			}
		}
		b.WriteString("\nTabs: " + strings.Join(tabs, " | ") + "\n")
	}

	for _, tab := range v.Tabs {
		if w.state != nil && tab.ID != w.state.ActiveTab {
			continue
		}
		w.style.tab(&b, tab.Title, w.state != nil)
		for _, s := range tab.Sections {
			w.writeSection(&b, s)
		}
	}
	return b.String()
}

func (w viewWriter) expanded(id string) bool {
	return w.state == nil || w.state.IsExpanded(id)
}

func (w viewWriter) writeSection(b *strings.Builder, s render.Section) {
	w.style.section(b, s.Title)
	if s.IsEmpty() {
		w.style.bullet(b, 0, s.Placeholder)
		return
	}

	switch s.Kind {
	case render.KindGauge:
		g := s.Gauge
		line := fmt.Sprintf("%s: %s/%s %s", g.Label, trimFloat(g.Value), trimFloat(g.Max), bar(g.Value, g.Max, 20))
		if g.Caption != "" {
			line += " " + g.Caption
		}
		w.style.bullet(b, 0, line)
	case render.KindStats:
		for _, st := range s.Stats {
			w.style.bullet(b, 0, st.Label+": "+st.Value)
		}
	case render.KindCards:
		for _, c := range s.Cards {
			w.writeCard(b, c)
		}
	case render.KindTimeline:
		for _, p := range s.Phases {
			head := p.Title
			if p.Subtitle != "" {
				head += " (" + p.Subtitle + ")"
			}
			open := w.expanded(p.ID)
			w.style.bullet(b, 0, marker(open, w.state != nil)+head)
			if open {
				for _, item := range p.Items {
					w.style.bullet(b, 1, item)
				}
			}
		}
	case render.KindMap:
		for _, m := range s.Markers {
			line := fmt.Sprintf("%s (%.2f, %.2f) %s", m.Label, m.Lat, m.Lng, bar(m.Intensity, 1, 10))
			if w.state != nil && w.state.SelectedMarker == m.ID {
				line = "* " + line
			}
			w.style.bullet(b, 0, line)
		}
	case render.KindList:
		for _, item := range s.Items {
			w.style.bullet(b, 0, item)
		}
	case render.KindText:
		b.WriteString(strings.TrimSpace(s.Text) + "\n")
	}
}

func (w viewWriter) writeCard(b *strings.Builder, c render.Card) {
	head := c.Title
	if c.Rank > 0 {
		head = fmt.Sprintf("%d. %s", c.Rank, c.Title)
	}
	if c.Subtitle != "" {
		head += " - " + c.Subtitle
	}
	open := w.expanded(c.ID)
	w.style.bullet(b, 0, marker(open, w.state != nil && len(c.Details) > 0)+head)
	for _, st := range c.Stats {
		w.style.bullet(b, 1, st.Label+": "+st.Value)
	}
	if len(c.Tags) > 0 {
		w.style.bullet(b, 1, "Tags: "+strings.Join(c.Tags, ", "))
	}
	if open {
		for _, d := range c.Details {
			w.style.bullet(b, 1, d)
		}
	}
}

func marker(open, interactive bool) string {
	if !interactive {
		return ""
	}
	if open {
		return "[-] "
	}
	return "[+] "
}

func bar(value, limit float64, width int) string {
	if limit <= 0 {
		return ""
	}
	filled := int(value / limit * float64(width))
	filled = min(max(filled, 0), width)
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%.1f", f)
}

// ViewTextFormatter prints every tab of a view with all details
type ViewTextFormatter struct{}

func (f *ViewTextFormatter) Format(data any) (string, error) {
	v, ok := data.(*render.View)
	if !ok || v == nil {
		return "", fmt.Errorf("expected *render.View, got %T", data)
	}
	return viewWriter{style: textStyle{}}.write(v), nil
}

func (f *ViewTextFormatter) SupportedType() string { return "View" }

// ViewMarkdownFormatter prints every tab of a view as markdown
type ViewMarkdownFormatter struct{}

func (f *ViewMarkdownFormatter) Format(data any) (string, error) {
	v, ok := data.(*render.View)
	if !ok || v == nil {
		return "", fmt.Errorf("expected *render.View, got %T", data)
	}
	return viewWriter{style: markdownStyle{}}.write(v), nil
}

func (f *ViewMarkdownFormatter) SupportedType() string { return "View" }

// ScreenTextFormatter prints the active tab only
type ScreenTextFormatter struct{}

func (f *ScreenTextFormatter) Format(data any) (string, error) {
	s, ok := data.(Screen)
	if !ok || s.View == nil {
		return "", fmt.Errorf("expected Screen, got %T", data)
	}
	return viewWriter{style: textStyle{}, state: &s.State}.write(s.View), nil
}

func (f *ScreenTextFormatter) SupportedType() string { return "Screen" }

// ScreenMarkdownFormatter prints the active tab only, as markdown
type ScreenMarkdownFormatter struct{}

func (f *ScreenMarkdownFormatter) Format(data any) (string, error) {
	s, ok := data.(Screen)
	if !ok || s.View == nil {
		return "", fmt.Errorf("expected Screen, got %T", data)
	}
	return viewWriter{style: markdownStyle{}, state: &s.State}.write(s.View), nil
}

func (f *ScreenMarkdownFormatter) SupportedType() string { return "Screen" }
