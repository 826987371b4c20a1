// Package render turns a tool result into a tabbed View that front ends draw.
//
// Layouts are pure: the same payload always yields the same View. Interactive
// state (active tab, expanded card, selected marker) lives in State.
package render

import (
	"fmt"
	"strings"

	"careertools/internal/types"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// SectionKind selects how a section is drawn
type SectionKind string

const (
	KindGauge    SectionKind = "gauge"
	KindStats    SectionKind = "stats"
	KindCards    SectionKind = "cards"
	KindTimeline SectionKind = "timeline"
	KindMap      SectionKind = "map"
	KindList     SectionKind = "list"
	KindText     SectionKind = "text"
)

// View is the rendered form of one result
type View struct {
	Tool       types.ToolKind `json:"tool"`
	Title      string         `json:"title"`
	Summary    string         `json:"summary,omitempty"`
	Tabs       []Tab          `json:"tabs"`
	DefaultTab string         `json:"defaultTab"`
}

// Tab groups sections under one heading
type Tab struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// Section is one block of a tab. Only the fields matching Kind are set.
type Section struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Kind    SectionKind `json:"kind"`
	Gauge   *Gauge      `json:"gauge,omitempty"`
	Stats   []Stat      `json:"stats,omitempty"`
	Cards   []Card      `json:"cards,omitempty"`
	Phases  []Phase     `json:"phases,omitempty"`
	Markers []Marker    `json:"markers,omitempty"`
	Items   []string    `json:"items,omitempty"`
	Text    string      `json:"text,omitempty"`
	// Placeholder is shown when the section has nothing to draw
	Placeholder string `json:"placeholder,omitempty"`
}

// Gauge is a bounded score
type Gauge struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Max     float64 `json:"max"`
	Caption string  `json:"caption,omitempty"`
}

// Stat is a labelled value
type Stat struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Card is an expandable entry. Details are shown only when expanded.
type Card struct {
	ID       string   `json:"id"`
	Rank     int      `json:"rank,omitempty"`
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle,omitempty"`
	Stats    []Stat   `json:"stats,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Details  []string `json:"details,omitempty"`
}

// Phase is one entry of a timeline
type Phase struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle,omitempty"`
	Items    []string `json:"items,omitempty"`
}

// Marker is a point on the opportunity map
type Marker struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Intensity float64 `json:"intensity"`
}

// Tab returns the tab with the given id
func (v *View) Tab(id string) (*Tab, bool) {
	for i := range v.Tabs {
		if v.Tabs[i].ID == id {
			return &v.Tabs[i], true
		}
	}
	return nil, false
}

// Section returns the section with the given id within the tab
func (t *Tab) Section(id string) (*Section, bool) {
	for i := range t.Sections {
		if t.Sections[i].ID == id {
			return &t.Sections[i], true
		}
	}
	return nil, false
}

// Markers returns every map marker in the view
func (v *View) Markers() []Marker {
	var out []Marker
	for _, tab := range v.Tabs {
		for _, s := range tab.Sections {
			out = append(out, s.Markers...)
		}
	}
	return out
}

// hasExpandable reports whether id names a card or phase in the view
func (v *View) hasExpandable(id string) bool {
	for _, tab := range v.Tabs {
		for _, s := range tab.Sections {
			for _, c := range s.Cards {
				if c.ID == id {
					return true
				}
			}
			for _, p := range s.Phases {
				if p.ID == id {
					return true
				}
			}
		}
	}
	return false
}

// IsEmpty reports whether the section has nothing to draw besides its placeholder
func (s Section) IsEmpty() bool {
	return s.Gauge == nil && len(s.Stats) == 0 && len(s.Cards) == 0 && len(s.Phases) == 0 &&
		len(s.Markers) == 0 && len(s.Items) == 0 && strings.TrimSpace(s.Text) == ""
}

var printer = message.NewPrinter(language.English)

func money(amount float64, currency string) string {
	s := printer.Sprintf("%.0f", amount)
	if currency == "" {
		return s
	}
	return currency + " " + s
}

func moneyRange(lo, hi float64, currency string) string {
	if currency == "" {
		return printer.Sprintf("%.0f - %.0f", lo, hi)
	}
	return currency + " " + printer.Sprintf("%.0f - %.0f", lo, hi)
}

// score rounds to whole points; backends may send fractional scores
func score(v float64, of int) string {
	return fmt.Sprintf("%.0f/%d", v, of)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	dash := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// cardID builds a view-unique id from a prefix, position and label
func cardID(prefix string, i int, label string) string {
	if s := slug(label); s != "" {
		return fmt.Sprintf("%s-%d-%s", prefix, i+1, s)
	}
	return fmt.Sprintf("%s-%d", prefix, i+1)
}

func listSection(id, title string, items []string, placeholder string) Section {
	return Section{ID: id, Title: title, Kind: KindList, Items: items, Placeholder: placeholder}
}

func textSection(id, title, text string) Section {
	return Section{ID: id, Title: title, Kind: KindText, Text: text, Placeholder: "No summary provided."}
}
