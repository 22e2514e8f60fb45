package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/efebarandurmaz/socialgraph/internal/network"
)

// Icons used as line prefixes
const (
	IconSuccess = "✓"
	IconWarning = "⚠"
	IconError   = "✗"
	IconArrow   = "→"
	IconBullet  = "•"
)

// Printer renders command results to a writer. Styling follows the color
// profile detected for that writer, so output to a pipe or a buffer is plain.
type Printer struct {
	w        io.Writer
	renderer *lipgloss.Renderer
	styles   *Styles
	json     bool
}

// NewPrinter creates a printer for w. With asJSON set, structured results are
// written as indented JSON instead of styled text.
func NewPrinter(w io.Writer, asJSON bool) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{w: w, renderer: r, styles: NewStyles(r), json: asJSON}
}

// JSON reports whether structured results are written as JSON.
func (p *Printer) JSON() bool { return p.json }

func (p *Printer) line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *Printer) encode(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Success prints a confirmation line.
func (p *Printer) Success(format string, args ...any) {
	p.line("%s %s", p.styles.Success.Render(IconSuccess), fmt.Sprintf(format, args...))
}

// Warning prints a warning line.
func (p *Printer) Warning(format string, args ...any) {
	p.line("%s %s", p.styles.Warning.Render(IconWarning), fmt.Sprintf(format, args...))
}

// Error prints err as a failure line.
func (p *Printer) Error(err error) {
	p.line("%s %s", p.styles.Failure.Render(IconError), err.Error())
}

// Info prints muted informational text.
func (p *Printer) Info(format string, args ...any) {
	p.line("%s", p.styles.Muted.Render(fmt.Sprintf(format, args...)))
}

// Text prints preformatted text verbatim.
func (p *Printer) Text(s string) {
	fmt.Fprint(p.w, s)
	if !strings.HasSuffix(s, "\n") {
		fmt.Fprintln(p.w)
	}
}

// Member prints every attribute of m, set or not.
func (p *Printer) Member(m network.Member) error {
	if p.json {
		return p.encode(m)
	}
	p.line("%s", p.styles.Member.Render(m.ID))
	for _, key := range network.KnownAttributes {
		value, ok := m.Attribute(key)
		if !ok {
			value = p.styles.Muted.Render("unset")
		}
		label := string(key) + ":"
		p.line("  %s%s %s", p.styles.Attribute.Render(label), strings.Repeat(" ", max(0, 17-len(label))), value)
	}
	return nil
}

// Members prints one member per line with department and role.
func (p *Printer) Members(title string, members []network.Member) error {
	if p.json {
		if members == nil {
			members = []network.Member{}
		}
		return p.encode(members)
	}
	p.line("%s", p.styles.Title.Render(title))
	if len(members) == 0 {
		p.Info("  none")
		return nil
	}
	for _, m := range members {
		if d := describe(m); d != "" {
			p.line("  %s %s %s", IconBullet, p.styles.Member.Render(m.ID), p.styles.Attribute.Render(d))
			continue
		}
		p.line("  %s %s", IconBullet, p.styles.Member.Render(m.ID))
	}
	return nil
}

// IDs prints a titled list of member ids.
func (p *Printer) IDs(title string, ids []string) error {
	if p.json {
		if ids == nil {
			ids = []string{}
		}
		return p.encode(ids)
	}
	p.line("%s", p.styles.Title.Render(title))
	if len(ids) == 0 {
		p.Info("  none")
		return nil
	}
	for _, id := range ids {
		p.line("  %s %s", IconBullet, p.styles.Member.Render(id))
	}
	return nil
}

type pathResult struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Found    bool     `json:"found"`
	Distance int      `json:"distance"`
	Path     []string `json:"path"`
}

// Path prints the shortest path from one member to another.
func (p *Printer) Path(from, to string, path []string, found bool) error {
	if p.json {
		res := pathResult{From: from, To: to, Found: found, Distance: -1, Path: path}
		if found {
			res.Distance = len(path) - 1
		} else {
			res.Path = []string{}
		}
		return p.encode(res)
	}
	if !found {
		p.Warning("no path between %s and %s", from, to)
		return nil
	}
	p.line("%s", RenderPath(p.styles, path))
	p.Info("distance %d", len(path)-1)
	return nil
}

type distanceResult struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Found    bool   `json:"found"`
	Distance int    `json:"distance"`
}

// Distance prints the hop count between two members, or -1 in JSON when
// they are not connected.
func (p *Printer) Distance(from, to string, hops int, found bool) error {
	if p.json {
		res := distanceResult{From: from, To: to, Found: found, Distance: hops}
		if !found {
			res.Distance = -1
		}
		return p.encode(res)
	}
	if !found {
		p.Warning("no path between %s and %s", from, to)
		return nil
	}
	p.line("%d", hops)
	return nil
}

// RenderPath joins path ids with arrows.
func RenderPath(s *Styles, path []string) string {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = s.Member.Render(id)
	}
	return strings.Join(parts, " "+s.Arrow.Render(IconArrow)+" ")
}

// Suggestions prints ranked connection suggestions.
func (p *Printer) Suggestions(id string, suggestions []network.Suggestion) error {
	if p.json {
		if suggestions == nil {
			suggestions = []network.Suggestion{}
		}
		return p.encode(suggestions)
	}
	p.line("%s", p.styles.Title.Render("Suggestions for "+id))
	if len(suggestions) == 0 {
		p.Info("  none")
		return nil
	}
	for _, s := range suggestions {
		count := CountColor(p.renderer, s.SharedCount).Render(fmt.Sprintf("%d", s.SharedCount))
		p.line("  %s %s %s shared", IconBullet, p.styles.Member.Render(s.ID), count)
	}
	return nil
}

// Box prints s inside a rounded border.
func (p *Printer) Box(s string) {
	p.line("%s", p.styles.Border.Render(strings.TrimRight(s, "\n")))
}

// Value prints v as JSON regardless of mode.
func (p *Printer) Value(v any) error { return p.encode(v) }

func describe(m network.Member) string {
	dept, role := m.Department(), m.Role()
	switch {
	case dept != "" && role != "":
		return fmt.Sprintf("(%s, %s)", dept, role)
	case dept != "":
		return fmt.Sprintf("(%s)", dept)
	case role != "":
		return fmt.Sprintf("(%s)", role)
	}
	return ""
}
