// Package report renders working sets, name statistics and rename outcomes
// as plain text. It makes no decisions and never touches the host document.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/JamesPrial/scene-namer/internal/naming"
	"github.com/JamesPrial/scene-namer/pkg/errors"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Theme holds the colors used when output goes to a terminal
type Theme struct {
	Heading lipgloss.Color
	Marker  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

var defaultTheme = Theme{
	Heading: lipgloss.Color("#5FAFD7"),
	Marker:  lipgloss.Color("#FBBF24"),
	Success: lipgloss.Color("#00D787"),
	Error:   lipgloss.Color("#FF005F"),
	Hint:    lipgloss.Color("#6C6C6C"),
}

type styles struct {
	heading lipgloss.Style
	marker  lipgloss.Style
	success lipgloss.Style
	err     lipgloss.Style
	hint    lipgloss.Style
}

func (t Theme) styles() styles {
	return styles{
		heading: lipgloss.NewStyle().Foreground(t.Heading).Bold(true),
		marker:  lipgloss.NewStyle().Foreground(t.Marker).Bold(true),
		success: lipgloss.NewStyle().Foreground(t.Success),
		err:     lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		hint:    lipgloss.NewStyle().Foreground(t.Hint).Italic(true),
	}
}

// Reporter writes human-readable output to w
type Reporter struct {
	w            io.Writer
	styled       bool
	styles       styles
	descriptions bool
}

// Option configures a Reporter
type Option func(*Reporter)

// WithStyle forces styling on or off
func WithStyle(on bool) Option {
	return func(r *Reporter) { r.styled = on }
}

// WithTheme replaces the default colors
func WithTheme(t Theme) Option {
	return func(r *Reporter) { r.styles = t.styles() }
}

// WithDescriptions controls whether listings print entity descriptions
func WithDescriptions(on bool) Option {
	return func(r *Reporter) { r.descriptions = on }
}

// New creates a reporter. Styling is on only when w is a terminal.
func New(w io.Writer, opts ...Option) *Reporter {
	r := &Reporter{
		w:            w,
		styled:       IsTerminal(w),
		styles:       defaultTheme.styles(),
		descriptions: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsTerminal reports whether w is a file attached to a terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (r *Reporter) render(style lipgloss.Style, s string) string {
	if !r.styled {
		return s
	}
	return style.Render(s)
}

func (r *Reporter) println(s string) {
	fmt.Fprintln(r.w, s)
}

func (r *Reporter) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.w, format, args...)
}

func (r *Reporter) blank() {
	fmt.Fprintln(r.w)
}

// Line writes a plain message
func (r *Reporter) Line(s string) {
	r.println(s)
}

// Done writes a completion message followed by a blank line
func (r *Reporter) Done(s string) {
	r.println(r.render(r.styles.success, s))
	r.blank()
}

// NoObjects reports an empty working set
func (r *Reporter) NoObjects() {
	r.println("No objects found.")
}

// AllUnique reports that nothing needs renaming
func (r *Reporter) AllUnique() {
	r.println("All object names are already unique.")
}

// Stats writes the name statistics block for idx
func (r *Reporter) Stats(idx *naming.NameIndex) {
	r.println(r.render(r.styles.heading, "----- Object Name Statistics -----"))
	r.printf("Total objects: %d\n", idx.TotalEntities)
	r.printf("Distinct names: %d\n", idx.DistinctNames)
	r.printf("Duplicate name groups: %d\n", idx.DuplicateGroupCount)
	r.printf("Total duplicate instances: %d\n", idx.DuplicateInstanceCount)
	r.blank()

	dups := idx.Duplicates()
	if len(dups) == 0 {
		r.println("No duplicate names detected.")
		r.blank()
		return
	}
	r.println("Duplicate name frequencies:")
	for _, g := range dups {
		r.printf("  Name: %s  Count: %d\n", g.Name, g.Size())
	}
	r.blank()
}

// List writes every entity of ws in order. An entity whose name already
// appeared earlier in the listing is marked as a duplicate.
func (r *Reporter) List(ws *naming.WorkingSet) {
	r.println(r.render(r.styles.heading, "----- Object List -----"))
	r.printf("Listing %d objects\n", ws.Len())
	r.blank()

	seen := make(map[string]struct{}, ws.Len())
	for _, e := range ws.Entities {
		if _, dup := seen[e.Name]; dup {
			r.println(r.render(r.styles.marker, "** DUPLICATE **"))
		}
		seen[e.Name] = struct{}{}

		r.printf("Object Name: %s\n", e.Name)
		if r.descriptions {
			r.printf("Object Description: %s\n", e.Description)
		}
		r.blank()
	}
}

// Outcome writes the per-entity lines and the final tally of an applied plan
func (r *Reporter) Outcome(plan *naming.Plan, result *naming.Result) {
	r.println(r.render(r.styles.heading, "----- Renaming Duplicates -----"))

	failed := make(map[string]error, len(result.Failures))
	for _, f := range result.Failures {
		failed[f.ID] = f.Err
	}

	for _, rn := range plan.Renames {
		switch {
		case result.DryRun:
			r.printf("[DRY] %s: '%s' -> '%s'\n", rn.ID, rn.OldName, rn.NewName)
		case failed[rn.ID] != nil:
			r.println(r.render(r.styles.err,
				fmt.Sprintf("Failed: '%s' -> '%s': %s", rn.OldName, rn.NewName, errors.GetInternal(failed[rn.ID]).Error())))
		default:
			r.printf("Renamed: '%s' -> '%s'\n", rn.OldName, rn.NewName)
		}
	}
	for _, s := range plan.Skipped {
		r.println(r.render(r.styles.err,
			fmt.Sprintf("Skipped: %s '%s': %s", s.ID, s.Name, errors.GetMessage(s.Err))))
	}

	r.blank()
	if result.DryRun {
		r.printf("[DRY] Done. Renamed 0 object(s), %d planned.\n", plan.Len())
	} else {
		r.printf("Done. Renamed %d object(s).\n", result.Renamed)
	}
	if n := len(result.Failures); n > 0 {
		r.printf("%d rename(s) were rejected by the document.\n", n)
	}
	if n := len(plan.Skipped); n > 0 {
		r.printf("%d object(s) skipped: no free suffix.\n", n)
	}
	if result.Final != nil && !result.Final.Unique() {
		r.println(r.render(r.styles.hint,
			fmt.Sprintf("Duplicate name groups remaining: %d", result.Final.DuplicateGroupCount)))
	}
}

// Error renders err for the user
func (r *Reporter) Error(err error) {
	switch errors.GetCode(err) {
	case errors.ErrCodeEmptySelection:
		r.println("Selected only mode is ON but no objects are selected.")
		r.println("Please select some objects and run the toolbox again.")
	default:
		r.println(r.render(r.styles.err,
			fmt.Sprintf("Error [%s]: %s", errors.GetCode(err), errors.GetMessage(err))))
	}
	r.blank()
}
