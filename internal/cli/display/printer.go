// Package display renders records, chatter and attachments for the terminal.
package display

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"

	"github.com/semadox/odoo-ninja/internal/cli/model"
)

const na = "N/A"

// ANSI palette indices.
const (
	red     = lipgloss.Color("1")
	green   = lipgloss.Color("2")
	yellow  = lipgloss.Color("3")
	blue    = lipgloss.Color("4")
	magenta = lipgloss.Color("5")
	cyan    = lipgloss.Color("6")
	white   = lipgloss.Color("7")
)

var fieldColors = map[string]lipgloss.Color{
	"id":         cyan,
	"name":       green,
	"partner_id": yellow,
	"stage_id":   blue,
	"user_id":    magenta,
	"priority":   red,
	"project_id": blue,
}

// Printer writes styled output to one writer.
type Printer struct {
	out io.Writer
	r   *lipgloss.Renderer
}

// New returns a printer for w. noColor forces plain ASCII output without escape codes.
func New(w io.Writer, noColor bool) *Printer {
	r := lipgloss.NewRenderer(w)
	if noColor {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Printer{out: w, r: r}
}

func (p *Printer) fg(c lipgloss.Color) lipgloss.Style { return p.r.NewStyle().Foreground(c) }
func (p *Printer) bold() lipgloss.Style               { return p.r.NewStyle().Bold(true) }
func (p *Printer) dim() lipgloss.Style                { return p.r.NewStyle().Faint(true) }

func (p *Printer) println(a ...any) { _, _ = fmt.Fprintln(p.out, a...) }

// Success prints a green confirmation line.
func (p *Printer) Success(format string, a ...any) {
	p.println(p.fg(green).Render(fmt.Sprintf(format, a...)))
}

// Warn prints a yellow notice.
func (p *Printer) Warn(format string, a ...any) {
	p.println(p.fg(yellow).Render(fmt.Sprintf(format, a...)))
}

// Info prints a cyan progress line.
func (p *Printer) Info(format string, a ...any) {
	p.println(p.fg(cyan).Render(fmt.Sprintf(format, a...)))
}

// Dim prints a faint footer line.
func (p *Printer) Dim(format string, a ...any) {
	p.println(p.dim().Render(fmt.Sprintf(format, a...)))
}

// Plain prints text as is.
func (p *Printer) Plain(s string) { p.println(s) }

// Label prints "label: value" with a bold label.
func (p *Printer) Label(label string, value any) {
	p.println(p.bold().Render(label+":") + " " + fmt.Sprint(value))
}

// Title prints a bold cyan heading.
func (p *Printer) Title(s string) {
	p.println(p.bold().Foreground(cyan).Render(s))
}

func (p *Printer) table(title string, headers []string, rows [][]string, colour func(col int) lipgloss.Color) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.dim()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := p.r.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Bold(true)
			}
			return s.Foreground(colour(col))
		})
	if title != "" {
		p.println(p.bold().Render(title))
	}
	p.println(t.String())
}

// Records prints records as a table. Columns follow fields, or the record keys ("id" first)
// when fields is empty.
func (p *Printer) Records(title string, recs []model.Record, fields []string) {
	if len(recs) == 0 {
		p.Warn("No records found")
		return
	}
	cols := fields
	if len(cols) == 0 {
		cols = columns(recs[0])
	}
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = FormatCell(r[c])
		}
		rows = append(rows, row)
	}
	p.table(title, cols, rows, func(col int) lipgloss.Color {
		if c, ok := fieldColors[cols[col]]; ok {
			return c
		}
		return white
	})
}

func columns(r model.Record) []string {
	keys := r.Keys()
	out := make([]string, 0, len(keys))
	if _, ok := r["id"]; ok {
		out = append(out, "id")
	}
	for _, k := range keys {
		if k != "id" {
			out = append(out, k)
		}
	}
	return out
}

// Tags prints a tag table.
func (p *Printer) Tags(title string, tags []model.Tag) {
	rows := make([][]string, 0, len(tags))
	for _, t := range tags {
		rows = append(rows, []string{strconv.FormatInt(t.ID, 10), t.Name, strconv.FormatInt(t.Color, 10)})
	}
	palette := []lipgloss.Color{cyan, green, yellow}
	p.table(title, []string{"ID", "Name", "Color"}, rows, func(col int) lipgloss.Color { return palette[col] })
}

// Attachments prints attachment metadata.
func (p *Printer) Attachments(atts []model.Attachment) {
	rows := make([][]string, 0, len(atts))
	for _, a := range atts {
		rows = append(rows, []string{
			strconv.FormatInt(a.ID, 10),
			orDefault(a.Name, na),
			FormatSize(a.FileSize),
			orDefault(a.MimeType, na),
			orDefault(a.CreateDate, na),
		})
	}
	palette := []lipgloss.Color{cyan, green, yellow, blue, magenta}
	p.table("Attachments", []string{"ID", "Name", "Size", "Type", "Created"}, rows,
		func(col int) lipgloss.Color { return palette[col] })
}

// RawFields prints every field of a record as "name: value", sorted by name.
func (p *Printer) RawFields(rec model.Record) {
	for _, k := range rec.Keys() {
		p.Label(k, FormatRaw(rec[k]))
	}
}

// FormatCell renders a value for a table cell: empty values are N/A, many2one pairs show
// the display name.
func FormatCell(v any) string {
	if v == nil || v == false {
		return na
	}
	if pair, ok := v.([]any); ok && len(pair) == 2 {
		if _, isInt := pair[0].(int64); isInt {
			if name, isStr := pair[1].(string); isStr {
				return name
			}
		}
	}
	return FormatRaw(v)
}

// FormatRaw renders a value as it came from the server.
func FormatRaw(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		parts := make([]string, len(t))
		for i, x := range t {
			if s, ok := x.(string); ok {
				parts[i] = strconv.Quote(s)
			} else {
				parts[i] = FormatRaw(x)
			}
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = strconv.Quote(k) + ": " + FormatRaw(t[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprint(v)
}

// FormatSize renders bytes as KB with one decimal; zero is N/A.
func FormatSize(size int64) string {
	if size == 0 {
		return na
	}
	return fmt.Sprintf("%.1f KB", float64(size)/1024)
}
