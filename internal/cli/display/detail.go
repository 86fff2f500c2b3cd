package display

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/semadox/odoo-ninja/internal/cli/htmltext"
	"github.com/semadox/odoo-ninja/internal/cli/model"
	"github.com/semadox/odoo-ninja/internal/cli/model/view"
)

// Detail prints one record. The description is shown as Markdown unless html is set.
func (p *Printer) Detail(label string, d view.RecordDetail, html bool) {
	p.println()
	p.Title(fmt.Sprintf("%s #%d", label, d.ID))
	p.Label("Name", d.Name)
	if d.Partner != "" {
		p.Label("Partner", d.Partner)
	}
	if d.Stage != "" {
		p.Label("Stage", d.Stage)
	}
	if d.AssignedTo != "" {
		p.Label("Assigned To", d.AssignedTo)
	}
	if d.Project != "" {
		p.Label("Project", d.Project)
	}
	if d.HasPriority {
		p.Label("Priority", d.Priority)
	}
	if d.Description != "" {
		desc := d.Description
		if !html {
			desc = htmltext.ToMarkdown(desc)
		}
		p.println()
		p.println(p.bold().Render("Description:"))
		p.println(desc)
	}
	if len(d.TagIDs) > 0 {
		ids := make([]string, len(d.TagIDs))
		for i, id := range d.TagIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		p.println()
		p.Label("Tags", strings.Join(ids, ", "))
	}
}

// Messages prints chatter entries in the given order, separated by a rule.
// Bodies are reduced to plain text unless html is set.
func (p *Printer) Messages(msgs []model.Message, html bool) {
	if len(msgs) == 0 {
		p.Warn("No messages found")
		return
	}
	p.println()
	p.Title(fmt.Sprintf("Message History (%d messages)", len(msgs)))
	p.println()
	for i, m := range msgs {
		date := m.Date
		if date == "" {
			date = na
		}
		p.println(p.bold().Render(fmt.Sprintf("Message #%d", i+1)) + " " + p.dim().Render("("+date+")"))
		p.println(p.fg(cyan).Render("From:") + " " + m.Author())
		p.println(p.fg(cyan).Render("Type:") + " " + m.Kind())
		if m.Subject != "" {
			p.println(p.fg(cyan).Render("Subject:") + " " + m.Subject)
		}
		if m.Body != "" {
			body := m.Body
			if !html {
				body = htmltext.ToText(body)
			}
			if body != "" {
				p.println()
				p.println(body)
				p.println()
			}
		}
		if i < len(msgs)-1 {
			p.println(p.dim().Render(strings.Repeat("─", 80)))
			p.println()
		}
	}
}

// FieldList prints "name (type) - label" for every field, sorted by name.
func (p *Printer) FieldList(title string, fields map[string]model.FieldMeta) {
	p.println()
	p.Title(title)
	p.println()
	names := make([]string, 0, len(fields))
	for n := range fields {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		f := fields[n]
		typ := orDefault(f.Type, "unknown")
		label := orDefault(f.Label, n)
		p.println(fmt.Sprintf("%s (%s) - %s", p.fg(cyan).Render(n), typ, label))
	}
	p.println()
	p.Dim("Total: %d fields", len(fields))
	p.Dim("Use --field-name to see details for a specific field")
}

// FieldDetail prints one field definition.
func (p *Printer) FieldDetail(f model.FieldMeta) {
	p.println(p.bold().Render(f.Name))
	p.println("  Type: " + orDefault(f.Type, na))
	p.println("  String: " + orDefault(f.Label, na))
	p.println("  Required: " + strconv.FormatBool(f.Required))
	p.println("  Readonly: " + strconv.FormatBool(f.Readonly))
	if f.Relation != "" {
		p.println("  Relation: " + f.Relation)
	}
	if len(f.Selection) > 0 {
		opts := make([]string, len(f.Selection))
		for i, s := range f.Selection {
			opts[i] = s[0] + "=" + s[1]
		}
		p.println("  Selection: " + strings.Join(opts, ", "))
	}
	if f.Help != "" {
		p.println("  Help: " + f.Help)
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
