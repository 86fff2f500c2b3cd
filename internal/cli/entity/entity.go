// Package entity describes the record kinds the CLI works with.
package entity

import "github.com/semadox/odoo-ninja/internal/cli/model"

// Filter maps a list flag to a domain path compared with ilike.
type Filter struct {
	Flag  string
	Path  string
	Usage string
}

// Kind is the per-model configuration behind one command group.
type Kind struct {
	Command  string // command group name, e.g. "project-task"
	Short    string
	Model    string
	TagModel string
	Label    string // "Ticket"
	Noun     string // "ticket"
	Plural   string // "tickets"
	Title    string // list table heading
	Audience string // who sees a comment
	// ListFields are fetched by list when no --field is given.
	ListFields []string
	Filters    []Filter
}

var (
	Ticket = Kind{
		Command:    "helpdesk",
		Short:      "Helpdesk ticket operations",
		Model:      "helpdesk.ticket",
		TagModel:   "helpdesk.tag",
		Label:      "Ticket",
		Noun:       "ticket",
		Plural:     "tickets",
		Title:      "Helpdesk Tickets",
		Audience:   "customers",
		ListFields: []string{"id", "name", "partner_id", "stage_id", "user_id", "priority", "tag_ids", "create_date"},
		Filters: []Filter{
			{Flag: "stage", Path: "stage_id.name", Usage: "Filter by stage name"},
			{Flag: "partner", Path: "partner_id.name", Usage: "Filter by partner name"},
			{Flag: "assigned-to", Path: "user_id.name", Usage: "Filter by assigned user name"},
		},
	}

	Task = Kind{
		Command:    "project-task",
		Short:      "Project task operations",
		Model:      "project.task",
		TagModel:   "project.tags",
		Label:      "Task",
		Noun:       "task",
		Plural:     "tasks",
		Title:      "Project Tasks",
		Audience:   "followers",
		ListFields: []string{"id", "name", "partner_id", "project_id", "stage_id", "user_ids", "priority", "tag_ids", "create_date"},
		Filters: []Filter{
			{Flag: "project", Path: "project_id.name", Usage: "Filter by project name"},
			{Flag: "stage", Path: "stage_id.name", Usage: "Filter by stage name"},
			{Flag: "assigned-to", Path: "user_ids.name", Usage: "Filter by assigned user name"},
		},
	}

	Project = Kind{
		Command:    "project",
		Short:      "Project operations",
		Model:      "project.project",
		TagModel:   "project.tags",
		Label:      "Project",
		Noun:       "project",
		Plural:     "projects",
		Title:      "Projects",
		Audience:   "followers",
		ListFields: []string{"id", "name", "user_id", "partner_id", "date_start", "date", "task_count", "color"},
		Filters: []Filter{
			{Flag: "name", Path: "name", Usage: "Filter by project name"},
			{Flag: "user", Path: "user_id.name", Usage: "Filter by project manager name"},
			{Flag: "partner", Path: "partner_id.name", Usage: "Filter by partner name"},
		},
	}
)

// All returns the kinds in command order.
func All() []Kind { return []Kind{Ticket, Task, Project} }

// Domain builds ilike leaves for every non-empty filter value, in filter order.
func (k Kind) Domain(values map[string]string) model.Domain {
	d := model.Domain{}
	for _, f := range k.Filters {
		if v := values[f.Flag]; v != "" {
			d = d.And(model.Leaf(f.Path, "ilike", v))
		}
	}
	return d
}
