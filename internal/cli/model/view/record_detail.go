package view

import "github.com/semadox/odoo-ninja/internal/cli/model"

// RecordDetail is the display form of one record; relation fields are already resolved to names.
type RecordDetail struct {
	ID          int64
	Name        string
	Partner     string
	Stage       string
	AssignedTo  string
	Project     string
	Priority    string
	HasPriority bool
	Description string // HTML как пришёл с сервера
	TagIDs      []int64
}

// FromRecord builds the detail view. Relation fields show their display name, never the raw pair.
func FromRecord(r model.Record) RecordDetail {
	d := RecordDetail{
		ID:          r.ID(),
		Name:        r.String("name"),
		Description: r.String("description"),
		TagIDs:      r.IDs("tag_ids"),
	}
	d.Partner = relationName(r, "partner_id")
	d.Stage = relationName(r, "stage_id")
	d.AssignedTo = relationName(r, "user_id")
	d.Project = relationName(r, "project_id")
	if v, ok := r["priority"]; ok {
		d.HasPriority = true
		d.Priority = "0"
		if model.Truthy(v) {
			d.Priority = r.String("priority")
		}
	}
	return d
}

func relationName(r model.Record, field string) string {
	if _, name, ok := r.Many2One(field); ok {
		return name
	}
	return ""
}
