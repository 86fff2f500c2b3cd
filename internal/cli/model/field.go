package model

import "fmt"

// FieldMeta describes one field as reported by fields_get.
type FieldMeta struct {
	Name      string
	Type      string
	Label     string
	Required  bool
	Readonly  bool
	Help      string
	Relation  string
	Selection [][2]string
}

// FieldMetaFromMap decodes one fields_get entry.
func FieldMetaFromMap(name string, m map[string]any) FieldMeta {
	r := Record(m)
	f := FieldMeta{
		Name:     name,
		Type:     r.String("type"),
		Label:    r.String("string"),
		Required: r.Has("required"),
		Readonly: r.Has("readonly"),
		Help:     r.String("help"),
		Relation: r.String("relation"),
	}
	if sel, ok := m["selection"].([]any); ok {
		for _, opt := range sel {
			pair, ok := opt.([]any)
			if !ok || len(pair) != 2 {
				continue
			}
			f.Selection = append(f.Selection, [2]string{fmt.Sprint(pair[0]), fmt.Sprint(pair[1])})
		}
	}
	return f
}
