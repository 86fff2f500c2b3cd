package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/semadox/odoo-ninja/internal/cli/display"
	"github.com/semadox/odoo-ninja/internal/cli/entity"
	"github.com/semadox/odoo-ninja/internal/cli/model/view"
	"github.com/semadox/odoo-ninja/internal/cli/service"
)

// newKindCmd builds the command group of one record kind.
func newKindCmd(rt *runtime, k entity.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   k.Command,
		Short: k.Short,
		Args:  cobra.ArbitraryArgs,
		RunE:  groupHelp,
	}
	cmd.AddCommand(
		newListCmd(rt, k),
		newShowCmd(rt, k),
		newCommentCmd(rt, k),
		newNoteCmd(rt, k),
		newTagsCmd(rt, k),
		newTagCmd(rt, k),
		newChatterCmd(rt, k),
		newAttachmentsCmd(rt, k),
		newDownloadCmd(rt, k),
		newDownloadAllCmd(rt, k),
		newFieldsCmd(rt, k),
		newSetCmd(rt, k),
		newAttachCmd(rt, k),
		newURLCmd(rt, k),
	)
	return cmd
}

func newListCmd(rt *runtime, k entity.Kind) *cobra.Command {
	var (
		limit  int
		fields []string
	)
	filters := make(map[string]*string, len(k.Filters))

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List " + k.Plural,
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := rt.records()
			if err != nil {
				return err
			}
			values := make(map[string]string, len(filters))
			for flag, v := range filters {
				values[flag] = *v
			}
			if len(fields) == 0 {
				fields = k.ListFields
			}
			if limit == 0 {
				limit = -1 // 0 в командной строке означает "без ограничения"
			}
			recs, err := svc.List(cmd.Context(), k.Model, service.ListOptions{
				Domain: k.Domain(values),
				Limit:  limit,
				Fields: fields,
			})
			if err != nil {
				return err
			}
			p := rt.p()
			p.Records(k.Title, recs, fields)
			p.Plain("")
			p.Dim("Found %d %s", len(recs), k.Plural)
			return nil
		},
	}
	for _, f := range k.Filters {
		filters[f.Flag] = cmd.Flags().String(f.Flag, "", f.Usage)
	}
	cmd.Flags().IntVar(&limit, "limit", service.DefaultListLimit, fmt.Sprintf("Maximum number of %s (0 for all)", k.Plural))
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "Specific fields to fetch (can be used multiple times)")
	return cmd
}

func newShowCmd(rt *runtime, k entity.Kind) *cobra.Command {
	var (
		fields []string
		html   bool
	)
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: fmt.Sprintf("Show detailed %s information", k.Noun),
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(k.Noun+" id", args[0])
			if err != nil {
				return err
			}
			svc, err := rt.records()
			if err != nil {
				return err
			}
			rec, err := svc.Get(cmd.Context(), k.Model, id, fields)
			if err != nil {
				return err
			}
			p := rt.p()
			if len(fields) > 0 {
				p.Plain("")
				p.Title(fmt.Sprintf("%s #%d", k.Label, id))
				p.Plain("")
				p.RawFields(rec)
				return nil
			}
			p.Detail(k.Label, view.FromRecord(rec), html)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "Specific fields to fetch (can be used multiple times)")
	cmd.Flags().BoolVar(&html, "html", false, "Show raw HTML description instead of markdown")
	return cmd
}

func newURLCmd(rt *runtime, k entity.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "url <id>",
		Short: fmt.Sprintf("Get the web URL for a %s", k.Noun),
		Args:  exactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID(k.Noun+" id", args[0])
			if err != nil {
				return err
			}
			svc, err := rt.records()
			if err != nil {
				return err
			}
			rt.p().Plain(svc.URL(k.Model, id))
			return nil
		},
	}
}

func newFieldsCmd(rt *runtime, k entity.Kind) *cobra.Command {
	var fieldName string
	cmd := &cobra.Command{
		Use:   "fields [id]",
		Short: fmt.Sprintf("List available fields or show field values for a specific %s", k.Noun),
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			if len(args) == 1 {
				var err error
				if id, err = parseID(k.Noun+" id", args[0]); err != nil {
					return err
				}
			}
			svc, err := rt.records()
			if err != nil {
				return err
			}
			p := rt.p()

			if id > 0 {
				rec, err := svc.Get(cmd.Context(), k.Model, id, nil)
				if err != nil {
					return err
				}
				p.Plain("")
				p.Title(fmt.Sprintf("Fields for %s #%d", k.Label, id))
				p.Plain("")
				if fieldName == "" {
					p.RawFields(rec)
					return nil
				}
				if v, ok := rec[fieldName]; ok {
					p.Label(fieldName, display.FormatRaw(v))
				} else {
					p.Warn("Field '%s' not found", fieldName)
				}
				return nil
			}

			fields, err := svc.Fields(cmd.Context(), k.Model)
			if err != nil {
				return err
			}
			title := fmt.Sprintf("Available %s Fields", k.Label)
			if fieldName == "" {
				p.FieldList(title, fields)
				return nil
			}
			p.Plain("")
			p.Title(title)
			p.Plain("")
			if f, ok := fields[fieldName]; ok {
				p.FieldDetail(f)
			} else {
				p.Warn("Field '%s' not found", fieldName)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fieldName, "field-name", "", "Show details for a specific field")
	return cmd
}

func newSetCmd(rt *runtime, k entity.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "set <id> <field=value>...",
		Short: fmt.Sprintf("Set field values on a %s", k.Noun),
		Long: fmt.Sprintf(`Set field values on a %[1]s.

Values are typed automatically: integers, floats, true/false, quoted strings,
json:<value> for lists and commands. +=, -=, *= and /= update numeric fields.`, k.Noun),
		Example: fmt.Sprintf(`  odoo-ninja %[1]s set 42 priority=2 name="New Title"
  odoo-ninja %[1]s set 42 user_id=5 stage_id=3
  odoo-ninja %[1]s set 42 'tag_ids=json:[[6,0,[1,2,3]]]'
  odoo-ninja %[1]s set 42 planned_hours+=1.5`, k.Command),
		Args: minArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(k.Noun+" id", args[0])
			if err != nil {
				return err
			}
			svc, err := rt.records()
			if err != nil {
				return err
			}
			done, err := svc.Assign(cmd.Context(), k.Model, id, args[1:])
			if err != nil {
				return err
			}
			p := rt.p()
			p.Success("Successfully updated %s %d", k.Noun, id)
			for _, a := range done {
				p.Plain(fmt.Sprintf("  %s = %s", a.Field, a.Value.Literal()))
			}
			return nil
		},
	}
}
