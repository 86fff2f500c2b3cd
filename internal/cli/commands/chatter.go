package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/semadox/odoo-ninja/internal/cli/entity"
	"github.com/semadox/odoo-ninja/internal/cli/service"
)

// ErrHarmfulDisabled is returned by comment unless harmful operations are allowed.
var ErrHarmfulDisabled = errors.New("Posting public comments is disabled")

type postFlags struct {
	userID   int64
	as       string
	markdown bool
}

func (f *postFlags) bind(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.userID, "user-id", 0, "User ID to post as (uses default if not set)")
	cmd.Flags().StringVar(&f.as, "as", "", "Login of the user to post as")
	cmd.Flags().BoolVarP(&f.markdown, "markdown", "m", false, "Treat message as markdown and convert to HTML")
}

func (f *postFlags) options(cmd *cobra.Command, svc service.RecordService) (service.CommentOptions, error) {
	opts := service.CommentOptions{UserID: f.userID, Markdown: f.markdown}
	if f.as != "" && f.userID != 0 {
		return opts, usagef("--user-id and --as cannot be used together")
	}
	if f.as != "" {
		uid, err := svc.ResolveUser(cmd.Context(), f.as)
		if err != nil {
			return opts, err
		}
		opts.UserID = uid
	}
	return opts, nil
}

func newCommentCmd(rt *runtime, k entity.Kind) *cobra.Command {
	var flags postFlags
	cmd := &cobra.Command{
		Use:   "comment <id> <message>",
		Short: fmt.Sprintf("Add a comment to a %s (visible to %s)", k.Noun, k.Audience),
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(k.Noun+" id", args[0])
			if err != nil {
				return err
			}
			cfg, err := rt.config()
			if err != nil {
				return err
			}
			if !cfg.AllowHarmful {
				return fmt.Errorf("%w. This is a harmful operation (visible to %s).\n"+
					"To enable, set ODOO_ALLOW_HARMFUL_OPERATIONS=true in your .env file.\n"+
					"For internal notes (safe), use: odoo-ninja %s note",
					ErrHarmfulDisabled, k.Audience, k.Command)
			}
			svc, err := rt.records()
			if err != nil {
				return err
			}
			opts, err := flags.options(cmd, svc)
			if err != nil {
				return err
			}
			ok, err := svc.AddComment(cmd.Context(), k.Model, id, args[1], opts)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("failed to add comment to %s %d", k.Noun, id)
			}
			rt.p().Success("Successfully added comment to %s %d", k.Noun, id)
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func newNoteCmd(rt *runtime, k entity.Kind) *cobra.Command {
	var flags postFlags
	cmd := &cobra.Command{
		Use:   "note <id> <message>",
		Short: fmt.Sprintf("Add an internal note to a %s (not visible to %s)", k.Noun, k.Audience),
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(k.Noun+" id", args[0])
			if err != nil {
				return err
			}
			svc, err := rt.records()
			if err != nil {
				return err
			}
			opts, err := flags.options(cmd, svc)
			if err != nil {
				return err
			}
			ok, err := svc.AddNote(cmd.Context(), k.Model, id, args[1], opts)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("failed to add note to %s %d", k.Noun, id)
			}
			rt.p().Success("Successfully added note to %s %d", k.Noun, id)
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func newChatterCmd(rt *runtime, k entity.Kind) *cobra.Command {
	var (
		limit int
		html  bool
	)
	cmd := &cobra.Command{
		Use:   "chatter <id>",
		Short: fmt.Sprintf("Show message history/chatter for a %s", k.Noun),
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
			msgs, err := svc.Messages(cmd.Context(), k.Model, id, limit)
			if err != nil {
				return err
			}
			if len(msgs) == 0 {
				rt.p().Warn("No messages found for %s %d", k.Noun, id)
				return nil
			}
			rt.p().Messages(msgs, html)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of messages to show (0 for all)")
	cmd.Flags().BoolVar(&html, "html", false, "Show raw HTML body instead of plain text")
	return cmd
}

func newTagsCmd(rt *runtime, k entity.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: fmt.Sprintf("List available %s tags", k.Noun),
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := rt.records()
			if err != nil {
				return err
			}
			tags, err := svc.ListTags(cmd.Context(), k.TagModel)
			if err != nil {
				return err
			}
			p := rt.p()
			p.Tags(k.Label+" Tags", tags)
			p.Plain("")
			p.Dim("Found %d tags", len(tags))
			return nil
		},
	}
}

func newTagCmd(rt *runtime, k entity.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "tag <id> <tag-id>",
		Short: fmt.Sprintf("Add a tag to a %s", k.Noun),
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(k.Noun+" id", args[0])
			if err != nil {
				return err
			}
			tagID, err := parseID("tag id", args[1])
			if err != nil {
				return err
			}
			svc, err := rt.records()
			if err != nil {
				return err
			}
			ok, err := svc.AddTag(cmd.Context(), k.Model, id, tagID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("failed to add tag %d to %s %d", tagID, k.Noun, id)
			}
			rt.p().Success("Successfully added tag %d to %s %d", tagID, k.Noun, id)
			return nil
		},
	}
}
