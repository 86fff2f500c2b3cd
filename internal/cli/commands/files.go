package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/semadox/odoo-ninja/internal/cli/entity"
	"github.com/semadox/odoo-ninja/internal/cli/service"
)

func newAttachmentsCmd(rt *runtime, k entity.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "attachments <id>",
		Short: fmt.Sprintf("List attachments for a %s", k.Noun),
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
			atts, err := svc.Attachments(cmd.Context(), k.Model, id)
			if err != nil {
				return err
			}
			p := rt.p()
			if len(atts) == 0 {
				p.Warn("No attachments found for %s %d", k.Noun, id)
				return nil
			}
			p.Attachments(atts)
			p.Plain("")
			p.Dim("Found %d attachments", len(atts))
			return nil
		},
	}
}

func newDownloadCmd(rt *runtime, k entity.Kind) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "download <attachment-id>",
		Short: "Download a single attachment by ID",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("attachment id", args[0])
			if err != nil {
				return err
			}
			svc, err := rt.records()
			if err != nil {
				return err
			}
			path, err := svc.DownloadAttachment(cmd.Context(), id, output)
			if err != nil {
				return err
			}
			rt.p().Success("Downloaded attachment to %s", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&output, "output", "", "Output file path (defaults to attachment name)")
	return cmd
}

func newDownloadAllCmd(rt *runtime, k entity.Kind) *cobra.Command {
	var outputDir, ext string
	cmd := &cobra.Command{
		Use:   "download-all <id>",
		Short: fmt.Sprintf("Download all attachments from a %s", k.Noun),
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
			p := rt.p()

			atts, err := svc.Attachments(cmd.Context(), k.Model, id)
			if err != nil {
				return err
			}
			if len(atts) == 0 {
				p.Warn("No attachments found for %s %d", k.Noun, id)
				return nil
			}
			if e := strings.ToLower(strings.TrimLeft(ext, ".")); e != "" {
				matching := service.FilterByExtension(atts, e)
				if len(matching) == 0 {
					p.Warn("No %s attachments found for %s %d", e, k.Noun, id)
					return nil
				}
				p.Info("Downloading %d .%s attachments...", len(matching), e)
			} else {
				p.Info("Downloading %d attachments...", len(atts))
			}

			results, err := svc.DownloadAll(cmd.Context(), k.Model, id, outputDir, ext)
			if err != nil {
				return err
			}
			for _, r := range results {
				if r.Err != nil {
					p.Warn("Failed to download %s (#%d): %v", r.Name, r.AttachmentID, r.Err)
				}
			}
			paths := service.Succeeded(results)
			if len(paths) == 0 {
				p.Warn("No files were downloaded")
				return nil
			}
			p.Plain("")
			p.Success("Successfully downloaded %d files:", len(paths))
			for _, path := range paths {
				p.Plain("  - " + path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (defaults to current directory)")
	cmd.Flags().StringVar(&ext, "extension", "", "Filter by file extension (e.g., pdf, jpg, png)")
	cmd.Flags().StringVar(&ext, "ext", "", "Alias for --extension")
	return cmd
}

func newAttachCmd(rt *runtime, k entity.Kind) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "attach <id> <file>",
		Short: fmt.Sprintf("Attach a file to a %s", k.Noun),
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
			attID, err := svc.CreateAttachment(cmd.Context(), k.Model, id, args[1], name)
			if err != nil {
				return err
			}
			p := rt.p()
			p.Success("Successfully attached %s to %s %d", filepath.Base(args[1]), k.Noun, id)
			p.Dim("Attachment ID: %d", attID)
			p.Plain("")
			p.Info("View %s: %s", k.Noun, svc.URL(k.Model, id))
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Custom attachment name (defaults to filename)")
	return cmd
}
