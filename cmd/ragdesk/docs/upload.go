package docscmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ragdesk/cmd/ragdesk/cmdutil"
	"github.com/papercomputeco/ragdesk/pkg/cliui"
	"github.com/papercomputeco/ragdesk/pkg/config"
)

type uploadCommander struct {
	cfg    *config.Config
	out    io.Writer
	logger *slog.Logger
}

func newUploadCmd() *cobra.Command {
	cmder := &uploadCommander{}

	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload PDF documents",
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, err = cmdutil.Load(cmd, config.ClientFlags)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.logger = cmdutil.NewLogger(cmd)
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context(), args)
		},
	}

	config.AddStringFlags(cmd, config.Flags, config.ClientFlags)

	return cmd
}

// run uploads every file, continuing past failures, and fails if any
// upload failed.
func (c *uploadCommander) run(ctx context.Context, paths []string) error {
	client, err := cmdutil.NewClient(c.cfg, c.logger)
	if err != nil {
		return err
	}

	failed := 0
	for _, path := range paths {
		err := cliui.Step(c.out, "Uploading "+filepath.Base(path), func() error {
			doc, err := client.UploadFile(ctx, path)
			if err != nil {
				return err
			}
			c.logger.Debug("document uploaded", "document_id", doc.ID, "pages", doc.Pages)
			return nil
		})
		if err != nil {
			failed++
			fmt.Fprintf(c.out, "    %s\n", cliui.DimStyle.Render(err.Error()))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(paths))
	}
	return nil
}
