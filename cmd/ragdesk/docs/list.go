package docscmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ragdesk/cmd/ragdesk/cmdutil"
	"github.com/papercomputeco/ragdesk/pkg/cliui"
	"github.com/papercomputeco/ragdesk/pkg/config"
	"github.com/papercomputeco/ragdesk/pkg/dotdir"
)

type listCommander struct {
	cfg       *config.Config
	configDir string
	out       io.Writer
	logger    *slog.Logger
}

func newListCmd() *cobra.Command {
	cmder := &listCommander{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, err = cmdutil.Load(cmd, config.ClientFlags)
			cmder.configDir = cmdutil.ConfigDir(cmd)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.logger = cmdutil.NewLogger(cmd)
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlags(cmd, config.Flags, config.ClientFlags)

	return cmd
}

func (c *listCommander) run(ctx context.Context) error {
	client, err := cmdutil.NewClient(c.cfg, c.logger)
	if err != nil {
		return err
	}

	docs, err := client.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	if len(docs) == 0 {
		fmt.Fprintf(c.out, "  %s\n", cliui.DimStyle.Render("No documents."))
		return nil
	}

	selected := ""
	if sel, err := dotdir.NewManager().LoadSelection(c.configDir); err == nil && sel != nil {
		selected = sel.DocumentID
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  \tID\tNAME\tSTATUS\tPAGES\tUPLOADED")
	for _, d := range docs {
		mark := " "
		if d.ID == selected {
			mark = "*"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%d\t%s\n",
			mark, d.ID, d.Name, d.Status, d.Pages, d.UploadedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
