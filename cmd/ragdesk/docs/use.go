package docscmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ragdesk/cmd/ragdesk/cmdutil"
	"github.com/papercomputeco/ragdesk/pkg/apiclient"
	"github.com/papercomputeco/ragdesk/pkg/cliui"
	"github.com/papercomputeco/ragdesk/pkg/config"
	"github.com/papercomputeco/ragdesk/pkg/dotdir"
)

type useCommander struct {
	cfg       *config.Config
	configDir string
	clear     bool
	out       io.Writer
	logger    *slog.Logger
}

const useLongDesc string = `Select the document that ask and chat query by default.

The document must exist for the current tenant. Its ID may be given in full
or as an unambiguous prefix. The selection is stored in the .ragdesk/
directory together with the tenant it belongs to.

Examples:
  ragdesk docs use 3f2c
  ragdesk docs use --clear`

func newUseCmd() *cobra.Command {
	cmder := &useCommander{}

	cmd := &cobra.Command{
		Use:   "use [id]",
		Short: "Select a document for ask and chat",
		Long:  useLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, err = cmdutil.Load(cmd, config.ClientFlags)
			cmder.configDir = cmdutil.ConfigDir(cmd)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.logger = cmdutil.NewLogger(cmd)
			cmder.out = cmd.OutOrStdout()

			if cmder.clear {
				return cmder.runClear()
			}
			if len(args) == 0 {
				return errors.New("document id required (or --clear)")
			}
			return cmder.run(cmd.Context(), args[0])
		},
	}

	config.AddStringFlags(cmd, config.Flags, config.ClientFlags)
	cmd.Flags().BoolVar(&cmder.clear, "clear", false, "Clear the selected document")

	return cmd
}

func (c *useCommander) run(ctx context.Context, idOrPrefix string) error {
	client, err := cmdutil.NewClient(c.cfg, c.logger)
	if err != nil {
		return err
	}

	docs, err := client.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	doc, err := match(docs, idOrPrefix)
	if err != nil {
		return err
	}

	err = dotdir.NewManager().SaveSelection(&dotdir.Selection{
		DocumentID:   doc.ID,
		DocumentName: doc.Name,
		TenantID:     client.Tenant(),
		SelectedAt:   time.Now().UTC(),
	}, c.configDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "  %s Using %s %s\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(doc.Name),
		cliui.DimStyle.Render("("+doc.ID+")"),
	)
	return nil
}

func (c *useCommander) runClear() error {
	if err := dotdir.NewManager().ClearSelection(c.configDir); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "  %s Selection cleared\n", cliui.SuccessMark)
	return nil
}

// match finds the document whose ID equals idOrPrefix, or the only one
// starting with it.
func match(docs []apiclient.Document, idOrPrefix string) (*apiclient.Document, error) {
	var found []apiclient.Document
	for _, d := range docs {
		if d.ID == idOrPrefix {
			return &d, nil
		}
		if idOrPrefix != "" && strings.HasPrefix(d.ID, idOrPrefix) {
			found = append(found, d)
		}
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("no document matches %q", idOrPrefix)
	case 1:
		return &found[0], nil
	default:
		return nil, fmt.Errorf("%q matches %d documents", idOrPrefix, len(found))
	}
}
