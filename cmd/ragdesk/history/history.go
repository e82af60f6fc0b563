// Package historycmder provides the history command for browsing recorded
// query exchanges.
package historycmder

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ragdesk/cmd/ragdesk/cmdutil"
	"github.com/papercomputeco/ragdesk/pkg/answer"
	"github.com/papercomputeco/ragdesk/pkg/cliui"
	"github.com/papercomputeco/ragdesk/pkg/config"
	"github.com/papercomputeco/ragdesk/pkg/history"
	"github.com/papercomputeco/ragdesk/pkg/utils"
	"github.com/papercomputeco/ragdesk/pkg/viewer"
)

const historyLongDesc string = `Browse recorded query exchanges, newest first.

Exchanges are recorded by ask and chat into the configured history store
(history.driver: memory, sqlite or postgres).

Examples:
  ragdesk history
  ragdesk history --document 3f2c... --limit 5
  ragdesk history show <exchange-id>`

const historyShortDesc string = "Browse recorded query exchanges"

type historyCommander struct {
	cfg       *config.Config
	configDir string
	out       io.Writer

	document string
	limit    int
}

func NewHistoryCmd() *cobra.Command {
	cmder := &historyCommander{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: historyShortDesc,
		Long:  historyLongDesc,
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, err = cmdutil.Load(cmd, config.HistoryFlags, []string{config.FlagTenant})
			cmder.configDir = cmdutil.ConfigDir(cmd)
			cmder.out = cmd.OutOrStdout()
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.list(cmd.Context())
		},
	}

	config.AddPersistentStringFlags(cmd, config.Flags, config.HistoryFlags)
	config.AddPersistentStringFlags(cmd, config.Flags, []string{config.FlagTenant})
	cmd.Flags().StringVarP(&cmder.document, "document", "D", "", "Only exchanges about this document")
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", 20, "Maximum number of exchanges (0 for all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one exchange in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.show(cmd.Context(), args[0])
		},
	})

	return cmd
}

func (c *historyCommander) open(ctx context.Context) (history.Driver, error) {
	return cmdutil.OpenHistory(ctx, c.cfg, c.configDir)
}

func (c *historyCommander) list(ctx context.Context) error {
	driver, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer driver.Close()

	exchanges, err := driver.List(ctx, history.Filter{
		TenantID:   c.cfg.API.Tenant,
		DocumentID: c.document,
		Limit:      c.limit,
	})
	if err != nil {
		return fmt.Errorf("listing history: %w", err)
	}

	if len(exchanges) == 0 {
		fmt.Fprintf(c.out, "  %s\n", cliui.DimStyle.Render("No recorded exchanges."))
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tOUTCOME\tDURATION\tSOURCES\tQUERY")
	for _, e := range exchanges {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			e.ID,
			e.StartedAt.Local().Format("2006-01-02 15:04:05"),
			e.Outcome,
			cliui.FormatDuration(e.Duration()),
			len(e.Citations),
			utils.Truncate(utils.SingleLine(e.Query), 60),
		)
	}
	return tw.Flush()
}

func (c *historyCommander) show(ctx context.Context, id string) error {
	driver, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer driver.Close()

	e, err := driver.Get(ctx, id)
	if err != nil {
		return err
	}

	fields := map[string]string{
		"id":       e.ID,
		"tenant":   e.TenantID,
		"document": e.DocumentID,
		"started":  e.StartedAt.Local().Format("2006-01-02 15:04:05"),
		"duration": cliui.FormatDuration(e.Duration()),
		"outcome":  string(e.Outcome),
		"error":    e.Error,
	}
	fmt.Fprintln(c.out)
	cliui.RenderPairs(c.out, []string{"id", "tenant", "document", "started", "duration", "outcome", "error"},
		func(k string) string { return fields[k] })

	fmt.Fprintf(c.out, "\n  %s\n  %s\n\n", cliui.HeaderStyle.Render("Query"), e.Query)
	fmt.Fprintf(c.out, "  %s\n%s\n", cliui.HeaderStyle.Render("Answer"), e.Answer)

	cliui.RenderSources(c.out, links(e.Citations))
	return nil
}

// links presents recorded citations without file URLs.
func links(citations []answer.Citation) []viewer.Link {
	out := make([]viewer.Link, 0, len(citations))
	for _, c := range citations {
		out = append(out, viewer.Link{Citation: c, Page: viewer.DisplayPage(c)})
	}
	return out
}
