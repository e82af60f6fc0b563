// Package tenantscmder provides the tenants command.
package tenantscmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ragdesk/cmd/ragdesk/cmdutil"
	"github.com/papercomputeco/ragdesk/pkg/apiclient"
	"github.com/papercomputeco/ragdesk/pkg/cliui"
	"github.com/papercomputeco/ragdesk/pkg/config"
)

const tenantsLongDesc string = `Manage tenants on the document service.

  ragdesk tenants list
  ragdesk tenants create <name>
  ragdesk tenants delete <id>`

type tenantsCommander struct {
	cfg    *config.Config
	out    io.Writer
	logger *slog.Logger
}

func NewTenantsCmd() *cobra.Command {
	cmder := &tenantsCommander{}

	cmd := &cobra.Command{
		Use:   "tenants",
		Short: "Manage tenants",
		Long:  tenantsLongDesc,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, err = cmdutil.Load(cmd, config.ClientFlags)
			cmder.logger = cmdutil.NewLogger(cmd)
			cmder.out = cmd.OutOrStdout()
			return err
		},
	}

	config.AddPersistentStringFlags(cmd, config.Flags, config.ClientFlags)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List tenants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.list(cmd.Context())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.create(cmd.Context(), args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.delete(cmd.Context(), args[0])
		},
	})

	return cmd
}

func (c *tenantsCommander) client() (*apiclient.Client, error) {
	return cmdutil.NewClient(c.cfg, c.logger)
}

func (c *tenantsCommander) list(ctx context.Context) error {
	client, err := c.client()
	if err != nil {
		return err
	}

	tenants, err := client.ListTenants(ctx)
	if err != nil {
		return fmt.Errorf("listing tenants: %w", err)
	}
	if len(tenants) == 0 {
		fmt.Fprintf(c.out, "  %s\n", cliui.DimStyle.Render("No tenants."))
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCREATED")
	for _, t := range tenants {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.Name, t.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func (c *tenantsCommander) create(ctx context.Context, name string) error {
	client, err := c.client()
	if err != nil {
		return err
	}

	t, err := client.CreateTenant(ctx, apiclient.CreateTenantRequest{Name: name})
	if err != nil {
		return fmt.Errorf("creating tenant: %w", err)
	}

	fmt.Fprintf(c.out, "  %s Created tenant %s %s\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(t.Name),
		cliui.DimStyle.Render("("+t.ID+")"),
	)
	return nil
}

func (c *tenantsCommander) delete(ctx context.Context, id string) error {
	client, err := c.client()
	if err != nil {
		return err
	}

	if err := client.DeleteTenant(ctx, id); err != nil {
		return fmt.Errorf("deleting tenant: %w", err)
	}

	fmt.Fprintf(c.out, "  %s Deleted tenant %s\n", cliui.SuccessMark, cliui.NameStyle.Render(id))
	return nil
}
