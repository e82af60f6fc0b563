// Package userscmder provides the users command. Users always belong to a
// tenant, taken from --tenant or the api.tenant config key.
package userscmder

import (
	"context"
	"errors"
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

const usersLongDesc string = `Manage the users of a tenant.

  ragdesk users list --tenant <id>
  ragdesk users create <email> --tenant <id> [--name N] [--role R]
  ragdesk users delete <id> --tenant <id>`

var errNoTenant = errors.New("a tenant is required; pass --tenant or set api.tenant")

type usersCommander struct {
	cfg    *config.Config
	out    io.Writer
	logger *slog.Logger

	name     string
	role     string
	password string
}

func NewUsersCmd() *cobra.Command {
	cmder := &usersCommander{}

	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage the users of a tenant",
		Long:  usersLongDesc,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, err = cmdutil.Load(cmd, config.ClientFlags)
			if err != nil {
				return err
			}
			if cmder.cfg.API.Tenant == "" {
				return errNoTenant
			}
			cmder.logger = cmdutil.NewLogger(cmd)
			cmder.out = cmd.OutOrStdout()
			return nil
		},
	}

	config.AddPersistentStringFlags(cmd, config.Flags, config.ClientFlags)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.list(cmd.Context())
		},
	})

	create := &cobra.Command{
		Use:   "create <email>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.create(cmd.Context(), args[0])
		},
	}
	create.Flags().StringVar(&cmder.name, "name", "", "Display name")
	create.Flags().StringVar(&cmder.role, "role", "", "Role (service default when empty)")
	create.Flags().StringVar(&cmder.password, "password", "", "Initial password")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.delete(cmd.Context(), args[0])
		},
	})

	return cmd
}

func (c *usersCommander) client() (*apiclient.Client, error) {
	return cmdutil.NewClient(c.cfg, c.logger)
}

func (c *usersCommander) list(ctx context.Context) error {
	client, err := c.client()
	if err != nil {
		return err
	}

	users, err := client.ListUsers(ctx, c.cfg.API.Tenant)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}
	if len(users) == 0 {
		fmt.Fprintf(c.out, "  %s\n", cliui.DimStyle.Render("No users."))
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Name, u.Role)
	}
	return tw.Flush()
}

func (c *usersCommander) create(ctx context.Context, email string) error {
	client, err := c.client()
	if err != nil {
		return err
	}

	u, err := client.CreateUser(ctx, c.cfg.API.Tenant, apiclient.CreateUserRequest{
		Email:    email,
		Name:     c.name,
		Role:     c.role,
		Password: c.password,
	})
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	fmt.Fprintf(c.out, "  %s Created %s %s %s\n",
		cliui.SuccessMark,
		u.Role,
		cliui.NameStyle.Render(u.Email),
		cliui.DimStyle.Render("("+u.ID+")"),
	)
	return nil
}

func (c *usersCommander) delete(ctx context.Context, id string) error {
	client, err := c.client()
	if err != nil {
		return err
	}

	if err := client.DeleteUser(ctx, c.cfg.API.Tenant, id); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	fmt.Fprintf(c.out, "  %s Deleted user %s\n", cliui.SuccessMark, cliui.NameStyle.Render(id))
	return nil
}
