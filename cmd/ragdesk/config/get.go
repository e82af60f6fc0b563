package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ragdesk/cmd/ragdesk/cmdutil"
	"github.com/papercomputeco/ragdesk/pkg/cliui"
	"github.com/papercomputeco/ragdesk/pkg/config"
)

const getLongDesc string = `Get a configuration value.

Reads the value for the given key from the config.toml file stored in the
.ragdesk/ directory. Secret values (api.token, history.postgres_dsn) are
masked unless --reveal is given.

Examples:
  ragdesk config get api.target
  ragdesk config get api.token --reveal`

const getShortDesc string = "Get a configuration value"

func newGetCmd() *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: getShortDesc,
		Long:  getLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd.OutOrStdout(), args[0], cmdutil.ConfigDir(cmd), reveal)
		},
		ValidArgsFunction: validKeysArg,
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Show secret values")

	return cmd
}

func runGet(out io.Writer, key, configDir string, reveal bool) error {
	if err := checkKey(key); err != nil {
		return err
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	printTarget(out, cfger)

	value, err := cfger.GetConfigValue(key)
	if err != nil {
		return err
	}

	cliui.RenderPairs(out, []string{key}, func(string) string { return display(key, value, reveal) })
	fmt.Fprintln(out)
	return nil
}

func printTarget(out io.Writer, cfger *config.Configer) {
	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(out, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
