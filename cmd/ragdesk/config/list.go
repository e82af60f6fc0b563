package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ragdesk/cmd/ragdesk/cmdutil"
	"github.com/papercomputeco/ragdesk/pkg/cliui"
	"github.com/papercomputeco/ragdesk/pkg/config"
)

const listLongDesc string = `List all configuration values.

Displays all configuration keys and their current values from the
config.toml file stored in the .ragdesk/ directory. Secret values are
masked unless --reveal is given.

Examples:
  ragdesk config list`

const listShortDesc string = "List all configuration values"

func newListCmd() *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd.OutOrStdout(), cmdutil.ConfigDir(cmd), reveal)
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Show secret values")

	return cmd
}

func runList(out io.Writer, configDir string, reveal bool) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	printTarget(out, cfger)

	values := make(map[string]string)
	for _, key := range config.ValidConfigKeys() {
		value, err := cfger.GetConfigValue(key)
		if err != nil {
			return err
		}
		values[key] = display(key, value, reveal)
	}

	cliui.RenderPairs(out, config.ValidConfigKeys(), func(k string) string { return values[k] })
	fmt.Fprintln(out)
	return nil
}
