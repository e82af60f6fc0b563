// Package configcmder provides the config command for managing persistent
// ragdesk configuration stored in the .ragdesk/ directory.
package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ragdesk/pkg/config"
)

const configLongDesc string = `Manage persistent ragdesk configuration.

Configuration is stored as config.toml in the .ragdesk/ directory and provides
default values for command flags. CLI flags and RAGDESK_* environment
variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  api.target, api.token, api.tenant, api.timeout,
  history.driver, history.sqlite_path, history.postgres_dsn,
  events.brokers, events.topic,
  serve.listen, serve.docs_dir

Use subcommands to get, set, or list configuration values:
  ragdesk config set <key> <value>    Set a configuration value
  ragdesk config get <key>            Get a configuration value
  ragdesk config list                 List all configuration values

Examples:
  ragdesk config set api.target https://docs.example.com
  ragdesk config set history.driver postgres
  ragdesk config get api.tenant
  ragdesk config list`

const configShortDesc string = "Manage persistent ragdesk configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func validKeysArg(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func checkKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

// display masks secret values unless reveal is set.
func display(key, value string, reveal bool) string {
	if value == "" || reveal || !config.IsSecretKey(key) {
		return value
	}
	return "********"
}
