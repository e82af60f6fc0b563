// Package initcmder provides the init command for initializing a local
// .ragdesk directory in the current working directory.
package initcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ragdesk/pkg/cliui"
	"github.com/papercomputeco/ragdesk/pkg/config"
)

const (
	dirName = ".ragdesk"

	maxRemoteConfigBytes = 1 << 20
)

const initLongDesc string = `Initialize a new .ragdesk/ directory in the current working directory.

Creates a local .ragdesk/ directory that takes precedence over the default
~/.ragdesk/ directory for configuration, the document selection and the
SQLite history database, and writes a config.toml into it.

--preset picks the initial configuration:
  local    development service and SQLite history (default values)
  shared   PostgreSQL history and Kafka query events on localhost
  <url>    a config.toml fetched over http(s)

An existing config.toml is kept unless --force is given.

Examples:
  ragdesk init
  ragdesk init --preset shared
  ragdesk init --preset https://example.com/team/ragdesk.toml`

const initShortDesc string = "Initialize a local .ragdesk/ directory"

type initCommander struct {
	preset string
	force  bool
	out    io.Writer
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "", "Config preset name (local, shared) or URL of a config.toml")
	cmd.Flags().BoolVar(&cmder.force, "force", false, "Overwrite an existing config.toml")

	return cmd
}

func (c *initCommander) run(ctx context.Context) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	cfg, err := c.presetConfig(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .ragdesk directory: %w", err)
	}

	configPath := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(configPath); err == nil && !c.force {
		fmt.Fprintf(c.out, "  %s Already initialized: %s\n", cliui.SuccessMark, cliui.DimStyle.Render(dir))
		return nil
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return err
	}
	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "  %s Initialized .ragdesk directory: %s\n", cliui.SuccessMark, cliui.DimStyle.Render(dir))
	return nil
}

func (c *initCommander) presetConfig(ctx context.Context) (*config.Config, error) {
	switch {
	case c.preset == "":
		return config.NewDefaultConfig(), nil
	case strings.HasPrefix(c.preset, "http://"), strings.HasPrefix(c.preset, "https://"):
		return fetchConfig(ctx, c.preset)
	default:
		return config.PresetConfig(c.preset)
	}
}

// fetchConfig downloads and validates a remote config.toml.
func fetchConfig(ctx context.Context, url string) (*config.Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching config: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteConfigBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading remote config: %w", err)
	}
	if len(data) > maxRemoteConfigBytes {
		return nil, errors.New("remote config is larger than 1MiB")
	}

	return config.ParseConfigTOML(data)
}
