// Package cmdutil holds the wiring shared by ragdesk commands: resolving
// configuration through viper and building the service client, history
// store, event publisher and recorder from it.
package cmdutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/ragdesk/cmd/ragdesk/sqlitepath"
	"github.com/papercomputeco/ragdesk/pkg/apiclient"
	"github.com/papercomputeco/ragdesk/pkg/config"
	"github.com/papercomputeco/ragdesk/pkg/dotdir"
	"github.com/papercomputeco/ragdesk/pkg/eventstream"
	"github.com/papercomputeco/ragdesk/pkg/eventstream/kafka"
	"github.com/papercomputeco/ragdesk/pkg/eventstream/nop"
	"github.com/papercomputeco/ragdesk/pkg/history"
	historyutils "github.com/papercomputeco/ragdesk/pkg/history/utils"
	"github.com/papercomputeco/ragdesk/pkg/logger"
	"github.com/papercomputeco/ragdesk/pkg/recorder"
)

// ClientName identifies the CLI in published events.
const ClientName = "ragdesk-cli"

// ErrNoDocument is returned when no document was given and none is selected.
var ErrNoDocument = errors.New(`no document given and none selected; pass a document id or run "ragdesk docs use <id>"`)

// ConfigDir returns the --config-dir override, or "" for dotdir resolution.
func ConfigDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("config-dir")
	return dir
}

// Load resolves the configuration for cmd: flags from the given registry
// groups override RAGDESK_* environment variables, which override
// config.toml, which overrides the defaults.
func Load(cmd *cobra.Command, groups ...[]string) (*config.Config, error) {
	v, err := config.InitViper(ConfigDir(cmd))
	if err != nil {
		return nil, err
	}

	for _, keys := range groups {
		config.BindRegisteredFlags(v, cmd, config.Flags, keys)
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// NewLogger builds the command logger. Logs go to stderr so streamed answers
// on stdout stay clean.
func NewLogger(cmd *cobra.Command, extra ...io.Writer) *slog.Logger {
	debug, _ := cmd.Flags().GetBool("debug")

	return logger.New(
		logger.WithDebug(debug),
		logger.WithFormat(logger.FormatPretty),
		logger.WithWriters(append([]io.Writer{os.Stderr}, extra...)...),
	)
}

// NewClient builds the document service client from cfg.
func NewClient(cfg *config.Config, l *slog.Logger) (*apiclient.Client, error) {
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	return apiclient.New(apiclient.Config{
		BaseURL:  cfg.API.Target,
		Token:    cfg.API.Token,
		TenantID: cfg.API.Tenant,
		Timeout:  timeout,
		Logger:   l,
	})
}

// OpenHistory opens the configured history driver. The sqlite driver
// defaults to history.db in the .ragdesk/ directory.
func OpenHistory(ctx context.Context, cfg *config.Config, configDir string) (history.Driver, error) {
	opts := &historyutils.NewDriverOpts{
		DriverType:  cfg.History.Driver,
		SQLitePath:  cfg.History.SQLitePath,
		PostgresDSN: cfg.History.PostgresDSN,
	}

	if opts.DriverType == historyutils.DriverSQLite {
		path, err := sqlitepath.ResolveSQLitePath(opts.SQLitePath, configDir)
		if err != nil {
			return nil, fmt.Errorf("resolving sqlite path: %w", err)
		}
		opts.SQLitePath = path
	}

	driver, err := historyutils.NewDriver(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	return driver, nil
}

// NewPublisher returns a Kafka publisher when brokers are configured and a
// nop publisher otherwise.
func NewPublisher(cfg *config.Config, l *slog.Logger) (eventstream.Publisher, error) {
	brokers := cfg.BrokerList()
	if len(brokers) == 0 {
		return nop.NewPublisher(), nil
	}

	l.Debug("publishing query events to kafka",
		"brokers", brokers,
		"topic", cfg.Events.Topic,
	)
	return kafka.NewPublisher(kafka.Config{
		Brokers: brokers,
		Topic:   cfg.Events.Topic,
	})
}

// Recording is a recorder pool together with the resources it owns.
type Recording struct {
	Pool *recorder.Pool

	driver    history.Driver
	publisher eventstream.Publisher
	logger    *slog.Logger
}

// OpenRecording opens the history driver and event publisher and starts a
// recorder pool on top of them.
func OpenRecording(ctx context.Context, cfg *config.Config, configDir string, l *slog.Logger) (*Recording, error) {
	driver, err := OpenHistory(ctx, cfg, configDir)
	if err != nil {
		return nil, err
	}

	publisher, err := NewPublisher(cfg, l)
	if err != nil {
		_ = driver.Close()
		return nil, err
	}

	pool, err := recorder.NewPool(&recorder.Config{
		Driver:    driver,
		Publisher: publisher,
		Client:    ClientName,
		Logger:    l,
	})
	if err != nil {
		_ = publisher.Close()
		_ = driver.Close()
		return nil, err
	}

	return &Recording{
		Pool:      pool,
		driver:    driver,
		publisher: publisher,
		logger:    l,
	}, nil
}

// Close drains the pool, then closes the publisher and the driver.
func (r *Recording) Close() {
	r.Pool.Close()

	if err := r.publisher.Close(); err != nil {
		r.logger.Warn("closing event publisher", "error", err)
	}
	if err := r.driver.Close(); err != nil {
		r.logger.Warn("closing history", "error", err)
	}
}

// ResolveDocument returns arg when set, else the selected document. The
// returned tenant is the one the selection was made under, if any.
func ResolveDocument(arg, configDir string) (documentID, tenantID string, err error) {
	if arg != "" {
		return arg, "", nil
	}

	sel, err := dotdir.NewManager().LoadSelection(configDir)
	if err != nil {
		return "", "", err
	}
	if sel == nil {
		return "", "", ErrNoDocument
	}
	return sel.DocumentID, sel.TenantID, nil
}

// TermWidth returns the width of the terminal attached to f, or 80.
func TermWidth(f *os.File) int {
	w, _, err := term.GetSize(int(f.Fd())) //nolint:gosec // fd fits in int
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
