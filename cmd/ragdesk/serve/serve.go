// Package servecmder provides the serve command, which runs the development
// document service.
package servecmder

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ragdesk/api"
	"github.com/papercomputeco/ragdesk/cmd/ragdesk/cmdutil"
	"github.com/papercomputeco/ragdesk/pkg/config"
	"github.com/papercomputeco/ragdesk/pkg/logger"
)

type ServeCommander struct {
	cfg        *config.Config
	chunkDelay time.Duration
	maxSources int
	logFile    string
	logFormat  logger.Format
	debug      bool

	logger *slog.Logger
}

const serveLongDesc string = `Run the development document service.

The service indexes the PDFs in --docs-dir and speaks the same HTTP
protocol as the production service: tenants, users, document upload and
listing, and streamed document queries with page citations. Answers are
assembled from the best matching pages, so ask and chat can be tried
without the real service.

When api.token is set, /api requests must carry it as a bearer token.

Examples:
  ragdesk serve --docs-dir ./pdfs
  ragdesk serve --listen :9000 --chunk-delay 50ms --log-file serve.log
  ragdesk serve --log-format json`

const serveShortDesc string = "Run the development document service"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}
	var logFormat string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, err = cmdutil.Load(cmd, []string{config.FlagListen, config.FlagDocsDir, config.FlagToken})
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.logFormat, err = logger.ParseFormat(logFormat)
			if err != nil {
				return err
			}
			return cmder.run()
		},
	}

	config.AddStringFlags(cmd, config.Flags, []string{config.FlagListen, config.FlagDocsDir, config.FlagToken})
	cmd.Flags().DurationVar(&cmder.chunkDelay, "chunk-delay", 0, "Delay between streamed answer chunks")
	cmd.Flags().IntVar(&cmder.maxSources, "max-sources", 3, "Maximum source records per answer")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")
	cmd.Flags().StringVar(&logFormat, "log-format", logger.FormatPretty.String(), "Stderr log format: text, pretty or json")

	return cmd
}

func (c *ServeCommander) run() error {
	l, closeLog, err := c.newLogger()
	if err != nil {
		return err
	}
	defer closeLog()
	c.logger = l

	server, err := api.NewServer(api.Config{
		ListenAddr: c.cfg.Serve.Listen,
		DocsDir:    c.cfg.Serve.DocsDir,
		Token:      c.cfg.API.Token,
		ChunkDelay: c.chunkDelay,
		MaxSources: c.maxSources,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating api server: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}

// newLogger writes --log-format logs to stderr and, with --log-file, JSON
// logs to the file as well.
func (c *ServeCommander) newLogger() (*slog.Logger, func(), error) {
	l := logger.New(
		logger.WithDebug(c.debug),
		logger.WithFormat(c.logFormat),
		logger.WithWriter(os.Stderr),
	)
	if c.logFile == "" {
		return l, func() {}, nil
	}

	tee, closeFile, err := logger.Tee(l, c.logFile, logger.WithDebug(c.debug))
	if err != nil {
		return nil, nil, err
	}
	return tee, func() { _ = closeFile() }, nil
}
