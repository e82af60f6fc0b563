// Package askcmder provides the ask command: one question about one
// document, with the answer streamed to the terminal.
package askcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ragdesk/cmd/ragdesk/cmdutil"
	"github.com/papercomputeco/ragdesk/pkg/apiclient"
	"github.com/papercomputeco/ragdesk/pkg/cliui"
	"github.com/papercomputeco/ragdesk/pkg/config"
	"github.com/papercomputeco/ragdesk/pkg/session"
)

type askCommander struct {
	cfg       *config.Config
	configDir string
	document  string
	render    bool
	noHistory bool

	out    io.Writer
	logger *slog.Logger
}

const askLongDesc string = `Ask a question about a document.

The answer is streamed as it is generated, followed by the source excerpts
it was grounded on and a link to each cited page. Without --document the
document selected with "ragdesk docs use" is queried.

Every exchange is recorded in the configured history store and, when Kafka
brokers are configured, published as a query event.

Examples:
  ragdesk ask "What is the refund policy?"
  ragdesk ask --document 3f2c... "Who signs off on travel?"
  ragdesk ask --render "Summarize chapter 2"`

const askShortDesc string = "Ask a question about a document"

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, err = cmdutil.Load(cmd, config.ClientFlags, config.HistoryFlags, config.EventFlags)
			cmder.configDir = cmdutil.ConfigDir(cmd)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.logger = cmdutil.NewLogger(cmd)
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context(), strings.Join(args, " "))
		},
	}

	config.AddStringFlags(cmd, config.Flags, config.ClientFlags)
	config.AddStringFlags(cmd, config.Flags, config.HistoryFlags)
	config.AddStringFlags(cmd, config.Flags, config.EventFlags)
	cmd.Flags().StringVarP(&cmder.document, "document", "D", "", "Document ID (default: the selected document)")
	cmd.Flags().BoolVarP(&cmder.render, "render", "r", false, "Render the finished answer as markdown instead of streaming it")
	cmd.Flags().BoolVar(&cmder.noHistory, "no-history", false, "Do not record the exchange")

	return cmd
}

func (c *askCommander) run(ctx context.Context, question string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	documentID, tenantID, err := cmdutil.ResolveDocument(c.document, c.configDir)
	if err != nil {
		return err
	}

	client, err := cmdutil.NewClient(c.cfg, c.logger)
	if err != nil {
		return err
	}
	if client.Tenant() == "" && tenantID != "" {
		client = client.WithTenant(tenantID)
	}

	opts := []session.Option{
		session.WithLogger(c.logger),
		session.WithTenant(client.Tenant()),
	}
	if !c.noHistory {
		rec, err := cmdutil.OpenRecording(ctx, c.cfg, c.configDir, c.logger)
		if err != nil {
			return err
		}
		defer rec.Close()
		opts = append(opts, session.WithRecorder(rec.Pool))
	}

	surface := session.NewSurface(client, opts...)
	printer := cliui.NewAnswerPrinter(c.out, c.render, cmdutil.TermWidth(os.Stdout))

	req := apiclient.QueryRequest{DocumentID: documentID, Query: question}
	if c.render {
		err = cliui.Step(os.Stderr, "Waiting for answer", func() error {
			return surface.Submit(ctx, req, printer)
		})
	} else {
		err = surface.Submit(ctx, req, printer)
	}

	if err != nil {
		if printer.Answer() != "" {
			fmt.Fprintln(c.out)
		}
		if errors.Is(err, context.Canceled) {
			return errors.New("query canceled")
		}
		return fmt.Errorf("query failed: %w", err)
	}

	if err := printer.Finish(ctx, client, documentID); err != nil {
		c.logger.Warn("could not resolve source links", "error", err)
	}
	return nil
}
