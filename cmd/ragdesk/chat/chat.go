// Package chatcmder provides the chat command: an interactive question
// loop over one document.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/ragdesk/cmd/ragdesk/cmdutil"
	"github.com/papercomputeco/ragdesk/pkg/apiclient"
	"github.com/papercomputeco/ragdesk/pkg/cliui"
	"github.com/papercomputeco/ragdesk/pkg/config"
	"github.com/papercomputeco/ragdesk/pkg/session"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("ragdesk> ")
)

type chatCommander struct {
	cfg       *config.Config
	configDir string
	document  string
	render    bool
	noHistory bool

	in     io.Reader
	out    io.Writer
	logger *slog.Logger

	client  *apiclient.Client
	surface *session.Surface
}

const chatLongDesc string = `Start an interactive question session about a document.

Each line is sent as a query; the answer streams back followed by its
sources. Press Ctrl+C while an answer is streaming to stop it, or at the
prompt to quit.

Commands:
  /doc <id>   Switch to another document
  /exit       Quit (Ctrl+D also quits)

Examples:
  ragdesk chat
  ragdesk chat --document 3f2c... --tenant acme`

const chatShortDesc string = "Interactive questions about a document"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, err = cmdutil.Load(cmd, config.ClientFlags, config.HistoryFlags, config.EventFlags)
			cmder.configDir = cmdutil.ConfigDir(cmd)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.logger = cmdutil.NewLogger(cmd)
			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlags(cmd, config.Flags, config.ClientFlags)
	config.AddStringFlags(cmd, config.Flags, config.HistoryFlags)
	config.AddStringFlags(cmd, config.Flags, config.EventFlags)
	cmd.Flags().StringVarP(&cmder.document, "document", "D", "", "Document ID (default: the selected document)")
	cmd.Flags().BoolVarP(&cmder.render, "render", "r", false, "Render finished answers as markdown instead of streaming them")
	cmd.Flags().BoolVar(&cmder.noHistory, "no-history", false, "Do not record exchanges")

	return cmd
}

func (c *chatCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	documentID, tenantID, err := cmdutil.ResolveDocument(c.document, c.configDir)
	if err != nil {
		return err
	}

	c.client, err = cmdutil.NewClient(c.cfg, c.logger)
	if err != nil {
		return err
	}
	if c.client.Tenant() == "" && tenantID != "" {
		c.client = c.client.WithTenant(tenantID)
	}

	opts := []session.Option{
		session.WithLogger(c.logger),
		session.WithTenant(c.client.Tenant()),
	}
	if !c.noHistory {
		rec, err := cmdutil.OpenRecording(ctx, c.cfg, c.configDir, c.logger)
		if err != nil {
			return err
		}
		defer rec.Close()
		opts = append(opts, session.WithRecorder(rec.Pool))
	}
	c.surface = session.NewSurface(c.client, opts...)

	// Ctrl+C stops the streaming answer, or quits at the prompt.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigs:
				if c.surface.Active() {
					c.surface.Cancel()
					continue
				}
				cancel()
				return
			}
		}
	}()

	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "  %s %s\n", cliui.KeyStyle.Render("Document:"), cliui.NameStyle.Render(documentID))
	if t := c.client.Tenant(); t != "" {
		fmt.Fprintf(c.out, "  %s %s\n", cliui.KeyStyle.Render("Tenant:"), cliui.NameStyle.Render(t))
	}
	fmt.Fprintf(c.out, "\n  %s\n\n", cliui.DimStyle.Render("Type a question and press Enter. /exit or Ctrl+D to quit."))

	lines := scanLines(ctx, c.in)
	for {
		fmt.Fprint(c.out, userPrompt)

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out)
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(c.out)
			return nil
		}

		input := strings.TrimSpace(line)
		switch {
		case input == "":
			continue
		case input == "/exit":
			return nil
		case strings.HasPrefix(input, "/doc"):
			if id := strings.TrimSpace(strings.TrimPrefix(input, "/doc")); id != "" {
				documentID = id
				fmt.Fprintf(c.out, "  %s %s\n\n", cliui.SuccessMark, cliui.NameStyle.Render(documentID))
			} else {
				fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("usage: /doc <id>"))
			}
			continue
		}

		c.ask(ctx, documentID, input)
	}
}

// ask runs one exchange. Failures are reported and the loop continues, so
// the question can be resubmitted.
func (c *chatCommander) ask(ctx context.Context, documentID, question string) {
	printer := cliui.NewAnswerPrinter(c.out, c.render, cmdutil.TermWidth(os.Stdout))

	fmt.Fprint(c.out, assistantPrompt)
	err := c.surface.Submit(ctx, apiclient.QueryRequest{DocumentID: documentID, Query: question}, printer)

	switch {
	case err == nil:
		if err := printer.Finish(ctx, c.client, documentID); err != nil {
			c.logger.Warn("could not resolve source links", "error", err)
		}
		fmt.Fprintln(c.out)
	case errors.Is(err, context.Canceled):
		fmt.Fprintf(c.out, "\n  %s\n\n", cliui.DimStyle.Render("(stopped)"))
	default:
		fmt.Fprintf(c.out, "\n  %s %v\n\n", cliui.FailMark, err)
	}
}

// scanLines delivers input lines until EOF or ctx is done.
func scanLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	return lines
}
