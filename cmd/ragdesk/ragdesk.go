// Package ragdeskcmder
package ragdeskcmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/ragdesk/cmd/ragdesk/ask"
	chatcmder "github.com/papercomputeco/ragdesk/cmd/ragdesk/chat"
	configcmder "github.com/papercomputeco/ragdesk/cmd/ragdesk/config"
	docscmder "github.com/papercomputeco/ragdesk/cmd/ragdesk/docs"
	historycmder "github.com/papercomputeco/ragdesk/cmd/ragdesk/history"
	initcmder "github.com/papercomputeco/ragdesk/cmd/ragdesk/init"
	servecmder "github.com/papercomputeco/ragdesk/cmd/ragdesk/serve"
	tenantscmder "github.com/papercomputeco/ragdesk/cmd/ragdesk/tenants"
	userscmder "github.com/papercomputeco/ragdesk/cmd/ragdesk/users"
	versioncmder "github.com/papercomputeco/ragdesk/cmd/version"
)

const ragdeskLongDesc string = `ragdesk is the admin client for a multi-tenant document Q&A service.

Manage tenants, users and documents, and ask questions about a document
with streamed answers and page level source citations:
  ragdesk docs upload handbook.pdf     Upload a PDF
  ragdesk docs use <id>                Select a document for ask and chat
  ragdesk ask "What is the refund policy?"
  ragdesk chat                         Ask follow-up questions interactively
  ragdesk serve                        Run a local development service`

const ragdeskShortDesc string = "ragdesk - document Q&A admin client"

func NewRagdeskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "ragdesk",
		Short:        ragdeskShortDesc,
		Long:         ragdeskLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to the .ragdesk/ config directory")

	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(docscmder.NewDocsCmd())
	cmd.AddCommand(tenantscmder.NewTenantsCmd())
	cmd.AddCommand(userscmder.NewUsersCmd())
	cmd.AddCommand(historycmder.NewHistoryCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
