// Package docscmder provides the docs command: listing, uploading and
// selecting documents on the document service.
package docscmder

import (
	"github.com/spf13/cobra"
)

const docsLongDesc string = `Manage documents of the current tenant.

  ragdesk docs list                  List documents and their status
  ragdesk docs upload <file.pdf>...  Upload PDFs
  ragdesk docs use <id>              Select the document used by ask and chat
  ragdesk docs use --clear           Clear the selection`

const docsShortDesc string = "Manage documents"

func NewDocsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: docsShortDesc,
		Long:  docsLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newUploadCmd())
	cmd.AddCommand(newUseCmd())

	return cmd
}
