package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsp-tools/tsprint"
)

var (
	uploadCopies       int
	uploadPrinterIndex int
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a document to the Web Print queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := loggedInClient(cmd.Context())
		if err != nil {
			return err
		}

		opts := &tsprint.UploadOptions{
			Copies:       uploadCopies,
			PrinterIndex: uploadPrinterIndex,
		}
		if err := client.UploadFile(cmd.Context(), args[0], opts); err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}

		fmt.Println("File uploaded successfully to Web Print queue.")
		return nil
	},
}

func init() {
	uploadCmd.Flags().IntVar(&uploadCopies, "copies", 1, "number of copies")
	uploadCmd.Flags().IntVar(&uploadPrinterIndex, "printer-index", 0, "index of the Web Print printer (see list-webprint)")
	rootCmd.AddCommand(uploadCmd)
}
