package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsp-tools/tsprint"
)

var (
	autoCopies       int
	autoPrinterIndex int
	autoPrinter      string
)

var autoCmd = &cobra.Command{
	Use:   "auto <file>",
	Short: "Upload a document and release it in one go",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := loggedInClient(cmd.Context())
		if err != nil {
			return err
		}

		opts := &tsprint.PrintOptions{
			Copies:        autoCopies,
			PrinterIndex:  autoPrinterIndex,
			PrinterFilter: autoPrinter,
		}
		err = client.Print(cmd.Context(), args[0], opts)

		var partial *tsprint.PartialPrintError
		if errors.As(err, &partial) {
			return fmt.Errorf("document uploaded but not released (try 'tsprint release --job-name %q'): %w",
				partial.Title, partial.Err)
		}
		if err != nil {
			return fmt.Errorf("auto-print failed: %w", err)
		}

		fmt.Println("Job released successfully.")
		return nil
	},
}

func init() {
	autoCmd.Flags().IntVar(&autoCopies, "copies", 1, "number of copies")
	autoCmd.Flags().IntVar(&autoPrinterIndex, "printer-index", 0, "index of the Web Print printer (see list-webprint)")
	autoCmd.Flags().StringVar(&autoPrinter, "printer", "", "filter for the physical printer name")
	rootCmd.AddCommand(autoCmd)
}
