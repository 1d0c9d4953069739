package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listWebprintCmd = &cobra.Command{
	Use:   "list-webprint",
	Short: "List the virtual printers offered by Web Print",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := loggedInClient(cmd.Context())
		if err != nil {
			return err
		}

		printers, err := client.WebPrintPrinters(cmd.Context())
		if err != nil {
			return err
		}

		if len(printers) == 0 {
			fmt.Println("No Web Print printers found.")
			return nil
		}
		for _, p := range printers {
			fmt.Printf("[%d] %s\n", p.Index, p.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listWebprintCmd)
}
