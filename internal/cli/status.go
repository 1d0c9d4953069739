package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the account balance and usage counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := loggedInClient(cmd.Context())
		if err != nil {
			return err
		}

		summary, err := client.AccountSummary(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("User:       %s\n", summary.Username)
		if summary.Balance != "" {
			fmt.Printf("Balance:    %s\n", summary.Balance)
		}
		fmt.Printf("Print jobs: %d\n", summary.PrintJobs)
		fmt.Printf("Pages:      %d\n", summary.Pages)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
