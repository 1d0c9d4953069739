package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List pending jobs in the release queue",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := loggedInClient(cmd.Context())
		if err != nil {
			return err
		}

		jobs, err := client.PendingJobs(cmd.Context())
		if err != nil {
			return fmt.Errorf("checking jobs: %w", err)
		}

		if len(jobs) == 0 {
			fmt.Println("No pending jobs found.")
			return nil
		}
		fmt.Printf("Found %d pending jobs:\n", len(jobs))
		for i, job := range jobs {
			fmt.Printf("[%d] %s\n", i+1, job.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)
}
