package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsp-tools/tsprint"
)

var (
	releaseJobName string
	releasePrinter string
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Release a pending job to a physical printer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := loggedInClient(cmd.Context())
		if err != nil {
			return err
		}

		jobs, err := client.PendingJobs(cmd.Context())
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			fmt.Println("No jobs to release.")
			return nil
		}

		var target *tsprint.Job
		switch {
		case releaseJobName != "":
			for i := range jobs {
				if strings.Contains(jobs[i].Name, releaseJobName) {
					target = &jobs[i]
					break
				}
			}
			if target == nil {
				return fmt.Errorf("%w: no pending job matching %q", tsprint.ErrJobNotFound, releaseJobName)
			}
		case len(jobs) == 1:
			target = &jobs[0]
		default:
			fmt.Fprintln(os.Stderr, "Multiple jobs found. Please specify --job-name:")
			for _, job := range jobs {
				fmt.Fprintf(os.Stderr, "- %s\n", job.Name)
			}
			return fmt.Errorf("ambiguous job selection")
		}

		fmt.Printf("Releasing job: %s\n", target.Name)
		if err := client.Release(cmd.Context(), *target, releasePrinter); err != nil {
			return fmt.Errorf("release failed: %w", err)
		}
		fmt.Println("Release command sent.")
		return nil
	},
}

func init() {
	releaseCmd.Flags().StringVar(&releaseJobName, "job-name", "", "partial name of the job to release")
	releaseCmd.Flags().StringVar(&releasePrinter, "printer", "", "filter for the physical printer name")
	rootCmd.AddCommand(releaseCmd)
}
