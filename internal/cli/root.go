// Package cli implements the tsprint command tree.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tsp-tools/tsprint"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "tsprint",
	Short: "Manage FollowMe (PaperCut) printing from the command line",
	Long: `tsprint drives the FollowMe print portal: upload documents to the
Web Print queue, list pending jobs, and release them to a physical printer.

Credentials are read from the IMPRIMERIE_USER and IMPRIMERIE_PASS
environment variables; a .env file in the working directory is loaded if
present. IMPRIMERIE_URL overrides the portal base URL.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func newClient() (*tsprint.Client, error) {
	user := os.Getenv("IMPRIMERIE_USER")
	pass := os.Getenv("IMPRIMERIE_PASS")
	if user == "" || pass == "" {
		return nil, fmt.Errorf("IMPRIMERIE_USER and IMPRIMERIE_PASS must be set (environment or .env)")
	}

	opts := []tsprint.Option{tsprint.WithLogger(slog.Default())}
	if base := os.Getenv("IMPRIMERIE_URL"); base != "" {
		opts = append(opts, tsprint.WithBaseURL(base))
	}

	return tsprint.New(user, pass, opts...), nil
}

// loggedInClient builds a client and establishes the portal session.
func loggedInClient(ctx context.Context) (*tsprint.Client, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	if err := client.Login(ctx); err != nil {
		return nil, err
	}
	return client, nil
}
