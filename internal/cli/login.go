package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Verify portal credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loggedInClient(cmd.Context()); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		fmt.Println("Login check successful!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
