// Package balance implements the contact API balance command.
package balance

import (
	"fmt"

	"github.com/spf13/cobra"

	"sellerscout/internal/bootstrap"
	"sellerscout/internal/usersbox"
)

// Command returns the balance command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Print the contact API account balance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := bootstrap.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			tr := bootstrap.SetupTransport(deps.Config, deps.Logger)
			defer tr.Close()

			amount, err := usersbox.Balance(cmd.Context(), tr.Usersbox)
			if err != nil {
				return err
			}

			fmt.Printf("Balance: %.2f\n", amount)
			return nil
		},
	}
}
