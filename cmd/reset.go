package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/labinot-bajgora/ECK-safety/internal/flow"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the saved learner session on this terminal",
	Long: `Clear the saved learner session so the next start shows an empty entry
form. Companies, courses and results are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cmd, nil)
		if err != nil {
			return err
		}
		defer svc.Close()

		if err := flow.NewSession(svc.store.Sessions(), svc.logger).Clear(cmd.Context()); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		fmt.Println("Learner session cleared.")
		return nil
	},
}
