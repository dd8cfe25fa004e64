package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/labinot-bajgora/ECK-safety/internal/seats"
	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

// demoCompanies are the sample clients installed by `safetyhub seed`.
var demoCompanies = []seats.NewCompany{
	{Code: "PRISTINA", CompanyName: "Pristina Logistics Sh.p.k", SeatMode: training.SeatModeLimited, SeatAllowance: 5},
	{Code: "START2025", CompanyName: "ECK Training Partners", SeatMode: training.SeatModeUnlimited},
	{Code: "GJAKOVA", CompanyName: "Gjakova Manufacturing", SeatMode: training.SeatModeUnlimited},
	{Code: "PEJA", CompanyName: "Peja Brewery", SeatMode: training.SeatModeLimited, SeatAllowance: 3},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Install the built-in course and the demo companies",
	RunE: func(cmd *cobra.Command, args []string) error {
		withCompanies, _ := cmd.Flags().GetBool("companies")

		svc, err := openServices(cmd, nil)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx := cmd.Context()
		installed, err := svc.catalog.Seed(ctx)
		if err != nil {
			return err
		}
		if installed {
			fmt.Println("Installed the built-in course.")
		} else {
			fmt.Println("Courses already present, skipped the built-in course.")
		}

		if !withCompanies {
			return nil
		}
		for _, in := range demoCompanies {
			ac, err := svc.ledger.CreateCompany(ctx, in)
			if errors.Is(err, seats.ErrDuplicateCode) {
				fmt.Printf("  %-10s exists, skipped\n", in.Code)
				continue
			}
			if err != nil {
				return err
			}
			fmt.Printf("  %-10s %s (%s)\n", ac.Code, ac.CompanyName, seatUsage(ac))
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().Bool("companies", true, "Also create the demo companies")
}
