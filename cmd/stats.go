package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/labinot-bajgora/ECK-safety/internal/results"
	"github.com/labinot-bajgora/ECK-safety/internal/screens/admin"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the dashboard statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		daysVal, _ := cmd.Flags().GetString("days")
		days, err := results.ParseWindow(daysVal)
		if err != nil {
			return err
		}

		svc, err := openServices(cmd, nil)
		if err != nil {
			return err
		}
		defer svc.Close()

		stats, err := svc.recorder.Dashboard(cmd.Context(), days)
		if err != nil {
			return err
		}

		fmt.Printf("Companies:           %d\n", stats.TotalCompanies)
		fmt.Printf("Passed (all time):   %d\n", stats.TotalPassed)
		fmt.Printf("Passed (30 days):    %d\n", stats.PassedLast30Days)
		fmt.Printf("Seats (LIMITED):     %d of %d used\n", stats.SeatsUsed, stats.SeatsAllowed)

		fmt.Printf("\nPassed per day, last %d days:\n  %s\n", days, admin.Sparkline(stats.Trend, 60))
		if n := len(stats.Trend); n > 0 {
			fmt.Printf("  %s … %s\n", stats.Trend[0].Day.Format("Jan 2"), stats.Trend[n-1].Day.Format("Jan 2"))
		}

		if len(stats.Recent) > 0 {
			fmt.Println("\nRecent results:")
			fmt.Println("  " + strings.Repeat("─", 60))
			for _, r := range stats.Recent {
				fmt.Printf("  %s  %-22s  %-18s  %s\n",
					r.CompletedAt.Local().Format("2006-01-02"),
					truncate(r.Learner.FullName(), 22),
					truncate(r.Learner.CompanyName, 18),
					outcome(r))
			}
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().String("days", "7", "Trend window: 7, 30 or 90")
}
