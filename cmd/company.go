package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/labinot-bajgora/ECK-safety/internal/seats"
	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

var companyCmd = &cobra.Command{
	Use:     "company",
	Aliases: []string{"companies"},
	Short:   "Manage companies, access codes and seats",
}

var companyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a company and its access code",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		code, _ := cmd.Flags().GetString("code")
		course, _ := cmd.Flags().GetString("course")
		modeVal, _ := cmd.Flags().GetString("mode")
		seatsVal, _ := cmd.Flags().GetInt("seats")
		days, _ := cmd.Flags().GetInt("days")

		in := seats.NewCompany{
			Code:          code,
			CompanyName:   name,
			CourseID:      course,
			SeatAllowance: seatsVal,
		}
		if modeVal != "" {
			mode, ok := training.ParseSeatMode(modeVal)
			if !ok {
				return fmt.Errorf("%w: %q", seats.ErrInvalidSeatMode, modeVal)
			}
			in.SeatMode = mode
		}
		if days > 0 {
			in.ExpiresAt = time.Now().AddDate(0, 0, days)
		}

		svc, err := openServices(cmd, nil)
		if err != nil {
			return err
		}
		defer svc.Close()

		ac, err := svc.ledger.CreateCompany(cmd.Context(), in)
		if err != nil {
			return err
		}
		printCompany(ac)
		return nil
	},
}

var companyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List companies",
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")

		svc, err := openServices(cmd, nil)
		if err != nil {
			return err
		}
		defer svc.Close()

		list, err := svc.ledger.List(cmd.Context(), search)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No companies found.")
			return nil
		}

		now := time.Now()
		fmt.Printf("%-12s  %-28s  %-9s  %-9s  %s\n", "Code", "Company", "Mode", "Seats", "Expires")
		fmt.Println(strings.Repeat("─", 78))
		for _, ac := range list {
			expires := ac.ExpiresAt.Format("2006-01-02")
			if ac.Expired(now) {
				expires += " (expired)"
			}
			fmt.Printf("%-12s  %-28s  %-9s  %-9s  %s\n",
				ac.Code, truncate(ac.CompanyName, 28), ac.SeatMode, seatUsage(&ac), expires)
		}
		fmt.Printf("\n%d compan%s\n", len(list), plural(len(list), "y", "ies"))
		return nil
	},
}

var companyShowCmd = &cobra.Command{
	Use:   "show <code|id>",
	Short: "Show a company with its seat audit log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cmd, nil)
		if err != nil {
			return err
		}
		defer svc.Close()

		ac, err := svc.ledger.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printCompany(ac)

		fmt.Println("\nSeat audit log (oldest first):")
		if len(ac.AuditLog) == 0 {
			fmt.Println("  (empty)")
		}
		for i := len(ac.AuditLog) - 1; i >= 0; i-- {
			e := ac.AuditLog[i]
			fmt.Printf("  %s  %-11s  %s\n", e.Timestamp.Local().Format("2006-01-02 15:04"), e.Type, auditDetail(e))
		}
		return nil
	},
}

var companyUpdateCmd = &cobra.Command{
	Use:   "update <code|id>",
	Short: "Change a company's name, course, seat mode, allowance or expiry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var change seats.SettingsChange
		flags := cmd.Flags()
		if flags.Changed("name") {
			v, _ := flags.GetString("name")
			change.CompanyName = &v
		}
		if flags.Changed("course") {
			v, _ := flags.GetString("course")
			change.CourseID = &v
		}
		if flags.Changed("mode") {
			v, _ := flags.GetString("mode")
			mode, ok := training.ParseSeatMode(v)
			if !ok {
				return fmt.Errorf("%w: %q", seats.ErrInvalidSeatMode, v)
			}
			change.SeatMode = &mode
		}
		if flags.Changed("seats") {
			v, _ := flags.GetInt("seats")
			change.SeatAllowance = &v
		}
		if flags.Changed("expires") {
			v, _ := flags.GetString("expires")
			t, err := time.ParseInLocation("2006-01-02", v, time.Local)
			if err != nil {
				return fmt.Errorf("parse --expires: %w", err)
			}
			t = t.Add(24*time.Hour - time.Second)
			change.ExpiresAt = &t
		}
		if change.Empty() {
			return fmt.Errorf("nothing to update: pass at least one of --name, --course, --mode, --seats, --expires")
		}

		svc, err := openServices(cmd, nil)
		if err != nil {
			return err
		}
		defer svc.Close()

		ac, err := svc.ledger.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		ac, err = svc.ledger.UpdateSettings(cmd.Context(), ac.ID, change)
		if err != nil {
			return err
		}
		printCompany(ac)
		return nil
	},
}

var companyTopUpCmd = &cobra.Command{
	Use:   "topup <code|id> --by N",
	Short: "Add seats, or remove them with a negative --by",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		delta, _ := cmd.Flags().GetInt("by")
		if delta == 0 {
			return fmt.Errorf("--by must be a non-zero number of seats")
		}

		svc, err := openServices(cmd, nil)
		if err != nil {
			return err
		}
		defer svc.Close()

		ac, err := svc.ledger.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		ac, err = svc.ledger.TopUp(cmd.Context(), ac.ID, delta)
		if err != nil {
			return err
		}
		fmt.Printf("%s: allowance changed by %+d, now %s\n", ac.Code, delta, seatUsage(ac))
		return nil
	},
}

var companyDeleteCmd = &cobra.Command{
	Use:   "delete <code|id>",
	Short: "Delete a company together with its results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		svc, err := openServices(cmd, nil)
		if err != nil {
			return err
		}
		defer svc.Close()

		ac, err := svc.ledger.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !yes {
			return fmt.Errorf("deleting %s (%s) removes all of its results; re-run with --yes to confirm", ac.Code, ac.CompanyName)
		}
		removed, err := svc.ledger.DeleteCompany(cmd.Context(), ac.ID)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %s and %d result(s).\n", ac.Code, removed)
		return nil
	},
}

var companyInviteCmd = &cobra.Command{
	Use:   "invite <code|id>",
	Short: "Print the invite message for a company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		linkOnly, _ := cmd.Flags().GetBool("link")

		svc, err := openServices(cmd, nil)
		if err != nil {
			return err
		}
		defer svc.Close()

		ac, err := svc.ledger.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if linkOnly {
			fmt.Println(seats.InviteLink(cfg.InviteBaseURL, ac.Code))
			return nil
		}
		title := ""
		if c, err := svc.catalog.Get(cmd.Context(), ac.CourseID); err == nil {
			title = c.Title
		}
		fmt.Print(seats.InviteMessage(cfg.InviteBaseURL, ac, title))
		return nil
	},
}

func init() {
	companyCreateCmd.Flags().String("name", "", "Company name")
	companyCreateCmd.Flags().String("code", "", "Access code (generated when empty)")
	companyCreateCmd.Flags().String("course", "", "Course id (first course when empty)")
	companyCreateCmd.Flags().String("mode", "", "Seat mode: LIMITED or UNLIMITED (default UNLIMITED)")
	companyCreateCmd.Flags().Int("seats", training.DefaultAllowance, "Seat allowance for LIMITED codes")
	companyCreateCmd.Flags().Int("days", 0, "Days until the code expires (default 30)")

	companyListCmd.Flags().String("search", "", "Filter by code or company name")

	companyUpdateCmd.Flags().String("name", "", "New company name")
	companyUpdateCmd.Flags().String("course", "", "New course id")
	companyUpdateCmd.Flags().String("mode", "", "New seat mode: LIMITED or UNLIMITED")
	companyUpdateCmd.Flags().Int("seats", 0, "New seat allowance")
	companyUpdateCmd.Flags().String("expires", "", "New expiry date (YYYY-MM-DD, end of day)")

	companyTopUpCmd.Flags().Int("by", 0, "Seats to add; negative removes (e.g. --by=-2)")

	companyDeleteCmd.Flags().Bool("yes", false, "Confirm deletion")

	companyInviteCmd.Flags().Bool("link", false, "Print only the invite link")

	companyCmd.AddCommand(companyCreateCmd)
	companyCmd.AddCommand(companyListCmd)
	companyCmd.AddCommand(companyShowCmd)
	companyCmd.AddCommand(companyUpdateCmd)
	companyCmd.AddCommand(companyTopUpCmd)
	companyCmd.AddCommand(companyDeleteCmd)
	companyCmd.AddCommand(companyInviteCmd)
}

func printCompany(ac *training.AccessCode) {
	fmt.Printf("Company:  %s\n", ac.CompanyName)
	fmt.Printf("Code:     %s\n", ac.Code)
	fmt.Printf("ID:       %s\n", ac.ID)
	fmt.Printf("Course:   %s\n", ac.CourseID)
	fmt.Printf("Seats:    %s (%s)\n", seatUsage(ac), ac.SeatMode)
	fmt.Printf("Expires:  %s\n", ac.ExpiresAt.Local().Format("2006-01-02 15:04"))
}

func seatUsage(ac *training.AccessCode) string {
	if ac.SeatMode != training.SeatModeLimited {
		return fmt.Sprintf("%d/∞", ac.SeatsUsed)
	}
	return fmt.Sprintf("%d/%d", ac.SeatsUsed, ac.SeatAllowance)
}

func auditDetail(e training.SeatAuditEntry) string {
	switch e.Type {
	case training.AuditInitial:
		if e.Amount != nil {
			return fmt.Sprintf("%d seats (%s)", *e.Amount, e.Mode)
		}
		return string(e.Mode)
	case training.AuditModeChange:
		return "→ " + string(e.Mode)
	default:
		var b strings.Builder
		if e.Amount != nil {
			fmt.Fprintf(&b, "%+d", *e.Amount)
		}
		if e.TotalLimit != nil {
			fmt.Fprintf(&b, " total %d", *e.TotalLimit)
		}
		return strings.TrimSpace(b.String())
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
