package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/labinot-bajgora/ECK-safety/internal/results"
	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "List and export training results",
}

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List results, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := resultsQuery(cmd)
		q.Page, _ = cmd.Flags().GetInt("page")
		q.PageSize, _ = cmd.Flags().GetInt("limit")

		svc, err := openServices(cmd, nil)
		if err != nil {
			return err
		}
		defer svc.Close()

		page, err := svc.recorder.List(cmd.Context(), q)
		if err != nil {
			return err
		}
		if len(page.Items) == 0 {
			fmt.Println("No results found.")
			return nil
		}

		fmt.Printf("%-16s  %-22s  %-20s  %-5s  %-4s  %-8s  %s\n",
			"Completed", "Learner", "Company", "Score", "Try", "Result", "Completion ID")
		fmt.Println(strings.Repeat("─", 110))
		for _, r := range page.Items {
			fmt.Printf("%-16s  %-22s  %-20s  %4d%%  %-4d  %-8s  %s\n",
				r.CompletedAt.Local().Format("2006-01-02 15:04"),
				truncate(r.Learner.FullName(), 22),
				truncate(r.Learner.CompanyName, 20),
				r.Score, r.Attempts, outcome(r), r.CompletionID)
		}
		fmt.Printf("\nPage %d of %d · %d result(s)\n", page.Page, max(page.Pages, 1), page.Total)
		return nil
	},
}

var resultsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export matching results as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := resultsQuery(cmd)
		q.Page, q.PageSize = 1, -1
		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			out = results.ExportFilename(time.Now())
		}

		svc, err := openServices(cmd, nil)
		if err != nil {
			return err
		}
		defer svc.Close()

		page, err := svc.recorder.List(cmd.Context(), q)
		if err != nil {
			return err
		}
		if out == "-" {
			out = ""
		}
		return writeTo(out, func(w io.Writer) error {
			return results.ExportCSV(w, page.Items)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{resultsListCmd, resultsExportCmd} {
		c.Flags().String("company", "", "Only results for this access code")
		c.Flags().String("search", "", "Match learner, company or course name")
	}
	resultsListCmd.Flags().Int("page", 1, "Page number")
	resultsListCmd.Flags().Int("limit", results.DefaultPageSize, "Results per page")
	resultsExportCmd.Flags().StringP("output", "o", "", "Output file, - for stdout (default safetyhub-results-DATE.csv)")

	resultsCmd.AddCommand(resultsListCmd)
	resultsCmd.AddCommand(resultsExportCmd)
}

func resultsQuery(cmd *cobra.Command) results.Query {
	company, _ := cmd.Flags().GetString("company")
	search, _ := cmd.Flags().GetString("search")
	return results.Query{
		Search: search,
		Code:   training.NormalizeCode(company),
	}
}

func outcome(r training.TestResult) string {
	if r.Passed {
		return "PASSED"
	}
	return "FAILED"
}
