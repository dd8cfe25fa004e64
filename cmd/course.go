package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/labinot-bajgora/ECK-safety/internal/courses"
	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

var courseCmd = &cobra.Command{
	Use:     "course",
	Aliases: []string{"courses"},
	Short:   "Manage training courses",
}

var courseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List courses",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cmd, nil)
		if err != nil {
			return err
		}
		defer svc.Close()

		list, err := svc.catalog.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No courses. Run `safetyhub seed` or `safetyhub course import`.")
			return nil
		}

		fmt.Printf("%-20s  %-32s  %-8s  %-6s  %-6s  %s\n", "ID", "Title", "Version", "Video", "Quiz", "Status")
		fmt.Println(strings.Repeat("─", 88))
		for _, c := range list {
			status := "inactive"
			if c.IsActive {
				status = "active"
			}
			version := c.Version
			if version == "" {
				version = "-"
			}
			fmt.Printf("%-20s  %-32s  %-8s  %-6s  %-6d  %s\n",
				c.ID, truncate(c.Title, 32), version, clock(c.Duration()), len(c.Questions), status)
		}
		return nil
	},
}

var courseShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a course outline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cmd, nil)
		if err != nil {
			return err
		}
		defer svc.Close()

		c, err := svc.catalog.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printCourse(c)
		return nil
	},
}

var courseNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Print a draft course document to start authoring from",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")

		svc, err := openServices(cmd, nil)
		if err != nil {
			return err
		}
		defer svc.Close()

		return writeTo(out, func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(svc.catalog.NewDraft())
		})
	},
}

var courseImportCmd = &cobra.Command{
	Use:   "import <file.json|->",
	Short: "Validate and import a course document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		var r io.Reader = os.Stdin
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open course document: %w", err)
			}
			defer f.Close()
			r = f
		}

		svc, err := openServices(cmd, nil)
		if err != nil {
			return err
		}
		defer svc.Close()

		c, err := svc.catalog.Import(cmd.Context(), r, force)
		if err != nil {
			var verr *courses.ValidationError
			if errors.As(err, &verr) {
				fmt.Fprintf(os.Stderr, "Course %q has %d problem(s):\n", verr.CourseID, len(verr.Problems))
				for _, p := range verr.Problems {
					fmt.Fprintln(os.Stderr, "  -", p)
				}
			}
			if errors.Is(err, courses.ErrOlderVersion) {
				fmt.Fprintln(os.Stderr, "Use --force to import it anyway.")
			}
			return err
		}
		fmt.Printf("Imported %s (%s) version %s.\n", c.ID, c.Title, orDash(c.Version))
		return nil
	},
}

var courseExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Write a course as a JSON document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")

		svc, err := openServices(cmd, nil)
		if err != nil {
			return err
		}
		defer svc.Close()

		return writeTo(out, func(w io.Writer) error {
			return svc.catalog.Export(cmd.Context(), args[0], w)
		})
	},
}

var courseActivateCmd = &cobra.Command{
	Use:   "activate <id>",
	Short: "Allow learners to take a course",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setCourseActive(cmd, args[0], true)
	},
}

var courseDeactivateCmd = &cobra.Command{
	Use:   "deactivate <id>",
	Short: "Stop learners from starting a course",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setCourseActive(cmd, args[0], false)
	},
}

func init() {
	courseNewCmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")
	courseImportCmd.Flags().Bool("force", false, "Import even when the stored version is newer")
	courseExportCmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")

	courseCmd.AddCommand(courseListCmd)
	courseCmd.AddCommand(courseShowCmd)
	courseCmd.AddCommand(courseNewCmd)
	courseCmd.AddCommand(courseImportCmd)
	courseCmd.AddCommand(courseExportCmd)
	courseCmd.AddCommand(courseActivateCmd)
	courseCmd.AddCommand(courseDeactivateCmd)
}

func setCourseActive(cmd *cobra.Command, id string, active bool) error {
	svc, err := openServices(cmd, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.catalog.SetActive(cmd.Context(), id, active); err != nil {
		return err
	}
	state := "inactive"
	if active {
		state = "active"
	}
	fmt.Printf("%s is now %s.\n", id, state)
	return nil
}

func printCourse(c *training.Course) {
	status := "inactive"
	if c.IsActive {
		status = "active"
	}
	fmt.Printf("%s (%s) · version %s · %s\n", c.Title, c.ID, orDash(c.Version), status)
	fmt.Printf("Video: %s · %d chapter(s) · %d checkpoint(s)\n", clock(c.Duration()), len(c.VideoChapters), len(c.Checkpoints))

	if len(c.VideoChapters) > 0 {
		fmt.Println("\nChapters:")
		for _, ch := range c.VideoChapters {
			fmt.Printf("  %5s  %s\n", clock(ch.StartTime), ch.Title)
		}
	}
	if len(c.Checkpoints) > 0 {
		fmt.Println("\nCheckpoints:")
		for _, cp := range c.SortedCheckpoints() {
			fmt.Printf("  %5s  %s\n", clock(cp.Time), cp.Question)
		}
	}
	fmt.Printf("\nQuiz: %d question(s), pass mark %d%%, %d attempt(s)\n", len(c.Questions), training.PassMark, training.MaxAttempts)
	for i, q := range c.Questions {
		fmt.Printf("  %2d. %s\n", i+1, q.Text)
		for j, opt := range q.Options {
			mark := " "
			if j == q.CorrectIndex {
				mark = "✓"
			}
			fmt.Printf("      %s %s\n", mark, opt)
		}
	}
}

// writeTo runs write against the file at path, or stdout when path is empty.
func writeTo(path string, write func(io.Writer) error) error {
	if path == "" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	return nil
}

func clock(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
