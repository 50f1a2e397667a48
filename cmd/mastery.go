package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sapiocode/sapio/internal/mastery"
	"github.com/sapiocode/sapio/internal/store"
	"github.com/sapiocode/sapio/internal/tutor"
)

var masteryCmd = &cobra.Command{
	Use:   "mastery [student]",
	Short: "Show a student's concept mastery",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		student := defaultStudent()
		if len(args) == 1 {
			student = args[0]
		}
		cfg.Log.Mode = "nop"

		ctx := cmd.Context()
		d, err := openDeps(ctx, cfg, features{})
		if err != nil {
			return err
		}
		defer d.Close(context.WithoutCancel(ctx))

		sum, err := d.svc.MasterySummary(student)
		switch {
		case errors.Is(err, tutor.ErrStudentNotFound):
			sum = mastery.Summary{StudentID: student, Concepts: []mastery.ConceptSummary{}}
		case err != nil:
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(sum)
		}

		if len(sum.Concepts) == 0 {
			fmt.Fprintf(out, "No mastery recorded for %s.\n", student)
			return nil
		}

		fmt.Fprintf(out, "%-24s  %7s  %8s  %7s  %s\n", "Concept", "Mastery", "Attempts", "Correct", "")
		fmt.Fprintln(out, strings.Repeat("─", 60))
		for _, c := range sum.Concepts {
			mark := ""
			if c.Mastered {
				mark = "mastered"
			}
			fmt.Fprintf(out, "%-24s  %7.2f  %8d  %7d  %s\n", truncate(c.Concept, 24), c.Mastery, c.Attempts, c.Correct, mark)
		}
		fmt.Fprintln(out, strings.Repeat("─", 60))
		fmt.Fprintf(out, "Average %.2f, %d mastered, %d attempts\n", sum.AverageMastery, sum.MasteredCount, sum.TotalAttempts)
		if len(sum.WeakestConcepts) > 0 {
			fmt.Fprintf(out, "Weakest: %s\n", strings.Join(sum.WeakestConcepts, ", "))
		}

		if n, _ := cmd.Flags().GetInt("history"); n > 0 {
			events, err := d.store.EventRepo().QueryMasteryEvents(ctx, student, store.QueryOpts{Limit: n})
			if err != nil {
				return fmt.Errorf("query history: %w", err)
			}
			fmt.Fprintln(out)
			for _, e := range events {
				fmt.Fprintf(out, "%s  %-20s  %.2f -> %.2f  %s\n",
					e.Timestamp.Local().Format("2006-01-02 15:04"), truncate(e.Concept, 20),
					e.OldMastery, e.NewMastery, e.Explanation)
			}
		}
		return nil
	},
}

func init() {
	masteryCmd.Flags().Bool("json", false, "Print the summary as JSON")
	masteryCmd.Flags().Int("history", 0, "Also print the last N mastery updates")
}

// defaultStudent is the student id used when none is given.
func defaultStudent() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "student"
}
