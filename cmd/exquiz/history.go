package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/stemsi/exquiz-backend/internal/model"
	"github.com/stemsi/exquiz-backend/internal/report"
)

func newHistoryCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "history [result-id]",
		Short: "List your past results, or show one result question by question",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, err := g.session()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				id, err := uuid.Parse(args[0])
				if err != nil {
					return fmt.Errorf("invalid result id %q", args[0])
				}
				res, err := api.Detail(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printDetail(cmd.OutOrStdout(), res)
			}

			results, err := api.History(cmd.Context())
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No results yet")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSUBJECT\tCLASS\tSEM\tSET\tCORRECT\tSCORE\tTIME\tDATE")
			for _, r := range results {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d/%d\t%s\t%s\t%s\n",
					r.ID, r.SubjectName, r.ClassName, int(r.Semester), r.SetNumber,
					r.CorrectCount, r.TotalQuestions, formatScore(r.Score),
					report.FormatDuration(r.TimeSpent),
					r.SubmittedAt.UTC().Format("2006-01-02 15:04"),
				)
			}
			return w.Flush()
		},
	}
}

// printDetail lists every graded question with the picked and the correct option.
func printDetail(out io.Writer, res *model.TestResult) error {
	fmt.Fprintf(out, "%s (%s), semester %d set %d\n", res.SubjectName, res.ClassName, int(res.Semester), res.SetNumber)
	fmt.Fprintf(out, "Correct %d / %d, score %s, time %s\n\n",
		res.CorrectCount, res.TotalQuestions, formatScore(res.Score), report.FormatDuration(res.TimeSpent))

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tYOURS\tCORRECT\tRESULT")
	for i, q := range res.Questions {
		yours, verdict := "-", "unanswered"
		if q.UserAnswer != nil {
			yours = report.OptionLabel(*q.UserAnswer)
			verdict = "wrong"
		}
		if q.IsCorrect {
			verdict = "ok"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, yours, report.OptionLabel(q.CorrectAnswer), verdict)
	}
	return w.Flush()
}

// formatScore prints at least two decimals and never rounds away finer points.
func formatScore(score float64) string {
	d := decimal.NewFromFloat(score)
	if d.Exponent() >= -2 {
		return d.StringFixed(2)
	}
	return d.String()
}

func newReportCmd(g *globals) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "report <result-id>",
		Short: "Download the plain-text report of a result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid result id %q", args[0])
			}
			api, _, err := g.session()
			if err != nil {
				return err
			}
			body, err := api.Report(cmd.Context(), id)
			if err != nil {
				return err
			}

			if out == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), body)
				return err
			}
			if out == "." {
				out = "test-report-" + id.String() + ".txt"
			}
			if err := os.WriteFile(out, []byte(body), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", `write to a file instead of stdout ("." picks the default name)`)
	return cmd
}
