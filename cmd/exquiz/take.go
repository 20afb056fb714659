package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stemsi/exquiz-backend/internal/attempt"
	"github.com/stemsi/exquiz-backend/internal/model"
	"github.com/stemsi/exquiz-backend/internal/report"
)

const takeHelp = `Commands:
  a, b, c ...   pick an option for the current question
  n / p         next / previous question
  g <n>         go to question n
  x             clear the current answer
  t             show time left
  s             submit
  q             abandon the attempt (nothing is sent)
  ?             this help`

func newTakeCmd(g *globals) *cobra.Command {
	var (
		subjectID int
		semester  int
		setNumber int
	)

	cmd := &cobra.Command{
		Use:   "take",
		Short: "Take a timed test",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !model.Semester(semester).Valid() {
				return fmt.Errorf("semester must be 1 or 2")
			}
			if subjectID <= 0 || setNumber <= 0 {
				return fmt.Errorf("--subject and --set must be positive")
			}

			api, _, err := g.session()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			payload, err := api.FetchQuestionSet(ctx, subjectID, model.Semester(semester), setNumber)
			if err != nil {
				return err
			}
			sess, err := attempt.NewSession(payload, api, g.log)
			if err != nil {
				return err
			}
			return runAttempt(ctx, sess, os.Stdin, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&subjectID, "subject", 0, "subject id")
	cmd.Flags().IntVar(&semester, "semester", 1, "semester (1 or 2)")
	cmd.Flags().IntVar(&setNumber, "set", 1, "question set number")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

type runOutcome struct {
	res *model.SubmitTestResponse
	err error
}

// runAttempt drives one session from a line-oriented terminal.
func runAttempt(ctx context.Context, sess *attempt.Session, in io.Reader, out io.Writer) error {
	if err := sess.Start(); err != nil {
		return err
	}

	runner := attempt.NewRunner(sess)
	runner.OnTick = func(remaining int) {
		if remaining == 60 || remaining == 300 {
			fmt.Fprintf(out, "\n-- %s left --\n", report.FormatDuration(remaining))
		}
	}
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	ran := make(chan runOutcome, 1)
	go func() {
		res, err := runner.Run(runCtx)
		ran <- runOutcome{res, err}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-runCtx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(out, takeHelp)
	printView(out, sess.View())

	for {
		select {
		case <-ctx.Done():
			sess.Abandon()
			return ctx.Err()

		case o := <-ran:
			ran = nil
			if o.err != nil && errors.Is(o.err, context.Canceled) {
				continue
			}
			switch sess.State() {
			case attempt.StateSubmitted:
				printResult(out, sess.Result())
				return nil
			case attempt.StateAbandoned:
				return nil
			case attempt.StateSubmitFailed:
				fmt.Fprintf(out, "\nTime is up but the submission failed: %v\nType s to retry.\n", o.err)
			}

		case line, ok := <-lines:
			if !ok {
				if sess.State() == attempt.StateSubmitted {
					return nil
				}
				sess.Abandon()
				return errors.New("input closed before the test was submitted")
			}
			done, err := handleLine(ctx, sess, strings.TrimSpace(line), out)
			if err != nil {
				return err
			}
			if done {
				if res := sess.Result(); res != nil {
					printResult(out, res)
				}
				return nil
			}
		}
	}
}

// handleLine applies one command; it reports true once the attempt is over.
func handleLine(ctx context.Context, sess *attempt.Session, line string, out io.Writer) (bool, error) {
	switch {
	case line == "":
		printView(out, sess.View())
	case line == "?":
		fmt.Fprintln(out, takeHelp)
	case line == "n":
		sess.Next()
		printView(out, sess.View())
	case line == "p":
		sess.Prev()
		printView(out, sess.View())
	case line == "x":
		sess.Clear()
		printView(out, sess.View())
	case line == "t":
		fmt.Fprintf(out, "%s left\n", report.FormatDuration(sess.View().Remaining))
	case line == "q":
		sess.Abandon()
		fmt.Fprintln(out, "Attempt abandoned")
		return true, nil
	case line == "s":
		fmt.Fprintln(out, "Submitting...")
		if _, err := sess.Submit(ctx); err != nil {
			if errors.Is(err, attempt.ErrSubmitInFlight) {
				fmt.Fprintln(out, "Already submitting, please wait")
				return false, nil
			}
			fmt.Fprintf(out, "Submission failed: %v\n", err)
			return false, nil
		}
		return true, nil
	case strings.HasPrefix(line, "g "):
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "g ")))
		if err != nil || sess.GoTo(n-1) != nil {
			fmt.Fprintln(out, "No such question")
			return false, nil
		}
		printView(out, sess.View())
	case len(line) <= 2 && isLetters(line):
		opt := labelIndex(strings.ToUpper(line))
		if !sess.Select(opt) {
			fmt.Fprintln(out, "That option is not available")
			return false, nil
		}
		sess.Next()
		printView(out, sess.View())
	default:
		fmt.Fprintln(out, "Unknown command, type ? for help")
	}
	return false, nil
}

func printView(out io.Writer, v attempt.View) {
	fmt.Fprintf(out, "\nQuestion %d of %d  (%d answered, %s left)\n",
		v.Position+1, v.Total, v.Answered, report.FormatDuration(v.Remaining))
	fmt.Fprintln(out, report.StripLatex(v.Question.QuestionText))
	for i, opt := range v.Question.Options {
		mark := " "
		if v.Selected != nil && *v.Selected == i {
			mark = "X"
		}
		fmt.Fprintf(out, "  [%s] %s. %s\n", mark, report.OptionLabel(i), report.StripLatex(opt))
	}
}

func printResult(out io.Writer, res *model.SubmitTestResponse) {
	fmt.Fprintf(out, "\nSubmitted. Correct %d / %d, score %.2f, time %s\n",
		res.CorrectCount, res.TotalQuestions, res.Score, report.FormatDuration(res.TimeSpent))
	fmt.Fprintf(out, "Result id: %s (exquiz report %s)\n", res.ResultID, res.ResultID)
}

func isLetters(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// labelIndex is the inverse of report.OptionLabel.
func labelIndex(label string) int {
	n := 0
	for _, r := range label {
		n = n*26 + int(r-'A') + 1
	}
	return n - 1
}
