// Package report renders a stored test result as a downloadable plain-text document.
// The output depends only on the result, so the same record always renders byte-identically.
package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stemsi/exquiz-backend/internal/model"
)

// DateLayout is the timestamp format used in the report header. Times are always UTC.
const DateLayout = "2006-01-02 15:04:05 UTC"

const correctMarker = " [Correct Answer]"

var latexStripper = strings.NewReplacer(`\(`, "", `\)`, "", `\[`, "", `\]`, "", `\\`, "", `\`, "")

// Render produces the report text for r.
func Render(r *model.TestResult) string {
	var b strings.Builder

	total := len(r.Questions)

	b.WriteString("Test Result\n")
	b.WriteString("===========\n\n")
	fmt.Fprintf(&b, "Subject: %s\n", r.SubjectName)
	fmt.Fprintf(&b, "Class: %s\n", r.ClassName)
	fmt.Fprintf(&b, "Semester: %d, Set: %d\n", r.Semester, r.SetNumber)
	fmt.Fprintf(&b, "Date: %s\n", r.SubmittedAt.UTC().Format(DateLayout))
	fmt.Fprintf(&b, "Answered: %d / %d\n", r.AnsweredCount(), total)
	fmt.Fprintf(&b, "Correct: %d / %d\n", r.CorrectCount, total)
	fmt.Fprintf(&b, "Score: %s\n", decimal.NewFromFloat(r.Score).StringFixed(2))
	fmt.Fprintf(&b, "Time Spent: %s\n\n", FormatDuration(r.TimeSpent))
	b.WriteString("Questions and Answers:\n\n")

	for i, q := range r.Questions {
		fmt.Fprintf(&b, "Question %d: %s\n", i+1, StripLatex(q.QuestionText))
		for j, opt := range q.Options {
			mark := "[ ]"
			if q.UserAnswer != nil && *q.UserAnswer == j {
				mark = "[X]"
			}
			suffix := ""
			if q.CorrectAnswer == j {
				suffix = correctMarker
			}
			fmt.Fprintf(&b, "%s %s. %s%s\n", mark, OptionLabel(j), StripLatex(opt), suffix)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// Filename returns the attachment name for a result's report.
func Filename(r *model.TestResult) string {
	return fmt.Sprintf("test-report-%s.txt", r.ID)
}

// FormatDuration renders seconds as m:ss.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// StripLatex removes math delimiters and stray backslashes.
func StripLatex(s string) string {
	return strings.TrimSpace(latexStripper.Replace(s))
}

// OptionLabel maps 0 to "A", 1 to "B", and past "Z" continues as "AA", "AB".
func OptionLabel(i int) string {
	label := ""
	for n := i; ; n = n/26 - 1 {
		label = string(rune('A'+n%26)) + label
		if n < 26 {
			break
		}
	}
	return label
}
