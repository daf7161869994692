package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/review"
)

var (
	positive = color.New(color.FgGreen)
	negative = color.New(color.FgRed)
	heading  = color.New(color.Bold)

	noticeColors = map[review.NoticeKind]*color.Color{
		review.NoticeInfo:    color.New(color.FgCyan),
		review.NoticeSuccess: color.New(color.FgGreen),
		review.NoticeError:   color.New(color.FgRed),
	}
)

func signed(text string, sign model.SignClass) string {
	if sign == model.SignPositive {
		return positive.Sprint(text)
	}
	return negative.Sprint(text)
}

func printAccounts(w io.Writer, accts []model.Account) {
	if len(accts) == 0 {
		fmt.Fprintln(w, "No accounts yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT\tBALANCE\tUPDATED")
	for _, a := range accts {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.ID, signed(model.DisplayBalance(a.Balance), model.Sign(a.Balance)), model.DisplayDate(a.UpdatedAt))
	}
	tw.Flush()
}

func printOperations(w io.Writer, ops []model.Operation) {
	if len(ops) == 0 {
		fmt.Fprintln(w, "No operations.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tAMOUNT\tSUBJECT\tCATEGORY\tLABEL\tRAW LABEL")
	for _, op := range ops {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			model.DisplayDate(op.Date),
			signed(model.DisplayAmount(op.Amount), model.Sign(op.Amount)),
			op.Subject, op.Category, op.Label, op.RawLabel)
	}
	tw.Flush()
}

func printReferences(w io.Writer, refs model.ReferenceCatalog) {
	heading.Fprintln(w, "Subjects")
	printNumbered(w, refs.Subjects)
	heading.Fprintln(w, "Categories")
	printNumbered(w, refs.Categories)
}

func printNumbered(w io.Writer, items []string) {
	if len(items) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for i, it := range items {
		fmt.Fprintf(w, "  %2d. %s\n", i+1, it)
	}
}

func printNotice(w io.Writer, n review.Notice) {
	if n.Empty() {
		return
	}
	c, ok := noticeColors[n.Kind]
	if !ok {
		fmt.Fprintln(w, n.Message)
		return
	}
	c.Fprintln(w, n.Message)
}

// printPrompt shows the candidate under review.
func printPrompt(w io.Writer, p review.Prompt) {
	fmt.Fprintln(w)
	heading.Fprintln(w, p.Title)
	if p.Account == "" {
		return
	}
	fmt.Fprintf(w, "  account  %s\n", p.Account)
	fmt.Fprintf(w, "  date     %s\n", p.Date)
	fmt.Fprintf(w, "  label    %s\n", p.RawLabel)
	fmt.Fprintf(w, "  amount   %s\n", signed(p.Amount, p.Sign))
}

// actionMenu renders actions as "[a]dd, [s]kip, [c]lose".
func actionMenu(actions []review.Action) string {
	parts := make([]string, 0, len(actions))
	for _, a := range actions {
		s := string(a)
		parts = append(parts, "["+s[:1]+"]"+s[1:])
	}
	return strings.Join(parts, ", ")
}
