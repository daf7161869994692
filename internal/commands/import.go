package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/gateway"
	"github.com/tally-dev/tally/internal/id"
	"github.com/tally-dev/tally/internal/importer"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/review"
	"github.com/tally-dev/tally/internal/reviewlog"
)

func newImportCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import statements and review the new operations",
		Long: `Import statement files and review each new operation before it is
added to the ledger. With no files, every CSV in <data>/import/ is
imported and moved to import/processed/ once its review completes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			paths, scanned, err := a.importPaths(args)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No statements to import.")
				return nil
			}

			gw, release, err := a.dial(ctx)
			if err != nil {
				return err
			}
			defer release()

			r := a.newReviewer(ctx, gw, newTerminal(cmd.InOrStdin(), cmd.OutOrStdout()))
			completed, err := r.run(ctx, paths)
			if err != nil {
				return err
			}

			if completed {
				for _, f := range scanned {
					if err := importer.MarkProcessed(a.cfg.Data.Dir, f.Name); err != nil {
						return err
					}
					a.logger.Info("statement processed", "file", f.Name)
				}
			}
			return nil
		},
	}

	addClientFlags(cmd)
	cmd.Flags().Bool("allow-skip", true, "allow skipping an operation")
	cmd.Flags().String("refresh-policy", "", "when to refresh balances (completion or close)")
	cmd.Flags().String("default-label", "", "label offered for operations without one (empty or raw)")

	return cmd
}

// importPaths resolves args to absolute paths, scanning the import
// directory when none are given. The backend may run elsewhere, so
// relative paths are not sent as is.
func (a *app) importPaths(args []string) ([]string, []importer.FileInfo, error) {
	var scanned []importer.FileInfo
	if len(args) == 0 {
		files, err := importer.Scan(a.cfg.Data.Dir)
		if err != nil {
			return nil, nil, err
		}
		scanned = files
		for _, f := range files {
			args = append(args, f.Path)
		}
	}

	paths := make([]string, 0, len(args))
	for _, p := range args {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		paths = append(paths, abs)
	}
	return paths, scanned, nil
}

// reviewer drives a review.Session from a terminal.
type reviewer struct {
	session   *review.Session
	refresher *review.Refresher
	catalog   *review.Catalog
	journal   *reviewlog.Logger
	logger    *log.Logger
	term      *terminal
}

func (a *app) newReviewer(ctx context.Context, gw gateway.Gateway, term *terminal) *reviewer {
	catalog, err := review.LoadCatalog(ctx, gw)
	if err != nil {
		a.logger.Warn("reference catalog unavailable, enrichment is freeform", "err", err)
		catalog = review.DegradedCatalog()
	}

	refresher := review.NewRefresher(gw)
	if err := refresher.Refresh(ctx); err != nil {
		a.logger.Warn("could not load accounts", "err", err)
	}

	session := review.NewSession(gw, catalog, refresher, review.Options{
		AllowSkip:     a.cfg.Review.AllowSkip,
		RefreshPolicy: review.RefreshPolicy(a.cfg.Review.RefreshPolicy),
		DefaultLabel:  review.LabelPolicy(a.cfg.Review.DefaultLabel),
	})

	return &reviewer{
		session:   session,
		refresher: refresher,
		catalog:   catalog,
		journal:   reviewlog.NewLogger(a.cfg.Data.Dir),
		logger:    a.logger,
		term:      term,
	}
}

// run imports paths and reviews the batch until it completes, the user
// closes it or input ends. It reports whether the batch completed.
func (r *reviewer) run(ctx context.Context, paths []string) (bool, error) {
	n, err := r.session.Import(ctx, paths)
	printNotice(r.term.out, n)
	if err != nil {
		r.record(reviewlog.ActionError, "", "", err.Error())
		return false, err
	}
	r.record(reviewlog.ActionImport, "", "", fmt.Sprintf("%d file(s), %d candidate(s)", len(paths), r.batchSize()))
	if r.session.State() == review.Idle {
		return false, nil
	}

	if r.catalog.Degraded() {
		printNotice(r.term.out, review.Notice{Kind: review.NoticeInfo, Message: "Reference catalog unavailable, enrichment is freeform"})
	} else {
		printReferences(r.term.out, model.ReferenceCatalog{Subjects: r.catalog.Subjects(), Categories: r.catalog.Categories()})
	}

	for r.session.State() == review.Reviewing {
		if !r.step(ctx) {
			r.close(ctx)
			return false, nil
		}
	}

	if r.session.State() != review.Completed {
		return false, nil
	}
	r.record(reviewlog.ActionComplete, "", "", fmt.Sprintf("%d added, %d skipped", r.session.Committed(), r.session.Skipped()))
	r.close(ctx)
	return true, nil
}

// step handles one answer for the head candidate. It returns false when
// the user closes the review or input ends.
func (r *reviewer) step(ctx context.Context) bool {
	p := review.Render(r.session.Snapshot())
	printPrompt(r.term.out, p)

	choice, ok := r.term.ask(actionMenu(p.Actions), string(review.ActionAdd)[:1])
	if !ok {
		return false
	}

	switch strings.ToLower(choice) {
	case "a", string(review.ActionAdd):
		edit, ok := r.readEdit(p)
		if !ok {
			return false
		}
		r.add(ctx, edit)
	case "s", string(review.ActionSkip):
		r.skip(ctx)
	case "c", string(review.ActionClose):
		return false
	default:
		printNotice(r.term.out, review.Notice{Kind: review.NoticeError, Message: fmt.Sprintf("unknown action %q", choice)})
	}
	return true
}

func (r *reviewer) readEdit(p review.Prompt) (review.Edit, bool) {
	subject, ok := r.term.choose("Subject", p.Subject, p.Subjects)
	if !ok {
		return review.Edit{}, false
	}
	category, ok := r.term.choose("Category", p.Category, p.Categories)
	if !ok {
		return review.Edit{}, false
	}
	label, ok := r.term.ask("Label", p.Label)
	if !ok {
		return review.Edit{}, false
	}
	return review.Edit{Subject: subject, Category: category, Label: label}, true
}

func (r *reviewer) add(ctx context.Context, e review.Edit) {
	head, _ := r.session.Current()
	opID := id.FormatOperationID(head.Operation.Date, head.Operation.RawLabel, head.Operation.Amount)

	n, err := r.session.Add(ctx, e)
	if err != nil && r.session.State() != review.Completed {
		printNotice(r.term.out, n)
		r.record(reviewlog.ActionError, head.Account.ID, opID, err.Error())
		return
	}
	r.record(reviewlog.ActionAdd, head.Account.ID, opID, strings.Join([]string{e.Subject, e.Category, e.Label}, " / "))
	r.finish(n, err)
}

func (r *reviewer) skip(ctx context.Context) {
	head, _ := r.session.Current()
	opID := id.FormatOperationID(head.Operation.Date, head.Operation.RawLabel, head.Operation.Amount)

	n, err := r.session.Skip(ctx)
	if errors.Is(err, review.ErrSkipDisabled) {
		printNotice(r.term.out, review.Notice{Kind: review.NoticeError, Message: "Skipping is disabled"})
		return
	}
	if err != nil && r.session.State() != review.Completed {
		printNotice(r.term.out, review.Notice{Kind: review.NoticeError, Message: err.Error()})
		return
	}
	r.record(reviewlog.ActionSkip, head.Account.ID, opID, "")
	r.finish(n, err)
}

// finish reports the outcome of a successful add or skip. err is a
// refresh failure after the last candidate.
func (r *reviewer) finish(n review.Notice, err error) {
	printNotice(r.term.out, n)
	if err != nil {
		r.logger.Warn("balances not refreshed", "err", err)
	}
}

// close ends the review and prints the refreshed balances.
func (r *reviewer) close(ctx context.Context) {
	n, err := r.session.Close(ctx)
	if errors.Is(err, review.ErrInvalidState) {
		return
	}
	printNotice(r.term.out, n)
	r.record(reviewlog.ActionClose, "", "", fmt.Sprintf("%d added, %d skipped", r.session.Committed(), r.session.Skipped()))
	if err != nil {
		r.logger.Warn("balances not refreshed", "err", err)
	}

	fmt.Fprintln(r.term.out)
	printAccounts(r.term.out, r.refresher.Accounts())
}

func (r *reviewer) batchSize() int {
	if b := r.session.Batch(); b != nil {
		return b.OriginalLength()
	}
	return 0
}

// record appends to the review log. A log failure never stops the review.
func (r *reviewer) record(action, accountID, operationID, details string) {
	if err := r.journal.Log(action, accountID, operationID, details); err != nil {
		r.logger.Warn("writing review log", "err", err)
	}
}
