package review

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/gateway"
	"github.com/tally-dev/tally/internal/model"
)

type addCall struct {
	AccountID string
	Draft     model.OperationDraft
}

// fakeGateway scripts backend answers and records the calls made.
type fakeGateway struct {
	candidates  []model.CandidateOperation
	importErr   error
	importPaths [][]string

	// addErrs[i] is returned by the i-th AddOperation call.
	addErrs  map[int]error
	addCalls []addCall

	accounts     []model.Account
	accountsErr  error
	accountCalls int

	refs      model.ReferenceCatalog
	refsErr   error
	refsCalls int

	inFlight    int
	maxInFlight int
}

var _ gateway.Gateway = (*fakeGateway)(nil)

func (f *fakeGateway) enter() func() {
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	return func() { f.inFlight-- }
}

func (f *fakeGateway) ListAccounts(context.Context) ([]model.Account, error) {
	defer f.enter()()
	f.accountCalls++
	return f.accounts, f.accountsErr
}

func (f *fakeGateway) ListOperations(context.Context, string) ([]model.Operation, error) {
	return nil, errors.New("not scripted")
}

func (f *fakeGateway) GetOperation(context.Context, string, string) (model.Operation, error) {
	return model.Operation{}, errors.New("not scripted")
}

func (f *fakeGateway) AddOperation(_ context.Context, accountID string, d model.OperationDraft) error {
	defer f.enter()()
	i := len(f.addCalls)
	f.addCalls = append(f.addCalls, addCall{AccountID: accountID, Draft: d})
	return f.addErrs[i]
}

func (f *fakeGateway) UpdateOperation(context.Context, string, model.Operation) error {
	return errors.New("not scripted")
}

func (f *fakeGateway) ImportFiles(_ context.Context, paths []string) ([]model.CandidateOperation, error) {
	defer f.enter()()
	f.importPaths = append(f.importPaths, paths)
	if f.importErr != nil {
		return nil, f.importErr
	}
	return f.candidates, nil
}

func (f *fakeGateway) ListReferences(context.Context) (model.ReferenceCatalog, error) {
	defer f.enter()()
	f.refsCalls++
	return f.refs, f.refsErr
}

var testRefs = model.ReferenceCatalog{
	Subjects:   []string{"Decathlon", "EDF", "Self"},
	Categories: []string{"Amenities", "Bank", "Pleasure"},
}

func candidate(account, raw, amount string) model.CandidateOperation {
	return model.CandidateOperation{
		Account: model.AccountRef{ID: account},
		Operation: model.OperationDraft{
			Date:     time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC),
			RawLabel: raw,
			Amount:   decimal.RequireFromString(amount),
		},
	}
}

func threeCandidates() []model.CandidateOperation {
	return []model.CandidateOperation{
		candidate("CCP 1", "CARTE DECATHLON", "-45.90"),
		candidate("CCP 1", "PRELEVEMENT DE EDF", "-62.00"),
		candidate("CHASE 2", "VIREMENT", "1500.00"),
	}
}

func validEdit() Edit {
	return Edit{Label: "Stuff", Category: "Pleasure", Subject: "Decathlon"}
}

func newTestSession(gw *fakeGateway, opts Options) *Session {
	return NewSession(gw, NewCatalog(testRefs), NewRefresher(gw), opts)
}
