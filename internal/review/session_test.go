package review

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/gateway"
	"github.com/tally-dev/tally/internal/model"
)

func TestSession_AddAllCompletesAndRefreshesOnce(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{candidates: threeCandidates(), accounts: []model.Account{{ID: "CCP 1"}}}
	s := newTestSession(gw, Options{})

	n, err := s.Import(ctx, []string{"a.csv", "b.csv"})
	require.NoError(t, err)
	assert.True(t, n.Empty())
	assert.Equal(t, Reviewing, s.State())
	assert.Equal(t, [][]string{{"a.csv", "b.csv"}}, gw.importPaths)

	for i := 0; i < 3; i++ {
		n, err = s.Add(ctx, validEdit())
		require.NoError(t, err)
	}

	assert.Equal(t, Completed, s.State())
	assert.Equal(t, Notice{Kind: NoticeSuccess, Message: "3 operation(s) imported"}, n)
	assert.Equal(t, 1, gw.accountCalls)
	assert.Equal(t, 0, s.Batch().Len())
	assert.Equal(t, 3, s.Committed())
	assert.Equal(t, []model.Account{{ID: "CCP 1"}}, s.refresher.Accounts())

	// Commits happen in batch order against each candidate's account.
	require.Len(t, gw.addCalls, 3)
	want := threeCandidates()
	for i, c := range gw.addCalls {
		assert.Equal(t, want[i].Account.ID, c.AccountID)
		assert.Equal(t, want[i].Operation.RawLabel, c.Draft.RawLabel)
		assert.Equal(t, "Stuff", c.Draft.Label)
	}
	assert.Equal(t, 1, gw.maxInFlight)

	n, err = s.Close(ctx)
	require.NoError(t, err)
	assert.True(t, n.Empty())
	assert.Equal(t, Idle, s.State())
	assert.Nil(t, s.Batch())
	assert.Equal(t, 1, gw.accountCalls)
}

func TestSession_EmptyImportStaysIdle(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{candidates: []model.CandidateOperation{}}
	s := newTestSession(gw, Options{})

	n, err := s.Import(ctx, []string{"a.csv"})
	require.NoError(t, err)
	assert.Equal(t, Notice{Kind: NoticeInfo, Message: "No new operations detected"}, n)
	assert.Equal(t, Idle, s.State())
	assert.Nil(t, s.Batch())
	assert.Empty(t, gw.addCalls)
	assert.Zero(t, gw.accountCalls)

	_, err = s.Add(ctx, validEdit())
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Empty(t, gw.addCalls)
}

func TestSession_DuplicateKeepsHead(t *testing.T) {
	ctx := context.Background()
	dup := &gateway.ValidationError{Op: gateway.OpAddOperation, Message: "duplicate transaction"}
	gw := &fakeGateway{candidates: threeCandidates(), addErrs: map[int]error{1: dup}}
	s := newTestSession(gw, Options{})

	_, err := s.Import(ctx, nil)
	require.NoError(t, err)
	_, err = s.Add(ctx, validEdit())
	require.NoError(t, err)

	second := Edit{Label: "Power", Category: "Amenities", Subject: "EDF"}
	n, err := s.Add(ctx, second)
	require.Error(t, err)
	assert.True(t, gateway.IsValidation(err))
	assert.Equal(t, Notice{Kind: NoticeError, Message: "duplicate transaction"}, n)

	assert.Equal(t, Reviewing, s.State())
	assert.Equal(t, 2, s.Batch().Len())
	assert.Equal(t, 3, s.Batch().OriginalLength())
	head, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "PRELEVEMENT DE EDF", head.Operation.RawLabel)
	// The draft keeps what was submitted.
	assert.Equal(t, "Power", head.Operation.Label)
	assert.Equal(t, "Amenities", head.Operation.Category)
	assert.Equal(t, "EDF", head.Operation.Subject)
	assert.Equal(t, second, s.DefaultEdit())
	assert.Equal(t, n, s.Snapshot().Notice)

	// Retry succeeds and moves on.
	_, err = s.Add(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Batch().Len())
	assert.Len(t, gw.addCalls, 3)
	assert.Equal(t, gw.addCalls[1], gw.addCalls[2])
}

func TestSession_SkipAllCompletesWithoutWrites(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{candidates: threeCandidates()[:2]}
	s := newTestSession(gw, Options{AllowSkip: true})

	_, err := s.Import(ctx, nil)
	require.NoError(t, err)
	_, err = s.Skip(ctx)
	require.NoError(t, err)
	assert.Equal(t, Reviewing, s.State())

	n, err := s.Skip(ctx)
	require.NoError(t, err)
	assert.Equal(t, Completed, s.State())
	assert.Empty(t, gw.addCalls)
	assert.Equal(t, "2 operation(s) imported", n.Message)
	assert.Equal(t, 2, s.Batch().OriginalLength())
	assert.Equal(t, 2, s.Skipped())
	assert.Equal(t, 1, gw.accountCalls)
}

func TestSkip_Disabled(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{candidates: threeCandidates()}
	s := newTestSession(gw, Options{})

	_, err := s.Import(ctx, nil)
	require.NoError(t, err)
	_, err = s.Skip(ctx)
	assert.ErrorIs(t, err, ErrSkipDisabled)
	assert.Equal(t, Reviewing, s.State())
	assert.Equal(t, 3, s.Batch().Len())
}

func TestImport_TransportError(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{importErr: &gateway.TransportError{Op: gateway.OpImportFiles, Err: errors.New("connection refused")}}
	s := newTestSession(gw, Options{})

	n, err := s.Import(ctx, []string{"a.csv"})
	require.Error(t, err)
	assert.True(t, gateway.IsTransport(err))
	assert.Equal(t, NoticeError, n.Kind)
	assert.Equal(t, "import files: connection refused", n.Message)
	assert.Equal(t, Idle, s.State())
	assert.Nil(t, s.Batch())

	// The user can try again.
	gw.importErr = nil
	gw.candidates = threeCandidates()
	_, err = s.Import(ctx, []string{"a.csv"})
	require.NoError(t, err)
	assert.Equal(t, Reviewing, s.State())
}

func TestInvalidStates(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{candidates: threeCandidates()}
	s := newTestSession(gw, Options{AllowSkip: true})

	_, err := s.Skip(ctx)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = s.Close(ctx)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = s.Import(ctx, nil)
	require.NoError(t, err)
	_, err = s.Import(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Contains(t, err.Error(), "import while reviewing")
	assert.Len(t, gw.importPaths, 1)

	for i := 0; i < 3; i++ {
		_, err = s.Skip(ctx)
		require.NoError(t, err)
	}
	_, err = s.Add(ctx, validEdit())
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = s.Skip(ctx)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestAdd_CatalogRejectsWithoutGatewayCall(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{candidates: threeCandidates()}
	s := newTestSession(gw, Options{})
	_, err := s.Import(ctx, nil)
	require.NoError(t, err)

	n, err := s.Add(ctx, Edit{Label: "x", Category: "Pleasure", Subject: "Nobody"})
	require.Error(t, err)
	assert.True(t, gateway.IsValidation(err))
	assert.Equal(t, `unknown subject "Nobody"`, n.Message)
	assert.Empty(t, gw.addCalls)
	assert.Equal(t, 3, s.Batch().Len())
	assert.Equal(t, Reviewing, s.State())

	head, _ := s.Current()
	assert.Equal(t, "Nobody", head.Operation.Subject)
}

func TestAdd_DegradedCatalogIsFreeform(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{candidates: threeCandidates()[:1]}
	s := NewSession(gw, DegradedCatalog(), NewRefresher(gw), Options{})
	_, err := s.Import(ctx, nil)
	require.NoError(t, err)

	_, err = s.Add(ctx, Edit{Label: " anything ", Category: "Whatever", Subject: "Someone"})
	require.NoError(t, err)
	require.Len(t, gw.addCalls, 1)
	assert.Equal(t, "anything", gw.addCalls[0].Draft.Label)
	assert.Equal(t, Completed, s.State())
}

func TestRefreshOnClose(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{candidates: threeCandidates()[:2]}
	s := newTestSession(gw, Options{AllowSkip: true, RefreshPolicy: RefreshOnClose})

	// Skip-only session: no refresh at completion, one on close.
	_, err := s.Import(ctx, nil)
	require.NoError(t, err)
	_, _ = s.Skip(ctx)
	_, _ = s.Skip(ctx)
	assert.Equal(t, Completed, s.State())
	assert.Zero(t, gw.accountCalls)

	_, err = s.Close(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, gw.accountCalls)

	// Closing mid-review refreshes too and keeps what was committed.
	_, err = s.Import(ctx, nil)
	require.NoError(t, err)
	_, err = s.Add(ctx, validEdit())
	require.NoError(t, err)
	n, err := s.Close(ctx)
	require.NoError(t, err)
	assert.Equal(t, NoticeInfo, n.Kind)
	assert.Equal(t, "Review closed, 1 of 2 operation(s) left unreviewed", n.Message)
	assert.Equal(t, 2, gw.accountCalls)
	assert.Len(t, gw.addCalls, 1)
	assert.Equal(t, Idle, s.State())
	assert.Nil(t, s.Batch())
}

func TestCloseMidReview_CompletionPolicyDoesNotRefresh(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{candidates: threeCandidates()}
	s := newTestSession(gw, Options{})

	_, err := s.Import(ctx, nil)
	require.NoError(t, err)
	_, err = s.Close(ctx)
	require.NoError(t, err)
	assert.Zero(t, gw.accountCalls)
}

func TestRefreshFailureAtCompletion(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{
		candidates:  threeCandidates()[:1],
		accountsErr: &gateway.TransportError{Op: gateway.OpListAccounts, Err: errors.New("timeout")},
	}
	s := newTestSession(gw, Options{})

	_, err := s.Import(ctx, nil)
	require.NoError(t, err)
	n, err := s.Add(ctx, validEdit())
	require.Error(t, err)
	assert.True(t, gateway.IsTransport(err))
	assert.Equal(t, NoticeSuccess, n.Kind)
	assert.Equal(t, "1 operation(s) imported", n.Message)
	assert.Equal(t, Completed, s.State())
}

func TestQueueShrinksOnlyOnSuccess(t *testing.T) {
	ctx := context.Background()
	fail := &gateway.ValidationError{Op: gateway.OpAddOperation, Message: "no"}
	gw := &fakeGateway{
		candidates: threeCandidates(),
		addErrs:    map[int]error{0: fail, 2: fail, 3: fail, 5: fail},
	}
	s := newTestSession(gw, Options{})
	_, err := s.Import(ctx, nil)
	require.NoError(t, err)

	want := threeCandidates()
	for s.State() == Reviewing {
		before := s.Batch().Len()
		head, _ := s.Current()
		// The head is always the oldest remaining candidate.
		assert.Equal(t, want[3-before].Operation.RawLabel, head.Operation.RawLabel)

		_, err := s.Add(ctx, validEdit())
		after := 0
		if s.Batch() != nil {
			after = s.Batch().Len()
		}
		if err != nil {
			assert.Equal(t, before, after)
		} else {
			assert.Equal(t, before-1, after)
		}
		assert.Equal(t, 3, s.Batch().OriginalLength())
	}
	assert.Equal(t, Completed, s.State())
	assert.Len(t, gw.addCalls, 7)
	assert.Equal(t, 3, s.Committed())
	assert.Equal(t, 1, gw.accountCalls)
}

func TestNewSession_Defaults(t *testing.T) {
	s := NewSession(&fakeGateway{}, nil, nil, Options{})
	assert.True(t, s.catalog.Degraded())
	assert.Equal(t, RefreshOnCompletion, s.opts.RefreshPolicy)
	assert.Equal(t, LabelEmpty, s.opts.DefaultLabel)
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, "idle", s.State().String())
}

func TestDefaultEdit_LabelPolicy(t *testing.T) {
	ctx := context.Background()
	cands := threeCandidates()
	cands[0].Operation.Subject = "Decathlon"
	cands[0].Operation.Category = "Pleasure"

	s := newTestSession(&fakeGateway{candidates: cands}, Options{DefaultLabel: LabelRaw})
	assert.Equal(t, Edit{}, s.DefaultEdit())
	_, err := s.Import(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, Edit{Label: "CARTE DECATHLON", Category: "Pleasure", Subject: "Decathlon"}, s.DefaultEdit())

	s = newTestSession(&fakeGateway{candidates: cands}, Options{DefaultLabel: LabelEmpty})
	_, err = s.Import(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "", s.DefaultEdit().Label)
}
