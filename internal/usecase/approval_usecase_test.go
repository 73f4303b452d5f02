package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/mutledger/internal/domain"
	"github.com/iho/mutledger/internal/infrastructure/metrics"
	"github.com/iho/mutledger/internal/usecase"
	"github.com/iho/mutledger/internal/usecase/gomocks"
)

func TestApprovalUseCase_ApproveThenReject(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	created, err := f.entryUC.CreateEntry(ctx, alice, scenarioInput())
	require.NoError(t, err)
	id := created.Entry.ID

	approved, err := f.approvalUC.Resolve(ctx, admin, id, "approve")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusApproved, approved.Entry.Status)
	require.NotNil(t, approved.Entry.ApprovedByID)
	assert.Equal(t, admin.ID, *approved.Entry.ApprovedByID)
	require.NotNil(t, approved.Entry.ApprovedAt)
	assert.True(t, approved.Totals.Commission.Equal(*dec("13.75")), "figures are untouched")
	assert.Len(t, approved.Entry.ManualDeposits, 1)

	notifications := f.notifs.All()
	require.Len(t, notifications, 1)
	assert.Equal(t, domain.NotificationEntryApproved, notifications[0].Type)
	assert.Equal(t, alice.ID, notifications[0].RecipientID)
	assert.Equal(t, "Elif Yilmaz approved your ledger entry.", notifications[0].Message)
	require.NotNil(t, notifications[0].EntryID)
	assert.Equal(t, id, *notifications[0].EntryID)

	_, err = f.approvalUC.Resolve(ctx, admin2, id, "reject")
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)

	after, err := f.entryUC.GetEntry(ctx, admin, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, after.Entry.Status)
	assert.Equal(t, admin.ID, *after.Entry.ApprovedByID)
	assert.True(t, after.Entry.ApprovedAt.Equal(*approved.Entry.ApprovedAt))
	assert.Len(t, f.notifs.All(), 1, "losing call emits nothing")
}

func TestApprovalUseCase_Reject(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	created, err := f.entryUC.CreateEntry(ctx, alice, scenarioInput())
	require.NoError(t, err)

	view, err := f.approvalUC.Resolve(ctx, admin2, created.Entry.ID, "reject")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, view.Entry.Status)

	notifications := f.notifs.All()
	require.Len(t, notifications, 1)
	assert.Equal(t, domain.NotificationEntryRejected, notifications[0].Type)
	assert.Equal(t, "Admin rejected your ledger entry.", notifications[0].Message, "admin without a display name")
}

func TestApprovalUseCase_Failures(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	created, err := f.entryUC.CreateEntry(ctx, alice, scenarioInput())
	require.NoError(t, err)
	selfApproved, err := f.entryUC.CreateEntry(ctx, admin, scenarioInput())
	require.NoError(t, err)

	tests := []struct {
		name     string
		actor    *domain.Actor
		entryID  string
		decision string
		wantKind domain.ErrorKind
	}{
		{"user cannot resolve", alice, created.Entry.ID, "approve", domain.KindUnauthorized},
		{"unknown role cannot resolve", unknown, created.Entry.ID, "approve", domain.KindUnauthorized},
		{"missing actor", nil, created.Entry.ID, "approve", domain.KindUnauthorized},
		{"invalid decision", admin, created.Entry.ID, "maybe", domain.KindValidation},
		{"unknown entry", admin, "nope", "approve", domain.KindNotFound},
		{"already approved at creation", admin, selfApproved.Entry.ID, "reject", domain.KindAlreadyProcessed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.approvalUC.Resolve(ctx, tt.actor, tt.entryID, tt.decision)
			assert.Equal(t, tt.wantKind, domain.KindOf(err), "err: %v", err)
		})
	}

	pending, err := f.entryUC.GetEntry(ctx, alice, created.Entry.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, pending.Entry.Status)
	assert.Empty(t, f.notifs.All())
}

func TestApprovalUseCase_ConcurrentResolve(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	approvalUC := usecase.NewApprovalUseCase(f.txMgr, f.entries, f.notifUC, nil, m)

	created, err := f.entryUC.CreateEntry(ctx, alice, scenarioInput())
	require.NoError(t, err)

	const callers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	start := make(chan struct{})
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			decision := "approve"
			if i%2 == 1 {
				decision = "reject"
			}
			_, err := approvalUC.Resolve(ctx, admin, created.Entry.ID, decision)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrAlreadyProcessed):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, callers-1, conflicts)
	assert.Len(t, f.notifs.All(), 1)
	assert.Equal(t, float64(callers-1), testutil.ToFloat64(m.ResolveConflicts))
}

func TestApprovalUseCase_NotifyFailureRollsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txMgr := gomocks.NewMockTransactionManager(ctrl)
	tx := gomocks.NewMockTransaction(ctrl)
	entryRepo := gomocks.NewMockEntryRepository(ctrl)
	notifier := gomocks.NewMockNotificationEmitter(ctrl)

	notifyErr := errors.New("notifications table unavailable")

	txMgr.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	entryRepo.EXPECT().Resolve(gomock.Any(), tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ usecase.Transaction, r domain.Resolution) (string, error) {
			assert.Equal(t, "e1", r.EntryID)
			assert.Equal(t, domain.StatusApproved, r.Status)
			assert.Equal(t, admin.ID, r.ApproverID)
			assert.WithinDuration(t, time.Now(), r.ApprovedAt, time.Minute)
			return alice.ID, nil
		})
	notifier.EXPECT().Notify(gomock.Any(), tx, alice.ID, "e1", domain.DecisionApprove, "Elif Yilmaz").Return(nil, notifyErr)
	tx.EXPECT().Rollback(gomock.Any()).Return(nil)
	// no Commit, no Invalidate, no re-read

	uc := usecase.NewApprovalUseCase(txMgr, entryRepo, notifier, nil, nil)

	_, err := uc.Resolve(context.Background(), admin, "e1", "approve")
	assert.ErrorIs(t, err, notifyErr)
}

func TestApprovalUseCase_UsesRetrier(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txMgr := gomocks.NewMockTransactionManager(ctrl)
	tx := gomocks.NewMockTransaction(ctrl)
	entryRepo := gomocks.NewMockEntryRepository(ctrl)
	notifier := gomocks.NewMockNotificationEmitter(ctrl)
	retrier := gomocks.NewMockRetrier(ctrl)

	transient := errors.New("serialization failure")

	retrier.EXPECT().Retry(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, op func() error) error {
			if err := op(); !errors.Is(err, transient) {
				return err
			}
			return op()
		})

	txMgr.EXPECT().Begin(gomock.Any()).Return(tx, nil).Times(2)
	gomock.InOrder(
		entryRepo.EXPECT().Resolve(gomock.Any(), tx, gomock.Any()).Return("", transient),
		entryRepo.EXPECT().Resolve(gomock.Any(), tx, gomock.Any()).Return(alice.ID, nil),
	)
	notifier.EXPECT().Notify(gomock.Any(), tx, alice.ID, "e1", domain.DecisionReject, gomock.Any()).Return(&domain.Notification{}, nil)
	tx.EXPECT().Commit(gomock.Any()).Return(nil)
	tx.EXPECT().Rollback(gomock.Any()).Return(nil).Times(2)
	notifier.EXPECT().Invalidate(gomock.Any(), alice.ID)
	entryRepo.EXPECT().GetByID(gomock.Any(), "e1").Return(&domain.Entry{ID: "e1", Status: domain.StatusRejected}, nil)

	uc := usecase.NewApprovalUseCase(txMgr, entryRepo, notifier, retrier, nil)

	view, err := uc.Resolve(context.Background(), admin, "e1", "reject")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, view.Entry.Status)
}
