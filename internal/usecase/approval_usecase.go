package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/iho/mutledger/internal/domain"
	"github.com/iho/mutledger/internal/infrastructure/metrics"
)

// ApprovalUseCase moves PENDING entries to a terminal status.
type ApprovalUseCase struct {
	txManager TransactionManager
	entryRepo EntryRepository
	notifier  NotificationEmitter
	retrier   Retrier
	metrics   *metrics.Metrics
}

// NewApprovalUseCase creates a new ApprovalUseCase.
func NewApprovalUseCase(
	txManager TransactionManager,
	entryRepo EntryRepository,
	notifier NotificationEmitter,
	retrier Retrier,
	metrics *metrics.Metrics,
) *ApprovalUseCase {
	return &ApprovalUseCase{
		txManager: txManager,
		entryRepo: entryRepo,
		notifier:  notifier,
		retrier:   retrier,
		metrics:   metrics,
	}
}

// Resolve approves or rejects a pending entry on behalf of an ADMIN actor and
// notifies the owner in the same transaction. Only one of several concurrent
// calls on the same entry succeeds; the others get domain.ErrEntryAlreadyHandled.
func (uc *ApprovalUseCase) Resolve(ctx context.Context, actor *domain.Actor, entryID, decision string) (EntryView, error) {
	if err := domain.RequireAdmin(actor); err != nil {
		return EntryView{}, err
	}

	d, err := domain.ParseDecision(decision)
	if err != nil {
		return EntryView{}, err
	}

	start := time.Now()
	var ownerID string

	err = retry(ctx, uc.retrier, func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		resolution := domain.NewResolution(entryID, actor, d, time.Now())
		ownerID, err = uc.entryRepo.Resolve(txCtx, tx, resolution)
		if err != nil {
			return err
		}

		if _, err := uc.notifier.Notify(txCtx, tx, ownerID, entryID, d, actor.DisplayName()); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	})
	if err != nil {
		if uc.metrics != nil && errors.Is(err, domain.ErrAlreadyProcessed) {
			uc.metrics.ResolveConflicts.Inc()
		}
		return EntryView{}, err
	}

	uc.notifier.Invalidate(ctx, ownerID)

	if uc.metrics != nil {
		uc.metrics.EntriesResolved.WithLabelValues(string(d)).Inc()
		uc.metrics.ResolveDuration.Observe(time.Since(start).Seconds())
	}

	entry, err := uc.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		return EntryView{}, err
	}
	return NewEntryView(entry), nil
}
