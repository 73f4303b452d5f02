package usecase

import (
	"context"
	"time"

	"github.com/iho/mutledger/internal/domain"
	"github.com/iho/mutledger/internal/infrastructure/metrics"
)

// EntryUseCase handles the owner-side lifecycle of ledger entries.
type EntryUseCase struct {
	txManager TransactionManager
	entryRepo EntryRepository
	idGen     IDGenerator
	retrier   Retrier
	metrics   *metrics.Metrics
}

// NewEntryUseCase creates a new EntryUseCase.
func NewEntryUseCase(
	txManager TransactionManager,
	entryRepo EntryRepository,
	idGen IDGenerator,
	retrier Retrier,
	metrics *metrics.Metrics,
) *EntryUseCase {
	return &EntryUseCase{
		txManager: txManager,
		entryRepo: entryRepo,
		idGen:     idGen,
		retrier:   retrier,
		metrics:   metrics,
	}
}

// EntryInput is the owner-editable part of an entry.
type EntryInput struct {
	Figures           domain.Figures
	ManualDeposits    []domain.AdjustmentInput
	ManualWithdrawals []domain.AdjustmentInput
}

// EntryView is an entry together with its derived totals.
type EntryView struct {
	Entry  *domain.Entry
	Totals domain.Totals
}

// NewEntryView computes the totals of e.
func NewEntryView(e *domain.Entry) EntryView {
	return EntryView{Entry: e, Totals: domain.Compute(e)}
}

// CreateEntry stores a new entry owned by actor. ADMIN entries are approved
// immediately; USER entries start PENDING.
func (uc *EntryUseCase) CreateEntry(ctx context.Context, actor *domain.Actor, input EntryInput) (EntryView, error) {
	lines, err := uc.buildLines(input)
	if err != nil {
		return EntryView{}, err
	}

	entry := &domain.Entry{ID: uc.idGen.Generate()}
	input.Figures.Apply(entry)
	if err := domain.InitialApproval(entry, actor, time.Now()); err != nil {
		return EntryView{}, err
	}
	entry.SetAdjustments(lines)

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return EntryView{}, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.entryRepo.Create(txCtx, tx, entry); err != nil {
		return EntryView{}, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return EntryView{}, err
	}

	if uc.metrics != nil {
		uc.metrics.EntriesCreated.WithLabelValues(string(entry.Status)).Inc()
	}

	return uc.reload(ctx, entry.ID)
}

// GetEntry returns one entry if actor may see it. Entries outside the
// actor's scope are reported as not found.
func (uc *EntryUseCase) GetEntry(ctx context.Context, actor *domain.Actor, id string) (EntryView, error) {
	scope, err := domain.ScopeFor(actor, domain.EntryFilter{})
	if err != nil {
		return EntryView{}, err
	}

	entry, err := uc.entryRepo.GetByID(ctx, id)
	if err != nil {
		return EntryView{}, err
	}

	if !scope.Permits(entry) {
		return EntryView{}, domain.ErrEntryNotFound
	}

	return NewEntryView(entry), nil
}

// ListEntries returns the entries actor may see, newest first.
func (uc *EntryUseCase) ListEntries(ctx context.Context, actor *domain.Actor, filter domain.EntryFilter) ([]EntryView, error) {
	if err := domain.ValidateEntryFilter(filter); err != nil {
		return nil, err
	}

	scope, err := domain.ScopeFor(actor, filter)
	if err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.List(ctx, scope)
	if err != nil {
		return nil, err
	}

	views := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, NewEntryView(e))
	}
	return views, nil
}

// UpdateEntry replaces the figures and manual lines of an entry owned by
// actor. The manual lines are swapped in the same transaction.
func (uc *EntryUseCase) UpdateEntry(ctx context.Context, actor *domain.Actor, id string, input EntryInput) (EntryView, error) {
	if actor == nil {
		return EntryView{}, domain.ErrMissingActor
	}

	lines, err := uc.buildLines(input)
	if err != nil {
		return EntryView{}, err
	}

	err = retry(ctx, uc.retrier, func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		entry, err := uc.ownedForUpdate(txCtx, tx, actor, id)
		if err != nil {
			return err
		}

		input.Figures.Apply(entry)
		if err := uc.entryRepo.UpdateFigures(txCtx, tx, entry); err != nil {
			return err
		}

		if err := uc.entryRepo.ReplaceAdjustments(txCtx, tx, id, lines); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	})
	if err != nil {
		return EntryView{}, err
	}

	if uc.metrics != nil {
		uc.metrics.EntriesUpdated.Inc()
	}

	return uc.reload(ctx, id)
}

// DeleteEntry removes an entry owned by actor along with its manual lines.
func (uc *EntryUseCase) DeleteEntry(ctx context.Context, actor *domain.Actor, id string) error {
	if actor == nil {
		return domain.ErrMissingActor
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if _, err := uc.ownedForUpdate(txCtx, tx, actor, id); err != nil {
		return err
	}

	if err := uc.entryRepo.Delete(txCtx, tx, id); err != nil {
		return err
	}

	if err := tx.Commit(txCtx); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.EntriesDeleted.Inc()
	}

	return nil
}

// ownedForUpdate locks the entry and hides it from anyone but its owner.
func (uc *EntryUseCase) ownedForUpdate(ctx context.Context, tx Transaction, actor *domain.Actor, id string) (*domain.Entry, error) {
	entry, err := uc.entryRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if entry.OwnerID != actor.ID {
		return nil, domain.ErrEntryNotFound
	}

	return entry, nil
}

func (uc *EntryUseCase) buildLines(input EntryInput) ([]domain.Adjustment, error) {
	deposits := domain.BuildAdjustments(input.ManualDeposits, domain.DirectionDeposit, uc.idGen.Generate)
	withdrawals := domain.BuildAdjustments(input.ManualWithdrawals, domain.DirectionWithdrawal, uc.idGen.Generate)

	if err := domain.ValidateAdjustments(deposits); err != nil {
		return nil, err
	}
	if err := domain.ValidateAdjustments(withdrawals); err != nil {
		return nil, err
	}

	return append(deposits, withdrawals...), nil
}

func (uc *EntryUseCase) reload(ctx context.Context, id string) (EntryView, error) {
	entry, err := uc.entryRepo.GetByID(ctx, id)
	if err != nil {
		return EntryView{}, err
	}
	return NewEntryView(entry), nil
}
