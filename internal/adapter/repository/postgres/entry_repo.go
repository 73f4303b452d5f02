package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/mutledger/internal/domain"
	"github.com/iho/mutledger/internal/usecase"
)

const entrySelect = `
	SELECT e.id, e.owner_id, e.panel_deposit, e.panel_withdrawal, e.carryover, e.commission_rate,
	       e.status, e.created_at, e.approved_by, e.approved_at,
	       o.username, o.first_name, o.last_name, COALESCE(g.name, ''),
	       ap.username, ap.first_name, ap.last_name
	FROM ledger_entries e
	JOIN actors o ON o.id = e.owner_id
	LEFT JOIN groups g ON g.id = o.group_id
	LEFT JOIN actors ap ON ap.id = e.approved_by
`

var adjustmentColumns = []string{"id", "entry_id", "direction", "label", "amount", "position"}

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	db dbtx
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return newEntryRepositoryWithDB(pool)
}

func newEntryRepositoryWithDB(db dbtx) *EntryRepository {
	return &EntryRepository{db: db}
}

// Create inserts the entry and its manual lines within tx.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	ptx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO ledger_entries (id, owner_id, panel_deposit, panel_withdrawal, carryover, commission_rate,
			status, created_at, approved_by, approved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = ptx.Exec(ctx, query,
		entry.ID,
		entry.OwnerID,
		decimalToNumeric(entry.PanelDeposit),
		decimalToNumeric(entry.PanelWithdrawal),
		decimalToNumeric(entry.Carryover),
		decimalToNumeric(entry.CommissionRate),
		string(entry.Status),
		timeToPgTimestamptz(entry.CreatedAt),
		entry.ApprovedByID,
		entry.ApprovedAt,
	)
	if err != nil {
		return wrap("insert entry", err)
	}

	return insertAdjustments(ctx, ptx, entry.ID, entry.Adjustments())
}

// GetByID retrieves an entry with its owner, approver and manual lines.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	rows, err := r.db.Query(ctx, entrySelect+` WHERE e.id = $1`, id)
	if err != nil {
		return nil, wrap("get entry", err)
	}

	entries, err := collectEntries(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, domain.ErrEntryNotFound
	}

	if err := r.loadAdjustments(ctx, entries); err != nil {
		return nil, err
	}

	return entries[0], nil
}

// GetByIDForUpdate locks the entry row. Owner refs and manual lines are not loaded.
func (r *EntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Entry, error) {
	ptx, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, owner_id, panel_deposit, panel_withdrawal, carryover, commission_rate,
		       status, created_at, approved_by, approved_at
		FROM ledger_entries
		WHERE id = $1
		FOR UPDATE
	`

	var (
		e                                    domain.Entry
		status                               string
		deposit, withdrawal, carryover, rate pgtype.Numeric
	)
	err = ptx.QueryRow(ctx, query, id).Scan(
		&e.ID,
		&e.OwnerID,
		&deposit,
		&withdrawal,
		&carryover,
		&rate,
		&status,
		&e.CreatedAt,
		&e.ApprovedByID,
		&e.ApprovedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEntryNotFound
	}
	if err != nil {
		return nil, wrap("lock entry", err)
	}

	e.PanelDeposit = numericToDecimal(deposit)
	e.PanelWithdrawal = numericToDecimal(withdrawal)
	e.Carryover = numericToDecimal(carryover)
	e.CommissionRate = numericToDecimal(rate)
	e.Status = domain.EntryStatus(status)

	return &e, nil
}

// List returns the entries matching scope, newest first.
func (r *EntryRepository) List(ctx context.Context, scope domain.EntryScope) ([]*domain.Entry, error) {
	where, args := scopeClause(scope)

	rows, err := r.db.Query(ctx, entrySelect+where+` ORDER BY e.created_at DESC, e.id DESC`, args...)
	if err != nil {
		return nil, wrap("list entries", err)
	}

	entries, err := collectEntries(rows)
	if err != nil {
		return nil, err
	}

	if err := r.loadAdjustments(ctx, entries); err != nil {
		return nil, err
	}

	return entries, nil
}

// UpdateFigures writes the four numeric fields of entry.
func (r *EntryRepository) UpdateFigures(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	ptx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	query := `
		UPDATE ledger_entries
		SET panel_deposit = $2, panel_withdrawal = $3, carryover = $4, commission_rate = $5
		WHERE id = $1
	`

	tag, err := ptx.Exec(ctx, query,
		entry.ID,
		decimalToNumeric(entry.PanelDeposit),
		decimalToNumeric(entry.PanelWithdrawal),
		decimalToNumeric(entry.Carryover),
		decimalToNumeric(entry.CommissionRate),
	)
	if err != nil {
		return wrap("update entry", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

// ReplaceAdjustments swaps the manual lines of an entry inside tx. Readers
// outside tx keep seeing the previous set until commit.
func (r *EntryRepository) ReplaceAdjustments(ctx context.Context, tx usecase.Transaction, entryID string, lines []domain.Adjustment) error {
	ptx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	if _, err := ptx.Exec(ctx, `DELETE FROM manual_adjustments WHERE entry_id = $1`, entryID); err != nil {
		return wrap("clear adjustments", err)
	}

	return insertAdjustments(ctx, ptx, entryID, lines)
}

// Delete removes an entry; its manual lines cascade.
func (r *EntryRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	ptx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := ptx.Exec(ctx, `DELETE FROM ledger_entries WHERE id = $1`, id)
	if err != nil {
		return wrap("delete entry", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

// Resolve is a single conditional UPDATE; a concurrent resolver blocks on the
// row lock and then matches zero rows.
func (r *EntryRepository) Resolve(ctx context.Context, tx usecase.Transaction, res domain.Resolution) (string, error) {
	ptx, err := pgxTx(tx)
	if err != nil {
		return "", err
	}

	query := `
		UPDATE ledger_entries
		SET status = $2, approved_by = $3, approved_at = $4
		WHERE id = $1 AND status = 'PENDING'
		RETURNING owner_id
	`

	var ownerID string
	err = ptx.QueryRow(ctx, query,
		res.EntryID,
		string(res.Status),
		res.ApproverID,
		timeToPgTimestamptz(res.ApprovedAt),
	).Scan(&ownerID)
	if err == nil {
		return ownerID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", wrap("resolve entry", err)
	}

	var status string
	err = ptx.QueryRow(ctx, `SELECT status FROM ledger_entries WHERE id = $1`, res.EntryID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrEntryNotFound
	}
	if err != nil {
		return "", wrap("probe entry", err)
	}

	return "", domain.ErrEntryAlreadyHandled
}

func (r *EntryRepository) loadAdjustments(ctx context.Context, entries []*domain.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	ids := make([]string, 0, len(entries))
	byID := make(map[string]*domain.Entry, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
		byID[e.ID] = e
	}

	query := `
		SELECT id, entry_id, direction, label, amount
		FROM manual_adjustments
		WHERE entry_id = ANY($1)
		ORDER BY entry_id, position
	`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return wrap("load adjustments", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			line      domain.Adjustment
			direction string
			amount    pgtype.Numeric
		)
		if err := rows.Scan(&line.ID, &line.EntryID, &direction, &line.Label, &amount); err != nil {
			return wrap("scan adjustment", err)
		}
		line.Direction = domain.Direction(direction)
		line.Amount = numericToDecimal(amount)

		e := byID[line.EntryID]
		switch line.Direction {
		case domain.DirectionDeposit:
			e.ManualDeposits = append(e.ManualDeposits, line)
		case domain.DirectionWithdrawal:
			e.ManualWithdrawals = append(e.ManualWithdrawals, line)
		}
	}

	return rows.Err()
}

func insertAdjustments(ctx context.Context, tx pgx.Tx, entryID string, lines []domain.Adjustment) error {
	if len(lines) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(lines))
	for i, line := range lines {
		rows = append(rows, []any{
			line.ID,
			entryID,
			string(line.Direction),
			line.Label,
			decimalToNumeric(line.Amount),
			i,
		})
	}

	_, err := tx.CopyFrom(ctx, pgx.Identifier{"manual_adjustments"}, adjustmentColumns, pgx.CopyFromRows(rows))
	return wrap("insert adjustments", err)
}

func collectEntries(rows pgx.Rows) ([]*domain.Entry, error) {
	defer rows.Close()

	var entries []*domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, wrap("read entries", rows.Err())
}

func scanEntry(row pgx.Row) (*domain.Entry, error) {
	var (
		e                                    domain.Entry
		status                               string
		deposit, withdrawal, carryover, rate pgtype.Numeric
		approverUsername, approverFirst      *string
		approverLast                         *string
	)

	err := row.Scan(
		&e.ID,
		&e.OwnerID,
		&deposit,
		&withdrawal,
		&carryover,
		&rate,
		&status,
		&e.CreatedAt,
		&e.ApprovedByID,
		&e.ApprovedAt,
		&e.Owner.Username,
		&e.Owner.FirstName,
		&e.Owner.LastName,
		&e.Owner.GroupName,
		&approverUsername,
		&approverFirst,
		&approverLast,
	)
	if err != nil {
		return nil, wrap("scan entry", err)
	}

	e.Owner.ID = e.OwnerID
	e.PanelDeposit = numericToDecimal(deposit)
	e.PanelWithdrawal = numericToDecimal(withdrawal)
	e.Carryover = numericToDecimal(carryover)
	e.CommissionRate = numericToDecimal(rate)
	e.Status = domain.EntryStatus(status)

	if e.ApprovedByID != nil {
		e.ApprovedBy = &domain.ActorRef{
			ID:        *e.ApprovedByID,
			Username:  deref(approverUsername),
			FirstName: deref(approverFirst),
			LastName:  deref(approverLast),
		}
	}

	return &e, nil
}

// scopeClause renders scope as a WHERE clause with positional arguments.
func scopeClause(scope domain.EntryScope) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if scope.OwnerID != nil {
		add("e.owner_id = $%d", *scope.OwnerID)
	}
	if scope.Status != nil {
		add("e.status = $%d", string(*scope.Status))
	}
	if scope.CreatedFrom != nil {
		add("e.created_at >= $%d", timeToPgTimestamptz(*scope.CreatedFrom))
	}
	if scope.CreatedBefore != nil {
		add("e.created_at < $%d", timeToPgTimestamptz(*scope.CreatedBefore))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
