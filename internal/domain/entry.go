package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus is the approval state of a ledger entry.
type EntryStatus string

const (
	StatusPending  EntryStatus = "PENDING"
	StatusApproved EntryStatus = "APPROVED"
	StatusRejected EntryStatus = "REJECTED"
)

// ParseStatus parses the persisted form of a status.
func ParseStatus(s string) (EntryStatus, error) {
	switch EntryStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	default:
		return "", ErrInvalidStatus
	}
}

// IsTerminal reports whether s can no longer change.
func (s EntryStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Direction tells whether a manual adjustment adds to deposits or withdrawals.
type Direction string

const (
	DirectionDeposit    Direction = "DEPOSIT"
	DirectionWithdrawal Direction = "WITHDRAWAL"
)

// Adjustment is a labelled manual line owned by exactly one entry.
type Adjustment struct {
	ID        string
	EntryID   string
	Label     string
	Amount    decimal.Decimal
	Direction Direction
}

// ActorRef is the projection of an actor embedded in entry reads.
type ActorRef struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
	GroupName string
}

// Name returns the display name of the referenced actor.
func (r ActorRef) Name() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// Entry is a daily reconciliation record ("mut") for one owner.
type Entry struct {
	CreatedAt         time.Time
	ApprovedAt        *time.Time
	ApprovedByID      *string
	ApprovedBy        *ActorRef
	Owner             ActorRef
	ID                string
	OwnerID           string
	Status            EntryStatus
	PanelDeposit      decimal.Decimal
	PanelWithdrawal   decimal.Decimal
	Carryover         decimal.Decimal
	CommissionRate    decimal.Decimal
	ManualDeposits    []Adjustment
	ManualWithdrawals []Adjustment
}

// Adjustments returns both manual collections as one list.
func (e *Entry) Adjustments() []Adjustment {
	lines := make([]Adjustment, 0, len(e.ManualDeposits)+len(e.ManualWithdrawals))
	lines = append(lines, e.ManualDeposits...)
	return append(lines, e.ManualWithdrawals...)
}

// SetAdjustments partitions lines by direction into the entry's collections.
func (e *Entry) SetAdjustments(lines []Adjustment) {
	e.ManualDeposits = nil
	e.ManualWithdrawals = nil
	for _, line := range lines {
		line.EntryID = e.ID
		switch line.Direction {
		case DirectionDeposit:
			e.ManualDeposits = append(e.ManualDeposits, line)
		case DirectionWithdrawal:
			e.ManualWithdrawals = append(e.ManualWithdrawals, line)
		}
	}
}

// DefaultCommissionRate is applied when no usable rate is supplied.
var DefaultCommissionRate = decimal.RequireFromString("1.25")

// Figures are the four owner-editable numeric fields. A nil pointer means the
// input was absent or not numeric.
type Figures struct {
	PanelDeposit    *decimal.Decimal
	PanelWithdrawal *decimal.Decimal
	Carryover       *decimal.Decimal
	CommissionRate  *decimal.Decimal
}

// Apply writes the coerced figures onto e: absent amounts become zero and an
// absent rate becomes DefaultCommissionRate. Negative values are kept.
func (f Figures) Apply(e *Entry) {
	e.PanelDeposit = orDefault(f.PanelDeposit, decimal.Zero)
	e.PanelWithdrawal = orDefault(f.PanelWithdrawal, decimal.Zero)
	e.Carryover = orDefault(f.Carryover, decimal.Zero)
	e.CommissionRate = orDefault(f.CommissionRate, DefaultCommissionRate)
}

// AdjustmentInput is an unvalidated manual line as submitted by the owner.
type AdjustmentInput struct {
	Label  string
	Amount *decimal.Decimal
}

// BuildAdjustments keeps the lines that have a non-empty label and a numeric
// amount and tags them with direction. Dropped lines are not an error.
func BuildAdjustments(inputs []AdjustmentInput, direction Direction, newID func() string) []Adjustment {
	lines := make([]Adjustment, 0, len(inputs))
	for _, in := range inputs {
		label := strings.TrimSpace(in.Label)
		if label == "" || in.Amount == nil {
			continue
		}
		lines = append(lines, Adjustment{
			ID:        newID(),
			Label:     label,
			Amount:    *in.Amount,
			Direction: direction,
		})
	}
	return lines
}

// Bounds on accepted amounts. A figure outside them is treated as absent.
const (
	maxAmountText     = 64
	maxAmountScale    = 20
	maxAmountIntegers = 24
)

// ParseAmount coerces raw text into a decimal. ok is false when raw is empty,
// not a number, or outside the accepted magnitude and precision.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxAmountText {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	if !amountInRange(d) {
		return decimal.Zero, false
	}
	return d, true
}

// amountInRange bounds the exponent before anything rescales d, since an
// exponent like 1e100000000 would expand to a 10^8 digit integer.
func amountInRange(d decimal.Decimal) bool {
	exp := int64(d.Exponent())
	if exp < -maxAmountScale || exp > maxAmountIntegers {
		return false
	}
	return int64(d.NumDigits())+exp <= maxAmountIntegers
}

func orDefault(v *decimal.Decimal, def decimal.Decimal) decimal.Decimal {
	if v == nil {
		return def
	}
	return *v
}
