package dto

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/iho/mutledger/internal/domain"
	"github.com/iho/mutledger/internal/usecase"
)

// Number is a lenient numeric field. It accepts a JSON number or a numeric
// string; anything else, including null, leaves it absent.
type Number struct {
	Value *decimal.Decimal
}

// UnmarshalJSON never fails so that a malformed figure degrades to absent.
func (n *Number) UnmarshalJSON(b []byte) error {
	n.Value = nil

	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}

	var raw string
	switch b[0] {
	case '"':
		if err := json.Unmarshal(b, &raw); err != nil {
			return nil
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		raw = string(b)
	default:
		return nil
	}

	if d, ok := domain.ParseAmount(raw); ok {
		n.Value = &d
	}
	return nil
}

// AdjustmentRequest is one submitted manual line.
type AdjustmentRequest struct {
	Label  string `json:"label"`
	Amount Number `json:"amount"`
}

// EntryRequest is the body of POST /entries and PUT /entries/{id}.
type EntryRequest struct {
	PanelDeposit      Number              `json:"panelDeposit"`
	PanelWithdrawal   Number              `json:"panelWithdrawal"`
	Carryover         Number              `json:"carryover"`
	CommissionRate    Number              `json:"commissionRate"`
	ManualDeposits    []AdjustmentRequest `json:"manualDeposits"`
	ManualWithdrawals []AdjustmentRequest `json:"manualWithdrawals"`
}

// ToUseCaseInput converts to use case input.
func (r *EntryRequest) ToUseCaseInput() usecase.EntryInput {
	return usecase.EntryInput{
		Figures: domain.Figures{
			PanelDeposit:    r.PanelDeposit.Value,
			PanelWithdrawal: r.PanelWithdrawal.Value,
			Carryover:       r.Carryover.Value,
			CommissionRate:  r.CommissionRate.Value,
		},
		ManualDeposits:    adjustmentInputs(r.ManualDeposits),
		ManualWithdrawals: adjustmentInputs(r.ManualWithdrawals),
	}
}

func adjustmentInputs(lines []AdjustmentRequest) []domain.AdjustmentInput {
	out := make([]domain.AdjustmentInput, 0, len(lines))
	for _, l := range lines {
		out = append(out, domain.AdjustmentInput{Label: l.Label, Amount: l.Amount.Value})
	}
	return out
}

// ResolveRequest is the body of POST /entries/{id}/resolve.
type ResolveRequest struct {
	Decision string `json:"decision"`
}

// MarkReadRequest is the body of PUT /notifications.
type MarkReadRequest struct {
	NotificationIDs []string `json:"notificationIds"`
	MarkAll         bool     `json:"markAll"`
}
