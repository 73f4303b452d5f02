package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Totals are the figures derived from an entry on every read. They are never
// persisted.
type Totals struct {
	ManualDepositTotal    decimal.Decimal
	ManualWithdrawalTotal decimal.Decimal
	TotalDeposit          decimal.Decimal
	TotalWithdrawal       decimal.Decimal
	NetBalance            decimal.Decimal
	Commission            decimal.Decimal
}

// Compute derives the totals of e. Negative inputs propagate unchanged.
func Compute(e *Entry) Totals {
	var t Totals
	t.ManualDepositTotal = sumAdjustments(e.ManualDeposits)
	t.ManualWithdrawalTotal = sumAdjustments(e.ManualWithdrawals)
	t.TotalDeposit = e.PanelDeposit.Add(t.ManualDepositTotal)
	t.TotalWithdrawal = e.PanelWithdrawal.Add(t.ManualWithdrawalTotal)
	t.NetBalance = t.TotalDeposit.Sub(t.TotalWithdrawal).Add(e.Carryover)
	t.Commission = t.TotalDeposit.Mul(e.CommissionRate).Div(hundred)
	return t
}

// Add returns the field-wise sum of t and o.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		ManualDepositTotal:    t.ManualDepositTotal.Add(o.ManualDepositTotal),
		ManualWithdrawalTotal: t.ManualWithdrawalTotal.Add(o.ManualWithdrawalTotal),
		TotalDeposit:          t.TotalDeposit.Add(o.TotalDeposit),
		TotalWithdrawal:       t.TotalWithdrawal.Add(o.TotalWithdrawal),
		NetBalance:            t.NetBalance.Add(o.NetBalance),
		Commission:            t.Commission.Add(o.Commission),
	}
}

func sumAdjustments(lines []Adjustment) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.Amount)
	}
	return sum
}
