package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/mutledger/internal/domain"
	"github.com/iho/mutledger/internal/usecase"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// OwnerResponse identifies the owner of an entry.
type OwnerResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Group    string `json:"group,omitempty"`
}

// ApproverResponse identifies who resolved an entry.
type ApproverResponse struct {
	Name string `json:"name"`
}

// AdjustmentResponse is one persisted manual line.
type AdjustmentResponse struct {
	ID     string          `json:"id"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// TotalsResponse carries the derived figures of an entry or a range.
type TotalsResponse struct {
	ManualDepositTotal    decimal.Decimal `json:"manualDepositTotal"`
	ManualWithdrawalTotal decimal.Decimal `json:"manualWithdrawalTotal"`
	TotalDeposit          decimal.Decimal `json:"totalDeposit"`
	TotalWithdrawal       decimal.Decimal `json:"totalWithdrawal"`
	NetBalance            decimal.Decimal `json:"netBalance"`
	Commission            decimal.Decimal `json:"commission"`
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID                string               `json:"id"`
	Status            string               `json:"status"`
	PanelDeposit      decimal.Decimal      `json:"panelDeposit"`
	PanelWithdrawal   decimal.Decimal      `json:"panelWithdrawal"`
	Carryover         decimal.Decimal      `json:"carryover"`
	CommissionRate    decimal.Decimal      `json:"commissionRate"`
	ManualDeposits    []AdjustmentResponse `json:"manualDeposits"`
	ManualWithdrawals []AdjustmentResponse `json:"manualWithdrawals"`
	Totals            TotalsResponse       `json:"totals"`
	Owner             OwnerResponse        `json:"owner"`
	ApprovedBy        *ApproverResponse    `json:"approvedBy"`
	ApprovedAt        *time.Time           `json:"approvedAt"`
	CreatedAt         time.Time            `json:"createdAt"`
}

// TotalsFromDomain converts totals to response.
func TotalsFromDomain(t domain.Totals) TotalsResponse {
	return TotalsResponse{
		ManualDepositTotal:    t.ManualDepositTotal,
		ManualWithdrawalTotal: t.ManualWithdrawalTotal,
		TotalDeposit:          t.TotalDeposit,
		TotalWithdrawal:       t.TotalWithdrawal,
		NetBalance:            t.NetBalance,
		Commission:            t.Commission,
	}
}

// EntryFromView converts an entry view to response.
func EntryFromView(v usecase.EntryView) *EntryResponse {
	e := v.Entry
	resp := &EntryResponse{
		ID:                e.ID,
		Status:            string(e.Status),
		PanelDeposit:      e.PanelDeposit,
		PanelWithdrawal:   e.PanelWithdrawal,
		Carryover:         e.Carryover,
		CommissionRate:    e.CommissionRate,
		ManualDeposits:    adjustmentsFromDomain(e.ManualDeposits),
		ManualWithdrawals: adjustmentsFromDomain(e.ManualWithdrawals),
		Totals:            TotalsFromDomain(v.Totals),
		Owner: OwnerResponse{
			ID:       e.OwnerID,
			Name:     e.Owner.Name(),
			Username: e.Owner.Username,
			Group:    e.Owner.GroupName,
		},
		ApprovedAt: e.ApprovedAt,
		CreatedAt:  e.CreatedAt,
	}
	if e.ApprovedBy != nil {
		resp.ApprovedBy = &ApproverResponse{Name: e.ApprovedBy.Name()}
	}
	return resp
}

// EntriesFromViews converts entry views to responses.
func EntriesFromViews(views []usecase.EntryView) []*EntryResponse {
	result := make([]*EntryResponse, len(views))
	for i, v := range views {
		result[i] = EntryFromView(v)
	}
	return result
}

func adjustmentsFromDomain(lines []domain.Adjustment) []AdjustmentResponse {
	result := make([]AdjustmentResponse, len(lines))
	for i, l := range lines {
		result[i] = AdjustmentResponse{ID: l.ID, Label: l.Label, Amount: l.Amount}
	}
	return result
}

// DailyPointResponse is one bucket of the dashboard chart.
type DailyPointResponse struct {
	Date            string          `json:"date"`
	Label           string          `json:"label"`
	TotalDeposit    decimal.Decimal `json:"totalDeposit"`
	TotalWithdrawal decimal.Decimal `json:"totalWithdrawal"`
}

// DashboardResponse is the body of GET /dashboard/stats.
type DashboardResponse struct {
	Totals TotalsResponse       `json:"totals"`
	Daily  []DailyPointResponse `json:"daily"`
	Recent []*EntryResponse     `json:"recent"`
}

// DashboardFromDomain converts dashboard to response.
func DashboardFromDomain(d domain.Dashboard) *DashboardResponse {
	resp := &DashboardResponse{
		Totals: TotalsFromDomain(d.Totals),
		Daily:  []DailyPointResponse{},
		Recent: make([]*EntryResponse, 0, len(d.Recent)),
	}
	if d.Daily != nil {
		for day, p := range d.Daily.All() {
			resp.Daily = append(resp.Daily, DailyPointResponse{
				Date:            day.Format(domain.DateLayout),
				Label:           p.Label,
				TotalDeposit:    p.TotalDeposit,
				TotalWithdrawal: p.TotalWithdrawal,
			})
		}
	}
	for _, e := range d.Recent {
		resp.Recent = append(resp.Recent, EntryFromView(usecase.NewEntryView(e)))
	}
	return resp
}

// NotificationResponse represents a notification in API responses.
type NotificationResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	EntryID   *string   `json:"entryId"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationListResponse is the body of GET /notifications.
type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	UnreadCount   int                    `json:"unreadCount"`
}

// NotificationListFromUseCase converts a notification list to response.
func NotificationListFromUseCase(l *usecase.NotificationList) *NotificationListResponse {
	resp := &NotificationListResponse{
		Notifications: make([]NotificationResponse, 0, len(l.Notifications)),
		UnreadCount:   l.UnreadCount,
	}
	for _, n := range l.Notifications {
		resp.Notifications = append(resp.Notifications, NotificationResponse{
			ID:        n.ID,
			Type:      string(n.Type),
			Message:   n.Message,
			EntryID:   n.EntryID,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	return resp
}

// MarkReadResponse reports how many notifications changed state.
type MarkReadResponse struct {
	Success bool  `json:"success"`
	Updated int64 `json:"updated"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
