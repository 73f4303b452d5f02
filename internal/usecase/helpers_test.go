package usecase_test

import (
	"github.com/shopspring/decimal"

	"github.com/iho/mutledger/internal/domain"
	"github.com/iho/mutledger/internal/usecase"
	"github.com/iho/mutledger/internal/usecase/mocks"
)

var (
	admin   = &domain.Actor{ID: "admin-1", Username: "admin", FirstName: "Elif", LastName: "Yilmaz", Role: domain.RoleAdmin}
	admin2  = &domain.Actor{ID: "admin-2", Username: "admin2", Role: domain.RoleAdmin}
	alice   = &domain.Actor{ID: "user-1", Username: "alice", FirstName: "Alice", LastName: "Kaya", Role: domain.RoleUser, Group: &domain.Group{ID: "g1", Name: "Panel A"}}
	bob     = &domain.Actor{ID: "user-2", Username: "bob", FirstName: "Bob", Role: domain.RoleUser, Group: &domain.Group{ID: "g1", Name: "Panel A"}}
	unknown = &domain.Actor{ID: "x-1", Role: "AUDITOR"}
)

func dec(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

// scenarioInput is the submission used across the approval tests.
func scenarioInput() usecase.EntryInput {
	return usecase.EntryInput{
		Figures: domain.Figures{
			PanelDeposit:    dec("1000"),
			PanelWithdrawal: dec("200"),
			Carryover:       dec("50"),
			CommissionRate:  dec("1.25"),
		},
		ManualDeposits: []domain.AdjustmentInput{{Label: "bonus", Amount: dec("100")}},
	}
}

type fixture struct {
	txMgr   *mocks.MockTransactionManager
	entries *mocks.MockEntryRepository
	notifs  *mocks.MockNotificationRepository
	actors  *mocks.MockActorRepository
	cache   *mocks.MockCache
	idGen   *mocks.MockIDGenerator

	entryUC    *usecase.EntryUseCase
	approvalUC *usecase.ApprovalUseCase
	notifUC    *usecase.NotificationUseCase
	actorUC    *usecase.ActorUseCase
	dashUC     *usecase.DashboardUseCase
}

func newFixture() *fixture {
	f := &fixture{
		txMgr:   mocks.NewMockTransactionManager(),
		entries: mocks.NewMockEntryRepository(),
		notifs:  mocks.NewMockNotificationRepository(),
		actors:  mocks.NewMockActorRepository(),
		cache:   mocks.NewMockCache(),
		idGen:   mocks.NewMockIDGenerator(),
	}
	for _, a := range []*domain.Actor{admin, admin2, alice, bob} {
		f.entries.AddActor(a)
	}

	f.notifUC = usecase.NewNotificationUseCase(f.notifs, f.cache, f.idGen, 0, nil)
	f.entryUC = usecase.NewEntryUseCase(f.txMgr, f.entries, f.idGen, nil, nil)
	f.approvalUC = usecase.NewApprovalUseCase(f.txMgr, f.entries, f.notifUC, nil, nil)
	f.actorUC = usecase.NewActorUseCase(f.txMgr, f.actors, f.notifUC, f.idGen)
	f.dashUC = usecase.NewDashboardUseCase(f.entries)
	return f
}
