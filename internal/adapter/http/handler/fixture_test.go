package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iho/mutledger/internal/domain"
	"github.com/iho/mutledger/internal/usecase"
	"github.com/iho/mutledger/internal/usecase/mocks"
)

var (
	adminActor = &domain.Actor{ID: "admin-1", Username: "admin", FirstName: "Elif", LastName: "Yilmaz", Role: domain.RoleAdmin}
	userActor  = &domain.Actor{ID: "user-1", Username: "alice", FirstName: "Alice", Role: domain.RoleUser, Group: &domain.Group{ID: "g1", Name: "Panel A"}}
	otherUser  = &domain.Actor{ID: "user-2", Username: "bob", Role: domain.RoleUser, Group: &domain.Group{ID: "g1", Name: "Panel A"}}
)

type handlers struct {
	entries *mocks.MockEntryRepository
	notifs  *mocks.MockNotificationRepository

	entry        *EntryHandler
	notification *NotificationHandler
	dashboard    *DashboardHandler
}

func newHandlers() *handlers {
	txMgr := mocks.NewMockTransactionManager()
	entries := mocks.NewMockEntryRepository()
	notifs := mocks.NewMockNotificationRepository()
	idGen := mocks.NewMockIDGenerator()
	for _, a := range []*domain.Actor{adminActor, userActor, otherUser} {
		entries.AddActor(a)
	}

	notifUC := usecase.NewNotificationUseCase(notifs, mocks.NewMockCache(), idGen, 0, nil)
	entryUC := usecase.NewEntryUseCase(txMgr, entries, idGen, nil, nil)
	approvalUC := usecase.NewApprovalUseCase(txMgr, entries, notifUC, nil, nil)

	return &handlers{
		entries:      entries,
		notifs:       notifs,
		entry:        NewEntryHandler(entryUC, approvalUC),
		notification: NewNotificationHandler(notifUC),
		dashboard:    NewDashboardHandler(usecase.NewDashboardUseCase(entries)),
	}
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
