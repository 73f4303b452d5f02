package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/mutledger/internal/adapter/http/dto"
)

func TestNotificationHandler(t *testing.T) {
	h := newHandlers()

	for range 2 {
		created := createEntry(t, h, userActor)
		rec := httptest.NewRecorder()
		req := jsonRequest(t, http.MethodPost, "/", map[string]string{"decision": "reject"})
		h.entry.Resolve(rec, setChiURLParam(withActor(req, adminActor), "id", created.ID))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	list := func() dto.NotificationListResponse {
		rec := httptest.NewRecorder()
		h.notification.List(rec, withActor(httptest.NewRequest(http.MethodGet, "/notifications", nil), userActor))
		require.Equal(t, http.StatusOK, rec.Code)
		return decodeBody[dto.NotificationListResponse](t, rec)
	}

	got := list()
	require.Len(t, got.Notifications, 2)
	assert.Equal(t, 2, got.UnreadCount)
	assert.Equal(t, "ENTRY_REJECTED", got.Notifications[0].Type)

	markRead := func(body string) dto.MarkReadResponse {
		rec := httptest.NewRecorder()
		h.notification.MarkRead(rec, withActor(jsonRequest(t, http.MethodPut, "/notifications", body), userActor))
		require.Equal(t, http.StatusOK, rec.Code)
		return decodeBody[dto.MarkReadResponse](t, rec)
	}

	resp := markRead(`{"notificationIds":["` + got.Notifications[0].ID + `"]}`)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(1), resp.Updated)
	assert.Equal(t, 1, list().UnreadCount)

	resp = markRead(`{"markAll":true}`)
	assert.Equal(t, int64(1), resp.Updated)
	assert.Zero(t, list().UnreadCount)

	assert.Equal(t, int64(0), markRead(`{}`).Updated)

	t.Run("other users see nothing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.notification.List(rec, withActor(httptest.NewRequest(http.MethodGet, "/notifications", nil), otherUser))
		resp := decodeBody[dto.NotificationListResponse](t, rec)
		assert.Empty(t, resp.Notifications)
		assert.NotNil(t, resp.Notifications)
	})
}
