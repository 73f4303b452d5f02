package handler

import (
	"context"
	"net/http"

	"github.com/iho/mutledger/internal/adapter/http/dto"
	"github.com/iho/mutledger/internal/domain"
	"github.com/iho/mutledger/internal/usecase"
)

type notificationService interface {
	List(ctx context.Context, actor *domain.Actor) (*usecase.NotificationList, error)
	MarkRead(ctx context.Context, actor *domain.Actor, ids []string) (int64, error)
	MarkAllRead(ctx context.Context, actor *domain.Actor) (int64, error)
}

// NotificationHandler handles notification HTTP requests.
type NotificationHandler struct {
	notificationUC notificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationUC notificationService) *NotificationHandler {
	return &NotificationHandler{notificationUC: notificationUC}
}

// List returns the caller's most recent notifications and unread count.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.notificationUC.List(r.Context(), actorFrom(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NotificationListFromUseCase(list))
}

// MarkRead marks the given notifications, or all of them, as read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	var req dto.MarkReadRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var (
		n   int64
		err error
	)
	if req.MarkAll {
		n, err = h.notificationUC.MarkAllRead(r.Context(), actorFrom(r))
	} else {
		n, err = h.notificationUC.MarkRead(r.Context(), actorFrom(r), req.NotificationIDs)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MarkReadResponse{Success: true, Updated: n})
}
