package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/mutledger/internal/adapter/http/dto"
	"github.com/iho/mutledger/internal/domain"
	"github.com/iho/mutledger/internal/usecase"
)

type entryService interface {
	CreateEntry(ctx context.Context, actor *domain.Actor, input usecase.EntryInput) (usecase.EntryView, error)
	GetEntry(ctx context.Context, actor *domain.Actor, id string) (usecase.EntryView, error)
	ListEntries(ctx context.Context, actor *domain.Actor, filter domain.EntryFilter) ([]usecase.EntryView, error)
	UpdateEntry(ctx context.Context, actor *domain.Actor, id string, input usecase.EntryInput) (usecase.EntryView, error)
	DeleteEntry(ctx context.Context, actor *domain.Actor, id string) error
}

type approvalService interface {
	Resolve(ctx context.Context, actor *domain.Actor, entryID, decision string) (usecase.EntryView, error)
}

// EntryHandler handles ledger entry HTTP requests.
type EntryHandler struct {
	entryUC    entryService
	approvalUC approvalService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entryUC entryService, approvalUC approvalService) *EntryHandler {
	return &EntryHandler{entryUC: entryUC, approvalUC: approvalUC}
}

// List lists the entries visible to the caller.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := entryFilterFromQuery(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	views, err := h.entryUC.ListEntries(r.Context(), actorFrom(r), filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromViews(views))
}

// Create stores a new entry owned by the caller.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.EntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.entryUC.CreateEntry(r.Context(), actorFrom(r), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromView(view))
}

// Get returns a single entry.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.entryUC.GetEntry(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromView(view))
}

// Update replaces the figures and manual lines of an entry.
func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.EntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.entryUC.UpdateEntry(r.Context(), actorFrom(r), chi.URLParam(r, "id"), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromView(view))
}

// Delete removes an entry.
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.entryUC.DeleteEntry(r.Context(), actorFrom(r), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Resolve approves or rejects a pending entry.
func (h *EntryHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req dto.ResolveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.approvalUC.Resolve(r.Context(), actorFrom(r), chi.URLParam(r, "id"), req.Decision)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromView(view))
}

func entryFilterFromQuery(r *http.Request) (domain.EntryFilter, error) {
	q := r.URL.Query()

	var (
		filter domain.EntryFilter
		err    error
	)
	if filter.StartDate, err = parseDateQuery(r, "startDate"); err != nil {
		return filter, err
	}
	if filter.EndDate, err = parseDateQuery(r, "endDate"); err != nil {
		return filter, err
	}
	if raw := q.Get("status"); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}
	filter.OwnerID = q.Get("ownerId")

	return filter, nil
}
