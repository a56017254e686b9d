package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/ignite/ads-console/internal/pkg/httputil"
	"github.com/ignite/ads-console/internal/storage"
)

type savedViewRequest struct {
	AccountID uuid.UUID       `json:"account_id"`
	Name      string          `json:"name"`
	Payload   json.RawMessage `json:"payload"`
}

func (v *savedViewRequest) validate() string {
	if v.AccountID == uuid.Nil {
		return "account_id is required"
	}
	if v.Name == "" {
		return "name is required"
	}
	if len(v.Payload) == 0 {
		return "payload is required"
	}
	return ""
}

// ListSavedViews handles GET /api/saved-views.
func (h *Handlers) ListSavedViews(w http.ResponseWriter, r *http.Request) {
	views, err := h.store.ListSavedViews(r.Context(), owner(r))
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"saved_views": views})
}

// CreateSavedView handles POST /api/saved-views. View names are unique
// per owner; a duplicate returns 409.
func (h *Handlers) CreateSavedView(w http.ResponseWriter, r *http.Request) {
	var req savedViewRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		httputil.BadRequest(w, msg)
		return
	}

	view := &storage.SavedView{
		Owner:     owner(r),
		AccountID: req.AccountID,
		Name:      req.Name,
		Payload:   req.Payload,
	}
	if err := h.store.CreateSavedView(r.Context(), view); err != nil {
		writeStoreError(w, err)
		return
	}
	h.logActivity(r, req.AccountID, "saved_view:create", "saved_view", view.ID.String(), nil)
	httputil.Created(w, view)
}

// GetSavedView handles GET /api/saved-views/{id}.
func (h *Handlers) GetSavedView(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		httputil.BadRequest(w, "invalid view id")
		return
	}
	view, err := h.store.GetSavedView(r.Context(), owner(r), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httputil.OK(w, view)
}

// UpdateSavedView handles PUT /api/saved-views/{id}.
func (h *Handlers) UpdateSavedView(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		httputil.BadRequest(w, "invalid view id")
		return
	}
	var req savedViewRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		httputil.BadRequest(w, msg)
		return
	}

	view := &storage.SavedView{
		ID:        id,
		Owner:     owner(r),
		AccountID: req.AccountID,
		Name:      req.Name,
		Payload:   req.Payload,
	}
	if err := h.store.UpdateSavedView(r.Context(), view); err != nil {
		writeStoreError(w, err)
		return
	}
	h.logActivity(r, req.AccountID, "saved_view:update", "saved_view", id.String(), nil)
	httputil.OK(w, view)
}

// DeleteSavedView handles DELETE /api/saved-views/{id}.
func (h *Handlers) DeleteSavedView(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		httputil.BadRequest(w, "invalid view id")
		return
	}
	if err := h.store.DeleteSavedView(r.Context(), owner(r), id); err != nil {
		writeStoreError(w, err)
		return
	}
	httputil.NoContent(w)
}
