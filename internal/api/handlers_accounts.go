package api

import (
	"net/http"
	"time"

	"github.com/ignite/ads-console/internal/pkg/httputil"
	"github.com/ignite/ads-console/internal/storage"
)

// ListAccounts handles GET /api/accounts.
func (h *Handlers) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.store.ListAccounts(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"accounts": accounts})
}

type createAccountRequest struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Currency   string `json:"currency"`
	Timezone   string `json:"timezone"`
}

// CreateAccount handles POST /api/accounts. Linking an account enqueues
// an immediate hierarchy and metrics sync so the dashboard fills in
// without waiting for the scheduler.
func (h *Handlers) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if !validCustomerID(req.CustomerID) {
		httputil.BadRequest(w, "customer_id must be 8-12 digits")
		return
	}
	if req.Name == "" {
		httputil.BadRequest(w, "name is required")
		return
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}
	if req.Timezone == "" {
		req.Timezone = "UTC"
	}

	account := &storage.Account{
		CustomerID: req.CustomerID,
		Name:       req.Name,
		Currency:   req.Currency,
		Timezone:   req.Timezone,
		Status:     "active",
	}
	if err := h.store.CreateAccount(r.Context(), account); err != nil {
		writeStoreError(w, err)
		return
	}

	now := time.Now()
	if _, err := h.store.EnqueueSyncJob(r.Context(), account.ID, "hierarchy", now); err != nil {
		httputil.InternalError(w, err)
		return
	}
	if _, err := h.store.EnqueueSyncJob(r.Context(), account.ID, "metrics", now); err != nil {
		httputil.InternalError(w, err)
		return
	}

	h.logActivity(r, account.ID, "account:create", "account", account.ID.String(), req)
	httputil.Created(w, account)
}

// GetAccountHierarchy handles GET /api/accounts/{id}/hierarchy.
func (h *Handlers) GetAccountHierarchy(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		httputil.BadRequest(w, "invalid account id")
		return
	}
	if _, err := h.store.GetAccount(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	tree, err := h.store.AccountHierarchy(r.Context(), id)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"account_id": id, "campaigns": tree})
}

func validCustomerID(s string) bool {
	if len(s) < 8 || len(s) > 12 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
