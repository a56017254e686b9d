package api

import (
	"net/http"

	"github.com/ignite/ads-console/internal/pkg/httputil"
)

// GetQueueStatus handles GET /api/queue/status.
func (h *Handlers) GetQueueStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.store.GetQueueStatus(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, status)
}

// ListActivityLogs handles GET /api/activity-logs?account_id=&limit=.
func (h *Handlers) ListActivityLogs(w http.ResponseWriter, r *http.Request) {
	accountID, err := queryUUID(r, "account_id")
	if err != nil {
		httputil.BadRequest(w, "account_id is required")
		return
	}
	limit := 100
	if n, err := parseQueryInt64(r, "limit"); err == nil && n > 0 && n <= 1000 {
		limit = int(n)
	}
	logs, err := h.store.ListActivity(r.Context(), accountID, limit)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"activity": logs})
}
