package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/rl1809/pantry/internal/core/domain"
	"github.com/rl1809/pantry/internal/core/service"
	"github.com/rl1809/pantry/internal/core/view"
)

const idempotencyHeader = "Idempotency-Key"

type HTTPHandler struct {
	inventory *service.InventoryService
	logger    *zap.Logger
}

// Quantity accepts either a JSON string or a JSON number and keeps the raw
// text; parsing happens in the service.
type Quantity string

func (q *Quantity) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*q = Quantity(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*q = Quantity(n.String())
	return nil
}

type AddItemHTTPRequest struct {
	Name        string   `json:"name"`
	Quantity    Quantity `json:"quantity"`
	Description string   `json:"description"`
}

type EditItemHTTPRequest struct {
	Quantity    Quantity `json:"quantity"`
	Description string   `json:"description"`
}

type MutationHTTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ViewHTTPResponse struct {
	Rows   []view.Row `json:"rows"`
	Total  int        `json:"total"`
	Search string     `json:"search"`
	Sort   string     `json:"sort"`
	Dir    string     `json:"dir"`
}

func NewHTTPHandler(inventory *service.InventoryService, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{inventory: inventory, logger: logger}
}

// ListView re-fetches the inventory and returns the derived rows.
// Query parameters: search, sort (name|quantity), dir (asc|desc), expanded (item name).
func (h *HTTPHandler) ListView(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventory.ListItems(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	q := r.URL.Query()
	query := view.Query{
		Search:   q.Get("search"),
		Sort:     view.Sort{Field: view.SortName, Direction: view.ParseDirection(q.Get("dir"))},
		Expanded: q.Get("expanded"),
	}
	if q.Has("sort") {
		query.Sort.Field = view.ParseSortField(q.Get("sort"))
	}

	rows := view.DeriveView(items, query)
	writeJSON(w, http.StatusOK, ViewHTTPResponse{
		Rows:   rows,
		Total:  len(items),
		Search: query.Search,
		Sort:   string(query.Sort.Field),
		Dir:    string(query.Sort.Direction),
	})
}

func (h *HTTPHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, MutationHTTPResponse{
			Success: false,
			Message: "invalid request body",
		})
		return
	}

	key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if err := h.inventory.AddItemOnce(r.Context(), key, req.Name, string(req.Quantity), req.Description); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MutationHTTPResponse{
		Success: true,
		Message: "item added",
	})
}

func (h *HTTPHandler) EditItem(w http.ResponseWriter, r *http.Request) {
	var req EditItemHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, MutationHTTPResponse{
			Success: false,
			Message: "invalid request body",
		})
		return
	}

	if err := h.inventory.EditItem(r.Context(), r.PathValue("name"), string(req.Quantity), req.Description); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MutationHTTPResponse{
		Success: true,
		Message: "item updated",
	})
}

func (h *HTTPHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if err := h.inventory.RemoveItem(r.Context(), r.PathValue("name")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeError turns a service error into a status code and a message fit for display.
func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	var (
		verr *domain.ValidationError
		gerr *domain.GatewayError
	)
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		message = verr.Error()
	case errors.Is(err, service.ErrDuplicateRequest):
		status = http.StatusConflict
		message = "duplicate request"
	case errors.As(err, &gerr):
		status = http.StatusBadGateway
		message = "storage unavailable: " + gerr.Error()
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, MutationHTTPResponse{
		Success: false,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
