package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/aqilanwar/go-courier-booking/internal/redisx"
	"github.com/aqilanwar/go-courier-booking/internal/shipping"
)

type SelectionStore interface {
	AssignCouriers(ctx context.Context, orderID string, sel shipping.AdminSelection) (string, error)
}

type AuditReader interface {
	ListByOrder(ctx context.Context, orderID string) ([]shipping.AuditEntry, error)
}

type ShipmentsHandler struct {
	Selections SelectionStore
	Audit      AuditReader
	Redis      *redis.Client
}

type assignReq struct {
	OrderID     string                     `json:"order_id"`
	Main        shipping.CourierSelection  `json:"main"`
	Alternative *shipping.CourierSelection `json:"alternative,omitempty"`
}

func (h *ShipmentsHandler) Register(r chi.Router) {
	r.Post("/shipments/assign", h.assign)
	r.Get("/audit", h.audit)
}

func (h *ShipmentsHandler) assign(w http.ResponseWriter, r *http.Request) {
	var req assignReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &shipping.ValidationError{Message: "invalid json"})
		return
	}
	if req.OrderID == "" {
		writeError(w, &shipping.ValidationError{Field: "order_id", Message: "required"})
		return
	}
	if req.Main.Courier == "" || req.Main.ServiceType == "" {
		writeError(w, &shipping.ValidationError{Field: "main", Message: "main courier and service type are required"})
		return
	}
	if req.Alternative != nil && (req.Alternative.Courier == "" || req.Alternative.ServiceType == "") {
		writeError(w, &shipping.ValidationError{Field: "alternative", Message: "alternative must carry courier and service type"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := h.Selections.AssignCouriers(ctx, req.OrderID, shipping.AdminSelection{
		Main:        req.Main,
		Alternative: req.Alternative,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	// the cached status may predate this draft
	_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyShipmentStatus, req.OrderID)).Err()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]string{"shipment_id": id}})
}

func (h *ShipmentsHandler) audit(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("order_id")
	if orderID == "" {
		writeError(w, &shipping.ValidationError{Field: "order_id", Message: "required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	entries, err := h.Audit.ListByOrder(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": entries})
}
