package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/aqilanwar/go-courier-booking/internal/courier"
	"github.com/aqilanwar/go-courier-booking/internal/redisx"
	"github.com/aqilanwar/go-courier-booking/internal/shipping"
)

// BookingService is the slice of the orchestrator the handler needs.
type BookingService interface {
	Book(ctx context.Context, req shipping.BookRequest) (shipping.BookResult, error)
	GenerateLabel(ctx context.Context, orderID, actor, traceID string) (courier.Label, error)
	QuoteRates(ctx context.Context, orderID string) ([]courier.RateQuote, error)
}

type ShipmentReader interface {
	GetByOrder(ctx context.Context, orderID string) (shipping.Shipment, error)
}

type BookingHandler struct {
	Service   BookingService
	Shipments ShipmentReader
	Redis     *redis.Client
}

type bookReq struct {
	OrderID string                   `json:"order_id"`
	Options *shipping.BookingOptions `json:"options,omitempty"`
}

type labelReq struct {
	OrderID string `json:"order_id"`
}

type bookingStatus struct {
	ShipmentID     string `json:"shipment_id,omitempty"`
	Status         string `json:"status"`
	Courier        string `json:"courier,omitempty"`
	TrackingNumber string `json:"tracking_number,omitempty"`
}

func (h *BookingHandler) Register(r chi.Router) {
	r.Post("/booking", h.book)
	r.Get("/booking", h.getBooking)
	r.Post("/booking/label", h.label)
	r.Get("/rates", h.rates)
}

func (h *BookingHandler) book(w http.ResponseWriter, r *http.Request) {
	var req bookReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &shipping.ValidationError{Message: "invalid json"})
		return
	}
	if req.OrderID == "" {
		writeError(w, &shipping.ValidationError{Field: "order_id", Message: "required"})
		return
	}

	// two external calls worst case, so a wider budget than the reads
	ctx, cancel := context.WithTimeout(r.Context(), 45*time.Second)
	defer cancel()

	var opts shipping.BookingOptions
	if req.Options != nil {
		opts = *req.Options
	}
	res, err := h.Service.Book(ctx, shipping.BookRequest{
		OrderID: req.OrderID,
		Actor:   actor(r),
		TraceID: r.Header.Get("X-Request-Id"),
		Options: opts,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	// refresh the status cache so GET /booking sees the booking immediately
	h.cacheStatus(ctx, req.OrderID, bookingStatus{
		ShipmentID:     res.ShipmentID,
		Status:         string(shipping.ShipmentBooked),
		Courier:        res.Courier,
		TrackingNumber: res.TrackingNumber,
	})

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": res})
}

func (h *BookingHandler) getBooking(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("order_id")
	if orderID == "" {
		writeError(w, &shipping.ValidationError{Field: "order_id", Message: "required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// cache first
	key := fmt.Sprintf(redisx.KeyShipmentStatus, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(s))
		return
	}

	sh, err := h.Shipments.GetByOrder(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	st := bookingStatus{
		ShipmentID:     sh.ID,
		Status:         string(sh.Status),
		Courier:        sh.Courier,
		TrackingNumber: sh.TrackingNumber,
	}
	h.cacheStatus(ctx, orderID, st)
	writeJSON(w, http.StatusOK, st)
}

func (h *BookingHandler) label(w http.ResponseWriter, r *http.Request) {
	var req labelReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &shipping.ValidationError{Message: "invalid json"})
		return
	}
	if req.OrderID == "" {
		writeError(w, &shipping.ValidationError{Field: "order_id", Message: "required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	lbl, err := h.Service.GenerateLabel(ctx, req.OrderID, actor(r), r.Header.Get("X-Request-Id"))
	if err != nil {
		writeError(w, err)
		return
	}
	// booking status cache is stale now, drop it
	_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyShipmentStatus, req.OrderID)).Err()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": lbl})
}

func (h *BookingHandler) rates(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("order_id")
	if orderID == "" {
		writeError(w, &shipping.ValidationError{Field: "order_id", Message: "required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	quotes, err := h.Service.QuoteRates(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": quotes})
}

func (h *BookingHandler) cacheStatus(ctx context.Context, orderID string, st bookingStatus) {
	b, _ := json.Marshal(st)
	_ = h.Redis.Set(ctx, fmt.Sprintf(redisx.KeyShipmentStatus, orderID), b, redisx.TTLStatusCache).Err()
}
