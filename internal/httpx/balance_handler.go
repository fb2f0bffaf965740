package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/aqilanwar/go-courier-booking/internal/balance"
	"github.com/aqilanwar/go-courier-booking/internal/courier"
)

type BalanceProvider interface {
	Get(ctx context.Context, forceRefresh bool) (balance.Snapshot, error)
}

type BalanceHandler struct {
	Cache             BalanceProvider
	LowThreshold      decimal.Decimal
	CriticalThreshold decimal.Decimal
}

type balanceResp struct {
	Current    decimal.Decimal `json:"current"`
	Currency   string          `json:"currency"`
	Status     balance.Level   `json:"status"`
	Thresholds struct {
		Low      decimal.Decimal `json:"low"`
		Critical decimal.Decimal `json:"critical"`
	} `json:"thresholds"`
	CacheInfo struct {
		Cached     bool    `json:"cached"`
		AgeSeconds float64 `json:"age_seconds"`
	} `json:"cache_info"`
}

func (h *BalanceHandler) Register(r chi.Router) {
	r.Get("/balance", h.get)
}

func (h *BalanceHandler) get(w http.ResponseWriter, r *http.Request) {
	refresh := r.URL.Query().Get("refresh") == "true"

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	snap, err := h.Cache.Get(ctx, refresh)
	if err != nil {
		switch {
		case errors.Is(err, courier.ErrNotConfigured):
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"success": false, "code": "NOT_CONFIGURED", "error": err.Error(),
			})
		case errors.Is(err, courier.ErrInvalidCredentials):
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"success": false, "code": "INVALID_CREDENTIALS", "error": err.Error(),
			})
		default:
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"success": false, "code": "TRANSIENT", "error": err.Error(),
			})
		}
		return
	}

	var resp balanceResp
	resp.Current = snap.Amount
	resp.Currency = snap.Currency
	resp.Status = snap.Status
	resp.Thresholds.Low = h.LowThreshold
	resp.Thresholds.Critical = h.CriticalThreshold
	resp.CacheInfo.Cached = snap.Cached
	resp.CacheInfo.AgeSeconds = snap.Age.Seconds()
	writeJSON(w, http.StatusOK, resp)
}
