package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aqilanwar/go-courier-booking/internal/shipping"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Success  bool                      `json:"success"`
	Error    string                    `json:"error"`
	Field    string                    `json:"field,omitempty"`
	Attempts []shipping.BookingAttempt `json:"attempts,omitempty"`
}

// writeError maps the shipping error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var (
		nf   *shipping.NotFoundError
		val  *shipping.ValidationError
		conf *shipping.ConflictError
		ext  *shipping.ExternalServiceError
		auth *shipping.AuthorizationError
	)
	switch {
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, errorBody{Error: nf.Error()})
	case errors.As(err, &val):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: val.Error(), Field: val.Field})
	case errors.As(err, &conf):
		writeJSON(w, http.StatusConflict, errorBody{Error: conf.Error()})
	case errors.As(err, &ext):
		writeJSON(w, http.StatusBadGateway, errorBody{Error: ext.Error(), Attempts: ext.Attempts})
	case errors.As(err, &auth):
		code := http.StatusForbidden
		if auth.Missing {
			code = http.StatusUnauthorized
		}
		writeJSON(w, code, errorBody{Error: auth.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
	}
}
