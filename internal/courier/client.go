package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
)

// API is the courier aggregator seen by the rest of the service.
type API interface {
	Rates(ctx context.Context, req RateRequest) ([]RateQuote, error)
	CreateShipment(ctx context.Context, req BookingRequest) (BookingResult, error)
	GenerateLabel(ctx context.Context, trackingNumber string) (Label, error)
	AccountBalance(ctx context.Context) (Balance, error)
}

var (
	ErrNotConfigured      = errors.New("courier api key not configured")
	ErrInvalidCredentials = errors.New("courier api rejected credentials")
)

// APIError is a non-auth failure reported by the aggregator (validation,
// unsupported route, courier-side rejection).
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("courier api: %s (%s, http %d)", e.Message, e.Code, e.Status)
}

type Client struct {
	baseURL string
	apiKey  string
	hc      *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		hc:      &http.Client{Timeout: timeout},
	}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return errors.Wrap(err, "courier api request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrInvalidCredentials
	}

	var env apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return errors.Wrap(err, "decode response")
	}
	if resp.StatusCode >= 300 || !env.Success {
		code := env.Code
		if code == "" {
			code = "UNKNOWN"
		}
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Code: code, Message: msg}
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return errors.Wrap(err, "decode data")
		}
	}
	return nil
}

func (c *Client) Rates(ctx context.Context, req RateRequest) ([]RateQuote, error) {
	var out []RateQuote
	if err := c.call(ctx, http.MethodPost, "/rates", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateShipment(ctx context.Context, req BookingRequest) (BookingResult, error) {
	var out BookingResult
	if err := c.call(ctx, http.MethodPost, "/shipments", req, &out); err != nil {
		return BookingResult{}, err
	}
	return out, nil
}

func (c *Client) GenerateLabel(ctx context.Context, trackingNumber string) (Label, error) {
	var out Label
	if err := c.call(ctx, http.MethodPost, "/shipments/"+trackingNumber+"/label", nil, &out); err != nil {
		return Label{}, err
	}
	return out, nil
}

func (c *Client) AccountBalance(ctx context.Context) (Balance, error) {
	var out Balance
	if err := c.call(ctx, http.MethodGet, "/balance", nil, &out); err != nil {
		return Balance{}, err
	}
	return out, nil
}
