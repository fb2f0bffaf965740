package balance

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aqilanwar/go-courier-booking/internal/courier"
)

type Level string

const (
	LevelSufficient Level = "sufficient"
	LevelLow        Level = "low"
	LevelCritical   Level = "critical"
)

type Fetcher interface {
	AccountBalance(ctx context.Context) (courier.Balance, error)
}

type Snapshot struct {
	Amount   decimal.Decimal `json:"current"`
	Currency string          `json:"currency"`
	Status   Level           `json:"status"`
	Cached   bool            `json:"cached"`
	Age      time.Duration   `json:"-"`
}

// Cache is a single-slot TTL cache over the courier account balance. One
// account, one slot; the mutex also serializes the live fetch so a burst of
// reads cannot stampede the courier API.
type Cache struct {
	api      Fetcher
	ttl      time.Duration
	low      decimal.Decimal
	critical decimal.Decimal
	log      *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	data      *courier.Balance
	fetchedAt time.Time
}

func New(api Fetcher, ttl time.Duration, low, critical decimal.Decimal, log *zap.Logger) *Cache {
	return &Cache{
		api:      api,
		ttl:      ttl,
		low:      low,
		critical: critical,
		log:      log,
		now:      time.Now,
	}
}

// Get returns the cached balance when it is fresh enough, otherwise performs
// a live fetch. Any fetch error clears the slot so stale data is never served
// after a failure; the error itself carries the not-configured /
// invalid-credentials / transient distinction from the courier client.
func (c *Cache) Get(ctx context.Context, forceRefresh bool) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !forceRefresh && c.data != nil && now.Sub(c.fetchedAt) < c.ttl {
		return c.snapshot(true, now.Sub(c.fetchedAt)), nil
	}

	b, err := c.api.AccountBalance(ctx)
	if err != nil {
		c.data = nil
		c.fetchedAt = time.Time{}
		return Snapshot{}, err
	}
	c.data = &b
	c.fetchedAt = now
	return c.snapshot(false, 0), nil
}

// ApplyEstimatedDeduction optimistically lowers the cached balance right
// after a booking, clamped at zero. The TTL is untouched: the next expiry
// still triggers a real fetch.
func (c *Cache) ApplyEstimatedDeduction(amount decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.data == nil {
		return
	}
	next := c.data.Amount.Sub(amount)
	if next.IsNegative() {
		next = decimal.Zero
	}
	c.log.Debug("estimated balance deduction",
		zap.String("amount", amount.String()),
		zap.String("remaining", next.String()))
	c.data.Amount = next
}

func (c *Cache) snapshot(cached bool, age time.Duration) Snapshot {
	return Snapshot{
		Amount:   c.data.Amount,
		Currency: c.data.Currency,
		Status:   c.classify(c.data.Amount),
		Cached:   cached,
		Age:      age,
	}
}

func (c *Cache) classify(amount decimal.Decimal) Level {
	switch {
	case amount.LessThanOrEqual(c.critical):
		return LevelCritical
	case amount.LessThanOrEqual(c.low):
		return LevelLow
	default:
		return LevelSufficient
	}
}
