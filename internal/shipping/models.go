package shipping

import (
	"time"

	"github.com/aqilanwar/go-courier-booking/internal/courier"
)

type Order struct {
	ID         string
	OrderNo    string
	Status     OrderStatus
	TotalCents int
	Recipient  *courier.Address // nil when the order has no shipping address
	Items      []OrderItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type OrderItem struct {
	ID         string
	OrderID    string
	Name       string
	WeightKg   *float64 // nil -> default weight applies
	Qty        int
	PriceCents int
}

// CourierSelection is one half of the admin's main/alternative pair.
type CourierSelection struct {
	Courier     string `json:"courier"`
	ServiceType string `json:"service_type"`
}

// AdminSelection is validated at the boundary: Main is mandatory before booking.
type AdminSelection struct {
	Main        CourierSelection  `json:"main"`
	Alternative *CourierSelection `json:"alternative,omitempty"`
}

type Shipment struct {
	ID             string
	OrderID        string
	Courier        string
	ServiceType    string
	TrackingNumber string
	Status         ShipmentStatus
	Selection      AdminSelection
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AuditEntry is an append-only record of an administrative booking action.
type AuditEntry struct {
	ID             string
	OrderID        string
	ShipmentID     string
	Action         string
	Outcome        string
	Courier        string
	FallbackUsed   bool
	AttemptCount   int
	TrackingNumber string
	Detail         string
	Actor          string
	CreatedAt      time.Time
}

const (
	AuditActionBook  = "BOOK_SHIPMENT"
	AuditActionLabel = "GENERATE_LABEL"

	AuditOutcomeSuccess  = "SUCCESS"
	AuditOutcomeFailed   = "FAILED"
	AuditOutcomeConflict = "CONFLICT"
)
