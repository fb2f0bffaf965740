package shipping

import (
	"encoding/json"
	"time"
)

const (
	EventShipmentBooked        = "ShipmentBooked"
	EventShipmentBookingFailed = "ShipmentBookingFailed"
	EventLabelGenerated        = "LabelGenerated"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type ShipmentBookedPayload struct {
	OrderID        string `json:"order_id"`
	ShipmentID     string `json:"shipment_id"`
	Courier        string `json:"courier"`
	ServiceType    string `json:"service_type"`
	TrackingNumber string `json:"tracking_number"`
	FallbackUsed   bool   `json:"fallback_used"`
}

type ShipmentBookingFailedPayload struct {
	OrderID    string           `json:"order_id"`
	ShipmentID string           `json:"shipment_id"`
	Attempts   []BookingAttempt `json:"attempts"`
}

type LabelGeneratedPayload struct {
	OrderID        string `json:"order_id"`
	ShipmentID     string `json:"shipment_id"`
	TrackingNumber string `json:"tracking_number"`
	LabelURL       string `json:"label_url"`
}
