package shipping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aqilanwar/go-courier-booking/internal/courier"
	kafkax "github.com/aqilanwar/go-courier-booking/internal/kafka"
)

// Default parcel dimensions (cm) sent when products carry no dimension data.
const (
	defaultLengthCm = 30
	defaultWidthCm  = 20
	defaultHeightCm = 10
)

type OrderStore interface {
	GetOrder(ctx context.Context, orderID string) (Order, error)
}

type ShipmentStore interface {
	GetByOrder(ctx context.Context, orderID string) (Shipment, error)
	MarkBooked(ctx context.Context, shipmentID, courierName, serviceType, trackingNumber string) (bool, error)
	Transition(ctx context.Context, shipmentID string, from, to ShipmentStatus) (bool, error)
}

type AuditWriter interface {
	Insert(ctx context.Context, e AuditEntry) error
}

type EventPublisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// BalanceDeductor keeps the displayed courier balance roughly in sync
// between real fetches.
type BalanceDeductor interface {
	ApplyEstimatedDeduction(amount decimal.Decimal)
}

// Orchestrator books a courier shipment for an order: main courier first,
// one retry with the pre-selected alternative, outcome persisted and audited.
type Orchestrator struct {
	Orders    OrderStore
	Shipments ShipmentStore
	Audit     AuditWriter
	Courier   courier.API
	Balance   BalanceDeductor

	// one producer per topic; partition key is the order id
	ProducerBooked EventPublisher
	ProducerFailed EventPublisher
	ProducerLabel  EventPublisher

	Pickup              courier.Address
	DefaultItemWeightKg float64
	Service             string
	Log                 *zap.Logger
}

type BookRequest struct {
	OrderID string
	Actor   string
	TraceID string
	Options BookingOptions
}

type BookResult struct {
	ShipmentID     string           `json:"shipment_id"`
	TrackingNumber string           `json:"tracking_number"`
	Courier        string           `json:"courier"`
	ServiceType    string           `json:"service_type"`
	FallbackUsed   bool             `json:"fallback_used"`
	Attempts       []BookingAttempt `json:"attempts"`
	Rate           decimal.Decimal  `json:"rate"`
	Currency       string           `json:"currency,omitempty"`
}

// Book runs the two-attempt booking flow. Preconditions are checked in order,
// first failure wins.
func (o *Orchestrator) Book(ctx context.Context, req BookRequest) (BookResult, error) {
	if err := req.Options.Validate(); err != nil {
		return BookResult{}, err
	}

	order, err := o.Orders.GetOrder(ctx, req.OrderID)
	if err != nil {
		return BookResult{}, err
	}
	if order.Recipient == nil {
		return BookResult{}, &ValidationError{Field: "shipping_address", Message: "order has no shipping address"}
	}

	sh, err := o.Shipments.GetByOrder(ctx, req.OrderID)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return BookResult{}, &ValidationError{Field: "shipment", Message: "assign couriers first"}
		}
		return BookResult{}, err
	}
	if sh.Status != ShipmentDraft {
		o.audit(ctx, AuditEntry{
			OrderID: order.ID, ShipmentID: sh.ID,
			Action: AuditActionBook, Outcome: AuditOutcomeConflict,
			Courier: sh.Courier, TrackingNumber: sh.TrackingNumber,
			Detail: fmt.Sprintf("shipment already %s", sh.Status),
			Actor:  req.Actor,
		})
		return BookResult{}, &ConflictError{Message: "shipment is already booked"}
	}
	if sh.Selection.Main.Courier == "" {
		return BookResult{}, &ValidationError{Field: "main_courier", Message: "main courier selection is required"}
	}

	payload := o.buildPayload(order, req.Options)

	selections := []CourierSelection{sh.Selection.Main}
	if sh.Selection.Alternative != nil {
		selections = append(selections, *sh.Selection.Alternative)
	}

	var attempts []BookingAttempt
	for i, sel := range selections {
		payload.Courier = sel.Courier
		payload.ServiceType = sel.ServiceType

		res, err := o.Courier.CreateShipment(ctx, payload)
		if err != nil {
			attempts = append(attempts, BookingAttempt{
				Courier: sel.Courier, ServiceType: sel.ServiceType, Error: err.Error(),
			})
			o.Log.Warn("courier booking attempt failed",
				zap.String("order_id", order.ID),
				zap.String("courier", sel.Courier),
				zap.Error(err))
			continue
		}
		attempts = append(attempts, BookingAttempt{Courier: sel.Courier, ServiceType: sel.ServiceType})
		return o.finishBooking(ctx, order, sh, sel, res, i > 0, attempts, req)
	}

	o.audit(ctx, AuditEntry{
		OrderID: order.ID, ShipmentID: sh.ID,
		Action: AuditActionBook, Outcome: AuditOutcomeFailed,
		AttemptCount: len(attempts),
		Detail:       (&ExternalServiceError{Attempts: attempts}).Error(),
		Actor:        req.Actor,
	})
	o.publish(o.ProducerFailed, EventShipmentBookingFailed, order.ID, req.TraceID,
		ShipmentBookingFailedPayload{OrderID: order.ID, ShipmentID: sh.ID, Attempts: attempts})
	return BookResult{ShipmentID: sh.ID, Attempts: attempts}, &ExternalServiceError{Attempts: attempts}
}

func (o *Orchestrator) finishBooking(ctx context.Context, order Order, sh Shipment,
	sel CourierSelection, res courier.BookingResult, fallback bool,
	attempts []BookingAttempt, req BookRequest) (BookResult, error) {

	swapped, err := o.Shipments.MarkBooked(ctx, sh.ID, sel.Courier, sel.ServiceType, res.TrackingNumber)
	if err != nil {
		return BookResult{}, err
	}
	if !swapped {
		// lost the race after the external call succeeded; keep the trail
		o.audit(ctx, AuditEntry{
			OrderID: order.ID, ShipmentID: sh.ID,
			Action: AuditActionBook, Outcome: AuditOutcomeConflict,
			Courier: sel.Courier, FallbackUsed: fallback, AttemptCount: len(attempts),
			TrackingNumber: res.TrackingNumber,
			Detail:         "booked concurrently by another request",
			Actor:          req.Actor,
		})
		return BookResult{}, &ConflictError{Message: "shipment is already booked"}
	}

	o.audit(ctx, AuditEntry{
		OrderID: order.ID, ShipmentID: sh.ID,
		Action: AuditActionBook, Outcome: AuditOutcomeSuccess,
		Courier: sel.Courier, FallbackUsed: fallback, AttemptCount: len(attempts),
		TrackingNumber: res.TrackingNumber,
		Actor:          req.Actor,
	})
	o.publish(o.ProducerBooked, EventShipmentBooked, order.ID, req.TraceID,
		ShipmentBookedPayload{
			OrderID: order.ID, ShipmentID: sh.ID,
			Courier: sel.Courier, ServiceType: sel.ServiceType,
			TrackingNumber: res.TrackingNumber, FallbackUsed: fallback,
		})

	if o.Balance != nil && res.Rate.IsPositive() {
		o.Balance.ApplyEstimatedDeduction(res.Rate)
	}

	return BookResult{
		ShipmentID:     sh.ID,
		TrackingNumber: res.TrackingNumber,
		Courier:        sel.Courier,
		ServiceType:    sel.ServiceType,
		FallbackUsed:   fallback,
		Attempts:       attempts,
		Rate:           res.Rate,
		Currency:       res.Currency,
	}, nil
}

// GenerateLabel moves a BOOKED shipment to LABEL_GENERATED via the courier API.
func (o *Orchestrator) GenerateLabel(ctx context.Context, orderID, actor, traceID string) (courier.Label, error) {
	sh, err := o.Shipments.GetByOrder(ctx, orderID)
	if err != nil {
		return courier.Label{}, err
	}
	if sh.Status != ShipmentBooked {
		return courier.Label{}, &ConflictError{Message: fmt.Sprintf("label requires a booked shipment, status is %s", sh.Status)}
	}

	lbl, err := o.Courier.GenerateLabel(ctx, sh.TrackingNumber)
	if err != nil {
		o.audit(ctx, AuditEntry{
			OrderID: orderID, ShipmentID: sh.ID,
			Action: AuditActionLabel, Outcome: AuditOutcomeFailed,
			Courier: sh.Courier, TrackingNumber: sh.TrackingNumber,
			AttemptCount: 1, Detail: err.Error(), Actor: actor,
		})
		return courier.Label{}, &ExternalServiceError{Attempts: []BookingAttempt{{
			Courier: sh.Courier, ServiceType: sh.ServiceType, Error: err.Error(),
		}}}
	}

	if _, err := o.Shipments.Transition(ctx, sh.ID, ShipmentBooked, ShipmentLabelGenerated); err != nil {
		return courier.Label{}, err
	}
	o.audit(ctx, AuditEntry{
		OrderID: orderID, ShipmentID: sh.ID,
		Action: AuditActionLabel, Outcome: AuditOutcomeSuccess,
		Courier: sh.Courier, TrackingNumber: sh.TrackingNumber,
		AttemptCount: 1, Actor: actor,
	})
	o.publish(o.ProducerLabel, EventLabelGenerated, orderID, traceID,
		LabelGeneratedPayload{OrderID: orderID, ShipmentID: sh.ID, TrackingNumber: sh.TrackingNumber, LabelURL: lbl.URL})
	return lbl, nil
}

// QuoteRates returns per-courier quotes for the admin's selection screen.
func (o *Orchestrator) QuoteRates(ctx context.Context, orderID string) ([]courier.RateQuote, error) {
	order, err := o.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Recipient == nil {
		return nil, &ValidationError{Field: "shipping_address", Message: "order has no shipping address"}
	}
	return o.Courier.Rates(ctx, courier.RateRequest{
		Pickup:        o.Pickup,
		Delivery:      *order.Recipient,
		WeightKg:      PackageWeightKg(order.Items, o.DefaultItemWeightKg),
		DeclaredValue: centsToAmount(order.TotalCents),
	})
}

func (o *Orchestrator) buildPayload(order Order, opts BookingOptions) courier.BookingRequest {
	req := courier.BookingRequest{
		Pickup:   o.Pickup,
		Delivery: *order.Recipient,
		Parcel: courier.Parcel{
			WeightKg:      PackageWeightKg(order.Items, o.DefaultItemWeightKg),
			LengthCm:      defaultLengthCm,
			WidthCm:       defaultWidthCm,
			HeightCm:      defaultHeightCm,
			DeclaredValue: centsToAmount(order.TotalCents),
		},
		Reference:        order.OrderNo,
		RequireSignature: opts.RequireSignature,
		Instructions:     opts.Instructions,
	}
	if opts.COD {
		req.CODAmount = opts.CODAmount
	}
	if opts.Insurance {
		req.InsuredAmount = opts.InsuredAmount
	}
	return req
}

func (o *Orchestrator) publish(pub EventPublisher, eventType, orderID, traceID string, payload any) {
	if pub == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      o.Service,
		TraceID:       traceID,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	pub.Publish(PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

// audit failures must not fail the booking; log and move on.
func (o *Orchestrator) audit(ctx context.Context, e AuditEntry) {
	if err := o.Audit.Insert(ctx, e); err != nil {
		o.Log.Error("audit insert", zap.String("order_id", e.OrderID), zap.Error(err))
	}
}

func centsToAmount(cents int) decimal.Decimal {
	return decimal.NewFromInt(int64(cents)).Div(decimal.NewFromInt(100))
}
