package shipping

import (
	"context"
	"errors"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aqilanwar/go-courier-booking/internal/courier"
)

type fakeOrders struct {
	orders map[string]Order
}

func (f *fakeOrders) GetOrder(_ context.Context, id string) (Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return Order{}, &NotFoundError{Resource: "order", ID: id}
	}
	return o, nil
}

type bookedCall struct {
	shipmentID, courier, serviceType, tracking string
}

type fakeShipments struct {
	byOrder  map[string]Shipment
	booked   []bookedCall
	loseRace bool
}

func (f *fakeShipments) GetByOrder(_ context.Context, orderID string) (Shipment, error) {
	s, ok := f.byOrder[orderID]
	if !ok {
		return Shipment{}, &NotFoundError{Resource: "shipment", ID: orderID}
	}
	return s, nil
}

func (f *fakeShipments) MarkBooked(_ context.Context, id, c, svc, tracking string) (bool, error) {
	if f.loseRace {
		return false, nil
	}
	f.booked = append(f.booked, bookedCall{id, c, svc, tracking})
	for k, s := range f.byOrder {
		if s.ID == id {
			s.Status = ShipmentBooked
			s.Courier = c
			s.ServiceType = svc
			s.TrackingNumber = tracking
			f.byOrder[k] = s
		}
	}
	return true, nil
}

func (f *fakeShipments) Transition(_ context.Context, id string, from, to ShipmentStatus) (bool, error) {
	for k, s := range f.byOrder {
		if s.ID == id && s.Status == from {
			s.Status = to
			f.byOrder[k] = s
			return true, nil
		}
	}
	return false, nil
}

type fakeAudit struct {
	entries []AuditEntry
}

func (f *fakeAudit) Insert(_ context.Context, e AuditEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

type fakeCourierAPI struct {
	fail     map[string]error // keyed by courier name
	tracking map[string]string
	rate     decimal.Decimal
	calls    []courier.BookingRequest
}

func (f *fakeCourierAPI) CreateShipment(_ context.Context, req courier.BookingRequest) (courier.BookingResult, error) {
	f.calls = append(f.calls, req)
	if err, ok := f.fail[req.Courier]; ok {
		return courier.BookingResult{}, err
	}
	return courier.BookingResult{
		TrackingNumber: f.tracking[req.Courier],
		Rate:           f.rate,
		Currency:       "MYR",
	}, nil
}

func (f *fakeCourierAPI) Rates(_ context.Context, _ courier.RateRequest) ([]courier.RateQuote, error) {
	return []courier.RateQuote{{Courier: "citylink", ServiceType: "standard", Price: f.rate, Currency: "MYR"}}, nil
}

func (f *fakeCourierAPI) GenerateLabel(_ context.Context, tracking string) (courier.Label, error) {
	if err, ok := f.fail["label"]; ok {
		return courier.Label{}, err
	}
	return courier.Label{URL: "https://labels.example/" + tracking + ".pdf", Format: "pdf"}, nil
}

func (f *fakeCourierAPI) AccountBalance(_ context.Context) (courier.Balance, error) {
	return courier.Balance{}, nil
}

type fakePublisher struct {
	messages [][]byte
}

func (f *fakePublisher) Publish(_, value []byte, _ ...kafkago.Header) {
	f.messages = append(f.messages, value)
}

type fakeDeductor struct {
	deducted []decimal.Decimal
}

func (f *fakeDeductor) ApplyEstimatedDeduction(amount decimal.Decimal) {
	f.deducted = append(f.deducted, amount)
}

func testOrder(withAddress bool) Order {
	o := Order{
		ID:         "ord-1",
		OrderNo:    "SO-2026-0001",
		Status:     OrderPacked,
		TotalCents: 15990,
		Items: []OrderItem{
			{Name: "tudung", WeightKg: fptr(0.5), Qty: 2, PriceCents: 4500},
			{Name: "kurta", WeightKg: nil, Qty: 3, PriceCents: 2330},
		},
	}
	if withAddress {
		o.Recipient = &courier.Address{
			Name: "Aina", Phone: "+60171112222",
			Line1: "8 Lorong Damai", City: "Shah Alam", State: "Selangor",
			Postcode: "40000", Country: "MY",
		}
	}
	return o
}

func draftShipment(withAlt bool) Shipment {
	s := Shipment{
		ID:      "shp-1",
		OrderID: "ord-1",
		Status:  ShipmentDraft,
		Selection: AdminSelection{
			Main: CourierSelection{Courier: "citylink", ServiceType: "standard"},
		},
	}
	if withAlt {
		s.Selection.Alternative = &CourierSelection{Courier: "jnt", ServiceType: "express"}
	}
	return s
}

type orchFixture struct {
	orch      *Orchestrator
	orders    *fakeOrders
	shipments *fakeShipments
	audit     *fakeAudit
	api       *fakeCourierAPI
	booked    *fakePublisher
	failed    *fakePublisher
	deductor  *fakeDeductor
}

func newFixture(order Order, shipment *Shipment) *orchFixture {
	f := &orchFixture{
		orders:    &fakeOrders{orders: map[string]Order{order.ID: order}},
		shipments: &fakeShipments{byOrder: map[string]Shipment{}},
		audit:     &fakeAudit{},
		api: &fakeCourierAPI{
			fail:     map[string]error{},
			tracking: map[string]string{"citylink": "CL123", "jnt": "JT456"},
			rate:     decimal.NewFromFloat(7.90),
		},
		booked:   &fakePublisher{},
		failed:   &fakePublisher{},
		deductor: &fakeDeductor{},
	}
	if shipment != nil {
		f.shipments.byOrder[shipment.OrderID] = *shipment
	}
	f.orch = &Orchestrator{
		Orders:              f.orders,
		Shipments:           f.shipments,
		Audit:               f.audit,
		Courier:             f.api,
		Balance:             f.deductor,
		ProducerBooked:      f.booked,
		ProducerFailed:      f.failed,
		Pickup:              courier.Address{Name: "Gudang KL", Country: "MY"},
		DefaultItemWeightKg: 0.5,
		Service:             "booking-api-test",
		Log:                 zap.NewNop(),
	}
	return f
}

func TestBookOrderNotFound(t *testing.T) {
	f := newFixture(testOrder(true), nil)

	_, err := f.orch.Book(context.Background(), BookRequest{OrderID: "missing"})

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Empty(t, f.shipments.booked)
}

func TestBookNoShippingAddress(t *testing.T) {
	sh := draftShipment(true)
	f := newFixture(testOrder(false), &sh)

	_, err := f.orch.Book(context.Background(), BookRequest{OrderID: "ord-1"})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "shipping_address", ve.Field)
	require.Empty(t, f.shipments.booked, "no shipment mutation on validation failure")
	require.Empty(t, f.api.calls, "no courier call on validation failure")
}

func TestBookWithoutAssignedShipment(t *testing.T) {
	f := newFixture(testOrder(true), nil)

	_, err := f.orch.Book(context.Background(), BookRequest{OrderID: "ord-1"})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Contains(t, ve.Error(), "assign couriers first")
}

func TestBookAlreadyBooked(t *testing.T) {
	sh := draftShipment(false)
	sh.Status = ShipmentBooked
	sh.TrackingNumber = "CL999"
	f := newFixture(testOrder(true), &sh)

	_, err := f.orch.Book(context.Background(), BookRequest{OrderID: "ord-1", Actor: "siti"})

	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	require.Empty(t, f.api.calls, "already-booked shipment must not reach the courier API")
	require.Len(t, f.audit.entries, 1)
	require.Equal(t, AuditOutcomeConflict, f.audit.entries[0].Outcome)
	require.Equal(t, "siti", f.audit.entries[0].Actor)
}

func TestBookMainCourierSucceeds(t *testing.T) {
	sh := draftShipment(true)
	f := newFixture(testOrder(true), &sh)

	res, err := f.orch.Book(context.Background(), BookRequest{OrderID: "ord-1"})
	require.NoError(t, err)

	require.False(t, res.FallbackUsed)
	require.Equal(t, "CL123", res.TrackingNumber)
	require.Equal(t, "citylink", res.Courier)
	require.Len(t, res.Attempts, 1)

	require.Len(t, f.shipments.booked, 1)
	require.Equal(t, bookedCall{"shp-1", "citylink", "standard", "CL123"}, f.shipments.booked[0])

	require.Len(t, f.audit.entries, 1)
	require.Equal(t, AuditOutcomeSuccess, f.audit.entries[0].Outcome)
	require.False(t, f.audit.entries[0].FallbackUsed)

	require.Len(t, f.booked.messages, 1)
	require.Empty(t, f.failed.messages)
	require.Len(t, f.deductor.deducted, 1)
	require.True(t, f.deductor.deducted[0].Equal(decimal.NewFromFloat(7.90)))
}

func TestBookFallbackToAlternative(t *testing.T) {
	sh := draftShipment(true)
	f := newFixture(testOrder(true), &sh)
	f.api.fail["citylink"] = errors.New("no coverage for postcode")

	res, err := f.orch.Book(context.Background(), BookRequest{OrderID: "ord-1"})
	require.NoError(t, err)

	require.True(t, res.FallbackUsed)
	require.Len(t, res.Attempts, 2)
	require.Equal(t, "citylink", res.Attempts[0].Courier)
	require.Contains(t, res.Attempts[0].Error, "no coverage")
	require.Equal(t, "jnt", res.Attempts[1].Courier)
	require.Equal(t, "JT456", res.TrackingNumber)

	require.Len(t, f.shipments.booked, 1)
	require.Equal(t, "jnt", f.shipments.booked[0].courier)
	require.Equal(t, ShipmentBooked, f.shipments.byOrder["ord-1"].Status)

	require.Len(t, f.audit.entries, 1)
	require.True(t, f.audit.entries[0].FallbackUsed)
	require.Equal(t, 2, f.audit.entries[0].AttemptCount)
}

func TestBookBothCouriersFail(t *testing.T) {
	sh := draftShipment(true)
	f := newFixture(testOrder(true), &sh)
	f.api.fail["citylink"] = errors.New("no coverage")
	f.api.fail["jnt"] = errors.New("service suspended")

	res, err := f.orch.Book(context.Background(), BookRequest{OrderID: "ord-1"})

	var ext *ExternalServiceError
	require.ErrorAs(t, err, &ext)
	require.Len(t, ext.Attempts, 2)
	require.Len(t, res.Attempts, 2)

	require.Empty(t, f.shipments.booked, "failed booking must not mutate shipment status")
	require.Equal(t, ShipmentDraft, f.shipments.byOrder["ord-1"].Status)

	require.Len(t, f.audit.entries, 1)
	require.Equal(t, AuditOutcomeFailed, f.audit.entries[0].Outcome)
	require.Len(t, f.failed.messages, 1)
	require.Empty(t, f.booked.messages)
	require.Empty(t, f.deductor.deducted)
}

func TestBookNoAlternativeSingleAttempt(t *testing.T) {
	sh := draftShipment(false)
	f := newFixture(testOrder(true), &sh)
	f.api.fail["citylink"] = errors.New("timeout")

	_, err := f.orch.Book(context.Background(), BookRequest{OrderID: "ord-1"})

	var ext *ExternalServiceError
	require.ErrorAs(t, err, &ext)
	require.Len(t, ext.Attempts, 1, "no open-ended retry without an alternative")
}

func TestBookLosesRaceAfterCourierCall(t *testing.T) {
	sh := draftShipment(false)
	f := newFixture(testOrder(true), &sh)
	f.shipments.loseRace = true

	_, err := f.orch.Book(context.Background(), BookRequest{OrderID: "ord-1"})

	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	require.Len(t, f.audit.entries, 1)
	require.Equal(t, AuditOutcomeConflict, f.audit.entries[0].Outcome)
	require.Equal(t, "booked concurrently by another request", f.audit.entries[0].Detail)
}

func TestBookPayloadShape(t *testing.T) {
	sh := draftShipment(false)
	f := newFixture(testOrder(true), &sh)

	_, err := f.orch.Book(context.Background(), BookRequest{
		OrderID: "ord-1",
		Options: BookingOptions{
			COD: true, CODAmount: decimal.NewFromFloat(159.90),
			RequireSignature: true,
			Instructions:     "rumah pagar biru",
		},
	})
	require.NoError(t, err)

	require.Len(t, f.api.calls, 1)
	req := f.api.calls[0]
	require.Equal(t, "SO-2026-0001", req.Reference)
	require.InDelta(t, 2.5, req.Parcel.WeightKg, 1e-9)
	require.True(t, req.Parcel.DeclaredValue.Equal(decimal.NewFromFloat(159.90)))
	require.True(t, req.CODAmount.Equal(decimal.NewFromFloat(159.90)))
	require.True(t, req.RequireSignature)
	require.Equal(t, "Gudang KL", req.Pickup.Name)
	require.Equal(t, "Aina", req.Delivery.Name)
}

func TestGenerateLabel(t *testing.T) {
	sh := draftShipment(false)
	sh.Status = ShipmentBooked
	sh.Courier = "citylink"
	sh.TrackingNumber = "CL123"
	f := newFixture(testOrder(true), &sh)

	lbl, err := f.orch.GenerateLabel(context.Background(), "ord-1", "siti", "")
	require.NoError(t, err)
	require.Contains(t, lbl.URL, "CL123")
	require.Equal(t, ShipmentLabelGenerated, f.shipments.byOrder["ord-1"].Status)
	require.Len(t, f.audit.entries, 1)
	require.Equal(t, AuditActionLabel, f.audit.entries[0].Action)
}

func TestGenerateLabelRequiresBooked(t *testing.T) {
	sh := draftShipment(false)
	f := newFixture(testOrder(true), &sh)

	_, err := f.orch.GenerateLabel(context.Background(), "ord-1", "siti", "")

	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
}
