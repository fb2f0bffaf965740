package tracker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aqilanwar/go-courier-booking/internal/shipping"
)

type fakeMarker struct {
	marked []string
	err    error
}

func (f *fakeMarker) MarkShipped(_ context.Context, orderID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.marked = append(f.marked, orderID)
	return true, nil
}

func deadRedis() *redis.Client {
	return redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
}

func envelopeMessage(t *testing.T, eventType string, payload any) kafkago.Message {
	t.Helper()
	p, err := json.Marshal(payload)
	require.NoError(t, err)
	ev := shipping.Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "booking-api-test",
		Payload:      p,
	}
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return kafkago.Message{Value: b}
}

func TestHandleShipmentBooked(t *testing.T) {
	marker := &fakeMarker{}
	svc := &Service{Orders: marker, Redis: deadRedis(), ServiceName: "tracker-test", Log: zap.NewNop()}

	m := envelopeMessage(t, shipping.EventShipmentBooked, shipping.ShipmentBookedPayload{
		OrderID:        "ord-1",
		ShipmentID:     "shp-1",
		Courier:        "citylink",
		TrackingNumber: "CL123",
	})
	require.NoError(t, svc.HandleShipmentBooked(context.Background(), m))
	require.Equal(t, []string{"ord-1"}, marker.marked)
}

func TestHandleIgnoresOtherEvents(t *testing.T) {
	marker := &fakeMarker{}
	svc := &Service{Orders: marker, Redis: deadRedis(), ServiceName: "tracker-test", Log: zap.NewNop()}

	m := envelopeMessage(t, shipping.EventLabelGenerated, shipping.LabelGeneratedPayload{OrderID: "ord-1"})
	require.NoError(t, svc.HandleShipmentBooked(context.Background(), m))
	require.Empty(t, marker.marked)
}

func TestHandleBadEnvelope(t *testing.T) {
	svc := &Service{Orders: &fakeMarker{}, Redis: deadRedis(), ServiceName: "tracker-test", Log: zap.NewNop()}

	err := svc.HandleShipmentBooked(context.Background(), kafkago.Message{Value: []byte("{not json")})
	require.Error(t, err, "broken envelope must not be committed")
}

func TestHandlePropagatesStoreError(t *testing.T) {
	marker := &fakeMarker{err: context.DeadlineExceeded}
	svc := &Service{Orders: marker, Redis: deadRedis(), ServiceName: "tracker-test", Log: zap.NewNop()}

	m := envelopeMessage(t, shipping.EventShipmentBooked, shipping.ShipmentBookedPayload{OrderID: "ord-1"})
	require.Error(t, svc.HandleShipmentBooked(context.Background(), m))
}
