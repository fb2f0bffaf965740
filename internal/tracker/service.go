package tracker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/aqilanwar/go-courier-booking/internal/kafka"
	"github.com/aqilanwar/go-courier-booking/internal/redisx"
	"github.com/aqilanwar/go-courier-booking/internal/shipping"
)

type OrderMarker interface {
	MarkShipped(ctx context.Context, orderID string) (bool, error)
}

// Service applies booked-shipment events: order goes to SHIPPED and the
// booking-status cache is warmed for the storefront.
type Service struct {
	Orders      OrderMarker
	Redis       *redis.Client
	ServiceName string
	Log         *zap.Logger
}

// HandleShipmentBooked is mounted as the consumer handler.
func (s *Service) HandleShipmentBooked(ctx context.Context, m kafkago.Message) error {
	var env shipping.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != shipping.EventShipmentBooked {
		return nil // ignore
	}

	// dedup on event_id, scoped per consumer
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[shipping.ShipmentBookedPayload](env.Payload)
	if err != nil {
		return err
	}

	changed, err := s.Orders.MarkShipped(ctx, p.OrderID)
	if err != nil {
		return err
	}
	if !changed {
		s.Log.Info("order not shippable, skipping transition",
			zap.String("order_id", p.OrderID))
	}

	st, _ := json.Marshal(map[string]string{
		"shipment_id":     p.ShipmentID,
		"status":          string(shipping.ShipmentBooked),
		"courier":         p.Courier,
		"tracking_number": p.TrackingNumber,
	})
	_ = s.Redis.Set(ctx, fmt.Sprintf(redisx.KeyShipmentStatus, p.OrderID), st, redisx.TTLStatusCache).Err()

	s.Log.Info("shipment booked applied",
		zap.String("order_id", p.OrderID),
		zap.String("tracking_number", p.TrackingNumber),
		zap.Bool("fallback_used", p.FallbackUsed))
	return nil
}
