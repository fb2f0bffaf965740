package redisx

import "time"

const (
	// Cache booking status per order: shipment_status:{order_id} -> {"status":"...","tracking_number":"..."}
	KeyShipmentStatus = "shipment_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
