package shipping

const (
	TopicShipmentBooked        = "shipment.booked"
	TopicShipmentBookingFailed = "shipment.booking.failed"
	TopicLabelGenerated        = "shipment.label.generated"
)

// Partition key = order_id so every event for one order keeps its ordering.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
