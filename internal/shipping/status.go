package shipping

type OrderStatus string

const (
	OrderCreated   OrderStatus = "CREATED"
	OrderPacked    OrderStatus = "PACKED"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
)

var validNextOrder = map[OrderStatus]map[OrderStatus]bool{
	OrderCreated:   {OrderPacked: true, OrderCancelled: true},
	OrderPacked:    {OrderShipped: true, OrderCancelled: true},
	OrderShipped:   {OrderDelivered: true},
	OrderDelivered: {},
	OrderCancelled: {},
}

func CanTransitionOrder(from, to OrderStatus) bool {
	return validNextOrder[from][to]
}

type ShipmentStatus string

const (
	ShipmentDraft          ShipmentStatus = "DRAFT"
	ShipmentBooked         ShipmentStatus = "BOOKED"
	ShipmentLabelGenerated ShipmentStatus = "LABEL_GENERATED"
	ShipmentInTransit      ShipmentStatus = "IN_TRANSIT"
	ShipmentDelivered      ShipmentStatus = "DELIVERED"
	ShipmentCancelled      ShipmentStatus = "CANCELLED"
)

var validNextShipment = map[ShipmentStatus]map[ShipmentStatus]bool{
	ShipmentDraft:          {ShipmentBooked: true, ShipmentCancelled: true},
	ShipmentBooked:         {ShipmentLabelGenerated: true, ShipmentInTransit: true, ShipmentCancelled: true},
	ShipmentLabelGenerated: {ShipmentInTransit: true},
	ShipmentInTransit:      {ShipmentDelivered: true},
	ShipmentDelivered:      {},
	ShipmentCancelled:      {},
}

func CanTransitionShipment(from, to ShipmentStatus) bool {
	return validNextShipment[from][to]
}
