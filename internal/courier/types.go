package courier

import "github.com/shopspring/decimal"

type Address struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

type Parcel struct {
	WeightKg      float64         `json:"weight_kg"`
	LengthCm      int             `json:"length_cm"`
	WidthCm       int             `json:"width_cm"`
	HeightCm      int             `json:"height_cm"`
	DeclaredValue decimal.Decimal `json:"declared_value"`
	Content       string          `json:"content,omitempty"`
}

type BookingRequest struct {
	Courier          string          `json:"courier"`
	ServiceType      string          `json:"service_type"`
	Pickup           Address         `json:"pickup"`
	Delivery         Address         `json:"delivery"`
	Parcel           Parcel          `json:"parcel"`
	Reference        string          `json:"reference"`
	CODAmount        decimal.Decimal `json:"cod_amount"`
	InsuredAmount    decimal.Decimal `json:"insured_amount"`
	RequireSignature bool            `json:"require_signature"`
	Instructions     string          `json:"instructions,omitempty"`
}

type BookingResult struct {
	ShipmentRef    string          `json:"shipment_ref"`
	TrackingNumber string          `json:"tracking_number"`
	Rate           decimal.Decimal `json:"rate"`
	Currency       string          `json:"currency"`
}

type RateRequest struct {
	Pickup        Address         `json:"pickup"`
	Delivery      Address         `json:"delivery"`
	WeightKg      float64         `json:"weight_kg"`
	DeclaredValue decimal.Decimal `json:"declared_value"`
}

type RateQuote struct {
	Courier     string          `json:"courier"`
	ServiceType string          `json:"service_type"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	EtaDays     int             `json:"eta_days"`
}

type Label struct {
	URL    string `json:"url"`
	Format string `json:"format"`
}

type Balance struct {
	Amount   decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}
