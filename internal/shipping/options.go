package shipping

import "github.com/shopspring/decimal"

const maxInstructionsLen = 200

// BookingOptions are the optional extras an admin can attach to a booking.
type BookingOptions struct {
	Insurance        bool            `json:"insurance"`
	InsuredAmount    decimal.Decimal `json:"insured_amount"`
	COD              bool            `json:"cod"`
	CODAmount        decimal.Decimal `json:"cod_amount"`
	RequireSignature bool            `json:"require_signature"`
	Instructions     string          `json:"instructions"`
}

func (o BookingOptions) Validate() error {
	if len(o.Instructions) > maxInstructionsLen {
		return &ValidationError{Field: "instructions", Message: "must be 200 characters or fewer"}
	}
	if o.Insurance && o.InsuredAmount.IsNegative() {
		return &ValidationError{Field: "insured_amount", Message: "must not be negative"}
	}
	if o.COD && !o.CODAmount.IsPositive() {
		return &ValidationError{Field: "cod_amount", Message: "must be positive when cod is enabled"}
	}
	return nil
}
