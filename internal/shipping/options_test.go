package shipping

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestBookingOptionsValidate(t *testing.T) {
	var ve *ValidationError

	ok := BookingOptions{Instructions: strings.Repeat("x", 200)}
	if err := ok.Validate(); err != nil {
		t.Fatalf("200-char instructions must validate: %v", err)
	}

	long := BookingOptions{Instructions: strings.Repeat("x", 201)}
	if err := long.Validate(); !errors.As(err, &ve) || ve.Field != "instructions" {
		t.Fatalf("expected instructions validation error, got %v", err)
	}

	badIns := BookingOptions{Insurance: true, InsuredAmount: decimal.NewFromInt(-1)}
	if err := badIns.Validate(); !errors.As(err, &ve) || ve.Field != "insured_amount" {
		t.Fatalf("expected insured_amount validation error, got %v", err)
	}

	badCOD := BookingOptions{COD: true}
	if err := badCOD.Validate(); !errors.As(err, &ve) || ve.Field != "cod_amount" {
		t.Fatalf("expected cod_amount validation error, got %v", err)
	}

	cod := BookingOptions{COD: true, CODAmount: decimal.NewFromFloat(49.90)}
	if err := cod.Validate(); err != nil {
		t.Fatalf("valid COD options must pass: %v", err)
	}
}
