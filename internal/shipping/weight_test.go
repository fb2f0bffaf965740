package shipping

import "testing"

func fptr(f float64) *float64 { return &f }

func TestPackageWeightKg(t *testing.T) {
	cases := []struct {
		name  string
		items []OrderItem
		def   float64
		want  float64
	}{
		{
			name: "known and defaulted weights",
			items: []OrderItem{
				{WeightKg: fptr(0.5), Qty: 2},
				{WeightKg: nil, Qty: 3},
			},
			def:  0.5,
			want: 2.5,
		},
		{
			name:  "empty order floors at minimum",
			items: nil,
			def:   0.5,
			want:  MinParcelWeightKg,
		},
		{
			name:  "tiny parcel floors at minimum",
			items: []OrderItem{{WeightKg: fptr(0.01), Qty: 1}},
			def:   0.5,
			want:  MinParcelWeightKg,
		},
		{
			name:  "single heavy item",
			items: []OrderItem{{WeightKg: fptr(2.25), Qty: 4}},
			def:   0.5,
			want:  9.0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PackageWeightKg(tc.items, tc.def)
			if got != tc.want {
				t.Fatalf("PackageWeightKg = %v, want %v", got, tc.want)
			}
		})
	}
}
