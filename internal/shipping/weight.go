package shipping

// MinParcelWeightKg is the floor couriers accept for a parcel.
const MinParcelWeightKg = 0.1

// PackageWeightKg sums (item weight ?? defaultWeight) * qty over the order's
// line items, floored at MinParcelWeightKg.
func PackageWeightKg(items []OrderItem, defaultWeightKg float64) float64 {
	var total float64
	for _, it := range items {
		w := defaultWeightKg
		if it.WeightKg != nil {
			w = *it.WeightKg
		}
		total += w * float64(it.Qty)
	}
	if total < MinParcelWeightKg {
		return MinParcelWeightKg
	}
	return total
}
