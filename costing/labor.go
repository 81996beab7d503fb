package costing

// DefaultLaborRate picks the rate used when the caller does not name one:
// the first rate flagged IsDefault, otherwise the first rate in order.
func DefaultLaborRate(rates []LaborRate) (LaborRate, error) {
	if len(rates) == 0 {
		return LaborRate{}, ErrNoLaborRate
	}
	for _, r := range rates {
		if r.IsDefault {
			return r, nil
		}
	}
	return rates[0], nil
}

// FindLaborRate returns the rate with the given id, or the default rate when id is empty.
func FindLaborRate(rates []LaborRate, id string) (LaborRate, error) {
	if id == "" {
		return DefaultLaborRate(rates)
	}
	for _, r := range rates {
		if r.ID == id {
			return r, nil
		}
	}
	return LaborRate{}, &ValidationError{Field: "labor_rate_id", Message: "unknown labor rate " + id}
}
