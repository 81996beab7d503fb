package costing

import "github.com/shopspring/decimal"

// ProducibleUnits returns how many whole units of product the current
// material stock supports. Ingredients with zero quantity do not constrain
// production. Any unresolved ingredient, or a recipe with no positive
// quantity, yields 0.
func ProducibleUnits(product Product, materials Catalog) int {
	var limit *decimal.Decimal

	for _, ing := range product.Ingredients {
		m, ok := materials.Lookup(ing.MaterialID)
		if !ok {
			return 0
		}
		if !ing.Quantity.IsPositive() {
			continue
		}
		units := m.StockAmount.Div(ing.Quantity).Floor()
		if limit == nil || units.LessThan(*limit) {
			limit = &units
		}
	}

	if limit == nil || limit.IsNegative() {
		return 0
	}
	return int(limit.IntPart())
}
