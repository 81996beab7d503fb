/*
hpp.go - Cost of goods produced and margin-on-price suggestion

CALCULATION (all figures per ONE unit of product):
  1. Materials:  Σ material.PricePerUnit × ingredient.Quantity
                 (ingredients whose material is missing are skipped)
  2. Labor:      WagePerHour / 60 × laborMinutes
  3. Overhead:   Σ per overhead line
                   fixed      -> Amount / MonthlyProduction (0 if no production)
                   per_unit   -> Amount
                   percentage -> Amount × (materials + labor) / 100
  4. HPP:        materials + labor + overhead
  5. Price:      HPP / (1 − margin/100)

  Percentage overhead is always based on materials + labor, never on other
  overhead lines, so the order of overhead records does not matter.

MARGIN-ON-PRICE:
  A 30% margin means 30% of the SELLING price is profit:
  price = 25750 / 0.7 = 36785.71, not 25750 × 1.3.
*/
package costing

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	minutesPerHour = decimal.NewFromInt(60)
	hundred        = decimal.NewFromInt(100)
)

// CalculateHPP computes the cost breakdown and suggested price for one unit
// of product. The only error is an undefined margin (100%).
func CalculateHPP(product Product, materials Catalog, overheads []Overhead, rate LaborRate, params Params) (HPPResult, error) {
	if params.MarginPercent.Equal(hundred) {
		return HPPResult{}, &InvalidParameterError{
			Param:  "margin_percent",
			Value:  params.MarginPercent.String(),
			Reason: "a 100% margin on price divides by zero",
		}
	}

	materialsTotal, details := materialCost(product, materials)

	laborMinutes := product.LaborMinutes
	if params.LaborMinutes != nil {
		laborMinutes = *params.LaborMinutes
	}
	laborCost := LaborCost(rate, laborMinutes)

	overheadCost := decimal.Zero
	for _, o := range overheads {
		overheadCost = overheadCost.Add(OverheadPerUnit(o, materialsTotal.Add(laborCost), params.MonthlyProduction))
	}

	hpp := materialsTotal.Add(laborCost).Add(overheadCost)

	return HPPResult{
		ProductID:   product.ID,
		ProductName: product.Name,
		ComputedAt:  time.Now().UTC(),
		Breakdown: Breakdown{
			MaterialsTotal:  materialsTotal,
			MaterialDetails: details,
			LaborCost:       laborCost,
			OverheadCost:    overheadCost,
			HPPPerUnit:      hpp,
		},
		SuggestedPrice: SuggestedPrice(hpp, params.MarginPercent),
		MarginPercent:  params.MarginPercent,
	}, nil
}

func materialCost(product Product, materials Catalog) (decimal.Decimal, []MaterialLine) {
	total := decimal.Zero
	details := make([]MaterialLine, 0, len(product.Ingredients))

	for _, ing := range product.Ingredients {
		m, ok := materials.Lookup(ing.MaterialID)
		if !ok {
			continue
		}
		lineTotal := m.PricePerUnit.Mul(ing.Quantity)
		total = total.Add(lineTotal)
		details = append(details, MaterialLine{
			Name:         m.Name,
			Quantity:     ing.Quantity,
			Unit:         m.Unit,
			PricePerUnit: m.PricePerUnit,
			Total:        lineTotal,
		})
	}
	return total, details
}

// LaborCost prices the given minutes at the rate's per-minute wage.
// Multiplying before dividing keeps whole-rupiah results exact.
func LaborCost(rate LaborRate, minutes decimal.Decimal) decimal.Decimal {
	return rate.WagePerHour.Mul(minutes).Div(minutesPerHour)
}

// OverheadPerUnit returns one overhead line's contribution to a single unit.
// base is the materials + labor subtotal of that unit.
func OverheadPerUnit(o Overhead, base decimal.Decimal, monthlyProduction int) decimal.Decimal {
	switch o.AllocationType {
	case AllocationFixed:
		if monthlyProduction <= 0 {
			return decimal.Zero
		}
		return o.Amount.Div(decimal.NewFromInt(int64(monthlyProduction)))
	case AllocationPerUnit:
		return o.Amount
	case AllocationPercentage:
		return o.Amount.Mul(base).Div(hundred)
	default:
		return decimal.Zero
	}
}

// SuggestedPrice applies margin-on-price. Callers must reject a 100% margin first.
func SuggestedPrice(hpp, marginPercent decimal.Decimal) decimal.Decimal {
	if marginPercent.IsZero() {
		return hpp
	}
	return hpp.Mul(hundred).Div(hundred.Sub(marginPercent))
}

// UnresolvedIngredients returns the material ids of ingredients missing from
// the catalog, in recipe order. The engine skips these lines; callers log them.
func UnresolvedIngredients(product Product, materials Catalog) []string {
	var missing []string
	for _, ing := range product.Ingredients {
		if _, ok := materials.Lookup(ing.MaterialID); !ok {
			missing = append(missing, ing.MaterialID)
		}
	}
	return missing
}
