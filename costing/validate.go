package costing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Validation runs upstream of the engine, in the data-entry layer. The
// engine itself accepts any structurally valid numbers.

func (m Material) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if !m.Unit.Valid() {
		return &ValidationError{Field: "unit", Message: "unsupported unit " + string(m.Unit)}
	}
	if m.PricePerUnit.IsNegative() {
		return &ValidationError{Field: "price_per_unit", Message: "must not be negative"}
	}
	if m.StockAmount.IsNegative() {
		return &ValidationError{Field: "stock_amount", Message: "must not be negative"}
	}
	return nil
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if p.YieldPerBatch <= 0 {
		return &ValidationError{Field: "yield_per_batch", Message: "must be positive"}
	}
	if p.LaborMinutes.IsNegative() {
		return &ValidationError{Field: "labor_minutes", Message: "must not be negative"}
	}
	for _, ing := range p.Ingredients {
		if ing.MaterialID == "" {
			return &ValidationError{Field: "ingredients.material_id", Message: "must not be empty"}
		}
		if ing.Quantity.IsNegative() {
			return &ValidationError{Field: "ingredients.quantity", Message: "must not be negative"}
		}
	}
	return nil
}

func (o Overhead) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if !o.AllocationType.Valid() {
		return &ValidationError{Field: "allocation_type", Message: "must be fixed, per_unit or percentage"}
	}
	if o.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Message: "must not be negative"}
	}
	return nil
}

func (r LaborRate) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if r.WagePerHour.IsNegative() {
		return &ValidationError{Field: "wage_per_hour", Message: "must not be negative"}
	}
	return nil
}

// Validate rejects margins outside [0, 100), which the engine would accept
// but which produce meaningless prices.
func (p Params) Validate() error {
	if p.MarginPercent.IsNegative() || p.MarginPercent.GreaterThanOrEqual(hundred) {
		return &ValidationError{Field: "margin_percent", Message: "must be in [0, 100)"}
	}
	if p.LaborMinutes != nil && p.LaborMinutes.IsNegative() {
		return &ValidationError{Field: "labor_minutes", Message: "must not be negative"}
	}
	if p.MonthlyProduction < 0 {
		return &ValidationError{Field: "monthly_production", Message: "must not be negative"}
	}
	return nil
}

// DefaultParams mirrors the calculator's initial settings.
func DefaultParams() Params {
	return Params{
		MarginPercent:     decimal.NewFromInt(30),
		MonthlyProduction: 500,
	}
}
