/*
Package costing computes cost of goods produced (HPP) and a suggested sale
price for a manufactured product.

PURPOSE:
  Turns a product recipe, the material catalog, overhead rules and a single
  labor rate into a per-unit cost breakdown. Everything here is a pure
  function over its arguments: no storage, no clock except the computedAt
  stamp, no shared state. Callers may invoke it concurrently.

KEY CONCEPTS IN THIS FILE (types.go):
  - Material:    A purchasable input with a price per unit of measure
  - Product:     A recipe of ingredients consumed per ONE unit of product
  - Overhead:    An indirect cost with an allocation rule
  - LaborRate:   Hourly wage used to price labor minutes
  - HPPResult:   Immutable snapshot of one calculation

PRECISION:
  Money and quantities are decimal.Decimal. Nothing is rounded inside the
  calculation chain; HPPResult.Rounded() rounds to whole currency units for
  presentation only.

USAGE:
  result, err := costing.CalculateHPP(product, costing.NewCatalog(materials),
      overheads, rate, costing.Params{
          MarginPercent:     decimal.NewFromInt(30),
          MonthlyProduction: 500,
      })

SEE ALSO:
  - hpp.go: The calculation itself
  - labor.go: Default labor rate selection
  - errors.go: Error taxonomy
*/
package costing

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// UNIT - Unit of measure for a material
// =============================================================================

type Unit string

const (
	UnitGram       Unit = "g"
	UnitKilogram   Unit = "kg"
	UnitMilliliter Unit = "ml"
	UnitLiter      Unit = "l"
	UnitPiece      Unit = "pcs"
	UnitPack       Unit = "pack"
)

// Units lists every supported unit in display order.
var Units = []Unit{UnitGram, UnitKilogram, UnitMilliliter, UnitLiter, UnitPiece, UnitPack}

func (u Unit) Valid() bool {
	switch u {
	case UnitGram, UnitKilogram, UnitMilliliter, UnitLiter, UnitPiece, UnitPack:
		return true
	}
	return false
}

// =============================================================================
// SOURCE RECORDS - Owned by the storage collaborator
// =============================================================================

type Material struct {
	ID           string
	Name         string
	Unit         Unit
	PricePerUnit decimal.Decimal
	StockAmount  decimal.Decimal
	UpdatedAt    time.Time
}

// ProductIngredient is the amount of one material consumed per ONE unit of
// product, in the material's own unit.
type ProductIngredient struct {
	ID         string
	MaterialID string
	Quantity   decimal.Decimal
}

type Product struct {
	ID            string
	Name          string
	Description   string
	YieldPerBatch int
	Ingredients   []ProductIngredient
	LaborMinutes  decimal.Decimal // default labor time per unit
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type AllocationType string

const (
	AllocationFixed      AllocationType = "fixed"      // monthly total spread over monthly production
	AllocationPerUnit    AllocationType = "per_unit"   // flat add-on per unit
	AllocationPercentage AllocationType = "percentage" // percent of materials + labor
)

func (a AllocationType) Valid() bool {
	switch a {
	case AllocationFixed, AllocationPerUnit, AllocationPercentage:
		return true
	}
	return false
}

type Overhead struct {
	ID             string
	Name           string
	Amount         decimal.Decimal
	AllocationType AllocationType
}

type LaborRate struct {
	ID          string
	Name        string
	WagePerHour decimal.Decimal
	IsDefault   bool
}

// =============================================================================
// CATALOG - Material lookup by id
// =============================================================================

type Catalog map[string]Material

func NewCatalog(materials []Material) Catalog {
	c := make(Catalog, len(materials))
	for _, m := range materials {
		c[m.ID] = m
	}
	return c
}

// Lookup returns the material with the given id.
func (c Catalog) Lookup(id string) (Material, bool) {
	m, ok := c[id]
	return m, ok
}

// =============================================================================
// PARAMS & RESULT
// =============================================================================

// Params are per-calculation inputs. They never mutate the product.
type Params struct {
	// MarginPercent is the target margin on the SELLING price (30 means 30%).
	MarginPercent decimal.Decimal

	// LaborMinutes overrides Product.LaborMinutes when non-nil.
	LaborMinutes *decimal.Decimal

	// MonthlyProduction is the expected unit volume used to spread fixed overhead.
	MonthlyProduction int
}

type MaterialLine struct {
	Name         string
	Quantity     decimal.Decimal
	Unit         Unit
	PricePerUnit decimal.Decimal
	Total        decimal.Decimal
}

type Breakdown struct {
	MaterialsTotal  decimal.Decimal
	MaterialDetails []MaterialLine
	LaborCost       decimal.Decimal
	OverheadCost    decimal.Decimal
	HPPPerUnit      decimal.Decimal
}

type HPPResult struct {
	ProductID      string
	ProductName    string
	ComputedAt     time.Time
	Breakdown      Breakdown
	SuggestedPrice decimal.Decimal
	MarginPercent  decimal.Decimal
}

// Profit returns the per-unit profit at the suggested price.
func (r HPPResult) Profit() decimal.Decimal {
	return r.SuggestedPrice.Sub(r.Breakdown.HPPPerUnit)
}

// Rounded returns a copy with every computed currency figure rounded to
// whole currency units. Quantities and unit prices are left untouched.
func (r HPPResult) Rounded() HPPResult {
	out := r
	out.Breakdown.MaterialsTotal = roundCurrency(r.Breakdown.MaterialsTotal)
	out.Breakdown.LaborCost = roundCurrency(r.Breakdown.LaborCost)
	out.Breakdown.OverheadCost = roundCurrency(r.Breakdown.OverheadCost)
	out.Breakdown.HPPPerUnit = roundCurrency(r.Breakdown.HPPPerUnit)
	out.SuggestedPrice = roundCurrency(r.SuggestedPrice)

	out.Breakdown.MaterialDetails = make([]MaterialLine, len(r.Breakdown.MaterialDetails))
	for i, line := range r.Breakdown.MaterialDetails {
		line.Total = roundCurrency(line.Total)
		out.Breakdown.MaterialDetails[i] = line
	}
	return out
}

func roundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}
