package costing_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhansa067/HHPCalc/costing"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, name string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s = %s, want %s", name, got, want)
}

func flour() costing.Material {
	return costing.Material{ID: "flour", Name: "Flour", Unit: costing.UnitGram, PricePerUnit: dec("12"), StockAmount: dec("5000")}
}

func sugar() costing.Material {
	return costing.Material{ID: "sugar", Name: "Sugar", Unit: costing.UnitGram, PricePerUnit: dec("15"), StockAmount: dec("1000")}
}

func brownies() costing.Product {
	return costing.Product{
		ID:            "brownies",
		Name:          "Brownies",
		YieldPerBatch: 12,
		LaborMinutes:  dec("45"),
		Ingredients: []costing.ProductIngredient{
			{ID: "i1", MaterialID: "flour", Quantity: dec("250")},
			{ID: "i2", MaterialID: "sugar", Quantity: dec("200")},
		},
	}
}

func baker() costing.LaborRate {
	return costing.LaborRate{ID: "baker", Name: "Baker", WagePerHour: dec("25000")}
}

func catalog() costing.Catalog {
	return costing.NewCatalog([]costing.Material{flour(), sugar()})
}

func params(margin string, production int) costing.Params {
	return costing.Params{MarginPercent: dec(margin), MonthlyProduction: production}
}

// =============================================================================
// WORKED EXAMPLE
// =============================================================================

func TestCalculateHPP_WorkedExample(t *testing.T) {
	// GIVEN: flour 250g @ 12, sugar 200g @ 15, 45 minutes @ 25000/h,
	//        one fixed overhead of 500000 over 500 units
	overheads := []costing.Overhead{
		{ID: "o1", Name: "Gas", Amount: dec("500000"), AllocationType: costing.AllocationFixed},
	}

	// WHEN: Calculating at a 30% margin
	result, err := costing.CalculateHPP(brownies(), catalog(), overheads, baker(), params("30", 500))
	require.NoError(t, err)

	// THEN: Every step matches the hand calculation
	b := result.Breakdown
	assertDecimal(t, "6000", b.MaterialsTotal, "materialsTotal")
	assertDecimal(t, "18750", b.LaborCost, "laborCost")
	assertDecimal(t, "1000", b.OverheadCost, "overheadCost")
	assertDecimal(t, "25750", b.HPPPerUnit, "hppPerUnit")
	assertDecimal(t, "36786", result.SuggestedPrice.Round(0), "suggestedPrice")
	assertDecimal(t, "30", result.MarginPercent, "marginPercent")

	require.Len(t, b.MaterialDetails, 2)
	assert.Equal(t, "Flour", b.MaterialDetails[0].Name)
	assert.Equal(t, costing.UnitGram, b.MaterialDetails[0].Unit)
	assertDecimal(t, "3000", b.MaterialDetails[0].Total, "flour line")
	assert.Equal(t, "Sugar", b.MaterialDetails[1].Name)
	assertDecimal(t, "3000", b.MaterialDetails[1].Total, "sugar line")

	assert.Equal(t, "brownies", result.ProductID)
	assert.Equal(t, "Brownies", result.ProductName)
	assert.False(t, result.ComputedAt.IsZero())
}

func TestCalculateHPP_SuggestedPriceIsNotRoundedInternally(t *testing.T) {
	overheads := []costing.Overhead{
		{ID: "o1", Name: "Gas", Amount: dec("500000"), AllocationType: costing.AllocationFixed},
	}

	result, err := costing.CalculateHPP(brownies(), catalog(), overheads, baker(), params("30", 500))
	require.NoError(t, err)

	// 25750 / 0.7 = 36785.714285...
	assert.True(t, result.SuggestedPrice.GreaterThan(dec("36785.71")))
	assert.True(t, result.SuggestedPrice.LessThan(dec("36785.72")))

	rounded := result.Rounded()
	assertDecimal(t, "36786", rounded.SuggestedPrice, "rounded suggestedPrice")
	assertDecimal(t, "25750", rounded.Breakdown.HPPPerUnit, "rounded hpp")
	assertDecimal(t, "11036", rounded.Profit(), "rounded profit")
}

// =============================================================================
// UNRESOLVED REFERENCES
// =============================================================================

func TestCalculateHPP_UnresolvedMaterialIsSkipped(t *testing.T) {
	// GIVEN: A recipe referencing a material that is not in the catalog
	product := brownies()
	product.Ingredients = append(product.Ingredients,
		costing.ProductIngredient{ID: "i3", MaterialID: "deleted-cocoa", Quantity: dec("100")})

	// WHEN: Calculating
	result, err := costing.CalculateHPP(product, catalog(), nil, baker(), params("0", 500))

	// THEN: The calculation succeeds without that line
	require.NoError(t, err)
	require.Len(t, result.Breakdown.MaterialDetails, 2)
	assertDecimal(t, "6000", result.Breakdown.MaterialsTotal, "materialsTotal")
	assert.Equal(t, []string{"deleted-cocoa"}, costing.UnresolvedIngredients(product, catalog()))
}

func TestCalculateHPP_NoIngredients(t *testing.T) {
	product := brownies()
	product.Ingredients = nil

	result, err := costing.CalculateHPP(product, catalog(), nil, baker(), params("0", 500))
	require.NoError(t, err)

	assert.Empty(t, result.Breakdown.MaterialDetails)
	assertDecimal(t, "0", result.Breakdown.MaterialsTotal, "materialsTotal")
	assertDecimal(t, "18750", result.Breakdown.HPPPerUnit, "hppPerUnit")
}

// =============================================================================
// MARGIN
// =============================================================================

func TestCalculateHPP_ZeroMargin_PriceEqualsCost(t *testing.T) {
	result, err := costing.CalculateHPP(brownies(), catalog(), nil, baker(), params("0", 500))
	require.NoError(t, err)

	assert.True(t, result.SuggestedPrice.Equal(result.Breakdown.HPPPerUnit))
}

func TestCalculateHPP_HundredPercentMargin_IsFatal(t *testing.T) {
	_, err := costing.CalculateHPP(brownies(), catalog(), nil, baker(), params("100", 500))

	require.Error(t, err)
	assert.True(t, errors.Is(err, costing.ErrInvalidParameter))
	var paramErr *costing.InvalidParameterError
	require.ErrorAs(t, err, &paramErr)
	assert.Equal(t, "margin_percent", paramErr.Param)
	assert.True(t, costing.IsClientError(err))
}

func TestCalculateHPP_MarginAboveHundred_IsNotRejectedByEngine(t *testing.T) {
	// Out-of-range margins are the caller's to validate
	result, err := costing.CalculateHPP(brownies(), catalog(), nil, baker(), params("150", 500))
	require.NoError(t, err)

	assert.True(t, result.SuggestedPrice.IsNegative())
	assert.Error(t, params("150", 500).Validate())
}

func TestSuggestedPrice_IsMarginOnPrice(t *testing.T) {
	// 50% margin on price doubles the cost; cost-plus would give 150
	assertDecimal(t, "200", costing.SuggestedPrice(dec("100"), dec("50")), "price")
	assertDecimal(t, "125", costing.SuggestedPrice(dec("100"), dec("20")), "price")
}

// =============================================================================
// LABOR
// =============================================================================

func TestCalculateHPP_LaborMinutesOverride(t *testing.T) {
	product := brownies()
	minutes := dec("30")
	p := params("0", 500)
	p.LaborMinutes = &minutes

	result, err := costing.CalculateHPP(product, catalog(), nil, baker(), p)
	require.NoError(t, err)

	assertDecimal(t, "12500", result.Breakdown.LaborCost, "laborCost")
	assertDecimal(t, "45", product.LaborMinutes, "product labor minutes untouched")
}

func TestLaborCost_FractionalRate(t *testing.T) {
	// 15000/h for 7 minutes = 1750
	rate := costing.LaborRate{WagePerHour: dec("15000")}
	assertDecimal(t, "1750", costing.LaborCost(rate, dec("7")), "laborCost")
}

// =============================================================================
// OVERHEAD ALLOCATION
// =============================================================================

func TestOverheadPerUnit_Fixed(t *testing.T) {
	o := costing.Overhead{Amount: dec("1000000"), AllocationType: costing.AllocationFixed}
	assertDecimal(t, "1000", costing.OverheadPerUnit(o, dec("0"), 1000), "fixed")
}

func TestOverheadPerUnit_FixedWithZeroProduction_IsZero(t *testing.T) {
	o := costing.Overhead{Amount: dec("1000000"), AllocationType: costing.AllocationFixed}
	assertDecimal(t, "0", costing.OverheadPerUnit(o, dec("5000"), 0), "fixed")
}

func TestOverheadPerUnit_PerUnitIgnoresProduction(t *testing.T) {
	o := costing.Overhead{Amount: dec("500"), AllocationType: costing.AllocationPerUnit}
	for _, production := range []int{0, 1, 500, 100000} {
		assertDecimal(t, "500", costing.OverheadPerUnit(o, dec("0"), production), "per_unit")
	}
}

func TestOverheadPerUnit_UnknownType_IsZero(t *testing.T) {
	o := costing.Overhead{Amount: dec("500"), AllocationType: "weekly"}
	assertDecimal(t, "0", costing.OverheadPerUnit(o, dec("1000"), 10), "unknown")
}

func TestCalculateHPP_PercentageOverheadUsesMaterialsPlusLabor(t *testing.T) {
	// GIVEN: materials 6000 + labor 18750 = 24750 base, a 10% line and a fixed line
	overheads := []costing.Overhead{
		{ID: "pct", Name: "Admin", Amount: dec("10"), AllocationType: costing.AllocationPercentage},
		{ID: "fix", Name: "Rent", Amount: dec("2000000"), AllocationType: costing.AllocationFixed},
		{ID: "pct2", Name: "Insurance", Amount: dec("2"), AllocationType: costing.AllocationPercentage},
	}

	result, err := costing.CalculateHPP(brownies(), catalog(), overheads, baker(), params("0", 500))
	require.NoError(t, err)

	// THEN: 2475 + 4000 + 495; neither percentage line sees the other overhead
	assertDecimal(t, "6970", result.Breakdown.OverheadCost, "overheadCost")
	assertDecimal(t, "31720", result.Breakdown.HPPPerUnit, "hppPerUnit")
}

func TestCalculateHPP_OverheadOrderDoesNotMatter(t *testing.T) {
	a := costing.Overhead{ID: "a", Name: "A", Amount: dec("7.5"), AllocationType: costing.AllocationPercentage}
	b := costing.Overhead{ID: "b", Name: "B", Amount: dec("300000"), AllocationType: costing.AllocationFixed}
	c := costing.Overhead{ID: "c", Name: "C", Amount: dec("500"), AllocationType: costing.AllocationPerUnit}

	first, err := costing.CalculateHPP(brownies(), catalog(), []costing.Overhead{a, b, c}, baker(), params("30", 700))
	require.NoError(t, err)
	second, err := costing.CalculateHPP(brownies(), catalog(), []costing.Overhead{c, b, a}, baker(), params("30", 700))
	require.NoError(t, err)

	assert.True(t, first.Breakdown.OverheadCost.Equal(second.Breakdown.OverheadCost))
	assert.True(t, first.SuggestedPrice.Equal(second.SuggestedPrice))
}

// =============================================================================
// DETERMINISM
// =============================================================================

func TestCalculateHPP_Idempotent(t *testing.T) {
	overheads := []costing.Overhead{
		{ID: "o1", Name: "Gas", Amount: dec("500000"), AllocationType: costing.AllocationFixed},
		{ID: "o2", Name: "Box", Amount: dec("500"), AllocationType: costing.AllocationPerUnit},
	}

	first, err := costing.CalculateHPP(brownies(), catalog(), overheads, baker(), params("30", 500))
	require.NoError(t, err)
	second, err := costing.CalculateHPP(brownies(), catalog(), overheads, baker(), params("30", 500))
	require.NoError(t, err)

	assert.Equal(t, first.Breakdown, second.Breakdown)
	assert.True(t, first.SuggestedPrice.Equal(second.SuggestedPrice))
}
