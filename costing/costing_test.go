package costing_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhansa067/HHPCalc/costing"
)

// =============================================================================
// LABOR RATE SELECTION
// =============================================================================

func TestDefaultLaborRate_FlaggedWins(t *testing.T) {
	rates := []costing.LaborRate{
		{ID: "baker", Name: "Baker", WagePerHour: dec("25000")},
		{ID: "helper", Name: "Helper", WagePerHour: dec("15000"), IsDefault: true},
	}

	rate, err := costing.DefaultLaborRate(rates)
	require.NoError(t, err)
	assert.Equal(t, "helper", rate.ID)
}

func TestDefaultLaborRate_FallsBackToFirst(t *testing.T) {
	rates := []costing.LaborRate{
		{ID: "baker", Name: "Baker", WagePerHour: dec("25000")},
		{ID: "helper", Name: "Helper", WagePerHour: dec("15000")},
	}

	rate, err := costing.DefaultLaborRate(rates)
	require.NoError(t, err)
	assert.Equal(t, "baker", rate.ID)
}

func TestDefaultLaborRate_Empty(t *testing.T) {
	_, err := costing.DefaultLaborRate(nil)
	assert.True(t, errors.Is(err, costing.ErrNoLaborRate))
}

func TestFindLaborRate(t *testing.T) {
	rates := []costing.LaborRate{
		{ID: "baker", Name: "Baker", WagePerHour: dec("25000")},
		{ID: "helper", Name: "Helper", WagePerHour: dec("15000")},
	}

	rate, err := costing.FindLaborRate(rates, "helper")
	require.NoError(t, err)
	assert.Equal(t, "Helper", rate.Name)

	rate, err = costing.FindLaborRate(rates, "")
	require.NoError(t, err)
	assert.Equal(t, "baker", rate.ID)

	_, err = costing.FindLaborRate(rates, "ghost")
	assert.True(t, errors.Is(err, costing.ErrValidation))
}

// =============================================================================
// PRODUCIBLE UNITS
// =============================================================================

func TestProducibleUnits_LimitedByScarcestMaterial(t *testing.T) {
	// flour 5000/250 = 20, sugar 1000/200 = 5
	assert.Equal(t, 5, costing.ProducibleUnits(brownies(), catalog()))
}

func TestProducibleUnits_IgnoresZeroQuantity(t *testing.T) {
	product := brownies()
	product.Ingredients[1].Quantity = dec("0")

	assert.Equal(t, 20, costing.ProducibleUnits(product, catalog()))
}

func TestProducibleUnits_UnresolvedIngredient(t *testing.T) {
	product := brownies()
	product.Ingredients[0].MaterialID = "missing"

	assert.Equal(t, 0, costing.ProducibleUnits(product, catalog()))
}

func TestProducibleUnits_NoConstrainingIngredient(t *testing.T) {
	product := brownies()
	product.Ingredients = nil

	assert.Equal(t, 0, costing.ProducibleUnits(product, catalog()))
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestMaterialValidate(t *testing.T) {
	valid := flour()
	assert.NoError(t, valid.Validate())

	bad := flour()
	bad.Unit = "cup"
	assert.True(t, errors.Is(bad.Validate(), costing.ErrValidation))

	bad = flour()
	bad.PricePerUnit = dec("-1")
	var vErr *costing.ValidationError
	require.ErrorAs(t, bad.Validate(), &vErr)
	assert.Equal(t, "price_per_unit", vErr.Field)
}

func TestProductValidate(t *testing.T) {
	assert.NoError(t, brownies().Validate())

	noYield := brownies()
	noYield.YieldPerBatch = 0
	assert.Error(t, noYield.Validate())

	negative := brownies()
	negative.Ingredients[0].Quantity = dec("-5")
	assert.Error(t, negative.Validate())
}

func TestOverheadValidate(t *testing.T) {
	o := costing.Overhead{Name: "Rent", Amount: dec("2000000"), AllocationType: costing.AllocationFixed}
	assert.NoError(t, o.Validate())

	o.AllocationType = "yearly"
	assert.Error(t, o.Validate())
}

func TestLaborRateValidate(t *testing.T) {
	assert.NoError(t, baker().Validate())

	volunteer := baker()
	volunteer.WagePerHour = dec("0")
	assert.NoError(t, volunteer.Validate(), "zero wage is allowed")

	negative := baker()
	negative.WagePerHour = dec("-1")
	assert.Error(t, negative.Validate())
}

func TestParamsValidate(t *testing.T) {
	assert.NoError(t, costing.DefaultParams().Validate())
	assert.NoError(t, params("0", 0).Validate())
	assert.Error(t, params("100", 500).Validate())
	assert.Error(t, params("-5", 500).Validate())
	assert.Error(t, params("30", -1).Validate())
}

func TestUnitValid(t *testing.T) {
	for _, u := range costing.Units {
		assert.True(t, u.Valid(), string(u))
	}
	assert.False(t, costing.Unit("cup").Valid())
}
