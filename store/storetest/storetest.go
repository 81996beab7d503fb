// Package storetest holds the behavior every store.Store implementation
// must share. Implementations call Run from their own tests.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhansa067/HHPCalc/calendar"
	"github.com/MKhansa067/HHPCalc/costing"
	"github.com/MKhansa067/HHPCalc/forecast"
	"github.com/MKhansa067/HHPCalc/store"
)

// Factory returns an empty store for one test.
type Factory func(t *testing.T) store.Store

// Run executes the shared store tests against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Materials", func(t *testing.T) { testMaterials(t, newStore(t)) })
	t.Run("Products", func(t *testing.T) { testProducts(t, newStore(t)) })
	t.Run("CopiedRecipe", func(t *testing.T) { testCopiedRecipe(t, newStore(t)) })
	t.Run("Overheads", func(t *testing.T) { testOverheads(t, newStore(t)) })
	t.Run("LaborRates", func(t *testing.T) { testLaborRates(t, newStore(t)) })
	t.Run("LastLaborRate", func(t *testing.T) { testLastLaborRate(t, newStore(t)) })
	t.Run("ConcurrentLaborRateDeletes", func(t *testing.T) { testConcurrentLaborRateDeletes(t, newStore(t)) })
	t.Run("Sales", func(t *testing.T) { testSales(t, newStore(t)) })
	t.Run("SaleDays", func(t *testing.T) { testSaleDays(t, newStore(t)) })
	t.Run("ReplaceSales", func(t *testing.T) { testReplaceSales(t, newStore(t)) })
	t.Run("Reset", func(t *testing.T) { testReset(t, newStore(t)) })
	t.Run("Seed", func(t *testing.T) { testSeed(t, newStore(t)) })
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testMaterials(t *testing.T, s store.Store) {
	ctx := context.Background()

	// GIVEN: two new materials without IDs
	flour, err := s.SaveMaterial(ctx, costing.Material{
		Name: "Flour", Unit: costing.UnitGram, PricePerUnit: dec("12.5"), StockAmount: dec("5000"),
	})
	require.NoError(t, err)
	sugar, err := s.SaveMaterial(ctx, costing.Material{
		Name: "Sugar", Unit: costing.UnitGram, PricePerUnit: dec("15"), StockAmount: dec("1000"),
	})
	require.NoError(t, err)

	// THEN: IDs and timestamps were assigned
	assert.NotEmpty(t, flour.ID)
	assert.NotEqual(t, flour.ID, sugar.ID)
	assert.False(t, flour.UpdatedAt.IsZero())

	got, err := s.GetMaterial(ctx, flour.ID)
	require.NoError(t, err)
	assert.Equal(t, "Flour", got.Name)
	assert.Equal(t, costing.UnitGram, got.Unit)
	assert.True(t, got.PricePerUnit.Equal(dec("12.5")), "price %s", got.PricePerUnit)
	assert.True(t, got.StockAmount.Equal(dec("5000")))

	// WHEN: the first material is updated
	flour.PricePerUnit = dec("13")
	_, err = s.SaveMaterial(ctx, flour)
	require.NoError(t, err)

	// THEN: last write wins and insertion order is kept
	list, err := s.ListMaterials(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, flour.ID, list[0].ID)
	assert.True(t, list[0].PricePerUnit.Equal(dec("13")))
	assert.Equal(t, sugar.ID, list[1].ID)

	require.NoError(t, s.DeleteMaterial(ctx, flour.ID))
	_, err = s.GetMaterial(ctx, flour.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteMaterial(ctx, flour.ID), store.ErrNotFound)

	catalog, err := store.Catalog(ctx, s)
	require.NoError(t, err)
	_, ok := catalog.Lookup(sugar.ID)
	assert.True(t, ok)
	_, ok = catalog.Lookup(flour.ID)
	assert.False(t, ok)
}

func testProducts(t *testing.T, s store.Store) {
	ctx := context.Background()

	created, err := s.SaveProduct(ctx, costing.Product{
		Name:          "Brownies",
		Description:   "Chocolate",
		YieldPerBatch: 12,
		LaborMinutes:  dec("45"),
		Ingredients: []costing.ProductIngredient{
			{MaterialID: "flour", Quantity: dec("250")},
			{MaterialID: "sugar", Quantity: dec("200.5")},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Len(t, created.Ingredients, 2)
	assert.NotEmpty(t, created.Ingredients[0].ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Brownies", got.Name)
	assert.Equal(t, "Chocolate", got.Description)
	assert.Equal(t, 12, got.YieldPerBatch)
	assert.True(t, got.LaborMinutes.Equal(dec("45")))
	require.Len(t, got.Ingredients, 2)
	assert.Equal(t, "flour", got.Ingredients[0].MaterialID)
	assert.Equal(t, "sugar", got.Ingredients[1].MaterialID)
	assert.True(t, got.Ingredients[1].Quantity.Equal(dec("200.5")))

	// WHEN: the recipe is replaced
	got.Ingredients = []costing.ProductIngredient{{MaterialID: "butter", Quantity: dec("150")}}
	got.CreatedAt = time.Time{}
	updated, err := s.SaveProduct(ctx, got)
	require.NoError(t, err)

	// THEN: creation time survives and the old lines are gone
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
	reloaded, err := s.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Ingredients, 1)
	assert.Equal(t, "butter", reloaded.Ingredients[0].MaterialID)

	second, err := s.SaveProduct(ctx, costing.Product{Name: "Cookies", YieldPerBatch: 24, LaborMinutes: dec("30")})
	require.NoError(t, err)

	list, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Len(t, list[0].Ingredients, 1)
	assert.Equal(t, second.ID, list[1].ID)
	assert.Empty(t, list[1].Ingredients)

	require.NoError(t, s.DeleteProduct(ctx, created.ID))
	_, err = s.GetProduct(ctx, created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteProduct(ctx, "missing"), store.ErrNotFound)
}

func testCopiedRecipe(t *testing.T, s store.Store) {
	ctx := context.Background()

	// GIVEN: a stored product with two ingredient lines
	original, err := s.SaveProduct(ctx, costing.Product{
		Name: "Brownies", YieldPerBatch: 12, LaborMinutes: dec("45"),
		Ingredients: []costing.ProductIngredient{
			{MaterialID: "flour", Quantity: dec("250")},
			{MaterialID: "sugar", Quantity: dec("200")},
		},
	})
	require.NoError(t, err)

	// WHEN: the same recipe, ingredient IDs included, is saved as a new product
	copied := original
	copied.ID = ""
	copied.Name = "Brownies Keju"
	copied.Ingredients = append([]costing.ProductIngredient(nil), original.Ingredients...)
	saved, err := s.SaveProduct(ctx, copied)

	// THEN: the copy gets its own lines
	require.NoError(t, err)
	require.NotEqual(t, original.ID, saved.ID)
	require.Len(t, saved.Ingredients, 2)
	for i, ing := range saved.Ingredients {
		assert.NotEqual(t, original.Ingredients[i].ID, ing.ID)
		assert.Equal(t, original.Ingredients[i].MaterialID, ing.MaterialID)
	}

	reloaded, err := s.GetProduct(ctx, saved.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Ingredients, 2)

	// AND: the original is untouched and keeps its line IDs on resave
	again, err := s.SaveProduct(ctx, original)
	require.NoError(t, err)
	require.Len(t, again.Ingredients, 2)
	assert.Equal(t, original.Ingredients[0].ID, again.Ingredients[0].ID)
	assert.Equal(t, original.Ingredients[1].ID, again.Ingredients[1].ID)
}

func testOverheads(t *testing.T, s store.Store) {
	ctx := context.Background()

	rent, err := s.SaveOverhead(ctx, costing.Overhead{Name: "Rent", Amount: dec("2000000"), AllocationType: costing.AllocationFixed})
	require.NoError(t, err)
	_, err = s.SaveOverhead(ctx, costing.Overhead{Name: "Packaging", Amount: dec("500"), AllocationType: costing.AllocationPerUnit})
	require.NoError(t, err)

	got, err := s.GetOverhead(ctx, rent.ID)
	require.NoError(t, err)
	assert.Equal(t, costing.AllocationFixed, got.AllocationType)
	assert.True(t, got.Amount.Equal(dec("2000000")))

	list, err := s.ListOverheads(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Rent", list[0].Name)

	require.NoError(t, s.DeleteOverhead(ctx, rent.ID))
	assert.ErrorIs(t, s.DeleteOverhead(ctx, rent.ID), store.ErrNotFound)
	_, err = s.GetOverhead(ctx, rent.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testLaborRates(t *testing.T, s store.Store) {
	ctx := context.Background()

	baker, err := s.SaveLaborRate(ctx, costing.LaborRate{Name: "Baker", WagePerHour: dec("25000")})
	require.NoError(t, err)
	helper, err := s.SaveLaborRate(ctx, costing.LaborRate{Name: "Helper", WagePerHour: dec("15000"), IsDefault: true})
	require.NoError(t, err)

	got, err := s.GetLaborRate(ctx, helper.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDefault)
	assert.True(t, got.WagePerHour.Equal(dec("15000")))

	rates, err := s.ListLaborRates(ctx)
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.Equal(t, baker.ID, rates[0].ID)
	assert.False(t, rates[0].IsDefault)

	def, err := costing.DefaultLaborRate(rates)
	require.NoError(t, err)
	assert.Equal(t, helper.ID, def.ID)

	require.NoError(t, s.DeleteLaborRate(ctx, baker.ID))
	assert.ErrorIs(t, s.DeleteLaborRate(ctx, baker.ID), store.ErrNotFound)
}

func testLastLaborRate(t *testing.T, s store.Store) {
	ctx := context.Background()

	baker, err := s.SaveLaborRate(ctx, costing.LaborRate{Name: "Baker", WagePerHour: dec("25000")})
	require.NoError(t, err)
	helper, err := s.SaveLaborRate(ctx, costing.LaborRate{Name: "Helper", WagePerHour: dec("0")})
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteLaborRateIfNotLast(ctx, "missing"), store.ErrNotFound)
	require.NoError(t, s.DeleteLaborRateIfNotLast(ctx, baker.ID))
	assert.ErrorIs(t, s.DeleteLaborRateIfNotLast(ctx, helper.ID), store.ErrLastLaborRate)
	assert.ErrorIs(t, s.DeleteLaborRateIfNotLast(ctx, baker.ID), store.ErrNotFound)

	rates, err := s.ListLaborRates(ctx)
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, helper.ID, rates[0].ID)
}

func testConcurrentLaborRateDeletes(t *testing.T, s store.Store) {
	ctx := context.Background()

	// GIVEN: two labor rates
	var ids []string
	for _, name := range []string{"Baker", "Helper"} {
		r, err := s.SaveLaborRate(ctx, costing.LaborRate{Name: name, WagePerHour: dec("15000")})
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	// WHEN: both are deleted at once
	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.DeleteLaborRateIfNotLast(ctx, id)
		}()
	}
	wg.Wait()

	// THEN: one wins and the other is refused
	refused := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, store.ErrLastLaborRate)
			refused++
		}
	}
	assert.Equal(t, 1, refused)
	rates, err := s.ListLaborRates(ctx)
	require.NoError(t, err)
	assert.Len(t, rates, 1)
}

func testSaleDays(t *testing.T, s store.Store) {
	ctx := context.Background()
	wib := time.FixedZone("WIB", 7*60*60)

	// GIVEN: a sale at 02:00 in UTC+7, which is the previous day in UTC
	soldAt := time.Date(2026, time.October, 19, 2, 0, 0, 0, wib)
	_, err := s.SaveSale(ctx, forecast.Sale{ProductID: "brownies", Quantity: 4, UnitPrice: dec("17000"), SoldAt: soldAt})
	require.NoError(t, err)

	// WHEN: it is read back
	sales, err := s.ListSalesByProduct(ctx, "brownies")
	require.NoError(t, err)
	require.Len(t, sales, 1)

	// THEN: the instant survives, expressed in UTC
	assert.True(t, sales[0].SoldAt.Equal(soldAt))
	assert.Equal(t, time.UTC, sales[0].SoldAt.Location())

	// AND: bucketed in the business zone it lands on Oct 19
	result := forecast.Demand(forecast.Input{
		ProductID: "brownies",
		Sales:     sales,
		Horizon:   1,
		Today:     calendar.NewDay(2026, time.October, 19),
		Location:  wib,
	})
	require.Len(t, result.DailyForecast, 1)
	assert.Equal(t, "2026-10-20", result.DailyForecast[0].Date.String())
}

func testSales(t *testing.T, s store.Store) {
	ctx := context.Background()
	base := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

	// GIVEN: sales saved out of chronological order
	late, err := s.SaveSale(ctx, forecast.Sale{ProductID: "brownies", Quantity: 3, UnitPrice: dec("17000"), SoldAt: base.AddDate(0, 0, 2)})
	require.NoError(t, err)
	early, err := s.SaveSale(ctx, forecast.Sale{ProductID: "brownies", Quantity: 5, UnitPrice: dec("16000"), SoldAt: base})
	require.NoError(t, err)
	_, err = s.SaveSale(ctx, forecast.Sale{ProductID: "cookies", Quantity: 9, UnitPrice: dec("5000"), SoldAt: base.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.NotEmpty(t, late.ID)

	// THEN: listing is chronological
	all, err := s.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, early.ID, all[0].ID)
	assert.Equal(t, "cookies", all[1].ProductID)
	assert.Equal(t, late.ID, all[2].ID)
	assert.True(t, all[0].SoldAt.Equal(base))
	assert.True(t, all[0].UnitPrice.Equal(dec("16000")))

	brownies, err := s.ListSalesByProduct(ctx, "brownies")
	require.NoError(t, err)
	require.Len(t, brownies, 2)
	assert.Equal(t, early.ID, brownies[0].ID)
	assert.Equal(t, late.ID, brownies[1].ID)

	// WHEN: a sale is saved again under its ID
	late.Quantity = 4
	_, err = s.SaveSale(ctx, late)
	require.NoError(t, err)
	brownies, err = s.ListSalesByProduct(ctx, "brownies")
	require.NoError(t, err)
	require.Len(t, brownies, 2)
	assert.Equal(t, 4, brownies[1].Quantity)

	require.NoError(t, s.DeleteSale(ctx, early.ID))
	assert.ErrorIs(t, s.DeleteSale(ctx, early.ID), store.ErrNotFound)

	none, err := s.ListSalesByProduct(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testReplaceSales(t *testing.T, s store.Store) {
	ctx := context.Background()
	base := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

	_, err := s.SaveSale(ctx, forecast.Sale{ProductID: "old", Quantity: 1, UnitPrice: dec("1"), SoldAt: base})
	require.NoError(t, err)

	err = s.ReplaceSales(ctx, []forecast.Sale{
		{ProductID: "brownies", Quantity: 2, UnitPrice: dec("15000"), SoldAt: base.AddDate(0, 0, 1)},
		{ProductID: "brownies", Quantity: 7, UnitPrice: dec("15000"), SoldAt: base},
	})
	require.NoError(t, err)

	all, err := s.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 7, all[0].Quantity)
	assert.Equal(t, 2, all[1].Quantity)
	assert.NotEmpty(t, all[0].ID)
}

func testReset(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, store.Seed(ctx, s))

	require.NoError(t, s.Reset(ctx))

	materials, err := s.ListMaterials(ctx)
	require.NoError(t, err)
	assert.Empty(t, materials)
	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
	rates, err := s.ListLaborRates(ctx)
	require.NoError(t, err)
	assert.Empty(t, rates)
}

func testSeed(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, store.Seed(ctx, s))
	// Seeding twice leaves the catalog alone.
	require.NoError(t, store.Seed(ctx, s))

	materials, err := s.ListMaterials(ctx)
	require.NoError(t, err)
	assert.Len(t, materials, 8)

	overheads, err := s.ListOverheads(ctx)
	require.NoError(t, err)
	assert.Len(t, overheads, 3)

	rates, err := s.ListLaborRates(ctx)
	require.NoError(t, err)
	assert.Len(t, rates, 2)

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)

	catalog := costing.NewCatalog(materials)
	for _, p := range products {
		assert.NoError(t, p.Validate(), p.Name)
		assert.Empty(t, costing.UnresolvedIngredients(p, catalog), p.Name)
	}
}
