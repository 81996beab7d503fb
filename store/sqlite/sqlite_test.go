package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhansa067/HHPCalc/costing"
	"github.com/MKhansa067/HHPCalc/store"
	"github.com/MKhansa067/HHPCalc/store/sqlite"
	"github.com/MKhansa067/HHPCalc/store/storetest"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return newTestStore(t)
	})
}

func TestSQLiteStore_DeletingProductDropsIngredients(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p, err := s.SaveProduct(ctx, costing.Product{
		Name:          "Brownies",
		YieldPerBatch: 12,
		LaborMinutes:  decimal.NewFromInt(45),
		Ingredients:   []costing.ProductIngredient{{MaterialID: "flour", Quantity: decimal.NewFromInt(250)}},
	})
	require.NoError(t, err)
	require.NoError(t, s.DeleteProduct(ctx, p.ID))

	// Saving under the same ID starts from an empty recipe.
	p.Ingredients = nil
	_, err = s.SaveProduct(ctx, p)
	require.NoError(t, err)
	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Ingredients)
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "hpp.db")

	// GIVEN: a seeded file database
	s, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, store.Seed(ctx, s))
	require.NoError(t, s.Close())

	// WHEN: it is opened again (migrations already applied)
	s, err = sqlite.New(path)
	require.NoError(t, err)
	defer s.Close()

	// THEN
	materials, err := s.ListMaterials(ctx)
	require.NoError(t, err)
	assert.Len(t, materials, 8)
	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 3)
}
