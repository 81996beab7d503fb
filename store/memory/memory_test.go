package memory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhansa067/HHPCalc/costing"
	"github.com/MKhansa067/HHPCalc/store"
	"github.com/MKhansa067/HHPCalc/store/memory"
	"github.com/MKhansa067/HHPCalc/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return memory.New()
	})
}

func TestMemoryStore_ProductsAreCopied(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	saved, err := s.SaveProduct(ctx, costing.Product{
		Name:          "Brownies",
		YieldPerBatch: 12,
		Ingredients:   []costing.ProductIngredient{{MaterialID: "flour", Quantity: decimal.NewFromInt(250)}},
	})
	require.NoError(t, err)

	// WHEN: the caller mutates its copy
	saved.Ingredients[0].MaterialID = "changed"

	// THEN: the stored recipe is untouched
	got, err := s.GetProduct(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "flour", got.Ingredients[0].MaterialID)
}
