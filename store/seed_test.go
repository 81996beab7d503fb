package store_test

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhansa067/HHPCalc/calendar"
	"github.com/MKhansa067/HHPCalc/costing"
	"github.com/MKhansa067/HHPCalc/forecast"
	"github.com/MKhansa067/HHPCalc/store"
)

func demoProducts() []costing.Product {
	return []costing.Product{{ID: "brownies", Name: "Brownies"}, {ID: "cookies", Name: "Cookies"}}
}

func TestGenerateDemoSales_Shape(t *testing.T) {
	now := time.Date(2025, time.June, 30, 12, 0, 0, 0, time.UTC)

	sales := store.GenerateDemoSales(demoProducts(), now, rand.New(rand.NewPCG(1, 2)))

	require.Len(t, sales, store.DemoSalesDays*2)
	assert.True(t, calendar.DayOf(sales[0].SoldAt).Equal(calendar.DayOf(now).AddDays(-(store.DemoSalesDays - 1))))
	assert.True(t, calendar.DayOf(sales[len(sales)-1].SoldAt).Equal(calendar.DayOf(now)))

	for _, s := range sales {
		require.NoError(t, s.Validate())
		assert.NotEmpty(t, s.ID)

		lo, hi := 5, 14
		if calendar.DayOf(s.SoldAt).IsWeekend() {
			lo, hi = 8, 17
		}
		assert.GreaterOrEqual(t, s.Quantity, lo)
		assert.LessOrEqual(t, s.Quantity, hi)

		price := s.UnitPrice.IntPart()
		assert.GreaterOrEqual(t, price, int64(15000))
		assert.LessOrEqual(t, price, int64(19999))
	}
}

func TestGenerateDemoSales_DeterministicForSeed(t *testing.T) {
	now := time.Date(2025, time.June, 30, 12, 0, 0, 0, time.UTC)

	a := store.GenerateDemoSales(demoProducts(), now, rand.New(rand.NewPCG(7, 7)))
	b := store.GenerateDemoSales(demoProducts(), now, rand.New(rand.NewPCG(7, 7)))

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].ProductID, b[i].ProductID)
		assert.Equal(t, a[i].Quantity, b[i].Quantity)
		assert.True(t, a[i].UnitPrice.Equal(b[i].UnitPrice))
		assert.True(t, a[i].SoldAt.Equal(b[i].SoldAt))
	}
}

func TestGenerateDemoSales_NoProducts(t *testing.T) {
	assert.Empty(t, store.GenerateDemoSales(nil, time.Now(), rand.New(rand.NewPCG(1, 1))))
}

func TestGenerateDemoSales_FeedsForecast(t *testing.T) {
	now := time.Date(2025, time.June, 30, 12, 0, 0, 0, time.UTC)
	sales := store.GenerateDemoSales(demoProducts(), now, rand.New(rand.NewPCG(3, 4)))

	r := forecast.Demand(forecast.Input{ProductID: "brownies", Sales: sales, Horizon: 7})

	// Every day of the window has a sale, averaging between 5 and 17.
	assert.GreaterOrEqual(t, r.AverageDailySales, 5.0)
	assert.LessOrEqual(t, r.AverageDailySales, 17.0)
	require.Len(t, r.DailyForecast, 7)
	assert.True(t, r.DailyForecast[0].Date.Equal(calendar.DayOf(now).AddDays(1)))
}
