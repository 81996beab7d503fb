package forecast_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhansa067/HHPCalc/calendar"
	"github.com/MKhansa067/HHPCalc/costing"
	"github.com/MKhansa067/HHPCalc/forecast"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var start = calendar.NewDay(2025, time.March, 1)

// history builds one sale per entry, day i of the window selling qty[i].
// Zero entries produce no sale.
func history(productID string, qty ...int) []forecast.Sale {
	var sales []forecast.Sale
	for i, q := range qty {
		if q == 0 {
			continue
		}
		sales = append(sales, forecast.Sale{
			ID:        productID + "-" + start.AddDays(i).String(),
			ProductID: productID,
			Quantity:  q,
			UnitPrice: decimal.NewFromInt(17000),
			SoldAt:    start.AddDays(i).Time().Add(10 * time.Hour),
		})
	}
	return sales
}

func quantities(r forecast.Result) []int {
	out := make([]int, len(r.DailyForecast))
	for i, d := range r.DailyForecast {
		out[i] = d.Quantity
	}
	return out
}

// =============================================================================
// EMPTY HISTORY
// =============================================================================

func TestDemand_NoSales(t *testing.T) {
	today := calendar.NewDay(2025, time.June, 10)

	r := forecast.Demand(forecast.Input{
		ProductID:    "brownies",
		ProductName:  "Brownies",
		Horizon:      7,
		CurrentStock: 4,
		Today:        today,
	})

	assert.Equal(t, 0.0, r.AverageDailySales)
	assert.Equal(t, forecast.TrendStable, r.Trend)
	assert.Equal(t, 0.0, r.TrendPercent)
	assert.Equal(t, 0, r.TotalForecast)
	assert.Equal(t, 0, r.RecommendedRestock)
	require.Len(t, r.DailyForecast, 7)
	assert.True(t, r.DailyForecast[0].Date.Equal(today), "empty history projects from today")
	assert.True(t, r.DailyForecast[6].Date.Equal(today.AddDays(6)))
	assert.Equal(t, []int{0, 0, 0, 0, 0, 0, 0}, quantities(r))
}

func TestDemand_ZeroHorizon(t *testing.T) {
	r := forecast.Demand(forecast.Input{
		ProductID:    "brownies",
		Sales:        history("brownies", 10, 10, 10),
		Horizon:      0,
		CurrentStock: 5,
	})

	assert.Empty(t, r.DailyForecast)
	assert.Equal(t, 0, r.TotalForecast)
	assert.Equal(t, 0, r.RecommendedRestock)
	assert.Equal(t, 10.0, r.AverageDailySales)
}

// =============================================================================
// STEADY DEMAND
// =============================================================================

func TestDemand_ConstantSales(t *testing.T) {
	// GIVEN: 10 units every day for 9 days
	sales := history("brownies", 10, 10, 10, 10, 10, 10, 10, 10, 10)

	// WHEN
	r := forecast.Demand(forecast.Input{
		ProductID:    "brownies",
		ProductName:  "Brownies",
		Sales:        sales,
		Horizon:      7,
		CurrentStock: 12,
	})

	// THEN
	assert.Equal(t, "brownies", r.ProductID)
	assert.Equal(t, "Brownies", r.ProductName)
	assert.Equal(t, 10.0, r.AverageDailySales)
	assert.Equal(t, forecast.TrendStable, r.Trend)
	assert.Equal(t, 0.0, r.TrendPercent)
	assert.Equal(t, []int{10, 10, 10, 10, 10, 10, 10}, quantities(r))
	assert.Equal(t, 70, r.TotalForecast)
	assert.Equal(t, 12, r.CurrentStock)
	assert.Equal(t, 58, r.RecommendedRestock)
}

func TestDemand_HorizonStartsAfterLastSale(t *testing.T) {
	sales := history("brownies", 5, 5, 5, 5)
	lastSale := start.AddDays(3)

	r := forecast.Demand(forecast.Input{ProductID: "brownies", Sales: sales, Horizon: 3})

	require.Len(t, r.DailyForecast, 3)
	assert.True(t, r.DailyForecast[0].Date.Equal(lastSale.AddDays(1)))
	assert.True(t, r.DailyForecast[1].Date.Equal(lastSale.AddDays(2)))
	assert.True(t, r.DailyForecast[2].Date.Equal(lastSale.AddDays(3)))
}

func TestDemand_StockCoversForecast(t *testing.T) {
	r := forecast.Demand(forecast.Input{
		ProductID:    "brownies",
		Sales:        history("brownies", 4, 4, 4),
		Horizon:      5,
		CurrentStock: 100,
	})

	assert.Equal(t, 20, r.TotalForecast)
	assert.Equal(t, 0, r.RecommendedRestock, "restock is never negative")
}

// =============================================================================
// BUCKETING
// =============================================================================

func TestDemand_GapDaysCountAsZero(t *testing.T) {
	// GIVEN: sales on day 1 and day 4 only
	sales := history("brownies", 6, 0, 0, 6)

	r := forecast.Demand(forecast.Input{ProductID: "brownies", Sales: sales, Horizon: 2})

	// THEN: 12 units over a 4 day window
	assert.Equal(t, 3.0, r.AverageDailySales)
}

func TestDemand_SameDaySalesAreSummed(t *testing.T) {
	day := start.Time()
	sales := []forecast.Sale{
		{ProductID: "brownies", Quantity: 3, SoldAt: day.Add(8 * time.Hour)},
		{ProductID: "brownies", Quantity: 4, SoldAt: day.Add(20 * time.Hour)},
		{ProductID: "brownies", Quantity: 7, SoldAt: day.AddDate(0, 0, 1).Add(9 * time.Hour)},
	}

	r := forecast.Demand(forecast.Input{ProductID: "brownies", Sales: sales, Horizon: 1})

	assert.Equal(t, 7.0, r.AverageDailySales)
	assert.Equal(t, forecast.TrendStable, r.Trend)
}

func TestDemand_BucketsInBusinessLocation(t *testing.T) {
	// GIVEN: a sale at 02:00 in UTC+7, which is still the previous day in UTC
	jakarta := time.FixedZone("WIB", 7*60*60)
	soldAt := time.Date(2026, time.October, 19, 2, 0, 0, 0, jakarta)
	sales := []forecast.Sale{{ProductID: "brownies", Quantity: 4, SoldAt: soldAt.UTC()}}

	// WHEN: bucketed in the business location
	local := forecast.Demand(forecast.Input{ProductID: "brownies", Sales: sales, Horizon: 1, Location: jakarta})

	// THEN: the sale counts for Oct 19 there, so the horizon starts Oct 20
	require.Len(t, local.DailyForecast, 1)
	assert.Equal(t, "2026-10-20", local.DailyForecast[0].Date.String())

	// WHEN: bucketed in UTC
	utc := forecast.Demand(forecast.Input{ProductID: "brownies", Sales: sales, Horizon: 1, Location: time.UTC})

	// THEN: the same instant falls on Oct 18
	require.Len(t, utc.DailyForecast, 1)
	assert.Equal(t, "2026-10-19", utc.DailyForecast[0].Date.String())
	assert.Equal(t, time.UTC, sales[0].SoldAt.Location(), "input sales are not modified")
}

func TestDemand_OrderOfSalesDoesNotMatter(t *testing.T) {
	sales := history("brownies", 2, 2, 2, 5, 5, 5, 8, 8, 8)
	reversed := make([]forecast.Sale, len(sales))
	for i, s := range sales {
		reversed[len(sales)-1-i] = s
	}

	a := forecast.Demand(forecast.Input{ProductID: "brownies", Sales: sales, Horizon: 4})
	b := forecast.Demand(forecast.Input{ProductID: "brownies", Sales: reversed, Horizon: 4})

	assert.Equal(t, a, b)
}

func TestDemand_IgnoresOtherProducts(t *testing.T) {
	sales := append(history("brownies", 10, 10, 10), history("cookies", 50, 50, 50, 50, 50)...)

	r := forecast.Demand(forecast.Input{ProductID: "brownies", Sales: sales, Horizon: 2})

	assert.Equal(t, 10.0, r.AverageDailySales)
	assert.Equal(t, 20, r.TotalForecast)
}

// =============================================================================
// TREND
// =============================================================================

func TestDemand_RisingTrend(t *testing.T) {
	// GIVEN: early third averages 2, recent third averages 8, overall 5
	sales := history("brownies", 2, 2, 2, 5, 5, 5, 8, 8, 8)

	r := forecast.Demand(forecast.Input{ProductID: "brownies", Sales: sales, Horizon: 3, CurrentStock: 15})

	// THEN: +300%, reached in full on the last day
	assert.Equal(t, forecast.TrendUp, r.Trend)
	assert.InDelta(t, 300.0, r.TrendPercent, 1e-9)
	assert.Equal(t, 5.0, r.AverageDailySales)
	assert.Equal(t, []int{10, 15, 20}, quantities(r))
	assert.Equal(t, 45, r.TotalForecast)
	assert.Equal(t, 30, r.RecommendedRestock)
}

func TestDemand_FallingTrend(t *testing.T) {
	sales := history("brownies", 8, 8, 8, 5, 5, 5, 2, 2, 2)

	r := forecast.Demand(forecast.Input{ProductID: "brownies", Sales: sales, Horizon: 4})

	// factors 0.8125, 0.625, 0.4375, 0.25 on an average of 5
	assert.Equal(t, forecast.TrendDown, r.Trend)
	assert.InDelta(t, -75.0, r.TrendPercent, 1e-9)
	assert.Equal(t, []int{4, 3, 2, 1}, quantities(r))
	assert.Equal(t, 10, r.TotalForecast)
}

func TestDemand_SmallChangeIsStable(t *testing.T) {
	// early 100, recent 104: +4% is inside the threshold
	sales := history("brownies", 100, 100, 100, 102, 102, 102, 104, 104, 104)

	r := forecast.Demand(forecast.Input{ProductID: "brownies", Sales: sales, Horizon: 1})

	assert.Equal(t, forecast.TrendStable, r.Trend)
	assert.InDelta(t, 4.0, r.TrendPercent, 1e-9)
}

func TestDemand_TotalIsSumOfRoundedDays(t *testing.T) {
	// average 10/3 per day
	sales := history("brownies", 4, 3, 3)

	r := forecast.Demand(forecast.Input{ProductID: "brownies", Sales: sales, Horizon: 3})

	sum := 0
	for _, d := range r.DailyForecast {
		assert.GreaterOrEqual(t, d.Quantity, 0)
		sum += d.Quantity
	}
	assert.Equal(t, sum, r.TotalForecast)
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name    string
		daily   []int
		trend   forecast.Trend
		percent float64
	}{
		{"empty", nil, forecast.TrendStable, 0},
		{"single day", []int{9}, forecast.TrendStable, 0},
		{"two days up", []int{4, 8}, forecast.TrendUp, 100},
		{"two days down", []int{10, 5}, forecast.TrendDown, -50},
		{"zero early mean", []int{0, 0, 0, 3, 3, 3}, forecast.TrendStable, 0},
		{"exactly at threshold", []int{100, 50, 105}, forecast.TrendStable, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trend, percent := forecast.ClassifyTrend(tt.daily)
			assert.Equal(t, tt.trend, trend)
			assert.InDelta(t, tt.percent, percent, 1e-9)
		})
	}
}

// =============================================================================
// BUILDING BLOCKS
// =============================================================================

func TestObservedWindow(t *testing.T) {
	_, ok := forecast.ObservedWindow(nil)
	assert.False(t, ok)

	window, ok := forecast.ObservedWindow(history("brownies", 1, 0, 0, 0, 2))
	require.True(t, ok)
	assert.True(t, window.Start.Equal(start))
	assert.True(t, window.End.Equal(start.AddDays(4)))
	assert.Equal(t, 5, window.Len())
}

func TestDailyTotals_IgnoresSalesOutsidePeriod(t *testing.T) {
	sales := history("brownies", 1, 2, 3, 4)
	period := calendar.Period{Start: start.AddDays(1), End: start.AddDays(2)}

	assert.Equal(t, []int{2, 3}, forecast.DailyTotals(sales, period))
}

func TestRestock(t *testing.T) {
	assert.Equal(t, 18, forecast.Restock(30, 12))
	assert.Equal(t, 0, forecast.Restock(30, 30))
	assert.Equal(t, 0, forecast.Restock(30, 50))
}

func TestSale_RevenueAndValidate(t *testing.T) {
	s := forecast.Sale{ProductID: "brownies", Quantity: 3, UnitPrice: decimal.NewFromInt(17000), SoldAt: start.Time()}
	assert.True(t, s.Revenue().Equal(decimal.NewFromInt(51000)))
	assert.NoError(t, s.Validate())

	bad := s
	bad.Quantity = 0
	assert.True(t, errors.Is(bad.Validate(), costing.ErrValidation))

	bad = s
	bad.SoldAt = time.Time{}
	var vErr *costing.ValidationError
	require.ErrorAs(t, bad.Validate(), &vErr)
	assert.Equal(t, "sold_at", vErr.Field)
}
