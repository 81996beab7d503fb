/*
forecast.go - Moving average with linear trend

ALGORITHM:
  1. Bucket sales by calendar day, in the business location, over the observed window
     [first sale day, last sale day]; days without sales count as zero.
  2. averageDailySales = mean of the buckets.
  3. Trend: compare the mean of the most recent third of the window with
     the mean of the earliest third (one day each when the window is
     shorter than three days).
       trendPercent = (recent − early) / early × 100, 0 when early is 0
       up     if trendPercent >  TrendThresholdPercent
       down   if trendPercent < −TrendThresholdPercent
       stable otherwise
  4. Day i of the horizon (1-based) projects
       round(average × (1 + trendPercent/100 × i/horizon)), floored at 0
     so the full trend is reached on the last day.
  5. totalForecast is the sum of the rounded daily values.
  6. recommendedRestock = max(0, totalForecast − currentStock).

  The horizon starts the day after the last sale, or today when there is
  no history.
*/
package forecast

import (
	"math"
	"time"

	"github.com/MKhansa067/HHPCalc/calendar"
)

// Demand projects demand for one product.
func Demand(in Input) Result {
	sales := InLocation(forProduct(in.Sales, in.ProductID), in.Location)

	horizon := in.Horizon
	if horizon < 0 {
		horizon = 0
	}

	var (
		daily  []int
		anchor calendar.Day
	)
	window, ok := ObservedWindow(sales)
	if ok {
		daily = DailyTotals(sales, window)
		anchor = window.End
	} else {
		anchor = in.Today
		if anchor.IsZero() {
			anchor = calendar.Today()
		}
		// An empty history projects from today itself.
		anchor = anchor.AddDays(-1)
	}

	average := mean(daily)
	trend, trendPercent := ClassifyTrend(daily)

	projection := make([]DailyForecast, 0, horizon)
	total := 0
	for i, day := range calendar.Horizon(anchor, horizon).Days() {
		qty := project(average, trendPercent, i+1, horizon)
		projection = append(projection, DailyForecast{Date: day, Quantity: qty})
		total += qty
	}

	return Result{
		ProductID:          in.ProductID,
		ProductName:        in.ProductName,
		Horizon:            horizon,
		DailyForecast:      projection,
		TotalForecast:      total,
		CurrentStock:       in.CurrentStock,
		RecommendedRestock: Restock(total, in.CurrentStock),
		AverageDailySales:  average,
		Trend:              trend,
		TrendPercent:       trendPercent,
	}
}

func forProduct(sales []Sale, productID string) []Sale {
	if productID == "" {
		return sales
	}
	out := make([]Sale, 0, len(sales))
	for _, s := range sales {
		if s.ProductID == productID {
			out = append(out, s)
		}
	}
	return out
}

// InLocation returns copies of sales with SoldAt expressed in loc, so
// calendar days are taken in that zone. A nil loc returns sales as given.
func InLocation(sales []Sale, loc *time.Location) []Sale {
	if loc == nil {
		return sales
	}
	out := make([]Sale, len(sales))
	for i, s := range sales {
		s.SoldAt = s.SoldAt.In(loc)
		out[i] = s
	}
	return out
}

// ObservedWindow returns [first sale day, last sale day]. ok is false when
// there are no sales.
func ObservedWindow(sales []Sale) (calendar.Period, bool) {
	if len(sales) == 0 {
		return calendar.Period{}, false
	}
	first := calendar.DayOf(sales[0].SoldAt)
	last := first
	for _, s := range sales[1:] {
		d := calendar.DayOf(s.SoldAt)
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}
	return calendar.Period{Start: first, End: last}, true
}

// DailyTotals sums sale quantities per day of the period. Days without
// sales are zero; sales outside the period are ignored.
func DailyTotals(sales []Sale, period calendar.Period) []int {
	totals := make([]int, period.Len())
	for _, s := range sales {
		if i := period.Index(calendar.DayOf(s.SoldAt)); i >= 0 {
			totals[i] += s.Quantity
		}
	}
	return totals
}

// ClassifyTrend compares the most recent third of daily against the earliest third.
func ClassifyTrend(daily []int) (Trend, float64) {
	n := len(daily)
	if n < 2 {
		return TrendStable, 0
	}
	size := n / 3
	if size == 0 {
		size = 1
	}

	early := mean(daily[:size])
	recent := mean(daily[n-size:])
	if early == 0 {
		return TrendStable, 0
	}

	percent := (recent - early) * 100 / early
	switch {
	case percent > TrendThresholdPercent:
		return TrendUp, percent
	case percent < -TrendThresholdPercent:
		return TrendDown, percent
	default:
		return TrendStable, percent
	}
}

func project(average, trendPercent float64, day, horizon int) int {
	factor := 1 + trendPercent/100*float64(day)/float64(horizon)
	qty := math.Round(average * factor)
	if qty < 0 {
		return 0
	}
	return int(qty)
}

// Restock returns the units to produce so stock covers the forecast.
func Restock(totalForecast, currentStock int) int {
	if need := totalForecast - currentStock; need > 0 {
		return need
	}
	return 0
}

func mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}
