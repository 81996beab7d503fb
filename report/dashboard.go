package report

import (
	"github.com/shopspring/decimal"

	"github.com/MKhansa067/HHPCalc/costing"
	"github.com/MKhansa067/HHPCalc/forecast"
)

// DashboardStats are the headline figures of the dashboard.
type DashboardStats struct {
	TotalProducts  int
	TotalMaterials int

	// TotalSales is the number of units sold, not the number of sale records.
	TotalSales   int
	TotalRevenue decimal.Decimal

	// AverageHPP and AverageMargin are means over the supplied results;
	// zero when there are none.
	AverageHPP    decimal.Decimal
	AverageMargin decimal.Decimal
}

// Dashboard aggregates the catalog, the sales history and a set of HPP
// results computed by the caller.
func Dashboard(products []costing.Product, materials []costing.Material, sales []forecast.Sale, results []costing.HPPResult) DashboardStats {
	stats := DashboardStats{
		TotalProducts:  len(products),
		TotalMaterials: len(materials),
		TotalRevenue:   decimal.Zero,
		AverageHPP:     decimal.Zero,
		AverageMargin:  decimal.Zero,
	}

	for _, s := range sales {
		stats.TotalSales += s.Quantity
		stats.TotalRevenue = stats.TotalRevenue.Add(s.Revenue())
	}

	if len(results) == 0 {
		return stats
	}
	hppSum, marginSum := decimal.Zero, decimal.Zero
	for _, r := range results {
		hppSum = hppSum.Add(r.Breakdown.HPPPerUnit)
		marginSum = marginSum.Add(r.MarginPercent)
	}
	n := decimal.NewFromInt(int64(len(results)))
	stats.AverageHPP = hppSum.Div(n)
	stats.AverageMargin = marginSum.Div(n)
	return stats
}
