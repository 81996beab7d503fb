/*
Package report turns computed results into things people read: an XLSX
cost report per product and the dashboard headline figures.

PURPOSE:
  Presentation only. Everything here consumes an HPPResult or a forecast
  Result the engines already produced and never recomputes them. Currency
  is rounded to whole units on the way out.

WORKBOOK SHEETS:
  Summary           Cost summary, suggested price, margin
  Materials         One row per resolved ingredient
  Labor & Overhead  Indirect costs per unit
  Sales History     Only when sales are supplied
  Forecast          Only when a forecast is supplied

SEE ALSO:
  - dashboard.go: Aggregate statistics
  - api/handlers.go: GET /api/products/{id}/report
*/
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/MKhansa067/HHPCalc/calendar"
	"github.com/MKhansa067/HHPCalc/costing"
	"github.com/MKhansa067/HHPCalc/forecast"
)

const (
	SheetSummary   = "Summary"
	SheetMaterials = "Materials"
	SheetIndirect  = "Labor & Overhead"
	SheetSales     = "Sales History"
	SheetForecast  = "Forecast"
)

// ContentType is the MIME type of a workbook written by Workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportData is everything one product report shows.
type ExportData struct {
	HPP      costing.HPPResult
	Sales    []forecast.Sale
	Forecast *forecast.Result

	// Period is the sales window the report covers. A zero period prints "-".
	Period calendar.Period
}

// Workbook builds the product cost report. The caller closes the file.
func Workbook(data ExportData) (*excelize.File, error) {
	f := excelize.NewFile()
	hpp := data.HPP.Rounded()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}
	title, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 13}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create title style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, err
	}

	w := &sheetWriter{f: f, header: header, title: title}
	w.summary(hpp, data.Period)
	w.materials(hpp)
	w.indirect(hpp)
	if len(data.Sales) > 0 {
		w.sales(data.Sales)
	}
	if data.Forecast != nil {
		w.forecast(*data.Forecast)
	}
	if w.err != nil {
		f.Close()
		return nil, w.err
	}
	return f, nil
}

// FileName returns HPP_<product name with underscores>_<YYYY-MM-DD>.xlsx.
func FileName(productName string, day calendar.Day) string {
	name := strings.Join(strings.Fields(productName), "_")
	return fmt.Sprintf("HPP_%s_%s.xlsx", name, day)
}

// =============================================================================
// SHEET WRITER - Keeps the first error so sheets read top to bottom
// =============================================================================

type sheetWriter struct {
	f      *excelize.File
	header int
	title  int

	sheet string
	row   int
	err   error
}

func (w *sheetWriter) start(sheet string, widths ...float64) {
	if w.err != nil {
		return
	}
	if sheet != SheetSummary {
		if _, err := w.f.NewSheet(sheet); err != nil {
			w.err = fmt.Errorf("create sheet %s: %w", sheet, err)
			return
		}
	}
	w.sheet = sheet
	w.row = 0
	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := w.f.SetColWidth(sheet, col, col, width); err != nil {
			w.err = err
			return
		}
	}
}

// line writes the next row. No values leaves a blank row.
func (w *sheetWriter) line(values ...any) {
	w.row++
	if w.err != nil || len(values) == 0 {
		return
	}
	cell, _ := excelize.CoordinatesToCellName(1, w.row)
	if err := w.f.SetSheetRow(w.sheet, cell, &values); err != nil {
		w.err = fmt.Errorf("write %s row %d: %w", w.sheet, w.row, err)
	}
}

func (w *sheetWriter) styled(style int, values ...any) {
	w.line(values...)
	if w.err != nil {
		return
	}
	from, _ := excelize.CoordinatesToCellName(1, w.row)
	to, _ := excelize.CoordinatesToCellName(len(values), w.row)
	if err := w.f.SetCellStyle(w.sheet, from, to, style); err != nil {
		w.err = err
	}
}

func money(d decimal.Decimal) float64 {
	return d.Round(0).InexactFloat64()
}

func number(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func periodLabel(p calendar.Period) string {
	if p.Start.IsZero() || p.End.IsZero() {
		return "-"
	}
	return p.Start.String() + " - " + p.End.String()
}

// =============================================================================
// SHEETS
// =============================================================================

func (w *sheetWriter) summary(hpp costing.HPPResult, period calendar.Period) {
	w.start(SheetSummary, 28, 20)
	w.styled(w.title, "HPP REPORT - "+hpp.ProductName)
	w.line()
	w.line("Computed At", hpp.ComputedAt.Format("2006-01-02 15:04"))
	w.line("Period", periodLabel(period))
	w.line()
	w.styled(w.title, "COST SUMMARY")
	w.line("Materials Total", money(hpp.Breakdown.MaterialsTotal))
	w.line("Labor Cost", money(hpp.Breakdown.LaborCost))
	w.line("Overhead Cost", money(hpp.Breakdown.OverheadCost))
	w.line()
	w.line("HPP per Unit", money(hpp.Breakdown.HPPPerUnit))
	w.line("Suggested Price", money(hpp.SuggestedPrice))
	w.line("Target Margin", hpp.MarginPercent.String()+"%")
	w.line("Profit per Unit", money(hpp.Profit()))
}

func (w *sheetWriter) materials(hpp costing.HPPResult) {
	w.start(SheetMaterials, 22, 14, 10, 16, 16)
	w.styled(w.header, "Material", "Quantity", "Unit", "Price per Unit", "Total")
	for _, m := range hpp.Breakdown.MaterialDetails {
		w.line(m.Name, number(m.Quantity), string(m.Unit), number(m.PricePerUnit), money(m.Total))
	}
	w.styled(w.header, "Materials Total", "", "", "", money(hpp.Breakdown.MaterialsTotal))
}

func (w *sheetWriter) indirect(hpp costing.HPPResult) {
	w.start(SheetIndirect, 28, 20)
	w.styled(w.title, "LABOR & OVERHEAD")
	w.line()
	w.line("Labor Cost", money(hpp.Breakdown.LaborCost))
	w.line("Overhead Cost", money(hpp.Breakdown.OverheadCost))
	w.line()
	w.line("Total Indirect Cost", money(hpp.Breakdown.LaborCost.Add(hpp.Breakdown.OverheadCost)))
}

func (w *sheetWriter) sales(sales []forecast.Sale) {
	w.start(SheetSales, 14, 10, 16, 16)
	w.styled(w.header, "Date", "Quantity", "Unit Price", "Total")
	for _, s := range sales {
		w.line(calendar.DayOf(s.SoldAt).String(), s.Quantity, money(s.UnitPrice), money(s.Revenue()))
	}
}

func (w *sheetWriter) forecast(r forecast.Result) {
	w.start(SheetForecast, 28, 20)
	w.styled(w.title, "SALES FORECAST")
	w.line()
	w.line(fmt.Sprintf("Total Forecast (%d days)", r.Horizon), r.TotalForecast)
	w.line("Average Daily Sales", math.Round(r.AverageDailySales))
	w.line("Current Stock", r.CurrentStock)
	w.line("Recommended Restock", r.RecommendedRestock)
	w.line("Trend", trendLabel(r.Trend))
	w.line()
	w.styled(w.header, "Date", "Forecast Quantity")
	for _, d := range r.DailyForecast {
		w.line(d.Date.String(), d.Quantity)
	}
}

func trendLabel(t forecast.Trend) string {
	switch t {
	case forecast.TrendUp:
		return "Up"
	case forecast.TrendDown:
		return "Down"
	default:
		return "Stable"
	}
}
