/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. The domain keeps
  currency in decimal.Decimal; the wire carries plain JSON numbers so the
  frontend can do arithmetic without a decimal library.

NAMING CONVENTION:
  - *DTO:      Response types returned to clients
  - *Request:  Request body types from clients
  - *Response: Complex response wrappers

ROUNDING:
  Computed money (totals, HPP, price, profit, revenue) is rounded to whole
  currency units on the way out. Record inputs such as price per gram are
  echoed unrounded.

VALIDATION:
  Validation is done by the domain types (costing.*.Validate) after the
  request is converted, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - costing/types.go: Domain records
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MKhansa067/HHPCalc/costing"
	"github.com/MKhansa067/HHPCalc/forecast"
	"github.com/MKhansa067/HHPCalc/report"
	"github.com/MKhansa067/HHPCalc/scheduler"
)

// =============================================================================
// MATERIALS
// =============================================================================

// MaterialDTO represents a raw material in API responses.
type MaterialDTO struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Unit         string  `json:"unit"`
	PricePerUnit float64 `json:"price_per_unit"`
	StockAmount  float64 `json:"stock_amount"`
	UpdatedAt    string  `json:"updated_at,omitempty"`
}

// MaterialRequest is the body of POST/PUT /api/materials.
type MaterialRequest struct {
	Name         string  `json:"name"`
	Unit         string  `json:"unit"`
	PricePerUnit float64 `json:"price_per_unit"`
	StockAmount  float64 `json:"stock_amount"`
}

func (r MaterialRequest) toMaterial(id string) costing.Material {
	return costing.Material{
		ID:           id,
		Name:         r.Name,
		Unit:         costing.Unit(r.Unit),
		PricePerUnit: decimal.NewFromFloat(r.PricePerUnit),
		StockAmount:  decimal.NewFromFloat(r.StockAmount),
	}
}

func toMaterialDTO(m costing.Material) MaterialDTO {
	return MaterialDTO{
		ID:           m.ID,
		Name:         m.Name,
		Unit:         string(m.Unit),
		PricePerUnit: m.PricePerUnit.InexactFloat64(),
		StockAmount:  m.StockAmount.InexactFloat64(),
		UpdatedAt:    formatTime(m.UpdatedAt),
	}
}

// =============================================================================
// PRODUCTS
// =============================================================================

// IngredientDTO is one recipe line: quantity of a material per unit of product.
type IngredientDTO struct {
	ID         string  `json:"id,omitempty"`
	MaterialID string  `json:"material_id"`
	Quantity   float64 `json:"quantity"`
}

// ProductDTO represents a product in API responses.
type ProductDTO struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	YieldPerBatch int             `json:"yield_per_batch"`
	LaborMinutes  float64         `json:"labor_minutes"`
	Ingredients   []IngredientDTO `json:"ingredients"`
	CreatedAt     string          `json:"created_at,omitempty"`
	UpdatedAt     string          `json:"updated_at,omitempty"`
}

// ProductRequest is the body of POST/PUT /api/products.
type ProductRequest struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	YieldPerBatch int             `json:"yield_per_batch"`
	LaborMinutes  float64         `json:"labor_minutes"`
	Ingredients   []IngredientDTO `json:"ingredients"`
}

func (r ProductRequest) toProduct(id string) costing.Product {
	p := costing.Product{
		ID:            id,
		Name:          r.Name,
		Description:   r.Description,
		YieldPerBatch: r.YieldPerBatch,
		LaborMinutes:  decimal.NewFromFloat(r.LaborMinutes),
		Ingredients:   make([]costing.ProductIngredient, len(r.Ingredients)),
	}
	for i, ing := range r.Ingredients {
		p.Ingredients[i] = costing.ProductIngredient{
			ID:         ing.ID,
			MaterialID: ing.MaterialID,
			Quantity:   decimal.NewFromFloat(ing.Quantity),
		}
	}
	return p
}

func toProductDTO(p costing.Product) ProductDTO {
	dto := ProductDTO{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		YieldPerBatch: p.YieldPerBatch,
		LaborMinutes:  p.LaborMinutes.InexactFloat64(),
		Ingredients:   make([]IngredientDTO, len(p.Ingredients)),
		CreatedAt:     formatTime(p.CreatedAt),
		UpdatedAt:     formatTime(p.UpdatedAt),
	}
	for i, ing := range p.Ingredients {
		dto.Ingredients[i] = IngredientDTO{
			ID:         ing.ID,
			MaterialID: ing.MaterialID,
			Quantity:   ing.Quantity.InexactFloat64(),
		}
	}
	return dto
}

// =============================================================================
// OVERHEADS & LABOR RATES
// =============================================================================

// OverheadDTO is used for both requests and responses.
type OverheadDTO struct {
	ID             string  `json:"id,omitempty"`
	Name           string  `json:"name"`
	Amount         float64 `json:"amount"`
	AllocationType string  `json:"allocation_type"`
}

func (o OverheadDTO) toOverhead(id string) costing.Overhead {
	return costing.Overhead{
		ID:             id,
		Name:           o.Name,
		Amount:         decimal.NewFromFloat(o.Amount),
		AllocationType: costing.AllocationType(o.AllocationType),
	}
}

func toOverheadDTO(o costing.Overhead) OverheadDTO {
	return OverheadDTO{
		ID:             o.ID,
		Name:           o.Name,
		Amount:         o.Amount.InexactFloat64(),
		AllocationType: string(o.AllocationType),
	}
}

// LaborRateDTO is used for both requests and responses.
type LaborRateDTO struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	WagePerHour float64 `json:"wage_per_hour"`
	IsDefault   bool    `json:"is_default"`
}

func (r LaborRateDTO) toLaborRate(id string) costing.LaborRate {
	return costing.LaborRate{
		ID:          id,
		Name:        r.Name,
		WagePerHour: decimal.NewFromFloat(r.WagePerHour),
		IsDefault:   r.IsDefault,
	}
}

func toLaborRateDTO(r costing.LaborRate) LaborRateDTO {
	return LaborRateDTO{
		ID:          r.ID,
		Name:        r.Name,
		WagePerHour: r.WagePerHour.InexactFloat64(),
		IsDefault:   r.IsDefault,
	}
}

// =============================================================================
// SALES
// =============================================================================

// SaleDTO represents one recorded sale.
type SaleDTO struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
	SoldAt    string  `json:"sold_at"`
}

// CreateSaleRequest is the body of POST /api/sales. SoldAt accepts RFC3339
// or YYYY-MM-DD and defaults to now.
type CreateSaleRequest struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	SoldAt    string  `json:"sold_at,omitempty"`
}

// DemoSalesResponse reports how many demo sales replaced the history.
type DemoSalesResponse struct {
	Generated int `json:"generated"`
	Days      int `json:"days"`
	Products  int `json:"products"`
}

func toSaleDTO(s forecast.Sale) SaleDTO {
	return SaleDTO{
		ID:        s.ID,
		ProductID: s.ProductID,
		Quantity:  s.Quantity,
		UnitPrice: money(s.UnitPrice),
		Total:     money(s.Revenue()),
		SoldAt:    formatTime(s.SoldAt),
	}
}

// =============================================================================
// HPP
// =============================================================================

// CalculateHPPRequest is the body of POST /api/products/{id}/hpp. Omitted
// fields fall back to the server defaults and the product's own labor time.
type CalculateHPPRequest struct {
	MarginPercent     *float64 `json:"margin_percent,omitempty"`
	LaborMinutes      *float64 `json:"labor_minutes,omitempty"`
	MonthlyProduction *int     `json:"monthly_production,omitempty"`
	LaborRateID       string   `json:"labor_rate_id,omitempty"`
}

// MaterialLineDTO is one resolved ingredient in the cost breakdown.
type MaterialLineDTO struct {
	Name         string  `json:"name"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	PricePerUnit float64 `json:"price_per_unit"`
	Total        float64 `json:"total"`
}

// BreakdownDTO is the per-unit cost breakdown.
type BreakdownDTO struct {
	MaterialsTotal  float64           `json:"materials_total"`
	MaterialDetails []MaterialLineDTO `json:"material_details"`
	LaborCost       float64           `json:"labor_cost"`
	OverheadCost    float64           `json:"overhead_cost"`
	HPPPerUnit      float64           `json:"hpp_per_unit"`
}

// HPPResultDTO is the response of an HPP calculation.
type HPPResultDTO struct {
	ProductID      string       `json:"product_id"`
	ProductName    string       `json:"product_name"`
	ComputedAt     string       `json:"computed_at"`
	Breakdown      BreakdownDTO `json:"breakdown"`
	SuggestedPrice float64      `json:"suggested_price"`
	MarginPercent  float64      `json:"margin_percent"`
	Profit         float64      `json:"profit"`
	LaborRate      LaborRateDTO `json:"labor_rate"`
}

func toHPPResultDTO(r costing.HPPResult, rate costing.LaborRate) HPPResultDTO {
	r = r.Rounded()
	dto := HPPResultDTO{
		ProductID:   r.ProductID,
		ProductName: r.ProductName,
		ComputedAt:  formatTime(r.ComputedAt),
		Breakdown: BreakdownDTO{
			MaterialsTotal:  money(r.Breakdown.MaterialsTotal),
			MaterialDetails: make([]MaterialLineDTO, len(r.Breakdown.MaterialDetails)),
			LaborCost:       money(r.Breakdown.LaborCost),
			OverheadCost:    money(r.Breakdown.OverheadCost),
			HPPPerUnit:      money(r.Breakdown.HPPPerUnit),
		},
		SuggestedPrice: money(r.SuggestedPrice),
		MarginPercent:  r.MarginPercent.InexactFloat64(),
		Profit:         money(r.Profit()),
		LaborRate:      toLaborRateDTO(rate),
	}
	for i, line := range r.Breakdown.MaterialDetails {
		dto.Breakdown.MaterialDetails[i] = MaterialLineDTO{
			Name:         line.Name,
			Quantity:     line.Quantity.InexactFloat64(),
			Unit:         string(line.Unit),
			PricePerUnit: line.PricePerUnit.InexactFloat64(),
			Total:        money(line.Total),
		}
	}
	return dto
}

// =============================================================================
// FORECAST & RESTOCK
// =============================================================================

// DailyForecastDTO is the projected quantity for one date.
type DailyForecastDTO struct {
	Date     string `json:"date"`
	Quantity int    `json:"quantity"`
}

// ForecastDTO is the response of GET /api/products/{id}/forecast.
type ForecastDTO struct {
	ProductID          string             `json:"product_id"`
	ProductName        string             `json:"product_name"`
	Horizon            int                `json:"horizon"`
	DailyForecast      []DailyForecastDTO `json:"daily_forecast"`
	TotalForecast      int                `json:"total_forecast"`
	CurrentStock       int                `json:"current_stock"`
	RecommendedRestock int                `json:"recommended_restock"`
	AverageDailySales  float64            `json:"average_daily_sales"`
	Trend              string             `json:"trend"`
	TrendPercent       float64            `json:"trend_percent"`
}

func toForecastDTO(r forecast.Result) ForecastDTO {
	dto := ForecastDTO{
		ProductID:          r.ProductID,
		ProductName:        r.ProductName,
		Horizon:            r.Horizon,
		DailyForecast:      make([]DailyForecastDTO, len(r.DailyForecast)),
		TotalForecast:      r.TotalForecast,
		CurrentStock:       r.CurrentStock,
		RecommendedRestock: r.RecommendedRestock,
		AverageDailySales:  r.AverageDailySales,
		Trend:              string(r.Trend),
		TrendPercent:       r.TrendPercent,
	}
	for i, d := range r.DailyForecast {
		dto.DailyForecast[i] = DailyForecastDTO{Date: d.Date.String(), Quantity: d.Quantity}
	}
	return dto
}

// RestockNeedDTO is one product whose stock will not cover demand.
type RestockNeedDTO struct {
	ProductID          string `json:"product_id"`
	ProductName        string `json:"product_name"`
	CurrentStock       int    `json:"current_stock"`
	TotalForecast      int    `json:"total_forecast"`
	RecommendedRestock int    `json:"recommended_restock"`
	Trend              string `json:"trend"`
}

// RestockResponse is the response of GET /api/restock.
type RestockResponse struct {
	Horizon   int              `json:"horizon"`
	Checked   int              `json:"checked"`
	Needs     []RestockNeedDTO `json:"needs"`
	NextRun   string           `json:"next_run,omitempty"`
	LastRunAt string           `json:"last_run_at,omitempty"`
}

func toRestockNeedDTOs(needs []scheduler.RestockNeed) []RestockNeedDTO {
	dtos := make([]RestockNeedDTO, len(needs))
	for i, n := range needs {
		dtos[i] = RestockNeedDTO{
			ProductID:          n.ProductID,
			ProductName:        n.ProductName,
			CurrentStock:       n.CurrentStock,
			TotalForecast:      n.TotalForecast,
			RecommendedRestock: n.RecommendedRestock,
			Trend:              string(n.Trend),
		}
	}
	return dtos
}

// =============================================================================
// DASHBOARD
// =============================================================================

// DashboardDTO carries the headline figures of the dashboard.
type DashboardDTO struct {
	TotalProducts  int     `json:"total_products"`
	TotalMaterials int     `json:"total_materials"`
	TotalSales     int     `json:"total_sales"`
	TotalRevenue   float64 `json:"total_revenue"`
	AverageHPP     float64 `json:"average_hpp"`
	AverageMargin  float64 `json:"average_margin"`
}

func toDashboardDTO(s report.DashboardStats) DashboardDTO {
	return DashboardDTO{
		TotalProducts:  s.TotalProducts,
		TotalMaterials: s.TotalMaterials,
		TotalSales:     s.TotalSales,
		TotalRevenue:   money(s.TotalRevenue),
		AverageHPP:     money(s.AverageHPP),
		AverageMargin:  s.AverageMargin.Round(2).InexactFloat64(),
	}
}

// =============================================================================
// ERRORS & HELPERS
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func money(d decimal.Decimal) float64 {
	return d.Round(0).InexactFloat64()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
