/*
handlers.go - HTTP API handlers for the HPP calculator

PURPOSE:
  Exposes the costing and forecasting engines via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Catalog:
    GET/POST        /api/materials          List / create materials
    GET/PUT/DELETE  /api/materials/{id}     Single material
    GET/POST        /api/products           List / create products
    GET/PUT/DELETE  /api/products/{id}      Single product
    GET/POST        /api/overheads          Overhead costs
    PUT/DELETE      /api/overheads/{id}
    GET/POST        /api/labor-rates        Labor wage rates
    PUT/DELETE      /api/labor-rates/{id}   The last rate cannot be deleted

  Engines:
    POST   /api/products/{id}/hpp       Cost breakdown and suggested price
    GET    /api/products/{id}/forecast  Demand forecast and restock advice
    GET    /api/products/{id}/report    XLSX cost report download
    GET    /api/restock                 Products needing restock

  Sales:
    GET    /api/sales?product_id=   Sales history
    POST   /api/sales               Record a sale
    DELETE /api/sales/{id}          Remove a sale
    POST   /api/sales/demo          Replace history with generated demo sales

  Other:
    GET    /api/dashboard           Headline figures
    GET    /api/healthz             Liveness

REQUEST FLOW:
  1. Parse HTTP request
  2. Convert DTO to domain record and validate it
  3. Load collaborators from the store and call the engine
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid parameters, no labor rate
  - 404: Unknown id
  - 409: Deleting the last labor rate
  - 500: Internal errors (logged)

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MKhansa067/HHPCalc/calendar"
	"github.com/MKhansa067/HHPCalc/costing"
	"github.com/MKhansa067/HHPCalc/forecast"
	"github.com/MKhansa067/HHPCalc/report"
	"github.com/MKhansa067/HHPCalc/scheduler"
	"github.com/MKhansa067/HHPCalc/store"
)

// MaxHorizon is the longest forecast the API will project.
const MaxHorizon = 365

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Defaults fill in calculation parameters a request leaves out.
type Defaults struct {
	MarginPercent     decimal.Decimal
	MonthlyProduction int
	Horizon           int

	// Location is the business time zone: "today" and the calendar day of
	// each sale are taken in it. Nil means local time.
	Location *time.Location
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     store.Store
	Scheduler *scheduler.Scheduler // optional; only feeds schedule info
	Defaults  Defaults

	logger *zap.Logger
	now    func() time.Time
}

// NewHandler creates a new handler with the given store.
func NewHandler(s store.Store, sched *scheduler.Scheduler, defaults Defaults, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaults.Horizon <= 0 {
		defaults.Horizon = forecast.DefaultHorizon
	}
	if defaults.Location == nil {
		defaults.Location = time.Local
	}
	return &Handler{
		Store:     s,
		Scheduler: sched,
		Defaults:  defaults,
		logger:    logger,
		now:       time.Now,
	}
}

// today is the current business day.
func (h *Handler) today() calendar.Day {
	return calendar.DayOf(h.now().In(h.Defaults.Location))
}

// Health reports that the server is up.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// MATERIAL HANDLERS
// =============================================================================

// ListMaterials returns all materials.
func (h *Handler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := h.Store.ListMaterials(r.Context())
	if err != nil {
		h.fail(w, "Failed to list materials", err)
		return
	}

	dtos := make([]MaterialDTO, len(materials))
	for i, m := range materials {
		dtos[i] = toMaterialDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetMaterial returns one material.
func (h *Handler) GetMaterial(w http.ResponseWriter, r *http.Request) {
	m, err := h.Store.GetMaterial(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Material not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toMaterialDTO(m))
}

// CreateMaterial adds a material to the catalog.
func (h *Handler) CreateMaterial(w http.ResponseWriter, r *http.Request) {
	h.saveMaterial(w, r, "", http.StatusCreated)
}

// UpdateMaterial replaces an existing material.
func (h *Handler) UpdateMaterial(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Store.GetMaterial(r.Context(), id); err != nil {
		h.fail(w, "Material not found", err)
		return
	}
	h.saveMaterial(w, r, id, http.StatusOK)
}

func (h *Handler) saveMaterial(w http.ResponseWriter, r *http.Request, id string, status int) {
	var req MaterialRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	m := req.toMaterial(id)
	if err := m.Validate(); err != nil {
		h.fail(w, "Invalid material", err)
		return
	}

	saved, err := h.Store.SaveMaterial(r.Context(), m)
	if err != nil {
		h.fail(w, "Failed to save material", err)
		return
	}
	writeJSON(w, status, toMaterialDTO(saved))
}

// DeleteMaterial removes a material. Recipes that use it keep a dangling
// reference, which costing treats as a zero contribution.
func (h *Handler) DeleteMaterial(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteMaterial(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "Failed to delete material", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PRODUCT HANDLERS
// =============================================================================

// ListProducts returns all products with their recipes.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Store.ListProducts(r.Context())
	if err != nil {
		h.fail(w, "Failed to list products", err)
		return
	}

	dtos := make([]ProductDTO, len(products))
	for i, p := range products {
		dtos[i] = toProductDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetProduct returns one product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Product not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

// CreateProduct adds a product and its recipe.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	h.saveProduct(w, r, "", http.StatusCreated)
}

// UpdateProduct replaces a product and its whole recipe.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Store.GetProduct(r.Context(), id); err != nil {
		h.fail(w, "Product not found", err)
		return
	}
	h.saveProduct(w, r, id, http.StatusOK)
}

func (h *Handler) saveProduct(w http.ResponseWriter, r *http.Request, id string, status int) {
	ctx := r.Context()

	var req ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p := req.toProduct(id)
	if err := p.Validate(); err != nil {
		h.fail(w, "Invalid product", err)
		return
	}

	// New recipes must reference materials that exist today.
	catalog, err := store.Catalog(ctx, h.Store)
	if err != nil {
		h.fail(w, "Failed to load materials", err)
		return
	}
	if missing := costing.UnresolvedIngredients(p, catalog); len(missing) > 0 {
		h.fail(w, "Invalid product", &costing.ValidationError{
			Field:   "ingredients.material_id",
			Message: "unknown material " + missing[0],
		})
		return
	}

	saved, err := h.Store.SaveProduct(ctx, p)
	if err != nil {
		h.fail(w, "Failed to save product", err)
		return
	}
	writeJSON(w, status, toProductDTO(saved))
}

// DeleteProduct removes a product and its recipe.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "Failed to delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HPP HANDLERS
// =============================================================================

// CalculateHPP computes the cost breakdown and suggested price of one unit.
func (h *Handler) CalculateHPP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CalculateHPPRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	product, err := h.Store.GetProduct(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Product not found", err)
		return
	}

	params := h.defaultParams()
	if req.MarginPercent != nil {
		params.MarginPercent = decimal.NewFromFloat(*req.MarginPercent)
	}
	if req.MonthlyProduction != nil {
		params.MonthlyProduction = *req.MonthlyProduction
	}
	if req.LaborMinutes != nil {
		minutes := decimal.NewFromFloat(*req.LaborMinutes)
		params.LaborMinutes = &minutes
	}
	if err := params.Validate(); err != nil {
		h.fail(w, "Invalid parameters", err)
		return
	}

	result, rate, err := h.calculate(ctx, product, params, req.LaborRateID)
	if err != nil {
		h.fail(w, "Failed to calculate HPP", err)
		return
	}
	writeJSON(w, http.StatusOK, toHPPResultDTO(result, rate))
}

func (h *Handler) defaultParams() costing.Params {
	return costing.Params{
		MarginPercent:     h.Defaults.MarginPercent,
		MonthlyProduction: h.Defaults.MonthlyProduction,
	}
}

// calculate loads the collaborators of one HPP calculation and runs it.
func (h *Handler) calculate(ctx context.Context, product costing.Product, params costing.Params, rateID string) (costing.HPPResult, costing.LaborRate, error) {
	catalog, err := store.Catalog(ctx, h.Store)
	if err != nil {
		return costing.HPPResult{}, costing.LaborRate{}, err
	}
	overheads, err := h.Store.ListOverheads(ctx)
	if err != nil {
		return costing.HPPResult{}, costing.LaborRate{}, err
	}
	rates, err := h.Store.ListLaborRates(ctx)
	if err != nil {
		return costing.HPPResult{}, costing.LaborRate{}, err
	}
	rate, err := costing.FindLaborRate(rates, rateID)
	if err != nil {
		return costing.HPPResult{}, costing.LaborRate{}, err
	}

	h.warnUnresolved(product, catalog)
	result, err := costing.CalculateHPP(product, catalog, overheads, rate, params)
	return result, rate, err
}

func (h *Handler) warnUnresolved(product costing.Product, catalog costing.Catalog) {
	if missing := costing.UnresolvedIngredients(product, catalog); len(missing) > 0 {
		h.logger.Warn("product references unknown materials",
			zap.String("product_id", product.ID),
			zap.Strings("material_ids", missing),
		)
	}
}

// =============================================================================
// FORECAST HANDLERS
// =============================================================================

// GetForecast projects demand for one product. current_stock defaults to
// the units the material stock can still produce.
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	horizon, err := h.horizonParam(r)
	if err != nil {
		h.fail(w, "Invalid horizon", err)
		return
	}

	product, err := h.Store.GetProduct(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Product not found", err)
		return
	}

	result, _, err := h.forecast(ctx, r, product, horizon)
	if err != nil {
		h.fail(w, "Failed to forecast demand", err)
		return
	}
	writeJSON(w, http.StatusOK, toForecastDTO(result))
}

func (h *Handler) forecast(ctx context.Context, r *http.Request, product costing.Product, horizon int) (forecast.Result, []forecast.Sale, error) {
	sales, err := h.Store.ListSalesByProduct(ctx, product.ID)
	if err != nil {
		return forecast.Result{}, nil, err
	}

	stock, ok, err := queryInt(r, "current_stock")
	if err != nil {
		return forecast.Result{}, nil, err
	}
	if ok && stock < 0 {
		return forecast.Result{}, nil, &costing.ValidationError{Field: "current_stock", Message: "must not be negative"}
	}
	if !ok {
		catalog, err := store.Catalog(ctx, h.Store)
		if err != nil {
			return forecast.Result{}, nil, err
		}
		h.warnUnresolved(product, catalog)
		stock = costing.ProducibleUnits(product, catalog)
	}

	sales = forecast.InLocation(sales, h.Defaults.Location)
	result := forecast.Demand(forecast.Input{
		ProductID:    product.ID,
		ProductName:  product.Name,
		Sales:        sales,
		Horizon:      horizon,
		CurrentStock: stock,
		Today:        h.today(),
		Location:     h.Defaults.Location,
	})
	return result, sales, nil
}

func (h *Handler) horizonParam(r *http.Request) (int, error) {
	horizon, ok, err := queryInt(r, "horizon")
	if err != nil {
		return 0, err
	}
	if !ok {
		return h.Defaults.Horizon, nil
	}
	if horizon < 1 || horizon > MaxHorizon {
		return 0, &costing.ValidationError{Field: "horizon", Message: fmt.Sprintf("must be between 1 and %d", MaxHorizon)}
	}
	return horizon, nil
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// ExportReport streams the XLSX cost report of one product, including its
// sales history and forecast.
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := h.defaultParams()
	if v := r.URL.Query().Get("margin_percent"); v != "" {
		margin, err := decimal.NewFromString(v)
		if err != nil {
			h.fail(w, "Invalid margin_percent", &costing.ValidationError{Field: "margin_percent", Message: "must be a number"})
			return
		}
		params.MarginPercent = margin
	}
	production, ok, err := queryInt(r, "monthly_production")
	if err != nil {
		h.fail(w, "Invalid monthly_production", err)
		return
	}
	if ok {
		params.MonthlyProduction = production
	}
	if err := params.Validate(); err != nil {
		h.fail(w, "Invalid parameters", err)
		return
	}
	horizon, err := h.horizonParam(r)
	if err != nil {
		h.fail(w, "Invalid horizon", err)
		return
	}

	product, err := h.Store.GetProduct(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Product not found", err)
		return
	}
	hpp, _, err := h.calculate(ctx, product, params, "")
	if err != nil {
		h.fail(w, "Failed to calculate HPP", err)
		return
	}
	fc, sales, err := h.forecast(ctx, r, product, horizon)
	if err != nil {
		h.fail(w, "Failed to forecast demand", err)
		return
	}
	period, _ := forecast.ObservedWindow(sales)

	f, err := report.Workbook(report.ExportData{
		HPP:      hpp,
		Sales:    sales,
		Forecast: &fc,
		Period:   period,
	})
	if err != nil {
		h.fail(w, "Failed to build report", err)
		return
	}
	defer f.Close()

	filename := report.FileName(product.Name, h.today())
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := f.Write(w); err != nil {
		h.logger.Error("failed to write report",
			zap.String("product_id", product.ID),
			zap.Error(err),
		)
	}
}

// =============================================================================
// OVERHEAD HANDLERS
// =============================================================================

// ListOverheads returns all overhead costs.
func (h *Handler) ListOverheads(w http.ResponseWriter, r *http.Request) {
	overheads, err := h.Store.ListOverheads(r.Context())
	if err != nil {
		h.fail(w, "Failed to list overheads", err)
		return
	}

	dtos := make([]OverheadDTO, len(overheads))
	for i, o := range overheads {
		dtos[i] = toOverheadDTO(o)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateOverhead adds an overhead cost.
func (h *Handler) CreateOverhead(w http.ResponseWriter, r *http.Request) {
	h.saveOverhead(w, r, "", http.StatusCreated)
}

// UpdateOverhead replaces an overhead cost.
func (h *Handler) UpdateOverhead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Store.GetOverhead(r.Context(), id); err != nil {
		h.fail(w, "Overhead not found", err)
		return
	}
	h.saveOverhead(w, r, id, http.StatusOK)
}

func (h *Handler) saveOverhead(w http.ResponseWriter, r *http.Request, id string, status int) {
	var req OverheadDTO
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	o := req.toOverhead(id)
	if err := o.Validate(); err != nil {
		h.fail(w, "Invalid overhead", err)
		return
	}

	saved, err := h.Store.SaveOverhead(r.Context(), o)
	if err != nil {
		h.fail(w, "Failed to save overhead", err)
		return
	}
	writeJSON(w, status, toOverheadDTO(saved))
}

// DeleteOverhead removes an overhead cost.
func (h *Handler) DeleteOverhead(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteOverhead(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "Failed to delete overhead", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// LABOR RATE HANDLERS
// =============================================================================

// ListLaborRates returns all labor rates.
func (h *Handler) ListLaborRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.Store.ListLaborRates(r.Context())
	if err != nil {
		h.fail(w, "Failed to list labor rates", err)
		return
	}

	dtos := make([]LaborRateDTO, len(rates))
	for i, rate := range rates {
		dtos[i] = toLaborRateDTO(rate)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateLaborRate adds a labor rate.
func (h *Handler) CreateLaborRate(w http.ResponseWriter, r *http.Request) {
	h.saveLaborRate(w, r, "", http.StatusCreated)
}

// UpdateLaborRate replaces a labor rate.
func (h *Handler) UpdateLaborRate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Store.GetLaborRate(r.Context(), id); err != nil {
		h.fail(w, "Labor rate not found", err)
		return
	}
	h.saveLaborRate(w, r, id, http.StatusOK)
}

func (h *Handler) saveLaborRate(w http.ResponseWriter, r *http.Request, id string, status int) {
	var req LaborRateDTO
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rate := req.toLaborRate(id)
	if err := rate.Validate(); err != nil {
		h.fail(w, "Invalid labor rate", err)
		return
	}

	saved, err := h.Store.SaveLaborRate(r.Context(), rate)
	if err != nil {
		h.fail(w, "Failed to save labor rate", err)
		return
	}
	writeJSON(w, status, toLaborRateDTO(saved))
}

// DeleteLaborRate removes a labor rate. The last remaining rate cannot be
// deleted, since HPP needs one to price labor.
func (h *Handler) DeleteLaborRate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.Store.DeleteLaborRateIfNotLast(r.Context(), id)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, store.ErrLastLaborRate):
		writeError(w, http.StatusConflict, "Cannot delete the last labor rate", nil)
	case store.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Labor rate not found", err)
	default:
		h.fail(w, "Failed to delete labor rate", err)
	}
}

// =============================================================================
// SALES HANDLERS
// =============================================================================

// ListSales returns the sales history, optionally for one product.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		sales []forecast.Sale
		err   error
	)
	if productID := r.URL.Query().Get("product_id"); productID != "" {
		sales, err = h.Store.ListSalesByProduct(ctx, productID)
	} else {
		sales, err = h.Store.ListSales(ctx)
	}
	if err != nil {
		h.fail(w, "Failed to list sales", err)
		return
	}

	dtos := make([]SaleDTO, len(sales))
	for i, s := range sales {
		dtos[i] = toSaleDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateSale records one sale of a known product.
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateSaleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	soldAt, err := parseSoldAt(req.SoldAt, h.now(), h.Defaults.Location)
	if err != nil {
		h.fail(w, "Invalid sale", err)
		return
	}
	sale := forecast.Sale{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		UnitPrice: decimal.NewFromFloat(req.UnitPrice),
		SoldAt:    soldAt,
	}
	if err := sale.Validate(); err != nil {
		h.fail(w, "Invalid sale", err)
		return
	}

	if _, err := h.Store.GetProduct(ctx, sale.ProductID); err != nil {
		if store.IsNotFound(err) {
			err = &costing.ValidationError{Field: "product_id", Message: "unknown product " + sale.ProductID}
		}
		h.fail(w, "Invalid sale", err)
		return
	}

	saved, err := h.Store.SaveSale(ctx, sale)
	if err != nil {
		h.fail(w, "Failed to save sale", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSaleDTO(saved))
}

// DeleteSale removes one sale.
func (h *Handler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteSale(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "Failed to delete sale", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GenerateDemoSales replaces the whole sales history with generated demo
// sales for every product. ?seed= makes the result reproducible.
func (h *Handler) GenerateDemoSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	seed := uint64(h.now().UnixNano())
	if v := r.URL.Query().Get("seed"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			h.fail(w, "Invalid seed", &costing.ValidationError{Field: "seed", Message: "must be a non-negative integer"})
			return
		}
		seed = parsed
	}

	products, err := h.Store.ListProducts(ctx)
	if err != nil {
		h.fail(w, "Failed to list products", err)
		return
	}

	sales := store.GenerateDemoSales(products, h.now().In(h.Defaults.Location), rand.New(rand.NewPCG(seed, seed)))
	if err := h.Store.ReplaceSales(ctx, sales); err != nil {
		h.fail(w, "Failed to replace sales", err)
		return
	}

	h.logger.Info("demo sales generated",
		zap.Int("sales", len(sales)),
		zap.Int("products", len(products)),
	)
	writeJSON(w, http.StatusOK, DemoSalesResponse{
		Generated: len(sales),
		Days:      store.DemoSalesDays,
		Products:  len(products),
	})
}

// =============================================================================
// RESTOCK & DASHBOARD HANDLERS
// =============================================================================

// GetRestock runs the restock check now and reports the products whose
// producible stock will not cover the forecast horizon.
func (h *Handler) GetRestock(w http.ResponseWriter, r *http.Request) {
	horizon, err := h.horizonParam(r)
	if err != nil {
		h.fail(w, "Invalid horizon", err)
		return
	}

	needs, checked, err := scheduler.CheckRestock(r.Context(), h.Store, horizon, h.today(), h.Defaults.Location, h.logger)
	if err != nil {
		h.fail(w, "Failed to check restock", err)
		return
	}

	resp := RestockResponse{
		Horizon: horizon,
		Checked: checked,
		Needs:   toRestockNeedDTOs(needs),
	}
	if h.Scheduler != nil {
		if next, ok := h.Scheduler.NextRun(); ok {
			resp.NextRun = formatTime(next)
		}
		if last, ok := h.Scheduler.LastRun(); ok {
			resp.LastRunAt = formatTime(last.CompletedAt)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetDashboard returns the headline figures. Average HPP and margin use the
// default parameters and labor rate; they are zero when no rate exists.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	products, err := h.Store.ListProducts(ctx)
	if err != nil {
		h.fail(w, "Failed to list products", err)
		return
	}
	materials, err := h.Store.ListMaterials(ctx)
	if err != nil {
		h.fail(w, "Failed to list materials", err)
		return
	}
	sales, err := h.Store.ListSales(ctx)
	if err != nil {
		h.fail(w, "Failed to list sales", err)
		return
	}
	overheads, err := h.Store.ListOverheads(ctx)
	if err != nil {
		h.fail(w, "Failed to list overheads", err)
		return
	}
	rates, err := h.Store.ListLaborRates(ctx)
	if err != nil {
		h.fail(w, "Failed to list labor rates", err)
		return
	}

	var results []costing.HPPResult
	if rate, err := costing.DefaultLaborRate(rates); err == nil {
		catalog := costing.NewCatalog(materials)
		params := h.defaultParams()
		for _, p := range products {
			result, err := costing.CalculateHPP(p, catalog, overheads, rate, params)
			if err != nil {
				h.fail(w, "Failed to calculate HPP", err)
				return
			}
			results = append(results, result)
		}
	}

	writeJSON(w, http.StatusOK, toDashboardDTO(report.Dashboard(products, materials, sales, results)))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message, Code: errorCode(status)}
	if err != nil {
		resp.Details = err.Error()
	}
	var verr *costing.ValidationError
	if errors.As(err, &verr) {
		resp.Details = map[string]string{"field": verr.Field, "message": verr.Message}
	}
	writeJSON(w, status, resp)
}

// fail maps a domain or store error to its HTTP status. Unexpected errors
// are logged and reported as 500.
func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	switch {
	case store.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case costing.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.logger.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	default:
		return "internal_error"
	}
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// decodeOptionalJSON accepts an empty body.
func decodeOptionalJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, key string) (int, bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, &costing.ValidationError{Field: key, Message: "must be an integer"}
	}
	return n, true, nil
}

// parseSoldAt accepts RFC3339 or YYYY-MM-DD; empty means now. A bare date
// is midnight in loc.
func parseSoldAt(s string, now time.Time, loc *time.Location) (time.Time, error) {
	if s == "" {
		return now, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	day, err := calendar.ParseDay(s)
	if err != nil {
		return time.Time{}, &costing.ValidationError{Field: "sold_at", Message: "must be RFC3339 or YYYY-MM-DD"}
	}
	t := day.Time()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}
