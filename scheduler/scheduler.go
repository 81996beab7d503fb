/*
scheduler.go - Cron-driven restock check

PURPOSE:
  Periodically forecasts demand for every product and reports the ones
  whose producible stock will not cover the forecast horizon.

DESIGN:
  - robfig/cron runs the check on a five-field cron expression
  - Current stock for each product is what its material stock can still
    produce (costing.ProducibleUnits)
  - Each run gets its own timeout; the last run is kept for the API
  - Nothing is written back; the check only reads and logs

CONFIGURATION:
  - RESTOCK_CRON:     cron expression (default "0 6 * * *"), empty disables
  - FORECAST_HORIZON: days to project (default 7)
  - TIMEZONE:         location the cron expression is read in, and the
                      business day sales are bucketed in

USAGE:
  s := scheduler.New(store, cfg.Restock, logger)
  if err := s.Start(); err != nil { ... }
  defer s.Stop()

SEE ALSO:
  - forecast/forecast.go: Demand projection
  - api/handlers.go: GET /api/restock
*/
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/MKhansa067/HHPCalc/calendar"
	"github.com/MKhansa067/HHPCalc/config"
	"github.com/MKhansa067/HHPCalc/costing"
	"github.com/MKhansa067/HHPCalc/forecast"
	"github.com/MKhansa067/HHPCalc/store"
)

// RunTimeout bounds one scheduled check.
const RunTimeout = 2 * time.Minute

// RestockNeed is one product whose stock falls short of forecast demand.
type RestockNeed struct {
	ProductID          string
	ProductName        string
	CurrentStock       int
	TotalForecast      int
	RecommendedRestock int
	Trend              forecast.Trend
}

// Run records one completed check.
type Run struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Checked     int
	Needs       []RestockNeed
	Error       string
}

// Scheduler runs the restock check on a cron schedule.
type Scheduler struct {
	store    store.Store
	schedule string
	horizon  int
	location *time.Location
	logger   *zap.Logger

	cron *cron.Cron

	mu      sync.Mutex
	last    *Run
	entry   cron.EntryID
	started bool
}

// New creates a scheduler. It does nothing until Start is called.
func New(s store.Store, cfg config.RestockConfig, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	horizon := cfg.Horizon
	if horizon <= 0 {
		horizon = forecast.DefaultHorizon
	}
	loc := cfg.Location()

	return &Scheduler{
		store:    s,
		schedule: cfg.CronSchedule,
		horizon:  horizon,
		location: loc,
		logger:   logger,
		cron:     cron.New(cron.WithLocation(loc)),
	}
}

// Start registers the check and starts the cron loop. An empty schedule
// leaves the scheduler disabled.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("restock check disabled")
		return nil
	}

	id, err := s.cron.AddFunc(s.schedule, s.scheduledRun)
	if err != nil {
		return fmt.Errorf("invalid restock schedule %q: %w", s.schedule, err)
	}
	s.entry = id
	s.started = true
	s.cron.Start()

	s.logger.Info("starting scheduler",
		zap.String("schedule", s.schedule),
		zap.Int("horizon", s.horizon),
		zap.Time("next_run", s.cron.Entry(id).Next),
	)
	return nil
}

// Stop stops the cron loop and waits for a running check to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()

	if !started {
		return
	}
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// NextRun returns when the next scheduled check will occur.
func (s *Scheduler) NextRun() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return time.Time{}, false
	}
	return s.cron.Entry(s.entry).Next, true
}

// LastRun returns the most recent completed check.
func (s *Scheduler) LastRun() (Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Run{}, false
	}
	return *s.last, true
}

func (s *Scheduler) scheduledRun() {
	ctx, cancel := context.WithTimeout(context.Background(), RunTimeout)
	defer cancel()

	if _, err := s.RunNow(ctx); err != nil {
		s.logger.Error("restock check failed", zap.Error(err))
	}
}

// RunNow performs a check immediately (for testing/admin).
func (s *Scheduler) RunNow(ctx context.Context) (Run, error) {
	run := Run{StartedAt: time.Now()}
	today := calendar.DayOf(run.StartedAt.In(s.location))

	needs, checked, err := CheckRestock(ctx, s.store, s.horizon, today, s.location, s.logger)
	run.CompletedAt = time.Now()
	run.Checked = checked
	run.Needs = needs
	if err != nil {
		run.Error = err.Error()
	}

	s.mu.Lock()
	s.last = &run
	s.mu.Unlock()

	if err != nil {
		return run, err
	}

	for _, n := range needs {
		s.logger.Warn("product needs restock",
			zap.String("product_id", n.ProductID),
			zap.String("product", n.ProductName),
			zap.Int("current_stock", n.CurrentStock),
			zap.Int("forecast", n.TotalForecast),
			zap.Int("restock", n.RecommendedRestock),
			zap.String("trend", string(n.Trend)),
		)
	}
	s.logger.Info("restock check completed",
		zap.Int("checked", checked),
		zap.Int("needs_restock", len(needs)),
		zap.Duration("duration", run.CompletedAt.Sub(run.StartedAt)),
	)
	return run, nil
}

// CheckRestock forecasts every product over horizon days, using producible
// units as current stock, and returns the products that need restocking in
// catalog order together with the number of products checked. Sales are
// bucketed into days in loc.
func CheckRestock(ctx context.Context, s store.Store, horizon int, today calendar.Day, loc *time.Location, logger *zap.Logger) ([]RestockNeed, int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	catalog, err := store.Catalog(ctx, s)
	if err != nil {
		return nil, 0, fmt.Errorf("load materials: %w", err)
	}

	var needs []RestockNeed
	for i, p := range products {
		if err := ctx.Err(); err != nil {
			return needs, i, err
		}
		if missing := costing.UnresolvedIngredients(p, catalog); len(missing) > 0 {
			logger.Warn("product references unknown materials",
				zap.String("product_id", p.ID),
				zap.Strings("material_ids", missing),
			)
		}

		sales, err := s.ListSalesByProduct(ctx, p.ID)
		if err != nil {
			return needs, i, fmt.Errorf("list sales for %s: %w", p.ID, err)
		}

		result := forecast.Demand(forecast.Input{
			ProductID:    p.ID,
			ProductName:  p.Name,
			Sales:        sales,
			Horizon:      horizon,
			CurrentStock: costing.ProducibleUnits(p, catalog),
			Today:        today,
			Location:     loc,
		})
		if result.RecommendedRestock > 0 {
			needs = append(needs, RestockNeed{
				ProductID:          p.ID,
				ProductName:        p.Name,
				CurrentStock:       result.CurrentStock,
				TotalForecast:      result.TotalForecast,
				RecommendedRestock: result.RecommendedRestock,
				Trend:              result.Trend,
			})
		}
	}
	return needs, len(products), nil
}
