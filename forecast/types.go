/*
Package forecast projects near-term daily demand for a product from its
sales history and turns it into a restock recommendation.

PURPOSE:
  A moving-average-with-trend projection that stays sensible on sparse
  data. Like the costing engine, it is a pure function over its input:
  it reads the sales it is handed, never a store, and is safe to call
  concurrently.

KEY CONCEPTS IN THIS FILE (types.go):
  - Sale:          One recorded sale of a product
  - Trend:         up / down / stable classification of recent demand
  - DailyForecast: Projected quantity for one future calendar day
  - Result:        The full projection and restock recommendation

SEE ALSO:
  - forecast.go: Bucketing, trend and projection
  - calendar/:   Day arithmetic
*/
package forecast

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MKhansa067/HHPCalc/calendar"
	"github.com/MKhansa067/HHPCalc/costing"
)

// TrendThresholdPercent separates "up"/"down" from "stable". A change of
// recent demand against early demand must exceed this many percent.
const TrendThresholdPercent = 5.0

// DefaultHorizon is the projection length used when none is given.
const DefaultHorizon = 7

type Sale struct {
	ID        string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
	SoldAt    time.Time
}

// Revenue returns Quantity × UnitPrice.
func (s Sale) Revenue() decimal.Decimal {
	return s.UnitPrice.Mul(decimal.NewFromInt(int64(s.Quantity)))
}

func (s Sale) Validate() error {
	if strings.TrimSpace(s.ProductID) == "" {
		return &costing.ValidationError{Field: "product_id", Message: "must not be empty"}
	}
	if s.Quantity <= 0 {
		return &costing.ValidationError{Field: "quantity", Message: "must be positive"}
	}
	if s.UnitPrice.IsNegative() {
		return &costing.ValidationError{Field: "unit_price", Message: "must not be negative"}
	}
	if s.SoldAt.IsZero() {
		return &costing.ValidationError{Field: "sold_at", Message: "must be set"}
	}
	return nil
}

type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

type DailyForecast struct {
	Date     calendar.Day
	Quantity int
}

// Input is everything one projection needs.
type Input struct {
	ProductID   string
	ProductName string

	// Sales of this product. Sales carrying another ProductID are ignored.
	Sales []Sale

	// Horizon is the number of future days to project. Values <= 0 project nothing.
	Horizon int

	CurrentStock int

	// Today anchors the projection when there is no sales history.
	// Zero means calendar.Today().
	Today calendar.Day

	// Location is the business time zone sales are bucketed in. Nil keeps
	// each timestamp's own zone.
	Location *time.Location
}

type Result struct {
	ProductID          string
	ProductName        string
	Horizon            int
	DailyForecast      []DailyForecast
	TotalForecast      int
	CurrentStock       int
	RecommendedRestock int
	AverageDailySales  float64
	Trend              Trend
	TrendPercent       float64
}
