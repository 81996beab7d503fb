/*
Package store defines persistence for the source records the costing and
forecasting engines read: materials, products, overheads, labor rates
and sales.

PURPOSE:
  The engines never touch storage. Callers load records through these
  interfaces, hand them to costing.CalculateHPP or forecast.Demand, and
  persist nothing back. Results are always recomputed.

KEY INTERFACES:
  MaterialStore, ProductStore, OverheadStore, LaborRateStore, SaleStore
  Store: all of the above plus Reset

WRITE SEMANTICS:
  - Save* is an upsert keyed by ID; last write wins
  - An empty ID gets a fresh uuid
  - Material.UpdatedAt and Product.UpdatedAt are stamped on every save;
    Product.CreatedAt is kept from the stored record when one exists
  - Ingredient IDs are kept only when they belong to the stored product;
    any other ID is replaced, so a copied recipe saves as new lines
  - Sale.SoldAt is stored and returned in UTC at second precision
  - Delete* returns ErrNotFound for unknown IDs
  - DeleteLaborRateIfNotLast checks and deletes atomically and returns
    ErrLastLaborRate instead of removing the only rate

ORDERING:
  Materials, products, overheads and labor rates list in insertion order,
  which is the order costing.DefaultLaborRate falls back to. Sales list by
  SoldAt ascending.

IMPLEMENTATIONS:
  - store/memory: in-memory, for tests and development
  - store/sqlite: SQLite with goose migrations

SEE ALSO:
  - seed.go: demo catalog and demo sales
*/
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/MKhansa067/HHPCalc/costing"
	"github.com/MKhansa067/HHPCalc/forecast"
)

// ErrNotFound is returned when a record ID does not exist.
var ErrNotFound = errors.New("not found")

// ErrLastLaborRate is returned when deleting would leave no labor rate.
var ErrLastLaborRate = errors.New("cannot delete the last labor rate")

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// =============================================================================
// INTERFACES
// =============================================================================

type MaterialStore interface {
	ListMaterials(ctx context.Context) ([]costing.Material, error)
	GetMaterial(ctx context.Context, id string) (costing.Material, error)
	SaveMaterial(ctx context.Context, m costing.Material) (costing.Material, error)
	DeleteMaterial(ctx context.Context, id string) error
}

type ProductStore interface {
	ListProducts(ctx context.Context) ([]costing.Product, error)
	GetProduct(ctx context.Context, id string) (costing.Product, error)
	SaveProduct(ctx context.Context, p costing.Product) (costing.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type OverheadStore interface {
	ListOverheads(ctx context.Context) ([]costing.Overhead, error)
	GetOverhead(ctx context.Context, id string) (costing.Overhead, error)
	SaveOverhead(ctx context.Context, o costing.Overhead) (costing.Overhead, error)
	DeleteOverhead(ctx context.Context, id string) error
}

type LaborRateStore interface {
	ListLaborRates(ctx context.Context) ([]costing.LaborRate, error)
	GetLaborRate(ctx context.Context, id string) (costing.LaborRate, error)
	SaveLaborRate(ctx context.Context, r costing.LaborRate) (costing.LaborRate, error)
	DeleteLaborRate(ctx context.Context, id string) error

	// DeleteLaborRateIfNotLast deletes id unless it is the only labor rate
	// left, in which case it returns ErrLastLaborRate.
	DeleteLaborRateIfNotLast(ctx context.Context, id string) error
}

type SaleStore interface {
	ListSales(ctx context.Context) ([]forecast.Sale, error)
	ListSalesByProduct(ctx context.Context, productID string) ([]forecast.Sale, error)
	SaveSale(ctx context.Context, s forecast.Sale) (forecast.Sale, error)
	DeleteSale(ctx context.Context, id string) error

	// ReplaceSales atomically swaps the whole sales history.
	ReplaceSales(ctx context.Context, sales []forecast.Sale) error
}

// Store is the full persistence surface used by the API and scheduler.
type Store interface {
	MaterialStore
	ProductStore
	OverheadStore
	LaborRateStore
	SaleStore

	// Reset deletes every record.
	Reset(ctx context.Context) error
}

// =============================================================================
// HELPERS SHARED BY IMPLEMENTATIONS
// =============================================================================

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.NewString()
}

// PrepareMaterial assigns an ID if missing and stamps UpdatedAt.
func PrepareMaterial(m costing.Material, now time.Time) costing.Material {
	if m.ID == "" {
		m.ID = NewID()
	}
	m.UpdatedAt = now
	return m
}

// PrepareProduct assigns IDs to the product and its ingredients and stamps
// timestamps. existing is the stored record, if any. An ingredient keeps
// its ID only when existing already owns it.
func PrepareProduct(p costing.Product, existing *costing.Product, now time.Time) costing.Product {
	if p.ID == "" {
		p.ID = NewID()
	}
	owned := make(map[string]bool)
	if existing != nil {
		for _, ing := range existing.Ingredients {
			owned[ing.ID] = true
		}
	}
	ingredients := make([]costing.ProductIngredient, len(p.Ingredients))
	for i, ing := range p.Ingredients {
		if !owned[ing.ID] {
			ing.ID = NewID()
		}
		// Each owned ID is used once.
		delete(owned, ing.ID)
		ingredients[i] = ing
	}
	p.Ingredients = ingredients

	p.CreatedAt = now
	if existing != nil && !existing.CreatedAt.IsZero() {
		p.CreatedAt = existing.CreatedAt
	}
	p.UpdatedAt = now
	return p
}

func PrepareOverhead(o costing.Overhead) costing.Overhead {
	if o.ID == "" {
		o.ID = NewID()
	}
	return o
}

func PrepareLaborRate(r costing.LaborRate) costing.LaborRate {
	if r.ID == "" {
		r.ID = NewID()
	}
	return r
}

// PrepareSale assigns an ID if missing and normalizes SoldAt to UTC at
// second precision, the form every store returns it in.
func PrepareSale(s forecast.Sale) forecast.Sale {
	if s.ID == "" {
		s.ID = NewID()
	}
	s.SoldAt = s.SoldAt.UTC().Truncate(time.Second)
	return s
}

// Catalog loads every material into a costing.Catalog.
func Catalog(ctx context.Context, s MaterialStore) (costing.Catalog, error) {
	materials, err := s.ListMaterials(ctx)
	if err != nil {
		return nil, err
	}
	return costing.NewCatalog(materials), nil
}
