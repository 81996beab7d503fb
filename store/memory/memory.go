// Package memory provides an in-memory store.Store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MKhansa067/HHPCalc/costing"
	"github.com/MKhansa067/HHPCalc/forecast"
	"github.com/MKhansa067/HHPCalc/store"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu sync.RWMutex

	materials  table[costing.Material]
	products   table[costing.Product]
	overheads  table[costing.Overhead]
	laborRates table[costing.LaborRate]

	// sales is kept sorted by SoldAt.
	sales []forecast.Sale

	now func() time.Time
}

var _ store.Store = (*Memory)(nil)

func New() *Memory {
	m := &Memory{now: func() time.Time { return time.Now().UTC() }}
	m.resetLocked()
	return m
}

func (m *Memory) resetLocked() {
	m.materials = newTable[costing.Material]()
	m.products = newTable[costing.Product]()
	m.overheads = newTable[costing.Overhead]()
	m.laborRates = newTable[costing.LaborRate]()
	m.sales = nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
	return nil
}

// =============================================================================
// TABLE - Records keyed by ID, listed in insertion order
// =============================================================================

type table[T any] struct {
	rows  map[string]T
	order []string
}

func newTable[T any]() table[T] {
	return table[T]{rows: make(map[string]T)}
}

func (t *table[T]) list() []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.rows[id])
	}
	return out
}

func (t *table[T]) get(id string) (T, bool) {
	v, ok := t.rows[id]
	return v, ok
}

func (t *table[T]) put(id string, v T) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = v
}

func (t *table[T]) remove(id string) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// =============================================================================
// MATERIALS
// =============================================================================

func (m *Memory) ListMaterials(_ context.Context) ([]costing.Material, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.materials.list(), nil
}

func (m *Memory) GetMaterial(_ context.Context, id string) (costing.Material, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.materials.get(id)
	if !ok {
		return costing.Material{}, store.ErrNotFound
	}
	return v, nil
}

func (m *Memory) SaveMaterial(_ context.Context, v costing.Material) (costing.Material, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v = store.PrepareMaterial(v, m.now())
	m.materials.put(v.ID, v)
	return v, nil
}

func (m *Memory) DeleteMaterial(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.materials.remove(id) {
		return store.ErrNotFound
	}
	return nil
}

// =============================================================================
// PRODUCTS
// =============================================================================

// Products are copied on the way in and out so callers never share the
// ingredient slice with the store.
func cloneProduct(p costing.Product) costing.Product {
	p.Ingredients = append([]costing.ProductIngredient(nil), p.Ingredients...)
	return p
}

func (m *Memory) ListProducts(_ context.Context) ([]costing.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	products := m.products.list()
	for i := range products {
		products[i] = cloneProduct(products[i])
	}
	return products, nil
}

func (m *Memory) GetProduct(_ context.Context, id string) (costing.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.products.get(id)
	if !ok {
		return costing.Product{}, store.ErrNotFound
	}
	return cloneProduct(v), nil
}

func (m *Memory) SaveProduct(_ context.Context, v costing.Product) (costing.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var existing *costing.Product
	if old, ok := m.products.get(v.ID); ok {
		existing = &old
	}
	v = store.PrepareProduct(v, existing, m.now())
	m.products.put(v.ID, cloneProduct(v))
	return v, nil
}

func (m *Memory) DeleteProduct(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.products.remove(id) {
		return store.ErrNotFound
	}
	return nil
}

// =============================================================================
// OVERHEADS
// =============================================================================

func (m *Memory) ListOverheads(_ context.Context) ([]costing.Overhead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.overheads.list(), nil
}

func (m *Memory) GetOverhead(_ context.Context, id string) (costing.Overhead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.overheads.get(id)
	if !ok {
		return costing.Overhead{}, store.ErrNotFound
	}
	return v, nil
}

func (m *Memory) SaveOverhead(_ context.Context, v costing.Overhead) (costing.Overhead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v = store.PrepareOverhead(v)
	m.overheads.put(v.ID, v)
	return v, nil
}

func (m *Memory) DeleteOverhead(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.overheads.remove(id) {
		return store.ErrNotFound
	}
	return nil
}

// =============================================================================
// LABOR RATES
// =============================================================================

func (m *Memory) ListLaborRates(_ context.Context) ([]costing.LaborRate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.laborRates.list(), nil
}

func (m *Memory) GetLaborRate(_ context.Context, id string) (costing.LaborRate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.laborRates.get(id)
	if !ok {
		return costing.LaborRate{}, store.ErrNotFound
	}
	return v, nil
}

func (m *Memory) SaveLaborRate(_ context.Context, v costing.LaborRate) (costing.LaborRate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v = store.PrepareLaborRate(v)
	m.laborRates.put(v.ID, v)
	return v, nil
}

func (m *Memory) DeleteLaborRate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.laborRates.remove(id) {
		return store.ErrNotFound
	}
	return nil
}

func (m *Memory) DeleteLaborRateIfNotLast(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.laborRates.get(id); !ok {
		return store.ErrNotFound
	}
	if len(m.laborRates.order) <= 1 {
		return store.ErrLastLaborRate
	}
	m.laborRates.remove(id)
	return nil
}

// =============================================================================
// SALES
// =============================================================================

func (m *Memory) ListSales(_ context.Context) ([]forecast.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]forecast.Sale, len(m.sales))
	copy(result, m.sales)
	return result, nil
}

func (m *Memory) ListSalesByProduct(_ context.Context, productID string) ([]forecast.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []forecast.Sale
	for _, s := range m.sales {
		if s.ProductID == productID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *Memory) SaveSale(_ context.Context, v forecast.Sale) (forecast.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v = store.PrepareSale(v)
	m.removeSaleLocked(v.ID)
	m.insertSaleLocked(v)
	return v, nil
}

func (m *Memory) DeleteSale(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.removeSaleLocked(id) {
		return store.ErrNotFound
	}
	return nil
}

func (m *Memory) ReplaceSales(_ context.Context, sales []forecast.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales = nil
	for _, s := range sales {
		m.insertSaleLocked(store.PrepareSale(s))
	}
	return nil
}

func (m *Memory) insertSaleLocked(s forecast.Sale) {
	// Binary search for insertion point; equal timestamps keep arrival order.
	i := sort.Search(len(m.sales), func(i int) bool {
		return m.sales[i].SoldAt.After(s.SoldAt)
	})
	m.sales = append(m.sales, forecast.Sale{})
	copy(m.sales[i+1:], m.sales[i:])
	m.sales[i] = s
}

func (m *Memory) removeSaleLocked(id string) bool {
	for i, s := range m.sales {
		if s.ID == id {
			m.sales = append(m.sales[:i], m.sales[i+1:]...)
			return true
		}
	}
	return false
}
