/*
Package sqlite provides a SQLite-backed implementation of store.Store.

PURPOSE:
  Persists the source records (materials, products, overheads, labor
  rates, sales) the costing and forecasting engines read. Computed HPP
  and forecast results are never stored.

KEY TABLES:
  materials:           Raw materials, price and stock
  products:            Recipes (one batch)
  product_ingredients: Recipe lines, ordered by position
  overheads:           Indirect costs and their allocation type
  labor_rates:         Hourly wages
  sales:               Sales history

ENCODING:
  - Decimals are stored as TEXT (decimal.String) so no precision is lost
  - Timestamps are stored as RFC3339 TEXT in UTC; second precision keeps
    lexical and chronological order identical

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.

MIGRATION:
  Schema is migrated with goose on New(). Migrations live in
  migrations/*.sql and are embedded in the binary.

USAGE:
  store, err := sqlite.New("./hpp.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - store/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/MKhansa067/HHPCalc/costing"
	"github.com/MKhansa067/HHPCalc/forecast"
	"github.com/MKhansa067/HHPCalc/store"
)

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ store.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// MATERIALS
// =============================================================================

const materialColumns = "id, name, unit, price_per_unit, stock_amount, updated_at"

func (s *Store) ListMaterials(ctx context.Context) ([]costing.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+materialColumns+" FROM materials ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to query materials: %w", err)
	}
	defer rows.Close()

	materials := []costing.Material{}
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

func (s *Store) GetMaterial(ctx context.Context, id string) (costing.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+materialColumns+" FROM materials WHERE id = ?", id)
	m, err := scanMaterial(row)
	if err == sql.ErrNoRows {
		return costing.Material{}, store.ErrNotFound
	}
	return m, err
}

func (s *Store) SaveMaterial(ctx context.Context, m costing.Material) (costing.Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m = store.PrepareMaterial(m, now())
	query := `
		INSERT INTO materials (` + materialColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			unit = excluded.unit,
			price_per_unit = excluded.price_per_unit,
			stock_amount = excluded.stock_amount,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		m.ID, m.Name, string(m.Unit),
		m.PricePerUnit.String(), m.StockAmount.String(),
		formatTime(m.UpdatedAt),
	)
	if err != nil {
		return costing.Material{}, fmt.Errorf("failed to save material: %w", err)
	}
	return m, nil
}

func (s *Store) DeleteMaterial(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteByID(ctx, s.db, "materials", id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMaterial(row scanner) (costing.Material, error) {
	var (
		m                  costing.Material
		unit               string
		price, stock, upAt string
	)
	if err := row.Scan(&m.ID, &m.Name, &unit, &price, &stock, &upAt); err != nil {
		if err == sql.ErrNoRows {
			return m, err
		}
		return m, fmt.Errorf("failed to scan material: %w", err)
	}
	m.Unit = costing.Unit(unit)

	var err error
	if m.PricePerUnit, err = parseDecimal("price_per_unit", price); err != nil {
		return m, err
	}
	if m.StockAmount, err = parseDecimal("stock_amount", stock); err != nil {
		return m, err
	}
	m.UpdatedAt = parseTime(upAt)
	return m, nil
}

// =============================================================================
// PRODUCTS
// =============================================================================

const productColumns = "id, name, description, yield_per_batch, labor_minutes, created_at, updated_at"

func (s *Store) ListProducts(ctx context.Context) ([]costing.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+productColumns+" FROM products ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	products := []costing.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	ingredients, err := s.ingredientsByProduct(ctx, s.db, "")
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].Ingredients = ingredients[products[i].ID]
	}
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (costing.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getProduct(ctx, s.db, id)
}

func (s *Store) getProduct(ctx context.Context, db execer, id string) (costing.Product, error) {
	row := db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return costing.Product{}, store.ErrNotFound
	}
	if err != nil {
		return costing.Product{}, err
	}

	ingredients, err := s.ingredientsByProduct(ctx, db, id)
	if err != nil {
		return costing.Product{}, err
	}
	p.Ingredients = ingredients[id]
	return p, nil
}

// SaveProduct upserts the product row and rewrites its ingredient lines in
// one transaction.
func (s *Store) SaveProduct(ctx context.Context, p costing.Product) (costing.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return costing.Product{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing *costing.Product
	if p.ID != "" {
		old, err := s.getProduct(ctx, tx, p.ID)
		switch {
		case err == nil:
			existing = &old
		case !store.IsNotFound(err):
			return costing.Product{}, err
		}
	}
	p = store.PrepareProduct(p, existing, now())

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			yield_per_batch = excluded.yield_per_batch,
			labor_minutes = excluded.labor_minutes,
			updated_at = excluded.updated_at
	`
	_, err = tx.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.YieldPerBatch, p.LaborMinutes.String(),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return costing.Product{}, fmt.Errorf("failed to save product: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM product_ingredients WHERE product_id = ?", p.ID); err != nil {
		return costing.Product{}, fmt.Errorf("failed to clear ingredients: %w", err)
	}
	for i, ing := range p.Ingredients {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO product_ingredients (id, product_id, material_id, quantity, position) VALUES (?, ?, ?, ?, ?)",
			ing.ID, p.ID, ing.MaterialID, ing.Quantity.String(), i,
		)
		if err != nil {
			return costing.Product{}, fmt.Errorf("failed to save ingredient: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return costing.Product{}, fmt.Errorf("failed to commit product: %w", err)
	}
	return p, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// product_ingredients rows go with it via ON DELETE CASCADE.
	return deleteByID(ctx, s.db, "products", id)
}

// ingredientsByProduct loads ingredient lines grouped by product, for one
// product or (productID == "") for all of them.
func (s *Store) ingredientsByProduct(ctx context.Context, db execer, productID string) (map[string][]costing.ProductIngredient, error) {
	query := "SELECT id, product_id, material_id, quantity FROM product_ingredients"
	var args []any
	if productID != "" {
		query += " WHERE product_id = ?"
		args = append(args, productID)
	}
	query += " ORDER BY product_id, position"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredients: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]costing.ProductIngredient)
	for rows.Next() {
		var (
			ing      costing.ProductIngredient
			owner    string
			quantity string
		)
		if err := rows.Scan(&ing.ID, &owner, &ing.MaterialID, &quantity); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		if ing.Quantity, err = parseDecimal("quantity", quantity); err != nil {
			return nil, err
		}
		result[owner] = append(result[owner], ing)
	}
	return result, rows.Err()
}

func scanProduct(row scanner) (costing.Product, error) {
	var (
		p                    costing.Product
		laborMinutes         string
		createdAt, updatedAt string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.YieldPerBatch, &laborMinutes, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return p, err
		}
		return p, fmt.Errorf("failed to scan product: %w", err)
	}
	if p.LaborMinutes, err = parseDecimal("labor_minutes", laborMinutes); err != nil {
		return p, err
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

// =============================================================================
// OVERHEADS
// =============================================================================

const overheadColumns = "id, name, amount, allocation_type"

func (s *Store) ListOverheads(ctx context.Context) ([]costing.Overhead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+overheadColumns+" FROM overheads ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to query overheads: %w", err)
	}
	defer rows.Close()

	overheads := []costing.Overhead{}
	for rows.Next() {
		o, err := scanOverhead(rows)
		if err != nil {
			return nil, err
		}
		overheads = append(overheads, o)
	}
	return overheads, rows.Err()
}

func (s *Store) GetOverhead(ctx context.Context, id string) (costing.Overhead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+overheadColumns+" FROM overheads WHERE id = ?", id)
	o, err := scanOverhead(row)
	if err == sql.ErrNoRows {
		return costing.Overhead{}, store.ErrNotFound
	}
	return o, err
}

func (s *Store) SaveOverhead(ctx context.Context, o costing.Overhead) (costing.Overhead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o = store.PrepareOverhead(o)
	query := `
		INSERT INTO overheads (` + overheadColumns + `)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			amount = excluded.amount,
			allocation_type = excluded.allocation_type
	`
	_, err := s.db.ExecContext(ctx, query, o.ID, o.Name, o.Amount.String(), string(o.AllocationType))
	if err != nil {
		return costing.Overhead{}, fmt.Errorf("failed to save overhead: %w", err)
	}
	return o, nil
}

func (s *Store) DeleteOverhead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteByID(ctx, s.db, "overheads", id)
}

func scanOverhead(row scanner) (costing.Overhead, error) {
	var (
		o             costing.Overhead
		amount, alloc string
	)
	if err := row.Scan(&o.ID, &o.Name, &amount, &alloc); err != nil {
		if err == sql.ErrNoRows {
			return o, err
		}
		return o, fmt.Errorf("failed to scan overhead: %w", err)
	}
	o.AllocationType = costing.AllocationType(alloc)

	var err error
	o.Amount, err = parseDecimal("amount", amount)
	return o, err
}

// =============================================================================
// LABOR RATES
// =============================================================================

const laborRateColumns = "id, name, wage_per_hour, is_default"

func (s *Store) ListLaborRates(ctx context.Context) ([]costing.LaborRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+laborRateColumns+" FROM labor_rates ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to query labor rates: %w", err)
	}
	defer rows.Close()

	rates := []costing.LaborRate{}
	for rows.Next() {
		r, err := scanLaborRate(rows)
		if err != nil {
			return nil, err
		}
		rates = append(rates, r)
	}
	return rates, rows.Err()
}

func (s *Store) GetLaborRate(ctx context.Context, id string) (costing.LaborRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+laborRateColumns+" FROM labor_rates WHERE id = ?", id)
	r, err := scanLaborRate(row)
	if err == sql.ErrNoRows {
		return costing.LaborRate{}, store.ErrNotFound
	}
	return r, err
}

func (s *Store) SaveLaborRate(ctx context.Context, r costing.LaborRate) (costing.LaborRate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r = store.PrepareLaborRate(r)
	query := `
		INSERT INTO labor_rates (` + laborRateColumns + `)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			wage_per_hour = excluded.wage_per_hour,
			is_default = excluded.is_default
	`
	_, err := s.db.ExecContext(ctx, query, r.ID, r.Name, r.WagePerHour.String(), r.IsDefault)
	if err != nil {
		return costing.LaborRate{}, fmt.Errorf("failed to save labor rate: %w", err)
	}
	return r, nil
}

func (s *Store) DeleteLaborRate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteByID(ctx, s.db, "labor_rates", id)
}

func (s *Store) DeleteLaborRateIfNotLast(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Count and delete in one statement.
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM labor_rates
		WHERE id = ? AND (SELECT COUNT(*) FROM labor_rates) > 1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete labor rate: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM labor_rates WHERE id = ?", id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check labor rate: %w", err)
	}
	if exists == 0 {
		return store.ErrNotFound
	}
	return store.ErrLastLaborRate
}

func scanLaborRate(row scanner) (costing.LaborRate, error) {
	var (
		r    costing.LaborRate
		wage string
	)
	if err := row.Scan(&r.ID, &r.Name, &wage, &r.IsDefault); err != nil {
		if err == sql.ErrNoRows {
			return r, err
		}
		return r, fmt.Errorf("failed to scan labor rate: %w", err)
	}
	var err error
	r.WagePerHour, err = parseDecimal("wage_per_hour", wage)
	return r, err
}

// =============================================================================
// SALES
// =============================================================================

const saleColumns = "id, product_id, quantity, unit_price, sold_at"

func (s *Store) ListSales(ctx context.Context) ([]forecast.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.querySales(ctx, "SELECT "+saleColumns+" FROM sales ORDER BY sold_at ASC, rowid ASC")
}

func (s *Store) ListSalesByProduct(ctx context.Context, productID string) ([]forecast.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.querySales(ctx,
		"SELECT "+saleColumns+" FROM sales WHERE product_id = ? ORDER BY sold_at ASC, rowid ASC",
		productID,
	)
}

func (s *Store) SaveSale(ctx context.Context, sale forecast.Sale) (forecast.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale = store.PrepareSale(sale)
	if err := insertSale(ctx, s.db, sale); err != nil {
		return forecast.Sale{}, err
	}
	return sale, nil
}

func (s *Store) DeleteSale(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteByID(ctx, s.db, "sales", id)
}

// ReplaceSales swaps the whole sales history in one transaction.
func (s *Store) ReplaceSales(ctx context.Context, sales []forecast.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM sales"); err != nil {
		return fmt.Errorf("failed to clear sales: %w", err)
	}
	for _, sale := range sales {
		if err := insertSale(ctx, tx, store.PrepareSale(sale)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertSale(ctx context.Context, db execer, sale forecast.Sale) error {
	query := `
		INSERT INTO sales (` + saleColumns + `)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			product_id = excluded.product_id,
			quantity = excluded.quantity,
			unit_price = excluded.unit_price,
			sold_at = excluded.sold_at
	`
	_, err := db.ExecContext(ctx, query,
		sale.ID, sale.ProductID, sale.Quantity, sale.UnitPrice.String(), formatTime(sale.SoldAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save sale: %w", err)
	}
	return nil
}

func (s *Store) querySales(ctx context.Context, query string, args ...any) ([]forecast.Sale, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	sales := []forecast.Sale{}
	for rows.Next() {
		var (
			sale          forecast.Sale
			price, soldAt string
		)
		if err := rows.Scan(&sale.ID, &sale.ProductID, &sale.Quantity, &price, &soldAt); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		if sale.UnitPrice, err = parseDecimal("unit_price", price); err != nil {
			return nil, err
		}
		sale.SoldAt = parseTime(soldAt)
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"product_ingredients", "products", "materials", "overheads", "labor_rates", "sales"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// deleteByID removes one row and reports store.ErrNotFound when nothing matched.
func deleteByID(ctx context.Context, db execer, table, id string) error {
	res, err := db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func parseDecimal(column, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal in %s: %w", column, err)
	}
	return d, nil
}
