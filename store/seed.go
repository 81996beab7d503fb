package store

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MKhansa067/HHPCalc/calendar"
	"github.com/MKhansa067/HHPCalc/costing"
	"github.com/MKhansa067/HHPCalc/forecast"
)

// =============================================================================
// DEMO CATALOG
// =============================================================================

// Material prices are per gram, millilitre or piece so recipe quantities
// can be entered in the same unit.
var seedMaterials = []costing.Material{
	{Name: "Tepung Terigu", Unit: costing.UnitGram, PricePerUnit: decimal.NewFromInt(12), StockAmount: decimal.NewFromInt(50000)},
	{Name: "Gula Pasir", Unit: costing.UnitGram, PricePerUnit: decimal.NewFromInt(15), StockAmount: decimal.NewFromInt(30000)},
	{Name: "Telur", Unit: costing.UnitPiece, PricePerUnit: decimal.NewFromInt(2500), StockAmount: decimal.NewFromInt(200)},
	{Name: "Mentega", Unit: costing.UnitGram, PricePerUnit: decimal.NewFromInt(80), StockAmount: decimal.NewFromInt(5000)},
	{Name: "Susu UHT", Unit: costing.UnitMilliliter, PricePerUnit: decimal.NewFromInt(20), StockAmount: decimal.NewFromInt(10000)},
	{Name: "Cokelat Bubuk", Unit: costing.UnitGram, PricePerUnit: decimal.NewFromInt(150), StockAmount: decimal.NewFromInt(2000)},
	{Name: "Vanili", Unit: costing.UnitGram, PricePerUnit: decimal.NewFromInt(500), StockAmount: decimal.NewFromInt(500)},
	{Name: "Baking Powder", Unit: costing.UnitGram, PricePerUnit: decimal.NewFromInt(100), StockAmount: decimal.NewFromInt(1000)},
}

var seedOverheads = []costing.Overhead{
	{Name: "Listrik & Gas", Amount: decimal.NewFromInt(500000), AllocationType: costing.AllocationFixed},
	{Name: "Sewa Tempat", Amount: decimal.NewFromInt(2000000), AllocationType: costing.AllocationFixed},
	{Name: "Packaging", Amount: decimal.NewFromInt(500), AllocationType: costing.AllocationPerUnit},
}

var seedLaborRates = []costing.LaborRate{
	{Name: "Baker", WagePerHour: decimal.NewFromInt(25000), IsDefault: true},
	{Name: "Helper", WagePerHour: decimal.NewFromInt(15000)},
}

type seedIngredient struct {
	material string
	quantity int64
}

type seedProduct struct {
	name         string
	description  string
	yield        int
	laborMinutes int64
	ingredients  []seedIngredient
}

var seedProducts = []seedProduct{
	{
		name:         "Brownies Coklat",
		description:  "Brownies coklat premium dengan topping almond",
		yield:        12,
		laborMinutes: 45,
		ingredients: []seedIngredient{
			{"Tepung Terigu", 250}, {"Gula Pasir", 200}, {"Telur", 4}, {"Mentega", 150}, {"Cokelat Bubuk", 100},
		},
	},
	{
		name:         "Kue Bolu Vanilla",
		description:  "Kue bolu lembut dengan aroma vanilla",
		yield:        8,
		laborMinutes: 60,
		ingredients: []seedIngredient{
			{"Tepung Terigu", 300}, {"Gula Pasir", 250}, {"Telur", 5}, {"Mentega", 200},
			{"Susu UHT", 200}, {"Vanili", 5}, {"Baking Powder", 10},
		},
	},
	{
		name:         "Cookies Choco Chip",
		description:  "Cookies renyah dengan choco chip",
		yield:        24,
		laborMinutes: 30,
		ingredients: []seedIngredient{
			{"Tepung Terigu", 200}, {"Gula Pasir", 100}, {"Telur", 2}, {"Mentega", 120}, {"Cokelat Bubuk", 50},
		},
	},
}

// Seed fills every empty collection with the demo catalog. Collections that
// already hold records are left alone. Products are seeded only when every
// material they reference exists by name.
func Seed(ctx context.Context, s Store) error {
	materials, err := s.ListMaterials(ctx)
	if err != nil {
		return fmt.Errorf("list materials: %w", err)
	}
	if len(materials) == 0 {
		for _, m := range seedMaterials {
			saved, err := s.SaveMaterial(ctx, m)
			if err != nil {
				return fmt.Errorf("seed material %s: %w", m.Name, err)
			}
			materials = append(materials, saved)
		}
	}

	overheads, err := s.ListOverheads(ctx)
	if err != nil {
		return fmt.Errorf("list overheads: %w", err)
	}
	if len(overheads) == 0 {
		for _, o := range seedOverheads {
			if _, err := s.SaveOverhead(ctx, o); err != nil {
				return fmt.Errorf("seed overhead %s: %w", o.Name, err)
			}
		}
	}

	rates, err := s.ListLaborRates(ctx)
	if err != nil {
		return fmt.Errorf("list labor rates: %w", err)
	}
	if len(rates) == 0 {
		for _, r := range seedLaborRates {
			if _, err := s.SaveLaborRate(ctx, r); err != nil {
				return fmt.Errorf("seed labor rate %s: %w", r.Name, err)
			}
		}
	}

	products, err := s.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	if len(products) > 0 {
		return nil
	}

	byName := make(map[string]string, len(materials))
	for _, m := range materials {
		byName[m.Name] = m.ID
	}
	for _, sp := range seedProducts {
		p, ok := sp.build(byName)
		if !ok {
			continue
		}
		if _, err := s.SaveProduct(ctx, p); err != nil {
			return fmt.Errorf("seed product %s: %w", sp.name, err)
		}
	}
	return nil
}

func (sp seedProduct) build(materialIDs map[string]string) (costing.Product, bool) {
	p := costing.Product{
		Name:          sp.name,
		Description:   sp.description,
		YieldPerBatch: sp.yield,
		LaborMinutes:  decimal.NewFromInt(sp.laborMinutes),
	}
	for _, ing := range sp.ingredients {
		id, ok := materialIDs[ing.material]
		if !ok {
			return costing.Product{}, false
		}
		p.Ingredients = append(p.Ingredients, costing.ProductIngredient{
			MaterialID: id,
			Quantity:   decimal.NewFromInt(ing.quantity),
		})
	}
	return p, true
}

// =============================================================================
// DEMO SALES
// =============================================================================

// DemoSalesDays is the number of days of history GenerateDemoSales produces,
// ending with now's own day.
const DemoSalesDays = 91

// GenerateDemoSales builds a sales history for every product with a weekly
// pattern: 8 units base on weekends, 5 on weekdays, plus 0-9 extra, at a
// unit price between 15000 and 19999. The same rng seed yields the same
// quantities and prices.
func GenerateDemoSales(products []costing.Product, now time.Time, rng *rand.Rand) []forecast.Sale {
	if len(products) == 0 {
		return nil
	}
	sales := make([]forecast.Sale, 0, DemoSalesDays*len(products))
	for i := DemoSalesDays - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i)
		base := 5
		if calendar.DayOf(date).IsWeekend() {
			base = 8
		}
		for _, p := range products {
			sales = append(sales, forecast.Sale{
				ID:        NewID(),
				ProductID: p.ID,
				Quantity:  base + rng.IntN(10),
				UnitPrice: decimal.NewFromInt(int64(15000 + rng.IntN(5000))),
				SoldAt:    date,
			})
		}
	}
	return sales
}
