package seeders

import (
	"context"
	"errors"

	"github.com/adegaexpress/adega/app/repositories"
	"github.com/adegaexpress/adega/app/services"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type seedProduct struct {
	name       string
	cost, sale string
	stock      int
	prepared   bool
}

// menu is keyed by category, in the order categories are created.
var menu = []struct {
	category string
	products []seedProduct
}{
	{"Cervejas", []seedProduct{
		{name: "Original 600ml", cost: "6.20", sale: "11.00", stock: 48},
		{name: "Heineken Long Neck", cost: "4.90", sale: "9.00", stock: 72},
		{name: "Brahma Lata 350ml", cost: "2.80", sale: "5.50", stock: 120},
	}},
	{"Destilados", []seedProduct{
		{name: "Vodka Smirnoff 998ml", cost: "32.00", sale: "59.90", stock: 12},
		{name: "Cachaça 51 965ml", cost: "11.50", sale: "22.00", stock: 18},
	}},
	{"Refrigerantes", []seedProduct{
		{name: "Coca-Cola 2L", cost: "7.40", sale: "13.00", stock: 30},
		{name: "Guaraná Antarctica 2L", cost: "6.10", sale: "11.00", stock: 30},
	}},
	{"Gelo", []seedProduct{
		{name: "Gelo 5kg", cost: "6.00", sale: "12.00", stock: 25},
	}},
	{"Caipirinhas", []seedProduct{
		{name: "Caipirinha de Limão", cost: "4.00", sale: "15.00"},
		{name: "Caipiroska de Morango", cost: "5.50", sale: "18.00"},
	}},
	{"Petiscos", []seedProduct{
		{name: "Porção de Amendoim", cost: "3.00", sale: "8.00", stock: 40},
		{name: "Michelada da Casa", cost: "6.00", sale: "16.00", prepared: true},
	}},
}

func init() {
	Register("catalog", seedCatalog)
}

// seedCatalog goes through the catalog service so opening stock lands in
// the ledger as "initial stock".
func seedCatalog(ctx context.Context, db *gorm.DB) error {
	catalog := services.NewCatalogService(db, services.NewStockLedger(db), nil)
	categories := repositories.NewCategoryRepository(db)

	for _, section := range menu {
		if _, err := categories.FindByName(ctx, section.category); err == nil {
			continue
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}

		cat, err := catalog.CreateCategory(ctx, section.category)
		if err != nil {
			return err
		}
		for _, p := range section.products {
			stock := p.stock
			if _, err := catalog.CreateProduct(ctx, services.ProductInput{
				CategoryID: cat.ID,
				Name:       p.name,
				CostPrice:  decimal.RequireFromString(p.cost),
				SalePrice:  decimal.RequireFromString(p.sale),
				Stock:      &stock,
				IsPrepared: p.prepared,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}
