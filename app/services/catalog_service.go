package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/adegaexpress/adega/app/models"
	"github.com/adegaexpress/adega/app/repositories"
	"github.com/adegaexpress/adega/pkg/cache"
	"github.com/adegaexpress/adega/pkg/logger"
	"github.com/adegaexpress/adega/pkg/orm"
	"github.com/adegaexpress/adega/pkg/validate"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	activeProductsKey = "products:active"
	productsCacheTTL  = 10 * time.Minute
)

const (
	ReasonInitialStock = "initial stock"
	ReasonCatalogEdit  = "catalog edit"
	ReasonConsumption  = "ingredient consumption"
	ReasonManual       = "manual adjustment"
)

type ProductInput struct {
	CategoryID uint            `json:"categoryId" validate:"required"`
	Name       string          `json:"name"       validate:"required,max=255"`
	CostPrice  decimal.Decimal `json:"costPrice"  validate:"gte=0"`
	SalePrice  decimal.Decimal `json:"salePrice"  validate:"gte=0"`
	Stock      *int            `json:"stock"      validate:"nullable,gte=0,max=1000000"`
	IsPrepared bool            `json:"isPrepared"`
	Active     *bool           `json:"active"`
}

// CatalogService manages categories and products. Stock always moves
// through the ledger.
type CatalogService struct {
	db         *gorm.DB
	categories *repositories.CategoryRepository
	products   *repositories.ProductRepository
	ledger     *StockLedger
	cache      cache.Store
}

func NewCatalogService(db *gorm.DB, ledger *StockLedger, store cache.Store) *CatalogService {
	if store == nil {
		store = cache.Nop{}
	}
	return &CatalogService{
		db:         db,
		categories: repositories.NewCategoryRepository(db),
		products:   repositories.NewProductRepository(db),
		ledger:     ledger,
		cache:      store,
	}
}

// StockChanged drops the cached product list.
func (s *CatalogService) StockChanged(ctx context.Context, _ []StockChange) {
	s.invalidate(ctx)
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if err := s.cache.Del(ctx, activeProductsKey); err != nil {
		logger.WithCtx(ctx).Warn("catalog: cache invalidation failed", "error", err)
	}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.categories.List(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("category name is required")
	}
	if _, err := s.categories.FindByName(ctx, name); err == nil {
		return nil, invalidInput("category %q already exists", name)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	c := &models.Category{Name: name}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCategory refuses while products still point at the category.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	c, err := s.categories.Find(ctx, id)
	if err != nil {
		return err
	}
	n, err := s.products.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return precondition("category %q still has %d products", c.Name, n)
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// ListProducts serves the active list from cache; the full list is always
// read from the database.
func (s *CatalogService) ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	load := func(out *[]models.Product) func() error {
		return func() error {
			list, err := s.products.List(ctx, activeOnly)
			if err != nil {
				return err
			}
			*out = withExemption(list)
			return nil
		}
	}

	var products []models.Product
	if !activeOnly {
		return products, load(&products)()
	}
	err := orm.Remember(ctx, s.cache, activeProductsKey, productsCacheTTL, &products, load(&products))
	return products, err
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.products.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	p.StockExempt = IsStockExempt(p)
	return p, nil
}

// CreateProduct inserts the product and books any opening stock as an
// "initial stock" ledger entry.
func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if errs := validate.Struct(in); len(errs) > 0 {
		return nil, invalidInput("%s", joinErrors(errs))
	}
	if _, err := s.categories.Find(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	p := &models.Product{
		CategoryID: in.CategoryID,
		Name:       strings.TrimSpace(in.Name),
		CostPrice:  in.CostPrice.Round(2),
		SalePrice:  in.SalePrice.Round(2),
		IsPrepared: in.IsPrepared,
		Active:     in.Active == nil || *in.Active,
	}

	var changes []StockChange
	err := orm.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := s.products.WithTx(tx).Create(ctx, p); err != nil {
			return err
		}
		if in.Stock != nil && *in.Stock > 0 {
			change, err := s.ledger.ApplyDeltaTx(ctx, tx, p.ID, *in.Stock, ReasonInitialStock)
			if err != nil {
				return err
			}
			changes = append(changes, change)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.ledger.Notify(ctx, changes...)
	s.invalidate(ctx)
	return s.GetProduct(ctx, p.ID)
}

// UpdateProduct rewrites catalog fields. A changed stock value is booked as
// a "catalog edit" for the difference.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	if errs := validate.Struct(in); len(errs) > 0 {
		return nil, invalidInput("%s", joinErrors(errs))
	}
	if _, err := s.categories.Find(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	var changes []StockChange
	err := orm.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		p, err := products.FindForUpdate(ctx, id)
		if err != nil {
			return err
		}

		p.CategoryID = in.CategoryID
		p.Name = strings.TrimSpace(in.Name)
		p.CostPrice = in.CostPrice.Round(2)
		p.SalePrice = in.SalePrice.Round(2)
		p.IsPrepared = in.IsPrepared
		if in.Active != nil {
			p.Active = *in.Active
		}
		if err := products.UpdateDetails(ctx, p); err != nil {
			return err
		}

		if in.Stock != nil && *in.Stock != p.Stock {
			change, err := s.ledger.ApplyDeltaTx(ctx, tx, p.ID, *in.Stock-p.Stock, ReasonCatalogEdit)
			if err != nil {
				return err
			}
			changes = append(changes, change)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.ledger.Notify(ctx, changes...)
	s.invalidate(ctx)
	return s.GetProduct(ctx, id)
}

// AdjustStock books a manual correction. Exempt products may be adjusted.
func (s *CatalogService) AdjustStock(ctx context.Context, id uint, delta int, reason string) (*models.StockLogEntry, error) {
	if delta == 0 {
		return nil, invalidInput("delta must not be zero")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = ReasonManual
	}
	return s.ledger.ApplyDelta(ctx, id, delta, reason)
}

// ConsumeIngredient deducts stock used to prepare drinks.
func (s *CatalogService) ConsumeIngredient(ctx context.Context, id uint, quantity int, note string) (*models.StockLogEntry, error) {
	if quantity <= 0 {
		return nil, invalidInput("quantity must be greater than 0")
	}
	reason := ReasonConsumption
	if note = strings.TrimSpace(note); note != "" {
		reason += ": " + note
	}
	return s.ledger.ApplyDelta(ctx, id, -quantity, reason)
}

func (s *CatalogService) StockHistory(ctx context.Context, id uint, limit int) ([]models.StockLogEntry, error) {
	if limit <= 0 || limit > orm.MaxLimit {
		limit = orm.DefaultLimit
	}
	return s.ledger.History(ctx, id, limit)
}

func withExemption(list []models.Product) []models.Product {
	for i := range list {
		list[i].StockExempt = IsStockExempt(&list[i])
	}
	return list
}
