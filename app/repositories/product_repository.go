package repositories

import (
	"context"

	"github.com/adegaexpress/adega/app/models"
	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) WithTx(tx *gorm.DB) *ProductRepository {
	return &ProductRepository{db: tx}
}

func (r *ProductRepository) Find(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&p, id).Error; err != nil {
		return nil, notFound(err, "product", id)
	}
	return &p, nil
}

// FindForUpdate locks the product row; used by the stock ledger.
func (r *ProductRepository) FindForUpdate(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := forUpdate(r.db.WithContext(ctx)).Preload("Category").First(&p, id).Error; err != nil {
		return nil, notFound(err, "product", id)
	}
	return &p, nil
}

// FindMany returns the products keyed by id. Missing ids are absent.
func (r *ProductRepository) FindMany(ctx context.Context, ids []uint) (map[uint]*models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Preload("Category").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]*models.Product, len(products))
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

func (r *ProductRepository) List(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Preload("Category").Order("name")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var products []models.Product
	return products, q.Find(&products).Error
}

// Create inserts p with stock forced to zero; opening stock goes through
// the ledger afterwards.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	p.Stock = 0
	return r.db.WithContext(ctx).Omit("Category").Create(p).Error
}

// UpdateDetails writes every catalog column except stock.
func (r *ProductRepository) UpdateDetails(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Model(p).
		Select("category_id", "name", "cost_price", "sale_price", "is_prepared", "active").
		Updates(map[string]interface{}{
			"category_id": p.CategoryID,
			"name":        p.Name,
			"cost_price":  p.CostPrice,
			"sale_price":  p.SalePrice,
			"is_prepared": p.IsPrepared,
			"active":      p.Active,
		}).Error
}

// SetStock is reserved for the stock ledger.
func (r *ProductRepository) SetStock(ctx context.Context, id uint, stock int) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Update("stock", stock).Error
}

func (r *ProductRepository) CountByCategory(ctx context.Context, categoryID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("category_id = ?", categoryID).Count(&n).Error
	return n, err
}
