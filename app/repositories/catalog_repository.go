package repositories

import (
	"context"

	"github.com/adegaexpress/adega/app/models"
	"gorm.io/gorm"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Find(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err, "category", id)
	}
	return &c, nil
}

func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*models.Category, error) {
	var c models.Category
	if err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&c).Error; err != nil {
		return nil, notFound(err, "category", name)
	}
	return &c, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	return out, r.db.WithContext(ctx).Order("name").Find(&out).Error
}

func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CategoryRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Category{}, id).Error
}

type CourierRepository struct {
	db *gorm.DB
}

func NewCourierRepository(db *gorm.DB) *CourierRepository {
	return &CourierRepository{db: db}
}

func (r *CourierRepository) WithTx(tx *gorm.DB) *CourierRepository {
	return &CourierRepository{db: tx}
}

func (r *CourierRepository) Find(ctx context.Context, id uint) (*models.Courier, error) {
	var c models.Courier
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err, "courier", id)
	}
	return &c, nil
}

func (r *CourierRepository) List(ctx context.Context, activeOnly bool) ([]models.Courier, error) {
	q := r.db.WithContext(ctx).Order("name")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var out []models.Courier
	return out, q.Find(&out).Error
}

func (r *CourierRepository) Create(ctx context.Context, c *models.Courier) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CourierRepository) Save(ctx context.Context, c *models.Courier) error {
	return r.db.WithContext(ctx).Save(c).Error
}
