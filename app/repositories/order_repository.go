package repositories

import (
	"context"

	"github.com/adegaexpress/adega/app/models"
	"github.com/adegaexpress/adega/pkg/orm"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	return &OrderRepository{db: tx}
}

// OrderFilter narrows ListOrders. Zero values mean "any".
type OrderFilter struct {
	Status     models.OrderStatus
	OrderType  models.OrderType
	CourierID  uint
	CustomerID uint
	Page       orm.Pagination
}

func (r *OrderRepository) Find(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Courier").
		Preload("Address").
		First(&order, id).Error
	if err != nil {
		return nil, notFound(err, "order", id)
	}
	return &order, nil
}

// FindForUpdate loads the order with its items and locks its row.
func (r *OrderRepository) FindForUpdate(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := forUpdate(r.db.WithContext(ctx)).
		Preload("Items").
		First(&order, id).Error
	if err != nil {
		return nil, notFound(err, "order", id)
	}
	return &order, nil
}

func (r *OrderRepository) List(ctx context.Context, f OrderFilter) ([]models.Order, orm.Pagination, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.OrderType != "" {
		q = q.Where("order_type = ?", f.OrderType)
	}
	if f.CourierID != 0 {
		q = q.Where("courier_id = ?", f.CourierID)
	}
	if f.CustomerID != 0 {
		q = q.Where("customer_id = ?", f.CustomerID)
	}

	var orders []models.Order
	page, err := orm.FindPage(q.Order("id DESC"), &orders, f.Page, withItems)
	return orders, page, err
}

func withItems(db *gorm.DB) *gorm.DB { return db.Preload("Items") }

// Create inserts the order and its items. Linked courier and address rows
// are never written through the order.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).
		Omit("Courier", "Address").
		Create(order).Error
}

// Save writes every order column, leaving items and associations alone.
func (r *OrderRepository) Save(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Save(order).Error
}

// Delete removes the order and its items.
func (r *OrderRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	res := db.Delete(&models.Order{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "order", id)
	}
	return nil
}
