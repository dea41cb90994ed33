package repositories

import (
	"context"

	"github.com/adegaexpress/adega/app/models"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail looks up a user by their email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err, "user", email)
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) Addresses(ctx context.Context, userID uint) ([]models.Address, error) {
	var out []models.Address
	return out, r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&out).Error
}

func (r *UserRepository) FindAddress(ctx context.Context, id uint) (*models.Address, error) {
	var a models.Address
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, notFound(err, "address", id)
	}
	return &a, nil
}

func (r *UserRepository) CreateAddress(ctx context.Context, a *models.Address) error {
	return r.db.WithContext(ctx).Create(a).Error
}
