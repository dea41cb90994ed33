package services

import (
	"context"
	"strings"

	"github.com/adegaexpress/adega/app/models"
	"github.com/adegaexpress/adega/app/repositories"
	"gorm.io/gorm"
)

type CourierInput struct {
	Name   *string `json:"name"   validate:"nullable,max=255"`
	Phone  *string `json:"phone"  validate:"nullable,max=40"`
	Active *bool   `json:"active"`
}

type CourierService struct {
	couriers *repositories.CourierRepository
}

func NewCourierService(db *gorm.DB) *CourierService {
	return &CourierService{couriers: repositories.NewCourierRepository(db)}
}

func (s *CourierService) List(ctx context.Context, activeOnly bool) ([]models.Courier, error) {
	return s.couriers.List(ctx, activeOnly)
}

// Create adds a courier; new couriers are active unless told otherwise.
func (s *CourierService) Create(ctx context.Context, in CourierInput) (*models.Courier, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, invalidInput("courier name is required")
	}
	c := &models.Courier{Name: strings.TrimSpace(*in.Name), Active: true}
	if in.Phone != nil {
		c.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Active != nil {
		c.Active = *in.Active
	}
	if err := s.couriers.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update applies the fields present in in.
func (s *CourierService) Update(ctx context.Context, id uint, in CourierInput) (*models.Courier, error) {
	c, err := s.couriers.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalidInput("courier name must not be blank")
		}
		c.Name = name
	}
	if in.Phone != nil {
		c.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Active != nil {
		c.Active = *in.Active
	}
	if err := s.couriers.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
