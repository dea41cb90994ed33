package seeders

import (
	"context"
	"errors"

	"github.com/adegaexpress/adega/app/models"
	"github.com/adegaexpress/adega/app/repositories"
	"github.com/adegaexpress/adega/app/services"
	"github.com/adegaexpress/adega/config"
	"gorm.io/gorm"
)

func init() {
	Register("admin", seedAdmin)
	Register("couriers", seedCouriers)
}

// seedAdmin creates ADMIN_EMAIL with ADMIN_PASSWORD unless it exists.
func seedAdmin(ctx context.Context, db *gorm.DB) error {
	email := config.Get("ADMIN_EMAIL", "admin@adega.local")
	if _, err := repositories.NewUserRepository(db).FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}

	_, err := services.NewAuthService(db).CreateUser(ctx, services.RegisterInput{
		Name:     "Administrador",
		Email:    email,
		Password: config.Get("ADMIN_PASSWORD", "adega-admin"),
	}, models.RoleAdmin)
	return err
}

func seedCouriers(ctx context.Context, db *gorm.DB) error {
	couriers := services.NewCourierService(db)
	existing, err := couriers.List(ctx, false)
	if err != nil || len(existing) > 0 {
		return err
	}
	for _, c := range []struct{ name, phone string }{
		{"Zé Motoboy", "+55 11 98888-0001"},
		{"Carla Entregas", "+55 11 98888-0002"},
	} {
		name, phone := c.name, c.phone
		if _, err := couriers.Create(ctx, services.CourierInput{Name: &name, Phone: &phone}); err != nil {
			return err
		}
	}
	return nil
}
