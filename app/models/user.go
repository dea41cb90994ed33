package models

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStaff    Role = "staff"
	RoleKitchen  Role = "kitchen"
	RoleCourier  Role = "courier"
	RoleCustomer Role = "customer"
)

type User struct {
	ID        uint      `gorm:"primaryKey"                    json:"id"`
	Name      string    `gorm:"size:255;not null"             json:"name"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string    `gorm:"size:255;not null"             json:"-"`
	Role      Role      `gorm:"size:20;not null;default:customer" json:"role"`
	Phone     string    `gorm:"size:40"                       json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Address is a customer's delivery destination.
type Address struct {
	ID           uint      `gorm:"primaryKey"         json:"id"`
	UserID       uint      `gorm:"not null;index"     json:"userId"`
	Label        string    `gorm:"size:60"            json:"label"`
	Street       string    `gorm:"size:255;not null"  json:"street"`
	Number       string    `gorm:"size:20;not null"   json:"number"`
	Neighborhood string    `gorm:"size:120;not null"  json:"neighborhood"`
	City         string    `gorm:"size:120;not null"  json:"city"`
	Complement   string    `gorm:"size:255"           json:"complement,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Courier (motoboy) delivers ready delivery orders.
type Courier struct {
	ID        uint      `gorm:"primaryKey"            json:"id"`
	Name      string    `gorm:"size:255;not null"     json:"name"`
	Phone     string    `gorm:"size:40"               json:"phone"`
	Active    bool      `gorm:"not null"              json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
