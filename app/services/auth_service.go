package services

import (
	"context"
	"errors"
	"strings"

	"github.com/adegaexpress/adega/app/models"
	"github.com/adegaexpress/adega/app/repositories"
	"github.com/adegaexpress/adega/pkg/auth"
	"github.com/adegaexpress/adega/pkg/validate"
	"gorm.io/gorm"
)

// ErrInvalidCredentials hides whether the email or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

type RegisterInput struct {
	Name     string `json:"name"     validate:"required,max=255"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Phone    string `json:"phone"    validate:"max=40"`
}

type AddressInput struct {
	Label        string `json:"label"        validate:"max=60"`
	Street       string `json:"street"       validate:"required,max=255"`
	Number       string `json:"number"       validate:"required,max=20"`
	Neighborhood string `json:"neighborhood" validate:"required,max=120"`
	City         string `json:"city"         validate:"required,max=120"`
	Complement   string `json:"complement"   validate:"max=255"`
}

type AuthService struct {
	users *repositories.UserRepository
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{users: repositories.NewUserRepository(db)}
}

// Login checks the password and returns the user with a fresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if !auth.CheckPassword(user.Password, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Register creates a customer account. Staff accounts come from seeders.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.CreateUser(ctx, in, models.RoleCustomer)
}

func (s *AuthService) CreateUser(ctx context.Context, in RegisterInput, role models.Role) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if errs := validate.Struct(in); len(errs) > 0 {
		return nil, invalidInput("%s", joinErrors(errs))
	}
	email := in.Email
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, invalidInput("email %s is already registered", email)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:     in.Name,
		Email:    email,
		Password: hash,
		Role:     role,
		Phone:    in.Phone,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) Addresses(ctx context.Context, userID uint) ([]models.Address, error) {
	return s.users.Addresses(ctx, userID)
}

func (s *AuthService) AddAddress(ctx context.Context, userID uint, in AddressInput) (*models.Address, error) {
	if errs := validate.Struct(in); len(errs) > 0 {
		return nil, invalidInput("%s", joinErrors(errs))
	}
	a := &models.Address{
		UserID:       userID,
		Label:        strings.TrimSpace(in.Label),
		Street:       strings.TrimSpace(in.Street),
		Number:       strings.TrimSpace(in.Number),
		Neighborhood: strings.TrimSpace(in.Neighborhood),
		City:         strings.TrimSpace(in.City),
		Complement:   strings.TrimSpace(in.Complement),
	}
	if err := s.users.CreateAddress(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
