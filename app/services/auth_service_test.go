package services

import (
	"context"
	"testing"

	"github.com/adegaexpress/adega/app/models"
	"github.com/adegaexpress/adega/pkg/auth"
	"github.com/adegaexpress/adega/pkg/testkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterThenLogin(t *testing.T) {
	db := testkit.DB(t)
	svc := NewAuthService(db)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	u, err := svc.Register(ctx, RegisterInput{
		Name: "Bruno", Email: "  Bruno@Example.com ", Password: "caipirinha",
	})
	require.NoError(t, err)
	assert.Equal(t, "bruno@example.com", u.Email)
	assert.Equal(t, models.RoleCustomer, u.Role)
	assert.NotEqual(t, "caipirinha", u.Password)

	got, token, err := svc.Login(ctx, "BRUNO@example.com", "caipirinha")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, "customer", claims.Role)

	_, _, err = svc.Login(ctx, "bruno@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody@example.com", "caipirinha")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	me, err := svc.Me(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bruno", me.Name)
}

func TestRegister_Rejections(t *testing.T) {
	db := testkit.DB(t)
	svc := NewAuthService(db)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	_, err := svc.CreateUser(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "12345678"}, models.RoleStaff)
	require.NoError(t, err)

	cases := map[string]RegisterInput{
		"duplicate email":  {Name: "Ana 2", Email: "ANA@example.com", Password: "12345678"},
		"short password":   {Name: "Caio", Email: "caio@example.com", Password: "123"},
		"bad email":        {Name: "Caio", Email: "caio", Password: "12345678"},
		"missing name":     {Email: "caio@example.com", Password: "12345678"},
		"blank name":       {Name: "   ", Email: "caio@example.com", Password: "12345678"},
		"padded bad email": {Name: "Caio", Email: "  caio  ", Password: "12345678"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(ctx, in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestAddresses(t *testing.T) {
	db := testkit.DB(t)
	svc := NewAuthService(db)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	u, err := svc.Register(ctx, RegisterInput{Name: "Duda", Email: "duda@example.com", Password: "12345678"})
	require.NoError(t, err)

	_, err = svc.AddAddress(ctx, u.ID, AddressInput{Street: "Rua B"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	a, err := svc.AddAddress(ctx, u.ID, AddressInput{
		Label: "casa", Street: "Rua B", Number: "42", Neighborhood: "Gonzaga", City: "Santos",
	})
	require.NoError(t, err)
	assert.Equal(t, u.ID, a.UserID)

	list, err := svc.Addresses(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Gonzaga", list[0].Neighborhood)
}

func TestCourierService(t *testing.T) {
	db := testkit.DB(t)
	svc := NewCourierService(db)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	_, err := svc.Create(ctx, CourierInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	name, phone := "Zé", "1399999"
	c, err := svc.Create(ctx, CourierInput{Name: &name, Phone: &phone})
	require.NoError(t, err)
	assert.True(t, c.Active)

	off := false
	c, err = svc.Update(ctx, c.ID, CourierInput{Active: &off})
	require.NoError(t, err)
	assert.False(t, c.Active)
	assert.Equal(t, "Zé", c.Name)

	active, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	blank := " "
	_, err = svc.Update(ctx, c.ID, CourierInput{Name: &blank})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Update(ctx, 999, CourierInput{Active: &off})
	assert.ErrorIs(t, err, ErrNotFound)
}
