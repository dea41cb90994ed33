package controllers

import (
	"github.com/adegaexpress/adega/app/models"
	"github.com/adegaexpress/adega/app/services"
	"github.com/adegaexpress/adega/pkg/ctx"
	"github.com/adegaexpress/adega/pkg/middleware"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenView struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (ac *AuthController) Login(c *ctx.Context) {
	var req loginRequest
	if !c.BindJSON(&req) {
		return
	}
	user, token, err := ac.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(tokenView{Token: token, User: user})
}

// Register opens a customer account and logs it in.
func (ac *AuthController) Register(c *ctx.Context) {
	var in services.RegisterInput
	if !c.BindJSON(&in) {
		return
	}
	if _, err := ac.auth.Register(c.Context(), in); err != nil {
		fail(c, err)
		return
	}
	user, token, err := ac.auth.Login(c.Context(), in.Email, in.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(tokenView{Token: token, User: user})
}

func (ac *AuthController) Me(c *ctx.Context) {
	uid, ok := middleware.UserIDFromCtx(c.R)
	if !ok {
		c.Unauthorized()
		return
	}
	user, err := ac.auth.Me(c.Context(), uid)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(user)
}

func (ac *AuthController) Addresses(c *ctx.Context) {
	uid, ok := middleware.UserIDFromCtx(c.R)
	if !ok {
		c.Unauthorized()
		return
	}
	list, err := ac.auth.Addresses(c.Context(), uid)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(list)
}

func (ac *AuthController) StoreAddress(c *ctx.Context) {
	uid, ok := middleware.UserIDFromCtx(c.R)
	if !ok {
		c.Unauthorized()
		return
	}
	var in services.AddressInput
	if !c.BindJSON(&in) {
		return
	}
	addr, err := ac.auth.AddAddress(c.Context(), uid, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(addr)
}
