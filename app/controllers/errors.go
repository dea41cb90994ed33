// Package controllers adapts the services to HTTP. Handlers take a
// *ctx.Context and answer with the standard JSON envelope.
package controllers

import (
	"errors"
	"net/http"

	"github.com/adegaexpress/adega/app/services"
	"github.com/adegaexpress/adega/pkg/collection"
	"github.com/adegaexpress/adega/pkg/ctx"
	"github.com/adegaexpress/adega/pkg/logger"
)

// transitionBody is the 400 answer to an illegal status change; clients
// redraw their buttons from allowedTransitions.
type transitionBody struct {
	Status             int      `json:"status"`
	Message            string   `json:"message"`
	Error              string   `json:"error"`
	CurrentStatus      string   `json:"currentStatus"`
	AllowedTransitions []string `json:"allowedTransitions"`
}

// fail maps a service error to its status code.
func fail(c *ctx.Context, err error) {
	var te *services.TransitionError
	var pe *services.PreconditionError

	switch {
	case errors.As(err, &te):
		c.JSON(http.StatusBadRequest, transitionBody{
			Status:             http.StatusBadRequest,
			Message:            te.Error(),
			Error:              "invalid status transition",
			CurrentStatus:      string(te.Current),
			AllowedTransitions: collection.Strings(te.Allowed),
		})
	case errors.As(err, &pe):
		c.Error(http.StatusBadRequest, pe.Reason)
	case errors.Is(err, services.ErrNotFound):
		c.NotFound(err.Error())
	case errors.Is(err, services.ErrInvalidInput):
		c.Error(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		c.Unauthorized("Invalid credentials")
	default:
		logger.WithCtx(c.Context()).Error("request failed", "path", c.R.URL.Path, "error", err)
		c.Error(http.StatusInternalServerError, "Internal Server Error")
	}
}
