package controllers

import (
	"github.com/adegaexpress/adega/app/services"
	"github.com/adegaexpress/adega/pkg/ctx"
)

type CourierController struct {
	couriers *services.CourierService
}

func NewCourierController(couriers *services.CourierService) *CourierController {
	return &CourierController{couriers: couriers}
}

// Index lists couriers; ?active=1 keeps only those on shift.
func (cc *CourierController) Index(c *ctx.Context) {
	list, err := cc.couriers.List(c.Context(), c.Query("active") == "1" || c.Query("active") == "true")
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(list)
}

func (cc *CourierController) Store(c *ctx.Context) {
	var in services.CourierInput
	if !c.BindJSON(&in) {
		return
	}
	courier, err := cc.couriers.Create(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(courier)
}

func (cc *CourierController) Update(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	var in services.CourierInput
	if !c.BindJSON(&in) {
		return
	}
	courier, err := cc.couriers.Update(c.Context(), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(courier)
}
