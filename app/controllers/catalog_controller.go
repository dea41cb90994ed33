package controllers

import (
	"github.com/adegaexpress/adega/app/services"
	"github.com/adegaexpress/adega/pkg/ctx"
)

type CatalogController struct {
	catalog *services.CatalogService
}

func NewCatalogController(catalog *services.CatalogService) *CatalogController {
	return &CatalogController{catalog: catalog}
}

type categoryRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

type stockRequest struct {
	Delta  int    `json:"delta"  validate:"required"`
	Reason string `json:"reason" validate:"max=200"`
}

type consumeRequest struct {
	Quantity int    `json:"quantity" validate:"required,gt=0"`
	Reason   string `json:"reason"   validate:"max=200"`
}

func (cc *CatalogController) Categories(c *ctx.Context) {
	list, err := cc.catalog.ListCategories(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(list)
}

func (cc *CatalogController) StoreCategory(c *ctx.Context) {
	var req categoryRequest
	if !c.BindJSON(&req) {
		return
	}
	cat, err := cc.catalog.CreateCategory(c.Context(), req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(cat)
}

func (cc *CatalogController) DestroyCategory(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	if err := cc.catalog.DeleteCategory(c.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.Success(map[string]uint{"id": id})
}

// Products is the public menu: active products only, served from cache.
func (cc *CatalogController) Products(c *ctx.Context) {
	cc.listProducts(c, true)
}

// AllProducts includes inactive products for the back office.
func (cc *CatalogController) AllProducts(c *ctx.Context) {
	cc.listProducts(c, false)
}

func (cc *CatalogController) listProducts(c *ctx.Context, activeOnly bool) {
	list, err := cc.catalog.ListProducts(c.Context(), activeOnly)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(list)
}

func (cc *CatalogController) ShowProduct(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	p, err := cc.catalog.GetProduct(c.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(p)
}

func (cc *CatalogController) StoreProduct(c *ctx.Context) {
	var in services.ProductInput
	if !c.BindJSON(&in) {
		return
	}
	p, err := cc.catalog.CreateProduct(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(p)
}

func (cc *CatalogController) UpdateProduct(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	var in services.ProductInput
	if !c.BindJSON(&in) {
		return
	}
	p, err := cc.catalog.UpdateProduct(c.Context(), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(p)
}

// AdjustStock books a manual correction, positive or negative.
func (cc *CatalogController) AdjustStock(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	var req stockRequest
	if !c.BindJSON(&req) {
		return
	}
	entry, err := cc.catalog.AdjustStock(c.Context(), id, req.Delta, req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(entry)
}

func (cc *CatalogController) Consume(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	var req consumeRequest
	if !c.BindJSON(&req) {
		return
	}
	entry, err := cc.catalog.ConsumeIngredient(c.Context(), id, req.Quantity, req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(entry)
}

// StockLog lists ledger entries newest first.
//
//	GET /api/products/{id}/stock-log?limit=50
func (cc *CatalogController) StockLog(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	if _, err := cc.catalog.GetProduct(c.Context(), id); err != nil {
		fail(c, err)
		return
	}
	list, err := cc.catalog.StockHistory(c.Context(), id, c.QueryInt("limit", 0))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(list)
}
