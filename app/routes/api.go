package routes

import (
	"net/http"

	"github.com/adegaexpress/adega/app/controllers"
	"github.com/adegaexpress/adega/app/models"
	"github.com/adegaexpress/adega/pkg/collection"
	"github.com/adegaexpress/adega/pkg/ctx"
	"github.com/adegaexpress/adega/pkg/middleware"
	"github.com/adegaexpress/adega/pkg/rbac"
	"github.com/adegaexpress/adega/pkg/router"
)

// API holds everything the route table points at.
type API struct {
	Orders   *controllers.OrderController
	Catalog  *controllers.CatalogController
	Couriers *controllers.CourierController
	Auth     *controllers.AuthController
	Streams  *controllers.StreamController
	GraphQL  http.Handler
}

func roles(rs ...models.Role) router.Middleware {
	return rbac.HasRole(collection.Strings(rs)...)
}

func RegisterAPI(r *router.Router, a API) {
	api := r.Group("/api")

	api.Post("/auth/login", "auth.login", ctx.Wrap(a.Auth.Login))
	api.Post("/auth/register", "auth.register", ctx.Wrap(a.Auth.Register))
	api.Get("/categories", "categories.index", ctx.Wrap(a.Catalog.Categories))
	api.Get("/products", "products.index", ctx.Wrap(a.Catalog.Products))
	api.Get("/products/{id}", "products.show", ctx.Wrap(a.Catalog.ShowProduct))

	authed := api.Group("", middleware.Authenticate)
	authed.Get("/auth/me", "auth.me", ctx.Wrap(a.Auth.Me))
	authed.Get("/addresses", "addresses.index", ctx.Wrap(a.Auth.Addresses))
	authed.Post("/addresses", "addresses.store", ctx.Wrap(a.Auth.StoreAddress))

	authed.Get("/orders", "orders.index", ctx.Wrap(a.Orders.Index))
	authed.Post("/orders", "orders.store", ctx.Wrap(a.Orders.Store))
	authed.Get("/orders/{id}", "orders.show", ctx.Wrap(a.Orders.Show))
	authed.Get("/orders/{id}/transitions", "orders.transitions", ctx.Wrap(a.Orders.Transitions))

	// Anyone working the shop floor.
	crew := authed.Group("", roles(models.RoleAdmin, models.RoleStaff, models.RoleKitchen, models.RoleCourier))
	crew.Patch("/orders/{id}/status", "orders.status", ctx.Wrap(a.Orders.UpdateStatus))
	crew.Get("/orders/sse", "orders.sse", a.Streams.Events)
	crew.Get("/orders/ws", "orders.ws", a.Streams.Socket)
	crew.Post("/graphql", "graphql", a.GraphQL.ServeHTTP)
	crew.Get("/couriers", "couriers.index", ctx.Wrap(a.Couriers.Index))

	kitchen := authed.Group("", roles(models.RoleAdmin, models.RoleStaff, models.RoleKitchen))
	kitchen.Post("/products/{id}/consume", "products.consume", ctx.Wrap(a.Catalog.Consume))

	office := authed.Group("", roles(models.RoleAdmin, models.RoleStaff))
	office.Patch("/orders/{id}/assign", "orders.assign", ctx.Wrap(a.Orders.Assign))
	office.Patch("/orders/{id}/delivery-fee", "orders.fee", ctx.Wrap(a.Orders.DeliveryFee))
	office.Delete("/orders/{id}", "orders.destroy", ctx.Wrap(a.Orders.Destroy))

	office.Post("/categories", "categories.store", ctx.Wrap(a.Catalog.StoreCategory))
	office.Delete("/categories/{id}", "categories.destroy", ctx.Wrap(a.Catalog.DestroyCategory))
	office.Get("/products/all", "products.all", ctx.Wrap(a.Catalog.AllProducts))
	office.Post("/products", "products.store", ctx.Wrap(a.Catalog.StoreProduct))
	office.Put("/products/{id}", "products.update", ctx.Wrap(a.Catalog.UpdateProduct))
	office.Post("/products/{id}/stock", "products.stock", ctx.Wrap(a.Catalog.AdjustStock))
	office.Get("/products/{id}/stock-log", "products.stock_log", ctx.Wrap(a.Catalog.StockLog))

	office.Post("/couriers", "couriers.store", ctx.Wrap(a.Couriers.Store))
	office.Patch("/couriers/{id}", "couriers.update", ctx.Wrap(a.Couriers.Update))
}
