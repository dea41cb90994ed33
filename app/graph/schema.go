// Package graph is the read-only GraphQL view dashboards use to load a
// snapshot before following the event stream.
package graph

import (
	"time"

	"github.com/adegaexpress/adega/app/models"
	"github.com/adegaexpress/adega/app/repositories"
	"github.com/adegaexpress/adega/app/services"
	"github.com/adegaexpress/adega/pkg/collection"
	gql "github.com/adegaexpress/adega/pkg/graphql"
	"github.com/adegaexpress/adega/pkg/orm"
	"github.com/graphql-go/graphql"
)

type Resolvers struct {
	Orders    *services.OrderService
	Catalog   *services.CatalogService
	Couriers  *services.CourierService
	Threshold int
}

var itemType = graphql.NewObject(graphql.ObjectConfig{
	Name: "OrderItem",
	Fields: graphql.Fields{
		"productId":    &graphql.Field{Type: graphql.Int},
		"productName":  &graphql.Field{Type: graphql.String},
		"quantity":     &graphql.Field{Type: graphql.Int},
		"unitPrice":    &graphql.Field{Type: graphql.String},
		"lineTotal":    &graphql.Field{Type: graphql.String},
		"stockTracked": &graphql.Field{Type: graphql.Boolean},
	},
})

var orderType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Order",
	Fields: graphql.Fields{
		"id":                 &graphql.Field{Type: graphql.Int},
		"orderType":          &graphql.Field{Type: graphql.String},
		"status":             &graphql.Field{Type: graphql.String},
		"subtotal":           &graphql.Field{Type: graphql.String},
		"deliveryFee":        &graphql.Field{Type: graphql.String},
		"discount":           &graphql.Field{Type: graphql.String},
		"total":              &graphql.Field{Type: graphql.String},
		"paymentMethod":      &graphql.Field{Type: graphql.String},
		"courierId":          &graphql.Field{Type: graphql.Int},
		"feeAdjusted":        &graphql.Field{Type: graphql.Boolean},
		"createdAt":          &graphql.Field{Type: graphql.String},
		"items":              &graphql.Field{Type: graphql.NewList(itemType)},
		"allowedTransitions": &graphql.Field{Type: graphql.NewList(graphql.String)},
	},
})

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.Int},
		"name":        &graphql.Field{Type: graphql.String},
		"category":    &graphql.Field{Type: graphql.String},
		"salePrice":   &graphql.Field{Type: graphql.String},
		"stock":       &graphql.Field{Type: graphql.Int},
		"active":      &graphql.Field{Type: graphql.Boolean},
		"stockExempt": &graphql.Field{Type: graphql.Boolean},
	},
})

var courierType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Courier",
	Fields: graphql.Fields{
		"id":     &graphql.Field{Type: graphql.Int},
		"name":   &graphql.Field{Type: graphql.String},
		"phone":  &graphql.Field{Type: graphql.String},
		"active": &graphql.Field{Type: graphql.Boolean},
	},
})

// Schema builds the dashboard schema on top of the services.
func Schema(r Resolvers) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"orders": &graphql.Field{
				Type: graphql.NewList(orderType),
				Args: graphql.FieldConfigArgument{
					"status":    &graphql.ArgumentConfig{Type: graphql.String},
					"orderType": &graphql.ArgumentConfig{Type: graphql.String},
					"courierId": &graphql.ArgumentConfig{Type: graphql.Int},
					"limit":     &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: r.orders,
			},
			"order": &graphql.Field{
				Type: orderType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: r.order,
			},
			"products": &graphql.Field{
				Type: graphql.NewList(productType),
				Args: graphql.FieldConfigArgument{
					"activeOnly": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: true},
				},
				Resolve: r.products,
			},
			"lowStock": &graphql.Field{
				Type:    graphql.NewList(productType),
				Resolve: r.lowStock,
			},
			"couriers": &graphql.Field{
				Type: graphql.NewList(courierType),
				Args: graphql.FieldConfigArgument{
					"activeOnly": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: r.couriers,
			},
		},
	})
	return gql.NewSchema(query)
}

func (r Resolvers) orders(p graphql.ResolveParams) (interface{}, error) {
	f := repositories.OrderFilter{Page: orm.NewPagination(intArg(p, "limit"), 0)}
	if s, ok := p.Args["status"].(string); ok {
		f.Status = models.OrderStatus(s)
	}
	if t, ok := p.Args["orderType"].(string); ok {
		f.OrderType = models.OrderType(t)
	}
	f.CourierID = uint(intArg(p, "courierId"))

	list, _, err := r.Orders.ListOrders(p.Context, f)
	if err != nil {
		return nil, err
	}
	return collection.Map(list, orderView), nil
}

func (r Resolvers) order(p graphql.ResolveParams) (interface{}, error) {
	o, err := r.Orders.GetOrder(p.Context, uint(intArg(p, "id")))
	if err != nil {
		return nil, err
	}
	return orderView(*o), nil
}

func (r Resolvers) products(p graphql.ResolveParams) (interface{}, error) {
	activeOnly, _ := p.Args["activeOnly"].(bool)
	list, err := r.Catalog.ListProducts(p.Context, activeOnly)
	if err != nil {
		return nil, err
	}
	return collection.Map(list, productView), nil
}

// lowStock lists active tracked products at or below the alert threshold.
func (r Resolvers) lowStock(p graphql.ResolveParams) (interface{}, error) {
	list, err := r.Catalog.ListProducts(p.Context, true)
	if err != nil {
		return nil, err
	}
	low := collection.Filter(list, func(prod models.Product) bool {
		return !prod.StockExempt && prod.Stock <= r.Threshold
	})
	return collection.Map(low, productView), nil
}

func (r Resolvers) couriers(p graphql.ResolveParams) (interface{}, error) {
	activeOnly, _ := p.Args["activeOnly"].(bool)
	list, err := r.Couriers.List(p.Context, activeOnly)
	if err != nil {
		return nil, err
	}
	return collection.Map(list, func(c models.Courier) map[string]interface{} {
		return map[string]interface{}{
			"id": int(c.ID), "name": c.Name, "phone": c.Phone, "active": c.Active,
		}
	}), nil
}

func orderView(o models.Order) map[string]interface{} {
	items := collection.Map(o.Items, func(it models.OrderItem) map[string]interface{} {
		return map[string]interface{}{
			"productId":    int(it.ProductID),
			"productName":  it.ProductName,
			"quantity":     it.Quantity,
			"unitPrice":    it.UnitPrice.StringFixed(2),
			"lineTotal":    it.LineTotal.StringFixed(2),
			"stockTracked": it.StockTracked,
		}
	})

	var courierID interface{}
	if o.CourierID != nil {
		courierID = int(*o.CourierID)
	}
	return map[string]interface{}{
		"id":                 int(o.ID),
		"orderType":          string(o.OrderType),
		"status":             string(o.Status),
		"subtotal":           o.Subtotal.StringFixed(2),
		"deliveryFee":        o.DeliveryFee.StringFixed(2),
		"discount":           o.Discount.StringFixed(2),
		"total":              o.Total.StringFixed(2),
		"paymentMethod":      string(o.PaymentMethod),
		"courierId":          courierID,
		"feeAdjusted":        o.FeeAdjusted,
		"createdAt":          o.CreatedAt.UTC().Format(time.RFC3339),
		"items":              items,
		"allowedTransitions": collection.Strings(services.AllowedTransitions(o.OrderType, o.Status)),
	}
}

func productView(p models.Product) map[string]interface{} {
	category := ""
	if p.Category != nil {
		category = p.Category.Name
	}
	return map[string]interface{}{
		"id":          int(p.ID),
		"name":        p.Name,
		"category":    category,
		"salePrice":   p.SalePrice.StringFixed(2),
		"stock":       p.Stock,
		"active":      p.Active,
		"stockExempt": p.StockExempt,
	}
}

func intArg(p graphql.ResolveParams, name string) int {
	n, _ := p.Args[name].(int)
	return n
}
