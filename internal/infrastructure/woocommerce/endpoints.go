package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ---------------------------------------------------------------------------
// Typed Endpoint Helpers
// ---------------------------------------------------------------------------

// listQuery builds the shared collection query parameters
func listQuery(pageSize int, modifiedAfter *time.Time) url.Values {
	q := url.Values{}
	if pageSize > 0 {
		q.Set("per_page", strconv.Itoa(pageSize))
	}
	if modifiedAfter != nil {
		q.Set("modified_after", modifiedAfter.UTC().Format("2006-01-02T15:04:05"))
	}
	return q
}

// ListOrders walks every order page, filtered by status and modification time
func (c *Client) ListOrders(ctx context.Context, statuses string, modifiedAfter *time.Time, pageSize int, fn func([]Order) error) error {
	q := listQuery(pageSize, modifiedAfter)
	if statuses != "" {
		q.Set("status", statuses)
	}
	return c.CallAll(ctx, "orders", q, func(page json.RawMessage) error {
		var orders []Order
		if err := json.Unmarshal(page, &orders); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		return fn(orders)
	})
}

// GetOrder fetches one order by its storefront identifier
func (c *Client) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	result, err := c.Call(ctx, http.MethodGet, "orders/"+FormatID(orderID), nil, nil)
	if err != nil {
		return nil, err
	}
	var order Order
	if err := result.Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus pushes a status change to the store
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID int64, status string) (*Result, error) {
	body := map[string]string{"status": status}
	return c.Call(ctx, http.MethodPut, "orders/"+FormatID(orderID), nil, body)
}

// CreateOrderRefund pushes a refund against an order
func (c *Client) CreateOrderRefund(ctx context.Context, orderID int64, amount, reason string) (*Result, error) {
	body := map[string]any{"amount": amount}
	if reason != "" {
		body["reason"] = reason
	}
	return c.Call(ctx, http.MethodPost, "orders/"+FormatID(orderID)+"/refunds", nil, body)
}

// ListOrderRefunds fetches the refunds of an order
func (c *Client) ListOrderRefunds(ctx context.Context, orderID int64) ([]Refund, error) {
	result, err := c.Call(ctx, http.MethodGet, "orders/"+FormatID(orderID)+"/refunds", nil, nil)
	if err != nil {
		return nil, err
	}
	var refunds []Refund
	if err := result.Decode(&refunds); err != nil {
		return nil, err
	}
	return refunds, nil
}

// ListCustomers walks every customer page
func (c *Client) ListCustomers(ctx context.Context, pageSize int, fn func([]Customer) error) error {
	return c.CallAll(ctx, "customers", listQuery(pageSize, nil), func(page json.RawMessage) error {
		var customers []Customer
		if err := json.Unmarshal(page, &customers); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		return fn(customers)
	})
}

// GetCustomer fetches one customer by its storefront identifier
func (c *Client) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	result, err := c.Call(ctx, http.MethodGet, "customers/"+FormatID(customerID), nil, nil)
	if err != nil {
		return nil, err
	}
	var customer Customer
	if err := result.Decode(&customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// ListProducts walks every product page, filtered by modification time
func (c *Client) ListProducts(ctx context.Context, modifiedAfter *time.Time, pageSize int, fn func([]Product) error) error {
	return c.CallAll(ctx, "products", listQuery(pageSize, modifiedAfter), func(page json.RawMessage) error {
		var products []Product
		if err := json.Unmarshal(page, &products); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		return fn(products)
	})
}

// GetProduct fetches one product by its storefront identifier
func (c *Client) GetProduct(ctx context.Context, productID int64) (*Product, error) {
	result, err := c.Call(ctx, http.MethodGet, "products/"+FormatID(productID), nil, nil)
	if err != nil {
		return nil, err
	}
	var product Product
	if err := result.Decode(&product); err != nil {
		return nil, err
	}
	return &product, nil
}

// ListVariations walks every variation page of a product
func (c *Client) ListVariations(ctx context.Context, productID int64, pageSize int, fn func([]Variation) error) error {
	path := "products/" + FormatID(productID) + "/variations"
	return c.CallAll(ctx, path, listQuery(pageSize, nil), func(page json.RawMessage) error {
		var variations []Variation
		if err := json.Unmarshal(page, &variations); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		return fn(variations)
	})
}

// CreateProduct pushes a new product to the store
func (c *Client) CreateProduct(ctx context.Context, payload any) (*Result, error) {
	return c.Call(ctx, http.MethodPost, "products", nil, payload)
}

// UpdateProduct pushes a product update to the store
func (c *Client) UpdateProduct(ctx context.Context, productID int64, payload any) (*Result, error) {
	return c.Call(ctx, http.MethodPut, "products/"+FormatID(productID), nil, payload)
}

// CreateVariation pushes a new variation under a product
func (c *Client) CreateVariation(ctx context.Context, productID int64, payload any) (*Result, error) {
	return c.Call(ctx, http.MethodPost, "products/"+FormatID(productID)+"/variations", nil, payload)
}

// UpdateVariation pushes changes to an existing variation
func (c *Client) UpdateVariation(ctx context.Context, productID, variationID int64, payload any) (*Result, error) {
	return c.Call(ctx, http.MethodPut, "products/"+FormatID(productID)+"/variations/"+FormatID(variationID), nil, payload)
}

// BatchUpdateVariations pushes a batch of variation updates, used for
// stock level export
func (c *Client) BatchUpdateVariations(ctx context.Context, productID int64, updates []map[string]any) (*Result, error) {
	body := map[string]any{"update": updates}
	path := "products/" + FormatID(productID) + "/variations/batch"
	return c.Call(ctx, http.MethodPost, path, nil, body)
}

// ListCategories walks every category term page
func (c *Client) ListCategories(ctx context.Context, pageSize int, fn func([]CategoryTerm) error) error {
	return c.CallAll(ctx, "products/categories", listQuery(pageSize, nil), func(page json.RawMessage) error {
		var terms []CategoryTerm
		if err := json.Unmarshal(page, &terms); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		return fn(terms)
	})
}

// GetCategory fetches one category term
func (c *Client) GetCategory(ctx context.Context, termID int64) (*Result, error) {
	return c.Call(ctx, http.MethodGet, "products/categories/"+FormatID(termID), nil, nil)
}

// UpdateCategory pushes changes to an existing category term
func (c *Client) UpdateCategory(ctx context.Context, termID int64, name, slug string, parent int64) (*Result, error) {
	body := map[string]any{"name": name}
	if slug != "" {
		body["slug"] = slug
	}
	if parent > 0 {
		body["parent"] = parent
	}
	return c.Call(ctx, http.MethodPut, "products/categories/"+FormatID(termID), nil, body)
}

// CreateCategory pushes a new category term to the store
func (c *Client) CreateCategory(ctx context.Context, name, slug string, parent int64) (*Result, error) {
	body := map[string]any{"name": name}
	if slug != "" {
		body["slug"] = slug
	}
	if parent > 0 {
		body["parent"] = parent
	}
	return c.Call(ctx, http.MethodPost, "products/categories", nil, body)
}

// ListTags walks every tag term page
func (c *Client) ListTags(ctx context.Context, pageSize int, fn func([]TagTerm) error) error {
	return c.CallAll(ctx, "products/tags", listQuery(pageSize, nil), func(page json.RawMessage) error {
		var terms []TagTerm
		if err := json.Unmarshal(page, &terms); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		return fn(terms)
	})
}

// CreateTag pushes a new tag term to the store
func (c *Client) CreateTag(ctx context.Context, name, slug string) (*Result, error) {
	body := map[string]any{"name": name}
	if slug != "" {
		body["slug"] = slug
	}
	return c.Call(ctx, http.MethodPost, "products/tags", nil, body)
}

// ListPaymentGateways fetches all payment gateway definitions
func (c *Client) ListPaymentGateways(ctx context.Context) ([]PaymentGateway, error) {
	result, err := c.Call(ctx, http.MethodGet, "payment_gateways", nil, nil)
	if err != nil {
		return nil, err
	}
	var gateways []PaymentGateway
	if err := result.Decode(&gateways); err != nil {
		return nil, err
	}
	return gateways, nil
}

// ListShippingMethods fetches all shipping method definitions
func (c *Client) ListShippingMethods(ctx context.Context) ([]ShippingMethod, error) {
	result, err := c.Call(ctx, http.MethodGet, "shipping_methods", nil, nil)
	if err != nil {
		return nil, err
	}
	var methods []ShippingMethod
	if err := result.Decode(&methods); err != nil {
		return nil, err
	}
	return methods, nil
}

// ListTaxRates walks every tax rate page
func (c *Client) ListTaxRates(ctx context.Context, pageSize int, fn func([]TaxRate) error) error {
	return c.CallAll(ctx, "taxes", listQuery(pageSize, nil), func(page json.RawMessage) error {
		var rates []TaxRate
		if err := json.Unmarshal(page, &rates); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		return fn(rates)
	})
}

// GetTaxRate fetches one tax rate definition
func (c *Client) GetTaxRate(ctx context.Context, rateID int64) (*TaxRate, error) {
	result, err := c.Call(ctx, http.MethodGet, "taxes/"+FormatID(rateID), nil, nil)
	if err != nil {
		return nil, err
	}
	var rate TaxRate
	if err := result.Decode(&rate); err != nil {
		return nil, err
	}
	return &rate, nil
}

// BatchUpdateProducts pushes partial product updates in one request
func (c *Client) BatchUpdateProducts(ctx context.Context, updates []map[string]any) (*Result, error) {
	body := map[string]any{"update": updates}
	return c.Call(ctx, http.MethodPost, "products/batch", nil, body)
}

// CreateWebhook registers a webhook on the store
func (c *Client) CreateWebhook(ctx context.Context, name, topic, deliveryURL string) (*Webhook, error) {
	body := map[string]string{
		"name":         name,
		"topic":        topic,
		"delivery_url": deliveryURL,
	}
	result, err := c.Call(ctx, http.MethodPost, "webhooks", nil, body)
	if err != nil {
		return nil, err
	}
	var webhook Webhook
	if err := result.Decode(&webhook); err != nil {
		return nil, err
	}
	return &webhook, nil
}

// DeleteWebhook removes a webhook registration from the store
func (c *Client) DeleteWebhook(ctx context.Context, webhookID int64) (*Result, error) {
	q := url.Values{}
	q.Set("force", "true")
	return c.Call(ctx, http.MethodDelete, "webhooks/"+FormatID(webhookID), q, nil)
}
