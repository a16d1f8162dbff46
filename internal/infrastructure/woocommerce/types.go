package woocommerce

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Shared
// ---------------------------------------------------------------------------

// ParseDecimal converts a WooCommerce money string to a decimal, returning
// zero on malformed input. The API encodes every amount as a string.
func ParseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// MetaData is a key-value annotation attached to most records
type MetaData struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// Order is a storefront order as delivered by GET /orders
type Order struct {
	ID                 int64       `json:"id"`
	Number             string      `json:"number"`
	Status             string      `json:"status"`
	Currency           string      `json:"currency"`
	DateCreated        string      `json:"date_created"`
	DatePaid           string      `json:"date_paid"`
	Total              string      `json:"total"`
	DiscountTotal      string      `json:"discount_total"`
	ShippingTotal      string      `json:"shipping_total"`
	TotalTax           string      `json:"total_tax"`
	CustomerID         int64       `json:"customer_id"`
	PaymentMethod      string      `json:"payment_method"`
	PaymentMethodTitle string      `json:"payment_method_title"`
	TransactionID      string      `json:"transaction_id"`
	CustomerNote       string      `json:"customer_note"`
	Billing            OrderAddress `json:"billing"`
	Shipping           OrderAddress `json:"shipping"`
	LineItems          []OrderLineItem `json:"line_items"`
	ShippingLines      []ShippingLine  `json:"shipping_lines"`
	FeeLines           []FeeLine       `json:"fee_lines"`
	CouponLines        []CouponLine    `json:"coupon_lines"`
	TaxLines           []OrderTaxLine  `json:"tax_lines"`
	MetaData           []MetaData      `json:"meta_data"`
}

// OrderAddress is the billing or shipping block of an order
type OrderAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Name joins the first and last name
func (a OrderAddress) Name() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	default:
		return a.FirstName + " " + a.LastName
	}
}

// OrderLineItem is one product line of an order
type OrderLineItem struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ProductID   int64  `json:"product_id"`
	VariationID int64  `json:"variation_id"`
	SKU         string `json:"sku"`
	Quantity    int    `json:"quantity"`
	Subtotal    string `json:"subtotal"`
	Total       string `json:"total"`
	Price       float64 `json:"price"`
	Taxes       []LineTax `json:"taxes"`
}

// LineTax is a per-line tax amount referencing a store tax rate
type LineTax struct {
	ID    int64  `json:"id"`
	Total string `json:"total"`
}

// ShippingLine is one shipping charge of an order
type ShippingLine struct {
	ID          int64     `json:"id"`
	MethodTitle string    `json:"method_title"`
	MethodID    string    `json:"method_id"`
	Total       string    `json:"total"`
	Taxes       []LineTax `json:"taxes"`
}

// FeeLine is one fee charge of an order
type FeeLine struct {
	ID    int64     `json:"id"`
	Name  string    `json:"name"`
	Total string    `json:"total"`
	Taxes []LineTax `json:"taxes"`
}

// CouponLine is one coupon applied to an order
type CouponLine struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Discount string `json:"discount"`
}

// OrderTaxLine is one aggregated tax total of an order
type OrderTaxLine struct {
	ID       int64  `json:"id"`
	RateID   int64  `json:"rate_id"`
	Label    string `json:"label"`
	TaxTotal string `json:"tax_total"`
}

// ---------------------------------------------------------------------------
// Customers
// ---------------------------------------------------------------------------

// Customer is a storefront customer as delivered by GET /customers
type Customer struct {
	ID        int64        `json:"id"`
	Email     string       `json:"email"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	Username  string       `json:"username"`
	Billing   OrderAddress `json:"billing"`
	Shipping  OrderAddress `json:"shipping"`
}

// Name joins the first and last name, falling back to the username
func (c Customer) Name() string {
	switch {
	case c.FirstName == "" && c.LastName == "":
		return c.Username
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// Product is a storefront product as delivered by GET /products
type Product struct {
	ID               int64              `json:"id"`
	Name             string             `json:"name"`
	Slug             string             `json:"slug"`
	Type             string             `json:"type"` // simple, variable
	Status           string             `json:"status"`
	SKU              string             `json:"sku"`
	Price            string             `json:"price"`
	RegularPrice     string             `json:"regular_price"`
	SalePrice        string             `json:"sale_price"`
	Description      string             `json:"description"`
	ShortDescription string             `json:"short_description"`
	StockQuantity    *float64           `json:"stock_quantity"`
	ManageStock      bool               `json:"manage_stock"`
	Categories       []TermRef          `json:"categories"`
	Tags             []TermRef          `json:"tags"`
	Images           []Image            `json:"images"`
	Attributes       []ProductAttribute `json:"attributes"`
	Variations       []int64            `json:"variations"`
}

// IsVariable reports whether the product carries variations
func (p Product) IsVariable() bool {
	return p.Type == "variable" || len(p.Variations) > 0
}

// Variation is one product variation as delivered by GET /products/{id}/variations
type Variation struct {
	ID            int64                `json:"id"`
	SKU           string               `json:"sku"`
	Price         string               `json:"price"`
	RegularPrice  string               `json:"regular_price"`
	StockQuantity *float64             `json:"stock_quantity"`
	ManageStock   bool                 `json:"manage_stock"`
	Image         *Image               `json:"image"`
	Attributes    []VariationAttribute `json:"attributes"`
}

// ProductAttribute is one attribute definition on a product
type ProductAttribute struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Variation bool     `json:"variation"`
	Options   []string `json:"options"`
}

// VariationAttribute is one attribute value assignment on a variation
type VariationAttribute struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Option string `json:"option"`
}

// TermRef references a category or tag term on a product
type TermRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Image is one product image
type Image struct {
	ID       int64  `json:"id"`
	Src      string `json:"src"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// ---------------------------------------------------------------------------
// Taxonomy, Gateways, Shipping, Taxes
// ---------------------------------------------------------------------------

// CategoryTerm is a storefront product category term
type CategoryTerm struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Parent int64  `json:"parent"`
}

// TagTerm is a storefront product tag term
type TagTerm struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// PaymentGateway is a storefront payment method definition
type PaymentGateway struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Enabled bool   `json:"enabled"`
}

// ShippingMethod is a storefront shipping method definition
type ShippingMethod struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// TaxRate is a storefront tax rate definition
type TaxRate struct {
	ID      int64  `json:"id"`
	Country string `json:"country"`
	State   string `json:"state"`
	Rate    string `json:"rate"`
	Name    string `json:"name"`
	Class   string `json:"class"`
}

// ---------------------------------------------------------------------------
// Refunds and Webhooks
// ---------------------------------------------------------------------------

// Refund is one refund issued against an order
type Refund struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
	Amount string `json:"amount"`
}

// Webhook is a webhook registration on the store side
type Webhook struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	Topic       string `json:"topic"`
	DeliveryURL string `json:"delivery_url"`
}

// FormatID renders a numeric storefront identifier the way local mirrors
// store it
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
