package erp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// ERP Tables
// ---------------------------------------------------------------------------

// TemplateModel is a product template row
type TemplateModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	Name      string          `gorm:"not null;index"`
	SKU       string          `gorm:"index"`
	ListPrice decimal.Decimal `gorm:"type:decimal(15,2)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for TemplateModel
func (TemplateModel) TableName() string {
	return "erp_product_templates"
}

// VariantModel is a product variant row. Attributes holds the attribute
// value assignment as a JSON object keyed by attribute name.
type VariantModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	TemplateID uuid.UUID `gorm:"type:uuid;not null;index"`
	SKU        string    `gorm:"index"`
	Attributes string    `gorm:"type:text"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName returns the table name for VariantModel
func (VariantModel) TableName() string {
	return "erp_product_variants"
}

// AttributeLineModel records one attribute line of a template
type AttributeLineModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	TemplateID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_erp_attr_line"`
	Name       string    `gorm:"not null;uniqueIndex:idx_erp_attr_line"`
	Values     string    `gorm:"type:text"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName returns the table name for AttributeLineModel
func (AttributeLineModel) TableName() string {
	return "erp_template_attribute_lines"
}

// StockQuantModel holds the on-hand quantity of a variant per warehouse
type StockQuantModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	VariantID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_erp_quant"`
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_erp_quant"`
	Quantity    decimal.Decimal `gorm:"type:decimal(15,3)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for StockQuantModel
func (StockQuantModel) TableName() string {
	return "erp_stock_quants"
}

// DeliveryModel is a delivery order raised by order confirmation
type DeliveryModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	State     string    `gorm:"not null;index"`
	DoneAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for DeliveryModel
func (DeliveryModel) TableName() string {
	return "erp_deliveries"
}

// InvoiceModel is a posted customer invoice for an order
type InvoiceModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	State     string          `gorm:"not null;index"`
	Amount    decimal.Decimal `gorm:"type:decimal(15,2)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for InvoiceModel
func (InvoiceModel) TableName() string {
	return "erp_invoices"
}

// PriceListModel is a sellable price list priced in one currency
type PriceListModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Name      string    `gorm:"not null"`
	Currency  string    `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for PriceListModel
func (PriceListModel) TableName() string {
	return "erp_price_lists"
}

// PaymentModel is a payment registered against an invoice
type PaymentModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index"`
	JournalID uuid.UUID       `gorm:"type:uuid;not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(15,2)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for PaymentModel
func (PaymentModel) TableName() string {
	return "erp_payments"
}

// Delivery and invoice states
const (
	deliveryStateOpen      = "open"
	deliveryStateDone      = "done"
	deliveryStateCancelled = "cancelled"

	invoiceStatePosted    = "posted"
	invoiceStatePaid      = "paid"
	invoiceStateCancelled = "cancelled"
)

// Models returns every ERP model for migration
func Models() []interface{} {
	return []interface{}{
		&TemplateModel{},
		&VariantModel{},
		&AttributeLineModel{},
		&StockQuantModel{},
		&DeliveryModel{},
		&InvoiceModel{},
		&PriceListModel{},
		&PaymentModel{},
	}
}

func encodeAttributes(values map[string]string) string {
	if len(values) == 0 {
		return "{}"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func decodeAttributes(s string) map[string]string {
	if s == "" {
		return map[string]string{}
	}
	var values map[string]string
	if err := json.Unmarshal([]byte(s), &values); err != nil {
		return map[string]string{}
	}
	return values
}

func encodeValues(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeValues(s string) []string {
	if s == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(s), &values); err != nil {
		return nil
	}
	return values
}
