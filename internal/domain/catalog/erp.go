package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// ERP Catalog Port
// ---------------------------------------------------------------------------

// AttributeLine pairs an attribute name with its values for one template
type AttributeLine struct {
	// Name is the attribute display name, e.g. "Color"
	Name string
	// Values are the attribute values, e.g. "Red", "Blue"
	Values []string
}

// ErpCatalog is the port into the ERP product catalog. Product import uses
// it to locate or create the local templates and variants behind a
// storefront product; the concrete adapter owns the attribute matrix.
type ErpCatalog interface {
	// FindVariantBySKU finds a local product variant by SKU
	FindVariantBySKU(ctx context.Context, sku string) (uuid.UUID, error)

	// FindTemplateBySKU finds a template whose own SKU matches
	FindTemplateBySKU(ctx context.Context, sku string) (uuid.UUID, error)

	// FindTemplateByName finds a template by exact name
	FindTemplateByName(ctx context.Context, name string) (uuid.UUID, error)

	// CreateTemplate creates a template with the given name and type,
	// returning its identifier
	CreateTemplate(ctx context.Context, name string) (uuid.UUID, error)

	// SyncAttributeLines ensures the template carries the given attribute
	// lines, creating attributes and values as needed
	SyncAttributeLines(ctx context.Context, templateID uuid.UUID, lines []AttributeLine) error

	// VariantCount returns how many variants a template has
	VariantCount(ctx context.Context, templateID uuid.UUID) (int, error)

	// FindVariantByAttributes finds the template variant matching the
	// given attribute value assignment
	FindVariantByAttributes(ctx context.Context, templateID uuid.UUID, values map[string]string) (uuid.UUID, error)

	// SetVariantSKU stamps a SKU onto a variant
	SetVariantSKU(ctx context.Context, variantID uuid.UUID, sku string) error

	// SetListPrice sets the sale price on a template
	SetListPrice(ctx context.Context, templateID uuid.UUID, price decimal.Decimal) error

	// AvailableQuantity returns the free-to-sell quantity of a variant in
	// a warehouse
	AvailableQuantity(ctx context.Context, variantID, warehouseID uuid.UUID) (decimal.Decimal, error)
}
