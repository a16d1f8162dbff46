package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/shared"
)

var (
	// ErrCategoryInvalidName indicates a category without a name
	ErrCategoryInvalidName = errors.New("catalog: category name is required")
	// ErrTaxNotMapped indicates a storefront tax with no local counterpart
	ErrTaxNotMapped = errors.New("catalog: tax is not mapped")
)

// ---------------------------------------------------------------------------
// Categories and Tags
// ---------------------------------------------------------------------------

// Category mirrors a storefront product category. Categories form a tree
// through ParentID; export resolves parents before children.
type Category struct {
	shared.BaseEntity
	// InstanceID is the store instance this category belongs to
	InstanceID uuid.UUID
	// Name is the display name
	Name string
	// Slug is the storefront URL slug
	Slug string
	// RemoteID is the storefront term identifier, empty until exported
	RemoteID string
	// ParentID is the parent category, nil at the root
	ParentID *uuid.UUID
}

// NewCategory creates a category mirror
func NewCategory(instanceID uuid.UUID, name, slug string, parentID *uuid.UUID) (*Category, error) {
	if instanceID == uuid.Nil {
		return nil, shared.ErrInvalidInput
	}
	if name == "" {
		return nil, ErrCategoryInvalidName
	}
	return &Category{
		BaseEntity: shared.NewBaseEntity(),
		InstanceID: instanceID,
		Name:       name,
		Slug:       slug,
		ParentID:   parentID,
	}, nil
}

// IsExported reports whether the category has a storefront identifier
func (c *Category) IsExported() bool {
	return c.RemoteID != ""
}

// AdoptRemote records an identifier discovered on the storefront, used
// when export finds the term already exists there
func (c *Category) AdoptRemote(remoteID string) {
	c.RemoteID = remoteID
	c.UpdatedAt = time.Now()
}

// ClearRemote drops a stale storefront identifier so the next export
// recreates the term
func (c *Category) ClearRemote() {
	c.RemoteID = ""
	c.UpdatedAt = time.Now()
}

// Tag mirrors a storefront product tag
type Tag struct {
	shared.BaseEntity
	// InstanceID is the store instance this tag belongs to
	InstanceID uuid.UUID
	// Name is the display name
	Name string
	// Slug is the storefront URL slug
	Slug string
	// RemoteID is the storefront term identifier, empty until exported
	RemoteID string
	// Sequence orders tags on the listing
	Sequence int
}

// ---------------------------------------------------------------------------
// Taxes and Shipping
// ---------------------------------------------------------------------------

// Tax maps a storefront tax rate to a local ERP tax. Order import fails a
// line whose taxes include an unmapped rate.
type Tax struct {
	shared.BaseEntity
	// InstanceID is the store instance this mapping belongs to
	InstanceID uuid.UUID
	// RemoteID is the storefront rate identifier
	RemoteID string
	// Name is the storefront rate label
	Name string
	// Rate is the percentage
	Rate decimal.Decimal
	// ErpTaxID is the mapped local tax, nil while unmapped
	ErpTaxID *uuid.UUID
}

// IsMapped reports whether a local tax is bound
func (t *Tax) IsMapped() bool {
	return t.ErpTaxID != nil
}

// ShippingMethod mirrors a storefront shipping method definition
type ShippingMethod struct {
	shared.BaseEntity
	// InstanceID is the store instance this method belongs to
	InstanceID uuid.UUID
	// Code is the storefront method identifier
	Code string
	// Name is the display title
	Name string
}

// ---------------------------------------------------------------------------
// Product Images
// ---------------------------------------------------------------------------

// ProductImage holds one image attached to a listing or one of its items
type ProductImage struct {
	shared.BaseEntity
	// ListingID is the owning listing
	ListingID uuid.UUID
	// ItemID is the owning per-variant row, nil for template images
	ItemID *uuid.UUID
	// RemoteID is the storefront media identifier
	RemoteID string
	// URL is the source location of the image
	URL string
	// Sequence orders images in the gallery, zero is the cover
	Sequence int
}
