package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	// ErrListingInvalidName indicates a listing without a name
	ErrListingInvalidName = errors.New("catalog: listing name is required")
	// ErrListingNotExported indicates an operation that needs a remote
	// identifier on a listing that was never exported
	ErrListingNotExported = errors.New("catalog: listing has no remote identifier")
	// ErrItemInvalidSKU indicates a listing item without a SKU
	ErrItemInvalidSKU = errors.New("catalog: listing item SKU is required")
)

// ---------------------------------------------------------------------------
// Listing Aggregate
// ---------------------------------------------------------------------------

// Listing binds one local product template to its storefront product. A
// template may be listed on several store instances, each with its own
// listing row and remote identifier.
type Listing struct {
	shared.BaseEntity
	// InstanceID is the store instance this listing targets
	InstanceID uuid.UUID
	// TemplateID is the local product template
	TemplateID uuid.UUID
	// RemoteID is the storefront product identifier, empty until exported
	RemoteID string
	// Name is the listing title
	Name string
	// Description is the long sales description
	Description string
	// ShortDescription is the summary shown in listings
	ShortDescription string
	// Exported marks listings that exist on the storefront
	Exported bool
	// ExportedAt is when the listing was last pushed
	ExportedAt *time.Time
	// CategoryIDs are the storefront categories the listing is filed under
	CategoryIDs []uuid.UUID
	// TagIDs are the storefront tags attached to the listing
	TagIDs []uuid.UUID
	// Items are the per-variant rows
	Items []ListingItem
}

// ListingItem binds one local product variant to its storefront variation
type ListingItem struct {
	shared.BaseEntity
	// ListingID is the owning listing
	ListingID uuid.UUID
	// InstanceID duplicates the listing instance for direct lookups
	InstanceID uuid.UUID
	// ProductID is the local product variant
	ProductID uuid.UUID
	// RemoteID is the storefront variation identifier, empty until exported
	RemoteID string
	// SKU is the shared stockkeeping unit
	SKU string
	// Price is the storefront sale price
	Price decimal.Decimal
	// Exported marks items that exist on the storefront
	Exported bool
}

// NewListing creates an unexported listing
func NewListing(instanceID, templateID uuid.UUID, name string) (*Listing, error) {
	if instanceID == uuid.Nil || templateID == uuid.Nil {
		return nil, shared.ErrInvalidInput
	}
	if name == "" {
		return nil, ErrListingInvalidName
	}
	return &Listing{
		BaseEntity: shared.NewBaseEntity(),
		InstanceID: instanceID,
		TemplateID: templateID,
		Name:       name,
	}, nil
}

// AddItem appends a per-variant row
func (l *Listing) AddItem(productID uuid.UUID, sku string, price decimal.Decimal) (*ListingItem, error) {
	if sku == "" {
		return nil, ErrItemInvalidSKU
	}
	item := ListingItem{
		BaseEntity: shared.NewBaseEntity(),
		ListingID:  l.ID,
		InstanceID: l.InstanceID,
		ProductID:  productID,
		SKU:        sku,
		Price:      price,
	}
	l.Items = append(l.Items, item)
	return &l.Items[len(l.Items)-1], nil
}

// MarkExported records the remote identifier assigned by the storefront
func (l *Listing) MarkExported(remoteID string) {
	now := time.Now()
	l.RemoteID = remoteID
	l.Exported = true
	l.ExportedAt = &now
	l.UpdatedAt = now
}

// ItemBySKU returns the item carrying the given SKU, or nil
func (l *Listing) ItemBySKU(sku string) *ListingItem {
	for i := range l.Items {
		if l.Items[i].SKU == sku {
			return &l.Items[i]
		}
	}
	return nil
}

// ItemByRemoteID returns the item carrying the given variation identifier,
// or nil
func (l *Listing) ItemByRemoteID(remoteID string) *ListingItem {
	if remoteID == "" {
		return nil
	}
	for i := range l.Items {
		if l.Items[i].RemoteID == remoteID {
			return &l.Items[i]
		}
	}
	return nil
}

// MarkExported records the variation identifier assigned by the storefront
func (i *ListingItem) MarkExported(remoteID string) {
	i.RemoteID = remoteID
	i.Exported = true
	i.UpdatedAt = time.Now()
}
