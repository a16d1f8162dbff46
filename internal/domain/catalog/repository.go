package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Repository Interfaces
// ---------------------------------------------------------------------------

// ListingRepository defines persistence for listings and their items
type ListingRepository interface {
	// Save creates or updates a listing together with its items
	Save(ctx context.Context, listing *Listing) error

	// FindByID loads a listing with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Listing, error)

	// FindByRemoteID finds a listing by instance and storefront product
	// identifier
	FindByRemoteID(ctx context.Context, instanceID uuid.UUID, remoteID string) (*Listing, error)

	// FindByTemplate finds the listing of a template on an instance
	FindByTemplate(ctx context.Context, instanceID, templateID uuid.UUID) (*Listing, error)

	// FindItemBySKU finds a per-variant row by instance and SKU
	FindItemBySKU(ctx context.Context, instanceID uuid.UUID, sku string) (*ListingItem, error)

	// FindItemByRemoteID finds a per-variant row by instance and
	// storefront variation identifier
	FindItemByRemoteID(ctx context.Context, instanceID uuid.UUID, remoteID string) (*ListingItem, error)

	// FindExported returns all exported listings of an instance
	FindExported(ctx context.Context, instanceID uuid.UUID) ([]Listing, error)
}

// CategoryRepository defines persistence for category mirrors
type CategoryRepository interface {
	// Save creates or updates a category
	Save(ctx context.Context, category *Category) error

	// FindByID finds a category by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)

	// FindByRemoteID finds a category by instance and storefront term
	FindByRemoteID(ctx context.Context, instanceID uuid.UUID, remoteID string) (*Category, error)

	// FindBySlug finds a category by instance and slug
	FindBySlug(ctx context.Context, instanceID uuid.UUID, slug string) (*Category, error)

	// FindByIDs loads the given categories in one pass
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Category, error)

	// FindByInstance returns all categories of an instance
	FindByInstance(ctx context.Context, instanceID uuid.UUID) ([]Category, error)
}

// TagRepository defines persistence for tag mirrors
type TagRepository interface {
	// Save creates or updates a tag
	Save(ctx context.Context, tag *Tag) error

	// FindByRemoteID finds a tag by instance and storefront term
	FindByRemoteID(ctx context.Context, instanceID uuid.UUID, remoteID string) (*Tag, error)

	// FindBySlug finds a tag by instance and slug
	FindBySlug(ctx context.Context, instanceID uuid.UUID, slug string) (*Tag, error)

	// FindByIDs loads the given tags in one pass
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Tag, error)
}

// TaxRepository defines persistence for tax mappings
type TaxRepository interface {
	// Save creates or updates a mapping
	Save(ctx context.Context, tax *Tax) error

	// FindByRemoteID finds a mapping by instance and storefront rate
	FindByRemoteID(ctx context.Context, instanceID uuid.UUID, remoteID string) (*Tax, error)

	// FindByInstance returns all mappings of an instance
	FindByInstance(ctx context.Context, instanceID uuid.UUID) ([]Tax, error)
}

// ShippingMethodRepository defines persistence for shipping method mirrors
type ShippingMethodRepository interface {
	// Save creates or updates a method
	Save(ctx context.Context, method *ShippingMethod) error

	// FindByCode finds a method by instance and storefront code
	FindByCode(ctx context.Context, instanceID uuid.UUID, code string) (*ShippingMethod, error)
}

// ImageRepository defines persistence for product images
type ImageRepository interface {
	// Save creates or updates an image
	Save(ctx context.Context, image *ProductImage) error

	// FindByListing returns all images of a listing ordered by sequence
	FindByListing(ctx context.Context, listingID uuid.UUID) ([]ProductImage, error)
}
