package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/catalog"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/shared"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/persistence/models"
)

// GormListingRepository implements catalog.ListingRepository using GORM
type GormListingRepository struct {
	db *gorm.DB
}

// NewGormListingRepository creates a new GormListingRepository
func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

// Save creates or updates a listing together with its items
func (r *GormListingRepository) Save(ctx context.Context, listing *catalog.Listing) error {
	var model models.ListingModel
	model.FromDomain(listing)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := model.Items
		model.Items = nil
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&model).Error; err != nil {
			return err
		}
		for i := range items {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID loads a listing with its items
func (r *GormListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Listing, error) {
	var model models.ListingModel
	if err := r.db.WithContext(ctx).Preload("Items").First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByRemoteID finds a listing by instance and storefront product identifier
func (r *GormListingRepository) FindByRemoteID(ctx context.Context, instanceID uuid.UUID, remoteID string) (*catalog.Listing, error) {
	if remoteID == "" {
		return nil, shared.ErrInvalidInput
	}
	var model models.ListingModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("instance_id = ? AND remote_id = ?", instanceID, remoteID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTemplate finds the listing of a template on an instance
func (r *GormListingRepository) FindByTemplate(ctx context.Context, instanceID, templateID uuid.UUID) (*catalog.Listing, error) {
	var model models.ListingModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("instance_id = ? AND template_id = ?", instanceID, templateID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindItemBySKU finds a per-variant row by instance and SKU
func (r *GormListingRepository) FindItemBySKU(ctx context.Context, instanceID uuid.UUID, sku string) (*catalog.ListingItem, error) {
	if sku == "" {
		return nil, shared.ErrInvalidInput
	}
	var model models.ListingItemModel
	if err := r.db.WithContext(ctx).
		Where("instance_id = ? AND sku = ?", instanceID, sku).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindItemByRemoteID finds a per-variant row by instance and storefront
// variation identifier
func (r *GormListingRepository) FindItemByRemoteID(ctx context.Context, instanceID uuid.UUID, remoteID string) (*catalog.ListingItem, error) {
	if remoteID == "" {
		return nil, shared.ErrInvalidInput
	}
	var model models.ListingItemModel
	if err := r.db.WithContext(ctx).
		Where("instance_id = ? AND remote_id = ?", instanceID, remoteID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindExported returns all exported listings of an instance
func (r *GormListingRepository) FindExported(ctx context.Context, instanceID uuid.UUID) ([]catalog.Listing, error) {
	var listingModels []models.ListingModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("instance_id = ? AND exported = ?", instanceID, true).
		Find(&listingModels).Error; err != nil {
		return nil, err
	}
	listings := make([]catalog.Listing, len(listingModels))
	for i := range listingModels {
		listings[i] = *listingModels[i].ToDomain()
	}
	return listings, nil
}

var _ catalog.ListingRepository = (*GormListingRepository)(nil)
