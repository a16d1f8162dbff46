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

// GormCategoryRepository implements catalog.CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// Save creates or updates a category
func (r *GormCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	var model models.CategoryModel
	model.FromDomain(category)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&model).Error
}

// FindByID finds a category by ID
func (r *GormCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	var model models.CategoryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByRemoteID finds a category by instance and storefront term
func (r *GormCategoryRepository) FindByRemoteID(ctx context.Context, instanceID uuid.UUID, remoteID string) (*catalog.Category, error) {
	if remoteID == "" {
		return nil, shared.ErrInvalidInput
	}
	var model models.CategoryModel
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

// FindBySlug finds a category by instance and slug
func (r *GormCategoryRepository) FindBySlug(ctx context.Context, instanceID uuid.UUID, slug string) (*catalog.Category, error) {
	if slug == "" {
		return nil, shared.ErrInvalidInput
	}
	var model models.CategoryModel
	if err := r.db.WithContext(ctx).
		Where("instance_id = ? AND slug = ?", instanceID, slug).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInstance returns all categories of an instance
func (r *GormCategoryRepository) FindByInstance(ctx context.Context, instanceID uuid.UUID) ([]catalog.Category, error) {
	var categoryModels []models.CategoryModel
	if err := r.db.WithContext(ctx).
		Where("instance_id = ?", instanceID).
		Order("created_at ASC").
		Find(&categoryModels).Error; err != nil {
		return nil, err
	}
	categories := make([]catalog.Category, len(categoryModels))
	for i := range categoryModels {
		categories[i] = *categoryModels[i].ToDomain()
	}
	return categories, nil
}

// FindByIDs loads the given categories in one pass
func (r *GormCategoryRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var categoryModels []models.CategoryModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&categoryModels).Error; err != nil {
		return nil, err
	}
	categories := make([]catalog.Category, len(categoryModels))
	for i := range categoryModels {
		categories[i] = *categoryModels[i].ToDomain()
	}
	return categories, nil
}

var _ catalog.CategoryRepository = (*GormCategoryRepository)(nil)

// GormTagRepository implements catalog.TagRepository using GORM
type GormTagRepository struct {
	db *gorm.DB
}

// NewGormTagRepository creates a new GormTagRepository
func NewGormTagRepository(db *gorm.DB) *GormTagRepository {
	return &GormTagRepository{db: db}
}

// Save creates or updates a tag
func (r *GormTagRepository) Save(ctx context.Context, tag *catalog.Tag) error {
	var model models.TagModel
	model.FromDomain(tag)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&model).Error
}

// FindByRemoteID finds a tag by instance and storefront term
func (r *GormTagRepository) FindByRemoteID(ctx context.Context, instanceID uuid.UUID, remoteID string) (*catalog.Tag, error) {
	if remoteID == "" {
		return nil, shared.ErrInvalidInput
	}
	var model models.TagModel
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

// FindBySlug finds a tag by instance and slug
func (r *GormTagRepository) FindBySlug(ctx context.Context, instanceID uuid.UUID, slug string) (*catalog.Tag, error) {
	if slug == "" {
		return nil, shared.ErrInvalidInput
	}
	var model models.TagModel
	if err := r.db.WithContext(ctx).
		Where("instance_id = ? AND slug = ?", instanceID, slug).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs loads the given tags in one pass
func (r *GormTagRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tagModels []models.TagModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tagModels).Error; err != nil {
		return nil, err
	}
	tags := make([]catalog.Tag, len(tagModels))
	for i := range tagModels {
		tags[i] = *tagModels[i].ToDomain()
	}
	return tags, nil
}

var _ catalog.TagRepository = (*GormTagRepository)(nil)

// GormTaxRepository implements catalog.TaxRepository using GORM
type GormTaxRepository struct {
	db *gorm.DB
}

// NewGormTaxRepository creates a new GormTaxRepository
func NewGormTaxRepository(db *gorm.DB) *GormTaxRepository {
	return &GormTaxRepository{db: db}
}

// Save creates or updates a mapping
func (r *GormTaxRepository) Save(ctx context.Context, tax *catalog.Tax) error {
	var model models.TaxModel
	model.FromDomain(tax)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&model).Error
}

// FindByRemoteID finds a mapping by instance and storefront rate
func (r *GormTaxRepository) FindByRemoteID(ctx context.Context, instanceID uuid.UUID, remoteID string) (*catalog.Tax, error) {
	if remoteID == "" {
		return nil, shared.ErrInvalidInput
	}
	var model models.TaxModel
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

// FindByInstance returns all mappings of an instance
func (r *GormTaxRepository) FindByInstance(ctx context.Context, instanceID uuid.UUID) ([]catalog.Tax, error) {
	var taxModels []models.TaxModel
	if err := r.db.WithContext(ctx).Where("instance_id = ?", instanceID).Find(&taxModels).Error; err != nil {
		return nil, err
	}
	taxes := make([]catalog.Tax, len(taxModels))
	for i := range taxModels {
		taxes[i] = *taxModels[i].ToDomain()
	}
	return taxes, nil
}

var _ catalog.TaxRepository = (*GormTaxRepository)(nil)

// GormShippingMethodRepository implements catalog.ShippingMethodRepository using GORM
type GormShippingMethodRepository struct {
	db *gorm.DB
}

// NewGormShippingMethodRepository creates a new GormShippingMethodRepository
func NewGormShippingMethodRepository(db *gorm.DB) *GormShippingMethodRepository {
	return &GormShippingMethodRepository{db: db}
}

// Save creates or updates a method
func (r *GormShippingMethodRepository) Save(ctx context.Context, method *catalog.ShippingMethod) error {
	var model models.ShippingMethodModel
	model.FromDomain(method)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&model).Error
}

// FindByCode finds a method by instance and storefront code
func (r *GormShippingMethodRepository) FindByCode(ctx context.Context, instanceID uuid.UUID, code string) (*catalog.ShippingMethod, error) {
	var model models.ShippingMethodModel
	if err := r.db.WithContext(ctx).
		Where("instance_id = ? AND code = ?", instanceID, code).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

var _ catalog.ShippingMethodRepository = (*GormShippingMethodRepository)(nil)

// GormImageRepository implements catalog.ImageRepository using GORM
type GormImageRepository struct {
	db *gorm.DB
}

// NewGormImageRepository creates a new GormImageRepository
func NewGormImageRepository(db *gorm.DB) *GormImageRepository {
	return &GormImageRepository{db: db}
}

// Save creates or updates an image
func (r *GormImageRepository) Save(ctx context.Context, image *catalog.ProductImage) error {
	var model models.ImageModel
	model.FromDomain(image)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&model).Error
}

// FindByListing returns all images of a listing ordered by sequence
func (r *GormImageRepository) FindByListing(ctx context.Context, listingID uuid.UUID) ([]catalog.ProductImage, error) {
	var imageModels []models.ImageModel
	if err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("sequence ASC").
		Find(&imageModels).Error; err != nil {
		return nil, err
	}
	images := make([]catalog.ProductImage, len(imageModels))
	for i := range imageModels {
		images[i] = *imageModels[i].ToDomain()
	}
	return images, nil
}

var _ catalog.ImageRepository = (*GormImageRepository)(nil)
