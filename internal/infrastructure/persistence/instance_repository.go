package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/shared"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/store"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/persistence/models"
)

// GormInstanceRepository implements store.InstanceRepository using GORM
type GormInstanceRepository struct {
	db *gorm.DB
}

// NewGormInstanceRepository creates a new GormInstanceRepository
func NewGormInstanceRepository(db *gorm.DB) *GormInstanceRepository {
	return &GormInstanceRepository{db: db}
}

// Save creates or updates an instance
func (r *GormInstanceRepository) Save(ctx context.Context, instance *store.Instance) error {
	var model models.InstanceModel
	model.FromDomain(instance)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&model).Error
}

// FindByID finds an instance by its ID
func (r *GormInstanceRepository) FindByID(ctx context.Context, id uuid.UUID) (*store.Instance, error) {
	var model models.InstanceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActive returns all active instances
func (r *GormInstanceRepository) FindActive(ctx context.Context) ([]store.Instance, error) {
	var instanceModels []models.InstanceModel
	if err := r.db.WithContext(ctx).Where("active = ?", true).Find(&instanceModels).Error; err != nil {
		return nil, err
	}
	instances := make([]store.Instance, len(instanceModels))
	for i := range instanceModels {
		instances[i] = *instanceModels[i].ToDomain()
	}
	return instances, nil
}

// FindByDomain finds an instance whose base URL contains the given shop domain
func (r *GormInstanceRepository) FindByDomain(ctx context.Context, domain string) (*store.Instance, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return nil, shared.ErrInvalidInput
	}
	var instanceModels []models.InstanceModel
	if err := r.db.WithContext(ctx).Find(&instanceModels).Error; err != nil {
		return nil, err
	}
	for i := range instanceModels {
		instance := instanceModels[i].ToDomain()
		if instance.MatchesDomain(domain) {
			return instance, nil
		}
	}
	return nil, shared.ErrNotFound
}

var _ store.InstanceRepository = (*GormInstanceRepository)(nil)
