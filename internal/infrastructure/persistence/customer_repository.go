package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/partner"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/shared"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/persistence/models"
)

// GormCustomerRepository implements partner.Repository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// Save creates or updates a customer together with its addresses
func (r *GormCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	var model models.CustomerModel
	model.FromDomain(customer)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		addresses := model.Addresses
		model.Addresses = nil
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&model).Error; err != nil {
			return err
		}
		for i := range addresses {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&addresses[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID loads a customer with its addresses
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).Preload("Addresses").First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByExternalID finds a customer by its storefront identifier
func (r *GormCustomerRepository) FindByExternalID(ctx context.Context, instanceID uuid.UUID, externalID string) (*partner.Customer, error) {
	if externalID == "" {
		return nil, shared.ErrInvalidInput
	}
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).
		Preload("Addresses").
		Where("instance_id = ? AND external_id = ?", instanceID, externalID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

var _ partner.Repository = (*GormCustomerRepository)(nil)
