package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/sales"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/shared"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/persistence/models"
)

// GormGatewayRepository implements sales.GatewayRepository using GORM
type GormGatewayRepository struct {
	db *gorm.DB
}

// NewGormGatewayRepository creates a new GormGatewayRepository
func NewGormGatewayRepository(db *gorm.DB) *GormGatewayRepository {
	return &GormGatewayRepository{db: db}
}

// Save creates or updates a gateway
func (r *GormGatewayRepository) Save(ctx context.Context, gateway *sales.PaymentGateway) error {
	var model models.GatewayModel
	model.FromDomain(gateway)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&model).Error
}

// FindByCode finds a gateway by instance and storefront code
func (r *GormGatewayRepository) FindByCode(ctx context.Context, instanceID uuid.UUID, code string) (*sales.PaymentGateway, error) {
	var model models.GatewayModel
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

// FindByInstance returns all gateways of an instance
func (r *GormGatewayRepository) FindByInstance(ctx context.Context, instanceID uuid.UUID) ([]sales.PaymentGateway, error) {
	var gatewayModels []models.GatewayModel
	if err := r.db.WithContext(ctx).Where("instance_id = ?", instanceID).Find(&gatewayModels).Error; err != nil {
		return nil, err
	}
	gateways := make([]sales.PaymentGateway, len(gatewayModels))
	for i := range gatewayModels {
		gateways[i] = *gatewayModels[i].ToDomain()
	}
	return gateways, nil
}

var _ sales.GatewayRepository = (*GormGatewayRepository)(nil)

// GormFinancialStatusRepository implements sales.FinancialStatusRepository using GORM
type GormFinancialStatusRepository struct {
	db *gorm.DB
}

// NewGormFinancialStatusRepository creates a new GormFinancialStatusRepository
func NewGormFinancialStatusRepository(db *gorm.DB) *GormFinancialStatusRepository {
	return &GormFinancialStatusRepository{db: db}
}

// Save creates or updates a row
func (r *GormFinancialStatusRepository) Save(ctx context.Context, status *sales.FinancialStatus) error {
	var model models.FinancialStatusModel
	model.FromDomain(status)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&model).Error
}

// FindActive finds the active row for a gateway and payment state
func (r *GormFinancialStatusRepository) FindActive(ctx context.Context, instanceID, gatewayID uuid.UUID, state sales.FinancialState) (*sales.FinancialStatus, error) {
	var model models.FinancialStatusModel
	if err := r.db.WithContext(ctx).
		Where("instance_id = ? AND gateway_id = ? AND state = ? AND active = ?",
			instanceID, gatewayID, string(state), true).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Exists reports whether any row, active or not, covers the pair
func (r *GormFinancialStatusRepository) Exists(ctx context.Context, instanceID, gatewayID uuid.UUID, state sales.FinancialState) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.FinancialStatusModel{}).
		Where("instance_id = ? AND gateway_id = ? AND state = ?", instanceID, gatewayID, string(state)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ sales.FinancialStatusRepository = (*GormFinancialStatusRepository)(nil)

// GormWorkflowPolicyRepository implements sales.WorkflowPolicyRepository using GORM
type GormWorkflowPolicyRepository struct {
	db *gorm.DB
}

// NewGormWorkflowPolicyRepository creates a new GormWorkflowPolicyRepository
func NewGormWorkflowPolicyRepository(db *gorm.DB) *GormWorkflowPolicyRepository {
	return &GormWorkflowPolicyRepository{db: db}
}

// Save creates or updates a policy
func (r *GormWorkflowPolicyRepository) Save(ctx context.Context, policy *sales.WorkflowPolicy) error {
	var model models.WorkflowPolicyModel
	model.FromDomain(policy)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&model).Error
}

// FindByID finds a policy by ID
func (r *GormWorkflowPolicyRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.WorkflowPolicy, error) {
	var model models.WorkflowPolicyModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByName finds a policy by its display name
func (r *GormWorkflowPolicyRepository) FindByName(ctx context.Context, name string) (*sales.WorkflowPolicy, error) {
	var model models.WorkflowPolicyModel
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

var _ sales.WorkflowPolicyRepository = (*GormWorkflowPolicyRepository)(nil)

// GormCarrierRepository implements sales.CarrierRepository using GORM
type GormCarrierRepository struct {
	db *gorm.DB
}

// NewGormCarrierRepository creates a new GormCarrierRepository
func NewGormCarrierRepository(db *gorm.DB) *GormCarrierRepository {
	return &GormCarrierRepository{db: db}
}

// Save creates or updates a carrier
func (r *GormCarrierRepository) Save(ctx context.Context, carrier *sales.DeliveryCarrier) error {
	var model models.CarrierModel
	model.FromDomain(carrier)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&model).Error
}

// FindByCode finds a carrier by instance and storefront code
func (r *GormCarrierRepository) FindByCode(ctx context.Context, instanceID uuid.UUID, code string) (*sales.DeliveryCarrier, error) {
	var model models.CarrierModel
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

var _ sales.CarrierRepository = (*GormCarrierRepository)(nil)
