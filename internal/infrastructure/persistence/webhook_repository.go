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

// GormWebhookRepository implements store.WebhookRepository using GORM
type GormWebhookRepository struct {
	db *gorm.DB
}

// NewGormWebhookRepository creates a new GormWebhookRepository
func NewGormWebhookRepository(db *gorm.DB) *GormWebhookRepository {
	return &GormWebhookRepository{db: db}
}

// Save creates or updates a registration
func (r *GormWebhookRepository) Save(ctx context.Context, webhook *store.WebhookRegistration) error {
	var model models.WebhookModel
	model.FromDomain(webhook)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&model).Error
}

// FindByInstanceAndTopic finds a registration by instance and topic
func (r *GormWebhookRepository) FindByInstanceAndTopic(ctx context.Context, instanceID uuid.UUID, topic store.WebhookTopic) (*store.WebhookRegistration, error) {
	var model models.WebhookModel
	if err := r.db.WithContext(ctx).
		Where("instance_id = ? AND topic = ?", instanceID, string(topic)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInstanceAndRoute finds a registration whose delivery URL ends with
// the given route
func (r *GormWebhookRepository) FindByInstanceAndRoute(ctx context.Context, instanceID uuid.UUID, route string) (*store.WebhookRegistration, error) {
	var webhookModels []models.WebhookModel
	if err := r.db.WithContext(ctx).Where("instance_id = ?", instanceID).Find(&webhookModels).Error; err != nil {
		return nil, err
	}
	for i := range webhookModels {
		if strings.HasSuffix(webhookModels[i].DeliveryURL, route) || webhookModels[i].ToDomain().Topic.Route() == route {
			return webhookModels[i].ToDomain(), nil
		}
	}
	return nil, shared.ErrNotFound
}

var _ store.WebhookRepository = (*GormWebhookRepository)(nil)
