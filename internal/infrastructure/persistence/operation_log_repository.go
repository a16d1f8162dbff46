package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/queue"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/shared"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/persistence/models"
)

// GormOperationLogRepository implements queue.OperationLogRepository using GORM
type GormOperationLogRepository struct {
	db *gorm.DB
}

// NewGormOperationLogRepository creates a new GormOperationLogRepository
func NewGormOperationLogRepository(db *gorm.DB) *GormOperationLogRepository {
	return &GormOperationLogRepository{db: db}
}

// Save creates or updates a log together with its lines
func (r *GormOperationLogRepository) Save(ctx context.Context, log *queue.OperationLog) error {
	var model models.OperationLogModel
	model.FromDomain(log)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lines := model.Lines
		model.Lines = nil
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&model).Error; err != nil {
			return err
		}
		for i := range lines {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&lines[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID loads a log with all its lines
func (r *GormOperationLogRepository) FindByID(ctx context.Context, id uuid.UUID) (*queue.OperationLog, error) {
	var model models.OperationLogModel
	if err := r.db.WithContext(ctx).Preload("Lines").First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Delete removes a log and its lines
func (r *GormOperationLogRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("log_id = ?", id).Delete(&models.OperationLogLineModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.OperationLogModel{}, "id = ?", id).Error
	})
}

// NextSequence returns the next log sequence number
func (r *GormOperationLogRepository) NextSequence(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.OperationLogModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count + 1, nil
}

var _ queue.OperationLogRepository = (*GormOperationLogRepository)(nil)
