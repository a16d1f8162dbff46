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

// GormQueueRepository implements queue.Repository using GORM
type GormQueueRepository struct {
	db *gorm.DB
}

// NewGormQueueRepository creates a new GormQueueRepository
func NewGormQueueRepository(db *gorm.DB) *GormQueueRepository {
	return &GormQueueRepository{db: db}
}

// Save creates or updates a batch together with its lines
func (r *GormQueueRepository) Save(ctx context.Context, q *queue.Queue) error {
	var model models.QueueModel
	model.FromDomain(q)
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

// SaveLine updates a single line and refreshes the derived state column of
// its batch
func (r *GormQueueRepository) SaveLine(ctx context.Context, line *queue.Line) error {
	var model models.QueueLineModel
	model.FromDomain(line)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&model).Error; err != nil {
			return err
		}
		var siblings []models.QueueLineModel
		if err := tx.Where("queue_id = ?", line.QueueID).Find(&siblings).Error; err != nil {
			return err
		}
		lines := make([]queue.Line, len(siblings))
		for i := range siblings {
			lines[i] = *siblings[i].ToDomain()
		}
		state := queue.DeriveState(lines)
		return tx.Model(&models.QueueModel{}).
			Where("id = ?", line.QueueID).
			Update("state", string(state)).Error
	})
}

// FindByID loads a batch with all its lines
func (r *GormQueueRepository) FindByID(ctx context.Context, id uuid.UUID) (*queue.Queue, error) {
	var model models.QueueModel
	if err := r.db.WithContext(ctx).Preload("Lines").First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindPending returns batches of the given kind whose derived state is one
// of the given states, oldest first
func (r *GormQueueRepository) FindPending(ctx context.Context, instanceID uuid.UUID, kind queue.Kind, states []queue.State) ([]queue.Queue, error) {
	stateStrings := make([]string, len(states))
	for i, s := range states {
		stateStrings[i] = string(s)
	}
	var queueModels []models.QueueModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("instance_id = ? AND kind = ? AND state IN ?", instanceID, string(kind), stateStrings).
		Order("created_at ASC").
		Find(&queueModels).Error; err != nil {
		return nil, err
	}
	queues := make([]queue.Queue, len(queueModels))
	for i := range queueModels {
		queues[i] = *queueModels[i].ToDomain()
	}
	return queues, nil
}

// FindLineByExternalID finds the newest line of a kind for a storefront
// identifier
func (r *GormQueueRepository) FindLineByExternalID(ctx context.Context, instanceID uuid.UUID, kind queue.Kind, externalID string) (*queue.Line, error) {
	var model models.QueueLineModel
	err := r.db.WithContext(ctx).
		Joins("JOIN sync_queues ON sync_queues.id = sync_queue_lines.queue_id").
		Where("sync_queue_lines.instance_id = ? AND sync_queues.kind = ? AND sync_queue_lines.external_id = ?",
			instanceID, string(kind), externalID).
		Order("sync_queue_lines.created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// NextSequence returns the next batch sequence number for a kind
func (r *GormQueueRepository) NextSequence(ctx context.Context, kind queue.Kind) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.QueueModel{}).
		Where("kind = ?", string(kind)).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count + 1, nil
}

var _ queue.Repository = (*GormQueueRepository)(nil)
