package erp

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/shared"
)

// GormPriceLists implements sales.PriceListSource on the local ERP tables
type GormPriceLists struct {
	db *gorm.DB
}

// NewGormPriceLists creates a new GormPriceLists
func NewGormPriceLists(db *gorm.DB) *GormPriceLists {
	return &GormPriceLists{db: db}
}

// FindByCurrency returns the oldest price list priced in the currency
func (p *GormPriceLists) FindByCurrency(ctx context.Context, currency string) (uuid.UUID, error) {
	var list PriceListModel
	err := p.db.WithContext(ctx).
		Where("currency = ?", currency).
		Order("created_at ASC").
		First(&list).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, shared.ErrNotFound
		}
		return uuid.Nil, err
	}
	return list.ID, nil
}

// CreatePriceList inserts a price list row, mainly for provisioning and tests
func (p *GormPriceLists) CreatePriceList(ctx context.Context, name, currency string) (uuid.UUID, error) {
	now := time.Now()
	list := PriceListModel{
		ID:        uuid.New(),
		Name:      name,
		Currency:  currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.db.WithContext(ctx).Create(&list).Error; err != nil {
		return uuid.Nil, err
	}
	return list.ID, nil
}
