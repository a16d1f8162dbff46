package erp

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/catalog"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/shared"
)

// GormErpCatalog implements catalog.ErpCatalog on the local ERP tables
type GormErpCatalog struct {
	db *gorm.DB
}

// NewGormErpCatalog creates a new GormErpCatalog
func NewGormErpCatalog(db *gorm.DB) *GormErpCatalog {
	return &GormErpCatalog{db: db}
}

// FindVariantBySKU finds a product variant by SKU
func (c *GormErpCatalog) FindVariantBySKU(ctx context.Context, sku string) (uuid.UUID, error) {
	if sku == "" {
		return uuid.Nil, shared.ErrInvalidInput
	}
	var variant VariantModel
	if err := c.db.WithContext(ctx).Where("sku = ?", sku).First(&variant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, shared.ErrNotFound
		}
		return uuid.Nil, err
	}
	return variant.ID, nil
}

// FindTemplateBySKU finds a template whose own SKU matches
func (c *GormErpCatalog) FindTemplateBySKU(ctx context.Context, sku string) (uuid.UUID, error) {
	if sku == "" {
		return uuid.Nil, shared.ErrInvalidInput
	}
	var template TemplateModel
	if err := c.db.WithContext(ctx).Where("sku = ?", sku).First(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, shared.ErrNotFound
		}
		return uuid.Nil, err
	}
	return template.ID, nil
}

// FindTemplateByName finds a template by exact name
func (c *GormErpCatalog) FindTemplateByName(ctx context.Context, name string) (uuid.UUID, error) {
	if name == "" {
		return uuid.Nil, shared.ErrInvalidInput
	}
	var template TemplateModel
	if err := c.db.WithContext(ctx).Where("name = ?", name).First(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, shared.ErrNotFound
		}
		return uuid.Nil, err
	}
	return template.ID, nil
}

// CreateTemplate creates a template together with its initial variant
func (c *GormErpCatalog) CreateTemplate(ctx context.Context, name string) (uuid.UUID, error) {
	if name == "" {
		return uuid.Nil, shared.ErrInvalidInput
	}
	now := time.Now()
	template := TemplateModel{ID: uuid.New(), Name: name, CreatedAt: now, UpdatedAt: now}
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&template).Error; err != nil {
			return err
		}
		variant := VariantModel{
			ID:         uuid.New(),
			TemplateID: template.ID,
			Attributes: encodeAttributes(nil),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return tx.Create(&variant).Error
	})
	if err != nil {
		return uuid.Nil, err
	}
	return template.ID, nil
}

// SyncAttributeLines ensures the template carries the given attribute lines
// and rebuilds the variant matrix from their combinations. Existing variants
// keep their identity and SKU.
func (c *GormErpCatalog) SyncAttributeLines(ctx context.Context, templateID uuid.UUID, lines []catalog.AttributeLine) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for _, line := range lines {
			model := AttributeLineModel{
				ID:         uuid.New(),
				TemplateID: templateID,
				Name:       line.Name,
				Values:     encodeValues(line.Values),
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "template_id"}, {Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"values", "updated_at"}),
			}).Create(&model).Error
			if err != nil {
				return err
			}
		}

		var stored []AttributeLineModel
		if err := tx.Where("template_id = ?", templateID).Order("name ASC").Find(&stored).Error; err != nil {
			return err
		}
		combos := combinations(stored)

		var existing []VariantModel
		if err := tx.Where("template_id = ?", templateID).Find(&existing).Error; err != nil {
			return err
		}
		for _, combo := range combos {
			if findVariant(existing, combo) != uuid.Nil {
				continue
			}
			variant := VariantModel{
				ID:         uuid.New(),
				TemplateID: templateID,
				Attributes: encodeAttributes(combo),
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := tx.Create(&variant).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// VariantCount returns how many variants a template has
func (c *GormErpCatalog) VariantCount(ctx context.Context, templateID uuid.UUID) (int, error) {
	var count int64
	err := c.db.WithContext(ctx).
		Model(&VariantModel{}).
		Where("template_id = ?", templateID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// FindVariantByAttributes finds the template variant matching the given
// attribute value assignment
func (c *GormErpCatalog) FindVariantByAttributes(ctx context.Context, templateID uuid.UUID, values map[string]string) (uuid.UUID, error) {
	var variants []VariantModel
	err := c.db.WithContext(ctx).Where("template_id = ?", templateID).Find(&variants).Error
	if err != nil {
		return uuid.Nil, err
	}
	id := findVariant(variants, values)
	if id == uuid.Nil {
		return uuid.Nil, shared.ErrNotFound
	}
	return id, nil
}

// SetVariantSKU stamps a SKU onto a variant
func (c *GormErpCatalog) SetVariantSKU(ctx context.Context, variantID uuid.UUID, sku string) error {
	result := c.db.WithContext(ctx).
		Model(&VariantModel{}).
		Where("id = ?", variantID).
		Updates(map[string]interface{}{"sku": sku, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetListPrice sets the sale price on a template
func (c *GormErpCatalog) SetListPrice(ctx context.Context, templateID uuid.UUID, price decimal.Decimal) error {
	result := c.db.WithContext(ctx).
		Model(&TemplateModel{}).
		Where("id = ?", templateID).
		Updates(map[string]interface{}{"list_price": price, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AvailableQuantity returns the free-to-sell quantity of a variant in a
// warehouse
func (c *GormErpCatalog) AvailableQuantity(ctx context.Context, variantID, warehouseID uuid.UUID) (decimal.Decimal, error) {
	var quant StockQuantModel
	err := c.db.WithContext(ctx).
		Where("variant_id = ? AND warehouse_id = ?", variantID, warehouseID).
		First(&quant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return quant.Quantity, nil
}

// SetQuantity sets the on-hand quantity of a variant in a warehouse. It is
// not part of the catalog port; tests and stock adjustments use it.
func (c *GormErpCatalog) SetQuantity(ctx context.Context, variantID, warehouseID uuid.UUID, qty decimal.Decimal) error {
	now := time.Now()
	quant := StockQuantModel{
		ID:          uuid.New(),
		VariantID:   variantID,
		WarehouseID: warehouseID,
		Quantity:    qty,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "variant_id"}, {Name: "warehouse_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(&quant).Error
}

// combinations expands attribute lines into the list of attribute value
// assignments, one per variant
func combinations(lines []AttributeLineModel) []map[string]string {
	combos := []map[string]string{{}}
	for _, line := range lines {
		values := decodeValues(line.Values)
		if len(values) == 0 {
			continue
		}
		next := make([]map[string]string, 0, len(combos)*len(values))
		for _, combo := range combos {
			for _, value := range values {
				expanded := make(map[string]string, len(combo)+1)
				for k, v := range combo {
					expanded[k] = v
				}
				expanded[line.Name] = value
				next = append(next, expanded)
			}
		}
		combos = next
	}
	return combos
}

func findVariant(variants []VariantModel, values map[string]string) uuid.UUID {
	for i := range variants {
		stored := decodeAttributes(variants[i].Attributes)
		if len(stored) != len(values) {
			continue
		}
		match := true
		for k, v := range values {
			if stored[k] != v {
				match = false
				break
			}
		}
		if match {
			return variants[i].ID
		}
	}
	return uuid.Nil
}

var _ catalog.ErpCatalog = (*GormErpCatalog)(nil)
