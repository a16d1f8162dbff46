package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/persistence/models"
)

// setupTestDB creates an in-memory SQLite database with the full schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.InstanceModel{},
		&models.WebhookModel{},
		&models.QueueModel{},
		&models.QueueLineModel{},
		&models.OperationLogModel{},
		&models.OperationLogLineModel{},
		&models.CustomerModel{},
		&models.AddressModel{},
		&models.SalesOrderModel{},
		&models.OrderLineModel{},
		&models.GatewayModel{},
		&models.FinancialStatusModel{},
		&models.WorkflowPolicyModel{},
		&models.CarrierModel{},
		&models.ListingModel{},
		&models.ListingItemModel{},
		&models.CategoryModel{},
		&models.TagModel{},
		&models.TaxModel{},
		&models.ShippingMethodModel{},
		&models.ImageModel{},
	)
	require.NoError(t, err)

	return db
}
