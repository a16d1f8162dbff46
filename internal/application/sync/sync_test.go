package sync

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/store"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/erp"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/persistence/models"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/woocommerce"
)

// setupSyncDB creates an in-memory SQLite database carrying the connector
// schema plus the local ERP tables
func setupSyncDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(append(models.All(), erp.Models()...)...))
	return db
}

func testInstance(t *testing.T, baseURL string) *store.Instance {
	t.Helper()
	inst, err := store.NewInstance("Test Shop", baseURL, "ck_test", "cs_test", uuid.New(), uuid.New())
	require.NoError(t, err)
	inst.ShippingProductID = uuid.New()
	inst.FeeProductID = uuid.New()
	return inst
}

func testClients() ClientFactory {
	return func(instance *store.Instance) *woocommerce.Client {
		return woocommerce.NewClient(instance, zap.NewNop())
	}
}
