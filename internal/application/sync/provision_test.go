package sync

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/sales"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/persistence"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/persistence/models"
)

func newProvisionService(t *testing.T, db *gorm.DB) (*ProvisionService, sales.GatewayRepository, sales.FinancialStatusRepository) {
	t.Helper()
	gateways := persistence.NewGormGatewayRepository(db)
	statuses := persistence.NewGormFinancialStatusRepository(db)
	policies := persistence.NewGormWorkflowPolicyRepository(db)
	logs := persistence.NewGormOperationLogRepository(db)
	recorder := NewRecorder(logs, zap.NewNop())
	return NewProvisionService(gateways, statuses, policies, recorder, zap.NewNop()), gateways, statuses
}

func TestProvisionService_EnsureGateway(t *testing.T) {
	ctx := context.Background()

	t.Run("First sight creates the gateway and both status rows", func(t *testing.T) {
		db := setupSyncDB(t)
		service, gateways, statuses := newProvisionService(t, db)
		instance := testInstance(t, "https://shop.example.com")

		gateway, err := service.EnsureGateway(ctx, instance.ID, "stripe", "Stripe")
		require.NoError(t, err)
		assert.Equal(t, "stripe", gateway.Code)
		assert.Equal(t, "Stripe", gateway.Name)

		found, err := gateways.FindByCode(ctx, instance.ID, "stripe")
		require.NoError(t, err)
		assert.Equal(t, gateway.ID, found.ID)

		for _, state := range []sales.FinancialState{sales.FinancialStatePaid, sales.FinancialStateNotPaid} {
			status, err := statuses.FindActive(ctx, instance.ID, gateway.ID, state)
			require.NoError(t, err, "status row for %s", state)
			assert.True(t, status.Active)
			require.NotNil(t, status.WorkflowPolicyID)
		}
	})

	t.Run("Status rows bind to the stock workflow policy", func(t *testing.T) {
		db := setupSyncDB(t)
		service, _, statuses := newProvisionService(t, db)
		instance := testInstance(t, "https://shop.example.com")

		gateway, err := service.EnsureGateway(ctx, instance.ID, "cod", "Cash on delivery")
		require.NoError(t, err)

		policy, err := service.EnsureDefaultPolicy(ctx)
		require.NoError(t, err)
		assert.Equal(t, sales.PickingPolicyDirect, policy.PickingPolicy)
		assert.False(t, policy.RequiresAnyStep())

		status, err := statuses.FindActive(ctx, instance.ID, gateway.ID, sales.FinancialStateNotPaid)
		require.NoError(t, err)
		assert.Equal(t, policy.ID, *status.WorkflowPolicyID)
	})

	t.Run("A second sight reuses the existing rows", func(t *testing.T) {
		db := setupSyncDB(t)
		service, _, _ := newProvisionService(t, db)
		instance := testInstance(t, "https://shop.example.com")

		first, err := service.EnsureGateway(ctx, instance.ID, "stripe", "Stripe")
		require.NoError(t, err)
		second, err := service.EnsureGateway(ctx, instance.ID, "stripe", "Stripe")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		var gatewayCount, statusCount, policyCount int64
		require.NoError(t, db.Model(&models.GatewayModel{}).Count(&gatewayCount).Error)
		require.NoError(t, db.Model(&models.FinancialStatusModel{}).Count(&statusCount).Error)
		require.NoError(t, db.Model(&models.WorkflowPolicyModel{}).Count(&policyCount).Error)
		assert.Equal(t, int64(1), gatewayCount)
		assert.Equal(t, int64(2), statusCount)
		assert.Equal(t, int64(1), policyCount)
	})
}

func TestProvisionService_ImportGateways(t *testing.T) {
	ctx := context.Background()
	db := setupSyncDB(t)
	service, gateways, _ := newProvisionService(t, db)

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	mux.HandleFunc("/wp-json/wc/v3/payment_gateways", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id":"stripe","title":"Stripe","enabled":true},
			{"id":"cod","title":"Cash on delivery","enabled":false},
			{"id":"","title":"broken"}]`)
	})

	instance := testInstance(t, server.URL)
	client := testClients()(instance)

	require.NoError(t, service.ImportGateways(ctx, instance, client))

	var count int64
	require.NoError(t, db.Model(&models.GatewayModel{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	cod, err := gateways.FindByCode(ctx, instance.ID, "cod")
	require.NoError(t, err)
	assert.Equal(t, "Cash on delivery", cod.Name)
}
