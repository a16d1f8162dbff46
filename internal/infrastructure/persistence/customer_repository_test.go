package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/partner"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/shared"
)

func TestGormCustomerRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCustomerRepository(db)
	ctx := context.Background()

	instanceID := uuid.New()
	customer, err := partner.NewCustomer(instanceID, "42", "Jane Cooper", "Jane.Cooper@example.com")
	require.NoError(t, err)
	_, err = customer.UpsertAddress(partner.Address{
		Type:    partner.AddressTypeDelivery,
		Name:    "Jane Cooper",
		Street:  "12 Harbour Rd",
		City:    "Rotterdam",
		Zip:     "3011",
		Country: "NL",
	})
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, customer))

	t.Run("by id", func(t *testing.T) {
		loaded, err := repo.FindByID(ctx, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, "Jane Cooper", loaded.Name)
		require.Len(t, loaded.Addresses, 1)
		assert.Equal(t, "Rotterdam", loaded.Addresses[0].City)
	})

	t.Run("by external id", func(t *testing.T) {
		loaded, err := repo.FindByExternalID(ctx, instanceID, "42")
		require.NoError(t, err)
		assert.Equal(t, customer.ID, loaded.ID)
	})

	t.Run("other instance does not match", func(t *testing.T) {
		_, err := repo.FindByExternalID(ctx, uuid.New(), "42")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormCustomerRepository_FindRejectsEmptyKeys(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCustomerRepository(db)
	ctx := context.Background()

	_, err := repo.FindByExternalID(ctx, uuid.New(), "")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestGormCustomerRepository_AddressOverwrite(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCustomerRepository(db)
	ctx := context.Background()

	instanceID := uuid.New()
	customer, err := partner.NewCustomer(instanceID, "7", "Sam Ortiz", "sam@example.com")
	require.NoError(t, err)
	_, err = customer.UpsertAddress(partner.Address{
		Type: partner.AddressTypeInvoice, Street: "Old Lane 1", City: "Ghent", Country: "BE",
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, customer))

	_, err = customer.UpsertAddress(partner.Address{
		Type: partner.AddressTypeInvoice, Street: "New Lane 9", City: "Ghent", Country: "BE",
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, customer))

	loaded, err := repo.FindByID(ctx, customer.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Addresses, 1)
	assert.Equal(t, "New Lane 9", loaded.Addresses[0].Street)
}
