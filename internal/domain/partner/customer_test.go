package partner

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCustomer(t *testing.T) {
	instanceID := uuid.New()

	t.Run("Valid creation", func(t *testing.T) {
		c, err := NewCustomer(instanceID, "17", "Jane Smith", "jane@example.com")
		require.NoError(t, err)
		assert.Equal(t, "Jane Smith", c.Name)
		assert.Equal(t, "17", c.ExternalID)
	})

	t.Run("Name falls back to email", func(t *testing.T) {
		c, err := NewCustomer(instanceID, "23", "  ", "mail.only@example.com")
		require.NoError(t, err)
		assert.Equal(t, "mail.only@example.com", c.Name)
	})

	t.Run("No name at all", func(t *testing.T) {
		_, err := NewCustomer(instanceID, "23", "", "")
		assert.ErrorIs(t, err, ErrCustomerInvalidName)
	})

	t.Run("Nil instance", func(t *testing.T) {
		_, err := NewCustomer(uuid.Nil, "17", "Jane", "jane@example.com")
		assert.Error(t, err)
	})
}

func TestCustomer_UpsertAddress(t *testing.T) {
	c, err := NewCustomer(uuid.New(), "17", "Jane Smith", "jane@example.com")
	require.NoError(t, err)

	t.Run("Adds one address per type", func(t *testing.T) {
		_, err := c.UpsertAddress(Address{Type: AddressTypeDelivery, Street: "1 Old Rd", City: "Austin"})
		require.NoError(t, err)
		_, err = c.UpsertAddress(Address{Type: AddressTypeInvoice, Street: "2 Billing St", City: "Austin"})
		require.NoError(t, err)
		assert.Len(t, c.Addresses, 2)
	})

	t.Run("Overwrites instead of appending", func(t *testing.T) {
		before := c.AddressOfType(AddressTypeDelivery)
		require.NotNil(t, before)
		beforeID := before.ID

		stored, err := c.UpsertAddress(Address{Type: AddressTypeDelivery, Street: "9 New Ave", City: "Dallas"})
		require.NoError(t, err)
		assert.Len(t, c.Addresses, 2)
		assert.Equal(t, beforeID, stored.ID)
		assert.Equal(t, "9 New Ave", c.AddressOfType(AddressTypeDelivery).Street)
	})

	t.Run("Rejects unknown type", func(t *testing.T) {
		_, err := c.UpsertAddress(Address{Type: AddressType("office")})
		assert.ErrorIs(t, err, ErrInvalidAddressType)
	})
}

func TestAddress_Same(t *testing.T) {
	a := Address{Type: AddressTypeDelivery, Name: "Jane", Street: "1 Rd", City: "Austin", Zip: "78701", Country: "US"}
	b := a
	assert.True(t, a.Same(b))

	b.Street = "2 Rd"
	assert.False(t, a.Same(b))
}
