package sales

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// SalesOrder Tests
// ---------------------------------------------------------------------------

func TestNewSalesOrder(t *testing.T) {
	instanceID := uuid.New()
	customerID := uuid.New()
	orderDate := time.Date(2026, 8, 14, 9, 30, 0, 0, time.UTC)

	t.Run("Valid creation", func(t *testing.T) {
		o, err := NewSalesOrder(instanceID, customerID, "1001", "1001", orderDate)
		require.NoError(t, err)
		assert.Equal(t, OrderStateDraft, o.State)
		assert.Equal(t, PickingPolicyDirect, o.PickingPolicy)
		assert.Equal(t, orderDate, o.OrderDate)
		assert.False(t, o.SkipAutoWorkflow)
	})

	t.Run("Missing order number", func(t *testing.T) {
		_, err := NewSalesOrder(instanceID, customerID, "1001", "", orderDate)
		assert.ErrorIs(t, err, ErrOrderInvalidNumber)
	})

	t.Run("Nil identifiers", func(t *testing.T) {
		_, err := NewSalesOrder(uuid.Nil, customerID, "1001", "1001", orderDate)
		assert.Error(t, err)
		_, err = NewSalesOrder(instanceID, uuid.Nil, "1001", "1001", orderDate)
		assert.Error(t, err)
	})
}

func TestSalesOrder_Confirm(t *testing.T) {
	orderDate := time.Date(2026, 8, 14, 9, 30, 0, 0, time.UTC)
	o, err := NewSalesOrder(uuid.New(), uuid.New(), "1001", "1001", orderDate)
	require.NoError(t, err)

	require.NoError(t, o.Confirm())
	assert.Equal(t, OrderStateSale, o.State)
	assert.NotNil(t, o.ConfirmedAt)
	// the storefront order date survives confirmation
	assert.Equal(t, orderDate, o.OrderDate)

	assert.ErrorIs(t, o.Confirm(), ErrOrderInvalidState)
}

func TestSalesOrder_Cancel(t *testing.T) {
	o, err := NewSalesOrder(uuid.New(), uuid.New(), "1001", "1001", time.Now())
	require.NoError(t, err)

	require.NoError(t, o.Cancel())
	assert.Equal(t, OrderStateCancel, o.State)

	o.State = OrderStateDone
	assert.ErrorIs(t, o.Cancel(), ErrOrderInvalidState)
}

func TestSalesOrder_BlockAutoWorkflow(t *testing.T) {
	o, err := NewSalesOrder(uuid.New(), uuid.New(), "1001", "1001", time.Now())
	require.NoError(t, err)

	o.BlockAutoWorkflow("product with SKU WC-404 not found")
	assert.True(t, o.SkipAutoWorkflow)
	require.Len(t, o.Notes, 1)
	assert.Contains(t, o.Notes[0], "WC-404")
}

func TestSalesOrder_HasProductLines(t *testing.T) {
	o, err := NewSalesOrder(uuid.New(), uuid.New(), "1001", "1001", time.Now())
	require.NoError(t, err)

	assert.False(t, o.HasProductLines())

	o.AddLine(OrderLine{ProductID: uuid.New(), IsDelivery: true, Quantity: decimal.NewFromInt(1)})
	assert.False(t, o.HasProductLines())

	o.AddLine(OrderLine{ProductID: uuid.New(), Quantity: decimal.NewFromInt(2)})
	assert.True(t, o.HasProductLines())
}

// ---------------------------------------------------------------------------
// Payment Classification Tests
// ---------------------------------------------------------------------------

func TestClassifyPayment(t *testing.T) {
	t.Run("Transaction reference wins", func(t *testing.T) {
		assert.Equal(t, FinancialStatePaid, ClassifyPayment("txn_123", false, CashOnDeliveryCode, "on-hold"))
	})

	t.Run("Paid date on processing non-cod order", func(t *testing.T) {
		assert.Equal(t, FinancialStatePaid, ClassifyPayment("", true, "stripe", "processing"))
	})

	t.Run("Cash on delivery stays unpaid", func(t *testing.T) {
		assert.Equal(t, FinancialStateNotPaid, ClassifyPayment("", true, CashOnDeliveryCode, "processing"))
	})

	t.Run("Paid date outside processing stays unpaid", func(t *testing.T) {
		assert.Equal(t, FinancialStateNotPaid, ClassifyPayment("", true, "stripe", "on-hold"))
	})

	t.Run("Nothing set", func(t *testing.T) {
		assert.Equal(t, FinancialStateNotPaid, ClassifyPayment("", false, "stripe", "processing"))
	})
}

// ---------------------------------------------------------------------------
// Gateway and Policy Tests
// ---------------------------------------------------------------------------

func TestNewPaymentGateway(t *testing.T) {
	instanceID := uuid.New()

	t.Run("Valid creation", func(t *testing.T) {
		g, err := NewPaymentGateway(instanceID, "stripe", "Stripe")
		require.NoError(t, err)
		assert.Equal(t, "stripe", g.Code)
		assert.Equal(t, "Stripe", g.Name)
	})

	t.Run("Name defaults to code", func(t *testing.T) {
		g, err := NewPaymentGateway(instanceID, NoPaymentGatewayCode, "")
		require.NoError(t, err)
		assert.Equal(t, NoPaymentGatewayCode, g.Name)
	})

	t.Run("Missing code", func(t *testing.T) {
		_, err := NewPaymentGateway(instanceID, "", "Stripe")
		assert.ErrorIs(t, err, ErrGatewayInvalidCode)
	})
}

func TestWorkflowPolicy(t *testing.T) {
	t.Run("Validate requires picking policy", func(t *testing.T) {
		p := WorkflowPolicy{Name: "Automatic Validation"}
		assert.ErrorIs(t, p.Validate(), ErrPolicyMissingPickingPolicy)

		p.PickingPolicy = PickingPolicyOne
		assert.NoError(t, p.Validate())
	})

	t.Run("RequiresAnyStep", func(t *testing.T) {
		p := WorkflowPolicy{PickingPolicy: PickingPolicyDirect}
		assert.False(t, p.RequiresAnyStep())

		p.CreateInvoice = true
		assert.True(t, p.RequiresAnyStep())
	})
}
