package services_test

import (
	"context"
	"testing"

	"casahub_go_backend/internal/broker"
	"casahub_go_backend/internal/models"
	"casahub_go_backend/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stripe/stripe-go/v79"
	"gorm.io/gorm"
)

func newBillingService(orders *MockOrderStore, wallet *MockWalletLedger, checkout *MockCheckoutClient) *services.BillingService {
	return services.NewBillingService(orders, wallet, checkout, broker.NewBroker())
}

func TestStartPurchaseRecordsOrder(t *testing.T) {
	orders := new(MockOrderStore)
	wallet := new(MockWalletLedger)
	checkout := new(MockCheckoutClient)

	billing := newBillingService(orders, wallet, checkout)

	userID := uuid.New()
	pkg := services.CreditPackage{Name: "starter", Credits: 500, AmountCents: 1900}

	checkout.On("CreateCheckoutSession", userID.String(), pkg).
		Return(&stripe.CheckoutSession{ID: "cs_test_123"}, nil).Once()
	orders.On("CreateOrder", mock.MatchedBy(func(order *models.PaymentOrder) bool {
		return order.UserID == userID &&
			order.Credits == 500 &&
			order.CheckoutSessionID == "cs_test_123" &&
			order.Status == models.PaymentOrderStatusPending
	})).Return(nil).Once()

	sessionID, err := billing.StartPurchase(userID, pkg)

	assert.NoError(t, err)
	assert.Equal(t, "cs_test_123", sessionID)
	orders.AssertExpectations(t)
	checkout.AssertExpectations(t)
}

func TestHandleCheckoutCompletedCreditsStoredAmount(t *testing.T) {
	orders := new(MockOrderStore)
	wallet := new(MockWalletLedger)
	checkout := new(MockCheckoutClient)

	billing := newBillingService(orders, wallet, checkout)

	userID := uuid.New()
	order := &models.PaymentOrder{
		UserID:            userID,
		Credits:           500,
		CheckoutSessionID: "cs_test_123",
		Status:            models.PaymentOrderStatusPending,
	}
	order.ID = 7

	orders.On("FindByCheckoutSession", "cs_test_123").Return(order, nil).Once()
	wallet.On("CreditFromPayment", mock.Anything, userID, int64(500), "cs_test_123").
		Return(&models.WalletTransaction{Type: models.TransactionTypeCredit, Amount: 500}, true, nil).Once()
	orders.On("UpdateStatus", uint(7), models.PaymentOrderStatusCompleted).Return(nil).Once()

	err := billing.HandleCheckoutCompleted(context.Background(), stripe.CheckoutSession{
		ID:       "cs_test_123",
		Metadata: map[string]string{"credits": "500"},
	})

	assert.NoError(t, err)
	orders.AssertExpectations(t)
	wallet.AssertExpectations(t)
}

func TestHandleCheckoutCompletedUnknownSession(t *testing.T) {
	orders := new(MockOrderStore)
	wallet := new(MockWalletLedger)
	checkout := new(MockCheckoutClient)

	billing := newBillingService(orders, wallet, checkout)

	orders.On("FindByCheckoutSession", "cs_forged").Return(nil, gorm.ErrRecordNotFound).Once()

	err := billing.HandleCheckoutCompleted(context.Background(), stripe.CheckoutSession{
		ID:       "cs_forged",
		Metadata: map[string]string{"credits": "999999"},
	})

	assert.ErrorIs(t, err, services.ErrUnknownCheckoutSession)
	wallet.AssertNotCalled(t, "CreditFromPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleCheckoutCompletedMetadataMismatch(t *testing.T) {
	orders := new(MockOrderStore)
	wallet := new(MockWalletLedger)
	checkout := new(MockCheckoutClient)

	billing := newBillingService(orders, wallet, checkout)

	order := &models.PaymentOrder{
		UserID:            uuid.New(),
		Credits:           500,
		CheckoutSessionID: "cs_test_123",
		Status:            models.PaymentOrderStatusPending,
	}
	order.ID = 7

	orders.On("FindByCheckoutSession", "cs_test_123").Return(order, nil).Once()
	orders.On("UpdateStatus", uint(7), models.PaymentOrderStatusRejected).Return(nil).Once()

	err := billing.HandleCheckoutCompleted(context.Background(), stripe.CheckoutSession{
		ID:       "cs_test_123",
		Metadata: map[string]string{"credits": "999999"},
	})

	assert.ErrorIs(t, err, services.ErrOrderAmountMismatch)
	wallet.AssertNotCalled(t, "CreditFromPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	orders.AssertExpectations(t)
}

func TestHandleCheckoutCompletedReplayIsNoop(t *testing.T) {
	orders := new(MockOrderStore)
	wallet := new(MockWalletLedger)
	checkout := new(MockCheckoutClient)

	billing := newBillingService(orders, wallet, checkout)

	completed := &models.PaymentOrder{
		UserID:            uuid.New(),
		Credits:           500,
		CheckoutSessionID: "cs_test_123",
		Status:            models.PaymentOrderStatusCompleted,
	}

	orders.On("FindByCheckoutSession", "cs_test_123").Return(completed, nil).Once()

	err := billing.HandleCheckoutCompleted(context.Background(), stripe.CheckoutSession{
		ID:       "cs_test_123",
		Metadata: map[string]string{"credits": "500"},
	})

	assert.NoError(t, err)
	wallet.AssertNotCalled(t, "CreditFromPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// A replay that races past the order status still cannot double-credit: the
// ledger's reference check reports the credit as already applied.
func TestHandleCheckoutCompletedLedgerDeduplicates(t *testing.T) {
	orders := new(MockOrderStore)
	wallet := new(MockWalletLedger)
	checkout := new(MockCheckoutClient)

	billing := newBillingService(orders, wallet, checkout)

	userID := uuid.New()
	order := &models.PaymentOrder{
		UserID:            userID,
		Credits:           500,
		CheckoutSessionID: "cs_test_123",
		Status:            models.PaymentOrderStatusPending,
	}
	order.ID = 7

	orders.On("FindByCheckoutSession", "cs_test_123").Return(order, nil).Once()
	wallet.On("CreditFromPayment", mock.Anything, userID, int64(500), "cs_test_123").
		Return(&models.WalletTransaction{Type: models.TransactionTypeCredit, Amount: 500}, false, nil).Once()
	orders.On("UpdateStatus", uint(7), models.PaymentOrderStatusCompleted).Return(nil).Once()

	err := billing.HandleCheckoutCompleted(context.Background(), stripe.CheckoutSession{
		ID:       "cs_test_123",
		Metadata: map[string]string{"credits": "500"},
	})

	assert.NoError(t, err)
	wallet.AssertNumberOfCalls(t, "CreditFromPayment", 1)
}
