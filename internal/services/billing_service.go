package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"casahub_go_backend/internal/broker"
	"casahub_go_backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v79"
	"gorm.io/gorm"
)

var (
	ErrUnknownCheckoutSession = errors.New("unknown checkout session")
	ErrOrderAmountMismatch    = errors.New("checkout metadata does not match stored order")
)

// OrderStore persists the expected outcome of each checkout session.
type OrderStore interface {
	CreateOrder(order *models.PaymentOrder) error
	FindByCheckoutSession(sessionID string) (*models.PaymentOrder, error)
	UpdateStatus(orderID uint, status string) error
}

// CheckoutClient creates the externally hosted payment session.
type CheckoutClient interface {
	CreateCheckoutSession(userID string, pkg CreditPackage) (*stripe.CheckoutSession, error)
}

// BillingService owns the credit purchase flow: it opens checkout sessions,
// records the expected credit amount as a PaymentOrder, and fulfills
// completed checkouts against that order rather than trusting webhook
// metadata.
type BillingService struct {
	orders   OrderStore
	wallet   WalletLedger
	checkout CheckoutClient
	events   *broker.Broker
}

func NewBillingService(orders OrderStore, wallet WalletLedger, checkout CheckoutClient, events *broker.Broker) *BillingService {
	return &BillingService{
		orders:   orders,
		wallet:   wallet,
		checkout: checkout,
		events:   events,
	}
}

// StartPurchase opens a checkout session for pkg and records the pending
// order keyed by the session id.
func (b *BillingService) StartPurchase(userID uuid.UUID, pkg CreditPackage) (string, error) {
	session, err := b.checkout.CreateCheckoutSession(userID.String(), pkg)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	order := &models.PaymentOrder{
		UserID:            userID,
		PackageName:       pkg.Name,
		Credits:           pkg.Credits,
		AmountCents:       pkg.AmountCents,
		CheckoutSessionID: session.ID,
		Status:            models.PaymentOrderStatusPending,
	}
	if err := b.orders.CreateOrder(order); err != nil {
		return "", fmt.Errorf("failed to record payment order: %w", err)
	}

	return session.ID, nil
}

// HandleCheckoutCompleted fulfills a completed checkout. The stored order is
// the source of truth for how many credits to apply: a session we never
// opened is rejected, and metadata that disagrees with the order marks it
// rejected instead of crediting. Replayed events are no-ops, both via the
// order status and via the ledger's reference check.
func (b *BillingService) HandleCheckoutCompleted(ctx context.Context, session stripe.CheckoutSession) error {
	order, err := b.orders.FindByCheckoutSession(session.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnknownCheckoutSession
		}
		return err
	}

	if order.Status == models.PaymentOrderStatusCompleted {
		log.Info().Str("session", session.ID).Msg("Checkout already fulfilled, ignoring replay")
		return nil
	}
	if order.Status == models.PaymentOrderStatusRejected {
		return ErrOrderAmountMismatch
	}

	metaCredits, err := strconv.ParseInt(session.Metadata["credits"], 10, 64)
	if err != nil || metaCredits != order.Credits {
		if statusErr := b.orders.UpdateStatus(order.ID, models.PaymentOrderStatusRejected); statusErr != nil {
			log.Error().Err(statusErr).Str("session", session.ID).Msg("Failed to mark order rejected")
		}
		return ErrOrderAmountMismatch
	}

	_, applied, err := b.wallet.CreditFromPayment(ctx, order.UserID, order.Credits, session.ID)
	if err != nil {
		return fmt.Errorf("failed to credit wallet: %w", err)
	}

	if err := b.orders.UpdateStatus(order.ID, models.PaymentOrderStatusCompleted); err != nil {
		return fmt.Errorf("failed to complete payment order: %w", err)
	}

	if applied && b.events != nil {
		b.events.Publish("wallet_update_"+order.UserID.String(), map[string]interface{}{
			"type":    models.TransactionTypeCredit,
			"credits": order.Credits,
		})
	}

	return nil
}

type DefaultOrderStore struct {
	db *gorm.DB
}

func NewOrderStore(db *gorm.DB) OrderStore {
	return &DefaultOrderStore{db: db}
}

func (s *DefaultOrderStore) CreateOrder(order *models.PaymentOrder) error {
	return s.db.Create(order).Error
}

func (s *DefaultOrderStore) FindByCheckoutSession(sessionID string) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	err := s.db.Where("checkout_session_id = ?", sessionID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *DefaultOrderStore) UpdateStatus(orderID uint, status string) error {
	return s.db.Model(&models.PaymentOrder{}).
		Where("id = ?", orderID).
		Update("status", status).Error
}
