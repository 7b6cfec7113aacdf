package services_test

import (
	"context"
	"io"

	"casahub_go_backend/internal/models"
	"casahub_go_backend/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stripe/stripe-go/v79"
	"gorm.io/gorm"
)

type MockRequirementSource struct {
	mock.Mock
}

func (m *MockRequirementSource) Requirement(toolName string) (*models.ToolCreditRequirement, error) {
	args := m.Called(toolName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ToolCreditRequirement), args.Error(1)
}

func (m *MockRequirementSource) ListRequirements() ([]models.ToolCreditRequirement, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ToolCreditRequirement), args.Error(1)
}

type MockWalletLedger struct {
	mock.Mock
}

func (m *MockWalletLedger) GetOrCreateWallet(userID uuid.UUID) (*models.Wallet, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletLedger) Balance(userID uuid.UUID) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWalletLedger) DebitForToolTx(tx *gorm.DB, userID uuid.UUID, amount int64, toolName string) (*models.WalletTransaction, error) {
	args := m.Called(tx, userID, amount, toolName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WalletTransaction), args.Error(1)
}

func (m *MockWalletLedger) CreditFromPayment(ctx context.Context, userID uuid.UUID, amount int64, reference string) (*models.WalletTransaction, bool, error) {
	args := m.Called(ctx, userID, amount, reference)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.WalletTransaction), args.Bool(1), args.Error(2)
}

func (m *MockWalletLedger) Transactions(userID uuid.UUID) ([]models.WalletTransaction, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WalletTransaction), args.Error(1)
}

type MockAttemptLogger struct {
	mock.Mock
}

func (m *MockAttemptLogger) LogAttempt(userID uuid.UUID, toolName string, allowed bool, creditsRequired int64, reason string) {
	m.Called(userID, toolName, allowed, creditsRequired, reason)
}

func (m *MockAttemptLogger) AttemptsByUser(userID uuid.UUID) ([]models.ToolAttemptLog, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ToolAttemptLog), args.Error(1)
}

type MockTextGenerator struct {
	mock.Mock
}

func (m *MockTextGenerator) GenerateText(ctx context.Context, modelName string, maxOutputTokens int32, prompt string) (string, error) {
	args := m.Called(ctx, modelName, maxOutputTokens, prompt)
	return args.String(0), args.Error(1)
}

// MockTxRunner executes the callback with a nil transaction; descriptors used
// in tests must not touch it.
type MockTxRunner struct {
	mock.Mock
}

func (m *MockTxRunner) RunInTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	m.Called(ctx)
	return fn(nil)
}

type MockCloudStorage struct {
	mock.Mock
}

func (m *MockCloudStorage) UploadFile(ctx context.Context, bucketName, objectName string, content io.Reader) error {
	args := m.Called(ctx, bucketName, objectName, content)
	return args.Error(0)
}

func (m *MockCloudStorage) DownloadFile(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	args := m.Called(ctx, bucketName, objectName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCloudStorage) DeleteFile(ctx context.Context, bucketName, objectName string) error {
	args := m.Called(ctx, bucketName, objectName)
	return args.Error(0)
}

type MockResumeStore struct {
	mock.Mock
}

func (m *MockResumeStore) ResumeByID(userID uuid.UUID, id uint) (*models.AgentResume, error) {
	args := m.Called(userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AgentResume), args.Error(1)
}

func (m *MockResumeStore) DeleteResume(userID uuid.UUID, id uint) error {
	args := m.Called(userID, id)
	return args.Error(0)
}

type MockOrderStore struct {
	mock.Mock
}

func (m *MockOrderStore) CreateOrder(order *models.PaymentOrder) error {
	args := m.Called(order)
	return args.Error(0)
}

func (m *MockOrderStore) FindByCheckoutSession(sessionID string) (*models.PaymentOrder, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentOrder), args.Error(1)
}

func (m *MockOrderStore) UpdateStatus(orderID uint, status string) error {
	args := m.Called(orderID, status)
	return args.Error(0)
}

type MockCheckoutClient struct {
	mock.Mock
}

func (m *MockCheckoutClient) CreateCheckoutSession(userID string, pkg services.CreditPackage) (*stripe.CheckoutSession, error) {
	args := m.Called(userID, pkg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.CheckoutSession), args.Error(1)
}
