package services

import (
	"context"
	"errors"

	"casahub_go_backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrWalletSuspended     = errors.New("wallet suspended")
)

// WalletLedger is the balance store plus its append-only transaction ledger.
// Every mutation couples the balance change and the ledger row in one
// database transaction.
type WalletLedger interface {
	GetOrCreateWallet(userID uuid.UUID) (*models.Wallet, error)
	Balance(userID uuid.UUID) (int64, error)
	// DebitForToolTx performs the conditional debit inside the caller's
	// transaction, so tool output persistence and the charge commit or roll
	// back together.
	DebitForToolTx(tx *gorm.DB, userID uuid.UUID, amount int64, toolName string) (*models.WalletTransaction, error)
	// CreditFromPayment is idempotent on reference: replaying the same
	// payment event returns the original ledger row and applied=false.
	CreditFromPayment(ctx context.Context, userID uuid.UUID, amount int64, reference string) (txn *models.WalletTransaction, applied bool, err error)
	Transactions(userID uuid.UUID) ([]models.WalletTransaction, error)
}

type DefaultWalletService struct {
	db *gorm.DB
}

func NewWalletService(db *gorm.DB) WalletLedger {
	return &DefaultWalletService{db: db}
}

func (s *DefaultWalletService) GetOrCreateWallet(userID uuid.UUID) (*models.Wallet, error) {
	wallet := models.Wallet{UserID: userID, Status: models.WalletStatusActive}
	result := s.db.Where(models.Wallet{UserID: userID}).FirstOrCreate(&wallet)
	if result.Error != nil {
		return nil, result.Error
	}
	return &wallet, nil
}

// Balance reads the current balance fresh from the store. A user without a
// wallet simply has zero credits; the row is created lazily on first credit
// or debit.
func (s *DefaultWalletService) Balance(userID uuid.UUID) (int64, error) {
	var wallet models.Wallet
	err := s.db.Where("user_id = ?", userID).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return wallet.Balance, nil
}

// DebitForToolTx debits amount for a tool use. The debit is a single
// conditional UPDATE guarded by the balance, so two concurrent requests can
// never both spend the same credits: the second one sees zero affected rows
// and fails with ErrInsufficientCredits.
func (s *DefaultWalletService) DebitForToolTx(tx *gorm.DB, userID uuid.UUID, amount int64, toolName string) (*models.WalletTransaction, error) {
	wallet := models.Wallet{UserID: userID, Status: models.WalletStatusActive}
	if err := tx.Where(models.Wallet{UserID: userID}).FirstOrCreate(&wallet).Error; err != nil {
		return nil, err
	}
	if wallet.Status == models.WalletStatusSuspended {
		return nil, ErrWalletSuspended
	}

	result := tx.Model(&models.Wallet{}).
		Where("user_id = ? AND balance >= ? AND status = ?", userID, amount, models.WalletStatusActive).
		UpdateColumn("balance", gorm.Expr("balance - ?", amount))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrInsufficientCredits
	}

	txn := &models.WalletTransaction{
		UserID:      userID,
		WalletID:    &wallet.ID,
		Type:        models.TransactionTypeDebit,
		Amount:      amount,
		Description: "AI tool: " + toolName,
		Status:      models.TransactionStatusCompleted,
	}
	if err := tx.Create(txn).Error; err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *DefaultWalletService) CreditFromPayment(ctx context.Context, userID uuid.UUID, amount int64, reference string) (*models.WalletTransaction, bool, error) {
	var txn *models.WalletTransaction
	applied := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.WalletTransaction
		err := tx.Where("reference_id = ?", reference).First(&existing).Error
		if err == nil {
			// Replayed event; the credit was already applied.
			log.Info().Str("reference", reference).Msg("Skipping duplicate payment credit")
			txn = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		wallet := models.Wallet{UserID: userID, Status: models.WalletStatusActive}
		if err := tx.Where(models.Wallet{UserID: userID}).FirstOrCreate(&wallet).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Wallet{}).
			Where("user_id = ?", userID).
			UpdateColumn("balance", gorm.Expr("balance + ?", amount))
		if result.Error != nil {
			return result.Error
		}

		ref := reference
		txn = &models.WalletTransaction{
			UserID:        userID,
			WalletID:      &wallet.ID,
			Type:          models.TransactionTypeCredit,
			Amount:        amount,
			Description:   "Credit purchase",
			ReferenceID:   &ref,
			ReferenceType: "stripe_checkout_session",
			Status:        models.TransactionStatusCompleted,
		}
		if err := tx.Create(txn).Error; err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return txn, applied, nil
}

func (s *DefaultWalletService) Transactions(userID uuid.UUID) ([]models.WalletTransaction, error) {
	var txns []models.WalletTransaction
	result := s.db.Where("user_id = ?", userID).Order("created_at desc").Find(&txns)
	if result.Error != nil {
		return nil, result.Error
	}
	return txns, nil
}
