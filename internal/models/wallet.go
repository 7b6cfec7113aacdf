package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	WalletStatusActive    = "active"
	WalletStatusSuspended = "suspended"
)

const (
	TransactionTypeCredit = "credit"
	TransactionTypeDebit  = "debit"
)

const (
	TransactionStatusCompleted = "completed"
)

// Wallet holds the per-user credit balance. Balance is only ever changed
// through a conditional update inside a database transaction, together with
// the matching WalletTransaction row.
type Wallet struct {
	gorm.Model
	UserID  uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	Balance int64     `gorm:"not null;default:0"`
	Status  string    `gorm:"not null;default:'active'"`
}

// WalletTransaction is the append-only ledger of balance-affecting events.
// Amount is always positive; the sign is implied by Type. Credit rows carry
// the external payment reference so a replayed webhook can be detected.
type WalletTransaction struct {
	gorm.Model
	UserID        uuid.UUID `gorm:"type:uuid;index"`
	WalletID      *uint
	Type          string `gorm:"index"`
	Amount        int64
	Description   string
	ReferenceID   *string `gorm:"uniqueIndex"`
	ReferenceType string
	Status        string
}

const (
	PaymentOrderStatusPending   = "pending"
	PaymentOrderStatusCompleted = "completed"
	PaymentOrderStatusRejected  = "rejected"
)

// PaymentOrder records what a checkout session is expected to deliver.
// The webhook credits the stored amount, never the event metadata.
type PaymentOrder struct {
	gorm.Model
	UserID            uuid.UUID `gorm:"type:uuid;index"`
	PackageName       string
	Credits           int64
	AmountCents       int64
	CheckoutSessionID string `gorm:"uniqueIndex"`
	Status            string `gorm:"index"`
}
