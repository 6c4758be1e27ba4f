package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Wallet is a teacher's running balance. It is mutated only through
// WalletTransaction creation paired with a balance increment; the ledger
// is the source of truth.
type Wallet struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `json:"user_id" gorm:"uniqueIndex"`
	Balance       float64        `json:"balance" gorm:"default:0"`
	PendingPayout float64        `json:"pending_payout" gorm:"default:0"`
	Currency      string         `json:"currency" gorm:"default:'USD'"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// WalletTransaction is one signed entry in the append-only ledger.
// Reference doubles as an idempotency key: for a given wallet at most one
// transaction may carry a given non-empty reference.
type WalletTransaction struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	WalletID    uint           `json:"wallet_id" gorm:"index:idx_wallet_txn_reference"`
	Wallet      Wallet         `json:"-" gorm:"foreignKey:WalletID"`
	Amount      float64        `json:"amount"`
	Type        string         `json:"type"`   // CREDIT, DEBIT
	Source      string         `json:"source"` // COURSE_SALE, REFUND_ADJUSTMENT, HISTORICAL_SYNC
	Reference   string         `json:"reference" gorm:"index:idx_wallet_txn_reference"`
	Description string         `json:"description"`
	PaymentID   *uint          `json:"payment_id"`
	OrderItemID *uint          `json:"order_item_id"`
	Metadata    datatypes.JSON `json:"metadata"`
	CreatedAt   time.Time      `json:"created_at"`
}

// WalletIntent is an outbox row recorded in the same transaction as the
// sale or refund it derives from. A worker posts it to the ledger
// at-least-once; the transaction reference dedupes replays.
type WalletIntent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	TeacherID   uint           `json:"teacher_id" gorm:"index"`
	Amount      float64        `json:"amount"`
	Type        string         `json:"type"`
	Source      string         `json:"source"`
	Reference   string         `json:"reference" gorm:"uniqueIndex"`
	Description string         `json:"description"`
	PaymentID   *uint          `json:"payment_id"`
	OrderItemID *uint          `json:"order_item_id"`
	Metadata    datatypes.JSON `json:"metadata"`
	Status      string         `json:"status" gorm:"default:'PENDING';index"`
	Attempts    int            `json:"attempts" gorm:"default:0"`
	LastError   string         `json:"last_error"`
	ProcessedAt *time.Time     `json:"processed_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TransactionType constants
const (
	TransactionTypeCredit = "CREDIT"
	TransactionTypeDebit  = "DEBIT"
)

// Transaction source constants
const (
	TransactionSourceCourseSale     = "COURSE_SALE"
	TransactionSourceRefund         = "REFUND_ADJUSTMENT"
	TransactionSourceHistoricalSync = "HISTORICAL_SYNC"
)

// WalletIntent status constants
const (
	IntentStatusPending    = "PENDING"
	IntentStatusProcessing = "PROCESSING"
	IntentStatusProcessed  = "PROCESSED"
	IntentStatusFailed     = "FAILED"
)
