package services

import (
	"errors"
	"time"

	"github.com/218451LIJIAQI/edutech-platform-sub000/models"
	"github.com/218451LIJIAQI/edutech-platform-sub000/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxIntentAttempts is the number of posting attempts before an outbox
// row is parked as FAILED for manual review.
const maxIntentAttempts = 10

// WalletService owns the per-teacher wallet ledger. Every balance change
// goes through a transaction row paired with a balance increment; the
// transaction reference dedupes retries.
type WalletService struct {
	db       *gorm.DB
	currency string
}

// NewWalletService creates a new WalletService
func NewWalletService(db *gorm.DB, currency string) *WalletService {
	return &WalletService{db: db, currency: currency}
}

// GetOrCreateWallet retrieves or lazily creates a teacher's wallet at
// zero balance.
func (s *WalletService) GetOrCreateWallet(userID uint) (*models.Wallet, error) {
	return getOrCreateWallet(s.db, userID, s.currency)
}

func getOrCreateWallet(db *gorm.DB, userID uint, currency string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := db.Where("user_id = ?", userID).First(&wallet).Error
	if err == nil {
		return &wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	wallet = models.Wallet{UserID: userID, Balance: 0, Currency: currency}
	if err := db.Create(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

// Posting carries everything needed to append one ledger entry.
type Posting struct {
	TeacherID   uint
	Amount      float64
	Type        string // models.TransactionTypeCredit or Debit
	Source      string
	Reference   string
	Description string
	PaymentID   *uint
	OrderItemID *uint
	Metadata    datatypes.JSON
}

// Post appends a signed transaction to the teacher's ledger and adjusts
// the balance in the same database transaction. When the posting carries
// a reference that already exists on the wallet the existing transaction
// is returned unchanged, making retries safe.
//
// Debits may drive the balance negative: a teacher owing the platform
// after a refund is representable and settled against future sales.
func (s *WalletService) Post(p Posting) (*models.WalletTransaction, error) {
	if p.Type != models.TransactionTypeCredit && p.Type != models.TransactionTypeDebit {
		return nil, utils.ValidationError("invalid transaction type", nil)
	}
	if p.Amount < 0 || (p.Type == models.TransactionTypeCredit && p.Amount == 0) {
		return nil, utils.ValidationError("invalid transaction amount", nil)
	}

	var txn *models.WalletTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		wallet, err := getOrCreateWallet(tx, p.TeacherID, s.currency)
		if err != nil {
			return err
		}

		if p.Reference != "" {
			var existing models.WalletTransaction
			err := tx.Where("wallet_id = ? AND reference = ?", wallet.ID, p.Reference).First(&existing).Error
			if err == nil {
				txn = &existing
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		entry := models.WalletTransaction{
			WalletID:    wallet.ID,
			Amount:      p.Amount,
			Type:        p.Type,
			Source:      p.Source,
			Reference:   p.Reference,
			Description: p.Description,
			PaymentID:   p.PaymentID,
			OrderItemID: p.OrderItemID,
			Metadata:    p.Metadata,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		delta := p.Amount
		if p.Type == models.TransactionTypeDebit {
			delta = -p.Amount
		}
		if err := tx.Model(&models.Wallet{}).Where("id = ?", wallet.ID).
			UpdateColumn("balance", gorm.Expr("balance + ?", delta)).Error; err != nil {
			return err
		}

		txn = &entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// EnqueueIntent records an outbox row inside the caller's transaction so
// the ledger posting shares the fate of the sale or refund it derives
// from. Duplicate references are silently skipped.
func (s *WalletService) EnqueueIntent(tx *gorm.DB, intent *models.WalletIntent) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "reference"}},
		DoNothing: true,
	}).Create(intent).Error
}

// ProcessPendingIntents posts up to limit pending outbox rows to the
// ledger. Each row is claimed with a conditional update first, so the
// post-commit flush and the scheduled worker can run concurrently
// without posting the same intent twice. Failures return the row to
// PENDING (attempts incremented) so the next run retries it; rows
// exceeding maxIntentAttempts are parked as FAILED. Returns the number
// of rows successfully posted.
func (s *WalletService) ProcessPendingIntents(limit int) (int, error) {
	var intents []models.WalletIntent
	if err := s.db.Where("status = ?", models.IntentStatusPending).
		Order("id").Limit(limit).Find(&intents).Error; err != nil {
		return 0, err
	}

	processed := 0
	for i := range intents {
		intent := &intents[i]

		claimed, err := s.claimIntent(intent)
		if err != nil {
			utils.LogError("Failed to claim wallet intent %d: %v", intent.ID, err)
			continue
		}
		if !claimed {
			continue
		}

		if err := s.processIntent(intent); err != nil {
			utils.LogError("Failed to post wallet intent %d (ref %s): %v",
				intent.ID, intent.Reference, err)
			continue
		}
		processed++
	}
	return processed, nil
}

// claimIntent flips the row PENDING -> PROCESSING. Only one of several
// concurrent processors wins the row; the losers see zero affected rows.
func (s *WalletService) claimIntent(intent *models.WalletIntent) (bool, error) {
	res := s.db.Model(&models.WalletIntent{}).
		Where("id = ? AND status = ?", intent.ID, models.IntentStatusPending).
		Update("status", models.IntentStatusProcessing)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *WalletService) processIntent(intent *models.WalletIntent) error {
	_, err := s.Post(Posting{
		TeacherID:   intent.TeacherID,
		Amount:      intent.Amount,
		Type:        intent.Type,
		Source:      intent.Source,
		Reference:   intent.Reference,
		Description: intent.Description,
		PaymentID:   intent.PaymentID,
		OrderItemID: intent.OrderItemID,
		Metadata:    intent.Metadata,
	})
	if err != nil {
		updates := map[string]interface{}{
			"status":     models.IntentStatusPending,
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": err.Error(),
		}
		if intent.Attempts+1 >= maxIntentAttempts {
			updates["status"] = models.IntentStatusFailed
		}
		if dbErr := s.db.Model(intent).Updates(updates).Error; dbErr != nil {
			utils.LogError("Failed to record intent failure for intent %d: %v", intent.ID, dbErr)
		}
		return err
	}

	now := time.Now()
	return s.db.Model(intent).Updates(map[string]interface{}{
		"status":       models.IntentStatusProcessed,
		"attempts":     gorm.Expr("attempts + 1"),
		"processed_at": &now,
	}).Error
}

// Transactions lists a teacher's ledger entries, newest first.
func (s *WalletService) Transactions(userID uint, limit, offset int) ([]models.WalletTransaction, int64, error) {
	wallet, err := s.GetOrCreateWallet(userID)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.Model(&models.WalletTransaction{}).
		Where("wallet_id = ?", wallet.ID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txns []models.WalletTransaction
	if err := s.db.Where("wallet_id = ?", wallet.ID).
		Order("id DESC").Limit(limit).Offset(offset).Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// HasTransactionWithReference reports whether the teacher's wallet
// already carries a transaction with the given reference. Used by batch
// jobs to keep re-runs idempotent.
func (s *WalletService) HasTransactionWithReference(userID uint, reference string) (bool, error) {
	wallet, err := s.GetOrCreateWallet(userID)
	if err != nil {
		return false, err
	}

	var count int64
	err = s.db.Model(&models.WalletTransaction{}).
		Where("wallet_id = ? AND reference = ?", wallet.ID, reference).
		Count(&count).Error
	return count > 0, err
}
