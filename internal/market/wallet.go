package market

import (
	"fmt"
	"thrift_market/internal/domain"

	"gorm.io/gorm"
)

// WalletSummary is the user-facing view of a wallet: the spendable
// balance plus the sum of pending sale credits still in escrow.
type WalletSummary struct {
	Balance float64 `json:"balance"`
	Pending float64 `json:"pending"`
}

// GetWallet returns the user's available balance and pending escrow
// total.
func GetWallet(db *gorm.DB, userID uint) (*WalletSummary, error) {
	var user domain.User
	if err := db.First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("%w: user not found", ErrNotFound)
	}
	var pending float64
	err := db.Model(&domain.WalletTransaction{}).
		Where("user_id = ? AND type = ? AND status = ?", userID, domain.TxSale, domain.TxPending).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&pending).Error
	if err != nil {
		return nil, err
	}
	return &WalletSummary{Balance: user.Balance, Pending: pending}, nil
}

// Deposit atomically credits the user's available balance and records
// a completed deposit transaction.
func Deposit(db *gorm.DB, userID uint, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.User{}).
			Where("id = ?", userID).
			Update("balance", gorm.Expr("balance + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: user not found", ErrNotFound)
		}
		t := domain.WalletTransaction{
			UserID: userID,
			Type:   domain.TxDeposit,
			Amount: amount,
			Status: domain.TxCompleted,
		}
		return tx.Create(&t).Error
	})
}

// Withdraw atomically debits the user's available balance and records
// a completed withdrawal transaction. The balance check and the debit
// are one conditional update, so concurrent withdrawals cannot
// overdraw.
func Withdraw(db *gorm.DB, userID uint, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.User{}).
			Where("id = ? AND balance >= ?", userID, amount).
			Update("balance", gorm.Expr("balance - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: insufficient funds", ErrConflict)
		}
		t := domain.WalletTransaction{
			UserID: userID,
			Type:   domain.TxWithdrawal,
			Amount: amount,
			Status: domain.TxCompleted,
		}
		return tx.Create(&t).Error
	})
}
