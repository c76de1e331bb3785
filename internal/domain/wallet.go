package domain

// Wallet transaction types
const (
	TxSale       = "sale"
	TxPurchase   = "purchase"
	TxDeposit    = "deposit"
	TxWithdrawal = "withdrawal"
)

// Wallet transaction statuses. A "sale" transaction is created pending
// at checkout and becomes completed (spendable) only when the buyer
// confirms receipt of the order.
const (
	TxPending   = "pending"
	TxCompleted = "completed"
	TxFailed    = "failed"
)

// WalletTransaction Model
type WalletTransaction struct {
	ID        uint    `gorm:"primaryKey" json:"id"`                      // Primary key
	UserID    uint    `gorm:"not null;index" json:"user_id"`             // Beneficiary user
	Type      string  `gorm:"not null" json:"type"`                      // sale, purchase, deposit, withdrawal
	Amount    float64 `gorm:"type:decimal(10,2);not null" json:"amount"` // Transaction amount
	Status    string  `gorm:"not null;index" json:"status"`              // pending, completed, failed
	OrderID   *uint   `gorm:"index" json:"order_id,omitempty"`           // Originating order, if any
	CreatedAt int64   `gorm:"autoCreateTime:milli" json:"created_at"`    // Timestamp of creation in milliseconds
}
