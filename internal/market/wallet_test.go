package market

import (
	"testing"
	"thrift_market/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepositAndWithdraw(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "user@example.com")

	require.NoError(t, Deposit(db, user.ID, 50.00))
	require.NoError(t, Withdraw(db, user.ID, 20.00))

	summary, err := GetWallet(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 30.00, summary.Balance)
	assert.Equal(t, 0.0, summary.Pending)

	// Both movements left completed ledger entries
	var count int64
	require.NoError(t, db.Model(&domain.WalletTransaction{}).
		Where("user_id = ? AND status = ?", user.ID, domain.TxCompleted).
		Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestWithdraw_InsufficientFunds(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "user@example.com")
	require.NoError(t, Deposit(db, user.ID, 10.00))

	err := Withdraw(db, user.ID, 10.01)
	assert.ErrorIs(t, err, ErrConflict)

	// Balance untouched, no withdrawal recorded
	summary, err := GetWallet(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.00, summary.Balance)
	var count int64
	require.NoError(t, db.Model(&domain.WalletTransaction{}).
		Where("user_id = ? AND type = ?", user.ID, domain.TxWithdrawal).
		Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeposit_RejectsNonPositiveAmounts(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "user@example.com")

	assert.ErrorIs(t, Deposit(db, user.ID, 0), ErrValidation)
	assert.ErrorIs(t, Deposit(db, user.ID, -5), ErrValidation)
	assert.ErrorIs(t, Withdraw(db, user.ID, 0), ErrValidation)
}

func TestGetWallet_PendingEscrow(t *testing.T) {
	db := newTestDB(t)
	seller := seedUser(t, db, "seller@example.com")
	buyer := seedUser(t, db, "buyer@example.com")
	product := seedProduct(t, db, seller.ID, 40.00)
	order := paidOrder(t, db, product.ID, buyer.ID)

	// After checkout the sale sits in escrow: pending, not spendable
	summary, err := GetWallet(db, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, summary.Balance)
	assert.Equal(t, 40.00, summary.Pending)

	// Completion moves it into the spendable balance
	_, err = ShipOrder(db, order.ID, seller.ID, "TRACK1")
	require.NoError(t, err)
	_, err = CompleteOrder(db, order.ID, buyer.ID)
	require.NoError(t, err)

	summary, err = GetWallet(db, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, 40.00, summary.Balance)
	assert.Equal(t, 0.0, summary.Pending)
}

func TestGetWallet_UserNotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := GetWallet(db, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
