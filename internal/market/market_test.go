package market

import (
	"testing"
	"thrift_market/internal/domain"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	// Every pooled connection gets its own private :memory: database, so
	// pin the pool to one connection to keep the schema visible
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&domain.User{},
		&domain.Product{},
		&domain.Order{},
		&domain.Review{},
		&domain.WalletTransaction{},
		&domain.Conversation{},
		&domain.Message{},
	))
	return db
}

// seedUser inserts a user and returns it.
func seedUser(t *testing.T, db *gorm.DB, email string) domain.User {
	t.Helper()
	user := domain.User{Email: email, PasswordHash: "x", FullName: email}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// seedProduct inserts an available product owned by the seller.
func seedProduct(t *testing.T, db *gorm.DB, sellerID uint, price float64) domain.Product {
	t.Helper()
	product := domain.Product{
		Name:      "Zara Denim Jacket",
		Price:     price,
		Category:  "Clothing",
		Size:      "M",
		Condition: domain.ConditionGood,
		Status:    domain.ProductAvailable,
		SellerID:  sellerID,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

// paidOrder runs a real checkout and returns the resulting paid order.
func paidOrder(t *testing.T, db *gorm.DB, productID, buyerID uint) *domain.Order {
	t.Helper()
	order, err := Checkout(db, productID, buyerID)
	require.NoError(t, err)
	return order
}
