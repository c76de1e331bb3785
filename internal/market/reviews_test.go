package market

import (
	"testing"
	"thrift_market/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// completedOrder drives a checkout through ship and complete.
func completedOrder(t *testing.T, db *gorm.DB, sellerID, buyerID uint, price float64) *domain.Order {
	t.Helper()
	product := seedProduct(t, db, sellerID, price)
	order := paidOrder(t, db, product.ID, buyerID)
	_, err := ShipOrder(db, order.ID, sellerID, "TRACK1")
	require.NoError(t, err)
	completed, err := CompleteOrder(db, order.ID, buyerID)
	require.NoError(t, err)
	return completed
}

func TestCreateReview_GatedOnCompletion(t *testing.T) {
	db := newTestDB(t)
	seller := seedUser(t, db, "seller@example.com")
	buyer := seedUser(t, db, "buyer@example.com")
	product := seedProduct(t, db, seller.ID, 15.00)
	order := paidOrder(t, db, product.ID, buyer.ID)

	// Not completed yet
	_, err := CreateReview(db, order.ID, buyer.ID, 5, "great")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateReview_BuyerOnly(t *testing.T) {
	db := newTestDB(t)
	seller := seedUser(t, db, "seller@example.com")
	buyer := seedUser(t, db, "buyer@example.com")
	order := completedOrder(t, db, seller.ID, buyer.ID, 15.00)

	// Sellers cannot review themselves via their own order
	_, err := CreateReview(db, order.ID, seller.ID, 5, "I am great")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateReview_RatingBounds(t *testing.T) {
	db := newTestDB(t)
	seller := seedUser(t, db, "seller@example.com")
	buyer := seedUser(t, db, "buyer@example.com")
	order := completedOrder(t, db, seller.ID, buyer.ID, 15.00)

	_, err := CreateReview(db, order.ID, buyer.ID, 0, "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = CreateReview(db, order.ID, buyer.ID, 6, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateReview_OnePerOrder(t *testing.T) {
	db := newTestDB(t)
	seller := seedUser(t, db, "seller@example.com")
	buyer := seedUser(t, db, "buyer@example.com")
	order := completedOrder(t, db, seller.ID, buyer.ID, 15.00)

	_, err := CreateReview(db, order.ID, buyer.ID, 4, "good")
	require.NoError(t, err)
	_, err = CreateReview(db, order.ID, buyer.ID, 5, "even better")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateReview_AggregateIsMean(t *testing.T) {
	db := newTestDB(t)
	seller := seedUser(t, db, "seller@example.com")
	alice := seedUser(t, db, "alice@example.com")
	bob := seedUser(t, db, "bob@example.com")

	first := completedOrder(t, db, seller.ID, alice.ID, 10.00)
	second := completedOrder(t, db, seller.ID, bob.ID, 20.00)

	_, err := CreateReview(db, first.ID, alice.ID, 5, "perfect")
	require.NoError(t, err)
	_, err = CreateReview(db, second.ID, bob.ID, 2, "slow shipping")
	require.NoError(t, err)

	// Average of 5 and 2 over the two reviews targeting the seller
	var gotSeller domain.User
	require.NoError(t, db.First(&gotSeller, seller.ID).Error)
	assert.InDelta(t, 3.5, gotSeller.RatingAvg, 0.001)
	assert.Equal(t, int64(2), gotSeller.RatingCount)

	reviews, err := ListSellerReviews(db, seller.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
}

func TestCreateReview_OrderNotFound(t *testing.T) {
	db := newTestDB(t)
	buyer := seedUser(t, db, "buyer@example.com")

	_, err := CreateReview(db, 9999, buyer.ID, 4, "")
	assert.ErrorIs(t, err, ErrNotFound)
}
