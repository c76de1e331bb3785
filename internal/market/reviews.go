package market

import (
	"fmt"
	"thrift_market/internal/domain"

	"gorm.io/gorm"
)

// CreateReview records the buyer's review of a completed order and
// recomputes the seller's aggregate rating in the same transaction.
// One review per order; only the buyer may review; only after the
// order is completed.
func CreateReview(db *gorm.DB, orderID, reviewerID uint, rating int, comment string) (*domain.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	var review domain.Review
	err := db.Transaction(func(tx *gorm.DB) error {
		order, err := getOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.BuyerID != reviewerID {
			return fmt.Errorf("%w: only the buyer can review", ErrForbidden)
		}
		if order.Status != domain.OrderCompleted {
			return fmt.Errorf("%w: order must be completed before reviewing", ErrConflict)
		}
		review = domain.Review{
			OrderID:    orderID,
			ReviewerID: reviewerID,
			TargetID:   order.SellerID,
			Rating:     rating,
			Comment:    comment,
		}
		// One review per order: the unique index on order_id arbitrates,
		// so a concurrent duplicate cannot slip past a pre-check
		if err := tx.Create(&review).Error; err != nil {
			if isDuplicateKey(err) {
				return fmt.Errorf("%w: order already reviewed", ErrConflict)
			}
			return err
		}
		// Recompute the seller's aggregate from all reviews targeting
		// them, including the one just inserted
		return tx.Model(&domain.User{}).
			Where("id = ?", order.SellerID).
			Updates(map[string]any{
				"rating_avg":   gorm.Expr("(SELECT AVG(rating) FROM reviews WHERE target_id = ?)", order.SellerID),
				"rating_count": gorm.Expr("(SELECT COUNT(*) FROM reviews WHERE target_id = ?)", order.SellerID),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// ListSellerReviews returns all reviews targeting a seller, newest
// first.
func ListSellerReviews(db *gorm.DB, sellerID uint) ([]domain.Review, error) {
	var reviews []domain.Review
	err := db.Where("target_id = ?", sellerID).Order("created_at desc").Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}
