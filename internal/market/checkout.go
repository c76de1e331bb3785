package market

import (
	"errors"
	"fmt"
	"math"
	"thrift_market/internal/domain"
	"time"

	"gorm.io/gorm"
)

// FeeRate is the marketplace fee charged to the buyer on top of the
// product price. The seller always earns the bare price; the fee is
// kept by the platform.
const FeeRate = 0.05

// round2 rounds to currency minor-unit precision (two decimals).
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Checkout converts an available product into a paid order, all inside
// one database transaction:
//  1. the product is flipped from available to sold with a conditional
//     update, so of two concurrent buyers exactly one wins and the
//     loser gets ErrConflict,
//  2. an order is inserted in state "paid" (payment is modeled as
//     already captured),
//  3. the seller is credited with a pending "sale" wallet transaction
//     for the bare price; it becomes spendable balance only when the
//     buyer completes the order,
//  4. the buyer's ledger records a completed "purchase" transaction for
//     the charged total.
//
// Failure leaves every table unchanged.
func Checkout(db *gorm.DB, productID, buyerID uint) (*domain.Order, error) {
	var order domain.Order // Created order, populated inside the transaction
	err := db.Transaction(func(tx *gorm.DB) error {
		var product domain.Product // Load the product first
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: product not found", ErrNotFound)
			}
			return err
		}
		// A seller can never buy their own listing
		if product.SellerID == buyerID {
			return fmt.Errorf("%w: cannot buy own product", ErrForbidden)
		}
		// Conditional flip available -> sold. This is the race arbiter:
		// a concurrent checkout that already sold the product makes this
		// update match zero rows, which we surface as Conflict.
		now := time.Now().UnixMilli()
		res := tx.Model(&domain.Product{}).
			Where("id = ? AND status = ?", product.ID, domain.ProductAvailable).
			Updates(map[string]any{
				"status":   domain.ProductSold,
				"buyer_id": buyerID,
				"sold_at":  now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: product is no longer available", ErrConflict)
		}
		// Buyer pays price + fee, seller earns the bare price
		fee := round2(product.Price * FeeRate)
		total := round2(product.Price + fee)
		order = domain.Order{
			ProductID: product.ID,
			BuyerID:   buyerID,
			SellerID:  product.SellerID,
			Price:     product.Price,
			Fee:       fee,
			Total:     total,
			Status:    domain.OrderPaid, // Payment assumed captured at checkout
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		// Escrow: the seller's earnings sit pending until the buyer
		// confirms receipt
		saleTx := domain.WalletTransaction{
			UserID:  product.SellerID,
			Type:    domain.TxSale,
			Amount:  product.Price,
			Status:  domain.TxPending,
			OrderID: &order.ID,
		}
		if err := tx.Create(&saleTx).Error; err != nil {
			return err
		}
		// The buyer's side of the ledger: payment captured at checkout
		purchaseTx := domain.WalletTransaction{
			UserID:  buyerID,
			Type:    domain.TxPurchase,
			Amount:  total,
			Status:  domain.TxCompleted,
			OrderID: &order.ID,
		}
		return tx.Create(&purchaseTx).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}
