package market

import (
	"errors"
	"fmt"
	"strings"
	"thrift_market/internal/domain"

	"gorm.io/gorm"
)

// getOrder loads an order or translates the miss into ErrNotFound.
func getOrder(tx *gorm.DB, orderID uint) (*domain.Order, error) {
	var order domain.Order
	if err := tx.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order not found", ErrNotFound)
		}
		return nil, err
	}
	return &order, nil
}

// ShipOrder marks a paid order as shipped. Only the seller may ship,
// and only from the paid state.
func ShipOrder(db *gorm.DB, orderID, actorID uint, trackingCode string) (*domain.Order, error) {
	if strings.TrimSpace(trackingCode) == "" {
		return nil, fmt.Errorf("%w: tracking code is required", ErrValidation)
	}
	var order *domain.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = getOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.SellerID != actorID {
			return fmt.Errorf("%w: only the seller can mark as shipped", ErrForbidden)
		}
		if order.Status != domain.OrderPaid {
			return fmt.Errorf("%w: order must be paid before shipping", ErrConflict)
		}
		// Conditional transition. The snapshot check above classifies the
		// sequential error; under concurrency two shippers can both read
		// "paid", so the update itself re-checks the state and the loser
		// matches zero rows.
		res := tx.Model(&domain.Order{}).
			Where("id = ? AND status = ?", order.ID, domain.OrderPaid).
			Updates(map[string]any{
				"status":        domain.OrderShipped,
				"tracking_code": trackingCode,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: order must be paid before shipping", ErrConflict)
		}
		order.Status = domain.OrderShipped
		order.TrackingCode = trackingCode
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CompleteOrder is the buyer's confirmation of receipt. Atomically:
// the order becomes completed, the pending "sale" wallet transaction
// from checkout becomes completed, and the seller's available balance
// grows by the sale price. The balance update is an in-database
// increment so concurrent completions for the same seller never lose
// an update.
func CompleteOrder(db *gorm.DB, orderID, actorID uint) (*domain.Order, error) {
	var order *domain.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = getOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.BuyerID != actorID {
			return fmt.Errorf("%w: only the buyer can confirm receipt", ErrForbidden)
		}
		if order.Status != domain.OrderShipped {
			return fmt.Errorf("%w: order must be shipped before completion", ErrConflict)
		}
		// Conditional transition: two concurrent completions both read
		// "shipped" under snapshot isolation, so the update re-checks the
		// state and only one of them matches the row.
		res := tx.Model(&domain.Order{}).
			Where("id = ? AND status = ?", order.ID, domain.OrderShipped).
			Update("status", domain.OrderCompleted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: order is no longer shipped", ErrConflict)
		}
		order.Status = domain.OrderCompleted
		// Release the escrowed funds: pending -> completed. Matching zero
		// rows means the sale was already settled; abort before the credit
		// so the seller can never be paid twice for one order.
		res = tx.Model(&domain.WalletTransaction{}).
			Where("order_id = ? AND type = ? AND status = ?", order.ID, domain.TxSale, domain.TxPending).
			Update("status", domain.TxCompleted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: sale already settled", ErrConflict)
		}
		// Credit the seller with the bare price (the fee stays with the
		// platform)
		return tx.Model(&domain.User{}).
			Where("id = ?", order.SellerID).
			Update("balance", gorm.Expr("balance + ?", order.Price)).Error
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// OrderDetails is an order joined with product and counterparty
// display data, the shape the order page renders.
type OrderDetails struct {
	domain.Order
	ProductName   string `json:"product_name"`
	ProductImages string `json:"product_images"`
	SellerName    string `json:"seller_name"`
	BuyerName     string `json:"buyer_name"`
}

// GetOrderDetails returns the joined order view for one of its two
// participants. Anyone else gets ErrNotFound so the order's existence
// is not leaked to unrelated parties.
func GetOrderDetails(db *gorm.DB, orderID, requesterID uint) (*OrderDetails, error) {
	var details OrderDetails
	err := db.Table("orders o").
		Select("o.*, p.name AS product_name, p.image_urls AS product_images, s.full_name AS seller_name, b.full_name AS buyer_name").
		Joins("JOIN products p ON o.product_id = p.id").
		Joins("JOIN users s ON o.seller_id = s.id").
		Joins("JOIN users b ON o.buyer_id = b.id").
		Where("o.id = ? AND (o.buyer_id = ? OR o.seller_id = ?)", orderID, requesterID, requesterID).
		Take(&details).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order not found", ErrNotFound)
		}
		return nil, err
	}
	return &details, nil
}

// ListOrders returns the orders a user participates in, filtered by
// role: "buyer" for purchases, "seller" for sales, anything else for
// both. Newest first.
func ListOrders(db *gorm.DB, userID uint, role string) ([]domain.Order, error) {
	query := db.Model(&domain.Order{})
	switch role {
	case "buyer":
		query = query.Where("buyer_id = ?", userID)
	case "seller":
		query = query.Where("seller_id = ?", userID)
	default:
		query = query.Where("buyer_id = ? OR seller_id = ?", userID, userID)
	}
	var orders []domain.Order
	if err := query.Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
