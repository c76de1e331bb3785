package api

import (
	"context"                       // Context for Redis operations
	"encoding/json"                 // Image URL list decoding
	"net/http"                      // HTTP status codes
	"strconv"                       // String conversion
	"thrift_market/internal/market" // Business transactions
	"thrift_market/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// Request struct for checkout ("Buy Now")
type CreateOrderRequest struct {
	ProductID uint `json:"product_id" binding:"required"` // Product to buy
}

// Request struct for shipping
type ShipOrderRequest struct {
	TrackingCode string `json:"tracking_code" binding:"required"` // Carrier tracking code
}

// invalidateWalletCaches drops a user's cached wallet views after a
// balance-affecting write
func invalidateWalletCaches(rdb *redis.Client, userID uint) {
	ctx := context.Background()
	key := strconv.Itoa(int(userID))
	_ = utils.DeleteCache(ctx, rdb, "wallet:user:"+key)
	_ = utils.DeleteCachePattern(ctx, rdb, "txhistory:user:"+key+":*")
}

// CreateOrderHandler runs the checkout transaction: flips the product
// to sold, creates the paid order and the seller's pending escrow
// credit, all atomically
func CreateOrderHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		buyerID, ok := currentUserID(c) // Get userID from context
		if !ok {
			return
		}
		var req CreateOrderRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Product ID required"})
			return
		}
		order, err := market.Checkout(db, req.ProductID, buyerID)
		if err != nil {
			respondError(c, err, "Failed to create order")
			return
		}
		// Log the sale
		logrus.WithFields(logrus.Fields{
			"order_id":   order.ID,
			"product_id": order.ProductID,
			"buyer_id":   order.BuyerID,
			"seller_id":  order.SellerID,
			"total":      order.Total,
		}).Info("Checkout completed")
		// The product is gone from listings; the seller gained a pending credit
		invalidateProductCaches(rdb, "product:"+strconv.Itoa(int(order.ProductID)))
		invalidateWalletCaches(rdb, order.SellerID)
		c.JSON(http.StatusCreated, gin.H{"id": order.ID, "status": order.Status, "total": order.Total})
	}
}

// GetOrderHandler returns the joined order view for a participant
func GetOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		orderID, ok := paramID(c, "id")
		if !ok {
			return
		}
		details, err := market.GetOrderDetails(db, orderID, userID)
		if err != nil {
			respondError(c, err, "Failed to fetch order")
			return
		}
		// Decode the stored image list for the client
		var images []string
		if details.ProductImages != "" {
			_ = json.Unmarshal([]byte(details.ProductImages), &images)
		}
		c.JSON(http.StatusOK, gin.H{
			"order":          details.Order,
			"product_name":   details.ProductName,
			"product_images": images,
			"seller_name":    details.SellerName,
			"buyer_name":     details.BuyerName,
		})
	}
}

// ListOrdersHandler returns the caller's purchases and/or sales
func ListOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		orders, err := market.ListOrders(db, userID, c.Query("role"))
		if err != nil {
			respondError(c, err, "Failed to fetch orders")
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}

// ShipOrderHandler lets the seller mark a paid order as shipped
func ShipOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		orderID, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req ShipOrderRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Tracking code required"})
			return
		}
		order, err := market.ShipOrder(db, orderID, userID, req.TrackingCode)
		if err != nil {
			respondError(c, err, "Failed to update order")
			return
		}
		logrus.WithFields(logrus.Fields{
			"order_id":      order.ID,
			"seller_id":     userID,
			"tracking_code": order.TrackingCode,
		}).Info("Order shipped")
		c.JSON(http.StatusOK, gin.H{"status": order.Status, "tracking_code": order.TrackingCode})
	}
}

// CompleteOrderHandler lets the buyer confirm receipt, which releases
// the escrowed funds to the seller
func CompleteOrderHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		orderID, ok := paramID(c, "id")
		if !ok {
			return
		}
		order, err := market.CompleteOrder(db, orderID, userID)
		if err != nil {
			respondError(c, err, "Failed to complete order")
			return
		}
		logrus.WithFields(logrus.Fields{
			"order_id":  order.ID,
			"buyer_id":  userID,
			"seller_id": order.SellerID,
			"amount":    order.Price,
		}).Info("Order completed, funds released")
		// The seller's balance changed
		invalidateWalletCaches(rdb, order.SellerID)
		c.JSON(http.StatusOK, gin.H{"status": order.Status})
	}
}
