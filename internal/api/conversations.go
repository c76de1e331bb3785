package api

import (
	"net/http"                      // HTTP status codes
	"thrift_market/internal/market" // Business transactions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Request struct for opening a conversation about a product
type CreateConversationRequest struct {
	ProductID uint `json:"product_id" binding:"required"` // Product the conversation is about
	SellerID  uint `json:"seller_id" binding:"required"`  // The product's owner
}

// CreateConversationHandler is the idempotent lookup-or-create for the
// (product, buyer, seller) triple; the caller is the buyer
func CreateConversationHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		buyerID, ok := currentUserID(c) // Get userID from context
		if !ok {
			return
		}
		var req CreateConversationRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
			return
		}
		conv, created, err := market.GetOrCreateConversation(db, req.ProductID, buyerID, req.SellerID)
		if err != nil {
			respondError(c, err, "Failed to open conversation")
			return
		}
		status := http.StatusOK // Existing conversation
		if created {
			status = http.StatusCreated // Newly opened
			logrus.WithFields(logrus.Fields{
				"conversation_id": conv.ID,
				"product_id":      conv.ProductID,
				"buyer_id":        conv.BuyerID,
				"seller_id":       conv.SellerID,
			}).Info("Conversation opened")
		}
		c.JSON(status, gin.H{"conversation": conv, "created": created})
	}
}

// ListConversationsHandler returns the caller's conversations
func ListConversationsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		convs, err := market.ListConversations(db, userID)
		if err != nil {
			respondError(c, err, "Failed to fetch conversations")
			return
		}
		c.JSON(http.StatusOK, gin.H{"conversations": convs})
	}
}

// ListMessagesHandler returns a conversation's messages in creation
// order, for participants only
func ListMessagesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		convID, ok := paramID(c, "id")
		if !ok {
			return
		}
		msgs, err := market.ListMessages(db, convID, userID)
		if err != nil {
			respondError(c, err, "Failed to fetch messages")
			return
		}
		c.JSON(http.StatusOK, gin.H{"messages": msgs})
	}
}
