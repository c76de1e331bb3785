package api

import (
	"errors"                        // Error inspection
	"net/http"                      // HTTP status codes
	"thrift_market/internal/domain" // Importing domain models
	"thrift_market/internal/market" // Business transactions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Request struct for creating a review
type CreateReviewRequest struct {
	OrderID uint   `json:"order_id" binding:"required"`          // Completed order being reviewed
	Rating  int    `json:"rating" binding:"required,min=1,max=5"` // Rating 1 to 5
	Comment string `json:"comment"`                               // Optional free-form comment
}

// CreateReviewHandler lets the buyer of a completed order review the
// seller; the seller's aggregate rating is recomputed atomically
func CreateReviewHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			return
		}
		var req CreateReviewRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		review, err := market.CreateReview(db, req.OrderID, userID, req.Rating, req.Comment)
		if err != nil {
			respondError(c, err, "Failed to submit review")
			return
		}
		logrus.WithFields(logrus.Fields{
			"order_id":  review.OrderID,
			"target_id": review.TargetID,
			"rating":    review.Rating,
		}).Info("Review submitted")
		c.JSON(http.StatusCreated, gin.H{"review": review})
	}
}

// ListSellerReviewsHandler returns a seller's reviews and aggregate
// rating
func ListSellerReviewsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sellerID, ok := paramID(c, "id")
		if !ok {
			return
		}
		var seller domain.User // The seller's aggregate lives on the user row
		if err := db.First(&seller, sellerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Seller not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch seller"})
			return
		}
		reviews, err := market.ListSellerReviews(db, sellerID)
		if err != nil {
			respondError(c, err, "Failed to fetch reviews")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"reviews":      reviews,
			"rating_avg":   seller.RatingAvg,
			"rating_count": seller.RatingCount,
		})
	}
}
