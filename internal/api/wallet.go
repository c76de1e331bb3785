package api

import (
	"context"                       // Context for Redis operations
	"net/http"                      // HTTP status codes
	"strconv"                       // String conversion
	"thrift_market/internal/domain" // Importing domain models
	"thrift_market/internal/market" // Business transactions
	"thrift_market/internal/utils"  // Utility functions
	"time"                          // Time durations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// Request struct for deposits and withdrawals
type AmountRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"` // Amount, must be positive
}

// GetWalletHandler returns the available balance plus the pending
// escrow total for the authenticated user
func GetWalletHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			return
		}
		ctx := context.Background()
		cacheKey := "wallet:user:" + strconv.Itoa(int(userID)) // Cache key for wallet
		var cached market.WalletSummary
		// Try to get from cache
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{"wallet": cached, "cached": true})
			return
		}
		summary, err := market.GetWallet(db, userID)
		if err != nil {
			respondError(c, err, "Failed to fetch wallet")
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, summary, 60*time.Second) // Cache for 60 seconds
		c.JSON(http.StatusOK, gin.H{"wallet": summary, "cached": false})
	}
}

// DepositHandler credits the authenticated user's available balance
func DepositHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		var req AmountRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
			return
		}
		if err := market.Deposit(db, userID, req.Amount); err != nil {
			respondError(c, err, "Deposit failed")
			return
		}
		// Log successful deposit
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"amount":  req.Amount,
			"type":    domain.TxDeposit,
		}).Info("Deposit transaction")
		invalidateWalletCaches(rdb, userID)
		c.JSON(http.StatusOK, gin.H{"message": "Deposit successful"})
	}
}

// WithdrawHandler debits the authenticated user's available balance
func WithdrawHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		var req AmountRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
			return
		}
		if err := market.Withdraw(db, userID, req.Amount); err != nil {
			respondError(c, err, "Withdrawal failed")
			return
		}
		// Log successful withdrawal
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"amount":  req.Amount,
			"type":    domain.TxWithdrawal,
		}).Info("Withdrawal transaction")
		invalidateWalletCaches(rdb, userID)
		c.JSON(http.StatusOK, gin.H{"message": "Withdrawal successful"})
	}
}

// GetTransactionHistoryHandler returns the authenticated user's wallet
// transactions, paginated and newest first
func GetTransactionHistoryHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		page := 1      // Default page
		pageSize := 20 // Default page size
		// If page exists in query
		if p := c.Query("page"); p != "" {
			if v, err := strconv.Atoi(p); err == nil && v > 0 {
				page = v // Set page if valid
			}
		}
		// If page_size exists in query
		if ps := c.Query("page_size"); ps != "" {
			if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
				pageSize = v // Set page size if valid
			}
		}
		offset := (page - 1) * pageSize // Calculate offset
		// Redis cache key
		cacheKey := "txhistory:user:" + strconv.Itoa(int(userID)) + ":page:" + strconv.Itoa(page) + ":size:" + strconv.Itoa(pageSize)
		ctx := context.Background()
		var cached struct {
			Transactions []domain.WalletTransaction `json:"transactions"` // List of transactions
			Page         int                        `json:"page"`         // Current page
			PageSize     int                        `json:"page_size"`    // Page size
			Total        int64                      `json:"total"`        // Total transactions
			TotalPages   int                        `json:"total_pages"`  // Total pages
		}
		// Try to get from cache
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{
				"transactions": cached.Transactions,
				"page":         cached.Page,
				"page_size":    cached.PageSize,
				"total":        cached.Total,
				"total_pages":  cached.TotalPages,
				"cached":       true,
			})
			return
		}
		var total int64 // Total count of transactions
		if err := db.Model(&domain.WalletTransaction{}).
			Where("user_id = ?", userID).
			Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count transactions"})
			return
		}
		var transactions []domain.WalletTransaction // Slice to hold transactions
		// Fetch paginated transactions
		if err := db.Where("user_id = ?", userID).
			Order("created_at desc").
			Offset(offset).
			Limit(pageSize).
			Find(&transactions).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
			return
		}
		// Calculate total pages
		totalPages := (int(total) + pageSize - 1) / pageSize
		resp := gin.H{
			"transactions": transactions,
			"page":         page,
			"page_size":    pageSize,
			"total":        total,
			"total_pages":  totalPages,
			"cached":       false,
		}
		// Cache the result for 60 seconds
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second)
		c.JSON(http.StatusOK, resp)
	}
}
