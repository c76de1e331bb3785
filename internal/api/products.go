package api

import (
	"context"                       // Context for Redis operations
	"encoding/json"                 // Image URL list encoding
	"net/http"                      // HTTP status codes
	"strings"                       // String manipulation
	"thrift_market/internal/domain" // Importing domain models
	"thrift_market/internal/utils"  // Utility functions
	"time"                          // Time durations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// Request struct for creating a listing
type CreateProductRequest struct {
	Name        string   `json:"name" binding:"required"`                                     // Listing title
	Description string   `json:"description"`                                                 // Free-form description
	Price       float64  `json:"price" binding:"required,gt=0"`                               // Asking price
	Category    string   `json:"category" binding:"required"`                                 // Category label
	Size        string   `json:"size"`                                                        // Size label
	Condition   string   `json:"condition" binding:"required,oneof=new like-new good fair"` // Condition enum
	ImageURLs   []string `json:"image_urls"`                                                  // Image URL list
}

// ProductResponse is a product with the image URL list decoded
type ProductResponse struct {
	domain.Product
	ImageURLs []string `json:"image_urls"` // Decoded image URL list
}

// toProductResponse decodes the stored JSON image list
func toProductResponse(p domain.Product) ProductResponse {
	var urls []string
	if p.ImageURLs != "" {
		_ = json.Unmarshal([]byte(p.ImageURLs), &urls) // Best effort, empty list on bad data
	}
	return ProductResponse{Product: p, ImageURLs: urls}
}

// invalidateProductCaches drops the cached product detail and every
// cached listing page after a write
func invalidateProductCaches(rdb *redis.Client, productKey string) {
	ctx := context.Background()
	if productKey != "" {
		_ = utils.DeleteCache(ctx, rdb, productKey) // Invalidate the product detail cache
	}
	_ = utils.DeleteCachePattern(ctx, rdb, "products:list:*") // Invalidate all cached listing pages
}

// CreateProductHandler lets an authenticated seller publish a listing
func CreateProductHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		sellerID, ok := currentUserID(c) // Get userID from context
		if !ok {
			return
		}
		var req CreateProductRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		urls, _ := json.Marshal(req.ImageURLs) // Encode image list for storage
		product := domain.Product{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Category:    req.Category,
			Size:        req.Size,
			Condition:   req.Condition,
			Status:      domain.ProductAvailable, // New listings start available
			SellerID:    sellerID,
			ImageURLs:   string(urls),
		}
		if err := db.Create(&product).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"seller_id": sellerID,
				"error":     err.Error(),
			}).Error("Failed to create product")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
			return
		}
		// Log successful listing
		logrus.WithFields(logrus.Fields{
			"product_id": product.ID,
			"seller_id":  sellerID,
			"price":      product.Price,
		}).Info("Product listed")
		invalidateProductCaches(rdb, "") // New listing changes every listing page
		c.JSON(http.StatusCreated, toProductResponse(product))
	}
}

// ListProductsHandler returns available products with optional filters:
// category, size, min_price, max_price, search, sort_by
func ListProductsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		// Build cache key from all query params
		var keyParts []string
		for _, k := range []string{"category", "size", "min_price", "max_price", "search", "sort_by"} {
			keyParts = append(keyParts, k+"="+c.DefaultQuery(k, ""))
		}
		cacheKey := "products:list:" + strings.Join(keyParts, ":")
		var cached []ProductResponse
		// If cached data found, return it
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{"products": cached, "cached": true})
			return
		}
		// Only available products are browsable
		query := db.Model(&domain.Product{}).Where("status = ?", domain.ProductAvailable)
		if category := c.Query("category"); category != "" {
			query = query.Where("category = ?", category) // Filter by category
		}
		if size := c.Query("size"); size != "" {
			query = query.Where("size = ?", size) // Filter by size
		}
		if minPrice := c.Query("min_price"); minPrice != "" {
			query = query.Where("price >= ?", minPrice) // Filter by minimum price
		}
		if maxPrice := c.Query("max_price"); maxPrice != "" {
			query = query.Where("price <= ?", maxPrice) // Filter by maximum price
		}
		if search := c.Query("search"); search != "" {
			like := "%" + search + "%" // Substring match on name and description
			query = query.Where("name LIKE ? OR description LIKE ?", like, like)
		}
		// Sort order
		switch c.Query("sort_by") {
		case "price_asc":
			query = query.Order("price asc")
		case "price_desc":
			query = query.Order("price desc")
		case "likes":
			query = query.Order("likes desc")
		default:
			query = query.Order("created_at desc") // Newest first by default
		}
		var products []domain.Product
		if err := query.Limit(100).Find(&products).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}
		resp := make([]ProductResponse, len(products))
		for i, p := range products {
			resp[i] = toProductResponse(p)
		}
		// Cache the result for 60 seconds
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second)
		c.JSON(http.StatusOK, gin.H{"products": resp, "cached": false})
	}
}

// GetProductHandler returns a single product by ID
func GetProductHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		ctx := context.Background()
		cacheKey := "product:" + c.Param("id")
		var cached ProductResponse
		// Try to get from cache
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{"product": cached, "cached": true})
			return
		}
		var product domain.Product
		// If not in cache, fetch from DB
		if err := db.First(&product, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		resp := toProductResponse(product)
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second) // Cache for 60 seconds
		c.JSON(http.StatusOK, gin.H{"product": resp, "cached": false})
	}
}

// LikeProductHandler increments a product's like counter
func LikeProductHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentUserID(c); !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		// Atomic in-database increment, no read-modify-write
		res := db.Model(&domain.Product{}).
			Where("id = ?", id).
			Update("likes", gorm.Expr("likes + 1"))
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to like product"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		invalidateProductCaches(rdb, "product:"+c.Param("id"))
		c.JSON(http.StatusOK, gin.H{"message": "Liked"})
	}
}
