package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
	"thrift_market/internal/domain"
	"thrift_market/internal/market"
	"thrift_market/internal/middleware"
	"thrift_market/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

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

// setupRouter wires the redis-free part of the REST surface the way
// cmd/server does, JWT middleware included.
func setupRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/auth/register", RegisterHandler(db, testSecret))
	r.POST("/api/auth/login", LoginHandler(db, testSecret))
	r.GET("/api/sellers/:id/reviews", ListSellerReviewsHandler(db))
	auth := r.Group("/api")
	auth.Use(middleware.JWTAuthMiddleware(testSecret))
	auth.GET("/orders", ListOrdersHandler(db))
	auth.GET("/orders/:id", GetOrderHandler(db))
	auth.POST("/orders/:id/ship", ShipOrderHandler(db))
	auth.POST("/reviews", CreateReviewHandler(db))
	auth.POST("/conversations", CreateConversationHandler(db))
	auth.GET("/conversations", ListConversationsHandler(db))
	auth.GET("/conversations/:id/messages", ListMessagesHandler(db))
	return r
}

// do issues a JSON request, optionally authenticated as userID.
func do(t *testing.T, r *gin.Engine, method, path string, body any, userID uint) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		token, err := utils.GenerateJWT(userID, testSecret)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// seedUser inserts a user and returns it.
func seedUser(t *testing.T, db *gorm.DB, email string) domain.User {
	t.Helper()
	user := domain.User{Email: email, PasswordHash: "x", FullName: email}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// seedSale creates a product and checks it out, returning the paid order.
func seedSale(t *testing.T, db *gorm.DB, sellerID, buyerID uint) *domain.Order {
	t.Helper()
	product := domain.Product{
		Name: "Vintage Leather Bag", Price: 45.50, Condition: domain.ConditionLikeNew,
		Status: domain.ProductAvailable, SellerID: sellerID,
	}
	require.NoError(t, db.Create(&product).Error)
	order, err := market.Checkout(db, product.ID, buyerID)
	require.NoError(t, err)
	return order
}

func TestRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	r := setupRouter(db)

	w := do(t, r, http.MethodPost, "/api/auth/register", gin.H{
		"email": "Jane@Example.com", "password": "hunter2hunter2", "full_name": "Jane Doe",
	}, 0)
	require.Equal(t, http.StatusCreated, w.Code)
	var reg AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "jane@example.com", reg.User.Email) // Normalized

	// Duplicate email
	w = do(t, r, http.MethodPost, "/api/auth/register", gin.H{
		"email": "jane@example.com", "password": "hunter2hunter2", "full_name": "Jane Again",
	}, 0)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Login round-trips
	w = do(t, r, http.MethodPost, "/api/auth/login", gin.H{
		"email": "jane@example.com", "password": "hunter2hunter2",
	}, 0)
	assert.Equal(t, http.StatusOK, w.Code)

	// Wrong password
	w = do(t, r, http.MethodPost, "/api/auth/login", gin.H{
		"email": "jane@example.com", "password": "wrong-password",
	}, 0)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegister_Validation(t *testing.T) {
	db := newTestDB(t)
	r := setupRouter(db)

	// Bad email shape
	w := do(t, r, http.MethodPost, "/api/auth/register", gin.H{
		"email": "not-an-email", "password": "hunter2hunter2", "full_name": "X",
	}, 0)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Short password
	w = do(t, r, http.MethodPost, "/api/auth/register", gin.H{
		"email": "a@b.co", "password": "short", "full_name": "X",
	}, 0)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShipOrder_HTTP(t *testing.T) {
	db := newTestDB(t)
	r := setupRouter(db)
	seller := seedUser(t, db, "seller@example.com")
	buyer := seedUser(t, db, "buyer@example.com")
	order := seedSale(t, db, seller.ID, buyer.ID)
	path := "/api/orders/" + itoa(order.ID) + "/ship"

	// No token at all
	w := do(t, r, http.MethodPost, path, gin.H{"tracking_code": "TRACK1"}, 0)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// The buyer is the wrong role
	w = do(t, r, http.MethodPost, path, gin.H{"tracking_code": "TRACK1"}, buyer.ID)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Missing tracking code
	w = do(t, r, http.MethodPost, path, gin.H{}, seller.ID)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// The seller ships
	w = do(t, r, http.MethodPost, path, gin.H{"tracking_code": "TRACK1"}, seller.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "TRACK1")

	// Shipping twice conflicts with the current state
	w = do(t, r, http.MethodPost, path, gin.H{"tracking_code": "TRACK2"}, seller.ID)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetOrder_HTTP_Visibility(t *testing.T) {
	db := newTestDB(t)
	r := setupRouter(db)
	seller := seedUser(t, db, "seller@example.com")
	buyer := seedUser(t, db, "buyer@example.com")
	stranger := seedUser(t, db, "stranger@example.com")
	order := seedSale(t, db, seller.ID, buyer.ID)
	path := "/api/orders/" + itoa(order.ID)

	w := do(t, r, http.MethodGet, path, nil, buyer.ID)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Vintage Leather Bag")

	w = do(t, r, http.MethodGet, path, nil, seller.ID)
	assert.Equal(t, http.StatusOK, w.Code)

	// Existence is not leaked to unrelated parties
	w = do(t, r, http.MethodGet, path, nil, stranger.ID)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateReview_HTTP(t *testing.T) {
	db := newTestDB(t)
	r := setupRouter(db)
	seller := seedUser(t, db, "seller@example.com")
	buyer := seedUser(t, db, "buyer@example.com")
	order := seedSale(t, db, seller.ID, buyer.ID)

	// Rating outside bounds is rejected by binding before persistence
	w := do(t, r, http.MethodPost, "/api/reviews", gin.H{"order_id": order.ID, "rating": 9}, buyer.ID)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Order not completed yet
	w = do(t, r, http.MethodPost, "/api/reviews", gin.H{"order_id": order.ID, "rating": 5}, buyer.ID)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Drive the order to completed, then review
	_, err := market.ShipOrder(db, order.ID, seller.ID, "TRACK1")
	require.NoError(t, err)
	_, err = market.CompleteOrder(db, order.ID, buyer.ID)
	require.NoError(t, err)

	w = do(t, r, http.MethodPost, "/api/reviews", gin.H{"order_id": order.ID, "rating": 5, "comment": "great"}, buyer.ID)
	assert.Equal(t, http.StatusCreated, w.Code)

	// The seller's public review page reflects the aggregate
	w = do(t, r, http.MethodGet, "/api/sellers/"+itoa(seller.ID)+"/reviews", nil, 0)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rating_count":1`)
}

func TestConversations_HTTP(t *testing.T) {
	db := newTestDB(t)
	r := setupRouter(db)
	seller := seedUser(t, db, "seller@example.com")
	buyer := seedUser(t, db, "buyer@example.com")
	product := domain.Product{
		Name: "Nike Sneakers", Price: 80.00, Condition: domain.ConditionGood,
		Status: domain.ProductAvailable, SellerID: seller.ID,
	}
	require.NoError(t, db.Create(&product).Error)
	body := gin.H{"product_id": product.ID, "seller_id": seller.ID}

	// First call creates
	w := do(t, r, http.MethodPost, "/api/conversations", body, buyer.ID)
	assert.Equal(t, http.StatusCreated, w.Code)

	// Second call finds the same conversation
	w = do(t, r, http.MethodPost, "/api/conversations", body, buyer.ID)
	assert.Equal(t, http.StatusOK, w.Code)

	// Missing fields
	w = do(t, r, http.MethodPost, "/api/conversations", gin.H{"product_id": product.ID}, buyer.ID)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Both parties list it, an outsider lists nothing
	for _, userID := range []uint{buyer.ID, seller.ID} {
		w = do(t, r, http.MethodGet, "/api/conversations", nil, userID)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"product_id":`+itoa(product.ID))
	}
}

// newBrowseRouter wires the product routes with a cache client that
// points nowhere: the handlers fall through to the database when Redis
// is unreachable, so browse semantics are testable without a server.
func newBrowseRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 10 * time.Millisecond,
		MaxRetries:  -1, // Fail fast instead of backing off
	})
	r := gin.New()
	r.GET("/api/products", ListProductsHandler(db, rdb))
	r.GET("/api/products/:id", GetProductHandler(db, rdb))
	return r
}

// seedCatalog inserts a small mixed catalog owned by sellerID.
func seedCatalog(t *testing.T, db *gorm.DB, sellerID uint) []domain.Product {
	t.Helper()
	catalog := []domain.Product{
		{Name: "Zara Denim Jacket", Description: "Light wash", Price: 20.00, Category: "Clothing",
			Size: "M", Condition: domain.ConditionGood, Status: domain.ProductAvailable, SellerID: sellerID},
		{Name: "Nike Air Max", Description: "Barely worn", Price: 80.00, Category: "Shoes",
			Size: "42", Condition: domain.ConditionLikeNew, Status: domain.ProductAvailable, SellerID: sellerID},
		{Name: "Gucci Belt", Description: "Authentic", Price: 150.00, Category: "Accessories",
			Size: "One Size", Condition: domain.ConditionNew, Status: domain.ProductAvailable, SellerID: sellerID},
		{Name: "Old Hoodie", Description: "Cozy", Price: 10.00, Category: "Clothing",
			Size: "L", Condition: domain.ConditionFair, Status: domain.ProductSold, SellerID: sellerID},
	}
	for i := range catalog {
		require.NoError(t, db.Create(&catalog[i]).Error)
	}
	return catalog
}

// browse runs a listing query and returns the decoded products.
func browse(t *testing.T, r *gin.Engine, query string) []ProductResponse {
	t.Helper()
	w := do(t, r, http.MethodGet, "/api/products"+query, nil, 0)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Products []ProductResponse `json:"products"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Products
}

func names(products []ProductResponse) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}

func TestListProducts_FiltersAndSort(t *testing.T) {
	db := newTestDB(t)
	seller := seedUser(t, db, "seller@example.com")
	seedCatalog(t, db, seller.ID)
	r := newBrowseRouter(db)

	// Sold items never show up in the browse listing
	all := browse(t, r, "")
	assert.Len(t, all, 3)
	assert.NotContains(t, names(all), "Old Hoodie")

	// Category and size filters
	assert.Equal(t, []string{"Zara Denim Jacket"}, names(browse(t, r, "?category=Clothing")))
	assert.Equal(t, []string{"Nike Air Max"}, names(browse(t, r, "?size=42")))

	// Price range
	assert.ElementsMatch(t, []string{"Nike Air Max", "Gucci Belt"}, names(browse(t, r, "?min_price=50")))
	assert.ElementsMatch(t, []string{"Zara Denim Jacket", "Nike Air Max"}, names(browse(t, r, "?max_price=100")))
	assert.Equal(t, []string{"Nike Air Max"}, names(browse(t, r, "?min_price=50&max_price=100")))

	// Substring search over name and description
	assert.Equal(t, []string{"Zara Denim Jacket"}, names(browse(t, r, "?search=denim")))
	assert.Equal(t, []string{"Nike Air Max"}, names(browse(t, r, "?search=worn")))

	// Sort order by price
	assert.Equal(t, []string{"Zara Denim Jacket", "Nike Air Max", "Gucci Belt"},
		names(browse(t, r, "?sort_by=price_asc")))
	assert.Equal(t, []string{"Gucci Belt", "Nike Air Max", "Zara Denim Jacket"},
		names(browse(t, r, "?sort_by=price_desc")))

	// Filters compose
	assert.Empty(t, browse(t, r, "?category=Shoes&max_price=50"))
}

func TestGetProduct_Detail(t *testing.T) {
	db := newTestDB(t)
	seller := seedUser(t, db, "seller@example.com")
	catalog := seedCatalog(t, db, seller.ID)
	r := newBrowseRouter(db)

	w := do(t, r, http.MethodGet, "/api/products/"+itoa(catalog[0].ID), nil, 0)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Zara Denim Jacket")

	// Sold products stay fetchable by ID (order pages link to them)
	w = do(t, r, http.MethodGet, "/api/products/"+itoa(catalog[3].ID), nil, 0)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/products/9999", nil, 0)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// itoa formats an ID for URL building.
func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
