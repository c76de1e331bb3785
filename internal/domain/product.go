package domain

// Product status values. Status only ever moves forward:
// available -> reserved -> sold, never back.
const (
	ProductAvailable = "available"
	ProductReserved  = "reserved"
	ProductSold      = "sold"
)

// Product condition values
const (
	ConditionNew     = "new"
	ConditionLikeNew = "like-new"
	ConditionGood    = "good"
	ConditionFair    = "fair"
)

// Product Model
type Product struct {
	ID          uint    `gorm:"primaryKey" json:"id"`                                   // Primary key
	Name        string  `gorm:"not null" json:"name"`                                   // Listing title
	Description string  `gorm:"type:text" json:"description"`                           // Free-form description
	Price       float64 `gorm:"type:decimal(10,2);not null" json:"price"`               // Asking price
	Category    string  `gorm:"index" json:"category"`                                  // Clothing, Shoes, Accessories, Bags, ...
	Size        string  `json:"size"`                                                   // Free-form size label (M, 39, One Size)
	Condition   string  `gorm:"not null" json:"condition"`                              // new, like-new, good, fair
	Status      string  `gorm:"not null;default:available;index" json:"status"`         // available, reserved, sold
	SellerID    uint    `gorm:"not null;index" json:"seller_id"`                        // Foreign key to the listing owner
	BuyerID     *uint   `json:"buyer_id,omitempty"`                                     // Set when the product is sold
	ImageURLs   string  `gorm:"type:json" json:"-"`                                     // JSON-encoded list of image URLs
	Likes       int64   `gorm:"not null;default:0" json:"likes"`                        // Like counter
	SoldAt      *int64  `json:"sold_at,omitempty"`                                      // Sale timestamp in milliseconds, nil until sold
	CreatedAt   int64   `gorm:"autoCreateTime:milli" json:"created_at"`                 // Timestamp of creation in milliseconds
}
