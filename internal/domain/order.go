package domain

// Order status values. Transitions are monotonic along
// pending -> paid -> shipped -> completed; cancelled is reachable
// from pending or paid. completed and cancelled are terminal.
const (
	OrderPending   = "pending"
	OrderPaid      = "paid"
	OrderShipped   = "shipped"
	OrderCompleted = "completed"
	OrderCancelled = "cancelled"
)

// Order Model. One row serves both the seller's sale record and the
// buyer's purchase record; both parties read it, role-gated
// transitions mutate it.
type Order struct {
	ID           uint    `gorm:"primaryKey" json:"id"`                      // Primary key
	ProductID    uint    `gorm:"not null;index" json:"product_id"`          // Foreign key to the sold product
	BuyerID      uint    `gorm:"not null;index" json:"buyer_id"`            // Foreign key to the buyer
	SellerID     uint    `gorm:"not null;index" json:"seller_id"`           // Foreign key to the seller
	Price        float64 `gorm:"type:decimal(10,2);not null" json:"price"`  // Product price at checkout time
	Fee          float64 `gorm:"type:decimal(10,2);not null" json:"fee"`    // Marketplace fee paid by the buyer
	Total        float64 `gorm:"type:decimal(10,2);not null" json:"total"`  // Price + fee, charged to the buyer
	Status       string  `gorm:"not null;index" json:"status"`              // pending, paid, shipped, completed, cancelled
	TrackingCode string  `json:"tracking_code,omitempty"`                   // Set by the seller at shipping time
	CreatedAt    int64   `gorm:"autoCreateTime:milli" json:"created_at"`    // Timestamp of creation in milliseconds
	UpdatedAt    int64   `gorm:"autoUpdateTime:milli" json:"updated_at"`    // Timestamp of last transition in milliseconds
}
