package domain

// Review Model. Exactly one review per completed order, written by the
// order's buyer about the order's seller.
type Review struct {
	ID         uint   `gorm:"primaryKey" json:"id"`                   // Primary key
	OrderID    uint   `gorm:"uniqueIndex;not null" json:"order_id"`   // Reviewed order, unique so one review per order
	ReviewerID uint   `gorm:"not null" json:"reviewer_id"`            // The order's buyer
	TargetID   uint   `gorm:"not null;index" json:"target_id"`        // The order's seller
	Rating     int    `gorm:"not null" json:"rating"`                 // 1 to 5
	Comment    string `gorm:"type:text" json:"comment"`               // Free-form comment
	CreatedAt  int64  `gorm:"autoCreateTime:milli" json:"created_at"` // Timestamp of creation in milliseconds
}
