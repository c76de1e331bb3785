package domain

// Conversation Model. At most one conversation per
// (product, buyer, seller) triple, enforced by the composite unique
// index and a lookup-before-create in the market layer.
type Conversation struct {
	ID        uint  `gorm:"primaryKey" json:"id"`                                     // Primary key
	ProductID uint  `gorm:"not null;uniqueIndex:idx_conv_triple" json:"product_id"`   // Product the conversation is about
	BuyerID   uint  `gorm:"not null;uniqueIndex:idx_conv_triple" json:"buyer_id"`     // Interested buyer
	SellerID  uint  `gorm:"not null;uniqueIndex:idx_conv_triple" json:"seller_id"`    // Product owner
	CreatedAt int64 `gorm:"autoCreateTime:milli" json:"created_at"`                   // Timestamp of creation in milliseconds
}

// IsParticipant reports whether the user is one of the two parties.
func (c *Conversation) IsParticipant(userID uint) bool {
	return userID == c.BuyerID || userID == c.SellerID
}
