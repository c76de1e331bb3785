package domain

// Message Model. Append-only; ordering within a conversation is by
// creation timestamp.
type Message struct {
	ID             uint   `gorm:"primaryKey" json:"id"`                   // Primary key
	ConversationID uint   `gorm:"not null;index" json:"conversation_id"`  // Conversation the message belongs to
	SenderID       uint   `gorm:"not null" json:"sender_id"`              // Author, one of the conversation's two parties
	Content        string `gorm:"type:text;not null" json:"content"`      // Message body
	CreatedAt      int64  `gorm:"autoCreateTime:milli" json:"created_at"` // Server-assigned timestamp in milliseconds
}
