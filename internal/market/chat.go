package market

import (
	"errors"
	"fmt"
	"strings"
	"thrift_market/internal/domain"

	"gorm.io/gorm"
)

// GetOrCreateConversation is the idempotent lookup-or-insert keyed by
// the (product, buyer, seller) triple. The boolean result reports
// whether a new conversation was created.
func GetOrCreateConversation(db *gorm.DB, productID, buyerID, sellerID uint) (*domain.Conversation, bool, error) {
	var product domain.Product
	if err := db.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("%w: product not found", ErrNotFound)
		}
		return nil, false, err
	}
	if product.SellerID != sellerID {
		return nil, false, fmt.Errorf("%w: seller does not own this product", ErrValidation)
	}
	if buyerID == sellerID {
		return nil, false, fmt.Errorf("%w: cannot start a conversation with yourself", ErrValidation)
	}
	var conv domain.Conversation
	err := db.Where("product_id = ? AND buyer_id = ? AND seller_id = ?", productID, buyerID, sellerID).
		First(&conv).Error
	if err == nil {
		return &conv, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	conv = domain.Conversation{ProductID: productID, BuyerID: buyerID, SellerID: sellerID}
	if err := db.Create(&conv).Error; err != nil {
		// A concurrent request may have created the same triple; the
		// unique index rejects ours, so fall back to the winner's row
		var existing domain.Conversation
		if lookupErr := db.Where("product_id = ? AND buyer_id = ? AND seller_id = ?", productID, buyerID, sellerID).
			First(&existing).Error; lookupErr == nil {
			return &existing, false, nil
		}
		return nil, false, err
	}
	return &conv, true, nil
}

// getConversation loads a conversation or translates the miss into
// ErrNotFound.
func getConversation(db *gorm.DB, conversationID uint) (*domain.Conversation, error) {
	var conv domain.Conversation
	if err := db.First(&conv, conversationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: conversation not found", ErrNotFound)
		}
		return nil, err
	}
	return &conv, nil
}

// CanJoinConversation reports whether a user is a participant of the
// conversation. The chat relay checks this before subscribing a live
// connection to a room.
func CanJoinConversation(db *gorm.DB, conversationID, userID uint) error {
	conv, err := getConversation(db, conversationID)
	if err != nil {
		return err
	}
	if !conv.IsParticipant(userID) {
		return fmt.Errorf("%w: not a participant of this conversation", ErrForbidden)
	}
	return nil
}

// SaveMessage persists a message after checking the sender is one of
// the conversation's two participants. Fails closed on empty content.
// The returned row carries the server-assigned identifier and
// timestamp that subscribers, including the sender, receive.
func SaveMessage(db *gorm.DB, conversationID, senderID uint, content string) (*domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: message content is required", ErrValidation)
	}
	conv, err := getConversation(db, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsParticipant(senderID) {
		return nil, fmt.Errorf("%w: not a participant of this conversation", ErrForbidden)
	}
	msg := domain.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
	}
	if err := db.Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListConversations returns every conversation the user participates
// in, newest first.
func ListConversations(db *gorm.DB, userID uint) ([]domain.Conversation, error) {
	var convs []domain.Conversation
	err := db.Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("created_at desc").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

// ListMessages returns a conversation's messages in creation order,
// for participants only.
func ListMessages(db *gorm.DB, conversationID, userID uint) ([]domain.Message, error) {
	if err := CanJoinConversation(db, conversationID, userID); err != nil {
		return nil, err
	}
	var msgs []domain.Message
	err := db.Where("conversation_id = ?", conversationID).
		Order("created_at asc").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}
