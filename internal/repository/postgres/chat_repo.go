package postgres

import (
	"context"

	"github.com/dom/storefront/internal/domain"
	"gorm.io/gorm"
)

type chatMessageRepository struct {
	db *gorm.DB
}

func NewChatMessageRepository(db *gorm.DB) *chatMessageRepository {
	return &chatMessageRepository{db: db}
}

func (r *chatMessageRepository) Create(ctx context.Context, msg *domain.ChatMessage) error {
	return translateError(r.db.WithContext(ctx).Create(msg).Error)
}

func (r *chatMessageRepository) List(ctx context.Context) ([]*domain.ChatMessage, error) {
	var messages []*domain.ChatMessage
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&messages).Error; err != nil {
		return nil, translateError(err)
	}
	return messages, nil
}
