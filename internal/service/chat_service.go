package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dom/storefront/internal/domain"
	"github.com/dom/storefront/internal/logger"
	"github.com/dom/storefront/internal/repository"
	"github.com/google/uuid"
)

// Broadcaster fans chat events out to every live connection.
type Broadcaster interface {
	BroadcastChat(msg *domain.ChatMessage) int
	BroadcastAck() int
}

type ChatService struct {
	messageRepo    repository.ChatMessageRepository
	broadcaster    Broadcaster
	persistTimeout time.Duration
}

func NewChatService(messageRepo repository.ChatMessageRepository, broadcaster Broadcaster, persistTimeout time.Duration) *ChatService {
	return &ChatService{
		messageRepo:    messageRepo,
		broadcaster:    broadcaster,
		persistTimeout: persistTimeout,
	}
}

// Submit records the message and only then broadcasts it, followed by one
// acknowledgment event. If the write fails or exceeds the persist timeout
// nothing is broadcast and the error wraps domain.ErrPersistence.
func (s *ChatService) Submit(ctx context.Context, senderID, body string) (*domain.ChatMessage, error) {
	senderID = strings.TrimSpace(senderID)
	body = strings.TrimSpace(body)
	if senderID == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrEmptySender)
	}
	if body == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrEmptyBody)
	}

	msg := &domain.ChatMessage{
		ID:        uuid.New(),
		SenderID:  senderID,
		Body:      body,
		CreatedAt: time.Now(),
	}

	if err := s.persist(ctx, msg); err != nil {
		l := logger.Ctx(ctx)
		l.Error().Err(err).Str("sender", senderID).Msg("chat message not persisted")
		return nil, err
	}

	delivered := s.broadcaster.BroadcastChat(msg)
	s.broadcaster.BroadcastAck()

	l := logger.Ctx(ctx)
	l.Debug().
		Str("message_id", msg.ID.String()).
		Int("delivered", delivered).
		Msg("chat message broadcast")

	return msg, nil
}

func (s *ChatService) persist(ctx context.Context, msg *domain.ChatMessage) error {
	ctx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()

	err := s.messageRepo.Create(ctx, msg)
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
}

// Acknowledge broadcasts the fixed acknowledgment on its own.
func (s *ChatService) Acknowledge() int {
	return s.broadcaster.BroadcastAck()
}

// History returns every stored message, oldest first.
func (s *ChatService) History(ctx context.Context) ([]*domain.ChatMessage, error) {
	return s.messageRepo.List(ctx)
}
