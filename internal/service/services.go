package service

import (
	"github.com/dom/storefront/internal/config"
	"github.com/dom/storefront/internal/repository"
)

type Services struct {
	Session *SessionService
	Auth    *AuthService
	Catalog *CatalogService
	Cart    *CartService
	Chat    *ChatService
}

func NewServices(repos *repository.Repositories, broadcaster Broadcaster, cfg *config.Config) *Services {
	sessions := NewSessionService(repos.Session, cfg.Session.Secret, cfg.Session.TTL)
	return &Services{
		Session: sessions,
		Auth:    NewAuthService(repos.User, sessions),
		Catalog: NewCatalogService(repos.Product),
		Cart:    NewCartService(repos.Cart, repos.Product),
		Chat:    NewChatService(repos.ChatMessage, broadcaster, cfg.Chat.PersistTimeout),
	}
}
