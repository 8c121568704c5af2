package postgres

import (
	"errors"
	"fmt"

	"github.com/dom/storefront/internal/domain"
	"github.com/dom/storefront/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewConnection(databaseURL string, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates every table the repositories use.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Session{},
		&domain.Product{},
		&domain.Cart{},
		&domain.CartItem{},
		&domain.ChatMessage{},
	)
}

// NewRepositories builds the Postgres-backed repositories. The session
// repository can be swapped for another backend by the caller.
func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		User:        NewUserRepository(db),
		Session:     NewSessionRepository(db),
		Product:     NewProductRepository(db),
		Cart:        NewCartRepository(db),
		ChatMessage: NewChatMessageRepository(db),
	}
}

var domainErrors = []error{
	domain.ErrValidation,
	domain.ErrNotFound,
	domain.ErrPersistence,
	domain.ErrForbidden,
	domain.ErrConflict,
}

// translateError maps gorm and driver failures onto the domain taxonomy.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %w", domain.ErrConflict, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
}
