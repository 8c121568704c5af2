package repository

import (
	"context"
	"time"

	"github.com/dom/storefront/internal/domain"
	"github.com/google/uuid"
)

// Implementations translate their driver's "no rows" error into
// domain.ErrNotFound so callers never import the driver.

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// SessionRepository stores TTL-bound sessions. Get must report an expired
// session as domain.ErrNotFound.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

// SessionSweeper is implemented by stores that do not expire records on
// their own.
type SessionSweeper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	// GetByIDs resolves all ids in one query. Missing ids are simply absent
	// from the result.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int64, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type CartRepository interface {
	// GetByID loads the cart with its items ordered by insertion.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error)
	GetByOwner(ctx context.Context, ownerID string) (*domain.Cart, error)
	// AddItem upserts the cart (owned by ownerID) and atomically increments
	// the item quantity, inserting the item when absent.
	AddItem(ctx context.Context, cartID uuid.UUID, ownerID string, productID uuid.UUID, qty int) error
	// SetItemQuantity returns domain.ErrNotFound when the item is absent.
	SetItemQuantity(ctx context.Context, cartID, productID uuid.UUID, qty int) error
	// RemoveItem is a no-op when the item is absent.
	RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error
	Clear(ctx context.Context, cartID uuid.UUID) error
	Create(ctx context.Context, cart *domain.Cart) error
}

type ChatMessageRepository interface {
	Create(ctx context.Context, msg *domain.ChatMessage) error
	List(ctx context.Context) ([]*domain.ChatMessage, error)
}

type Repositories struct {
	User        UserRepository
	Session     SessionRepository
	Product     ProductRepository
	Cart        CartRepository
	ChatMessage ChatMessageRepository
}
