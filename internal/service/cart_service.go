package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dom/storefront/internal/domain"
	"github.com/dom/storefront/internal/repository"
	"github.com/google/uuid"
)

// CartService owns the cart aggregate. Writes to one cart are serialized
// in-process; writes to different carts never share a lock.
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	cartLocks   *keyedMutex[uuid.UUID]
	ownerLocks  *keyedMutex[string]
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		cartLocks:   newKeyedMutex[uuid.UUID](),
		ownerLocks:  newKeyedMutex[string](),
	}
}

// MaxItemQuantity bounds a single add or update so increments stay well
// inside the column range.
const MaxItemQuantity = math.MaxInt32

func validateQuantity(qty int) error {
	if qty < 1 || qty > MaxItemQuantity {
		return fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrInvalidQuantity)
	}
	return nil
}

func validateOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return fmt.Errorf("%w: cart owner is required", domain.ErrValidation)
	}
	return nil
}

// GetCart loads the cart and resolves every product reference with a single
// batched lookup. Lines whose product no longer exists are dropped.
func (s *CartService) GetCart(ctx context.Context, cartID uuid.UUID) (*domain.MaterializedCart, error) {
	cart, err := s.cartRepo.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}

	products, err := s.productRepo.GetByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, err
	}

	index := make(map[uuid.UUID]*domain.Product, len(products))
	for _, p := range products {
		index[p.ID] = p
	}
	return domain.Materialize(cart, index), nil
}

// CartForOwner returns the id of the owner's cart, creating an empty one
// when the owner has none.
func (s *CartService) CartForOwner(ctx context.Context, ownerID string) (uuid.UUID, error) {
	if err := validateOwner(ownerID); err != nil {
		return uuid.Nil, err
	}

	unlock := s.ownerLocks.Lock(ownerID)
	defer unlock()

	cart, err := s.cartRepo.GetByOwner(ctx, ownerID)
	if err == nil {
		return cart.ID, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return uuid.Nil, err
	}

	now := time.Now()
	cart = &domain.Cart{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.cartRepo.Create(ctx, cart); err != nil {
		return uuid.Nil, err
	}
	return cart.ID, nil
}

// AddItem adds qty of the product, incrementing an existing line. The cart
// is created for ownerID when absent.
func (s *CartService) AddItem(ctx context.Context, cartID uuid.UUID, ownerID string, productID uuid.UUID, qty int) error {
	if err := validateQuantity(qty); err != nil {
		return err
	}
	if err := validateOwner(ownerID); err != nil {
		return err
	}

	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: product %s", domain.ErrNotFound, productID)
		}
		return err
	}

	unlock := s.cartLocks.Lock(cartID)
	defer unlock()

	return s.cartRepo.AddItem(ctx, cartID, ownerID, productID, qty)
}

// UpdateItem sets the quantity of an existing line.
func (s *CartService) UpdateItem(ctx context.Context, cartID uuid.UUID, ownerID string, productID uuid.UUID, qty int) error {
	if err := validateQuantity(qty); err != nil {
		return err
	}

	unlock := s.cartLocks.Lock(cartID)
	defer unlock()

	if _, err := s.ownedCart(ctx, cartID, ownerID); err != nil {
		return err
	}
	return s.cartRepo.SetItemQuantity(ctx, cartID, productID, qty)
}

// RemoveItem drops the line for productID. Removing something that is not
// there, including from a cart that does not exist yet, succeeds.
func (s *CartService) RemoveItem(ctx context.Context, cartID uuid.UUID, ownerID string, productID uuid.UUID) error {
	unlock := s.cartLocks.Lock(cartID)
	defer unlock()

	if _, err := s.ownedCart(ctx, cartID, ownerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.cartRepo.RemoveItem(ctx, cartID, productID)
}

// Clear empties the cart but keeps the cart itself.
func (s *CartService) Clear(ctx context.Context, cartID uuid.UUID, ownerID string) error {
	unlock := s.cartLocks.Lock(cartID)
	defer unlock()

	if _, err := s.ownedCart(ctx, cartID, ownerID); err != nil {
		return err
	}
	return s.cartRepo.Clear(ctx, cartID)
}

func (s *CartService) ownedCart(ctx context.Context, cartID uuid.UUID, ownerID string) (*domain.Cart, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, err
	}
	cart, err := s.cartRepo.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: %w", domain.ErrForbidden, domain.ErrNotCartOwner)
	}
	return cart, nil
}
