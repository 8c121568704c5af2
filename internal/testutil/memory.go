package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dom/storefront/internal/domain"
	"github.com/google/uuid"
)

// In-memory repositories for service tests that do not need Postgres. They
// follow the same error contract as the gorm implementations.

type MemoryProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*domain.Product

	// BatchCalls counts GetByIDs invocations.
	BatchCalls int
}

func NewMemoryProductRepo() *MemoryProductRepo {
	return &MemoryProductRepo{products: make(map[uuid.UUID]*domain.Product)}
}

func (r *MemoryProductRepo) Create(ctx context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *MemoryProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryProductRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.BatchCalls++
	out := make([]*domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemoryProductRepo) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*domain.Product
	for _, p := range r.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		cp := *p
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		switch filter.Sort {
		case domain.ProductSortPriceAsc:
			return all[i].Price < all[j].Price
		case domain.ProductSortPriceDesc:
			return all[i].Price > all[j].Price
		default:
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
	})
	total := int64(len(all))
	if filter.Offset >= len(all) {
		return []*domain.Product{}, total, nil
	}
	all = all[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(all) {
		all = all[:filter.Limit]
	}
	return all, total, nil
}

func (r *MemoryProductRepo) Update(ctx context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *MemoryProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

type MemoryCartRepo struct {
	mu    sync.Mutex
	carts map[uuid.UUID]*domain.Cart
}

func NewMemoryCartRepo() *MemoryCartRepo {
	return &MemoryCartRepo{carts: make(map[uuid.UUID]*domain.Cart)}
}

func copyCart(c *domain.Cart) *domain.Cart {
	cp := *c
	cp.Items = append([]domain.CartItem(nil), c.Items...)
	return &cp
}

func (r *MemoryCartRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyCart(c), nil
}

func (r *MemoryCartRepo) GetByOwner(ctx context.Context, ownerID string) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.Cart
	for _, c := range r.carts {
		if c.OwnerID != ownerID {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return copyCart(latest), nil
}

func (r *MemoryCartRepo) owned(cartID uuid.UUID, ownerID string) (*domain.Cart, error) {
	c, ok := r.carts[cartID]
	if !ok {
		now := time.Now()
		c = &domain.Cart{ID: cartID, OwnerID: ownerID, CreatedAt: now, UpdatedAt: now}
		r.carts[cartID] = c
	}
	if c.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: %w", domain.ErrForbidden, domain.ErrNotCartOwner)
	}
	return c, nil
}

func (r *MemoryCartRepo) AddItem(ctx context.Context, cartID uuid.UUID, ownerID string, productID uuid.UUID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.owned(cartID, ownerID)
	if err != nil {
		return err
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += qty
			return nil
		}
	}
	var next int64 = 1
	if n := len(c.Items); n > 0 {
		next = c.Items[n-1].Position + 1
	}
	c.Items = append(c.Items, domain.CartItem{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  qty,
		Position:  next,
		AddedAt:   time.Now(),
	})
	c.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryCartRepo) SetItemQuantity(ctx context.Context, cartID, productID uuid.UUID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[cartID]
	if !ok {
		return domain.ErrNotFound
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = qty
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *MemoryCartRepo) RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[cartID]
	if !ok {
		return nil
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *MemoryCartRepo) Clear(ctx context.Context, cartID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[cartID]
	if !ok {
		return domain.ErrNotFound
	}
	c.Items = nil
	return nil
}

func (r *MemoryCartRepo) Create(ctx context.Context, cart *domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.carts[cart.ID]; ok {
		return domain.ErrConflict
	}
	r.carts[cart.ID] = copyCart(cart)
	return nil
}

func (r *MemoryCartRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.carts)
}

// MemoryChatRepo stores messages in a slice. Set Err to make Create fail,
// or Delay to make it block until the delay passes or ctx is done.
type MemoryChatRepo struct {
	mu       sync.Mutex
	messages []*domain.ChatMessage

	Err   error
	Delay time.Duration
}

func NewMemoryChatRepo() *MemoryChatRepo {
	return &MemoryChatRepo{}
}

func (r *MemoryChatRepo) Create(ctx context.Context, msg *domain.ChatMessage) error {
	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *msg
	r.messages = append(r.messages, &cp)
	return nil
}

func (r *MemoryChatRepo) List(ctx context.Context) ([]*domain.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.ChatMessage, len(r.messages))
	copy(out, r.messages)
	return out, nil
}

func (r *MemoryChatRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

// MemorySessionRepo keeps sessions in a map. Get hides expired sessions
// using Now.
type MemorySessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session

	Now func() time.Time
}

func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{
		sessions: make(map[string]*domain.Session),
		Now:      time.Now,
	}
}

func (r *MemorySessionRepo) Create(ctx context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *MemorySessionRepo) Get(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Expired(r.Now()) {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *MemorySessionRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *MemorySessionRepo) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.UserID == userID {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *MemorySessionRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// RecordingBroadcaster counts broadcasts and pretends Clients connections
// received each one.
type RecordingBroadcaster struct {
	mu      sync.Mutex
	Clients int
	Chats   []*domain.ChatMessage
	Acks    int
	// Events records the order of calls: "chat" or "ack".
	Events []string
}

func (b *RecordingBroadcaster) BroadcastChat(msg *domain.ChatMessage) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Chats = append(b.Chats, msg)
	b.Events = append(b.Events, "chat")
	return b.Clients
}

func (b *RecordingBroadcaster) BroadcastAck() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Acks++
	b.Events = append(b.Events, "ack")
	return b.Clients
}

func (b *RecordingBroadcaster) EventLog() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.Events...)
}
