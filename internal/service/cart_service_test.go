package service_test

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/dom/storefront/internal/domain"
	"github.com/dom/storefront/internal/service"
	"github.com/dom/storefront/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cartFixture struct {
	svc      *service.CartService
	carts    *testutil.MemoryCartRepo
	products *testutil.MemoryProductRepo
}

func newCartFixture() *cartFixture {
	carts := testutil.NewMemoryCartRepo()
	products := testutil.NewMemoryProductRepo()
	return &cartFixture{
		svc:      service.NewCartService(carts, products),
		carts:    carts,
		products: products,
	}
}

func (f *cartFixture) product(t *testing.T, price float64) *domain.Product {
	t.Helper()
	p := testutil.NewProductBuilder().WithPrice(price).New()
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

func TestCartService_GetCart(t *testing.T) {
	ctx := context.Background()

	t.Run("ResolvesProductsInOneBatchInOrder", func(t *testing.T) {
		f := newCartFixture()
		a, b, c := f.product(t, 1), f.product(t, 2), f.product(t, 3)
		cartID := uuid.New()
		for _, p := range []*domain.Product{c, a, b} {
			require.NoError(t, f.svc.AddItem(ctx, cartID, "owner", p.ID, 1))
		}

		before := f.products.BatchCalls
		cart, err := f.svc.GetCart(ctx, cartID)
		require.NoError(t, err)
		assert.Equal(t, 1, f.products.BatchCalls-before)

		require.Len(t, cart.Items, 3)
		assert.Equal(t, c.ID, cart.Items[0].Product.ID)
		assert.Equal(t, a.ID, cart.Items[1].Product.ID)
		assert.Equal(t, b.ID, cart.Items[2].Product.ID)
		assert.Equal(t, 6.0, cart.Total)
	})

	t.Run("DropsDeletedProducts", func(t *testing.T) {
		f := newCartFixture()
		keep, gone := f.product(t, 5), f.product(t, 7)
		cartID := uuid.New()
		require.NoError(t, f.svc.AddItem(ctx, cartID, "owner", gone.ID, 2))
		require.NoError(t, f.svc.AddItem(ctx, cartID, "owner", keep.ID, 3))

		require.NoError(t, f.products.Delete(ctx, gone.ID))

		cart, err := f.svc.GetCart(ctx, cartID)
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, keep.ID, cart.Items[0].Product.ID)
		assert.Equal(t, 3, cart.Items[0].Quantity)
		assert.Equal(t, 15.0, cart.Total)

		// The stored reference is untouched
		stored, err := f.carts.GetByID(ctx, cartID)
		require.NoError(t, err)
		assert.Len(t, stored.Items, 2)
	})

	t.Run("EmptyCart", func(t *testing.T) {
		f := newCartFixture()
		cartID, err := f.svc.CartForOwner(ctx, "owner")
		require.NoError(t, err)

		cart, err := f.svc.GetCart(ctx, cartID)
		require.NoError(t, err)
		assert.Empty(t, cart.Items)
		assert.Zero(t, cart.Total)
	})

	t.Run("MissingCart", func(t *testing.T) {
		f := newCartFixture()
		_, err := f.svc.GetCart(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ViewIsDetached", func(t *testing.T) {
		f := newCartFixture()
		p := f.product(t, 4)
		cartID := uuid.New()
		require.NoError(t, f.svc.AddItem(ctx, cartID, "owner", p.ID, 1))

		view, err := f.svc.GetCart(ctx, cartID)
		require.NoError(t, err)
		view.Items[0].Quantity = 99
		view.Items[0].Product.Price = 0

		again, err := f.svc.GetCart(ctx, cartID)
		require.NoError(t, err)
		assert.Equal(t, 1, again.Items[0].Quantity)
		assert.Equal(t, 4.0, again.Items[0].Product.Price)
	})
}

func TestCartService_AddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("IncrementsExistingLine", func(t *testing.T) {
		f := newCartFixture()
		p := f.product(t, 1)
		cartID := uuid.New()

		require.NoError(t, f.svc.AddItem(ctx, cartID, "owner", p.ID, 2))
		require.NoError(t, f.svc.AddItem(ctx, cartID, "owner", p.ID, 3))

		cart, err := f.svc.GetCart(ctx, cartID)
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, 5, cart.Items[0].Quantity)
	})

	t.Run("InvalidQuantity", func(t *testing.T) {
		f := newCartFixture()
		p := f.product(t, 1)

		for _, qty := range []int{0, -1, service.MaxItemQuantity + 1, math.MaxInt64} {
			err := f.svc.AddItem(ctx, uuid.New(), "owner", p.ID, qty)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
		}
		assert.Zero(t, f.carts.Len())
	})

	t.Run("MaxQuantityAccepted", func(t *testing.T) {
		f := newCartFixture()
		p := f.product(t, 1)
		cartID := uuid.New()

		require.NoError(t, f.svc.AddItem(ctx, cartID, "owner", p.ID, service.MaxItemQuantity))
		require.NoError(t, f.svc.AddItem(ctx, cartID, "owner", p.ID, service.MaxItemQuantity))

		cart, err := f.svc.GetCart(ctx, cartID)
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, 2*service.MaxItemQuantity, cart.Items[0].Quantity)
	})

	t.Run("UnknownProduct", func(t *testing.T) {
		f := newCartFixture()
		cartID := uuid.New()
		err := f.svc.AddItem(ctx, cartID, "owner", uuid.New(), 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = f.carts.GetByID(ctx, cartID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("MissingOwner", func(t *testing.T) {
		f := newCartFixture()
		p := f.product(t, 1)
		err := f.svc.AddItem(ctx, uuid.New(), "  ", p.ID, 1)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("OtherOwnerForbidden", func(t *testing.T) {
		f := newCartFixture()
		p := f.product(t, 1)
		cartID := uuid.New()
		require.NoError(t, f.svc.AddItem(ctx, cartID, "alice", p.ID, 1))

		err := f.svc.AddItem(ctx, cartID, "bob", p.ID, 1)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("ConcurrentAddsAreNotLost", func(t *testing.T) {
		f := newCartFixture()
		p := f.product(t, 1)
		cartID := uuid.New()

		const workers = 50
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, f.svc.AddItem(ctx, cartID, "owner", p.ID, 1))
			}()
		}
		wg.Wait()

		cart, err := f.svc.GetCart(ctx, cartID)
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, workers, cart.Items[0].Quantity)
	})
}

func TestCartService_UpdateRemoveClear(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture()
	a, b := f.product(t, 2), f.product(t, 3)
	cartID := uuid.New()
	require.NoError(t, f.svc.AddItem(ctx, cartID, "owner", a.ID, 1))
	require.NoError(t, f.svc.AddItem(ctx, cartID, "owner", b.ID, 1))

	require.NoError(t, f.svc.UpdateItem(ctx, cartID, "owner", a.ID, 4))
	cart, err := f.svc.GetCart(ctx, cartID)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[0].Quantity)
	assert.Equal(t, 11.0, cart.Total)

	err = f.svc.UpdateItem(ctx, cartID, "owner", a.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	err = f.svc.UpdateItem(ctx, cartID, "owner", uuid.New(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = f.svc.UpdateItem(ctx, cartID, "intruder", a.ID, 1)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, f.svc.RemoveItem(ctx, cartID, "owner", a.ID))
	require.NoError(t, f.svc.RemoveItem(ctx, cartID, "owner", a.ID))
	require.NoError(t, f.svc.RemoveItem(ctx, uuid.New(), "owner", a.ID))

	cart, err = f.svc.GetCart(ctx, cartID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, b.ID, cart.Items[0].Product.ID)

	assert.ErrorIs(t, f.svc.Clear(ctx, cartID, "intruder"), domain.ErrForbidden)
	require.NoError(t, f.svc.Clear(ctx, cartID, "owner"))

	cart, err = f.svc.GetCart(ctx, cartID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartService_CartForOwner(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture()

	const callers = 20
	ids := make([]uuid.UUID, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := f.svc.CartForOwner(ctx, "owner")
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	other, err := f.svc.CartForOwner(ctx, "someone-else")
	require.NoError(t, err)
	assert.NotEqual(t, ids[0], other)

	_, err = f.svc.CartForOwner(ctx, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
