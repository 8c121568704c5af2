package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterialize(t *testing.T) {
	a := &Product{ID: uuid.New(), Name: "a", Price: 2}
	b := &Product{ID: uuid.New(), Name: "b", Price: 5}
	missing := uuid.New()

	cart := &Cart{
		ID:      uuid.New(),
		OwnerID: "owner",
		Items: []CartItem{
			{ProductID: b.ID, Quantity: 1, Position: 1},
			{ProductID: missing, Quantity: 4, Position: 2},
			{ProductID: a.ID, Quantity: 3, Position: 3},
		},
	}

	view := Materialize(cart, map[uuid.UUID]*Product{a.ID: a, b.ID: b})

	assert.Equal(t, cart.ID, view.ID)
	assert.Equal(t, "owner", view.OwnerID)
	require.Len(t, view.Items, 2)
	assert.Equal(t, "b", view.Items[0].Product.Name)
	assert.Equal(t, 5.0, view.Items[0].Subtotal)
	assert.Equal(t, "a", view.Items[1].Product.Name)
	assert.Equal(t, 6.0, view.Items[1].Subtotal)
	assert.Equal(t, 11.0, view.Total)

	// The view holds copies
	view.Items[0].Product.Price = 0
	assert.Equal(t, 5.0, b.Price)
}

func TestMaterialize_Empty(t *testing.T) {
	view := Materialize(&Cart{ID: uuid.New()}, nil)
	assert.NotNil(t, view.Items)
	assert.Empty(t, view.Items)
	assert.Zero(t, view.Total)
}

func TestSession_Expired(t *testing.T) {
	s := &Session{ExpiresAt: mustTime(t, "2026-01-01T00:01:00Z")}
	assert.False(t, s.Expired(mustTime(t, "2026-01-01T00:00:59Z")))
	assert.True(t, s.Expired(mustTime(t, "2026-01-01T00:01:00Z")))
	assert.True(t, s.Expired(mustTime(t, "2026-01-01T00:02:00Z")))
}
