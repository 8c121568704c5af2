package domain

import (
	"time"

	"github.com/google/uuid"
)

// Cart is the persisted aggregate. Items hold product ids only; product data
// is joined in on read (see MaterializedCart).
type Cart struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	OwnerID   string     `json:"ownerId" gorm:"not null;index"`
	Items     []CartItem `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type CartItem struct {
	CartID    uuid.UUID `json:"cartId" gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID `json:"productId" gorm:"type:uuid;primaryKey"`
	Quantity  int       `json:"quantity" gorm:"not null;check:quantity >= 1"`
	Position  int64     `json:"position" gorm:"not null"` // insertion order within the cart
	AddedAt   time.Time `json:"addedAt"`
}

// ProductIDs returns the referenced product ids in insertion order.
func (c *Cart) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

type MaterializedItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
	Subtotal float64 `json:"subtotal"`
}

// MaterializedCart is a detached read view. Nothing written to it reaches
// storage.
type MaterializedCart struct {
	ID      uuid.UUID          `json:"id"`
	OwnerID string             `json:"ownerId"`
	Items   []MaterializedItem `json:"items"`
	Total   float64            `json:"total"`
}

// Materialize joins the cart's items with the resolved products. Items whose
// product is missing from the map are left out; order is preserved.
func Materialize(cart *Cart, products map[uuid.UUID]*Product) *MaterializedCart {
	view := &MaterializedCart{
		ID:      cart.ID,
		OwnerID: cart.OwnerID,
		Items:   make([]MaterializedItem, 0, len(cart.Items)),
	}
	for _, item := range cart.Items {
		p, ok := products[item.ProductID]
		if !ok {
			continue
		}
		subtotal := p.Price * float64(item.Quantity)
		view.Items = append(view.Items, MaterializedItem{
			Product:  *p,
			Quantity: item.Quantity,
			Subtotal: subtotal,
		})
		view.Total += subtotal
	}
	return view
}
