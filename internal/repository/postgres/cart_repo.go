package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dom/storefront/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *cartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) Create(ctx context.Context, cart *domain.Cart) error {
	return translateError(r.db.WithContext(ctx).Omit("Items").Create(cart).Error)
}

func (r *cartRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&cart, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &cart, nil
}

func (r *cartRepository) GetByOwner(ctx context.Context, ownerID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		First(&cart).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &cart, nil
}

func (r *cartRepository) AddItem(ctx context.Context, cartID uuid.UUID, ownerID string, productID uuid.UUID, qty int) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Omit("Items").
			Create(&domain.Cart{ID: cartID, OwnerID: ownerID, CreatedAt: now, UpdatedAt: now}).Error; err != nil {
			return err
		}

		cart, err := lockCart(tx, cartID, ownerID)
		if err != nil {
			return err
		}

		var next int64
		if err := tx.Model(&domain.CartItem{}).
			Where("cart_id = ?", cart.ID).
			Select("COALESCE(MAX(position), 0) + 1").
			Scan(&next).Error; err != nil {
			return err
		}

		item := &domain.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  qty,
			Position:  next,
			AddedAt:   now,
		}
		err = tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity": gorm.Expr("cart_items.quantity + EXCLUDED.quantity"),
			}),
		}).Create(item).Error
		if err != nil {
			return err
		}

		return touchCart(tx, cart.ID, now)
	})
	return translateError(err)
}

func (r *cartRepository) SetItemQuantity(ctx context.Context, cartID, productID uuid.UUID, qty int) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockCart(tx, cartID, ""); err != nil {
			return err
		}
		result := tx.Model(&domain.CartItem{}).
			Where("cart_id = ? AND product_id = ?", cartID, productID).
			Update("quantity", qty)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return touchCart(tx, cartID, time.Now())
	})
	return translateError(err)
}

func (r *cartRepository) RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockCart(tx, cartID, ""); err != nil {
			return err
		}
		if err := tx.Delete(&domain.CartItem{}, "cart_id = ? AND product_id = ?", cartID, productID).Error; err != nil {
			return err
		}
		return touchCart(tx, cartID, time.Now())
	})
	return translateError(err)
}

func (r *cartRepository) Clear(ctx context.Context, cartID uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockCart(tx, cartID, ""); err != nil {
			return err
		}
		if err := tx.Delete(&domain.CartItem{}, "cart_id = ?", cartID).Error; err != nil {
			return err
		}
		return touchCart(tx, cartID, time.Now())
	})
	return translateError(err)
}

// lockCart takes a row lock on the cart for the rest of the transaction.
// A non-empty ownerID must match the stored owner.
func lockCart(tx *gorm.DB, cartID uuid.UUID, ownerID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&cart, "id = ?", cartID).Error
	if err != nil {
		return nil, err
	}
	if ownerID != "" && cart.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: %w", domain.ErrForbidden, domain.ErrNotCartOwner)
	}
	return &cart, nil
}

func touchCart(tx *gorm.DB, cartID uuid.UUID, now time.Time) error {
	return tx.Model(&domain.Cart{}).Where("id = ?", cartID).Update("updated_at", now).Error
}
