package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dom/storefront/internal/domain"
	"github.com/dom/storefront/internal/service"
	"github.com/dom/storefront/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogService(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewMemoryProductRepo()
	svc := service.NewCatalogService(repo)

	t.Run("CreateDefaults", func(t *testing.T) {
		p, err := svc.Create(ctx, service.ProductInput{
			Name:     " Mug ",
			Code:     "MUG-1",
			Price:    12.5,
			Category: "kitchen",
		})
		require.NoError(t, err)
		assert.Equal(t, "Mug", p.Name)
		assert.True(t, p.Status)

		var thumbs []string
		require.NoError(t, json.Unmarshal(p.Thumbnails, &thumbs))
		assert.Empty(t, thumbs)
	})

	t.Run("CreateValidation", func(t *testing.T) {
		inputs := []service.ProductInput{
			{Code: "X"},
			{Name: "X"},
			{Name: "X", Code: "X", Price: -1},
			{Name: "X", Code: "X", Stock: -1},
		}
		for _, in := range inputs {
			_, err := svc.Create(ctx, in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		}
	})

	t.Run("UpdateAndDelete", func(t *testing.T) {
		p, err := svc.Create(ctx, service.ProductInput{Name: "Pan", Code: "PAN-1", Price: 20})
		require.NoError(t, err)

		inactive := false
		updated, err := svc.Update(ctx, p.ID, service.ProductInput{
			Name:       "Pan",
			Code:       "PAN-1",
			Price:      25,
			Status:     &inactive,
			Thumbnails: []string{"pan.png"},
		})
		require.NoError(t, err)
		assert.Equal(t, 25.0, updated.Price)
		assert.False(t, updated.Status)

		_, err = svc.Update(ctx, uuid.New(), service.ProductInput{Name: "a", Code: "b"})
		assert.ErrorIs(t, err, domain.ErrNotFound)

		require.NoError(t, svc.Delete(ctx, p.ID))
		_, err = svc.Get(ctx, p.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ListPaging", func(t *testing.T) {
		local := service.NewCatalogService(testutil.NewMemoryProductRepo())
		for i := 1; i <= 5; i++ {
			_, err := local.Create(ctx, service.ProductInput{
				Name:     "Item",
				Code:     uuid.NewString(),
				Price:    float64(i),
				Category: "toys",
			})
			require.NoError(t, err)
		}

		page, err := local.List(ctx, "toys", domain.ProductSortPriceDesc, 2, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(5), page.Total)
		assert.Equal(t, 3, page.TotalPages)
		require.Len(t, page.Products, 2)
		assert.Equal(t, 3.0, page.Products[0].Price)
		assert.Equal(t, 2.0, page.Products[1].Price)

		page, err = local.List(ctx, "", domain.ProductSortNone, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 10, page.Limit)

		_, err = local.List(ctx, "", domain.ProductSort("sideways"), 1, 10)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}
