package handlers_test

import (
	"net/http"
	"testing"

	"github.com/dom/storefront/internal/api/handlers"
	"github.com/dom/storefront/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductHandler(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ts := testutil.NewTestServer(t)

	t.Run("AdminLifecycle", func(t *testing.T) {
		ts.DB.Truncate(t)
		_, admin := testutil.NewUserBuilder().AsAdmin().BuildAndLogin(t, ts)

		resp := postJSON(t, admin, ts.APIURL("/products"), map[string]interface{}{
			"name":       "Kettle",
			"code":       "KET-1",
			"price":      35.5,
			"stock":      3,
			"category":   "kitchen",
			"thumbnails": []string{"kettle.png"},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var created handlers.ProductResponse
		testutil.AssertJSONResponse(t, resp, &created)
		resp.Body.Close()
		assert.Equal(t, []string{"kettle.png"}, created.Thumbnails)
		assert.True(t, created.Status)

		resp = do(t, admin, http.MethodPut, ts.APIURL("/products/"+created.ID), map[string]interface{}{
			"name":  "Kettle",
			"code":  "KET-1",
			"price": 30,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var updated handlers.ProductResponse
		testutil.AssertJSONResponse(t, resp, &updated)
		resp.Body.Close()
		assert.Equal(t, 30.0, updated.Price)

		resp, err := http.Get(ts.APIURL("/products/" + created.ID))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp = do(t, admin, http.MethodDelete, ts.APIURL("/products/"+created.ID), nil)
		resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, err = http.Get(ts.APIURL("/products/" + created.ID))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("ListFilterSortPage", func(t *testing.T) {
		ts.DB.Truncate(t)
		for _, price := range []float64{5, 1, 3} {
			testutil.NewProductBuilder().WithCategory("toys").WithPrice(price).Build(t, ts.DB.DB)
		}
		testutil.NewProductBuilder().WithCategory("books").WithPrice(2).Build(t, ts.DB.DB)

		resp, err := http.Get(ts.APIURL("/products?category=toys&sort=asc&limit=2&page=1"))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page handlers.ProductsResponse
		testutil.AssertJSONResponse(t, resp, &page)
		assert.Equal(t, int64(3), page.Total)
		assert.Equal(t, 2, page.TotalPages)
		require.Len(t, page.Products, 2)
		assert.Equal(t, 1.0, page.Products[0].Price)
		assert.Equal(t, 3.0, page.Products[1].Price)

		bad, err := http.Get(ts.APIURL("/products?sort=sideways"))
		require.NoError(t, err)
		bad.Body.Close()
		assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
	})

	t.Run("Authorization", func(t *testing.T) {
		ts.DB.Truncate(t)
		_, user := testutil.NewUserBuilder().BuildAndLogin(t, ts)
		body := map[string]interface{}{"name": "X", "code": "X-1", "price": 1}

		resp := postJSON(t, testutil.NewHTTPClient(t), ts.APIURL("/products"), body)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		resp = postJSON(t, user, ts.APIURL("/products"), body)
		resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = do(t, user, http.MethodDelete, ts.APIURL("/products/"+uuid.NewString()), nil)
		resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("CreateInactive", func(t *testing.T) {
		ts.DB.Truncate(t)
		_, admin := testutil.NewUserBuilder().AsAdmin().BuildAndLogin(t, ts)

		resp := postJSON(t, admin, ts.APIURL("/products"), map[string]interface{}{
			"name":   "Retired lamp",
			"code":   "LAMP-0",
			"price":  12,
			"status": false,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var created handlers.ProductResponse
		testutil.AssertJSONResponse(t, resp, &created)
		resp.Body.Close()
		assert.False(t, created.Status)

		resp, err := http.Get(ts.APIURL("/products/" + created.ID))
		require.NoError(t, err)
		var fetched handlers.ProductResponse
		testutil.AssertJSONResponse(t, resp, &fetched)
		resp.Body.Close()
		assert.False(t, fetched.Status)
	})

	t.Run("DuplicateCode", func(t *testing.T) {
		ts.DB.Truncate(t)
		_, admin := testutil.NewUserBuilder().AsAdmin().BuildAndLogin(t, ts)
		body := map[string]interface{}{"name": "X", "code": "DUP-1", "price": 1}

		resp := postJSON(t, admin, ts.APIURL("/products"), body)
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		resp = postJSON(t, admin, ts.APIURL("/products"), body)
		resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}
