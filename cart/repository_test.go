package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gofalre.io/storefront/models"
)

func newTestRepository(t *testing.T, handler http.HandlerFunc) Repository {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewRepository(server.URL, server.Client(), zap.NewNop())
}

func TestGetCartNormalizesMixedShapes(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/cart", r.URL.Path)
		w.Write([]byte(`{
			"currency": "usd",
			"items": [
				{"productId": "p1", "quantity": 2, "price": 10, "imageUrl": "a"},
				{"quantity": 1, "product": {"_id": "p2", "title": "Lamp", "image": "b"}},
				{"quantity": 4}
			]
		}`))
	})

	snapshot, err := repo.GetCart(context.Background())
	require.NoError(t, err)

	// The id-less record is dropped; the rest are canonical.
	require.Len(t, snapshot.Items, 2)
	assert.Equal(t, "p1", snapshot.Items[0].ProductID)
	assert.Equal(t, 10.0, *snapshot.Items[0].Price)
	assert.Equal(t, "p2", snapshot.Items[1].ProductID)
	assert.Equal(t, "Lamp", snapshot.Items[1].Name)
	assert.Equal(t, "b", snapshot.Items[1].ImageURL)
	assert.Equal(t, "usd", string(snapshot.Currency))
	assert.Equal(t, uint64(3), snapshot.ItemCount())
}

func TestGetCartAcceptsDataEnvelope(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"items":[{"productId":"p1","quantity":1}]}}`))
	})

	snapshot, err := repo.GetCart(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, "p1", snapshot.Items[0].ProductID)
}

func TestGetCartNormalizesMalformedItemsToEmpty(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing items", `{"currency":"usd"}`},
		{"items not an array", `{"items":"garbage"}`},
		{"null items", `{"items":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			snapshot, err := repo.GetCart(context.Background())
			require.NoError(t, err)
			assert.Empty(t, snapshot.Items)
			assert.Zero(t, snapshot.ItemCount())
		})
	}
}

func TestGetCartMapsUnauthorized(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := repo.GetCart(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAddItemSendsWirePayload(t *testing.T) {
	var got map[string]any
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/cart", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	})

	require.NoError(t, repo.AddItem(context.Background(), "p1", 3))
	assert.Equal(t, "p1", got["productId"])
	assert.Equal(t, 3.0, got["quantity"])
}

func TestReplaceItemsSendsFullCollection(t *testing.T) {
	var got struct {
		Items []map[string]any `json:"items"`
	}
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	})

	price := 4.5
	err := repo.ReplaceItems(context.Background(), []models.CartLineItem{
		{ProductID: "p1", Quantity: 2, Price: &price},
		{ProductID: "p2", Quantity: 1},
	})
	require.NoError(t, err)

	require.Len(t, got.Items, 2)
	assert.Equal(t, "p1", got.Items[0]["productId"])
	assert.Equal(t, 4.5, got.Items[0]["price"])
	assert.Equal(t, "p2", got.Items[1]["productId"])
}

func TestRemoveItemTargetsProductPath(t *testing.T) {
	var gotPath string
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		gotPath = r.URL.Path
	})

	require.NoError(t, repo.RemoveItem(context.Background(), "p1"))
	assert.Equal(t, "/cart/p1", gotPath)
}

func TestClearTargetsCartRoot(t *testing.T) {
	var gotPath string
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		gotPath = r.URL.Path
	})

	require.NoError(t, repo.Clear(context.Background()))
	assert.Equal(t, "/cart", gotPath)
}

func TestServerErrorCarriesBackendMessage(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"quantity exceeds stock"}`))
	})

	err := repo.AddItem(context.Background(), "p1", 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quantity exceeds stock")
}
