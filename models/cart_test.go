package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 {
	return &v
}

func TestNormalizeFlatShape(t *testing.T) {
	raw := RawCartItem{ProductID: "p1", Quantity: 2, Name: "Mug", Price: f64(4), ImageURL: "https://img/p1.png"}

	item, ok := raw.Normalize()
	require.True(t, ok)
	assert.Equal(t, "p1", item.ProductID)
	assert.Equal(t, uint64(2), item.Quantity)
	assert.Equal(t, "Mug", item.Name)
	assert.Equal(t, 4.0, *item.Price)
	assert.Equal(t, "https://img/p1.png", item.ImageURL)
}

func TestNormalizeEmbeddedProductShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  RawCartItem
		want string
	}{
		{
			name: "mongo id",
			raw:  RawCartItem{Quantity: 1, Product: &RawProduct{MongoID: "p-mongo"}},
			want: "p-mongo",
		},
		{
			name: "plain id",
			raw:  RawCartItem{Quantity: 1, Product: &RawProduct{ID: "p-plain"}},
			want: "p-plain",
		},
		{
			name: "flat id wins over embedded",
			raw:  RawCartItem{ProductID: "p-flat", Quantity: 1, Product: &RawProduct{MongoID: "p-mongo"}},
			want: "p-flat",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, ok := tt.raw.Normalize()
			require.True(t, ok)
			assert.Equal(t, tt.want, item.ProductID)
		})
	}
}

func TestNormalizeImageLocations(t *testing.T) {
	tests := []struct {
		name string
		raw  RawCartItem
		want string
	}{
		{"flat imageUrl", RawCartItem{ProductID: "p", ImageURL: "a"}, "a"},
		{"flat image", RawCartItem{ProductID: "p", Image: "b"}, "b"},
		{"product imageUrl", RawCartItem{ProductID: "p", Product: &RawProduct{ImageURL: "c"}}, "c"},
		{"product image", RawCartItem{ProductID: "p", Product: &RawProduct{Image: "d"}}, "d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, ok := tt.raw.Normalize()
			require.True(t, ok)
			assert.Equal(t, tt.want, item.ImageURL)
		})
	}
}

func TestNormalizeFallsBackToProductFields(t *testing.T) {
	raw := RawCartItem{
		Quantity: 3,
		Product:  &RawProduct{MongoID: "p1", Title: "Fancy Lamp", Price: f64(25)},
	}

	item, ok := raw.Normalize()
	require.True(t, ok)
	assert.Equal(t, "Fancy Lamp", item.Name)
	assert.Equal(t, 25.0, *item.Price)
}

func TestNormalizeWithoutProductIDFails(t *testing.T) {
	raw := RawCartItem{Quantity: 2, Name: "orphan"}

	_, ok := raw.Normalize()
	assert.False(t, ok)
}

func TestMergeDoesNotOverwriteExistingFields(t *testing.T) {
	item := CartLineItem{ProductID: "p1", Quantity: 1, Name: "Server Name", Price: f64(10)}
	item.Merge(&Product{ID: "p1", Name: "Catalog Name", Price: 99, ImageURL: "img"})

	assert.Equal(t, "Server Name", item.Name)
	assert.Equal(t, 10.0, *item.Price)
	assert.Equal(t, "img", item.ImageURL)
}

func TestMergeNilProductIsNoop(t *testing.T) {
	item := CartLineItem{ProductID: "p1", Quantity: 1}
	item.Merge(nil)
	assert.Empty(t, item.Name)
	assert.Nil(t, item.Price)
}

func TestNeedsHydration(t *testing.T) {
	assert.True(t, (&CartLineItem{ProductID: "p1"}).NeedsHydration())
	assert.False(t, (&CartLineItem{ProductID: "p1", ImageURL: "x"}).NeedsHydration())
	assert.False(t, (&CartLineItem{}).NeedsHydration())
}

func TestSnapshotDerivedValues(t *testing.T) {
	snapshot := &CartSnapshot{Items: []CartLineItem{
		{ProductID: "p1", Quantity: 2, Price: f64(10)},
		{ProductID: "p2", Quantity: 3},
		{ProductID: "p3", Quantity: 1, Price: f64(0.5)},
	}}

	assert.Equal(t, uint64(6), snapshot.ItemCount())
	assert.Equal(t, 20.5, snapshot.Subtotal())
}

func TestNilSnapshotIsEmpty(t *testing.T) {
	var snapshot *CartSnapshot
	assert.Zero(t, snapshot.ItemCount())
	assert.Zero(t, snapshot.Subtotal())
	assert.Nil(t, snapshot.Clone())
}

func TestCloneIsIndependent(t *testing.T) {
	snapshot := &CartSnapshot{Items: []CartLineItem{{ProductID: "p1", Quantity: 1}}}

	dup := snapshot.Clone()
	dup.Items[0].Quantity = 42

	assert.Equal(t, uint64(1), snapshot.Items[0].Quantity)
}
