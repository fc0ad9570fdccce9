package cart

import (
	"testing"

	"github.com/example/ec-pickup-shop/internal/domain/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalogItem(id string, price int, locations ...string) catalog.Item {
	return catalog.Item{
		ID:        id,
		Name:      "Item " + id,
		ImageURL:  "https://img.example.com/" + id + ".jpg",
		Price:     price,
		Sizes:     []string{"S", "M", "L"},
		Locations: locations,
	}
}

// ============================================
// AddOrIncrement Tests
// ============================================

func TestAddOrIncrement_NewLine(t *testing.T) {
	item := testCatalogItem("p1", 100000, "Jakarta", "Surabaya")

	items, err := AddOrIncrement(nil, item, "M")

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, LineItem{
		ProductID: "p1",
		Name:      "Item p1",
		ImageURL:  "https://img.example.com/p1.jpg",
		Size:      "M",
		Price:     100000,
		Quantity:  1,
		Locations: []string{"Jakarta", "Surabaya"},
	}, items[0])
}

func TestAddOrIncrement_ExistingLineKeepsSize(t *testing.T) {
	item := testCatalogItem("p1", 100000)
	items, err := AddOrIncrement(nil, item, "M")
	require.NoError(t, err)

	items, err = AddOrIncrement(items, item, "L")

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "M", items[0].Size)
}

func TestAddOrIncrement_AppendsAfterExisting(t *testing.T) {
	items, _ := AddOrIncrement(nil, testCatalogItem("p2", 1), "S")

	items, err := AddOrIncrement(items, testCatalogItem("p1", 1), "S")

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "p2", items[0].ProductID)
	assert.Equal(t, "p1", items[1].ProductID)
}

func TestAddOrIncrement_PriceIsSnapshot(t *testing.T) {
	item := testCatalogItem("p1", 100000, "Jakarta")
	items, _ := AddOrIncrement(nil, item, "S")

	item.Price = 999
	item.Locations[0] = "Bandung"

	assert.Equal(t, 100000, items[0].Price)
	assert.Equal(t, []string{"Jakarta"}, items[0].Locations)
}

func TestAddOrIncrement_DoesNotModifyInput(t *testing.T) {
	original := []LineItem{{ProductID: "p1", Price: 10, Quantity: 1}}

	_, err := AddOrIncrement(original, testCatalogItem("p1", 10), "S")

	require.NoError(t, err)
	assert.Equal(t, 1, original[0].Quantity)
}

func TestAddOrIncrement_SizeRequired(t *testing.T) {
	tests := []struct {
		name string
		size string
	}{
		{"no size", ""},
		{"unknown size", "XXL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := AddOrIncrement(nil, testCatalogItem("p1", 10), tt.size)
			assert.ErrorIs(t, err, catalog.ErrNotSelected)
			assert.Nil(t, items)
		})
	}
}

func TestAddOrIncrement_ProductRequired(t *testing.T) {
	_, err := AddOrIncrement(nil, catalog.Item{Sizes: []string{"S"}}, "S")

	assert.ErrorIs(t, err, ErrInvalidProduct)
}

// ============================================
// ChangeQuantity Tests
// ============================================

func TestChangeQuantity_Increase(t *testing.T) {
	for q := 1; q <= 20; q++ {
		item := LineItem{ProductID: "p1", Quantity: q}
		assert.Equal(t, q+1, ChangeQuantity(item, Increase).Quantity)
	}
}

func TestChangeQuantity_Decrease(t *testing.T) {
	for q := 1; q <= 20; q++ {
		item := LineItem{ProductID: "p1", Quantity: q}
		assert.Equal(t, max(1, q-1), ChangeQuantity(item, Decrease).Quantity)
	}
}

func TestChangeQuantity_UnknownDirectionIsIdentity(t *testing.T) {
	item := LineItem{ProductID: "p1", Name: "Kebaya", Size: "M", Price: 5, Quantity: 3, Locations: []string{"Jakarta"}}

	for _, direction := range []Direction{"", "INCREASE", "remove", "up", "decrease "} {
		t.Run(string(direction), func(t *testing.T) {
			assert.Equal(t, item, ChangeQuantity(item, direction))
		})
	}
}

// ============================================
// Total / Remove Tests
// ============================================

func TestTotal(t *testing.T) {
	tests := []struct {
		name  string
		items []LineItem
		want  int
	}{
		{"empty", nil, 0},
		{"single", []LineItem{{Price: 100, Quantity: 3}}, 300},
		{
			name: "mixed cart",
			items: []LineItem{
				{ProductID: "a", Price: 100000, Quantity: 2},
				{ProductID: "b", Price: 150000, Quantity: 1},
			},
			want: 350000,
		},
		{"free item", []LineItem{{Price: 0, Quantity: 5}, {Price: 7, Quantity: 1}}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Total(tt.items))
		})
	}
}

func TestRemove(t *testing.T) {
	items := []LineItem{{ProductID: "a"}, {ProductID: "b"}, {ProductID: "c"}}

	assert.Equal(t, []LineItem{{ProductID: "a"}, {ProductID: "c"}}, Remove(items, "b"))
	assert.Len(t, Remove(items, "missing"), 3)
	assert.Len(t, items, 3)
}

func TestClone_IsDeep(t *testing.T) {
	items := []LineItem{{ProductID: "a", Locations: []string{"Jakarta"}}}

	cloned := Clone(items)
	cloned[0].Locations[0] = "Bandung"
	cloned[0].Quantity = 9

	assert.Equal(t, "Jakarta", items[0].Locations[0])
	assert.Equal(t, 0, items[0].Quantity)
}
