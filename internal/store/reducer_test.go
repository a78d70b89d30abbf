package store

import (
	"testing"
	"time"

	"admin-store/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func reduceOK(t *testing.T, s State, a Action) State {
	t.Helper()
	next, err := Reduce(s, a)
	require.NoError(t, err)
	return next
}

func findProduct(t *testing.T, s State, id string) models.Product {
	t.Helper()
	for _, p := range s.Products {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("product %s not found", id)
	return models.Product{}
}

func findInventory(t *testing.T, s State, productID string) models.InventoryItem {
	t.Helper()
	for _, i := range s.Inventory {
		if i.ProductID == productID {
			return i
		}
	}
	t.Fatalf("inventory for %s not found", productID)
	return models.InventoryItem{}
}

func TestCreateProductSynthesizesInventory(t *testing.T) {
	s := reduceOK(t, NewState(), Create(KindProducts, "p1", models.Product{
		Name: "Mug", SKU: "MUG-1", Stock: 12, Cost: 2.5, LowStockThreshold: 3,
	}, t0))

	require.Len(t, s.Inventory, 1)
	inv := s.Inventory[0]
	assert.Equal(t, InventoryIDFor("p1"), inv.ID)
	assert.Equal(t, 12, inv.CurrentStock)
	assert.Equal(t, 12, inv.AvailableStock)
	assert.Equal(t, 30.0, inv.Value)
	assert.Equal(t, 3, inv.LowStockThreshold)
	assert.Equal(t, t0, s.LastUpdated)

	empty := reduceOK(t, NewState(), Create(KindProducts, "p2", models.Product{Name: "Out", SKU: "OUT"}, t0))
	assert.Empty(t, empty.Inventory)
}

func TestStockMirroring(t *testing.T) {
	s := reduceOK(t, NewState(), Create(KindProducts, "p1", models.Product{SKU: "A", Stock: 10, Cost: 4}, t0))

	t.Run("product update reaches inventory", func(t *testing.T) {
		next := reduceOK(t, s, Update(KindProducts, "p1", map[string]any{"stock": 7}, t0.Add(time.Minute)))
		inv := findInventory(t, next, "p1")
		assert.Equal(t, 7, findProduct(t, next, "p1").Stock)
		assert.Equal(t, 7, inv.CurrentStock)
		assert.Equal(t, inv.CurrentStock-inv.ReservedStock, inv.AvailableStock)
		assert.Equal(t, 28.0, inv.Value)
		assert.Equal(t, t0.Add(time.Minute), inv.UpdatedAt)
	})

	t.Run("inventory update reaches product", func(t *testing.T) {
		next := reduceOK(t, s, Update(KindInventory, InventoryIDFor("p1"), map[string]any{
			"current_stock":  20,
			"reserved_stock": 5,
		}, t0.Add(time.Minute)))
		inv := findInventory(t, next, "p1")
		assert.Equal(t, 20, findProduct(t, next, "p1").Stock)
		assert.Equal(t, 20, inv.CurrentStock)
		assert.Equal(t, 15, inv.AvailableStock)
		assert.Equal(t, 80.0, inv.Value)
	})

	t.Run("negative stock is rejected", func(t *testing.T) {
		next, err := Reduce(s, Update(KindProducts, "p1", map[string]any{"stock": -1}, t0))
		assert.ErrorIs(t, err, ErrInvariant)
		assert.Equal(t, s, next)

		next, err = Reduce(s, Update(KindInventory, InventoryIDFor("p1"), map[string]any{"current_stock": -3}, t0))
		assert.ErrorIs(t, err, ErrInvariant)
		assert.Equal(t, s, next)
	})
}

func TestRatingRecompute(t *testing.T) {
	s := reduceOK(t, NewState(), Create(KindProducts, "p1", models.Product{SKU: "A"}, t0))

	ratings := []int{5, 4, 4, 2}
	for i, r := range ratings {
		s = reduceOK(t, s, Create(KindReviews, string(rune('a'+i)), models.Review{ProductID: "p1", Rating: r}, t0))
	}
	p := findProduct(t, s, "p1")
	assert.InDelta(t, 3.75, p.Rating, 1e-9)
	assert.Equal(t, 4, p.ReviewsCount)

	s = reduceOK(t, s, Update(KindReviews, "d", map[string]any{"rating": 5}, t0))
	assert.InDelta(t, 4.5, findProduct(t, s, "p1").Rating, 1e-9)

	for i := range ratings {
		s = reduceOK(t, s, Delete(KindReviews, string(rune('a'+i)), t0))
	}
	p = findProduct(t, s, "p1")
	assert.Equal(t, 0.0, p.Rating)
	assert.Equal(t, 0, p.ReviewsCount)
}

func TestProductPayloadCannotOverrideRating(t *testing.T) {
	t.Run("create without reviews", func(t *testing.T) {
		s := reduceOK(t, NewState(), Create(KindProducts, "p1", models.Product{SKU: "A", Rating: 4.7, ReviewsCount: 12}, t0))
		p := findProduct(t, s, "p1")
		assert.Equal(t, 0.0, p.Rating)
		assert.Equal(t, 0, p.ReviewsCount)
	})

	t.Run("update keeps the review mean", func(t *testing.T) {
		s := reduceOK(t, NewState(), Create(KindProducts, "p1", models.Product{SKU: "A"}, t0))
		s = reduceOK(t, s, Create(KindReviews, "r1", models.Review{ProductID: "p1", Rating: 4}, t0))

		s = reduceOK(t, s, Update(KindProducts, "p1", map[string]any{"rating": 1, "reviews_count": 9, "price": 3}, t0.Add(time.Minute)))
		p := findProduct(t, s, "p1")
		assert.Equal(t, 4.0, p.Rating)
		assert.Equal(t, 1, p.ReviewsCount)
		assert.Equal(t, 3.0, p.Price)
	})
}

func TestReviewMovedBetweenProducts(t *testing.T) {
	s := reduceOK(t, NewState(), Create(KindProducts, "p1", models.Product{SKU: "A"}, t0))
	s = reduceOK(t, s, Create(KindProducts, "p2", models.Product{SKU: "B"}, t0))
	s = reduceOK(t, s, Create(KindReviews, "r1", models.Review{ProductID: "p1", Rating: 3}, t0))

	s = reduceOK(t, s, Update(KindReviews, "r1", map[string]any{"product_id": "p2"}, t0))

	assert.Equal(t, 0, findProduct(t, s, "p1").ReviewsCount)
	assert.Equal(t, 1, findProduct(t, s, "p2").ReviewsCount)
	assert.Equal(t, 3.0, findProduct(t, s, "p2").Rating)
}

func TestReviewRatingOutOfRange(t *testing.T) {
	s := reduceOK(t, NewState(), Create(KindProducts, "p1", models.Product{SKU: "A"}, t0))
	next, err := Reduce(s, Create(KindReviews, "r1", models.Review{ProductID: "p1", Rating: 6}, t0))
	assert.ErrorIs(t, err, ErrInvariant)
	assert.Equal(t, s, next)
}

func TestDeleteProductCascades(t *testing.T) {
	s := reduceOK(t, NewState(), Create(KindProducts, "p1", models.Product{SKU: "A", Stock: 3}, t0))
	s = reduceOK(t, s, Create(KindProducts, "p2", models.Product{SKU: "B", Stock: 3}, t0))
	s = reduceOK(t, s, Create(KindReviews, "r1", models.Review{ProductID: "p1", Rating: 5}, t0))
	s = reduceOK(t, s, Create(KindReviews, "r2", models.Review{ProductID: "p2", Rating: 4}, t0))

	s = reduceOK(t, s, Delete(KindProducts, "p1", t0))

	for _, i := range s.Inventory {
		assert.NotEqual(t, "p1", i.ProductID)
	}
	for _, r := range s.Reviews {
		assert.NotEqual(t, "p1", r.ProductID)
	}
	assert.Len(t, s.Inventory, 1)
	assert.Len(t, s.Reviews, 1)
	assert.Len(t, s.Products, 1)
}

func TestDeleteCategoryReassignsProducts(t *testing.T) {
	s := reduceOK(t, NewState(), Create(KindCategories, "c1", models.Category{Name: "Kitchen"}, t0))
	s = reduceOK(t, s, Create(KindCategories, "c2", models.Category{Name: "Cups", ParentID: "c1"}, t0))
	s = reduceOK(t, s, Create(KindProducts, "p1", models.Product{SKU: "A", CategoryID: "c1", Category: "Kitchen"}, t0))
	s = reduceOK(t, s, Create(KindProducts, "p2", models.Product{SKU: "B", CategoryID: "c2", Category: "Cups"}, t0))

	s = reduceOK(t, s, Delete(KindCategories, "c1", t0))

	p1 := findProduct(t, s, "p1")
	assert.Equal(t, models.UncategorizedID, p1.CategoryID)
	assert.Equal(t, models.UncategorizedName, p1.Category)
	assert.Equal(t, "c2", findProduct(t, s, "p2").CategoryID)
	require.Len(t, s.Categories, 1)
	assert.Equal(t, "", s.Categories[0].ParentID)
}

func TestRenameCategoryUpdatesProducts(t *testing.T) {
	s := reduceOK(t, NewState(), Create(KindCategories, "c1", models.Category{Name: "Kitchen"}, t0))
	s = reduceOK(t, s, Create(KindProducts, "p1", models.Product{SKU: "A", CategoryID: "c1", Category: "Kitchen"}, t0))

	s = reduceOK(t, s, Update(KindCategories, "c1", map[string]any{"name": "Home"}, t0))
	assert.Equal(t, "Home", findProduct(t, s, "p1").Category)
}

func TestOrderCreateAccumulatesSales(t *testing.T) {
	s := reduceOK(t, NewState(), Create(KindProducts, "p1", models.Product{SKU: "A", Sales: 1}, t0))
	s = reduceOK(t, s, Create(KindProducts, "p2", models.Product{SKU: "B"}, t0))
	s = reduceOK(t, s, Create(KindProducts, "p3", models.Product{SKU: "C", Sales: 9}, t0))

	s = reduceOK(t, s, Create(KindOrders, "o1", models.Order{
		CustomerID: "cu1",
		Items: []models.OrderItem{
			{ProductID: "p1", Quantity: 2},
			{SKU: "b", Quantity: 5},
		},
	}, t0))

	assert.Equal(t, 3, findProduct(t, s, "p1").Sales)
	assert.Equal(t, 5, findProduct(t, s, "p2").Sales)
	assert.Equal(t, 9, findProduct(t, s, "p3").Sales)

	// updates do not count sales again
	s = reduceOK(t, s, Update(KindOrders, "o1", map[string]any{"status": models.OrderStatusShipped}, t0))
	assert.Equal(t, 3, findProduct(t, s, "p1").Sales)
}

func TestDeleteShippingZoneRemovesMethods(t *testing.T) {
	s := reduceOK(t, NewState(), Create(KindShippingZones, "z1", models.ShippingZone{Name: "EU"}, t0))
	s = reduceOK(t, s, Create(KindShippingZones, "z2", models.ShippingZone{Name: "US"}, t0))
	s = reduceOK(t, s, Create(KindShippingMethods, "m1", models.ShippingMethod{ZoneID: "z1", Name: "Std"}, t0))
	s = reduceOK(t, s, Create(KindShippingMethods, "m2", models.ShippingMethod{ZoneID: "z2", Name: "Std"}, t0))

	s = reduceOK(t, s, Delete(KindShippingZones, "z1", t0))

	require.Len(t, s.ShippingMethods, 1)
	assert.Equal(t, "m2", s.ShippingMethods[0].ID)
}

func TestSyncEntityIsIdempotent(t *testing.T) {
	payload := []models.Product{
		{Base: models.Base{ID: "p1", CreatedAt: t0, UpdatedAt: t0}, SKU: "A", Stock: 2},
		{Base: models.Base{ID: "p2", CreatedAt: t0, UpdatedAt: t0}, SKU: "B", Stock: 0},
	}

	once := reduceOK(t, NewState(), Sync(KindProducts, payload, t0))
	twice := reduceOK(t, once, Sync(KindProducts, payload, t0))

	assert.Equal(t, once.Products, twice.Products)
	assert.Len(t, twice.Products, 2)
}

func TestBulkUpdateAcceptsRawJSON(t *testing.T) {
	s := reduceOK(t, NewState(), BulkUpdate(KindInventory,
		`[{"id":"i1","product_id":"p1","current_stock":10,"reserved_stock":4,"cost":1.5}]`, t0))

	require.Len(t, s.Inventory, 1)
	assert.Equal(t, 6, s.Inventory[0].AvailableStock)
	assert.Equal(t, 15.0, s.Inventory[0].Value)
}

func TestUnknownActionLeavesStateUntouched(t *testing.T) {
	s := reduceOK(t, NewState(), Create(KindProducts, "p1", models.Product{SKU: "A", Stock: 1}, t0))

	cases := []Action{
		{Type: ActionCreate, Kind: "widgets", ID: "w1", Payload: map[string]any{}, At: t0},
		{Type: "EXPLODE", Kind: KindProducts, At: t0},
		{Type: ActionUpdate, Kind: KindProducts, ID: "missing", Payload: map[string]any{"stock": 1}, At: t0},
		{Type: ActionUpdate, Kind: KindProducts, ID: "p1", Payload: `{"stock":"many"}`, At: t0},
		{Type: ActionCreate, Kind: KindProducts, Payload: models.Product{SKU: "Z"}, At: t0},
		{Type: ActionDelete, Kind: KindProducts, ID: "", At: t0},
		{Type: ActionSetSyncStatus, SyncStatus: "exploded", At: t0},
	}
	for _, a := range cases {
		next, err := Reduce(s, a)
		assert.Error(t, err, "action %s/%s", a.Type, a.Kind)
		assert.Equal(t, s, next)
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := reduceOK(t, NewState(), Create(KindProducts, "p1", models.Product{SKU: "A", Stock: 5, Cost: 1}, t0))
	before := s.Products[0]

	_ = reduceOK(t, s, Update(KindProducts, "p1", map[string]any{"stock": 1}, t0.Add(time.Hour)))
	_ = reduceOK(t, s, Delete(KindProducts, "p1", t0.Add(time.Hour)))

	assert.Equal(t, before, s.Products[0])
	assert.Equal(t, 5, s.Inventory[0].CurrentStock)
}

func TestDuplicateSKUAndCouponCode(t *testing.T) {
	s := reduceOK(t, NewState(), Create(KindProducts, "p1", models.Product{SKU: "A"}, t0))
	_, err := Reduce(s, Create(KindProducts, "p2", models.Product{SKU: "a"}, t0))
	assert.ErrorIs(t, err, ErrConflict)

	s = reduceOK(t, s, Create(KindCoupons, "c1", models.Coupon{Code: "SAVE10", Type: models.CouponTypeFixed, Value: 10}, t0))
	_, err = Reduce(s, Create(KindCoupons, "c2", models.Coupon{Code: "save10", Type: models.CouponTypeFixed, Value: 5}, t0))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestClearAllResetsCollectionsAndSettings(t *testing.T) {
	s := reduceOK(t, NewState(), Create(KindProducts, "p1", models.Product{SKU: "A", Stock: 1}, t0))
	custom := models.DefaultSettings()
	custom.StoreName = "Custom"
	s = reduceOK(t, s, Action{Type: ActionUpdateSettings, Settings: &custom, At: t0})

	s = reduceOK(t, s, Action{Type: ActionClearAll, At: t0.Add(time.Hour)})

	assert.Empty(t, s.Products)
	assert.Empty(t, s.Inventory)
	assert.Equal(t, models.DefaultSettings(), s.Settings)
	assert.Equal(t, t0.Add(time.Hour), s.LastUpdated)
}
