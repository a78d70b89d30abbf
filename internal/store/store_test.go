package store

import (
	"fmt"
	"testing"
	"time"

	"admin-store/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore() *Store {
	now := t0
	seq := 0
	return New(
		WithLogger(zap.NewNop()),
		WithClock(func() time.Time {
			now = now.Add(time.Second)
			return now
		}),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	)
}

func TestStoreCreateStampsIDAndTimestamps(t *testing.T) {
	s := newTestStore()

	created, err := s.Create(KindCustomers, models.Customer{FirstName: "Ada", LastName: "L", Email: "ada@example.com"})
	require.NoError(t, err)

	c := created.(models.Customer)
	assert.Equal(t, "id-1", c.ID)
	assert.False(t, c.CreatedAt.IsZero())
	assert.Equal(t, c.CreatedAt, c.UpdatedAt)

	remote, err := s.Create(KindCustomers, map[string]any{"id": "srv-9", "first_name": "Grace"})
	require.NoError(t, err)
	assert.Equal(t, "srv-9", remote.(models.Customer).ID)
}

func TestStoreUpdateRestampsUpdatedAt(t *testing.T) {
	s := newTestStore()
	created, err := s.Create(KindUsers, models.User{Name: "Ops", Email: "ops@example.com", Role: "staff"})
	require.NoError(t, err)
	u := created.(models.User)

	updated, err := s.Update(KindUsers, u.ID, map[string]any{"role": "admin"})
	require.NoError(t, err)

	got := updated.(models.User)
	assert.Equal(t, "admin", got.Role)
	assert.Equal(t, "Ops", got.Name)
	assert.Equal(t, u.CreatedAt, got.CreatedAt)
	assert.True(t, got.UpdatedAt.After(u.UpdatedAt))
}

func TestStoreEventsFireInRegistrationOrder(t *testing.T) {
	s := newTestStore()

	var order []string
	var events []models.StoreEvent
	s.Subscribe(func(e models.StoreEvent) {
		order = append(order, "first")
		events = append(events, e)
	})
	s.Subscribe(func(e models.StoreEvent) { order = append(order, "second") })

	created, err := s.Create(KindProducts, models.Product{SKU: "A", Stock: 2})
	require.NoError(t, err)
	id := created.(models.Product).ID

	_, err = s.Update(KindProducts, id, map[string]any{"stock": 3})
	require.NoError(t, err)
	require.NoError(t, s.Delete(KindProducts, id))

	assert.Equal(t, []string{"first", "second", "first", "second", "first", "second"}, order)
	require.Len(t, events, 3)
	assert.Equal(t, models.EventTypeCreate, events[0].Type)
	assert.Equal(t, models.EventTypeUpdate, events[1].Type)
	assert.Equal(t, models.EventTypeDelete, events[2].Type)
	assert.Equal(t, string(KindProducts), events[2].Entity)
	assert.Equal(t, id, events[2].ID)
	assert.Nil(t, events[2].Data)
	assert.Equal(t, 3, events[1].Data.(models.Product).Stock)
}

func TestStoreEventSeesCommittedState(t *testing.T) {
	s := newTestStore()

	var seen int
	s.Subscribe(func(e models.StoreEvent) {
		inv, ok := s.InventoryForProduct(e.ID)
		if ok {
			seen = inv.CurrentStock
		}
	})

	_, err := s.Create(KindProducts, models.Product{SKU: "A", Stock: 8})
	require.NoError(t, err)
	assert.Equal(t, 8, seen)
}

func TestStoreRejectedActionEmitsNothing(t *testing.T) {
	s := newTestStore()

	fired := 0
	s.Subscribe(func(models.StoreEvent) { fired++ })

	_, err := s.Create("widgets", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = s.Update(KindProducts, "missing", map[string]any{"stock": 1})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Delete(KindOrders, "missing"), ErrNotFound)
	assert.Equal(t, 0, fired)
	assert.Equal(t, NewState(), s.State())
}

func TestUnsubscribe(t *testing.T) {
	s := newTestStore()

	a, b := 0, 0
	subA := s.Subscribe(func(models.StoreEvent) { a++ })
	subB := s.Subscribe(func(models.StoreEvent) { b++ })

	_, err := s.Create(KindCategories, models.Category{Name: "One"})
	require.NoError(t, err)

	subA.Cancel()
	s.Bus().Unsubscribe(subB)
	subB.Cancel()

	_, err = s.Create(KindCategories, models.Category{Name: "Two"})
	require.NoError(t, err)

	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
	assert.Equal(t, 0, s.Bus().Len())
}

func TestStoresDoNotShareListeners(t *testing.T) {
	s1, s2 := newTestStore(), newTestStore()

	fired := 0
	s1.Subscribe(func(models.StoreEvent) { fired++ })

	_, err := s2.Create(KindCategories, models.Category{Name: "Other"})
	require.NoError(t, err)
	assert.Equal(t, 0, fired)
}

func TestPanickingListenerDoesNotStopDelivery(t *testing.T) {
	s := newTestStore()

	delivered := false
	s.Subscribe(func(models.StoreEvent) { panic("boom") })
	s.Subscribe(func(models.StoreEvent) { delivered = true })

	_, err := s.Create(KindCategories, models.Category{Name: "Safe"})
	require.NoError(t, err)
	assert.True(t, delivered)
}

func TestExportImportRoundTrip(t *testing.T) {
	s := newTestStore()

	p, err := s.Create(KindProducts, models.Product{
		Name: "Mug", SKU: "MUG", Stock: 4, Cost: 1.25, Tags: []string{"kitchen"},
		Variants: []models.ProductVariant{{ID: "v1", Name: "Blue", Attributes: map[string]string{"color": "blue"}}},
	})
	require.NoError(t, err)
	_, err = s.Create(KindReviews, models.Review{ProductID: p.(models.Product).ID, Rating: 4})
	require.NoError(t, err)
	until := t0.Add(48 * time.Hour)
	_, err = s.Create(KindCoupons, models.Coupon{Code: "WELCOME", Type: models.CouponTypePercentage, Value: 10, ValidUntil: &until})
	require.NoError(t, err)
	settings := models.DefaultSettings()
	settings.TaxRate = 0.2
	require.NoError(t, s.UpdateSettings(settings))

	exported, err := s.ExportData()
	require.NoError(t, err)
	want := s.State()

	s.ClearAll()
	assert.Empty(t, s.State().Products)

	require.True(t, s.ImportData(exported))
	assert.Equal(t, want, s.State())
}

func TestImportFailsClosed(t *testing.T) {
	s := newTestStore()
	_, err := s.Create(KindProducts, models.Product{SKU: "A"})
	require.NoError(t, err)
	before := s.State()

	assert.False(t, s.ImportData("{not json"))
	assert.False(t, s.ImportData(`{"version": 99}`))
	assert.False(t, s.ImportData(`{}`))
	assert.False(t, s.ImportData(`null`))
	assert.False(t, s.ImportData(`{"version": 1, "settings": {"currency": "EUR"}}`))
	assert.Equal(t, before, s.State())
}

func TestImportFillsMissingParts(t *testing.T) {
	s := newTestStore()

	require.True(t, s.ImportData(`{"version": 1, "collections": {"customers": [{"id": "c1", "first_name": "Ann"}]}}`))
	st := s.State()
	require.Len(t, st.Customers, 1)
	assert.NotNil(t, st.Products)
	assert.Empty(t, st.Products)
	assert.Equal(t, models.DefaultSettings(), st.Settings)

	exported, err := s.ExportData()
	require.NoError(t, err)
	assert.NotContains(t, exported, `"products": null`)
}

func TestUpsertAndDiscardEvents(t *testing.T) {
	s := newTestStore()
	var events []models.StoreEvent
	s.Subscribe(func(e models.StoreEvent) { events = append(events, e) })

	_, err := s.Upsert(KindCustomers, "c1", models.Customer{FirstName: "Ann"})
	require.NoError(t, err)
	_, err = s.Upsert(KindCustomers, "c1", map[string]any{"last_name": "Lee"})
	require.NoError(t, err)

	c, ok := FindByID[models.Customer](s, KindCustomers, "c1")
	require.True(t, ok)
	assert.Equal(t, "Ann", c.FirstName)
	assert.Equal(t, "Lee", c.LastName)

	require.NoError(t, s.Discard(KindCustomers, "c1"))
	require.NoError(t, s.Discard(KindCustomers, "gone"))
	assert.Empty(t, s.State().Customers)
	assert.Error(t, s.Discard(Kind("widgets"), "x"))

	require.Len(t, events, 4)
	assert.Equal(t, models.EventTypeUpdate, events[0].Type)
	assert.Equal(t, models.EventTypeUpdate, events[1].Type)
	assert.Equal(t, models.EventTypeDelete, events[2].Type)
	assert.Equal(t, models.EventTypeDelete, events[3].Type)
	assert.Equal(t, "gone", events[3].ID)
}

func TestTypedQueries(t *testing.T) {
	s := newTestStore()
	for i, stock := range []int{0, 2, 10} {
		_, err := s.Create(KindProducts, models.Product{
			SKU: fmt.Sprintf("SKU-%d", i), Stock: stock, LowStockThreshold: 5, CategoryID: "c1",
		})
		require.NoError(t, err)
	}

	inStock := FindMany(s, KindProducts, func(p models.Product) bool { return p.Stock > 0 })
	assert.Len(t, inStock, 2)

	p, ok := s.ProductBySKU("sku-1")
	require.True(t, ok)
	got, ok := FindByID[models.Product](s, KindProducts, p.ID)
	require.True(t, ok)
	assert.Equal(t, p, got)

	_, ok = FindByID[models.Order](s, KindProducts, p.ID)
	assert.False(t, ok)

	assert.Len(t, s.ProductsByCategory("c1"), 3)
	low := s.LowStock()
	require.Len(t, low, 1)
	assert.Equal(t, 2, low[0].CurrentStock)
}

func TestHousekeepingFlags(t *testing.T) {
	s := newTestStore()
	before := s.State().LastUpdated

	s.SetLoading(true)
	s.SetOnline(false)
	require.NoError(t, s.SetSyncStatus(SyncSyncing))

	st := s.State()
	assert.True(t, st.Loading)
	assert.False(t, st.IsOnline)
	assert.Equal(t, SyncSyncing, st.SyncStatus)
	assert.Equal(t, before, st.LastUpdated)
}
