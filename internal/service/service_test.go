package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"admin-store/internal/models"
	"admin-store/internal/remote"
	"admin-store/internal/store"
	"admin-store/internal/util"

	"github.com/gin-gonic/gin"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeAPI is an in-memory admin API: lists come from data, writes echo the body
type fakeAPI struct {
	mu   sync.Mutex
	data map[string][]map[string]any
	fail map[string]int
	hits []string
	seq  int
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{data: map[string][]map[string]any{}, fail: map[string]int{}}
	r := gin.New()
	r.NoRoute(f.handle)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAPI) handle(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := c.Request.URL.Path
	key := c.Request.Method + " " + p
	f.hits = append(f.hits, key)

	if status, ok := f.fail[key]; ok {
		c.JSON(status, gin.H{"success": false, "message": "boom"})
		return
	}

	switch c.Request.Method {
	case http.MethodGet:
		items := f.data[p]
		if items == nil {
			items = []map[string]any{}
		}
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"data":       items,
			"pagination": gin.H{"page": 1, "limit": 50, "total": len(items), "total_pages": 1},
		})
	case http.MethodPost:
		body := map[string]any{}
		_ = c.ShouldBindJSON(&body)
		f.seq++
		body["id"] = fmt.Sprintf("srv-%d", f.seq)
		c.JSON(http.StatusCreated, gin.H{"success": true, "data": body})
	case http.MethodPut:
		body := map[string]any{}
		_ = c.ShouldBindJSON(&body)
		body["id"] = path.Base(p)
		c.JSON(http.StatusOK, gin.H{"success": true, "data": body})
	case http.MethodDelete:
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func (f *fakeAPI) hitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.hits)
}

func (f *fakeAPI) hitsWithPrefix(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, h := range f.hits {
		if strings.HasPrefix(h, prefix) {
			out = append(out, h)
		}
	}
	return out
}

type harness struct {
	api    *fakeAPI
	tokens *remote.MemoryTokenStore
	store  *store.Store
	orch   *SyncOrchestrator
}

func newHarness(t *testing.T, token string, opts ...OrchestratorOption) *harness {
	t.Helper()
	api, srv := newFakeAPI(t)
	tokens := remote.NewMemoryTokenStore(token)
	client := remote.NewClient(srv.URL, 2*time.Second, tokens, remote.WithClientLogger(zap.NewNop()))
	s := store.New(store.WithLogger(zap.NewNop()))
	return &harness{
		api:    api,
		tokens: tokens,
		store:  s,
		orch:   NewSyncOrchestrator(s, client, NewServices(client), opts...),
	}
}

func TestResourceAllFollowsPagination(t *testing.T) {
	r := gin.New()
	r.GET("/customers", func(c *gin.Context) {
		page, _ := strconv.Atoi(c.Query("page"))
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"data":       []gin.H{{"id": fmt.Sprintf("c-%d", page)}},
			"pagination": gin.H{"page": page, "limit": 1, "total": 3, "total_pages": 3},
		})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	client := remote.NewClient(srv.URL, time.Second, nil, remote.WithClientLogger(zap.NewNop()))
	all, err := NewCustomerService(client).All(context.Background())
	require.NoError(t, err)

	ids := make([]string, 0, len(all))
	for _, c := range all {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"c-1", "c-2", "c-3"}, ids)
}

func TestEntityServicePaths(t *testing.T) {
	api, srv := newFakeAPI(t)
	client := remote.NewClient(srv.URL, time.Second, nil, remote.WithClientLogger(zap.NewNop()))
	svc := NewServices(client)
	ctx := context.Background()

	p, err := svc.Products.UpdateStock(ctx, "p1", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, p.Stock)

	_, err = svc.Orders.Cancel(ctx, "o1", "customer request")
	require.NoError(t, err)
	_, err = svc.Reviews.Respond(ctx, "r1", "Thanks!")
	require.NoError(t, err)
	_, err = svc.Inventory.AdjustStock(ctx, "inv-p1", StockAdjustment{Quantity: -2})
	require.NoError(t, err)
	_, err = svc.Shipping.ZoneMethods(ctx, "z1")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"PUT /products/p1/stock",
		"POST /orders/o1/cancel",
		"POST /reviews/r1/respond",
		"POST /inventory/inv-p1/adjust",
		"GET /shipping/zones/z1/methods",
	}, api.hits)
}

func TestOrchestratorWithoutSessionStaysLocal(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()

	created, err := h.orch.Create(ctx, store.KindProducts, map[string]any{"name": "Mug", "sku": "MUG", "stock": 2})
	require.NoError(t, err)
	id := created.(models.Product).ID

	_, err = h.orch.Update(ctx, store.KindProducts, id, map[string]any{"stock": 5})
	require.NoError(t, err)
	require.NoError(t, h.orch.Delete(ctx, store.KindProducts, id))

	assert.Equal(t, 0, h.api.hitCount())
	assert.Empty(t, h.store.State().Products)
}

func TestOrchestratorRemoteCreateKeepsServerRecord(t *testing.T) {
	h := newHarness(t, "tok")

	var events []models.StoreEvent
	h.store.Subscribe(func(e models.StoreEvent) { events = append(events, e) })

	created, err := h.orch.Create(context.Background(), store.KindProducts, map[string]any{"name": "Mug", "sku": "MUG", "stock": 4})
	require.NoError(t, err)

	p := created.(models.Product)
	assert.Equal(t, "srv-1", p.ID)
	assert.Equal(t, []string{"POST /products"}, h.api.hits)

	inv, ok := h.store.InventoryForProduct("srv-1")
	require.True(t, ok)
	assert.Equal(t, 4, inv.CurrentStock)

	require.Len(t, events, 1)
	assert.Equal(t, models.EventTypeCreate, events[0].Type)
}

func TestOrchestratorFallsBackOnServerFailure(t *testing.T) {
	h := newHarness(t, "tok")
	h.api.fail["POST /categories"] = http.StatusInternalServerError

	created, err := h.orch.Create(context.Background(), store.KindCategories, map[string]any{"name": "Kitchen"})
	require.NoError(t, err)

	c := created.(models.Category)
	assert.NotEmpty(t, c.ID)
	assert.False(t, strings.HasPrefix(c.ID, "srv-"))
	assert.Len(t, h.store.State().Categories, 1)
}

func TestOrchestratorUnauthorizedPropagates(t *testing.T) {
	h := newHarness(t, "stale")
	h.api.fail["POST /customers"] = http.StatusUnauthorized

	_, err := h.orch.Create(context.Background(), store.KindCustomers, map[string]any{"first_name": "Ada"})
	require.Error(t, err)
	assert.ErrorIs(t, err, remote.ErrUnauthorized)
	assert.Empty(t, h.store.State().Customers)

	token, _ := h.tokens.Token(context.Background())
	assert.Empty(t, token)
	assert.False(t, h.orch.HasSession(context.Background()))
}

func TestOrchestratorRemoteUpdateOfUnknownRecordCreatesIt(t *testing.T) {
	h := newHarness(t, "tok")

	var events []models.StoreEvent
	h.store.Subscribe(func(e models.StoreEvent) { events = append(events, e) })

	updated, err := h.orch.Update(context.Background(), store.KindCoupons, "cp-1", map[string]any{"code": "SPRING", "type": "fixed", "value": 5})
	require.NoError(t, err)
	assert.Equal(t, "cp-1", updated.(models.Coupon).ID)

	c, ok := h.store.CouponByCode("spring")
	require.True(t, ok)
	assert.Equal(t, 5.0, c.Value)

	require.Len(t, events, 1)
	assert.Equal(t, models.EventTypeUpdate, events[0].Type)
	assert.Equal(t, "cp-1", events[0].ID)
}

func TestOrchestratorRemoteDeleteOfUnknownRecordSucceeds(t *testing.T) {
	h := newHarness(t, "tok")

	var events []models.StoreEvent
	h.store.Subscribe(func(e models.StoreEvent) { events = append(events, e) })

	require.NoError(t, h.orch.Delete(context.Background(), store.KindOrders, "o-404"))
	assert.Equal(t, []string{"DELETE /orders/o-404"}, h.api.hits)

	require.Len(t, events, 1)
	assert.Equal(t, models.EventTypeDelete, events[0].Type)
	assert.Equal(t, "o-404", events[0].ID)
}

func TestOrchestratorDeleteFallbackOfUnknownRecord(t *testing.T) {
	h := newHarness(t, "tok")
	h.api.fail["DELETE /orders/o-404"] = http.StatusInternalServerError

	err := h.orch.Delete(context.Background(), store.KindOrders, "o-404")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestOrchestratorLocalOnlyKinds(t *testing.T) {
	h := newHarness(t, "tok")

	_, err := h.orch.Create(context.Background(), store.KindDiscountRules, map[string]any{"name": "Summer"})
	require.NoError(t, err)
	assert.Equal(t, 0, h.api.hitCount())
}

func TestSyncWithAPIPartialFailure(t *testing.T) {
	h := newHarness(t, "tok")
	h.api.data["/products"] = []map[string]any{{"id": "p1", "name": "Mug", "sku": "MUG", "stock": 3}}
	h.api.data["/categories"] = []map[string]any{{"id": "c1", "name": "Kitchen"}}
	h.api.fail["GET /reviews"] = http.StatusInternalServerError

	err := h.orch.SyncWithAPI(context.Background())
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 1)
	assert.Contains(t, err.Error(), "sync reviews")

	st := h.store.State()
	assert.Equal(t, store.SyncError, st.SyncStatus)
	require.Len(t, st.Products, 1)
	assert.Equal(t, "p1", st.Products[0].ID)
	assert.Len(t, st.Categories, 1)
	assert.Len(t, h.api.hitsWithPrefix("GET "), len(SyncKinds))
}

func TestSyncWithAPITargetedKind(t *testing.T) {
	h := newHarness(t, "tok")
	h.api.data["/users"] = []map[string]any{{"id": "u1", "name": "Ops", "email": "ops@example.com"}}

	require.NoError(t, h.orch.SyncWithAPI(context.Background(), store.KindUsers))
	assert.Equal(t, []string{"GET /users"}, h.api.hits)
	assert.Equal(t, store.SyncSuccess, h.store.State().SyncStatus)
	assert.Len(t, h.store.State().Users, 1)
}

func TestSyncWithAPIWithoutSession(t *testing.T) {
	h := newHarness(t, "")

	err := h.orch.SyncWithAPI(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, store.SyncError, h.store.State().SyncStatus)
	assert.Equal(t, 0, h.api.hitCount())
}

func TestSyncIsIdempotent(t *testing.T) {
	h := newHarness(t, "tok")
	h.api.data["/shipping/zones"] = []map[string]any{{"id": "z1", "name": "EU"}}
	h.api.data["/shipping/methods"] = []map[string]any{{"id": "m1", "zone_id": "z1", "name": "Std"}}
	ctx := context.Background()

	require.NoError(t, h.orch.SyncAll(ctx))
	first := h.store.State()
	require.NoError(t, h.orch.SyncAll(ctx))
	second := h.store.State()

	assert.Equal(t, first.Collections, second.Collections)
	assert.Len(t, h.store.MethodsByZone("z1"), 1)
}

func TestStartClearsLoadingOnFailure(t *testing.T) {
	h := newHarness(t, "tok")
	h.api.fail["GET /products"] = http.StatusBadGateway

	err := h.orch.Start(context.Background())
	require.Error(t, err)
	assert.False(t, h.store.State().Loading)
}

func TestStartWithoutSessionSkipsSync(t *testing.T) {
	h := newHarness(t, "")
	require.NoError(t, h.orch.Start(context.Background()))
	assert.Equal(t, 0, h.api.hitCount())
	assert.False(t, h.store.State().Loading)
}

func gaugeValue(t *testing.T, g interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, g.Write(m))
	return m.GetGauge().GetValue()
}

func TestSetOnlineNeverSyncs(t *testing.T) {
	util.OnlineStatus.Set(0)
	h := newHarness(t, "tok")
	assert.Equal(t, 1.0, gaugeValue(t, util.OnlineStatus))

	h.orch.SetOnline(false)
	assert.False(t, h.store.State().IsOnline)
	assert.Equal(t, 0.0, gaugeValue(t, util.OnlineStatus))
	h.orch.SetOnline(true)
	assert.True(t, h.store.State().IsOnline)
	assert.Equal(t, 1.0, gaugeValue(t, util.OnlineStatus))
	assert.Equal(t, 0, h.api.hitCount())
}

type stubLocker struct {
	acquired bool
	released int
}

func (l *stubLocker) AcquireLock(context.Context, string, time.Duration) (bool, error) {
	return l.acquired, nil
}

func (l *stubLocker) ReleaseLock(context.Context, string) error {
	l.released++
	return nil
}

func TestSyncAllHonoursLock(t *testing.T) {
	busy := &stubLocker{acquired: false}
	h := newHarness(t, "tok", WithSyncLock(busy))
	assert.ErrorIs(t, h.orch.SyncAll(context.Background()), ErrSyncInProgress)
	assert.Equal(t, 0, h.api.hitCount())

	free := &stubLocker{acquired: true}
	h = newHarness(t, "tok", WithSyncLock(free))
	require.NoError(t, h.orch.SyncAll(context.Background()))
	assert.Equal(t, 1, free.released)
}
