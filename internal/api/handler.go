package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"admin-store/internal/models"
	"admin-store/internal/remote"
	"admin-store/internal/service"
	"admin-store/internal/store"
	"admin-store/internal/util"
	"admin-store/internal/validation"
	"admin-store/internal/views"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// reserved list query parameters; anything else is treated as a filter
var listParams = map[string]bool{"q": true, "sort": true, "order": true, "page": true, "page_size": true}

var searchFields = map[store.Kind][]string{
	store.KindProducts:        {"name", "sku", "description", "tags"},
	store.KindInventory:       {"product_name", "sku"},
	store.KindCustomers:       {"first_name", "last_name", "email"},
	store.KindOrders:          {"order_number", "customer_name"},
	store.KindReviews:         {"title", "product_name", "customer_name"},
	store.KindCategories:      {"name", "description"},
	store.KindCoupons:         {"code", "description"},
	store.KindDiscountRules:   {"name"},
	store.KindShippingZones:   {"name"},
	store.KindShippingMethods: {"name"},
	store.KindUsers:           {"name", "email"},
	store.KindActivityLogs:    {"description", "entity"},
}

var createValidators = map[store.Kind]func([]byte) ([]string, error){
	store.KindProducts:   validateAs(validation.ValidateProduct),
	store.KindCustomers:  validateAs(validation.ValidateCustomer),
	store.KindOrders:     validateAs(validation.ValidateOrder),
	store.KindCoupons:    validateAs(validation.ValidateCouponFields),
	store.KindCategories: validateAs(structOnly[models.Category]),
	store.KindUsers:      validateAs(structOnly[models.User]),
}

func structOnly[T any](v T) []string {
	return validation.Struct(v)
}

func validateAs[T any](fn func(T) []string) func([]byte) ([]string, error) {
	return func(raw []byte) ([]string, error) {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return fn(v), nil
	}
}

// Handler contains HTTP handlers
type Handler struct {
	orchestrator *service.SyncOrchestrator
	store        *store.Store
	logger       *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(orchestrator *service.SyncOrchestrator) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		store:        orchestrator.Store(),
		logger:       util.NamedLogger("api"),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1/admin")
	{
		v1.GET("/state", h.getState)
		v1.POST("/sync", h.syncAll)
		v1.POST("/sync/:entity", h.syncEntity)
		v1.GET("/export", h.exportData)
		v1.POST("/import", h.importData)
		v1.POST("/reset", h.resetStore)
		v1.GET("/reports/dashboard", h.dashboard)
		v1.GET("/reports/low-stock", h.lowStock)
		v1.POST("/coupons/validate", h.validateCoupon)
		v1.PUT("/settings", h.updateSettings)

		entities := v1.Group("/store/:entity")
		entities.GET("", h.listEntities)
		entities.POST("", h.createEntity)
		entities.GET("/:id", h.getEntity)
		entities.PUT("/:id", h.updateEntity)
		entities.DELETE("/:id", h.deleteEntity)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready once the initial load has finished
func (h *Handler) readinessCheck(c *gin.Context) {
	st := h.store.State()
	status, code := "ready", http.StatusOK
	if st.Loading {
		status, code = "loading", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":      status,
		"online":      st.IsOnline,
		"sync_status": st.SyncStatus,
		"time":        time.Now().Unix(),
	})
}

func (h *Handler) getState(c *gin.Context) {
	st := h.store.State()
	counts := gin.H{}
	for _, kind := range store.Kinds() {
		counts[string(kind)] = len(h.store.FindMany(kind, nil))
	}
	c.JSON(http.StatusOK, gin.H{
		"counts":       counts,
		"loading":      st.Loading,
		"is_online":    st.IsOnline,
		"sync_status":  st.SyncStatus,
		"last_updated": st.LastUpdated,
		"settings":     st.Settings,
	})
}

// listEntities handles search, filter, sort and pagination over one collection
func (h *Handler) listEntities(c *gin.Context) {
	kind, ok := h.kindParam(c)
	if !ok {
		return
	}

	q := views.Query{
		Search:       c.Query("q"),
		SearchFields: searchFields[kind],
		Filters:      map[string]string{},
		SortField:    c.Query("sort"),
		SortOrder:    views.SortOrder(strings.ToLower(c.DefaultQuery("order", string(views.Asc)))),
	}
	q.Page, _ = strconv.Atoi(c.Query("page"))
	q.PageSize, _ = strconv.Atoi(c.Query("page_size"))
	for key, values := range c.Request.URL.Query() {
		if !listParams[key] && len(values) > 0 {
			q.Filters[key] = values[0]
		}
	}

	c.JSON(http.StatusOK, views.Apply(h.store.FindMany(kind, nil), q))
}

func (h *Handler) getEntity(c *gin.Context) {
	kind, ok := h.kindParam(c)
	if !ok {
		return
	}

	item, found := h.store.FindByID(kind, c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Entity not found"})
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) createEntity(c *gin.Context) {
	kind, ok := h.kindParam(c)
	if !ok {
		return
	}
	body, ok := readBody(c)
	if !ok {
		return
	}

	if validate := createValidators[kind]; validate != nil {
		msgs, err := validate(body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request body",
				"details": err.Error(),
			})
			return
		}
		if len(msgs) > 0 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":  "Validation failed",
				"errors": msgs,
			})
			return
		}
	}

	created, err := h.orchestrator.Create(c.Request.Context(), kind, json.RawMessage(body))
	if err != nil {
		h.writeError(c, "Failed to create entity", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) updateEntity(c *gin.Context) {
	kind, ok := h.kindParam(c)
	if !ok {
		return
	}
	body, ok := readBody(c)
	if !ok {
		return
	}

	updated, err := h.orchestrator.Update(c.Request.Context(), kind, c.Param("id"), json.RawMessage(body))
	if err != nil {
		h.writeError(c, "Failed to update entity", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) deleteEntity(c *gin.Context) {
	kind, ok := h.kindParam(c)
	if !ok {
		return
	}

	if err := h.orchestrator.Delete(c.Request.Context(), kind, c.Param("id")); err != nil {
		h.writeError(c, "Failed to delete entity", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) syncAll(c *gin.Context) {
	if err := h.orchestrator.SyncWithAPI(c.Request.Context()); err != nil {
		h.writeError(c, "Sync failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sync_status": h.store.State().SyncStatus})
}

func (h *Handler) syncEntity(c *gin.Context) {
	kind, ok := h.kindParam(c)
	if !ok {
		return
	}

	if err := h.orchestrator.SyncWithAPI(c.Request.Context(), kind); err != nil {
		h.writeError(c, "Sync failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sync_status": h.store.State().SyncStatus})
}

func (h *Handler) exportData(c *gin.Context) {
	data, err := h.store.ExportData()
	if err != nil {
		h.writeError(c, "Export failed", err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=admin-store-export.json")
	c.Data(http.StatusOK, "application/json", []byte(data))
}

func (h *Handler) importData(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}

	if !h.store.ImportData(string(body)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Import rejected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": true})
}

func (h *Handler) resetStore(c *gin.Context) {
	h.store.ResetToDefaults()
	c.Status(http.StatusNoContent)
}

func (h *Handler) updateSettings(c *gin.Context) {
	var settings models.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.store.UpdateSettings(settings); err != nil {
		h.writeError(c, "Failed to update settings", err)
		return
	}
	c.JSON(http.StatusOK, h.store.State().Settings)
}

func (h *Handler) dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, views.Dashboard(h.store.State()))
}

func (h *Handler) lowStock(c *gin.Context) {
	c.JSON(http.StatusOK, views.LowStock(h.store.State().Inventory))
}

type validateCouponRequest struct {
	Code       string  `json:"code" binding:"required"`
	OrderTotal float64 `json:"order_total"`
}

// validateCoupon checks a coupon code against an order total using local data
func (h *Handler) validateCoupon(c *gin.Context) {
	var req validateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	coupon, found := h.store.CouponByCode(req.Code)
	if !found {
		c.JSON(http.StatusOK, models.CouponValidation{Message: "Coupon not found"})
		return
	}
	c.JSON(http.StatusOK, validation.ValidateCoupon(coupon, req.OrderTotal, time.Now().UTC()))
}

func (h *Handler) kindParam(c *gin.Context) (store.Kind, bool) {
	kind, err := store.ParseKind(c.Param("entity"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Unknown entity",
			"details": err.Error(),
		})
		return "", false
	}
	return kind, true
}

func readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(body) == 0 || !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return nil, false
	}
	return body, true
}

// writeError maps store, orchestrator and remote errors to HTTP statuses
func (h *Handler) writeError(c *gin.Context, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, store.ErrMalformedAction),
		errors.Is(err, store.ErrInvariant),
		errors.Is(err, store.ErrUnknownKind):
		status = http.StatusBadRequest
	case errors.Is(err, remote.ErrUnauthorized), errors.Is(err, service.ErrNoSession):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrSyncInProgress):
		status = http.StatusConflict
	default:
		var apiErr *remote.APIError
		if errors.As(err, &apiErr) && apiErr.Status >= 400 {
			status = http.StatusBadGateway
		}
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err))
	}
	c.JSON(status, gin.H{
		"error":   msg,
		"details": err.Error(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
