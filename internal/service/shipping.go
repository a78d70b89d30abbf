package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"admin-store/internal/models"
	"admin-store/internal/remote"
)

// ShippingService maps zone and method operations onto /shipping
type ShippingService struct {
	Zones   *Resource[models.ShippingZone]
	Methods *Resource[models.ShippingMethod]
}

// NewShippingService creates a shipping service
func NewShippingService(client *remote.Client) *ShippingService {
	return &ShippingService{
		Zones:   NewResource[models.ShippingZone](client, "shipping/zones"),
		Methods: NewResource[models.ShippingMethod](client, "shipping/methods"),
	}
}

// ZoneMethods lists the methods offered in a zone
func (s *ShippingService) ZoneMethods(ctx context.Context, zoneID string) ([]models.ShippingMethod, error) {
	var out []models.ShippingMethod
	err := call(ctx, s.Zones.client, http.MethodGet, s.Zones.Path(zoneID, "methods"), nil, &out)
	return out, err
}

// AnalyticsService reads the server-side reports under /analytics
type AnalyticsService struct {
	client *remote.Client
}

// NewAnalyticsService creates an analytics service
func NewAnalyticsService(client *remote.Client) *AnalyticsService {
	return &AnalyticsService{client: client}
}

// DashboardStats is the server's headline summary
type DashboardStats struct {
	TotalRevenue   float64 `json:"total_revenue"`
	TotalOrders    int     `json:"total_orders"`
	TotalCustomers int     `json:"total_customers"`
	TotalProducts  int     `json:"total_products"`
	RevenueGrowth  float64 `json:"revenue_growth"`
	OrdersGrowth   float64 `json:"orders_growth"`
}

// SalesPoint is one bucket of a sales time series
type SalesPoint struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

// TopProduct is one row of the best sellers report
type TopProduct struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Sales     int     `json:"sales"`
	Revenue   float64 `json:"revenue"`
}

// Dashboard returns the headline statistics
func (s *AnalyticsService) Dashboard(ctx context.Context) (DashboardStats, error) {
	var out DashboardStats
	err := call(ctx, s.client, http.MethodGet, "/analytics/dashboard", nil, &out)
	return out, err
}

// Sales returns revenue per bucket for a period such as "7d" or "30d"
func (s *AnalyticsService) Sales(ctx context.Context, period string) ([]SalesPoint, error) {
	var out []SalesPoint
	env, err := s.client.Get(ctx, "/analytics/sales", url.Values{"period": {period}})
	if err != nil {
		return nil, err
	}
	err = env.Decode(&out)
	return out, err
}

// TopProducts returns the best selling products
func (s *AnalyticsService) TopProducts(ctx context.Context, limit int) ([]TopProduct, error) {
	var out []TopProduct
	env, err := s.client.Get(ctx, "/analytics/top-products", url.Values{"limit": {strconv.Itoa(limit)}})
	if err != nil {
		return nil, err
	}
	err = env.Decode(&out)
	return out, err
}
