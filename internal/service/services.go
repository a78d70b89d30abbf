package service

import (
	"admin-store/internal/remote"
	"admin-store/internal/store"
)

// Services bundles one entity service per remote resource
type Services struct {
	Products   *ProductService
	Categories *CategoryService
	Customers  *CustomerService
	Orders     *OrderService
	Inventory  *InventoryService
	Reviews    *ReviewService
	Coupons    *CouponService
	Shipping   *ShippingService
	Analytics  *AnalyticsService
	Users      *UserService
}

// NewServices creates every entity service on a shared client
func NewServices(client *remote.Client) *Services {
	return &Services{
		Products:   NewProductService(client),
		Categories: NewCategoryService(client),
		Customers:  NewCustomerService(client),
		Orders:     NewOrderService(client),
		Inventory:  NewInventoryService(client),
		Reviews:    NewReviewService(client),
		Coupons:    NewCouponService(client),
		Shipping:   NewShippingService(client),
		Analytics:  NewAnalyticsService(client),
		Users:      NewUserService(client),
	}
}

// Fetcher returns the service that loads a kind, if the remote API serves it
func (s *Services) Fetcher(kind store.Kind) (Fetcher, bool) {
	switch kind {
	case store.KindProducts:
		return s.Products, true
	case store.KindCategories:
		return s.Categories, true
	case store.KindCustomers:
		return s.Customers, true
	case store.KindOrders:
		return s.Orders, true
	case store.KindInventory:
		return s.Inventory, true
	case store.KindReviews:
		return s.Reviews, true
	case store.KindCoupons:
		return s.Coupons, true
	case store.KindShippingZones:
		return s.Shipping.Zones, true
	case store.KindShippingMethods:
		return s.Shipping.Methods, true
	case store.KindUsers:
		return s.Users, true
	}
	return nil, false
}

// Writer returns the service that persists single records of a kind, if any
func (s *Services) Writer(kind store.Kind) (Writer, bool) {
	switch kind {
	case store.KindProducts:
		return s.Products, true
	case store.KindCategories:
		return s.Categories, true
	case store.KindCustomers:
		return s.Customers, true
	case store.KindOrders:
		return s.Orders, true
	case store.KindReviews:
		return s.Reviews, true
	case store.KindCoupons:
		return s.Coupons, true
	case store.KindShippingZones:
		return s.Shipping.Zones, true
	case store.KindShippingMethods:
		return s.Shipping.Methods, true
	case store.KindUsers:
		return s.Users, true
	}
	return nil, false
}
