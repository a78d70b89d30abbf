package store

import (
	"strings"

	"admin-store/internal/models"
)

// FindByID returns the typed record with the given id
func FindByID[T any](s *Store, kind Kind, id string) (T, bool) {
	var zero T
	item, ok := s.FindByID(kind, id)
	if !ok {
		return zero, false
	}
	typed, ok := item.(T)
	return typed, ok
}

// FindMany returns the typed records of a kind that satisfy pred
func FindMany[T any](s *Store, kind Kind, pred func(T) bool) []T {
	items := s.FindMany(kind, nil)
	out := make([]T, 0, len(items))
	for _, item := range items {
		typed, ok := item.(T)
		if !ok {
			continue
		}
		if pred == nil || pred(typed) {
			out = append(out, typed)
		}
	}
	return out
}

// ProductBySKU looks a product up by its unique sku
func (s *Store) ProductBySKU(sku string) (models.Product, bool) {
	for _, p := range s.State().Products {
		if strings.EqualFold(p.SKU, sku) {
			return p, true
		}
	}
	return models.Product{}, false
}

// ProductsByCategory returns the products of one category
func (s *Store) ProductsByCategory(categoryID string) []models.Product {
	return FindMany(s, KindProducts, func(p models.Product) bool { return p.CategoryID == categoryID })
}

// InventoryForProduct returns the inventory item shadowing a product
func (s *Store) InventoryForProduct(productID string) (models.InventoryItem, bool) {
	items := FindMany(s, KindInventory, func(i models.InventoryItem) bool { return i.ProductID == productID })
	if len(items) == 0 {
		return models.InventoryItem{}, false
	}
	return items[0], true
}

// LowStock returns inventory items at or below their threshold
func (s *Store) LowStock() []models.InventoryItem {
	return FindMany(s, KindInventory, func(i models.InventoryItem) bool {
		return i.CurrentStock <= i.LowStockThreshold
	})
}

// OrdersByCustomer returns the orders placed by a customer
func (s *Store) OrdersByCustomer(customerID string) []models.Order {
	return FindMany(s, KindOrders, func(o models.Order) bool { return o.CustomerID == customerID })
}

// OrdersByStatus returns the orders in a given status
func (s *Store) OrdersByStatus(status string) []models.Order {
	return FindMany(s, KindOrders, func(o models.Order) bool { return o.Status == status })
}

// ReviewsByProduct returns the reviews of a product
func (s *Store) ReviewsByProduct(productID string) []models.Review {
	return FindMany(s, KindReviews, func(r models.Review) bool { return r.ProductID == productID })
}

// MethodsByZone returns the shipping methods of a zone
func (s *Store) MethodsByZone(zoneID string) []models.ShippingMethod {
	return FindMany(s, KindShippingMethods, func(m models.ShippingMethod) bool { return m.ZoneID == zoneID })
}

// CouponByCode looks a coupon up by its code, ignoring case
func (s *Store) CouponByCode(code string) (models.Coupon, bool) {
	for _, c := range s.State().Coupons {
		if strings.EqualFold(c.Code, code) {
			return c, true
		}
	}
	return models.Coupon{}, false
}
