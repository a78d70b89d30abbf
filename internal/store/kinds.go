package store

import "fmt"

// Kind tags one of the fixed entity collections held by the store
type Kind string

// Entity kinds
const (
	KindProducts        Kind = "products"
	KindInventory       Kind = "inventory"
	KindCustomers       Kind = "customers"
	KindOrders          Kind = "orders"
	KindReviews         Kind = "reviews"
	KindCategories      Kind = "categories"
	KindCoupons         Kind = "coupons"
	KindDiscountRules   Kind = "discount_rules"
	KindShippingZones   Kind = "shipping_zones"
	KindShippingMethods Kind = "shipping_methods"
	KindUsers           Kind = "users"
	KindActivityLogs    Kind = "activity_logs"
)

// Kinds returns every known entity kind in declaration order
func Kinds() []Kind {
	return []Kind{
		KindProducts,
		KindInventory,
		KindCustomers,
		KindOrders,
		KindReviews,
		KindCategories,
		KindCoupons,
		KindDiscountRules,
		KindShippingZones,
		KindShippingMethods,
		KindUsers,
		KindActivityLogs,
	}
}

// Valid reports whether k is a registered kind
func (k Kind) Valid() bool {
	_, ok := registry[k]
	return ok
}

// ParseKind converts a tag into a Kind, rejecting unknown tags
func ParseKind(tag string) (Kind, error) {
	k := Kind(tag)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, tag)
	}
	return k, nil
}
