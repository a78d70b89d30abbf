package store

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"admin-store/internal/models"
)

// change describes the base operation a cascade reacts to
type change struct {
	op     ActionType
	id     string
	before any
	after  any
}

// collectionOps is the untyped view of one typed collection
type collectionOps interface {
	create(c *Collections, id string, payload any, at time.Time) (any, error)
	update(c *Collections, id string, payload any, at time.Time) (before, after any, err error)
	remove(c *Collections, id string) (any, error)
	replace(c *Collections, payload any) error
	find(c *Collections, id string) (any, bool)
	list(c *Collections) []any
}

// entry binds a kind to its collection, guard and cascade
type entry struct {
	ops     collectionOps
	guard   func(c *Collections, ch change) error
	cascade func(c *Collections, ch change, at time.Time)
}

var registry = map[Kind]entry{
	KindProducts: {
		ops:     collection[models.Product]{kind: KindProducts, items: func(c *Collections) *[]models.Product { return &c.Products }},
		guard:   guardProduct,
		cascade: cascadeProduct,
	},
	KindInventory: {
		ops:     collection[models.InventoryItem]{kind: KindInventory, items: func(c *Collections) *[]models.InventoryItem { return &c.Inventory }},
		guard:   guardInventory,
		cascade: cascadeInventory,
	},
	KindCustomers: {
		ops: collection[models.Customer]{kind: KindCustomers, items: func(c *Collections) *[]models.Customer { return &c.Customers }},
	},
	KindOrders: {
		ops:     collection[models.Order]{kind: KindOrders, items: func(c *Collections) *[]models.Order { return &c.Orders }},
		guard:   guardOrder,
		cascade: cascadeOrder,
	},
	KindReviews: {
		ops:     collection[models.Review]{kind: KindReviews, items: func(c *Collections) *[]models.Review { return &c.Reviews }},
		guard:   guardReview,
		cascade: cascadeReview,
	},
	KindCategories: {
		ops:     collection[models.Category]{kind: KindCategories, items: func(c *Collections) *[]models.Category { return &c.Categories }},
		cascade: cascadeCategory,
	},
	KindCoupons: {
		ops:   collection[models.Coupon]{kind: KindCoupons, items: func(c *Collections) *[]models.Coupon { return &c.Coupons }},
		guard: guardCoupon,
	},
	KindDiscountRules: {
		ops: collection[models.DiscountRule]{kind: KindDiscountRules, items: func(c *Collections) *[]models.DiscountRule { return &c.DiscountRules }},
	},
	KindShippingZones: {
		ops:     collection[models.ShippingZone]{kind: KindShippingZones, items: func(c *Collections) *[]models.ShippingZone { return &c.ShippingZones }},
		cascade: cascadeShippingZone,
	},
	KindShippingMethods: {
		ops: collection[models.ShippingMethod]{kind: KindShippingMethods, items: func(c *Collections) *[]models.ShippingMethod { return &c.ShippingMethods }},
	},
	KindUsers: {
		ops: collection[models.User]{kind: KindUsers, items: func(c *Collections) *[]models.User { return &c.Users }},
	},
	KindActivityLogs: {
		ops: collection[models.ActivityLog]{kind: KindActivityLogs, items: func(c *Collections) *[]models.ActivityLog { return &c.ActivityLogs }},
	},
}

// collection implements collectionOps for one entity type. Every mutation
// installs a fresh slice so earlier states never observe the change.
type collection[T any] struct {
	kind  Kind
	items func(*Collections) *[]T
}

func (col collection[T]) create(c *Collections, id string, payload any, at time.Time) (any, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: create %s without id", ErrMalformedAction, col.kind)
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: create %s without payload", ErrMalformedAction, col.kind)
	}
	item, err := decode[T](payload)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrMalformedAction, col.kind, err)
	}

	items := col.items(c)
	if indexOf(*items, id) >= 0 {
		return nil, fmt.Errorf("%w: %s %s already exists", ErrConflict, col.kind, id)
	}

	meta := metaOf(&item)
	meta.ID = id
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = at
	}
	if meta.UpdatedAt.IsZero() {
		meta.UpdatedAt = at
	}

	*items = append((*items)[:len(*items):len(*items)], item)
	return item, nil
}

func (col collection[T]) update(c *Collections, id string, payload any, at time.Time) (any, any, error) {
	if id == "" {
		return nil, nil, fmt.Errorf("%w: update %s without id", ErrMalformedAction, col.kind)
	}
	if payload == nil {
		return nil, nil, fmt.Errorf("%w: update %s %s without payload", ErrMalformedAction, col.kind, id)
	}

	items := col.items(c)
	idx := indexOf(*items, id)
	if idx < 0 {
		return nil, nil, fmt.Errorf("%w: %s %s", ErrNotFound, col.kind, id)
	}
	before := (*items)[idx]

	next, err := decode[T](before)
	if err != nil {
		return nil, nil, err
	}
	patch, err := toJSON(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: update %s: %v", ErrMalformedAction, col.kind, err)
	}
	if err := json.Unmarshal(patch, &next); err != nil {
		return nil, nil, fmt.Errorf("%w: update %s: %v", ErrMalformedAction, col.kind, err)
	}

	meta := metaOf(&next)
	meta.ID = id
	meta.CreatedAt = metaOf(&before).CreatedAt
	meta.UpdatedAt = at

	updated := slices.Clone(*items)
	updated[idx] = next
	*items = updated
	return before, next, nil
}

func (col collection[T]) remove(c *Collections, id string) (any, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: delete %s without id", ErrMalformedAction, col.kind)
	}
	items := col.items(c)
	idx := indexOf(*items, id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, col.kind, id)
	}
	removed := (*items)[idx]

	remaining := make([]T, 0, len(*items)-1)
	remaining = append(remaining, (*items)[:idx]...)
	remaining = append(remaining, (*items)[idx+1:]...)
	*items = remaining
	return removed, nil
}

func (col collection[T]) replace(c *Collections, payload any) error {
	if payload == nil {
		return fmt.Errorf("%w: replace %s without payload", ErrMalformedAction, col.kind)
	}
	items, err := decode[[]T](payload)
	if err != nil {
		return fmt.Errorf("%w: replace %s: %v", ErrMalformedAction, col.kind, err)
	}
	if items == nil {
		items = []T{}
	}
	*col.items(c) = items
	return nil
}

func (col collection[T]) find(c *Collections, id string) (any, bool) {
	items := *col.items(c)
	idx := indexOf(items, id)
	if idx < 0 {
		return nil, false
	}
	return items[idx], true
}

func (col collection[T]) list(c *Collections) []any {
	items := *col.items(c)
	out := make([]any, len(items))
	for i := range items {
		out[i] = items[i]
	}
	return out
}

func metaOf[T any](item *T) *models.Base {
	return any(item).(interface{ Meta() *models.Base }).Meta()
}

func indexOf[T any](items []T, id string) int {
	for i := range items {
		if metaOf(&items[i]).ID == id {
			return i
		}
	}
	return -1
}

// decode converts a payload into T through its JSON form, which also
// detaches the result from any slices or maps the caller still holds.
func decode[T any](payload any) (T, error) {
	var out T
	data, err := toJSON(payload)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}

func toJSON(payload any) ([]byte, error) {
	switch p := payload.(type) {
	case json.RawMessage:
		return p, nil
	case []byte:
		return p, nil
	case string:
		return []byte(p), nil
	default:
		return json.Marshal(p)
	}
}
