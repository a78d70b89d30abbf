package models

import "time"

// Base carries the identity and timestamps shared by every entity
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Meta exposes the embedded base so generic code can stamp ids and timestamps
func (b *Base) Meta() *Base {
	return b
}

// Address is a postal address used by customers and orders
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// ProductVariant is a sellable variation of a product
type ProductVariant struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	SKU        string            `json:"sku"`
	Price      float64           `json:"price"`
	Stock      int               `json:"stock"`
	Attributes map[string]string `json:"attributes"`
}

// Product represents a product in the catalog
type Product struct {
	Base
	Name              string           `json:"name" validate:"required"`
	Description       string           `json:"description"`
	SKU               string           `json:"sku" validate:"required"`
	CategoryID        string           `json:"category_id"`
	Category          string           `json:"category"`
	Price             float64          `json:"price" validate:"gte=0"`
	Cost              float64          `json:"cost" validate:"gte=0"`
	CompareAtPrice    float64          `json:"compare_at_price"`
	Stock             int              `json:"stock" validate:"gte=0"`
	LowStockThreshold int              `json:"low_stock_threshold" validate:"gte=0"`
	Sales             int              `json:"sales"`
	Rating            float64          `json:"rating"`
	ReviewsCount      int              `json:"reviews_count"`
	Status            string           `json:"status" validate:"omitempty,oneof=active draft archived"`
	Images            []string         `json:"images"`
	Tags              []string         `json:"tags"`
	Variants          []ProductVariant `json:"variants"`
}

// InventoryItem shadows the stock of exactly one product
type InventoryItem struct {
	Base
	ProductID         string     `json:"product_id" validate:"required"`
	ProductName       string     `json:"product_name"`
	SKU               string     `json:"sku"`
	CurrentStock      int        `json:"current_stock" validate:"gte=0"`
	ReservedStock     int        `json:"reserved_stock" validate:"gte=0"`
	AvailableStock    int        `json:"available_stock"`
	LowStockThreshold int        `json:"low_stock_threshold"`
	Cost              float64    `json:"cost"`
	Value             float64    `json:"value"`
	Location          string     `json:"location"`
	LastRestocked     *time.Time `json:"last_restocked,omitempty"`
}

// Customer represents a shop customer
type Customer struct {
	Base
	FirstName     string     `json:"first_name" validate:"required"`
	LastName      string     `json:"last_name" validate:"required"`
	Email         string     `json:"email" validate:"required,email"`
	Phone         string     `json:"phone"`
	Address       Address    `json:"address"`
	Segment       string     `json:"segment" validate:"omitempty,oneof=new regular vip"`
	Status        string     `json:"status"`
	TotalOrders   int        `json:"total_orders"`
	TotalSpent    float64    `json:"total_spent"`
	AvgOrderValue float64    `json:"avg_order_value"`
	LastOrderDate *time.Time `json:"last_order_date,omitempty"`
	Tags          []string   `json:"tags"`
}

// OrderItem is a line item referencing a product by id or sku
type OrderItem struct {
	ProductID string  `json:"product_id"`
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity" validate:"gte=1"`
	Price     float64 `json:"price" validate:"gte=0"`
	Total     float64 `json:"total"`
}

// Order represents a customer order
type Order struct {
	Base
	OrderNumber     string      `json:"order_number"`
	CustomerID      string      `json:"customer_id" validate:"required"`
	CustomerName    string      `json:"customer_name"`
	CustomerEmail   string      `json:"customer_email"`
	Items           []OrderItem `json:"items" validate:"required,min=1,dive"`
	Subtotal        float64     `json:"subtotal"`
	Tax             float64     `json:"tax"`
	Shipping        float64     `json:"shipping"`
	Discount        float64     `json:"discount"`
	Total           float64     `json:"total" validate:"gte=0"`
	Status          string      `json:"status" validate:"omitempty,oneof=pending processing shipped completed cancelled"`
	PaymentStatus   string      `json:"payment_status"`
	PaymentMethod   string      `json:"payment_method"`
	ShippingAddress Address     `json:"shipping_address"`
	CouponCode      string      `json:"coupon_code"`
	TrackingNumber  string      `json:"tracking_number"`
	Notes           string      `json:"notes"`
}

// Review is a customer's rating of a product
type Review struct {
	Base
	ProductID    string `json:"product_id" validate:"required"`
	ProductName  string `json:"product_name"`
	CustomerID   string `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	OrderID      string `json:"order_id"`
	Rating       int    `json:"rating" validate:"gte=1,lte=5"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	Status       string `json:"status" validate:"omitempty,oneof=pending approved flagged rejected"`
	Verified     bool   `json:"verified"`
	Helpful      int    `json:"helpful"`
	Response     string `json:"response"`
}

// Category groups products, optionally under a parent category
type Category struct {
	Base
	Name        string `json:"name" validate:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ParentID    string `json:"parent_id"`
	Status      string `json:"status"`
}

// Coupon is a redeemable discount code
type Coupon struct {
	Base
	Code            string     `json:"code" validate:"required"`
	Description     string     `json:"description"`
	Type            string     `json:"type" validate:"required,oneof=percentage fixed"`
	Value           float64    `json:"value" validate:"gt=0"`
	MinimumAmount   float64    `json:"minimum_amount" validate:"gte=0"`
	MaximumDiscount float64    `json:"maximum_discount" validate:"gte=0"`
	UsageLimit      int        `json:"usage_limit" validate:"gte=0"`
	UsageCount      int        `json:"usage_count" validate:"gte=0"`
	ValidFrom       *time.Time `json:"valid_from,omitempty"`
	ValidUntil      *time.Time `json:"valid_until,omitempty"`
	Status          string     `json:"status"`
}

// RuleCondition is a single predicate of a discount rule
type RuleCondition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// DiscountRule is an automatic discount applied by conditions
type DiscountRule struct {
	Base
	Name       string          `json:"name" validate:"required"`
	Type       string          `json:"type"`
	Value      float64         `json:"value"`
	AppliesTo  string          `json:"applies_to"`
	Conditions []RuleCondition `json:"conditions"`
	Priority   int             `json:"priority"`
	Active     bool            `json:"active"`
	StartsAt   *time.Time      `json:"starts_at,omitempty"`
	EndsAt     *time.Time      `json:"ends_at,omitempty"`
}

// ShippingZone is a geographic zone owning shipping methods
type ShippingZone struct {
	Base
	Name      string   `json:"name" validate:"required"`
	Countries []string `json:"countries"`
	Regions   []string `json:"regions"`
	Status    string   `json:"status"`
}

// ShippingMethod is a delivery option within a zone
type ShippingMethod struct {
	Base
	ZoneID   string  `json:"zone_id" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Type     string  `json:"type"`
	Rate     float64 `json:"rate" validate:"gte=0"`
	FreeOver float64 `json:"free_over"`
	MinDays  int     `json:"min_days"`
	MaxDays  int     `json:"max_days"`
	Active   bool    `json:"active"`
}

// User is a console staff member
type User struct {
	Base
	Name      string     `json:"name" validate:"required"`
	Email     string     `json:"email" validate:"required,email"`
	Role      string     `json:"role" validate:"omitempty,oneof=admin manager staff viewer"`
	Status    string     `json:"status"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// ActivityLog records a change made through the store
type ActivityLog struct {
	Base
	UserID      string `db:"user_id" json:"user_id"`
	Action      string `db:"action" json:"action"`
	Entity      string `db:"entity" json:"entity"`
	EntityID    string `db:"entity_id" json:"entity_id"`
	Description string `db:"description" json:"description"`
}

// Settings holds store-wide preferences
type Settings struct {
	StoreName      string  `json:"store_name"`
	Currency       string  `json:"currency"`
	Timezone       string  `json:"timezone"`
	TaxRate        float64 `json:"tax_rate"`
	LowStockAlerts bool    `json:"low_stock_alerts"`
	OrderPrefix    string  `json:"order_prefix"`
	ItemsPerPage   int     `json:"items_per_page"`
}

// DefaultSettings returns the settings of an empty store
func DefaultSettings() Settings {
	return Settings{
		StoreName:      "My Store",
		Currency:       "USD",
		Timezone:       "UTC",
		TaxRate:        0,
		LowStockAlerts: true,
		OrderPrefix:    "ORD",
		ItemsPerPage:   10,
	}
}

// Order statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// Review statuses
const (
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusFlagged  = "flagged"
	ReviewStatusRejected = "rejected"
)

// Customer segments
const (
	SegmentNew     = "new"
	SegmentRegular = "regular"
	SegmentVIP     = "vip"
)

// Coupon types
const (
	CouponTypePercentage = "percentage"
	CouponTypeFixed      = "fixed"
)

// Sentinel category assigned to products whose category was deleted
const (
	UncategorizedID   = ""
	UncategorizedName = "Uncategorized"
)

// CouponValidation is the outcome of checking a coupon against an order total
type CouponValidation struct {
	Valid    bool    `json:"valid"`
	Message  string  `json:"message"`
	Discount float64 `json:"discount"`
}
