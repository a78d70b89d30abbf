package store

import (
	"time"

	"admin-store/internal/models"
)

// SyncStatus describes the last bulk synchronization attempt
type SyncStatus string

// Sync statuses
const (
	SyncIdle    SyncStatus = "idle"
	SyncSyncing SyncStatus = "syncing"
	SyncSuccess SyncStatus = "success"
	SyncError   SyncStatus = "error"
)

// Collections holds every entity collection
type Collections struct {
	Products        []models.Product        `json:"products"`
	Inventory       []models.InventoryItem  `json:"inventory"`
	Customers       []models.Customer       `json:"customers"`
	Orders          []models.Order          `json:"orders"`
	Reviews         []models.Review         `json:"reviews"`
	Categories      []models.Category       `json:"categories"`
	Coupons         []models.Coupon         `json:"coupons"`
	DiscountRules   []models.DiscountRule   `json:"discount_rules"`
	ShippingZones   []models.ShippingZone   `json:"shipping_zones"`
	ShippingMethods []models.ShippingMethod `json:"shipping_methods"`
	Users           []models.User           `json:"users"`
	ActivityLogs    []models.ActivityLog    `json:"activity_logs"`
}

// State is an immutable snapshot of the store. Reduce never modifies a State in place.
type State struct {
	Collections
	Settings    models.Settings `json:"settings"`
	LastUpdated time.Time       `json:"last_updated"`
	Loading     bool            `json:"loading"`
	IsOnline    bool            `json:"is_online"`
	SyncStatus  SyncStatus      `json:"sync_status"`
}

// NewState returns an empty state with default settings
func NewState() State {
	return State{
		Collections: emptyCollections(),
		Settings:    models.DefaultSettings(),
		IsOnline:    true,
		SyncStatus:  SyncIdle,
	}
}

func emptyCollections() Collections {
	return Collections{
		Products:        []models.Product{},
		Inventory:       []models.InventoryItem{},
		Customers:       []models.Customer{},
		Orders:          []models.Order{},
		Reviews:         []models.Review{},
		Categories:      []models.Category{},
		Coupons:         []models.Coupon{},
		DiscountRules:   []models.DiscountRule{},
		ShippingZones:   []models.ShippingZone{},
		ShippingMethods: []models.ShippingMethod{},
		Users:           []models.User{},
		ActivityLogs:    []models.ActivityLog{},
	}
}

// withEmptyDefaults replaces nil collections with empty ones
func (c Collections) withEmptyDefaults() Collections {
	c.Products = orEmpty(c.Products)
	c.Inventory = orEmpty(c.Inventory)
	c.Customers = orEmpty(c.Customers)
	c.Orders = orEmpty(c.Orders)
	c.Reviews = orEmpty(c.Reviews)
	c.Categories = orEmpty(c.Categories)
	c.Coupons = orEmpty(c.Coupons)
	c.DiscountRules = orEmpty(c.DiscountRules)
	c.ShippingZones = orEmpty(c.ShippingZones)
	c.ShippingMethods = orEmpty(c.ShippingMethods)
	c.Users = orEmpty(c.Users)
	c.ActivityLogs = orEmpty(c.ActivityLogs)
	return c
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
