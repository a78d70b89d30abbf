package store

import (
	"fmt"
	"strings"
	"time"

	"admin-store/internal/models"
)

// InventoryIDFor returns the id of the inventory item synthesized for a product
func InventoryIDFor(productID string) string {
	return "inv-" + productID
}

// DeriveInventory recomputes the derived fields of an inventory item
func DeriveInventory(item models.InventoryItem) models.InventoryItem {
	item.AvailableStock = item.CurrentStock - item.ReservedStock
	item.Value = float64(item.CurrentStock) * item.Cost
	return item
}

// ProductRating returns the mean rating and review count of a product
func ProductRating(reviews []models.Review, productID string) (float64, int) {
	var sum, count int
	for _, r := range reviews {
		if r.ProductID == productID {
			sum += r.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0
	}
	return float64(sum) / float64(count), count
}

func guardProduct(c *Collections, ch change) error {
	p, ok := ch.after.(models.Product)
	if !ok {
		return nil
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: product %s stock %d is negative", ErrInvariant, p.ID, p.Stock)
	}
	if p.SKU == "" {
		return nil
	}
	for _, other := range c.Products {
		if other.ID != p.ID && strings.EqualFold(other.SKU, p.SKU) {
			return fmt.Errorf("%w: sku %q already used by product %s", ErrConflict, p.SKU, other.ID)
		}
	}
	return nil
}

func guardInventory(c *Collections, ch change) error {
	item, ok := ch.after.(models.InventoryItem)
	if !ok {
		return nil
	}
	if item.ProductID == "" {
		return fmt.Errorf("%w: inventory item %s has no product", ErrMalformedAction, item.ID)
	}
	if item.CurrentStock < 0 || item.ReservedStock < 0 {
		return fmt.Errorf("%w: inventory item %s has negative stock", ErrInvariant, item.ID)
	}
	for _, other := range c.Inventory {
		if other.ID != item.ID && other.ProductID == item.ProductID {
			return fmt.Errorf("%w: product %s already has inventory item %s", ErrConflict, item.ProductID, other.ID)
		}
	}
	return nil
}

func guardOrder(_ *Collections, ch change) error {
	o, ok := ch.after.(models.Order)
	if !ok || ch.op != ActionCreate {
		return nil
	}
	for i, item := range o.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: order %s line %d has quantity %d", ErrInvariant, o.ID, i, item.Quantity)
		}
	}
	return nil
}

func guardReview(_ *Collections, ch change) error {
	r, ok := ch.after.(models.Review)
	if !ok {
		return nil
	}
	if r.ProductID == "" {
		return fmt.Errorf("%w: review %s has no product", ErrMalformedAction, r.ID)
	}
	if r.Rating < 1 || r.Rating > 5 {
		return fmt.Errorf("%w: review %s rating %d out of range", ErrInvariant, r.ID, r.Rating)
	}
	return nil
}

func guardCoupon(c *Collections, ch change) error {
	cp, ok := ch.after.(models.Coupon)
	if !ok {
		return nil
	}
	for _, other := range c.Coupons {
		if other.ID != cp.ID && strings.EqualFold(other.Code, cp.Code) {
			return fmt.Errorf("%w: coupon code %q already used by %s", ErrConflict, cp.Code, other.ID)
		}
	}
	return nil
}

func cascadeProduct(c *Collections, ch change, at time.Time) {
	switch ch.op {
	case ActionCreate:
		p := ch.after.(models.Product)
		recomputeRatings(c, map[string]bool{p.ID: true}, at)
		if hasInventory(c, p.ID) {
			mirrorProductToInventory(c, p, at)
			return
		}
		if p.Stock <= 0 {
			return
		}
		item := DeriveInventory(models.InventoryItem{
			Base:              models.Base{ID: InventoryIDFor(p.ID), CreatedAt: at, UpdatedAt: at},
			ProductID:         p.ID,
			ProductName:       p.Name,
			SKU:               p.SKU,
			CurrentStock:      p.Stock,
			LowStockThreshold: p.LowStockThreshold,
			Cost:              p.Cost,
		})
		c.Inventory = append(c.Inventory[:len(c.Inventory):len(c.Inventory)], item)

	case ActionUpdate:
		p := ch.after.(models.Product)
		recomputeRatings(c, map[string]bool{p.ID: true}, at)
		mirrorProductToInventory(c, p, at)

	case ActionDelete:
		c.Inventory = filter(c.Inventory, func(i models.InventoryItem) bool { return i.ProductID != ch.id })
		c.Reviews = filter(c.Reviews, func(r models.Review) bool { return r.ProductID != ch.id })
	}
}

func cascadeInventory(c *Collections, ch change, at time.Time) {
	switch ch.op {
	case ActionCreate, ActionUpdate:
		item := ch.after.(models.InventoryItem)
		var product *models.Product
		for i := range c.Products {
			if c.Products[i].ID == item.ProductID {
				product = &c.Products[i]
				break
			}
		}
		if ch.op == ActionCreate && item.Cost == 0 && product != nil {
			item.Cost = product.Cost
		}
		item = DeriveInventory(item)
		c.Inventory = mapItems(c.Inventory, func(i models.InventoryItem) models.InventoryItem {
			if i.ID == item.ID {
				return item
			}
			return i
		})
		if product != nil && product.Stock != item.CurrentStock {
			c.Products = mapItems(c.Products, func(p models.Product) models.Product {
				if p.ID == item.ProductID {
					p.Stock = item.CurrentStock
					p.UpdatedAt = at
				}
				return p
			})
		}

	case ActionBulkUpdate, ActionSync:
		c.Inventory = mapItems(c.Inventory, DeriveInventory)
	}
}

func cascadeOrder(c *Collections, ch change, at time.Time) {
	if ch.op != ActionCreate {
		return
	}
	o := ch.after.(models.Order)

	sold := make(map[int]int)
	for _, line := range o.Items {
		idx := productIndex(c.Products, line.ProductID, line.SKU)
		if idx < 0 {
			continue
		}
		sold[idx] += line.Quantity
	}
	if len(sold) == 0 {
		return
	}

	products := make([]models.Product, len(c.Products))
	copy(products, c.Products)
	for idx, qty := range sold {
		products[idx].Sales += qty
		products[idx].UpdatedAt = at
	}
	c.Products = products
}

func cascadeReview(c *Collections, ch change, at time.Time) {
	touched := make(map[string]bool)
	switch ch.op {
	case ActionCreate, ActionUpdate, ActionDelete:
		if r, ok := ch.before.(models.Review); ok {
			touched[r.ProductID] = true
		}
		if r, ok := ch.after.(models.Review); ok {
			touched[r.ProductID] = true
		}
	case ActionBulkUpdate, ActionSync:
		for _, p := range c.Products {
			touched[p.ID] = true
		}
	}
	recomputeRatings(c, touched, at)
}

// recomputeRatings rewrites rating and reviews_count of the given products from their reviews
func recomputeRatings(c *Collections, productIDs map[string]bool, at time.Time) {
	if len(productIDs) == 0 {
		return
	}
	c.Products = mapItems(c.Products, func(p models.Product) models.Product {
		if !productIDs[p.ID] {
			return p
		}
		rating, count := ProductRating(c.Reviews, p.ID)
		if p.Rating != rating || p.ReviewsCount != count {
			p.Rating = rating
			p.ReviewsCount = count
			p.UpdatedAt = at
		}
		return p
	})
}

func cascadeCategory(c *Collections, ch change, at time.Time) {
	switch ch.op {
	case ActionUpdate:
		cat := ch.after.(models.Category)
		c.Products = mapItems(c.Products, func(p models.Product) models.Product {
			if p.CategoryID == cat.ID && p.Category != cat.Name {
				p.Category = cat.Name
				p.UpdatedAt = at
			}
			return p
		})

	case ActionDelete:
		c.Products = mapItems(c.Products, func(p models.Product) models.Product {
			if p.CategoryID == ch.id {
				p.CategoryID = models.UncategorizedID
				p.Category = models.UncategorizedName
				p.UpdatedAt = at
			}
			return p
		})
		c.Categories = mapItems(c.Categories, func(cat models.Category) models.Category {
			if cat.ParentID == ch.id {
				cat.ParentID = ""
				cat.UpdatedAt = at
			}
			return cat
		})
	}
}

func cascadeShippingZone(c *Collections, ch change, _ time.Time) {
	if ch.op != ActionDelete {
		return
	}
	c.ShippingMethods = filter(c.ShippingMethods, func(m models.ShippingMethod) bool { return m.ZoneID != ch.id })
}

func mirrorProductToInventory(c *Collections, p models.Product, at time.Time) {
	c.Inventory = mapItems(c.Inventory, func(i models.InventoryItem) models.InventoryItem {
		if i.ProductID != p.ID {
			return i
		}
		next := i
		next.CurrentStock = p.Stock
		next.ProductName = p.Name
		next.SKU = p.SKU
		next.Cost = p.Cost
		next.LowStockThreshold = p.LowStockThreshold
		next = DeriveInventory(next)
		if next != i {
			next.UpdatedAt = at
		}
		return next
	})
}

func hasInventory(c *Collections, productID string) bool {
	for _, i := range c.Inventory {
		if i.ProductID == productID {
			return true
		}
	}
	return false
}

func productIndex(products []models.Product, id, sku string) int {
	for i, p := range products {
		if id != "" && p.ID == id {
			return i
		}
	}
	if sku == "" {
		return -1
	}
	for i, p := range products {
		if strings.EqualFold(p.SKU, sku) {
			return i
		}
	}
	return -1
}

// filter returns a new slice holding the items that satisfy keep
func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// mapItems returns a new slice with fn applied to every item
func mapItems[T any](items []T, fn func(T) T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		out[i] = fn(item)
	}
	return out
}
