package views

import (
	"time"

	"admin-store/internal/models"
	"admin-store/internal/store"

	"github.com/shopspring/decimal"
)

// LowStock returns the items at or below their threshold
func LowStock(items []models.InventoryItem) []models.InventoryItem {
	out := []models.InventoryItem{}
	for _, item := range items {
		if item.CurrentStock <= item.LowStockThreshold {
			out = append(out, item)
		}
	}
	return out
}

// Valuation summarizes inventory worth
type Valuation struct {
	TotalValue    float64 `json:"total_value"`
	TotalUnits    int     `json:"total_units"`
	ReservedUnits int     `json:"reserved_units"`
	ItemCount     int     `json:"item_count"`
	LowStock      int     `json:"low_stock"`
	OutOfStock    int     `json:"out_of_stock"`
}

// InventoryValuation sums the value and units of all inventory items
func InventoryValuation(items []models.InventoryItem) Valuation {
	total := decimal.Zero
	v := Valuation{ItemCount: len(items)}
	for _, item := range items {
		total = total.Add(decimal.NewFromFloat(item.Value))
		v.TotalUnits += item.CurrentStock
		v.ReservedUnits += item.ReservedStock
		if item.CurrentStock == 0 {
			v.OutOfStock++
		}
		if item.CurrentStock <= item.LowStockThreshold {
			v.LowStock++
		}
	}
	v.TotalValue = money(total)
	return v
}

// OrderMetrics summarizes orders by status and revenue
type OrderMetrics struct {
	Total             int            `json:"total"`
	ByStatus          map[string]int `json:"by_status"`
	Revenue           float64        `json:"revenue"`
	AverageOrderValue float64        `json:"average_order_value"`
	ItemsSold         int            `json:"items_sold"`
}

// OrderMetricsOf computes order counts and revenue. Cancelled orders are
// counted by status but excluded from revenue and the average.
func OrderMetricsOf(orders []models.Order) OrderMetrics {
	m := OrderMetrics{Total: len(orders), ByStatus: map[string]int{}}
	revenue := decimal.Zero
	paid := 0
	for _, o := range orders {
		m.ByStatus[o.Status]++
		if o.Status == models.OrderStatusCancelled {
			continue
		}
		paid++
		revenue = revenue.Add(decimal.NewFromFloat(o.Total))
		for _, item := range o.Items {
			m.ItemsSold += item.Quantity
		}
	}
	m.Revenue = money(revenue)
	if paid > 0 {
		m.AverageOrderValue = money(revenue.Div(decimal.NewFromInt(int64(paid))))
	}
	return m
}

// SegmentShare is the size of one customer segment
type SegmentShare struct {
	Segment    string `json:"segment"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// CustomerSegments counts customers per segment
type CustomerSegments struct {
	Total    int            `json:"total"`
	Segments []SegmentShare `json:"segments"`
}

// CustomerSegmentsOf counts customers per segment with rounded percentages of the total
func CustomerSegmentsOf(customers []models.Customer) CustomerSegments {
	counts := map[string]int{}
	for _, c := range customers {
		counts[c.Segment]++
	}

	out := CustomerSegments{Total: len(customers)}
	for _, seg := range []string{models.SegmentNew, models.SegmentRegular, models.SegmentVIP} {
		out.Segments = append(out.Segments, SegmentShare{
			Segment:    seg,
			Count:      counts[seg],
			Percentage: percent(counts[seg], len(customers)),
		})
	}
	return out
}

// ProductMetrics summarizes the catalog
type ProductMetrics struct {
	Total         int     `json:"total"`
	Active        int     `json:"active"`
	OutOfStock    int     `json:"out_of_stock"`
	LowStock      int     `json:"low_stock"`
	TotalSales    int     `json:"total_sales"`
	AverageRating float64 `json:"average_rating"`
	CatalogValue  float64 `json:"catalog_value"`
}

// ProductMetricsOf computes catalog counts. The average rating only covers reviewed products.
func ProductMetricsOf(products []models.Product) ProductMetrics {
	m := ProductMetrics{Total: len(products)}
	value := decimal.Zero
	ratingSum := decimal.Zero
	rated := 0
	for _, p := range products {
		if p.Status == "active" {
			m.Active++
		}
		if p.Stock == 0 {
			m.OutOfStock++
		} else if p.Stock <= p.LowStockThreshold {
			m.LowStock++
		}
		m.TotalSales += p.Sales
		value = value.Add(decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(p.Stock))))
		if p.ReviewsCount > 0 {
			rated++
			ratingSum = ratingSum.Add(decimal.NewFromFloat(p.Rating))
		}
	}
	m.CatalogValue = money(value)
	if rated > 0 {
		m.AverageRating = round(ratingSum.Div(decimal.NewFromInt(int64(rated))), 1)
	}
	return m
}

// ReviewMetrics summarizes reviews
type ReviewMetrics struct {
	Total           int            `json:"total"`
	ByStatus        map[string]int `json:"by_status"`
	AverageRating   float64        `json:"average_rating"`
	Distribution    [5]int         `json:"distribution"`
	VerifiedPercent int            `json:"verified_percent"`
}

// ReviewMetricsOf computes rating distribution and moderation counts
func ReviewMetricsOf(reviews []models.Review) ReviewMetrics {
	m := ReviewMetrics{Total: len(reviews), ByStatus: map[string]int{}}
	sum, verified := 0, 0
	for _, r := range reviews {
		m.ByStatus[r.Status]++
		sum += r.Rating
		if r.Rating >= 1 && r.Rating <= 5 {
			m.Distribution[r.Rating-1]++
		}
		if r.Verified {
			verified++
		}
	}
	if len(reviews) > 0 {
		m.AverageRating = round(decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(len(reviews)))), 1)
	}
	m.VerifiedPercent = percent(verified, len(reviews))
	return m
}

// DashboardMetrics is the headline view over the whole store
type DashboardMetrics struct {
	Orders      OrderMetrics     `json:"orders"`
	Customers   CustomerSegments `json:"customers"`
	Products    ProductMetrics   `json:"products"`
	Reviews     ReviewMetrics    `json:"reviews"`
	Inventory   Valuation        `json:"inventory"`
	LowStock    int              `json:"low_stock"`
	SyncStatus  string           `json:"sync_status"`
	IsOnline    bool             `json:"is_online"`
	LastUpdated time.Time        `json:"last_updated"`
}

// Dashboard computes every aggregate from one state snapshot
func Dashboard(state store.State) DashboardMetrics {
	return DashboardMetrics{
		Orders:      OrderMetricsOf(state.Orders),
		Customers:   CustomerSegmentsOf(state.Customers),
		Products:    ProductMetricsOf(state.Products),
		Reviews:     ReviewMetricsOf(state.Reviews),
		Inventory:   InventoryValuation(state.Inventory),
		LowStock:    len(LowStock(state.Inventory)),
		SyncStatus:  string(state.SyncStatus),
		IsOnline:    state.IsOnline,
		LastUpdated: state.LastUpdated,
	}
}

// percent returns part/total as a rounded whole percentage, 0 when total is 0
func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(decimal.NewFromInt(int64(part * 100)).Div(decimal.NewFromInt(int64(total))).Round(0).IntPart())
}

func money(d decimal.Decimal) float64 {
	return round(d, 2)
}

func round(d decimal.Decimal, places int32) float64 {
	f, _ := d.Round(places).Float64()
	return f
}
