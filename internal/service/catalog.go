package service

import (
	"context"
	"io"
	"net/http"

	"admin-store/internal/models"
	"admin-store/internal/remote"
)

// ProductService maps product operations onto /products
type ProductService struct {
	*Resource[models.Product]
}

// NewProductService creates a product service
func NewProductService(client *remote.Client) *ProductService {
	return &ProductService{Resource: NewResource[models.Product](client, "products")}
}

// ProductUpdate is one entry of a bulk update
type ProductUpdate struct {
	ID     string   `json:"id"`
	Stock  *int     `json:"stock,omitempty"`
	Price  *float64 `json:"price,omitempty"`
	Status string   `json:"status,omitempty"`
}

// ProductImage is the stored location of an uploaded image
type ProductImage struct {
	URL string `json:"url"`
}

// Search lists products matching a free-text query
func (s *ProductService) Search(ctx context.Context, query string, params ListParams) ([]models.Product, *remote.Pagination, error) {
	params.Search = query
	return s.List(ctx, params)
}

// UpdateStock sets the stock level of a product
func (s *ProductService) UpdateStock(ctx context.Context, id string, stock int) (models.Product, error) {
	var out models.Product
	err := call(ctx, s.client, http.MethodPut, s.Path(id, "stock"), map[string]int{"stock": stock}, &out)
	return out, err
}

// BulkUpdate applies several partial product updates in one call
func (s *ProductService) BulkUpdate(ctx context.Context, updates []ProductUpdate) ([]models.Product, error) {
	var out []models.Product
	err := call(ctx, s.client, http.MethodPost, s.Path("bulk"), map[string]any{"products": updates}, &out)
	return out, err
}

// UploadImage attaches an image file to a product
func (s *ProductService) UploadImage(ctx context.Context, id, filename string, file io.Reader) (ProductImage, error) {
	var out ProductImage
	env, err := s.client.Upload(ctx, s.Path(id, "images"), "image", filename, file, nil)
	if err != nil {
		return out, err
	}
	err = env.Decode(&out)
	return out, err
}

// CategoryService maps category operations onto /categories
type CategoryService struct {
	*Resource[models.Category]
}

// NewCategoryService creates a category service
func NewCategoryService(client *remote.Client) *CategoryService {
	return &CategoryService{Resource: NewResource[models.Category](client, "categories")}
}

// InventoryService maps inventory operations onto /inventory.
// Inventory records are derived from products, so only reads and stock adjustments are exposed.
type InventoryService struct {
	res *Resource[models.InventoryItem]
}

// NewInventoryService creates an inventory service
func NewInventoryService(client *remote.Client) *InventoryService {
	return &InventoryService{res: NewResource[models.InventoryItem](client, "inventory")}
}

// StockAdjustment is a relative change to an inventory item
type StockAdjustment struct {
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason,omitempty"`
}

// List returns one page of inventory items
func (s *InventoryService) List(ctx context.Context, params ListParams) ([]models.InventoryItem, *remote.Pagination, error) {
	return s.res.List(ctx, params)
}

// Get returns one inventory item
func (s *InventoryService) Get(ctx context.Context, id string) (models.InventoryItem, error) {
	return s.res.Get(ctx, id)
}

// FetchAll implements Fetcher
func (s *InventoryService) FetchAll(ctx context.Context) (any, error) {
	return s.res.All(ctx)
}

// AdjustStock applies a relative stock change
func (s *InventoryService) AdjustStock(ctx context.Context, id string, adj StockAdjustment) (models.InventoryItem, error) {
	var out models.InventoryItem
	err := call(ctx, s.res.client, http.MethodPost, s.res.Path(id, "adjust"), adj, &out)
	return out, err
}

// LowStock lists items at or below their threshold
func (s *InventoryService) LowStock(ctx context.Context) ([]models.InventoryItem, error) {
	var out []models.InventoryItem
	err := call(ctx, s.res.client, http.MethodGet, s.res.Path("low-stock"), nil, &out)
	return out, err
}

// ReviewService maps review operations onto /reviews
type ReviewService struct {
	*Resource[models.Review]
}

// NewReviewService creates a review service
func NewReviewService(client *remote.Client) *ReviewService {
	return &ReviewService{Resource: NewResource[models.Review](client, "reviews")}
}

// UpdateStatus moderates a review
func (s *ReviewService) UpdateStatus(ctx context.Context, id, status string) (models.Review, error) {
	var out models.Review
	err := call(ctx, s.client, http.MethodPut, s.Path(id, "status"), map[string]string{"status": status}, &out)
	return out, err
}

// Respond posts the store's public reply to a review
func (s *ReviewService) Respond(ctx context.Context, id, response string) (models.Review, error) {
	var out models.Review
	err := call(ctx, s.client, http.MethodPost, s.Path(id, "respond"), map[string]string{"response": response}, &out)
	return out, err
}
