package service

import (
	"context"
	"net/http"

	"admin-store/internal/models"
	"admin-store/internal/remote"
)

// CustomerService maps customer operations onto /customers
type CustomerService struct {
	*Resource[models.Customer]
}

// NewCustomerService creates a customer service
func NewCustomerService(client *remote.Client) *CustomerService {
	return &CustomerService{Resource: NewResource[models.Customer](client, "customers")}
}

// Orders lists the orders placed by a customer
func (s *CustomerService) Orders(ctx context.Context, id string) ([]models.Order, error) {
	var out []models.Order
	err := call(ctx, s.client, http.MethodGet, s.Path(id, "orders"), nil, &out)
	return out, err
}

// OrderService maps order operations onto /orders
type OrderService struct {
	*Resource[models.Order]
}

// NewOrderService creates an order service
func NewOrderService(client *remote.Client) *OrderService {
	return &OrderService{Resource: NewResource[models.Order](client, "orders")}
}

// RefundRequest describes a full or partial refund
type RefundRequest struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason,omitempty"`
}

// UpdateStatus moves an order to a new fulfilment status
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (models.Order, error) {
	var out models.Order
	err := call(ctx, s.client, http.MethodPut, s.Path(id, "status"), map[string]string{"status": status}, &out)
	return out, err
}

// Cancel cancels an order
func (s *OrderService) Cancel(ctx context.Context, id, reason string) (models.Order, error) {
	var out models.Order
	err := call(ctx, s.client, http.MethodPost, s.Path(id, "cancel"), map[string]string{"reason": reason}, &out)
	return out, err
}

// Refund refunds an order
func (s *OrderService) Refund(ctx context.Context, id string, req RefundRequest) (models.Order, error) {
	var out models.Order
	err := call(ctx, s.client, http.MethodPost, s.Path(id, "refund"), req, &out)
	return out, err
}

// CouponService maps coupon operations onto /coupons
type CouponService struct {
	*Resource[models.Coupon]
}

// NewCouponService creates a coupon service
func NewCouponService(client *remote.Client) *CouponService {
	return &CouponService{Resource: NewResource[models.Coupon](client, "coupons")}
}

// Validate asks the server whether a code applies to an order total
func (s *CouponService) Validate(ctx context.Context, code string, orderTotal float64) (models.CouponValidation, error) {
	var out models.CouponValidation
	body := map[string]any{"code": code, "order_total": orderTotal}
	err := call(ctx, s.client, http.MethodPost, s.Path("validate"), body, &out)
	return out, err
}

// UserService maps staff user operations onto /users
type UserService struct {
	*Resource[models.User]
}

// NewUserService creates a user service
func NewUserService(client *remote.Client) *UserService {
	return &UserService{Resource: NewResource[models.User](client, "users")}
}

// UpdateRole changes a user's console role
func (s *UserService) UpdateRole(ctx context.Context, id, role string) (models.User, error) {
	var out models.User
	err := call(ctx, s.client, http.MethodPut, s.Path(id, "role"), map[string]string{"role": role}, &out)
	return out, err
}
