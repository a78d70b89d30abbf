package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"admin-store/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Struct checks the validate tags of an entity and returns human-readable messages.
// An empty result means the entity is valid.
func Struct(entity any) []string {
	err := validate.Struct(entity)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, message(fe))
	}
	return msgs
}

// ValidateProduct checks a product
func ValidateProduct(p models.Product) []string {
	msgs := Struct(p)
	if p.CompareAtPrice > 0 && p.CompareAtPrice < p.Price {
		msgs = append(msgs, "compare_at_price must not be lower than price")
	}
	return msgs
}

// ValidateCustomer checks a customer
func ValidateCustomer(c models.Customer) []string {
	return Struct(c)
}

// ValidateOrder checks an order and its line items
func ValidateOrder(o models.Order) []string {
	msgs := Struct(o)
	for i, item := range o.Items {
		if item.ProductID == "" && item.SKU == "" {
			msgs = append(msgs, fmt.Sprintf("items[%d] must reference a product id or sku", i))
		}
	}
	return msgs
}

// ValidateCouponFields checks a coupon definition
func ValidateCouponFields(c models.Coupon) []string {
	msgs := Struct(c)
	if c.Type == models.CouponTypePercentage && c.Value > 100 {
		msgs = append(msgs, "value must be at most 100 for percentage coupons")
	}
	if c.ValidFrom != nil && c.ValidUntil != nil && c.ValidUntil.Before(*c.ValidFrom) {
		msgs = append(msgs, "valid_until must be after valid_from")
	}
	return msgs
}

func message(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte", "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
}
