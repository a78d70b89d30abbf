package views

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// DefaultPageSize is used when a page size is not given
const DefaultPageSize = 10

// SortOrder is the direction of SortBy
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Page is one slice of a paginated list
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Query combines search, filters, sort and pagination
type Query struct {
	Search       string
	SearchFields []string
	Filters      map[string]string
	SortField    string
	SortOrder    SortOrder
	Page         int
	PageSize     int
}

// Apply runs search, filters, sort and pagination in that order
func Apply[T any](items []T, q Query) Page[T] {
	out := Search(items, q.Search, q.SearchFields...)
	for field, value := range q.Filters {
		out = FilterBy(out, field, value)
	}
	if q.SortField != "" {
		out = SortBy(out, q.SortField, q.SortOrder)
	}
	return Paginate(out, q.Page, q.PageSize)
}

// Search keeps items where any of the named fields contains query, ignoring case.
// An empty query keeps everything.
func Search[T any](items []T, query string, fields ...string) []T {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || len(fields) == 0 {
		return append([]T{}, items...)
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		v := reflect.ValueOf(item)
		for _, field := range fields {
			fv, ok := fieldByTag(v, field)
			if ok && strings.Contains(strings.ToLower(textOf(fv)), query) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// FilterBy keeps items whose field equals value, ignoring case.
// An empty value or "all" keeps everything.
func FilterBy[T any](items []T, field, value string) []T {
	if value == "" || strings.EqualFold(value, "all") {
		return append([]T{}, items...)
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		fv, ok := fieldByTag(reflect.ValueOf(item), field)
		if ok && strings.EqualFold(textOf(fv), value) {
			out = append(out, item)
		}
	}
	return out
}

// SortBy returns a stably sorted copy. Only string and numeric fields are
// ordered; any other field type leaves the input order unchanged.
func SortBy[T any](items []T, field string, order SortOrder) []T {
	out := append([]T{}, items...)
	sort.SliceStable(out, func(i, j int) bool {
		a, okA := fieldByTag(reflect.ValueOf(out[i]), field)
		b, okB := fieldByTag(reflect.ValueOf(out[j]), field)
		if !okA || !okB {
			return false
		}
		c := compare(a, b)
		if order == Desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

// Paginate slices items into the 1-based page of the given size
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}

	total := len(items)
	p := Page[T]{
		Items:      []T{},
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}

	start := (page - 1) * pageSize
	if start >= total {
		return p
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	p.Items = append(p.Items, items[start:end]...)
	return p
}

func compare(a, b reflect.Value) int {
	switch {
	case a.Kind() == reflect.String && b.Kind() == reflect.String:
		return strings.Compare(strings.ToLower(a.String()), strings.ToLower(b.String()))
	case isNumber(a) && isNumber(b):
		x, y := toFloat(a), toFloat(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

func isNumber(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func toFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	default:
		return v.Float()
	}
}

func textOf(v reflect.Value) string {
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Slice:
		parts := make([]string, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			parts = append(parts, textOf(v.Index(i)))
		}
		return strings.Join(parts, " ")
	case reflect.Pointer:
		if v.IsNil() {
			return ""
		}
		return textOf(v.Elem())
	}
	return fmt.Sprint(v.Interface())
}

// fieldIndex caches json tag name -> field index path per struct type
var fieldIndex sync.Map

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.Map {
		fv := v.MapIndex(reflect.ValueOf(name))
		if !fv.IsValid() {
			return reflect.Value{}, false
		}
		for fv.Kind() == reflect.Interface && !fv.IsNil() {
			fv = fv.Elem()
		}
		return fv, true
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}

	idx, ok := indexFor(v.Type())[name]
	if !ok {
		return reflect.Value{}, false
	}
	return v.FieldByIndex(idx), true
}

func indexFor(t reflect.Type) map[string][]int {
	if cached, ok := fieldIndex.Load(t); ok {
		return cached.(map[string][]int)
	}
	m := map[string][]int{}
	collectFields(t, nil, m)
	fieldIndex.Store(t, m)
	return m
}

func collectFields(t reflect.Type, prefix []int, m map[string][]int) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		path := append(append([]int{}, prefix...), i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			collectFields(f.Type, path, m)
			continue
		}
		if !f.IsExported() {
			continue
		}
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if _, exists := m[name]; !exists {
			m[name] = path
		}
	}
}
