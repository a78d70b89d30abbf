package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"admin-store/internal/remote"
)

// maxFetchPages bounds how many pages a full fetch follows
const maxFetchPages = 100

// ListParams are the query parameters accepted by list endpoints
type ListParams struct {
	Page    int
	Limit   int
	Search  string
	Sort    string
	Filters map[string]string
}

// Values encodes the params as a query string
func (p ListParams) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if p.Sort != "" {
		v.Set("sort", p.Sort)
	}
	for k, val := range p.Filters {
		v.Set(k, val)
	}
	return v
}

// Fetcher loads the full remote collection of one kind
type Fetcher interface {
	FetchAll(ctx context.Context) (any, error)
}

// Writer persists single records of one kind on the remote API
type Writer interface {
	CreateRecord(ctx context.Context, payload any) (any, error)
	UpdateRecord(ctx context.Context, id string, payload any) (any, error)
	DeleteRecord(ctx context.Context, id string) error
}

// Resource maps CRUD calls for one entity onto /<path>[/<id>]
type Resource[T any] struct {
	client *remote.Client
	path   string
}

// NewResource creates a resource rooted at path
func NewResource[T any](client *remote.Client, path string) *Resource[T] {
	return &Resource[T]{client: client, path: "/" + strings.Trim(path, "/")}
}

// Path joins the resource root with extra segments
func (r *Resource[T]) Path(parts ...string) string {
	p := r.path
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// List returns one page of records
func (r *Resource[T]) List(ctx context.Context, params ListParams) ([]T, *remote.Pagination, error) {
	env, err := r.client.Get(ctx, r.path, params.Values())
	if err != nil {
		return nil, nil, err
	}
	var items []T
	if err := env.Decode(&items); err != nil {
		return nil, nil, err
	}
	return items, env.Pagination, nil
}

// All fetches every page of the collection
func (r *Resource[T]) All(ctx context.Context) ([]T, error) {
	all := []T{}
	for page := 1; page <= maxFetchPages; page++ {
		items, pg, err := r.List(ctx, ListParams{Page: page})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s page %d: %w", r.path, page, err)
		}
		all = append(all, items...)
		if pg == nil || page >= pg.TotalPages || len(items) == 0 {
			break
		}
	}
	return all, nil
}

// Get returns a single record
func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	var out T
	env, err := r.client.Get(ctx, r.Path(id), nil)
	if err != nil {
		return out, err
	}
	err = env.Decode(&out)
	return out, err
}

// Create posts a new record and returns the server's version
func (r *Resource[T]) Create(ctx context.Context, payload any) (T, error) {
	var out T
	env, err := r.client.Post(ctx, r.path, payload)
	if err != nil {
		return out, err
	}
	err = env.Decode(&out)
	return out, err
}

// Update puts changes to a record and returns the server's version
func (r *Resource[T]) Update(ctx context.Context, id string, payload any) (T, error) {
	var out T
	env, err := r.client.Put(ctx, r.Path(id), payload)
	if err != nil {
		return out, err
	}
	err = env.Decode(&out)
	return out, err
}

// Delete removes a record
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	_, err := r.client.Delete(ctx, r.Path(id))
	return err
}

// FetchAll implements Fetcher
func (r *Resource[T]) FetchAll(ctx context.Context) (any, error) {
	return r.All(ctx)
}

// CreateRecord implements Writer
func (r *Resource[T]) CreateRecord(ctx context.Context, payload any) (any, error) {
	return r.Create(ctx, payload)
}

// UpdateRecord implements Writer
func (r *Resource[T]) UpdateRecord(ctx context.Context, id string, payload any) (any, error) {
	return r.Update(ctx, id, payload)
}

// DeleteRecord implements Writer
func (r *Resource[T]) DeleteRecord(ctx context.Context, id string) error {
	return r.Delete(ctx, id)
}

// call sends body to path and decodes the returned data into out
func call(ctx context.Context, client *remote.Client, method, path string, body, out any) error {
	var (
		env *remote.Envelope
		err error
	)
	switch method {
	case http.MethodGet:
		env, err = client.Get(ctx, path, nil)
	case http.MethodPost:
		env, err = client.Post(ctx, path, body)
	case http.MethodPut:
		env, err = client.Put(ctx, path, body)
	case http.MethodDelete:
		env, err = client.Delete(ctx, path)
	default:
		return fmt.Errorf("unsupported method %s", method)
	}
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return env.Decode(out)
}
