package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-portal-api/internal/auth"
	"github.com/noah-isme/course-portal-api/internal/repository"
	"github.com/noah-isme/course-portal-api/internal/request"
	"github.com/noah-isme/course-portal-api/internal/validation"
	appErrors "github.com/noah-isme/course-portal-api/pkg/errors"
)

// Result is what a resource operation hands back to the transport layer.
type Result struct {
	Status  int
	Message string
	Data    interface{}
}

// ResourceService is the uniform CRUD surface the router dispatches to.
type ResourceService interface {
	Name() string
	KeyField() string
	List(ctx context.Context, req request.Request) (*Result, error)
	Get(ctx context.Context, req request.Request) (*Result, error)
	Create(ctx context.Context, req request.Request, identity *auth.Identity) (*Result, error)
	Update(ctx context.Context, req request.Request, identity *auth.Identity) (*Result, error)
	Delete(ctx context.Context, req request.Request, identity *auth.Identity) (*Result, error)
}

type resourceStore[T any] interface {
	Table() repository.Table
	List(ctx context.Context, q repository.ListQuery) ([]T, error)
	FindByKey(ctx context.Context, key interface{}) (*T, error)
	ExistsAny(ctx context.Context, conds []repository.Column, excludeKey interface{}) (bool, error)
	Insert(ctx context.Context, cols []repository.Column) (*T, error)
	Update(ctx context.Context, key interface{}, cols []repository.Column) (int64, error)
	Delete(ctx context.Context, key interface{}) error
}

type parentStore interface {
	Exists(ctx context.Context, key interface{}) (bool, error)
}

// Draft is a decoded and validated write. Unique lists the columns that must
// not collide with another row.
type Draft struct {
	Columns []repository.Column
	Unique  []repository.Column
}

// Parent links a child resource to the rows it hangs off.
type Parent struct {
	Label  string
	Column string
	Store  parentStore
}

// ResourceConfig declares one resource on top of the generic engine.
type ResourceConfig[T any] struct {
	Name     string
	Label    string
	Policy   auth.Policy
	Required []string
	Parent   *Parent
	// Touch names a timestamp column refreshed on every update.
	Touch  string
	Owner  func(*T) string
	Create func(req request.Request, identity *auth.Identity) (Draft, error)
	Update func(req request.Request, identity *auth.Identity) (Draft, error)
}

// Resource implements ResourceService for rows of type T.
type Resource[T any] struct {
	cfg    ResourceConfig[T]
	store  resourceStore[T]
	logger *zap.Logger
	now    func() time.Time
}

// NewResource constructs the engine for one resource.
func NewResource[T any](cfg ResourceConfig[T], store resourceStore[T], logger *zap.Logger) *Resource[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Label == "" {
		cfg.Label = cfg.Name
	}
	return &Resource[T]{cfg: cfg, store: store, logger: logger, now: time.Now}
}

// Name returns the resource name used in routes.
func (r *Resource[T]) Name() string {
	return r.cfg.Name
}

// KeyField names the column a single row is addressed by.
func (r *Resource[T]) KeyField() string {
	return r.store.Table().Key
}

// List returns the rows matching the search, sort and order query values.
// Child resources must be scoped to one parent.
func (r *Resource[T]) List(ctx context.Context, req request.Request) (*Result, error) {
	q := repository.ListQuery{
		Search: validation.SanitizeText(req.Query["search"]),
		Sort:   req.Query["sort"],
		Order:  req.Query["order"],
	}
	if parent := r.cfg.Parent; parent != nil {
		raw := req.Query[parent.Column]
		if raw == "" {
			return nil, appErrors.Validation(fmt.Sprintf("%s is required", parent.Column))
		}
		parentID, err := validation.ParseID(raw)
		if err != nil {
			return nil, appErrors.Validation(fmt.Sprintf("%s must be a positive integer", parent.Column))
		}
		q.Filters = append(q.Filters, repository.Column{Name: parent.Column, Value: parentID})
	}

	items, err := r.store.List(ctx, q)
	if err != nil {
		return nil, r.internal(err, "list")
	}
	return &Result{Status: http.StatusOK, Data: items}, nil
}

// Get returns one row by key.
func (r *Resource[T]) Get(ctx context.Context, req request.Request) (*Result, error) {
	key, err := r.key(req)
	if err != nil {
		return nil, err
	}
	item, err := r.load(ctx, key)
	if err != nil {
		return nil, err
	}
	return &Result{Status: http.StatusOK, Data: item}, nil
}

// Create validates and inserts a new row. Authorization, payload validation,
// parent existence and uniqueness are all checked before anything is written.
func (r *Resource[T]) Create(ctx context.Context, req request.Request, identity *auth.Identity) (*Result, error) {
	if err := auth.Authorize(http.MethodPost, identity, r.cfg.Policy, ""); err != nil {
		return nil, err
	}
	if missing := validation.RequireFields(req.Body, r.cfg.Required...); len(missing) > 0 {
		return nil, appErrors.Validation("missing required fields: " + strings.Join(missing, ", "))
	}
	if r.cfg.Create == nil {
		return nil, appErrors.Clone(appErrors.ErrMethodNotAllowed, fmt.Sprintf("%s cannot be created", r.cfg.Name))
	}

	draft, err := r.cfg.Create(req, identity)
	if err != nil {
		return nil, err
	}

	if parent := r.cfg.Parent; parent != nil {
		parentID, ok := columnValue(draft.Columns, parent.Column)
		if !ok {
			return nil, appErrors.Validation(fmt.Sprintf("%s is required", parent.Column))
		}
		exists, err := parent.Store.Exists(ctx, parentID)
		if err != nil {
			return nil, r.internal(err, "check parent of")
		}
		if !exists {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s not found", parent.Label))
		}
	}

	if len(draft.Unique) > 0 {
		taken, err := r.store.ExistsAny(ctx, draft.Unique, nil)
		if err != nil {
			return nil, r.internal(err, "check uniqueness of")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("%s already exists", r.cfg.Label))
		}
	}

	item, err := r.store.Insert(ctx, draft.Columns)
	if err != nil {
		return nil, r.internal(err, "create")
	}
	return &Result{Status: http.StatusCreated, Message: fmt.Sprintf("%s created", capitalize(r.cfg.Label)), Data: item}, nil
}

// Update applies a partial update. A missing row is reported before the
// payload is looked at.
func (r *Resource[T]) Update(ctx context.Context, req request.Request, identity *auth.Identity) (*Result, error) {
	key, err := r.key(req)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(http.MethodPut, identity, r.cfg.Policy, ""); err != nil {
		return nil, err
	}
	current, err := r.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := r.authorizeOwner(http.MethodPut, identity, current); err != nil {
		return nil, err
	}
	if r.cfg.Update == nil {
		return nil, appErrors.Clone(appErrors.ErrMethodNotAllowed, fmt.Sprintf("%s cannot be updated", r.cfg.Name))
	}

	draft, err := r.cfg.Update(req, identity)
	if err != nil {
		return nil, err
	}
	if len(draft.Columns) == 0 {
		return nil, appErrors.Validation("no fields to update")
	}

	if len(draft.Unique) > 0 {
		taken, err := r.store.ExistsAny(ctx, draft.Unique, key)
		if err != nil {
			return nil, r.internal(err, "check uniqueness of")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("%s already in use", columnNames(draft.Unique)))
		}
	}

	columns := draft.Columns
	if r.cfg.Touch != "" {
		columns = append(columns, repository.Column{Name: r.cfg.Touch, Value: r.now().UTC()})
	}
	affected, err := r.store.Update(ctx, key, columns)
	if err != nil {
		return nil, r.internal(err, "update")
	}

	updated, err := r.load(ctx, key)
	if err != nil {
		return nil, err
	}
	message := fmt.Sprintf("%s updated", capitalize(r.cfg.Label))
	if affected == 0 {
		message = "no changes applied"
	}
	return &Result{Status: http.StatusOK, Message: message, Data: updated}, nil
}

// Delete removes the row and its children atomically.
func (r *Resource[T]) Delete(ctx context.Context, req request.Request, identity *auth.Identity) (*Result, error) {
	key, err := r.key(req)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(http.MethodDelete, identity, r.cfg.Policy, ""); err != nil {
		return nil, err
	}
	current, err := r.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := r.authorizeOwner(http.MethodDelete, identity, current); err != nil {
		return nil, err
	}

	if err := r.store.Delete(ctx, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.notFound()
		}
		return nil, r.internal(err, "delete")
	}
	return &Result{Status: http.StatusOK, Message: fmt.Sprintf("%s deleted", capitalize(r.cfg.Label))}, nil
}

func (r *Resource[T]) authorizeOwner(method string, identity *auth.Identity, current *T) error {
	if r.cfg.Policy != auth.PolicyOwner || r.cfg.Owner == nil {
		return nil
	}
	return auth.Authorize(method, identity, r.cfg.Policy, r.cfg.Owner(current))
}

// key resolves the addressed row. Integer keys are parsed strictly.
func (r *Resource[T]) key(req request.Request) (interface{}, error) {
	field := r.store.Table().Key
	raw := req.Key(field)
	if raw == "" {
		return nil, appErrors.Validation(fmt.Sprintf("%s is required", field))
	}
	if field != "id" {
		return raw, nil
	}
	id, err := validation.ParseID(raw)
	if err != nil {
		return nil, appErrors.Validation("id must be a positive integer")
	}
	return id, nil
}

func (r *Resource[T]) load(ctx context.Context, key interface{}) (*T, error) {
	item, err := r.store.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.notFound()
		}
		return nil, r.internal(err, "load")
	}
	return item, nil
}

func (r *Resource[T]) notFound() error {
	return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s not found", r.cfg.Label))
}

func (r *Resource[T]) internal(err error, action string) error {
	r.logger.Error("resource storage failure",
		zap.String("resource", r.cfg.Name),
		zap.String("action", action),
		zap.Error(err),
	)
	return appErrors.Internal(err, fmt.Sprintf("failed to %s %s", action, r.cfg.Label))
}

func columnValue(cols []repository.Column, name string) (interface{}, bool) {
	for _, col := range cols {
		if col.Name == name {
			return col.Value, true
		}
	}
	return nil, false
}

func columnNames(cols []repository.Column) string {
	names := make([]string, 0, len(cols))
	for _, col := range cols {
		names = append(names, col.Name)
	}
	return strings.Join(names, ", ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
