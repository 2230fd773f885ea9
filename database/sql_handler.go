package database

import (
	"context"
	"errors"
	"strings"

	"go-rbac-admin/domain"
	"go-rbac-admin/pkg/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultPerPage = 10

// SQLHandler is the soft-delete aware store every entity repository embeds.
// T is the row type and V its filter. applyFilter must add "deleted_at = 0"
// unless the filter asks for deleted rows.
type SQLHandler[T any, V any] struct {
	db          *gorm.DB
	applyFilter func(*gorm.DB, *V) *gorm.DB
}

func NewSQLHandler[T any, V any](db *gorm.DB, applyFilter func(*gorm.DB, *V) *gorm.DB) *SQLHandler[T, V] {
	return &SQLHandler[T, V]{db: db, applyFilter: applyFilter}
}

type DBOption func(*gorm.DB) *gorm.DB

// WithTx runs the call inside tx instead of on the handler's pool.
func WithTx(tx *gorm.DB) DBOption {
	return func(db *gorm.DB) *gorm.DB {
		if tx != nil {
			return tx
		}
		return db
	}
}

// WithLock takes a row lock on the selected rows for the rest of the
// transaction. Dialects without row locks (sqlite) serialize writers anyway.
func WithLock() DBOption {
	return func(db *gorm.DB) *gorm.DB {
		if db.Dialector.Name() == DriverPostgres {
			return db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
		}
		return db
	}
}

func (h *SQLHandler[T, V]) session(ctx context.Context, opts []DBOption) *gorm.DB {
	db := h.db
	for _, opt := range opts {
		db = opt(db)
	}
	return db.WithContext(ctx)
}

func (h *SQLHandler[T, V]) Create(ctx context.Context, entity *T, opts ...DBOption) error {
	return h.session(ctx, opts).Create(entity).Error
}

// FindOne returns the first row matching filter, or ErrRecordNotFound.
func (h *SQLHandler[T, V]) FindOne(ctx context.Context, filter *V, option *domain.FindOneOption, opts ...DBOption) (*T, error) {
	qb := h.applyFilter(h.session(ctx, opts), filter)
	if option != nil {
		qb = orderBy(qb, option.Sort)
	}

	var entity T
	if err := qb.First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return &entity, nil
}

// FindPage returns one page of rows matching filter together with the total
// count. A missing or non-positive page or size falls back to the first page
// of defaultPerPage rows.
func (h *SQLHandler[T, V]) FindPage(ctx context.Context, filter *V, option *domain.FindPageOption, opts ...DBOption) ([]*T, *domain.Pagination, error) {
	qb := h.applyFilter(h.session(ctx, opts), filter)

	var total int64
	if err := qb.Session(&gorm.Session{}).Model(new(T)).Count(&total).Error; err != nil {
		return nil, nil, err
	}

	page, perPage := 1, defaultPerPage
	if option != nil {
		qb = orderBy(qb, option.Sort)
		page = max(option.Page, 1)
		if option.PerPage > 0 {
			perPage = option.PerPage
		}
	}

	entities := []*T{}
	if err := qb.Offset((page - 1) * perPage).Limit(perPage).Find(&entities).Error; err != nil {
		return nil, nil, err
	}
	return entities, domain.NewPagination(page, perPage, total), nil
}

func (h *SQLHandler[T, V]) UpdateFields(ctx context.Context, id any, fields map[string]any, opts ...DBOption) error {
	return h.session(ctx, opts).Model(new(T)).Where("id = ?", id).Updates(fields).Error
}

// DeleteByID soft-deletes the row. Deleting an already deleted row is a no-op
// and keeps the original timestamp; an unknown id yields ErrRecordNotFound.
func (h *SQLHandler[T, V]) DeleteByID(ctx context.Context, id any, opts ...DBOption) error {
	return h.setDeletedAt(ctx, id, "deleted_at = 0", utils.NowUnixMillis(), opts)
}

// RestoreByID clears the soft-delete marker. Restoring an active row is a
// no-op; an unknown id yields ErrRecordNotFound.
func (h *SQLHandler[T, V]) RestoreByID(ctx context.Context, id any, opts ...DBOption) error {
	return h.setDeletedAt(ctx, id, "deleted_at <> 0", 0, opts)
}

func (h *SQLHandler[T, V]) setDeletedAt(ctx context.Context, id any, state string, value int64, opts []DBOption) error {
	db := h.session(ctx, opts)
	result := db.Model(new(T)).Where("id = ?", id).Where(state).Update("deleted_at", value)
	if result.Error != nil || result.RowsAffected > 0 {
		return result.Error
	}

	var count int64
	if err := db.Model(new(T)).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func orderBy(qb *gorm.DB, sort []string) *gorm.DB {
	for _, s := range sort {
		qb = qb.Order(s)
	}
	return qb
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ApplySearch keeps rows where any of columns contains term, ignoring case.
// Wildcards typed by the user match literally. An empty term or column list
// leaves the query untouched.
func ApplySearch(qb *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return qb
	}

	pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
	conditions := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, column := range columns {
		conditions[i] = "LOWER(" + column + `) LIKE ? ESCAPE '\'`
		args[i] = pattern
	}
	return qb.Where("("+strings.Join(conditions, " OR ")+")", args...)
}
