package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-portal-api/internal/validation"
)

// Child names a table whose rows reference a parent through ForeignKey.
type Child struct {
	Table      string
	ForeignKey string
}

// Table describes how a resource is stored. Every identifier in here is a
// trusted constant; request input never reaches an identifier position.
type Table struct {
	Name          string
	Key           string
	Columns       []string
	SearchColumns []string
	SortColumns   []string
	DefaultSort   string
	DefaultOrder  string
	Children      []Child
}

// Column pairs a column name with the value bound for it.
type Column struct {
	Name  string
	Value interface{}
}

// ListQuery carries the optional list parameters. Sort and Order outside the
// allow-lists fall back to the table defaults.
type ListQuery struct {
	Search  string
	Sort    string
	Order   string
	Filters []Column
}

var sortOrders = []string{"asc", "desc"}

// Store persists rows of one table into T, which must carry db tags matching
// Table.Columns.
type Store[T any] struct {
	db    *sqlx.DB
	table Table
}

// NewStore constructs a Store for table.
func NewStore[T any](db *sqlx.DB, table Table) *Store[T] {
	return &Store[T]{db: db, table: table}
}

// Table returns the descriptor the store was built with.
func (s *Store[T]) Table() Table {
	return s.table
}

// likeEscaper makes LIKE wildcards in a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// List returns the rows matching q, ordered by the resolved sort column.
func (s *Store[T]) List(ctx context.Context, q ListQuery) ([]T, error) {
	var (
		conditions []string
		args       []interface{}
	)
	for _, filter := range q.Filters {
		conditions = append(conditions, fmt.Sprintf("%s = ?", filter.Name))
		args = append(args, filter.Value)
	}
	if term := strings.TrimSpace(q.Search); term != "" && len(s.table.SearchColumns) > 0 {
		like := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
		parts := make([]string, 0, len(s.table.SearchColumns))
		for _, column := range s.table.SearchColumns {
			parts = append(parts, fmt.Sprintf("LOWER(%s) LIKE ? ESCAPE '\\'", column))
			args = append(args, like)
		}
		conditions = append(conditions, "("+strings.Join(parts, " OR ")+")")
	}

	query := fmt.Sprintf("SELECT %s FROM %s", s.columns(), s.table.Name)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY " + s.orderBy(q.Sort, q.Order)

	items := []T{}
	if err := s.db.SelectContext(ctx, &items, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", s.table.Name, err)
	}
	return items, nil
}

// orderBy resolves the ORDER BY clause. The id column breaks ties so pages
// are stable.
func (s *Store[T]) orderBy(sort, order string) string {
	column := validation.Enum(sort, s.table.SortColumns, s.table.DefaultSort)
	direction := strings.ToUpper(validation.Enum(order, sortOrders, s.table.DefaultOrder))
	clause := fmt.Sprintf("%s %s", column, direction)
	if column != "id" {
		clause += ", id " + direction
	}
	return clause
}

// FindByKey returns the row addressed by the table key. sql.ErrNoRows is
// returned unwrapped when it does not exist.
func (s *Store[T]) FindByKey(ctx context.Context, key interface{}) (*T, error) {
	return s.findBy(ctx, s.table.Key, key)
}

func (s *Store[T]) findBy(ctx context.Context, column string, value interface{}) (*T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", s.columns(), s.table.Name, column)
	var item T
	if err := s.db.GetContext(ctx, &item, s.db.Rebind(query), value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find %s: %w", s.table.Name, err)
	}
	return &item, nil
}

// Exists reports whether a row with key is stored.
func (s *Store[T]) Exists(ctx context.Context, key interface{}) (bool, error) {
	return s.exists(ctx, []Column{{Name: s.table.Key, Value: key}}, nil)
}

// ExistsAny reports whether any row matches one of conds. A non-nil
// excludeKey skips the row with that key.
func (s *Store[T]) ExistsAny(ctx context.Context, conds []Column, excludeKey interface{}) (bool, error) {
	if len(conds) == 0 {
		return false, nil
	}
	return s.exists(ctx, conds, excludeKey)
}

func (s *Store[T]) exists(ctx context.Context, conds []Column, excludeKey interface{}) (bool, error) {
	parts := make([]string, 0, len(conds))
	args := make([]interface{}, 0, len(conds)+1)
	for _, cond := range conds {
		parts = append(parts, fmt.Sprintf("%s = ?", cond.Name))
		args = append(args, cond.Value)
	}
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE (%s)", s.table.Name, strings.Join(parts, " OR "))
	if excludeKey != nil {
		query += fmt.Sprintf(" AND %s <> ?", s.table.Key)
		args = append(args, excludeKey)
	}

	var found int
	if err := s.db.GetContext(ctx, &found, s.db.Rebind(query+" LIMIT 1"), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check %s: %w", s.table.Name, err)
	}
	return true, nil
}

// Insert stores a new row and returns it as read back from the table, so
// server defaults such as id and created_at are populated.
func (s *Store[T]) Insert(ctx context.Context, cols []Column) (*T, error) {
	names := make([]string, 0, len(cols))
	marks := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols))
	for _, col := range cols {
		names = append(names, col.Name)
		marks = append(marks, "?")
		args = append(args, col.Value)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		s.table.Name, strings.Join(names, ", "), strings.Join(marks, ", "))

	var id int64
	if err := s.db.GetContext(ctx, &id, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("insert %s: %w", s.table.Name, err)
	}
	item, err := s.findBy(ctx, "id", id)
	if err != nil {
		return nil, fmt.Errorf("reload %s %d: %w", s.table.Name, id, err)
	}
	return item, nil
}

// Update writes cols to the row with key and reports the affected row count.
func (s *Store[T]) Update(ctx context.Context, key interface{}, cols []Column) (int64, error) {
	if len(cols) == 0 {
		return 0, nil
	}
	sets := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols)+1)
	for _, col := range cols {
		sets = append(sets, fmt.Sprintf("%s = ?", col.Name))
		args = append(args, col.Value)
	}
	args = append(args, key)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", s.table.Name, strings.Join(sets, ", "), s.table.Key)

	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", s.table.Name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update %s rows affected: %w", s.table.Name, err)
	}
	return affected, nil
}

// Delete removes the row with key after deleting its children, all inside one
// transaction. sql.ErrNoRows is returned when the parent is already gone and
// nothing is committed.
func (s *Store[T]) Delete(ctx context.Context, key interface{}) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete %s: %w", s.table.Name, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, child := range s.table.Children {
		query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", child.Table, child.ForeignKey)
		if _, err = tx.ExecContext(ctx, tx.Rebind(query), key); err != nil {
			return fmt.Errorf("delete %s of %s: %w", child.Table, s.table.Name, err)
		}
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", s.table.Name, s.table.Key)
	res, err := tx.ExecContext(ctx, tx.Rebind(query), key)
	if err != nil {
		return fmt.Errorf("delete %s: %w", s.table.Name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s rows affected: %w", s.table.Name, err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete %s: %w", s.table.Name, err)
	}
	return nil
}

func (s *Store[T]) columns() string {
	return strings.Join(s.table.Columns, ", ")
}
