package resource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/pkg/dbmetrics"
	"github.com/m04kA/SMC-RentalService/pkg/psqlbuilder"
)

const tableResources = "resources"

var resourceColumns = []string{
	"id",
	"kind",
	"name",
	"capacity",
	"committed",
	"version",
	"retired_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий ресурсов (транспорт / выезды) и журнала их вместимости
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория ресурсов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новый ресурс
func (r *Repository) Create(ctx context.Context, res *domain.Resource) (*domain.Resource, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(tableResources).
		Columns("id", "kind", "name", "capacity", "committed", "version").
		Values(res.ID, res.Kind, res.Name, res.Capacity, 0, 1).
		Suffix("RETURNING committed, version, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&res.Committed,
		&res.Version,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	return res, nil
}

// GetByID получает ресурс по ID
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Resource, error) {
	return r.getByID(ctx, id, false)
}

// LockByID получает ресурс по ID с блокировкой строки (FOR UPDATE) до конца транзакции
// Вне транзакции работает как GetByID
func (r *Repository) LockByID(ctx context.Context, id string) (*domain.Resource, error) {
	return r.getByID(ctx, id, dbmetrics.IsInTransaction(ctx))
}

func (r *Repository) getByID(ctx context.Context, id string, forUpdate bool) (*domain.Resource, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(resourceColumns...).
		From(tableResources).
		Where(squirrel.Eq{"id": id})
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	res, err := scanResource(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan resource: %w", ErrScanRow, err)
	}

	return res, nil
}

// List получает список ресурсов каталога
func (r *Repository) List(ctx context.Context, includeRetired bool) ([]*domain.Resource, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(resourceColumns...).
		From(tableResources).
		OrderBy("created_at DESC")
	if !includeRetired {
		builder = builder.Where(squirrel.Eq{"retired_at": nil})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	resources := make([]*domain.Resource, 0)
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: List - scan row: %w", ErrScanRow, err)
		}
		resources = append(resources, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: List - rows error: %w", ErrScanRow, err)
	}

	return resources, nil
}

// TryCommit атомарно увеличивает committed на quantity, только если committed + quantity <= capacity
// Проверка и запись выполняются одним UPDATE: строка блокируется, и условие WHERE
// перепроверяется после получения блокировки, поэтому два параллельных запроса
// на последнее место не могут оба пройти.
func (r *Repository) TryCommit(ctx context.Context, id string, quantity int) (*domain.Resource, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(tableResources).
		Set("committed", squirrel.Expr("committed + ?", quantity)).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"retired_at": nil}).
		Where(squirrel.Expr("committed + ? <= capacity", quantity)).
		Suffix("RETURNING " + returningColumns()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: TryCommit - build update query: %v", ErrBuildQuery, err)
	}

	res, err := scanResource(executor.QueryRowContext(ctx, query, args...))
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: TryCommit - execute update: %w", ErrExecQuery, err)
	}

	// Ни одна строка не обновлена - выясняем причину
	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	if current.IsRetired() {
		return nil, ErrResourceRetired
	}
	return current, ErrCapacityExhausted
}

// Release атомарно уменьшает committed на quantity (не ниже нуля)
// Вызывающая сторона гарантирует, что каждая единица освобождается не более одного раза
func (r *Repository) Release(ctx context.Context, id string, quantity int) (*domain.Resource, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(tableResources).
		Set("committed", squirrel.Expr("GREATEST(committed - ?, 0)", quantity)).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + returningColumns()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Release - build update query: %v", ErrBuildQuery, err)
	}

	res, err := scanResource(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Release - execute update: %w", ErrExecQuery, err)
	}

	return res, nil
}

// Retire выводит ресурс из каталога
func (r *Repository) Retire(ctx context.Context, id string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(tableResources).
		Set("retired_at", squirrel.Expr("NOW()")).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"retired_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Retire - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Retire - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Retire - get rows affected: %v", ErrExecQuery, err)
	}

	// Повторный вывод уже выведенного ресурса не является ошибкой
	if rowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanResource(row rowScanner) (*domain.Resource, error) {
	var res domain.Resource
	err := row.Scan(
		&res.ID,
		&res.Kind,
		&res.Name,
		&res.Capacity,
		&res.Committed,
		&res.Version,
		&res.RetiredAt,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func returningColumns() string {
	return strings.Join(resourceColumns, ", ")
}
