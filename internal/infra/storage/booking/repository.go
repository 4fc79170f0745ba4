package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/pkg/dbmetrics"
	"github.com/m04kA/SMC-RentalService/pkg/psqlbuilder"
)

const tableBookings = "bookings"

var bookingColumns = []string{
	"id",
	"resource_id",
	"resource_kind",
	"quantity",
	"contact_name",
	"contact_phone",
	"contact_email",
	"status",
	"decided_by",
	"decision_reason",
	"decided_at",
	"cancelled_by",
	"cancellation_reason",
	"cancelled_at",
	"payment_ref",
	"confirmed_at",
	"deleted_at",
	"version",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование
// Вызывается в одной транзакции с TryCommit ресурса: если вставка не удалась,
// занятая вместимость откатывается вместе с транзакцией.
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(tableBookings).
		Columns(
			"id",
			"resource_id",
			"resource_kind",
			"quantity",
			"contact_name",
			"contact_phone",
			"contact_email",
			"status",
			"version",
			"created_at",
			"updated_at",
		).
		Values(
			booking.ID,
			booking.ResourceID,
			booking.ResourceKind,
			booking.Quantity,
			booking.Contact.Name,
			booking.Contact.Phone,
			booking.Contact.Email,
			booking.Status,
			1,
			booking.CreatedAt,
			booking.UpdatedAt,
		).
		Suffix("RETURNING version, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&booking.Version,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	return booking, nil
}

// GetByID получает бронирование по ID, включая удаленные (DeletedAt != nil)
// Внутри транзакции строка блокируется (FOR UPDATE) до ее завершения
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(bookingColumns...).
		From(tableBookings).
		Where(squirrel.Eq{"id": id})
	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %w", ErrScanRow, err)
	}

	return booking, nil
}

// ListByResource получает бронирования ресурса (без удаленных)
// Опционально фильтрует по статусу
func (r *Repository) ListByResource(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(bookingColumns...).
		From(tableBookings).
		Where(squirrel.Eq{"resource_id": filter.ResourceID}).
		Where(squirrel.Eq{"deleted_at": nil}).
		OrderBy("created_at ASC", "id ASC")

	if filter.Status != nil {
		builder = builder.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByResource - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByResource - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListPendingCreatedBefore получает ожидающие решения бронирования, созданные раньше before
// Используется воркером истечения заявок
func (r *Repository) ListPendingCreatedBefore(ctx context.Context, before time.Time, limit int) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(bookingColumns...).
		From(tableBookings).
		Where(squirrel.Eq{"status": domain.StatusPending}).
		Where(squirrel.Eq{"deleted_at": nil}).
		Where(squirrel.Lt{"created_at": before}).
		OrderBy("created_at ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListPendingCreatedBefore - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListPendingCreatedBefore - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// CountHolding считает бронирования ресурса, удерживающие вместимость (pending / approved)
func (r *Repository) CountHolding(ctx context.Context, resourceID string) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	statuses := make([]string, len(domain.ActiveStatuses))
	for i, s := range domain.ActiveStatuses {
		statuses[i] = string(s)
	}

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From(tableBookings).
		Where(squirrel.Eq{"resource_id": resourceID}).
		Where(squirrel.Eq{"deleted_at": nil}).
		Where(squirrel.Eq{"status": statuses}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountHolding - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountHolding - scan count: %w", ErrScanRow, err)
	}

	return count, nil
}

// Update сохраняет изменения бронирования, если его версия не изменилась с момента чтения
// При успехе увеличивает booking.Version
func (r *Repository) Update(ctx context.Context, booking *domain.Booking, expectedVersion int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(tableBookings).
		Set("status", booking.Status).
		Set("decided_by", booking.DecidedBy).
		Set("decision_reason", booking.DecisionReason).
		Set("decided_at", booking.DecidedAt).
		Set("cancelled_by", booking.CancelledBy).
		Set("cancellation_reason", booking.CancellationReason).
		Set("cancelled_at", booking.CancelledAt).
		Set("payment_ref", booking.PaymentRef).
		Set("confirmed_at", booking.ConfirmedAt).
		Set("deleted_at", booking.DeletedAt).
		Set("version", expectedVersion+1).
		Set("updated_at", booking.UpdatedAt).
		Where(squirrel.Eq{"id": booking.ID}).
		Where(squirrel.Eq{"version": expectedVersion}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Update - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Update - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		// Строка либо отсутствует, либо изменена параллельно
		if _, err := r.GetByID(ctx, booking.ID); err != nil {
			return err
		}
		return ErrVersionConflict
	}

	booking.Version = expectedVersion + 1
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking
	err := row.Scan(
		&booking.ID,
		&booking.ResourceID,
		&booking.ResourceKind,
		&booking.Quantity,
		&booking.Contact.Name,
		&booking.Contact.Phone,
		&booking.Contact.Email,
		&booking.Status,
		&booking.DecidedBy,
		&booking.DecisionReason,
		&booking.DecidedAt,
		&booking.CancelledBy,
		&booking.CancellationReason,
		&booking.CancelledAt,
		&booking.PaymentRef,
		&booking.ConfirmedAt,
		&booking.DeletedAt,
		&booking.Version,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %w", ErrScanRow, err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %w", ErrScanRow, err)
	}

	return bookings, nil
}
