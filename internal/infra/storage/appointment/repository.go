package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-QueueService/internal/domain"
	"github.com/m04kA/SMC-QueueService/pkg/psqlbuilder"
)

const (
	tableAppointments = "appointments"

	// pgInvalidTextRepresentation код ошибки PostgreSQL для значения, не приводимого к типу колонки
	// (например, id не в формате UUID). Такой id не может существовать в таблице.
	pgInvalidTextRepresentation = "22P02"

	// pgForeignKeyViolation код ошибки PostgreSQL для нарушения внешнего ключа
	pgForeignKeyViolation = "23503"
)

var appointmentColumns = []string{
	"id",
	"user_id",
	"service_id",
	"appointment_date",
	"appointment_time",
	"queue_number",
	"status",
	"customer_name",
	"customer_email",
	"customer_phone",
	"served_at",
	"served_by",
	"cancelled_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий записей в очередь (PostgreSQL)
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория записей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет новую запись. ID генерируется вызывающей стороной,
// created_at/updated_at возвращаются из БД.
func (r *Repository) Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	query, args, err := psqlbuilder.Insert(tableAppointments).
		Columns(
			"id",
			"user_id",
			"service_id",
			"appointment_date",
			"appointment_time",
			"queue_number",
			"status",
			"customer_name",
			"customer_email",
			"customer_phone",
		).
		Values(
			a.ID,
			a.UserID,
			a.ServiceID,
			a.AppointmentDate,
			a.AppointmentTime,
			a.QueueNumber,
			a.Status,
			a.CustomerName,
			a.CustomerEmail,
			a.CustomerPhone,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		switch pgErrorCode(err) {
		case pgForeignKeyViolation, pgInvalidTextRepresentation:
			return nil, fmt.Errorf("%w: service_id=%s", ErrUnknownService, a.ServiceID)
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return a, nil
}

// GetByID получает запись по ID
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	query, args, err := psqlbuilder.Select(appointmentColumns...).
		From(tableAppointments).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	a, err := scanAppointment(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) || pgErrorCode(err) == pgInvalidTextRepresentation {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan appointment: %v", ErrScanRow, err)
	}

	return a, nil
}

// List выбирает записи по фильтру.
// Поля фильтра комбинируются через AND, Statuses превращается в IN (...).
func (r *Repository) List(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error) {
	selectBuilder := psqlbuilder.Select(appointmentColumns...).
		From(tableAppointments)

	if filter.ID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"id": *filter.ID})
	}
	if filter.UserID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"user_id": *filter.UserID})
	}
	if filter.ServiceID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"service_id": *filter.ServiceID})
	}
	if filter.Date != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"appointment_date": *filter.Date})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": statuses})
	}

	selectBuilder = selectBuilder.OrderBy(orderClause(filter.OrderBy, filter.Desc), "created_at ASC")

	if filter.Limit > 0 {
		selectBuilder = selectBuilder.Limit(filter.Limit)
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if pgErrorCode(err) == pgInvalidTextRepresentation {
		return make([]*domain.Appointment, 0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanAppointments(rows)
}

// Update применяет patch к записи и возвращает ее новое состояние.
// Если ни одна строка не обновлена, возвращает ErrAppointmentNotFound.
func (r *Repository) Update(ctx context.Context, id string, patch domain.AppointmentPatch) (*domain.Appointment, error) {
	updateBuilder := psqlbuilder.Update(tableAppointments)
	changed := false

	if patch.Status != nil {
		updateBuilder = updateBuilder.Set("status", *patch.Status)
		changed = true
	}
	if patch.ClearServed {
		updateBuilder = updateBuilder.Set("served_at", nil).Set("served_by", nil)
		changed = true
	} else {
		if patch.ServedAt != nil {
			updateBuilder = updateBuilder.Set("served_at", *patch.ServedAt)
			changed = true
		}
		if patch.ServedBy != nil {
			updateBuilder = updateBuilder.Set("served_by", *patch.ServedBy)
			changed = true
		}
	}
	if patch.CancelledAt != nil {
		updateBuilder = updateBuilder.Set("cancelled_at", *patch.CancelledAt)
		changed = true
	}

	if !changed {
		return nil, ErrEmptyPatch
	}

	updatedAt := patch.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	query, args, err := updateBuilder.
		Set("updated_at", updatedAt).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(appointmentColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	a, err := scanAppointment(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) || pgErrorCode(err) == pgInvalidTextRepresentation {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}

	return a, nil
}

// Stats считает агрегаты одним запросом: записи на дату today и разбивку по статусам по всей таблице
func (r *Repository) Stats(ctx context.Context, today time.Time) (*domain.Stats, error) {
	query, args, err := psqlbuilder.Select().
		Column(squirrel.Expr("COUNT(*) FILTER (WHERE appointment_date = ?)", today)).
		Column("COUNT(*)").
		Column(squirrel.Expr("COUNT(*) FILTER (WHERE status = ?)", domain.StatusWaiting)).
		Column(squirrel.Expr("COUNT(*) FILTER (WHERE status = ?)", domain.StatusServed)).
		Column(squirrel.Expr("COUNT(*) FILTER (WHERE status = ?)", domain.StatusCancelled)).
		From(tableAppointments).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Stats - build select query: %v", ErrBuildQuery, err)
	}

	stats := &domain.Stats{Date: today}
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.Today,
		&stats.Total,
		&stats.Waiting,
		&stats.Served,
		&stats.Cancelled,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: Stats - scan counters: %v", ErrScanRow, err)
	}

	return stats, nil
}

// BusiestHours возвращает часы с наибольшим числом записей (по всем датам)
func (r *Repository) BusiestHours(ctx context.Context, limit uint64) ([]domain.HourBucket, error) {
	query, args, err := psqlbuilder.Select(
		"EXTRACT(HOUR FROM appointment_time)::int AS hour",
		"COUNT(*) AS cnt",
	).
		From(tableAppointments).
		GroupBy("hour").
		OrderBy("cnt DESC", "hour ASC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: BusiestHours - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: BusiestHours - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	buckets := make([]domain.HourBucket, 0, limit)
	for rows.Next() {
		var b domain.HourBucket
		if err := rows.Scan(&b.Hour, &b.Count); err != nil {
			return nil, fmt.Errorf("%w: BusiestHours - scan row: %v", ErrScanRow, err)
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: BusiestHours - rows error: %v", ErrScanRow, err)
	}

	return buckets, nil
}

// CountByService считает записи по услугам. Записи без услуги попадают под имя "Unknown".
func (r *Repository) CountByService(ctx context.Context) ([]domain.ServiceCount, error) {
	query, args, err := psqlbuilder.Select("a.service_id").
		Column(squirrel.Expr("COALESCE(s.name, ?) AS service_name", domain.UnknownServiceName)).
		Column("COUNT(*) AS cnt").
		From(tableAppointments + " a").
		LeftJoin("services s ON s.id = a.service_id").
		GroupBy("a.service_id", "s.name").
		OrderBy("cnt DESC", "service_name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CountByService - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: CountByService - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	counts := make([]domain.ServiceCount, 0)
	for rows.Next() {
		var c domain.ServiceCount
		if err := rows.Scan(&c.ServiceID, &c.ServiceName, &c.Count); err != nil {
			return nil, fmt.Errorf("%w: CountByService - scan row: %v", ErrScanRow, err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: CountByService - rows error: %v", ErrScanRow, err)
	}

	return counts, nil
}

func orderClause(order domain.AppointmentOrder, desc bool) string {
	column := string(domain.OrderByCreatedAt)
	switch order {
	case domain.OrderByAppointmentDate, domain.OrderByAppointmentTime:
		column = string(order)
	}
	if desc {
		return column + " DESC"
	}
	return column + " ASC"
}

// pgErrorCode код ошибки PostgreSQL или пустая строка
func pgErrorCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*domain.Appointment, error) {
	var a domain.Appointment
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.ServiceID,
		&a.AppointmentDate,
		&a.AppointmentTime,
		&a.QueueNumber,
		&a.Status,
		&a.CustomerName,
		&a.CustomerEmail,
		&a.CustomerPhone,
		&a.ServedAt,
		&a.ServedBy,
		&a.CancelledAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// scanAppointments сканирует результаты запроса в слайс записей
func scanAppointments(rows *sql.Rows) ([]*domain.Appointment, error) {
	appointments := make([]*domain.Appointment, 0)

	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanAppointments - scan row: %v", ErrScanRow, err)
		}
		appointments = append(appointments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanAppointments - rows error: %v", ErrScanRow, err)
	}

	return appointments, nil
}
