package activity

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-QueueService/internal/domain"
	"github.com/m04kA/SMC-QueueService/pkg/psqlbuilder"
)

const (
	tableStaffActivityLogs = "staff_activity_logs"

	// pgInvalidTextRepresentation appointment_id не в формате UUID
	pgInvalidTextRepresentation = "22P02"
)

// Repository журнал действий персонала (append-only)
type Repository struct {
	db DBExecutor
}

func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Record добавляет запись в журнал
func (r *Repository) Record(ctx context.Context, entry *domain.StaffActivityLog) error {
	query, args, err := psqlbuilder.Insert(tableStaffActivityLogs).
		Columns("id", "staff_id", "appointment_id", "action").
		Values(entry.ID, entry.StaffID, entry.AppointmentID, entry.Action).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Record - build insert query: %v", ErrBuildQuery, err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&entry.CreatedAt); err != nil {
		return fmt.Errorf("%w: Record - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// ListByAppointment возвращает историю действий по записи в хронологическом порядке
func (r *Repository) ListByAppointment(ctx context.Context, appointmentID string) ([]*domain.StaffActivityLog, error) {
	query, args, err := psqlbuilder.Select("id", "staff_id", "appointment_id", "action", "created_at").
		From(tableStaffActivityLogs).
		Where(squirrel.Eq{"appointment_id": appointmentID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByAppointment - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgInvalidTextRepresentation {
		return make([]*domain.StaffActivityLog, 0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: ListByAppointment - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	entries := make([]*domain.StaffActivityLog, 0)
	for rows.Next() {
		var e domain.StaffActivityLog
		if err := rows.Scan(&e.ID, &e.StaffID, &e.AppointmentID, &e.Action, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: ListByAppointment - scan row: %v", ErrScanRow, err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListByAppointment - rows error: %v", ErrScanRow, err)
	}

	return entries, nil
}
