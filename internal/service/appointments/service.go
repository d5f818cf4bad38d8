package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-QueueService/internal/domain"
	"github.com/m04kA/SMC-QueueService/internal/events"
	appointmentRepo "github.com/m04kA/SMC-QueueService/internal/infra/storage/appointment"
	"github.com/m04kA/SMC-QueueService/internal/service/appointments/models"
	"github.com/m04kA/SMC-QueueService/pkg/ptr"
	"github.com/m04kA/SMC-QueueService/pkg/types"
)

// Service менеджер жизненного цикла записей в очередь
type Service struct {
	appointmentRepo AppointmentRepository
	activityRepo    ActivityRepository
	publisher       EventPublisher
	metrics         TransitionRecorder
	timeProvider    TimeProvider
	random          RandomSource
	location        *time.Location
	logger          Logger
}

// NewService создает новый экземпляр менеджера записей.
// location задает часовой пояс, в котором считается "сегодня".
func NewService(
	appointmentRepo AppointmentRepository,
	activityRepo ActivityRepository,
	publisher EventPublisher,
	metrics TransitionRecorder,
	location *time.Location,
	logger Logger,
) *Service {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	if location == nil {
		location = time.UTC
	}
	return &Service{
		appointmentRepo: appointmentRepo,
		activityRepo:    activityRepo,
		publisher:       publisher,
		metrics:         metrics,
		timeProvider:    &RealTimeProvider{},
		random:          globalRandom{},
		location:        location,
		logger:          logger,
	}
}

// NewServiceWithDeps конструктор с подменяемыми временем и случайностью (для тестов)
func NewServiceWithDeps(
	appointmentRepo AppointmentRepository,
	activityRepo ActivityRepository,
	publisher EventPublisher,
	metrics TransitionRecorder,
	location *time.Location,
	timeProvider TimeProvider,
	random RandomSource,
	logger Logger,
) *Service {
	s := NewService(appointmentRepo, activityRepo, publisher, metrics, location, logger)
	s.timeProvider = timeProvider
	s.random = random
	return s
}

// Today текущая календарная дата в настроенном часовом поясе
func (s *Service) Today() time.Time {
	return calendarDate(s.timeProvider.Now().In(s.location))
}

// ComputeAvailableSlots возвращает слоты сетки, не занятые ожидающими записями.
// Вместимость услуги не учитывается: один waiting занимает слот целиком.
func (s *Service) ComputeAvailableSlots(ctx context.Context, serviceID string, date time.Time) ([]types.TimeString, error) {
	if strings.TrimSpace(serviceID) == "" {
		return nil, fmt.Errorf("%w: service id is required", ErrValidation)
	}
	date = calendarDate(date)

	occupied, err := s.appointmentRepo.List(ctx, domain.AppointmentFilter{
		ServiceID: &serviceID,
		Date:      &date,
		Statuses:  domain.OccupyingStatuses,
	})
	if err != nil {
		s.logger.Error("ComputeAvailableSlots: failed to list appointments for service=%s, date=%s: %v",
			serviceID, date.Format(domain.DateFormat), err)
		return nil, fmt.Errorf("%w: ComputeAvailableSlots - list appointments: %v", ErrPersistence, err)
	}

	return freeSlots(domain.SlotGrid(), occupied), nil
}

// GenerateQueueNumber формирует номер талона для услуги на дату
func (s *Service) GenerateQueueNumber(serviceID string, date time.Time) string {
	return formatQueueNumber(serviceID, date, s.random.IntN(domain.QueueNumberRandomRange))
}

// BookAppointment записывает пользователя сессии в очередь.
// Занятость слота повторно не проверяется, двойная запись возможна.
func (s *Service) BookAppointment(ctx context.Context, session domain.Session, req *models.BookAppointmentRequest) (*domain.Appointment, error) {
	if session.IsAnonymous() {
		return nil, ErrUnauthenticated
	}

	s.logger.Info("BookAppointment: user=%s books service=%s at %s %s",
		session.UserID, req.ServiceID, req.Date.Format(domain.DateFormat), req.Time)

	if err := validateBookRequest(req); err != nil {
		s.logger.Warn("BookAppointment: validation failed: %v", err)
		return nil, err
	}

	date := calendarDate(req.Date)
	appointment := &domain.Appointment{
		ID:              uuid.NewString(),
		UserID:          session.UserID,
		ServiceID:       req.ServiceID,
		AppointmentDate: date,
		AppointmentTime: req.Time,
		QueueNumber:     s.GenerateQueueNumber(req.ServiceID, date),
		Status:          domain.StatusWaiting,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerEmail:   ptr.NilIfZero(trimmed(req.CustomerEmail)),
		CustomerPhone:   ptr.NilIfZero(trimmed(req.CustomerPhone)),
	}

	created, err := s.appointmentRepo.Create(ctx, appointment)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrUnknownService) {
			s.logger.Warn("BookAppointment: service=%s does not exist", req.ServiceID)
			return nil, fmt.Errorf("%w: unknown service %s", ErrValidation, req.ServiceID)
		}
		s.logger.Error("BookAppointment: failed to create appointment for user=%s: %v", session.UserID, err)
		return nil, fmt.Errorf("%w: BookAppointment - create appointment: %v", ErrPersistence, err)
	}

	s.metrics.Transition(string(domain.StatusWaiting))
	s.publish(ctx, events.TypeAppointmentBooked, created, session.UserID)

	s.logger.Info("BookAppointment: appointment id=%s created with queue number %s", created.ID, created.QueueNumber)
	return created, nil
}

// CancelAppointment отменяет запись. Повторная отмена и отмена обслуженной записи не запрещены.
// Клиент может отменить только свою запись, персонал любую.
func (s *Service) CancelAppointment(ctx context.Context, session domain.Session, id string) (*domain.Appointment, error) {
	if session.IsAnonymous() {
		return nil, ErrUnauthenticated
	}

	s.logger.Info("CancelAppointment: user=%s cancels appointment id=%s", session.UserID, id)

	if !session.IsStaff() {
		existing, err := s.appointmentRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
				s.logger.Warn("CancelAppointment: appointment id=%s not found", id)
				return nil, ErrNotFound
			}
			s.logger.Error("CancelAppointment: failed to get appointment id=%s: %v", id, err)
			return nil, fmt.Errorf("%w: CancelAppointment - get appointment: %v", ErrPersistence, err)
		}
		if !existing.BelongsTo(session.UserID) {
			s.logger.Warn("CancelAppointment: user=%s is not the owner of appointment id=%s", session.UserID, id)
			return nil, ErrAccessDenied
		}
	}

	now := s.timeProvider.Now().UTC()
	status := domain.StatusCancelled
	updated, err := s.appointmentRepo.Update(ctx, id, domain.AppointmentPatch{
		Status:      &status,
		CancelledAt: &now,
		ClearServed: true,
		UpdatedAt:   now,
	})
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			s.logger.Warn("CancelAppointment: appointment id=%s not found", id)
			return nil, ErrNotFound
		}
		s.logger.Error("CancelAppointment: failed to update appointment id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: CancelAppointment - update appointment: %v", ErrPersistence, err)
	}

	s.metrics.Transition(string(domain.StatusCancelled))
	s.publish(ctx, events.TypeAppointmentCancelled, updated, session.UserID)

	s.logger.Info("CancelAppointment: appointment id=%s cancelled", id)
	return updated, nil
}

// MarkAsServed отмечает клиента обслуженным. Доступно только персоналу.
// Запись в журнал делается, только если предварительное чтение нашло запись;
// ошибка журнала не прерывает операцию.
func (s *Service) MarkAsServed(ctx context.Context, session domain.Session, id string) (*domain.Appointment, error) {
	if session.IsAnonymous() {
		return nil, ErrUnauthenticated
	}
	if !session.IsStaff() {
		s.logger.Warn("MarkAsServed: user=%s with role=%s is not staff", session.UserID, session.Role)
		return nil, ErrAccessDenied
	}

	s.logger.Info("MarkAsServed: staff=%s serves appointment id=%s", session.UserID, id)

	existing, err := s.appointmentRepo.GetByID(ctx, id)
	if err != nil {
		// Неудачное чтение не прерывает операцию, только отключает журнал
		s.logger.Warn("MarkAsServed: failed to read appointment id=%s before update: %v", id, err)
	}

	now := s.timeProvider.Now().UTC()
	status := domain.StatusServed
	updated, err := s.appointmentRepo.Update(ctx, id, domain.AppointmentPatch{
		Status:    &status,
		ServedAt:  &now,
		ServedBy:  &session.UserID,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			s.logger.Warn("MarkAsServed: appointment id=%s not found", id)
			return nil, ErrNotFound
		}
		s.logger.Error("MarkAsServed: failed to update appointment id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: MarkAsServed - update appointment: %v", ErrPersistence, err)
	}

	if existing != nil {
		entry := &domain.StaffActivityLog{
			ID:            uuid.NewString(),
			StaffID:       session.UserID,
			AppointmentID: id,
			Action:        domain.ActionMarkedServed,
		}
		if err := s.activityRepo.Record(ctx, entry); err != nil {
			s.logger.Error("MarkAsServed: failed to record staff activity for appointment id=%s: %v", id, err)
		}
	}

	s.metrics.Transition(string(domain.StatusServed))
	s.publish(ctx, events.TypeCustomerServed, updated, session.UserID)

	s.logger.Info("MarkAsServed: appointment id=%s served by staff=%s", id, session.UserID)
	return updated, nil
}

// GetServiceQueue возвращает очередь услуги на дату: waiting и served по времени слота
func (s *Service) GetServiceQueue(ctx context.Context, serviceID string, date time.Time) (*domain.ServiceQueue, error) {
	if strings.TrimSpace(serviceID) == "" {
		return nil, fmt.Errorf("%w: service id is required", ErrValidation)
	}
	date = calendarDate(date)

	appointments, err := s.appointmentRepo.List(ctx, domain.AppointmentFilter{
		ServiceID: &serviceID,
		Date:      &date,
		Statuses:  domain.QueueStatuses,
		OrderBy:   domain.OrderByAppointmentTime,
	})
	if err != nil {
		s.logger.Error("GetServiceQueue: failed to list queue for service=%s, date=%s: %v",
			serviceID, date.Format(domain.DateFormat), err)
		return nil, fmt.Errorf("%w: GetServiceQueue - list appointments: %v", ErrPersistence, err)
	}

	return domain.BuildServiceQueue(serviceID, date, appointments), nil
}

// GetUserAppointments история записей пользователя, сначала последние даты.
// Клиент видит только свою историю.
func (s *Service) GetUserAppointments(ctx context.Context, session domain.Session, userID string) ([]*domain.Appointment, error) {
	if session.IsAnonymous() {
		return nil, ErrUnauthenticated
	}
	if userID != session.UserID && !session.IsStaff() {
		s.logger.Warn("GetUserAppointments: user=%s tried to read history of user=%s", session.UserID, userID)
		return nil, ErrAccessDenied
	}

	appointments, err := s.appointmentRepo.List(ctx, domain.AppointmentFilter{
		UserID:  &userID,
		OrderBy: domain.OrderByAppointmentDate,
		Desc:    true,
	})
	if err != nil {
		s.logger.Error("GetUserAppointments: failed to list appointments for user=%s: %v", userID, err)
		return nil, fmt.Errorf("%w: GetUserAppointments - list appointments: %v", ErrPersistence, err)
	}

	return appointments, nil
}

// ListAppointments список записей для персонала с фильтрами по услуге, дате и статусу
func (s *Service) ListAppointments(ctx context.Context, session domain.Session, req *models.ListAppointmentsRequest) ([]*domain.Appointment, error) {
	if err := s.requireStaff(session, "ListAppointments"); err != nil {
		return nil, err
	}
	if req.Status != nil && !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *req.Status)
	}
	if req.Date != nil {
		req.Date = ptr.To(calendarDate(*req.Date))
	}

	appointments, err := s.appointmentRepo.List(ctx, req.ToDomainFilter())
	if err != nil {
		s.logger.Error("ListAppointments: failed to list appointments: %v", err)
		return nil, fmt.Errorf("%w: ListAppointments - list appointments: %v", ErrPersistence, err)
	}

	return appointments, nil
}

// GetTodayStats счетчики записей одним агрегирующим запросом
func (s *Service) GetTodayStats(ctx context.Context, session domain.Session) (*domain.Stats, error) {
	if err := s.requireStaff(session, "GetTodayStats"); err != nil {
		return nil, err
	}

	stats, err := s.appointmentRepo.Stats(ctx, s.Today())
	if err != nil {
		s.logger.Error("GetTodayStats: failed to count appointments: %v", err)
		return nil, fmt.Errorf("%w: GetTodayStats - count appointments: %v", ErrPersistence, err)
	}

	return stats, nil
}

// GetAnalytics расширенная статистика для администратора
func (s *Service) GetAnalytics(ctx context.Context, session domain.Session) (*domain.Analytics, error) {
	if session.IsAnonymous() {
		return nil, ErrUnauthenticated
	}
	if !session.IsAdmin() {
		s.logger.Warn("GetAnalytics: user=%s with role=%s is not admin", session.UserID, session.Role)
		return nil, ErrAccessDenied
	}

	stats, err := s.appointmentRepo.Stats(ctx, s.Today())
	if err != nil {
		s.logger.Error("GetAnalytics: failed to count appointments: %v", err)
		return nil, fmt.Errorf("%w: GetAnalytics - count appointments: %v", ErrPersistence, err)
	}

	busiest, err := s.appointmentRepo.BusiestHours(ctx, domain.BusiestSlotsLimit)
	if err != nil {
		s.logger.Error("GetAnalytics: failed to group by hour: %v", err)
		return nil, fmt.Errorf("%w: GetAnalytics - busiest hours: %v", ErrPersistence, err)
	}

	byService, err := s.appointmentRepo.CountByService(ctx)
	if err != nil {
		s.logger.Error("GetAnalytics: failed to group by service: %v", err)
		return nil, fmt.Errorf("%w: GetAnalytics - count by service: %v", ErrPersistence, err)
	}

	return &domain.Analytics{
		Stats:            *stats,
		BusiestSlots:     busiest,
		ServiceBreakdown: byService,
	}, nil
}

// GetAppointmentActivity журнал действий персонала по записи
func (s *Service) GetAppointmentActivity(ctx context.Context, session domain.Session, id string) ([]*domain.StaffActivityLog, error) {
	if err := s.requireStaff(session, "GetAppointmentActivity"); err != nil {
		return nil, err
	}

	entries, err := s.activityRepo.ListByAppointment(ctx, id)
	if err != nil {
		s.logger.Error("GetAppointmentActivity: failed to list activity for appointment id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: GetAppointmentActivity - list activity: %v", ErrPersistence, err)
	}

	return entries, nil
}

func (s *Service) requireStaff(session domain.Session, op string) error {
	if session.IsAnonymous() {
		return ErrUnauthenticated
	}
	if !session.IsStaff() {
		s.logger.Warn("%s: user=%s with role=%s is not staff", op, session.UserID, session.Role)
		return ErrAccessDenied
	}
	return nil
}

// publish уведомляет подписчиков. Ошибка доставки только логируется.
func (s *Service) publish(ctx context.Context, t events.Type, a *domain.Appointment, actorID string) {
	if s.publisher == nil {
		return
	}
	e, err := events.NewAppointmentEvent(t, a, actorID, s.timeProvider.Now())
	if err != nil {
		s.logger.Error("publish: failed to build %s event for appointment id=%s: %v", t, a.ID, err)
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("publish: failed to publish %s event for appointment id=%s: %v", t, a.ID, err)
	}
}

func validateBookRequest(req *models.BookAppointmentRequest) error {
	if strings.TrimSpace(req.ServiceID) == "" {
		return fmt.Errorf("%w: service id is required", ErrValidation)
	}
	if req.Date.IsZero() {
		return fmt.Errorf("%w: appointment date is required", ErrValidation)
	}
	if req.Time.IsZero() {
		return fmt.Errorf("%w: appointment time is required", ErrValidation)
	}
	if err := req.Time.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !domain.IsGridSlot(req.Time) {
		return fmt.Errorf("%w: time %s is not a slot of the grid", ErrValidation, req.Time)
	}
	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return fmt.Errorf("%w: customer name is required", ErrValidation)
	}
	if utf8.RuneCountInString(name) > domain.MaxCustomerNameLength {
		return fmt.Errorf("%w: customer name is longer than %d characters", ErrValidation, domain.MaxCustomerNameLength)
	}
	return nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// calendarDate отбрасывает время суток, сохраняя календарный день
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
