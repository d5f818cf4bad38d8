package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/m04kA/SMC-QueueService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-QueueService/internal/infra/storage/appointment"
	serviceRepo "github.com/m04kA/SMC-QueueService/internal/infra/storage/service"
	"github.com/m04kA/SMC-QueueService/pkg/ptr"
)

// Store хранилище в памяти с семантикой PostgreSQL-репозиториев, кроме ссылочной
// целостности: запись на услугу, которой нет в каталоге, принимается (в PostgreSQL
// внешний ключ отклоняет ее как ErrUnknownService), а в аналитике такая услуга
// считается "Unknown". Используется драйвером "memory" и в тестах.
type Store struct {
	mu           sync.RWMutex
	now          func() time.Time
	services     map[string]*domain.Service
	appointments map[string]*domain.Appointment
	// порядок вставки, разрешает равенство created_at при сортировке
	seq      map[string]uint64
	nextSeq  uint64
	activity []*domain.StaffActivityLog
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{
		now:          func() time.Time { return time.Now().UTC() },
		services:     make(map[string]*domain.Service),
		appointments: make(map[string]*domain.Appointment),
		seq:          make(map[string]uint64),
	}
}

// Appointments репозиторий записей поверх хранилища
func (s *Store) Appointments() *AppointmentRepository {
	return &AppointmentRepository{store: s}
}

// Services репозиторий услуг поверх хранилища
func (s *Store) Services() *ServiceRepository {
	return &ServiceRepository{store: s}
}

// Activity журнал действий персонала поверх хранилища
func (s *Store) Activity() *ActivityRepository {
	return &ActivityRepository{store: s}
}

// AppointmentRepository записи в очередь
type AppointmentRepository struct {
	store *Store
}

func (r *AppointmentRepository) Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	a.CreatedAt = now
	a.UpdatedAt = now
	stored := cloneAppointment(a)
	s.appointments[a.ID] = stored
	s.nextSeq++
	s.seq[a.ID] = s.nextSeq

	return cloneAppointment(stored), nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.appointments[id]
	if !ok {
		return nil, appointmentRepo.ErrAppointmentNotFound
	}
	return cloneAppointment(a), nil
}

func (r *AppointmentRepository) List(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Appointment, 0)
	for _, a := range s.appointments {
		if matches(a, filter) {
			result = append(result, cloneAppointment(a))
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		cmp := compareBy(result[i], result[j], filter.OrderBy)
		if cmp != 0 {
			if filter.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return s.seq[result[i].ID] < s.seq[result[j].ID]
	})

	if filter.Limit > 0 && uint64(len(result)) > filter.Limit {
		result = result[:filter.Limit]
	}

	return result, nil
}

func (r *AppointmentRepository) Update(ctx context.Context, id string, patch domain.AppointmentPatch) (*domain.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if patch.Status == nil && patch.ServedAt == nil && patch.ServedBy == nil && patch.CancelledAt == nil && !patch.ClearServed {
		return nil, appointmentRepo.ErrEmptyPatch
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.appointments[id]
	if !ok {
		return nil, appointmentRepo.ErrAppointmentNotFound
	}

	if patch.Status != nil {
		a.Status = *patch.Status
	}
	if patch.ClearServed {
		a.ServedAt = nil
		a.ServedBy = nil
	} else {
		if patch.ServedAt != nil {
			a.ServedAt = ptr.To(*patch.ServedAt)
		}
		if patch.ServedBy != nil {
			a.ServedBy = ptr.To(*patch.ServedBy)
		}
	}
	if patch.CancelledAt != nil {
		a.CancelledAt = ptr.To(*patch.CancelledAt)
	}
	a.UpdatedAt = patch.UpdatedAt
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = s.now()
	}

	return cloneAppointment(a), nil
}

func (r *AppointmentRepository) Stats(ctx context.Context, today time.Time) (*domain.Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.Stats{Date: today}
	for _, a := range s.appointments {
		stats.Total++
		if sameDay(a.AppointmentDate, today) {
			stats.Today++
		}
		switch a.Status {
		case domain.StatusWaiting:
			stats.Waiting++
		case domain.StatusServed:
			stats.Served++
		case domain.StatusCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

func (r *AppointmentRepository) BusiestHours(ctx context.Context, limit uint64) ([]domain.HourBucket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	counts := make(map[int]int)
	for _, a := range s.appointments {
		if h := a.AppointmentTime.Hour(); h >= 0 {
			counts[h]++
		}
	}
	s.mu.RUnlock()

	buckets := make([]domain.HourBucket, 0, len(counts))
	for h, c := range counts {
		buckets = append(buckets, domain.HourBucket{Hour: h, Count: c})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Hour < buckets[j].Hour
	})
	if uint64(len(buckets)) > limit {
		buckets = buckets[:limit]
	}
	return buckets, nil
}

func (r *AppointmentRepository) CountByService(ctx context.Context) ([]domain.ServiceCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	byID := make(map[string]*domain.ServiceCount)
	for _, a := range s.appointments {
		c, ok := byID[a.ServiceID]
		if !ok {
			name := domain.UnknownServiceName
			if svc, found := s.services[a.ServiceID]; found {
				name = svc.Name
			}
			c = &domain.ServiceCount{ServiceID: a.ServiceID, ServiceName: name}
			byID[a.ServiceID] = c
		}
		c.Count++
	}
	s.mu.RUnlock()

	counts := make([]domain.ServiceCount, 0, len(byID))
	for _, c := range byID {
		counts = append(counts, *c)
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].ServiceName < counts[j].ServiceName
	})
	return counts, nil
}

// ServiceRepository каталог услуг
type ServiceRepository struct {
	store *Store
}

func (r *ServiceRepository) Create(ctx context.Context, svc *domain.Service) (*domain.Service, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.services {
		if existing.Name == svc.Name {
			return nil, serviceRepo.ErrDuplicateService
		}
	}

	svc.CreatedAt = s.now()
	stored := *svc
	s.services[svc.ID] = &stored

	out := stored
	return &out, nil
}

func (r *ServiceRepository) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	svc, ok := s.services[id]
	if !ok {
		return nil, serviceRepo.ErrServiceNotFound
	}
	out := *svc
	return &out, nil
}

func (r *ServiceRepository) List(ctx context.Context, filter domain.ServiceFilter) ([]*domain.Service, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Service, 0, len(s.services))
	for _, svc := range s.services {
		if filter.ActiveOnly && !svc.IsActive {
			continue
		}
		out := *svc
		result = append(result, &out)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *ServiceRepository) Deactivate(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	svc, ok := s.services[id]
	if !ok {
		return serviceRepo.ErrServiceNotFound
	}
	svc.IsActive = false
	return nil
}

// ActivityRepository журнал действий персонала
type ActivityRepository struct {
	store *Store
}

func (r *ActivityRepository) Record(ctx context.Context, entry *domain.StaffActivityLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.CreatedAt = s.now()
	stored := *entry
	s.activity = append(s.activity, &stored)
	return nil
}

func (r *ActivityRepository) ListByAppointment(ctx context.Context, appointmentID string) ([]*domain.StaffActivityLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.StaffActivityLog, 0)
	for _, e := range s.activity {
		if e.AppointmentID == appointmentID {
			out := *e
			result = append(result, &out)
		}
	}
	return result, nil
}

func matches(a *domain.Appointment, f domain.AppointmentFilter) bool {
	if f.ID != nil && a.ID != *f.ID {
		return false
	}
	if f.UserID != nil && a.UserID != *f.UserID {
		return false
	}
	if f.ServiceID != nil && a.ServiceID != *f.ServiceID {
		return false
	}
	if f.Date != nil && !sameDay(a.AppointmentDate, *f.Date) {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if a.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func compareBy(a, b *domain.Appointment, order domain.AppointmentOrder) int {
	switch order {
	case domain.OrderByAppointmentDate:
		return compareTime(dateOnly(a.AppointmentDate), dateOnly(b.AppointmentDate))
	case domain.OrderByAppointmentTime:
		return strings.Compare(a.AppointmentTime.String(), b.AppointmentTime.String())
	default:
		return compareTime(a.CreatedAt, b.CreatedAt)
	}
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return dateOnly(a).Equal(dateOnly(b))
}

func cloneAppointment(a *domain.Appointment) *domain.Appointment {
	out := *a
	if a.CustomerEmail != nil {
		out.CustomerEmail = ptr.To(*a.CustomerEmail)
	}
	if a.CustomerPhone != nil {
		out.CustomerPhone = ptr.To(*a.CustomerPhone)
	}
	if a.ServedAt != nil {
		out.ServedAt = ptr.To(*a.ServedAt)
	}
	if a.ServedBy != nil {
		out.ServedBy = ptr.To(*a.ServedBy)
	}
	if a.CancelledAt != nil {
		out.CancelledAt = ptr.To(*a.CancelledAt)
	}
	return &out
}
