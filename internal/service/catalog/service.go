package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-QueueService/internal/domain"
	"github.com/m04kA/SMC-QueueService/internal/events"
	serviceRepo "github.com/m04kA/SMC-QueueService/internal/infra/storage/service"
	"github.com/m04kA/SMC-QueueService/internal/service/catalog/models"
	"github.com/m04kA/SMC-QueueService/pkg/ptr"
)

// Service сервис каталога услуг
type Service struct {
	serviceRepo  ServiceRepository
	publisher    EventPublisher
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса каталога
func NewService(
	serviceRepo ServiceRepository,
	publisher EventPublisher,
	logger Logger,
) *Service {
	return &Service{
		serviceRepo:  serviceRepo,
		publisher:    publisher,
		timeProvider: realTimeProvider{},
		logger:       logger,
	}
}

// CreateService создает услугу
// Доступно только администраторам
func (s *Service) CreateService(ctx context.Context, session domain.Session, req *models.CreateServiceRequest) (*domain.Service, error) {
	if err := s.requireAdmin(session, "CreateService"); err != nil {
		return nil, err
	}

	s.logger.Info("CreateService: creating service name=%q by user=%s", req.Name, session.UserID)

	service, err := buildService(req)
	if err != nil {
		s.logger.Warn("CreateService: validation failed: %v", err)
		return nil, err
	}

	created, err := s.serviceRepo.Create(ctx, service)
	if err != nil {
		if errors.Is(err, serviceRepo.ErrDuplicateService) {
			s.logger.Warn("CreateService: service name=%q already exists", service.Name)
			return nil, ErrServiceAlreadyExists
		}
		s.logger.Error("CreateService: failed to create service: %v", err)
		return nil, fmt.Errorf("%w: failed to create service: %v", ErrInternal, err)
	}

	s.publish(ctx, events.TypeServiceCreated, created)

	s.logger.Info("CreateService: service id=%s created", created.ID)
	return created, nil
}

// GetService получает услугу по ID
func (s *Service) GetService(ctx context.Context, id string) (*domain.Service, error) {
	service, err := s.serviceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, serviceRepo.ErrServiceNotFound) {
			return nil, ErrServiceNotFound
		}
		s.logger.Error("GetService: failed to get service id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}
	return service, nil
}

// ListServices возвращает услуги по названию; activeOnly скрывает отключенные
func (s *Service) ListServices(ctx context.Context, activeOnly bool) ([]*domain.Service, error) {
	services, err := s.serviceRepo.List(ctx, domain.ServiceFilter{ActiveOnly: activeOnly})
	if err != nil {
		s.logger.Error("ListServices: failed to list services: %v", err)
		return nil, fmt.Errorf("%w: failed to list services: %v", ErrInternal, err)
	}
	return services, nil
}

// DeactivateService отключает услугу. Других изменений услуги после создания нет.
// Доступно только администраторам
func (s *Service) DeactivateService(ctx context.Context, session domain.Session, id string) (*domain.Service, error) {
	if err := s.requireAdmin(session, "DeactivateService"); err != nil {
		return nil, err
	}

	s.logger.Info("DeactivateService: deactivating service id=%s by user=%s", id, session.UserID)

	if err := s.serviceRepo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, serviceRepo.ErrServiceNotFound) {
			s.logger.Warn("DeactivateService: service id=%s not found", id)
			return nil, ErrServiceNotFound
		}
		s.logger.Error("DeactivateService: failed to deactivate service id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: failed to deactivate service: %v", ErrInternal, err)
	}

	service, err := s.GetService(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeServiceDeactivated, service)

	return service, nil
}

func (s *Service) requireAdmin(session domain.Session, op string) error {
	if session.IsAnonymous() {
		return ErrUnauthenticated
	}
	if !session.IsAdmin() {
		s.logger.Warn("%s: user=%s with role=%s is not admin", op, session.UserID, session.Role)
		return ErrAccessDenied
	}
	return nil
}

func (s *Service) publish(ctx context.Context, t events.Type, service *domain.Service) {
	if s.publisher == nil {
		return
	}
	data := events.ServiceData{ID: service.ID, Name: service.Name, IsActive: service.IsActive}
	e, err := events.New(t, service.ID, data, s.timeProvider.Now())
	if err != nil {
		s.logger.Error("publish: failed to build %s event for service id=%s: %v", t, service.ID, err)
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("publish: failed to publish %s event for service id=%s: %v", t, service.ID, err)
	}
}

// buildService валидирует запрос и подставляет значения по умолчанию
func buildService(req *models.CreateServiceRequest) (*domain.Service, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > domain.MaxServiceNameLength {
		return nil, fmt.Errorf("%w: name is longer than %d characters", ErrInvalidInput, domain.MaxServiceNameLength)
	}

	avg := domain.DefaultAvgServiceTimeMinutes
	if req.AvgServiceTimeMinutes != nil {
		avg = *req.AvgServiceTimeMinutes
	}
	if avg <= 0 {
		return nil, fmt.Errorf("%w: average service time must be positive", ErrInvalidInput)
	}

	capacity := domain.DefaultCapacityPerSlot
	if req.CapacityPerSlot != nil {
		capacity = *req.CapacityPerSlot
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity per slot must be positive", ErrInvalidInput)
	}

	var description *string
	if req.Description != nil {
		description = ptr.NilIfZero(strings.TrimSpace(*req.Description))
	}

	return &domain.Service{
		ID:                    uuid.NewString(),
		Name:                  name,
		Description:           description,
		AvgServiceTimeMinutes: avg,
		CapacityPerSlot:       capacity,
		IsActive:              true,
	}, nil
}
