package deactivate_service

import (
	"context"

	"github.com/m04kA/SMC-QueueService/internal/domain"
)

type CatalogService interface {
	DeactivateService(ctx context.Context, session domain.Session, id string) (*domain.Service, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
