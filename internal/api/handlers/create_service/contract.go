package create_service

import (
	"context"

	"github.com/m04kA/SMC-QueueService/internal/domain"
	"github.com/m04kA/SMC-QueueService/internal/service/catalog/models"
)

type CatalogService interface {
	CreateService(ctx context.Context, session domain.Session, req *models.CreateServiceRequest) (*domain.Service, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
