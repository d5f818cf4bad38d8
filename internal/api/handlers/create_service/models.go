package create_service

import "github.com/m04kA/SMC-QueueService/internal/service/catalog/models"

// CreateServiceRequest HTTP request model
type CreateServiceRequest struct {
	Name                  string  `json:"name"`
	Description           *string `json:"description,omitempty"`
	AvgServiceTimeMinutes *int    `json:"avgServiceTimeMinutes,omitempty"`
	CapacityPerSlot       *int    `json:"capacityPerSlot,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *CreateServiceRequest) ToServiceRequest() *models.CreateServiceRequest {
	return &models.CreateServiceRequest{
		Name:                  r.Name,
		Description:           r.Description,
		AvgServiceTimeMinutes: r.AvgServiceTimeMinutes,
		CapacityPerSlot:       r.CapacityPerSlot,
	}
}
