package get_stats

import "github.com/m04kA/SMC-QueueService/internal/domain"

// StatsResponse HTTP response model
type StatsResponse struct {
	Date      string `json:"date"`
	Today     int    `json:"today"`
	Total     int    `json:"total"`
	Waiting   int    `json:"waiting"`
	Served    int    `json:"served"`
	Cancelled int    `json:"cancelled"`
}

// FromStats конвертирует domain модель в HTTP response
func FromStats(s *domain.Stats) *StatsResponse {
	return &StatsResponse{
		Date:      s.Date.Format(domain.DateFormat),
		Today:     s.Today,
		Total:     s.Total,
		Waiting:   s.Waiting,
		Served:    s.Served,
		Cancelled: s.Cancelled,
	}
}
