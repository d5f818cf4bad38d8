package appointments

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-QueueService/internal/domain"
)

// formatQueueNumber собирает талон Q-<SVC4>-<MMDD>-<NNN>.
// Номер не уникален и не задает порядок: позиция в очереди считается отдельно.
func formatQueueNumber(serviceID string, date time.Time, random int) string {
	runes := []rune(serviceID)
	if len(runes) > domain.QueueNumberServiceRunes {
		runes = runes[:domain.QueueNumberServiceRunes]
	}

	compact := date.Format("20060102")
	dateDigits := compact[len(compact)-domain.QueueNumberDateDigits:]

	return fmt.Sprintf("%s-%s-%s-%03d",
		domain.QueueNumberPrefix,
		strings.ToUpper(string(runes)),
		dateDigits,
		random%domain.QueueNumberRandomRange,
	)
}
