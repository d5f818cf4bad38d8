package appointment

import "github.com/m04kA/SMC-QueueService/pkg/dbmetrics"

// Переиспользуем интерфейс из dbmetrics: *sql.DB и *dbmetrics.DB
type DBExecutor = dbmetrics.DBExecutor
