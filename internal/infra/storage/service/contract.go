package service

import "github.com/m04kA/SMC-QueueService/pkg/dbmetrics"

type DBExecutor = dbmetrics.DBExecutor
