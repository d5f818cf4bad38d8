package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	cancelAppointmentHandler "github.com/m04kA/SMC-QueueService/internal/api/handlers/cancel_appointment"
	createAppointmentHandler "github.com/m04kA/SMC-QueueService/internal/api/handlers/create_appointment"
	createServiceHandler "github.com/m04kA/SMC-QueueService/internal/api/handlers/create_service"
	deactivateServiceHandler "github.com/m04kA/SMC-QueueService/internal/api/handlers/deactivate_service"
	eventsStreamHandler "github.com/m04kA/SMC-QueueService/internal/api/handlers/events_stream"
	getAnalyticsHandler "github.com/m04kA/SMC-QueueService/internal/api/handlers/get_analytics"
	getAppointmentActivityHandler "github.com/m04kA/SMC-QueueService/internal/api/handlers/get_appointment_activity"
	getAvailableSlotsHandler "github.com/m04kA/SMC-QueueService/internal/api/handlers/get_available_slots"
	getServiceQueueHandler "github.com/m04kA/SMC-QueueService/internal/api/handlers/get_service_queue"
	getStatsHandler "github.com/m04kA/SMC-QueueService/internal/api/handlers/get_stats"
	getUserAppointmentsHandler "github.com/m04kA/SMC-QueueService/internal/api/handlers/get_user_appointments"
	healthzHandler "github.com/m04kA/SMC-QueueService/internal/api/handlers/healthz"
	listAppointmentsHandler "github.com/m04kA/SMC-QueueService/internal/api/handlers/list_appointments"
	listServicesHandler "github.com/m04kA/SMC-QueueService/internal/api/handlers/list_services"
	markServedHandler "github.com/m04kA/SMC-QueueService/internal/api/handlers/mark_served"
	"github.com/m04kA/SMC-QueueService/internal/api/middleware"
	"github.com/m04kA/SMC-QueueService/internal/config"
	"github.com/m04kA/SMC-QueueService/internal/events"
	activityRepo "github.com/m04kA/SMC-QueueService/internal/infra/storage/activity"
	appointmentRepo "github.com/m04kA/SMC-QueueService/internal/infra/storage/appointment"
	"github.com/m04kA/SMC-QueueService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-QueueService/internal/infra/storage/migrations"
	serviceRepo "github.com/m04kA/SMC-QueueService/internal/infra/storage/service"
	appointmentsService "github.com/m04kA/SMC-QueueService/internal/service/appointments"
	catalogService "github.com/m04kA/SMC-QueueService/internal/service/catalog"
	"github.com/m04kA/SMC-QueueService/pkg/dbmetrics"
	"github.com/m04kA/SMC-QueueService/pkg/logger"
	"github.com/m04kA/SMC-QueueService/pkg/metrics"
)

const configPath = "config.toml"

// repositories набор хранилищ выбранного драйвера
type repositories struct {
	appointments appointmentsService.AppointmentRepository
	activity     appointmentsService.ActivityRepository
	services     catalogService.ServiceRepository
	health       healthzHandler.Pinger
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-QueueService...")
	log.Info("Configuration loaded from %s (database driver=%s)", configPath, cfg.Database.Driver)

	location, err := cfg.Queue.Location()
	if err != nil {
		log.Fatal("Invalid queue timezone: %v", err)
	}

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Инициализируем хранилище
	var repos repositories
	switch cfg.Database.Driver {
	case config.DriverMemory:
		store := memory.NewStore()
		repos = repositories{
			appointments: store.Appointments(),
			activity:     store.Activity(),
			services:     store.Services(),
		}
		log.Warn("Using in-memory storage, data will be lost on restart")

	default:
		if cfg.Database.MigrateOnStart {
			if err := migrations.Up(cfg.Database.URL(), log); err != nil {
				log.Fatal("Failed to apply migrations: %v", err)
			}
		}

		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			log.Fatal("Failed to connect to database: %v", err)
		}
		defer db.Close()

		// Настраиваем connection pool
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

		// Проверяем соединение
		if err := db.Ping(); err != nil {
			log.Fatal("Failed to ping database: %v", err)
		}
		log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

		if cfg.Metrics.Enabled {
			wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Database.DBName, stopMetricsCh)
			log.Info("Database metrics collection started")

			// Инициализируем репозитории с обёрткой метрик
			repos = repositories{
				appointments: appointmentRepo.NewRepository(wrappedDB),
				activity:     activityRepo.NewRepository(wrappedDB),
				services:     serviceRepo.NewRepository(wrappedDB),
				health:       wrappedDB,
			}
		} else {
			// Инициализируем репозитории без метрик
			repos = repositories{
				appointments: appointmentRepo.NewRepository(db),
				activity:     activityRepo.NewRepository(db),
				services:     serviceRepo.NewRepository(db),
				health:       db,
			}
		}
	}

	ctx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()
	var background sync.WaitGroup

	// Инициализируем события: локальный брокер, Redis и Kafka по конфигурации
	var eventMetrics events.Metrics
	if metricsCollector != nil {
		eventMetrics = metricsCollector
	}
	broker := events.NewBroker(eventMetrics)
	publishers := events.Fanout{broker}

	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("Failed to ping redis at %s: %v", cfg.Redis.Addr, err)
		}

		redisBus := events.NewRedisBus(redisClient, cfg.Redis.Channel, broker, log)
		publishers = append(publishers, redisBus)

		background.Add(1)
		go func() {
			defer background.Done()
			if err := redisBus.Run(ctx); err != nil {
				log.Error("Redis event relay stopped: %v", err)
			}
		}()
		log.Info("Redis event fan-out enabled (addr=%s, channel=%s)", cfg.Redis.Addr, cfg.Redis.Channel)
	}

	if cfg.Kafka.Enabled {
		kafkaSink := events.NewKafkaSink(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic, log))
		defer kafkaSink.Close()
		publishers = append(publishers, kafkaSink)
		log.Info("Kafka notification stream enabled (brokers=%v, topic=%s)", cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	// Инициализируем сервисы
	var transitions appointmentsService.TransitionRecorder
	if metricsCollector != nil {
		transitions = metricsCollector
	}
	appointmentSvc := appointmentsService.NewService(
		repos.appointments,
		repos.activity,
		publishers,
		transitions,
		location,
		log,
	)
	catalogSvc := catalogService.NewService(
		repos.services,
		publishers,
		log,
	)

	// Периодическая сверка очередей для подписчиков, пропустивших события
	if cfg.Queue.ReconcileInterval > 0 {
		reconciler := events.NewReconciler(appointmentSvc, catalogSvc, broker, cfg.Queue.ReconcileEvery(), log)
		background.Add(1)
		go func() {
			defer background.Done()
			reconciler.Run(ctx)
		}()
	}

	// Инициализируем handlers
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(appointmentSvc, log)
	getServiceQueue := getServiceQueueHandler.NewHandler(appointmentSvc, log)
	createAppointment := createAppointmentHandler.NewHandler(appointmentSvc, log)
	cancelAppointment := cancelAppointmentHandler.NewHandler(appointmentSvc, log)
	markServed := markServedHandler.NewHandler(appointmentSvc, log)
	getUserAppointments := getUserAppointmentsHandler.NewHandler(appointmentSvc, log)
	listAppointments := listAppointmentsHandler.NewHandler(appointmentSvc, log)
	getAppointmentActivity := getAppointmentActivityHandler.NewHandler(appointmentSvc, log)
	getStats := getStatsHandler.NewHandler(appointmentSvc, log)
	getAnalytics := getAnalyticsHandler.NewHandler(appointmentSvc, log)
	listServices := listServicesHandler.NewHandler(catalogSvc, log)
	createService := createServiceHandler.NewHandler(catalogSvc, log)
	deactivateService := deactivateServiceHandler.NewHandler(catalogSvc, log)
	eventsStream := eventsStreamHandler.NewHandler(broker, cfg.Server.AllowedOrigins, log)
	healthz := healthzHandler.NewHandler(repos.health, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		log.Info("HTTP metrics middleware enabled")

		// Metrics endpoint (публичный, без аутентификации)
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	r.HandleFunc("/healthz", healthz.Handle).Methods(http.MethodGet)

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Каталог активных услуг
	api.HandleFunc("/services", listServices.Handle).Methods(http.MethodGet)

	// Свободные слоты услуги на дату
	api.HandleFunc("/services/{serviceId}/available-slots", getAvailableSlots.Handle).Methods(http.MethodGet)

	// Очередь услуги на дату (табло)
	api.HandleFunc("/services/{serviceId}/queue", getServiceQueue.Handle).Methods(http.MethodGet)

	// Поток событий (websocket)
	api.HandleFunc("/events", eventsStream.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Записи ---
	// Запись в очередь
	protected.HandleFunc("/appointments", createAppointment.Handle).Methods(http.MethodPost)

	// Список записей (персонал)
	protected.HandleFunc("/appointments", listAppointments.Handle).Methods(http.MethodGet)

	// Отмена записи
	protected.HandleFunc("/appointments/{appointmentId}/cancel", cancelAppointment.Handle).Methods(http.MethodPatch)

	// Отметка об обслуживании (персонал)
	protected.HandleFunc("/appointments/{appointmentId}/serve", markServed.Handle).Methods(http.MethodPatch)

	// Журнал действий персонала по записи
	protected.HandleFunc("/appointments/{appointmentId}/activity", getAppointmentActivity.Handle).Methods(http.MethodGet)

	// История записей пользователя
	protected.HandleFunc("/users/{userId}/appointments", getUserAppointments.Handle).Methods(http.MethodGet)

	// --- Статистика ---
	protected.HandleFunc("/stats", getStats.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/analytics", getAnalytics.Handle).Methods(http.MethodGet)

	// --- Управление каталогом (администраторы) ---
	protected.HandleFunc("/services", createService.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/services/{serviceId}/deactivate", deactivateService.Handle).Methods(http.MethodPatch)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем фоновые задачи и закрываем подписки websocket
	cancelBackground()
	broker.Close()
	background.Wait()

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
