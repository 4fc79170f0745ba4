package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/m04kA/SMC-RentalService/internal/api"
	confirmPaymentHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/confirm_payment"
	createBookingHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/create_booking"
	decideBookingHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/decide_booking"
	getBookingHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/get_booking"
	getResourceBookingsHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/get_resource_bookings"
	resourcesHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/resources"
	"github.com/m04kA/SMC-RentalService/internal/config"
	"github.com/m04kA/SMC-RentalService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-RentalService/internal/infra/storage/memory"
	resourceRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/resource"
	"github.com/m04kA/SMC-RentalService/internal/integrations/payments"
	allocatorService "github.com/m04kA/SMC-RentalService/internal/service/allocator"
	bookingsService "github.com/m04kA/SMC-RentalService/internal/service/bookings"
	catalogService "github.com/m04kA/SMC-RentalService/internal/service/catalog"
	confirmPaymentUC "github.com/m04kA/SMC-RentalService/internal/usecase/confirm_payment"
	createBookingUC "github.com/m04kA/SMC-RentalService/internal/usecase/create_booking"
	decideBookingUC "github.com/m04kA/SMC-RentalService/internal/usecase/decide_booking"
	"github.com/m04kA/SMC-RentalService/internal/worker/expiry"
	"github.com/m04kA/SMC-RentalService/pkg/dbmetrics"
	"github.com/m04kA/SMC-RentalService/pkg/logger"
	"github.com/m04kA/SMC-RentalService/pkg/metrics"
	"github.com/m04kA/SMC-RentalService/pkg/txmanager"
)

// bookingStore полный набор операций хранилища бронирований, общий для postgres и memory
type bookingStore interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	ListByResource(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error)
	ListPendingCreatedBefore(ctx context.Context, before time.Time, limit int) ([]*domain.Booking, error)
	CountHolding(ctx context.Context, resourceID string) (int, error)
	Update(ctx context.Context, booking *domain.Booking, expectedVersion int64) error
}

type txManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type storage struct {
	resources catalogService.ResourceRepository
	bookings  bookingStore
	tx        txManager
	close     func()
}

func main() {
	// Загружаем конфигурацию
	configPath := config.Path("config.toml")
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

	log.Info("Starting SMC-RentalService...")
	log.Info("Configuration loaded from %s", configPath)

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Инициализируем хранилище
	store, err := openStorage(cfg, metricsCollector, stopMetricsCh, log)
	if err != nil {
		log.Fatal("Failed to initialize storage: %v", err)
	}
	defer store.close()

	// Инициализируем сервисы
	catalogSvc := catalogService.NewService(store.resources, store.bookings, store.tx, log)
	allocatorSvc := allocatorService.NewService(catalogSvc, metricsCollector, log)
	bookingSvc := bookingsService.NewService(store.bookings, catalogSvc, log)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		catalogSvc,
		allocatorSvc,
		store.bookings,
		store.tx,
		metricsCollector,
		log,
	)
	decideBookingUseCase := decideBookingUC.NewUseCase(
		store.bookings,
		allocatorSvc,
		store.tx,
		metricsCollector,
		log,
	)
	confirmPaymentUseCase := confirmPaymentUC.NewUseCase(
		store.bookings,
		allocatorSvc,
		decideBookingUseCase,
		store.tx,
		metricsCollector,
		log,
	)

	// Настраиваем роутер
	router := api.NewRouter(api.Handlers{
		CreateBooking:       createBookingHandler.NewHandler(createBookingUseCase, log),
		DecideBooking:       decideBookingHandler.NewHandler(decideBookingUseCase, log),
		ConfirmPayment:      confirmPaymentHandler.NewHandler(confirmPaymentUseCase, log),
		GetBooking:          getBookingHandler.NewHandler(bookingSvc, log),
		GetResourceBookings: getResourceBookingsHandler.NewHandler(bookingSvc, log),
		Resources:           resourcesHandler.NewHandler(catalogSvc, log),
	}, api.RouterConfig{
		AdminToken:    cfg.Admin.Token,
		PaymentsToken: cfg.Payments.Token,
		MetricsPath:   cfg.Metrics.Path,
	}, metricsCollector, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	// Воркер истечения заявок
	if cfg.Expiry.PendingTTL > 0 {
		scheduler := expiry.New(store.bookings, decideBookingUseCase, expiry.Config{
			PendingTTL: time.Duration(cfg.Expiry.PendingTTL) * time.Second,
			Interval:   time.Duration(cfg.Expiry.Interval) * time.Second,
			BatchSize:  cfg.Expiry.BatchSize,
		}, log)

		wg.Add(1)
		go func() {
			defer wg.Done()
			scheduler.Start(ctx)
		}()
	}

	// Консьюмер событий платежного сервиса
	if cfg.Kafka.Enabled {
		consumerCfg := payments.Config{
			Brokers:        cfg.Kafka.Brokers,
			Topic:          cfg.Kafka.Topic,
			GroupID:        cfg.Kafka.GroupID,
			MinBytes:       cfg.Kafka.MinBytes,
			MaxBytes:       cfg.Kafka.MaxBytes,
			MaxWait:        time.Duration(cfg.Kafka.MaxWaitMs) * time.Millisecond,
			CommitInterval: time.Duration(cfg.Kafka.CommitInterval) * time.Millisecond,
			MaxRetries:     cfg.Kafka.MaxRetries,
			RetryBackoff:   time.Duration(cfg.Kafka.RetryBackoffMs) * time.Millisecond,
		}

		reader, err := payments.NewReader(consumerCfg, log)
		if err != nil {
			log.Fatal("Failed to create kafka reader: %v", err)
		}
		consumer := payments.NewConsumer(reader, confirmPaymentUseCase, consumerCfg, metricsCollector, log)
		log.Info("Kafka payments consumer configured (brokers=%v, topic=%s, group=%s)",
			cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(ctx); err != nil {
				log.Error("Payments consumer stopped with error: %v", err)
			}
			if err := consumer.Close(); err != nil {
				log.Error("Failed to close kafka reader: %v", err)
			}
		}()
	}

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Останавливаем фоновые задачи
	cancel()
	wg.Wait()

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}

func openStorage(cfg *config.Config, m *metrics.Metrics, stopMetricsCh <-chan struct{}, log *logger.Logger) (*storage, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		store := memory.NewStore()
		log.Warn("Using in-memory storage: data is lost on restart")
		return &storage{
			resources: store.Resources(),
			bookings:  store.Bookings(),
			tx:        store.TxManager(),
			close:     func() {},
		}, nil
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Обёртка собирает метрики запросов; без метрик работает как обычный *sql.DB
	wrappedDB := dbmetrics.WrapWithDefault(db, m, stopMetricsCh)

	return &storage{
		resources: resourceRepo.NewRepository(wrappedDB),
		bookings:  bookingRepo.NewRepository(wrappedDB),
		tx:        txmanager.NewTransactionManager(wrappedDB),
		close:     func() { _ = db.Close() },
	}, nil
}
