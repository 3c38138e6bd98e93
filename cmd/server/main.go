package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"fundingarb/internal/api"
	"fundingarb/internal/config"
	"fundingarb/internal/exchange"
	"fundingarb/internal/models"
	"fundingarb/internal/monitor"
	"fundingarb/internal/repository"
	"fundingarb/internal/service"
	"fundingarb/internal/websocket"
	"fundingarb/pkg/logger"

	_ "github.com/lib/pq"
)

// notificationRetention ограничивает размер журнала уведомлений
const notificationRetention = 7 * 24 * time.Hour

func main() {
	// .env опционален: в контейнере конфигурация приходит из окружения
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	defer logger.Sync()
	log := logger.Get()

	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatal("не удалось подключиться к базе данных", zap.Error(err))
	}
	defer db.Close()
	log.Info("подключение к базе данных установлено",
		zap.String("dsn", cfg.Database.DSNWithoutPassword()))

	// Репозитории
	positionRepo := repository.NewPositionRepository(db)
	tradeRepo := repository.NewTradeRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// WebSocket hub для real-time обновлений
	hub := websocket.NewHub()
	go hub.Run()

	// Уведомления: БД + broadcast клиентам
	notifService := service.NewNotificationService(notificationRepo, log)
	notifService.SetWebSocketHub(hub)

	// Коннекторы бирж (зарегистрированные в этой сборке)
	connectors, err := exchange.BuildConnectors(cfg.Monitor.Exchanges, log)
	if err != nil {
		log.Fatal("не удалось создать коннекторы бирж", zap.Error(err))
	}
	for name, conn := range connectors {
		connectors[name] = exchange.WrapWithRateLimit(conn, exchange.DefaultRateLimit, exchange.DefaultBurst)
	}
	log.Info("коннекторы бирж инициализированы",
		zap.Int("available", len(connectors)),
		zap.Strings("registered", exchange.RegisteredConnectors()))

	// Кэш ставок, шина событий, селектор пар
	bus := monitor.NewBus()
	cache := monitor.NewRatesCache(cfg.Monitor.CacheStaleness, log)
	selector := monitor.NewPairSelector(cfg.Monitor.MinSpreadThreshold, cfg.Monitor.MaxAdversePriceDiff, log)

	// Fan-out свежих ставок и статистики в WebSocket
	cache.Subscribe("websocket", func(pairs []*models.FundingRatePair) {
		for _, pair := range pairs {
			hub.BroadcastRateUpdate(pair)
		}
		stats := cache.Stats(cfg.Monitor.OpportunityAnnualizedThreshold, cfg.Monitor.ApproachingRatio)
		hub.BroadcastStatsUpdate(&stats)
	})

	// Монитор возможностей
	oppMonitor := monitor.NewOpportunityMonitor(
		connectors,
		cfg.Monitor.Symbols,
		cfg.Monitor.PollInterval,
		float64(cfg.Monitor.DefaultFundingIntervalHours),
		selector,
		cache,
		bus,
		notifService,
		log,
	)
	if err := oppMonitor.Start(); err != nil {
		log.Fatal("не удалось запустить монитор возможностей", zap.Error(err))
	}

	// Монитор условных ордеров: требует реализацию закрытия позиций
	var condMonitor *monitor.ConditionalOrderMonitor
	closer, hasCloser, err := monitor.BuildCloser(connectors, log)
	if err != nil {
		log.Fatal("не удалось создать position closer", zap.Error(err))
	}
	if hasCloser {
		condMonitor = monitor.NewConditionalOrderMonitor(
			connectors,
			positionRepo,
			closer,
			tradeRepo,
			notifService,
			exchange.NewClassifierRegistry(),
			cfg.Monitor.ConditionalPollInterval,
			bus,
			log,
		)
		if err := condMonitor.Start(); err != nil {
			log.Fatal("не удалось запустить монитор условных ордеров", zap.Error(err))
		}
	} else {
		log.Warn("position closer не зарегистрирован в этой сборке, " +
			"мониторинг условных ордеров отключен")
	}

	// Периодическая очистка журнала уведомлений
	cleanupDone := make(chan struct{})
	go runNotificationCleanup(notifService, cleanupDone, log)

	// HTTP API
	deps := &api.Dependencies{
		Rates:                cache,
		Stats:                cache,
		Notifications:        notifService,
		Hub:                  hub,
		Logger:               log,
		OpportunityThreshold: cfg.Monitor.OpportunityAnnualizedThreshold,
		ApproachingRatio:     cfg.Monitor.ApproachingRatio,
	}
	router := api.SetupRoutes(deps)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP сервер запущен", zap.String("addr", server.Addr))
		var err error
		if cfg.Server.UseHTTPS {
			err = server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP сервер завершился с ошибкой", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("останавливаем сервис...")

	// Сначала мониторы: текущий tick дорабатывает, новые не стартуют
	oppMonitor.Stop()
	if condMonitor != nil {
		condMonitor.Stop()
	}
	close(cleanupDone)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("принудительное завершение HTTP сервера", zap.Error(err))
	}
	hub.Stop()

	log.Info("сервис остановлен")
}

// runNotificationCleanup раз в час удаляет устаревшие уведомления
func runNotificationCleanup(svc *service.NotificationService, done <-chan struct{}, log *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if _, err := svc.CleanupOld(ctx, notificationRetention); err != nil {
				log.Error("очистка журнала уведомлений не удалась", zap.Error(err))
			}
			cancel()
		}
	}
}

// initDatabase создает подключение к базе данных
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Пул соединений: нагрузка небольшая, два монитора и API
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}
