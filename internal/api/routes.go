package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"fundingarb/internal/api/handlers"
	"fundingarb/internal/api/middleware"
	"fundingarb/internal/websocket"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	Rates         handlers.RatesProvider
	Stats         handlers.StatsProvider
	Notifications handlers.NotificationProvider
	Hub           *websocket.Hub
	Logger        *zap.Logger

	// Пороги классификации возможностей (из конфигурации мониторинга)
	OpportunityThreshold float64
	ApproachingRatio     float64
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Структура маршрутов:
//
// /api/v1/
//
//	├── /rates
//	│   ├── GET / - ставки по всем отслеживаемым символам
//	│   └── GET /{symbol} - данные одного символа
//	├── /stats
//	│   └── GET / - агрегированная статистика рынка
//	└── /notifications
//	    └── GET / - журнал уведомлений
//
// /ws       - WebSocket для real-time обновлений
// /metrics  - Prometheus метрики (Basic Auth в production)
// /health   - health check
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logging(logger))
	router.Use(middleware.CORS)

	api := router.PathPrefix("/api/v1").Subrouter()

	if deps.Rates != nil {
		ratesHandler := handlers.NewRatesHandler(deps.Rates)
		api.HandleFunc("/rates", ratesHandler.GetRates).Methods("GET")
		api.HandleFunc("/rates/{symbol}", ratesHandler.GetRate).Methods("GET")
	}

	if deps.Stats != nil {
		statsHandler := handlers.NewStatsHandler(deps.Stats, deps.OpportunityThreshold, deps.ApproachingRatio)
		api.HandleFunc("/stats", statsHandler.GetStats).Methods("GET")
	}

	if deps.Notifications != nil {
		notificationHandler := handlers.NewNotificationHandler(deps.Notifications)
		api.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
	}

	// WebSocket route
	if deps.Hub != nil {
		router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(deps.Hub, w, r)
		})
	}

	// Prometheus метрики, в production за Basic Auth
	router.Handle("/metrics", middleware.MetricsAuth(promhttp.Handler())).Methods("GET")

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	return router
}
