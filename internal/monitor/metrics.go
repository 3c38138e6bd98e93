package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики ядра мониторинга
// ============================================================
//
// Использование:
// - Grafana дашборды для визуализации спредов и срабатываний
// - Alertmanager для уведомлений об аварийных закрытиях
// - Анализ стабильности опросов бирж в production

// ============ Метрики опроса фандинга ============

// FetchLatency - время получения ставки/цены с биржи
var FetchLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "fundingarb",
		Subsystem: "monitor",
		Name:      "fetch_latency_ms",
		Help:      "Latency of a single exchange fetch in milliseconds",
		Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	},
	[]string{"exchange", "kind"}, // kind: funding_rate, price
)

// FetchErrors - ошибки запросов к биржам
var FetchErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fundingarb",
		Subsystem: "monitor",
		Name:      "fetch_errors_total",
		Help:      "Total number of failed exchange fetches",
	},
	[]string{"exchange", "kind"},
)

// SymbolsSkipped - символы, пропущенные из-за нехватки данных
var SymbolsSkipped = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fundingarb",
		Subsystem: "monitor",
		Name:      "symbols_skipped_total",
		Help:      "Symbols skipped in a tick (less than two exchanges responded)",
	},
	[]string{"symbol"},
)

// ============ Метрики спредов и возможностей ============

// SpreadObserved - наблюдаемые спреды фандинга (доли за интервал)
var SpreadObserved = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "fundingarb",
		Subsystem: "monitor",
		Name:      "funding_spread_observed",
		Help:      "Observed funding spread per interval as a fraction",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
	},
	[]string{"symbol"},
)

// ActiveOpportunities - текущее количество активных возможностей
var ActiveOpportunities = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "fundingarb",
		Subsystem: "monitor",
		Name:      "active_opportunities",
		Help:      "Current number of symbols in the active opportunity set",
	},
)

// OpportunitiesDetected - обнаруженные возможности (фронты)
var OpportunitiesDetected = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fundingarb",
		Subsystem: "monitor",
		Name:      "opportunities_detected_total",
		Help:      "Number of opportunity appearance edges",
	},
	[]string{"symbol"},
)

// ============ Метрики условных ордеров ============

// TriggersDetected - срабатывания защитных ордеров по типам
var TriggersDetected = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fundingarb",
		Subsystem: "conditional",
		Name:      "triggers_detected_total",
		Help:      "Number of detected conditional order triggers",
	},
	[]string{"type"}, // LONG_SL, LONG_TP, SHORT_SL, SHORT_TP, BOTH
)

// PositionsClosed - закрытые монитором позиции
var PositionsClosed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fundingarb",
		Subsystem: "conditional",
		Name:      "positions_closed_total",
		Help:      "Positions closed by the conditional order monitor",
	},
	[]string{"reason"},
)

// EmergencyEscalations - аварийные эскалации (автозакрытие не удалось)
var EmergencyEscalations = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "fundingarb",
		Subsystem: "conditional",
		Name:      "emergency_escalations_total",
		Help:      "Failed automatic closes escalated for manual intervention",
	},
)

// CloseLatency - время от детекции срабатывания до закрытия позиции
var CloseLatency = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "fundingarb",
		Subsystem: "conditional",
		Name:      "close_latency_ms",
		Help:      "Time from trigger detection to position close in milliseconds",
		Buckets:   []float64{100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	},
)

// MonitoredPositions - позиции под мониторингом в последнем цикле
var MonitoredPositions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "fundingarb",
		Subsystem: "conditional",
		Name:      "monitored_positions",
		Help:      "Open positions with conditional orders in the last sweep",
	},
)

// ============ Метрики инфраструктуры ============

// EventsDropped - события, потерянные из-за переполнения буфера подписчика
var EventsDropped = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fundingarb",
		Subsystem: "monitor",
		Name:      "events_dropped_total",
		Help:      "Events dropped due to a full subscriber buffer",
	},
	[]string{"kind"},
)

// CacheConsumerPanics - паники потребителей fan-out кэша
var CacheConsumerPanics = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fundingarb",
		Subsystem: "cache",
		Name:      "consumer_panics_total",
		Help:      "Recovered panics in rates cache fan-out consumers",
	},
	[]string{"consumer"},
)

// CacheSize - количество символов в кэше ставок
var CacheSize = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "fundingarb",
		Subsystem: "cache",
		Name:      "symbols",
		Help:      "Number of symbols currently stored in the rates cache",
	},
)

// ============ Вспомогательные функции ============

// RecordFetchError записывает ошибку запроса к бирже
func RecordFetchError(exchange, kind string) {
	FetchErrors.WithLabelValues(exchange, kind).Inc()
}

// RecordFetchLatency записывает латентность запроса
func RecordFetchLatency(exchange, kind string, latencyMs float64) {
	FetchLatency.WithLabelValues(exchange, kind).Observe(latencyMs)
}

// RecordSpread записывает наблюдаемый спред
func RecordSpread(symbol string, spread float64) {
	SpreadObserved.WithLabelValues(symbol).Observe(spread)
}

// RecordTrigger записывает обнаруженное срабатывание
func RecordTrigger(triggerType string) {
	TriggersDetected.WithLabelValues(triggerType).Inc()
}

// RecordPositionClosed записывает закрытие позиции
func RecordPositionClosed(reason string) {
	PositionsClosed.WithLabelValues(reason).Inc()
}

// RecordEventDropped записывает потерю события
func RecordEventDropped(kind string) {
	EventsDropped.WithLabelValues(kind).Inc()
}
