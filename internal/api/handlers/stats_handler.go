package handlers

import (
	"net/http"

	"fundingarb/internal/models"
)

// StatsProvider - источник агрегированной статистики рынка.
// Реализуется monitor.RatesCache через замыкание с порогами из конфига.
type StatsProvider interface {
	Stats(threshold, ratio float64) models.MarketStats
}

// StatsHandler отдаёт агрегированную статистику по кэшу ставок
//
// Endpoints:
// - GET /api/v1/stats - количество символов, возможностей и лучший спред
type StatsHandler struct {
	stats StatsProvider

	// Пороги классификации из конфигурации мониторинга
	opportunityThreshold float64
	approachingRatio     float64
}

// NewStatsHandler создает новый StatsHandler
func NewStatsHandler(stats StatsProvider, opportunityThreshold, approachingRatio float64) *StatsHandler {
	return &StatsHandler{
		stats:                stats,
		opportunityThreshold: opportunityThreshold,
		approachingRatio:     approachingRatio,
	}
}

// GetStats возвращает статистику рынка
//
// GET /api/v1/stats
//
// Ответ содержит:
// - total_symbols: количество символов со свежими данными
// - opportunity_count: годовой спред выше порога
// - approaching_count: спред приближается к порогу
// - highest_spread_symbol / highest_spread_annualized: лучший кандидат
// - last_update, uptime_seconds
//
// HTTP коды:
// - 200 OK: статистика (нулевая если данных ещё нет)
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := h.stats.Stats(h.opportunityThreshold, h.approachingRatio)
	respondWithJSON(w, http.StatusOK, stats)
}
