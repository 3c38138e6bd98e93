package handlers

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gorilla/mux"

	"fundingarb/internal/models"
)

// RatesProvider - источник актуальных ставок финансирования.
// Реализуется monitor.RatesCache.
type RatesProvider interface {
	Get(symbol string) (*models.FundingRatePair, bool)
	GetAll() []*models.FundingRatePair
}

// RatesHandler отдаёт кэшированные ставки финансирования
//
// Endpoints:
// - GET /api/v1/rates - все отслеживаемые символы
// - GET /api/v1/rates/{symbol} - один символ
//
// Данные идут из кэша последнего цикла опроса: запросы никогда
// не ходят на биржи напрямую. Устаревшие записи кэш отфильтровывает сам.
type RatesHandler struct {
	rates RatesProvider
}

// NewRatesHandler создает новый RatesHandler
func NewRatesHandler(rates RatesProvider) *RatesHandler {
	return &RatesHandler{rates: rates}
}

// GetRatesResponse представляет ответ со списком ставок
type GetRatesResponse struct {
	Rates []*models.FundingRatePair `json:"rates"`
	Total int                       `json:"total"`
}

// GetRates возвращает ставки по всем отслеживаемым символам
//
// GET /api/v1/rates
//
// HTTP коды:
// - 200 OK: массив символов с данными бирж и лучшей связкой
func (h *RatesHandler) GetRates(w http.ResponseWriter, r *http.Request) {
	rates := h.rates.GetAll()

	// Стабильный порядок для UI
	sort.Slice(rates, func(i, j int) bool {
		return rates[i].Symbol < rates[j].Symbol
	})

	respondWithJSON(w, http.StatusOK, GetRatesResponse{
		Rates: rates,
		Total: len(rates),
	})
}

// GetRate возвращает данные одного символа
//
// GET /api/v1/rates/{symbol}
//
// HTTP коды:
// - 200 OK: данные символа
// - 404 Not Found: символ не отслеживается или данные устарели
func (h *RatesHandler) GetRate(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	pair, ok := h.rates.Get(symbol)
	if !ok {
		respondWithError(w, http.StatusNotFound, "symbol not tracked or data is stale: "+symbol)
		return
	}

	respondWithJSON(w, http.StatusOK, pair)
}
