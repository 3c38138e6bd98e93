package monitor

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"fundingarb/internal/models"
	"fundingarb/pkg/utils"
)

// ============================================================
// Отбор лучшей связки бирж по спреду фандинга
// ============================================================
//
// PairSelector - чистая логика без I/O: на вход карта ставок и цен
// по биржам, на выход лучшая пара long/short с оценкой доходности и
// вердикт о пригодности для входа. Источник данных (опрос бирж) и
// потребители (кэш, события) живут в OpportunityMonitor.

// PairSelector выбирает лучшую пару бирж и проверяет пригодность для арбитража
type PairSelector struct {
	minSpreadThreshold  float64 // минимальный спред за интервал (доли)
	maxAdversePriceDiff float64 // допустимая неблагоприятная разница цен (доли)
	logger              *zap.Logger
}

// NewPairSelector создаёт селектор с указанными порогами
func NewPairSelector(minSpreadThreshold, maxAdversePriceDiff float64, logger *zap.Logger) *PairSelector {
	return &PairSelector{
		minSpreadThreshold:  minSpreadThreshold,
		maxAdversePriceDiff: maxAdversePriceDiff,
		logger:              logger,
	}
}

// BuildPair агрегирует данные бирж по символу и вычисляет лучшую связку.
//
// Лучшая связка - пара бирж с максимальной абсолютной разницей ставок.
// Шорт открывается на бирже с большей ставкой (она платит фандинг лонгам
// дороже, значит шорт там его получает), лонг - на бирже с меньшей.
//
// Менее двух бирж - BestPair остаётся nil, сам объект всё равно
// возвращается: кэш хранит и неполные данные.
func (s *PairSelector) BuildPair(symbol string, data map[string]models.ExchangeRateData, now time.Time) *models.FundingRatePair {
	pair := &models.FundingRatePair{
		Symbol:     symbol,
		Exchanges:  data,
		RecordedAt: now,
	}

	if len(data) < 2 {
		return pair
	}

	var best *models.BestPair

	// Полный перебор пар бирж: бирж единицы, квадрат дешевле
	// любой предсортировки
	for nameA, dataA := range data {
		for nameB, dataB := range data {
			if nameA >= nameB {
				continue
			}

			spread := utils.FundingSpread(dataA.Rate.FundingRate, dataB.Rate.FundingRate)
			if best != nil && spread <= best.SpreadPercent {
				continue
			}

			// Шортим биржу с большей ставкой
			long, short := nameA, nameB
			longData, shortData := dataA, dataB
			if dataA.Rate.FundingRate > dataB.Rate.FundingRate {
				long, short = nameB, nameA
				longData, shortData = dataB, dataA
			}

			candidate := &models.BestPair{
				LongExchange:  long,
				ShortExchange: short,
				SpreadPercent: spread,
				SpreadAnnualized: utils.AnnualizeSpread(spread,
					longData.Rate.FundingIntervalHours, shortData.Rate.FundingIntervalHours),
			}

			if longData.Price != nil && shortData.Price != nil {
				diff := utils.PriceDiffRate(*shortData.Price, *longData.Price)
				candidate.PriceDiffPercent = &diff
			}

			best = candidate
		}
	}

	pair.BestPair = best
	if best != nil {
		RecordSpread(symbol, best.SpreadPercent)
	}

	return pair
}

// IsOpportunity проверяет пригодность пары для входа в арбитраж.
//
// Условия:
//  1. Спред за интервал не меньше порога.
//  2. Разница цен не хуже допустимой: неблагоприятная разница
//     (цена шорта ниже цены лонга) ограничена maxAdversePriceDiff.
//     Без цен хотя бы одной ноги проверка цен пропускается - вход
//     по одному спреду, с деградацией в логе.
//
// Возвращает вердикт и причину отказа (пустая строка при успехе).
func (s *PairSelector) IsOpportunity(pair *models.FundingRatePair) (bool, string) {
	if pair == nil || pair.BestPair == nil {
		return false, "insufficient exchange data"
	}

	best := pair.BestPair

	if best.SpreadPercent < s.minSpreadThreshold {
		return false, fmt.Sprintf("spread %.6f below threshold %.6f", best.SpreadPercent, s.minSpreadThreshold)
	}

	if best.PriceDiffPercent == nil {
		s.logger.Debug("price data missing, accepting on funding spread alone",
			zap.String("symbol", pair.Symbol),
			zap.String("long", best.LongExchange),
			zap.String("short", best.ShortExchange))
		return true, ""
	}

	if !utils.IsPriceDiffAcceptable(*best.PriceDiffPercent, s.maxAdversePriceDiff) {
		return false, fmt.Sprintf("adverse price diff %.6f exceeds limit %.6f",
			*best.PriceDiffPercent, s.maxAdversePriceDiff)
	}

	return true, ""
}
