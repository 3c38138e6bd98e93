package monitor

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"fundingarb/internal/models"
	"fundingarb/pkg/utils"
)

// ============================================================
// Кэш ставок фандинга
// ============================================================
//
// Разделяемое хранилище последних данных по символам. Писатель один -
// OpportunityMonitor, читателей много: API, статистика, условный монитор.
// Записи не вытесняются - фильтрация по свежести происходит при чтении,
// поэтому кратковременный сбой опроса не "опустошает" выдачу мгновенно,
// а устаревшие данные гарантированно не отдаются.

// RateConsumer получает пачку обновлённых пар после каждой записи в кэш
type RateConsumer func(pairs []*models.FundingRatePair)

// RatesCache хранит последние агрегированные данные по символам
type RatesCache struct {
	mu    sync.RWMutex
	pairs map[string]*models.FundingRatePair

	staleness time.Duration
	startedAt time.Time
	logger    *zap.Logger

	consumersMu sync.RWMutex
	consumers   map[string]RateConsumer
}

// NewRatesCache создаёт кэш с указанным окном свежести
func NewRatesCache(staleness time.Duration, logger *zap.Logger) *RatesCache {
	return &RatesCache{
		pairs:     make(map[string]*models.FundingRatePair),
		staleness: staleness,
		startedAt: time.Now(),
		logger:    logger,
		consumers: make(map[string]RateConsumer),
	}
}

// Set сохраняет данные одного символа. Последняя запись побеждает.
func (c *RatesCache) Set(pair *models.FundingRatePair) {
	if pair == nil {
		return
	}

	c.mu.Lock()
	c.pairs[pair.Symbol] = pair
	size := len(c.pairs)
	c.mu.Unlock()

	CacheSize.Set(float64(size))
	c.fanOut([]*models.FundingRatePair{pair})
}

// SetAll сохраняет пачку символов за один захват блокировки.
// Потребители уведомляются один раз на пачку.
func (c *RatesCache) SetAll(pairs []*models.FundingRatePair) {
	if len(pairs) == 0 {
		return
	}

	c.mu.Lock()
	for _, p := range pairs {
		if p != nil {
			c.pairs[p.Symbol] = p
		}
	}
	size := len(c.pairs)
	c.mu.Unlock()

	CacheSize.Set(float64(size))
	c.fanOut(pairs)
}

// Get возвращает данные символа, если они ещё свежие
func (c *RatesCache) Get(symbol string) (*models.FundingRatePair, bool) {
	c.mu.RLock()
	pair, ok := c.pairs[symbol]
	c.mu.RUnlock()

	if !ok || utils.IsStale(pair.RecordedAt, time.Now(), c.staleness) {
		return nil, false
	}
	return pair, true
}

// GetAll возвращает все свежие записи кэша
func (c *RatesCache) GetAll() []*models.FundingRatePair {
	now := time.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*models.FundingRatePair, 0, len(c.pairs))
	for _, pair := range c.pairs {
		if !utils.IsStale(pair.RecordedAt, now, c.staleness) {
			result = append(result, pair)
		}
	}
	return result
}

// Stats агрегирует статистику рынка по свежим записям.
//
// Возможность - годовой спред не ниже threshold; "приближается" -
// не ниже threshold*ratio, но ниже threshold.
func (c *RatesCache) Stats(threshold, ratio float64) models.MarketStats {
	pairs := c.GetAll()

	stats := models.MarketStats{
		TotalSymbols:  len(pairs),
		UptimeSeconds: time.Since(c.startedAt).Seconds(),
	}

	for _, pair := range pairs {
		if pair.RecordedAt.After(stats.LastUpdate) {
			stats.LastUpdate = pair.RecordedAt
		}
		if pair.BestPair == nil {
			continue
		}

		annualized := pair.BestPair.SpreadAnnualized
		if annualized >= threshold {
			stats.OpportunityCount++
		} else if annualized >= threshold*ratio {
			stats.ApproachingCount++
		}

		if annualized > stats.HighestSpreadAnnualized {
			stats.HighestSpreadAnnualized = annualized
			stats.HighestSpreadSymbol = pair.Symbol
		}
	}

	return stats
}

// Subscribe регистрирует потребителя fan-out под уникальным именем.
// Повторная регистрация имени заменяет потребителя.
func (c *RatesCache) Subscribe(name string, consumer RateConsumer) {
	if consumer == nil {
		return
	}
	c.consumersMu.Lock()
	c.consumers[name] = consumer
	c.consumersMu.Unlock()
}

// fanOut асинхронно раздаёт пачку обновлений потребителям.
// Паника потребителя гасится и никогда не достигает пути записи.
func (c *RatesCache) fanOut(pairs []*models.FundingRatePair) {
	c.consumersMu.RLock()
	defer c.consumersMu.RUnlock()

	for name, consumer := range c.consumers {
		go func(name string, consumer RateConsumer) {
			defer func() {
				if r := recover(); r != nil {
					CacheConsumerPanics.WithLabelValues(name).Inc()
					c.logger.Error("rates cache consumer panicked",
						zap.String("consumer", name),
						zap.Any("panic", r))
				}
			}()
			consumer(pairs)
		}(name, consumer)
	}
}
