package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"fundingarb/internal/exchange"
	"fundingarb/internal/models"
)

// ============================================================
// Монитор арбитражных возможностей
// ============================================================
//
// Оркестратор опроса: по расписанию собирает ставки и цены со всех
// бирж, строит агрегаты через PairSelector, публикует их в кэш и
// ведёт множество активных возможностей. События появления/исчезновения
// возможности - фронтовые: подписчик получает их только при смене
// состояния, не каждый цикл.

// OpportunityMonitor опрашивает биржи и отслеживает арбитражные возможности
type OpportunityMonitor struct {
	connectors map[string]exchange.Connector
	symbols    []string
	selector   *PairSelector
	cache      *RatesCache
	bus        *Bus
	sink       NotificationSink
	logger     *zap.Logger

	pollInterval time.Duration

	// Фолбэк для бирж, не сообщающих период выплат. Нулевой интервал
	// обнуляет годовую ставку спреда, поэтому подставляем дефолт.
	defaultIntervalHours float64

	mu        sync.Mutex
	scheduler gocron.Scheduler
	running   bool

	// Активные возможности по символам. Трогается только из tick -
	// singleton mode планировщика исключает параллельные циклы.
	active map[string]bool
}

// NewOpportunityMonitor создаёт монитор возможностей
func NewOpportunityMonitor(
	connectors map[string]exchange.Connector,
	symbols []string,
	pollInterval time.Duration,
	defaultIntervalHours float64,
	selector *PairSelector,
	cache *RatesCache,
	bus *Bus,
	sink NotificationSink,
	logger *zap.Logger,
) *OpportunityMonitor {
	return &OpportunityMonitor{
		connectors:           connectors,
		symbols:              symbols,
		selector:             selector,
		cache:                cache,
		bus:                  bus,
		sink:                 sink,
		logger:               logger,
		pollInterval:         pollInterval,
		defaultIntervalHours: defaultIntervalHours,
		active:               make(map[string]bool),
	}
}

// Start запускает цикл опроса. Повторный вызов - no-op с записью в лог.
func (m *OpportunityMonitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		m.logger.Warn("opportunity monitor already running, start ignored")
		return nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	// Singleton mode: новый цикл не стартует пока не завершился предыдущий
	_, err = scheduler.NewJob(
		gocron.DurationJob(m.pollInterval),
		gocron.NewTask(m.tick),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule opportunity tick: %w", err)
	}

	scheduler.Start()
	m.scheduler = scheduler
	m.running = true

	m.logger.Info("opportunity monitor started",
		zap.Duration("poll_interval", m.pollInterval),
		zap.Int("symbols", len(m.symbols)),
		zap.Int("exchanges", len(m.connectors)))
	return nil
}

// Stop останавливает цикл опроса. Повторный вызов безопасен.
func (m *OpportunityMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	if err := m.scheduler.Shutdown(); err != nil {
		m.logger.Error("failed to shut down opportunity scheduler", zap.Error(err))
	}
	m.scheduler = nil
	m.running = false

	m.logger.Info("opportunity monitor stopped")
}

// tick выполняет один цикл опроса всех символов.
//
// Символы опрашиваются параллельно, внутри каждого символа биржи тоже
// опрашиваются параллельно (см. collectSymbol). Результаты собираются
// в слайс по индексам - порядок символов стабилен, гонок по записи нет.
func (m *OpportunityMonitor) tick() {
	ctx := context.Background()
	now := time.Now()

	results := make([]*models.FundingRatePair, len(m.symbols))
	var wg sync.WaitGroup
	for i, symbol := range m.symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			results[i] = m.collectSymbol(ctx, symbol, now)
		}(i, symbol)
	}
	wg.Wait()

	pairs := make([]*models.FundingRatePair, 0, len(m.symbols))
	for _, pair := range results {
		if pair == nil {
			continue
		}
		pairs = append(pairs, pair)
	}

	// В кэш уходит всё собранное, независимо от вердикта о пригодности
	m.cache.SetAll(pairs)

	for _, pair := range pairs {
		m.bus.PublishRateUpdated(RateUpdatedEvent{Pair: pair, Timestamp: now})
		m.evaluate(pair, now)
	}
}

// collectSymbol опрашивает все биржи по символу.
//
// Запросы к биржам идут параллельно в стиле all-settled: ошибка одной
// биржи не отменяет остальные. Недоступность цены деградирует до nil -
// ставка без цены полезнее отсутствия данных. Менее двух успешных
// ответов - символ пропускается до следующего цикла.
func (m *OpportunityMonitor) collectSymbol(ctx context.Context, symbol string, now time.Time) *models.FundingRatePair {
	var wg sync.WaitGroup
	var mu sync.Mutex
	data := make(map[string]models.ExchangeRateData, len(m.connectors))

	for name, conn := range m.connectors {
		wg.Add(1)
		go func(name string, conn exchange.Connector) {
			defer wg.Done()

			started := time.Now()
			rate, err := conn.GetFundingRate(ctx, symbol)
			RecordFetchLatency(name, "funding_rate", float64(time.Since(started).Milliseconds()))
			if err != nil {
				RecordFetchError(name, "funding_rate")
				m.logger.Warn("funding rate fetch failed",
					zap.String("exchange", name),
					zap.String("symbol", symbol),
					zap.Error(err))
				return
			}

			entry := models.ExchangeRateData{Rate: *rate}
			if entry.Rate.FundingIntervalHours <= 0 {
				entry.Rate.FundingIntervalHours = m.defaultIntervalHours
			}

			quote, err := conn.GetPrice(ctx, symbol)
			if err != nil {
				RecordFetchError(name, "price")
				m.logger.Debug("price fetch failed, degrading to rate-only",
					zap.String("exchange", name),
					zap.String("symbol", symbol),
					zap.Error(err))
			} else if quote != nil {
				price := quote.Price
				entry.Price = &price
			}

			mu.Lock()
			data[name] = entry
			mu.Unlock()
		}(name, conn)
	}
	wg.Wait()

	if len(data) < 2 {
		SymbolsSkipped.WithLabelValues(symbol).Inc()
		m.logger.Warn("skipping symbol, not enough exchange data",
			zap.String("symbol", symbol),
			zap.Int("responses", len(data)))
		return nil
	}

	return m.selector.BuildPair(symbol, data, now)
}

// evaluate обновляет множество активных возможностей и публикует фронты
func (m *OpportunityMonitor) evaluate(pair *models.FundingRatePair, now time.Time) {
	ok, reason := m.selector.IsOpportunity(pair)
	wasActive := m.active[pair.Symbol]

	switch {
	case ok && !wasActive:
		m.active[pair.Symbol] = true
		OpportunitiesDetected.WithLabelValues(pair.Symbol).Inc()
		m.bus.PublishOpportunityDetected(OpportunityDetectedEvent{
			Symbol:    pair.Symbol,
			Pair:      pair,
			Timestamp: now,
		})
		m.notifyOpportunity(pair, now)

		m.logger.Info("arbitrage opportunity appeared",
			zap.String("symbol", pair.Symbol),
			zap.String("long", pair.BestPair.LongExchange),
			zap.String("short", pair.BestPair.ShortExchange),
			zap.Float64("spread", pair.BestPair.SpreadPercent),
			zap.Float64("annualized", pair.BestPair.SpreadAnnualized))

	case !ok && wasActive:
		delete(m.active, pair.Symbol)
		m.bus.PublishOpportunityDisappeared(OpportunityDisappearedEvent{
			Symbol:    pair.Symbol,
			Timestamp: now,
		})
		m.notifyOpportunityGone(pair.Symbol, reason, now)

		m.logger.Info("arbitrage opportunity disappeared",
			zap.String("symbol", pair.Symbol),
			zap.String("reason", reason))
	}

	ActiveOpportunities.Set(float64(len(m.active)))
}

func (m *OpportunityMonitor) notifyOpportunity(pair *models.FundingRatePair, now time.Time) {
	if m.sink == nil {
		return
	}
	m.sink.Notify(&models.Notification{
		Timestamp: now,
		Type:      models.NotificationTypeOpportunity,
		Severity:  models.SeverityInfo,
		Symbol:    pair.Symbol,
		Message: fmt.Sprintf("funding arbitrage opportunity on %s: long %s / short %s, spread %.4f%% per interval",
			pair.Symbol, pair.BestPair.LongExchange, pair.BestPair.ShortExchange, pair.BestPair.SpreadPercent*100),
		Meta: map[string]interface{}{
			"long_exchange":     pair.BestPair.LongExchange,
			"short_exchange":    pair.BestPair.ShortExchange,
			"spread":            pair.BestPair.SpreadPercent,
			"spread_annualized": pair.BestPair.SpreadAnnualized,
		},
	})
}

func (m *OpportunityMonitor) notifyOpportunityGone(symbol, reason string, now time.Time) {
	if m.sink == nil {
		return
	}
	m.sink.Notify(&models.Notification{
		Timestamp: now,
		Type:      models.NotificationTypeOpportunityGone,
		Severity:  models.SeverityInfo,
		Symbol:    symbol,
		Message:   fmt.Sprintf("funding arbitrage opportunity on %s is gone: %s", symbol, reason),
	})
}
