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
	"fundingarb/pkg/retry"
	"fundingarb/pkg/utils"
)

// ============================================================
// Монитор условных ордеров
// ============================================================
//
// Для каждой открытой хеджированной позиции с выставленными защитными
// ордерами монитор детектирует срабатывание одной из ног и автоматически
// закрывает вторую, чтобы позиция не осталась без хеджа.
//
// Цикл по позиции (состояния сверху вниз):
//  1. Карта наличия ордеров: отсутствие подтверждается только явным
//     ответом биржи, ошибка запроса сохраняет последнее значение.
//  2. Обе ноги без ордеров - независимое подтверждение каждой через
//     историю; BOTH только при двух подтверждённых TRIGGERED.
//  3. Иначе первый пропавший ордер (приоритет: long SL, long TP,
//     short SL, short TP) даёт кандидата.
//  4. Подтверждение: история TRIGGERED, либо CANCELED + позиция на
//     бирже исчезла. Ручное редактирование цены ордера выглядит как
//     cancel-and-replace - без проверки позиции это ложный триггер.
//  5. BOTH - обе ноги уже закрылись сами, только перевод в CLOSED.
//  6. Одиночный триггер - закрытие противоположной ноги через
//     PositionCloser с retry; ошибка "нет позиции" переклассифицируется
//     в BOTH (нога успела закрыться сама между детекцией и закрытием).
//  7. Неустранимый сбой закрытия - аварийное уведомление, позиция
//     остаётся OPEN для ручного вмешательства.
//
// Инвариант корректности: не более одного автозакрытия на позицию.
// Обеспечивается singleton mode планировщика (циклы не перекрываются)
// и условным UPDATE репозитория (MarkClosed возвращает false, если
// позиция уже закрыта).

// TradeRecorder персистит запись о закрытии для истории и статистики
type TradeRecorder interface {
	Create(ctx context.Context, record *models.TradeRecord) error
}

// orderSpec описывает один защитный ордер позиции
type orderSpec struct {
	triggerType models.TriggerType
	exchange    string
	orderID     string
	exists      bool
}

// ConditionalOrderMonitor отслеживает срабатывания защитных ордеров
type ConditionalOrderMonitor struct {
	connectors  map[string]exchange.Connector
	positions   PositionRepository
	closer      PositionCloser
	trades      TradeRecorder
	sink        NotificationSink
	classifiers *exchange.ClassifierRegistry
	bus         *Bus
	logger      *zap.Logger

	pollInterval time.Duration

	mu        sync.Mutex
	scheduler gocron.Scheduler
	running   bool
}

// NewConditionalOrderMonitor создаёт монитор условных ордеров
func NewConditionalOrderMonitor(
	connectors map[string]exchange.Connector,
	positions PositionRepository,
	closer PositionCloser,
	trades TradeRecorder,
	sink NotificationSink,
	classifiers *exchange.ClassifierRegistry,
	pollInterval time.Duration,
	bus *Bus,
	logger *zap.Logger,
) *ConditionalOrderMonitor {
	return &ConditionalOrderMonitor{
		connectors:   connectors,
		positions:    positions,
		closer:       closer,
		trades:       trades,
		sink:         sink,
		classifiers:  classifiers,
		bus:          bus,
		logger:       logger,
		pollInterval: pollInterval,
	}
}

// Start запускает цикл мониторинга. Повторный вызов - no-op.
func (m *ConditionalOrderMonitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		m.logger.Warn("conditional order monitor already running, start ignored")
		return nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	// Перекрытие циклов запрещено: два одновременных sweep по одной
	// позиции ломают инвариант "одно автозакрытие"
	_, err = scheduler.NewJob(
		gocron.DurationJob(m.pollInterval),
		gocron.NewTask(m.sweep),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule conditional sweep: %w", err)
	}

	scheduler.Start()
	m.scheduler = scheduler
	m.running = true

	m.logger.Info("conditional order monitor started",
		zap.Duration("poll_interval", m.pollInterval))
	return nil
}

// Stop останавливает цикл мониторинга. Повторный вызов безопасен.
func (m *ConditionalOrderMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	if err := m.scheduler.Shutdown(); err != nil {
		m.logger.Error("failed to shut down conditional scheduler", zap.Error(err))
	}
	m.scheduler = nil
	m.running = false

	m.logger.Info("conditional order monitor stopped")
}

// sweep обходит все позиции под мониторингом.
// Паника или ошибка на одной позиции не прерывает обход остальных.
func (m *ConditionalOrderMonitor) sweep() {
	ctx := context.Background()

	positions, err := m.positions.GetOpenWithConditionalOrders(ctx)
	if err != nil {
		m.logger.Error("failed to load monitored positions", zap.Error(err))
		return
	}
	MonitoredPositions.Set(float64(len(positions)))

	for _, pos := range positions {
		m.checkAndHandle(ctx, pos)
	}
}

func (m *ConditionalOrderMonitor) checkAndHandle(ctx context.Context, pos *models.Position) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("panic while checking position",
				zap.Int("position_id", pos.ID),
				zap.Any("panic", r))
		}
	}()

	result, err := m.CheckPosition(ctx, pos)
	if err != nil {
		m.logger.Warn("position check failed, will retry next sweep",
			zap.Int("position_id", pos.ID),
			zap.Error(err))
		return
	}
	if result == nil {
		return
	}

	if err := m.HandleTrigger(ctx, pos, result); err != nil {
		m.logger.Error("trigger handling failed",
			zap.Int("position_id", pos.ID),
			zap.String("trigger_type", string(result.TriggerType)),
			zap.Error(err))
	}
}

// CheckPosition выполняет детекцию срабатывания для одной позиции.
// Возвращает nil без ошибки когда срабатывания нет или подтверждение
// неоднозначно - позиция будет перепроверена следующим циклом.
func (m *ConditionalOrderMonitor) CheckPosition(ctx context.Context, pos *models.Position) (*models.TriggerResult, error) {
	specs := m.checkExistence(ctx, pos)

	statusMap := models.NewOrderStatusMap()
	for _, s := range specs {
		switch s.triggerType {
		case models.TriggerLongSL:
			statusMap.LongStopLossExists = s.exists
		case models.TriggerLongTP:
			statusMap.LongTakeProfitExists = s.exists
		case models.TriggerShortSL:
			statusMap.ShortStopLossExists = s.exists
		case models.TriggerShortTP:
			statusMap.ShortTakeProfitExists = s.exists
		}
	}

	// Обе ноги без ордеров - кандидат на двойное срабатывание
	if statusMap.LongSideMissing() && statusMap.ShortSideMissing() {
		if result := m.confirmBoth(ctx, pos, specs); result != nil {
			return result, nil
		}
		// Две ноги не подтвердились независимо - падаем в одиночную
		// детекцию, гонка запросов не повод объявлять BOTH
	}

	// Одиночная детекция: первый пропавший ордер в порядке приоритета
	for _, s := range specs {
		if s.exists {
			continue
		}
		return m.confirmSingle(ctx, pos, s)
	}

	return nil, nil
}

// checkExistence строит упорядоченный список защитных ордеров позиции
// с результатами проверки наличия. Ошибка запроса оставляет exists=true:
// отсутствие должно быть подтверждено положительно.
func (m *ConditionalOrderMonitor) checkExistence(ctx context.Context, pos *models.Position) []orderSpec {
	candidates := []orderSpec{
		{models.TriggerLongSL, pos.LongExchange, pos.LongStopLossOrderID, true},
		{models.TriggerLongTP, pos.LongExchange, pos.LongTakeProfitOrderID, true},
		{models.TriggerShortSL, pos.ShortExchange, pos.ShortStopLossOrderID, true},
		{models.TriggerShortTP, pos.ShortExchange, pos.ShortTakeProfitOrderID, true},
	}

	specs := make([]orderSpec, 0, len(candidates))
	for _, c := range candidates {
		if c.orderID == "" {
			continue // ордер не выставлялся
		}

		conn, ok := m.connectors[c.exchange]
		if !ok {
			m.logger.Error("no connector for exchange",
				zap.String("exchange", c.exchange),
				zap.Int("position_id", pos.ID))
			specs = append(specs, c)
			continue
		}

		exists, err := conn.CheckOrderExists(ctx, pos.Symbol, c.orderID)
		if err != nil {
			RecordFetchError(c.exchange, "order_exists")
			m.logger.Debug("order existence check failed, keeping last known state",
				zap.String("exchange", c.exchange),
				zap.String("order_id", c.orderID),
				zap.Error(err))
		} else {
			c.exists = exists
		}
		specs = append(specs, c)
	}

	return specs
}

// confirmBoth независимо подтверждает срабатывание обеих ног.
// BOTH объявляется только когда история обеих сторон вернула TRIGGERED.
func (m *ConditionalOrderMonitor) confirmBoth(ctx context.Context, pos *models.Position, specs []orderSpec) *models.TriggerResult {
	longSpec, longOK := m.confirmSideTriggered(ctx, pos, specs, models.SideLong)
	if !longOK {
		return nil
	}
	shortSpec, shortOK := m.confirmSideTriggered(ctx, pos, specs, models.SideShort)
	if !shortOK {
		return nil
	}

	return &models.TriggerResult{
		PositionID:                 pos.ID,
		TriggerType:                models.TriggerBoth,
		TriggeredExchange:          longSpec.exchange,
		TriggeredOrderID:           longSpec.orderID,
		TriggeredAt:                time.Now(),
		ConfirmedByHistory:         true,
		OtherSideTriggeredExchange: shortSpec.exchange,
		OtherSideTriggeredOrderID:  shortSpec.orderID,
	}
}

// confirmSideTriggered ищет пропавший ордер стороны и подтверждает его
// срабатывание историей. Для BOTH годится только статус TRIGGERED.
func (m *ConditionalOrderMonitor) confirmSideTriggered(ctx context.Context, pos *models.Position, specs []orderSpec, side string) (orderSpec, bool) {
	for _, s := range specs {
		if s.exists || s.triggerType.Side() != side {
			continue
		}

		conn, ok := m.connectors[s.exchange]
		if !ok {
			continue
		}

		history, err := conn.GetOrderHistory(ctx, pos.Symbol, s.orderID)
		if err != nil {
			RecordFetchError(s.exchange, "order_history")
			continue
		}
		if history.Status == exchange.HistoryStatusTriggered {
			return s, true
		}
	}
	return orderSpec{}, false
}

// confirmSingle подтверждает одиночное срабатывание кандидата.
//
// Подтверждение: история TRIGGERED, либо CANCELED и позиция на бирже
// исчезла. Любой другой исход - не срабатывание, перепроверка следующим
// циклом.
func (m *ConditionalOrderMonitor) confirmSingle(ctx context.Context, pos *models.Position, spec orderSpec) (*models.TriggerResult, error) {
	conn, ok := m.connectors[spec.exchange]
	if !ok {
		return nil, fmt.Errorf("no connector for exchange %s", spec.exchange)
	}

	history, err := conn.GetOrderHistory(ctx, pos.Symbol, spec.orderID)
	if err != nil {
		RecordFetchError(spec.exchange, "order_history")
		return nil, fmt.Errorf("fetch order history on %s: %w", spec.exchange, err)
	}

	switch history.Status {
	case exchange.HistoryStatusTriggered:
		return &models.TriggerResult{
			PositionID:         pos.ID,
			TriggerType:        spec.triggerType,
			TriggeredExchange:  spec.exchange,
			TriggeredOrderID:   spec.orderID,
			TriggeredAt:        time.Now(),
			ConfirmedByHistory: true,
		}, nil

	case exchange.HistoryStatusCanceled:
		// Cancel-and-replace при ручном редактировании цены выглядит
		// так же - срабатывание только если позиции уже нет
		exists, err := conn.CheckPositionExists(ctx, pos.Symbol, spec.triggerType.Side())
		if err != nil {
			RecordFetchError(spec.exchange, "position_exists")
			return nil, fmt.Errorf("check position on %s: %w", spec.exchange, err)
		}
		if exists {
			m.logger.Debug("order canceled but position alive, not a trigger",
				zap.Int("position_id", pos.ID),
				zap.String("order_id", spec.orderID))
			return nil, nil
		}
		return &models.TriggerResult{
			PositionID:         pos.ID,
			TriggerType:        spec.triggerType,
			TriggeredExchange:  spec.exchange,
			TriggeredOrderID:   spec.orderID,
			TriggeredAt:        time.Now(),
			ConfirmedByHistory: false,
		}, nil

	default:
		return nil, nil
	}
}

// HandleTrigger обрабатывает подтверждённое срабатывание
func (m *ConditionalOrderMonitor) HandleTrigger(ctx context.Context, pos *models.Position, result *models.TriggerResult) error {
	RecordTrigger(string(result.TriggerType))
	m.bus.PublishTriggerDetected(TriggerDetectedEvent{Result: result, Timestamp: time.Now()})

	m.logger.Info("conditional order trigger confirmed",
		zap.Int("position_id", pos.ID),
		zap.String("symbol", pos.Symbol),
		zap.String("trigger_type", string(result.TriggerType)),
		zap.String("exchange", result.TriggeredExchange),
		zap.Bool("confirmed_by_history", result.ConfirmedByHistory))

	if result.TriggerType == models.TriggerBoth {
		return m.handleBoth(ctx, pos, result)
	}
	return m.handleSingle(ctx, pos, result)
}

// handleBoth закрывает позицию без действий на биржах:
// обе ноги уже закрылись своими защитными ордерами
func (m *ConditionalOrderMonitor) handleBoth(ctx context.Context, pos *models.Position, result *models.TriggerResult) error {
	claimed, err := m.positions.MarkClosed(ctx, pos.ID, models.CloseReasonBothTriggered)
	if err != nil {
		return fmt.Errorf("mark position %d closed: %w", pos.ID, err)
	}
	if !claimed {
		m.logger.Warn("position already closed, skipping", zap.Int("position_id", pos.ID))
		return nil
	}

	RecordPositionClosed(models.CloseReasonBothTriggered)
	m.notifyTrigger(pos, result, models.CloseReasonBothTriggered,
		"both protective orders triggered, position fully closed by the exchanges")
	m.bus.PublishTriggerHandled(TriggerHandledEvent{
		Result:      result,
		CloseReason: models.CloseReasonBothTriggered,
		Timestamp:   time.Now(),
	})
	return nil
}

// handleSingle закрывает противоположную ногу после одиночного срабатывания
func (m *ConditionalOrderMonitor) handleSingle(ctx context.Context, pos *models.Position, result *models.TriggerResult) error {
	started := time.Now()
	oppositeSide := result.TriggerType.OppositeSide()
	oppositeExchange := m.exchangeForSide(pos, oppositeSide)
	closeReason := models.CloseReasonFor(result.TriggerType)

	var closePrice, closeFee float64

	cfg := retry.AggressiveConfig()
	cfg.RetryIf = func(err error) bool {
		if !retry.RetryIfNotContext(err) {
			return false
		}
		// "Нет позиции" - не сбой, а уже решённая проблема: retry бессмысленен
		return !m.classifiers.IsNoPositionError(oppositeExchange, err)
	}
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		m.logger.Warn("opposite leg close retry",
			zap.Int("position_id", pos.ID),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
	}

	closeErr := retry.Do(ctx, func() error {
		price, fee, err := m.closer.CloseSingleSide(ctx, pos, oppositeSide)
		if err != nil {
			return err
		}
		closePrice, closeFee = price, fee
		return nil
	}, cfg)

	if closeErr != nil {
		if m.classifiers.IsNoPositionError(oppositeExchange, closeErr) {
			// Гонка: вторая нога закрылась своим ордером между детекцией
			// и нашей попыткой закрытия
			m.logger.Info("opposite leg already closed on exchange, reclassifying as dual trigger",
				zap.Int("position_id", pos.ID),
				zap.String("exchange", oppositeExchange))
			return m.handleBoth(ctx, pos, result)
		}

		// Неустранимый сбой: автоматика дальше не гадает, позиция
		// остаётся OPEN до ручного вмешательства
		EmergencyEscalations.Inc()
		m.notifyEmergency(pos, result, closeErr)
		return fmt.Errorf("close %s leg of position %d: %w", oppositeSide, pos.ID, closeErr)
	}

	// Снимаем оставшиеся защитные ордера закрытой ноги. Best-effort:
	// осиротевший ордер неприятен, но позиция уже захеджирована нулём
	if err := m.closer.CancelSingleSideConditionalOrders(ctx, pos, oppositeSide); err != nil {
		m.logger.Warn("failed to cancel remaining conditional orders",
			zap.Int("position_id", pos.ID),
			zap.String("side", oppositeSide),
			zap.Error(err))
	}

	claimed, err := m.positions.MarkClosed(ctx, pos.ID, closeReason)
	if err != nil {
		return fmt.Errorf("mark position %d closed: %w", pos.ID, err)
	}
	if !claimed {
		m.logger.Warn("position already closed after leg close", zap.Int("position_id", pos.ID))
		return nil
	}

	totalPnl := m.recordTrade(ctx, pos, result, closeReason, closePrice, closeFee)

	RecordPositionClosed(closeReason)
	CloseLatency.Observe(float64(time.Since(started).Milliseconds()))

	m.notifyTrigger(pos, result, closeReason,
		fmt.Sprintf("%s triggered, %s leg closed automatically at %.4f", result.TriggerType, oppositeSide, closePrice))
	m.bus.PublishTriggerHandled(TriggerHandledEvent{
		Result:      result,
		CloseReason: closeReason,
		TotalPnl:    totalPnl,
		Timestamp:   time.Now(),
	})
	return nil
}

// recordTrade вычисляет PNL и персистит запись о закрытии.
// Ошибка персистентности не отменяет закрытие - позиция уже в CLOSED.
func (m *ConditionalOrderMonitor) recordTrade(ctx context.Context, pos *models.Position, result *models.TriggerResult, closeReason string, closePrice, closeFee float64) float64 {
	triggerSide := result.TriggerType.Side()
	triggerPrice, triggerFee := m.triggerFillPrice(ctx, pos, result)

	var priceDiffPnl float64
	if triggerSide == models.SideLong {
		priceDiffPnl = utils.CalculateTotalPNL(
			pos.LongEntryPrice, triggerPrice, pos.LongPositionSize,
			pos.ShortEntryPrice, closePrice, pos.ShortPositionSize)
	} else {
		priceDiffPnl = utils.CalculateTotalPNL(
			pos.LongEntryPrice, closePrice, pos.LongPositionSize,
			pos.ShortEntryPrice, triggerPrice, pos.ShortPositionSize)
	}

	// Фандинг на пути автозакрытия не начисляется
	totalFees := closeFee + triggerFee
	totalPnl := priceDiffPnl - totalFees

	record := &models.TradeRecord{
		PositionID:   pos.ID,
		Symbol:       pos.Symbol,
		TriggerType:  string(result.TriggerType),
		CloseReason:  closeReason,
		PriceDiffPnl: priceDiffPnl,
		FundingPnl:   0,
		TotalFees:    totalFees,
		TotalPnl:     totalPnl,
		ClosedAt:     time.Now(),
	}
	if err := m.trades.Create(ctx, record); err != nil {
		m.logger.Error("failed to persist trade record",
			zap.Int("position_id", pos.ID),
			zap.Error(err))
	}
	return totalPnl
}

// triggerFillPrice возвращает цену исполнения сработавшей ноги.
// Источник - история ордера; без неё fallback на сконфигурированную
// цену срабатывания (оценка, а не факт).
func (m *ConditionalOrderMonitor) triggerFillPrice(ctx context.Context, pos *models.Position, result *models.TriggerResult) (price, fee float64) {
	fallback := configuredTriggerPrice(pos, result.TriggerType)

	conn, ok := m.connectors[result.TriggeredExchange]
	if !ok {
		return fallback, 0
	}

	history, err := conn.GetOrderHistory(ctx, pos.Symbol, result.TriggeredOrderID)
	if err != nil || history.TriggerPrice <= 0 {
		return fallback, 0
	}
	return history.TriggerPrice, history.Fee
}

// configuredTriggerPrice возвращает заданную при выставлении цену ордера
func configuredTriggerPrice(pos *models.Position, t models.TriggerType) float64 {
	switch t {
	case models.TriggerLongSL:
		return pos.LongStopLossPrice
	case models.TriggerLongTP:
		return pos.LongTakeProfitPrice
	case models.TriggerShortSL:
		return pos.ShortStopLossPrice
	case models.TriggerShortTP:
		return pos.ShortTakeProfitPrice
	default:
		return 0
	}
}

func (m *ConditionalOrderMonitor) exchangeForSide(pos *models.Position, side string) string {
	if side == models.SideLong {
		return pos.LongExchange
	}
	return pos.ShortExchange
}

func (m *ConditionalOrderMonitor) notifyTrigger(pos *models.Position, result *models.TriggerResult, closeReason, message string) {
	if m.sink == nil {
		return
	}
	positionID := pos.ID
	m.sink.Notify(&models.Notification{
		Timestamp:  time.Now(),
		Type:       models.NotificationTypeTrigger,
		Severity:   models.SeverityWarn,
		PositionID: &positionID,
		Symbol:     pos.Symbol,
		Message:    message,
		Meta: map[string]interface{}{
			"trigger_type": string(result.TriggerType),
			"close_reason": closeReason,
			"exchange":     result.TriggeredExchange,
		},
	})
}

func (m *ConditionalOrderMonitor) notifyEmergency(pos *models.Position, result *models.TriggerResult, closeErr error) {
	if m.sink == nil {
		return
	}
	positionID := pos.ID
	m.sink.Notify(&models.Notification{
		Timestamp:  time.Now(),
		Type:       models.NotificationTypeEmergency,
		Severity:   models.SeverityError,
		PositionID: &positionID,
		Symbol:     pos.Symbol,
		Message: fmt.Sprintf("AUTOMATIC CLOSE FAILED for position %d (%s): %s leg is unhedged, manual intervention required: %v",
			pos.ID, pos.Symbol, result.TriggerType.OppositeSide(), closeErr),
		Meta: map[string]interface{}{
			"trigger_type": string(result.TriggerType),
			"error":        closeErr.Error(),
		},
	})
}
