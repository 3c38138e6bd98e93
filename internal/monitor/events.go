package monitor

import (
	"sync"
	"time"

	"fundingarb/internal/models"
)

// ============================================================
// Типизированная шина событий мониторинга
// ============================================================
//
// Фиксированный набор видов событий вместо универсального эмиттера:
// подписчик получает строго типизированный канал, опечатка в имени
// события ловится компилятором. Публикация неблокирующая - медленный
// подписчик теряет события и это фиксируется метрикой, но никогда
// не тормозит циклы мониторинга.

// RateUpdatedEvent - кэш принял свежую пачку данных по символу
type RateUpdatedEvent struct {
	Pair      *models.FundingRatePair
	Timestamp time.Time
}

// OpportunityDetectedEvent - символ пересёк порог возможности (фронт)
type OpportunityDetectedEvent struct {
	Symbol    string
	Pair      *models.FundingRatePair
	Reason    string
	Timestamp time.Time
}

// OpportunityDisappearedEvent - символ опустился ниже порога (спад)
type OpportunityDisappearedEvent struct {
	Symbol    string
	Timestamp time.Time
}

// TriggerDetectedEvent - обнаружено срабатывание защитного ордера
type TriggerDetectedEvent struct {
	Result    *models.TriggerResult
	Timestamp time.Time
}

// TriggerHandledEvent - позиция закрыта после срабатывания
type TriggerHandledEvent struct {
	Result      *models.TriggerResult
	CloseReason string
	TotalPnl    float64
	Timestamp   time.Time
}

// defaultEventBuffer размер буфера подписного канала
const defaultEventBuffer = 64

// Bus раздаёт события мониторинга подписчикам.
// Создаётся явно и передаётся зависимостью, без пакетных синглтонов.
type Bus struct {
	mu sync.RWMutex

	rateUpdated            []chan RateUpdatedEvent
	opportunityDetected    []chan OpportunityDetectedEvent
	opportunityDisappeared []chan OpportunityDisappearedEvent
	triggerDetected        []chan TriggerDetectedEvent
	triggerHandled         []chan TriggerHandledEvent
}

// NewBus создаёт пустую шину событий
func NewBus() *Bus {
	return &Bus{}
}

// SubscribeRateUpdated возвращает канал событий обновления кэша
func (b *Bus) SubscribeRateUpdated() <-chan RateUpdatedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan RateUpdatedEvent, defaultEventBuffer)
	b.rateUpdated = append(b.rateUpdated, ch)
	return ch
}

// SubscribeOpportunityDetected возвращает канал событий обнаружения возможности
func (b *Bus) SubscribeOpportunityDetected() <-chan OpportunityDetectedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan OpportunityDetectedEvent, defaultEventBuffer)
	b.opportunityDetected = append(b.opportunityDetected, ch)
	return ch
}

// SubscribeOpportunityDisappeared возвращает канал событий исчезновения возможности
func (b *Bus) SubscribeOpportunityDisappeared() <-chan OpportunityDisappearedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan OpportunityDisappearedEvent, defaultEventBuffer)
	b.opportunityDisappeared = append(b.opportunityDisappeared, ch)
	return ch
}

// SubscribeTriggerDetected возвращает канал событий срабатывания ордеров
func (b *Bus) SubscribeTriggerDetected() <-chan TriggerDetectedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan TriggerDetectedEvent, defaultEventBuffer)
	b.triggerDetected = append(b.triggerDetected, ch)
	return ch
}

// SubscribeTriggerHandled возвращает канал событий обработки срабатываний
func (b *Bus) SubscribeTriggerHandled() <-chan TriggerHandledEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan TriggerHandledEvent, defaultEventBuffer)
	b.triggerHandled = append(b.triggerHandled, ch)
	return ch
}

// PublishRateUpdated рассылает событие обновления кэша
func (b *Bus) PublishRateUpdated(e RateUpdatedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.rateUpdated {
		trySend(ch, e, "rate_updated")
	}
}

// PublishOpportunityDetected рассылает событие обнаружения возможности
func (b *Bus) PublishOpportunityDetected(e OpportunityDetectedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.opportunityDetected {
		trySend(ch, e, "opportunity_detected")
	}
}

// PublishOpportunityDisappeared рассылает событие исчезновения возможности
func (b *Bus) PublishOpportunityDisappeared(e OpportunityDisappearedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.opportunityDisappeared {
		trySend(ch, e, "opportunity_disappeared")
	}
}

// PublishTriggerDetected рассылает событие срабатывания ордера
func (b *Bus) PublishTriggerDetected(e TriggerDetectedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.triggerDetected {
		trySend(ch, e, "trigger_detected")
	}
}

// PublishTriggerHandled рассылает событие обработки срабатывания
func (b *Bus) PublishTriggerHandled(e TriggerHandledEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.triggerHandled {
		trySend(ch, e, "trigger_handled")
	}
}

// trySend отправляет событие без блокировки.
// Переполнение буфера подписчика фиксируется метрикой, событие теряется.
func trySend[T any](ch chan T, event T, kind string) bool {
	select {
	case ch <- event:
		return true
	default:
		RecordEventDropped(kind)
		return false
	}
}
