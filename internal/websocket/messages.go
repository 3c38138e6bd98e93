package websocket

import (
	"time"

	"fundingarb/internal/models"
)

// MessageType определяет тип WebSocket сообщения
type MessageType string

// Типы WebSocket сообщений
const (
	// MessageTypeRateUpdate - свежие ставки финансирования по символу
	// Отправляется каждый цикл опроса бирж
	MessageTypeRateUpdate MessageType = "rateUpdate"

	// MessageTypeNotification - новое уведомление
	// Отправляется при событиях: возможность, триггер, аварийное закрытие, ошибки
	MessageTypeNotification MessageType = "notification"

	// MessageTypeStatsUpdate - обновление статистики рынка
	// Отправляется вместе с rateUpdate после каждого цикла
	MessageTypeStatsUpdate MessageType = "statsUpdate"
)

// BaseMessage - базовая структура для всех WebSocket сообщений
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// RateUpdateMessage - сообщение с данными по символу за цикл
//
// Содержит ставки всех опрошенных бирж и лучшую связку long/short
// (best_pair == null когда ответили менее двух бирж)
type RateUpdateMessage struct {
	BaseMessage
	Symbol string                  `json:"symbol"`
	Data   *models.FundingRatePair `json:"data"`
}

// NotificationMessage - сообщение о новом уведомлении
type NotificationMessage struct {
	BaseMessage
	Data *NotificationData `json:"data"`
}

// NotificationData - данные уведомления
type NotificationData struct {
	// ID уведомления в БД (0 если ещё не сохранено)
	ID int `json:"id"`

	// Тип уведомления (OPPORTUNITY, OPPORTUNITY_GONE, TRIGGER, EMERGENCY, ERROR)
	Type string `json:"type"`

	// Уровень важности (info, warn, error)
	Severity string `json:"severity"`

	// ID связанной позиции (если применимо)
	PositionID *int `json:"position_id,omitempty"`

	// Торговый символ (если применимо)
	Symbol string `json:"symbol,omitempty"`

	// Текст сообщения
	Message string `json:"message"`

	// Дополнительные метаданные (биржи, спреды, PNL и т.д.)
	Meta map[string]interface{} `json:"meta,omitempty"`

	// Время создания уведомления
	Timestamp time.Time `json:"timestamp"`
}

// StatsUpdateMessage - сообщение со статистикой рынка
type StatsUpdateMessage struct {
	BaseMessage
	Data *models.MarketStats `json:"data"`
}

// ============ Фабричные функции для создания сообщений ============

// NewRateUpdateMessage создает сообщение с данными символа
func NewRateUpdateMessage(pair *models.FundingRatePair) *RateUpdateMessage {
	return &RateUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeRateUpdate,
			Timestamp: time.Now(),
		},
		Symbol: pair.Symbol,
		Data:   pair,
	}
}

// NewNotificationMessage создает сообщение уведомления
func NewNotificationMessage(notif *models.Notification) *NotificationMessage {
	return &NotificationMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeNotification,
			Timestamp: time.Now(),
		},
		Data: &NotificationData{
			ID:         notif.ID,
			Type:       notif.Type,
			Severity:   notif.Severity,
			PositionID: notif.PositionID,
			Symbol:     notif.Symbol,
			Message:    notif.Message,
			Meta:       notif.Meta,
			Timestamp:  notif.Timestamp,
		},
	}
}

// NewStatsUpdateMessage создает сообщение статистики
func NewStatsUpdateMessage(stats *models.MarketStats) *StatsUpdateMessage {
	return &StatsUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeStatsUpdate,
			Timestamp: time.Now(),
		},
		Data: stats,
	}
}
