package models

import "time"

// Notification представляет уведомление о событии мониторинга
type Notification struct {
	ID         int                    `json:"id" db:"id"`
	Timestamp  time.Time              `json:"timestamp" db:"timestamp"`
	Type       string                 `json:"type" db:"type"`         // OPPORTUNITY, OPPORTUNITY_GONE, TRIGGER, EMERGENCY, ERROR
	Severity   string                 `json:"severity" db:"severity"` // info, warn, error
	PositionID *int                   `json:"position_id,omitempty" db:"position_id"`
	Symbol     string                 `json:"symbol,omitempty" db:"symbol"`
	Message    string                 `json:"message" db:"message"`
	Meta       map[string]interface{} `json:"meta,omitempty" db:"meta"` // дополнительные данные (JSON в БД)
}

// Типы уведомлений
const (
	NotificationTypeOpportunity     = "OPPORTUNITY"      // обнаружена арбитражная возможность
	NotificationTypeOpportunityGone = "OPPORTUNITY_GONE" // возможность исчезла
	NotificationTypeTrigger         = "TRIGGER"          // сработал защитный ордер, вторая нога закрыта
	NotificationTypeEmergency       = "EMERGENCY"        // автозакрытие не удалось, требуется ручное вмешательство
	NotificationTypeError           = "ERROR"            // ошибка API/данных
)

// Уровни важности
const (
	SeverityInfo  = "info"
	SeverityWarn  = "warn"
	SeverityError = "error"
)
