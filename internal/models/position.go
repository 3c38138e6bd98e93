package models

import "time"

// Position представляет хеджированную позицию: long на одной бирже,
// short на другой, по одному символу.
//
// Позицией владеет торговая подсистема. Монитор условных ордеров только
// читает её и при срабатывании переводит OPEN -> CLOSED (ровно один раз).
type Position struct {
	ID     int    `json:"id" db:"id"`
	UserID int    `json:"user_id" db:"user_id"`
	Symbol string `json:"symbol" db:"symbol"` // BTCUSDT

	LongExchange  string `json:"long_exchange" db:"long_exchange"`
	ShortExchange string `json:"short_exchange" db:"short_exchange"`

	LongEntryPrice    float64 `json:"long_entry_price" db:"long_entry_price"`
	LongPositionSize  float64 `json:"long_position_size" db:"long_position_size"`
	LongLeverage      int     `json:"long_leverage" db:"long_leverage"`
	ShortEntryPrice   float64 `json:"short_entry_price" db:"short_entry_price"`
	ShortPositionSize float64 `json:"short_position_size" db:"short_position_size"`
	ShortLeverage     int     `json:"short_leverage" db:"short_leverage"`

	// Защитные условные ордера (до четырёх). Пустая строка = не выставлен.
	LongStopLossOrderID    string `json:"long_stop_loss_order_id,omitempty" db:"long_sl_order_id"`
	LongTakeProfitOrderID  string `json:"long_take_profit_order_id,omitempty" db:"long_tp_order_id"`
	ShortStopLossOrderID   string `json:"short_stop_loss_order_id,omitempty" db:"short_sl_order_id"`
	ShortTakeProfitOrderID string `json:"short_take_profit_order_id,omitempty" db:"short_tp_order_id"`

	// Сконфигурированные цены срабатывания - fallback для расчёта PNL,
	// когда история ордеров не содержит реальную цену исполнения
	LongStopLossPrice    float64 `json:"long_stop_loss_price" db:"long_sl_price"`
	LongTakeProfitPrice  float64 `json:"long_take_profit_price" db:"long_tp_price"`
	ShortStopLossPrice   float64 `json:"short_stop_loss_price" db:"short_sl_price"`
	ShortTakeProfitPrice float64 `json:"short_take_profit_price" db:"short_tp_price"`

	ConditionalOrderStatus string     `json:"conditional_order_status" db:"conditional_order_status"` // SET, NONE
	Status                 string     `json:"status" db:"status"`                                     // OPEN, CLOSED
	CloseReason            string     `json:"close_reason,omitempty" db:"close_reason"`
	ClosedAt               *time.Time `json:"closed_at,omitempty" db:"closed_at"`
	CreatedAt              time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at" db:"updated_at"`
}

// Статусы позиции
const (
	PositionStatusOpen   = "OPEN"
	PositionStatusClosed = "CLOSED"
)

// Статусы условных ордеров позиции
const (
	ConditionalOrderStatusSet  = "SET"  // защитные ордера выставлены, позиция под мониторингом
	ConditionalOrderStatusNone = "NONE" // без защитных ордеров
)

// TriggerType определяет какой защитный ордер сработал
type TriggerType string

const (
	TriggerLongSL  TriggerType = "LONG_SL"
	TriggerLongTP  TriggerType = "LONG_TP"
	TriggerShortSL TriggerType = "SHORT_SL"
	TriggerShortTP TriggerType = "SHORT_TP"
	TriggerBoth    TriggerType = "BOTH" // обе ноги закрылись своими ордерами одновременно
)

// Причины закрытия позиции
const (
	CloseReasonLongSL        = "LONG_SL_TRIGGERED"
	CloseReasonLongTP        = "LONG_TP_TRIGGERED"
	CloseReasonShortSL       = "SHORT_SL_TRIGGERED"
	CloseReasonShortTP       = "SHORT_TP_TRIGGERED"
	CloseReasonBothTriggered = "BOTH_TRIGGERED"
)

// Стороны позиции
const (
	SideLong  = "LONG"
	SideShort = "SHORT"
)

// CloseReasonFor возвращает причину закрытия для типа срабатывания
func CloseReasonFor(t TriggerType) string {
	switch t {
	case TriggerLongSL:
		return CloseReasonLongSL
	case TriggerLongTP:
		return CloseReasonLongTP
	case TriggerShortSL:
		return CloseReasonShortSL
	case TriggerShortTP:
		return CloseReasonShortTP
	case TriggerBoth:
		return CloseReasonBothTriggered
	default:
		return ""
	}
}

// Side возвращает сторону позиции, нога которой сработала
func (t TriggerType) Side() string {
	switch t {
	case TriggerLongSL, TriggerLongTP:
		return SideLong
	case TriggerShortSL, TriggerShortTP:
		return SideShort
	default:
		return ""
	}
}

// OppositeSide возвращает сторону, которую нужно закрыть вручную
func (t TriggerType) OppositeSide() string {
	switch t.Side() {
	case SideLong:
		return SideShort
	case SideShort:
		return SideLong
	default:
		return ""
	}
}

// OrderStatusMap отражает наличие защитных ордеров на биржах.
//
// По умолчанию все флаги true: отсутствие ордера должно быть положительно
// подтверждено биржей, ошибка запроса никогда не означает "ордер пропал".
type OrderStatusMap struct {
	LongStopLossExists    bool
	LongTakeProfitExists  bool
	ShortStopLossExists   bool
	ShortTakeProfitExists bool
}

// NewOrderStatusMap возвращает карту с презумпцией наличия всех ордеров
func NewOrderStatusMap() OrderStatusMap {
	return OrderStatusMap{
		LongStopLossExists:    true,
		LongTakeProfitExists:  true,
		ShortStopLossExists:   true,
		ShortTakeProfitExists: true,
	}
}

// LongSideMissing возвращает true если на длинной ноге пропал хотя бы один ордер
func (m OrderStatusMap) LongSideMissing() bool {
	return !m.LongStopLossExists || !m.LongTakeProfitExists
}

// ShortSideMissing возвращает true если на короткой ноге пропал хотя бы один ордер
func (m OrderStatusMap) ShortSideMissing() bool {
	return !m.ShortStopLossExists || !m.ShortTakeProfitExists
}

// TriggerResult представляет обнаруженное срабатывание защитного ордера.
// Создаётся заново каждым циклом детекции и не персистится напрямую -
// это вход для обработчика закрытия.
type TriggerResult struct {
	PositionID         int
	TriggerType        TriggerType
	TriggeredExchange  string
	TriggeredOrderID   string
	TriggeredAt        time.Time
	ConfirmedByHistory bool // true = история вернула TRIGGERED, false = CANCELED + позиция исчезла

	// Заполняются только при TriggerType == BOTH
	OtherSideTriggeredExchange string
	OtherSideTriggeredOrderID  string
}
