package exchange

import (
	"context"
	"time"

	"fundingarb/internal/models"
)

// Connector определяет унифицированный интерфейс биржевого коннектора.
//
// Ядро мониторинга потребляет коннекторы, но не реализует их: внутренности
// API обёрток (подписи запросов, таймауты) - зона ответственности
// реализации. Ограничение частоты запросов накладывается снаружи через
// WrapWithRateLimit. Ошибки таймаутов всплывают сюда как обычные ошибки
// и обрабатываются следующим циклом опроса.
type Connector interface {
	// GetName возвращает имя биржи
	GetName() string

	// GetFundingRate получает текущую ставку финансирования для символа
	GetFundingRate(ctx context.Context, symbol string) (*models.ExchangeRateSnapshot, error)

	// GetPrice получает текущую цену контракта
	GetPrice(ctx context.Context, symbol string) (*PriceQuote, error)

	// CheckOrderExists проверяет, существует ли ордер на бирже.
	// false означает положительно подтверждённое отсутствие.
	CheckOrderExists(ctx context.Context, symbol, orderID string) (bool, error)

	// GetOrderHistory получает запись истории по условному ордеру
	GetOrderHistory(ctx context.Context, symbol, orderID string) (*OrderHistory, error)

	// CheckPositionExists проверяет наличие открытой позиции по стороне
	CheckPositionExists(ctx context.Context, symbol, side string) (bool, error)
}

// PriceQuote содержит цену контракта на момент запроса
type PriceQuote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderHistory представляет запись истории условного ордера
type OrderHistory struct {
	OrderID      string    `json:"order_id"`
	Symbol       string    `json:"symbol"`
	Status       string    `json:"status"`                  // TRIGGERED, CANCELED, NEW, ...
	TriggerPrice float64   `json:"trigger_price,omitempty"` // цена исполнения, 0 если биржа не вернула
	Fee          float64   `json:"fee,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Статусы условного ордера в истории биржи
const (
	HistoryStatusTriggered = "TRIGGERED"
	HistoryStatusCanceled  = "CANCELED"
	HistoryStatusNew       = "NEW"
)

// ExchangeError представляет ошибку от биржи
type ExchangeError struct {
	Exchange string
	Code     string
	Message  string
	Original error
}

func (e *ExchangeError) Error() string {
	return e.Exchange + ": " + e.Message
}

// Unwrap возвращает оригинальную ошибку для поддержки errors.Is() и errors.As()
func (e *ExchangeError) Unwrap() error {
	return e.Original
}
