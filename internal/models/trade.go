package models

import "time"

// TradeRecord представляет запись о закрытии хеджированной позиции
// по срабатыванию защитного ордера. Персистится после автозакрытия
// второй ноги для истории и статистики.
type TradeRecord struct {
	ID           int       `json:"id" db:"id"`
	PositionID   int       `json:"position_id" db:"position_id"`
	Symbol       string    `json:"symbol" db:"symbol"`
	TriggerType  string    `json:"trigger_type" db:"trigger_type"` // LONG_SL, LONG_TP, SHORT_SL, SHORT_TP, BOTH
	CloseReason  string    `json:"close_reason" db:"close_reason"`
	PriceDiffPnl float64   `json:"price_diff_pnl" db:"price_diff_pnl"` // PNL от разницы цен обеих ног
	FundingPnl   float64   `json:"funding_pnl" db:"funding_pnl"`       // 0 для пути автозакрытия
	TotalFees    float64   `json:"total_fees" db:"total_fees"`
	TotalPnl     float64   `json:"total_pnl" db:"total_pnl"` // price_diff + funding - fees
	ClosedAt     time.Time `json:"closed_at" db:"closed_at"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
