package models

import "time"

// ExchangeRateSnapshot представляет ставку финансирования одной биржи
// на момент опроса. Неизменяемый после создания - один снимок на fetch.
type ExchangeRateSnapshot struct {
	Exchange             string    `json:"exchange"`
	Symbol               string    `json:"symbol"`
	FundingRate          float64   `json:"funding_rate"`           // знаковая доля (0.0001 = 0.01%)
	FundingIntervalHours float64   `json:"funding_interval_hours"` // период выплат в часах (обычно 8)
	NextFundingTime      time.Time `json:"next_funding_time"`
	MarkPrice            *float64  `json:"mark_price,omitempty"`
	IndexPrice           *float64  `json:"index_price,omitempty"`
	RecordedAt           time.Time `json:"recorded_at"`
}

// ExchangeRateData объединяет ставку и best-effort цену одной биржи.
// Живёт один цикл опроса: карта по биржам пересобирается каждый tick.
type ExchangeRateData struct {
	Rate  ExchangeRateSnapshot `json:"rate"`
	Price *float64             `json:"price,omitempty"` // nil если цену получить не удалось
}

// BestPair описывает лучшую связку long/short бирж для символа
type BestPair struct {
	LongExchange     string   `json:"long_exchange"`  // биржа с меньшей ставкой
	ShortExchange    string   `json:"short_exchange"` // биржа с большей ставкой (платит дороже - её шортим)
	SpreadPercent    float64  `json:"spread_percent"` // доля, всегда >= 0
	SpreadAnnualized float64  `json:"spread_annualized"`
	PriceDiffPercent *float64 `json:"price_diff_percent,omitempty"` // (short - long) / short, nil без цен
}

// FundingRatePair представляет агрегированные данные по символу за один цикл
//
// Инварианты:
// - BestPair == nil когда данные есть менее чем от двух бирж
// - BestPair.LongExchange != BestPair.ShortExchange
// - SpreadPercent - максимальная абсолютная разница среди всех комбинаций бирж
type FundingRatePair struct {
	Symbol     string                      `json:"symbol"`
	Exchanges  map[string]ExchangeRateData `json:"exchanges"`
	BestPair   *BestPair                   `json:"best_pair,omitempty"`
	RecordedAt time.Time                   `json:"recorded_at"`
}

// MarketStats представляет агрегированную статистику по кэшу ставок
type MarketStats struct {
	TotalSymbols            int       `json:"total_symbols"`
	OpportunityCount        int       `json:"opportunity_count"` // годовой спред >= порога
	ApproachingCount        int       `json:"approaching_count"` // >= порог*ratio, но < порога
	HighestSpreadSymbol     string    `json:"highest_spread_symbol"`
	HighestSpreadAnnualized float64   `json:"highest_spread_annualized"`
	LastUpdate              time.Time `json:"last_update"`
	UptimeSeconds           float64   `json:"uptime_seconds"`
}
