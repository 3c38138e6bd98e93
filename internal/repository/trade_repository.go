package repository

import (
	"context"
	"database/sql"
	"time"

	"fundingarb/internal/models"
)

// TradeRepository - работа с таблицей trades
//
// Записи о закрытиях позиций монитором: PNL, комиссии, причина.
type TradeRepository struct {
	db *sql.DB
}

// NewTradeRepository создает новый экземпляр репозитория
func NewTradeRepository(db *sql.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Create создает запись о закрытии позиции
func (r *TradeRepository) Create(ctx context.Context, trade *models.TradeRecord) error {
	query := `
		INSERT INTO trades (position_id, symbol, trigger_type, close_reason,
			price_diff_pnl, funding_pnl, total_fees, total_pnl, closed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	trade.CreatedAt = time.Now()

	return r.db.QueryRowContext(
		ctx,
		query,
		trade.PositionID,
		trade.Symbol,
		trade.TriggerType,
		trade.CloseReason,
		trade.PriceDiffPnl,
		trade.FundingPnl,
		trade.TotalFees,
		trade.TotalPnl,
		trade.ClosedAt,
		trade.CreatedAt,
	).Scan(&trade.ID)
}

// GetByPositionID возвращает записи о закрытиях конкретной позиции
func (r *TradeRepository) GetByPositionID(ctx context.Context, positionID int) ([]*models.TradeRecord, error) {
	query := `
		SELECT id, position_id, symbol, trigger_type, close_reason,
			price_diff_pnl, funding_pnl, total_fees, total_pnl, closed_at, created_at
		FROM trades
		WHERE position_id = $1
		ORDER BY closed_at DESC`

	return r.queryTrades(ctx, query, positionID)
}

// GetRecent возвращает последние N записей
func (r *TradeRepository) GetRecent(ctx context.Context, limit int) ([]*models.TradeRecord, error) {
	query := `
		SELECT id, position_id, symbol, trigger_type, close_reason,
			price_diff_pnl, funding_pnl, total_fees, total_pnl, closed_at, created_at
		FROM trades
		ORDER BY closed_at DESC
		LIMIT $1`

	return r.queryTrades(ctx, query, limit)
}

func (r *TradeRepository) queryTrades(ctx context.Context, query string, args ...interface{}) ([]*models.TradeRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*models.TradeRecord
	for rows.Next() {
		trade := &models.TradeRecord{}
		err := rows.Scan(
			&trade.ID,
			&trade.PositionID,
			&trade.Symbol,
			&trade.TriggerType,
			&trade.CloseReason,
			&trade.PriceDiffPnl,
			&trade.FundingPnl,
			&trade.TotalFees,
			&trade.TotalPnl,
			&trade.ClosedAt,
			&trade.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return trades, nil
}
