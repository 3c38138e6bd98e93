package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fundingarb/internal/models"
)

// Ошибки репозитория позиций
var (
	ErrPositionNotFound = errors.New("position not found")
)

// PositionRepository - работа с таблицей positions
//
// Позиции создаёт и владеет ими торговая подсистема; монитор условных
// ордеров читает открытые позиции и переводит их в CLOSED.
type PositionRepository struct {
	db *sql.DB
}

// NewPositionRepository создает новый экземпляр репозитория
func NewPositionRepository(db *sql.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

const positionColumns = `id, user_id, symbol, long_exchange, short_exchange,
		long_entry_price, long_position_size, long_leverage,
		short_entry_price, short_position_size, short_leverage,
		long_sl_order_id, long_tp_order_id, short_sl_order_id, short_tp_order_id,
		long_sl_price, long_tp_price, short_sl_price, short_tp_price,
		conditional_order_status, status, close_reason, closed_at, created_at, updated_at`

// scanPosition читает одну строку позиции
func scanPosition(row interface{ Scan(dest ...interface{}) error }) (*models.Position, error) {
	p := &models.Position{}
	var closeReason sql.NullString
	var closedAt sql.NullTime

	err := row.Scan(
		&p.ID, &p.UserID, &p.Symbol, &p.LongExchange, &p.ShortExchange,
		&p.LongEntryPrice, &p.LongPositionSize, &p.LongLeverage,
		&p.ShortEntryPrice, &p.ShortPositionSize, &p.ShortLeverage,
		&p.LongStopLossOrderID, &p.LongTakeProfitOrderID,
		&p.ShortStopLossOrderID, &p.ShortTakeProfitOrderID,
		&p.LongStopLossPrice, &p.LongTakeProfitPrice,
		&p.ShortStopLossPrice, &p.ShortTakeProfitPrice,
		&p.ConditionalOrderStatus, &p.Status, &closeReason, &closedAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if closeReason.Valid {
		p.CloseReason = closeReason.String
	}
	if closedAt.Valid {
		t := closedAt.Time
		p.ClosedAt = &t
	}
	return p, nil
}

// GetByID возвращает позицию по ID
func (r *PositionRepository) GetByID(ctx context.Context, id int) (*models.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE id = $1`

	p, err := scanPosition(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPositionNotFound
		}
		return nil, err
	}
	return p, nil
}

// GetOpenWithConditionalOrders возвращает открытые позиции под мониторингом
func (r *PositionRepository) GetOpenWithConditionalOrders(ctx context.Context) ([]*models.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE status = $1 AND conditional_order_status = $2
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query,
		models.PositionStatusOpen, models.ConditionalOrderStatusSet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return positions, nil
}

// MarkClosed переводит позицию OPEN -> CLOSED.
//
// UPDATE защищён условием status = 'OPEN': при гонке двух обработчиков
// переход выполнит ровно один, второй получит false. Это вторая линия
// защиты инварианта "одно автозакрытие" после singleton-планировщика.
func (r *PositionRepository) MarkClosed(ctx context.Context, positionID int, closeReason string) (bool, error) {
	query := `
		UPDATE positions
		SET status = $1, close_reason = $2, closed_at = $3, updated_at = $3
		WHERE id = $4 AND status = $5`

	result, err := r.db.ExecContext(ctx, query,
		models.PositionStatusClosed, closeReason, time.Now(),
		positionID, models.PositionStatusOpen)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}
