package repository

import (
	"context"
	"database/sql"
	"time"

	jsoniter "github.com/json-iterator/go"

	"fundingarb/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// NotificationRepository - работа с таблицей notifications
//
// Журнал уведомлений мониторинга. Meta хранится как JSONB.
type NotificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository создает новый экземпляр репозитория
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create создает новое уведомление
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (timestamp, type, severity, position_id, symbol, message, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	var meta []byte
	if n.Meta != nil {
		encoded, err := json.Marshal(n.Meta)
		if err != nil {
			return err
		}
		meta = encoded
	}

	return r.db.QueryRowContext(
		ctx,
		query,
		n.Timestamp,
		n.Type,
		n.Severity,
		n.PositionID,
		n.Symbol,
		n.Message,
		meta,
	).Scan(&n.ID)
}

// GetRecent возвращает последние N уведомлений
func (r *NotificationRepository) GetRecent(ctx context.Context, limit int) ([]*models.Notification, error) {
	query := `
		SELECT id, timestamp, type, severity, position_id, symbol, message, meta
		FROM notifications
		ORDER BY timestamp DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		var positionID sql.NullInt64
		var symbol sql.NullString
		var meta []byte

		err := rows.Scan(&n.ID, &n.Timestamp, &n.Type, &n.Severity, &positionID, &symbol, &n.Message, &meta)
		if err != nil {
			return nil, err
		}

		if positionID.Valid {
			id := int(positionID.Int64)
			n.PositionID = &id
		}
		if symbol.Valid {
			n.Symbol = symbol.String
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &n.Meta); err != nil {
				return nil, err
			}
		}

		notifications = append(notifications, n)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return notifications, nil
}

// DeleteOlderThan удаляет уведомления старше указанной даты
func (r *NotificationRepository) DeleteOlderThan(ctx context.Context, timestamp time.Time) (int64, error) {
	query := `DELETE FROM notifications WHERE timestamp < $1`

	result, err := r.db.ExecContext(ctx, query, timestamp)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
