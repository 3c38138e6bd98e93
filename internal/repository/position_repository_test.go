package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"fundingarb/internal/models"
)

// ============================================================
// PositionRepository Tests
// ============================================================

func positionRows(ids ...int) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "symbol", "long_exchange", "short_exchange",
		"long_entry_price", "long_position_size", "long_leverage",
		"short_entry_price", "short_position_size", "short_leverage",
		"long_sl_order_id", "long_tp_order_id", "short_sl_order_id", "short_tp_order_id",
		"long_sl_price", "long_tp_price", "short_sl_price", "short_tp_price",
		"conditional_order_status", "status", "close_reason", "closed_at",
		"created_at", "updated_at",
	})
	now := time.Now()
	for _, id := range ids {
		rows.AddRow(
			id, 1, "BTCUSDT", "binance", "okx",
			100.0, 1.0, 5,
			101.0, 1.0, 5,
			"L-SL", "L-TP", "S-SL", "S-TP",
			95.0, 110.0, 106.0, 92.0,
			models.ConditionalOrderStatusSet, models.PositionStatusOpen, nil, nil,
			now, now,
		)
	}
	return rows
}

func TestNewPositionRepository(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := NewPositionRepository(db)
	if repo == nil {
		t.Fatal("NewPositionRepository returned nil")
	}
	if repo.db != db {
		t.Error("db not set correctly")
	}
}

func TestPositionRepositoryGetByID(t *testing.T) {
	tests := []struct {
		name        string
		id          int
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError error
	}{
		{
			name: "success",
			id:   42,
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM positions WHERE id = \$1`).
					WithArgs(42).
					WillReturnRows(positionRows(42))
			},
		},
		{
			name: "not found",
			id:   99,
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM positions WHERE id = \$1`).
					WithArgs(99).
					WillReturnRows(positionRows())
			},
			expectError: ErrPositionNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			tt.mockSetup(mock)

			repo := NewPositionRepository(db)
			pos, err := repo.GetByID(context.Background(), tt.id)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Errorf("expected %v, got %v", tt.expectError, err)
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if pos.ID != tt.id {
					t.Errorf("position ID = %d, want %d", pos.ID, tt.id)
				}
				if pos.LongStopLossOrderID != "L-SL" {
					t.Errorf("long SL order = %s", pos.LongStopLossOrderID)
				}
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestPositionRepositoryGetOpenWithConditionalOrders(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM positions WHERE status = \$1 AND conditional_order_status = \$2`).
		WithArgs(models.PositionStatusOpen, models.ConditionalOrderStatusSet).
		WillReturnRows(positionRows(1, 2, 3))

	repo := NewPositionRepository(db)
	positions, err := repo.GetOpenWithConditionalOrders(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(positions) != 3 {
		t.Errorf("got %d positions, want 3", len(positions))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPositionRepositoryMarkClosed(t *testing.T) {
	tests := []struct {
		name        string
		mockSetup   func(mock sqlmock.Sqlmock)
		wantClaimed bool
		expectError bool
	}{
		{
			name: "claims open position",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE positions SET status = \$1`).
					WithArgs(models.PositionStatusClosed, models.CloseReasonLongSL,
						sqlmock.AnyArg(), 42, models.PositionStatusOpen).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			wantClaimed: true,
		},
		{
			name: "already closed",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE positions SET status = \$1`).
					WithArgs(models.PositionStatusClosed, models.CloseReasonLongSL,
						sqlmock.AnyArg(), 42, models.PositionStatusOpen).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantClaimed: false,
		},
		{
			name: "database error",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE positions SET status = \$1`).
					WithArgs(models.PositionStatusClosed, models.CloseReasonLongSL,
						sqlmock.AnyArg(), 42, models.PositionStatusOpen).
					WillReturnError(errors.New("database error"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			tt.mockSetup(mock)

			repo := NewPositionRepository(db)
			claimed, err := repo.MarkClosed(context.Background(), 42, models.CloseReasonLongSL)

			if tt.expectError {
				if err == nil {
					t.Error("expected error, got nil")
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if claimed != tt.wantClaimed {
					t.Errorf("claimed = %v, want %v", claimed, tt.wantClaimed)
				}
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}
