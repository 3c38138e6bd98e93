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
// TradeRepository Tests
// ============================================================

func TestTradeRepositoryCreate(t *testing.T) {
	closedAt := time.Now()

	tests := []struct {
		name        string
		trade       *models.TradeRecord
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError bool
	}{
		{
			name: "success",
			trade: &models.TradeRecord{
				PositionID:   42,
				Symbol:       "BTCUSDT",
				TriggerType:  string(models.TriggerLongSL),
				CloseReason:  models.CloseReasonLongSL,
				PriceDiffPnl: -5.8,
				FundingPnl:   0,
				TotalFees:    0.07,
				TotalPnl:     -5.87,
				ClosedAt:     closedAt,
			},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO trades`).
					WithArgs(42, "BTCUSDT", "LONG_SL", models.CloseReasonLongSL,
						-5.8, float64(0), 0.07, -5.87, closedAt, sqlmock.AnyArg()).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
			},
		},
		{
			name: "database error",
			trade: &models.TradeRecord{
				PositionID: 42,
				Symbol:     "BTCUSDT",
				ClosedAt:   closedAt,
			},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO trades`).
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

			repo := NewTradeRepository(db)
			err = repo.Create(context.Background(), tt.trade)

			if tt.expectError {
				if err == nil {
					t.Error("expected error, got nil")
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if tt.trade.ID != 7 {
					t.Errorf("expected ID=7, got %d", tt.trade.ID)
				}
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestTradeRepositoryGetRecent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "position_id", "symbol", "trigger_type", "close_reason",
		"price_diff_pnl", "funding_pnl", "total_fees", "total_pnl", "closed_at", "created_at",
	}).
		AddRow(2, 42, "BTCUSDT", "LONG_SL", models.CloseReasonLongSL, -5.8, 0.0, 0.07, -5.87, now, now).
		AddRow(1, 41, "ETHUSDT", "BOTH", models.CloseReasonBothTriggered, 1.2, 0.0, 0.05, 1.15, now, now)

	mock.ExpectQuery(`SELECT (.+) FROM trades ORDER BY closed_at DESC LIMIT \$1`).
		WithArgs(10).
		WillReturnRows(rows)

	repo := NewTradeRepository(db)
	trades, err := repo.GetRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("got %d trades, want 2", len(trades))
	}
	if trades[0].TriggerType != "LONG_SL" {
		t.Errorf("first trade trigger type = %s", trades[0].TriggerType)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
