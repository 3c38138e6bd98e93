package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fundingarb/internal/models"
)

func TestGetStats(t *testing.T) {
	provider := &mockStatsProvider{stats: models.MarketStats{
		TotalSymbols:            3,
		OpportunityCount:        1,
		ApproachingCount:        1,
		HighestSpreadSymbol:     "BTCUSDT",
		HighestSpreadAnnualized: 0.62,
		LastUpdate:              time.Now(),
	}}
	handler := NewStatsHandler(provider, 0.5, 0.8)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rec := httptest.NewRecorder()
	handler.GetStats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var stats models.MarketStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if stats.TotalSymbols != 3 {
		t.Errorf("total_symbols = %d, want 3", stats.TotalSymbols)
	}
	if stats.HighestSpreadSymbol != "BTCUSDT" {
		t.Errorf("highest_spread_symbol = %q, want BTCUSDT", stats.HighestSpreadSymbol)
	}

	// Пороги из конфигурации передаются в провайдер
	if provider.gotThreshold != 0.5 {
		t.Errorf("threshold = %v, want 0.5", provider.gotThreshold)
	}
	if provider.gotRatio != 0.8 {
		t.Errorf("ratio = %v, want 0.8", provider.gotRatio)
	}
}
