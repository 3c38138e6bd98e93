package handlers

import (
	"context"
	"sort"

	"fundingarb/internal/models"
)

// ============ Mocks для handler тестов ============

type mockRatesProvider struct {
	pairs map[string]*models.FundingRatePair
}

func (m *mockRatesProvider) Get(symbol string) (*models.FundingRatePair, bool) {
	pair, ok := m.pairs[symbol]
	return pair, ok
}

func (m *mockRatesProvider) GetAll() []*models.FundingRatePair {
	out := make([]*models.FundingRatePair, 0, len(m.pairs))
	for _, pair := range m.pairs {
		out = append(out, pair)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

type mockStatsProvider struct {
	stats        models.MarketStats
	gotThreshold float64
	gotRatio     float64
}

func (m *mockStatsProvider) Stats(threshold, ratio float64) models.MarketStats {
	m.gotThreshold = threshold
	m.gotRatio = ratio
	return m.stats
}

type mockNotificationProvider struct {
	notifications []*models.Notification
	err           error
	gotLimit      int
}

func (m *mockNotificationProvider) GetNotifications(ctx context.Context, limit int) ([]*models.Notification, error) {
	m.gotLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.notifications, nil
}
