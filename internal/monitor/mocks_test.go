package monitor

import (
	"context"
	"sync"

	"fundingarb/internal/exchange"
	"fundingarb/internal/models"
)

// mocks_test.go - ручные моки внешних коллабораторов для тестов пакета

// mockConnector настраиваемый коннектор биржи
type mockConnector struct {
	name string

	fundingRate *models.ExchangeRateSnapshot
	fundingErr  error
	price       *exchange.PriceQuote
	priceErr    error

	orderExists    map[string]bool  // orderID -> наличие; нет ключа = true
	orderExistsErr map[string]error // orderID -> ошибка запроса
	history        map[string]*exchange.OrderHistory
	historyErr     map[string]error
	positionExists map[string]bool // side -> наличие; нет ключа = true
	positionErr    map[string]error
}

func (m *mockConnector) GetName() string { return m.name }

func (m *mockConnector) GetFundingRate(ctx context.Context, symbol string) (*models.ExchangeRateSnapshot, error) {
	if m.fundingErr != nil {
		return nil, m.fundingErr
	}
	return m.fundingRate, nil
}

func (m *mockConnector) GetPrice(ctx context.Context, symbol string) (*exchange.PriceQuote, error) {
	if m.priceErr != nil {
		return nil, m.priceErr
	}
	return m.price, nil
}

func (m *mockConnector) CheckOrderExists(ctx context.Context, symbol, orderID string) (bool, error) {
	if err, ok := m.orderExistsErr[orderID]; ok {
		return false, err
	}
	if exists, ok := m.orderExists[orderID]; ok {
		return exists, nil
	}
	return true, nil
}

func (m *mockConnector) GetOrderHistory(ctx context.Context, symbol, orderID string) (*exchange.OrderHistory, error) {
	if err, ok := m.historyErr[orderID]; ok {
		return nil, err
	}
	if h, ok := m.history[orderID]; ok {
		return h, nil
	}
	return &exchange.OrderHistory{OrderID: orderID, Status: exchange.HistoryStatusNew}, nil
}

func (m *mockConnector) CheckPositionExists(ctx context.Context, symbol, side string) (bool, error) {
	if err, ok := m.positionErr[side]; ok {
		return false, err
	}
	if exists, ok := m.positionExists[side]; ok {
		return exists, nil
	}
	return true, nil
}

// mockPositionRepo репозиторий позиций в памяти с claim-семантикой MarkClosed
type mockPositionRepo struct {
	mu            sync.Mutex
	open          []*models.Position
	closedReasons map[int]string
	listErr       error
	markErr       error
}

func newMockPositionRepo(positions ...*models.Position) *mockPositionRepo {
	return &mockPositionRepo{
		open:          positions,
		closedReasons: make(map[int]string),
	}
}

func (r *mockPositionRepo) GetOpenWithConditionalOrders(ctx context.Context) ([]*models.Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	result := make([]*models.Position, 0, len(r.open))
	for _, p := range r.open {
		if _, closed := r.closedReasons[p.ID]; !closed {
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *mockPositionRepo) MarkClosed(ctx context.Context, positionID int, closeReason string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markErr != nil {
		return false, r.markErr
	}
	if _, closed := r.closedReasons[positionID]; closed {
		return false, nil
	}
	r.closedReasons[positionID] = closeReason
	return true, nil
}

func (r *mockPositionRepo) closeReason(positionID int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closedReasons[positionID]
}

// mockCloser настраиваемый PositionCloser со счётчиком вызовов
type mockCloser struct {
	mu          sync.Mutex
	closeSides  []string
	closeErr    error
	closePrice  float64
	closeFee    float64
	cancelSides []string
	cancelErr   error
}

func (c *mockCloser) CloseSingleSide(ctx context.Context, position *models.Position, side string) (float64, float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeSides = append(c.closeSides, side)
	if c.closeErr != nil {
		return 0, 0, c.closeErr
	}
	return c.closePrice, c.closeFee, nil
}

func (c *mockCloser) CancelSingleSideConditionalOrders(ctx context.Context, position *models.Position, side string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelSides = append(c.cancelSides, side)
	return c.cancelErr
}

func (c *mockCloser) closeCalls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.closeSides...)
}

// mockSink собирает уведомления
type mockSink struct {
	mu            sync.Mutex
	notifications []*models.Notification
}

func (s *mockSink) Notify(n *models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
}

func (s *mockSink) byType(notificationType string) []*models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*models.Notification
	for _, n := range s.notifications {
		if n.Type == notificationType {
			result = append(result, n)
		}
	}
	return result
}

// mockTradeRecorder собирает записи о закрытиях
type mockTradeRecorder struct {
	mu      sync.Mutex
	records []*models.TradeRecord
	err     error
}

func (t *mockTradeRecorder) Create(ctx context.Context, record *models.TradeRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	t.records = append(t.records, record)
	return nil
}

func (t *mockTradeRecorder) created() []*models.TradeRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*models.TradeRecord(nil), t.records...)
}
