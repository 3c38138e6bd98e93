package exchange

import (
	"context"

	"fundingarb/internal/models"
	"fundingarb/pkg/ratelimit"
)

// Дефолтный лимит запросов к API биржи. Консервативное значение,
// подходящее большинству площадок (Binance и OKX допускают больше).
const (
	DefaultRateLimit = 10 // req/sec
	DefaultBurst     = 20
)

// rateLimitedConnector оборачивает Connector token-bucket лимитером:
// каждый вызов сначала ждёт токен, отмена контекста прерывает ожидание.
type rateLimitedConnector struct {
	inner   Connector
	limiter *ratelimit.RateLimiter
}

// WrapWithRateLimit возвращает коннектор, ограниченный rate req/sec
// с ёмкостью всплеска burst. Применяется в main ко всем коннекторам,
// чтобы параллельный опрос символов не превышал лимиты биржи.
func WrapWithRateLimit(inner Connector, rate, burst float64) Connector {
	return &rateLimitedConnector{
		inner:   inner,
		limiter: ratelimit.NewRateLimiter(rate, burst),
	}
}

func (c *rateLimitedConnector) GetName() string {
	return c.inner.GetName()
}

func (c *rateLimitedConnector) GetFundingRate(ctx context.Context, symbol string) (*models.ExchangeRateSnapshot, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.inner.GetFundingRate(ctx, symbol)
}

func (c *rateLimitedConnector) GetPrice(ctx context.Context, symbol string) (*PriceQuote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.inner.GetPrice(ctx, symbol)
}

func (c *rateLimitedConnector) CheckOrderExists(ctx context.Context, symbol, orderID string) (bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, err
	}
	return c.inner.CheckOrderExists(ctx, symbol, orderID)
}

func (c *rateLimitedConnector) GetOrderHistory(ctx context.Context, symbol, orderID string) (*OrderHistory, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.inner.GetOrderHistory(ctx, symbol, orderID)
}

func (c *rateLimitedConnector) CheckPositionExists(ctx context.Context, symbol, side string) (bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, err
	}
	return c.inner.CheckPositionExists(ctx, symbol, side)
}
