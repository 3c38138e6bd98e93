package monitor

import (
	"sync"

	"go.uber.org/zap"

	"fundingarb/internal/exchange"
)

// CloserFactory создаёт PositionCloser поверх коннекторов бирж.
// Реализация закрытия позиций (выставление рыночных ордеров) живёт
// во внешнем пакете и регистрируется через RegisterCloserFactory.
type CloserFactory func(connectors map[string]exchange.Connector, logger *zap.Logger) (PositionCloser, error)

var (
	closerMu      sync.RWMutex
	closerFactory CloserFactory
)

// RegisterCloserFactory регистрирует фабрику PositionCloser.
// Вызывается из init() пакета торговой реализации. Повторная
// регистрация вызывает панику.
func RegisterCloserFactory(factory CloserFactory) {
	closerMu.Lock()
	defer closerMu.Unlock()

	if factory == nil {
		panic("monitor: RegisterCloserFactory factory is nil")
	}
	if closerFactory != nil {
		panic("monitor: RegisterCloserFactory called twice")
	}
	closerFactory = factory
}

// BuildCloser создаёт PositionCloser если фабрика зарегистрирована.
// Второе возвращаемое значение false означает, что в этой сборке
// автоматическое закрытие позиций недоступно.
func BuildCloser(connectors map[string]exchange.Connector, logger *zap.Logger) (PositionCloser, bool, error) {
	closerMu.RLock()
	defer closerMu.RUnlock()

	if closerFactory == nil {
		return nil, false, nil
	}
	closer, err := closerFactory(connectors, logger)
	if err != nil {
		return nil, false, err
	}
	return closer, true, nil
}
