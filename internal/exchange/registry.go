package exchange

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// ConnectorFactory создаёт коннектор биржи
type ConnectorFactory func(logger *zap.Logger) (Connector, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]ConnectorFactory)
)

// RegisterConnector регистрирует фабрику коннектора под именем биржи.
// Вызывается из init() пакета реализации, по аналогии с драйверами
// database/sql:
//
//	import _ "fundingarb/internal/exchange/binance"
//
// Повторная регистрация того же имени вызывает панику.
func RegisterConnector(name string, factory ConnectorFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	if factory == nil {
		panic("exchange: RegisterConnector factory is nil")
	}
	if _, dup := factories[name]; dup {
		panic("exchange: RegisterConnector called twice for " + name)
	}
	factories[name] = factory
}

// RegisteredConnectors возвращает имена зарегистрированных бирж
func RegisteredConnectors() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildConnectors создаёт коннекторы для перечисленных бирж.
//
// Биржи без зарегистрированной фабрики пропускаются с записью в лог:
// мониторинг работает с тем подмножеством, которое доступно в сборке.
// Ошибка фабрики (например, некорректные credentials) фатальна.
func BuildConnectors(names []string, logger *zap.Logger) (map[string]Connector, error) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	connectors := make(map[string]Connector, len(names))
	for _, name := range names {
		factory, ok := factories[name]
		if !ok {
			logger.Warn("коннектор биржи не зарегистрирован в этой сборке",
				zap.String("exchange", name))
			continue
		}
		conn, err := factory(logger)
		if err != nil {
			return nil, fmt.Errorf("create %s connector: %w", name, err)
		}
		connectors[name] = conn
	}
	return connectors, nil
}
