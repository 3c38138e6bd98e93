package monitor

import (
	"context"

	"fundingarb/internal/models"
)

// interfaces.go - внешние коллабораторы ядра мониторинга
//
// Ядро потребляет эти интерфейсы, но не реализует торговую часть:
// закрытие ног и отмена ордеров - зона ответственности торговой
// подсистемы, персистентность позиций - репозитория.

// PositionRepository даёт доступ к позициям под мониторингом
type PositionRepository interface {
	// GetOpenWithConditionalOrders возвращает открытые позиции
	// с выставленными защитными ордерами
	GetOpenWithConditionalOrders(ctx context.Context) ([]*models.Position, error)

	// MarkClosed переводит позицию OPEN -> CLOSED с указанной причиной.
	// Возвращает true если переход выполнен этим вызовом (позиция была OPEN),
	// false если позиция уже закрыта - защита от двойной обработки.
	MarkClosed(ctx context.Context, positionID int, closeReason string) (bool, error)
}

// PositionCloser закрывает ноги позиции рыночными ордерами
type PositionCloser interface {
	// CloseSingleSide закрывает одну ногу позиции по рынку.
	// Возвращает реализованную цену закрытия и комиссию.
	CloseSingleSide(ctx context.Context, position *models.Position, side string) (closePrice, fee float64, err error)

	// CancelSingleSideConditionalOrders снимает оставшиеся защитные
	// ордера указанной стороны. Best-effort: ошибка не критична.
	CancelSingleSideConditionalOrders(ctx context.Context, position *models.Position, side string) error
}

// NotificationSink принимает уведомления мониторинга.
// Fire-and-forget: доставка не подтверждается, ошибки глотаются реализацией.
type NotificationSink interface {
	Notify(notification *models.Notification)
}
