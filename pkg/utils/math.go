package utils

import (
	"math"
)

// math.go - математические утилиты фандингового арбитража
//
// Назначение:
// Чистые функции для расчёта спредов фандинга, годовой доходности
// и PNL по ногам позиции. Без побочных эффектов.
//
// Функции:
// - FundingSpread: разница ставок фандинга между биржами
// - AnnualizeSpread: приведение спреда к годовой доходности
// - PriceDiffRate: относительная разница цен шорт/лонг
// - CalculatePNL / CalculateLegPNL: прибыль/убыток по ноге

// HoursPerYear количество часов в году для аннуализации спреда.
// Используется календарный год без учёта високосных лет.
const HoursPerYear = 8760.0

// FundingSpread возвращает модуль разницы ставок фандинга двух бирж.
//
// Ставки передаются в долях (0.0001 = 0.01% за интервал).
// Знак не важен - направление сделки определяется отдельно:
// шорт открывается там где ставка выше.
//
// Примеры:
//   - FundingSpread(0.0003, -0.0002) = 0.0005
//   - FundingSpread(-0.0001, 0.0004) = 0.0005
func FundingSpread(rateA, rateB float64) float64 {
	return math.Abs(rateA - rateB)
}

// AnnualizeSpread приводит спред фандинга к годовой доходности.
//
// Формула:
//
//	annualized = spread × (8760 / avgIntervalHours)
//
// где avgIntervalHours - средний интервал выплат двух бирж.
// Интервалы выплат различаются (8ч у большинства, 4ч и 1ч встречаются),
// поэтому берётся среднее двух интервалов.
//
// Параметры:
//   - spread: спред за один интервал в долях
//   - intervalHoursA, intervalHoursB: интервалы выплат бирж в часах
//
// Возвращает:
//   - Годовую доходность в долях (0.5 = 50% годовых)
//   - 0 если интервалы некорректны
func AnnualizeSpread(spread, intervalHoursA, intervalHoursB float64) float64 {
	avg := (intervalHoursA + intervalHoursB) / 2
	if avg <= 0 {
		return 0
	}
	return spread * HoursPerYear / avg
}

// PriceDiffRate возвращает относительную разницу цен между биржами.
//
// Формула:
//
//	diff = (P_short - P_long) / P_short
//
// Положительное значение означает что цена на бирже шорта выше -
// позиция открывается с выгодной разницей цен. Отрицательное значение
// означает неблагоприятную разницу, которая допустима только в пределах
// порога (см. IsPriceDiffAcceptable).
//
// Возвращает 0 если цена шорта некорректна.
func PriceDiffRate(shortPrice, longPrice float64) float64 {
	if shortPrice <= 0 {
		return 0
	}
	return (shortPrice - longPrice) / shortPrice
}

// IsPriceDiffAcceptable проверяет допустимость разницы цен для входа.
//
// Вход допустим если разница неотрицательна (цена шорта выше или равна)
// либо неблагоприятная разница не превышает maxAdverse по модулю.
//
// Параметры:
//   - diffRate: результат PriceDiffRate
//   - maxAdverse: максимально допустимая неблагоприятная разница в долях
func IsPriceDiffAcceptable(diffRate, maxAdverse float64) bool {
	if diffRate >= 0 {
		return true
	}
	return math.Abs(diffRate) <= maxAdverse
}

// CalculateLegPNL расчитывает PNL одной ноги позиции.
//
// Формулы:
//   - Long PNL = (P_close - P_open) × qty
//   - Short PNL = (P_open - P_close) × qty
//
// Параметры:
//   - side: "LONG" или "SHORT"
//   - entryPrice: цена входа
//   - exitPrice: цена выхода
//   - quantity: объём ноги
//
// Возвращает:
//   - PNL в валюте котировки (обычно USDT)
func CalculateLegPNL(side string, entryPrice, exitPrice, quantity float64) float64 {
	if quantity <= 0 {
		return 0
	}

	switch side {
	case "LONG":
		return (exitPrice - entryPrice) * quantity
	case "SHORT":
		return (entryPrice - exitPrice) * quantity
	default:
		return 0
	}
}

// CalculateTotalPNL расчитывает суммарный PNL двуногой позиции.
//
// Параметры:
//   - longEntry, longExit: цены лонг-ноги
//   - longQty: объём лонг-ноги
//   - shortEntry, shortExit: цены шорт-ноги
//   - shortQty: объём шорт-ноги
func CalculateTotalPNL(longEntry, longExit, longQty, shortEntry, shortExit, shortQty float64) float64 {
	longPNL := CalculateLegPNL("LONG", longEntry, longExit, longQty)
	shortPNL := CalculateLegPNL("SHORT", shortEntry, shortExit, shortQty)
	return longPNL + shortPNL
}

// RoundToStep округляет значение ВНИЗ до ближайшего кратного step.
//
// Округление вниз безопаснее для торговли - не превысим доступный объём.
// Если step <= 0, возвращает исходное значение.
func RoundToStep(value, step float64) float64 {
	if step <= 0 {
		return value
	}
	return math.Floor(value/step) * step
}

// Clamp ограничивает значение диапазоном [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
