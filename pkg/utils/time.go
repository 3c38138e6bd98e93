package utils

import (
	"time"
)

// time.go - утилиты для работы с сеткой выплат фандинга
//
// Назначение:
// Биржи выплачивают фандинг по фиксированной сетке, привязанной
// к 00:00 UTC: при интервале 8ч это 00:00, 08:00, 16:00; при 4ч -
// каждые 4 часа и т.д. Функции ниже вычисляют границы этой сетки
// и проверяют факт наступления выплаты.
//
// Функции:
// - NextSettlementTime / PrevSettlementTime: границы сетки выплат
// - IsSettled: наступила ли выплата к указанному моменту
// - IsStale: проверка свежести записи кэша

// ============================================================
// Сетка выплат фандинга
// ============================================================

// NextSettlementTime возвращает ближайший момент выплаты фандинга
// строго после t для заданного интервала в часах.
//
// Сетка привязана к 00:00 UTC текущих суток. Если t совпадает с узлом
// сетки, возвращается следующий узел.
//
// Пример:
//
//	// t = 2024-01-15 07:59:59 UTC, interval = 8
//	next := NextSettlementTime(t, 8)
//	// next: 2024-01-15 08:00:00 UTC
func NextSettlementTime(t time.Time, intervalHours int) time.Time {
	if intervalHours <= 0 {
		intervalHours = 8
	}

	t = t.UTC()
	dayStart := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	step := time.Duration(intervalHours) * time.Hour

	elapsed := t.Sub(dayStart)
	slots := elapsed / step

	next := dayStart.Add((slots + 1) * step)
	return next
}

// PrevSettlementTime возвращает последний момент выплаты фандинга
// не позже t для заданного интервала в часах.
//
// Если t совпадает с узлом сетки, возвращается сам узел.
func PrevSettlementTime(t time.Time, intervalHours int) time.Time {
	if intervalHours <= 0 {
		intervalHours = 8
	}

	t = t.UTC()
	dayStart := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	step := time.Duration(intervalHours) * time.Hour

	elapsed := t.Sub(dayStart)
	slots := elapsed / step

	return dayStart.Add(slots * step)
}

// IsSettled проверяет наступила ли запланированная выплата.
//
// Выплата считается наступившей если settlementTime не позже now.
// Нулевое время выплаты трактуется как "уже наступила" - биржа
// не сообщила время, и лучше обновить ставку лишний раз.
func IsSettled(settlementTime, now time.Time) bool {
	if settlementTime.IsZero() {
		return true
	}
	return !settlementTime.After(now)
}

// ============================================================
// Свежесть данных
// ============================================================

// IsStale проверяет устарела ли запись с указанным временем фиксации.
//
// Запись устарела если её возраст строго превышает maxAge.
// Возраст ровно maxAge считается свежим.
func IsStale(recordedAt, now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	return now.Sub(recordedAt) > maxAge
}

// ============================================================
// Утилиты для timestamp
// ============================================================

// UnixMillis возвращает текущее время в миллисекундах Unix
func UnixMillis() int64 {
	return time.Now().UnixMilli()
}

// FromUnixMillis конвертирует миллисекунды Unix в time.Time
func FromUnixMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// FormatDuration форматирует продолжительность в человекочитаемый формат
//
// Примеры:
//   - "45s"
//   - "5m30s"
//   - "2h15m"
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	return d.Round(time.Second).String()
}
