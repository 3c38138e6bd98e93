package utils

import (
	"math"
	"testing"
)

const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func TestFundingSpread(t *testing.T) {
	tests := []struct {
		name  string
		rateA float64
		rateB float64
		want  float64
	}{
		{"положительные ставки", 0.0003, 0.0001, 0.0002},
		{"противоположные знаки", 0.0003, -0.0002, 0.0005},
		{"порядок аргументов не важен", -0.0002, 0.0003, 0.0005},
		{"равные ставки", 0.0001, 0.0001, 0},
		{"обе отрицательные", -0.0005, -0.0001, 0.0004},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FundingSpread(tt.rateA, tt.rateB)
			if !almostEqual(got, tt.want) {
				t.Errorf("FundingSpread(%v, %v) = %v, want %v", tt.rateA, tt.rateB, got, tt.want)
			}
		})
	}
}

func TestAnnualizeSpread(t *testing.T) {
	tests := []struct {
		name      string
		spread    float64
		intervalA float64
		intervalB float64
		want      float64
	}{
		{"оба интервала 8ч", 0.0005, 8, 8, 0.0005 * 8760 / 8},
		{"смешанные интервалы 8ч и 4ч", 0.0005, 8, 4, 0.0005 * 8760 / 6},
		{"часовой интервал", 0.0001, 1, 1, 0.0001 * 8760},
		{"нулевой интервал", 0.0005, 0, 0, 0},
		{"отрицательный интервал", 0.0005, -8, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnnualizeSpread(tt.spread, tt.intervalA, tt.intervalB)
			if !almostEqual(got, tt.want) {
				t.Errorf("AnnualizeSpread(%v, %v, %v) = %v, want %v",
					tt.spread, tt.intervalA, tt.intervalB, got, tt.want)
			}
		})
	}
}

func TestPriceDiffRate(t *testing.T) {
	tests := []struct {
		name       string
		shortPrice float64
		longPrice  float64
		want       float64
	}{
		{"цена шорта выше", 101.0, 100.0, 1.0 / 101.0},
		{"цены равны", 100.0, 100.0, 0},
		{"цена шорта ниже", 100.0, 100.5, -0.005},
		{"некорректная цена шорта", 0, 100.0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PriceDiffRate(tt.shortPrice, tt.longPrice)
			if !almostEqual(got, tt.want) {
				t.Errorf("PriceDiffRate(%v, %v) = %v, want %v",
					tt.shortPrice, tt.longPrice, got, tt.want)
			}
		})
	}
}

func TestIsPriceDiffAcceptable(t *testing.T) {
	tests := []struct {
		name       string
		diffRate   float64
		maxAdverse float64
		want       bool
	}{
		{"положительная разница всегда допустима", 0.01, 0.002, true},
		{"нулевая разница допустима", 0, 0.002, true},
		{"небольшая неблагоприятная разница", -0.001, 0.002, true},
		{"граница порога включительно", -0.002, 0.002, true},
		{"превышение порога", -0.0021, 0.002, false},
		{"большая неблагоприятная разница", -0.05, 0.002, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsPriceDiffAcceptable(tt.diffRate, tt.maxAdverse)
			if got != tt.want {
				t.Errorf("IsPriceDiffAcceptable(%v, %v) = %v, want %v",
					tt.diffRate, tt.maxAdverse, got, tt.want)
			}
		})
	}
}

func TestCalculateLegPNL(t *testing.T) {
	tests := []struct {
		name     string
		side     string
		entry    float64
		exit     float64
		quantity float64
		want     float64
	}{
		{"лонг в прибыли", "LONG", 100.0, 105.0, 2.0, 10.0},
		{"лонг в убытке", "LONG", 100.0, 95.0, 2.0, -10.0},
		{"шорт в прибыли", "SHORT", 100.0, 95.0, 2.0, 10.0},
		{"шорт в убытке", "SHORT", 100.0, 105.0, 2.0, -10.0},
		{"нулевой объём", "LONG", 100.0, 105.0, 0, 0},
		{"неизвестная сторона", "FLAT", 100.0, 105.0, 1.0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateLegPNL(tt.side, tt.entry, tt.exit, tt.quantity)
			if !almostEqual(got, tt.want) {
				t.Errorf("CalculateLegPNL(%q, %v, %v, %v) = %v, want %v",
					tt.side, tt.entry, tt.exit, tt.quantity, got, tt.want)
			}
		})
	}
}

func TestCalculateTotalPNL(t *testing.T) {
	// Хедж: лонг теряет, шорт зарабатывает столько же
	got := CalculateTotalPNL(100.0, 98.0, 1.0, 100.0, 98.0, 1.0)
	if !almostEqual(got, 0) {
		t.Errorf("hedged position PNL = %v, want 0", got)
	}

	// Разные объёмы ног
	got = CalculateTotalPNL(100.0, 102.0, 2.0, 101.0, 102.0, 1.0)
	want := 4.0 - 1.0
	if !almostEqual(got, want) {
		t.Errorf("CalculateTotalPNL = %v, want %v", got, want)
	}
}

func TestRoundToStep(t *testing.T) {
	tests := []struct {
		value float64
		step  float64
		want  float64
	}{
		{0.123456, 0.001, 0.123},
		{1.999, 0.01, 1.99},
		{100.5, 1.0, 100.0},
		{5.0, 0, 5.0}, // шаг не задан
	}

	for _, tt := range tests {
		got := RoundToStep(tt.value, tt.step)
		if !almostEqual(got, tt.want) {
			t.Errorf("RoundToStep(%v, %v) = %v, want %v", tt.value, tt.step, got, tt.want)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 10); got != 5 {
		t.Errorf("Clamp(5, 0, 10) = %v, want 5", got)
	}
	if got := Clamp(-1, 0, 10); got != 0 {
		t.Errorf("Clamp(-1, 0, 10) = %v, want 0", got)
	}
	if got := Clamp(11, 0, 10); got != 10 {
		t.Errorf("Clamp(11, 0, 10) = %v, want 10", got)
	}
}
