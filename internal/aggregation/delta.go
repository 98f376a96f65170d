package aggregation

import (
	"math"
	"strings"
	"unicode"

	"github.com/KruglovEgor/RestoStats/internal/domain"
)

// PeriodDelta вычисляет изменение current относительно previous в процентах.
// Value всегда неотрицательно, знак передаётся через IsPositive.
// При нулевой базе: 100% для положительного current, иначе 0%.
func PeriodDelta(current, previous float64) domain.Delta {
	if previous == 0 {
		if current > 0 {
			return domain.Delta{Value: 100, IsPositive: true}
		}
		return domain.Delta{Value: 0, IsPositive: true}
	}

	change := (current - previous) * 100 / previous
	return domain.Delta{
		Value:      math.Abs(change),
		IsPositive: change >= 0,
	}
}

// TotalsDelta - изменения заказов и выручки между двумя периодами
type TotalsDelta struct {
	Commandes domain.Delta `json:"commandes"`
	Recettes  domain.Delta `json:"recettes"`
}

// CompareTotals сравнивает итоги двух периодов
func CompareTotals(current, previous domain.PeriodTotals) TotalsDelta {
	return TotalsDelta{
		Commandes: PeriodDelta(float64(current.Commandes), float64(previous.Commandes)),
		Recettes:  PeriodDelta(current.Recettes, previous.Recettes),
	}
}

var paymentLabels = map[string]string{
	"ESPECES":        "Espèces",
	"CARTE_BANCAIRE": "Carte bancaire",
	"WAVE":           "Wave",
	"MTN_MONEY":      "MTN Money",
	"ORANGE_MONEY":   "Orange Money",
	"MOOV_MONEY":     "Moov Money",
}

// FormatPaymentMethodName возвращает подпись способа оплаты.
// Неизвестные коды: подчёркивания заменяются пробелами, слова - с заглавной буквы.
func FormatPaymentMethodName(code string) string {
	if label, ok := paymentLabels[code]; ok {
		return label
	}

	words := strings.FieldsFunc(code, func(r rune) bool { return r == '_' || r == ' ' })
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// PaymentBreakdown - доля способа оплаты в выручке
type PaymentBreakdown struct {
	Code  string  `json:"code"`
	Label string  `json:"label"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// PaymentShares переводит коды в подписи и считает доли в процентах
func PaymentShares(stats []domain.PaymentMethodStat) []PaymentBreakdown {
	var sum float64
	for _, s := range stats {
		sum += s.Total
	}

	out := make([]PaymentBreakdown, 0, len(stats))
	for _, s := range stats {
		share := 0.0
		if sum > 0 {
			share = math.Round(s.Total/sum*10000) / 100
		}
		out = append(out, PaymentBreakdown{
			Code:  s.Methode,
			Label: FormatPaymentMethodName(s.Methode),
			Total: s.Total,
			Count: s.Count,
			Share: share,
		})
	}
	return out
}
