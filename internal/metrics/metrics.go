// Package metrics содержит чистые функции свёртки отфильтрованных коллекций
// в скалярные показатели для карточек и индикаторов прогресса.
//
// Функции не возвращают ошибок: некорректные значения уже приведены к нулю
// при разборе записей, деление на ноль даёт 0.
package metrics

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/impact-dashboard/internal/ingest"
	"github.com/mmeshcher/impact-dashboard/internal/model"
)

// SumAmount суммирует суммы пожертвований. Если статусы не указаны,
// учитываются все пожертвования, иначе только с перечисленными статусами.
func SumAmount(donations []model.Donation, statuses ...model.PaymentStatus) decimal.Decimal {
	total := decimal.Zero
	for _, d := range donations {
		if len(statuses) > 0 && !hasStatus(statuses, d.Status) {
			continue
		}
		total = total.Add(d.Amount)
	}
	return total
}

func hasStatus(statuses []model.PaymentStatus, s model.PaymentStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

// Count возвращает количество пожертвований с указанными статусами (все, если статусы не заданы).
func Count(donations []model.Donation, statuses ...model.PaymentStatus) int {
	if len(statuses) == 0 {
		return len(donations)
	}
	n := 0
	for _, d := range donations {
		if hasStatus(statuses, d.Status) {
			n++
		}
	}
	return n
}

// CountUnique возвращает число различных непустых ключей.
func CountUnique[T any](items []T, key func(T) string) int {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		k := key(it)
		if k == "" {
			continue
		}
		seen[k] = struct{}{}
	}
	return len(seen)
}

// Percentage возвращает numerator/denominator*100 либо 0 при неположительном знаменателе.
// Результат всегда конечен.
func Percentage(numerator, denominator float64) float64 {
	if denominator <= 0 || math.IsNaN(denominator) {
		return 0
	}
	p := numerator / denominator * 100
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	return p
}

// Rate возвращает долю count от total в процентах.
func Rate(count, total int) float64 {
	return Percentage(float64(count), float64(total))
}

// ProgressWidth возвращает процент, ограниченный диапазоном 0..100, для ширины индикатора.
func ProgressWidth(numerator, denominator float64) float64 {
	return min(max(Percentage(numerator, denominator), 0), 100)
}

// DecimalPercentage вычисляет Percentage для денежных величин.
func DecimalPercentage(numerator, denominator decimal.Decimal) float64 {
	return Percentage(numerator.InexactFloat64(), denominator.InexactFloat64())
}

// Period задаёт календарный месяц.
type Period struct {
	Month time.Month
	Year  int
}

// PeriodOf возвращает месяц, содержащий t.
func PeriodOf(t time.Time) Period {
	return Period{Month: t.Month(), Year: t.Year()}
}

// Contains сообщает, попадает ли дата в месяц.
func (p Period) Contains(t time.Time) bool {
	return t.Month() == p.Month && t.Year() == p.Year
}

// PeriodFilter возвращает элементы, дата которых попадает в месяц.
// Элементы без корректной даты исключаются.
func PeriodFilter[T any](items []T, date func(T) (time.Time, bool), p Period) []T {
	out := make([]T, 0)
	for _, it := range items {
		t, ok := date(it)
		if !ok {
			continue
		}
		if p.Contains(t) {
			out = append(out, it)
		}
	}
	return out
}

// PeriodFilterRecords применяет PeriodFilter к сырым записям по полю даты (с синонимами).
func PeriodFilterRecords(records []model.Record, p Period, dateFields ...string) []model.Record {
	return PeriodFilter(records, func(r model.Record) (time.Time, bool) {
		v, ok := ingest.Lookup(ingest.Flatten(r), dateFields...)
		if !ok {
			return time.Time{}, false
		}
		return ingest.Time(v)
	}, p)
}

// DonationDate возвращает дату пожертвования для PeriodFilter.
func DonationDate(d model.Donation) (time.Time, bool) {
	return d.CreatedAt, d.HasDate
}
