// Package ingest приводит сырые записи хранилища к типизированным сущностям.
//
// Записи приходят с непостоянной типизацией: суммы бывают числами и строками,
// ключи различаются регистром и разделителями, ссылки на связанные записи
// бывают скалярами или вложенными объектами. Функции пакета никогда не
// возвращают ошибок: некорректные значения приводятся к нулевым.
package ingest

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Float приводит значение к числу. Нечисловые и отсутствующие значения дают 0.
func Float(v any) float64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case decimal.Decimal:
		f = x.InexactFloat64()
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Decimal приводит значение к десятичному числу без потери точности для строк и json.Number.
func Decimal(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return x
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.NewFromFloat(Float(v))
	}
}

// Int приводит значение к целому, отбрасывая дробную часть.
func Int(v any) int {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
	}
	return int(Float(v))
}

// String приводит значение к строке без пробелов по краям.
func String(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

// Bool приводит значение к логическому.
func Bool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "1", "y", "sponsored":
			return true
		}
		return false
	case nil:
		return false
	default:
		return Float(v) != 0
	}
}

// ID возвращает канонический идентификатор. Ссылка может быть скаляром
// либо вложенным объектом вида {"id": 5} или {"data": {"id": 5}}.
// Числовые строки теряют ведущие нули и нулевую дробную часть, поэтому
// "05", 5 и "5.0" дают одинаковый результат.
func ID(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case map[string]any:
		if inner, ok := x["data"]; ok {
			return ID(inner)
		}
		if id, ok := x["id"]; ok {
			return ID(id)
		}
		return ""
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return canonicalNumeric(x.String())
	case string:
		return canonicalNumeric(strings.TrimSpace(x))
	default:
		return ""
	}
}

func canonicalNumeric(s string) string {
	if s == "" {
		return ""
	}

	intPart, frac, hasFrac := strings.Cut(s, ".")
	if !isDigits(intPart) {
		return s
	}
	if hasFrac && strings.Trim(frac, "0") != "" {
		return s
	}

	trimmed := strings.TrimLeft(intPart, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// LooseEqual сравнивает два идентификатора с учётом того, что одно и то же
// значение может прийти числом или строкой. Пустые значения не равны ничему.
func LooseEqual(a, b any) bool {
	ka, kb := ID(a), ID(b)
	if ka == "" || kb == "" {
		return false
	}
	if ka == kb {
		return true
	}

	fa, errA := strconv.ParseFloat(ka, 64)
	fb, errB := strconv.ParseFloat(kb, 64)
	return errA == nil && errB == nil && fa == fb
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Time разбирает дату. Второе значение ложно, если дату разобрать не удалось.
func Time(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	case float64, json.Number, int, int64:
		n := Float(x)
		if n <= 0 {
			return time.Time{}, false
		}
		// Метки больше 1e12 считаются миллисекундами.
		if n > 1e12 {
			return time.UnixMilli(int64(n)).UTC(), true
		}
		return time.Unix(int64(n), 0).UTC(), true
	default:
		return time.Time{}, false
	}
}
