package ingest

import (
	"maps"
	"slices"
	"strings"

	"github.com/mmeshcher/impact-dashboard/internal/model"
)

// NormalizeKey приводит имя поля к виду без регистра и разделителей:
// "donation_amount", "donationAmount" и "Donation-Amount" совпадают.
func NormalizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range strings.ToLower(key) {
		if r == '_' || r == '-' || r == ' ' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Lookup ищет первое непустое значение по списку синонимов поля.
// Сначала проверяется точное совпадение ключа, затем нормализованное.
// Если нормализованному синониму соответствует несколько ключей, берётся
// наименьший в лексикографическом порядке.
func Lookup(r model.Record, aliases ...string) (any, bool) {
	if r == nil {
		return nil, false
	}

	var keys []string
	for _, alias := range aliases {
		if v, ok := r[alias]; ok && v != nil {
			return v, true
		}

		if keys == nil {
			keys = slices.Sorted(maps.Keys(r))
		}
		want := NormalizeKey(alias)
		for _, k := range keys {
			if v := r[k]; v != nil && NormalizeKey(k) == want {
				return v, true
			}
		}
	}

	return nil, false
}

func field(r model.Record, aliases ...string) any {
	v, _ := Lookup(r, aliases...)
	return v
}

// Flatten раскрывает записи вида {"id": 1, "attributes": {...}} в плоскую запись.
// Исходная запись не изменяется.
func Flatten(r model.Record) model.Record {
	attrs, ok := r["attributes"].(map[string]any)
	if !ok {
		return r
	}

	out := make(model.Record, len(attrs)+1)
	for k, v := range attrs {
		out[k] = v
	}
	if id, ok := r["id"]; ok {
		out["id"] = id
	}
	return out
}
