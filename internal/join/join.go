// Package join выделяет подмножества коллекций, относящиеся к конкретному
// участнику, сопоставляя поля внешних ключей независимо полученных коллекций.
//
// Ни одна функция пакета не изменяет входные срезы. Отсутствующая коллекция
// равносильна пустой, пустой результат не является ошибкой.
package join

import (
	"github.com/mmeshcher/impact-dashboard/internal/ingest"
	"github.com/mmeshcher/impact-dashboard/internal/model"
)

// Records возвращает записи, у которых одно из полей внешнего ключа
// нестрого равно key ("5", 5 и 5.0 совпадают).
func Records(records []model.Record, key string, fields ...string) []model.Record {
	out := []model.Record{}
	if key == "" {
		return out
	}

	for _, raw := range records {
		if raw == nil {
			continue
		}
		r := ingest.Flatten(raw)
		v, ok := ingest.Lookup(r, fields...)
		if !ok {
			continue
		}
		if ingest.LooseEqual(v, key) {
			out = append(out, raw)
		}
	}
	return out
}

// Filter возвращает элементы, для которых pred истинно, в исходном порядке.
func Filter[T any](items []T, pred func(T) bool) []T {
	out := make([]T, 0)
	for _, it := range items {
		if pred(it) {
			out = append(out, it)
		}
	}
	return out
}

// Index реализует соединение в памяти: элементы, сгруппированные по внешнему ключу.
// Позволяет избежать повторных линейных проходов при многократных выборках.
type Index[T any] struct {
	byKey map[string][]T
	keys  []string
}

// Build строит индекс по функции ключа. Элементы с пустым ключом не индексируются.
func Build[T any](items []T, key func(T) string) *Index[T] {
	idx := &Index[T]{byKey: make(map[string][]T)}
	for _, it := range items {
		k := key(it)
		if k == "" {
			continue
		}
		if _, ok := idx.byKey[k]; !ok {
			idx.keys = append(idx.keys, k)
		}
		idx.byKey[k] = append(idx.byKey[k], it)
	}
	return idx
}

// Get возвращает элементы с указанным ключом. Ключ канонизируется так же,
// как поля записей, поэтому "007" находит элементы с ключом "7".
func (i *Index[T]) Get(key string) []T {
	if i == nil {
		return nil
	}
	return i.byKey[ingest.ID(key)]
}

// First возвращает первый элемент с указанным ключом.
func (i *Index[T]) First(key string) (T, bool) {
	var zero T
	items := i.Get(key)
	if len(items) == 0 {
		return zero, false
	}
	return items[0], true
}

// Keys возвращает ключи индекса в порядке первого появления.
func (i *Index[T]) Keys() []string {
	if i == nil {
		return nil
	}
	return append([]string(nil), i.keys...)
}

// Len возвращает количество различных ключей.
func (i *Index[T]) Len() int {
	if i == nil {
		return 0
	}
	return len(i.keys)
}
