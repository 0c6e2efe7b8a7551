package metrics

import "encoding/json"

// Result описывает показатель, который может быть недоступен, если исходная
// коллекция не загрузилась. В JSON недоступный показатель кодируется нулевым
// значением; о недоступности сообщает список несработавших коллекций.
type Result[T any] struct {
	Value     T
	Available bool
}

// Available оборачивает вычисленное значение.
func Available[T any](v T) Result[T] {
	return Result[T]{Value: v, Available: true}
}

// Unavailable возвращает недоступный показатель.
func Unavailable[T any]() Result[T] {
	return Result[T]{}
}

// From возвращает доступный показатель, если ok, иначе недоступный.
func From[T any](v T, ok bool) Result[T] {
	if !ok {
		return Unavailable[T]()
	}
	return Available(v)
}

// Or возвращает значение или def, если показатель недоступен.
func (r Result[T]) Or(def T) T {
	if !r.Available {
		return def
	}
	return r.Value
}

// MarshalJSON кодирует значение либо нулевое значение типа для недоступного показателя.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	var zero T
	return json.Marshal(r.Or(zero))
}
