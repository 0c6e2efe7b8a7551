// Package validation содержит функции валидации входных данных.
package validation

import "unicode"

const maxScopeKeyLen = 64

// IsValidScopeKey проверяет ключ области: непустой идентификатор из латинских
// букв, цифр, дефиса и подчёркивания.
func IsValidScopeKey(key string) bool {
	if key == "" || len(key) > maxScopeKeyLen {
		return false
	}

	for _, ch := range key {
		if ch > unicode.MaxASCII {
			return false
		}
		if !unicode.IsDigit(ch) && !unicode.IsLetter(ch) && ch != '-' && ch != '_' {
			return false
		}
	}

	return true
}

// ClampLimit ограничивает размер выборки: значения вне диапазона 1..max заменяются на def.
func ClampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
