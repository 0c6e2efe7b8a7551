package leveling

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mmeshcher/impact-dashboard/internal/model"
)

// Глубина повторной сериализации, после которой строка считается непрозрачной.
const maxDecodeDepth = 4

// NormalizeBadges приводит сохранённый список значков к списку идентификаторов.
//
// Значение может быть настоящим списком, строкой с JSON-списком или строкой,
// сериализованной в JSON повторно (кавычки внутри экранированы). Сначала
// выполняется структурный разбор; если он не удался, строка считается
// единственным значком. Пустые значения отбрасываются, повторы удаляются
// с сохранением порядка первого появления.
func NormalizeBadges(raw any) []model.Badge {
	out := []model.Badge{}
	seen := make(map[model.Badge]struct{})

	add := func(s string) {
		b := model.Badge(strings.TrimSpace(s))
		if b == "" {
			return
		}
		if _, ok := seen[b]; ok {
			return
		}
		seen[b] = struct{}{}
		out = append(out, b)
	}

	for _, s := range flattenBadges(raw, 0) {
		add(s)
	}
	return out
}

func flattenBadges(raw any, depth int) []string {
	switch v := raw.(type) {
	case nil:
		return nil
	case []model.Badge:
		out := make([]string, 0, len(v))
		for _, b := range v {
			out = append(out, string(b))
		}
		return out
	case []string:
		return v
	case []any:
		var out []string
		for _, item := range v {
			switch x := item.(type) {
			case string:
				out = append(out, x)
			case map[string]any:
				// Значок может прийти объектом вида {"name": "..."}.
				if name, ok := x["name"].(string); ok {
					out = append(out, name)
				}
			case nil:
			default:
				out = append(out, fmt.Sprint(x))
			}
		}
		return out
	case string:
		return decodeBadgeString(v, depth)
	default:
		return []string{fmt.Sprint(v)}
	}
}

func decodeBadgeString(s string, depth int) []string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	if depth >= maxDecodeDepth {
		return []string{trimmed}
	}

	first := trimmed[0]
	if first != '[' && first != '"' {
		return []string{trimmed}
	}

	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		// Список с экранированными кавычками без внешней строки: [\"a\",\"b\"].
		if !strings.Contains(trimmed, `\"`) {
			return []string{trimmed}
		}
		unescaped := strings.ReplaceAll(trimmed, `\"`, `"`)
		if err := json.Unmarshal([]byte(unescaped), &decoded); err != nil {
			return []string{trimmed}
		}
	}

	switch decoded.(type) {
	case []any, string:
		return flattenBadges(decoded, depth+1)
	default:
		return []string{trimmed}
	}
}
