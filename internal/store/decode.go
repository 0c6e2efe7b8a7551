package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mmeshcher/impact-dashboard/internal/model"
)

// DecodeRecords разбирает тело ответа со списком записей. Поддерживаются
// голый массив, конверт {"data": [...]} и null. Числа сохраняются как
// json.Number, чтобы не терять точность идентификаторов и сумм.
func DecodeRecords(body []byte) ([]model.Record, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []model.Record{}, nil
	}

	var raw any
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	return recordsFrom(raw)
}

func recordsFrom(raw any) ([]model.Record, error) {
	switch v := raw.(type) {
	case nil:
		return []model.Record{}, nil
	case []any:
		out := make([]model.Record, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, model.Record(m))
			}
		}
		return out, nil
	case map[string]any:
		if data, ok := v["data"]; ok {
			return recordsFrom(data)
		}
		return []model.Record{model.Record(v)}, nil
	default:
		return nil, fmt.Errorf("unexpected payload type %T", raw)
	}
}

func decodeRecord(body []byte) (model.Record, error) {
	records, err := DecodeRecords(body)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return model.Record{}, nil
	}
	return records[0], nil
}
