package leveling

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmeshcher/impact-dashboard/internal/model"
)

func TestNormalizeBadges(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want []model.Badge
	}{
		{name: "nil", raw: nil, want: []model.Badge{}},
		{name: "empty string", raw: "", want: []model.Badge{}},
		{name: "null string", raw: "null", want: []model.Badge{}},
		{name: "native list", raw: []any{"first", "streak"}, want: []model.Badge{"first", "streak"}},
		{name: "string slice", raw: []string{"a", " a ", "b"}, want: []model.Badge{"a", "b"}},
		{name: "json string", raw: `["first","streak"]`, want: []model.Badge{"first", "streak"}},
		{name: "double encoded", raw: `"[\"first\",\"streak\"]"`, want: []model.Badge{"first", "streak"}},
		{name: "escaped without outer quotes", raw: `[\"first\",\"streak\"]`, want: []model.Badge{"first", "streak"}},
		{name: "objects with names", raw: []any{map[string]any{"name": "hero"}, nil, ""}, want: []model.Badge{"hero"}},
		{name: "opaque string", raw: "Top Donor", want: []model.Badge{"Top Donor"}},
		{name: "broken json", raw: `["first",`, want: []model.Badge{`["first",`}},
		{name: "json object string", raw: `"{\"a\":1}"`, want: []model.Badge{`{"a":1}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeBadges(tt.raw))
		})
	}
}

func TestNormalizeBadges_DoubleEncodedMatchesSingle(t *testing.T) {
	single := NormalizeBadges(`["first","streak"]`)
	double := NormalizeBadges(`"[\"first\",\"streak\"]"`)

	assert.Equal(t, single, double)
}

func TestNormalizeBadges_Idempotent(t *testing.T) {
	inputs := []any{
		`"[\"first\",\"first\",\"streak\"]"`,
		[]any{"x", "y", "x"},
		"Top Donor",
		`["a",`,
	}

	for _, in := range inputs {
		once := NormalizeBadges(in)
		twice := NormalizeBadges(once)
		assert.Equal(t, once, twice, "input %v", in)
	}
}
