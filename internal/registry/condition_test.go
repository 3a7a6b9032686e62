package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camino-run/camino/pkg/domain"
)

func TestEvaluateCondition_Numeric(t *testing.T) {
	ctx := map[string]any{"age": float64(25)}

	cases := []struct {
		op    domain.Operator
		value any
		want  bool
	}{
		{domain.OpEqual, float64(25), true},
		{domain.OpEqual, float64(18), false},
		{domain.OpNotEqual, float64(18), true},
		{domain.OpGreater, float64(18), true},
		{domain.OpGreater, float64(25), false},
		{domain.OpGreaterOrEqual, float64(25), true},
		{domain.OpLess, float64(30), true},
		{domain.OpLessOrEqual, float64(25), true},
		{domain.OpLessOrEqual, float64(24), false},
	}

	for _, tc := range cases {
		got, err := evaluateCondition(domain.Condition{Field: "age", Operator: tc.op, Value: tc.value}, ctx)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "age %s %v", tc.op, tc.value)
	}
}

func TestEvaluateCondition_MixedTypesCompareNumerically(t *testing.T) {
	// JSON decoding yields float64, but callers constructing contexts in Go
	// may pass ints. Both sides coerce before comparing.
	ctx := map[string]any{"age": 25}

	got, err := evaluateCondition(domain.Condition{Field: "age", Operator: domain.OpGreater, Value: float64(18)}, ctx)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvaluateCondition_StringsCompareLexicographically(t *testing.T) {
	ctx := map[string]any{"language": "es"}

	got, err := evaluateCondition(domain.Condition{Field: "language", Operator: domain.OpEqual, Value: "es"}, ctx)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = evaluateCondition(domain.Condition{Field: "language", Operator: domain.OpLess, Value: "fr"}, ctx)
	require.NoError(t, err)
	assert.True(t, got, `"es" < "fr" lexicographically`)

	// Number vs. non-numeric string falls back to string comparison.
	got, err = evaluateCondition(domain.Condition{Field: "language", Operator: domain.OpNotEqual, Value: float64(3)}, ctx)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvaluateCondition_MissingField(t *testing.T) {
	ctx := map[string]any{}

	got, err := evaluateCondition(domain.Condition{Field: "age", Operator: domain.OpNotEqual, Value: float64(1)}, ctx)
	require.NoError(t, err)
	assert.True(t, got, "a missing field differs from any value")

	for _, op := range []domain.Operator{domain.OpEqual, domain.OpLess, domain.OpLessOrEqual, domain.OpGreater, domain.OpGreaterOrEqual} {
		got, err := evaluateCondition(domain.Condition{Field: "age", Operator: op, Value: float64(1)}, ctx)
		require.NoError(t, err)
		assert.False(t, got, "operator %s on missing field", op)
	}
}

func TestEvaluateCondition_UnsupportedOperator(t *testing.T) {
	_, err := evaluateCondition(domain.Condition{Field: "age", Operator: "~=", Value: float64(1)}, map[string]any{"age": float64(1)})
	assert.Error(t, err)

	_, err = evaluateCondition(domain.Condition{Field: "age", Operator: "~=", Value: "x"}, map[string]any{})
	assert.Error(t, err)
}
