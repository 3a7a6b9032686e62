package registry

import (
	"fmt"
	"strings"

	"github.com/camino-run/camino/pkg/domain"
)

// evaluateCondition compares one context field against the condition value.
//
// Comparison policy: when both operands are numeric they compare
// numerically; otherwise both are rendered with fmt.Sprint and compared
// byte-wise ("=", "!=") or lexicographically (orderings). A missing context
// field satisfies "!=" only.
func evaluateCondition(cond domain.Condition, runContext map[string]any) (bool, error) {
	actual, ok := runContext[cond.Field]
	if !ok {
		if cond.Operator == domain.OpNotEqual {
			return true, nil
		}
		if err := checkOperator(cond.Operator); err != nil {
			return false, err
		}
		return false, nil
	}

	if a, aok := toFloat(actual); aok {
		if b, bok := toFloat(cond.Value); bok {
			return compareFloats(cond.Operator, a, b)
		}
	}
	return compareStrings(cond.Operator, fmt.Sprint(actual), fmt.Sprint(cond.Value))
}

func checkOperator(op domain.Operator) error {
	switch op {
	case domain.OpEqual, domain.OpNotEqual, domain.OpLess, domain.OpLessOrEqual,
		domain.OpGreater, domain.OpGreaterOrEqual:
		return nil
	}
	return fmt.Errorf("unsupported operator %q", op)
}

func compareFloats(op domain.Operator, a, b float64) (bool, error) {
	switch op {
	case domain.OpEqual:
		return a == b, nil
	case domain.OpNotEqual:
		return a != b, nil
	case domain.OpLess:
		return a < b, nil
	case domain.OpLessOrEqual:
		return a <= b, nil
	case domain.OpGreater:
		return a > b, nil
	case domain.OpGreaterOrEqual:
		return a >= b, nil
	}
	return false, fmt.Errorf("unsupported operator %q", op)
}

func compareStrings(op domain.Operator, a, b string) (bool, error) {
	c := strings.Compare(a, b)
	switch op {
	case domain.OpEqual:
		return c == 0, nil
	case domain.OpNotEqual:
		return c != 0, nil
	case domain.OpLess:
		return c < 0, nil
	case domain.OpLessOrEqual:
		return c <= 0, nil
	case domain.OpGreater:
		return c > 0, nil
	case domain.OpGreaterOrEqual:
		return c >= 0, nil
	}
	return false, fmt.Errorf("unsupported operator %q", op)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	}
	return 0, false
}
