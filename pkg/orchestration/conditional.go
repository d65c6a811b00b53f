package orchestration

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/modelflow/modelflow/pkg/contextaccess"
)

// ConditionEvaluator interprets the predicate expressions attached to
// conditional-mode action nodes.
type ConditionEvaluator interface {
	Evaluate(expression string, data map[string]contextaccess.Value) (bool, error)
}

// SimpleConditionEvaluator supports a deliberately small expression language:
//
//	""                  -> true
//	"true" / "false"    -> literal
//	"<key>"             -> truthiness of the context value under key
//	"<key> == <lit>"    -> equality against a quoted string, number or bool
//	"<key> != <lit>"    -> negated equality
//
// Anything else is an evaluation error; the engine decides the fallback.
type SimpleConditionEvaluator struct{}

func (SimpleConditionEvaluator) Evaluate(expression string, data map[string]contextaccess.Value) (bool, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return true, nil
	}

	if literal, err := strconv.ParseBool(expression); err == nil {
		return literal, nil
	}

	if key, literal, found := strings.Cut(expression, "=="); found {
		equal, err := compare(strings.TrimSpace(key), strings.TrimSpace(literal), data)

		return equal, err
	}

	if key, literal, found := strings.Cut(expression, "!="); found {
		equal, err := compare(strings.TrimSpace(key), strings.TrimSpace(literal), data)
		if err != nil {
			return false, err
		}

		return !equal, nil
	}

	value, ok := data[expression]
	if !ok {
		return false, fmt.Errorf("unknown context key %q", expression)
	}

	return truthy(value), nil
}

func compare(key, literal string, data map[string]contextaccess.Value) (bool, error) {
	value, ok := data[key]
	if !ok {
		return false, fmt.Errorf("unknown context key %q", key)
	}

	if unquoted, isString := cutQuotes(literal); isString {
		return value.Kind == contextaccess.KindString && value.Str == unquoted, nil
	}

	if parsed, err := strconv.ParseBool(literal); err == nil {
		return value.Kind == contextaccess.KindBool && value.Bool == parsed, nil
	}

	if parsed, err := strconv.ParseFloat(literal, 64); err == nil {
		return value.Kind == contextaccess.KindNumber && value.Num == parsed, nil
	}

	return false, fmt.Errorf("unsupported literal %q", literal)
}

func cutQuotes(literal string) (string, bool) {
	if len(literal) >= 2 {
		first, last := literal[0], literal[len(literal)-1]
		if (first == '\'' && last == '\'') || (first == '"' && last == '"') {
			return literal[1 : len(literal)-1], true
		}
	}

	return literal, false
}

func truthy(value contextaccess.Value) bool {
	switch value.Kind {
	case contextaccess.KindBool:
		return value.Bool
	case contextaccess.KindNumber:
		return value.Num != 0
	case contextaccess.KindString:
		return value.Str != ""
	case contextaccess.KindMap:
		return len(value.Map) > 0
	default:
		return false
	}
}
