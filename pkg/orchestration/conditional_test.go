package orchestration_test

import (
	"testing"

	"github.com/modelflow/modelflow/pkg/contextaccess"
	"github.com/modelflow/modelflow/pkg/orchestration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleConditionEvaluator(t *testing.T) {
	t.Parallel()

	data := map[string]contextaccess.Value{
		"enabled":  contextaccess.Bool(true),
		"disabled": contextaccess.Bool(false),
		"count":    contextaccess.Number(3),
		"zero":     contextaccess.Number(0),
		"name":     contextaccess.String("alpha"),
		"empty":    contextaccess.String(""),
	}

	tests := []struct {
		name       string
		expression string
		want       bool
	}{
		{name: "empty expression", expression: "", want: true},
		{name: "whitespace only", expression: "   ", want: true},
		{name: "true literal", expression: "true", want: true},
		{name: "false literal", expression: "false", want: false},
		{name: "bool key truthy", expression: "enabled", want: true},
		{name: "bool key falsy", expression: "disabled", want: false},
		{name: "number key truthy", expression: "count", want: true},
		{name: "number key zero", expression: "zero", want: false},
		{name: "string key truthy", expression: "name", want: true},
		{name: "string key empty", expression: "empty", want: false},
		{name: "bool equality", expression: "enabled == true", want: true},
		{name: "bool inequality", expression: "enabled != true", want: false},
		{name: "number equality", expression: "count == 3", want: true},
		{name: "number inequality", expression: "count != 5", want: true},
		{name: "string equality single quotes", expression: "name == 'alpha'", want: true},
		{name: "string equality double quotes", expression: `name == "alpha"`, want: true},
		{name: "string mismatch", expression: "name == 'beta'", want: false},
		{name: "cross type never equal", expression: "count == 'alpha'", want: false},
	}

	evaluator := orchestration.SimpleConditionEvaluator{}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := evaluator.Evaluate(tt.expression, data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSimpleConditionEvaluatorErrors(t *testing.T) {
	t.Parallel()

	evaluator := orchestration.SimpleConditionEvaluator{}

	tests := []struct {
		name       string
		expression string
	}{
		{name: "unknown bare key", expression: "missing"},
		{name: "unknown key in comparison", expression: "missing == 1"},
		{name: "unsupported literal", expression: "name == alpha"},
	}

	data := map[string]contextaccess.Value{
		"name": contextaccess.String("alpha"),
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := evaluator.Evaluate(tt.expression, data)
			require.Error(t, err)
		})
	}
}
