package store

import (
	"testing"

	"flowcrm/models"
)

func TestEvaluateConditions(t *testing.T) {
	cases := []struct {
		name       string
		conditions []models.WorkflowCondition
		payload    map[string]string
		want       bool
	}{
		{
			name: "no conditions always matches",
			want: true,
		},
		{
			name: "equals match",
			conditions: []models.WorkflowCondition{
				{Field: "source", Operator: models.OpEquals, Value: "website"},
			},
			payload: map[string]string{"source": "website"},
			want:    true,
		},
		{
			name: "equals mismatch",
			conditions: []models.WorkflowCondition{
				{Field: "source", Operator: models.OpEquals, Value: "website"},
			},
			payload: map[string]string{"source": "referral"},
			want:    false,
		},
		{
			name: "not_equals",
			conditions: []models.WorkflowCondition{
				{Field: "status", Operator: models.OpNotEquals, Value: "lost"},
			},
			payload: map[string]string{"status": "new"},
			want:    true,
		},
		{
			name: "contains is case insensitive",
			conditions: []models.WorkflowCondition{
				{Field: "name", Operator: models.OpContains, Value: "corp"},
			},
			payload: map[string]string{"name": "Acme CORP"},
			want:    true,
		},
		{
			name: "greater_than numeric",
			conditions: []models.WorkflowCondition{
				{Field: "value", Operator: models.OpGreaterThan, Value: 1000},
			},
			payload: map[string]string{"value": "2500"},
			want:    true,
		},
		{
			name: "greater_than non-numeric payload fails closed",
			conditions: []models.WorkflowCondition{
				{Field: "value", Operator: models.OpGreaterThan, Value: 1000},
			},
			payload: map[string]string{"value": "lots"},
			want:    false,
		},
		{
			name: "less_than boundary is exclusive",
			conditions: []models.WorkflowCondition{
				{Field: "value", Operator: models.OpLessThan, Value: "100"},
			},
			payload: map[string]string{"value": "100"},
			want:    false,
		},
		{
			name: "is_empty on absent field",
			conditions: []models.WorkflowCondition{
				{Field: "email", Operator: models.OpIsEmpty},
			},
			payload: map[string]string{},
			want:    true,
		},
		{
			name: "is_not_empty on absent field",
			conditions: []models.WorkflowCondition{
				{Field: "email", Operator: models.OpIsNotEmpty},
			},
			payload: map[string]string{},
			want:    false,
		},
		{
			name: "all conditions must hold",
			conditions: []models.WorkflowCondition{
				{Field: "source", Operator: models.OpEquals, Value: "website"},
				{Field: "value", Operator: models.OpGreaterThan, Value: 500},
			},
			payload: map[string]string{"source": "website", "value": "100"},
			want:    false,
		},
		{
			name: "unknown operator fails closed",
			conditions: []models.WorkflowCondition{
				{Field: "source", Operator: "matches", Value: "web.*"},
			},
			payload: map[string]string{"source": "website"},
			want:    false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EvaluateConditions(tc.conditions, tc.payload); got != tc.want {
				t.Errorf("EvaluateConditions = %v, want %v", got, tc.want)
			}
		})
	}
}
