package controller

import (
	"testing"

	"flowcrm/models"
)

func TestValidateWorkflowDefinition(t *testing.T) {
	goodTrigger := models.WorkflowTrigger{
		Type: models.TriggerLeadCreated,
		Conditions: []models.WorkflowCondition{
			{Field: "source", Operator: models.OpEquals, Value: "website"},
		},
	}
	goodActions := []models.WorkflowAction{
		{Type: models.ActionCreateTask, Config: map[string]string{"title": "Follow up"}, Delay: 60},
	}

	if errs := validateWorkflowDefinition(goodTrigger, goodActions); errs != nil {
		t.Errorf("valid definition rejected: %+v", errs)
	}

	badTrigger := models.WorkflowTrigger{Type: "lead_deleted"}
	if errs := validateWorkflowDefinition(badTrigger, goodActions); len(errs) == 0 {
		t.Error("unknown trigger type accepted")
	}

	badOperator := models.WorkflowTrigger{
		Type:       models.TriggerLeadCreated,
		Conditions: []models.WorkflowCondition{{Field: "source", Operator: "regex"}},
	}
	if errs := validateWorkflowDefinition(badOperator, goodActions); len(errs) == 0 {
		t.Error("unknown operator accepted")
	}

	badAction := []models.WorkflowAction{{Type: "launch_rocket"}}
	if errs := validateWorkflowDefinition(goodTrigger, badAction); len(errs) == 0 {
		t.Error("unknown action type accepted")
	}

	negativeDelay := []models.WorkflowAction{{Type: models.ActionSendEmail, Delay: -5}}
	if errs := validateWorkflowDefinition(goodTrigger, negativeDelay); len(errs) == 0 {
		t.Error("negative delay accepted")
	}
}

func TestGrowthPercent(t *testing.T) {
	cases := []struct {
		current, previous int64
		want              float64
	}{
		{0, 0, 0},
		{5, 0, 100},
		{150, 100, 50},
		{50, 100, -50},
		{100, 100, 0},
	}

	for _, tc := range cases {
		if got := growthPercent(tc.current, tc.previous); got != tc.want {
			t.Errorf("growthPercent(%d, %d) = %v, want %v", tc.current, tc.previous, got, tc.want)
		}
	}
}

func TestIsValidSubdomain(t *testing.T) {
	valid := []string{"acme", "acme-corp", "a1b2c3", "team-42"}
	invalid := []string{"ab", "-acme", "acme-", "Acme", "acme_corp", "acme.corp", ""}

	for _, s := range valid {
		if !isValidSubdomain(s) {
			t.Errorf("isValidSubdomain(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if isValidSubdomain(s) {
			t.Errorf("isValidSubdomain(%q) = true, want false", s)
		}
	}
}
