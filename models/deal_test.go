package models

import (
	"testing"
	"time"
)

func TestComputeWeightedValue(t *testing.T) {
	cases := []struct {
		value       float64
		probability int
		want        float64
	}{
		{10000, 50, 5000},
		{10000, 0, 0},
		{10000, 100, 10000},
		{0, 75, 0},
	}

	for _, tc := range cases {
		d := Deal{Value: tc.value, Probability: tc.probability}
		if got := d.ComputeWeightedValue(); got != tc.want {
			t.Errorf("ComputeWeightedValue(value=%v, p=%d) = %v, want %v", tc.value, tc.probability, got, tc.want)
		}
	}
}

func TestIsClosedStage(t *testing.T) {
	closed := []string{DealStageClosedWon, DealStageClosedLost}
	open := []string{DealStageProspecting, DealStageQualification, DealStageProposal, DealStageNegotiation}

	for _, stage := range closed {
		if !IsClosedStage(stage) {
			t.Errorf("IsClosedStage(%q) = false, want true", stage)
		}
	}
	for _, stage := range open {
		if IsClosedStage(stage) {
			t.Errorf("IsClosedStage(%q) = true, want false", stage)
		}
	}
}

func TestApplyStageTransition(t *testing.T) {
	d := Deal{Stage: DealStageClosedWon}
	d.ApplyStageTransition()
	if d.ActualCloseDate == nil {
		t.Fatal("closing a deal must stamp the actual close date")
	}
	stamped := *d.ActualCloseDate

	// Re-applying must not move an existing close date.
	d.ApplyStageTransition()
	if !d.ActualCloseDate.Equal(stamped) {
		t.Error("re-applying the transition moved the close date")
	}

	// Reopening clears it.
	d.Stage = DealStageNegotiation
	d.ApplyStageTransition()
	if d.ActualCloseDate != nil {
		t.Error("reopening a deal must clear the actual close date")
	}
}

func TestTaskIsOverdue(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	cases := []struct {
		name string
		task Task
		want bool
	}{
		{"pending past due", Task{Status: TaskStatusPending, DueDate: &past}, true},
		{"in-progress past due", Task{Status: TaskStatusInProgress, DueDate: &past}, true},
		{"pending not yet due", Task{Status: TaskStatusPending, DueDate: &future}, false},
		{"no due date", Task{Status: TaskStatusPending}, false},
		{"completed past due", Task{Status: TaskStatusCompleted, DueDate: &past}, false},
		{"cancelled past due", Task{Status: TaskStatusCancelled, DueDate: &past}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.task.IsOverdue(); got != tc.want {
				t.Errorf("IsOverdue = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestUserPasswordRoundTrip(t *testing.T) {
	var u User
	if err := u.SetPassword("correct horse battery staple"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if u.PasswordHash == "correct horse battery staple" {
		t.Fatal("password stored in plaintext")
	}
	if !u.ComparePassword("correct horse battery staple") {
		t.Error("correct password rejected")
	}
	if u.ComparePassword("wrong") {
		t.Error("wrong password accepted")
	}
}

func TestUserHasPermission(t *testing.T) {
	admin := User{Permissions: []string{PermissionAll}}
	if !admin.HasPermission("leads:delete") {
		t.Error("wildcard must satisfy any permission")
	}

	staff := User{Permissions: []string{"leads:read", "contacts:read"}}
	if !staff.HasPermission("leads:read") {
		t.Error("granted permission denied")
	}
	if staff.HasPermission("leads:delete") {
		t.Error("ungranted permission allowed")
	}

	var none User
	if none.HasPermission("leads:read") {
		t.Error("user with no permissions allowed")
	}
}
