package models

import "testing"

func TestRoleValid(t *testing.T) {
	for _, role := range AllRoles {
		if !role.Valid() {
			t.Errorf("role %q should be valid", role)
		}
	}
	if Role("operator").Valid() {
		t.Error("unknown role should be invalid")
	}
	if Role("").Valid() {
		t.Error("empty role should be invalid")
	}
}

func TestPhaseValid(t *testing.T) {
	phases := []Phase{
		PhaseResearch, PhaseSpecification, PhaseDevelopment,
		PhaseQAPreparation, PhaseQualityAssurance, PhaseIntegration,
	}
	for _, p := range phases {
		if !p.Valid() {
			t.Errorf("phase %q should be valid", p)
		}
	}
	if Phase("deployment").Valid() {
		t.Error("unknown phase should be invalid")
	}
}

func TestExecutionStatusValid(t *testing.T) {
	for _, s := range []ExecutionStatus{ExecutionPending, ExecutionInProgress, ExecutionCompleted, ExecutionFailed} {
		if !s.Valid() {
			t.Errorf("status %q should be valid", s)
		}
	}
	if ExecutionStatus("paused").Valid() {
		t.Error("unknown status should be invalid")
	}
}

func TestHasFailures(t *testing.T) {
	clean := TestResults{Total: 4, Passed: 4, Coverage: 0.9}
	if clean.HasFailures() {
		t.Error("clean run should have no failures")
	}

	failing := TestResults{
		Total:  4,
		Passed: 3,
		Failed: []TestFailure{{Name: "TestCheckout", Message: "timeout"}},
	}
	if !failing.HasFailures() {
		t.Error("run with a failed test should report failures")
	}
}
