package models

import "testing"

func TestRoles_FixedSet(t *testing.T) {
	roles := Roles()
	want := []RoleName{RoleExecutor, RoleReviewer, RoleArbitrator}
	if len(roles) != len(want) {
		t.Fatalf("Roles() returned %d roles, want %d", len(roles), len(want))
	}
	for i, r := range want {
		if roles[i] != r {
			t.Errorf("Roles()[%d] = %q, want %q", i, roles[i], r)
		}
	}
}

func TestRoleNameValid(t *testing.T) {
	for _, r := range Roles() {
		if !r.Valid() {
			t.Errorf("%q should be valid", r)
		}
	}
	if RoleName("manager").Valid() {
		t.Error("unknown role should be invalid")
	}
}

func TestAgentStatusValid(t *testing.T) {
	valid := []AgentStatus{
		StatusIdle, StatusActive, StatusCoding, StatusResting,
		StatusSubstituting, StatusMonitoring, StatusStandby, StatusNeedsHelp,
	}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if AgentStatus("sleeping").Valid() {
		t.Error("unknown status should be invalid")
	}
}

func TestIdleState(t *testing.T) {
	s := IdleState("executor")
	if s.AgentID != "executor" {
		t.Errorf("AgentID = %q, want %q", s.AgentID, "executor")
	}
	if s.Status != StatusIdle {
		t.Errorf("Status = %q, want %q", s.Status, StatusIdle)
	}
	if s.CurrentTask != "" {
		t.Errorf("CurrentTask = %q, want empty", s.CurrentTask)
	}
}
