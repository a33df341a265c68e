package license

import (
	"os"
	"path/filepath"
	"testing"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	return NewManagerAt(filepath.Join(t.TempDir(), "license.json"))
}

func TestValidKeyFormat(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"valid uppercase", "ABCD-1234-EF56-7890", true},
		{"lowercase normalized", "abcd-1234-ef56-7890", true},
		{"surrounding whitespace", "  ABCD-1234-EF56-7890  ", true},
		{"too few groups", "ABCD-1234-EF56", false},
		{"group too short", "ABC-1234-EF56-7890", false},
		{"group too long", "ABCDE-1234-EF56-7890", false},
		{"punctuation in group", "AB!D-1234-EF56-7890", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidKeyFormat(tt.key); got != tt.want {
				t.Errorf("ValidKeyFormat(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestActivateAndCurrent(t *testing.T) {
	m := testManager(t)

	lic, err := m.Activate("abcd-1234-ef56-7890", "dev@example.com", TierPro)
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if lic.Key != "ABCD-1234-EF56-7890" {
		t.Errorf("key not normalized: %q", lic.Key)
	}

	got := m.Current()
	if got.Tier != TierPro {
		t.Errorf("tier = %q, want pro", got.Tier)
	}
	if !got.Valid {
		t.Error("loaded license should be valid")
	}
}

func TestActivate_BadKey(t *testing.T) {
	m := testManager(t)
	if _, err := m.Activate("not-a-key", "dev@example.com", TierPro); err == nil {
		t.Error("expected error for malformed key")
	}
}

func TestCurrent_MissingFileDefaultsToCommunity(t *testing.T) {
	m := testManager(t)
	lic := m.Current()
	if lic.Tier != TierCommunity {
		t.Errorf("tier = %q, want community", lic.Tier)
	}
}

func TestCurrent_GarbageFileDefaultsToCommunity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "license.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	m := NewManagerAt(path)
	if got := m.Current().Tier; got != TierCommunity {
		t.Errorf("tier = %q, want community", got)
	}
}

func TestCurrent_OtherMachineDefaultsToCommunity(t *testing.T) {
	m := testManager(t)
	if _, err := m.Activate("ABCD-1234-EF56-7890", "dev@example.com", TierEnterprise); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	m.machineID = "somebody-else"
	if got := m.Current().Tier; got != TierCommunity {
		t.Errorf("tier = %q, want community for foreign machine", got)
	}
}

func TestHasCapability(t *testing.T) {
	m := testManager(t)

	// Community: spawning allowed, dual layer gated.
	if !m.HasCapability(CapTeamSpawning) {
		t.Error("community tier should allow team spawning")
	}
	if m.HasCapability(CapDualLayer) {
		t.Error("community tier should not allow dual layer")
	}

	if _, err := m.Activate("ABCD-1234-EF56-7890", "dev@example.com", TierPro); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if !m.HasCapability(CapDualLayer) {
		t.Error("pro tier should allow dual layer")
	}
	if m.HasCapability("nonexistent") {
		t.Error("unknown capability should be denied")
	}
}

func TestDeactivate(t *testing.T) {
	m := testManager(t)
	if _, err := m.Activate("ABCD-1234-EF56-7890", "dev@example.com", TierPro); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if err := m.Deactivate(); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if got := m.Current().Tier; got != TierCommunity {
		t.Errorf("tier after deactivate = %q, want community", got)
	}
	// Second deactivate is a no-op.
	if err := m.Deactivate(); err != nil {
		t.Errorf("repeat Deactivate: %v", err)
	}
}
