// Package license provides offline entitlement checks for gated
// features. A license is a small JSON file in the user's config
// directory; a missing or invalid file degrades to the community tier
// rather than failing.
package license

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Tier identifies a license level.
type Tier string

const (
	TierCommunity  Tier = "community"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// Capability names used by the rest of the system.
const (
	CapTeamSpawning = "team-spawning"
	CapDualLayer    = "dual-layer"
)

// tierCapabilities maps each tier to the capabilities it grants.
// Higher tiers are supersets of lower ones.
var tierCapabilities = map[Tier][]string{
	TierCommunity:  {CapTeamSpawning},
	TierPro:        {CapTeamSpawning, CapDualLayer},
	TierEnterprise: {CapTeamSpawning, CapDualLayer},
}

// License is the on-disk license record.
type License struct {
	Key         string    `json:"license_key"`
	Email       string    `json:"email"`
	Tier        Tier      `json:"tier"`
	MachineID   string    `json:"machine_id"`
	ActivatedAt time.Time `json:"activated_at"`
	Valid       bool      `json:"valid"`
}

// Manager loads and checks the license file for one installation.
type Manager struct {
	path      string
	machineID string
}

// NewManager returns a manager using the default license path under
// the user config directory.
func NewManager() (*Manager, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("locate config dir: %w", err)
	}
	return NewManagerAt(filepath.Join(dir, "triad", "license.json")), nil
}

// NewManagerAt returns a manager reading the license from path.
func NewManagerAt(path string) *Manager {
	return &Manager{path: path, machineID: machineID()}
}

// machineID derives a stable identifier for hardware locking.
func machineID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	sum := sha256.Sum256([]byte(host))
	return hex.EncodeToString(sum[:])[:16]
}

// ValidKeyFormat reports whether key matches the XXXX-XXXX-XXXX-XXXX
// layout of issued license keys.
func ValidKeyFormat(key string) bool {
	parts := strings.Split(strings.ToUpper(strings.TrimSpace(key)), "-")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if len(p) != 4 {
			return false
		}
		for _, r := range p {
			if !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
				return false
			}
		}
	}
	return true
}

// Activate validates the key format offline and writes the license
// file. The tier is taken at face value; there is no online check.
func (m *Manager) Activate(key, email string, tier Tier) (*License, error) {
	key = strings.ToUpper(strings.TrimSpace(key))
	if !ValidKeyFormat(key) {
		return nil, fmt.Errorf("invalid license key format: %q", key)
	}
	if _, ok := tierCapabilities[tier]; !ok {
		return nil, fmt.Errorf("unknown tier %q", tier)
	}

	lic := &License{
		Key:         key,
		Email:       email,
		Tier:        tier,
		MachineID:   m.machineID,
		ActivatedAt: time.Now().UTC(),
		Valid:       true,
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return nil, fmt.Errorf("create license dir: %w", err)
	}
	data, err := json.MarshalIndent(lic, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal license: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o600); err != nil {
		return nil, fmt.Errorf("write license file: %w", err)
	}
	return lic, nil
}

// Current returns the active license, or a community-tier default when
// no valid license file exists. Unreadable or mismatched files degrade
// to community rather than erroring.
func (m *Manager) Current() *License {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return communityLicense()
	}
	var lic License
	if err := json.Unmarshal(data, &lic); err != nil {
		return communityLicense()
	}
	if !lic.Valid {
		return communityLicense()
	}
	// Hardware lock: a license copied to another machine is ignored.
	if lic.MachineID != "" && lic.MachineID != m.machineID {
		return communityLicense()
	}
	if _, ok := tierCapabilities[lic.Tier]; !ok {
		return communityLicense()
	}
	return &lic
}

// Deactivate removes the license file. Missing file is not an error.
func (m *Manager) Deactivate() error {
	err := os.Remove(m.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove license file: %w", err)
	}
	return nil
}

// HasCapability reports whether the current license grants name.
func (m *Manager) HasCapability(name string) bool {
	for _, c := range tierCapabilities[m.Current().Tier] {
		if c == name {
			return true
		}
	}
	return false
}

func communityLicense() *License {
	return &License{Tier: TierCommunity, Valid: false}
}

// Checker is the entitlement surface consumed by feature gates.
type Checker interface {
	HasCapability(name string) bool
}

// AllowAll grants every capability. Used where gating is not wanted,
// such as tests and local development.
type AllowAll struct{}

func (AllowAll) HasCapability(string) bool { return true }
