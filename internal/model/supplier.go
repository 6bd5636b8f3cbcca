package model

import (
	"sort"
	"strings"
)

// SupplierProfile is the procurement reference data for one supplier
type SupplierProfile struct {
	Name         string `yaml:"name" validate:"required"`
	SupplierID   string `yaml:"id" validate:"required"`
	LeadTimeDays int    `yaml:"lead_time_days" validate:"gt=0"`
}

// SupplierTable maps normalized supplier names to their profiles. It is
// built once at startup and never mutated afterwards.
type SupplierTable struct {
	Version  string
	profiles map[string]SupplierProfile
}

// NormalizeSupplierName trims and upper-cases a supplier name for lookups
func NormalizeSupplierName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// NewSupplierTable indexes profiles by normalized name. Later duplicates win;
// callers that care about duplicates validate before calling.
func NewSupplierTable(version string, profiles []SupplierProfile) SupplierTable {
	t := SupplierTable{Version: version, profiles: make(map[string]SupplierProfile, len(profiles))}
	for _, p := range profiles {
		t.profiles[NormalizeSupplierName(p.Name)] = p
	}
	return t
}

// Lookup resolves a raw supplier name to its profile
func (t SupplierTable) Lookup(name string) (SupplierProfile, bool) {
	p, ok := t.profiles[NormalizeSupplierName(name)]
	return p, ok
}

// Len returns the number of known suppliers
func (t SupplierTable) Len() int {
	return len(t.profiles)
}

// Names returns the normalized supplier names in sorted order
func (t SupplierTable) Names() []string {
	names := make([]string, 0, len(t.profiles))
	for n := range t.profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
