package domain

import (
	"maps"
	"slices"
)

// Snapshot is the result of one successful provider fetch: port name to
// value. Values are float64, string or bool. The set of ports is whatever
// the provider returned.
type Snapshot map[string]any

// Port returns the value of a single port.
func (s Snapshot) Port(name string) (any, bool) {
	v, ok := s[name]
	return v, ok
}

// Empty reports whether the snapshot carries no ports.
func (s Snapshot) Empty() bool { return len(s) == 0 }

// Clone returns a shallow copy. Values are scalars, so shallow is enough.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	return maps.Clone(s)
}

// Ports returns the port names in sorted order.
func (s Snapshot) Ports() []string {
	return slices.Sorted(maps.Keys(s))
}
