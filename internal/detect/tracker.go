package detect

import (
	"sort"

	"github.com/dhavalsavalia/camlaunch/internal/device"
)

// PresenceSet is the set of camera keys believed attached.
type PresenceSet map[device.Key]struct{}

// NewPresenceSet builds a set from keys.
func NewPresenceSet(keys ...device.Key) PresenceSet {
	s := make(PresenceSet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s PresenceSet) Has(k device.Key) bool {
	_, ok := s[k]
	return ok
}

// Keys returns the members in sorted order.
func (s PresenceSet) Keys() []device.Key {
	keys := make([]device.Key, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Minus returns the members of s that are not in other.
func (s PresenceSet) Minus(other PresenceSet) PresenceSet {
	out := make(PresenceSet)
	for k := range s {
		if !other.Has(k) {
			out[k] = struct{}{}
		}
	}
	return out
}

// Diff classifies the current devices and compares the resulting camera set
// with previous. The returned next set replaces previous wholesale. previous
// is not modified.
func Diff(previous PresenceSet, current []device.Descriptor) (next, arrived, departed PresenceSet) {
	next = make(PresenceSet)
	for _, d := range current {
		if Classify(d) {
			next[d.Key()] = struct{}{}
		}
	}
	return next, next.Minus(previous), previous.Minus(next)
}
