package model

import (
	"sort"
	"strings"
)

// Members is a unique set of users keyed by id. Insertion order is kept so
// persistence and comparisons stay deterministic.
type Members struct {
	refs []UserRef
}

// NewMembers builds a set from refs, dropping duplicates.
func NewMembers(refs ...UserRef) Members {
	var m Members
	for _, r := range refs {
		m.Add(r)
	}
	return m
}

// Add inserts ref and reports whether the set changed. Re-adding is a no-op.
func (m *Members) Add(ref UserRef) bool {
	if m.Contains(ref.ID) {
		return false
	}
	m.refs = append(m.refs, ref)
	return true
}

// Contains reports whether the user with id is a member.
func (m Members) Contains(id uint64) bool {
	for _, r := range m.refs {
		if r.ID == id {
			return true
		}
	}
	return false
}

func (m Members) Len() int { return len(m.refs) }

// Refs returns a copy of the members in insertion order.
func (m Members) Refs() []UserRef {
	out := make([]UserRef, len(m.refs))
	copy(out, m.refs)
	return out
}

// Usernames returns member usernames sorted case-insensitively.
func (m Members) Usernames() []string {
	out := make([]string, 0, len(m.refs))
	for _, r := range m.refs {
		out = append(out, r.Username)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}

// Clone returns an independent copy.
func (m Members) Clone() Members {
	return Members{refs: m.Refs()}
}
