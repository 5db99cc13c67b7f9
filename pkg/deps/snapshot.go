package deps

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Snapshot maps dependency names to the versions pinned at one commit.
// Dependencies that were not found are absent, never empty.
type Snapshot map[string]string

// Equal reports whether s and other hold exactly the same pins.
func (s Snapshot) Equal(other Snapshot) bool {
	return maps.Equal(s, other)
}

// Sorted returns the dependency names in lexical order.
func (s Snapshot) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// Change describes how one dependency moved between two snapshots.
type Change struct {
	Name string
	Old  string // empty when added
	New  string // empty when removed
}

func (c Change) String() string {
	switch {
	case c.Old == "":
		return fmt.Sprintf("+%s==%s", c.Name, c.New)
	case c.New == "":
		return fmt.Sprintf("-%s==%s", c.Name, c.Old)
	default:
		return fmt.Sprintf("%s %s -> %s", c.Name, c.Old, c.New)
	}
}

// Diff lists the changes from s to next, ordered by name.
func (s Snapshot) Diff(next Snapshot) []Change {
	names := make(map[string]struct{}, len(s)+len(next))
	for n := range s {
		names[n] = struct{}{}
	}
	for n := range next {
		names[n] = struct{}{}
	}
	var changes []Change
	for _, n := range slices.Sorted(maps.Keys(names)) {
		if s[n] != next[n] {
			changes = append(changes, Change{Name: n, Old: s[n], New: next[n]})
		}
	}
	return changes
}

// InOrder returns the pinned names following t's declaration order, then any
// names t does not know, sorted.
func (s Snapshot) InOrder(t *Table) []string {
	out := make([]string, 0, len(s))
	seen := make(map[string]bool, len(s))
	for _, n := range t.Names() {
		if _, ok := s[n]; ok {
			out = append(out, n)
			seen[n] = true
		}
	}
	for _, n := range s.Sorted() {
		if !seen[n] {
			out = append(out, n)
		}
	}
	return out
}

func (s Snapshot) String() string {
	if len(s) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(s))
	for _, n := range s.Sorted() {
		parts = append(parts, n+"=="+s[n])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
