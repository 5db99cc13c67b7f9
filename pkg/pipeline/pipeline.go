// Package pipeline runs the update cascade for the tracked upstream sources.
//
// One [Event] describes a tracked source whose commit-ish may have moved. The
// [Controller] drives it through an explicit state machine:
//
//	Resolve ──(same sha)──────────────────────────────▶ NoChange
//	   │
//	   ├──(primary source)──▶ Diff ──▶ Decide ──▶ Cascade ──▶ UpdatedNoVendorChange
//	   │                                              └─────▶ UpdatedWithVendorRebuild
//	   └──(other sources)──────────────────────▶ Cascade
//
// Any failure moves the run to Aborted and stops it. Each state is handled
// by one method, so terminal states and their side effects can be tested
// separately.
//
// The cascade performs its side effects in a fixed order: Dockerfile ARGs,
// then (primary source only, and only if the pinned native dependency
// versions changed) the vendor rebuild and upload, and finally the new ref in
// container.yaml. The ref is written last so an aborted run is retried in
// full on the next invocation.
package pipeline

import (
	"fmt"

	"github.com/quipucords/chaski/pkg/deps"
	"github.com/quipucords/chaski/pkg/vendoring"
)

// Tracked source names in container.yaml.
const (
	// SourceQuipucords is the primary source: its lockfiles drive vendoring.
	SourceQuipucords = "quipucords-server"

	// SourceQPC is the CLI source; it only has a Dockerfile ARG.
	SourceQPC = "qpc"
)

// State is a step of the cascade state machine.
type State int

const (
	StateResolve State = iota
	StateDiff
	StateDecide
	StateCascade

	// Terminal states.
	StateNoChange
	StateUpdatedNoVendorChange
	StateUpdatedWithVendorRebuild
	StateAborted
)

var stateNames = map[State]string{
	StateResolve:                  "resolve",
	StateDiff:                     "diff",
	StateDecide:                   "decide",
	StateCascade:                  "cascade",
	StateNoChange:                 "no-change",
	StateUpdatedNoVendorChange:    "updated-no-vendor-change",
	StateUpdatedWithVendorRebuild: "updated-with-vendor-rebuild",
	StateAborted:                  "aborted",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool { return s >= StateNoChange }

// Updated reports whether the run pinned a new ref.
func (s State) Updated() bool {
	return s == StateUpdatedNoVendorChange || s == StateUpdatedWithVendorRebuild
}

// Event asks the controller to bring one source up to date.
type Event struct {
	Source     string // name in container.yaml
	Repo       string // clone URL
	CurrentRef string // pinned commit SHA
	Committish string // what the source should track
}

// Primary reports whether e concerns the source whose lockfiles are vendored.
func (e Event) Primary() bool { return e.Source == SourceQuipucords }

// Outcome is the result of one run.
type Outcome struct {
	RunID   string
	Source  string
	OldRef  string
	NewRef  string
	State   State
	Old     deps.Snapshot // primary source only
	New     deps.Snapshot // primary source only
	Vendor  *vendoring.Result
	Changes []deps.Change
	Err     error
}

// Tarball returns the vendor tarball path, or "" when none was built.
func (o *Outcome) Tarball() string {
	if o.Vendor == nil {
		return ""
	}
	return o.Vendor.Tarball
}
