// Package history keeps a linear, branch-discarding undo/redo log of
// element collection snapshots.
package history

import (
	"log"

	"CanvasBoard/internal/element"
)

// Log is an ordered sequence of snapshots plus a cursor at the active
// one. Pushing a new snapshot discards anything past the cursor (the
// redo branch), then appends. Undo and redo only move the cursor; they
// never mutate stored snapshots. Every snapshot is a deep copy, so
// mutating the live collection between pushes cannot corrupt history.
type Log struct {
	snapshots [][]element.Element
	index     int
}

// New returns a log seeded with a single snapshot of initial.
func New(initial []element.Element) *Log {
	l := &Log{}
	l.Reset(initial)
	return l
}

// Reset replaces the whole log with a single snapshot. Used when a
// canvas is loaded or the canvas identity changes.
func (l *Log) Reset(initial []element.Element) {
	l.snapshots = [][]element.Element{element.CloneAll(initial)}
	l.index = 0
}

// Push truncates the log to the cursor, appends a deep copy of els and
// advances the cursor to it. Always succeeds.
func (l *Log) Push(els []element.Element) {
	l.snapshots = append(l.snapshots[:l.index+1], element.CloneAll(els))
	l.index = len(l.snapshots) - 1
}

// Undo moves the cursor back one snapshot and materializes it as a new
// live collection. At index 0 it is a no-op and returns ok=false.
func (l *Log) Undo() ([]element.Element, bool) {
	if l.index <= 0 {
		return nil, false
	}
	l.index--
	return l.materialize(false), true
}

// Redo mirrors Undo at the forward boundary.
func (l *Log) Redo() ([]element.Element, bool) {
	if l.index >= len(l.snapshots)-1 {
		return nil, false
	}
	l.index++
	return l.materialize(true), true
}

// Current returns a deep copy of the active snapshot.
func (l *Log) Current() []element.Element {
	return l.materialize(true)
}

// Index returns the cursor position.
func (l *Log) Index() int { return l.index }

// Len returns the number of stored snapshots.
func (l *Log) Len() int { return len(l.snapshots) }

// materialize deep-copies the snapshot under the cursor, dropping any
// element without a recognized type. A missing snapshot is repaired by
// moving the cursor to the nearest valid one: the oldest when walking
// backward, the newest when walking forward. Recovery never panics;
// worst case is an empty collection at index 0.
func (l *Log) materialize(forward bool) []element.Element {
	if l.snapshots[l.index] == nil {
		l.repair(forward)
	}
	return element.FilterValid(l.snapshots[l.index])
}

func (l *Log) repair(forward bool) {
	log.Printf("[history] snapshot %d is malformed, repairing", l.index)
	if forward {
		for i := len(l.snapshots) - 1; i >= 0; i-- {
			if l.snapshots[i] != nil {
				l.index = i
				return
			}
		}
	} else {
		for i := 0; i < len(l.snapshots); i++ {
			if l.snapshots[i] != nil {
				l.index = i
				return
			}
		}
	}
	// No valid snapshot at all. Settle on an empty one at the origin.
	l.snapshots[0] = []element.Element{}
	l.index = 0
}
