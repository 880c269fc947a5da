// Package timer implements the periodic/one-shot timer table (component
// C4 of the dispatcher): timer slots, tick accounting against a single
// external monotonic tick, and minimum-deadline computation.
//
// Table is not safe for concurrent use: callers must serialize access.
package timer

import (
	"math"
	"strings"

	"github.com/easyvolts/pubsub-actors/pstype"
)

// Prefix namespaces for timer topics, per spec.md §4.5.
const (
	TickPrefix = ".srv.t_ms.tick"
	ToutPrefix = ".srv.t_ms.tout"
)

// ClassifyPrefix reports whether path names a periodic or single-shot
// timer topic. ok is false if path matches neither reserved prefix.
func ClassifyPrefix(path string) (periodic bool, ok bool) {
	switch {
	case strings.HasPrefix(path, TickPrefix):
		return true, true
	case strings.HasPrefix(path, ToutPrefix):
		return false, true
	default:
		return false, false
	}
}

type slot struct {
	hash       pstype.TopicHash
	creator    pstype.ActorRef
	durationMs int32
	timeLeftMs int32
	periodic   bool
}

func (s *slot) free() bool { return s.durationMs == 0 }

// Table is the fixed-capacity timer table.
type Table struct {
	slots []slot
}

// New allocates a Table with the given fixed capacity.
func New(maxTimers int) *Table {
	return &Table{slots: make([]slot, maxTimers)}
}

// Add inserts a new timer into the first free slot. durationMs must be
// > 0 (a zero duration marks a slot free, per I6).
func (t *Table) Add(hash pstype.TopicHash, creator pstype.ActorRef, durationMs int32, periodic bool) pstype.Result {
	if durationMs <= 0 {
		return pstype.ErrorResult
	}
	for i := range t.slots {
		if t.slots[i].free() {
			t.slots[i] = slot{
				hash:       hash,
				creator:    creator,
				durationMs: durationMs,
				timeLeftMs: durationMs,
				periodic:   periodic,
			}
			return pstype.Ok
		}
	}
	return pstype.OutOfMemory
}

// Expiry names a timer that elapsed during a tick, and the (hash,
// creator) pair the dispatcher should synthesize a publication for.
type Expiry struct {
	Hash    pstype.TopicHash
	Creator pstype.ActorRef
}

// OnTick advances every occupied timer by elapsed milliseconds. Expired
// timers are returned in slot order; periodic timers reload
// timeLeftMs <- durationMs, one-shot timers free their slot. shortest is
// the minimum timeLeftMs across all timers still active after
// processing, or math.MaxInt32 if none remain; anyActive reports
// whether any timer remains occupied.
func (t *Table) OnTick(elapsed int32) (expired []Expiry, shortest int32, anyActive bool) {
	shortest = math.MaxInt32
	for i := range t.slots {
		s := &t.slots[i]
		if s.free() {
			continue
		}
		s.timeLeftMs -= elapsed
		if s.timeLeftMs <= 0 {
			expired = append(expired, Expiry{Hash: s.hash, Creator: s.creator})
			if s.periodic {
				s.timeLeftMs = s.durationMs
			} else {
				*s = slot{}
				continue
			}
		}
		anyActive = true
		if s.timeLeftMs > 0 && s.timeLeftMs < shortest {
			shortest = s.timeLeftMs
		}
	}
	return expired, shortest, anyActive
}

// MaxTimers returns the fixed timer table capacity.
func (t *Table) MaxTimers() int { return len(t.slots) }
