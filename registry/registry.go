// Package registry implements the fixed-capacity topic table (component
// C2 of the dispatcher): topic lookup by path or hash, publisher and
// subscriber membership, sticky last-message snapshots, per-publisher
// mute bits, and topic garbage collection.
//
// Table is not safe for concurrent use: callers must serialize access.
package registry

import "github.com/easyvolts/pubsub-actors/pstype"

// ChangeKind identifies whether a ChangeEvent is a topic creation or a
// topic teardown, for the ".srv.tpc.chng" announcement (spec.md §4.5).
type ChangeKind uint8

const (
	Added ChangeKind = iota
	Removed
)

func (k ChangeKind) String() string {
	if k == Added {
		return "ADD"
	}
	return "DEL"
}

// ChangeEvent describes a topic lifecycle transition, for the caller to
// turn into a ".srv.tpc.chng" announcement if that topic is subscribed.
type ChangeEvent struct {
	Kind     ChangeKind
	Hash     pstype.TopicHash
	Path     string
	DataType pstype.DataType
}

type actorEntry struct {
	actor pstype.ActorRef
	used  bool
}

type lastMsg struct {
	payload []byte // fixed capacity maxPayload
	length  int    // true length of the most recent publish, <= maxPayload
	valid   bool
}

type slot struct {
	hash          pstype.TopicHash
	dataType      pstype.DataType
	sticky        bool
	path          string
	info          string
	publishers    []actorEntry
	subscribers   []actorEntry
	publisherMute []bool
	last          lastMsg
}

func (s *slot) free() bool { return s.path == "" }

func (s *slot) reset(hash pstype.TopicHash, maxActors, maxPayload int) {
	*s = slot{
		hash:          hash,
		publishers:    make([]actorEntry, maxActors),
		subscribers:   make([]actorEntry, maxActors),
		publisherMute: make([]bool, maxActors),
		last:          lastMsg{payload: make([]byte, maxPayload)},
	}
}

// Table is the fixed-capacity topic table.
type Table struct {
	slots      []slot
	maxActors  int
	maxPathLen int
	maxInfoLen int
	maxPayload int
}

// New allocates a Table with the given fixed capacities.
func New(maxTopics, maxActors, maxPathLen, maxInfoLen, maxPayload int) *Table {
	return &Table{
		slots:      make([]slot, maxTopics),
		maxActors:  maxActors,
		maxPathLen: maxPathLen,
		maxInfoLen: maxInfoLen,
		maxPayload: maxPayload,
	}
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max]
}

func (t *Table) findByPath(path string) (*slot, pstype.TopicHash, bool) {
	for i := range t.slots {
		if !t.slots[i].free() && t.slots[i].path == path {
			return &t.slots[i], pstype.TopicHash(i), true
		}
	}
	return nil, 0, false
}

func (t *Table) findFreeSlot() (*slot, pstype.TopicHash, bool) {
	for i := range t.slots {
		if t.slots[i].free() {
			return &t.slots[i], pstype.TopicHash(i), true
		}
	}
	return nil, 0, false
}

func (t *Table) slotByHash(hash pstype.TopicHash) (*slot, bool) {
	if int(hash) < 0 || int(hash) >= len(t.slots) || t.slots[hash].free() {
		return nil, false
	}
	return &t.slots[hash], true
}

// anyOccupied reports whether any entry in entries is in use.
func anyOccupied(entries []actorEntry) bool {
	for i := range entries {
		if entries[i].used {
			return true
		}
	}
	return false
}

// insertActor adds actor to entries in the first free slot, enforcing
// I2 (no duplicate ActorRef within the array). It returns the slot
// index and a Result: Ok on fresh insertion, Duplicated if actor is
// already present (index still points at its existing slot), or
// OutOfMemory if entries is full.
func insertActor(entries []actorEntry, actor pstype.ActorRef) (int, pstype.Result) {
	free := -1
	for i := range entries {
		if entries[i].used {
			if entries[i].actor == actor {
				return i, pstype.Duplicated
			}
		} else if free == -1 {
			free = i
		}
	}
	if free == -1 {
		return -1, pstype.OutOfMemory
	}
	entries[free] = actorEntry{actor: actor, used: true}
	return free, pstype.Ok
}

func removeActor(entries []actorEntry, actor pstype.ActorRef) bool {
	for i := range entries {
		if entries[i].used && entries[i].actor == actor {
			entries[i] = actorEntry{}
			return true
		}
	}
	return false
}

// RegisterPublisher implements spec.md §4.2 "Publisher registration".
func (t *Table) RegisterPublisher(actor pstype.ActorRef, dtype pstype.DataType, path, info string, sticky bool) (pstype.TopicHash, *ChangeEvent, pstype.Result, error) {
	path = truncate(path, t.maxPathLen)
	info = truncate(info, t.maxInfoLen)

	if s, hash, ok := t.findByPath(path); ok {
		if anyOccupied(s.publishers) {
			s.sticky = s.sticky || sticky
			if s.dataType != dtype {
				return hash, nil, pstype.RedefConflict, pstype.ErrorForResult(pstype.RedefConflict)
			}
		} else {
			s.dataType = dtype
			s.sticky = sticky
		}
		_, res := insertActor(s.publishers, actor)
		return hash, nil, res, pstype.ErrorForResult(res)
	}

	s, hash, ok := t.findFreeSlot()
	if !ok {
		return 0, nil, pstype.OutOfMemory, pstype.ErrOutOfMemory
	}
	s.reset(hash, t.maxActors, t.maxPayload)
	s.path = path
	s.info = info
	s.dataType = dtype
	s.sticky = sticky
	if _, res := insertActor(s.publishers, actor); res != pstype.Ok {
		// Cannot happen: a freshly reset slot always has a free actor slot.
		*s = slot{}
		return 0, nil, pstype.ErrorResult, pstype.ErrInternal
	}
	return hash, &ChangeEvent{Kind: Added, Hash: hash, Path: path, DataType: dtype}, pstype.Ok, nil
}

// maybeGC clears a topic slot once both its actor arrays are empty (I4),
// returning a Removed ChangeEvent if the slot was cleared.
func (t *Table) maybeGC(s *slot, hash pstype.TopicHash) *ChangeEvent {
	if anyOccupied(s.publishers) || anyOccupied(s.subscribers) {
		return nil
	}
	ev := &ChangeEvent{Kind: Removed, Hash: hash, Path: s.path, DataType: s.dataType}
	*s = slot{}
	return ev
}

// UnregisterTopicPublisher removes actor from the topic's publisher set
// and runs topic GC (I4).
func (t *Table) UnregisterTopicPublisher(actor pstype.ActorRef, hash pstype.TopicHash) (*ChangeEvent, pstype.Result, error) {
	s, ok := t.slotByHash(hash)
	if !ok {
		return nil, pstype.NotFound, pstype.ErrNotFound
	}
	if !removeActor(s.publishers, actor) {
		return nil, pstype.NotFound, pstype.ErrNotFound
	}
	return t.maybeGC(s, hash), pstype.Ok, nil
}

// PreparePublish implements spec.md §4.2 "Publication" steps 1-4: it
// updates the sticky snapshot and checks the publisher's membership and
// mute bit, but does not touch the queue. The caller (the top-level
// Dispatcher) is responsible for enqueueing the frame via the ring
// buffer when mute is false and result is Ok.
func (t *Table) PreparePublish(actor pstype.ActorRef, hash pstype.TopicHash, data []byte) (mute bool, result pstype.Result, err error) {
	s, ok := t.slotByHash(hash)
	if !ok {
		return false, pstype.NotFound, pstype.ErrNotFound
	}

	n := len(data)
	if n > t.maxPayload {
		n = t.maxPayload
	}
	copy(s.last.payload, data[:n])
	s.last.length = n
	s.last.valid = true

	idx := -1
	for i := range s.publishers {
		if s.publishers[i].used && s.publishers[i].actor == actor {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, pstype.NotFound, pstype.ErrNotFound
	}

	return s.publisherMute[idx], pstype.Ok, nil
}

// PublishSystemEvent updates a topic's sticky snapshot like
// PreparePublish, but without checking publisher membership or a mute
// bit against it. For topics created with no publisher of record (see
// SubscribeSingle's create-on-subscribe path, used by the change
// topic), there is no publisher identity to check against.
func (t *Table) PublishSystemEvent(hash pstype.TopicHash, data []byte) (pstype.Result, error) {
	s, ok := t.slotByHash(hash)
	if !ok {
		return pstype.NotFound, pstype.ErrNotFound
	}

	n := len(data)
	if n > t.maxPayload {
		n = t.maxPayload
	}
	copy(s.last.payload, data[:n])
	s.last.length = n
	s.last.valid = true

	return pstype.Ok, nil
}

// Snapshot is a sticky-replay lease: it is a copy of the topic's last
// published payload, valid for the caller to read at any time (unlike
// the original C API's raw pointer into the topic's last-message buffer,
// which was only valid until the next publish). See SPEC_FULL.md §6.6.
type Snapshot struct {
	Payload  []byte
	DataType pstype.DataType
}

// SubscribeSingle implements spec.md §4.2 "Subscription".
func (t *Table) SubscribeSingle(path string, dtype pstype.DataType, actor pstype.ActorRef, wantSnapshot bool) (pstype.TopicHash, *Snapshot, *ChangeEvent, pstype.Result, error) {
	path = truncate(path, t.maxPathLen)

	s, hash, ok := t.findByPath(path)
	var added *ChangeEvent
	if !ok {
		s, hash, ok = t.findFreeSlot()
		if !ok {
			return 0, nil, nil, pstype.OutOfMemory, pstype.ErrOutOfMemory
		}
		s.reset(hash, t.maxActors, t.maxPayload)
		s.path = path
		s.dataType = dtype
		added = &ChangeEvent{Kind: Added, Hash: hash, Path: path, DataType: dtype}
	}

	_, res := insertActor(s.subscribers, actor)
	if res != pstype.Ok {
		return hash, nil, added, res, pstype.ErrorForResult(res)
	}

	var snap *Snapshot
	if s.sticky && wantSnapshot && s.last.valid {
		snap = &Snapshot{
			Payload:  append([]byte(nil), s.last.payload[:s.last.length]...),
			DataType: s.dataType,
		}
	}
	return hash, snap, added, pstype.Ok, nil
}

// Unsubscribe removes actor from the topic's subscriber set and runs
// topic GC (I4).
func (t *Table) Unsubscribe(path string, actor pstype.ActorRef) (*ChangeEvent, pstype.Result, error) {
	s, hash, ok := t.findByPath(path)
	if !ok {
		return nil, pstype.NotFound, pstype.ErrNotFound
	}
	if !removeActor(s.subscribers, actor) {
		return nil, pstype.NotFound, pstype.ErrNotFound
	}
	return t.maybeGC(s, hash), pstype.Ok, nil
}

// Mute sets or clears the mute bit for the (actor, hash) pair.
func (t *Table) Mute(actor pstype.ActorRef, hash pstype.TopicHash, flag bool) (pstype.Result, error) {
	s, ok := t.slotByHash(hash)
	if !ok {
		return pstype.NotFound, pstype.ErrNotFound
	}
	for i := range s.publishers {
		if s.publishers[i].used && s.publishers[i].actor == actor {
			s.publisherMute[i] = flag
			return pstype.Ok, nil
		}
	}
	return pstype.NotFound, pstype.ErrNotFound
}

// CheckTopic looks up a topic by path.
func (t *Table) CheckTopic(path string) (pstype.TopicHash, pstype.DataType, string, pstype.Result, error) {
	s, hash, ok := t.findByPath(path)
	if !ok {
		return 0, pstype.None, "", pstype.NotFound, pstype.ErrNotFound
	}
	return hash, s.dataType, s.info, pstype.Ok, nil
}

// CheckTopicByHash looks up a topic by its stable hash.
func (t *Table) CheckTopicByHash(hash pstype.TopicHash) (string, string, pstype.DataType, pstype.Result, error) {
	s, ok := t.slotByHash(hash)
	if !ok {
		return "", "", pstype.None, pstype.NotFound, pstype.ErrNotFound
	}
	return s.path, s.info, s.dataType, pstype.Ok, nil
}

// CheckSubscriber scans every topic's publisher and subscriber arrays
// for actor and, if found, invokes the sentinel call (hash 0, nil
// payload, DataType None) to retrieve its informational label, per
// spec.md §6.
func (t *Table) CheckSubscriber(actor pstype.ActorRef) (string, bool) {
	for i := range t.slots {
		s := &t.slots[i]
		if s.free() {
			continue
		}
		for _, e := range s.publishers {
			if e.used && e.actor == actor {
				return actor.Handle(0, nil, pstype.None), true
			}
		}
		for _, e := range s.subscribers {
			if e.used && e.actor == actor {
				return actor.Handle(0, nil, pstype.None), true
			}
		}
	}
	return "", false
}

// Subscribers returns the occupied subscriber ActorRefs of hash, in slot
// order, along with the topic's DataType. ok is false if hash does not
// name an occupied topic.
func (t *Table) Subscribers(hash pstype.TopicHash) (subs []pstype.ActorRef, dtype pstype.DataType, ok bool) {
	s, found := t.slotByHash(hash)
	if !found {
		return nil, pstype.None, false
	}
	for _, e := range s.subscribers {
		if e.used {
			subs = append(subs, e.actor)
		}
	}
	return subs, s.dataType, true
}

// MaxTopics returns the fixed topic table capacity.
func (t *Table) MaxTopics() int { return len(t.slots) }
