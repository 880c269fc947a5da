package pubsub

import (
	"encoding/binary"
	"fmt"

	"github.com/easyvolts/pubsub-actors/pstype"
	"github.com/easyvolts/pubsub-actors/registry"
	"github.com/easyvolts/pubsub-actors/ring"
	"github.com/easyvolts/pubsub-actors/timer"
)

// frameOverhead is the size of the topicHash+msgLen prefix every queued
// frame carries, on top of the ring buffer's own internal length header
// (see ring.headerSize). Wire format per SPEC_FULL.md §8: little-endian
// uint16 topicHash, uint16 msgLen, msgLen payload bytes.
const frameOverhead = 4

// Dispatcher composes the ring buffer, topic registry and timer table
// into the public pub/sub API (spec.md §4.6). It is not safe for
// concurrent use: see doc.go.
type Dispatcher struct {
	cfg    *dispatcherOptions
	queue  *ring.Buffer
	topics *registry.Table
	timers *timer.Table

	// changeHash/changeEnabled track the change topic, which (like the
	// original's NULL-publisher topics) is created with no registered
	// publisher: it exists purely by subscriber membership, and topic GC
	// (I4) reclaims it the moment its last subscriber leaves.
	// changeEnabled is cleared on that GC and re-set by the next
	// CreateAndSubTpcChange call.
	changeHash    TopicHash
	changeEnabled bool
}

// New constructs a Dispatcher with the given options, applied over the
// documented defaults (see DefaultMaxTopics et al.).
func New(opts ...Option) (*Dispatcher, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	if cfg.maxTopics <= 0 || cfg.maxActors <= 0 || cfg.maxPayload < 0 || cfg.queueBytes < 0 {
		return nil, fmt.Errorf("pubsub: invalid capacity options: %+v", *cfg)
	}
	return &Dispatcher{
		cfg:    cfg,
		queue:  ring.New(cfg.queueBytes),
		topics: registry.New(cfg.maxTopics, cfg.maxActors, cfg.maxPathLen, cfg.maxInfoLen, cfg.maxPayload),
		timers: timer.New(cfg.maxTopics),
	}, nil
}

// Metrics returns the Dispatcher's runtime counters, or nil if
// WithMetrics was never enabled.
func (d *Dispatcher) Metrics() *Metrics { return d.cfg.metrics }

// RegisterTopicPublisher implements spec.md §4.6 ps_register_topic_publisher.
func (d *Dispatcher) RegisterTopicPublisher(actor ActorRef, dtype DataType, path, info string, sticky bool) (TopicHash, Result, error) {
	hash, ev, res, err := d.topics.RegisterPublisher(actor, dtype, path, info, sticky)
	d.announceChange(ev)
	return hash, res, err
}

// UnregisterTopicPublisher implements spec.md §4.6 ps_unregister_topic_publisher.
func (d *Dispatcher) UnregisterTopicPublisher(actor ActorRef, hash TopicHash) (Result, error) {
	ev, res, err := d.topics.UnregisterTopicPublisher(actor, hash)
	d.announceChange(ev)
	return res, err
}

// Publish implements spec.md §4.6 ps_pub_topic.
func (d *Dispatcher) Publish(actor ActorRef, hash TopicHash, data []byte) (Result, error) {
	mute, res, err := d.topics.PreparePublish(actor, hash, data)
	if err != nil {
		return res, err
	}
	if mute {
		return pstype.Ok, nil
	}
	if !d.enqueueFrame(hash, data) {
		d.cfg.metrics.incPublishDropped()
		d.cfg.logger.Warn("pubsub: queue full, publish dropped", HashField("topic", hash), IntField("size", len(data)))
		return pstype.OutOfMemory, pstype.ErrOutOfMemory
	}
	d.cfg.metrics.incPublished()
	return pstype.Ok, nil
}

// PublishWithRegistration implements spec.md §4.6
// ps_register_and_pub_topic: register-or-reuse a publisher slot, then
// publish in one call.
func (d *Dispatcher) PublishWithRegistration(actor ActorRef, dtype DataType, path, info string, sticky bool, data []byte) (TopicHash, Result, error) {
	hash, res, err := d.RegisterTopicPublisher(actor, dtype, path, info, sticky)
	if err != nil && res != pstype.Duplicated {
		return hash, res, err
	}
	res, err = d.Publish(actor, hash, data)
	return hash, res, err
}

// StickySnapshot is a copy of a sticky topic's last published payload,
// returned to a new subscriber of a sticky topic. See SPEC_FULL.md §6.6.
type StickySnapshot struct {
	Payload  []byte
	DataType DataType
}

// SubscribeSingle implements spec.md §4.6 ps_sub_single_topic.
func (d *Dispatcher) SubscribeSingle(path string, dtype DataType, actor ActorRef) (TopicHash, *StickySnapshot, Result, error) {
	hash, snap, ev, res, err := d.topics.SubscribeSingle(path, dtype, actor, true)
	d.announceChange(ev)
	if snap == nil {
		return hash, nil, res, err
	}
	return hash, &StickySnapshot{Payload: snap.Payload, DataType: snap.DataType}, res, err
}

// Unsubscribe implements spec.md §4.6 ps_unsub_topic.
func (d *Dispatcher) Unsubscribe(path string, actor ActorRef) (Result, error) {
	ev, res, err := d.topics.Unsubscribe(path, actor)
	d.announceChange(ev)
	return res, err
}

// CheckTopic implements spec.md §4.6 ps_check_topic.
func (d *Dispatcher) CheckTopic(path string) (TopicHash, DataType, string, Result, error) {
	return d.topics.CheckTopic(path)
}

// CheckTopicByHash implements spec.md §4.6 ps_check_topic_by_hash.
func (d *Dispatcher) CheckTopicByHash(hash TopicHash) (string, string, DataType, Result, error) {
	return d.topics.CheckTopicByHash(hash)
}

// CheckSubscriber implements spec.md §6's ps_check_subscriber, invoking
// actor's sentinel call to recover its informational label.
func (d *Dispatcher) CheckSubscriber(actor ActorRef) string {
	label, _ := d.topics.CheckSubscriber(actor)
	return label
}

// Mute implements spec.md §4.6 ps_mute_publisher, resolving path to a
// hash first.
func (d *Dispatcher) Mute(actor ActorRef, path string, flag bool) (Result, error) {
	hash, _, _, res, err := d.topics.CheckTopic(path)
	if err != nil {
		return res, err
	}
	return d.topics.Mute(actor, hash, flag)
}

// MuteByHash implements spec.md §4.6 ps_mute_publisher_by_hash.
func (d *Dispatcher) MuteByHash(actor ActorRef, hash TopicHash, flag bool) (Result, error) {
	return d.topics.Mute(actor, hash, flag)
}

// CreateAndSubTimer implements spec.md §4.6
// ps_create_and_sub_timer_topic: registers actor as the timer topic's
// publisher and sole subscriber, and arms a timer slot for it. path must
// match TickPrefix (periodic) or ToutPrefix (one-shot).
func (d *Dispatcher) CreateAndSubTimer(path string, actor ActorRef, info string, durationMs int32) (Result, error) {
	periodic, ok := timer.ClassifyPrefix(path)
	if !ok {
		return pstype.NotFound, fmt.Errorf("pubsub: %q is not a reserved timer topic prefix (%s/%s): %w", path, TickPrefix, ToutPrefix, pstype.ErrNotFound)
	}

	hash, regEv, regRes, regErr := d.topics.RegisterPublisher(actor, pstype.None, path, info, false)
	if regErr != nil && regRes != pstype.Duplicated {
		return regRes, regErr
	}
	d.announceChange(regEv)

	_, _, subEv, subRes, subErr := d.topics.SubscribeSingle(path, pstype.None, actor, false)
	if subErr != nil && subRes != pstype.Duplicated {
		return subRes, subErr
	}
	d.announceChange(subEv)

	if res := d.timers.Add(hash, actor, durationMs, periodic); res != pstype.Ok {
		return res, pstype.ErrorForResult(res)
	}
	// spec.md §4.4 step 5: recompute the minimum deadline across every
	// active timer, rather than blindly arming the host timer for this
	// one's duration, which could overshoot an existing shorter deadline.
	d.PubTimerTimeoutEvent()
	return pstype.Ok, nil
}

// CreateAndSubTpcChange implements spec.md §4.6
// ps_create_and_sub_tpc_change_topic: subscribes actor to the topic
// lifecycle announcement feed, creating it on first use (or re-use,
// after a prior GC) with no registered publisher — mirroring the
// original's NULL-publisher topic — so it lives and dies purely by
// subscriber membership.
func (d *Dispatcher) CreateAndSubTpcChange(actor ActorRef) (Result, error) {
	hash, _, ev, res, err := d.topics.SubscribeSingle(ChangeTopic, pstype.Str, actor, false)
	if err != nil && res != pstype.Duplicated {
		return res, err
	}
	d.changeHash = hash
	d.changeEnabled = true
	d.announceChange(ev)
	return res, err
}

// announceChange publishes an "ADD"/"DEL" message on the change topic
// for ev, unless change announcements are currently disabled or ev
// names the change topic itself (which would recurse into its own
// feed). The change topic's own removal (reached once its last
// subscriber leaves, since it holds no publisher to keep it alive)
// disables further announcements until the next CreateAndSubTpcChange
// call recreates it.
func (d *Dispatcher) announceChange(ev *registry.ChangeEvent) {
	if ev == nil {
		return
	}
	if ev.Kind == registry.Added {
		d.cfg.metrics.incTopicsCreated()
	} else {
		d.cfg.metrics.incTopicsGC()
	}
	if !d.changeEnabled {
		return
	}
	if ev.Hash == d.changeHash {
		if ev.Kind == registry.Removed {
			d.changeEnabled = false
		}
		return
	}
	msg := fmt.Sprintf("%s %d %s[%d]", ev.Kind, ev.Hash, ev.Path, ev.DataType)
	if res, err := d.topics.PublishSystemEvent(d.changeHash, []byte(msg)); err != nil || res != pstype.Ok {
		return
	}
	if !d.enqueueFrame(d.changeHash, []byte(msg)) {
		d.cfg.metrics.incPublishDropped()
		d.cfg.logger.Warn("pubsub: queue full, change announcement dropped", StrField("msg", msg))
	}
}

// PubTimerTimeoutEvent implements spec.md §4.6 ps_pub_timer_timeout_event:
// advances every timer by the host-reported elapsed time, publishes an
// expiry for each one that fired, and rearms the host timer for the
// shortest remaining deadline.
func (d *Dispatcher) PubTimerTimeoutEvent() {
	if d.cfg.getTimerTickMs == nil {
		return
	}
	elapsed := d.cfg.getTimerTickMs()
	expired, shortest, anyActive := d.timers.OnTick(elapsed)
	for _, exp := range expired {
		d.cfg.metrics.incTimerExpiries()
		mute, res, err := d.topics.PreparePublish(exp.Creator, exp.Hash, nil)
		if err != nil || mute || res != pstype.Ok {
			continue
		}
		if !d.enqueueFrame(exp.Hash, nil) {
			d.cfg.metrics.incPublishDropped()
		}
	}
	if anyActive && d.cfg.restartTimer != nil {
		d.cfg.restartTimer(shortest)
	}
}

// Loop implements spec.md §4.3/§4.6's ps_loop: drains at most one
// queued frame, resolving and invoking its topic's subscribers in slot
// order. The returned count is the number of messages processed this
// call — 1 if a frame was popped and dispatched, 0 if the queue was
// empty — matching the original's processed_messages_count. Use
// WaitingEvents to learn how many frames remain queued.
func (d *Dispatcher) Loop() (uint16, error) {
	if d.queue.Count() == 0 {
		return 0, nil
	}

	var hdr [frameOverhead]byte
	full := d.queue.PeekFront(hdr[:])
	frame := make([]byte, full)
	d.queue.PeekFront(frame)
	d.queue.PopFront()

	if full < frameOverhead {
		return 0, pstype.ErrInternal
	}
	hash := TopicHash(binary.LittleEndian.Uint16(frame[0:2]))
	msgLen := int(binary.LittleEndian.Uint16(frame[2:4]))
	payload := frame[frameOverhead : frameOverhead+msgLen]

	if subs, dtype, ok := d.topics.Subscribers(hash); ok {
		for _, actor := range subs {
			d.invoke(actor, hash, payload, dtype)
		}
	}
	return 1, nil
}

// invoke calls actor.Handle, optionally recovering a panic per
// WithRecoverHandlerPanics (default: panics propagate, per spec.md
// §4.3's "exceptions/panics ... are not trapped by the core").
func (d *Dispatcher) invoke(actor ActorRef, hash TopicHash, payload []byte, dtype DataType) {
	d.cfg.metrics.incDelivered()
	if !d.cfg.recoverHandlerPanics {
		actor.Handle(hash, payload, dtype)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.cfg.metrics.incHandlerPanics()
			d.cfg.logger.Error("pubsub: recovered subscriber panic", HashField("topic", hash), StrField("panic", fmt.Sprint(r)))
		}
	}()
	actor.Handle(hash, payload, dtype)
}

// WaitingEvents implements spec.md §4.6 ps_waiting_events: the number of
// frames currently queued.
func (d *Dispatcher) WaitingEvents() int16 { return int16(d.queue.Count()) }

// HasEnoughSpace implements spec.md §4.6 ps_has_enough_msg_space,
// accounting for the wire-format header overhead.
func (d *Dispatcher) HasEnoughSpace(n int) bool {
	return d.queue.HasSpace(n + frameOverhead)
}

// enqueueFrame encodes (hash, data) per the wire format in SPEC_FULL.md
// §8 and pushes it onto the ring buffer.
func (d *Dispatcher) enqueueFrame(hash TopicHash, data []byte) bool {
	frame := make([]byte, frameOverhead+len(data))
	binary.LittleEndian.PutUint16(frame[0:2], uint16(hash))
	binary.LittleEndian.PutUint16(frame[2:4], uint16(len(data)))
	copy(frame[frameOverhead:], data)
	return d.queue.PushBack(frame)
}
