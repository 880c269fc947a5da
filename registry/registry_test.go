package registry_test

import (
	"errors"
	"testing"

	"github.com/easyvolts/pubsub-actors/pstype"
	"github.com/easyvolts/pubsub-actors/registry"
)

func actor(label string) *pstype.ActorFunc {
	return &pstype.ActorFunc{Label: label}
}

func newTable() *registry.Table {
	return registry.New(8, 4, 64, 64, 32)
}

func TestRegisterPublisherCreatesTopic(t *testing.T) {
	tbl := newTable()
	p := actor("P")
	hash, ev, res, err := tbl.RegisterPublisher(p, pstype.Bool, ".demo.bool", "demo", false)
	if err != nil || res != pstype.Ok {
		t.Fatalf("RegisterPublisher() = (%v, %v)", res, err)
	}
	if ev == nil || ev.Kind != registry.Added || ev.Hash != hash {
		t.Fatalf("expected Added change event, got %+v", ev)
	}
	gotHash, dtype, _, res, err := tbl.CheckTopic(".demo.bool")
	if err != nil || res != pstype.Ok || gotHash != hash || dtype != pstype.Bool {
		t.Fatalf("CheckTopic() = (%v, %v, %v, %v)", gotHash, dtype, res, err)
	}
}

func TestRegisterPublisherDuplicated(t *testing.T) {
	tbl := newTable()
	p := actor("P")
	tbl.RegisterPublisher(p, pstype.U8, ".x", "", false)
	_, _, res, err := tbl.RegisterPublisher(p, pstype.U8, ".x", "", false)
	if res != pstype.Duplicated || !errors.Is(err, pstype.ErrDuplicated) {
		t.Fatalf("second RegisterPublisher() = (%v, %v), want Duplicated", res, err)
	}
	_, _, res, err = tbl.RegisterPublisher(p, pstype.U8, ".x", "", false)
	if res != pstype.Duplicated {
		t.Fatalf("third RegisterPublisher() = %v, want Duplicated again", res)
	}
}

func TestRedefConflict(t *testing.T) {
	tbl := newTable()
	a := actor("A")
	b := actor("B")
	tbl.RegisterPublisher(a, pstype.U8, ".x", "", false)
	_, _, res, err := tbl.RegisterPublisher(b, pstype.U16, ".x", "", false)
	if res != pstype.RedefConflict || !errors.Is(err, pstype.ErrRedefConflict) {
		t.Fatalf("RegisterPublisher() = (%v, %v), want RedefConflict", res, err)
	}
	_, dtype, _, _, _ := tbl.CheckTopic(".x")
	if dtype != pstype.U8 {
		t.Fatalf("topic dataType = %v, want unchanged U8", dtype)
	}
}

func TestTopicGCOnBothEmpty(t *testing.T) {
	tbl := newTable()
	p := actor("P")
	s := actor("S")
	hash, _, _, _ := tbl.RegisterPublisher(p, pstype.U8, ".foo", "", false)
	tbl.SubscribeSingle(".foo", pstype.U8, s, false)

	if _, res, _ := tbl.UnregisterTopicPublisher(p, hash); res != pstype.Ok {
		t.Fatalf("UnregisterTopicPublisher() = %v", res)
	}
	// subscriber still present: topic must survive.
	if _, dtype, _, res, _ := tbl.CheckTopic(".foo"); res != pstype.Ok || dtype != pstype.U8 {
		t.Fatalf("topic should survive with a remaining subscriber, got res=%v", res)
	}

	ev, res, err := tbl.Unsubscribe(".foo", s)
	if err != nil || res != pstype.Ok {
		t.Fatalf("Unsubscribe() = (%v, %v)", res, err)
	}
	if ev == nil || ev.Kind != registry.Removed {
		t.Fatalf("expected Removed change event after last actor left, got %+v", ev)
	}
	if _, _, _, res, _ := tbl.CheckTopic(".foo"); res != pstype.NotFound {
		t.Fatalf("topic should be gone, got res=%v", res)
	}
}

func TestStickyReplay(t *testing.T) {
	tbl := newTable()
	p := actor("P")
	s := actor("S")
	hash, _, _, _ := tbl.RegisterPublisher(p, pstype.Bool, ".demo.bool", "", true)
	mute, res, err := tbl.PreparePublish(p, hash, []byte{1})
	if err != nil || res != pstype.Ok || mute {
		t.Fatalf("PreparePublish() = (%v, %v, mute=%v)", res, err, mute)
	}
	_, snap, _, res, err := tbl.SubscribeSingle(".demo.bool", pstype.Bool, s, true)
	if err != nil || res != pstype.Ok {
		t.Fatalf("SubscribeSingle() = (%v, %v)", res, err)
	}
	if snap == nil || len(snap.Payload) != 1 || snap.Payload[0] != 1 || snap.DataType != pstype.Bool {
		t.Fatalf("snapshot = %+v, want {[1], Bool}", snap)
	}
}

func TestMuteIsPerPublisherAndReversible(t *testing.T) {
	tbl := newTable()
	p1 := actor("P1")
	p2 := actor("P2")
	hash, _, _, _ := tbl.RegisterPublisher(p1, pstype.U8, ".z", "", false)
	tbl.RegisterPublisher(p2, pstype.U8, ".z", "", false)

	if res, err := tbl.Mute(p1, hash, true); err != nil || res != pstype.Ok {
		t.Fatalf("Mute() = (%v, %v)", res, err)
	}

	mute1, res, _ := tbl.PreparePublish(p1, hash, []byte{9})
	if res != pstype.Ok || !mute1 {
		t.Fatalf("PreparePublish(p1) mute = %v, res = %v, want mute=true", mute1, res)
	}
	mute2, res, _ := tbl.PreparePublish(p2, hash, []byte{5})
	if res != pstype.Ok || mute2 {
		t.Fatalf("PreparePublish(p2) mute = %v, res = %v, want mute=false", mute2, res)
	}

	if res, err := tbl.Mute(p1, hash, false); err != nil || res != pstype.Ok {
		t.Fatalf("unmute Mute() = (%v, %v)", res, err)
	}
	mute1, res, _ = tbl.PreparePublish(p1, hash, []byte{9})
	if res != pstype.Ok || mute1 {
		t.Fatalf("after unmute, mute = %v, want false", mute1)
	}
}

func TestPayloadClampedToMaxPayload(t *testing.T) {
	tbl := registry.New(4, 4, 32, 32, 4)
	p := actor("P")
	s := actor("S")
	hash, _, _, _ := tbl.RegisterPublisher(p, pstype.ByteArray, ".big", "", true)
	long := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if _, res, _ := tbl.PreparePublish(p, hash, long); res != pstype.Ok {
		t.Fatalf("PreparePublish() = %v", res)
	}
	_, snap, _, _, _ := tbl.SubscribeSingle(".big", pstype.ByteArray, s, true)
	if len(snap.Payload) != 4 {
		t.Fatalf("snapshot length = %d, want clamped to 4", len(snap.Payload))
	}
}

func TestActorSlotCapacityExhausted(t *testing.T) {
	tbl := registry.New(4, 2, 32, 32, 8)
	a1 := actor("1")
	a2 := actor("2")
	a3 := actor("3")
	tbl.RegisterPublisher(a1, pstype.U8, ".x", "", false)
	tbl.RegisterPublisher(a2, pstype.U8, ".x", "", false)
	_, _, res, err := tbl.RegisterPublisher(a3, pstype.U8, ".x", "", false)
	if res != pstype.OutOfMemory || !errors.Is(err, pstype.ErrOutOfMemory) {
		t.Fatalf("RegisterPublisher() = (%v, %v), want OutOfMemory", res, err)
	}
}

func TestTopicTableCapacityExhausted(t *testing.T) {
	tbl := registry.New(1, 4, 32, 32, 8)
	tbl.RegisterPublisher(actor("1"), pstype.U8, ".a", "", false)
	_, _, res, err := tbl.RegisterPublisher(actor("2"), pstype.U8, ".b", "", false)
	if res != pstype.OutOfMemory || !errors.Is(err, pstype.ErrOutOfMemory) {
		t.Fatalf("RegisterPublisher() = (%v, %v), want OutOfMemory", res, err)
	}
}

func TestCheckSubscriberSentinelCall(t *testing.T) {
	tbl := newTable()
	var gotHash pstype.TopicHash = 99
	var gotDType pstype.DataType = pstype.Bool
	a := &pstype.ActorFunc{
		Label: "sub",
		Fn: func(hash pstype.TopicHash, payload []byte, dtype pstype.DataType) {
			gotHash, gotDType = hash, dtype
		},
	}
	tbl.SubscribeSingle(".x", pstype.U8, a, false)
	label, found := tbl.CheckSubscriber(a)
	if !found || label != "sub" {
		t.Fatalf("CheckSubscriber() = (%q, %v)", label, found)
	}
	if gotHash != 0 || gotDType != pstype.None {
		t.Fatalf("sentinel call args = (%v, %v), want (0, None)", gotHash, gotDType)
	}
}
