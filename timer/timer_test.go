package timer_test

import (
	"math"
	"testing"

	"github.com/easyvolts/pubsub-actors/pstype"
	"github.com/easyvolts/pubsub-actors/timer"
)

func TestClassifyPrefix(t *testing.T) {
	cases := []struct {
		path     string
		periodic bool
		ok       bool
	}{
		{".srv.t_ms.tick.3s", true, true},
		{".srv.t_ms.tout.button", false, true},
		{".not.a.timer", false, false},
	}
	for _, c := range cases {
		periodic, ok := timer.ClassifyPrefix(c.path)
		if periodic != c.periodic || ok != c.ok {
			t.Errorf("ClassifyPrefix(%q) = (%v, %v), want (%v, %v)", c.path, periodic, ok, c.periodic, c.ok)
		}
	}
}

func TestPeriodicTimerRepublishesEachTick(t *testing.T) {
	tbl := timer.New(4)
	creator := &pstype.ActorFunc{Label: "t"}
	if res := tbl.Add(1, creator, 1, true); res != pstype.Ok {
		t.Fatalf("Add() = %v", res)
	}
	for i := 0; i < 3; i++ {
		expired, shortest, active := tbl.OnTick(1)
		if len(expired) != 1 || expired[0].Hash != 1 {
			t.Fatalf("tick %d: expired = %+v, want one expiry for hash 1", i, expired)
		}
		if !active || shortest != 1 {
			t.Fatalf("tick %d: active=%v shortest=%d, want active, shortest=1", i, active, shortest)
		}
	}
}

func TestOneShotTimerFreesSlot(t *testing.T) {
	tbl := timer.New(4)
	creator := &pstype.ActorFunc{Label: "t"}
	tbl.Add(1, creator, 300, false)
	expired, _, active := tbl.OnTick(100)
	if len(expired) != 0 || active != true {
		t.Fatalf("tick 1: expired=%v active=%v", expired, active)
	}
	expired, _, active = tbl.OnTick(100)
	if len(expired) != 0 || active != true {
		t.Fatalf("tick 2: expired=%v active=%v", expired, active)
	}
	expired, shortest, active := tbl.OnTick(100)
	if len(expired) != 1 || expired[0].Hash != 1 {
		t.Fatalf("tick 3: expired = %+v, want one expiry", expired)
	}
	if active {
		t.Fatalf("one-shot timer should be inactive after expiry")
	}
	if shortest != math.MaxInt32 {
		t.Fatalf("shortest = %d, want MaxInt32 once no timers remain", shortest)
	}
}

func TestMultipleTimersShortestDeadline(t *testing.T) {
	tbl := timer.New(4)
	a := &pstype.ActorFunc{Label: "a"}
	b := &pstype.ActorFunc{Label: "b"}
	tbl.Add(1, a, 500, true)
	tbl.Add(2, b, 200, true)
	_, shortest, active := tbl.OnTick(50)
	if !active {
		t.Fatal("expected active timers")
	}
	if shortest != 150 {
		t.Fatalf("shortest = %d, want 150 (200-50)", shortest)
	}
}

func TestTimerTableCapacityExhausted(t *testing.T) {
	tbl := timer.New(1)
	a := &pstype.ActorFunc{Label: "a"}
	b := &pstype.ActorFunc{Label: "b"}
	if res := tbl.Add(1, a, 100, false); res != pstype.Ok {
		t.Fatalf("Add() = %v", res)
	}
	if res := tbl.Add(2, b, 100, false); res != pstype.OutOfMemory {
		t.Fatalf("Add() = %v, want OutOfMemory", res)
	}
}
