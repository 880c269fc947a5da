package pubsub

import "github.com/easyvolts/pubsub-actors/timer"

// Service topic namespaces, spec.md §4.5 (component C5).
const (
	// TickPrefix names periodic timer topics (".srv.t_ms.tick.*").
	TickPrefix = timer.TickPrefix
	// ToutPrefix names one-shot timer topics (".srv.t_ms.tout.*").
	ToutPrefix = timer.ToutPrefix
	// ChangeTopic carries "ADD <hash> <path>[<dtype>]" / "DEL <hash>
	// <path>[<dtype>]" announcements whenever a topic is created or
	// garbage-collected.
	ChangeTopic = ".srv.tpc.chng"
)
