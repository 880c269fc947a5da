// Package pstype holds the identifiers and enumerations shared by every
// layer of the dispatcher (ring, registry, timer, and the top-level
// package), so that none of those layers need to import each other to
// agree on what a topic or an actor is.
package pstype

import "fmt"

// TopicHash is a stable index into the topic table. It is not a content
// hash: it is the slot index assigned when the topic is created, and it
// never changes for the lifetime of the topic.
type TopicHash uint16

// DataType is the closed set of payload encodings a topic can declare.
type DataType uint8

const (
	None DataType = iota
	U8
	I8
	U16
	I16
	U32
	I32
	U64
	I64
	Timestamp
	ByteArray
	Str
	Bool
	dataTypeCount
)

// Valid reports whether d is one of the declared DataType constants.
func (d DataType) Valid() bool {
	return d < dataTypeCount
}

func (d DataType) String() string {
	switch d {
	case None:
		return "None"
	case U8:
		return "U8"
	case I8:
		return "I8"
	case U16:
		return "U16"
	case I16:
		return "I16"
	case U32:
		return "U32"
	case I32:
		return "I32"
	case U64:
		return "U64"
	case I64:
		return "I64"
	case Timestamp:
		return "Timestamp"
	case ByteArray:
		return "ByteArray"
	case Str:
		return "Str"
	case Bool:
		return "Bool"
	default:
		return fmt.Sprintf("DataType(%d)", uint8(d))
	}
}

// Result mirrors the original C API's PsResultType_e so callers that want
// a state-machine-style return value (rather than an idiomatic error) can
// still switch on it. Every API in this module returns a Result alongside
// an error; Result == Ok iff error == nil.
type Result uint8

const (
	Ok Result = iota
	Appended
	Created
	ErrorResult
	NotFound
	Duplicated
	OutOfMemory
	RedefConflict
)

func (r Result) String() string {
	switch r {
	case Ok:
		return "Ok"
	case Appended:
		return "Appended"
	case Created:
		return "Created"
	case ErrorResult:
		return "Error"
	case NotFound:
		return "NotFound"
	case Duplicated:
		return "Duplicated"
	case OutOfMemory:
		return "OutOfMemory"
	case RedefConflict:
		return "RedefConflict"
	default:
		return fmt.Sprintf("Result(%d)", uint8(r))
	}
}

// ActorRef identifies a publisher/subscriber callback. Equality is
// interface-value identity: two ActorRefs are the same actor iff they
// compare equal with ==, the same way the original C API treated two
// function pointers as the same actor iff they pointed at the same
// function.
//
// Handle is invoked by the dispatcher loop on delivery, and once more as
// a sentinel call (hash 0, payload nil, dtype None) by CheckSubscriber,
// solely to retrieve the actor's informational label.
type ActorRef interface {
	Handle(hash TopicHash, payload []byte, dtype DataType) string
}

// ActorFunc adapts a function and a label to the ActorRef interface.
// ActorFunc must be used through a pointer: identity is the pointer
// value, the same way the original C API used a stable function pointer
// as an actor's identity. A func value itself is not comparable in Go,
// so constructing a fresh *ActorFunc per call would give every call a
// distinct identity; callers must construct one *ActorFunc per logical
// actor and reuse it for every register/publish/subscribe call.
type ActorFunc struct {
	Fn    func(hash TopicHash, payload []byte, dtype DataType)
	Label string
}

func (a *ActorFunc) Handle(hash TopicHash, payload []byte, dtype DataType) string {
	if a.Fn != nil {
		a.Fn(hash, payload, dtype)
	}
	return a.Label
}

// RestartTimerFunc arms a one-shot host timer relative to now.
type RestartTimerFunc func(toutMs int32)

// GetTimerTickMsFunc returns milliseconds elapsed since the last call to
// RestartTimerFunc. Must be monotonic non-decreasing between restarts.
type GetTimerTickMsFunc func() int32
