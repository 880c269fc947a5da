package pubsub

import "github.com/easyvolts/pubsub-actors/pstype"

// Re-exports of the shared identifiers from pstype, so callers of this
// package need not import pstype directly for everyday use. See
// pstype.TopicHash, pstype.DataType, pstype.Result and pstype.ActorRef
// for the authoritative documentation.
type (
	TopicHash = pstype.TopicHash
	DataType  = pstype.DataType
	Result    = pstype.Result
	ActorRef  = pstype.ActorRef
	ActorFunc = pstype.ActorFunc

	RestartTimerFunc   = pstype.RestartTimerFunc
	GetTimerTickMsFunc = pstype.GetTimerTickMsFunc
)

const (
	None      = pstype.None
	U8        = pstype.U8
	I8        = pstype.I8
	U16       = pstype.U16
	I16       = pstype.I16
	U32       = pstype.U32
	I32       = pstype.I32
	U64       = pstype.U64
	I64       = pstype.I64
	Timestamp = pstype.Timestamp
	ByteArray = pstype.ByteArray
	Str       = pstype.Str
	Bool      = pstype.Bool
)

const (
	Ok            = pstype.Ok
	Appended      = pstype.Appended
	Created       = pstype.Created
	ErrorResult   = pstype.ErrorResult
	NotFound      = pstype.NotFound
	Duplicated    = pstype.Duplicated
	OutOfMemory   = pstype.OutOfMemory
	RedefConflict = pstype.RedefConflict
)
