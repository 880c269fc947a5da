package pubsub

// Metrics tracks runtime counters for a Dispatcher, enabled via
// WithMetrics. Unlike the teacher's eventloop.Metrics (thread-safe,
// since a Loop can be driven from multiple goroutines), Metrics carries
// no lock: it is only ever touched from inside Dispatcher methods, which
// already assume single-threaded-by-contract access (see doc.go).
type Metrics struct {
	TopicsCreated  uint64
	TopicsGC       uint64
	Published      uint64
	PublishDropped uint64 // enqueue failed: queue full (OutOfMemory)
	Delivered      uint64 // subscriber invocations across all Loop calls
	TimerExpiries  uint64
	HandlerPanics  uint64 // recovered, only incremented when WithRecoverHandlerPanics is set
}

func (m *Metrics) incTopicsCreated() { m.bump(func(m *Metrics) *uint64 { return &m.TopicsCreated }) }
func (m *Metrics) incTopicsGC()      { m.bump(func(m *Metrics) *uint64 { return &m.TopicsGC }) }
func (m *Metrics) incPublished()     { m.bump(func(m *Metrics) *uint64 { return &m.Published }) }
func (m *Metrics) incPublishDropped() {
	m.bump(func(m *Metrics) *uint64 { return &m.PublishDropped })
}
func (m *Metrics) incDelivered()     { m.bump(func(m *Metrics) *uint64 { return &m.Delivered }) }
func (m *Metrics) incTimerExpiries() { m.bump(func(m *Metrics) *uint64 { return &m.TimerExpiries }) }
func (m *Metrics) incHandlerPanics() { m.bump(func(m *Metrics) *uint64 { return &m.HandlerPanics }) }

// bump increments the counter selected by field if m is non-nil, so call
// sites don't need a nil check before every counter touch. The field's
// address is only taken after the nil check, since &m.X panics on a nil m.
func (m *Metrics) bump(field func(*Metrics) *uint64) {
	if m == nil {
		return
	}
	*field(m)++
}
