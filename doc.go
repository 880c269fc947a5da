// Package pubsub implements an in-process publish/subscribe dispatcher
// for small, statically-provisioned environments: embedded controllers
// and single-address-space runtimes where a fixed set of topics carries
// typed messages between actors.
//
// # Architecture
//
// The dispatcher is built around a fixed-capacity topic registry
// ([registry.Table]), a variable-size circular byte queue
// ([ring.Buffer]) that decouples publication from delivery, and a timer
// table ([timer.Table]) that republishes expiries through the same
// pub/sub plane. [Dispatcher] composes the three into the public API:
// register/publish/subscribe/mute, timer topics, and a topic-change
// announcement service.
//
// # Thread Safety
//
// Dispatcher is not safe for concurrent use. Every exported method
// assumes the caller serializes access — wrap calls (including
// PubTimerTimeoutEvent from a timer interrupt) in a critical section if
// more than one goroutine or interrupt context can reach the dispatcher.
// Dispatcher keeps no internal lock, by design: the allocation-free,
// single-threaded core is the point.
//
// # Usage
//
//	d, err := pubsub.New(
//		pubsub.WithQueueBytes(1024),
//		pubsub.WithRestartTimer(armHardwareTimer),
//		pubsub.WithGetTimerTickMs(elapsedSinceArm),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	hash, _, err := d.RegisterTopicPublisher(producer, pstype.Bool, ".demo.bool", "demo flag", false)
//	if err != nil {
//		log.Fatal(err)
//	}
//	d.SubscribeSingle(".demo.bool", pstype.Bool, consumer)
//	d.Publish(producer, hash, []byte{1})
//	d.Loop()
package pubsub
