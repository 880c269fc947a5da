// Command pubsubdemo is a small interactive harness around the pubsub
// package: it arms a synthetic periodic timer topic, prints the
// topic-lifecycle ADD/DEL announcements (at most 20 per second), and lets the caller inject a
// publish from the command line. This is a harness around the core, not
// part of it, matching spec.md §1's treatment of the interactive CLI as
// an external collaborator.
package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	catrate "github.com/joeycumines/go-catrate"
	"github.com/spf13/cobra"

	pubsub "github.com/easyvolts/pubsub-actors"
)

func main() {
	var (
		tickMs  int32
		demoDur time.Duration
	)

	rootCmd := &cobra.Command{
		Use:           "pubsubdemo",
		Short:         "Exercise the pubsub dispatcher with a synthetic timer topic",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(tickMs, demoDur)
		},
	}
	rootCmd.Flags().Int32Var(&tickMs, "tick-ms", 250, "periodic timer duration, in milliseconds")
	rootCmd.Flags().DurationVar(&demoDur, "duration", 3*time.Second, "how long to run the demo loop")

	publishCmd := &cobra.Command{
		Use:   "publish <payload>",
		Short: "Publish a single message to .demo.str and print delivery",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runPublish(args[0])
		},
	}
	rootCmd.AddCommand(publishCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// run wires a Dispatcher to a simulated host timer (a time.Sleep of
// tickMs per iteration standing in for the hardware interrupt spec.md
// treats as an external collaborator),
// subscribes to the change topic, and runs the loop for demoDur.
func run(tickMs int32, demoDur time.Duration) error {
	var mu sync.Mutex
	var armed time.Duration

	d, err := pubsub.New(
		pubsub.WithLogger(pubsub.DefaultLogger()),
		pubsub.WithMetrics(true),
		pubsub.WithRestartTimer(func(toutMs int32) {
			mu.Lock()
			armed = time.Duration(toutMs) * time.Millisecond
			mu.Unlock()
		}),
		pubsub.WithGetTimerTickMs(func() int32 { return tickMs }),
	)
	if err != nil {
		return fmt.Errorf("pubsubdemo: new dispatcher: %w", err)
	}

	changeLimiter := catrate.NewLimiter(map[time.Duration]int{time.Second: 20})
	changeSub := &pubsub.ActorFunc{
		Label: "console",
		Fn: func(_ pubsub.TopicHash, payload []byte, _ pubsub.DataType) {
			if _, ok := changeLimiter.Allow("console"); ok {
				fmt.Printf("[topic change] %s\n", payload)
			}
		},
	}
	if _, err := d.CreateAndSubTpcChange(changeSub); err != nil {
		return fmt.Errorf("pubsubdemo: subscribe change topic: %w", err)
	}

	tickSub := &pubsub.ActorFunc{
		Label: "ticker",
		Fn: func(hash pubsub.TopicHash, _ []byte, _ pubsub.DataType) {
			fmt.Printf("[tick] topic %d fired\n", hash)
		},
	}
	if _, err := d.CreateAndSubTimer(pubsub.TickPrefix+".demo", tickSub, "demo periodic tick", tickMs); err != nil {
		return fmt.Errorf("pubsubdemo: create timer: %w", err)
	}

	deadline := time.Now().Add(demoDur)
	for time.Now().Before(deadline) {
		time.Sleep(time.Duration(tickMs) * time.Millisecond)
		mu.Lock()
		_ = armed // host would use this to rearm a real hardware timer
		mu.Unlock()
		d.PubTimerTimeoutEvent()
		for d.WaitingEvents() > 0 {
			if _, err := d.Loop(); err != nil {
				return fmt.Errorf("pubsubdemo: loop: %w", err)
			}
		}
	}

	m := d.Metrics()
	fmt.Printf("topics created=%d gc=%d delivered=%d timer expiries=%d\n",
		m.TopicsCreated, m.TopicsGC, m.Delivered, m.TimerExpiries)
	return nil
}

// runPublish exercises RegisterTopicPublisher/SubscribeSingle/Publish/Loop
// end to end for a single manual message.
func runPublish(payload string) error {
	d, err := pubsub.New()
	if err != nil {
		return err
	}

	p := &pubsub.ActorFunc{Label: "cli"}
	hash, _, err := d.RegisterTopicPublisher(p, pubsub.Str, ".demo.str", "manual publish demo", false)
	if err != nil {
		return fmt.Errorf("pubsubdemo: register: %w", err)
	}

	s := &pubsub.ActorFunc{
		Label: "console",
		Fn: func(_ pubsub.TopicHash, data []byte, _ pubsub.DataType) {
			fmt.Printf("[delivered] %s\n", data)
		},
	}
	if _, _, _, err := d.SubscribeSingle(".demo.str", pubsub.Str, s); err != nil {
		return fmt.Errorf("pubsubdemo: subscribe: %w", err)
	}

	if _, err := d.Publish(p, hash, []byte(payload)); err != nil {
		return fmt.Errorf("pubsubdemo: publish: %w", err)
	}
	if _, err := d.Loop(); err != nil {
		return fmt.Errorf("pubsubdemo: loop: %w", err)
	}
	return nil
}
