package transport

import (
	"sync"
	"sync/atomic"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidbridge/vidbridge/protocol"
)

func TestBus(t *testing.T) {
	Convey("Given a bus", t, func() {
		bus := NewBus()
		Reset(func() { _ = bus.Close() })

		Convey("Envelopes are delivered in posting order", func() {
			var got []protocol.Command
			_, err := bus.Listen(func(e protocol.Envelope) {
				got = append(got, e.Command())
			})
			So(err, ShouldBeNil)

			So(bus.Post(protocol.Broadcast(protocol.Controller, protocol.Play{})), ShouldBeNil)
			So(bus.Post(protocol.Broadcast(protocol.Controller, protocol.Pause{})), ShouldBeNil)
			So(bus.Post(protocol.Broadcast(protocol.Controller, protocol.Close{})), ShouldBeNil)
			bus.Drain()

			So(got, ShouldResemble, []protocol.Command{
				protocol.CommandPlay,
				protocol.CommandPause,
				protocol.CommandClose,
			})
		})

		Convey("Every listener receives its own copy", func() {
			var first, second protocol.Tabs
			bus.Listen(func(e protocol.Envelope) {
				first = e.Message.(protocol.Tabs)
				first.Tabs[0].Src = "changed"
			})
			bus.Listen(func(e protocol.Envelope) {
				second = e.Message.(protocol.Tabs)
			})

			tabs := protocol.Tabs{Tabs: protocol.Instances{{TabID: 1, Src: "a"}}}
			bus.Post(protocol.Broadcast(protocol.Bridge, tabs))
			bus.Drain()

			So(first.Tabs[0].Src, ShouldEqual, "changed")
			So(second.Tabs[0].Src, ShouldEqual, "a")
			So(tabs.Tabs[0].Src, ShouldEqual, "a")
		})

		Convey("Addressing fields survive the trip", func() {
			var got protocol.Envelope
			bus.Listen(func(e protocol.Envelope) { got = e })

			target := protocol.Instance{TabID: 7, Src: "clip"}
			bus.Post(protocol.To(protocol.Controller, protocol.CurrentTime{CurrentTime: 4.5}, target))
			bus.Drain()

			So(got.Sender, ShouldEqual, protocol.Controller)
			So(got.Target().MustGet(), ShouldResemble, target)
			So(got.Message, ShouldResemble, protocol.CurrentTime{CurrentTime: 4.5})
		})

		Convey("A closed subscription stops receiving", func() {
			var count int
			sub, _ := bus.Listen(func(protocol.Envelope) { count++ })

			bus.Post(protocol.Broadcast(protocol.Controller, protocol.Play{}))
			bus.Drain()
			sub.Close()
			sub.Close()
			bus.Post(protocol.Broadcast(protocol.Controller, protocol.Play{}))
			bus.Drain()

			So(count, ShouldEqual, 1)
			So(bus.Listeners(), ShouldEqual, 0)
		})

		Convey("Handlers never run concurrently", func() {
			var running, overlaps int32
			var wg sync.WaitGroup
			handler := func(protocol.Envelope) {
				if atomic.AddInt32(&running, 1) > 1 {
					atomic.AddInt32(&overlaps, 1)
				}
				atomic.AddInt32(&running, -1)
			}
			bus.Listen(handler)
			bus.Listen(handler)

			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 25; j++ {
						bus.Post(protocol.Broadcast(protocol.Bridge, protocol.Play{}))
					}
				}()
			}
			wg.Wait()
			bus.Drain()

			So(atomic.LoadInt32(&overlaps), ShouldEqual, 0)
		})

		Convey("A closed bus rejects posts and listeners", func() {
			So(bus.Close(), ShouldBeNil)
			So(bus.Close(), ShouldBeNil)

			So(bus.Post(protocol.Broadcast(protocol.Controller, protocol.Play{})), ShouldEqual, ErrClosed)
			_, err := bus.Listen(func(protocol.Envelope) {})
			So(err, ShouldEqual, ErrClosed)
		})
	})
}

func TestSubscription(t *testing.T) {
	Convey("Release runs exactly once", t, func() {
		var calls int
		sub := NewSubscription(func() { calls++ })
		sub.Close()
		sub.Close()
		So(calls, ShouldEqual, 1)

		var nilSub *Subscription
		So(func() { nilSub.Close() }, ShouldNotPanic)
	})
}
