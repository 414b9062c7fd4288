package registry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidbridge/vidbridge/observer"
	"github.com/vidbridge/vidbridge/protocol"
	"github.com/vidbridge/vidbridge/transport"
)

type recorder struct {
	mu        sync.Mutex
	envelopes []protocol.Envelope
}

func record(bus *transport.Bus) *recorder {
	r := &recorder{}
	_, _ = bus.Listen(func(e protocol.Envelope) {
		r.mu.Lock()
		r.envelopes = append(r.envelopes, e)
		r.mu.Unlock()
	})
	return r
}

func (r *recorder) of(command protocol.Command) []protocol.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []protocol.Envelope
	for _, e := range r.envelopes {
		if e.Command() == command {
			out = append(out, e)
		}
	}
	return out
}

// eventually polls until n envelopes of command have been recorded.
func (r *recorder) eventually(bus *transport.Bus, command protocol.Command, n int) []protocol.Envelope {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		bus.Drain()
		if got := r.of(command); len(got) >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	return r.of(command)
}

func tabs(ids ...int) protocol.Instances {
	out := make(protocol.Instances, 0, len(ids))
	for _, id := range ids {
		out = append(out, protocol.Instance{TabID: id, Src: "clip"})
	}
	return out
}

func fromBridge(bus *transport.Bus, m protocol.Message) {
	_ = bus.Post(protocol.Broadcast(protocol.Bridge, m))
	bus.Drain()
}

func TestRegistry(t *testing.T) {
	Convey("Given a registry on a bus", t, func() {
		bus := transport.NewBus()
		fake := clockwork.NewFakeClock()
		rec := record(bus)

		reg, err := New(bus, WithClock(fake), WithID("controller-1"))
		So(err, ShouldBeNil)

		Reset(func() {
			_ = reg.Close()
			_ = bus.Close()
		})

		So(reg.ID(), ShouldEqual, "controller-1")
		So(reg.Tabs(), ShouldBeEmpty)

		Convey("Every tabs command replaces the snapshot wholesale", func() {
			fromBridge(bus, protocol.Tabs{Tabs: tabs(1, 2, 3)})
			So(reg.Tabs(), ShouldResemble, tabs(1, 2, 3))

			fromBridge(bus, protocol.Tabs{Tabs: tabs(4)})
			So(reg.Tabs(), ShouldResemble, tabs(4))

			fromBridge(bus, protocol.Tabs{Tabs: protocol.Instances{}})
			So(reg.Tabs(), ShouldBeEmpty)
		})

		Convey("Tabs observers see the snapshot in registration order", func() {
			var order []string
			var seen protocol.Instances
			reg.SubscribeTabs(observer.Func(func(s protocol.Instances) {
				order = append(order, "first")
				seen = s
			}))
			reg.SubscribeTabs(observer.Func(func(protocol.Instances) {
				order = append(order, "second")
			}))

			fromBridge(bus, protocol.Tabs{Tabs: tabs(9)})

			So(order, ShouldResemble, []string{"first", "second"})
			So(seen, ShouldResemble, tabs(9))
		})

		Convey("ackTabs is sent only when requested, once per tabs command", func() {
			fromBridge(bus, protocol.Tabs{Tabs: tabs(1)})
			So(rec.of(protocol.CommandAckTabs), ShouldBeEmpty)

			fromBridge(bus, protocol.Tabs{Tabs: tabs(1, 2), AckRequested: true})
			acks := rec.of(protocol.CommandAckTabs)
			So(acks, ShouldHaveLength, 1)
			So(acks[0].Sender, ShouldEqual, protocol.Controller)
			So(acks[0].Message, ShouldResemble, protocol.AckTabs{ID: "controller-1", ReceivedTabs: tabs(1, 2)})

			fromBridge(bus, protocol.Tabs{Tabs: tabs(3), AckRequested: true})
			So(rec.of(protocol.CommandAckTabs), ShouldHaveLength, 2)
		})

		Convey("The version resolves on the first message and stays pinned", func() {
			So(reg.KnownVersion().IsPresent(), ShouldBeFalse)

			fromBridge(bus, protocol.Version{Version: "1.0.0"})
			fromBridge(bus, protocol.Version{Version: "2.0.0"})

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			v, err := reg.InstalledVersion(ctx)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "1.0.0")
		})

		Convey("InstalledVersion honours the caller's deadline", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()
			_, err := reg.InstalledVersion(ctx)
			So(err, ShouldEqual, context.DeadlineExceeded)
		})

		Convey("Other commands reach message observers with their address", func() {
			var got []Message
			reg.Subscribe(observer.Func(func(m Message) { got = append(got, m) }))

			instance := protocol.Instance{TabID: 5, Src: "clip"}
			bus.Post(protocol.To(protocol.Bridge, protocol.Ready{Duration: 120}, instance))
			bus.Drain()

			So(got, ShouldHaveLength, 1)
			So(got[0].Data, ShouldResemble, protocol.Ready{Duration: 120})
			So(got[0].Instance().MustGet(), ShouldResemble, instance)
		})

		Convey("Tabs and version never reach message observers", func() {
			var count int
			reg.Subscribe(observer.Func(func(Message) { count++ }))

			fromBridge(bus, protocol.Tabs{Tabs: tabs(1)})
			fromBridge(bus, protocol.Version{Version: "1.0.0"})
			So(count, ShouldEqual, 0)
		})

		Convey("Envelopes from controllers are ignored", func() {
			var count int
			reg.Subscribe(observer.Func(func(Message) { count++ }))

			bus.Post(protocol.Broadcast(protocol.Controller, protocol.Tabs{Tabs: tabs(1)}))
			bus.Post(protocol.Broadcast(protocol.Controller, protocol.Play{}))
			bus.Drain()

			So(reg.Tabs(), ShouldBeEmpty)
			So(count, ShouldEqual, 0)
		})

		Convey("Unsubscribe removes only the last registration", func() {
			var count int
			cb := observer.Func(func(Message) { count++ })

			reg.Subscribe(cb)
			reg.Unsubscribe(cb)
			fromBridge(bus, protocol.Play{})
			So(count, ShouldEqual, 0)

			reg.Subscribe(cb)
			reg.Subscribe(cb)
			reg.Unsubscribe(cb)
			fromBridge(bus, protocol.Play{})
			fromBridge(bus, protocol.Pause{})
			So(count, ShouldEqual, 2)
		})

		Convey("SendMessage addresses one instance", func() {
			So(reg.SendMessage(protocol.Play{}, 3, "clip"), ShouldBeNil)
			bus.Drain()

			plays := rec.of(protocol.CommandPlay)
			So(plays, ShouldHaveLength, 1)
			So(plays[0].Target().MustGet(), ShouldResemble, protocol.Instance{TabID: 3, Src: "clip"})
		})

		Convey("PublishMessage addresses every instance of the snapshot", func() {
			fromBridge(bus, protocol.Tabs{Tabs: tabs(1, 2)})
			So(reg.PublishMessage(protocol.Pause{}), ShouldBeNil)
			bus.Drain()

			pauses := rec.of(protocol.CommandPause)
			So(pauses, ShouldHaveLength, 2)
			So(pauses[0].Target().MustGet().TabID, ShouldEqual, 1)
			So(pauses[1].Target().MustGet().TabID, ShouldEqual, 2)
		})

		Convey("The heartbeat", func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			Convey("Beats once immediately and once per interval", func() {
				fromBridge(bus, protocol.Tabs{Tabs: tabs(1)})
				reg.StartHeartbeat()

				beats := rec.eventually(bus, protocol.CommandHeartbeat, 1)
				So(beats, ShouldHaveLength, 1)
				So(beats[0].Message, ShouldResemble, protocol.Heartbeat{ID: "controller-1", ReceivedTabs: tabs(1)})

				So(fake.BlockUntilContext(ctx, 1), ShouldBeNil)
				fake.Advance(999 * time.Millisecond)
				bus.Drain()
				So(rec.of(protocol.CommandHeartbeat), ShouldHaveLength, 1)

				fake.Advance(time.Millisecond)
				So(rec.eventually(bus, protocol.CommandHeartbeat, 2), ShouldHaveLength, 2)
			})

			Convey("A second start adds no timer", func() {
				reg.StartHeartbeat()
				reg.StartHeartbeat()

				So(fake.BlockUntilContext(ctx, 1), ShouldBeNil)
				So(rec.eventually(bus, protocol.CommandHeartbeat, 1), ShouldHaveLength, 1)

				fake.Advance(time.Second)
				So(rec.eventually(bus, protocol.CommandHeartbeat, 2), ShouldHaveLength, 2)
				time.Sleep(20 * time.Millisecond)
				bus.Drain()
				So(rec.of(protocol.CommandHeartbeat), ShouldHaveLength, 2)
			})

			Convey("Stops on request", func() {
				reg.StartHeartbeat()
				So(fake.BlockUntilContext(ctx, 1), ShouldBeNil)
				reg.StopHeartbeat()
				reg.StopHeartbeat()

				fake.Advance(5 * time.Second)
				time.Sleep(20 * time.Millisecond)
				bus.Drain()
				So(rec.of(protocol.CommandHeartbeat), ShouldHaveLength, 1)
			})
		})

		Convey("Close releases the listener and is idempotent", func() {
			before := bus.Listeners()
			So(reg.Close(), ShouldBeNil)
			So(reg.Close(), ShouldBeNil)
			So(bus.Listeners(), ShouldEqual, before-1)

			fromBridge(bus, protocol.Tabs{Tabs: tabs(1)})
			So(reg.Tabs(), ShouldBeEmpty)
		})
	})
}
