package bridge

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidbridge/vidbridge/protocol"
	"github.com/vidbridge/vidbridge/transport"
)

func TestBridge(t *testing.T) {
	Convey("Given a bridge on a bus", t, func() {
		bus := transport.NewBus()
		fake := clockwork.NewFakeClock()

		var mu sync.Mutex
		var sent []protocol.Envelope
		bus.Listen(func(e protocol.Envelope) {
			mu.Lock()
			defer mu.Unlock()
			if e.Command() == protocol.CommandTabs || e.Command() == protocol.CommandVersion {
				sent = append(sent, e)
			}
		})
		outgoing := func() []protocol.Message {
			bus.Drain()
			mu.Lock()
			defer mu.Unlock()
			out := make([]protocol.Message, 0, len(sent))
			for _, e := range sent {
				out = append(out, e.Message)
			}
			sent = nil
			return out
		}

		b, err := New(bus, WithClock(fake), WithTTL(3*time.Second), WithVersion("0.3.0"))
		So(err, ShouldBeNil)
		Reset(func() {
			_ = b.Close()
			_ = bus.Close()
		})

		first := protocol.Instance{TabID: 1, Src: "a"}
		second := protocol.Instance{TabID: 2, Src: "b"}
		fromPage := func(m protocol.Message, i protocol.Instance) {
			bus.Post(protocol.To(protocol.Bridge, m, i))
			bus.Drain()
		}
		fromController := func(m protocol.Message) {
			bus.Post(protocol.Broadcast(protocol.Controller, m))
			bus.Drain()
		}

		Convey("Ready pages are added and announced", func() {
			var changes []protocol.Instances
			b.OnChange(func(s protocol.Instances) { changes = append(changes, s) })

			fromPage(protocol.Ready{Duration: 10}, first)
			fromPage(protocol.Ready{Duration: 20}, second)
			fromPage(protocol.Ready{Duration: 20}, second)

			So(b.Instances(), ShouldResemble, protocol.Instances{first, second})
			So(changes, ShouldHaveLength, 2)
			So(outgoing(), ShouldResemble, []protocol.Message{
				protocol.Tabs{Tabs: protocol.Instances{first}, AckRequested: true},
				protocol.Tabs{Tabs: protocol.Instances{first, second}, AckRequested: true},
			})

			Convey("and closed pages removed", func() {
				fromPage(protocol.Close{}, first)
				fromPage(protocol.Close{}, first)

				So(b.Instances(), ShouldResemble, protocol.Instances{second})
				So(outgoing(), ShouldResemble, []protocol.Message{
					protocol.Tabs{Tabs: protocol.Instances{second}, AckRequested: true},
				})
			})
		})

		Convey("Other page events change nothing", func() {
			fromPage(protocol.Play{}, first)
			bus.Post(protocol.Broadcast(protocol.Bridge, protocol.Ready{Duration: 1}))
			bus.Drain()

			So(b.Instances(), ShouldBeEmpty)
			So(outgoing(), ShouldBeEmpty)
		})

		Convey("A new controller gets the version and the snapshot once", func() {
			fromController(protocol.Heartbeat{ID: "c1"})
			fromController(protocol.Heartbeat{ID: "c1"})

			So(outgoing(), ShouldResemble, []protocol.Message{
				protocol.Version{Version: "0.3.0"},
				protocol.Tabs{Tabs: protocol.Instances{}, AckRequested: true},
			})

			controllers := b.Controllers()
			So(controllers, ShouldHaveLength, 1)
			So(controllers[0].ID, ShouldEqual, "c1")
			So(controllers[0].Acknowledged.IsPresent(), ShouldBeFalse)
		})

		Convey("A controller with a stale snapshot is sent the current one", func() {
			fromPage(protocol.Ready{Duration: 10}, first)
			outgoing()

			fromController(protocol.Heartbeat{ID: "c1", ReceivedTabs: protocol.Instances{first}})
			So(outgoing(), ShouldResemble, []protocol.Message{
				protocol.Version{Version: "0.3.0"},
				protocol.Tabs{Tabs: protocol.Instances{first}, AckRequested: true},
			})

			fromController(protocol.Heartbeat{ID: "c1", ReceivedTabs: protocol.Instances{first}})
			So(outgoing(), ShouldBeEmpty)

			fromController(protocol.Heartbeat{ID: "c1"})
			So(outgoing(), ShouldResemble, []protocol.Message{
				protocol.Tabs{Tabs: protocol.Instances{first}, AckRequested: true},
			})
		})

		Convey("Acknowledgments are recorded", func() {
			fromController(protocol.Heartbeat{ID: "c1"})
			fromController(protocol.AckTabs{ID: "c1", ReceivedTabs: protocol.Instances{first}})

			ack := b.Controllers()[0].Acknowledged
			So(ack.MustGet(), ShouldResemble, protocol.Instances{first})
		})

		Convey("Silent controllers expire and are greeted again", func() {
			fromController(protocol.Heartbeat{ID: "c1"})
			outgoing()

			fake.Advance(2 * time.Second)
			So(b.Controllers(), ShouldHaveLength, 1)

			fake.Advance(2 * time.Second)
			So(b.Controllers(), ShouldBeEmpty)

			fromController(protocol.Heartbeat{ID: "c1", ReceivedTabs: protocol.Instances{}})
			So(outgoing(), ShouldResemble, []protocol.Message{
				protocol.Version{Version: "0.3.0"},
				protocol.Tabs{Tabs: protocol.Instances{}, AckRequested: true},
			})
		})

		Convey("Pages that stop announcing are forgotten", func() {
			var changes []protocol.Instances
			b.OnChange(func(s protocol.Instances) { changes = append(changes, s) })

			fromPage(protocol.Ready{Duration: 10}, first)
			fromPage(protocol.Ready{Duration: 20}, second)
			fromController(protocol.Heartbeat{ID: "c1", ReceivedTabs: protocol.Instances{first, second}})
			outgoing()

			fake.Advance(2 * time.Second)
			fromPage(protocol.Ready{Duration: 20}, second)
			fromController(protocol.Heartbeat{ID: "c1", ReceivedTabs: protocol.Instances{first, second}})
			So(outgoing(), ShouldBeEmpty)

			fake.Advance(2 * time.Second)
			fromController(protocol.Heartbeat{ID: "c1", ReceivedTabs: protocol.Instances{first, second}})

			So(b.Instances(), ShouldResemble, protocol.Instances{second})
			So(changes[len(changes)-1], ShouldResemble, protocol.Instances{second})
			So(outgoing(), ShouldResemble, []protocol.Message{
				protocol.Tabs{Tabs: protocol.Instances{second}, AckRequested: true},
			})

			Convey("and come back when they announce again", func() {
				fromPage(protocol.Ready{Duration: 10}, first)
				So(b.Instances(), ShouldResemble, protocol.Instances{second, first})
			})
		})

		Convey("Close releases the listener", func() {
			So(b.Close(), ShouldBeNil)
			So(b.Close(), ShouldBeNil)
			fromPage(protocol.Ready{Duration: 10}, first)
			So(b.Instances(), ShouldBeEmpty)
		})
	})
}
