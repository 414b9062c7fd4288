package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidbridge/vidbridge/clock"
	"github.com/vidbridge/vidbridge/player"
	"github.com/vidbridge/vidbridge/protocol"
	"github.com/vidbridge/vidbridge/registry"
	"github.com/vidbridge/vidbridge/transport"
)

func TestBubble(t *testing.T) {
	Convey("Given a controller bubble", t, func() {
		bus := transport.NewBus()
		reg, err := registry.New(bus)
		So(err, ShouldBeNil)
		Reset(func() {
			_ = reg.Close()
			_ = bus.Close()
		})

		var mu sync.Mutex
		var sent []protocol.Envelope
		bus.Listen(func(e protocol.Envelope) {
			if e.Sender == protocol.Controller && e.Command() != protocol.CommandHeartbeat {
				mu.Lock()
				sent = append(sent, e)
				mu.Unlock()
			}
		})
		commands := func() []protocol.Message {
			bus.Drain()
			mu.Lock()
			defer mu.Unlock()
			out := make([]protocol.Message, 0, len(sent))
			for _, e := range sent {
				out = append(out, e.Message)
			}
			return out
		}

		fake := clockwork.NewFakeClock()
		b := newBubble(&Options{Registry: reg})
		b.newClock = func() *clock.Clock { return clock.New(fake) }
		b.resize(100, 40)

		So(b.state, ShouldEqual, loadingState)

		instance := protocol.Instance{TabID: 3, Src: "movie"}

		Convey("The version moves to the instance list", func() {
			b.Update(versionMsg{version: "0.3.0"})
			So(b.state, ShouldEqual, instancesState)
			So(b.bridgeVersion, ShouldResemble, mo.Some("0.3.0"))
			So(b.compatible, ShouldBeTrue)
		})

		Convey("An old bridge is flagged", func() {
			b.Update(versionMsg{version: "0.0.1"})
			So(b.compatible, ShouldBeFalse)
			So(b.status, ShouldContainSubstring, "too old")
		})

		Convey("A missing bridge is reported", func() {
			b.Update(versionMsg{err: errTimeout})
			So(b.state, ShouldEqual, instancesState)
			So(b.bridgeVersion.IsPresent(), ShouldBeFalse)
		})

		Convey("Registry snapshots reach the bubble", func() {
			bus.Post(protocol.Broadcast(protocol.Bridge, protocol.Tabs{Tabs: protocol.Instances{instance}}))
			bus.Drain()

			select {
			case tabs := <-b.tabsChannel:
				So(tabs, ShouldResemble, protocol.Instances{instance})
			case <-time.After(time.Second):
				So("no snapshot", ShouldBeEmpty)
			}
		})

		Convey("With one ready instance listed", func() {
			b.Update(versionMsg{version: "0.3.0"})
			b.Update(tabsMsg(protocol.Instances{instance}))
			b.Update(eventMsg(registry.Message{
				Data:  protocol.Ready{Duration: 60},
				TabID: mo.Some(instance.TabID),
				Src:   mo.Some(instance.Src),
			}))

			e := b.entries[instance]
			So(e.state, ShouldEqual, player.Ready)
			So(e.duration, ShouldEqual, time.Minute)

			space := tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}

			Convey("space plays then pauses", func() {
				b.Update(space)
				So(e.state, ShouldEqual, player.Playing)

				fake.Advance(2 * time.Second)
				b.Update(space)
				So(e.state, ShouldEqual, player.Paused)

				So(commands(), ShouldResemble, []protocol.Message{protocol.Play{}, protocol.Pause{}})
				So(e.clock.CurrentTime(), ShouldEqual, 2*time.Second)
			})

			Convey("arrows seek within the media", func() {
				b.Update(tea.KeyMsg{Type: tea.KeyRight})
				b.Update(tea.KeyMsg{Type: tea.KeyLeft})
				b.Update(tea.KeyMsg{Type: tea.KeyLeft})

				So(commands(), ShouldResemble, []protocol.Message{
					protocol.CurrentTime{CurrentTime: 5},
					protocol.CurrentTime{CurrentTime: 0},
					protocol.CurrentTime{CurrentTime: 0},
				})
			})

			Convey("page requests are confirmed back to the page", func() {
				b.Update(eventMsg(registry.Message{
					Data:  protocol.Play{},
					TabID: mo.Some(instance.TabID),
					Src:   mo.Some(instance.Src),
				}))

				So(commands(), ShouldResemble, []protocol.Message{protocol.Play{}})
				So(e.state, ShouldEqual, player.Playing)
			})

			Convey("x closes the instance", func() {
				b.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
				So(e.state, ShouldEqual, player.Closed)
				So(commands(), ShouldResemble, []protocol.Message{protocol.Close{}})

				b.Update(space)
				So(commands(), ShouldHaveLength, 1)
			})

			Convey("a new snapshot drops vanished instances", func() {
				b.Update(tabsMsg(protocol.Instances{}))
				So(b.entries, ShouldBeEmpty)
				So(b.instancesC.Items(), ShouldBeEmpty)
			})
		})

		Convey("detach unsubscribes from the registry", func() {
			b.detach()
			bus.Post(protocol.Broadcast(protocol.Bridge, protocol.Tabs{Tabs: protocol.Instances{instance}}))
			bus.Drain()
			So(len(b.tabsChannel), ShouldEqual, 0)
		})
	})
}

func TestEntry(t *testing.T) {
	Convey("Seeking is clamped to the media", t, func() {
		fake := clockwork.NewFakeClock()
		e := newEntry(protocol.Instance{}, clock.New(fake))
		e.ready(10)

		So(e.seek(-time.Second).CurrentTime, ShouldEqual, 0)
		So(e.seek(30*time.Second).CurrentTime, ShouldEqual, 10)

		e.apply(protocol.CurrentTime{CurrentTime: 4})
		So(e.seek(time.Second).CurrentTime, ShouldEqual, 5)
	})

	Convey("Commands before ready are not mirrored", t, func() {
		e := newEntry(protocol.Instance{}, nil)
		e.apply(protocol.Play{})
		So(e.state, ShouldEqual, player.Uninitialized)
	})
}

func TestFormatDuration(t *testing.T) {
	Convey("Durations render as clock time", t, func() {
		So(formatDuration(0), ShouldEqual, "0:00")
		So(formatDuration(83*time.Second+400*time.Millisecond), ShouldEqual, "1:23")
		So(formatDuration(time.Hour+2*time.Minute+3*time.Second), ShouldEqual, "1:02:03")
	})
}

var errTimeout = context.DeadlineExceeded
