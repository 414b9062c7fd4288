package clock

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClock(t *testing.T) {
	Convey("Given a stopped clock on virtual time", t, func() {
		fake := clockwork.NewFakeClock()
		c := New(fake)

		So(c.Running(), ShouldBeFalse)
		So(c.CurrentTime(), ShouldEqual, 0)

		Convey("Running for 500ms then stopping reads 500ms", func() {
			c.Start()
			fake.Advance(500 * time.Millisecond)
			c.Stop()

			So(c.CurrentTime(), ShouldEqual, 500*time.Millisecond)

			Convey("And time passing while stopped changes nothing", func() {
				fake.Advance(time.Second)
				So(c.CurrentTime(), ShouldEqual, 500*time.Millisecond)
			})
		})

		Convey("SetTime while stopped then running 100ms reads 2100ms", func() {
			c.SetTime(2000 * time.Millisecond)
			So(c.Running(), ShouldBeFalse)

			c.Start()
			fake.Advance(100 * time.Millisecond)
			So(c.CurrentTime(), ShouldEqual, 2100*time.Millisecond)
		})

		Convey("SetTime while running keeps it running from the new value", func() {
			c.Start()
			fake.Advance(3 * time.Second)
			c.SetTime(42 * time.Second)
			So(c.Running(), ShouldBeTrue)
			So(c.CurrentTime(), ShouldEqual, 42*time.Second)

			fake.Advance(time.Second)
			So(c.CurrentTime(), ShouldEqual, 43*time.Second)
		})

		Convey("Start and Stop are idempotent", func() {
			c.Start()
			fake.Advance(time.Second)
			c.Start()
			fake.Advance(time.Second)
			So(c.CurrentTime(), ShouldEqual, 2*time.Second)

			c.Stop()
			c.Stop()
			So(c.CurrentTime(), ShouldEqual, 2*time.Second)
		})

		Convey("Reads never decrease while running", func() {
			c.Start()
			last := c.CurrentTime()
			for i := 0; i < 10; i++ {
				fake.Advance(37 * time.Millisecond)
				now := c.CurrentTime()
				So(now, ShouldBeGreaterThanOrEqualTo, last)
				last = now
			}
		})
	})
}

func TestFromSeconds(t *testing.T) {
	Convey("Wire seconds convert to durations", t, func() {
		So(FromSeconds(42.0), ShouldEqual, 42*time.Second)
		So(FromSeconds(0.5), ShouldEqual, 500*time.Millisecond)
	})
}
