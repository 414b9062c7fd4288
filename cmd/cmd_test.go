package cmd

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidbridge/vidbridge/key"
	"github.com/vidbridge/vidbridge/protocol"
	"github.com/vidbridge/vidbridge/where"
)

func TestParseCommand(t *testing.T) {
	Convey("Command names map to messages", t, func() {
		m, err := parseCommand("play", nil)
		So(err, ShouldBeNil)
		So(m, ShouldResemble, protocol.Play{})

		m, err = parseCommand("close", nil)
		So(err, ShouldBeNil)
		So(m, ShouldResemble, protocol.Close{})

		m, err = parseCommand("seek", []string{"42.5"})
		So(err, ShouldBeNil)
		So(m, ShouldResemble, protocol.CurrentTime{CurrentTime: 42.5})
	})

	Convey("Seek needs a valid position", t, func() {
		_, err := parseCommand("seek", nil)
		So(err, ShouldNotBeNil)

		_, err = parseCommand("seek", []string{"soon"})
		So(err, ShouldNotBeNil)

		_, err = parseCommand("seek", []string{"-1"})
		So(err, ShouldNotBeNil)
	})

	Convey("Unknown commands are rejected", t, func() {
		_, err := parseCommand("rewind", nil)
		So(err, ShouldNotBeNil)
	})
}

func TestMatchInstance(t *testing.T) {
	tabs := protocol.Instances{
		{TabID: 1, Src: "holiday-2019.mp4"},
		{TabID: 2, Src: "trailer.webm"},
		{TabID: 3, Src: "trailer-extended.webm"},
	}

	Convey("The closest source wins", t, func() {
		So(matchInstance(tabs, "trailer").MustGet().TabID, ShouldEqual, 2)
		So(matchInstance(tabs, "HOLIDAY").MustGet().TabID, ShouldEqual, 1)
		So(matchInstance(tabs, "trext").MustGet().TabID, ShouldEqual, 3)
	})

	Convey("Nothing matches", t, func() {
		So(matchInstance(tabs, "zzz").IsAbsent(), ShouldBeTrue)
		So(matchInstance(nil, "trailer").IsAbsent(), ShouldBeTrue)
	})
}

func TestUnknownKey(t *testing.T) {
	Convey("Unknown config keys suggest the closest one", t, func() {
		err := errUnknownKey("transport.chanel")
		So(err.Error(), ShouldContainSubstring, key.TransportChannel)
	})
}

func TestEnvNames(t *testing.T) {
	Convey("Every config key has a prefixed variable", t, func() {
		names := envNames()
		So(names, ShouldContain, "VIDBRIDGE_TRANSPORT_RELAY_URL")
		So(names, ShouldContain, where.EnvConfigPath)
	})
}
