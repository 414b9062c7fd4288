package player

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestResolveSource(t *testing.T) {
	Convey("ResolveSource", t, func() {
		Convey("Appends the id to the base URL", func() {
			got, err := ResolveSource("http://localhost:8080/stream", "movie.mkv")
			So(err, ShouldBeNil)
			So(got, ShouldEqual, "http://localhost:8080/stream/movie.mkv")
		})

		Convey("Uses full URLs as they are", func() {
			got, err := ResolveSource("http://localhost:8080", "https://example.com/a.mp4")
			So(err, ShouldBeNil)
			So(got, ShouldEqual, "https://example.com/a.mp4")
		})

		Convey("Treats the id as a path without a base", func() {
			got, err := ResolveSource("", "videos/../videos/a.mp4")
			So(err, ShouldBeNil)
			So(got, ShouldEqual, "videos/a.mp4")
		})

		Convey("Rejects unsafe targets", func() {
			for _, src := range []string{"", "--script=evil.lua", "ftp://host/a.mp4", "a\nb"} {
				_, err := ResolveSource("", src)
				So(err, ShouldNotBeNil)
			}
		})
	})
}
