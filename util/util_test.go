package util

import (
	"testing"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidbridge/vidbridge/filesystem"
)

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "instance", "instances"), ShouldEqual, "1 instance")
		So(Quantify(0, "instance", "instances"), ShouldEqual, "0 instances")
		So(Quantify(3, "instance", "instances"), ShouldEqual, "3 instances")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("log files"), ShouldEqual, "Log files")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestMaxMin(t *testing.T) {
	Convey("Max/Min", t, func() {
		So(Max(1.0, 2.5, 0.5), ShouldEqual, 2.5)
		So(Min(4, 5, 2), ShouldEqual, 2)
		So(Max[int](), ShouldEqual, 0)
	})
}

func TestDelete(t *testing.T) {
	Convey("Given an in-memory tree", t, func() {
		filesystem.SetMemMapFs()
		fs := filesystem.API()
		lo.Must0(fs.MkdirAll("/tmp/vidbridge/sockets", 0o755))
		lo.Must0(fs.WriteFile("/tmp/vidbridge/sockets/mpv.sock", nil, 0o600))

		Convey("Delete should remove it recursively", func() {
			So(Delete("/tmp/vidbridge"), ShouldBeNil)
			So(lo.Must(fs.Exists("/tmp/vidbridge/sockets/mpv.sock")), ShouldBeFalse)
		})

		Convey("Delete should fail on a missing path", func() {
			So(Delete("/nope"), ShouldNotBeNil)
		})
	})
}
