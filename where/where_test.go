package where

import (
	"path/filepath"
	"testing"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidbridge/vidbridge/filesystem"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestPaths(t *testing.T) {
	Convey("Path functions", t, func() {
		Convey("Config()", func() {
			path := Config()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Logs() should live under Config()", func() {
			path := Logs()
			So(filepath.Dir(path), ShouldEqual, Config())
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("ConfigFile() should be a toml file in Config()", func() {
			So(filepath.Ext(ConfigFile()), ShouldEqual, ".toml")
			So(filepath.Dir(ConfigFile()), ShouldEqual, Config())
		})

		Convey("Temp()", func() {
			path := Temp()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})
	})
}

func TestConfigOverride(t *testing.T) {
	Convey("Given VIDBRIDGE_CONFIG_PATH", t, func() {
		t.Setenv(EnvConfigPath, "/custom/vidbridge")

		Convey("Config() should honour it", func() {
			So(Config(), ShouldEqual, "/custom/vidbridge")
			So(lo.Must(filesystem.API().IsDir("/custom/vidbridge")), ShouldBeTrue)
		})
	})
}
