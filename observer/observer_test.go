package observer

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestList(t *testing.T) {
	Convey("Given an empty list", t, func() {
		var list List[int]
		var calls []string

		a := Func(func(v int) { calls = append(calls, "a") })
		b := Func(func(v int) { calls = append(calls, "b") })

		Convey("Callbacks fire in registration order", func() {
			list.Add(b)
			list.Add(a)
			list.Notify(1)
			So(calls, ShouldResemble, []string{"b", "a"})
		})

		Convey("A removed callback no longer fires", func() {
			list.Add(a)
			So(list.Remove(a), ShouldBeTrue)
			list.Notify(1)
			So(calls, ShouldBeEmpty)
		})

		Convey("Removing one of two registrations keeps the other", func() {
			list.Add(a)
			list.Add(a)
			list.Remove(a)
			list.Notify(1)
			list.Notify(2)
			So(calls, ShouldResemble, []string{"a", "a"})
		})

		Convey("Remove drops the last occurrence only", func() {
			list.Add(a)
			list.Add(b)
			list.Add(a)
			list.Remove(a)
			list.Notify(1)
			So(calls, ShouldResemble, []string{"a", "b"})
		})

		Convey("Removing an unknown callback is a no-op", func() {
			list.Add(a)
			So(list.Remove(b), ShouldBeFalse)
			So(list.Len(), ShouldEqual, 1)
		})

		Convey("Subscribe returns a usable token", func() {
			var got int
			token := list.Subscribe(func(v int) { got = v })
			list.Notify(5)
			So(got, ShouldEqual, 5)

			list.Remove(token)
			list.Notify(6)
			So(got, ShouldEqual, 5)
		})

		Convey("A callback removing itself does not disturb the current round", func() {
			var self *Callback[int]
			self = Func(func(int) {
				calls = append(calls, "self")
				list.Remove(self)
			})
			list.Add(self)
			list.Add(a)
			list.Notify(1)
			list.Notify(2)
			So(calls, ShouldResemble, []string{"self", "a", "a"})
		})
	})
}
