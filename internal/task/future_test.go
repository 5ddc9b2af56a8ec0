package task

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFuture(t *testing.T) {
	Convey("Given a task that waits for a release", t, func() {
		release := make(chan struct{})
		f := Go(context.Background(), func(context.Context) (int, error) {
			<-release
			return 42, nil
		})

		Convey("Then it is not ready before release", func() {
			So(f.Ready(), ShouldBeFalse)
			So(f.Err(), ShouldBeNil)
			close(release)
		})

		Convey("When the wait context expires first", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()
			_, err := f.Await(ctx)

			Convey("Then Await returns the context error and the task keeps running", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
				close(release)
				v, err := f.Await(context.Background())
				So(err, ShouldBeNil)
				So(v, ShouldEqual, 42)
			})
		})

		Convey("When released", func() {
			close(release)
			v, err := f.Await(context.Background())

			Convey("Then every waiter sees the same result", func() {
				So(err, ShouldBeNil)
				So(v, ShouldEqual, 42)
				<-f.Done()
				So(f.Ready(), ShouldBeTrue)
				v2, _ := f.Await(context.Background())
				So(v2, ShouldEqual, 42)
			})
		})
	})

	Convey("Given a failing task", t, func() {
		boom := errors.New("boom")
		f := Go(context.Background(), func(context.Context) ([]string, error) {
			return nil, boom
		})

		Convey("Then the error is reported", func() {
			_, err := f.Await(context.Background())
			So(err, ShouldEqual, boom)
			So(f.Err(), ShouldEqual, boom)
		})
	})

	Convey("Given a resolved future", t, func() {
		f := Resolved("ok", nil)

		Convey("Then it is immediately ready", func() {
			So(f.Ready(), ShouldBeTrue)
			v, err := f.Await(context.Background())
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "ok")
		})
	})
}
