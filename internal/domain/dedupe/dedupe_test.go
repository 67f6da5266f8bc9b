package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	dedupe "github.com/okian/gscore/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		So(d.Size(), ShouldEqual, 0)

		Convey("When a batch id is recorded twice", func() {
			first := d.SeenAndRecord(ctx, "batch-1")
			second := d.SeenAndRecord(ctx, "batch-1")

			Convey("Then only the second call reports it as seen", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a recorded id is unrecorded", func() {
			d.SeenAndRecord(ctx, "batch-1")
			d.Unrecord(ctx, "batch-1")
			d.Unrecord(ctx, "never-seen")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "batch-1"), ShouldBeFalse)
			})
		})
	})

	Convey("Given a deduper bounded to three ids", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for i := 1; i <= 4; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("b%d", i))
		}

		Convey("Then the oldest id is forgotten first", func() {
			So(d.Size(), ShouldEqual, 3)
			So(d.SeenAndRecord(ctx, "b4"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "b2"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "b1"), ShouldBeFalse)
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		for i := 0; i < 50; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("b%d", i))
		}

		Convey("Then nothing is evicted", func() {
			So(d.Size(), ShouldEqual, 50)
			So(d.SeenAndRecord(ctx, "b0"), ShouldBeTrue)
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given many goroutines racing on the same ids", t, func() {
		d := dedupe.NewInMemoryDeduper()
		var fresh atomic.Int64
		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					if !d.SeenAndRecord(context.Background(), fmt.Sprintf("b%d", i)) {
						fresh.Add(1)
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each id is reported new exactly once", func() {
			So(fresh.Load(), ShouldEqual, 100)
			So(d.Size(), ShouldEqual, 100)
		})
	})
}
