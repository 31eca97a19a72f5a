package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/diabrisk/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithExpectedSize(16))

		Convey("Then it should start empty", func() {
			So(d.Size(), ShouldEqual, 0)
		})

		Convey("When a record key is new", func() {
			seen := d.SeenAndRecord(ctx, dedupe.RecordKey("u1", "2024-01-01"))

			Convey("Then it should return false and record the key", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And the same user and date seen again should be reported", func() {
				So(d.SeenAndRecord(ctx, dedupe.RecordKey(" U1 ", "2024-01-01")), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And another date for the same user should be new", func() {
				So(d.SeenAndRecord(ctx, dedupe.RecordKey("u1", "2024-01-02")), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 2)
			})
		})

		Convey("When keys would collide under naive concatenation", func() {
			a := dedupe.RecordKey("u1", "12024-01-01")
			b := dedupe.RecordKey("u11", "2024-01-01")
			So(a, ShouldNotEqual, b)
		})

		Convey("When many goroutines record overlapping keys", func() {
			var wg sync.WaitGroup
			var mu sync.Mutex
			fresh := 0
			for g := 0; g < 8; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < 100; i++ {
						if !d.SeenAndRecord(ctx, dedupe.RecordKey(fmt.Sprintf("u%d", i), "d")) {
							mu.Lock()
							fresh++
							mu.Unlock()
						}
					}
				}()
			}
			wg.Wait()

			Convey("Then each key should be new exactly once", func() {
				So(fresh, ShouldEqual, 100)
				So(d.Size(), ShouldEqual, 100)
			})
		})
	})
}
