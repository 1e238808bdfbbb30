package derive

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/talentscope/internal/domain/model"
)

func f(v float64) *float64 { return &v }

func TestSeason(t *testing.T) {
	Convey("Given a sparse raw record", t, func() {
		ps := Season(RawSeason{Name: "  Ada ", Position: "FW,MF", Season: "2023-2024"})

		Convey("Absent counts default to zero and age to the default", func() {
			So(ps.Name, ShouldEqual, "Ada")
			So(ps.Position, ShouldEqual, model.Forward)
			So(ps.Age, ShouldEqual, DefaultAge)
			So(ps.Matches, ShouldEqual, 0)
			So(ps.Minutes, ShouldEqual, 0)
			So(ps.XGPer90, ShouldBeNil)
		})
	})

	Convey("Given noisy counters", t, func() {
		ps := Season(RawSeason{
			Position: "MF", Age: f(18.0),
			Matches: f(10), Starts: f(14), Goals: f(-3), Minutes: f(math.NaN()),
			XGPer90: f(0.4), PlusMinusPer90: f(-0.5),
		})

		Convey("Negatives and NaN clamp to zero and starts are capped", func() {
			So(ps.Age, ShouldEqual, 18)
			So(ps.Starts, ShouldEqual, 10)
			So(ps.Goals, ShouldEqual, 0)
			So(ps.Minutes, ShouldEqual, 0)
			So(*ps.XGPer90, ShouldEqual, 0.4)
			So(ps.PlusMinusPer90, ShouldEqual, -0.5)
		})
	})

	Convey("Given a goalkeeper with counters only", t, func() {
		ps := Season(RawSeason{
			Position: "GK", Matches: f(20), Minutes: f(1800),
			Saves: f(60), GoalsAgainst: f(20), CleanSheets: f(5),
		})

		Convey("Rates are derived from the counters", func() {
			So(*ps.SavePct, ShouldAlmostEqual, 75, 1e-9)
			So(*ps.CleanSheetPct, ShouldAlmostEqual, 25, 1e-9)
			So(*ps.GoalsAgainstPer90, ShouldAlmostEqual, 1, 1e-9)
		})

		Convey("Reported rates win over derived ones", func() {
			ps := Season(RawSeason{Position: "GK", Matches: f(20), Saves: f(60), GoalsAgainst: f(20), SavePct: f(80)})
			So(*ps.SavePct, ShouldEqual, 80)
			So(ps.GoalsAgainstPer90, ShouldBeNil)
		})
	})

	Convey("Batches keep their order", t, func() {
		out := Seasons([]RawSeason{{Name: "a"}, {Name: "b"}})
		So(out[0].Name, ShouldEqual, "a")
		So(out[1].Name, ShouldEqual, "b")
	})
}
