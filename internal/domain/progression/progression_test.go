package progression

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/okian/talentscope/internal/domain/benchmark"
	"github.com/okian/talentscope/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func population() []model.PlayerSeason {
	var out []model.PlayerSeason
	id := int64(1)
	for p := 0; p < 12; p++ {
		for s, season := range []string{"2021-22", "2022-23", "2023-24"} {
			matches := 2 + p*3 + s
			out = append(out, model.PlayerSeason{
				ID:             id,
				Name:           fmt.Sprintf("player-%02d", p),
				Position:       model.Positions[p%4],
				Age:            15 + p%6 + s,
				Season:         season,
				Matches:        matches,
				Starts:         matches / 2,
				Minutes:        float64(matches) * 70,
				Goals:          float64((p * s) % 9),
				Assists:        float64(p % 4),
				PointsPerMatch: 1 + float64(p%3)*0.4,
				MinutesPct:     float64(30 + p*5),
			})
			id++
		}
	}
	return out
}

func TestEngineConstruction(t *testing.T) {
	Convey("Given engine construction", t, func() {
		Convey("Default rules are accepted", func() {
			e, err := New()
			So(err, ShouldBeNil)
			So(e.Rules().PeakCap, ShouldEqual, 94)
		})

		Convey("Rules that would make repair unstable are rejected", func() {
			r := benchmark.DefaultProgression()
			r.NextCap = 60
			_, err := New(WithRules(r))
			So(errors.Is(err, benchmark.ErrInvalidRules), ShouldBeTrue)
		})
	})
}

func TestCompute(t *testing.T) {
	ctx := context.Background()
	e, _ := New(WithWorkers(3))

	Convey("Given a multi-season population", t, func() {
		in := population()
		rows, err := e.Compute(ctx, in)
		So(err, ShouldBeNil)
		So(len(rows), ShouldEqual, len(in))

		Convey("Rows keep input order", func() {
			for i := range in {
				So(rows[i].ID, ShouldEqual, in[i].ID)
			}
		})

		Convey("Every row is bounded and ordered", func() {
			for _, r := range rows {
				So(r.Current, ShouldBeBetweenOrEqual, 20, 70)
				So(r.NextSeason, ShouldBeLessThanOrEqualTo, 85)
				So(r.Peak, ShouldBeLessThanOrEqualTo, 94)
				So(r.NextSeason, ShouldBeGreaterThanOrEqualTo, r.Current+2)
				So(r.Peak, ShouldBeGreaterThanOrEqualTo, r.NextSeason+5)
				So(r.Peak, ShouldBeGreaterThanOrEqualTo, r.Current+8)
				So(r.Consistency, ShouldBeBetweenOrEqual, 0, 1)
				So(r.Percentile, ShouldBeBetweenOrEqual, 0, 100)
			}
		})

		Convey("Growth is measured against the previous season", func() {
			byKey := map[string]model.ProgressionRow{}
			for _, r := range rows {
				byKey[r.Name+"/"+r.Season] = r
			}
			cur := byKey["player-05/2023-24"]
			prev := byKey["player-05/2022-23"]
			So(cur.SeasonGrowth, ShouldAlmostEqual, clip(cur.Current-prev.Current, -30, 30))
			So(byKey["player-05/2021-22"].SeasonGrowth, ShouldEqual, 0)
		})

		Convey("The season leader sits at the 100th percentile", func() {
			best := rows[0]
			for _, r := range rows {
				if r.Season == best.Season && r.Current > best.Current {
					best = r
				}
			}
			So(best.Percentile, ShouldEqual, 100)
		})

		Convey("Results do not depend on worker count", func() {
			serial, _ := New(WithWorkers(1))
			again, err := serial.Compute(ctx, in)
			So(err, ShouldBeNil)
			So(again, ShouldResemble, rows)
		})
	})

	Convey("Given edge-case populations", t, func() {
		Convey("Empty input returns no rows", func() {
			rows, err := e.Compute(ctx, nil)
			So(err, ShouldBeNil)
			So(rows, ShouldBeEmpty)
		})

		Convey("Identical players get the neutral mapped rating", func() {
			ps := model.PlayerSeason{Season: "2023-24", Matches: 10, Minutes: 900}
			a, b := ps, ps
			a.Name, b.Name = "a", "b"
			rows, err := e.Compute(ctx, []model.PlayerSeason{a, b})
			So(err, ShouldBeNil)
			So(rows[0].Current, ShouldEqual, 45)
			So(rows[0].Consistency, ShouldEqual, 0)
		})

		Convey("Thin samples are heavily discounted unless exceptional", func() {
			thin := model.PlayerSeason{Name: "thin", Season: "s", Matches: 1, Minutes: 90}
			hot := model.PlayerSeason{Name: "hot", Season: "s", Matches: 2, Minutes: 120, Goals: 4}
			full := model.PlayerSeason{Name: "full", Season: "s", Matches: 30, Starts: 30, Minutes: 2700, Goals: 10}
			rows, _ := e.Compute(ctx, []model.PlayerSeason{thin, hot, full})
			So(rows[0].SamplePenalty, ShouldEqual, 0.15)
			So(rows[0].Current, ShouldEqual, 20)
			So(rows[1].Exceptional, ShouldBeTrue)
			So(rows[1].SamplePenalty, ShouldAlmostEqual, 0.625)
			So(rows[2].SamplePenalty, ShouldEqual, 1)
			So(rows[2].Current, ShouldEqual, 70)
		})

		Convey("A cancelled context stops the run", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := e.Compute(cctx, population())
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestRepair(t *testing.T) {
	rules := benchmark.DefaultProgression()

	Convey("Given the repair pass", t, func() {
		Convey("An inverted trajectory is fixed", func() {
			got, fixed := Repair(model.Trajectory{Current: 70, NextSeason: 50, Peak: 40}, rules)
			So(got.Current, ShouldEqual, 70)
			So(got.NextSeason, ShouldEqual, 72)
			So(got.Peak, ShouldEqual, 78)
			So(fixed, ShouldResemble, []string{FieldNextSeason, FieldPeak})
		})

		Convey("Out-of-range values are clipped", func() {
			got, _ := Repair(model.Trajectory{Current: 99, NextSeason: 99, Peak: 120}, rules)
			So(got.Current, ShouldEqual, 70)
			So(got.NextSeason, ShouldEqual, 85)
			So(got.Peak, ShouldEqual, 94)
		})

		Convey("It is idempotent", func() {
			inputs := []model.Trajectory{
				{Current: 70, NextSeason: 50, Peak: 40},
				{Current: 10, NextSeason: 0, Peak: 0},
				{Current: 45, NextSeason: 60, Peak: 80},
				{Current: 69.9, NextSeason: 84.9, Peak: 93.9},
				{Current: 100, NextSeason: -5, Peak: 200},
			}
			for _, in := range inputs {
				once, _ := Repair(in, rules)
				twice, fixed := Repair(once, rules)
				So(twice, ShouldResemble, once)
				So(fixed, ShouldBeEmpty)
			}
		})
	})
}
