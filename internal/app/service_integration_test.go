package service_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okian/talentscope/internal/adapters/csvio"
	repository "github.com/okian/talentscope/internal/adapters/repository"
	"github.com/okian/talentscope/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func fixtureSeasons() []model.PlayerSeason {
	return []model.PlayerSeason{
		{Name: "Ada", Club: "Ajax U19", Nation: "NED", Position: model.Forward, Age: 16, Season: "2022-2023", SeasonOrder: 1,
			Matches: 12, Starts: 8, Minutes: 800, Goals: 4, Assists: 2},
		{Name: "Ada", Club: "Ajax U19", Nation: "NED", Position: model.Forward, Age: 17, Season: "2023-2024", SeasonOrder: 2,
			Matches: 28, Starts: 26, Minutes: 2300, Goals: 21, Assists: 9, XGPer90: model.Float(0.7)},
		{Name: "Cy", Club: "PSV U19", Nation: "NED", Position: model.Forward, Age: 18, Season: "2023-2024", SeasonOrder: 2,
			Matches: 20, Starts: 15, Minutes: 1500, Goals: 8, Assists: 3},
		{Name: "Bo", Club: "PSV U19", Nation: "BEL", Position: model.Defender, Age: 17, Season: "2023-2024", SeasonOrder: 2,
			Matches: 25, Starts: 25, Minutes: 2250, Goals: 1, Assists: 2, PlusMinusPer90: 0.8},
		{Name: "Dee", Club: "Ajax U19", Nation: "NED", Position: model.Goalkeeper, Age: 18, Season: "2023-2024", SeasonOrder: 2,
			Matches: 22, Starts: 22, Minutes: 1980, Saves: 60, GoalsAgainst: 20, CleanSheets: 8},
	}
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a started service with imported seasons", t, func() {
		svc := newMemoryService()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop(ctx)

		res, err := svc.Import(ctx, fixtureSeasons(), false)
		So(err, ShouldBeNil)
		So(res.Accepted, ShouldEqual, 5)
		So(res.Scored, ShouldEqual, 5)

		Convey("Every season is scored and projected", func() {
			players, err := svc.Players(ctx, repository.ListOpts{})
			So(err, ShouldBeNil)
			So(players, ShouldHaveLength, 5)
			for _, p := range players {
				So(p.Rating, ShouldNotBeNil)
				So(p.Trajectory, ShouldNotBeNil)
				So(p.Trajectory.Current, ShouldBeLessThanOrEqualTo, p.Trajectory.NextSeason)
				So(p.Trajectory.NextSeason, ShouldBeLessThanOrEqualTo, p.Trajectory.Peak)
			}
		})

		Convey("The leaderboard holds one entry per player", func() {
			top, err := svc.TopN(ctx, 10, "")
			So(err, ShouldBeNil)
			So(top, ShouldHaveLength, 4)
			for i := 1; i < len(top); i++ {
				So(top[i-1].Potential, ShouldBeGreaterThanOrEqualTo, top[i].Potential)
			}

			forwards, err := svc.TopN(ctx, 10, model.Forward)
			So(err, ShouldBeNil)
			So(forwards, ShouldHaveLength, 2)

			entry, err := svc.Rank(ctx, "Ada")
			So(err, ShouldBeNil)
			best, err := svc.Players(ctx, repository.ListOpts{Query: "ada", BestOnly: true})
			So(err, ShouldBeNil)
			So(best, ShouldHaveLength, 1)
			So(entry.SeasonID, ShouldEqual, best[0].ID)

			_, err = svc.Rank(ctx, "Nobody")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("Progression lists a player's seasons in order", func() {
			seasons, err := svc.Progression(ctx, "Ada")
			So(err, ShouldBeNil)
			So(seasons, ShouldHaveLength, 2)
			So(seasons[0].Season, ShouldEqual, "2022-2023")
			So(seasons[1].Season, ShouldEqual, "2023-2024")

			_, err = svc.Progression(ctx, "Nobody")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("Similar players share the position", func() {
			best, _ := svc.Players(ctx, repository.ListOpts{Query: "ada", BestOnly: true})
			similar, err := svc.Similar(ctx, best[0].ID, 5)
			So(err, ShouldBeNil)
			So(similar, ShouldHaveLength, 1)
			So(similar[0].Player.Name, ShouldEqual, "Cy")
			So(similar[0].Similarity, ShouldBeBetweenOrEqual, -100, 100)
		})

		Convey("A report covers the player's history", func() {
			best, _ := svc.Players(ctx, repository.ListOpts{Query: "ada", BestOnly: true})
			report, err := svc.Report(ctx, best[0].ID)
			So(err, ShouldBeNil)
			So(report.Player.Name, ShouldEqual, "Ada")
			So(report.Player.SeasonsCount, ShouldEqual, 2)
			So(report.Player.IsBestSeason, ShouldBeTrue)
			So(report.Tier.Name, ShouldNotBeBlank)
			So(report.Verdict, ShouldNotBeBlank)

			_, err = svc.Report(ctx, 9999)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("Recalculation jobs are processed by the workers", func() {
			players, _ := svc.Players(ctx, repository.ListOpts{})
			jobID, err := svc.EnqueueRecalculation(ctx, players[0].ID)
			So(err, ShouldBeNil)
			So(jobID, ShouldNotBeBlank)

			deadline := time.Now().Add(5 * time.Second)
			for time.Now().Before(deadline) {
				stats, _ := svc.GetStats(ctx)
				if stats.Processed >= 1 && stats.Pending == 0 {
					break
				}
				time.Sleep(10 * time.Millisecond)
			}
			stats, err := svc.GetStats(ctx)
			So(err, ShouldBeNil)
			So(stats.Processed, ShouldBeGreaterThanOrEqualTo, 1)
			So(stats.Failed, ShouldEqual, 0)
			So(stats.Pending, ShouldEqual, 0)
			So(stats.LeaderboardSize, ShouldEqual, 4)

			_, err = svc.EnqueueRecalculation(ctx, 9999)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("Bulk enqueue queues every season", func() {
			n, err := svc.EnqueueAll(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 5)

			// Seasons still pending from the first call are skipped.
			again, err := svc.EnqueueAll(ctx)
			So(err, ShouldBeNil)
			So(again, ShouldBeBetweenOrEqual, 0, 5)
		})

		Convey("Recalculating everything keeps the population", func() {
			n, err := svc.RecalculateAll(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 5)
			top, _ := svc.TopN(ctx, 10, "")
			So(top, ShouldHaveLength, 4)
		})

		Convey("The watchlist tracks stored seasons", func() {
			players, _ := svc.Players(ctx, repository.ListOpts{})
			id := players[0].ID

			added, err := svc.AddWatch(ctx, id)
			So(err, ShouldBeNil)
			So(added, ShouldBeTrue)
			added, err = svc.AddWatch(ctx, id)
			So(err, ShouldBeNil)
			So(added, ShouldBeFalse)

			items, err := svc.Watchlist(ctx)
			So(err, ShouldBeNil)
			So(items, ShouldHaveLength, 1)
			So(items[0].ID, ShouldEqual, id)

			removed, err := svc.RemoveWatch(ctx, id)
			So(err, ShouldBeNil)
			So(removed, ShouldBeTrue)

			_, err = svc.AddWatch(ctx, 9999)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("Export writes one CSV line per season", func() {
			var buf bytes.Buffer
			So(svc.Export(ctx, &buf, repository.ListOpts{}), ShouldBeNil)
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			So(lines, ShouldHaveLength, 6)
			So(buf.String(), ShouldContainSubstring, "Ada")
		})

		Convey("Stats describe the population", func() {
			stats, err := svc.GetStats(ctx)
			So(err, ShouldBeNil)
			So(stats.Population.TotalPlayers, ShouldEqual, 4)
			So(stats.Population.TotalRecords, ShouldEqual, 5)
			So(stats.Population.ScoredRecords, ShouldEqual, 5)
		})

		Convey("A CSV import with replace discards the previous data", func() {
			const data = "Player,Pos,Squad,Age,MP,Starts,Min,Gls,Ast\n" +
				"Eve,FW,Feyenoord U19,17,18,12,1200,9,4\n" +
				",MF,Nowhere,17,1,1,90,0,0\n" +
				"Fay,MF,Feyenoord U19,16,10,5,500,1,3\n"
			res, err := svc.ImportCSV(ctx, strings.NewReader(data), csvio.Options{Season: "2024-2025"}, true)
			So(err, ShouldBeNil)
			So(res.Accepted, ShouldEqual, 2)
			So(res.Skipped, ShouldEqual, 1)
			So(res.Errors, ShouldHaveLength, 1)

			top, _ := svc.TopN(ctx, 10, "")
			So(top, ShouldHaveLength, 2)
			_, err = svc.Rank(ctx, "Ada")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}
