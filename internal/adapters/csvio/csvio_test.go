package csvio

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/talentscope/internal/domain/model"
)

const sample = `Player,Nation,Pos,Squad,Age,MP,Starts,Min,Gls,Ast,PK,xG/90,Saves,GA,CS,Save%
Ada Keller,de GER,"FW,MF",Köln U19,17-120,"20",18,"1,620",9,4,1,0.45,,,,
Ben Graf,de GER,GK,Köln U19,18,15,15,1350,0,0,0,,40,20,4,66.7%
,de GER,MF,Köln U19,17,3,0,90,0,0,0,,,,,
Player,Nation,Pos,Squad,Age,MP,Starts,Min,Gls,Ast,PK,xG/90,Saves,GA,CS,Save%
Cem Aydin,tr TUR,DF,Köln U19,abc,10,9,800,0,1,0,,,,,
`

func TestRead(t *testing.T) {
	Convey("Given a spreadsheet export", t, func() {
		res, err := Read(strings.NewReader(sample), Options{Season: "2023-2024", SeasonOrder: 3})
		So(err, ShouldBeNil)

		Convey("Valid rows become raw seasons", func() {
			So(res.Seasons, ShouldHaveLength, 2)
			ada := res.Seasons[0]
			So(ada.Name, ShouldEqual, "Ada Keller")
			So(ada.Nation, ShouldEqual, "GER")
			So(ada.Position, ShouldEqual, "FW,MF")
			So(ada.Club, ShouldEqual, "Köln U19")
			So(ada.Season, ShouldEqual, "2023-2024")
			So(ada.SeasonOrder, ShouldEqual, 3)
			So(*ada.Age, ShouldEqual, 17)
			So(*ada.Minutes, ShouldEqual, 1620)
			So(*ada.XGPer90, ShouldEqual, 0.45)
			So(ada.Saves, ShouldBeNil)
			So(ada.XAPer90, ShouldBeNil)

			ben := res.Seasons[1]
			So(*ben.SavePct, ShouldEqual, 66.7)
			So(*ben.GoalsAgainst, ShouldEqual, 20)
		})

		Convey("Nameless, repeated-header and malformed rows are skipped", func() {
			So(res.Skipped, ShouldEqual, 3)
			So(res.Errors, ShouldHaveLength, 3)
		})
	})

	Convey("A file without a player column is rejected", t, func() {
		_, err := Read(strings.NewReader("Squad,MP\nA,1\n"), Options{})
		So(err, ShouldEqual, ErrNoPlayer)
	})

	Convey("An empty file is rejected", t, func() {
		_, err := Read(strings.NewReader(""), Options{})
		So(err, ShouldEqual, ErrMissingHeader)
	})
}

func TestWrite(t *testing.T) {
	Convey("Given rated and unrated players", t, func() {
		players := []model.RatedPlayer{
			{
				PlayerSeason: model.PlayerSeason{ID: 1, Name: "Ada", Position: model.Forward, Age: 17, Matches: 20, Goals: 9},
				Rating:       &model.RatingBundle{PredictedPotential: 88.5, ConfidenceLabel: model.ConfidenceHigh},
				Trajectory:   &model.Trajectory{Current: 60, NextSeason: 65, Peak: 80},
				IsBestSeason: true,
			},
			{PlayerSeason: model.PlayerSeason{ID: 2, Name: "Ben", Position: model.Goalkeeper, Age: 18}},
		}

		var buf bytes.Buffer
		So(Write(&buf, players), ShouldBeNil)

		rows, err := csv.NewReader(&buf).ReadAll()
		So(err, ShouldBeNil)
		So(rows, ShouldHaveLength, 3)
		So(rows[0], ShouldResemble, exportHeader)
		So(rows[1][1], ShouldEqual, "Ada")
		So(rows[1][17], ShouldEqual, "88.5")
		So(rows[1][21], ShouldEqual, "true")
		So(rows[2][17], ShouldEqual, "")
		So(rows[2][18], ShouldEqual, "")
	})
}
