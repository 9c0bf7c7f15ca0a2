package model_test

import (
	"testing"
	"time"

	"github.com/okian/livescore/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestOperators(t *testing.T) {
	Convey("Given raw operator strings", t, func() {
		Convey("When whitespace runs separate the calls", func() {
			ops := model.SplitOperators("W1AW  N1ABC\tK1XX")

			Convey("Then order is preserved and runs collapse", func() {
				So(ops, ShouldResemble, []string{"W1AW", "N1ABC", "K1XX"})
				So(model.JoinOperators(ops), ShouldEqual, "W1AW, N1ABC, K1XX")
			})
		})

		Convey("When the input is blank", func() {
			ops := model.SplitOperators(" \n\t ")

			Convey("Then the list is empty and renders as an empty string", func() {
				So(ops, ShouldNotBeNil)
				So(ops, ShouldBeEmpty)
				So(model.JoinOperators(ops), ShouldEqual, "")
			})
		})
	})
}

func TestRowFromReport(t *testing.T) {
	Convey("Given a report", t, func() {
		ts := time.Date(2020, 11, 28, 14, 30, 0, 0, time.UTC)
		r := model.Report{
			Contest:   "CQWW",
			Callsign:  "W1AW",
			Operators: []string{"W1AW", "K1XX"},
			QSOs:      55,
			Points:    140,
			Mults:     120,
			Score:     16800,
			Timestamp: ts,
		}

		Convey("When a new row is built", func() {
			row := model.NewRow(7, r)

			Convey("Then every field mirrors the report", func() {
				So(row.OwnerID, ShouldEqual, 7)
				So(row.Contest, ShouldEqual, "CQWW")
				So(row.Callsign, ShouldEqual, "W1AW")
				So(row.Operators, ShouldEqual, "W1AW, K1XX")
				So(row.QSOs, ShouldEqual, 55)
				So(row.Points, ShouldEqual, 140)
				So(row.Mults, ShouldEqual, 120)
				So(row.Score, ShouldEqual, 16800)
				So(row.LastUpdated, ShouldEqual, ts)
			})
		})

		Convey("When a report for another pair is applied", func() {
			row := model.NewRow(7, r)
			other := r
			other.Contest = "ARRL-DX"
			other.Callsign = "K1XX"
			other.Score = 1
			row.Apply(other)

			Convey("Then identity fields are kept", func() {
				So(row.OwnerID, ShouldEqual, 7)
				So(row.Contest, ShouldEqual, "CQWW")
				So(row.Callsign, ShouldEqual, "W1AW")
				So(row.Score, ShouldEqual, 1)
			})
		})
	})
}

func TestNormalizeHandle(t *testing.T) {
	Convey("Handles are upper-cased and trimmed", t, func() {
		So(model.NormalizeHandle(" w1aw "), ShouldEqual, "W1AW")
	})
}
