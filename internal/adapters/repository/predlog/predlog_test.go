package predlog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/matchquant/internal/adapters/repository/predlog"
	"github.com/okian/matchquant/internal/domain/meta"
	"github.com/okian/matchquant/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func dryRun() (*gorm.DB, *[]string) {
	db, err := gorm.Open(postgres.Open("host=localhost user=quant dbname=quant sslmode=disable"), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               gormlogger.Discard,
	})
	So(err, ShouldBeNil)
	var sqls []string
	capture := func(tx *gorm.DB) { sqls = append(sqls, tx.Statement.SQL.String()) }
	So(db.Callback().Create().After("gorm:create").Register("test:capture", capture), ShouldBeNil)
	So(db.Callback().Query().After("gorm:query").Register("test:capture", capture), ShouldBeNil)
	So(db.Callback().Update().After("gorm:update").Register("test:capture", capture), ShouldBeNil)
	return db, &sqls
}

func TestTableName(t *testing.T) {
	Convey("Tables are namespaced per model version", t, func() {
		name, err := predlog.TableName("v10")
		So(err, ShouldBeNil)
		So(name, ShouldEqual, "prediction_log_v10")

		name, _ = predlog.TableName(" V10.1-rc ")
		So(name, ShouldEqual, "prediction_log_v10_1_rc")

		_, err = predlog.TableName("v10; DROP TABLE x")
		So(errors.Is(err, predlog.ErrInvalidVersion), ShouldBeTrue)
		_, err = predlog.TableName("")
		So(errors.Is(err, predlog.ErrInvalidVersion), ShouldBeTrue)
	})
}

func TestLog(t *testing.T) {
	ctx := context.Background()
	rec := meta.Record{
		PredictionID: "0b6c5d0e-2f55-5c1e-9a51-4f3f1b7d6a10",
		MatchID:      "m-1",
		Market:       model.MarketHome,
		ModelVersion: "v10",
		Odds:         1.70,
		FinalScore:   62,
		Layers:       model.LayerScores{model.LayerMonteCarlo: 16},
		PredictedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	Convey("Given a log over a dry-run handle", t, func() {
		db, sqls := dryRun()
		l, err := predlog.New(db, "v10")
		So(err, ShouldBeNil)
		So(l.Table(), ShouldEqual, "prediction_log_v10")

		Convey("When a record is appended", func() {
			So(l.Append(ctx, rec), ShouldBeNil)

			Convey("Then it is inserted into the version's table, ignoring duplicates", func() {
				So(*sqls, ShouldHaveLength, 1)
				So((*sqls)[0], ShouldStartWith, `INSERT INTO "prediction_log_v10"`)
				So((*sqls)[0], ShouldContainSubstring, "ON CONFLICT")
				So((*sqls)[0], ShouldContainSubstring, "DO NOTHING")
			})
		})

		Convey("When a record has no id", func() {
			r := rec
			r.PredictionID = ""
			So(errors.Is(l.Append(ctx, r), meta.ErrInvalidRecord), ShouldBeTrue)
			So(*sqls, ShouldBeEmpty)
		})

		Convey("When pending rows are read", func() {
			rows, err := l.Pending(ctx, "m-1")
			So(err, ShouldBeNil)
			So(rows, ShouldBeEmpty)
			So((*sqls)[0], ShouldContainSubstring, `FROM "prediction_log_v10"`)
			So((*sqls)[0], ShouldContainSubstring, "settled = ")
		})

		Convey("When records are settled", func() {
			r := rec
			r.Settled, r.IsCorrect, r.ProfitLoss, r.ActualResult = true, true, 0.7, "2-1"
			r.SettledAt = time.Date(2026, 3, 1, 17, 0, 0, 0, time.UTC)
			moved, err := l.Settle(ctx, []meta.Record{r, r})
			So(err, ShouldBeNil)

			Convey("Then each row is updated only while unsettled", func() {
				// A dry run touches no rows, so nothing counts as moved.
				So(moved, ShouldBeEmpty)
				So(*sqls, ShouldHaveLength, 2)
				So((*sqls)[0], ShouldStartWith, `UPDATE "prediction_log_v10"`)
				So((*sqls)[0], ShouldContainSubstring, "prediction_id = ")
				So((*sqls)[0], ShouldContainSubstring, "settled = ")
			})
		})

		Convey("When settled rows are read back", func() {
			_, err := l.SettledSince(ctx, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
			So(err, ShouldBeNil)
			So((*sqls)[0], ShouldContainSubstring, "ORDER BY settled_at asc, prediction_id asc")
		})
	})

	Convey("A log needs a handle and a valid version", t, func() {
		_, err := predlog.New(nil, "v10")
		So(errors.Is(err, predlog.ErrNoDB), ShouldBeTrue)
		db, _ := dryRun()
		_, err = predlog.New(db, "v 10")
		So(errors.Is(err, predlog.ErrInvalidVersion), ShouldBeTrue)
	})
}
