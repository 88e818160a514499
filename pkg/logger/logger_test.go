package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized with defaults", func() {
			So(Init(), ShouldBeNil)
			So(Get(), ShouldNotBeNil)
			So(Sync(), ShouldBeNil)
		})

		Convey("When initialized for JSON output", func() {
			var buf bytes.Buffer
			So(Init(WithFormat(FormatJSON), WithWriter(&buf)), ShouldBeNil)

			Named("loader").Info(context.Background(), "loaded",
				String("origin", "remote"),
				Int("rows", 3),
				Bool("degraded", false),
				Duration("took", 15*time.Millisecond),
			)

			Convey("Then each entry is a JSON object with the fields and caller", func() {
				var entry map[string]any
				So(json.Unmarshal(buf.Bytes(), &entry), ShouldBeNil)
				So(entry["msg"], ShouldEqual, "loaded")
				So(entry["component"], ShouldEqual, "loader")
				So(entry["rows"], ShouldEqual, float64(3))
				So(entry["source"], ShouldContainSubstring, "logger_test.go")
			})
		})
	})
}

func TestLevels(t *testing.T) {
	Convey("Given a text logger", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf)), ShouldBeNil)
		ctx := context.Background()

		Convey("When the level is warn", func() {
			So(SetLevelString("WARN"), ShouldBeNil)
			Get().Info(ctx, "hidden")
			Get().Warn(ctx, "shown", Error(errors.New("boom")))

			So(buf.String(), ShouldNotContainSubstring, "hidden")
			So(buf.String(), ShouldContainSubstring, "shown")
			So(buf.String(), ShouldContainSubstring, "boom")
		})

		Convey("When the level is unknown", func() {
			So(SetLevelString("loud"), ShouldNotBeNil)
		})

		Reset(func() { SetLevel(slog.LevelInfo) })
	})
}

func TestStandalone(t *testing.T) {
	Convey("Given a standalone logger", t, func() {
		var buf bytes.Buffer
		l := New(&buf, slog.LevelDebug)
		l.Debug(context.Background(), "detail", Float64("billions", 1.5))

		So(buf.String(), ShouldContainSubstring, "billions=1.5")

		Convey("Then Nop writes nothing and does not panic", func() {
			Nop().Error(context.Background(), "ignored")
		})
	})
}
