package logger

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	. "github.com/smartystreets/goconvey/convey"
)

// captureLogger swaps DefaultLogger for one writing into buf and returns a restore func.
func captureLogger(buf *bytes.Buffer, level log.Level) func() {
	original := DefaultLogger
	DefaultLogger = log.NewWithOptions(buf, log.Options{
		Level:           level,
		ReportCaller:    false,
		ReportTimestamp: false,
	})
	return func() { DefaultLogger = original }
}

func TestSetLevel(t *testing.T) {
	Convey("Given a default logger", t, func() {
		originalLevel := DefaultLogger.GetLevel()

		Convey("When setting the log level to debug", func() {
			SetLevel(log.DebugLevel)

			Convey("Then the logger level should be debug", func() {
				So(DefaultLogger.GetLevel(), ShouldEqual, log.DebugLevel)
			})
		})

		DefaultLogger.SetLevel(originalLevel)
	})
}

func TestParseLevel(t *testing.T) {
	Convey("When parsing textual levels", t, func() {
		So(ParseLevel("debug"), ShouldEqual, log.DebugLevel)
		So(ParseLevel(" INFO "), ShouldEqual, log.InfoLevel)
		So(ParseLevel("warning"), ShouldEqual, log.WarnLevel)
		So(ParseLevel("warn"), ShouldEqual, log.WarnLevel)
		So(ParseLevel("error"), ShouldEqual, log.ErrorLevel)

		Convey("Unknown levels fall back to info", func() {
			So(ParseLevel("verbose"), ShouldEqual, log.InfoLevel)
			So(ParseLevel(""), ShouldEqual, log.InfoLevel)
		})
	})
}

func TestLevelHelpers(t *testing.T) {
	Convey("Given a logger with a buffer output", t, func() {
		var buf bytes.Buffer
		restore := captureLogger(&buf, log.DebugLevel)
		defer restore()

		Convey("When logging at every level", func() {
			Debug("probe skipped")
			Info("upload started")
			Warn("object unchanged")
			Error("upload failed")

			Convey("Then every message should be in the output", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "probe skipped")
				So(out, ShouldContainSubstring, "upload started")
				So(out, ShouldContainSubstring, "object unchanged")
				So(out, ShouldContainSubstring, "upload failed")
			})
		})
	})
}

func TestWithFields(t *testing.T) {
	Convey("Given a logger", t, func() {
		Convey("When creating a logger with fields", func() {
			logger := WithFields("bucket", "b", "key", "k")

			var buf bytes.Buffer
			logger.SetOutput(&buf)
			logger.SetLevel(log.InfoLevel)
			logger.Info("test message")

			Convey("Then the fields should be attached", func() {
				So(buf.String(), ShouldContainSubstring, "bucket=b")
				So(buf.String(), ShouldContainSubstring, "key=k")
			})
		})
	})
}

func TestWithComponent(t *testing.T) {
	Convey("Given a logger", t, func() {
		Convey("When creating a logger with a component", func() {
			logger := WithComponent("upsert")

			var buf bytes.Buffer
			logger.SetOutput(&buf)
			logger.SetLevel(log.InfoLevel)
			logger.Info("test message")

			Convey("Then the logger should have the component field attached", func() {
				So(buf.String(), ShouldContainSubstring, "component=upsert")
			})
		})
	})
}

func TestWithInvocation(t *testing.T) {
	Convey("Given two invocations of the same component", t, func() {
		_, first := WithInvocation("put-object")
		_, second := WithInvocation("put-object")

		Convey("Then each should get its own id", func() {
			So(first, ShouldNotBeEmpty)
			So(second, ShouldNotBeEmpty)
			So(first, ShouldNotEqual, second)
		})
	})
}
