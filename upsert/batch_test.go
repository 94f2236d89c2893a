package upsert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func batchOf(keys ...string) []*Candidate {
	out := make([]*Candidate, len(keys))
	for i, key := range keys {
		out[i] = &Candidate{Bucket: "b", Key: key, Body: []byte("body of " + key), ContentType: "text/plain"}
	}
	return out
}

func keysOf(outcomes []*Outcome) []string {
	out := make([]string, len(outcomes))
	for i, outcome := range outcomes {
		out[i] = outcome.Key
	}
	return out
}

func TestUploadBatchValidation(t *testing.T) {
	Convey("Given a batch with one invalid candidate", t, func() {
		store := newMemoryStore()
		engine := NewEngine(store)

		for position := 0; position < 3; position++ {
			Convey(fmt.Sprintf("When candidate %d is missing its content type", position), func() {
				batch := batchOf("a", "b", "c")
				batch[position].ContentType = ""

				result, err := engine.UploadBatch(context.Background(), batch, true)

				Convey("Then the whole batch should be rejected before any call", func() {
					So(result, ShouldBeNil)
					So(IsValidationError(err), ShouldBeTrue)
					So(err.(*Error).Index, ShouldEqual, position)
					So(store.heads, ShouldBeEmpty)
					So(store.puts, ShouldBeEmpty)
				})
			})
		}

		Convey("When the batch is empty", func() {
			result, err := engine.UploadBatch(context.Background(), nil, true)

			Convey("Then it should be a validation error, not the unchanged signal", func() {
				So(result, ShouldBeNil)
				So(IsValidationError(err), ShouldBeTrue)
			})
		})
	})
}

func TestUploadBatchUnchanged(t *testing.T) {
	Convey("Given three candidates already stored with identical content", t, func() {
		store := newMemoryStore()
		batch := batchOf("a", "b", "c")
		for _, candidate := range batch {
			store.seed(candidate.Bucket, candidate.Key, string(candidate.Body))
		}

		result, err := NewEngine(store).UploadBatch(context.Background(), batch, true)

		Convey("Then the result should be the unchanged signal", func() {
			So(err, ShouldBeNil)
			So(result.Unchanged, ShouldBeTrue)
			So(result.Uploaded(), ShouldBeEmpty)
			So(keysOf(result.Outcomes), ShouldResemble, []string{"a", "b", "c"})
		})

		Convey("Then three probes and no uploads should be issued", func() {
			So(store.heads, ShouldHaveLength, 3)
			So(store.puts, ShouldBeEmpty)
		})
	})
}

func TestUploadBatchOrder(t *testing.T) {
	Convey("Given a mixed batch", t, func() {
		store := newMemoryStore()
		batch := batchOf("a", "b", "c", "d", "e", "f")
		store.seed("b", "b", "body of b")
		store.seed("b", "d", "stale")
		store.seed("b", "e", "body of e")

		for _, concurrency := range []int{1, 4} {
			Convey(fmt.Sprintf("When probing with concurrency %d", concurrency), func() {
				result, err := NewEngine(store, WithConcurrency(concurrency)).UploadBatch(context.Background(), batch, true)

				Convey("Then outcomes should follow input order", func() {
					So(err, ShouldBeNil)
					So(result.Unchanged, ShouldBeFalse)
					So(keysOf(result.Outcomes), ShouldResemble, []string{"a", "b", "c", "d", "e", "f"})
					So(keysOf(result.Uploaded()), ShouldResemble, []string{"a", "c", "d", "f"})
					So(result.Outcomes[1].Status, ShouldEqual, StatusSkippedIdentical)
					So(result.Outcomes[4].Status, ShouldEqual, StatusSkippedIdentical)
				})

				Convey("Then uploads should be issued sequentially in input order", func() {
					So(store.puts, ShouldResemble, []string{"a", "c", "d", "f"})
				})

				Convey("Then the summary should tally the batch", func() {
					summary := result.Summary()
					So(summary.Total, ShouldEqual, 6)
					So(summary.Uploaded, ShouldEqual, 4)
					So(summary.Skipped, ShouldEqual, 2)
					So(summary.Failed, ShouldEqual, 0)
					So(summary.Bytes, ShouldEqual, len("body of a")*4)
				})
			})
		}
	})
}

func TestUploadBatchUnconditional(t *testing.T) {
	Convey("Given identical stored objects and conditional off", t, func() {
		store := newMemoryStore()
		batch := batchOf("a", "b")
		store.seed("b", "a", "body of a")

		result, err := NewEngine(store).UploadBatch(context.Background(), batch, false)

		Convey("Then everything should be uploaded without probing", func() {
			So(err, ShouldBeNil)
			So(keysOf(result.Uploaded()), ShouldResemble, []string{"a", "b"})
			So(store.heads, ShouldBeEmpty)
		})
	})
}

func TestUploadBatchUploadFailure(t *testing.T) {
	Convey("Given a batch whose second upload fails", t, func() {
		store := newMemoryStore()
		cause := errors.New("access denied")
		store.putErr["b"] = cause

		result, err := NewEngine(store).UploadBatch(context.Background(), batchOf("a", "b", "c"), true)

		Convey("Then the batch should stop and keep the partial outcomes", func() {
			So(IsUploadError(err), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.(*Error).Index, ShouldEqual, 1)
			So(err.(*Error).Key, ShouldEqual, "b")

			So(keysOf(result.Outcomes), ShouldResemble, []string{"a", "b"})
			So(result.Outcomes[0].Status, ShouldEqual, StatusUploaded)
			So(result.Outcomes[1].Status, ShouldEqual, StatusFailed)
			So(store.puts, ShouldResemble, []string{"a", "b"})
		})

		Convey("Then the JSON report should carry the failure text", func() {
			data, jsonErr := json.Marshal(result)
			So(jsonErr, ShouldBeNil)

			var report struct {
				Outcomes []map[string]any `json:"outcomes"`
			}
			So(json.Unmarshal(data, &report), ShouldBeNil)
			So(report.Outcomes, ShouldHaveLength, 2)
			So(report.Outcomes[0], ShouldNotContainKey, "error")
			So(report.Outcomes[1]["error"], ShouldEqual, result.Outcomes[1].Err.Error())
			So(report.Outcomes[1]["error"], ShouldContainSubstring, "access denied")
		})
	})
}

func TestUploadBatchProbeFailures(t *testing.T) {
	Convey("Given a batch where one probe fails for a reason other than absence", t, func() {
		store := newMemoryStore()
		store.seed("b", "b", "body of b")
		store.headErr["b"] = errors.New("throttled")
		batch := batchOf("a", "b", "c")

		Convey("When probing leniently", func() {
			result, err := NewEngine(store).UploadBatch(context.Background(), batch, true)

			Convey("Then the item should be uploaded anyway", func() {
				So(err, ShouldBeNil)
				So(keysOf(result.Uploaded()), ShouldResemble, []string{"a", "b", "c"})
			})
		})

		Convey("When probing strictly", func() {
			result, err := NewEngine(store, WithStrictProbe(true)).UploadBatch(context.Background(), batch, true)

			Convey("Then the batch should stop at the failed probe", func() {
				So(IsProbeError(err), ShouldBeTrue)
				So(err.(*Error).Index, ShouldEqual, 1)
				So(keysOf(result.Outcomes), ShouldResemble, []string{"a", "b"})
				So(result.Outcomes[1].Status, ShouldEqual, StatusFailed)
				So(store.puts, ShouldResemble, []string{"a"})
			})
		})
	})
}

func TestUploadBatchCancellation(t *testing.T) {
	Convey("Given a context cancelled during the first probe", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		store := newMemoryStore()
		store.onHead = func(string) { cancel() }

		result, err := NewEngine(store).UploadBatch(ctx, batchOf("a", "b", "c"), true)

		Convey("Then no further calls should be issued", func() {
			So(store.heads, ShouldResemble, []string{"a"})
			So(store.puts, ShouldBeEmpty)
		})

		Convey("Then the partial result should come back with a cancellation error", func() {
			So(IsCanceledError(err), ShouldBeTrue)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(result, ShouldNotBeNil)
			So(result.Uploaded(), ShouldBeEmpty)
		})
	})

	Convey("Given a context cancelled after the first upload", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		store := newMemoryStore()
		engine := NewEngine(store, WithProgress(func(stage Stage, done, total int) {
			if stage == StageUploading && done == 1 {
				cancel()
			}
		}))

		result, err := engine.UploadBatch(ctx, batchOf("a", "b", "c"), false)

		Convey("Then the uploads done so far should be kept", func() {
			So(IsCanceledError(err), ShouldBeTrue)
			So(err.(*Error).Index, ShouldEqual, 1)
			So(keysOf(result.Uploaded()), ShouldResemble, []string{"a"})
			So(store.puts, ShouldResemble, []string{"a"})
		})
	})
}

func TestUploadBatchProgress(t *testing.T) {
	Convey("Given a progress callback", t, func() {
		type report struct {
			stage Stage
			done  int
			total int
		}
		var reports []report

		store := newMemoryStore()
		store.seed("b", "b", "body of b")

		engine := NewEngine(store, WithConcurrency(2), WithProgress(func(stage Stage, done, total int) {
			reports = append(reports, report{stage, done, total})
		}))

		_, err := engine.UploadBatch(context.Background(), batchOf("a", "b", "c"), true)
		So(err, ShouldBeNil)

		Convey("Then every probe and upload should be reported with a rising count", func() {
			So(reports, ShouldResemble, []report{
				{StageComparison, 1, 3},
				{StageComparison, 2, 3},
				{StageComparison, 3, 3},
				{StageUploading, 1, 2},
				{StageUploading, 2, 2},
			})
		})
	})
}
