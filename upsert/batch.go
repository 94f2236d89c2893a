package upsert

import (
	"context"

	"golang.org/x/sync/errgroup"
)

type verdict struct {
	decision decision
	err      error
}

/*
UploadBatch runs an ordered set of candidates through the engine.

The whole batch is validated before any I/O. With conditional set, every
candidate is probed first (bounded by WithConcurrency), then the ones that
differ are uploaded one at a time in input order. The result holds one
outcome per candidate processed, in input order. When nothing needed
uploading the result is marked Unchanged.

An upload failure stops the batch. The outcomes up to and including the
failing candidate are returned together with the error, and the same goes
for a cancelled context.
*/
func (e *Engine) UploadBatch(ctx context.Context, candidates []*Candidate, conditional bool) (*BatchResult, error) {
	if err := ValidateBatch(candidates); err != nil {
		return nil, err
	}

	verdicts := make([]verdict, len(candidates))

	if conditional {
		e.compare(ctx, candidates, verdicts)
	} else {
		for i := range verdicts {
			verdicts[i].decision = decisionUpload
		}
	}

	result := &BatchResult{
		Outcomes: make([]*Outcome, 0, len(candidates)),
		Total:    len(candidates),
	}

	pending := 0
	for _, v := range verdicts {
		if v.decision != decisionIdentical {
			pending++
		}
	}

	if pending == 0 {
		for _, candidate := range candidates {
			e.observeOutcome(StatusSkippedIdentical)
			result.Outcomes = append(result.Outcomes, skipped(candidate.Key))
		}
		result.Unchanged = true
		e.log.Info("All objects are identical to the stored ones, nothing uploaded", "count", len(candidates))
		return result, nil
	}

	uploads := 0
	for _, v := range verdicts {
		if v.decision == decisionUpload {
			uploads++
		}
	}
	progress := e.track(StageUploading, uploads)

	for i, candidate := range candidates {
		switch verdicts[i].decision {
		case decisionIdentical:
			e.observeOutcome(StatusSkippedIdentical)
			result.Outcomes = append(result.Outcomes, skipped(candidate.Key))
			continue

		case decisionFailed, decisionPending:
			err := verdicts[i].err
			if err == nil {
				err = NewError(ErrorTypeCanceled, "probe not started", ctx.Err()).WithKey(candidate.Key)
			}
			e.observeOutcome(StatusFailed)
			result.Outcomes = append(result.Outcomes, failed(candidate.Key, err))
			return result, indexed(err, i)
		}

		outcome := e.put(ctx, candidate)
		result.Outcomes = append(result.Outcomes, outcome)

		if outcome.Status == StatusFailed {
			return result, indexed(outcome.Err, i)
		}

		result.bytes += len(candidate.Body)
		progress.step()
	}

	return result, nil
}

/*
compare probes every candidate and records a verdict per index. Probes
never run once ctx is done; their verdict stays pending.
*/
func (e *Engine) compare(ctx context.Context, candidates []*Candidate, verdicts []verdict) {
	progress := e.track(StageComparison, len(candidates))

	var group errgroup.Group
	group.SetLimit(e.concurrency)

	for i, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}

		group.Go(func() error {
			decision, err := e.probe(ctx, candidate)
			verdicts[i] = verdict{decision: decision, err: err}
			if decision != decisionPending {
				progress.step()
			}
			return nil
		})
	}

	_ = group.Wait()
}

func indexed(err error, index int) error {
	if upsertErr, ok := err.(*Error); ok {
		copied := *upsertErr
		return copied.WithIndex(index)
	}
	return err
}
