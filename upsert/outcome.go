package upsert

import "github.com/theapemachine/s3flow/storage"

// Status is the result of one conditional upload decision
type Status string

const (
	StatusUploaded         Status = "uploaded"
	StatusSkippedIdentical Status = "skipped_identical"
	StatusFailed           Status = "failed"
)

/*
Outcome is the per-candidate result. Result is set iff the object was
uploaded; Err is set iff it failed, and Error carries its text for JSON
reports.
*/
type Outcome struct {
	Key    string             `json:"key"`
	Status Status             `json:"status"`
	Result *storage.PutResult `json:"result,omitempty"`
	Error  string             `json:"error,omitempty"`
	Err    error              `json:"-"`
}

func uploaded(key string, result *storage.PutResult) *Outcome {
	return &Outcome{Key: key, Status: StatusUploaded, Result: result}
}

func skipped(key string) *Outcome {
	return &Outcome{Key: key, Status: StatusSkippedIdentical}
}

func failed(key string, err error) *Outcome {
	outcome := &Outcome{Key: key, Status: StatusFailed, Err: err}
	if err != nil {
		outcome.Error = err.Error()
	}
	return outcome
}

/*
Summary counts the outcomes of a batch by status.
*/
type Summary struct {
	Total    int `json:"total"`
	Uploaded int `json:"uploaded"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
	Bytes    int `json:"bytes"`
}

/*
BatchResult holds one outcome per processed candidate, in input order.
Unchanged is the distinguished signal that every candidate was already
identical on the backend and nothing was uploaded.
*/
type BatchResult struct {
	Outcomes  []*Outcome `json:"outcomes"`
	Unchanged bool       `json:"unchanged"`
	Total     int        `json:"total"`
	bytes     int
}

// Uploaded returns the uploaded outcomes, in input order
func (r *BatchResult) Uploaded() []*Outcome {
	out := make([]*Outcome, 0, len(r.Outcomes))
	for _, outcome := range r.Outcomes {
		if outcome.Status == StatusUploaded {
			out = append(out, outcome)
		}
	}
	return out
}

// Summary tallies the outcomes
func (r *BatchResult) Summary() Summary {
	summary := Summary{Total: r.Total, Bytes: r.bytes}

	for _, outcome := range r.Outcomes {
		switch outcome.Status {
		case StatusUploaded:
			summary.Uploaded++
		case StatusSkippedIdentical:
			summary.Skipped++
		case StatusFailed:
			summary.Failed++
		}
	}

	return summary
}
