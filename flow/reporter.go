package flow

import (
	"github.com/charmbracelet/log"
)

// Phase of a node invocation as shown to the host
type Phase string

const (
	PhaseWorking Phase = "working"
	PhaseSuccess Phase = "success"
	PhaseWarning Phase = "warning"
	PhaseFailure Phase = "failure"
)

/*
Event is one status update of a node. Done and Total are set for
progress updates of multi-object nodes.
*/
type Event struct {
	Node  string
	Phase Phase
	Text  string
	Done  int
	Total int
}

// Percent returns the completion percentage of a progress event
func (e Event) Percent() int {
	if e.Total <= 0 {
		return 0
	}
	return e.Done * 100 / e.Total
}

/*
Reporter receives node status updates, the equivalent of the status light
a visual flow editor draws under a node.
*/
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to Reporter
type ReporterFunc func(Event)

func (f ReporterFunc) Report(e Event) {
	f(e)
}

type logReporter struct {
	log *log.Logger
}

// LogReporter writes every event to l
func LogReporter(l *log.Logger) Reporter {
	return &logReporter{log: l}
}

func (r *logReporter) Report(e Event) {
	fields := []any{"node", e.Node}
	if e.Total > 0 {
		fields = append(fields, "done", e.Done, "total", e.Total, "percent", e.Percent())
	}

	switch e.Phase {
	case PhaseFailure:
		r.log.Error(e.Text, fields...)
	case PhaseWarning:
		r.log.Warn(e.Text, fields...)
	case PhaseSuccess:
		r.log.Info(e.Text, fields...)
	default:
		r.log.Debug(e.Text, fields...)
	}
}

type nopReporter struct{}

func (nopReporter) Report(Event) {}

// NopReporter discards every event
func NopReporter() Reporter {
	return nopReporter{}
}
