package nodes

import (
	"context"

	"github.com/theapemachine/s3flow/flow"
	"github.com/theapemachine/s3flow/storage"
)

/*
base holds what every node shares: its type and the static properties it
was configured with. Properties are only ever read.
*/
type base struct {
	nodeType string
	props    flow.Properties
}

func newBase(nodeType string, props flow.Properties) base {
	if props == nil {
		props = flow.Properties{}
	}
	return base{nodeType: nodeType, props: props}
}

func (b base) Type() string {
	return b.nodeType
}

func (b base) report(env *flow.Env, phase flow.Phase, text string) {
	env.Reporter.Report(flow.Event{Node: b.nodeType, Phase: phase, Text: text})
}

// invalid reports a parameter problem; nothing is sent on
func (b base) invalid(env *flow.Env, err error) (flow.Message, error) {
	env.Logger.Error("Invalid node input", "node", b.nodeType, "error", err)
	b.report(env, flow.PhaseFailure, "Invalid input")
	return nil, err
}

/*
use acquires one storage session for the invocation and releases it once fn
returns, on every path.
*/
func (b base) use(ctx context.Context, env *flow.Env, fn func(storage.Session) error) error {
	if env.Open == nil {
		return storage.ErrUnsupported
	}
	b.report(env, flow.PhaseWorking, "Working")
	return storage.Use(ctx, env.Open, fn)
}

// service runs fn on a session that provides the full S3 surface
func (b base) service(ctx context.Context, env *flow.Env, fn func(storage.Service) error) error {
	return b.use(ctx, env, func(session storage.Session) error {
		service, err := storage.AsService(session)
		if err != nil {
			return err
		}
		return fn(service)
	})
}

/*
finish builds the message to send on. On failure the payload is nil and the
error is attached, and the error is returned as well.
*/
func (b base) finish(env *flow.Env, msg flow.Message, payload any, err error, fields ...any) (flow.Message, error) {
	out := msg.Clone()

	for i := 0; i+1 < len(fields); i += 2 {
		if name, ok := fields[i].(string); ok {
			out[name] = fields[i+1]
		}
	}

	if err != nil {
		out[flow.FieldPayload] = nil
		out[flow.FieldError] = err.Error()
		env.Logger.Error("Node operation failed", "node", b.nodeType, "error", err)
		b.report(env, flow.PhaseFailure, "Failure")
		return out, err
	}

	delete(out, flow.FieldError)
	out[flow.FieldPayload] = payload
	b.report(env, flow.PhaseSuccess, "Success")
	return out, nil
}

func (b base) requireString(msg flow.Message, field string) (string, error) {
	return flow.RequireString(b.props, msg, field)
}

func (b base) resolveString(msg flow.Message, field string) (string, error) {
	return flow.ResolveString(b.props, msg, field)
}

func (b base) resolveBool(msg flow.Message, field string) (bool, error) {
	return flow.ResolveBool(b.props, msg, field)
}

func (b base) resolvePositiveInt(msg flow.Message, field string) (int32, error) {
	return flow.ResolvePositiveInt(b.props, msg, field)
}

/*
params resolves several text fields at once. Names prefixed with "!" are
required.
*/
func (b base) params(msg flow.Message, fields ...string) (map[string]string, error) {
	out := make(map[string]string, len(fields))

	for _, field := range fields {
		required := false
		if len(field) > 0 && field[0] == '!' {
			required = true
			field = field[1:]
		}

		var (
			value string
			err   error
		)
		if required {
			value, err = b.requireString(msg, field)
		} else {
			value, err = b.resolveString(msg, field)
		}
		if err != nil {
			return nil, err
		}
		out[field] = value
	}

	return out, nil
}
