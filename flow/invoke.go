package flow

import (
	"context"
	"time"
)

/*
Invoke runs one node invocation on a clone of msg and records its
duration. The caller's message is never modified.
*/
func Invoke(ctx context.Context, env *Env, node Node, msg Message) (Message, error) {
	env = env.Normalize()
	if msg == nil {
		msg = Message{}
	}

	start := time.Now()
	out, err := node.Handle(ctx, env, msg.Clone())
	env.Recorder.ObserveNode(node.Type(), err, time.Since(start))

	return out, err
}
