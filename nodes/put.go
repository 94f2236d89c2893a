package nodes

import (
	"context"

	"github.com/theapemachine/s3flow/flow"
	"github.com/theapemachine/s3flow/storage"
	"github.com/theapemachine/s3flow/upsert"
)

func (b base) engine(env *flow.Env, session storage.Session) *upsert.Engine {
	return upsert.NewEngine(session,
		upsert.WithLogger(env.Logger.With("node", b.nodeType)),
		upsert.WithRecorder(env.Recorder),
		upsert.WithConcurrency(env.Concurrency),
		upsert.WithStrictProbe(env.StrictProbe),
		upsert.WithProgress(func(stage upsert.Stage, done, total int) {
			env.Reporter.Report(flow.Event{
				Node:  b.nodeType,
				Phase: flow.PhaseWorking,
				Text:  string(stage),
				Done:  done,
				Total: total,
			})
		}),
	)
}

/*
PutObject uploads one object. With upsert set the upload is skipped when the
stored object already has the same content; the node then sends the message
on with a nil payload.
*/
type PutObject struct {
	base
}

func NewPutObject(props flow.Properties) (flow.Node, error) {
	return &PutObject{base: newBase(TypePutObject, props)}, nil
}

func (n *PutObject) candidate(msg flow.Message) (*upsert.Candidate, bool, error) {
	fields, err := n.params(msg, "!"+flow.FieldBucket, "!"+flow.FieldKey, "!contentType", "contentencoding", "acl")
	if err != nil {
		return nil, false, err
	}

	stream, err := n.resolveBool(msg, "stream")
	if err != nil {
		return nil, false, err
	}

	raw, ok := flow.Resolve(n.props, msg, "body")
	if !ok {
		return nil, false, flow.Missing("body")
	}

	var body []byte
	switch value := raw.(type) {
	case string:
		body = []byte(value)
	case []byte:
		if !stream {
			return nil, false, flow.Malformed("body", "binary bodies need stream to be set")
		}
		body = value
	default:
		return nil, false, flow.Malformed("body", "the body should be formatted as string")
	}

	if err := checkContentEncoding(fields["contentencoding"]); err != nil {
		return nil, false, err
	}
	if err := checkACL(fields["acl"]); err != nil {
		return nil, false, err
	}

	var metadata map[string]string
	if rawMetadata, ok := flow.Resolve(n.props, msg, "metadata"); ok {
		parsed, err := upsert.MetadataFrom(rawMetadata)
		if err != nil {
			return nil, false, flow.Malformed("metadata", "the metadata should be an object")
		}
		metadata = parsed
	}

	conditional, err := n.resolveBool(msg, "upsert")
	if err != nil {
		return nil, false, err
	}

	return &upsert.Candidate{
		Bucket:          fields[flow.FieldBucket],
		Key:             fields[flow.FieldKey],
		Body:            body,
		ContentType:     fields["contentType"],
		ContentEncoding: fields["contentencoding"],
		ACL:             fields["acl"],
		Metadata:        metadata,
	}, conditional, nil
}

func (n *PutObject) Handle(ctx context.Context, env *flow.Env, msg flow.Message) (flow.Message, error) {
	candidate, conditional, err := n.candidate(msg)
	if err != nil {
		return n.invalid(env, err)
	}

	var outcome *upsert.Outcome
	err = n.use(ctx, env, func(session storage.Session) error {
		outcome = n.engine(env, session).Upload(ctx, candidate, conditional)
		return outcome.Err
	})

	if err == nil && outcome.Status == upsert.StatusSkippedIdentical {
		n.report(env, flow.PhaseWarning, "Unchanged")
		out := msg.Clone()
		delete(out, flow.FieldError)
		out[flow.FieldPayload] = nil
		out[flow.FieldKey] = candidate.Key
		return out, nil
	}

	var payload *storage.PutResult
	if outcome != nil {
		payload = outcome.Result
	}
	return n.finish(env, msg, payload, err, flow.FieldKey, candidate.Key)
}

// UploadResponse is one element of the put-objects payload
type UploadResponse struct {
	Payload *storage.PutResult `json:"payload"`
	Key     string             `json:"key"`
}

/*
PutObjects uploads a list of objects through the batch coordinator. The
payload lists the uploaded objects in input order. When upsert found every
object unchanged the payload is nil and a warning is reported.
*/
type PutObjects struct {
	base
}

func NewPutObjects(props flow.Properties) (flow.Node, error) {
	return &PutObjects{base: newBase(TypePutObjects, props)}, nil
}

func (n *PutObjects) Handle(ctx context.Context, env *flow.Env, msg flow.Message) (flow.Message, error) {
	raw, ok := flow.Resolve(n.props, msg, "objects")
	if !ok {
		return n.invalid(env, flow.Missing("objects"))
	}

	candidates, err := upsert.CandidatesFrom(raw)
	if err == nil {
		err = upsert.ValidateBatch(candidates)
	}
	if err != nil {
		return n.invalid(env, err)
	}

	for _, candidate := range candidates {
		if err := checkContentEncoding(candidate.ContentEncoding); err != nil {
			return n.invalid(env, err)
		}
		if err := checkACL(candidate.ACL); err != nil {
			return n.invalid(env, err)
		}
	}

	conditional, err := n.resolveBool(msg, "upsert")
	if err != nil {
		return n.invalid(env, err)
	}

	var result *upsert.BatchResult
	err = n.use(ctx, env, func(session storage.Session) (err error) {
		result, err = n.engine(env, session).UploadBatch(ctx, candidates, conditional)
		return err
	})

	if err == nil && result.Unchanged {
		n.report(env, flow.PhaseWarning, "No objects uploaded")
		env.Logger.Warn("All of the objects are exactly the same as the already existing ones", "node", n.nodeType, "count", len(candidates))
		out := msg.Clone()
		delete(out, flow.FieldError)
		out[flow.FieldPayload] = nil
		return out, nil
	}

	var responses []UploadResponse
	if result != nil {
		for _, outcome := range result.Uploaded() {
			responses = append(responses, UploadResponse{Payload: outcome.Result, Key: outcome.Key})
		}
	}

	out, err := n.finish(env, msg, responses, err)
	if err != nil && len(responses) > 0 {
		// keep what was written before the failure
		out["uploaded"] = responses
	}
	return out, err
}
