package nodes

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/theapemachine/s3flow/flow"
	"github.com/theapemachine/s3flow/storage"
)

/*
ObjectPayload is what the get nodes send on: the object metadata, the raw
body, and the body as text when asked for.
*/
type ObjectPayload struct {
	storage.ObjectInfo
	Body               []byte `json:"body"`
	BodyAsString       string `json:"bodyAsString,omitempty"`
	BodyAsStringBase64 string `json:"bodyAsStringBase64,omitempty"`
}

// GetRequest identifies one object to download and how to render it
type GetRequest struct {
	Bucket              string `json:"bucket"`
	Key                 string `json:"key"`
	VersionID           string `json:"versionid,omitempty"`
	StringifyBody       bool   `json:"stringifybody,omitempty"`
	StringifyBodyBase64 bool   `json:"stringifybodybase64,omitempty"`
}

func (r *GetRequest) validate() error {
	if r.Bucket == "" {
		return flow.Missing(flow.FieldBucket)
	}
	if r.Key == "" {
		return flow.Missing(flow.FieldKey)
	}
	return nil
}

func fetch(ctx context.Context, session storage.Session, req *GetRequest) (*ObjectPayload, error) {
	getter, ok := session.(storage.ObjectGetter)
	if !ok {
		return nil, storage.ErrUnsupported
	}

	object, err := getter.GetObject(ctx, req.Bucket, req.Key, req.VersionID)
	if err != nil {
		return nil, err
	}

	payload := &ObjectPayload{ObjectInfo: object.ObjectInfo, Body: object.Body}
	if req.StringifyBody {
		payload.BodyAsString = string(object.Body)
	}
	if req.StringifyBodyBase64 {
		payload.BodyAsStringBase64 = base64.StdEncoding.EncodeToString(object.Body)
	}
	return payload, nil
}

// GetObject downloads one object
type GetObject struct {
	base
}

func NewGetObject(props flow.Properties) (flow.Node, error) {
	return &GetObject{base: newBase(TypeGetObject, props)}, nil
}

func (n *GetObject) request(msg flow.Message) (*GetRequest, error) {
	fields, err := n.params(msg, "!"+flow.FieldBucket, "!"+flow.FieldKey, "versionid")
	if err != nil {
		return nil, err
	}

	req := &GetRequest{Bucket: fields[flow.FieldBucket], Key: fields[flow.FieldKey], VersionID: fields["versionid"]}

	if req.StringifyBody, err = n.resolveBool(msg, "stringifybody"); err != nil {
		return nil, err
	}
	if req.StringifyBodyBase64, err = n.resolveBool(msg, "stringifybodybase64"); err != nil {
		return nil, err
	}
	return req, nil
}

func (n *GetObject) Handle(ctx context.Context, env *flow.Env, msg flow.Message) (flow.Message, error) {
	req, err := n.request(msg)
	if err != nil {
		return n.invalid(env, err)
	}

	var payload *ObjectPayload
	err = n.use(ctx, env, func(session storage.Session) (err error) {
		payload, err = fetch(ctx, session, req)
		return err
	})

	return n.finish(env, msg, payload, err, flow.FieldKey, req.Key)
}

/*
GetObjects downloads a list of objects in order with one session. The
list comes from the objects property (a JSON array string) or the objects
message field.
*/
type GetObjects struct {
	base
}

func NewGetObjects(props flow.Properties) (flow.Node, error) {
	return &GetObjects{base: newBase(TypeGetObjects, props)}, nil
}

func (n *GetObjects) requests(msg flow.Message) ([]*GetRequest, error) {
	raw, ok := flow.Resolve(n.props, msg, "objects")
	if !ok {
		return nil, flow.Missing("objects")
	}

	var encoded []byte
	switch value := raw.(type) {
	case string:
		encoded = []byte(value)
	default:
		var err error
		if encoded, err = json.Marshal(value); err != nil {
			return nil, flow.Malformed("objects", err.Error())
		}
	}

	var reqs []*GetRequest
	if err := json.Unmarshal(encoded, &reqs); err != nil {
		return nil, flow.Malformed("objects", "expected an array of {bucket, key} objects")
	}
	if len(reqs) == 0 {
		return nil, flow.Malformed("objects", "no objects given")
	}

	for i, req := range reqs {
		if req == nil {
			return nil, flow.Malformed("objects", fmt.Sprintf("element %d is null", i))
		}
		if err := req.validate(); err != nil {
			return nil, flow.Malformed("objects", fmt.Sprintf("element %d: %v", i, err))
		}
	}

	return reqs, nil
}

func (n *GetObjects) Handle(ctx context.Context, env *flow.Env, msg flow.Message) (flow.Message, error) {
	reqs, err := n.requests(msg)
	if err != nil {
		return n.invalid(env, err)
	}

	payloads := make([]*ObjectPayload, 0, len(reqs))
	err = n.use(ctx, env, func(session storage.Session) error {
		for i, req := range reqs {
			if err := ctx.Err(); err != nil {
				return err
			}

			payload, err := fetch(ctx, session, req)
			if err != nil {
				return err
			}
			payloads = append(payloads, payload)

			env.Reporter.Report(flow.Event{Node: n.nodeType, Phase: flow.PhaseWorking, Text: "Fetching", Done: i + 1, Total: len(reqs)})
		}
		return nil
	})

	return n.finish(env, msg, payloads, err)
}

// HeadObject fetches object metadata without the body
type HeadObject struct {
	base
}

func NewHeadObject(props flow.Properties) (flow.Node, error) {
	return &HeadObject{base: newBase(TypeHeadObject, props)}, nil
}

func (n *HeadObject) Handle(ctx context.Context, env *flow.Env, msg flow.Message) (flow.Message, error) {
	fields, err := n.params(msg, "!"+flow.FieldBucket, "!"+flow.FieldKey, "versionid")
	if err != nil {
		return n.invalid(env, err)
	}
	bucket, key, versionID := fields[flow.FieldBucket], fields[flow.FieldKey], fields["versionid"]

	var info *storage.ObjectInfo
	err = n.use(ctx, env, func(session storage.Session) (err error) {
		if versionID == "" {
			info, err = session.HeadObject(ctx, bucket, key)
			return err
		}

		service, err := storage.AsService(session)
		if err != nil {
			return err
		}
		info, err = service.HeadObjectVersion(ctx, bucket, key, versionID)
		return err
	})

	return n.finish(env, msg, info, err, flow.FieldKey, key)
}

// DeleteObject removes an object or one of its versions
type DeleteObject struct {
	base
}

func NewDeleteObject(props flow.Properties) (flow.Node, error) {
	return &DeleteObject{base: newBase(TypeDeleteObject, props)}, nil
}

func (n *DeleteObject) Handle(ctx context.Context, env *flow.Env, msg flow.Message) (flow.Message, error) {
	fields, err := n.params(msg, "!"+flow.FieldBucket, "!"+flow.FieldKey, "versionid")
	if err != nil {
		return n.invalid(env, err)
	}
	bucket, key := fields[flow.FieldBucket], fields[flow.FieldKey]

	var result *storage.DeleteResult
	err = n.use(ctx, env, func(session storage.Session) error {
		deleter, ok := session.(storage.ObjectDeleter)
		if !ok {
			return storage.ErrUnsupported
		}

		var err error
		result, err = deleter.DeleteObject(ctx, bucket, key, fields["versionid"])
		return err
	})

	return n.finish(env, msg, result, err, flow.FieldKey, key)
}
