package nodes

import (
	"context"

	"github.com/theapemachine/s3flow/flow"
	"github.com/theapemachine/s3flow/storage"
)

// query resolves the bucket, maxkeys and the given optional text fields
func (b base) query(msg flow.Message, optional ...string) (*storage.ListQuery, map[string]string, error) {
	fields, err := b.params(msg, append([]string{"!" + flow.FieldBucket, "prefix"}, optional...)...)
	if err != nil {
		return nil, nil, err
	}

	maxKeys, err := b.resolvePositiveInt(msg, "maxkeys")
	if err != nil {
		return nil, nil, err
	}

	return &storage.ListQuery{
		Bucket:  fields[flow.FieldBucket],
		Prefix:  fields["prefix"],
		MaxKeys: maxKeys,
	}, fields, nil
}

// ListObjects lists a bucket page by page with markers
type ListObjects struct {
	base
}

func NewListObjects(props flow.Properties) (flow.Node, error) {
	return &ListObjects{base: newBase(TypeListObjects, props)}, nil
}

func (n *ListObjects) Handle(ctx context.Context, env *flow.Env, msg flow.Message) (flow.Message, error) {
	q, fields, err := n.query(msg, "marker")
	if err != nil {
		return n.invalid(env, err)
	}
	q.Marker = fields["marker"]

	var payload any
	err = n.service(ctx, env, func(service storage.Service) error {
		out, err := service.ListObjects(ctx, q)
		payload = out
		return err
	})

	return n.finish(env, msg, payload, err, flow.FieldBucket, q.Bucket)
}

// ListObjectsV2 lists a bucket with continuation tokens
type ListObjectsV2 struct {
	base
}

func NewListObjectsV2(props flow.Properties) (flow.Node, error) {
	return &ListObjectsV2{base: newBase(TypeListObjectsV2, props)}, nil
}

func (n *ListObjectsV2) Handle(ctx context.Context, env *flow.Env, msg flow.Message) (flow.Message, error) {
	q, fields, err := n.query(msg, "startafter", "continuationtoken")
	if err != nil {
		return n.invalid(env, err)
	}
	q.StartAfter = fields["startafter"]
	q.ContinuationToken = fields["continuationtoken"]

	var payload any
	err = n.service(ctx, env, func(service storage.Service) error {
		out, err := service.ListObjectsV2(ctx, q)
		payload = out
		return err
	})

	return n.finish(env, msg, payload, err, flow.FieldBucket, q.Bucket)
}

// ListObjectVersions lists every stored version in a bucket
type ListObjectVersions struct {
	base
}

func NewListObjectVersions(props flow.Properties) (flow.Node, error) {
	return &ListObjectVersions{base: newBase(TypeListObjectVersions, props)}, nil
}

func (n *ListObjectVersions) Handle(ctx context.Context, env *flow.Env, msg flow.Message) (flow.Message, error) {
	q, fields, err := n.query(msg, "keymarker", "versionidmarker")
	if err != nil {
		return n.invalid(env, err)
	}
	q.KeyMarker = fields["keymarker"]
	q.VersionIDMarker = fields["versionidmarker"]

	var payload any
	err = n.service(ctx, env, func(service storage.Service) error {
		out, err := service.ListObjectVersions(ctx, q)
		payload = out
		return err
	})

	return n.finish(env, msg, payload, err, flow.FieldBucket, q.Bucket)
}
