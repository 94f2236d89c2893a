package nodes

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/theapemachine/s3flow/flow"
	"github.com/theapemachine/s3flow/storage"
)

// ListBuckets lists every bucket the credentials can see
type ListBuckets struct {
	base
}

func NewListBuckets(props flow.Properties) (flow.Node, error) {
	return &ListBuckets{base: newBase(TypeListBuckets, props)}, nil
}

func (n *ListBuckets) Handle(ctx context.Context, env *flow.Env, msg flow.Message) (flow.Message, error) {
	var out *s3.ListBucketsOutput

	err := n.service(ctx, env, func(service storage.Service) (err error) {
		out, err = service.ListBuckets(ctx)
		return err
	})

	return n.finish(env, msg, out, err)
}

// CreateBucket creates a bucket in the configured region
type CreateBucket struct {
	base
}

func NewCreateBucket(props flow.Properties) (flow.Node, error) {
	return &CreateBucket{base: newBase(TypeCreateBucket, props)}, nil
}

func (n *CreateBucket) Handle(ctx context.Context, env *flow.Env, msg flow.Message) (flow.Message, error) {
	bucket, err := n.requireString(msg, flow.FieldBucket)
	if err != nil {
		return n.invalid(env, err)
	}

	var out *s3.CreateBucketOutput

	err = n.service(ctx, env, func(service storage.Service) (err error) {
		out, err = service.CreateBucket(ctx, bucket)
		return err
	})

	return n.finish(env, msg, out, err, flow.FieldBucket, bucket)
}
