package nodes

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/theapemachine/s3flow/flow"
	"github.com/theapemachine/s3flow/storage"
)

// CopyObject copies an object server side from copysource ("bucket/key")
type CopyObject struct {
	base
}

func NewCopyObject(props flow.Properties) (flow.Node, error) {
	return &CopyObject{base: newBase(TypeCopyObject, props)}, nil
}

func (n *CopyObject) Handle(ctx context.Context, env *flow.Env, msg flow.Message) (flow.Message, error) {
	fields, err := n.params(msg, "!"+flow.FieldBucket, "!"+flow.FieldKey, "!copysource", "versionid", "contentencoding", "acl")
	if err != nil {
		return n.invalid(env, err)
	}
	if err := checkContentEncoding(fields["contentencoding"]); err != nil {
		return n.invalid(env, err)
	}
	if err := checkACL(fields["acl"]); err != nil {
		return n.invalid(env, err)
	}

	req := &storage.CopyRequest{
		Bucket:          fields[flow.FieldBucket],
		Key:             fields[flow.FieldKey],
		CopySource:      CopySource(fields["copysource"], fields["versionid"]),
		ContentEncoding: fields["contentencoding"],
		ACL:             fields["acl"],
	}

	var out *s3.CopyObjectOutput
	err = n.service(ctx, env, func(service storage.Service) (err error) {
		out, err = service.CopyObject(ctx, req)
		return err
	})

	return n.finish(env, msg, out, err, flow.FieldBucket, req.Bucket)
}

/*
MoveObject copies sourcebucket/sourcekey to bucket/key and deletes the
source once the copy succeeded. The payload is the copy response.
*/
type MoveObject struct {
	base
}

func NewMoveObject(props flow.Properties) (flow.Node, error) {
	return &MoveObject{base: newBase(TypeMoveObject, props)}, nil
}

func (n *MoveObject) Handle(ctx context.Context, env *flow.Env, msg flow.Message) (flow.Message, error) {
	fields, err := n.params(msg, "!"+flow.FieldBucket, "!"+flow.FieldKey, "!sourcebucket", "!sourcekey")
	if err != nil {
		return n.invalid(env, err)
	}

	req := &storage.CopyRequest{
		Bucket:     fields[flow.FieldBucket],
		Key:        fields[flow.FieldKey],
		CopySource: CopySource(fields["sourcebucket"]+"/"+fields["sourcekey"], ""),
	}

	var out *s3.CopyObjectOutput
	err = n.service(ctx, env, func(service storage.Service) (err error) {
		if out, err = service.CopyObject(ctx, req); err != nil {
			return err
		}
		if err = ctx.Err(); err != nil {
			return err
		}
		_, err = service.DeleteObject(ctx, fields["sourcebucket"], fields["sourcekey"], "")
		return err
	})

	return n.finish(env, msg, out, err, flow.FieldKey, req.Key)
}

// PutObjectACL replaces the canned ACL of an object
type PutObjectACL struct {
	base
}

func NewPutObjectACL(props flow.Properties) (flow.Node, error) {
	return &PutObjectACL{base: newBase(TypePutObjectACL, props)}, nil
}

func (n *PutObjectACL) Handle(ctx context.Context, env *flow.Env, msg flow.Message) (flow.Message, error) {
	fields, err := n.params(msg, "!"+flow.FieldBucket, "!"+flow.FieldKey, "!acl")
	if err != nil {
		return n.invalid(env, err)
	}
	if err := checkACL(fields["acl"]); err != nil {
		return n.invalid(env, err)
	}

	var out *s3.PutObjectAclOutput
	err = n.service(ctx, env, func(service storage.Service) (err error) {
		out, err = service.PutObjectACL(ctx, fields[flow.FieldBucket], fields[flow.FieldKey], fields["acl"])
		return err
	})

	return n.finish(env, msg, out, err, flow.FieldKey, fields[flow.FieldKey])
}
