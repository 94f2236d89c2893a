package nodes

import (
	"github.com/theapemachine/s3flow/flow"
)

// Node types
const (
	TypeListBuckets        = "list-buckets"
	TypeCreateBucket       = "create-bucket"
	TypeListObjects        = "list-objects"
	TypeListObjectsV2      = "list-objects-v2"
	TypeListObjectVersions = "list-object-versions"
	TypeGetObject          = "get-object"
	TypeGetObjects         = "get-objects"
	TypeHeadObject         = "head-object"
	TypePutObject          = "put-object"
	TypePutObjects         = "put-objects"
	TypeDeleteObject       = "delete-object"
	TypeCopyObject         = "copy-object"
	TypeMoveObject         = "move-object"
	TypePutObjectACL       = "put-object-acl"
)

var factories = map[string]flow.Factory{
	TypeListBuckets:        NewListBuckets,
	TypeCreateBucket:       NewCreateBucket,
	TypeListObjects:        NewListObjects,
	TypeListObjectsV2:      NewListObjectsV2,
	TypeListObjectVersions: NewListObjectVersions,
	TypeGetObject:          NewGetObject,
	TypeGetObjects:         NewGetObjects,
	TypeHeadObject:         NewHeadObject,
	TypePutObject:          NewPutObject,
	TypePutObjects:         NewPutObjects,
	TypeDeleteObject:       NewDeleteObject,
	TypeCopyObject:         NewCopyObject,
	TypeMoveObject:         NewMoveObject,
	TypePutObjectACL:       NewPutObjectACL,
}

// Register adds every S3 node type to r
func Register(r *flow.Registry) error {
	for nodeType, factory := range factories {
		if err := r.Register(nodeType, factory); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding every S3 node type
func NewRegistry() *flow.Registry {
	r := flow.NewRegistry()
	if err := Register(r); err != nil {
		panic(err)
	}
	return r
}
