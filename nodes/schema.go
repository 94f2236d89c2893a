package nodes

import (
	"fmt"

	"github.com/invopop/jsonschema"
)

type bucketInput struct {
	Bucket string `json:"bucket" jsonschema:"description=Bucket name"`
}

type listObjectsInput struct {
	Bucket  string `json:"bucket" jsonschema:"description=Bucket name"`
	Prefix  string `json:"prefix,omitempty"`
	Marker  string `json:"marker,omitempty"`
	MaxKeys int    `json:"maxkeys,omitempty" jsonschema:"minimum=1"`
}

type listObjectsV2Input struct {
	Bucket            string `json:"bucket" jsonschema:"description=Bucket name"`
	Prefix            string `json:"prefix,omitempty"`
	StartAfter        string `json:"startafter,omitempty"`
	ContinuationToken string `json:"continuationtoken,omitempty"`
	MaxKeys           int    `json:"maxkeys,omitempty" jsonschema:"minimum=1"`
}

type listObjectVersionsInput struct {
	Bucket          string `json:"bucket" jsonschema:"description=Bucket name"`
	Prefix          string `json:"prefix,omitempty"`
	KeyMarker       string `json:"keymarker,omitempty"`
	VersionIDMarker string `json:"versionidmarker,omitempty"`
	MaxKeys         int    `json:"maxkeys,omitempty" jsonschema:"minimum=1"`
}

type versionedObjectInput struct {
	Bucket    string `json:"bucket" jsonschema:"description=Bucket name"`
	Key       string `json:"key" jsonschema:"description=Object key"`
	VersionID string `json:"versionid,omitempty"`
}

type getObjectsInput struct {
	Objects []GetRequest `json:"objects" jsonschema:"minItems=1"`
}

type putObjectInput struct {
	Bucket          string         `json:"bucket" jsonschema:"description=Bucket name"`
	Key             string         `json:"key" jsonschema:"description=Object key"`
	Body            string         `json:"body" jsonschema:"description=Object content"`
	ContentType     string         `json:"contentType"`
	Stream          bool           `json:"stream,omitempty" jsonschema:"description=Accept a binary body"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	Upsert          bool           `json:"upsert,omitempty" jsonschema:"description=Skip the upload when the stored object is identical"`
	ContentEncoding string         `json:"contentencoding,omitempty"`
	ACL             string         `json:"acl,omitempty"`
}

type candidateInput struct {
	Bucket          string         `json:"bucket"`
	Key             string         `json:"key"`
	Body            string         `json:"body"`
	ContentType     string         `json:"contentType"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	ContentEncoding string         `json:"contentEncoding,omitempty"`
	ACL             string         `json:"acl,omitempty"`
}

type putObjectsInput struct {
	Objects []candidateInput `json:"objects" jsonschema:"minItems=1"`
	Upsert  bool             `json:"upsert,omitempty"`
}

type copyObjectInput struct {
	Bucket          string `json:"bucket" jsonschema:"description=Bucket name"`
	Key             string `json:"key" jsonschema:"description=Object key"`
	CopySource      string `json:"copysource" jsonschema:"description=Source as bucket/key"`
	VersionID       string `json:"versionid,omitempty"`
	ContentEncoding string `json:"contentencoding,omitempty"`
	ACL             string `json:"acl,omitempty"`
}

type moveObjectInput struct {
	Bucket       string `json:"bucket" jsonschema:"description=Bucket name"`
	Key          string `json:"key" jsonschema:"description=Object key"`
	SourceBucket string `json:"sourcebucket"`
	SourceKey    string `json:"sourcekey"`
}

type putObjectACLInput struct {
	Bucket string `json:"bucket" jsonschema:"description=Bucket name"`
	Key    string `json:"key" jsonschema:"description=Object key"`
	ACL    string `json:"acl"`
}

/*
GenerateSchema creates a JSON schema for the message a node reads.
It uses reflection to generate a schema based on the provided type T.
*/
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(&v)
}

var schemas = map[string]func() *jsonschema.Schema{
	TypeListBuckets:        GenerateSchema[struct{}],
	TypeCreateBucket:       GenerateSchema[bucketInput],
	TypeListObjects:        GenerateSchema[listObjectsInput],
	TypeListObjectsV2:      GenerateSchema[listObjectsV2Input],
	TypeListObjectVersions: GenerateSchema[listObjectVersionsInput],
	TypeGetObject:          GenerateSchema[GetRequest],
	TypeGetObjects:         GenerateSchema[getObjectsInput],
	TypeHeadObject:         GenerateSchema[versionedObjectInput],
	TypePutObject:          GenerateSchema[putObjectInput],
	TypePutObjects:         GenerateSchema[putObjectsInput],
	TypeDeleteObject:       GenerateSchema[versionedObjectInput],
	TypeCopyObject:         GenerateSchema[copyObjectInput],
	TypeMoveObject:         GenerateSchema[moveObjectInput],
	TypePutObjectACL:       GenerateSchema[putObjectACLInput],
}

// Schema returns the JSON schema of the message a node type reads
func Schema(nodeType string) (*jsonschema.Schema, error) {
	generate, ok := schemas[nodeType]
	if !ok {
		return nil, fmt.Errorf("unknown node type %s", nodeType)
	}
	return generate(), nil
}
