package storage

import (
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

/*
ObjectInfo is the metadata a probe returns for an existing object. ETag is
kept exactly as the service reports it, quotes included.
*/
type ObjectInfo struct {
	Bucket          string            `json:"bucket"`
	Key             string            `json:"key"`
	ETag            string            `json:"etag"`
	ContentType     string            `json:"content_type,omitempty"`
	ContentEncoding string            `json:"content_encoding,omitempty"`
	ContentLength   int64             `json:"content_length"`
	LastModified    time.Time         `json:"last_modified"`
	VersionID       string            `json:"version_id,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

/*
Object is a fully downloaded object: its metadata plus the body bytes.
*/
type Object struct {
	ObjectInfo
	Body []byte `json:"-"`
}

// PutRequest carries everything needed to write one object
type PutRequest struct {
	Bucket          string
	Key             string
	Body            []byte
	ContentType     string
	ContentEncoding string
	ACL             string
	Metadata        map[string]string
}

// PutResult is what the service answers to a successful write
type PutResult struct {
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	ETag      string `json:"etag"`
	VersionID string `json:"version_id,omitempty"`
}

// DeleteResult is what the service answers to a delete
type DeleteResult struct {
	Bucket       string `json:"bucket"`
	Key          string `json:"key"`
	VersionID    string `json:"version_id,omitempty"`
	DeleteMarker bool   `json:"delete_marker"`
}

/*
ListQuery holds the paging parameters shared by the three list flavours.
Only the fields relevant to a given call are sent; zero values are omitted.
*/
type ListQuery struct {
	Bucket            string
	Prefix            string
	MaxKeys           int32
	Marker            string
	StartAfter        string
	ContinuationToken string
	KeyMarker         string
	VersionIDMarker   string
}

// CopyRequest describes a server side copy. CopySource must already be URI encoded.
type CopyRequest struct {
	Bucket          string
	Key             string
	CopySource      string
	ContentEncoding string
	ACL             string
}

/*
ObjectStore is the capability the upsert engine consumes. HeadObject fails
when the object does not exist; callers that care can tell a missing object
from other failures with IsNotFound.
*/
type ObjectStore interface {
	HeadObject(ctx context.Context, bucket, key string) (*ObjectInfo, error)
	PutObject(ctx context.Context, req *PutRequest) (*PutResult, error)
}

// ObjectGetter downloads objects
type ObjectGetter interface {
	GetObject(ctx context.Context, bucket, key, versionID string) (*Object, error)
}

// ObjectDeleter removes objects
type ObjectDeleter interface {
	DeleteObject(ctx context.Context, bucket, key, versionID string) (*DeleteResult, error)
}

/*
Session is one acquired storage client. It must be closed once the
invocation that opened it is done, on every exit path.
*/
type Session interface {
	ObjectStore
	io.Closer
}

/*
Service is the full S3 surface the flow nodes are built on. Only S3Storage
implements it; the file backend stops at ObjectStore, ObjectGetter and
ObjectDeleter.
*/
type Service interface {
	Session
	ObjectGetter
	ObjectDeleter
	ListBuckets(ctx context.Context) (*s3.ListBucketsOutput, error)
	CreateBucket(ctx context.Context, bucket string) (*s3.CreateBucketOutput, error)
	ListObjects(ctx context.Context, q *ListQuery) (*s3.ListObjectsOutput, error)
	ListObjectsV2(ctx context.Context, q *ListQuery) (*s3.ListObjectsV2Output, error)
	ListObjectVersions(ctx context.Context, q *ListQuery) (*s3.ListObjectVersionsOutput, error)
	HeadObjectVersion(ctx context.Context, bucket, key, versionID string) (*ObjectInfo, error)
	CopyObject(ctx context.Context, req *CopyRequest) (*s3.CopyObjectOutput, error)
	PutObjectACL(ctx context.Context, bucket, key, acl string) (*s3.PutObjectAclOutput, error)
}

/*
Opener acquires a new Session. Every node invocation calls it once.
*/
type Opener func(ctx context.Context) (Session, error)

/*
Use opens a session, hands it to fn and closes it afterwards, whatever fn
returns. A close error is reported only when fn itself succeeded.
*/
func Use(ctx context.Context, open Opener, fn func(Session) error) (err error) {
	session, err := open(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := session.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return fn(session)
}
