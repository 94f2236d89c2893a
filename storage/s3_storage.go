package storage

import (
	"bytes"
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/charmbracelet/log"
	"github.com/theapemachine/s3flow/logger"
)

const (
	// DefaultRegion is used when no region is configured
	DefaultRegion = "us-east-1"
)

// S3StorageOption defines options for the S3Storage
type S3StorageOption func(*S3Storage)

// WithRegion sets the AWS region
func WithRegion(region string) S3StorageOption {
	return func(s *S3Storage) {
		if region != "" {
			s.region = region
		}
	}
}

// WithEndpoint points the client at an S3 compatible service
func WithEndpoint(endpoint string) S3StorageOption {
	return func(s *S3Storage) {
		s.endpoint = endpoint
	}
}

// WithPathStyle forces path-style addressing (bucket in the path, not the host)
func WithPathStyle(enabled bool) S3StorageOption {
	return func(s *S3Storage) {
		s.pathStyle = enabled
	}
}

// WithCredentials uses a static key pair instead of the default credential chain
func WithCredentials(accessKeyID, secretAccessKey string) S3StorageOption {
	return func(s *S3Storage) {
		s.accessKeyID = accessKeyID
		s.secretAccessKey = secretAccessKey
	}
}

// WithAPI sets a custom S3 client
func WithAPI(api S3API) S3StorageOption {
	return func(s *S3Storage) {
		s.api = api
	}
}

/*
S3Storage is one S3 client session. It owns its HTTP client, so closing it
releases the pooled connections opened on its behalf.
*/
type S3Storage struct {
	region          string
	endpoint        string
	pathStyle       bool
	accessKeyID     string
	secretAccessKey string
	api             S3API
	httpClient      *awshttp.BuildableClient
	log             *log.Logger
}

/*
NewS3Storage creates a new S3Storage instance. Unless a client is injected
with WithAPI, the AWS configuration is loaded from the default chain and
overridden by the given options.
*/
func NewS3Storage(ctx context.Context, opts ...S3StorageOption) (*S3Storage, error) {
	storage := &S3Storage{
		region: DefaultRegion,
		log:    logger.WithComponent("s3"),
	}

	for _, opt := range opts {
		opt(storage)
	}

	if storage.api != nil {
		return storage, nil
	}

	// The config loader can only apply AWS_CA_BUNDLE to a buildable client.
	storage.httpClient = awshttp.NewBuildableClient()

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(storage.region),
		awsconfig.WithHTTPClient(storage.httpClient),
	}

	if storage.accessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(storage.accessKeyID, storage.secretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, &StorageError{Op: "init", Message: "failed to load AWS config", Err: err}
	}

	storage.api = s3.NewFromConfig(cfg, func(o *s3.Options) {
		if storage.endpoint != "" {
			o.BaseEndpoint = aws.String(storage.endpoint)
		}
		o.UsePathStyle = storage.pathStyle
	})

	storage.log.Debug("S3 client created",
		"region", storage.region,
		"endpoint", storage.endpoint,
		"path_style", storage.pathStyle)

	return storage, nil
}

/*
Close releases the idle connections of the session's HTTP client. It is
safe to call more than once.
*/
func (s *S3Storage) Close() error {
	if s.httpClient != nil {
		s.httpClient.GetTransport().CloseIdleConnections()
		s.httpClient = nil
	}
	return nil
}

// Region returns the region the session was built for
func (s *S3Storage) Region() string {
	return s.region
}

// ListBuckets lists every bucket owned by the caller
func (s *S3Storage) ListBuckets(ctx context.Context) (*s3.ListBucketsOutput, error) {
	out, err := s.api.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, newError("list-buckets", "", "", "failed to list buckets", err)
	}
	return out, nil
}

/*
CreateBucket creates a bucket in the session's region. us-east-1 must not
be sent as a location constraint.
*/
func (s *S3Storage) CreateBucket(ctx context.Context, bucket string) (*s3.CreateBucketOutput, error) {
	input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}

	if s.region != "" && s.region != DefaultRegion {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}

	out, err := s.api.CreateBucket(ctx, input)
	if err != nil {
		return nil, newError("create-bucket", bucket, "", "failed to create bucket", err)
	}
	return out, nil
}

// ListObjects lists a bucket with the original (marker based) API
func (s *S3Storage) ListObjects(ctx context.Context, q *ListQuery) (*s3.ListObjectsOutput, error) {
	input := &s3.ListObjectsInput{
		Bucket:  aws.String(q.Bucket),
		Prefix:  optional(q.Prefix),
		Marker:  optional(q.Marker),
		MaxKeys: optionalInt32(q.MaxKeys),
	}

	out, err := s.api.ListObjects(ctx, input)
	if err != nil {
		return nil, newError("list-objects", q.Bucket, "", "failed to list objects", err)
	}
	return out, nil
}

// ListObjectsV2 lists a bucket with continuation tokens
func (s *S3Storage) ListObjectsV2(ctx context.Context, q *ListQuery) (*s3.ListObjectsV2Output, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:            aws.String(q.Bucket),
		Prefix:            optional(q.Prefix),
		StartAfter:        optional(q.StartAfter),
		ContinuationToken: optional(q.ContinuationToken),
		MaxKeys:           optionalInt32(q.MaxKeys),
	}

	out, err := s.api.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, newError("list-objects-v2", q.Bucket, "", "failed to list objects", err)
	}
	return out, nil
}

// ListObjectVersions lists every version of the objects in a bucket
func (s *S3Storage) ListObjectVersions(ctx context.Context, q *ListQuery) (*s3.ListObjectVersionsOutput, error) {
	input := &s3.ListObjectVersionsInput{
		Bucket:          aws.String(q.Bucket),
		Prefix:          optional(q.Prefix),
		KeyMarker:       optional(q.KeyMarker),
		VersionIdMarker: optional(q.VersionIDMarker),
		MaxKeys:         optionalInt32(q.MaxKeys),
	}

	out, err := s.api.ListObjectVersions(ctx, input)
	if err != nil {
		return nil, newError("list-object-versions", q.Bucket, "", "failed to list object versions", err)
	}
	return out, nil
}

// HeadObject fetches the metadata of the current version of an object
func (s *S3Storage) HeadObject(ctx context.Context, bucket, key string) (*ObjectInfo, error) {
	return s.HeadObjectVersion(ctx, bucket, key, "")
}

// HeadObjectVersion fetches the metadata of a specific object version
func (s *S3Storage) HeadObjectVersion(ctx context.Context, bucket, key, versionID string) (*ObjectInfo, error) {
	out, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket:    aws.String(bucket),
		Key:       aws.String(key),
		VersionId: optional(versionID),
	})
	if err != nil {
		return nil, newError("head-object", bucket, key, "failed to fetch object metadata", err)
	}

	return &ObjectInfo{
		Bucket:          bucket,
		Key:             key,
		ETag:            aws.ToString(out.ETag),
		ContentType:     aws.ToString(out.ContentType),
		ContentEncoding: aws.ToString(out.ContentEncoding),
		ContentLength:   aws.ToInt64(out.ContentLength),
		LastModified:    aws.ToTime(out.LastModified),
		VersionID:       aws.ToString(out.VersionId),
		Metadata:        out.Metadata,
	}, nil
}

// GetObject downloads an object and reads its body into memory
func (s *S3Storage) GetObject(ctx context.Context, bucket, key, versionID string) (*Object, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket:    aws.String(bucket),
		Key:       aws.String(key),
		VersionId: optional(versionID),
	})
	if err != nil {
		return nil, newError("get-object", bucket, key, "failed to get object", err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, newError("get-object", bucket, key, "failed to read object body", err)
	}

	return &Object{
		ObjectInfo: ObjectInfo{
			Bucket:          bucket,
			Key:             key,
			ETag:            aws.ToString(out.ETag),
			ContentType:     aws.ToString(out.ContentType),
			ContentEncoding: aws.ToString(out.ContentEncoding),
			ContentLength:   aws.ToInt64(out.ContentLength),
			LastModified:    aws.ToTime(out.LastModified),
			VersionID:       aws.ToString(out.VersionId),
			Metadata:        out.Metadata,
		},
		Body: body,
	}, nil
}

// PutObject uploads a single object in one request
func (s *S3Storage) PutObject(ctx context.Context, req *PutRequest) (*PutResult, error) {
	input := &s3.PutObjectInput{
		Bucket:          aws.String(req.Bucket),
		Key:             aws.String(req.Key),
		Body:            bytes.NewReader(req.Body),
		ContentType:     optional(req.ContentType),
		ContentEncoding: optional(req.ContentEncoding),
	}

	if req.ACL != "" {
		input.ACL = types.ObjectCannedACL(req.ACL)
	}

	if len(req.Metadata) > 0 {
		input.Metadata = req.Metadata
	}

	out, err := s.api.PutObject(ctx, input)
	if err != nil {
		return nil, newError("put-object", req.Bucket, req.Key, "failed to upload object", err)
	}

	s.log.Debug("Uploaded object", "bucket", req.Bucket, "key", req.Key, "size", len(req.Body))

	return &PutResult{
		Bucket:    req.Bucket,
		Key:       req.Key,
		ETag:      aws.ToString(out.ETag),
		VersionID: aws.ToString(out.VersionId),
	}, nil
}

// DeleteObject deletes an object, or one version of it
func (s *S3Storage) DeleteObject(ctx context.Context, bucket, key, versionID string) (*DeleteResult, error) {
	out, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket:    aws.String(bucket),
		Key:       aws.String(key),
		VersionId: optional(versionID),
	})
	if err != nil {
		return nil, newError("delete-object", bucket, key, "failed to delete object", err)
	}

	return &DeleteResult{
		Bucket:       bucket,
		Key:          key,
		VersionID:    aws.ToString(out.VersionId),
		DeleteMarker: aws.ToBool(out.DeleteMarker),
	}, nil
}

// CopyObject performs a server side copy
func (s *S3Storage) CopyObject(ctx context.Context, req *CopyRequest) (*s3.CopyObjectOutput, error) {
	input := &s3.CopyObjectInput{
		Bucket:          aws.String(req.Bucket),
		Key:             aws.String(req.Key),
		CopySource:      aws.String(req.CopySource),
		ContentEncoding: optional(req.ContentEncoding),
	}

	if req.ACL != "" {
		input.ACL = types.ObjectCannedACL(req.ACL)
	}

	out, err := s.api.CopyObject(ctx, input)
	if err != nil {
		return nil, newError("copy-object", req.Bucket, req.Key, "failed to copy object", err)
	}
	return out, nil
}

// PutObjectACL replaces the canned ACL of an object
func (s *S3Storage) PutObjectACL(ctx context.Context, bucket, key, acl string) (*s3.PutObjectAclOutput, error) {
	out, err := s.api.PutObjectAcl(ctx, &s3.PutObjectAclInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		ACL:    types.ObjectCannedACL(acl),
	})
	if err != nil {
		return nil, newError("put-object-acl", bucket, key, "failed to update object ACL", err)
	}
	return out, nil
}

// optional maps an empty string to a nil pointer so the SDK omits the field
func optional(value string) *string {
	if value == "" {
		return nil
	}
	return aws.String(value)
}

func optionalInt32(value int32) *int32 {
	if value <= 0 {
		return nil
	}
	return aws.Int32(value)
}

var (
	_ Service = (*S3Storage)(nil)
)
