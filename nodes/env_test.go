package nodes

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/theapemachine/s3flow/config"
	"github.com/theapemachine/s3flow/flow"
	"github.com/theapemachine/s3flow/storage"
)

// events collects what the nodes report
type events struct {
	mu   sync.Mutex
	list []flow.Event
}

func (e *events) Report(event flow.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.list = append(e.list, event)
}

func (e *events) phases() []flow.Phase {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]flow.Phase, len(e.list))
	for i, event := range e.list {
		out[i] = event.Phase
	}
	return out
}

func (e *events) last() flow.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.list[len(e.list)-1]
}

// fileEnv runs nodes against a file backend rooted in a temporary directory
func fileEnv(t *testing.T) (*flow.Env, *events) {
	t.Helper()

	reporter := &events{}
	cfg := &config.Config{StorageType: config.FileStorage, StoragePath: t.TempDir()}

	return &flow.Env{Open: storage.NewOpener(cfg), Reporter: reporter}, reporter
}

/*
fakeService adds the S3-only calls on top of a file backend so the nodes
that need the full surface can be exercised without a network.
*/
type fakeService struct {
	*storage.FileStorage
	copies []*storage.CopyRequest
	acls   []string
	lists  []*storage.ListQuery
}

func newFakeService(t *testing.T) *fakeService {
	t.Helper()

	fs, err := storage.NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return &fakeService{FileStorage: fs}
}

func (f *fakeService) env() (*flow.Env, *events) {
	reporter := &events{}
	open := func(ctx context.Context) (storage.Session, error) {
		return f, nil
	}
	return &flow.Env{Open: open, Reporter: reporter}, reporter
}

func (f *fakeService) ListBuckets(ctx context.Context) (*s3.ListBucketsOutput, error) {
	return &s3.ListBucketsOutput{Buckets: []types.Bucket{{Name: aws.String("b")}}}, nil
}

func (f *fakeService) CreateBucket(ctx context.Context, bucket string) (*s3.CreateBucketOutput, error) {
	return &s3.CreateBucketOutput{Location: aws.String("/" + bucket)}, nil
}

func (f *fakeService) ListObjects(ctx context.Context, q *storage.ListQuery) (*s3.ListObjectsOutput, error) {
	f.lists = append(f.lists, q)
	return &s3.ListObjectsOutput{Name: aws.String(q.Bucket)}, nil
}

func (f *fakeService) ListObjectsV2(ctx context.Context, q *storage.ListQuery) (*s3.ListObjectsV2Output, error) {
	f.lists = append(f.lists, q)
	return &s3.ListObjectsV2Output{Name: aws.String(q.Bucket)}, nil
}

func (f *fakeService) ListObjectVersions(ctx context.Context, q *storage.ListQuery) (*s3.ListObjectVersionsOutput, error) {
	f.lists = append(f.lists, q)
	return &s3.ListObjectVersionsOutput{Name: aws.String(q.Bucket)}, nil
}

func (f *fakeService) HeadObjectVersion(ctx context.Context, bucket, key, versionID string) (*storage.ObjectInfo, error) {
	object, err := f.GetObject(ctx, bucket, key, versionID)
	if err != nil {
		return nil, err
	}
	return &object.ObjectInfo, nil
}

// CopyObject decodes the copy source and rewrites the object through the file backend
func (f *fakeService) CopyObject(ctx context.Context, req *storage.CopyRequest) (*s3.CopyObjectOutput, error) {
	f.copies = append(f.copies, req)

	path, _, _ := strings.Cut(req.CopySource, "?")
	source, err := url.PathUnescape(path)
	if err != nil {
		return nil, err
	}
	bucket, key, _ := strings.Cut(source, "/")

	object, err := f.GetObject(ctx, bucket, key, "")
	if err != nil {
		return nil, err
	}

	result, err := f.PutObject(ctx, &storage.PutRequest{
		Bucket:          req.Bucket,
		Key:             req.Key,
		Body:            object.Body,
		ContentType:     object.ContentType,
		ContentEncoding: req.ContentEncoding,
	})
	if err != nil {
		return nil, err
	}
	return &s3.CopyObjectOutput{CopyObjectResult: &types.CopyObjectResult{ETag: aws.String(result.ETag)}}, nil
}

func (f *fakeService) PutObjectACL(ctx context.Context, bucket, key, acl string) (*s3.PutObjectAclOutput, error) {
	f.acls = append(f.acls, bucket+"/"+key+"="+acl)
	return &s3.PutObjectAclOutput{}, nil
}

var _ storage.Service = (*fakeService)(nil)

func run(t *testing.T, env *flow.Env, nodeType string, props flow.Properties, msg flow.Message) (flow.Message, error) {
	t.Helper()

	node, err := NewRegistry().New(nodeType, props)
	if err != nil {
		t.Fatal(err)
	}
	return flow.Invoke(context.Background(), env, node, msg)
}
