package upsert

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/theapemachine/s3flow/storage"
)

// mockStore is a testify mock of storage.ObjectStore
type mockStore struct {
	mock.Mock
}

func (m *mockStore) HeadObject(ctx context.Context, bucket, key string) (*storage.ObjectInfo, error) {
	args := m.Called(ctx, bucket, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.ObjectInfo), args.Error(1)
}

func (m *mockStore) PutObject(ctx context.Context, req *storage.PutRequest) (*storage.PutResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.PutResult), args.Error(1)
}

/*
memoryStore behaves like S3 for single-part uploads: the ETag is the quoted
MD5 of the body. Failures can be injected per key.
*/
type memoryStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	headErr  map[string]error
	putErr   map[string]error
	heads    []string
	puts     []string
	onHead   func(key string)
	putCalls int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		objects: map[string][]byte{},
		headErr: map[string]error{},
		putErr:  map[string]error{},
	}
}

func (s *memoryStore) HeadObject(ctx context.Context, bucket, key string) (*storage.ObjectInfo, error) {
	s.mu.Lock()
	s.heads = append(s.heads, key)
	hook := s.onHead
	err := s.headErr[key]
	body, ok := s.objects[bucket+"/"+key]
	s.mu.Unlock()

	if hook != nil {
		hook(key)
	}

	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &storage.ObjectInfo{Bucket: bucket, Key: key, ETag: `"` + Digest(body) + `"`}, nil
}

func (s *memoryStore) PutObject(ctx context.Context, req *storage.PutRequest) (*storage.PutResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.puts = append(s.puts, req.Key)
	s.putCalls++

	if err := s.putErr[req.Key]; err != nil {
		return nil, err
	}

	s.objects[req.Bucket+"/"+req.Key] = append([]byte(nil), req.Body...)
	return &storage.PutResult{Bucket: req.Bucket, Key: req.Key, ETag: `"` + Digest(req.Body) + `"`}, nil
}

func (s *memoryStore) seed(bucket, key, body string) {
	s.objects[bucket+"/"+key] = []byte(body)
}

type countingRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
	probes   map[string]int
	bytes    int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{outcomes: map[string]int{}, probes: map[string]int{}}
}

func (r *countingRecorder) ObserveOutcome(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[status]++
}

func (r *countingRecorder) ObserveProbe(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.probes[result]++
}

func (r *countingRecorder) ObserveUploadedBytes(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bytes += n
}

func hello() *Candidate {
	return &Candidate{Bucket: "b", Key: "k", Body: []byte("hello"), ContentType: "text/plain"}
}
