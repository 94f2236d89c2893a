package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/theapemachine/s3flow/logger"
)

const metaDir = ".s3flow-meta"

/*
FileStorage mirrors buckets into the local filesystem. Every bucket is a
directory under basePath and every object a file inside it; a JSON sidecar
under basePath/.s3flow-meta keeps the ETag, content type, metadata and
version id, so HeadObject answers like S3 does for single-part uploads.

Unlike S3, a key cannot be both an object and a prefix of another key:
with "a" stored, "a/b" is refused with ErrKeyConflict, and the other way
around.
*/
type FileStorage struct {
	basePath string
	mu       sync.RWMutex
}

/*
NewFileStorage creates a new file storage instance.
It initializes the storage directory if it doesn't exist.
*/
func NewFileStorage(basePath string) (*FileStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &FileStorage{
		basePath: basePath,
	}, nil
}

// Close is a no-op; the file backend holds no connections
func (fs *FileStorage) Close() error {
	return nil
}

// objectPaths resolves the data file and sidecar for an object, refusing keys that escape the bucket
func (fs *FileStorage) objectPaths(bucket, key string) (string, string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." || bucket == metaDir {
		return "", "", fmt.Errorf("invalid bucket name: %q", bucket)
	}

	rel := filepath.Clean(filepath.FromSlash(key))
	if key == "" || rel == "." || filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("invalid object key: %q", key)
	}

	data := filepath.Join(fs.basePath, bucket, rel)
	meta := filepath.Join(fs.basePath, metaDir, bucket, rel+".json")
	return data, meta, nil
}

// HeadObject reads the sidecar of an object
func (fs *FileStorage) HeadObject(ctx context.Context, bucket, key string) (*ObjectInfo, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	return fs.readInfo(bucket, key)
}

func (fs *FileStorage) readInfo(bucket, key string) (*ObjectInfo, error) {
	_, metaPath, err := fs.objectPaths(bucket, key)
	if err != nil {
		return nil, newError("head-object", bucket, key, "invalid location", err)
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, newError("head-object", bucket, key, "object does not exist", ErrNotFound)
		}
		return nil, newError("head-object", bucket, key, "failed to read object metadata", err)
	}

	var info ObjectInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, newError("head-object", bucket, key, "failed to decode object metadata", err)
	}

	return &info, nil
}

/*
PutObject writes the body and its sidecar. The ETag is the quoted MD5 hex
digest of the body, matching what S3 reports for single-part uploads.
*/
func (fs *FileStorage) PutObject(ctx context.Context, req *PutRequest) (*PutResult, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	dataPath, metaPath, err := fs.objectPaths(req.Bucket, req.Key)
	if err != nil {
		return nil, newError("put-object", req.Bucket, req.Key, "invalid location", err)
	}

	if err := fs.checkConflict(req.Bucket, dataPath); err != nil {
		return nil, newError("put-object", req.Bucket, req.Key, "key collides with an existing object", err)
	}

	for _, dir := range []string{filepath.Dir(dataPath), filepath.Dir(metaPath)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, newError("put-object", req.Bucket, req.Key, "failed to create directory", err)
		}
	}

	if err := os.WriteFile(dataPath, req.Body, 0644); err != nil {
		return nil, newError("put-object", req.Bucket, req.Key, "failed to write object", err)
	}

	sum := md5.Sum(req.Body)
	info := ObjectInfo{
		Bucket:          req.Bucket,
		Key:             req.Key,
		ETag:            `"` + hex.EncodeToString(sum[:]) + `"`,
		ContentType:     req.ContentType,
		ContentEncoding: req.ContentEncoding,
		ContentLength:   int64(len(req.Body)),
		LastModified:    time.Now().UTC(),
		VersionID:       uuid.NewString(),
		Metadata:        req.Metadata,
	}

	data, err := json.Marshal(info)
	if err != nil {
		return nil, newError("put-object", req.Bucket, req.Key, "failed to encode object metadata", err)
	}

	if err := os.WriteFile(metaPath, data, 0644); err != nil {
		return nil, newError("put-object", req.Bucket, req.Key, "failed to write object metadata", err)
	}

	logger.Debug("Stored object", "bucket", req.Bucket, "key", req.Key, "path", dataPath)

	return &PutResult{
		Bucket:    req.Bucket,
		Key:       req.Key,
		ETag:      info.ETag,
		VersionID: info.VersionID,
	}, nil
}

// checkConflict refuses a data path that is a directory or sits below an existing file
func (fs *FileStorage) checkConflict(bucket, dataPath string) error {
	if stat, err := os.Stat(dataPath); err == nil && stat.IsDir() {
		return fmt.Errorf("%w: %q is a prefix of other keys", ErrKeyConflict, filepath.Base(dataPath))
	}

	root := filepath.Join(fs.basePath, bucket)
	for dir := filepath.Dir(dataPath); dir != root && strings.HasPrefix(dir, root); dir = filepath.Dir(dir) {
		stat, err := os.Stat(dir)
		if err != nil {
			continue
		}
		if !stat.IsDir() {
			rel, _ := filepath.Rel(root, dir)
			return fmt.Errorf("%w: %q is already an object", ErrKeyConflict, filepath.ToSlash(rel))
		}
		break
	}
	return nil
}

/*
GetObject reads an object back. Versions are not kept, so a version id other
than the current one is reported as not found.
*/
func (fs *FileStorage) GetObject(ctx context.Context, bucket, key, versionID string) (*Object, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	info, err := fs.readInfo(bucket, key)
	if err != nil {
		return nil, err
	}

	if versionID != "" && versionID != info.VersionID {
		return nil, newError("get-object", bucket, key, "version "+versionID+" does not exist", ErrNotFound)
	}

	dataPath, _, _ := fs.objectPaths(bucket, key)
	body, err := os.ReadFile(dataPath)
	if err != nil {
		return nil, newError("get-object", bucket, key, "failed to read object", err)
	}

	return &Object{ObjectInfo: *info, Body: body}, nil
}

// DeleteObject removes the object and its sidecar; deleting a missing object succeeds, like S3
func (fs *FileStorage) DeleteObject(ctx context.Context, bucket, key, versionID string) (*DeleteResult, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	dataPath, metaPath, err := fs.objectPaths(bucket, key)
	if err != nil {
		return nil, newError("delete-object", bucket, key, "invalid location", err)
	}

	for _, path := range []string{dataPath, metaPath} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, newError("delete-object", bucket, key, "failed to delete object", err)
		}
	}

	return &DeleteResult{Bucket: bucket, Key: key, VersionID: versionID}, nil
}

var (
	_ Session       = (*FileStorage)(nil)
	_ ObjectGetter  = (*FileStorage)(nil)
	_ ObjectDeleter = (*FileStorage)(nil)
)
