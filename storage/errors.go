package storage

import (
	"errors"
	"fmt"
	"net/http"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// ErrNotFound is returned by backends that have no richer not-found error of their own
var ErrNotFound = errors.New("object not found")

// ErrKeyConflict is returned when a key and a prefix of another key would share one path
var ErrKeyConflict = errors.New("key conflicts with an existing object")

// ErrUnsupported is returned when a backend cannot serve an operation
var ErrUnsupported = errors.New("operation not supported by storage backend")

/*
StorageError wraps a backend failure with the operation and object it
concerns.
*/
type StorageError struct {
	Op      string
	Bucket  string
	Key     string
	Message string
	Err     error
}

// Error returns the error message
func (e *StorageError) Error() string {
	target := e.Bucket
	if e.Key != "" {
		target = e.Bucket + "/" + e.Key
	}

	msg := e.Message
	if target != "" {
		msg = fmt.Sprintf("%s %s: %s", e.Op, target, e.Message)
	}

	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func newError(op, bucket, key, message string, err error) *StorageError {
	return &StorageError{Op: op, Bucket: bucket, Key: key, Message: message, Err: err}
}

/*
IsNotFound reports whether err means the object (or bucket) does not exist,
as opposed to a transport, permission or throttling failure.
*/
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrNotFound) {
		return true
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchBucket) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket", "NoSuchVersion", "404":
			return true
		}
	}

	// HEAD responses carry no body, so some services only give us the status
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode() == http.StatusNotFound
	}

	return false
}
