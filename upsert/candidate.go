package upsert

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/theapemachine/s3flow/storage"
)

/*
Candidate is one object proposed for upload. Body is the exact payload
written and digested.
*/
type Candidate struct {
	Bucket          string            `json:"bucket"`
	Key             string            `json:"key"`
	Body            []byte            `json:"-"`
	ContentType     string            `json:"contentType"`
	ContentEncoding string            `json:"contentEncoding,omitempty"`
	ACL             string            `json:"acl,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

/*
Validate checks that bucket, key, body and content type are all present.
*/
func (c *Candidate) Validate() error {
	if c == nil {
		return NewError(ErrorTypeValidation, "candidate is nil", nil)
	}

	var missing []string

	if c.Bucket == "" {
		missing = append(missing, "bucket")
	}
	if c.Key == "" {
		missing = append(missing, "key")
	}
	if len(c.Body) == 0 {
		missing = append(missing, "body")
	}
	if c.ContentType == "" {
		missing = append(missing, "contentType")
	}

	if len(missing) > 0 {
		return NewError(ErrorTypeValidation, "missing "+strings.Join(missing, ", "), nil).WithKey(c.Key)
	}

	return nil
}

func (c *Candidate) request() *storage.PutRequest {
	return &storage.PutRequest{
		Bucket:          c.Bucket,
		Key:             c.Key,
		Body:            c.Body,
		ContentType:     c.ContentType,
		ContentEncoding: c.ContentEncoding,
		ACL:             c.ACL,
		Metadata:        c.Metadata,
	}
}

/*
ValidateBatch applies Validate to every candidate. The batch fails as a
whole on the first invalid element, and an empty batch is invalid.
*/
func ValidateBatch(candidates []*Candidate) error {
	if len(candidates) == 0 {
		return NewError(ErrorTypeValidation, "no candidates to upload", nil)
	}

	for i, candidate := range candidates {
		if err := candidate.Validate(); err != nil {
			var upsertErr *Error
			if e, ok := err.(*Error); ok {
				upsertErr = e
			} else {
				upsertErr = NewError(ErrorTypeValidation, err.Error(), err)
			}
			return upsertErr.WithIndex(i)
		}
	}

	return nil
}

/*
CandidatesFrom turns loosely typed input into candidates: a JSON array
string, a decoded []any or []map[string]any, or already built candidates.
Each element needs bucket, key, body and contentType; body must be text
(or raw bytes) and metadata, when present, a JSON object string or an
object. Scalar metadata values are coerced to strings.
*/
func CandidatesFrom(input any) ([]*Candidate, error) {
	switch value := input.(type) {
	case nil:
		return nil, NewError(ErrorTypeValidation, "objects input is missing", nil)
	case []*Candidate:
		return value, nil
	case []Candidate:
		out := make([]*Candidate, len(value))
		for i := range value {
			out[i] = &value[i]
		}
		return out, nil
	case string:
		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err != nil {
			return nil, NewError(ErrorTypeValidation, "invalid objects input format", err)
		}
		return CandidatesFrom(decoded)
	case []byte:
		return CandidatesFrom(string(value))
	case []map[string]any:
		out := make([]*Candidate, len(value))
		for i, element := range value {
			candidate, err := candidateFrom(element)
			if err != nil {
				return nil, err.WithIndex(i)
			}
			out[i] = candidate
		}
		return out, nil
	case []any:
		out := make([]*Candidate, len(value))
		for i, element := range value {
			fields, ok := element.(map[string]any)
			if !ok {
				return nil, NewError(ErrorTypeValidation, "object is not a mapping", nil).WithIndex(i)
			}
			candidate, err := candidateFrom(fields)
			if err != nil {
				return nil, err.WithIndex(i)
			}
			out[i] = candidate
		}
		return out, nil
	default:
		return nil, NewError(ErrorTypeValidation, fmt.Sprintf("objects input is not an array (%T)", input), nil)
	}
}

func candidateFrom(fields map[string]any) (*Candidate, *Error) {
	candidate := &Candidate{}

	for name, target := range map[string]*string{
		"bucket":          &candidate.Bucket,
		"key":             &candidate.Key,
		"contentType":     &candidate.ContentType,
		"contentEncoding": &candidate.ContentEncoding,
		"acl":             &candidate.ACL,
	} {
		raw, ok := fields[name]
		if !ok || raw == nil {
			continue
		}
		text, ok := raw.(string)
		if !ok {
			return nil, NewError(ErrorTypeValidation, name+" must be a string", nil)
		}
		*target = text
	}

	switch body := fields["body"].(type) {
	case string:
		candidate.Body = []byte(body)
	case []byte:
		candidate.Body = body
	case nil:
	default:
		return nil, NewError(ErrorTypeValidation, "body must be a string", nil).WithKey(candidate.Key)
	}

	if raw, ok := fields["metadata"]; ok && raw != nil {
		metadata, err := MetadataFrom(raw)
		if err != nil {
			return nil, err.WithKey(candidate.Key)
		}
		candidate.Metadata = metadata
	}

	return candidate, nil
}

/*
MetadataFrom accepts object metadata either as a JSON object string or as
an already decoded mapping.
*/
func MetadataFrom(raw any) (map[string]string, *Error) {
	switch value := raw.(type) {
	case map[string]string:
		return value, nil
	case string:
		var decoded map[string]any
		if err := json.Unmarshal([]byte(value), &decoded); err != nil {
			return nil, NewError(ErrorTypeValidation, "metadata is not a JSON object", err)
		}
		return MetadataFrom(decoded)
	case map[string]any:
		out := make(map[string]string, len(value))
		for name, entry := range value {
			switch typed := entry.(type) {
			case string:
				out[name] = typed
			case nil:
				out[name] = ""
			case bool, float64, int, int64, json.Number:
				out[name] = fmt.Sprint(typed)
			default:
				encoded, err := json.Marshal(typed)
				if err != nil {
					return nil, NewError(ErrorTypeValidation, "metadata value "+name+" cannot be encoded", err)
				}
				out[name] = string(encoded)
			}
		}
		return out, nil
	default:
		return nil, NewError(ErrorTypeValidation, fmt.Sprintf("metadata must be an object (%T)", raw), nil)
	}
}
