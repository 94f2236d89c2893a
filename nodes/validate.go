package nodes

import (
	"net/url"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/theapemachine/s3flow/flow"
)

var contentCodings = []string{"gzip", "compress", "deflate", "br", "identity", "zstd"}

/*
ValidContentEncoding accepts one content coding or a comma separated list
of them, as the Content-Encoding header allows.
*/
func ValidContentEncoding(value string) bool {
	if strings.TrimSpace(value) == "" {
		return false
	}

	for _, coding := range strings.Split(value, ",") {
		if !slices.Contains(contentCodings, strings.ToLower(strings.TrimSpace(coding))) {
			return false
		}
	}
	return true
}

// ValidACL accepts the canned object ACLs the SDK knows about
func ValidACL(value string) bool {
	return slices.Contains(types.ObjectCannedACL("").Values(), types.ObjectCannedACL(value))
}

func checkContentEncoding(value string) error {
	if value != "" && !ValidContentEncoding(value) {
		return flow.Malformed("contentencoding", "unknown content encoding "+value)
	}
	return nil
}

func checkACL(value string) error {
	if value != "" && !ValidACL(value) {
		return flow.Malformed("acl", "invalid ACL permissions value "+value)
	}
	return nil
}

/*
CopySource builds the x-amz-copy-source value for "bucket/key", optionally
pinned to a version. The path is URI encoded with its slashes kept, and the
version id is query-escaped.
*/
func CopySource(source, versionID string) string {
	segments := strings.Split(source, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}

	encoded := strings.Join(segments, "/")
	if versionID != "" {
		encoded += "?versionId=" + url.QueryEscape(versionID)
	}
	return encoded
}
