package upsert

import (
	"crypto/md5"
	"encoding/hex"
)

/*
Digest returns the lowercase hex MD5 of body, the value S3 reports as the
ETag of a single-part upload. It is an equality check and nothing more.
*/
func Digest(body []byte) string {
	sum := md5.Sum(body)
	return hex.EncodeToString(sum[:])
}

/*
NormalizeETag strips exactly one leading and one trailing character, the
quotes S3 wraps around ETags. It does not check what those characters are.
*/
func NormalizeETag(etag string) string {
	if len(etag) < 2 {
		return ""
	}
	return etag[1 : len(etag)-1]
}

/*
Identical reports whether the stored object reporting etag already holds
body. The comparison is exact and case-sensitive, so a multipart ETag
("<md5>-<parts>") never matches and such objects are always re-uploaded.
*/
func Identical(etag string, body []byte) bool {
	normalized := NormalizeETag(etag)
	return normalized != "" && normalized == Digest(body)
}
