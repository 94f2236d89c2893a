package nodes

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidContentEncoding(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"gzip", true},
		{"GZIP", true},
		{"gzip, br", true},
		{"identity", true},
		{"zstd,deflate", true},
		{"", false},
		{"zip", false},
		{"gzip,", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidContentEncoding(tt.value), tt.value)
	}
}

func TestValidACL(t *testing.T) {
	for _, acl := range []string{"private", "public-read", "public-read-write", "authenticated-read", "bucket-owner-full-control"} {
		assert.True(t, ValidACL(acl), acl)
	}
	for _, acl := range []string{"", "Private", "everyone"} {
		assert.False(t, ValidACL(acl), acl)
	}
}

func TestCopySource(t *testing.T) {
	assert.Equal(t, "bucket/dir/file.txt", CopySource("bucket/dir/file.txt", ""))
	assert.Equal(t, "bucket/my%20file%231.txt", CopySource("bucket/my file#1.txt", ""))
	assert.Equal(t, "bucket/key?versionId=a%2Fb%3D", CopySource("bucket/key", "a/b="))
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()

	types := registry.Types()
	assert.Len(t, types, 14)
	assert.Contains(t, types, TypePutObjects)

	node, err := registry.New(TypeMoveObject, nil)
	require.NoError(t, err)
	assert.Equal(t, TypeMoveObject, node.Type())

	assert.Error(t, Register(registry))
}

func TestSchema(t *testing.T) {
	for _, nodeType := range NewRegistry().Types() {
		schema, err := Schema(nodeType)
		require.NoError(t, err, nodeType)
		require.NotNil(t, schema, nodeType)
	}

	schema, err := Schema(TypePutObject)
	require.NoError(t, err)

	encoded, err := json.Marshal(schema)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"contentType"`)
	assert.Contains(t, string(encoded), `"upsert"`)

	_, err = Schema("rename-object")
	assert.Error(t, err)
}
