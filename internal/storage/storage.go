package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ObjectStore reads catalog documents from object storage.
type ObjectStore interface {
	// GetObject opens an object for reading. An empty bucket means the
	// store's configured default. The caller closes the reader.
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

var ErrObjectNotFound = errors.New("object not found in storage")

// ObjectURL is a parsed s3://bucket/key reference.
type ObjectURL struct {
	Bucket string
	Key    string
}

// IsObjectURL reports whether src uses the s3:// scheme.
func IsObjectURL(src string) bool {
	return strings.HasPrefix(src, "s3://")
}

// ParseObjectURL splits s3://bucket/key. The key may contain slashes.
func ParseObjectURL(src string) (ObjectURL, error) {
	rest, ok := strings.CutPrefix(src, "s3://")
	if !ok {
		return ObjectURL{}, fmt.Errorf("not an s3 url: %q", src)
	}
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return ObjectURL{}, fmt.Errorf("s3 url needs bucket and key: %q", src)
	}
	return ObjectURL{Bucket: bucket, Key: key}, nil
}
