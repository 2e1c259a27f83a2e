package experiments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/minio/minio-go/v7"
)

// ErrSuiteNotFound reports a suite name with no document in the store.
var ErrSuiteNotFound = errors.New("suite not found")

// SuiteStore fetches raw suite documents by name.
type SuiteStore interface {
	FetchSuite(ctx context.Context, name string) ([]byte, error)
}

var suiteNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// MinIOSuiteStore reads suite documents from an object-storage bucket.
// Suite "cifar" lives at object key "cifar.yaml".
type MinIOSuiteStore struct {
	client *minio.Client
	bucket string
}

func NewMinIOSuiteStore(client *minio.Client, bucket string) *MinIOSuiteStore {
	return &MinIOSuiteStore{client: client, bucket: bucket}
}

func (s *MinIOSuiteStore) FetchSuite(ctx context.Context, name string) ([]byte, error) {
	if !suiteNamePattern.MatchString(name) {
		return nil, fmt.Errorf("invalid suite name: %q", name)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, name+".yaml", minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetch suite %q: %w", name, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("suite %q: %w", name, ErrSuiteNotFound)
		}
		return nil, fmt.Errorf("read suite %q: %w", name, err)
	}
	return data, nil
}
