// Package gcs checks that a build's source archive is present in Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/dosanma1/cloudbuild-action/internal/console"
)

// ErrSourceNotFound is returned when the bucket or archive object is missing.
var ErrSourceNotFound = errors.New("source archive not found")

// AttrsFunc reads the attributes of one object.
type AttrsFunc func(ctx context.Context, bucket, object string) (*storage.ObjectAttrs, error)

// SourceChecker verifies source archives before a build is submitted.
type SourceChecker struct {
	attrs  AttrsFunc
	client *storage.Client
}

// NewClient creates a storage client, using keyFile for credentials when set.
func NewClient(ctx context.Context, keyFile string) (*storage.Client, error) {
	var opts []option.ClientOption
	if keyFile != "" {
		opts = append(opts, option.WithCredentialsFile(keyFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return client, nil
}

// NewSourceChecker checks objects through client.
func NewSourceChecker(client *storage.Client) *SourceChecker {
	return &SourceChecker{
		client: client,
		attrs: func(ctx context.Context, bucket, object string) (*storage.ObjectAttrs, error) {
			return client.Bucket(bucket).Object(object).Attrs(ctx)
		},
	}
}

// NewSourceCheckerFunc checks objects with attrs.
func NewSourceCheckerFunc(attrs AttrsFunc) *SourceChecker {
	return &SourceChecker{attrs: attrs}
}

// Check returns the archive's attributes, or an error wrapping
// ErrSourceNotFound when the bucket or object does not exist.
func (c *SourceChecker) Check(ctx context.Context, bucket, object string) (*storage.ObjectAttrs, error) {
	uri := fmt.Sprintf("gs://%s/%s", bucket, object)

	attrs, err := c.attrs(ctx, bucket, object)
	switch {
	case errors.Is(err, storage.ErrObjectNotExist), errors.Is(err, storage.ErrBucketNotExist):
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, uri)
	case err != nil:
		return nil, fmt.Errorf("failed to stat %s: %w", uri, err)
	}

	if attrs.Size == 0 {
		console.Warnf("Source archive %s is empty", uri)
	}
	console.Debugf("Found source archive %s (%d bytes, generation %d)", uri, attrs.Size, attrs.Generation)
	return attrs, nil
}

// Close releases the underlying storage client, if any.
func (c *SourceChecker) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
