package gcs

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckFound(t *testing.T) {
	var gotBucket, gotObject string
	c := NewSourceCheckerFunc(func(_ context.Context, bucket, object string) (*storage.ObjectAttrs, error) {
		gotBucket, gotObject = bucket, object
		return &storage.ObjectAttrs{Bucket: bucket, Name: object, Size: 1024}, nil
	})

	attrs, err := c.Check(context.Background(), "builds", "sources/abc.tar.gz")
	require.NoError(t, err)
	assert.Equal(t, int64(1024), attrs.Size)
	assert.Equal(t, "builds", gotBucket)
	assert.Equal(t, "sources/abc.tar.gz", gotObject)
	require.NoError(t, c.Close())
}

func TestCheckMissing(t *testing.T) {
	for name, missing := range map[string]error{
		"object": storage.ErrObjectNotExist,
		"bucket": storage.ErrBucketNotExist,
	} {
		t.Run(name, func(t *testing.T) {
			c := NewSourceCheckerFunc(func(context.Context, string, string) (*storage.ObjectAttrs, error) {
				return nil, missing
			})

			_, err := c.Check(context.Background(), "builds", "sources/abc.tar.gz")
			require.ErrorIs(t, err, ErrSourceNotFound)
			assert.Contains(t, err.Error(), "gs://builds/sources/abc.tar.gz")
		})
	}
}

func TestCheckOtherError(t *testing.T) {
	boom := errors.New("permission denied")
	c := NewSourceCheckerFunc(func(context.Context, string, string) (*storage.ObjectAttrs, error) {
		return nil, boom
	})

	_, err := c.Check(context.Background(), "builds", "src.tgz")
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrSourceNotFound)
}
