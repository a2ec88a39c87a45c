package remote

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/minio/minio-go/v7"
)

var errObjectNotFound = errors.New("object not found")

// objects is the subset of an S3 bucket the Store needs.
type objects interface {
	get(ctx context.Context, name string) (io.ReadCloser, error)
	put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
}

type bucket struct {
	client *minio.Client
	name   string
	region string

	initOnce sync.Once
	initErr  error
}

func (b *bucket) ensure(ctx context.Context) error {
	b.initOnce.Do(func() {
		exists, err := b.client.BucketExists(ctx, b.name)
		if err != nil {
			b.initErr = err
			return
		}
		if exists {
			return
		}
		b.initErr = b.client.MakeBucket(ctx, b.name, minio.MakeBucketOptions{Region: b.region})
	})
	return b.initErr
}

func (b *bucket) get(ctx context.Context, name string) (io.ReadCloser, error) {
	obj, err := b.client.GetObject(ctx, b.name, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		code := minio.ToErrorResponse(err).Code
		if code == "NoSuchKey" || code == "NoSuchBucket" {
			return nil, errObjectNotFound
		}
		return nil, err
	}
	return obj, nil
}

func (b *bucket) put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	if err := b.ensure(ctx); err != nil {
		return err
	}
	_, err := b.client.PutObject(ctx, b.name, name, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}
