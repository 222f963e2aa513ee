package storage

import (
	"context"
	"errors"
)

// Sentinel errors every backend maps its native errors onto.
var (
	// ErrNoSuchBucket is returned when an operation targets a missing bucket.
	ErrNoSuchBucket = errors.New("storage: no such bucket")
	// ErrNoSuchBucketPolicy is returned by BucketPolicy when no policy is set.
	ErrNoSuchBucketPolicy = errors.New("storage: no bucket policy")
)

// BucketAdmin is the administrative surface of an object store.
type BucketAdmin interface {
	// BucketExists reports whether bucket exists and is accessible.
	BucketExists(ctx context.Context, bucket string) (bool, error)

	// CreateBucket creates bucket. Creating a bucket that already exists
	// and is owned by the caller is not an error.
	CreateBucket(ctx context.Context, bucket string) error

	// BucketPolicy returns the policy document attached to bucket or
	// ErrNoSuchBucketPolicy.
	BucketPolicy(ctx context.Context, bucket string) (string, error)

	// SetBucketPolicy replaces the policy document of bucket.
	SetBucketPolicy(ctx context.Context, bucket, policy string) error
}
