// Package s3 implements storage.BucketAdmin on Amazon S3 and S3-compatible
// services.
package s3

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/kbukum/stackup/storage"
)

var _ storage.BucketAdmin = (*Admin)(nil)

// Admin implements storage.BucketAdmin using the S3 API.
type Admin struct {
	client *awss3.Client
	region string
}

// NewAdmin creates an S3 admin client from the given config.
func NewAdmin(ctx context.Context, cfg *Config) (*Admin, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		} else if cfg.ForcePathStyle {
			o.UsePathStyle = true
		}
	})
	return &Admin{client: client, region: cfg.Region}, nil
}

// BucketExists issues HeadBucket. A 404 means the bucket does not exist.
func (a *Admin) BucketExists(ctx context.Context, bucket string) (bool, error) {
	_, err := a.client.HeadBucket(ctx, &awss3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err == nil {
		return true, nil
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) || apiErrorCode(err) == "NoSuchBucket" {
		return false, nil
	}
	return false, fmt.Errorf("storage: s3 head bucket %s: %w", bucket, err)
}

// CreateBucket creates bucket in the configured region.
func (a *Admin) CreateBucket(ctx context.Context, bucket string) error {
	input := &awss3.CreateBucketInput{
		Bucket: aws.String(bucket),
	}
	// us-east-1 must not be sent as a location constraint.
	if a.region != DefaultRegion {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(a.region),
		}
	}

	_, err := a.client.CreateBucket(ctx, input)
	if err == nil {
		return nil
	}

	var owned *types.BucketAlreadyOwnedByYou
	if errors.As(err, &owned) {
		return nil
	}
	return fmt.Errorf("storage: s3 create bucket %s: %w", bucket, err)
}

// BucketPolicy returns the policy JSON of bucket.
func (a *Admin) BucketPolicy(ctx context.Context, bucket string) (string, error) {
	out, err := a.client.GetBucketPolicy(ctx, &awss3.GetBucketPolicyInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		switch apiErrorCode(err) {
		case "NoSuchBucketPolicy":
			return "", storage.ErrNoSuchBucketPolicy
		case "NoSuchBucket":
			return "", fmt.Errorf("%w: %s", storage.ErrNoSuchBucket, bucket)
		}
		return "", fmt.Errorf("storage: s3 get bucket policy %s: %w", bucket, err)
	}
	return aws.ToString(out.Policy), nil
}

// SetBucketPolicy replaces the policy of bucket.
func (a *Admin) SetBucketPolicy(ctx context.Context, bucket, policy string) error {
	_, err := a.client.PutBucketPolicy(ctx, &awss3.PutBucketPolicyInput{
		Bucket: aws.String(bucket),
		Policy: aws.String(policy),
	})
	if err != nil {
		if apiErrorCode(err) == "NoSuchBucket" {
			return fmt.Errorf("%w: %s", storage.ErrNoSuchBucket, bucket)
		}
		return fmt.Errorf("storage: s3 put bucket policy %s: %w", bucket, err)
	}
	return nil
}

// apiErrorCode extracts the S3 error code from err, or "".
func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
