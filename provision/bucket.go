package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/kbukum/stackup/storage"
)

// BucketAction ensures a bucket exists.
type BucketAction struct {
	Admin  storage.BucketAdmin
	Bucket string
}

func (a *BucketAction) Applied(ctx context.Context) (bool, error) {
	return a.Admin.BucketExists(ctx, a.Bucket)
}

func (a *BucketAction) Apply(ctx context.Context) error {
	return a.Admin.CreateBucket(ctx, a.Bucket)
}

func (a *BucketAction) Verify(ctx context.Context) error {
	ok, err := a.Admin.BucketExists(ctx, a.Bucket)
	if err != nil {
		return err
	}
	if !ok {
		return &VerificationError{Mismatch: fmt.Sprintf("bucket %q does not exist after create", a.Bucket)}
	}
	return nil
}

// BucketPolicyAction ensures a bucket carries a policy.
//
// An existing policy counts as applied unless Overwrite is set, so a policy
// an operator tightened by hand is left alone.
type BucketPolicyAction struct {
	Admin  storage.BucketAdmin
	Bucket string
	// Policy is the JSON policy document. Defaults to public read.
	Policy    string
	Overwrite bool
}

func (a *BucketPolicyAction) policy() string {
	if a.Policy != "" {
		return a.Policy
	}
	return storage.PublicReadPolicy(a.Bucket)
}

func (a *BucketPolicyAction) Applied(ctx context.Context) (bool, error) {
	current, err := a.Admin.BucketPolicy(ctx, a.Bucket)
	if errors.Is(err, storage.ErrNoSuchBucketPolicy) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !a.Overwrite {
		return true, nil
	}
	return storage.PolicyEqual(current, a.policy())
}

func (a *BucketPolicyAction) Apply(ctx context.Context) error {
	return a.Admin.SetBucketPolicy(ctx, a.Bucket, a.policy())
}

func (a *BucketPolicyAction) Verify(ctx context.Context) error {
	current, err := a.Admin.BucketPolicy(ctx, a.Bucket)
	if errors.Is(err, storage.ErrNoSuchBucketPolicy) {
		return &VerificationError{Mismatch: fmt.Sprintf("bucket %q has no policy after set", a.Bucket)}
	}
	if err != nil {
		return err
	}
	equal, err := storage.PolicyEqual(current, a.policy())
	if err != nil {
		return err
	}
	if !equal {
		return &VerificationError{Mismatch: fmt.Sprintf("bucket %q policy differs from requested: %s", a.Bucket, current)}
	}
	return nil
}
