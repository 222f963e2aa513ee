// Package memory provides an in-process object store implementing
// storage.BucketAdmin and component.Component. It backs tests and dry runs
// of bucket bootstrap tasks.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kbukum/stackup/component"
	"github.com/kbukum/stackup/storage"
)

// ErrNotRunning is returned by every operation while the store is stopped.
var ErrNotRunning = errors.New("memory storage: not running")

var (
	_ storage.BucketAdmin = (*Store)(nil)
	_ component.Component = (*Store)(nil)
)

// Store is an in-memory bucket store. The zero value is not usable, call New.
type Store struct {
	name string

	mu       sync.RWMutex
	running  bool
	buckets  map[string]bool
	policies map[string]string
	calls    map[string]int

	// dropPolicyWrites makes SetBucketPolicy succeed without storing anything.
	dropPolicyWrites bool
	// failures injects an error for the named operation.
	failures map[string]error
}

// New creates a running store named name.
func New(name string) *Store {
	return &Store{
		name:     name,
		running:  true,
		buckets:  make(map[string]bool),
		policies: make(map[string]string),
		calls:    make(map[string]int),
		failures: make(map[string]error),
	}
}

// Operation names accepted by Calls and FailOn.
const (
	OpBucketExists    = "BucketExists"
	OpCreateBucket    = "CreateBucket"
	OpBucketPolicy    = "BucketPolicy"
	OpSetBucketPolicy = "SetBucketPolicy"
)

// Calls returns how many times op was invoked.
func (s *Store) Calls(op string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[op]
}

// FailOn makes op return err until cleared with a nil err.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// DropPolicyWrites makes SetBucketPolicy report success without effect,
// simulating a server that silently ignores the request.
func (s *Store) DropPolicyWrites(drop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropPolicyWrites = drop
}

// begin counts the call and returns the injected or availability error.
// Callers must hold s.mu.
func (s *Store) begin(op string) error {
	s.calls[op]++
	if !s.running {
		return ErrNotRunning
	}
	return s.failures[op]
}

// --- storage.BucketAdmin ---

func (s *Store) BucketExists(_ context.Context, bucket string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpBucketExists); err != nil {
		return false, err
	}
	return s.buckets[bucket], nil
}

func (s *Store) CreateBucket(_ context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpCreateBucket); err != nil {
		return err
	}
	s.buckets[bucket] = true
	return nil
}

func (s *Store) BucketPolicy(_ context.Context, bucket string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpBucketPolicy); err != nil {
		return "", err
	}
	if !s.buckets[bucket] {
		return "", fmt.Errorf("%w: %s", storage.ErrNoSuchBucket, bucket)
	}
	policy, ok := s.policies[bucket]
	if !ok {
		return "", storage.ErrNoSuchBucketPolicy
	}
	return policy, nil
}

func (s *Store) SetBucketPolicy(_ context.Context, bucket, policy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpSetBucketPolicy); err != nil {
		return err
	}
	if !s.buckets[bucket] {
		return fmt.Errorf("%w: %s", storage.ErrNoSuchBucket, bucket)
	}
	if !s.dropPolicyWrites {
		s.policies[bucket] = policy
	}
	return nil
}

// --- component.Component ---

func (s *Store) Name() string { return s.name }

// Start makes the store available again. Buckets survive a restart.
func (s *Store) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	return nil
}

// Stop makes every operation fail with ErrNotRunning.
func (s *Store) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return nil
}

func (s *Store) Health(_ context.Context) component.Health {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return component.Health{Name: s.name, Status: component.StatusUnhealthy, Message: "not running"}
	}
	return component.Health{
		Name:    s.name,
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d buckets", len(s.buckets)),
	}
}
