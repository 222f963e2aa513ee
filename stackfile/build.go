package stackfile

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/stackup/logger"
	"github.com/kbukum/stackup/orchestrator"
	"github.com/kbukum/stackup/probe"
	"github.com/kbukum/stackup/process"
	"github.com/kbukum/stackup/provision"
	"github.com/kbukum/stackup/storage"
	"github.com/kbukum/stackup/storage/s3"
	"github.com/kbukum/stackup/workload"
	"github.com/kbukum/stackup/workload/docker"
)

// BuildOption configures Build.
type BuildOption func(*builder)

// WithBucketAdmin uses admin for the named store instead of connecting to
// the configured S3 endpoint.
func WithBucketAdmin(store string, admin storage.BucketAdmin) BuildOption {
	return func(b *builder) { b.admins[store] = admin }
}

// WithWorkloadManager runs container services on m instead of the Docker
// daemon described by the docker section.
func WithWorkloadManager(m workload.Manager) BuildOption {
	return func(b *builder) { b.workloads = m }
}

// WithLogger sets the logger of the clients Build creates.
func WithLogger(l *logger.Logger) BuildOption {
	return func(b *builder) { b.log = l }
}

type builder struct {
	file      *File
	admins    map[string]storage.BucketAdmin
	workloads workload.Manager
	log       *logger.Logger
	closers   []func() error
}

// Stack is the runnable form of a File.
type Stack struct {
	Services []*orchestrator.Service
	Tasks    []*provision.Task
	// Probes holds the built-in checkers plus the container checker when
	// a service runs as a container.
	Probes *probe.Registry

	closers []func() error
}

// Close releases the clients Build created.
func (s *Stack) Close() error { return closeAll(s.closers) }

func closeAll(closers []func() error) error {
	var firstErr error
	for _, c := range closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Build turns the declaration into orchestrator services and provisioning
// tasks, in declaration order. S3 and Docker clients are created only when
// a task or service needs them, and are released again when Build fails.
func (f *File) Build(ctx context.Context, opts ...BuildOption) (*Stack, error) {
	b := &builder{file: f, admins: make(map[string]storage.BucketAdmin)}
	for _, opt := range opts {
		opt(b)
	}
	if b.log == nil {
		b.log = logger.Nop()
	}

	stack, err := b.build(ctx)
	if err != nil {
		if cerr := closeAll(b.closers); cerr != nil {
			b.log.Warn("closing clients after failed build", logger.ErrorFields("build", cerr))
		}
		return nil, err
	}
	return stack, nil
}

func (b *builder) build(ctx context.Context) (*Stack, error) {
	f := b.file
	stack := &Stack{Probes: probe.DefaultRegistry()}
	for _, s := range f.Services {
		svc, err := b.service(s)
		if err != nil {
			return nil, err
		}
		stack.Services = append(stack.Services, svc)
	}
	if b.workloads != nil {
		workload.Register(stack.Probes, b.workloads)
	}

	for _, t := range f.Tasks {
		action, err := b.action(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", t.ID, err)
		}
		stack.Tasks = append(stack.Tasks, &provision.Task{
			ID:             t.ID,
			DependsOn:      t.DependsOn,
			Action:         action,
			IdempotencyKey: t.IdempotencyKey,
		})
	}
	stack.closers = b.closers
	return stack, nil
}

func (b *builder) service(s ServiceSpec) (*orchestrator.Service, error) {
	timeout, err := parseDuration(s.Probe.Timeout)
	if err != nil {
		return nil, fmt.Errorf("service %s: probe timeout: %w", s.ID, err)
	}
	interval, err := parseDuration(s.Probe.RetryInterval)
	if err != nil {
		return nil, fmt.Errorf("service %s: probe retry_interval: %w", s.ID, err)
	}

	svc := &orchestrator.Service{
		ID:        s.ID,
		DependsOn: s.DependsOn,
		Probe: probe.Spec{
			Kind:          probe.Kind(s.Probe.Kind),
			Target:        s.Probe.Target,
			Timeout:       timeout,
			RetryInterval: interval,
			MaxAttempts:   s.Probe.MaxAttempts,
		},
		RestartPolicy: orchestrator.RestartPolicy(s.Restart),
	}

	if s.Container != nil {
		starter, err := b.container(s.ID, s.Container)
		if err != nil {
			return nil, fmt.Errorf("service %s: %w", s.ID, err)
		}
		svc.Start, svc.Stop = starter, starter
		if svc.Probe.Kind == "" {
			svc.Probe.Kind = workload.KindContainer
		}
		if svc.Probe.Target == "" {
			svc.Probe.Target = starter.Request.Name
		}
		return svc, nil
	}

	if s.Start != "" {
		svc.Start = &orchestrator.CommandStarter{Command: command(s.Start, s.Dir, s.Env)}
	}
	if s.Stop != "" {
		svc.Stop = &orchestrator.CommandStopper{Command: command(s.Stop, s.Dir, s.Env)}
	}
	return svc, nil
}

func (b *builder) container(id string, c *ContainerSpec) (*workload.Starter, error) {
	m, err := b.manager()
	if err != nil {
		return nil, err
	}
	req := workload.DeployRequest{
		Name:        c.name(id),
		Image:       c.Image,
		Command:     c.Command,
		Environment: c.Env,
		WorkDir:     c.WorkDir,
		Network:     c.Network,
		Platform:    c.Platform,
	}
	for _, p := range c.Ports {
		port, err := workload.ParsePort(p)
		if err != nil {
			return nil, err
		}
		req.Ports = append(req.Ports, port)
	}
	for _, v := range c.Volumes {
		vol, err := workload.ParseVolume(v)
		if err != nil {
			return nil, err
		}
		req.Volumes = append(req.Volumes, vol)
	}
	if c.Memory != "" || c.CPUs != "" {
		req.Resources = &workload.ResourceLimits{Memory: c.Memory, CPUs: c.CPUs}
	}
	stopTimeout, err := parseDuration(c.StopTimeout)
	if err != nil {
		return nil, fmt.Errorf("stop_timeout: %w", err)
	}
	return &workload.Starter{Manager: m, Request: req, StopTimeout: stopTimeout}, nil
}

// manager returns the workload manager, connecting to Docker on first use.
func (b *builder) manager() (workload.Manager, error) {
	if b.workloads != nil {
		return b.workloads, nil
	}
	m, err := docker.NewManager(&b.file.Docker, b.log)
	if err != nil {
		return nil, err
	}
	b.workloads = m
	b.closers = append(b.closers, m.Close)
	return m, nil
}

func command(line, dir string, env []string) process.Command {
	cmd := process.Shell(line, env...)
	cmd.Dir = dir
	return cmd
}

func (b *builder) action(ctx context.Context, t TaskSpec) (provision.Action, error) {
	switch t.Action {
	case ActionBucket:
		admin, err := b.admin(ctx, t.Store)
		if err != nil {
			return nil, err
		}
		return &provision.BucketAction{Admin: admin, Bucket: t.Bucket}, nil
	case ActionBucketPolicy:
		admin, err := b.admin(ctx, t.Store)
		if err != nil {
			return nil, err
		}
		return &provision.BucketPolicyAction{Admin: admin, Bucket: t.Bucket, Policy: t.Policy, Overwrite: t.Overwrite}, nil
	case ActionDatabase:
		return &provision.DatabaseAction{DSN: t.DSN, Name: t.Database}, nil
	case ActionMigrate:
		return &provision.MigrateAction{DSN: t.DSN, Dir: t.Migrations}, nil
	case ActionCommand:
		return &provision.CommandAction{CheckCmd: t.Check, ApplyCmd: t.Apply, VerifyCmd: t.Verify, Env: t.Env}, nil
	default:
		return nil, fmt.Errorf("unknown action %q", t.Action)
	}
}

// admin returns the bucket admin of store, connecting once per store.
func (b *builder) admin(ctx context.Context, store string) (storage.BucketAdmin, error) {
	if admin, ok := b.admins[store]; ok {
		return admin, nil
	}
	cfg, ok := b.file.Stores[store]
	if !ok {
		return nil, fmt.Errorf("unknown store %q", store)
	}
	admin, err := s3.NewAdmin(ctx, &cfg)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", store, err)
	}
	b.admins[store] = admin
	return admin, nil
}

// parseDuration accepts an empty string as zero.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
