// Package docker implements workload.Manager on the Docker Engine API.
package docker

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/kbukum/stackup/logger"
	"github.com/kbukum/stackup/workload"
)

// api is the part of *client.Client the manager uses.
type api interface {
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
	ImageInspect(ctx context.Context, imageID string, inspectOpts ...client.ImageInspectOption) (image.InspectResponse, error)
	ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error)
	Ping(ctx context.Context) (types.Ping, error)
	Close() error
}

// Manager implements workload.Manager using the Docker Engine SDK.
type Manager struct {
	client api
	cfg    *Config
	log    *logger.Logger
}

var _ workload.Manager = (*Manager)(nil)

// NewManager connects to the daemon described by cfg. The connection is
// lazy; HealthCheck verifies it.
func NewManager(cfg *Config, log *logger.Logger) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []client.Opt{client.FromEnv}
	if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	}
	if cfg.APIVersion != "" {
		opts = append(opts, client.WithVersion(cfg.APIVersion))
	} else {
		opts = append(opts, client.WithAPIVersionNegotiation())
	}
	if cfg.TLS != nil {
		opts = append(opts, client.WithTLSClientConfig(cfg.TLS.CACert, cfg.TLS.Cert, cfg.TLS.Key))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("docker: create client: %w", err)
	}
	return newManager(cli, cfg, log), nil
}

func newManager(cli api, cfg *Config, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{client: cli, cfg: cfg, log: log.WithComponent("docker")}
}

// Deploy pulls the image when missing, then creates and starts the
// container. A container that fails to start is removed.
func (m *Manager) Deploy(ctx context.Context, req workload.DeployRequest) (*workload.DeployResult, error) {
	m.log.Info("Deploying container", map[string]interface{}{
		"name":  req.Name,
		"image": req.Image,
	})

	if err := m.ensureImage(ctx, req.Image, req.Platform); err != nil {
		return nil, fmt.Errorf("docker: pull image: %w", err)
	}

	containerCfg, hostCfg, networkCfg, platform, err := m.buildContainerConfig(req)
	if err != nil {
		return nil, err
	}

	resp, err := m.client.ContainerCreate(ctx, containerCfg, hostCfg, networkCfg, platform, req.Name)
	if err != nil {
		return nil, fmt.Errorf("docker: create container %s: %w", req.Name, err)
	}

	if err := m.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		_ = m.client.ContainerRemove(context.WithoutCancel(ctx), resp.ID, container.RemoveOptions{Force: true})
		return nil, fmt.Errorf("docker: start container %s: %w", req.Name, err)
	}

	m.log.Info("Container started", map[string]interface{}{
		"id":   shortID(resp.ID),
		"name": req.Name,
	})
	return &workload.DeployResult{ID: resp.ID, Name: req.Name}, nil
}

// Stop stops a container, killing it after timeout.
func (m *Manager) Stop(ctx context.Context, name string, timeout time.Duration) error {
	secs := int(timeout.Round(time.Second) / time.Second)
	if err := m.client.ContainerStop(ctx, name, container.StopOptions{Timeout: &secs}); err != nil {
		return fmt.Errorf("docker: stop container %s: %w", name, err)
	}
	return nil
}

// Remove deletes a container and its anonymous volumes.
func (m *Manager) Remove(ctx context.Context, name string) error {
	err := m.client.ContainerRemove(ctx, name, container.RemoveOptions{RemoveVolumes: true, Force: true})
	if err != nil && !client.IsErrNotFound(err) {
		return fmt.Errorf("docker: remove container %s: %w", name, err)
	}
	return nil
}

// Status inspects a container.
func (m *Manager) Status(ctx context.Context, name string) (*workload.Status, error) {
	info, err := m.client.ContainerInspect(ctx, name)
	if err != nil {
		if client.IsErrNotFound(err) {
			return &workload.Status{Name: name, State: workload.StateNotFound}, nil
		}
		return nil, fmt.Errorf("docker: inspect container %s: %w", name, err)
	}
	return toStatus(info), nil
}

func toStatus(info container.InspectResponse) *workload.Status {
	st := &workload.Status{State: workload.StateCreated}
	if info.Config != nil {
		st.Image = info.Config.Image
	}
	base := info.ContainerJSONBase
	if base == nil {
		return st
	}
	st.ID = base.ID
	st.Name = strings.TrimPrefix(base.Name, "/")
	if base.State == nil {
		return st
	}

	state := base.State
	switch {
	case state.Restarting:
		st.State = workload.StateRestarting
	case state.Running:
		st.State = workload.StateRunning
	case string(state.Status) == workload.StateCreated:
		st.State = workload.StateCreated
	default:
		st.State = workload.StateExited
	}
	if state.Health != nil {
		st.Health = string(state.Health.Status)
	}
	st.ExitCode = state.ExitCode
	st.Message = state.Error
	if t, err := time.Parse(time.RFC3339Nano, state.StartedAt); err == nil {
		st.StartedAt = t
	}
	return st
}

// HealthCheck pings the daemon.
func (m *Manager) HealthCheck(ctx context.Context) error {
	if _, err := m.client.Ping(ctx); err != nil {
		return fmt.Errorf("docker: ping: %w", err)
	}
	return nil
}

// Close releases the client.
func (m *Manager) Close() error {
	return m.client.Close()
}

// ensureImage pulls the image if it is not present locally.
func (m *Manager) ensureImage(ctx context.Context, ref, platform string) error {
	if _, err := m.client.ImageInspect(ctx, ref); err == nil {
		return nil
	}

	m.log.Info("Pulling image", map[string]interface{}{"image": ref})

	pullOpts := image.PullOptions{Platform: platform}
	if pullOpts.Platform == "" {
		pullOpts.Platform = m.cfg.Platform
	}
	reader, err := m.client.ImagePull(ctx, ref, pullOpts)
	if err != nil {
		return fmt.Errorf("pull %s: %w", ref, err)
	}
	defer reader.Close() //nolint:errcheck // read-only stream
	_, err = io.Copy(io.Discard, reader)
	return err
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
