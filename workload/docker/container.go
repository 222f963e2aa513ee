package docker

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/go-connections/nat"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/kbukum/stackup/workload"
)

// buildContainerConfig converts a DeployRequest into Docker-specific configs.
func (m *Manager) buildContainerConfig(req workload.DeployRequest) (*container.Config, *container.HostConfig, *network.NetworkingConfig, *ocispec.Platform, error) {
	env := make([]string, 0, len(req.Environment))
	for _, k := range slices.Sorted(maps.Keys(req.Environment)) {
		env = append(env, k+"="+req.Environment[k])
	}

	containerCfg := &container.Config{
		Image:      req.Image,
		Env:        env,
		Labels:     req.Labels,
		Cmd:        req.Command,
		WorkingDir: req.WorkDir,
	}

	// Ports
	exposedPorts := nat.PortSet{}
	portBindings := nat.PortMap{}
	for _, p := range req.Ports {
		proto := p.Protocol
		if proto == "" {
			proto = "tcp"
		}
		containerPort := nat.Port(fmt.Sprintf("%d/%s", p.Container, proto))
		exposedPorts[containerPort] = struct{}{}
		if p.Host > 0 {
			portBindings[containerPort] = append(portBindings[containerPort], nat.PortBinding{
				HostPort: strconv.Itoa(p.Host),
			})
		}
	}
	if len(exposedPorts) > 0 {
		containerCfg.ExposedPorts = exposedPorts
	}

	hostCfg := &container.HostConfig{PortBindings: portBindings}
	if req.RestartPolicy != "" && req.RestartPolicy != "no" {
		hostCfg.RestartPolicy = container.RestartPolicy{Name: container.RestartPolicyMode(req.RestartPolicy)}
	}

	// Resources
	if r := req.Resources; r != nil {
		if r.Memory != "" {
			mem, err := workload.ParseMemory(r.Memory)
			if err != nil {
				return nil, nil, nil, nil, err
			}
			hostCfg.Memory = mem
		}
		if r.CPUs != "" {
			cpu, err := workload.ParseCPU(r.CPUs)
			if err != nil {
				return nil, nil, nil, nil, err
			}
			hostCfg.NanoCPUs = cpu
		}
	}

	// Volumes
	for _, v := range req.Volumes {
		mode := "rw"
		if v.ReadOnly {
			mode = "ro"
		}
		hostCfg.Binds = append(hostCfg.Binds, fmt.Sprintf("%s:%s:%s", v.Source, v.Target, mode))
	}

	// Network
	var networkCfg *network.NetworkingConfig
	switch netName := m.resolveNetwork(req.Network); netName {
	case "":
	case "host", "bridge", "none":
		hostCfg.NetworkMode = container.NetworkMode(netName)
	default:
		hostCfg.NetworkMode = container.NetworkMode(netName)
		networkCfg = &network.NetworkingConfig{
			EndpointsConfig: map[string]*network.EndpointSettings{
				netName: {Aliases: []string{req.Name}},
			},
		}
	}

	return containerCfg, hostCfg, networkCfg, m.resolvePlatform(req.Platform), nil
}

// resolveNetwork returns the network name from the request or config default.
func (m *Manager) resolveNetwork(name string) string {
	if name != "" {
		return name
	}
	return m.cfg.Network
}

// resolvePlatform parses "os/arch" into an OCI platform spec.
func (m *Manager) resolvePlatform(platform string) *ocispec.Platform {
	if platform == "" {
		platform = m.cfg.Platform
	}
	os, arch, ok := strings.Cut(platform, "/")
	if !ok {
		return nil
	}
	return &ocispec.Platform{OS: os, Architecture: arch}
}
