package stackfile

import (
	"bytes"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/stackup/errors"
	"github.com/kbukum/stackup/storage/s3"
	"github.com/kbukum/stackup/validation"
	"github.com/kbukum/stackup/workload"
	"github.com/kbukum/stackup/workload/docker"
)

// Task actions.
const (
	ActionBucket       = "bucket"
	ActionBucketPolicy = "bucket-policy"
	ActionDatabase     = "database"
	ActionMigrate      = "migrate"
	ActionCommand      = "command"
)

var actions = []string{ActionBucket, ActionBucketPolicy, ActionDatabase, ActionMigrate, ActionCommand}

// File is a parsed stack declaration.
type File struct {
	// Stores names the object stores bucket tasks refer to.
	Stores map[string]s3.Config `yaml:"stores" validate:"-"`
	// Docker configures the runtime of container services.
	Docker   docker.Config `yaml:"docker" validate:"-"`
	Services []ServiceSpec `yaml:"services" validate:"dive"`
	Tasks    []TaskSpec    `yaml:"tasks" validate:"dive"`
}

// ServiceSpec declares a service.
type ServiceSpec struct {
	ID        string   `yaml:"id" validate:"required"`
	DependsOn []string `yaml:"depends_on"`
	// Start and Stop are shell command lines. An empty Start without a
	// Container means the service is launched by someone else and only
	// awaited.
	Start   string   `yaml:"start"`
	Stop    string   `yaml:"stop"`
	Dir     string   `yaml:"dir"`
	Env     []string `yaml:"env"`
	Restart string   `yaml:"restart" validate:"omitempty,oneof=never on-failure always"`
	// Container runs the service as a container instead of a command.
	Container *ContainerSpec `yaml:"container" validate:"omitempty"`
	// Probe zero fields are filled from the run configuration later, so it
	// is validated by the orchestrator.
	Probe ProbeSpec `yaml:"probe" validate:"-"`
}

// ContainerSpec describes a service container. Ports and volumes use the
// compose short forms.
type ContainerSpec struct {
	// Name defaults to the service id.
	Name        string            `yaml:"name"`
	Image       string            `yaml:"image" validate:"required"`
	Command     []string          `yaml:"command"`
	Env         map[string]string `yaml:"env"`
	WorkDir     string            `yaml:"workdir"`
	Ports       []string          `yaml:"ports"`
	Volumes     []string          `yaml:"volumes"`
	Network     string            `yaml:"network"`
	Platform    string            `yaml:"platform"`
	Memory      string            `yaml:"memory"`
	CPUs        string            `yaml:"cpus"`
	StopTimeout string            `yaml:"stop_timeout"`
}

// name returns the container name of service id.
func (c *ContainerSpec) name(id string) string {
	if c.Name != "" {
		return c.Name
	}
	return id
}

// ProbeSpec mirrors probe.Spec with YAML durations.
type ProbeSpec struct {
	Kind          string `yaml:"kind"`
	Target        string `yaml:"target"`
	Timeout       string `yaml:"timeout"`
	RetryInterval string `yaml:"retry_interval"`
	MaxAttempts   int    `yaml:"max_attempts"`
}

// TaskSpec declares a bootstrap task. Which fields apply depends on Action.
type TaskSpec struct {
	ID             string   `yaml:"id" validate:"required"`
	DependsOn      []string `yaml:"depends_on"`
	IdempotencyKey string   `yaml:"idempotency_key"`
	Action         string   `yaml:"action" validate:"required,oneof=bucket bucket-policy database migrate command"`

	// bucket, bucket-policy
	Store     string `yaml:"store"`
	Bucket    string `yaml:"bucket"`
	Policy    string `yaml:"policy"`
	Overwrite bool   `yaml:"overwrite"`

	// database, migrate
	DSN      string `yaml:"dsn"`
	Database string `yaml:"database"`
	// Migrations is the directory of versioned SQL migrations.
	Migrations string `yaml:"migrations"`

	// command
	Check  string   `yaml:"check"`
	Apply  string   `yaml:"apply"`
	Verify string   `yaml:"verify"`
	Env    []string `yaml:"env"`
}

// Load reads and validates the stack file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.InvalidInput("stack_file", "cannot read "+path).WithCause(err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("stackfile %s: %w", path, err)
	}
	return f, nil
}

// Parse expands environment references in data, decodes it strictly and
// validates the result.
func Parse(data []byte) (*File, error) {
	expanded := os.ExpandEnv(string(data))

	dec := yaml.NewDecoder(bytes.NewBufferString(expanded))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Validation("malformed stack file").WithCause(err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks field constraints and the per-action requirements of
// tasks. Graph-level checks happen when the orchestrator is built.
func (f *File) Validate() error {
	if err := validation.Validate(f); err != nil {
		return err
	}

	v := validation.New()
	for name, store := range f.Stores {
		cfg := store
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			v.AddError("stores."+name, err.Error())
		}
	}
	containers := false
	for i, s := range f.Services {
		field := fmt.Sprintf("services[%d]", i)
		if s.Container != nil {
			containers = true
			v.Custom(field+".start", s.Start == "", "start and container are mutually exclusive")
			v.Custom(field+".stop", s.Stop == "", "stop and container are mutually exclusive")
			validateContainer(v, field+".container", s.Container)
		} else {
			v.Required(field+".probe.kind", s.Probe.Kind)
			v.Required(field+".probe.target", s.Probe.Target)
		}
		for _, d := range []struct{ name, value string }{
			{"timeout", s.Probe.Timeout},
			{"retry_interval", s.Probe.RetryInterval},
		} {
			if _, err := parseDuration(d.value); err != nil {
				v.AddError(field+".probe."+d.name, "must be a duration such as 5s")
			}
		}
	}
	if containers {
		if err := f.Docker.Validate(); err != nil {
			v.AddError("docker", err.Error())
		}
	}
	for i, t := range f.Tasks {
		field := fmt.Sprintf("tasks[%d]", i)
		v.OneOf(field+".action", t.Action, actions)
		switch t.Action {
		case ActionBucket, ActionBucketPolicy:
			v.Required(field+".bucket", t.Bucket)
			if v.Required(field+".store", t.Store); t.Store != "" {
				_, ok := f.Stores[t.Store]
				v.Custom(field+".store", ok, fmt.Sprintf("unknown store %q", t.Store))
			}
		case ActionDatabase:
			v.Required(field+".dsn", t.DSN)
			v.Required(field+".database", t.Database)
		case ActionMigrate:
			v.Required(field+".dsn", t.DSN)
			v.Required(field+".migrations", t.Migrations)
		case ActionCommand:
			v.Required(field+".check", t.Check)
			v.Required(field+".apply", t.Apply)
		}
	}
	return v.Validate()
}

func validateContainer(v *validation.Validator, field string, c *ContainerSpec) {
	for _, p := range c.Ports {
		if _, err := workload.ParsePort(p); err != nil {
			v.AddError(field+".ports", err.Error())
		}
	}
	for _, vol := range c.Volumes {
		if _, err := workload.ParseVolume(vol); err != nil {
			v.AddError(field+".volumes", err.Error())
		}
	}
	limits := &workload.ResourceLimits{Memory: c.Memory, CPUs: c.CPUs}
	if err := limits.Validate(); err != nil {
		v.AddError(field+".resources", err.Error())
	}
	if _, err := parseDuration(c.StopTimeout); err != nil {
		v.AddError(field+".stop_timeout", "must be a duration such as 10s")
	}
}
