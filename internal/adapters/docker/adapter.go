package docker

import (
	"context"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/strslice"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/go-connections/nat"
	"github.com/pkg/errors"

	"github.com/mdevran/porthole/internal/core/domain"
)

// Options configures the adapter. A zero Host uses the environment
// (DOCKER_HOST or the default socket).
type Options struct {
	Host string

	// RequestTimeout bounds each daemon call; expiry surfaces as
	// domain.ErrRuntimeUnavailable instead of hanging the request.
	RequestTimeout time.Duration

	// StopTimeout is how long the daemon waits before killing a container.
	StopTimeout time.Duration

	// PullTimeout bounds create calls, which may pull the image first.
	PullTimeout time.Duration
}

// Adapter implements ports.ContainerRuntime using the Docker SDK. The
// underlying client is safe for concurrent use, so the adapter needs no
// locking of its own.
type Adapter struct {
	cli  *client.Client
	opts Options
}

// NewAdapter creates a Docker adapter. It does not contact the daemon;
// reachability is checked by the first Ping.
func NewAdapter(opts Options) (*Adapter, error) {
	clientOpts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if opts.Host != "" {
		clientOpts = append(clientOpts, client.WithHost(opts.Host))
	}
	cli, err := client.NewClientWithOpts(clientOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating docker client")
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = 10 * time.Second
	}
	if opts.PullTimeout <= 0 {
		opts.PullTimeout = 2 * time.Minute
	}
	return &Adapter{cli: cli, opts: opts}, nil
}

// Close releases the client's transport.
func (a *Adapter) Close() error {
	return a.cli.Close()
}

// Ping checks daemon liveness.
func (a *Adapter) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.opts.RequestTimeout)
	defer cancel()
	_, err := a.cli.Ping(ctx)
	return a.wrap("ping", err)
}

// List returns raw records for all containers, running or not.
func (a *Adapter) List(ctx context.Context) ([]domain.RawContainer, error) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.RequestTimeout)
	defer cancel()

	containers, err := a.cli.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, a.wrap("listing containers", err)
	}

	raw := make([]domain.RawContainer, 0, len(containers))
	for _, c := range containers {
		raw = append(raw, toRaw(c))
	}
	return raw, nil
}

// Start starts the named container. Already running is a successful no-op.
func (a *Adapter) Start(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, a.opts.RequestTimeout)
	defer cancel()

	info, err := a.cli.ContainerInspect(ctx, name)
	if err != nil {
		return a.wrap("inspecting "+name, err)
	}
	if info.State != nil && info.State.Running {
		return nil
	}
	return a.wrap("starting "+name, a.cli.ContainerStart(ctx, info.ID, container.StartOptions{}))
}

// Stop stops the named container. Already stopped is a successful no-op.
func (a *Adapter) Stop(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, a.opts.RequestTimeout+a.opts.StopTimeout)
	defer cancel()

	info, err := a.cli.ContainerInspect(ctx, name)
	if err != nil {
		return a.wrap("inspecting "+name, err)
	}
	if info.State == nil || !info.State.Running {
		return nil
	}
	secs := int(a.opts.StopTimeout.Seconds())
	return a.wrap("stopping "+name, a.cli.ContainerStop(ctx, info.ID, container.StopOptions{Timeout: &secs}))
}

// Create pulls the image when missing, then creates and starts a container
// named req.Name with the requested ports, environment, command and restart
// policy. Syntactic validation of req is the caller's job; the daemon still
// gets the final say and its rejections map onto the domain error kinds.
func (a *Adapter) Create(ctx context.Context, req domain.CreateRequest) (domain.RawContainer, error) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.PullTimeout)
	defer cancel()

	if err := a.ensureImage(ctx, req.Image); err != nil {
		return domain.RawContainer{}, err
	}

	exposed, bindings, err := natMappings(req.Ports)
	if err != nil {
		return domain.RawContainer{}, err
	}

	config := &container.Config{
		Image:        req.Image,
		Env:          envSlice(req.Environment),
		Cmd:          strslice.StrSlice(req.Command),
		ExposedPorts: exposed,
	}
	hostConfig := &container.HostConfig{
		PortBindings: bindings,
		RestartPolicy: container.RestartPolicy{
			Name: container.RestartPolicyMode(req.RestartPolicy),
		},
	}

	resp, err := a.cli.ContainerCreate(ctx, config, hostConfig, nil, nil, req.Name)
	if err != nil {
		return domain.RawContainer{}, a.wrap("creating "+req.Name, err)
	}
	if err := a.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return domain.RawContainer{}, a.wrap("starting "+req.Name, err)
	}

	info, err := a.cli.ContainerInspect(ctx, resp.ID)
	if err != nil {
		return domain.RawContainer{}, a.wrap("inspecting "+req.Name, err)
	}
	return fromInspect(info), nil
}

// ensureImage inspects the image reference and pulls it when absent.
func (a *Adapter) ensureImage(ctx context.Context, ref string) error {
	if _, _, err := a.cli.ImageInspectWithRaw(ctx, ref); err == nil {
		return nil
	} else if !errdefs.IsNotFound(err) {
		return a.wrap("inspecting image "+ref, err)
	}

	reader, err := a.cli.ImagePull(ctx, ref, types.ImagePullOptions{})
	if err != nil {
		if errdefs.IsNotFound(err) {
			return errors.WithMessagef(domain.ErrImageNotFound, "%q", ref)
		}
		return a.wrap("pulling image "+ref, err)
	}
	defer reader.Close()
	// The pull only completes once the progress stream is drained.
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return a.wrap("pulling image "+ref, err)
	}
	return nil
}

// wrap maps SDK failures onto the domain error kinds, keeping the daemon's
// message for the operator.
func (a *Adapter) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var kind error
	switch {
	case errdefs.IsNotFound(err):
		kind = domain.ErrNotFound
	case errdefs.IsConflict(err):
		kind = domain.ErrNameConflict
	case client.IsErrConnectionFailed(err),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		kind = domain.ErrRuntimeUnavailable
	default:
		return errors.Wrap(err, op)
	}
	return errors.WithMessagef(kind, "%s: %v", op, err)
}

func toRaw(c types.Container) domain.RawContainer {
	name := ""
	if len(c.Names) > 0 {
		name = strings.TrimPrefix(c.Names[0], "/")
	}
	ports := make([]domain.PortBinding, 0, len(c.Ports))
	for _, p := range c.Ports {
		if p.PublicPort == 0 {
			continue
		}
		ports = append(ports, domain.PortBinding{
			ContainerPort: int(p.PrivatePort),
			Protocol:      p.Type,
			HostPort:      int(p.PublicPort),
		})
	}
	return domain.RawContainer{
		ID:      c.ID,
		Name:    name,
		Image:   c.Image,
		State:   c.State,
		Created: c.Created,
		Ports:   ports,
		Labels:  c.Labels,
	}
}

func fromInspect(info types.ContainerJSON) domain.RawContainer {
	rc := domain.RawContainer{
		ID:   info.ID,
		Name: strings.TrimPrefix(info.Name, "/"),
	}
	if info.Config != nil {
		rc.Image = info.Config.Image
		rc.Labels = info.Config.Labels
	}
	if info.State != nil {
		rc.State = info.State.Status
	}
	if created, err := time.Parse(time.RFC3339Nano, info.Created); err == nil {
		rc.Created = created.Unix()
	}
	if info.NetworkSettings != nil {
		for port, binds := range info.NetworkSettings.Ports {
			for _, b := range binds {
				hostPort, err := strconv.Atoi(b.HostPort)
				if err != nil || hostPort == 0 {
					continue
				}
				rc.Ports = append(rc.Ports, domain.PortBinding{
					ContainerPort: port.Int(),
					Protocol:      port.Proto(),
					HostPort:      hostPort,
				})
			}
		}
	}
	return rc
}

// natMappings converts the request's "<port>/<proto>" map into the SDK's
// exposed-port set and host bindings.
func natMappings(ports map[string]int) (nat.PortSet, nat.PortMap, error) {
	if len(ports) == 0 {
		return nil, nil, nil
	}
	exposed := make(nat.PortSet, len(ports))
	bindings := make(nat.PortMap, len(ports))
	for spec, hostPort := range ports {
		containerPort, proto, err := domain.ParsePortSpec(spec)
		if err != nil {
			return nil, nil, err
		}
		port, err := nat.NewPort(proto, strconv.Itoa(containerPort))
		if err != nil {
			return nil, nil, domain.InvalidSpec("ports", "%q: %v", spec, err)
		}
		exposed[port] = struct{}{}
		bindings[port] = []nat.PortBinding{{HostPort: strconv.Itoa(hostPort)}}
	}
	return exposed, bindings, nil
}

func envSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	vars := make([]string, 0, len(env))
	for k, v := range env {
		vars = append(vars, k+"="+v)
	}
	sort.Strings(vars)
	return vars
}
