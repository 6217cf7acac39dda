package actions

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mdevran/porthole/internal/core/domain"
	"github.com/mdevran/porthole/internal/core/ports"
)

// Controller executes start, stop and create requests against the runtime.
// It guarantees at most one in-flight mutating operation per service name: a
// second request for a busy name is rejected with domain.ErrActionInFlight
// rather than coalesced, so every caller knows whether its own operation ran.
// The controller holds no other state between requests.
type Controller struct {
	runtime ports.ContainerRuntime
	builder ports.ImageBuilder
	locks   *nameLocks
	log     logrus.FieldLogger
}

// New returns a controller over the given runtime. builder may be nil, in
// which case create requests with a repo URL are rejected.
func New(runtime ports.ContainerRuntime, builder ports.ImageBuilder, log logrus.FieldLogger) *Controller {
	return &Controller{
		runtime: runtime,
		builder: builder,
		locks:   newNameLocks(),
		log:     log,
	}
}

// Start starts the named service. Starting a service that is already running
// succeeds without change.
func (c *Controller) Start(ctx context.Context, name string) error {
	if name == "" {
		return domain.InvalidSpec("name", "must not be empty")
	}
	if !c.locks.acquire(name) {
		return domain.ErrActionInFlight
	}
	defer c.locks.release(name)

	c.log.WithFields(logrus.Fields{"service": name, "action": "start"}).Info("service action")
	return c.runtime.Start(ctx, name)
}

// Stop stops the named service. Stopping a service that is already stopped
// succeeds without change.
func (c *Controller) Stop(ctx context.Context, name string) error {
	if name == "" {
		return domain.InvalidSpec("name", "must not be empty")
	}
	if !c.locks.acquire(name) {
		return domain.ErrActionInFlight
	}
	defer c.locks.release(name)

	c.log.WithFields(logrus.Fields{"service": name, "action": "stop"}).Info("service action")
	return c.runtime.Stop(ctx, name)
}

// Create validates req and creates the service. Validation fails fast in a
// fixed order: required fields, name collision against a live listing, port
// syntax, environment keys, restart policy. No runtime create call is made
// on any validation failure.
func (c *Controller) Create(ctx context.Context, req domain.CreateRequest) error {
	if req.Name == "" {
		return domain.InvalidSpec("name", "must not be empty")
	}
	if req.Image == "" && req.RepoURL == "" {
		return domain.InvalidSpec("image", "image or repo_url is required")
	}

	if !c.locks.acquire(req.Name) {
		return domain.ErrActionInFlight
	}
	defer c.locks.release(req.Name)

	existing, err := c.runtime.List(ctx)
	if err != nil {
		return errors.WithMessage(err, "checking for name collision")
	}
	for _, rc := range existing {
		if rc.Name == req.Name {
			return domain.ErrNameConflict
		}
	}

	if err := domain.ValidatePorts(req.Ports); err != nil {
		return err
	}
	if err := domain.ValidateEnvironment(req.Environment); err != nil {
		return err
	}
	if req.RestartPolicy == "" {
		req.RestartPolicy = domain.DefaultRestartPolicy
	}
	if !req.RestartPolicy.Valid() {
		return domain.InvalidSpec("restart_policy", "%q is not one of no, always, on-failure, unless-stopped", req.RestartPolicy)
	}

	if req.RepoURL != "" {
		if c.builder == nil {
			return domain.InvalidSpec("repo_url", "building from source is not enabled")
		}
		if req.Image == "" {
			req.Image = req.Name + ":latest"
		}
		c.log.WithFields(logrus.Fields{
			"service": req.Name,
			"repo":    req.RepoURL,
			"image":   req.Image,
		}).Info("building image from source")
		if _, err := c.builder.BuildImage(ctx, req.RepoURL, req.Image); err != nil {
			return errors.WithMessage(err, "building image")
		}
	}

	c.log.WithFields(logrus.Fields{
		"service": req.Name,
		"image":   req.Image,
		"action":  "create",
	}).Info("service action")
	_, err = c.runtime.Create(ctx, req)
	return err
}
