package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdevran/porthole/internal/core/actions"
	"github.com/mdevran/porthole/internal/core/domain"
	"github.com/mdevran/porthole/internal/core/registry"
)

// fakeRuntime backs the handler tests; Create registers the container so a
// later listing observes it, the way the real daemon would.
type fakeRuntime struct {
	mu         sync.Mutex
	containers []domain.RawContainer

	listErr  error
	startErr error
	stopErr  error
	pingErr  error
}

func (f *fakeRuntime) List(ctx context.Context) ([]domain.RawContainer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.containers, f.listErr
}

func (f *fakeRuntime) Create(ctx context.Context, req domain.CreateRequest) (domain.RawContainer, error) {
	ports := make([]domain.PortBinding, 0, len(req.Ports))
	for spec, hostPort := range req.Ports {
		containerPort, proto, err := domain.ParsePortSpec(spec)
		if err != nil {
			return domain.RawContainer{}, err
		}
		ports = append(ports, domain.PortBinding{ContainerPort: containerPort, Protocol: proto, HostPort: hostPort})
	}
	rc := domain.RawContainer{Name: req.Name, Image: req.Image, State: "running", Ports: ports}
	f.mu.Lock()
	f.containers = append(f.containers, rc)
	f.mu.Unlock()
	return rc, nil
}

func (f *fakeRuntime) Start(ctx context.Context, name string) error { return f.startErr }
func (f *fakeRuntime) Stop(ctx context.Context, name string) error  { return f.stopErr }
func (f *fakeRuntime) Ping(ctx context.Context) error               { return f.pingErr }

func newTestApp(rt *fakeRuntime) *fiber.App {
	log := logrus.New()
	log.SetOutput(io.Discard)

	app := fiber.New()
	handler := NewServiceHandler(rt, registry.New("host", log), actions.New(rt, nil, log), log)
	handler.Register(app)
	return app
}

func decodeError(t *testing.T, body io.Reader) string {
	t.Helper()
	var payload struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&payload))
	return payload.Error
}

func TestListServices(t *testing.T) {
	rt := &fakeRuntime{containers: []domain.RawContainer{
		{
			Name:  "web",
			Image: "nginx:latest",
			State: "running",
			Ports: []domain.PortBinding{{ContainerPort: 80, Protocol: "tcp", HostPort: 8080}},
		},
		{Name: "job", Image: "acme/job:1", State: "restarting"},
	}}
	app := newTestApp(rt)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/services", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var services []domain.Service
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&services))
	require.Len(t, services, 2)
	assert.Equal(t, domain.Service{Name: "job", Status: domain.StatusUnknown, Type: "job", URLs: []string{}}, services[0])
	assert.Equal(t, domain.Service{Name: "web", Status: domain.StatusRunning, Type: "nginx", URLs: []string{"http://host:8080"}}, services[1])
}

func TestListServicesRuntimeUnavailable(t *testing.T) {
	rt := &fakeRuntime{listErr: domain.ErrRuntimeUnavailable}
	app := newTestApp(rt)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/services", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.NotEmpty(t, decodeError(t, resp.Body))
}

func TestStartUnknownService(t *testing.T) {
	rt := &fakeRuntime{startErr: domain.ErrNotFound}
	app := newTestApp(rt)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/services/ghost/start", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestStopService(t *testing.T) {
	app := newTestApp(&fakeRuntime{})

	resp, err := app.Test(httptest.NewRequest("POST", "/api/services/web/exit", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCreateThenListShowsService(t *testing.T) {
	rt := &fakeRuntime{}
	app := newTestApp(rt)

	body := `{"name":"web","image":"nginx:latest","ports":{"80/tcp":8080}}`
	req := httptest.NewRequest("POST", "/api/services/add", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/services", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var services []domain.Service
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&services))
	require.Len(t, services, 1)
	assert.Equal(t, "web", services[0].Name)
	assert.Equal(t, domain.StatusRunning, services[0].Status)
	assert.Equal(t, []string{"http://host:8080"}, services[0].URLs)
}

func TestCreateMalformedBody(t *testing.T) {
	app := newTestApp(&fakeRuntime{})

	req := httptest.NewRequest("POST", "/api/services/add", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCreateValidationFailure(t *testing.T) {
	app := newTestApp(&fakeRuntime{})

	req := httptest.NewRequest("POST", "/api/services/add", strings.NewReader(`{"image":"nginx"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeError(t, resp.Body), "name")
}

func TestCreateNameConflict(t *testing.T) {
	rt := &fakeRuntime{containers: []domain.RawContainer{{Name: "web", State: "running"}}}
	app := newTestApp(rt)

	req := httptest.NewRequest("POST", "/api/services/add", strings.NewReader(`{"name":"web","image":"nginx"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	app := newTestApp(&fakeRuntime{})

	resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHealthRuntimeDown(t *testing.T) {
	app := newTestApp(&fakeRuntime{pingErr: domain.ErrRuntimeUnavailable})

	resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
