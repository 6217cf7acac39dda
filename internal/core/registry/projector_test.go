package registry

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdevran/porthole/internal/core/domain"
)

func testProjector() *Projector {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New("192.168.1.10", log)
}

func TestProjectStatusNormalization(t *testing.T) {
	tests := []struct {
		state string
		want  domain.Status
	}{
		{"running", domain.StatusRunning},
		{"exited", domain.StatusExited},
		{"paused", domain.StatusPaused},
		{"restarting", domain.StatusUnknown},
		{"dead", domain.StatusUnknown},
		{"created", domain.StatusUnknown},
		{"", domain.StatusUnknown},
		{"some-future-state", domain.StatusUnknown},
	}
	p := testProjector()
	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			services := p.Project([]domain.RawContainer{{Name: "svc", State: tt.state}})
			require.Len(t, services, 1)
			assert.Equal(t, tt.want, services[0].Status)
		})
	}
}

func TestProjectURLs(t *testing.T) {
	p := testProjector()
	services := p.Project([]domain.RawContainer{{
		Name:  "web",
		State: "running",
		Image: "nginx:latest",
		Ports: []domain.PortBinding{
			{ContainerPort: 443, Protocol: "tcp", HostPort: 8443},
			{ContainerPort: 80, Protocol: "tcp", HostPort: 8080},
		},
	}})
	require.Len(t, services, 1)
	assert.Equal(t, []string{"http://192.168.1.10:8080", "http://192.168.1.10:8443"}, services[0].URLs)
}

func TestProjectNoPublishedPorts(t *testing.T) {
	services := testProjector().Project([]domain.RawContainer{{Name: "job", State: "exited"}})
	require.Len(t, services, 1)
	assert.NotNil(t, services[0].URLs)
	assert.Empty(t, services[0].URLs)
}

func TestProjectDeduplicatesHostPorts(t *testing.T) {
	services := testProjector().Project([]domain.RawContainer{{
		Name:  "dns",
		State: "running",
		Ports: []domain.PortBinding{
			{ContainerPort: 53, Protocol: "tcp", HostPort: 53},
			{ContainerPort: 53, Protocol: "udp", HostPort: 53},
		},
	}})
	require.Len(t, services, 1)
	assert.Equal(t, []string{"http://192.168.1.10:53"}, services[0].URLs)
}

func TestProjectDuplicateNamesKeepsNewest(t *testing.T) {
	services := testProjector().Project([]domain.RawContainer{
		{ID: "old", Name: "web", State: "exited", Created: 100},
		{ID: "new", Name: "web", State: "running", Created: 200},
		{Name: "db", State: "running", Created: 150},
	})
	require.Len(t, services, 2)
	assert.Equal(t, "db", services[0].Name)
	assert.Equal(t, "web", services[1].Name)
	assert.Equal(t, domain.StatusRunning, services[1].Status, "most recently created container wins")
}

func TestProjectServiceType(t *testing.T) {
	tests := []struct {
		name   string
		image  string
		labels map[string]string
		want   string
	}{
		{name: "plain", image: "nginx:latest", want: "nginx"},
		{name: "registry path", image: "ghcr.io/acme/widget:1.2", want: "widget"},
		{name: "digest", image: "redis@sha256:abc123", want: "redis"},
		{name: "label override", image: "nginx:latest", labels: map[string]string{domain.TypeLabel: "media"}, want: "media"},
	}
	p := testProjector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			services := p.Project([]domain.RawContainer{{Name: "svc", Image: tt.image, Labels: tt.labels}})
			require.Len(t, services, 1)
			assert.Equal(t, tt.want, services[0].Type)
		})
	}
}

func TestProjectEmptyListing(t *testing.T) {
	assert.Empty(t, testProjector().Project(nil))
}
