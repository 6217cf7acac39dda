package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mdevran/porthole/internal/core/domain"
)

// Projector turns raw runtime records into the dashboard's Service view.
// Projection is pure: it holds no state between calls, so every listing
// reflects the runtime at call time.
type Projector struct {
	hostAddress string
	log         logrus.FieldLogger
}

// New returns a projector that derives service URLs from hostAddress.
func New(hostAddress string, log logrus.FieldLogger) *Projector {
	return &Projector{hostAddress: hostAddress, log: log}
}

// Project converts raw containers into services. It never fails: unknown
// runtime states normalize to StatusUnknown, and duplicate names collapse to
// the most recently created container so a degraded runtime cannot blank the
// dashboard.
func (p *Projector) Project(raw []domain.RawContainer) []domain.Service {
	byName := make(map[string]domain.RawContainer, len(raw))
	for _, rc := range raw {
		prev, ok := byName[rc.Name]
		if !ok {
			byName[rc.Name] = rc
			continue
		}
		p.log.WithFields(logrus.Fields{
			"name": rc.Name,
			"kept": newerOf(prev, rc).ID,
		}).Warn("runtime reported duplicate container name")
		byName[rc.Name] = newerOf(prev, rc)
	}

	services := make([]domain.Service, 0, len(byName))
	for _, rc := range byName {
		services = append(services, domain.Service{
			Name:   rc.Name,
			Status: normalizeState(rc.State),
			Type:   serviceType(rc),
			URLs:   p.urls(rc.Ports),
		})
	}
	sort.Slice(services, func(i, j int) bool { return services[i].Name < services[j].Name })
	return services
}

func newerOf(a, b domain.RawContainer) domain.RawContainer {
	if b.Created > a.Created {
		return b
	}
	return a
}

func normalizeState(state string) domain.Status {
	switch domain.Status(state) {
	case domain.StatusRunning, domain.StatusExited, domain.StatusPaused:
		return domain.Status(state)
	}
	return domain.StatusUnknown
}

// serviceType prefers the porthole.type label, falling back to the image
// family: the repository basename without registry path, tag or digest.
func serviceType(rc domain.RawContainer) string {
	if t, ok := rc.Labels[domain.TypeLabel]; ok && t != "" {
		return t
	}
	return imageFamily(rc.Image)
}

func imageFamily(image string) string {
	if i := strings.IndexByte(image, '@'); i >= 0 {
		image = image[:i]
	}
	if i := strings.LastIndexByte(image, '/'); i >= 0 {
		image = image[i+1:]
	}
	if i := strings.IndexByte(image, ':'); i >= 0 {
		image = image[:i]
	}
	return image
}

// urls builds one address per published binding. The runtime does not
// preserve the order ports were declared in, so bindings are sorted by
// container port, protocol, then host port to keep the listing stable
// across polls.
func (p *Projector) urls(bindings []domain.PortBinding) []string {
	if len(bindings) == 0 {
		return []string{}
	}
	sorted := make([]domain.PortBinding, len(bindings))
	copy(sorted, bindings)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.ContainerPort != b.ContainerPort {
			return a.ContainerPort < b.ContainerPort
		}
		if a.Protocol != b.Protocol {
			return a.Protocol < b.Protocol
		}
		return a.HostPort < b.HostPort
	})

	urls := make([]string, 0, len(sorted))
	seen := make(map[int]bool, len(sorted))
	for _, b := range sorted {
		if b.HostPort == 0 || seen[b.HostPort] {
			continue
		}
		seen[b.HostPort] = true
		urls = append(urls, fmt.Sprintf("http://%s:%d", p.hostAddress, b.HostPort))
	}
	return urls
}
