package domain

// Status is the normalized lifecycle state of a service as shown on the
// dashboard. Runtime states outside this set project to StatusUnknown.
type Status string

const (
	StatusRunning Status = "running"
	StatusExited  Status = "exited"
	StatusPaused  Status = "paused"
	StatusUnknown Status = "unknown"
)

// Service is the dashboard's view of one runtime container, keyed by the
// human-assigned name rather than the runtime's container ID.
type Service struct {
	Name   string   `json:"name"`
	Status Status   `json:"status"`
	Type   string   `json:"type"`
	URLs   []string `json:"urls"`
}

// PortBinding is one published container port and the host port it maps to.
type PortBinding struct {
	ContainerPort int
	Protocol      string
	HostPort      int
}

// RawContainer is a runtime record before projection. It carries only what
// the projector needs, so the core stays independent of the runtime SDK.
type RawContainer struct {
	ID      string
	Name    string
	Image   string
	State   string
	Created int64
	Ports   []PortBinding
	Labels  map[string]string
}

// TypeLabel, when set on a container, overrides the image-derived service type.
const TypeLabel = "porthole.type"
