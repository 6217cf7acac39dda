package domain

// RestartPolicy mirrors the runtime's container restart policies.
type RestartPolicy string

const (
	RestartPolicyNo            RestartPolicy = "no"
	RestartPolicyAlways        RestartPolicy = "always"
	RestartPolicyOnFailure     RestartPolicy = "on-failure"
	RestartPolicyUnlessStopped RestartPolicy = "unless-stopped"

	// DefaultRestartPolicy applies when a create request leaves the field empty.
	DefaultRestartPolicy = RestartPolicyUnlessStopped
)

// Valid reports whether the policy is one of the runtime's accepted values.
func (p RestartPolicy) Valid() bool {
	switch p {
	case RestartPolicyNo, RestartPolicyAlways, RestartPolicyOnFailure, RestartPolicyUnlessStopped:
		return true
	}
	return false
}

// CreateRequest describes a service to create. Ports maps
// "<containerPort>/<protocol>" keys to host ports, the structured form of the
// dashboard's one-mapping-per-line text input. When RepoURL is set the image
// is built from that repository before the container is created; Image then
// names the built image and defaults to "<name>:latest".
type CreateRequest struct {
	Name          string            `json:"name"`
	Image         string            `json:"image"`
	RepoURL       string            `json:"repo_url,omitempty"`
	Ports         map[string]int    `json:"ports,omitempty"`
	Environment   map[string]string `json:"environment,omitempty"`
	Command       []string          `json:"command,omitempty"`
	RestartPolicy RestartPolicy     `json:"restart_policy,omitempty"`
}
