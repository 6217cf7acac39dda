package domain

import (
	"strconv"
	"strings"
)

// Accepted port protocols, matching what the runtime can publish.
var protocols = map[string]bool{"tcp": true, "udp": true, "sctp": true}

// ParsePortSpec parses a "<containerPort>/<protocol>" key as used in
// CreateRequest.Ports. A bare port defaults to tcp.
func ParsePortSpec(spec string) (port int, proto string, err error) {
	proto = "tcp"
	portPart := spec
	if i := strings.IndexByte(spec, '/'); i >= 0 {
		portPart, proto = spec[:i], spec[i+1:]
	}
	if !protocols[proto] {
		return 0, "", InvalidSpec("ports", "unknown protocol %q in %q", proto, spec)
	}
	port, err = parsePortNumber(portPart)
	if err != nil {
		return 0, "", InvalidSpec("ports", "bad container port in %q: %v", spec, err)
	}
	return port, proto, nil
}

// ParsePortLine parses one "hostPort:containerPort[/protocol]" mapping, the
// line format of the dashboard's creation form, into the structured form:
// the "<containerPort>/<protocol>" key and the host port value.
func ParsePortLine(line string) (spec string, hostPort int, err error) {
	host, rest, ok := strings.Cut(strings.TrimSpace(line), ":")
	if !ok {
		return "", 0, InvalidSpec("ports", "%q is not hostPort:containerPort[/protocol]", line)
	}
	hostPort, err = parsePortNumber(host)
	if err != nil {
		return "", 0, InvalidSpec("ports", "bad host port in %q: %v", line, err)
	}
	containerPort, proto, err := ParsePortSpec(rest)
	if err != nil {
		return "", 0, err
	}
	return strconv.Itoa(containerPort) + "/" + proto, hostPort, nil
}

// ParsePortText parses newline-separated port mappings. Blank lines are
// skipped; malformed lines are an error, not silently dropped.
func ParsePortText(text string) (map[string]int, error) {
	ports := make(map[string]int)
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		spec, hostPort, err := ParsePortLine(line)
		if err != nil {
			return nil, err
		}
		ports[spec] = hostPort
	}
	return ports, nil
}

// ValidatePorts checks the structured port mapping of a create request.
func ValidatePorts(ports map[string]int) error {
	for spec, hostPort := range ports {
		if _, _, err := ParsePortSpec(spec); err != nil {
			return err
		}
		if hostPort < 1 || hostPort > 65535 {
			return InvalidSpec("ports", "host port %d for %q out of range 1-65535", hostPort, spec)
		}
	}
	return nil
}

// ParseEnvText parses newline-separated KEY=value pairs. Values may contain
// '='; lines without a key are ignored.
func ParseEnvText(text string) map[string]string {
	env := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

// ValidateEnvironment checks the structured environment of a create request.
func ValidateEnvironment(env map[string]string) error {
	for key := range env {
		if strings.TrimSpace(key) == "" {
			return InvalidSpec("environment", "variable name must not be empty")
		}
		if strings.ContainsRune(key, '=') {
			return InvalidSpec("environment", "variable name %q must not contain '='", key)
		}
	}
	return nil
}

func parsePortNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < 1 || n > 65535 {
		return 0, &InvalidSpecError{Reason: "port out of range 1-65535"}
	}
	return n, nil
}
