package config

import (
	"net"
	"os"

	"github.com/spf13/viper"
)

func initDefaults(v *viper.Viper) {
	v.SetDefault("http.port", "5000")
	v.SetDefault("http.host_address", hostAddress())
	v.SetDefault("http.static_dir", "")

	v.SetDefault("docker.host", "") // empty means DOCKER_HOST / default socket
	v.SetDefault("docker.request_timeout", "10s")
	v.SetDefault("docker.stop_timeout", "10s")
	v.SetDefault("docker.pull_timeout", "2m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// hostAddress discovers the address services are reachable on, for building
// the URLs shown on the dashboard. Falls back to the bare hostname.
func hostAddress() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "localhost"
	}

	addrs, err := net.LookupIP(hostname)
	if err != nil {
		return hostname
	}
	for _, addr := range addrs {
		if ipv4 := addr.To4(); ipv4 != nil && !ipv4.IsLoopback() {
			return ipv4.String()
		}
	}
	return hostname
}
