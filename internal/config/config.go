package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the resolved control-plane configuration. Values come from
// defaults, an optional porthole.yaml, and PORTHOLE_* environment variables
// (dots become underscores, e.g. PORTHOLE_HTTP_PORT).
type Config struct {
	ListenAddr  string
	HostAddress string
	StaticDir   string

	DockerHost     string
	RequestTimeout time.Duration
	StopTimeout    time.Duration
	PullTimeout    time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads configuration from all sources.
func Load() (*Config, error) {
	v := viper.New()
	initDefaults(v)

	v.SetEnvPrefix("porthole")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("porthole")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/porthole")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	return &Config{
		ListenAddr:     ":" + v.GetString("http.port"),
		HostAddress:    v.GetString("http.host_address"),
		StaticDir:      v.GetString("http.static_dir"),
		DockerHost:     v.GetString("docker.host"),
		RequestTimeout: v.GetDuration("docker.request_timeout"),
		StopTimeout:    v.GetDuration("docker.stop_timeout"),
		PullTimeout:    v.GetDuration("docker.pull_timeout"),
		LogLevel:       v.GetString("log.level"),
		LogFormat:      v.GetString("log.format"),
	}, nil
}
