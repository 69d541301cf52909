package server

import "strings"

// Config holds configuration for the management HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8091"`
	// Host is the address the server binds to. Loopback by default since
	// the management surface is normally fronted by the BMC's web server.
	Host string `mapstructure:"host" default:"127.0.0.1"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
}

// Address returns the listen address in host:port form.
func (c Config) Address() string {
	return c.Host + ":" + strings.TrimPrefix(c.Port, ":")
}

// AuthEnabled reports whether requests must carry the API key.
func (c Config) AuthEnabled() bool {
	return c.ApiKey != ""
}
