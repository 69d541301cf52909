package bus

// Config holds configuration for the system bus connection.
type Config struct {
	// Address is a D-Bus address. Empty means the system bus.
	Address string `mapstructure:"address" default:""`
	// TimeoutSeconds bounds every method call.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"10"`
}
