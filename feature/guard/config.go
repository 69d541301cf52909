package guard

// Config holds the location of the guard partition file.
type Config struct {
	// File is the guard partition shared with the host.
	File string `mapstructure:"file" default:"/var/lib/phosphor-software-manager/hostfw/running/GUARD"`
	// LockFile is the advisory lock serialising access. Defaults to File + ".lock".
	LockFile string `mapstructure:"lock_file" default:""`
}

// LockPath returns the effective lock file path.
func (c Config) LockPath() string {
	if c.LockFile != "" {
		return c.LockFile
	}
	return c.File + ".lock"
}
