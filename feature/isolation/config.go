package isolation

import "time"

// Config holds the isolation manager settings.
type Config struct {
	// Debounce is the delay between the first guard file change and the
	// reconciliation pass it triggers.
	Debounce time.Duration `mapstructure:"debounce" default:"5s"`
	// EntryObjectRoot is the parent object path of every entry.
	EntryObjectRoot string `mapstructure:"entry_object_root" default:"/xyz/openbmc_project/hardware_isolation/entry"`
}
