package storage

// Config holds configuration for the persisted-state directories.
type Config struct {
	// EntryDir holds one file per active isolation entry, named by record id.
	EntryDir string `mapstructure:"entry_dir" default:"/var/lib/op-hw-isolation/persistdata/record_entry"`
	// ManagerDir holds state owned by the record manager (the eco-core set).
	ManagerDir string `mapstructure:"manager_dir" default:"/var/lib/op-hw-isolation/persistdata/record_mgr"`
	// FileMode is the permission used for persisted files.
	FileMode uint32 `mapstructure:"file_mode" default:"420"`
}
