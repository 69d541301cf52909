// Package config provides configuration management for the isolation daemon.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file. Defaults come from the `default` struct tags of each
// section.
//
// # Configuration Structure
//
// The Config struct is divided into subsections:
//   - Server: management HTTP listener and API key
//   - Log: logging level and format
//   - Storage: entry and manager state directories
//   - Bus: system bus address and call timeout
//   - Guard: guard partition file and its lock
//   - Locator: inventory map file
//   - Isolation: reconciliation debounce and entry object root
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Guard.File)
package config
