// Package config stores the devices bacli knows about.
//
// The configuration file is a small YAML document listing device addresses
// and optional aliases:
//
//	version: 1
//	devices:
//	  - base: 192.168.1.42
//	    alias: garage
//	  - base: 192.168.1.57
//
// Any command that takes a device accepts either form, so
// 'bacli info garage' and 'bacli info 192.168.1.42' are the same call.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/bacli/config.yaml or $HOME/.config/bacli/config.yaml
//   - macOS: $HOME/.config/bacli/config.yaml
//   - Windows: %LOCALAPPDATA%\bacli\config.yaml
//
// The global --config flag overrides the location.
//
// # Usage Example
//
//	path, _ := config.DefaultPath()
//	store, err := config.Load(path)
//	if err != nil {
//	    return err
//	}
//
//	alias := "garage"
//	store.Upsert("192.168.1.42", &alias)
//	if err := store.Save(); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// Store methods are safe for concurrent use within one process. Save writes
// a temporary file and renames it over the old one, so a crash never leaves
// a truncated file behind. Concurrent bacli processes are not coordinated.
package config
