package config

// CurrentVersion is the config document version this build reads and writes.
const CurrentVersion = 1

// Device is one known device: its address and an optional alias.
type Device struct {
	Base  string `yaml:"base"`            // IP or hostname the device answers on
	Alias string `yaml:"alias,omitempty"` // User-chosen name, usable anywhere an address is
}

// MatchesIdent reports whether ident names this device, by address or alias.
func (d *Device) MatchesIdent(ident string) bool {
	return d.Base == ident || (d.Alias != "" && d.Alias == ident)
}

// document is the on-disk shape of config.yaml.
type document struct {
	Version int      `yaml:"version"`
	Devices []Device `yaml:"devices"`
}
