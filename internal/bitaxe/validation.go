package bitaxe

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrEmptySettings is returned when a settings patch has no fields set.
var ErrEmptySettings = errors.New("no settings to update")

// ValidateFrequency checks that mhz is one of the frequencies the firmware accepts.
func ValidateFrequency(mhz int) error {
	for _, f := range Frequencies {
		if int(f) == mhz {
			return nil
		}
	}
	return fmt.Errorf("frequency must be one of %s, got %d", joinValues(Frequencies), mhz)
}

// ValidateVoltage checks that mv is one of the core voltages the firmware accepts.
func ValidateVoltage(mv int) error {
	for _, v := range Voltages {
		if int(v) == mv {
			return nil
		}
	}
	return fmt.Errorf("core voltage must be one of %s, got %d", joinValues(Voltages), mv)
}

// ValidateFanSpeed checks a fan speed percentage.
func ValidateFanSpeed(percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("fan speed must be 0-100, got %d", percent)
	}
	return nil
}

// ValidateStratumPort checks a pool port number.
func ValidateStratumPort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("stratum port must be 1-65535, got %d", port)
	}
	return nil
}

// ValidateSSID validates a WiFi SSID.
// SSIDs must be non-empty and <= 32 characters (802.11 limit).
func ValidateSSID(ssid string) error {
	if ssid == "" {
		return errors.New("WiFi SSID cannot be empty")
	}
	if len(ssid) > 32 {
		return fmt.Errorf("WiFi SSID too long (max 32 chars): %d chars", len(ssid))
	}
	return nil
}

// ValidateHostname checks a device hostname against RFC 1123 label rules.
// The device uses it as a single DNS label, so dots are rejected.
func ValidateHostname(hostname string) error {
	if hostname == "" {
		return errors.New("hostname cannot be empty")
	}
	if len(hostname) > 63 {
		return fmt.Errorf("hostname too long (max 63 chars): %d chars", len(hostname))
	}
	if strings.HasPrefix(hostname, "-") || strings.HasSuffix(hostname, "-") {
		return fmt.Errorf("hostname cannot start or end with a hyphen: %s", hostname)
	}
	for _, r := range hostname {
		if !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') && r != '-' {
			return fmt.Errorf("hostname contains invalid character %q", r)
		}
	}
	return nil
}

// Validate checks every field that is set. It returns all problems at once.
func (s *Settings) Validate() error {
	var errs []error

	if s.IsEmpty() {
		return ErrEmptySettings
	}
	if s.Hostname != nil {
		if err := ValidateHostname(*s.Hostname); err != nil {
			errs = append(errs, err)
		}
	}
	if s.SSID != nil {
		if err := ValidateSSID(*s.SSID); err != nil {
			errs = append(errs, err)
		}
	}
	if s.StratumPort != nil {
		if err := ValidateStratumPort(int(*s.StratumPort)); err != nil {
			errs = append(errs, err)
		}
	}
	if s.FallbackStratumPort != nil {
		if err := ValidateStratumPort(int(*s.FallbackStratumPort)); err != nil {
			errs = append(errs, fmt.Errorf("fallback: %w", err))
		}
	}
	if s.FanSpeed != nil {
		if err := ValidateFanSpeed(int(*s.FanSpeed)); err != nil {
			errs = append(errs, err)
		}
	}
	if s.CoreVoltage != nil {
		if err := ValidateVoltage(int(*s.CoreVoltage)); err != nil {
			errs = append(errs, err)
		}
	}
	if s.Frequency != nil {
		if err := ValidateFrequency(int(*s.Frequency)); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func joinValues[T ~uint16](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(int(v))
	}
	return strings.Join(parts, ", ")
}
