package bitaxe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// IntBool is a boolean that AxeOS transmits as the integer 0 or 1.
type IntBool bool

// MarshalJSON encodes true as 1 and false as 0.
func (b IntBool) MarshalJSON() ([]byte, error) {
	if b {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

// UnmarshalJSON accepts 0/1 and, for older firmware, true/false.
func (b *IntBool) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "1", "true":
		*b = true
	case "0", "false", "null":
		*b = false
	default:
		return fmt.Errorf("invalid integer boolean %s", data)
	}
	return nil
}

// FlexString holds a value some firmware versions send as a string and
// others as a number (bestDiff, bestSessionDiff).
type FlexString string

// UnmarshalJSON accepts a JSON string or number.
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	if string(data) == "null" {
		*s = ""
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = FlexString(num.String())
	return nil
}

// Int64 parses the value as an integer, reporting false when it is not one.
func (s FlexString) Int64() (int64, bool) {
	n, err := strconv.ParseInt(string(s), 10, 64)
	return n, err == nil
}

// SystemInfo is the device state returned by GET /api/system/info.
// A fresh value is decoded on every query; nothing caches it.
type SystemInfo struct {
	ASICModel      string `json:"ASICModel"`
	ASICCount      int64  `json:"asicCount"`
	SmallCoreCount int64  `json:"smallCoreCount"`
	BoardVersion   string `json:"boardVersion"`

	// Firmware
	Version          string `json:"version"`
	RunningPartition string `json:"runningPartition"`

	// Mining
	HashRate        float64    `json:"hashRate"`
	BestDiff        FlexString `json:"bestDiff"`
	BestSessionDiff FlexString `json:"bestSessionDiff"`
	SharesAccepted  int64      `json:"sharesAccepted"`
	SharesRejected  int64      `json:"sharesRejected"`
	Frequency       int64      `json:"frequency"`

	// Power and thermals
	Power              float64 `json:"power"`
	Voltage            float64 `json:"voltage"`
	Current            float64 `json:"current"`
	CoreVoltage        int64   `json:"coreVoltage"`
	CoreVoltageActual  int64   `json:"coreVoltageActual"`
	Temp               float64 `json:"temp"`
	VRTemp             int64   `json:"vrTemp"`
	OverheatMode       IntBool `json:"overheat_mode"`
	FanSpeed           int64   `json:"fanspeed"`
	FanRPM             int64   `json:"fanrpm"`
	AutoFanSpeed       IntBool `json:"autofanspeed"`
	InvertFanPolarity  IntBool `json:"invertfanpolarity"`
	FlipScreen         IntBool `json:"flipscreen"`
	InvertScreen       IntBool `json:"invertscreen"`
	FreeHeap           int64   `json:"freeHeap"`
	UptimeSeconds      uint64  `json:"uptimeSeconds"`
	UsingFallback      int64   `json:"isUsingFallbackStratum"`

	// Network
	Hostname   string `json:"hostname"`
	SSID       string `json:"ssid"`
	MACAddr    string `json:"macAddr"`
	WifiStatus string `json:"wifiStatus"`

	// Pools
	StratumURL          string `json:"stratumURL"`
	StratumPort         int64  `json:"stratumPort"`
	StratumUser         string `json:"stratumUser"`
	FallbackStratumURL  string `json:"fallbackStratumURL"`
	FallbackStratumPort int64  `json:"fallbackStratumPort"`
	FallbackStratumUser string `json:"fallbackStratumUser"`
}

// Frequency is an ASIC clock setting in MHz accepted by the firmware.
type Frequency uint16

const (
	Frequency400 Frequency = 400
	Frequency490 Frequency = 490
	Frequency525 Frequency = 525
	Frequency550 Frequency = 550
	Frequency575 Frequency = 575
	Frequency600 Frequency = 600
)

// Frequencies lists every accepted frequency in ascending order.
var Frequencies = []Frequency{Frequency400, Frequency490, Frequency525, Frequency550, Frequency575, Frequency600}

// Voltage is an ASIC core voltage setting in millivolts accepted by the firmware.
type Voltage uint16

const (
	Voltage1000 Voltage = 1000
	Voltage1060 Voltage = 1060
	Voltage1100 Voltage = 1100
	Voltage1150 Voltage = 1150
	Voltage1200 Voltage = 1200
	Voltage1250 Voltage = 1250
)

// Voltages lists every accepted core voltage in ascending order.
var Voltages = []Voltage{Voltage1000, Voltage1060, Voltage1100, Voltage1150, Voltage1200, Voltage1250}

// UnmarshalJSON rejects values the firmware does not accept.
func (f *Frequency) UnmarshalJSON(data []byte) error {
	var n uint16
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid frequency %s: %w", data, err)
	}
	if err := ValidateFrequency(int(n)); err != nil {
		return err
	}
	*f = Frequency(n)
	return nil
}

// UnmarshalJSON rejects values the firmware does not accept.
func (v *Voltage) UnmarshalJSON(data []byte) error {
	var n uint16
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid core voltage %s: %w", data, err)
	}
	if err := ValidateVoltage(int(n)); err != nil {
		return err
	}
	*v = Voltage(n)
	return nil
}

// Settings is a sparse settings patch for PATCH /api/system.
// Nil fields are left untouched on the device and never appear on the wire.
type Settings struct {
	Hostname *string
	SSID     *string
	WifiPass *string

	StratumURL      *string
	StratumPort     *uint16
	StratumUser     *string
	StratumPassword *string

	FallbackStratumURL      *string
	FallbackStratumPort     *uint16
	FallbackStratumUser     *string
	FallbackStratumPassword *string

	FanSpeed          *uint8
	AutoFanSpeed      *bool
	CoreVoltage       *Voltage
	Frequency         *Frequency
	FlipScreen        *bool
	InvertFanPolarity *bool
	InvertScreen      *bool

	// OverheatMode is normally only cleared, after the device enabled it
	// itself on an overheat.
	OverheatMode *bool
}

// Payload returns the wire representation of the patch: one key per field
// that is set. Booleans are encoded as 0/1.
func (s *Settings) Payload() map[string]any {
	p := make(map[string]any)

	putString := func(key string, v *string) {
		if v != nil {
			p[key] = *v
		}
	}
	putPort := func(key string, v *uint16) {
		if v != nil {
			p[key] = *v
		}
	}
	putBool := func(key string, v *bool) {
		if v != nil {
			p[key] = IntBool(*v)
		}
	}

	putString("hostname", s.Hostname)
	putString("ssid", s.SSID)
	putString("wifiPass", s.WifiPass)

	putString("stratumURL", s.StratumURL)
	putPort("stratumPort", s.StratumPort)
	putString("stratumUser", s.StratumUser)
	putString("stratumPassword", s.StratumPassword)

	putString("fallbackStratumURL", s.FallbackStratumURL)
	putPort("fallbackStratumPort", s.FallbackStratumPort)
	putString("fallbackStratumUser", s.FallbackStratumUser)
	putString("fallbackStratumPassword", s.FallbackStratumPassword)

	if s.FanSpeed != nil {
		p["fanspeed"] = *s.FanSpeed
	}
	putBool("autofanspeed", s.AutoFanSpeed)
	if s.CoreVoltage != nil {
		p["coreVoltage"] = uint16(*s.CoreVoltage)
	}
	if s.Frequency != nil {
		p["frequency"] = uint16(*s.Frequency)
	}
	putBool("flipscreen", s.FlipScreen)
	putBool("invertfanpolarity", s.InvertFanPolarity)
	putBool("invertscreen", s.InvertScreen)
	putBool("overheat_mode", s.OverheatMode)

	return p
}

// IsEmpty reports whether no field is set.
func (s *Settings) IsEmpty() bool {
	return len(s.Payload()) == 0
}

// MarshalJSON encodes only the fields that are set.
func (s Settings) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Payload())
}

// settingsWire mirrors the wire keys for decoding.
type settingsWire struct {
	Hostname *string `json:"hostname"`
	SSID     *string `json:"ssid"`
	WifiPass *string `json:"wifiPass"`

	StratumURL      *string `json:"stratumURL"`
	StratumPort     *uint16 `json:"stratumPort"`
	StratumUser     *string `json:"stratumUser"`
	StratumPassword *string `json:"stratumPassword"`

	FallbackStratumURL      *string `json:"fallbackStratumURL"`
	FallbackStratumPort     *uint16 `json:"fallbackStratumPort"`
	FallbackStratumUser     *string `json:"fallbackStratumUser"`
	FallbackStratumPassword *string `json:"fallbackStratumPassword"`

	FanSpeed          *uint8     `json:"fanspeed"`
	AutoFanSpeed      *IntBool   `json:"autofanspeed"`
	CoreVoltage       *Voltage   `json:"coreVoltage"`
	Frequency         *Frequency `json:"frequency"`
	FlipScreen        *IntBool   `json:"flipscreen"`
	InvertFanPolarity *IntBool   `json:"invertfanpolarity"`
	InvertScreen      *IntBool   `json:"invertscreen"`
	OverheatMode      *IntBool   `json:"overheat_mode"`
}

// UnmarshalJSON decodes a sparse patch, leaving absent keys nil.
func (s *Settings) UnmarshalJSON(data []byte) error {
	var w settingsWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*s = Settings{
		Hostname:                w.Hostname,
		SSID:                    w.SSID,
		WifiPass:                w.WifiPass,
		StratumURL:              w.StratumURL,
		StratumPort:             w.StratumPort,
		StratumUser:             w.StratumUser,
		StratumPassword:         w.StratumPassword,
		FallbackStratumURL:      w.FallbackStratumURL,
		FallbackStratumPort:     w.FallbackStratumPort,
		FallbackStratumUser:     w.FallbackStratumUser,
		FallbackStratumPassword: w.FallbackStratumPassword,
		FanSpeed:                w.FanSpeed,
		AutoFanSpeed:            boolPtr(w.AutoFanSpeed),
		CoreVoltage:             w.CoreVoltage,
		Frequency:               w.Frequency,
		FlipScreen:              boolPtr(w.FlipScreen),
		InvertFanPolarity:       boolPtr(w.InvertFanPolarity),
		InvertScreen:            boolPtr(w.InvertScreen),
		OverheatMode:            boolPtr(w.OverheatMode),
	}
	return nil
}

func boolPtr(b *IntBool) *bool {
	if b == nil {
		return nil
	}
	v := bool(*b)
	return &v
}
