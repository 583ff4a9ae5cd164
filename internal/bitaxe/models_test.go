package bitaxe

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestIntBool_RoundTrip(t *testing.T) {
	tests := []struct {
		wire string
		want IntBool
	}{
		{"1", true},
		{"0", false},
	}

	for _, tt := range tests {
		t.Run(tt.wire, func(t *testing.T) {
			var got IntBool
			if err := json.Unmarshal([]byte(tt.wire), &got); err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", tt.wire, err)
			}
			if got != tt.want {
				t.Errorf("Unmarshal(%s) = %v, want %v", tt.wire, got, tt.want)
			}

			out, err := json.Marshal(got)
			if err != nil {
				t.Fatalf("Marshal(%v) error = %v", got, err)
			}
			if string(out) != tt.wire {
				t.Errorf("Marshal(%v) = %s, want %s", got, out, tt.wire)
			}
		})
	}
}

func TestIntBool_Invalid(t *testing.T) {
	var b IntBool
	if err := json.Unmarshal([]byte("2"), &b); err == nil {
		t.Error("Unmarshal(2) should fail")
	}
}

func TestSettings_BoolsParse(t *testing.T) {
	input := `{"autofanspeed":1,"flipscreen":0,"invertfanpolarity":1,"invertscreen":1,"overheat_mode":0}`

	var s Settings
	if err := json.Unmarshal([]byte(input), &s); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	checks := []struct {
		name string
		got  *bool
		want bool
	}{
		{"autofanspeed", s.AutoFanSpeed, true},
		{"flipscreen", s.FlipScreen, false},
		{"invertfanpolarity", s.InvertFanPolarity, true},
		{"invertscreen", s.InvertScreen, true},
		{"overheat_mode", s.OverheatMode, false},
	}
	for _, c := range checks {
		if c.got == nil {
			t.Errorf("%s should be set", c.name)
			continue
		}
		if *c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, *c.got, c.want)
		}
	}

	if s.Hostname != nil || s.Frequency != nil {
		t.Error("absent keys should decode to nil")
	}
}

func TestSettings_BoolsOutput(t *testing.T) {
	yes, no := true, false
	s := Settings{
		AutoFanSpeed:      &yes,
		FlipScreen:        &no,
		InvertFanPolarity: &yes,
		InvertScreen:      &yes,
		OverheatMode:      &no,
	}

	out, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got map[string]int
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("output is not an int map: %v (%s)", err, out)
	}

	want := map[string]int{"autofanspeed": 1, "flipscreen": 0, "invertfanpolarity": 1, "invertscreen": 1, "overheat_mode": 0}
	for key, value := range want {
		if v, ok := got[key]; !ok || v != value {
			t.Errorf("%s = %d (present %v), want %d", key, v, ok, value)
		}
	}
}

func TestSettings_UnsetFieldsAbsent(t *testing.T) {
	host := "axe-garage"
	fan := uint8(80)

	tests := []struct {
		name     string
		settings Settings
		wantKeys []string
	}{
		{"empty", Settings{}, nil},
		{"hostname only", Settings{Hostname: &host}, []string{"hostname"}},
		{"hostname and fan", Settings{Hostname: &host, FanSpeed: &fan}, []string{"hostname", "fanspeed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := json.Marshal(tt.settings)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}

			var got map[string]any
			if err := json.Unmarshal(out, &got); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}

			if len(got) != len(tt.wantKeys) {
				t.Errorf("got %d keys (%s), want %v", len(got), out, tt.wantKeys)
			}
			for _, key := range tt.wantKeys {
				if _, ok := got[key]; !ok {
					t.Errorf("key %s missing from %s", key, out)
				}
			}
			if strings.Contains(string(out), "null") {
				t.Errorf("output should never contain null: %s", out)
			}
		})
	}
}

func TestSettings_WireKeys(t *testing.T) {
	s := "x"
	port := uint16(1)
	b := true
	fan := uint8(1)
	v := Voltage1200
	f := Frequency600

	all := Settings{
		Hostname: &s, SSID: &s, WifiPass: &s,
		StratumURL: &s, StratumPort: &port, StratumUser: &s, StratumPassword: &s,
		FallbackStratumURL: &s, FallbackStratumPort: &port, FallbackStratumUser: &s, FallbackStratumPassword: &s,
		FanSpeed: &fan, AutoFanSpeed: &b, CoreVoltage: &v, Frequency: &f,
		FlipScreen: &b, InvertFanPolarity: &b, InvertScreen: &b, OverheatMode: &b,
	}

	payload := all.Payload()
	keys := []string{
		"hostname", "ssid", "wifiPass",
		"stratumURL", "stratumPort", "stratumUser", "stratumPassword",
		"fallbackStratumURL", "fallbackStratumPort", "fallbackStratumUser", "fallbackStratumPassword",
		"fanspeed", "autofanspeed", "coreVoltage", "frequency",
		"flipscreen", "invertfanpolarity", "invertscreen", "overheat_mode",
	}

	if len(payload) != len(keys) {
		t.Errorf("payload has %d keys, want %d", len(payload), len(keys))
	}
	for _, key := range keys {
		if _, ok := payload[key]; !ok {
			t.Errorf("payload missing key %s", key)
		}
	}
}

func TestFrequency_Codec(t *testing.T) {
	var s Settings
	if err := json.Unmarshal([]byte(`{"frequency":400}`), &s); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if s.Frequency == nil || *s.Frequency != Frequency400 {
		t.Errorf("Frequency = %v, want 400", s.Frequency)
	}

	f := Frequency600
	out, _ := json.Marshal(Settings{Frequency: &f})
	if string(out) != `{"frequency":600}` {
		t.Errorf("Marshal() = %s, want {\"frequency\":600}", out)
	}

	if err := json.Unmarshal([]byte(`{"frequency":123}`), &s); err == nil {
		t.Error("unsupported frequency should fail to decode")
	}
}

func TestVoltage_Codec(t *testing.T) {
	var s Settings
	if err := json.Unmarshal([]byte(`{"coreVoltage":1250}`), &s); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if s.CoreVoltage == nil || *s.CoreVoltage != Voltage1250 {
		t.Errorf("CoreVoltage = %v, want 1250", s.CoreVoltage)
	}

	v := Voltage1100
	out, _ := json.Marshal(Settings{CoreVoltage: &v})
	if string(out) != `{"coreVoltage":1100}` {
		t.Errorf("Marshal() = %s, want {\"coreVoltage\":1100}", out)
	}
}

func TestFlexString(t *testing.T) {
	tests := []struct {
		input   string
		want    FlexString
		wantInt int64
		isInt   bool
	}{
		{`"hello"`, "hello", 0, false},
		{`42`, "42", 42, true},
		{`"789"`, "789", 789, true},
		{`null`, "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var got FlexString
			if err := json.Unmarshal([]byte(tt.input), &got); err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Unmarshal(%s) = %q, want %q", tt.input, got, tt.want)
			}
			n, ok := got.Int64()
			if ok != tt.isInt || n != tt.wantInt {
				t.Errorf("Int64() = %d, %v, want %d, %v", n, ok, tt.wantInt, tt.isInt)
			}
		})
	}
}
