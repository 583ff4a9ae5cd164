package bitaxe

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Uptime returns the reported uptime as a duration.
func (si *SystemInfo) Uptime() time.Duration {
	return time.Duration(si.UptimeSeconds) * time.Second
}

// Summary returns a one-line summary of the device
func (si *SystemInfo) Summary() string {
	return fmt.Sprintf("%s %s @ %.0f GH/s (FW: %s)", si.ASICModel, si.BoardVersion, si.HashRate, si.Version)
}

// FormatDetailed returns the multi-section report shown by 'bacli info'.
func (si *SystemInfo) FormatDetailed(address string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Address:   %s\n", address))
	b.WriteString(fmt.Sprintf("Hostname:  %s\n", si.Hostname))
	b.WriteString(fmt.Sprintf("Board:     %s (%s x%d)\n", si.BoardVersion, si.ASICModel, si.ASICCount))
	b.WriteString(fmt.Sprintf("ESP Miner: %s\n", si.Version))
	b.WriteString(fmt.Sprintf("Uptime:    %s\n", si.Uptime()))
	b.WriteString("\n")

	writeSection(&b, "Mining")
	b.WriteString(fmt.Sprintf("Hash Rate: %.0f GH/s\n", math.Round(si.HashRate)))
	b.WriteString(fmt.Sprintf("Shares:    %d accepted, %d rejected\n", si.SharesAccepted, si.SharesRejected))
	b.WriteString(fmt.Sprintf("Best Diff: %s (session %s)\n", si.BestDiff.Difficulty(), si.BestSessionDiff.Difficulty()))
	b.WriteString("\n")

	writeSection(&b, "Power")
	b.WriteString(fmt.Sprintf("Power:     %.1f W\n", si.Power))
	b.WriteString(fmt.Sprintf("ASIC Temp: %.1f °C (VR %d °C)\n", si.Temp, si.VRTemp))
	b.WriteString(fmt.Sprintf("Fan:       %d%% (%d RPM, auto %s)\n", si.FanSpeed, si.FanRPM, onOff(bool(si.AutoFanSpeed))))
	if si.OverheatMode {
		b.WriteString("Overheat:  ACTIVE\n")
	}
	b.WriteString("\n")

	writeSection(&b, "Wifi")
	b.WriteString(fmt.Sprintf("SSID:   %s\n", si.SSID))
	b.WriteString(fmt.Sprintf("Status: %s\n", si.WifiStatus))
	b.WriteString("\n")

	writeSection(&b, "Main Pool")
	b.WriteString(fmt.Sprintf("URL:  %s:%d\n", si.StratumURL, si.StratumPort))
	b.WriteString(fmt.Sprintf("User: %s\n", si.StratumUser))
	b.WriteString("\n")

	writeSection(&b, "Fallback Pool")
	b.WriteString(fmt.Sprintf("URL:  %s:%d\n", si.FallbackStratumURL, si.FallbackStratumPort))
	b.WriteString(fmt.Sprintf("User: %s\n", si.FallbackStratumUser))
	if si.UsingFallback != 0 {
		b.WriteString("(currently mining on the fallback pool)\n")
	}

	return b.String()
}

var difficultySuffixes = []string{"", "K", "M", "G", "T", "P", "E"}

// Difficulty formats the value for display. Older firmware reports raw
// integers, which are scaled to the "4.29G" form newer firmware sends.
// Anything that is not an integer is returned as is.
func (s FlexString) Difficulty() string {
	n, ok := s.Int64()
	if !ok {
		return string(s)
	}
	if n < 1000 {
		return strconv.FormatInt(n, 10)
	}

	v := float64(n)
	i := 0
	for v >= 1000 && i < len(difficultySuffixes)-1 {
		v /= 1000
		i++
	}
	return strconv.FormatFloat(v, 'f', 2, 64) + difficultySuffixes[i]
}

func writeSection(b *strings.Builder, title string) {
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", len(title)))
	b.WriteString("\n")
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
