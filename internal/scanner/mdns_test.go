package scanner

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
)

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name string
		ipv4 []net.IP
		ipv6 []net.IP
		port int
		want string
	}{
		{"ipv4 default port", []net.IP{net.ParseIP("192.168.1.42")}, nil, 80, "192.168.1.42"},
		{"ipv4 no port", []net.IP{net.ParseIP("192.168.1.42")}, nil, 0, "192.168.1.42"},
		{"ipv4 custom port", []net.IP{net.ParseIP("192.168.1.42")}, nil, 8080, "192.168.1.42:8080"},
		{"prefers ipv4", []net.IP{net.ParseIP("10.0.0.2")}, []net.IP{net.ParseIP("fe80::1")}, 80, "10.0.0.2"},
		{"ipv6 only", nil, []net.IP{net.ParseIP("fe80::1")}, 80, "[fe80::1]"},
		{"no address", nil, nil, 80, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := zeroconf.NewServiceEntry("bitaxe", ServiceType, ServiceDomain)
			entry.HostName = "bitaxe.local."
			entry.AddrIPv4 = tt.ipv4
			entry.AddrIPv6 = tt.ipv6
			entry.Port = tt.port

			if got := parseServiceEntry(entry); got != tt.want {
				t.Errorf("parseServiceEntry() = %q, want %q", got, tt.want)
			}
		})
	}

	if got := parseServiceEntry(nil); got != "" {
		t.Errorf("parseServiceEntry(nil) = %q, want empty", got)
	}
}
