package scanner

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/bacli/bacli/internal/logging"
)

const (
	// ServiceType is the mDNS service AxeOS advertises its web UI under
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain
	ServiceDomain = "local."

	// DefaultBrowseTimeout is how long DiscoverMDNS listens for announcements
	DefaultBrowseTimeout = 5 * time.Second
)

// DiscoverMDNS browses for HTTP services for the given timeout, then probes
// every advertised host. Only hosts that answer as a device are returned, so
// routers and printers that also advertise _http._tcp are filtered out.
func (s *Scanner) DiscoverMDNS(ctx context.Context, timeout time.Duration) ([]Result, error) {
	if timeout <= 0 {
		timeout = DefaultBrowseTimeout
	}

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	browseCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		mu         sync.Mutex
		seen       = make(map[string]bool)
		candidates []string
	)

	entries := make(chan *zeroconf.ServiceEntry)
	go func() {
		for entry := range entries {
			address := parseServiceEntry(entry)
			if address == "" {
				continue
			}

			mu.Lock()
			if !seen[address] {
				seen[address] = true
				candidates = append(candidates, address)
				logging.Debug("mDNS candidate", zap.String("address", address), zap.String("host", entry.HostName))
			}
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(browseCtx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-browseCtx.Done()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	mu.Lock()
	addresses := append([]string(nil), candidates...)
	mu.Unlock()

	return s.ScanAddresses(ctx, addresses), nil
}

// parseServiceEntry returns the address to probe for an mDNS entry, or ""
// when the entry carries no usable address. IPv4 is preferred.
func parseServiceEntry(entry *zeroconf.ServiceEntry) string {
	if entry == nil {
		return ""
	}

	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" {
		for _, addr := range entry.AddrIPv6 {
			ip = addr.String()
			break
		}
	}
	if ip == "" {
		return ""
	}

	if entry.Port != 0 && entry.Port != 80 {
		return net.JoinHostPort(ip, strconv.Itoa(entry.Port))
	}
	if net.ParseIP(ip).To4() == nil {
		return "[" + ip + "]"
	}
	return ip
}
