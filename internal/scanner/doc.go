// Package scanner finds Bitaxe devices on the local network.
//
// Scan enumerates every address of an IPv4 subnet (base address plus dotted
// netmask) and probes each one concurrently with GET /api/system/info. A host
// that does not answer within the probe timeout, or answers with something
// that is not AxeOS, is skipped. The scan itself only fails for a malformed
// or oversized range.
//
// DiscoverMDNS is the zero-configuration alternative: it listens for
// _http._tcp announcements and probes the hosts it hears about.
//
// # Usage Example
//
//	s := scanner.New(scanner.WithRate(200))
//	results, err := s.Scan(ctx, "192.168.1.0", "255.255.255.0")
//	if err != nil {
//	    return err
//	}
//	for _, r := range results {
//	    fmt.Println(r.Address, r.Info.BoardVersion, r.Info.Version)
//	}
//
// Results are always ordered by address, independent of which probes
// finished first.
package scanner
