package scanner

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
)

// MaxPrefixBits is the widest mask a scan accepts (a /16, 65536 addresses).
const MaxPrefixBits = 16

var (
	// ErrInvalidMask is returned for a mask that is not a contiguous IPv4 netmask.
	ErrInvalidMask = errors.New("invalid netmask")

	// ErrRangeTooLarge is returned when the mask spans more than a /16.
	ErrRangeTooLarge = errors.New("address range too large")
)

// AddressRange returns every IPv4 address in the network described by base
// and mask, from the network address to the broadcast address inclusive.
// Example: "192.168.1.17", "255.255.255.0" returns 192.168.1.0 .. 192.168.1.255.
func AddressRange(base, mask string) ([]string, error) {
	ip := net.ParseIP(base)
	if ip == nil || ip.To4() == nil {
		return nil, fmt.Errorf("invalid IPv4 base address: %q", base)
	}

	m := net.ParseIP(mask)
	if m == nil || m.To4() == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMask, mask)
	}

	ipMask := net.IPMask(m.To4())
	ones, bits := ipMask.Size()
	if bits == 0 {
		// Size reports 0, 0 for non-canonical masks like 255.0.255.0
		return nil, fmt.Errorf("%w: %q is not contiguous", ErrInvalidMask, mask)
	}
	if ones < MaxPrefixBits {
		return nil, fmt.Errorf("%w: /%d spans %d addresses (max /%d)",
			ErrRangeTooLarge, ones, uint64(1)<<(32-ones), MaxPrefixBits)
	}

	network := ipToUint32(ip.Mask(ipMask))
	count := uint32(1) << (32 - ones)

	ips := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		ips = append(ips, uint32ToIP(network+i).String())
	}

	return ips, nil
}

// ipToUint32 converts an IPv4 address to a uint32.
func ipToUint32(ip net.IP) uint32 {
	return binary.BigEndian.Uint32(ip.To4())
}

// uint32ToIP converts a uint32 to an IPv4 address.
func uint32ToIP(n uint32) net.IP {
	ip := make(net.IP, 4)
	binary.BigEndian.PutUint32(ip, n)
	return ip
}
