package bitaxe

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// Kind represents the category of error that occurred while talking to a device.
// The set is closed: every consumer switches over all four values.
type Kind int

const (
	// KindTransport indicates the request never produced an HTTP response
	// (DNS failure, connection refused, timeout, unreachable host).
	KindTransport Kind = iota
	// KindInvalidRequest indicates the device rejected the request. AxeOS answers
	// unknown endpoints with a redirect instead of a 404, so 3xx lands here.
	KindInvalidRequest
	// KindServer indicates the device answered with a 5xx status.
	KindServer
	// KindDecode indicates the response body did not have the expected shape.
	KindDecode
)

// NetworkSubtype refines KindTransport errors for troubleshooting output.
// It never changes how an error is handled.
type NetworkSubtype int

const (
	NetworkErrorGeneral NetworkSubtype = iota
	NetworkErrorTimeout
	NetworkErrorConnectionRefused
	NetworkErrorDNS
	NetworkErrorHostUnreachable
	NetworkErrorNetworkUnreachable
)

// String returns a human-readable name for the error kind
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "Transport Error"
	case KindInvalidRequest:
		return "Invalid Request"
	case KindServer:
		return "Server Error"
	case KindDecode:
		return "Decode Error"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Error is returned by every Client operation that fails.
type Error struct {
	Kind           Kind           // Category of error
	Message        string         // Human-readable error message
	StatusCode     int            // HTTP status code (InvalidRequest and Server only)
	Body           string         // Response body text (Server only)
	Address        string         // Device address the request was sent to
	NetworkSubtype NetworkSubtype // Finer classification for Transport errors
	Err            error          // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidRequest:
		return fmt.Sprintf("%s: %s (status %d)", e.Kind, e.Message, e.StatusCode)
	case KindServer:
		return fmt.Sprintf("%s: %s (status %d, body '%s')", e.Kind, e.Message, e.StatusCode, e.Body)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// classifyTransportError builds a KindTransport error and records which kind of
// network failure occurred.
func classifyTransportError(message string, err error, address string) *Error {
	return &Error{
		Kind:           KindTransport,
		Message:        message,
		Address:        address,
		NetworkSubtype: networkSubtype(err),
		Err:            err,
	}
}

func networkSubtype(err error) NetworkSubtype {
	if err == nil {
		return NetworkErrorGeneral
	}

	if os.IsTimeout(err) || errors.Is(err, os.ErrDeadlineExceeded) {
		return NetworkErrorTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return NetworkErrorTimeout
		}
		return NetworkErrorDNS
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return NetworkErrorConnectionRefused
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return NetworkErrorHostUnreachable
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return NetworkErrorNetworkUnreachable
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != err {
		return networkSubtype(urlErr.Err)
	}

	return NetworkErrorGeneral
}

// NewInvalidRequestError creates an error for a request the device refused.
func NewInvalidRequestError(address string, statusCode int) *Error {
	return &Error{
		Kind:       KindInvalidRequest,
		Message:    "device refused the request",
		StatusCode: statusCode,
		Address:    address,
	}
}

// NewServerError creates an error for a 5xx device response.
func NewServerError(address string, statusCode int, body string) *Error {
	return &Error{
		Kind:       KindServer,
		Message:    "server error on API call",
		StatusCode: statusCode,
		Body:       body,
		Address:    address,
	}
}

// NewDecodeError creates an error for a response body that could not be decoded.
func NewDecodeError(address, message string, err error) *Error {
	return &Error{
		Kind:    KindDecode,
		Message: message,
		Address: address,
		Err:     err,
	}
}

// KindOf reports the Kind of a device error anywhere in err's chain.
// ok is false when err did not come from a Client.
func KindOf(err error) (kind Kind, ok bool) {
	var devErr *Error
	if errors.As(err, &devErr) {
		return devErr.Kind, true
	}
	return 0, false
}

// StatusCode returns the HTTP status carried by a device error, or 0.
func StatusCode(err error) int {
	var devErr *Error
	if errors.As(err, &devErr) {
		return devErr.StatusCode
	}
	return 0
}

// IsTransportError checks if an error is a transport error
func IsTransportError(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindTransport
}

// IsInvalidRequest checks if an error is an invalid request error
func IsInvalidRequest(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindInvalidRequest
}

// IsServerError checks if an error is a server error
func IsServerError(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindServer
}

// IsDecodeError checks if an error is a decode error
func IsDecodeError(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindDecode
}

// TroubleshootingHint returns user-friendly troubleshooting advice for an error
func TroubleshootingHint(err error) string {
	var devErr *Error
	if !errors.As(err, &devErr) {
		return ""
	}

	switch devErr.Kind {
	case KindTransport:
		hint := []string{"Could not reach the device."}

		switch devErr.NetworkSubtype {
		case NetworkErrorTimeout:
			hint = append(hint, "The device did not respond in time.",
				"Troubleshooting:",
				"  • Check that the device is powered on",
				"  • The device may be rebooting - wait a few seconds and retry")

		case NetworkErrorConnectionRefused:
			hint = append(hint, "The device refused the connection.",
				"Troubleshooting:",
				"  • Verify the address points at a Bitaxe and not another host",
				"  • The web server may still be starting after a reboot")

		case NetworkErrorDNS:
			hint = append(hint, "The device hostname could not be resolved.",
				"Troubleshooting:",
				"  • Use the IP address instead of the hostname",
				"  • Run 'bacli scan' to find devices on your network")

		case NetworkErrorHostUnreachable, NetworkErrorNetworkUnreachable:
			hint = append(hint, "The device is not reachable on the network.",
				"Troubleshooting:",
				"  • Check that you're on the same network as the device",
				"  • Try pinging the device: ping "+devErr.Address)

		default:
			hint = append(hint, "Troubleshooting:",
				"  • Check your network connection",
				"  • Verify the device address is correct")
		}

		return strings.Join(hint, "\n")

	case KindInvalidRequest:
		return strings.Join([]string{
			fmt.Sprintf("The device rejected the request (HTTP %d).", devErr.StatusCode),
			"The endpoint may not exist on this firmware version.",
			"Troubleshooting:",
			"  • Check the firmware version with 'bacli info'",
			"  • Update the device using its web interface if unsure",
		}, "\n")

	case KindServer:
		return strings.Join([]string{
			fmt.Sprintf("The device returned an error (HTTP %d).", devErr.StatusCode),
			"Troubleshooting:",
			"  • Try restarting the device with 'bacli restart'",
			"  • Check the device logs with 'bacli logs'",
		}, "\n")

	case KindDecode:
		return strings.Join([]string{
			"Failed to parse the device's response.",
			"This usually means the firmware is not AxeOS or is too old.",
		}, "\n")
	}

	return ""
}

// ShortErrorMessage returns a concise, user-friendly error message
func ShortErrorMessage(err error) string {
	var devErr *Error
	if !errors.As(err, &devErr) {
		return err.Error()
	}

	switch devErr.Kind {
	case KindTransport:
		switch devErr.NetworkSubtype {
		case NetworkErrorTimeout:
			return "Device not responding (timeout)"
		case NetworkErrorConnectionRefused:
			return "Device refused connection"
		case NetworkErrorDNS:
			return "Cannot resolve device hostname"
		case NetworkErrorHostUnreachable, NetworkErrorNetworkUnreachable:
			return "Device unreachable - check network connection"
		default:
			return "Network error - check connection"
		}
	case KindInvalidRequest:
		return fmt.Sprintf("Device refused the request (HTTP %d)", devErr.StatusCode)
	case KindServer:
		return fmt.Sprintf("Device error (HTTP %d)", devErr.StatusCode)
	case KindDecode:
		return "Failed to parse device response"
	}
	return devErr.Message
}
