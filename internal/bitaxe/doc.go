// Package bitaxe provides an HTTP client for the AxeOS API exposed by Bitaxe
// mining devices on the local network.
//
// The client has two layers. Send is the transport: it issues one request to
// http://<address>/api<path> with a short timeout and classifies the result.
// SystemInfo, Restart, UpdateSettings, UploadFirmware and UploadWWW are typed
// operations built on Send.
//
// # Error Classification
//
// Every failure is an *Error with one of four kinds:
//   - KindTransport: no HTTP response (DNS, refused, timeout, unreachable)
//   - KindInvalidRequest: 3xx. AxeOS redirects unknown endpoints instead of
//     returning 404, so a redirect means the device rejected the call
//   - KindServer: 5xx, carrying the status code and response body
//   - KindDecode: the body did not decode as the expected JSON
//
// Other statuses are passed to the operation, which decides what they mean.
// Nothing in this package retries; callers own retry policy.
//
// # Usage Example
//
//	client := bitaxe.NewClient("192.168.1.42")
//
//	info, err := client.SystemInfo(ctx)
//	if err != nil {
//	    fmt.Println(bitaxe.TroubleshootingHint(err))
//	    return err
//	}
//	fmt.Println(info.Summary())
//
//	// Only the fields that are set are sent to the device
//	freq := bitaxe.Frequency575
//	err = client.UpdateSettings(ctx, bitaxe.Settings{Frequency: &freq})
//
// # Thread Safety
//
// Client instances are safe for concurrent use. Many clients may share one
// *http.Client (see WithHTTPClient) to reuse its connection pool, which is
// what the subnet scanner does.
package bitaxe
