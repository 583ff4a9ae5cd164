package scanner

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bacli/bacli/internal/bitaxe"
	"github.com/bacli/bacli/internal/logging"
)

// DefaultProbeTimeout bounds each probe. Hosts on a LAN either answer well
// inside a second or are not there.
const DefaultProbeTimeout = 1 * time.Second

// Result is one device that answered a probe.
type Result struct {
	Address string
	Info    *bitaxe.SystemInfo
}

// Prober queries one address. Any error means "no device here".
type Prober func(ctx context.Context, address string) (*bitaxe.SystemInfo, error)

// Options tunes a scan.
type Options struct {
	// Timeout bounds a single probe.
	Timeout time.Duration

	// RatePerSecond paces probe launches. Zero launches every probe at once.
	RatePerSecond float64

	// UserAgent is sent with every probe request.
	UserAgent string
}

// DefaultOptions returns the options used by New.
func DefaultOptions() Options {
	return Options{
		Timeout: DefaultProbeTimeout,
	}
}

// Scanner finds devices by probing every address of a subnet concurrently.
type Scanner struct {
	opts       Options
	probe      Prober
	httpClient *http.Client
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithTimeout sets the per-probe timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Scanner) {
		s.opts.Timeout = timeout
	}
}

// WithRate limits how many probes start per second.
func WithRate(perSecond float64) Option {
	return func(s *Scanner) {
		s.opts.RatePerSecond = perSecond
	}
}

// WithUserAgent sets the User-Agent header of probe requests.
func WithUserAgent(ua string) Option {
	return func(s *Scanner) {
		s.opts.UserAgent = ua
	}
}

// WithProber replaces the HTTP probe, mainly for tests.
func WithProber(p Prober) Option {
	return func(s *Scanner) {
		s.probe = p
	}
}

// New creates a scanner. All default probes share one HTTP client.
func New(opts ...Option) *Scanner {
	s := &Scanner{opts: DefaultOptions()}

	for _, opt := range opts {
		opt(s)
	}

	if s.probe == nil {
		s.httpClient = bitaxe.NewHTTPClient(s.opts.Timeout)
		s.probe = s.systemInfoProbe
	}

	return s
}

func (s *Scanner) systemInfoProbe(ctx context.Context, address string) (*bitaxe.SystemInfo, error) {
	client := bitaxe.NewClient(address,
		bitaxe.WithHTTPClient(s.httpClient),
		bitaxe.WithUserAgent(s.opts.UserAgent),
	)
	return client.SystemInfo(ctx)
}

// Scan probes every address in the subnet given by base and mask.
// Unreachable or non-device hosts are skipped; the only errors are for a
// malformed range. Results are ordered by address.
func (s *Scanner) Scan(ctx context.Context, base, mask string) ([]Result, error) {
	addresses, err := AddressRange(base, mask)
	if err != nil {
		return nil, err
	}

	logging.Info("Starting subnet scan",
		zap.String("base", base),
		zap.String("mask", mask),
		zap.Int("addresses", len(addresses)),
	)

	return s.ScanAddresses(ctx, addresses), nil
}

// ScanAddresses probes each address once and returns the ones that answered,
// in the order they were given.
func (s *Scanner) ScanAddresses(ctx context.Context, addresses []string) []Result {
	startTime := time.Now()
	found := make([]*bitaxe.SystemInfo, len(addresses))

	var limiter *rate.Limiter
	if s.opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.opts.RatePerSecond), 1)
	}

	var wg sync.WaitGroup

launch:
	for i, address := range addresses {
		var err error
		if limiter != nil {
			err = limiter.Wait(ctx)
		} else {
			err = ctx.Err()
		}
		if err != nil {
			logging.Warn("Scan aborted, remaining addresses skipped",
				zap.Int("launched", i),
				zap.Int("skipped", len(addresses)-i),
				zap.Error(err),
			)
			break launch
		}

		wg.Add(1)
		go func(i int, address string) {
			defer wg.Done()

			probeCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
			defer cancel()

			info, err := s.probe(probeCtx, address)
			if err != nil {
				logging.Debug("No device at address", zap.String("address", address), zap.Error(err))
				return
			}
			// Each goroutine owns its slot
			found[i] = info
		}(i, address)
	}

	wg.Wait()

	results := make([]Result, 0)
	for i, info := range found {
		if info != nil {
			results = append(results, Result{Address: addresses[i], Info: info})
		}
	}

	logging.Info("Scan complete",
		zap.Int("probed", len(addresses)),
		zap.Int("found", len(results)),
		zap.Duration("elapsed", time.Since(startTime)),
	)

	return results
}
