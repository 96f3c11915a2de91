package menucache

import (
	"github.com/rs/zerolog"

	"github.com/restomenu/menucache/internal/fetch"
)

// Defaults for Open.
const (
	DefaultSizeLimit   = 100 << 20 // 100 MiB on disk
	DefaultHotSetSize  = 128       // decoded images held in memory
	DefaultConcurrency = 4
	DefaultJPEGQuality = 80
)

// OpenOptions configures a Cache.
type OpenOptions struct {
	SizeLimit   int64
	HotSetSize  int
	Concurrency int
	JPEGQuality int
	Fetcher     fetch.Fetcher
	Logger      zerolog.Logger
}

// OpenOption is a functional option for configuring Open.
type OpenOption func(*OpenOptions)

func defaultOptions() *OpenOptions {
	return &OpenOptions{
		SizeLimit:   DefaultSizeLimit,
		HotSetSize:  DefaultHotSetSize,
		Concurrency: DefaultConcurrency,
		JPEGQuality: DefaultJPEGQuality,
		Logger:      zerolog.Nop(),
	}
}

// WithSizeLimit sets the disk usage ceiling in bytes.
func WithSizeLimit(n int64) OpenOption {
	return func(o *OpenOptions) {
		if n > 0 {
			o.SizeLimit = n
		}
	}
}

// WithHotSetSize sets the entry count bound of the in-memory hot set.
func WithHotSetSize(n int) OpenOption {
	return func(o *OpenOptions) {
		if n > 0 {
			o.HotSetSize = n
		}
	}
}

// WithConcurrency sets the number of parallel downloads during preloads.
func WithConcurrency(n int) OpenOption {
	return func(o *OpenOptions) {
		if n > 0 {
			o.Concurrency = n
		}
	}
}

// WithJPEGQuality sets the quality factor used when re-encoding opaque
// images as JPEG.
func WithJPEGQuality(q int) OpenOption {
	return func(o *OpenOptions) {
		if q > 0 && q <= 100 {
			o.JPEGQuality = q
		}
	}
}

// WithFetcher sets a custom byte fetcher (default: plain HTTP client).
func WithFetcher(f fetch.Fetcher) OpenOption {
	return func(o *OpenOptions) { o.Fetcher = f }
}

// WithLogger sets the logger (default: no-op).
func WithLogger(l zerolog.Logger) OpenOption {
	return func(o *OpenOptions) { o.Logger = l }
}
