package url2pdf

import "time"

// converterConfig holds internal configuration for a Converter.
type converterConfig struct {
	chromePath   string
	timeout      time.Duration
	settleDelay  time.Duration
	noSandbox    bool
	headless     bool
	autoDownload bool
}

func defaultConfig() converterConfig {
	return converterConfig{
		timeout:     60 * time.Second,
		settleDelay: 2 * time.Second,
		headless:    true,
	}
}

// Option configures a [Converter].
type Option func(*converterConfig)

// WithChromePath sets the path to the Chrome or Chromium executable.
// By default the library searches standard locations automatically.
func WithChromePath(path string) Option {
	return func(c *converterConfig) {
		c.chromePath = path
	}
}

// WithTimeout sets the maximum duration for a single conversion.
// Defaults to 60 seconds. A zero or negative value disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *converterConfig) {
		c.timeout = d
	}
}

// WithSettleDelay sets how long to wait after the page body is ready
// before printing, giving scripts a chance to finish rendering.
// Defaults to 2 seconds. Zero disables the delay.
func WithSettleDelay(d time.Duration) Option {
	return func(c *converterConfig) {
		c.settleDelay = d
	}
}

// WithNoSandbox disables the Chrome sandbox. This is required when
// running as root, for example inside Docker containers.
func WithNoSandbox() Option {
	return func(c *converterConfig) {
		c.noSandbox = true
	}
}

// WithHeadless controls whether the browser runs headless. Defaults to
// true; pass false to watch pages render during debugging.
func WithHeadless(headless bool) Option {
	return func(c *converterConfig) {
		c.headless = headless
	}
}

// WithAutoDownload downloads a compatible Chromium binary into the user
// cache when no Chrome executable is configured or found in PATH.
func WithAutoDownload() Option {
	return func(c *converterConfig) {
		c.autoDownload = true
	}
}
