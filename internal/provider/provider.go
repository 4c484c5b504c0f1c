package provider

import (
	"fmt"
	"net/http"
	"time"
)

// Options selects and configures a provider.
type Options struct {
	Name    string // "groq" or "anthropic"
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// New returns the client named by opts.Name.
func New(opts Options) (Client, error) {
	hc := opts.HTTPClient
	if hc == nil && opts.Timeout > 0 {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	switch opts.Name {
	case "", "groq":
		return NewGroq(opts.APIKey, opts.BaseURL, hc), nil
	case "anthropic":
		return NewAnthropic(opts.APIKey, opts.BaseURL, hc), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", opts.Name)
	}
}
