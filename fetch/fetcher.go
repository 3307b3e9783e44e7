package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Default limits.
const (
	DefaultTimeout        = 30 * time.Second
	DefaultMaxContentSize = 10 << 20
	DefaultUserAgent      = "kgraph/1.0"
	maxRedirects          = 5
)

// ErrTooLarge is returned when a body exceeds the configured limit.
var ErrTooLarge = errors.New("content too large")

// Result is a fetched document.
type Result struct {
	URL          string
	Body         []byte
	ContentType  string
	ETag         string
	LastModified time.Time
	StatusCode   int
}

// Options configures a Fetcher.
type Options struct {
	Timeout        time.Duration
	UserAgent      string
	MaxContentSize int64

	// AllowPrivate disables the URL and dial checks. Only for tests and
	// trusted internal endpoints.
	AllowPrivate bool
}

// Fetcher performs GET requests with the safety checks applied.
type Fetcher struct {
	client       *http.Client
	userAgent    string
	maxSize      int64
	allowPrivate bool
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxContentSize <= 0 {
		opts.MaxContentSize = DefaultMaxContentSize
	}

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	dial := dialer.DialContext
	if !opts.AllowPrivate {
		dial = safeDialContext(dialer)
	}

	transport := &http.Transport{
		DialContext:           dial,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: opts.Timeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}

	f := &Fetcher{
		userAgent:    opts.UserAgent,
		maxSize:      opts.MaxContentSize,
		allowPrivate: opts.AllowPrivate,
	}
	f.client = &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("too many redirects (max %d)", maxRedirects)
			}
			if err := f.check(req.URL.String()); err != nil {
				return fmt.Errorf("redirect blocked: %w", err)
			}
			return nil
		},
	}
	return f
}

// safeDialContext validates resolved IPs so DNS rebinding cannot reach a
// private address.
func safeDialContext(dialer *net.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid address: %w", err)
		}
		ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
		if err != nil {
			return nil, fmt.Errorf("DNS lookup failed: %w", err)
		}
		for _, ipAddr := range ips {
			if IsPrivateIP(ipAddr.IP) {
				return nil, fmt.Errorf("%w: connection to private IP %s", ErrBlockedURL, ipAddr.IP)
			}
		}
		for _, ipAddr := range ips {
			conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ipAddr.IP.String(), port))
			if err == nil {
				return conn, nil
			}
		}
		return nil, fmt.Errorf("failed to connect to any resolved IP")
	}
}

func (f *Fetcher) check(rawURL string) error {
	if f.allowPrivate {
		return nil
	}
	return ValidateURL(rawURL)
}

// Get fetches rawURL. accept sets the Accept header; empty means HTML.
func (f *Fetcher) Get(ctx context.Context, rawURL, accept string) (*Result, error) {
	if err := f.check(rawURL); err != nil {
		return nil, err
	}
	if accept == "" {
		accept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxSize {
		return nil, fmt.Errorf("%w (exceeds %d bytes)", ErrTooLarge, f.maxSize)
	}

	result := &Result{
		URL:         resp.Request.URL.String(),
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		ETag:        resp.Header.Get("ETag"),
		StatusCode:  resp.StatusCode,
	}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			result.LastModified = t
		}
	}
	return result, nil
}
