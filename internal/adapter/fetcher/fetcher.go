package fetcher

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pantolingo/pantolingo/internal/core/domain"
	"github.com/pantolingo/pantolingo/internal/logger"
	"github.com/pantolingo/pantolingo/internal/util"
	"github.com/pantolingo/pantolingo/pkg/pool"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultKeepAlive = 60 * time.Second

	DefaultMaxIdleConns        = 50
	DefaultMaxIdleConnsPerHost = 10

	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultTLSHandshakeTimeout = 10 * time.Second

	defaultBufferSize = 32 * 1024
)

// forwardedHeaders is the closed set of request headers passed to the
// origin. Everything else is dropped so the origin sees a clean request.
var forwardedHeaders = []string{
	"User-Agent",
	"Accept-Language",
	"Accept-Encoding",
	"Referer",
	"Cookie",
	"Content-Type",
}

// The target language rides along under two names: the legacy header kept
// for origins that already key off it, and the product-native one.
const (
	LangHeaderLegacy = "X-Translated-To"
	LangHeaderNative = "X-Pantolingo-Language"
)

// Result is an origin response, decoded and classified. Exactly one of
// Body and Stream is set for 2xx responses: Body when the response is HTML
// destined for the pipeline, Stream when it should be proxied verbatim.
type Result struct {
	StatusCode int
	Header     http.Header
	IsHTML     bool

	// Body holds the full HTML payload.
	Body []byte

	// Stream is the undrained origin body for passthrough responses.
	// The caller owns closing it.
	Stream io.ReadCloser

	// RedirectLocation is set for 3xx responses: the origin's Location
	// with the origin host swapped for the translated host.
	RedirectLocation string
}

// Fetcher issues upstream requests on behalf of the proxy. Redirects are
// never followed; the rewritten 3xx goes back to the client so the browser
// stays on the translated hostname.
type Fetcher struct {
	client  *http.Client
	bufPool *pool.Pool[*bytes.Buffer]
	logger  *logger.StyledLogger
}

func New(timeout time.Duration, log *logger.StyledLogger) (*Fetcher, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	bufPool, err := pool.NewLitePool(func() *bytes.Buffer {
		return bytes.NewBuffer(make([]byte, 0, defaultBufferSize))
	})
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
		TLSHandshakeTimeout: DefaultTLSHandshakeTimeout,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: DefaultKeepAlive,
		}).DialContext,
	}

	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		bufPool: bufPool,
		logger:  log,
	}, nil
}

// Fetch requests originPath from the site's origin, carrying over the
// inbound request's method, query, body and forwarded headers.
func (f *Fetcher) Fetch(ctx context.Context, site *domain.SiteConfig, originPath string, inbound *http.Request) (*Result, error) {
	target := url.URL{
		Scheme:   site.Scheme(),
		Host:     site.OriginHostname,
		Path:     originPath,
		RawQuery: inbound.URL.RawQuery,
	}

	body, err := f.requestBody(inbound)
	if err != nil {
		return nil, &domain.UpstreamError{Host: site.OriginHostname, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, inbound.Method, target.String(), body)
	if err != nil {
		return nil, &domain.UpstreamError{Host: site.OriginHostname, Err: err}
	}
	for _, name := range forwardedHeaders {
		if v := inbound.Header.Get(name); v != "" {
			req.Header.Set(name, v)
		}
	}
	req.Header.Set(LangHeaderLegacy, site.TargetLang)
	req.Header.Set(LangHeaderNative, site.TargetLang)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Host: site.OriginHostname, Err: err}
	}

	result := &Result{
		StatusCode: resp.StatusCode,
		Header:     sanitiseHeader(resp.Header),
	}

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		defer resp.Body.Close()
		if loc := resp.Header.Get("Location"); loc != "" {
			result.RedirectLocation = rewriteLocation(loc, site)
		}
		return result, nil
	}

	if !isHTML(resp.Header.Get("Content-Type")) {
		result.Stream = resp.Body
		return result, nil
	}

	defer resp.Body.Close()
	payload, err := f.readAll(resp.Body)
	if err != nil {
		return nil, &domain.UpstreamError{Host: site.OriginHostname, Err: err}
	}
	result.IsHTML = true
	result.Body = payload
	return result, nil
}

// CopyStream drains a passthrough body to the client using a pooled buffer.
func (f *Fetcher) CopyStream(dst io.Writer, src io.ReadCloser) error {
	defer src.Close()
	buf := f.bufPool.Get()
	defer func() {
		buf.Reset()
		f.bufPool.Put(buf)
	}()
	buf.Grow(defaultBufferSize)
	_, err := io.CopyBuffer(dst, src, buf.AvailableBuffer()[:defaultBufferSize])
	return err
}

// requestBody buffers the inbound body for methods that carry one, so the
// upstream request is replayable and the client can be answered even after
// the body has been consumed.
func (f *Fetcher) requestBody(inbound *http.Request) (io.Reader, error) {
	switch inbound.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return nil, nil
	}
	if inbound.Body == nil {
		return nil, nil
	}
	defer inbound.Body.Close()
	payload, err := io.ReadAll(inbound.Body)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, nil
	}
	return bytes.NewReader(payload), nil
}

func (f *Fetcher) readAll(r io.Reader) ([]byte, error) {
	buf := f.bufPool.Get()
	defer func() {
		buf.Reset()
		f.bufPool.Put(buf)
	}()
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// sanitiseHeader clones the origin headers minus the ones invalidated by
// transparent decompression and re-serialisation.
func sanitiseHeader(h http.Header) http.Header {
	out := h.Clone()
	out.Del("Content-Encoding")
	out.Del("Transfer-Encoding")
	out.Del("Content-Length")
	return out
}

// rewriteLocation swaps the origin host for the translated host so a
// redirect keeps the browser on the proxied hostname. Relative locations
// and third-party hosts pass through untouched.
func rewriteLocation(loc string, site *domain.SiteConfig) string {
	u, err := url.Parse(loc)
	if err != nil || u.Host == "" {
		return loc
	}
	if !strings.EqualFold(u.Hostname(), util.StripPort(site.OriginHostname)) {
		return loc
	}
	u.Host = site.Hostname
	return u.String()
}

func isHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}
