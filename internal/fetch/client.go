// Package fetch implements the page fetcher used by the site adapters.
package fetch

import (
	"bufio"
	"context"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"

	"github.com/brogergvhs/mangawatch/internal/providers"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:97.0) Gecko/20100101 Firefox/97.0"

type Options struct {
	Timeout          time.Duration
	Retries          int
	RetryWait        time.Duration
	UserAgent        string
	Cookie           string
	CookieFile       string
	CloudflareBypass bool
	Transport        http.RoundTripper
	Log              providers.Logger
}

// Client is a providers.Fetcher backed by resty. Requests are retried on
// transport errors, 429 and 5xx answers.
type Client struct {
	rc  *resty.Client
	log providers.Logger
}

func New(opts Options) *Client {
	log := opts.Log
	if log == nil {
		log = providers.NopLogger
	}

	base := opts.Transport
	if base == nil {
		t := &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxConnsPerHost:     100,
			MaxIdleConnsPerHost: 100,
			ForceAttemptHTTP2:   true,
		}
		base = t

		if opts.CloudflareBypass {
			base = cloudflarebp.AddCloudFlareByPass(t)
		}
	}

	jar, _ := cookiejar.New(nil)

	rc := resty.New().
		SetTransport(roundTripper{
			base:         base,
			cookieHeader: joinCookies(opts.Cookie, opts.CookieFile),
			log:          log,
		}).
		SetHeader("User-Agent", PickUserAgent(opts.UserAgent)).
		SetCookieJar(jar).
		SetLogger(quietLogger{log}).
		SetRetryCount(max(0, opts.Retries)).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(max(opts.RetryWait*4, time.Second)).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}

	log.Debugf("fetch client initialized (timeout=%s, retries=%d, cloudflare=%t)",
		opts.Timeout, opts.Retries, opts.CloudflareBypass)

	return &Client{rc: rc, log: log}
}

// Fetch GETs url with the extra headers and returns the body of a 2xx
// answer. Anything else is a *providers.FetchError.
func (c *Client) Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(url)
	if err != nil {
		return nil, &providers.FetchError{URL: url, Err: err}
	}

	if !resp.IsSuccess() {
		return nil, &providers.FetchError{URL: url, Status: resp.StatusCode()}
	}

	return resp.Body(), nil
}

// HTTPClient exposes the underlying client, sharing transport, cookies and
// headers, for streaming downloads.
func (c *Client) HTTPClient() *http.Client {
	return c.rc.GetClient()
}

type roundTripper struct {
	base         http.RoundTripper
	cookieHeader string
	log          providers.Logger
}

func (rt roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if rt.cookieHeader != "" && req.Header.Get("Cookie") == "" {
		req.Header.Set("Cookie", rt.cookieHeader)
	}

	rt.log.Debugf("HTTP %s %s", req.Method, req.URL.String())

	return rt.base.RoundTrip(req)
}

// quietLogger keeps resty's own chatter at debug level.
type quietLogger struct {
	log providers.Logger
}

func (q quietLogger) Errorf(format string, v ...any) { q.log.Debugf("resty: "+format, v...) }
func (q quietLogger) Warnf(format string, v ...any)  { q.log.Debugf("resty: "+format, v...) }
func (q quietLogger) Debugf(format string, v ...any) { q.log.Debugf("resty: "+format, v...) }

func joinCookies(inline, file string) string {
	s := strings.TrimSpace(inline)
	if file == "" {
		return s
	}

	b, err := os.ReadFile(file)
	if err != nil {
		return s
	}

	// first non-empty line
	sc := bufio.NewScanner(strings.NewReader(string(b)))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if s == "" {
			return line
		}
		return s + "; " + line
	}

	return s
}

func PickUserAgent(override string) string {
	if override != "" {
		return override
	}

	return DefaultUserAgent
}
