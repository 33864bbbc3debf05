package kakomon

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kakomonbot-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("kakomonbot.services.kakomon")

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// FetchError reports a non-success terminal status from the provider.
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: status %d", e.URL, e.StatusCode)
}

// RequestOverride lets deployments patch the outgoing provider request
// without rebuilding the binary. Headers merge over the built request,
// a non-empty body replaces it.
type RequestOverride struct {
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

type ClientOptions struct {
	TargetURL string
	// Proxy routes all provider traffic, including the redirect
	// follow-up, through the given address. Empty means direct.
	Proxy     string
	Search    SearchConfig
	Request   RequestOverride
	Selectors Selectors
	// Sid overrides the session-id generator, nil uses the time digest.
	Sid SidProvider
}

// Client fetches question pages from the exam provider.
type Client struct {
	opts ClientOptions
	// the search flow needs the 3xx response itself, so it runs on a
	// client with redirect following turned off
	http       *resty.Client
	noRedirect *resty.Client
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.TargetURL == "" {
		return nil, fmt.Errorf("target url is required")
	}

	return &Client{
		opts:       opts,
		http:       newHTTPClient(opts.Proxy, true),
		noRedirect: newHTTPClient(opts.Proxy, false),
	}, nil
}

func newHTTPClient(proxy string, followRedirects bool) *resty.Client {
	client := resty.New()
	client.SetHeader("user-agent", userAgent)
	client.SetTimeout(time.Second * 30)
	if proxy != "" {
		client.SetProxy(proxy)
	}
	if !followRedirects {
		client.SetRedirectPolicy(resty.RedirectPolicyFunc(
			func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		))
	}
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	telemetry.InstrumentResty(client, "kakomonbot.services.kakomon.http")
	return client
}

// FetchHTML performs one provider request and returns the body text.
// With the search flow enabled it POSTs the search form with redirects
// disabled; a 3xx answer is followed manually with one cookie-carrying
// GET, which is how the provider hands out the actual question page.
func (c *Client) FetchHTML(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "client:FetchHTML")
	defer span.End()

	if !c.opts.Search.Enabled {
		return c.fetchPlain(ctx)
	}

	req := c.noRedirect.R().
		SetContext(ctx).
		SetHeader("content-type", "application/x-www-form-urlencoded").
		SetHeader("referer", c.opts.TargetURL).
		SetBody(SearchBody(c.opts.Search, c.opts.Sid))
	method := http.MethodPost
	applyOverride(req, &method, c.opts.Request)

	res, err := req.Execute(method, c.opts.TargetURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search request failed")
		return "", err
	}

	location := res.Header().Get("Location")
	if res.StatusCode() < 300 || res.StatusCode() >= 400 || location == "" {
		if !res.IsSuccess() {
			return "", &FetchError{URL: c.opts.TargetURL, StatusCode: res.StatusCode()}
		}
		return res.String(), nil
	}

	followURL := resolveLocation(c.opts.TargetURL, location)
	follow := c.http.R().SetContext(ctx)
	if cookie := joinSetCookies(res.Header().Values("Set-Cookie")); cookie != "" {
		follow.SetHeader("cookie", cookie)
	}

	followRes, err := follow.Get(followURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "redirect follow-up failed")
		return "", err
	}
	if !followRes.IsSuccess() {
		return "", &FetchError{URL: followURL, StatusCode: followRes.StatusCode()}
	}
	return followRes.String(), nil
}

func (c *Client) fetchPlain(ctx context.Context) (string, error) {
	req := c.http.R().SetContext(ctx)
	method := http.MethodGet
	applyOverride(req, &method, c.opts.Request)

	res, err := req.Execute(method, c.opts.TargetURL)
	if err != nil {
		return "", err
	}
	if !res.IsSuccess() {
		return "", &FetchError{URL: c.opts.TargetURL, StatusCode: res.StatusCode()}
	}
	return res.String(), nil
}

func applyOverride(req *resty.Request, method *string, override RequestOverride) {
	if override.Method != "" {
		*method = override.Method
	}
	for key, value := range override.Headers {
		req.SetHeader(key, value)
	}
	if override.Body != "" {
		req.SetBody(override.Body)
	}
}

func resolveLocation(target, location string) string {
	base, err := url.Parse(target)
	if err != nil {
		return location
	}
	ref, err := url.Parse(location)
	if err != nil {
		return location
	}
	return base.ResolveReference(ref).String()
}

// joinSetCookies turns Set-Cookie response headers into a Cookie request
// header value, dropping the attribute parts.
func joinSetCookies(setCookies []string) string {
	var pairs []string
	for _, raw := range setCookies {
		pair := strings.TrimSpace(strings.SplitN(raw, ";", 2)[0])
		if pair != "" {
			pairs = append(pairs, pair)
		}
	}
	return strings.Join(pairs, "; ")
}
