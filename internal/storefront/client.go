package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"shopscrape/pkg/models"
)

// Doer performs an HTTP request. *http.Client satisfies it; tests and session
// bootstrapping code can wrap it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Client. Zero values fall back to the defaults below.
type Options struct {
	HTTP           Doer
	UserAgent      string
	AcceptLanguage string
	Cookie         string
	ProbeTimeout   time.Duration
	DataTimeout    time.Duration
	Logger         *slog.Logger
}

// Client reads the public JSON catalog of one storefront. Every call is a
// single attempt: no retries, no caching.
type Client struct {
	baseURL        string
	http           Doer
	userAgent      string
	acceptLanguage string
	cookie         string
	probeTimeout   time.Duration
	dataTimeout    time.Duration
	logger         *slog.Logger
	tracer         trace.Tracer
}

func NewClient(baseURL string, opts Options) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           opts.HTTP,
		userAgent:      opts.UserAgent,
		acceptLanguage: opts.AcceptLanguage,
		cookie:         opts.Cookie,
		probeTimeout:   opts.ProbeTimeout,
		dataTimeout:    opts.DataTimeout,
		logger:         opts.Logger,
		tracer:         otel.Tracer("shopscrape/storefront"),
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.userAgent == "" {
		c.userAgent = "shopscrape/1.0"
	}
	if c.probeTimeout <= 0 {
		c.probeTimeout = 10 * time.Second
	}
	if c.dataTimeout <= 0 {
		c.dataTimeout = 30 * time.Second
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("component", "storefront", "site", c.baseURL)
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

type collectionsPayload struct {
	Collections *[]models.Collection `json:"collections"`
}

type productsPayload struct {
	Products *[]models.Product `json:"products"`
}

// Collections lists every collection in one read.
func (c *Client) Collections(ctx context.Context) ([]models.Collection, error) {
	var p collectionsPayload
	if err := c.getJSON(ctx, "/collections.json", nil, c.dataTimeout, slog.LevelWarn, &p); err != nil {
		return nil, err
	}
	if p.Collections == nil {
		return nil, c.malformed("/collections.json", errMissingKey("collections"))
	}
	return *p.Collections, nil
}

// CollectionProducts reads one page of a collection's product listing.
func (c *Client) CollectionProducts(ctx context.Context, handle string, page, limit int) ([]models.Product, error) {
	return c.products(ctx, "/collections/"+url.PathEscape(handle)+"/products.json", page, limit)
}

// Products reads one page of the unscoped product listing.
func (c *Client) Products(ctx context.Context, page, limit int) ([]models.Product, error) {
	return c.products(ctx, "/products.json", page, limit)
}

func (c *Client) products(ctx context.Context, path string, page, limit int) ([]models.Product, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("page", strconv.Itoa(page))

	var p productsPayload
	if err := c.getJSON(ctx, path, q, c.dataTimeout, slog.LevelWarn, &p); err != nil {
		return nil, err
	}
	if p.Products == nil {
		return nil, c.malformed(path, errMissingKey("products"))
	}
	return *p.Products, nil
}

// Detect reports whether the site exposes the storefront JSON API: either a
// one-item products read or a collections read must answer 200 with the
// expected top-level key.
func (c *Client) Detect(ctx context.Context) bool {
	q := url.Values{}
	q.Set("limit", "1")

	var products productsPayload
	if err := c.getJSON(ctx, "/products.json", q, c.probeTimeout, slog.LevelDebug, &products); err == nil && products.Products != nil {
		return true
	}

	var collections collectionsPayload
	if err := c.getJSON(ctx, "/collections.json", nil, c.probeTimeout, slog.LevelDebug, &collections); err == nil && collections.Collections != nil {
		return true
	}
	return false
}

// getJSON is the single read primitive. Failures come back as *FetchError
// and are also logged here at the given level, so callers may treat them as
// plain absence.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, timeout time.Duration, level slog.Level, out any) (err error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	ctx, span := c.tracer.Start(ctx, "storefront.get",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("url.full", endpoint)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if ctx.Err() == nil {
				c.logger.Log(ctx, level, "request failed", "url", endpoint, "error", err)
			}
		}
		span.End()
	}()

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &FetchError{Kind: TransportFailure, URL: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.acceptLanguage != "" {
		req.Header.Set("Accept-Language", c.acceptLanguage)
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &FetchError{Kind: TransportFailure, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &FetchError{Kind: TransportFailure, URL: endpoint, Status: resp.StatusCode,
			Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if reqCtx.Err() != nil {
			return &FetchError{Kind: TransportFailure, URL: endpoint, Status: resp.StatusCode, Err: err}
		}
		return &FetchError{Kind: MalformedResponse, URL: endpoint, Status: resp.StatusCode, Err: err}
	}
	return nil
}

func (c *Client) malformed(path string, err error) error {
	fe := &FetchError{Kind: MalformedResponse, URL: c.baseURL + path, Status: http.StatusOK, Err: err}
	c.logger.Warn("unexpected payload", "url", fe.URL, "error", err)
	return fe
}

func errMissingKey(key string) error {
	return errors.New("missing top-level key " + strconv.Quote(key))
}
