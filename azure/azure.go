// Package azure is a service.Service backed by the Azure AI Translator
// REST API (version 3.0).
package azure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/minios-linux/resxlate/service"
)

// DefaultEndpoint is the global Translator endpoint.
const DefaultEndpoint = "https://api.cognitive.microsofttranslator.com"

const apiVersion = "3.0"

// ErrNoKey is returned by New when no subscription key is configured.
var ErrNoKey = errors.New("azure translator subscription key is not set")

// Config configures a Client.
type Config struct {
	// Key is the subscription key (Ocp-Apim-Subscription-Key).
	Key string
	// Region is the resource region. Required for regional and
	// multi-service resources, empty for global ones.
	Region string
	// Endpoint defaults to DefaultEndpoint.
	Endpoint string
	// Timeout is the per-request timeout. Default: 30s.
	Timeout time.Duration
	// MaxRetries is how often rate-limited (429), 5xx and transport
	// failures are retried. Default: 3. Negative disables retries.
	MaxRetries int
	// RetryWait is the first backoff delay; it doubles on every attempt.
	// Default: 1s. A Retry-After header takes precedence.
	RetryWait time.Duration
	// OnLog receives debug messages when set.
	OnLog func(format string, args ...any)
}

func (c *Config) effectiveTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return 30 * time.Second
}

func (c *Config) effectiveMaxRetries() int {
	switch {
	case c.MaxRetries < 0:
		return 0
	case c.MaxRetries == 0:
		return 3
	}
	return c.MaxRetries
}

func (c *Config) effectiveRetryWait() time.Duration {
	if c.RetryWait > 0 {
		return c.RetryWait
	}
	return time.Second
}

func (c *Config) log(format string, args ...any) {
	if c.OnLog != nil {
		c.OnLog(format, args...)
	}
}

// Client calls the Translator API.
type Client struct {
	cfg  Config
	http *resty.Client
}

// New returns a Client for cfg.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Key) == "" {
		return nil, ErrNoKey
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid translator endpoint %q", cfg.Endpoint)
	}
	hc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.Endpoint, "/")).
		SetTimeout(cfg.effectiveTimeout()).
		SetHeader("Ocp-Apim-Subscription-Key", cfg.Key)
	if cfg.Region != "" {
		hc.SetHeader("Ocp-Apim-Subscription-Region", cfg.Region)
	}
	return &Client{cfg: cfg, http: hc}, nil
}

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

type textItem struct {
	Text string `json:"Text"`
}

type translateResult struct {
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ---------------------------------------------------------------------------
// Translate
// ---------------------------------------------------------------------------

// Translate implements service.Service.
func (c *Client) Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error) {
	if targetLang == "" {
		return "", &service.Error{Code: service.CodeBadLanguage, Message: "target language is empty"}
	}
	query := map[string]string{"api-version": apiVersion, "to": targetLang}
	if sourceLang != "" && sourceLang != service.Auto {
		query["from"] = sourceLang
	}

	body, err := c.do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetQueryParams(query).
			SetHeader("Content-Type", "application/json").
			SetBody([]textItem{{Text: text}}).
			Post("/translate")
	})
	if err != nil {
		return "", err
	}

	var results []translateResult
	if err := json.Unmarshal(body, &results); err != nil {
		return "", &service.Error{Code: service.CodeBadResponse, Message: "decoding response: " + err.Error(), Err: err}
	}
	if len(results) == 0 || len(results[0].Translations) == 0 {
		return "", &service.Error{Code: service.CodeBadResponse, Message: "response contains no translation"}
	}
	return results[0].Translations[0].Text, nil
}

// ---------------------------------------------------------------------------
// Languages
// ---------------------------------------------------------------------------

// Language is a supported translation language.
type Language struct {
	Code       string
	Name       string
	NativeName string
}

// Languages returns the languages the service translates to and from,
// sorted by code.
func (c *Client) Languages(ctx context.Context) ([]Language, error) {
	body, err := c.do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetQueryParams(map[string]string{"api-version": apiVersion, "scope": "translation"}).
			Get("/languages")
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Translation map[string]struct {
			Name       string `json:"name"`
			NativeName string `json:"nativeName"`
		} `json:"translation"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &service.Error{Code: service.CodeBadResponse, Message: "decoding languages: " + err.Error(), Err: err}
	}
	langs := make([]Language, 0, len(resp.Translation))
	for code, l := range resp.Translation {
		langs = append(langs, Language{Code: code, Name: l.Name, NativeName: l.NativeName})
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i].Code < langs[j].Code })
	return langs, nil
}

// ---------------------------------------------------------------------------
// Request loop
// ---------------------------------------------------------------------------

// do sends a request built by send, retrying rate limits, 5xx responses
// and transport failures with exponential backoff.
func (c *Client) do(ctx context.Context, send func(*resty.Request) (*resty.Response, error)) ([]byte, error) {
	maxRetries := c.cfg.effectiveMaxRetries()
	var lastErr *service.Error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := send(c.http.R().SetContext(ctx))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = &service.Error{Code: service.CodeTransport, Message: err.Error(), Err: err}
			c.cfg.log("[DEBUG] azure attempt %d/%d: %v", attempt+1, maxRetries+1, err)
			if attempt == maxRetries {
				break
			}
			if err := c.wait(ctx, attempt, ""); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode() == http.StatusOK {
			return resp.Body(), nil
		}

		lastErr = decodeError(resp)
		if !lastErr.Retryable() || attempt == maxRetries {
			return nil, lastErr
		}
		c.cfg.log("[WARN] azure returned %d, retrying (attempt %d/%d)", resp.StatusCode(), attempt+1, maxRetries+1)
		if err := c.wait(ctx, attempt, resp.Header().Get("Retry-After")); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// decodeError turns an error response into a *service.Error, keeping the
// Translator error code (e.g. 401000, 429001).
func decodeError(resp *resty.Response) *service.Error {
	se := &service.Error{Status: resp.StatusCode()}
	var body apiError
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Error.Code != 0 {
		se.Code = strconv.Itoa(body.Error.Code)
		se.Message = body.Error.Message
		return se
	}

	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		se.Code = service.CodeAuth
	case http.StatusTooManyRequests:
		se.Code = service.CodeRateLimit
	default:
		se.Code = strconv.Itoa(resp.StatusCode())
	}
	se.Message = strings.TrimSpace(resp.Status())
	if se.Message == "" {
		se.Message = http.StatusText(resp.StatusCode())
	}
	return se
}

// wait sleeps before the next attempt. retryAfter is the Retry-After
// header value in seconds, if the server sent one.
func (c *Client) wait(ctx context.Context, attempt int, retryAfter string) error {
	delay := c.cfg.effectiveRetryWait() << attempt
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
		delay = time.Duration(secs) * time.Second
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}
