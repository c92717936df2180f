// Package tabbycat is a client for the parts of the Tabbycat REST API
// that clash reconciliation reads and writes.
package tabbycat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lherron/clashsync/internal/domain"
	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout bounds every request when Options.Timeout is zero
	DefaultTimeout = 30 * time.Second

	maxErrorBody = 512
)

// Options configures a Client.
type Options struct {
	// BaseURL is the API root, e.g. https://tab.example.org/api/v1
	BaseURL string

	// Slug is the tournament slug used for adjudicator and team listings
	Slug string

	APIKey     string
	AuthScheme string
	Timeout    time.Duration

	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client

	Logger zerolog.Logger
}

// Client talks to one tournament on a Tabbycat instance.
type Client struct {
	http    *http.Client
	auth    Authenticator
	baseURL *url.URL
	slug    string
	log     zerolog.Logger
}

// New creates a client from opts.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, fmt.Errorf("tabbycat: base URL required")
	}
	if strings.TrimSpace(opts.Slug) == "" {
		return nil, fmt.Errorf("tabbycat: tournament slug required")
	}
	if opts.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}

	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("tabbycat: invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("tabbycat: base URL must be http or https, got %q", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		http:    httpClient,
		auth:    TokenAuth{Scheme: opts.AuthScheme, Key: opts.APIKey},
		baseURL: base,
		slug:    opts.Slug,
		log:     opts.Logger,
	}, nil
}

// Institutions lists every institution on the instance.
func (c *Client) Institutions(ctx context.Context) ([]Institution, error) {
	var out []Institution
	if err := c.getJSON(ctx, c.endpoint("institutions"), &out); err != nil {
		return nil, fmt.Errorf("list institutions: %w", err)
	}
	return out, nil
}

// Adjudicators lists the tournament's adjudicators with their conflicts.
func (c *Client) Adjudicators(ctx context.Context) ([]Adjudicator, error) {
	var out []Adjudicator
	if err := c.getJSON(ctx, c.endpoint("tournaments", c.slug, "adjudicators"), &out); err != nil {
		return nil, fmt.Errorf("list adjudicators: %w", err)
	}
	return out, nil
}

// Teams lists the tournament's teams with their institution conflicts.
func (c *Client) Teams(ctx context.Context) ([]Team, error) {
	var out []Team
	if err := c.getJSON(ctx, c.endpoint("tournaments", c.slug, "teams"), &out); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return out, nil
}

// Listing returns snapshots of every entity of the given kind.
func (c *Client) Listing(ctx context.Context, kind domain.EntityKind) ([]domain.Snapshot, error) {
	switch kind {
	case domain.KindInstitution:
		items, err := c.Institutions(ctx)
		if err != nil {
			return nil, err
		}
		snaps := make([]domain.Snapshot, len(items))
		for i, item := range items {
			snaps[i] = item.Snapshot()
		}
		return snaps, nil
	case domain.KindAdjudicator:
		items, err := c.Adjudicators(ctx)
		if err != nil {
			return nil, err
		}
		snaps := make([]domain.Snapshot, len(items))
		for i, item := range items {
			snaps[i] = item.Snapshot()
		}
		return snaps, nil
	case domain.KindTeam:
		items, err := c.Teams(ctx)
		if err != nil {
			return nil, err
		}
		snaps := make([]domain.Snapshot, len(items))
		for i, item := range items {
			snaps[i] = item.Snapshot()
		}
		return snaps, nil
	default:
		return nil, domain.ValidateEntityKind(kind)
	}
}

// Patch sends a partial update to the entity's resource location. Only the
// fields present in fields are written; the server leaves the rest alone.
func (c *Client) Patch(ctx context.Context, entity domain.Identity, fields map[domain.ConflictField][]domain.Identity) error {
	target, err := c.resolve(string(entity))
	if err != nil {
		return err
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode patch for %s: %w", entity, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request %q: %w", target, err)
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request %q: %w", endpoint, err)
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

// do applies auth and common headers, and turns non-2xx responses into
// APIErrors. On success the caller owns resp.Body.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	c.auth.Apply(req)
	req.Header.Set("Accept", "application/json")
	if req.Method == http.MethodPatch || req.Method == http.MethodPost || req.Method == http.MethodPut {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}
	c.log.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("tabbycat request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		return nil, &APIError{
			Method:     req.Method,
			Endpoint:   req.URL.String(),
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(excerpt)),
		}
	}
	return resp, nil
}

func (c *Client) endpoint(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return c.baseURL.String() + "/" + strings.Join(escaped, "/")
}

// resolve turns an identity into an absolute URL. Identities are normally
// absolute already; relative ones are resolved against the base URL.
func (c *Client) resolve(identity string) (string, error) {
	if strings.TrimSpace(identity) == "" {
		return "", fmt.Errorf("tabbycat: empty entity identity")
	}
	ref, err := url.Parse(identity)
	if err != nil {
		return "", fmt.Errorf("tabbycat: invalid entity identity %q: %w", identity, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	return c.baseURL.ResolveReference(ref).String(), nil
}
