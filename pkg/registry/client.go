// Package registry fetches per-package metadata from a NuGet registration
// endpoint.
//
// The registration protocol carries one indirection: the catalogEntry in a
// lookup response is either an inline metadata object or a URL to a second
// document. [Client.FetchMetadata] absorbs that indirection, along with
// retries, bounded concurrency, and defensive validation of inputs and of
// any URL found inside a response.
//
// Failure containment is deliberate: a single package's metadata failure
// must never abort an audit of hundreds of packages, so every failure mode
// except invalid input and caller cancellation degrades to a minimal but
// usable result.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"

	"github.com/EDemerzel/nuget-inspector/pkg/cache"
	"github.com/EDemerzel/nuget-inspector/pkg/errors"
	"github.com/EDemerzel/nuget-inspector/pkg/httputil"
	"github.com/EDemerzel/nuget-inspector/pkg/observability"
)

// Client fetches package metadata from a registration endpoint.
//
// One long-lived Client is shared by all fetches of a run: it owns the HTTP
// connection pool, the concurrency gate, and the retry policy. All methods
// are safe for concurrent use.
type Client struct {
	cfg    Config
	http   *http.Client
	gate   *semaphore.Weighted
	policy httputil.Policy
	allow  *httputil.AllowedHost
	cache  cache.Cache
	logger *log.Logger
}

// NewClient creates a metadata client. Unset config fields take defaults.
// responses may be nil to disable response caching; logger may be nil.
func NewClient(cfg Config, responses cache.Cache, logger *log.Logger) *Client {
	cfg = cfg.withDefaults()
	if responses == nil {
		responses = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		gate: semaphore.NewWeighted(int64(cfg.MaxConcurrentRequests)),
		policy: httputil.Policy{
			MaxAttempts:   cfg.MaxRetryAttempts,
			Delay:         cfg.RetryDelay,
			BackoffFactor: cfg.RetryBackoffFactor,
			MaxDelay:      cfg.MaxRetryDelay,
			Jitter:        cfg.RetryJitter,
		},
		allow:  httputil.NewAllowedHost(cfg.TrustedHosts...),
		cache:  responses,
		logger: logger,
	}
}

// FetchMetadata retrieves registry metadata for one package version.
//
// It returns an error only for invalid input and for caller cancellation.
// Every other failure (unreachable registry, error statuses, malformed
// JSON, disallowed catalog URLs) is logged and degrades to a minimal
// result carrying just the gallery PackageURL and empty dependency groups,
// so the caller can always render something for the package.
func (c *Client) FetchMetadata(ctx context.Context, id, version string) (*PackageMetadata, error) {
	if err := errors.ValidatePackageID(id); err != nil {
		return nil, err
	}
	if err := errors.ValidatePackageVersion(version); err != nil {
		return nil, err
	}

	meta := &PackageMetadata{
		PackageURL:       c.packageURL(id, version),
		DependencyGroups: []DependencyGroup{},
	}

	start := time.Now()
	degraded := false
	observability.Fetch().OnFetchStart(ctx, id, version)
	defer func() {
		observability.Fetch().OnFetchComplete(ctx, id, version, degraded, time.Since(start))
	}()

	// Weighted.Acquire may succeed without blocking on a done context, and
	// the contract is that an already-cancelled caller issues no requests.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.gate.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.gate.Release(1)

	var doc registrationDocument
	if err := c.getJSON(ctx, c.registrationURL(id, version), &doc); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.warnDegraded(id, version, "registration lookup failed", err)
		degraded = true
		return meta, nil
	}

	catalog, catalogURL, err := c.resolveCatalog(ctx, &doc)
	if err != nil {
		// resolveCatalog only fails on cancellation; everything else is
		// absorbed into a nil catalog with the root as fallback.
		return nil, err
	}
	meta.CatalogURL = catalogURL

	extract(meta, catalog, &doc.catalogDocument)
	return meta, nil
}

// resolveCatalog finds the first usable catalog entry in the document:
// inline entries are used directly, remote entries are fetched at most once
// per call and only when the URL passes the trusted-host check. A
// disallowed URL is treated as no entry at all. Returns a nil document when
// nothing was usable; the error is non-nil only on caller cancellation.
func (c *Client) resolveCatalog(ctx context.Context, doc *registrationDocument) (*catalogDocument, string, error) {
	secondaryDone := false

	for _, entry := range doc.candidates() {
		if entry.Inline != nil {
			return entry.Inline, "", nil
		}

		if entry.Remote == "" || secondaryDone {
			continue
		}
		if !c.allow.Allows(entry.Remote) {
			c.logger.Warn("catalog URL failed trusted-host check, skipping", "url", entry.Remote)
			continue
		}

		secondaryDone = true
		var catalog catalogDocument
		if err := c.getJSON(ctx, entry.Remote, &catalog); err != nil {
			if ctx.Err() != nil {
				return nil, "", ctx.Err()
			}
			c.logger.Warn("catalog document fetch failed", "url", entry.Remote, "error", errors.UserMessage(err))
			continue
		}
		return &catalog, entry.Remote, nil
	}

	return nil, "", nil
}

// getJSON performs a cached, retried GET of a JSON document into v.
func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	if data, ok, _ := c.cache.Get(ctx, url); ok {
		if err := json.Unmarshal(data, v); err == nil {
			observability.Cache().OnCacheHit(ctx, url)
			return nil
		}
		// Corrupt cache entry: drop it and refetch.
		_ = c.cache.Delete(ctx, url)
	}
	observability.Cache().OnCacheMiss(ctx, url)

	body, err := c.get(ctx, url)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "malformed JSON from %s", url)
	}

	if c.cfg.CacheTTL > 0 {
		if err := c.cache.Set(ctx, url, body, c.cfg.CacheTTL); err != nil {
			c.logger.Debug("response cache write failed", "url", url, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, url, len(body))
		}
	}
	return nil
}

// get performs one retried GET and returns the response body. Transient
// statuses and network errors are retried per the client policy; other
// statuses fail immediately. Cancellation is returned as the context error.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	fetch := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "build request for %s", url)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "GET %s", url))
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			if httputil.RetryableStatus(resp.StatusCode) {
				return httputil.Retryable(errors.New(errors.ErrCodeNetwork, "GET %s: status %d", url, resp.StatusCode))
			}
			if resp.StatusCode == http.StatusNotFound {
				return errors.New(errors.ErrCodeNotFound, "GET %s: status 404", url)
			}
			return errors.New(errors.ErrCodeNetwork, "GET %s: status %d", url, resp.StatusCode)
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "read %s", url))
		}
		return nil
	}

	attempt := 0
	var lastErr error
	err := c.policy.Do(ctx, func() error {
		attempt++
		if attempt > 1 {
			observability.Fetch().OnRetry(ctx, url, attempt, lastErr)
		}
		lastErr = fetch()
		return lastErr
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// registrationURL builds the lookup URL. The registration path uses the
// lowercased package id.
func (c *Client) registrationURL(id, version string) string {
	base := strings.TrimRight(c.cfg.RegistryBaseURL, "/")
	return fmt.Sprintf("%s/%s/%s.json", base, strings.ToLower(id), version)
}

// packageURL builds the gallery URL present in every result.
func (c *Client) packageURL(id, version string) string {
	base := strings.TrimRight(c.cfg.GalleryBaseURL, "/")
	return fmt.Sprintf("%s/%s/%s", base, id, version)
}

func (c *Client) warnDegraded(id, version, msg string, err error) {
	c.logger.Warn(msg+", returning minimal metadata",
		"package", id, "version", version, "error", errors.UserMessage(err))
}
