package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spauthd/samlchain/internal/core/domain"
	"github.com/spauthd/samlchain/internal/core/ports"
)

const defaultHTTPTimeout = 30 * time.Second

// cacheEntry holds the parsed metadata of one source.
type cacheEntry struct {
	idps         []domain.IdentityProvider
	lastFetch    time.Time
	etag         string
	lastModified string
	fresh        bool
	lastError    error
}

// CachingResolver resolves identity provider metadata from files and URLs,
// caching parsed results per source. On refresh failure, previously cached
// data is preserved and served stale.
type CachingResolver struct {
	cacheTTL          time.Duration
	httpClient        *http.Client
	logger            *zap.Logger
	signatureVerifier ports.SignatureVerifier
	metricsRecorder   ports.MetricsRecorder
	clock             Clock

	mu      sync.RWMutex
	sources map[string]*cacheEntry
}

// NewCachingResolver creates a resolver that refetches each source after
// cacheTTL has elapsed.
func NewCachingResolver(cacheTTL time.Duration, opts ...Option) *CachingResolver {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.clock == nil {
		o.clock = RealClock{}
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	timeout := o.httpTimeout
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}
	return &CachingResolver{
		cacheTTL:          cacheTTL,
		logger:            o.logger,
		signatureVerifier: o.signatureVerifier,
		metricsRecorder:   o.metricsRecorder,
		clock:             o.clock,
		httpClient:        &http.Client{Timeout: timeout},
		sources:           make(map[string]*cacheEntry),
	}
}

// ResolveIdentityProvider materializes the endpoints and certificates of an
// identity provider. Inline-configured providers are returned as-is; others
// are looked up in their metadata source.
func (c *CachingResolver) ResolveIdentityProvider(ctx context.Context, idp *domain.IdentityProvider) (*domain.IdentityProvider, error) {
	if idp.Resolved() {
		return idp, nil
	}
	if idp.MetadataSource == "" {
		return nil, domain.ConfigError(fmt.Sprintf(
			"identity provider %s has neither inline endpoints nor a metadata source", idp.EntityID))
	}

	idps, err := c.identityProvidersFor(ctx, idp.MetadataSource)
	if err != nil {
		return nil, err
	}

	for i := range idps {
		if idps[i].EntityID == idp.EntityID {
			resolved := idps[i]
			// Configured labels win over metadata-derived ones.
			if idp.Alias != "" {
				resolved.Alias = idp.Alias
			}
			if idp.DisplayName != "" {
				resolved.DisplayName = idp.DisplayName
			}
			resolved.MetadataSource = idp.MetadataSource
			return &resolved, nil
		}
	}
	return nil, domain.ProviderNotFoundError(idp.EntityID)
}

// Health returns aggregate health across all sources seen so far.
func (c *CachingResolver) Health() ports.MetadataHealth {
	c.mu.RLock()
	defer c.mu.RUnlock()

	health := ports.MetadataHealth{Fresh: true, Sources: len(c.sources)}
	for _, entry := range c.sources {
		if !entry.fresh {
			health.Fresh = false
			if health.LastError == nil {
				health.LastError = entry.lastError
			}
		}
	}
	return health
}

// identityProvidersFor returns the parsed identity providers of a source,
// refreshing it if the TTL has elapsed. The returned slice is a snapshot
// taken under the lock; refreshes replace the cached slice, never mutate
// it, so callers may iterate it freely.
func (c *CachingResolver) identityProvidersFor(ctx context.Context, source string) ([]domain.IdentityProvider, error) {
	c.mu.RLock()
	entry, ok := c.sources[source]
	if ok && c.clock.Now().Sub(entry.lastFetch) < c.cacheTTL {
		idps := entry.idps
		c.mu.RUnlock()
		return idps, nil
	}
	c.mu.RUnlock()

	return c.refresh(ctx, source)
}

// fetchResult carries one fetch outcome back into the cache.
type fetchResult struct {
	idps         []domain.IdentityProvider
	etag         string
	lastModified string
	notModified  bool
}

// refresh fetches and parses one source, updating the cache. The fetch
// itself runs outside the lock so a slow source cannot stall resolution of
// other sources. Concurrent refreshers of the same source may fetch twice;
// the last write wins.
func (c *CachingResolver) refresh(ctx context.Context, source string) ([]domain.IdentityProvider, error) {
	c.mu.Lock()
	entry, ok := c.sources[source]
	if ok && c.clock.Now().Sub(entry.lastFetch) < c.cacheTTL {
		// Another goroutine refreshed while we waited for the lock.
		idps := entry.idps
		c.mu.Unlock()
		return idps, nil
	}
	if !ok {
		entry = &cacheEntry{}
		c.sources[source] = entry
	}
	etag, lastModified := entry.etag, entry.lastModified
	c.mu.Unlock()

	result, err := c.fetch(ctx, source, etag, lastModified)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		entry.fresh = false
		entry.lastError = err
		c.recordRefresh(source, false)
		c.logger.Warn("metadata refresh failed",
			zap.String("source", source),
			zap.Error(err))
		if len(entry.idps) > 0 {
			// Serve stale data.
			return entry.idps, nil
		}
		return nil, err
	}

	entry.lastFetch = c.clock.Now()
	entry.fresh = true
	entry.lastError = nil
	if !result.notModified {
		entry.idps = result.idps
		entry.etag = result.etag
		entry.lastModified = result.lastModified
	}
	c.recordRefresh(source, true)
	c.logger.Debug("metadata refreshed",
		zap.String("source", source),
		zap.Int("idp_count", len(entry.idps)))
	return entry.idps, nil
}

// fetch loads raw metadata from a URL or file and parses it. notModified is
// set when a conditional HTTP fetch returned 304.
func (c *CachingResolver) fetch(ctx context.Context, source, etag, lastModified string) (*fetchResult, error) {
	result := &fetchResult{}
	var data []byte
	var err error
	if isURL(source) {
		data, err = c.fetchURL(ctx, source, etag, lastModified, result)
		if err != nil || result.notModified {
			return result, err
		}
	} else {
		data, err = os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("read metadata file: %w", err)
		}
	}

	if c.signatureVerifier != nil {
		data, err = c.signatureVerifier.Verify(data)
		if err != nil {
			return nil, fmt.Errorf("verify metadata signature: %w", err)
		}
	}

	result.idps, err = ParseIdentityProviders(data, c.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	return result, nil
}

func (c *CachingResolver) fetchURL(ctx context.Context, source, etag, lastModified string, result *fetchResult) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastModified != "" {
		req.Header.Set("If-Modified-Since", lastModified)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		result.notModified = true
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch metadata: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	result.etag = resp.Header.Get("ETag")
	result.lastModified = resp.Header.Get("Last-Modified")
	return data, nil
}

func (c *CachingResolver) recordRefresh(source string, success bool) {
	if c.metricsRecorder == nil {
		return
	}
	kind := "file"
	if isURL(source) {
		kind = "url"
	}
	c.metricsRecorder.RecordMetadataRefresh(kind, success)
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Interface guard
var _ ports.MetadataResolver = (*CachingResolver)(nil)
