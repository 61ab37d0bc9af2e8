package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spauthd/samlchain/internal/core/domain"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// metadataServer serves IdP metadata and counts fetches.
type metadataServer struct {
	mu      sync.Mutex
	body    string
	status  int
	etag    string
	fetches int
	server  *httptest.Server
}

func newMetadataServer(body string) *metadataServer {
	ms := &metadataServer{body: body, status: http.StatusOK}
	ms.server = httptest.NewServer(http.HandlerFunc(ms.handle))
	return ms
}

func (ms *metadataServer) handle(w http.ResponseWriter, r *http.Request) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.fetches++

	if ms.etag != "" && r.Header.Get("If-None-Match") == ms.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	if ms.status != http.StatusOK {
		w.WriteHeader(ms.status)
		return
	}
	if ms.etag != "" {
		w.Header().Set("ETag", ms.etag)
	}
	w.Write([]byte(ms.body))
}

func (ms *metadataServer) Fetches() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.fetches
}

func (ms *metadataServer) SetStatus(code int) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.status = code
}

func unresolvedIdP(source string) *domain.IdentityProvider {
	return &domain.IdentityProvider{
		EntityID:       "https://idp.example.com",
		MetadataSource: source,
	}
}

func TestCachingResolver_InlineProvidersPassThrough(t *testing.T) {
	resolver := NewCachingResolver(time.Hour)

	inline := &domain.IdentityProvider{
		EntityID:     "https://idp.example.com",
		SSOURL:       "https://idp.example.com/sso",
		Certificates: []string{"cert"},
	}
	got, err := resolver.ResolveIdentityProvider(context.Background(), inline)
	if err != nil {
		t.Fatalf("ResolveIdentityProvider failed: %v", err)
	}
	if got != inline {
		t.Error("inline providers should be returned as-is")
	}
}

func TestCachingResolver_NoSource(t *testing.T) {
	resolver := NewCachingResolver(time.Hour)
	_, err := resolver.ResolveIdentityProvider(context.Background(),
		&domain.IdentityProvider{EntityID: "https://idp.example.com"})
	if err == nil {
		t.Error("expected error for provider without endpoints or source")
	}
}

func TestCachingResolver_FetchAndCache(t *testing.T) {
	ms := newMetadataServer(idpMetadata("https://idp.example.com"))
	defer ms.server.Close()

	clock := newFakeClock()
	resolver := NewCachingResolver(time.Hour, WithClock(clock))

	for i := 0; i < 3; i++ {
		got, err := resolver.ResolveIdentityProvider(context.Background(), unresolvedIdP(ms.server.URL))
		if err != nil {
			t.Fatalf("resolve %d failed: %v", i, err)
		}
		if got.SSOURL != "https://idp.example.com/sso" {
			t.Errorf("SSOURL = %q", got.SSOURL)
		}
	}

	if ms.Fetches() != 1 {
		t.Errorf("fetches = %d, want 1 (cache hit within TTL)", ms.Fetches())
	}

	clock.Advance(2 * time.Hour)
	if _, err := resolver.ResolveIdentityProvider(context.Background(), unresolvedIdP(ms.server.URL)); err != nil {
		t.Fatalf("resolve after TTL failed: %v", err)
	}
	if ms.Fetches() != 2 {
		t.Errorf("fetches = %d, want 2 after TTL expiry", ms.Fetches())
	}
}

func TestCachingResolver_ConfiguredLabelsWin(t *testing.T) {
	ms := newMetadataServer(idpMetadata("https://idp.example.com"))
	defer ms.server.Close()

	resolver := NewCachingResolver(time.Hour)
	idp := unresolvedIdP(ms.server.URL)
	idp.DisplayName = "Configured Name"

	got, err := resolver.ResolveIdentityProvider(context.Background(), idp)
	if err != nil {
		t.Fatalf("ResolveIdentityProvider failed: %v", err)
	}
	if got.DisplayName != "Configured Name" {
		t.Errorf("DisplayName = %q, configured label should win over metadata", got.DisplayName)
	}
}

func TestCachingResolver_ServesStaleOnFailure(t *testing.T) {
	ms := newMetadataServer(idpMetadata("https://idp.example.com"))
	defer ms.server.Close()

	clock := newFakeClock()
	resolver := NewCachingResolver(time.Hour, WithClock(clock))

	if _, err := resolver.ResolveIdentityProvider(context.Background(), unresolvedIdP(ms.server.URL)); err != nil {
		t.Fatalf("initial resolve failed: %v", err)
	}

	ms.SetStatus(http.StatusInternalServerError)
	clock.Advance(2 * time.Hour)

	got, err := resolver.ResolveIdentityProvider(context.Background(), unresolvedIdP(ms.server.URL))
	if err != nil {
		t.Fatalf("resolve after upstream failure = %v, want stale data", err)
	}
	if got.SSOURL != "https://idp.example.com/sso" {
		t.Errorf("SSOURL = %q", got.SSOURL)
	}

	health := resolver.Health()
	if health.Fresh {
		t.Error("health should report stale metadata")
	}
	if health.LastError == nil {
		t.Error("health should carry the refresh error")
	}
	if health.Sources != 1 {
		t.Errorf("Sources = %d, want 1", health.Sources)
	}
}

func TestCachingResolver_FailureWithoutCacheIsFatal(t *testing.T) {
	ms := newMetadataServer("")
	defer ms.server.Close()
	ms.SetStatus(http.StatusInternalServerError)

	resolver := NewCachingResolver(time.Hour)
	if _, err := resolver.ResolveIdentityProvider(context.Background(), unresolvedIdP(ms.server.URL)); err == nil {
		t.Error("expected error when no cached data exists")
	}
}

func TestCachingResolver_NotModified(t *testing.T) {
	ms := newMetadataServer(idpMetadata("https://idp.example.com"))
	ms.etag = `"v1"`
	defer ms.server.Close()

	clock := newFakeClock()
	resolver := NewCachingResolver(time.Hour, WithClock(clock))

	if _, err := resolver.ResolveIdentityProvider(context.Background(), unresolvedIdP(ms.server.URL)); err != nil {
		t.Fatalf("initial resolve failed: %v", err)
	}

	clock.Advance(2 * time.Hour)
	got, err := resolver.ResolveIdentityProvider(context.Background(), unresolvedIdP(ms.server.URL))
	if err != nil {
		t.Fatalf("resolve after 304 failed: %v", err)
	}
	if got.SSOURL != "https://idp.example.com/sso" {
		t.Errorf("SSOURL = %q, cached data should survive a 304", got.SSOURL)
	}
	if ms.Fetches() != 2 {
		t.Errorf("fetches = %d, want 2", ms.Fetches())
	}
	if health := resolver.Health(); !health.Fresh {
		t.Error("a 304 refresh should count as fresh")
	}
}

func TestCachingResolver_FileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idp.xml")
	if err := os.WriteFile(path, []byte(idpMetadata("https://idp.example.com")), 0o644); err != nil {
		t.Fatalf("write metadata file: %v", err)
	}

	resolver := NewCachingResolver(time.Hour)
	got, err := resolver.ResolveIdentityProvider(context.Background(), unresolvedIdP(path))
	if err != nil {
		t.Fatalf("ResolveIdentityProvider failed: %v", err)
	}
	if got.SSOURL != "https://idp.example.com/sso" {
		t.Errorf("SSOURL = %q", got.SSOURL)
	}
}

func TestCachingResolver_ConcurrentResolution(t *testing.T) {
	ms := newMetadataServer(idpMetadata("https://idp.example.com"))
	defer ms.server.Close()

	// A tiny TTL forces cache reads to interleave with refreshes. Run with
	// -race to catch unsynchronized access to the cached slices.
	resolver := NewCachingResolver(500 * time.Microsecond)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				got, err := resolver.ResolveIdentityProvider(context.Background(), unresolvedIdP(ms.server.URL))
				if err != nil {
					t.Errorf("concurrent resolve failed: %v", err)
					return
				}
				if got.SSOURL != "https://idp.example.com/sso" {
					t.Errorf("SSOURL = %q", got.SSOURL)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestCachingResolver_UnknownEntityInSource(t *testing.T) {
	ms := newMetadataServer(idpMetadata("https://idp.example.com"))
	defer ms.server.Close()

	resolver := NewCachingResolver(time.Hour)
	idp := unresolvedIdP(ms.server.URL)
	idp.EntityID = "https://other.example.com"

	if _, err := resolver.ResolveIdentityProvider(context.Background(), idp); err == nil {
		t.Error("expected error when the entity is absent from the source")
	}
}
