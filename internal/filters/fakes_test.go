package filters

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/spauthd/samlchain/internal/chain"
	"github.com/spauthd/samlchain/internal/core/domain"
	"github.com/spauthd/samlchain/internal/core/ports"
)

const testPrefix = "/saml/sp"

func testHostedProvider(t *testing.T, idps ...domain.IdentityProvider) *domain.HostedProvider {
	t.Helper()
	base, err := url.Parse("https://sp.example.com")
	if err != nil {
		t.Fatalf("parse base URL: %v", err)
	}
	if len(idps) == 0 {
		idps = []domain.IdentityProvider{{
			EntityID:     "https://idp.example.org/metadata",
			DisplayName:  "Example IdP",
			SSOURL:       "https://idp.example.org/sso",
			SSOBinding:   domain.HTTPRedirectBinding,
			Certificates: []string{"TUlJQ2NlcnQ="},
		}}
	}
	return &domain.HostedProvider{
		EntityID:   "https://sp.example.com/saml/sp/metadata",
		PathPrefix: testPrefix,
		BaseURL:    base,
		Providers:  idps,
	}
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse URL %q: %v", raw, err)
	}
	return u
}

// terminal is a chain terminal that records whether it was reached.
type terminal struct {
	called bool
	req    *http.Request
}

func (h *terminal) ServeHTTP(w http.ResponseWriter, r *http.Request) error {
	h.called = true
	h.req = r
	return nil
}

type fakeTransformer struct {
	metadata      []byte
	metadataErr   error
	authnMsg      *domain.RedirectMessage
	authnErr      error
	logoutReqMsg  *domain.RedirectMessage
	logoutReqErr  error
	logoutRespMsg *domain.RedirectMessage
	logoutRespErr error
	decodeMsg     *domain.Message
	decodeErr     error
}

func (f *fakeTransformer) SPMetadata(*domain.HostedProvider) ([]byte, error) {
	return f.metadata, f.metadataErr
}

func (f *fakeTransformer) AuthenticationRequest(*domain.HostedProvider, *domain.IdentityProvider, string, domain.AuthnOptions) (*domain.RedirectMessage, error) {
	return f.authnMsg, f.authnErr
}

func (f *fakeTransformer) LogoutRequest(*domain.HostedProvider, *domain.IdentityProvider, *domain.Session, string) (*domain.RedirectMessage, error) {
	return f.logoutReqMsg, f.logoutReqErr
}

func (f *fakeTransformer) LogoutResponse(*domain.HostedProvider, *domain.IdentityProvider, string, string) (*domain.RedirectMessage, error) {
	return f.logoutRespMsg, f.logoutRespErr
}

func (f *fakeTransformer) DecodeMessage(*http.Request) (*domain.Message, error) {
	return f.decodeMsg, f.decodeErr
}

type fakeValidator struct {
	assertion     *domain.Assertion
	responseErr   error
	logoutReq     *domain.Message
	logoutReqErr  error
	logoutRespErr error
}

func (f *fakeValidator) ValidateResponse(*http.Request, *domain.HostedProvider, *domain.IdentityProvider, []string) (*domain.Assertion, error) {
	return f.assertion, f.responseErr
}

func (f *fakeValidator) ValidateLogoutRequest(*http.Request, *domain.HostedProvider, *domain.IdentityProvider) (*domain.Message, error) {
	return f.logoutReq, f.logoutReqErr
}

func (f *fakeValidator) ValidateLogoutResponse(*http.Request, *domain.HostedProvider, *domain.IdentityProvider) error {
	return f.logoutRespErr
}

type fakeResolver struct {
	hp  *domain.HostedProvider
	err error
}

func (f *fakeResolver) Resolve(*http.Request) (*domain.HostedProvider, error) { return f.hp, f.err }

func (f *fakeResolver) PathPrefix() string { return testPrefix }

type fakeSessionStore struct {
	sessions  map[string]*domain.Session
	nextToken string
	createErr error
	deleted   []string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]*domain.Session{}, nextToken: "tok-1"}
}

func (f *fakeSessionStore) Create(s *domain.Session) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.sessions[f.nextToken] = s
	return f.nextToken, nil
}

func (f *fakeSessionStore) Get(token string) (*domain.Session, error) {
	s, ok := f.sessions[token]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessionStore) Delete(token string) error {
	f.deleted = append(f.deleted, token)
	delete(f.sessions, token)
	return nil
}

type fakeRequestStore struct {
	ids map[string]bool
}

func newFakeRequestStore(ids ...string) *fakeRequestStore {
	f := &fakeRequestStore{ids: map[string]bool{}}
	for _, id := range ids {
		f.ids[id] = true
	}
	return f
}

func (f *fakeRequestStore) Store(id string, _ time.Time) error {
	f.ids[id] = true
	return nil
}

func (f *fakeRequestStore) Valid(id string) bool {
	ok := f.ids[id]
	delete(f.ids, id)
	return ok
}

func (f *fakeRequestStore) GetAll() []string {
	var out []string
	for id := range f.ids {
		out = append(out, id)
	}
	return out
}

type countingMetrics struct {
	authSuccess     int
	authFailure     int
	sessionsCreated int
	validValid      int
	validInvalid    int
	logouts         map[string]int
	refreshes       int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{logouts: map[string]int{}}
}

func (m *countingMetrics) RecordAuthAttempt(_ string, success bool) {
	if success {
		m.authSuccess++
	} else {
		m.authFailure++
	}
}

func (m *countingMetrics) RecordSessionCreated() { m.sessionsCreated++ }

func (m *countingMetrics) RecordSessionValidation(valid bool) {
	if valid {
		m.validValid++
	} else {
		m.validInvalid++
	}
}

func (m *countingMetrics) RecordLogout(kind string) { m.logouts[kind]++ }

func (m *countingMetrics) RecordMetadataRefresh(string, bool) { m.refreshes++ }

// Interface guards for the fakes.
var (
	_ ports.Transformer      = (*fakeTransformer)(nil)
	_ ports.Validator        = (*fakeValidator)(nil)
	_ ports.ProviderResolver = (*fakeResolver)(nil)
	_ ports.SessionStore     = (*fakeSessionStore)(nil)
	_ ports.RequestStore     = (*fakeRequestStore)(nil)
	_ ports.MetricsRecorder  = (*countingMetrics)(nil)
	_ chain.Handler          = (*terminal)(nil)
)
