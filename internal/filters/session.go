package filters

import (
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/spauthd/samlchain/internal/chain"
	"github.com/spauthd/samlchain/internal/core/ports"
)

// SessionAuthenticationFilter authenticates requests from the session
// cookie. Authenticated requests carry the session in their context;
// unauthenticated requests for protected resources are redirected to the
// authentication entry point. Requests under the SP endpoint prefix are
// never enforced, only enriched.
type SessionAuthenticationFilter struct {
	matcher      *chain.PathMatcher
	exemptPrefix *chain.PathMatcher
	sessions     ports.SessionStore
	cookie       CookieConfig
	entryPoint   func() string
	metrics      ports.MetricsRecorder
	logger       *zap.Logger
}

// NewSessionAuthenticationFilter creates a session filter. pattern selects
// the protected resources ("/**" for everything); pathPrefix exempts the
// SP's own endpoints from enforcement. entryPoint yields the URL
// unauthenticated users are sent to; it is a function because the entry
// point is registered on the builder after this filter is constructed.
func NewSessionAuthenticationFilter(pattern, pathPrefix string, sessions ports.SessionStore, cookie CookieConfig, entryPoint func() string, metrics ports.MetricsRecorder, logger *zap.Logger) *SessionAuthenticationFilter {
	return &SessionAuthenticationFilter{
		matcher:      chain.NewPathMatcher(pattern),
		exemptPrefix: chain.NewPathMatcher(pathPrefix + "/**"),
		sessions:     sessions,
		cookie:       cookie,
		entryPoint:   entryPoint,
		metrics:      metrics,
		logger:       logger,
	}
}

// Matches reports whether the request is in the filter's protection scope.
func (f *SessionAuthenticationFilter) Matches(r *http.Request) bool {
	return f.matcher.Matches(r)
}

// ServeHTTP authenticates the request or redirects to the entry point.
func (f *SessionAuthenticationFilter) ServeHTTP(w http.ResponseWriter, r *http.Request, next chain.Handler) error {
	if token := f.cookie.read(r); token != "" {
		session, err := f.sessions.Get(token)
		if err == nil {
			f.metrics.RecordSessionValidation(true)
			return next.ServeHTTP(w, WithSession(r, session))
		}
		f.metrics.RecordSessionValidation(false)
		f.logger.Debug("session rejected", zap.Error(err))
	}

	// SP endpoints handle their own authentication flows.
	if f.exemptPrefix.Matches(r) {
		return next.ServeHTTP(w, r)
	}

	http.Redirect(w, r, f.loginURL(r), http.StatusFound)
	return nil
}

// loginURL appends the originally requested URL to the entry point so the
// user lands back where they started after authenticating.
func (f *SessionAuthenticationFilter) loginURL(r *http.Request) string {
	entryPoint := f.entryPoint()
	entry, err := url.Parse(entryPoint)
	if err != nil {
		return entryPoint
	}
	q := entry.Query()
	q.Set("returnUrl", r.URL.RequestURI())
	entry.RawQuery = q.Encode()
	return entry.String()
}

// Interface guard
var _ chain.Filter = (*SessionAuthenticationFilter)(nil)
