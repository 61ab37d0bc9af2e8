package filters

import (
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/spauthd/samlchain/internal/chain"
	"github.com/spauthd/samlchain/internal/core/domain"
	"github.com/spauthd/samlchain/internal/core/ports"
)

// SelectProviderFilter renders the identity provider selection page at
// {prefix}/select. When only one provider is configured and redirection is
// enabled, the user is sent straight to the authentication request
// endpoint instead.
type SelectProviderFilter struct {
	matcher                  *chain.PathMatcher
	pathPrefix               string
	templates                ports.TemplateEngine
	redirectOnSingleProvider bool
	logger                   *zap.Logger
}

// NewSelectProviderFilter creates a selection filter for pathPrefix.
func NewSelectProviderFilter(pathPrefix string, templates ports.TemplateEngine, redirectOnSingleProvider bool, logger *zap.Logger) *SelectProviderFilter {
	return &SelectProviderFilter{
		matcher:                  chain.NewPathMatcher(pathPrefix + "/select/**"),
		pathPrefix:               pathPrefix,
		templates:                templates,
		redirectOnSingleProvider: redirectOnSingleProvider,
		logger:                   logger,
	}
}

// Matches reports whether the request targets the selection endpoint.
func (f *SelectProviderFilter) Matches(r *http.Request) bool {
	return f.matcher.Matches(r)
}

// ServeHTTP renders the selection page or short-circuits to the single
// configured provider.
func (f *SelectProviderFilter) ServeHTTP(w http.ResponseWriter, r *http.Request, next chain.Handler) error {
	hp := HostedProviderFrom(r.Context())
	if hp == nil {
		return domain.ServiceError("No hosted provider resolved for request")
	}

	returnURL := domain.ValidateRelayState(r.URL.Query().Get("returnUrl"))
	if returnURL == "/" {
		returnURL = ""
	}

	redirectRequested := r.URL.Query().Get("redirect") == "true"
	if (f.redirectOnSingleProvider || redirectRequested) && len(hp.Providers) == 1 {
		target := f.discoveryURL(&hp.Providers[0], returnURL)
		f.logger.Debug("single provider, skipping selection",
			zap.String("idp_entity_id", hp.Providers[0].EntityID))
		http.Redirect(w, r, target, http.StatusFound)
		return nil
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return f.templates.RenderSelect(w, ports.SelectData{
		Providers:     hp.Providers,
		DiscoveryPath: f.pathPrefix + "/discovery",
		ReturnURL:     returnURL,
	})
}

func (f *SelectProviderFilter) discoveryURL(idp *domain.IdentityProvider, returnURL string) string {
	q := url.Values{}
	q.Set("idp", idp.EntityID)
	if returnURL != "" {
		q.Set("redirect", returnURL)
	}
	return f.pathPrefix + "/discovery?" + q.Encode()
}

// Interface guard
var _ chain.Filter = (*SelectProviderFilter)(nil)
