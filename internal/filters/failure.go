package filters

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spauthd/samlchain/internal/chain"
	"github.com/spauthd/samlchain/internal/core/domain"
	"github.com/spauthd/samlchain/internal/core/ports"
)

// FailureFilter translates errors escaping the SP endpoint filters into
// rendered error pages, or JSON for API clients. Errors it does not
// recognize propagate to the chain's terminal error handling.
type FailureFilter struct {
	matcher   *chain.PathMatcher
	templates ports.TemplateEngine
	logger    *zap.Logger
}

// NewFailureFilter creates a failure filter for all paths under pathPrefix.
func NewFailureFilter(pathPrefix string, templates ports.TemplateEngine, logger *zap.Logger) *FailureFilter {
	return &FailureFilter{
		matcher:   chain.NewPathMatcher(pathPrefix + "/**"),
		templates: templates,
		logger:    logger,
	}
}

// Matches reports whether the request targets an SP endpoint.
func (f *FailureFilter) Matches(r *http.Request) bool {
	return f.matcher.Matches(r)
}

// ServeHTTP invokes the rest of the chain and renders structured errors.
func (f *FailureFilter) ServeHTTP(w http.ResponseWriter, r *http.Request, next chain.Handler) error {
	err := next.ServeHTTP(w, r)
	if err == nil {
		return nil
	}

	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		return err
	}

	f.logger.Warn("request failed",
		zap.String("path", r.URL.Path),
		zap.String("code", appErr.Code.String()),
		zap.Error(appErr))

	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(appErr.Code.HTTPStatus())
		return json.NewEncoder(w).Encode(domain.NewJSONErrorResponse(appErr))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(appErr.Code.HTTPStatus())
	return f.templates.RenderError(w, ports.ErrorData{
		Title:   appErr.Code.Title(),
		Message: appErr.Message,
	})
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

// Interface guard
var _ chain.Filter = (*FailureFilter)(nil)
