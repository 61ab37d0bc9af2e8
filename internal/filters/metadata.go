package filters

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/spauthd/samlchain/internal/chain"
	"github.com/spauthd/samlchain/internal/core/domain"
	"github.com/spauthd/samlchain/internal/core/ports"
)

// MetadataFilter serves the SP EntityDescriptor at {prefix}/metadata.
type MetadataFilter struct {
	matcher     *chain.PathMatcher
	transformer ports.Transformer
	logger      *zap.Logger
}

// NewMetadataFilter creates a metadata filter for pathPrefix.
func NewMetadataFilter(pathPrefix string, transformer ports.Transformer, logger *zap.Logger) *MetadataFilter {
	return &MetadataFilter{
		matcher:     chain.NewPathMatcher(pathPrefix + "/metadata/**"),
		transformer: transformer,
		logger:      logger,
	}
}

// Matches reports whether the request targets the metadata endpoint.
func (f *MetadataFilter) Matches(r *http.Request) bool {
	return f.matcher.Matches(r)
}

// ServeHTTP renders the SP metadata document.
func (f *MetadataFilter) ServeHTTP(w http.ResponseWriter, r *http.Request, next chain.Handler) error {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		return &domain.AppError{
			Code:    domain.ErrCodeMethodNotAllowed,
			Message: "Metadata is only served for GET requests",
		}
	}

	hp := HostedProviderFrom(r.Context())
	if hp == nil {
		return domain.ServiceError("No hosted provider resolved for request")
	}

	data, err := f.transformer.SPMetadata(hp)
	if err != nil {
		return &domain.AppError{
			Code:    domain.ErrCodeServiceError,
			Message: "The service provider metadata could not be generated",
			Cause:   err,
		}
	}

	w.Header().Set("Content-Type", "application/samlmetadata+xml")
	w.Header().Set("Content-Disposition", `attachment; filename="metadata.xml"`)
	if _, err := w.Write(data); err != nil {
		f.logger.Debug("metadata write failed", zap.Error(err))
	}
	return nil
}

// Interface guard
var _ chain.Filter = (*MetadataFilter)(nil)
