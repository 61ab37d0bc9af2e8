package ports

import (
	"io"

	"github.com/spauthd/samlchain/internal/core/domain"
)

// SelectData holds data for rendering the provider selection page.
type SelectData struct {
	// Providers are the identity providers available for selection.
	Providers []domain.IdentityProvider

	// DiscoveryPath is the path of the authentication request endpoint
	// selection links point at.
	DiscoveryPath string

	// ReturnURL is where to send the user after authentication.
	ReturnURL string
}

// PostData holds data for rendering an HTTP-POST binding auto-submit form.
type PostData struct {
	// Action is the destination endpoint URL.
	Action string

	// SAMLRequest or SAMLResponse carries the base64-encoded message;
	// exactly one is set.
	SAMLRequest  string
	SAMLResponse string

	// RelayState accompanies the message.
	RelayState string
}

// ErrorData holds data for rendering error pages.
type ErrorData struct {
	Title   string
	Message string
}

// TemplateEngine renders the HTML surfaces of the SP: the provider
// selection page, POST-binding forms, and error pages.
type TemplateEngine interface {
	RenderSelect(w io.Writer, data SelectData) error
	RenderPost(w io.Writer, data PostData) error
	RenderError(w io.Writer, data ErrorData) error
}
