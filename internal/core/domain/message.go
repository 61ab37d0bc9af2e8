package domain

import (
	"net/url"
	"strings"
)

// MessageKind identifies the type of an inbound SAML protocol message.
type MessageKind string

const (
	MessageAuthnRequest   MessageKind = "AuthnRequest"
	MessageResponse       MessageKind = "Response"
	MessageLogoutRequest  MessageKind = "LogoutRequest"
	MessageLogoutResponse MessageKind = "LogoutResponse"
)

// Message is the envelope for a decoded inbound SAML protocol message.
// The processing filter attaches it to the request context; downstream
// filters perform full validation before trusting any field.
type Message struct {
	// Kind is the root element of the decoded message.
	Kind MessageKind

	// ID is the message ID attribute.
	ID string

	// Issuer is the entity ID of the message issuer.
	Issuer string

	// InResponseTo references the request this message answers, if any.
	InResponseTo string

	// RelayState is the accompanying RelayState parameter, unvalidated.
	RelayState string

	// Binding is the binding the message arrived on.
	Binding string

	// Raw is the decoded (inflated) XML document.
	Raw []byte
}

// RedirectMessage is an outbound SAML message encoded for the
// HTTP-Redirect binding.
type RedirectMessage struct {
	// ID is the generated message ID, tracked for replay protection.
	ID string

	// URL carries the deflated, base64- and URL-encoded message.
	URL *url.URL
}

// ValidateRelayState ensures the RelayState is a safe relative path,
// returning "/" for anything absolute, protocol-relative, or otherwise
// usable for an open redirect.
func ValidateRelayState(relayState string) string {
	relayState = strings.TrimSpace(relayState)
	if relayState == "" {
		return "/"
	}

	// Must be a relative path; reject protocol-relative URLs (//evil.com).
	if !strings.HasPrefix(relayState, "/") || strings.HasPrefix(relayState, "//") {
		return "/"
	}

	parsed, err := url.Parse(relayState)
	if err != nil {
		return "/"
	}
	if parsed.Scheme != "" || parsed.Host != "" {
		return "/"
	}

	// Reject header injection.
	if strings.ContainsAny(relayState, "\r\n") {
		return "/"
	}

	// Re-check after decoding so encoded slashes cannot smuggle a
	// protocol-relative URL through.
	decoded, err := url.QueryUnescape(relayState)
	if err != nil {
		return "/"
	}
	if strings.HasPrefix(decoded, "//") {
		return "/"
	}

	return relayState
}
