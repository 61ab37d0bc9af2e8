// Package caddysp registers the saml_sp Caddy handler module. Import it
// from a custom Caddy build (xcaddy --with) to make the directive
// available:
//
//	import _ "github.com/spauthd/samlchain/caddysp"
package caddysp

import (
	"net/http"

	"github.com/caddyserver/caddy/v2/caddyconfig/httpcaddyfile"

	samlchain "github.com/spauthd/samlchain"
	"github.com/spauthd/samlchain/internal/adapters/driving/caddy"

	_ "github.com/spauthd/samlchain/crewjam"
)

func init() {
	httpcaddyfile.RegisterHandlerDirective("saml_sp", caddy.ParseCaddyfile)
	httpcaddyfile.RegisterDirectiveOrder("saml_sp", httpcaddyfile.Before, "respond")
}

// SAMLSP is the Caddy handler module type.
type SAMLSP = caddy.SAMLSP

// GetSession retrieves the authenticated session from the request context.
// Returns nil for unauthenticated requests.
func GetSession(r *http.Request) *samlchain.Session {
	return caddy.GetSession(r)
}
