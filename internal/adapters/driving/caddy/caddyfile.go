package caddy

import (
	"github.com/caddyserver/caddy/v2/caddyconfig/caddyfile"
	"github.com/caddyserver/caddy/v2/caddyconfig/httpcaddyfile"
	"github.com/caddyserver/caddy/v2/modules/caddyhttp"

	"github.com/spauthd/samlchain/internal/adapters/driven/provider"
	"github.com/spauthd/samlchain/internal/core/domain"
)

// ParseCaddyfile sets up the handler from Caddyfile tokens.
//
// Syntax:
//
//	saml_sp {
//	    entity_id <entity_id>
//	    path_prefix <prefix>
//	    base_url <url>
//	    key_file <path>
//	    cert_file <path>
//	    sign_requests
//	    name_id_format <format>
//	    session_duration <duration>
//	    session_cookie_name <name>
//	    session_cookie_insecure
//	    metadata_cache_ttl <duration>
//	    templates_dir <path>
//	    verify_metadata_signature
//	    metadata_signing_cert <path>
//	    metrics_enabled
//	    protect <pattern>
//	    redirect_on_single_provider
//	    force_authn
//	    authn_context <uri...>
//	    authn_context_comparison <comparison>
//	    identity_provider <entity_id> {
//	        alias <alias>
//	        display_name <name>
//	        sso_url <url>
//	        sso_binding redirect|post
//	        slo_url <url>
//	        slo_binding redirect|post
//	        certificate <base64-der>
//	        metadata_url <url>
//	        metadata_file <path>
//	    }
//	}
func ParseCaddyfile(h httpcaddyfile.Helper) (caddyhttp.MiddlewareHandler, error) {
	var s SAMLSP
	err := s.UnmarshalCaddyfile(h.Dispenser)
	return &s, err
}

// UnmarshalCaddyfile implements caddyfile.Unmarshaler.
func (s *SAMLSP) UnmarshalCaddyfile(d *caddyfile.Dispenser) error {
	d.Next() // consume directive name

	for d.NextBlock(0) {
		switch d.Val() {
		case "entity_id":
			if !d.AllArgs(&s.EntityID) {
				return d.ArgErr()
			}
		case "path_prefix":
			if !d.AllArgs(&s.PathPrefix) {
				return d.ArgErr()
			}
		case "base_url":
			if !d.AllArgs(&s.BaseURL) {
				return d.ArgErr()
			}
		case "key_file":
			if !d.AllArgs(&s.KeyFile) {
				return d.ArgErr()
			}
		case "cert_file":
			if !d.AllArgs(&s.CertFile) {
				return d.ArgErr()
			}
		case "sign_requests":
			s.SignRequests = true
		case "name_id_format":
			if !d.AllArgs(&s.NameIDFormat) {
				return d.ArgErr()
			}
		case "session_duration":
			if !d.AllArgs(&s.SessionDuration) {
				return d.ArgErr()
			}
		case "session_cookie_name":
			if !d.AllArgs(&s.SessionCookieName) {
				return d.ArgErr()
			}
		case "session_cookie_insecure":
			s.SessionCookieInsecure = true
		case "metadata_cache_ttl":
			if !d.AllArgs(&s.MetadataCacheTTL) {
				return d.ArgErr()
			}
		case "templates_dir":
			if !d.AllArgs(&s.TemplatesDir) {
				return d.ArgErr()
			}
		case "verify_metadata_signature":
			s.VerifyMetadataSignature = true
		case "metadata_signing_cert":
			if !d.AllArgs(&s.MetadataSigningCert) {
				return d.ArgErr()
			}
		case "metrics_enabled":
			s.MetricsEnabled = true
		case "protect":
			if !d.AllArgs(&s.Protect) {
				return d.ArgErr()
			}
		case "redirect_on_single_provider":
			s.RedirectOnSingleProvider = true
		case "force_authn":
			s.ForceAuthn = true
		case "authn_context":
			args := d.RemainingArgs()
			if len(args) == 0 {
				return d.ArgErr()
			}
			s.RequestedAuthnContext = append(s.RequestedAuthnContext, args...)
		case "authn_context_comparison":
			if !d.AllArgs(&s.AuthnContextComparison) {
				return d.ArgErr()
			}
		case "identity_provider":
			idp := provider.IdPConfig{}
			if !d.NextArg() {
				return d.ArgErr()
			}
			idp.EntityID = d.Val()
			if err := s.parseIdPBlock(d, &idp); err != nil {
				return err
			}
			s.IdentityProviders = append(s.IdentityProviders, idp)
		default:
			return d.Errf("unrecognized subdirective %q", d.Val())
		}
	}
	return nil
}

func (s *SAMLSP) parseIdPBlock(d *caddyfile.Dispenser, idp *provider.IdPConfig) error {
	for nesting := d.Nesting(); d.NextBlock(nesting); {
		switch d.Val() {
		case "alias":
			if !d.AllArgs(&idp.Alias) {
				return d.ArgErr()
			}
		case "display_name":
			if !d.AllArgs(&idp.DisplayName) {
				return d.ArgErr()
			}
		case "sso_url":
			if !d.AllArgs(&idp.SSOURL) {
				return d.ArgErr()
			}
		case "sso_binding":
			if !d.NextArg() {
				return d.ArgErr()
			}
			binding, err := parseBinding(d)
			if err != nil {
				return err
			}
			idp.SSOBinding = binding
		case "slo_url":
			if !d.AllArgs(&idp.SLOURL) {
				return d.ArgErr()
			}
		case "slo_binding":
			if !d.NextArg() {
				return d.ArgErr()
			}
			binding, err := parseBinding(d)
			if err != nil {
				return err
			}
			idp.SLOBinding = binding
		case "certificate":
			if !d.NextArg() {
				return d.ArgErr()
			}
			idp.Certificates = append(idp.Certificates, d.Val())
		case "metadata_url":
			if !d.AllArgs(&idp.MetadataURL) {
				return d.ArgErr()
			}
		case "metadata_file":
			if !d.AllArgs(&idp.MetadataFile) {
				return d.ArgErr()
			}
		default:
			return d.Errf("unrecognized identity_provider subdirective %q", d.Val())
		}
	}
	return nil
}

func parseBinding(d *caddyfile.Dispenser) (string, error) {
	switch d.Val() {
	case "redirect":
		return domain.HTTPRedirectBinding, nil
	case "post":
		return domain.HTTPPostBinding, nil
	default:
		return "", d.Errf("unknown binding %q (expected \"redirect\" or \"post\")", d.Val())
	}
}
