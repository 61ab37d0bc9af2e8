package filters

import (
	"net/http"
	"time"
)

// CookieConfig controls the session cookie written after authentication.
type CookieConfig struct {
	// Name of the session cookie. Defaults to "saml_session".
	Name string

	// Path scope of the cookie. Defaults to "/".
	Path string

	// Secure marks the cookie for HTTPS-only transmission.
	Secure bool
}

// DefaultCookieConfig returns the default session cookie settings.
func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		Name:   "saml_session",
		Path:   "/",
		Secure: true,
	}
}

func (c CookieConfig) set(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     c.Path,
		Expires:  expires,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c CookieConfig) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     c.Path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c CookieConfig) read(r *http.Request) string {
	cookie, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
