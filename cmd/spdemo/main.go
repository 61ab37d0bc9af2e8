// Command spdemo runs a minimal web application protected by the SAML SP
// filter chain. It serves a public landing page, a protected /app page
// showing the authenticated session, and Prometheus metrics.
//
// Usage:
//
//	go run ./cmd/spdemo \
//	    -entity-id https://sp.example.com \
//	    -base-url http://localhost:9080 \
//	    -idp-entity-id https://idp.example.com/metadata \
//	    -idp-metadata http://localhost:8443/metadata
package main

import (
	"crypto/rand"
	"crypto/rsa"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	samlchain "github.com/spauthd/samlchain"
	_ "github.com/spauthd/samlchain/crewjam"
)

func main() {
	listen := flag.String("listen", ":9080", "address to listen on")
	entityID := flag.String("entity-id", "https://sp.example.com", "SP entity ID")
	baseURL := flag.String("base-url", "http://localhost:9080", "external base URL of the SP")
	pathPrefix := flag.String("path-prefix", samlchain.DefaultPathPrefix, "URL prefix for SP endpoints")
	idpEntityID := flag.String("idp-entity-id", "", "entity ID of the identity provider")
	idpMetadata := flag.String("idp-metadata", "", "URL or file with the IdP metadata")
	keyFile := flag.String("key-file", "", "SP private key (PEM); ephemeral if unset")
	certFile := flag.String("cert-file", "", "SP certificate (PEM)")
	sessionTTL := flag.Duration("session-duration", 8*time.Hour, "session lifetime")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	if *idpEntityID == "" || *idpMetadata == "" {
		logger.Fatal("-idp-entity-id and -idp-metadata are required")
	}

	cfg := samlchain.Config{
		EntityID:   *entityID,
		BaseURL:    *baseURL,
		PathPrefix: *pathPrefix,
		KeyFile:    *keyFile,
		CertFile:   *certFile,
		IdentityProviders: []samlchain.IdPConfig{
			{EntityID: *idpEntityID, MetadataURL: *idpMetadata},
		},
	}
	configuration, err := samlchain.NewStaticConfigurationResolver(&cfg)
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	sessionKey, err := loadOrGenerateKey(*keyFile, logger)
	if err != nil {
		logger.Fatal("load session key", zap.Error(err))
	}
	sessions := samlchain.NewCookieSessionStore(sessionKey, *sessionTTL)
	recorder := samlchain.NewPrometheusRecorder()

	cookie := samlchain.DefaultCookieConfig()
	cookie.Secure = false // local demo over plain HTTP

	builder := samlchain.NewBuilder(samlchain.WithBuilderLogger(logger))
	sessionFilter := samlchain.NewSessionAuthenticationFilter(
		"/app/**", configuration.PathPrefix(), sessions, cookie,
		builder.AuthenticationEntryPoint, recorder, logger)
	if err := builder.AddFilter("sessionAuthentication", sessionFilter); err != nil {
		logger.Fatal("register session filter", zap.Error(err))
	}

	configurer := samlchain.NewConfigurer().
		WithConfigurationResolver(configuration).
		WithSessionStore(sessions).
		WithMetricsRecorder(recorder).
		WithCookie(cookie).
		WithSessionTTL(*sessionTTL).
		AfterFilter("sessionAuthentication").
		WithLogger(logger)
	if err := configurer.Apply(builder); err != nil {
		logger.Fatal("configure SAML SP chain", zap.Error(err))
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return builder.HTTPHandler(samlchain.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
			next.ServeHTTP(w, r)
			return nil
		}))
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/", home(configuration.PathPrefix()))
	r.Get("/app", protectedApp)

	logger.Info("SP demo listening",
		zap.String("addr", *listen),
		zap.String("metadata", *baseURL+configuration.PathPrefix()+"/metadata"))

	srv := &http.Server{
		Addr:              *listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func loadOrGenerateKey(keyFile string, logger *zap.Logger) (*rsa.PrivateKey, error) {
	if keyFile != "" {
		return samlchain.LoadPrivateKey(keyFile)
	}
	logger.Warn("no key file given, sessions are signed with an ephemeral key")
	return rsa.GenerateKey(rand.Reader, 2048)
}

func home(prefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<h1>SP demo</h1>
<ul>
<li><a href="/app">protected page</a></li>
<li><a href="%s/metadata">SP metadata</a></li>
<li><a href="%s/select">sign in</a></li>
<li><a href="%s/logout">sign out</a></li>
</ul>`, prefix, prefix, prefix)
	}
}

func protectedApp(w http.ResponseWriter, r *http.Request) {
	session := samlchain.SessionFromContext(r.Context())
	if session == nil {
		http.Error(w, "no session", http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<h1>Hello %s</h1><p>authenticated by %s</p><ul>", session.Subject, session.IdPEntityID)
	for name, value := range session.Attributes {
		fmt.Fprintf(w, "<li>%s = %s</li>", name, value)
	}
	fmt.Fprint(w, "</ul>")
}
