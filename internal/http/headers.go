package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"grants/internal/log"
)

// HeadersConfig holds security headers configuration
type HeadersConfig struct {
	// ScriptSources are allowed next to 'self' and the per-request nonce.
	ScriptSources []string

	// HSTS settings
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool

	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	PermissionsPolicy   string
	CrossOriginOpener   string
	CrossOriginResource string
}

// DefaultHeadersConfig returns secure defaults that allow the chart library
// to load from the origin of chartURL.
func DefaultHeadersConfig(chartURL string) HeadersConfig {
	var sources []string
	if origin := originOf(chartURL); origin != "" {
		sources = append(sources, origin)
	}
	return HeadersConfig{
		ScriptSources: sources,

		HSTSMaxAge:            31536000, // 1 year
		HSTSIncludeSubdomains: true,

		XFrameOptions:       "DENY",
		XContentTypeOptions: "nosniff",
		ReferrerPolicy:      "strict-origin-when-cross-origin",
		PermissionsPolicy:   "geolocation=(), microphone=(), camera=(), payment=()",
		CrossOriginOpener:   "same-origin",
		CrossOriginResource: "same-origin",
	}
}

// HeadersMiddleware applies security headers to responses and stores a
// fresh CSP nonce in the request context for inline chart scripts.
type HeadersMiddleware struct {
	config HeadersConfig
}

// NewHeadersMiddleware creates a new security headers middleware
func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	return &HeadersMiddleware{config: config}
}

// Middleware returns the HTTP middleware function
func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nonce, err := generateNonce()
		if err != nil {
			ctx := r.Context()
			log.FromContext(ctx).WithComponent(log.ComponentSecurity).ErrorContext(ctx, "Nonce generation failed",
				log.NewFields().WithError(err, log.ErrorTypeInternal).ToSlice()...)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		h.applyHeaders(w, r, nonce)

		ctx := context.WithValue(r.Context(), nonceContextKey, nonce)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ContentSecurityPolicy builds the policy for one response.
func (h *HeadersMiddleware) ContentSecurityPolicy(nonce string) string {
	scripts := append([]string{"'self'", fmt.Sprintf("'nonce-%s'", nonce)}, h.config.ScriptSources...)
	return "default-src 'self'; " +
		"script-src " + strings.Join(scripts, " ") + "; " +
		"style-src 'self'; " +
		"img-src 'self' data:; " +
		"connect-src 'self'; " +
		"font-src 'self'; " +
		"object-src 'none'; " +
		"frame-ancestors 'none'; " +
		"base-uri 'self'; " +
		"form-action 'self'"
}

func (h *HeadersMiddleware) applyHeaders(w http.ResponseWriter, r *http.Request, nonce string) {
	headers := w.Header()

	headers.Set("X-Content-Type-Options", h.config.XContentTypeOptions)
	headers.Set("X-Frame-Options", h.config.XFrameOptions)
	headers.Set("Content-Security-Policy", h.ContentSecurityPolicy(nonce))
	headers.Set("Referrer-Policy", h.config.ReferrerPolicy)
	headers.Set("Permissions-Policy", h.config.PermissionsPolicy)
	headers.Set("Cross-Origin-Opener-Policy", h.config.CrossOriginOpener)
	headers.Set("Cross-Origin-Resource-Policy", h.config.CrossOriginResource)

	// HSTS header (only for HTTPS)
	if r.TLS != nil && h.config.HSTSMaxAge > 0 {
		hstsValue := fmt.Sprintf("max-age=%d", h.config.HSTSMaxAge)
		if h.config.HSTSIncludeSubdomains {
			hstsValue += "; includeSubDomains"
		}
		headers.Set("Strict-Transport-Security", hstsValue)
	}
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
