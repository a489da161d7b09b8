package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"github.com/imranraza-AI/Clothing-brand-website/internal/infra/geoip"
)

type localeContextKey struct{}

var LocaleKey = localeContextKey{}

var (
	supported = []language.Tag{language.English, language.Indonesian}
	matcher   = language.NewMatcher(supported)
)

// I18N stores the request locale in the context. An explicit X-Locale header
// wins, then Accept-Language, then a GeoIP hint, then fallback.
func I18N(fallback string, hinter geoip.LocaleHinter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := detectLocale(r, fallback, hinter)
			w.Header().Set("Content-Language", locale)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), LocaleKey, locale)))
		})
	}
}

func detectLocale(r *http.Request, fallback string, hinter geoip.LocaleHinter) string {
	if v := matchLocale(r.Header.Get("X-Locale")); v != "" {
		return v
	}
	if v := matchLocale(r.Header.Get("Accept-Language")); v != "" {
		return v
	}
	if hinter != nil {
		if hint, err := hinter.LocaleHint(ClientIP(r)); err == nil && hint != "" {
			return hint
		}
	}
	if fallback != "" {
		return fallback
	}
	return "en"
}

// matchLocale returns "" when header names no language we can serve.
func matchLocale(header string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return ""
	}
	base, _ := supported[idx].Base()
	return base.String()
}

// ClientIP returns the best-effort client IP address for the request.
func ClientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			if ip := strings.TrimSpace(part); net.ParseIP(ip) != nil {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok {
		return v
	}
	return "en"
}
