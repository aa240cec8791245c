package middleware

import (
	"context"
	"net/http"

	"golang.org/x/text/language"
)

type localeKey struct{}

// The error surface is bilingual; Chinese is the primary audience.
var localeMatcher = language.NewMatcher([]language.Tag{
	language.SimplifiedChinese,
	language.English,
})

// Locale negotiates the response language from Accept-Language and exposes
// the canonical tag via the request context and the X-Locale header.
func Locale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag, _ := language.MatchStrings(localeMatcher, r.Header.Get("Accept-Language"))
		base, _ := tag.Base()
		locale := base.String()
		w.Header().Set("X-Locale", locale)
		ctx := context.WithValue(r.Context(), localeKey{}, locale)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LocaleFromContext returns the negotiated locale, defaulting to zh.
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(localeKey{}).(string); ok && v != "" {
		return v
	}
	return "zh"
}
