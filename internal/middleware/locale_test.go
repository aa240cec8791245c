package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLocaleNegotiation(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name           string
		acceptLanguage string
		want           string
	}{
		{name: "simplified chinese", acceptLanguage: "zh-CN,zh;q=0.9", want: "zh"},
		{name: "english", acceptLanguage: "en-US,en;q=0.8", want: "en"},
		{name: "unknown falls back to chinese", acceptLanguage: "fr-FR", want: "zh"},
		{name: "empty header", acceptLanguage: "", want: "zh"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var got string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = LocaleFromContext(r.Context())
			})
			req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
			if tc.acceptLanguage != "" {
				req.Header.Set("Accept-Language", tc.acceptLanguage)
			}
			rec := httptest.NewRecorder()
			Locale(next).ServeHTTP(rec, req)

			if got != tc.want {
				t.Fatalf("locale = %q, want %q", got, tc.want)
			}
			if header := rec.Header().Get("X-Locale"); header != tc.want {
				t.Fatalf("X-Locale = %q, want %q", header, tc.want)
			}
		})
	}
}

func TestLocaleFromContextDefault(t *testing.T) {
	t.Parallel()
	if got := LocaleFromContext(context.Background()); got != "zh" {
		t.Fatalf("default locale = %q, want zh", got)
	}
}
