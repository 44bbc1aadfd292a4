package i18n

import "net/http"

// Middleware injects a localizer into every request context. The language
// comes from the lang query parameter, then Accept-Language, then the default.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := Match(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
		ctx := WithLocalizer(r.Context(), NewLocalizer(lang))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
