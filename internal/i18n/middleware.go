package i18n

import "net/http"

// Middleware picks a localizer from the request's Accept-Language header and
// stores it in the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag := Negotiate(r.Header.Get("Accept-Language"))
		w.Header().Set("Content-Language", tag.String())
		ctx := WithLocalizer(r.Context(), NewLocalizer(tag.String()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
