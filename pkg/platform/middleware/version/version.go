// Package version tags requests with the API version of the route they matched.
package version

import (
	"net/http"

	id "customerapi/pkg/domain"
	"customerapi/pkg/requestcontext"
)

// HeaderAPIVersion is set on every versioned response.
const HeaderAPIVersion = "X-API-Version"

// ExtractVersion stores version in the context and advertises it in the response.
//
//	r.Route(id.APIVersionV1.PathPrefix(), func(v1 chi.Router) {
//	    v1.Use(version.ExtractVersion(id.APIVersionV1))
//	})
func ExtractVersion(version id.APIVersion) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(HeaderAPIVersion, version.String())
			ctx := requestcontext.WithAPIVersion(r.Context(), version)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
