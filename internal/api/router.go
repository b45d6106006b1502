package api

import (
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced. maxUpload
// caps the uploaded archive size in bytes; zero means DefaultMaxUploadBytes.
func NewRouter(svc *Service, authEnabled bool, token string, maxUpload int64) chi.Router {
	h := NewHandler(svc, maxUpload)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Post("/convert", h.Convert)
	r.Get("/conversions", h.ListConversions)
	r.Get("/conversions/{id}", h.GetConversion)

	return r
}
