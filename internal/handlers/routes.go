package handlers

import (
	"context"
	"net/http"
	"time"

	"genealogy/internal/database"
	"genealogy/internal/metrics"
)

// Handlers groups the API handlers mounted by NewRouter
type Handlers struct {
	Members   *MemberHandler
	Clans     *ClanHandler
	Marriages *MarriageHandler
	Tree      *TreeHandler
}

// NewRouter registers every API route and wraps the mux with the request chain.
// The /healthz and /metrics endpoints are unauthenticated.
func NewRouter(h Handlers, mw *Middleware, db *database.DB, m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()

	// Authenticated reads
	api := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, mw.RequireActor(fn))
	}
	// Authenticated and rate limited writes
	write := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, mw.RequireActor(mw.RateLimit(fn)))
	}

	// Member routes
	api("GET /api/members", h.Members.List)
	api("GET /api/members/search", h.Members.Search)
	api("GET /api/members/{id}", h.Members.Get)
	api("GET /api/members/{id}/profile", h.Members.Profile)
	write("POST /api/members", h.Members.Create)
	write("PUT /api/members/{id}", h.Members.Update)
	write("POST /api/members/{id}/delete", h.Members.SoftDelete)
	write("POST /api/members/{id}/restore", h.Members.Restore)
	write("DELETE /api/members/{id}", h.Members.HardDelete)

	// Clan routes
	api("GET /api/clans", h.Clans.List)
	api("GET /api/clans/simple", h.Clans.ListSimple)
	api("GET /api/clans/{id}", h.Clans.Get)
	write("POST /api/clans", h.Clans.Create)
	write("PUT /api/clans/{id}", h.Clans.Update)
	write("DELETE /api/clans/{id}", h.Clans.Delete)

	// Marriage routes
	api("GET /api/members/{id}/marriages", h.Marriages.ForMember)
	api("GET /api/marriages/{id}", h.Marriages.Get)
	api("GET /api/marriages/{id}/children", h.Marriages.Children)
	write("POST /api/marriages", h.Marriages.Create)
	write("PUT /api/marriages/{id}", h.Marriages.Update)
	write("DELETE /api/marriages/{id}", h.Marriages.Delete)

	// Tree routes
	api("GET /api/tree", h.Tree.Forest)
	api("GET /api/tree/flat", h.Tree.Flat)
	api("GET /api/members/{id}/ancestors", h.Tree.Ancestors)
	api("GET /api/members/{id}/descendants", h.Tree.Descendants)

	// Operations
	mux.HandleFunc("GET /healthz", healthz(db))
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}

	return mw.RequestID(mw.SecurityHeaders(mw.Logging(mux)))
}

// healthz reports whether the database answers a ping
func healthz(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			respondFailure(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		respondOK(w, "ok", nil)
	}
}
