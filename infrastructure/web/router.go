package web

import (
	"net/http"
)

// NewRouter registers every route. Host routes require a host token when host login is enabled.
func NewRouter(h *Handlers) http.Handler {
	mux := http.NewServeMux()
	logged := func(next http.HandlerFunc) http.HandlerFunc { return WithLogging(h.log, next) }
	hostOnly := func(next http.HandlerFunc) http.HandlerFunc { return WithLogging(h.log, RequireHost(h.host, next)) }

	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /voices", logged(h.Voices))
	mux.HandleFunc("POST /host/login", logged(h.HostLogin))

	// Battle management (host screen)
	mux.HandleFunc("POST /battles", hostOnly(h.CreateBattle))
	mux.HandleFunc("PUT /battles/{id}", hostOnly(h.UpdateBattle))
	mux.HandleFunc("DELETE /battles/{id}", hostOnly(h.DeleteBattle))
	mux.HandleFunc("POST /battles/{id}/roasts", hostOnly(h.AddRoast))
	mux.HandleFunc("POST /battles/{id}/ai-roast", hostOnly(h.AIRoast))
	mux.HandleFunc("POST /battles/{id}/timer", hostOnly(h.Timer))

	// Voters and spectators
	mux.HandleFunc("GET /battles", logged(h.ListBattles))
	mux.HandleFunc("GET /battles/{id}", logged(h.GetBattle))
	mux.HandleFunc("POST /battles/{id}/votes", logged(h.CastVote))
	mux.HandleFunc("GET /battles/{id}/votes", logged(h.ListVotes))
	mux.HandleFunc("GET /battles/{id}/roasts", logged(h.ListRoasts))
	mux.HandleFunc("GET /battles/{id}/events", h.Events)
	mux.HandleFunc("GET /battles/{id}/ws", h.WebSocket)

	if h.archive != nil {
		mux.HandleFunc("GET /archive", logged(h.ListArchive))
		mux.HandleFunc("GET /archive/search", logged(h.SearchArchive))
		mux.HandleFunc("GET /archive/{id}", logged(h.GetArchive))
	}

	return CORS(h.cfg.AllowedOrigin, mux)
}
