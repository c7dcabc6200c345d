package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"roast-battle/errors"
	"roast-battle/observability"
	"roast-battle/repositories"
	"roast-battle/services"
	"strconv"
	"time"
)

type Config struct {
	SubscriberBufferSize int
	AllowedOrigin        string
	SearchLimit          int
}

// Handlers serves the battle API. Archive is optional, its routes are not registered without it.
type Handlers struct {
	log        *slog.Logger
	battles    services.IBattleService
	roasts     services.IRoastService
	host       services.IHostService
	archive    repositories.IArchiveRepository
	monitoring *observability.MonitoringManager
	cfg        Config
	now        func() time.Time
}

func NewHandlers(
	log *slog.Logger,
	battles services.IBattleService,
	roasts services.IRoastService,
	host services.IHostService,
	archive repositories.IArchiveRepository,
	monitoring *observability.MonitoringManager,
	cfg Config,
) *Handlers {
	return &Handlers{
		log:        log,
		battles:    battles,
		roasts:     roasts,
		host:       host,
		archive:    archive,
		monitoring: monitoring,
		cfg:        cfg,
		now:        time.Now,
	}
}

func (h *Handlers) CreateBattle(w http.ResponseWriter, r *http.Request) {
	var req services.CreateBattleRequest
	if err := ParseJSONBody(r, &req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	battle, err := h.battles.CreateBattle(req)
	if err != nil {
		writeError(h.log, w, err)
		return
	}
	JSONResponse(w, http.StatusCreated, battle)
}

func (h *Handlers) ListBattles(w http.ResponseWriter, _ *http.Request) {
	JSONResponse(w, http.StatusOK, h.battles.ListActive())
}

func (h *Handlers) GetBattle(w http.ResponseWriter, r *http.Request) {
	state, err := h.battles.GetBattle(r.PathValue("id"))
	if err != nil {
		writeError(h.log, w, err)
		return
	}
	JSONResponse(w, http.StatusOK, state)
}

func (h *Handlers) UpdateBattle(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateBattleRequest
	if err := ParseJSONBody(r, &req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	battle, err := h.battles.UpdateBattle(r.PathValue("id"), req)
	if err != nil {
		writeError(h.log, w, err)
		return
	}
	JSONResponse(w, http.StatusOK, battle)
}

func (h *Handlers) DeleteBattle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.battles.DeleteBattle(id); err != nil {
		writeError(h.log, w, err)
		return
	}
	JSONResponse(w, http.StatusOK, map[string]string{"deleted": id})
}

// CastVote answers 409 when the voter already voted in the round.
func (h *Handlers) CastVote(w http.ResponseWriter, r *http.Request) {
	var req services.CastVoteRequest
	if err := ParseJSONBody(r, &req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	result, err := h.battles.CastVote(r.PathValue("id"), req)
	if err != nil {
		writeError(h.log, w, err)
		return
	}
	if !result.Accepted {
		ErrorResponse(w, http.StatusConflict, "already voted in this round")
		return
	}
	JSONResponse(w, http.StatusCreated, result)
}

func (h *Handlers) ListVotes(w http.ResponseWriter, r *http.Request) {
	round, err := roundQuery(r)
	if err != nil {
		writeError(h.log, w, err)
		return
	}
	view, err := h.battles.Votes(r.PathValue("id"), round)
	if err != nil {
		writeError(h.log, w, err)
		return
	}
	JSONResponse(w, http.StatusOK, view)
}

func (h *Handlers) AddRoast(w http.ResponseWriter, r *http.Request) {
	var req services.AddRoastRequest
	if err := ParseJSONBody(r, &req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	roast, err := h.battles.AddRoast(r.PathValue("id"), req)
	if err != nil {
		writeError(h.log, w, err)
		return
	}
	JSONResponse(w, http.StatusCreated, roast)
}

func (h *Handlers) ListRoasts(w http.ResponseWriter, r *http.Request) {
	round, err := roundQuery(r)
	if err != nil {
		writeError(h.log, w, err)
		return
	}
	roasts, err := h.battles.Roasts(r.PathValue("id"), round)
	if err != nil {
		writeError(h.log, w, err)
		return
	}
	JSONResponse(w, http.StatusOK, roasts)
}

// AIRoast accepts an empty body, topic and round then come from the battle.
func (h *Handlers) AIRoast(w http.ResponseWriter, r *http.Request) {
	var req services.AIRoastRequest
	if r.ContentLength != 0 {
		if err := ParseJSONBody(r, &req); err != nil {
			ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}
	result, err := h.roasts.GenerateAIRoast(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeError(h.log, w, err)
		return
	}
	JSONResponse(w, http.StatusCreated, result)
}

func (h *Handlers) Timer(w http.ResponseWriter, r *http.Request) {
	var req services.TimerRequest
	if err := ParseJSONBody(r, &req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	battle, err := h.battles.Timer(r.PathValue("id"), req)
	if err != nil {
		writeError(h.log, w, err)
		return
	}
	JSONResponse(w, http.StatusOK, battle)
}

func (h *Handlers) Voices(w http.ResponseWriter, _ *http.Request) {
	JSONResponse(w, http.StatusOK, map[string]any{"voices": h.roasts.Voices()})
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	stats, err := h.monitoring.Collect()
	if err != nil {
		h.log.Debug("Process sampling failed", "error", err)
	}
	JSONResponse(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": h.now(),
		"process":   stats,
		"battles":   h.battles.Stats(),
	})
}

func (h *Handlers) HostLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Passphrase string `json:"passphrase"`
	}
	if err := ParseJSONBody(r, &req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	token, err := h.host.Login(req.Passphrase)
	if err != nil {
		writeError(h.log, w, err)
		return
	}
	JSONResponse(w, http.StatusOK, token)
}

func (h *Handlers) ListArchive(w http.ResponseWriter, r *http.Request) {
	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}
	records, next, err := h.archive.List(cursor)
	if err != nil {
		writeError(h.log, w, err)
		return
	}
	JSONResponse(w, http.StatusOK, map[string]any{"battles": records, "nextCursor": next})
}

func (h *Handlers) GetArchive(w http.ResponseWriter, r *http.Request) {
	record, err := h.archive.Get(r.PathValue("id"))
	if err != nil {
		writeError(h.log, w, err)
		return
	}
	JSONResponse(w, http.StatusOK, record)
}

func (h *Handlers) SearchArchive(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		ErrorResponse(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := h.cfg.SearchLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			ErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, h.cfg.SearchLimit)
	}
	hits, err := h.archive.SearchRoasts(r.Context(), query, limit)
	if err != nil {
		writeError(h.log, w, err)
		return
	}
	JSONResponse(w, http.StatusOK, map[string]any{"hits": hits})
}

func roundQuery(r *http.Request) (*int, error) {
	raw := r.URL.Query().Get("round")
	if raw == "" {
		return nil, nil
	}
	round, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: round must be a number", errors.ErrInvalidArgument)
	}
	return &round, nil
}
