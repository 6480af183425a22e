// Package rest exposes the turn lifecycle and the enforcement pipeline over
// HTTP. Handlers translate JSON requests into service calls and map domain
// error codes onto HTTP statuses.
package rest

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/louisbranch/turnforge/internal/dice"
	"github.com/louisbranch/turnforge/internal/mechanics"
	"github.com/louisbranch/turnforge/internal/pipeline"
	apperrors "github.com/louisbranch/turnforge/internal/platform/errors"
	"github.com/louisbranch/turnforge/internal/storage"
	turnservice "github.com/louisbranch/turnforge/internal/turn/service"
)

// Handler bundles the services the REST surface fronts.
type Handler struct {
	turns      *turnservice.Service
	pipeline   *pipeline.Pipeline
	roller     dice.Resolver
	contracts  storage.TurnContractStore
	characters storage.CharacterStore
	audits     storage.AuditStore
}

// New builds the HTTP handler.
func New(turns *turnservice.Service, pipe *pipeline.Pipeline, roller dice.Resolver,
	contracts storage.TurnContractStore, characters storage.CharacterStore,
	audits storage.AuditStore) http.Handler {
	h := &Handler{
		turns:      turns,
		pipeline:   pipe,
		roller:     roller,
		contracts:  contracts,
		characters: characters,
		audits:     audits,
	}

	router := chi.NewRouter()
	router.Get("/healthz", h.health)
	router.Route("/v1", func(r chi.Router) {
		r.Post("/turns", h.startTurn)
		r.Get("/turns/stale", h.staleTurns)
		r.Get("/turns/{id}", h.getTurn)
		r.Post("/turns/{id}/inputs", h.submitInput)
		r.Post("/turns/{id}/advance", h.advanceTurn)
		r.Post("/turns/{id}/tally", h.tallyVotes)
		r.Post("/scenes/{id}/process", h.processTurn)
		r.Post("/rolls", h.resolveRoll)
		r.Get("/characters/{id}", h.getCharacter)
		r.Get("/characters/{id}/audit", h.characterAudit)
	})
	return router
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("op=rest.write_json error=%v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	message := err.Error()
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	writeJSON(w, code.HTTPStatus(), errorEnvelope{Error: errorBody{
		Code:    string(code),
		Message: message,
	}})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: errorBody{
			Code:    "BAD_REQUEST",
			Message: "invalid request body",
		}})
		return false
	}
	return true
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type startTurnRequest struct {
	SceneID          string `json:"scene_id"`
	Mode             string `json:"mode"`
	NarrativeContext string `json:"narrative_context,omitempty"`
}

func (h *Handler) startTurn(w http.ResponseWriter, r *http.Request) {
	var req startTurnRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := h.turns.StartTurn(r.Context(), req.SceneID, storage.TurnMode(req.Mode), req.NarrativeContext)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, turnResponse(rec))
}

func (h *Handler) getTurn(w http.ResponseWriter, r *http.Request) {
	rec, err := h.contracts.GetTurnContract(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turnResponse(rec))
}

func (h *Handler) staleTurns(w http.ResponseWriter, r *http.Request) {
	recs, err := h.turns.StaleTurns(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]TurnResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, turnResponse(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

type submitInputRequest struct {
	PlayerID    string `json:"player_id"`
	CharacterID string `json:"character_id,omitempty"`
	Content     string `json:"content"`
	IsHost      bool   `json:"is_host,omitempty"`
}

func (h *Handler) submitInput(w http.ResponseWriter, r *http.Request) {
	var req submitInputRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := h.turns.SubmitInput(r.Context(), chi.URLParam(r, "id"),
		req.PlayerID, req.CharacterID, req.Content, req.IsHost)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inputResponse(rec))
}

type advanceTurnRequest struct {
	Phase string `json:"phase"`
}

func (h *Handler) advanceTurn(w http.ResponseWriter, r *http.Request) {
	var req advanceTurnRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := h.turns.AdvanceTurn(r.Context(), chi.URLParam(r, "id"), storage.TurnPhase(req.Phase))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turnResponse(rec))
}

type tallyRequest struct {
	PlayerCount int `json:"player_count"`
}

func (h *Handler) tallyVotes(w http.ResponseWriter, r *http.Request) {
	var req tallyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	tally, err := h.turns.TallyVotes(r.Context(), chi.URLParam(r, "id"), req.PlayerCount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tallyResponse(tally))
}

type processRequest struct {
	Messages []processMessage `json:"messages"`
}

type processMessage struct {
	PlayerID    string `json:"player_id"`
	CharacterID string `json:"character_id,omitempty"`
	Content     string `json:"content"`
}

func (h *Handler) processTurn(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if !decodeBody(w, r, &req) {
		return
	}
	messages := make([]pipeline.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, pipeline.Message{
			PlayerID:    m.PlayerID,
			CharacterID: m.CharacterID,
			Content:     m.Content,
		})
	}
	result, err := h.pipeline.ProcessTurn(r.Context(), chi.URLParam(r, "id"), messages)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, processResponse(result))
}

func (h *Handler) resolveRoll(w http.ResponseWriter, r *http.Request) {
	var req mechanics.DiceRollRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resolution, err := h.roller.Resolve(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rollResponse(resolution))
}

func (h *Handler) getCharacter(w http.ResponseWriter, r *http.Request) {
	rec, err := h.characters.GetCharacter(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, characterResponse(rec))
}

func (h *Handler) characterAudit(w http.ResponseWriter, r *http.Request) {
	recs, err := h.audits.ListAuditRecordsByCharacter(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]AuditResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, auditResponse(rec))
	}
	writeJSON(w, http.StatusOK, out)
}
